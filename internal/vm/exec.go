package vm

import (
	"math/big"

	"github.com/nyxlang/nyx/internal/bytecode"
	"github.com/nyxlang/nyx/internal/coroutine"
	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/lexenv"
	"github.com/nyxlang/nyx/internal/object"
)

// fiber is one logical thread of bytecode execution: the main script
// run, or a suspendable generator/async body parked on its own
// goroutine. Exactly one fiber makes progress at any moment (spec.md
// §5); parked fibers stay registered as GC roots so their frozen
// stacks survive collection.
type fiber struct {
	rt     *Runtime
	stack  []jsvalue.Value
	frames []*frame
}

func (rt *Runtime) newFiber() *fiber {
	f := &fiber{rt: rt, stack: make([]jsvalue.Value, 0, 64)}
	rt.fibers[f] = struct{}{}
	return f
}

func (rt *Runtime) releaseFiber(f *fiber) {
	delete(rt.fibers, f)
}

func (f *fiber) scan(visit func(jsvalue.Value)) {
	for _, v := range f.stack {
		visit(v)
	}
	for _, fr := range f.frames {
		fr.scan(visit)
	}
}

// frame is one activation record (the "context" of spec.md §3): the
// running function, its current lexical environment, the pushed-scope
// and try-region stacks, and the suspension hook for generator/async
// contexts.
type frame struct {
	fnData *ScriptFuncData
	ip     int
	env    *lexenv.Env
	base   int

	args       []jsvalue.Value
	completion jsvalue.Value
	newTarget  *object.Object

	envStack []*lexenv.Env
	tryStack []tryFrame

	// pendingCatch carries the try-region a throw just dispatched to,
	// consumed by OpPushCatch to arm the catch-phase region.
	pendingCatch *tryFrame

	co *coroutine.Coroutine
}

type tryFrame struct {
	info       bytecode.TryInfo
	stackDepth int
	envDepth   int
	inCatch    bool
}

func (fr *frame) scan(visit func(jsvalue.Value)) {
	lexenv.ScanChain(fr.env, visit)
	for _, v := range fr.args {
		visit(v)
	}
	visit(fr.completion)
	if fr.newTarget != nil {
		visit(jsvalue.Object(fr.newTarget))
	}
}

// frameReturn routes every `return` (and Halt) through the unwinding
// machinery so pending finally blocks run exactly once.
type frameReturn struct {
	value jsvalue.Value
}

func (*frameReturn) Error() string { return "frame return" }

// newFrame builds an activation for d. Arrow functions get a plain
// declarative environment (no own this); everything else gets a
// function environment with this bound. The function's top binding
// group seeds the environment's slots (spec.md §4.5 scope seeding).
func (f *fiber) newFrame(d *ScriptFuncData, this jsvalue.Value, args []jsvalue.Value) *frame {
	fr := &frame{fnData: d, args: args, base: len(f.stack)}
	if d.TopLevel {
		fr.env = d.Env
		return fr
	}
	if d.Fn.IsArrow {
		fr.env = lexenv.NewDeclarative(d.Env)
	} else {
		fe := lexenv.NewFunction(d.Env, lexenv.ThisInitialised, nil)
		fe.BindThis(this)
		fe.HomeObject = d.HomeObject
		fe.NewTarget = fr.newTarget
		fr.env = fe
	}
	f.rt.seedBindingGroup(fr.env, d.Module, d.Fn.TopBindingGroup)
	return fr
}

// SeedBindingGroup exposes scope seeding to the loader, which
// instantiates a module environment's top-level bindings before
// evaluation.
func (rt *Runtime) SeedBindingGroup(env *lexenv.Env, m *bytecode.Module, group int) {
	rt.seedBindingGroup(env, m, group)
}

// seedBindingGroup instantiates one compile-time binding group into a
// live environment record: vars initialise to undefined immediately,
// let/function stay in the dead zone until their initializer runs,
// const bindings are immutable (spec.md §4.5 scope-push semantics).
func (rt *Runtime) seedBindingGroup(env *lexenv.Env, m *bytecode.Module, group int) {
	if group < 0 || group >= len(m.BindingGroups) {
		return
	}
	for _, bi := range m.BindingGroups[group].Bindings {
		b := m.Bindings[bi]
		switch b.Kind {
		case bytecode.BindingConst:
			env.CreateImmutableBinding(b.Name, true)
		case bytecode.BindingVar:
			env.CreateMutableBinding(b.Name, false)
			env.InitialiseBinding(b.Name, jsvalue.Undefined)
		default: // let, param, function
			env.CreateMutableBinding(b.Name, false)
		}
	}
}

// --- stack helpers ---

func (f *fiber) push(v jsvalue.Value) { f.stack = append(f.stack, v) }

func (f *fiber) pop() jsvalue.Value {
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v
}

func (f *fiber) peek(n int) jsvalue.Value { return f.stack[len(f.stack)-1-n] }

func (f *fiber) popN(n int) []jsvalue.Value {
	if n == 0 {
		return nil
	}
	vals := make([]jsvalue.Value, n)
	copy(vals, f.stack[len(f.stack)-n:])
	f.stack = f.stack[:len(f.stack)-n]
	return vals
}

// runFrame executes fr's bytecode to completion, draining the
// fetch-decode-dispatch loop and handling unwinding.
func (f *fiber) runFrame(fr *frame) (jsvalue.Value, error) {
	f.frames = append(f.frames, fr)
	defer func() {
		f.frames = f.frames[:len(f.frames)-1]
		f.stack = f.stack[:fr.base]
	}()

	rt := f.rt
	code := fr.fnData.Fn.Code
	for fr.ip < len(code) {
		if rt.interrupted.Load() {
			return jsvalue.Undefined, rt.rangeError("execution interrupted by host")
		}
		rt.maybeCollect()

		inst := code[fr.ip]
		fr.ip++
		err := f.step(fr, inst)
		if err == nil {
			continue
		}
		err = rt.jsError(err)
		if err == errTerminated {
			return jsvalue.Undefined, err
		}
		handled, ret, out := f.unwind(fr, err)
		if handled {
			continue
		}
		if out != nil {
			return jsvalue.Undefined, out
		}
		return ret, nil
	}
	return fr.completion, nil
}

// runRange executes the instruction window [from, to) — a finally
// subroutine — restoring the instruction pointer afterwards. A throw
// or return inside the window propagates as the new completion.
func (f *fiber) runRange(fr *frame, from, to int) error {
	saved := fr.ip
	fr.ip = from
	code := fr.fnData.Fn.Code
	for fr.ip < to && fr.ip < len(code) {
		inst := code[fr.ip]
		fr.ip++
		if err := f.step(fr, inst); err != nil {
			fr.ip = saved
			return f.rt.jsError(err)
		}
	}
	fr.ip = saved
	return nil
}

// unwind processes an abrupt completion: pops try regions innermost-
// out, dispatching catchable throws to their handlers and running
// finally subroutines along the way (spec.md §4.5 "Exceptions").
// Returns handled=true when a catch took over; otherwise ret/out
// carry the frame's final completion.
func (f *fiber) unwind(fr *frame, err error) (handled bool, ret jsvalue.Value, out error) {
	for len(fr.tryStack) > 0 {
		tf := fr.tryStack[len(fr.tryStack)-1]
		fr.tryStack = fr.tryStack[:len(fr.tryStack)-1]

		// Restore the lexical-scope chain and operand stack to the
		// region entry state ("popping lexical-env pushes with
		// matching pops along the way").
		for len(fr.envStack) > tf.envDepth {
			fr.env = fr.envStack[len(fr.envStack)-1]
			fr.envStack = fr.envStack[:len(fr.envStack)-1]
		}
		if len(f.stack) > tf.stackDepth {
			f.stack = f.stack[:tf.stackDepth]
		}

		if th, ok := err.(*Thrown); ok && tf.info.HasCatch && !tf.inCatch {
			f.push(th.Value)
			fr.ip = tf.info.CatchTarget
			tfCopy := tf
			fr.pendingCatch = &tfCopy
			return true, jsvalue.Undefined, nil
		}

		if tf.info.HasFinally {
			if ferr := f.runRange(fr, tf.info.FinallyTarget, tf.info.FinallyEnd); ferr != nil {
				// The finally block's abrupt completion replaces the
				// in-flight one.
				err = ferr
			}
		}
	}

	switch e := err.(type) {
	case *frameReturn:
		return false, e.value, nil
	case *abruptReturn:
		return false, e.value, nil
	default:
		return false, jsvalue.Undefined, err
	}
}

// collectArgs pops argc call operands, splicing spread markers in
// place.
func (f *fiber) collectArgs(argc int) []jsvalue.Value {
	raw := f.popN(argc)
	expanded := make([]jsvalue.Value, 0, len(raw))
	for _, v := range raw {
		if sd := spreadDataOf(v); sd != nil {
			expanded = append(expanded, sd.values...)
			continue
		}
		expanded = append(expanded, v)
	}
	return expanded
}

// step executes a single instruction. A non-nil error is an abrupt
// completion for runFrame's unwinding path.
func (f *fiber) step(fr *frame, inst bytecode.Instruction) error {
	rt := f.rt
	m := fr.fnData.Module

	switch inst.OpCode() {
	case bytecode.OpLoadConst:
		f.push(m.Constants[inst.B()])
	case bytecode.OpLoadUndefined:
		f.push(jsvalue.Undefined)
	case bytecode.OpLoadNull:
		f.push(jsvalue.Null)
	case bytecode.OpLoadTrue:
		f.push(jsvalue.Bool(true))
	case bytecode.OpLoadFalse:
		f.push(jsvalue.Bool(false))
	case bytecode.OpLoadThis:
		v, err := fr.env.GetThisBinding()
		if err != nil {
			return err
		}
		f.push(v)
	case bytecode.OpLoadArg:
		i := int(inst.A())
		if i < len(fr.args) {
			f.push(fr.args[i])
		} else {
			f.push(jsvalue.Undefined)
		}
	case bytecode.OpLoadRest:
		i := int(inst.A())
		var rest []jsvalue.Value
		if i < len(fr.args) {
			rest = fr.args[i:]
		}
		f.push(jsvalue.Object(rt.newArrayFrom(rest)))

	// --- bindings ---

	case bytecode.OpGetBinding:
		name := m.Bindings[inst.B()].Name
		return f.pushBinding(fr, name, false)
	case bytecode.OpGetBindingByName:
		name := m.Constants[inst.B()].AsString().Content
		return f.pushBinding(fr, name, inst.A() == 1)
	case bytecode.OpSetBinding:
		name := m.Bindings[inst.B()].Name
		v := f.peek(0)
		env := lexenv.Resolve(fr.env, name)
		if env == nil {
			return rt.Realm.GlobalEnv.SetMutableBinding(name, v, false)
		}
		return env.SetMutableBinding(name, v, false)
	case bytecode.OpSetBindingByName:
		name := m.Constants[inst.B()].AsString().Content
		v := f.peek(0)
		env := lexenv.Resolve(fr.env, name)
		if env == nil {
			return rt.Realm.GlobalEnv.SetMutableBinding(name, v, false)
		}
		return env.SetMutableBinding(name, v, false)
	case bytecode.OpInitBinding:
		name := m.Bindings[inst.B()].Name
		v := f.pop()
		env := lexenv.Resolve(fr.env, name)
		if env == nil {
			return rt.Realm.GlobalEnv.SetMutableBinding(name, v, false)
		}
		env.InitialiseBinding(name, v)

	// --- arithmetic and logic ---

	case bytecode.OpAdd:
		b, a := f.pop(), f.pop()
		v, err := rt.add(a, b)
		if err != nil {
			return err
		}
		f.push(v)
	case bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod, bytecode.OpPow:
		b, a := f.pop(), f.pop()
		v, err := rt.numericBinary(numericOpName(inst.OpCode()), a, b)
		if err != nil {
			return err
		}
		f.push(v)
	case bytecode.OpBitAnd, bytecode.OpBitOr, bytecode.OpBitXor, bytecode.OpShl, bytecode.OpShr, bytecode.OpUShr:
		b, a := f.pop(), f.pop()
		v, err := rt.bitwiseBinary(bitwiseOpName(inst.OpCode()), a, b)
		if err != nil {
			return err
		}
		f.push(v)
	case bytecode.OpNegate:
		v := f.pop()
		if v.IsBigInt() {
			f.push(jsvalue.BigInt(new(big.Int).Neg(bigOf(v))))
			break
		}
		n, err := rt.ToNumber(v)
		if err != nil {
			return err
		}
		f.push(jsvalue.Number(-n))
	case bytecode.OpIncrement, bytecode.OpDecrement:
		v := f.pop()
		delta := 1.0
		if inst.OpCode() == bytecode.OpDecrement {
			delta = -1
		}
		if v.IsBigInt() {
			f.push(jsvalue.BigInt(new(big.Int).Add(bigOf(v), big.NewInt(int64(delta)))))
			break
		}
		n, err := rt.ToNumber(v)
		if err != nil {
			return err
		}
		f.push(jsvalue.Number(n + delta))
	case bytecode.OpBitNot:
		v := f.pop()
		n, err := rt.ToNumber(v)
		if err != nil {
			return err
		}
		f.push(jsvalue.Number(float64(^toInt32(n))))
	case bytecode.OpNot:
		f.push(jsvalue.Bool(!f.pop().ToBoolean()))
	case bytecode.OpTypeof:
		v := f.pop()
		f.push(rt.str(typeofString(v)))
	case bytecode.OpToBoolean:
		f.push(jsvalue.Bool(f.pop().ToBoolean()))
	case bytecode.OpToNumber:
		v := f.pop()
		if v.IsBigInt() {
			f.push(v) // ToNumeric keeps BigInts for ++/--
			break
		}
		n, err := rt.ToNumber(v)
		if err != nil {
			return err
		}
		f.push(jsvalue.Number(n))
	case bytecode.OpToString:
		s, err := rt.ToString(f.pop())
		if err != nil {
			return err
		}
		f.push(rt.str(s))
	case bytecode.OpToPropertyKey:
		v := f.pop()
		if v.Kind == jsvalue.KindSymbol {
			f.push(v)
			break
		}
		s, err := rt.ToString(v)
		if err != nil {
			return err
		}
		f.push(rt.str(s))

	// --- comparisons ---

	case bytecode.OpEqual, bytecode.OpNotEqual:
		b, a := f.pop(), f.pop()
		eq, err := rt.looseEquals(a, b)
		if err != nil {
			return err
		}
		f.push(jsvalue.Bool(eq == (inst.OpCode() == bytecode.OpEqual)))
	case bytecode.OpStrictEqual:
		b, a := f.pop(), f.pop()
		f.push(jsvalue.Bool(strictEquals(a, b)))
	case bytecode.OpStrictNotEqual:
		b, a := f.pop(), f.pop()
		f.push(jsvalue.Bool(!strictEquals(a, b)))
	case bytecode.OpLess, bytecode.OpLessEqual, bytecode.OpGreater, bytecode.OpGreaterEqual:
		b, a := f.pop(), f.pop()
		v, err := rt.compare(compareOpName(inst.OpCode()), a, b)
		if err != nil {
			return err
		}
		f.push(v)
	case bytecode.OpInstanceOf:
		ctor, v := f.pop(), f.pop()
		ok, err := rt.instanceOf(v, ctor)
		if err != nil {
			return err
		}
		f.push(jsvalue.Bool(ok))
	case bytecode.OpIn:
		objV, keyV := f.pop(), f.pop()
		o, _ := objV.Ptr.(*object.Object)
		if !objV.IsObject() || o == nil {
			return rt.typeError("cannot use 'in' operator on a non-object")
		}
		key, err := rt.ToPropertyKey(keyV)
		if err != nil {
			return err
		}
		f.push(jsvalue.Bool(o.HasProperty(key)))

	// --- control flow ---

	case bytecode.OpJump:
		fr.ip += int(inst.SignedB())
	case bytecode.OpJumpIfTrue:
		if f.pop().ToBoolean() {
			fr.ip += int(inst.SignedB())
		}
	case bytecode.OpJumpIfFalse:
		if !f.pop().ToBoolean() {
			fr.ip += int(inst.SignedB())
		}
	case bytecode.OpJumpIfTrueNoPop:
		if f.peek(0).ToBoolean() {
			fr.ip += int(inst.SignedB())
		}
	case bytecode.OpJumpIfFalseNoPop:
		if !f.peek(0).ToBoolean() {
			fr.ip += int(inst.SignedB())
		}
	case bytecode.OpJumpIfNullish:
		if f.peek(0).IsNullish() {
			fr.ip += int(inst.SignedB())
		}
	case bytecode.OpLoop:
		fr.ip -= int(inst.SignedB())

	// --- stack shuffling ---

	case bytecode.OpPop:
		f.pop()
	case bytecode.OpStoreCompletion:
		fr.completion = f.pop()
	case bytecode.OpDup:
		f.push(f.peek(0))
	case bytecode.OpDup2:
		a, b := f.peek(1), f.peek(0)
		f.push(a)
		f.push(b)
	case bytecode.OpSwap:
		n := len(f.stack)
		f.stack[n-1], f.stack[n-2] = f.stack[n-2], f.stack[n-1]
	case bytecode.OpRotate3:
		n := len(f.stack)
		f.stack[n-1], f.stack[n-2], f.stack[n-3] = f.stack[n-3], f.stack[n-1], f.stack[n-2]

	// --- properties ---

	case bytecode.OpGetProperty:
		key := rt.propKeyFor(m, int(inst.B()))
		obj := f.pop()
		v, err := rt.getValueProperty(obj, key)
		if err != nil {
			return err
		}
		f.push(v)
	case bytecode.OpSetProperty:
		key := rt.propKeyFor(m, int(inst.B()))
		value := f.pop()
		obj := f.pop()
		if err := rt.setValueProperty(obj, key, value); err != nil {
			return err
		}
		f.push(value)
	case bytecode.OpGetPropertyComputed:
		keyV := f.pop()
		obj := f.pop()
		key, err := rt.ToPropertyKey(keyV)
		if err != nil {
			return err
		}
		v, err := rt.getValueProperty(obj, key)
		if err != nil {
			return err
		}
		f.push(v)
	case bytecode.OpSetPropertyComputed:
		value := f.pop()
		keyV := f.pop()
		obj := f.pop()
		key, err := rt.ToPropertyKey(keyV)
		if err != nil {
			return err
		}
		if err := rt.setValueProperty(obj, key, value); err != nil {
			return err
		}
		f.push(value)
	case bytecode.OpGetPrivateField:
		name := m.Constants[inst.B()].AsString().Content
		objV := f.pop()
		v, err := rt.getPrivateField(fr, objV, name)
		if err != nil {
			return err
		}
		f.push(v)
	case bytecode.OpSetPrivateField:
		name := m.Constants[inst.B()].AsString().Content
		value := f.pop()
		objV := f.pop()
		if err := rt.setPrivateField(fr, objV, name, value); err != nil {
			return err
		}
		f.push(value)
	case bytecode.OpGetSuperProperty:
		key := rt.propKeyFor(m, int(inst.B()))
		home := fr.fnData.HomeObject
		if home == nil {
			return rt.typeError("'super' is only valid inside methods")
		}
		proto := home.GetPrototypeOf()
		if proto == nil {
			f.push(jsvalue.Undefined)
			break
		}
		thisV, err := fr.env.GetThisBinding()
		if err != nil {
			return err
		}
		v, err := proto.Get(key, thisV)
		if err != nil {
			return err
		}
		f.push(v)
	case bytecode.OpDeleteProperty:
		key := rt.propKeyFor(m, int(inst.B()))
		objV := f.pop()
		o, _ := objV.Ptr.(*object.Object)
		if o == nil {
			f.push(jsvalue.Bool(true))
			break
		}
		ok, err := o.Delete(key)
		if err != nil {
			return err
		}
		f.push(jsvalue.Bool(ok))
	case bytecode.OpDeletePropertyComputed:
		keyV := f.pop()
		objV := f.pop()
		o, _ := objV.Ptr.(*object.Object)
		if o == nil {
			f.push(jsvalue.Bool(true))
			break
		}
		key, err := rt.ToPropertyKey(keyV)
		if err != nil {
			return err
		}
		ok, err := o.Delete(key)
		if err != nil {
			return err
		}
		f.push(jsvalue.Bool(ok))

	// --- literals ---

	case bytecode.OpNewObject:
		f.push(jsvalue.Object(rt.NewObject()))
	case bytecode.OpNewArray:
		vals := f.popN(int(inst.A()))
		f.push(jsvalue.Object(rt.newArrayFrom(vals)))
	case bytecode.OpNewArraySpread:
		if inst.A() == 1 {
			iterable := f.pop()
			arr, _ := f.peek(0).Ptr.(*object.Object)
			vals, err := rt.iterateToSlice(iterable)
			if err != nil {
				return err
			}
			for _, v := range vals {
				rt.arrayAppend(arr, v)
			}
		} else {
			v := f.pop()
			arr, _ := f.peek(0).Ptr.(*object.Object)
			rt.arrayAppend(arr, v)
		}
	case bytecode.OpDefineProperty:
		value := f.pop()
		keyV := f.pop()
		obj, _ := f.peek(0).Ptr.(*object.Object)
		key, err := rt.ToPropertyKey(keyV)
		if err != nil {
			return err
		}
		obj.DefineOwnProperty(key, object.Property{Value: value, Writable: true, Enumerable: true, Configurable: true})
	case bytecode.OpDefineGetter, bytecode.OpDefineSetter:
		fnV := f.pop()
		keyV := f.pop()
		obj, _ := f.peek(0).Ptr.(*object.Object)
		key, err := rt.ToPropertyKey(keyV)
		if err != nil {
			return err
		}
		fnObj, _ := fnV.Ptr.(*object.Object)
		rt.defineAccessor(obj, key, fnObj, inst.OpCode() == bytecode.OpDefineGetter, true)
	case bytecode.OpCopyDataProperties:
		if inst.A() == 1 {
			excluded := f.popN(int(inst.B()))
			src := f.pop()
			rest, err := rt.copyDataProperties(nil, src, excluded)
			if err != nil {
				return err
			}
			f.push(jsvalue.Object(rest))
		} else {
			src := f.pop()
			target, _ := f.peek(0).Ptr.(*object.Object)
			if _, err := rt.copyDataProperties(target, src, nil); err != nil {
				return err
			}
		}
	case bytecode.OpClosure:
		f.push(jsvalue.Object(rt.newClosure(m, int(inst.B()), fr.env)))
	case bytecode.OpNewClassStatic:
		ctorV := f.pop()
		superV := f.pop()
		if err := rt.finishClass(f, fr, ctorV, superV, inst.A() == 1); err != nil {
			return err
		}
	case bytecode.OpDefineMethod:
		if err := rt.defineClassMember(f, inst.A()); err != nil {
			return err
		}

	// --- calls ---

	case bytecode.OpCall, bytecode.OpTailCall:
		args := f.collectArgs(int(inst.A()))
		fn := f.pop()
		v, err := rt.callValue(fn, jsvalue.Undefined, args)
		if err != nil {
			return err
		}
		f.push(v)
	case bytecode.OpCallMethod:
		args := f.collectArgs(int(inst.A()))
		this := f.pop()
		fn := f.pop()
		v, err := rt.callValue(fn, this, args)
		if err != nil {
			return err
		}
		f.push(v)
	case bytecode.OpCallSpread:
		args := f.collectArgs(int(inst.A()))
		this := jsvalue.Undefined
		if inst.B() == 1 {
			this = f.pop()
		}
		fn := f.pop()
		v, err := rt.callValue(fn, this, args)
		if err != nil {
			return err
		}
		f.push(v)
	case bytecode.OpConstruct, bytecode.OpConstructSpread:
		args := f.collectArgs(int(inst.A()))
		ctor := f.pop()
		v, err := rt.constructValue(ctor, args)
		if err != nil {
			return err
		}
		f.push(v)
	case bytecode.OpSuperCall:
		args := f.collectArgs(int(inst.A()))
		v, err := rt.superCall(fr, args)
		if err != nil {
			return err
		}
		f.push(v)
	case bytecode.OpReturn:
		return &frameReturn{value: f.pop()}
	case bytecode.OpThrow:
		return &Thrown{Value: f.pop()}

	// --- iteration ---

	case bytecode.OpGetIterator:
		it, err := rt.getIterator(f.pop())
		if err != nil {
			return err
		}
		f.push(it)
	case bytecode.OpIteratorNext:
		value, done, err := rt.iteratorStep(f.peek(0))
		if err != nil {
			return err
		}
		if done {
			fr.ip += int(inst.SignedB())
		} else {
			f.push(value)
		}
	case bytecode.OpIteratorClose:
		it := f.pop()
		rt.iteratorClose(it)
	case bytecode.OpForInStart:
		en, err := rt.newForInEnumerator(f.pop())
		if err != nil {
			return err
		}
		f.push(en)
	case bytecode.OpForInNext:
		key, exhausted := forInNext(f.peek(0))
		if exhausted {
			fr.ip += int(inst.SignedB())
		} else {
			f.push(rt.str(key))
		}
	case bytecode.OpArrayDestructureElement:
		value, done, err := rt.iteratorStep(f.peek(0))
		if err != nil {
			return err
		}
		if done {
			f.push(jsvalue.Undefined)
		} else {
			f.push(value)
		}
	case bytecode.OpRestElements:
		var rest []jsvalue.Value
		for {
			value, done, err := rt.iteratorStep(f.peek(0))
			if err != nil {
				return err
			}
			if done {
				break
			}
			rest = append(rest, value)
		}
		f.push(jsvalue.Object(rt.newArrayFrom(rest)))
	case bytecode.OpSpread:
		vals, err := rt.iterateToSlice(f.pop())
		if err != nil {
			return err
		}
		f.push(rt.newSpreadMarker(vals))

	// --- exceptions ---

	case bytecode.OpPushTry:
		info := fr.fnData.Fn.TryInfos[fr.ip-1]
		fr.tryStack = append(fr.tryStack, tryFrame{
			info: info, stackDepth: len(f.stack), envDepth: len(fr.envStack),
		})
	case bytecode.OpPopTry:
		fr.tryStack = fr.tryStack[:len(fr.tryStack)-1]
	case bytecode.OpPushCatch:
		if fr.pendingCatch != nil {
			fr.tryStack = append(fr.tryStack, tryFrame{
				info: fr.pendingCatch.info, stackDepth: len(f.stack) - 1, envDepth: len(fr.envStack), inCatch: true,
			})
			fr.pendingCatch = nil
		}
	case bytecode.OpPopCatch:
		if n := len(fr.tryStack); n > 0 && fr.tryStack[n-1].inCatch {
			fr.tryStack = fr.tryStack[:n-1]
		}

	// --- scopes ---

	case bytecode.OpPushScope:
		fr.envStack = append(fr.envStack, fr.env)
		env := lexenv.NewDeclarative(fr.env)
		rt.seedBindingGroup(env, m, int(inst.B()))
		fr.env = env
	case bytecode.OpPopScope:
		fr.env = fr.envStack[len(fr.envStack)-1]
		fr.envStack = fr.envStack[:len(fr.envStack)-1]
	case bytecode.OpPushWith:
		objV := f.pop()
		o, _ := objV.Ptr.(*object.Object)
		if o == nil {
			return rt.typeError("'with' requires an object")
		}
		fr.envStack = append(fr.envStack, fr.env)
		fr.env = lexenv.NewObjectBacked(fr.env, o, true)
	case bytecode.OpPopWith:
		fr.env = fr.envStack[len(fr.envStack)-1]
		fr.envStack = fr.envStack[:len(fr.envStack)-1]
	case bytecode.OpInstantiateFuncDecls:
		group := m.FunctionDeclGroups[inst.B()]
		for _, di := range group.Decls {
			fd := m.FunctionDecls[di]
			fnObj := rt.newClosure(m, fd.FunctionIdx, fr.env)
			if fr.env.Kind == lexenv.KindGlobal {
				fr.env.CreateGlobalFunctionBinding(fd.Name, jsvalue.Object(fnObj), false)
			} else {
				fr.env.InitialiseBinding(fd.Name, jsvalue.Object(fnObj))
			}
		}

	// --- suspension ---

	case bytecode.OpYield:
		if fr.co == nil {
			return rt.typeError("yield outside generator")
		}
		typ, rv := fr.co.Suspend(coroutine.SuspendYield, f.pop())
		return f.applyResumption(typ, rv)
	case bytecode.OpYieldStar:
		return f.yieldStar(fr)
	case bytecode.OpAwait:
		if fr.co == nil {
			return rt.typeError("await outside async function")
		}
		typ, rv := fr.co.Suspend(coroutine.SuspendAwait, f.pop())
		return f.applyResumption(typ, rv)
	case bytecode.OpAsyncForStep:
		if fr.co == nil {
			return rt.typeError("for-await outside async function")
		}
		res, err := rt.iteratorNextRaw(f.peek(0))
		if err != nil {
			return err
		}
		typ, rv := fr.co.Suspend(coroutine.SuspendAwait, res)
		if err := f.applyResumption(typ, rv); err != nil {
			return err
		}
		resolved := f.pop()
		value, done, err := rt.unpackIterResult(resolved)
		if err != nil {
			return err
		}
		if done {
			fr.ip += int(inst.SignedB())
		} else {
			f.push(value)
		}

	// --- misc ---

	case bytecode.OpStringConcat:
		parts := f.popN(int(inst.A()))
		out := ""
		for _, p := range parts {
			s, err := rt.ToString(p)
			if err != nil {
				return err
			}
			out += s
		}
		f.push(rt.str(out))
	case bytecode.OpHalt:
		return &frameReturn{value: fr.completion}
	case bytecode.OpDebugger:
		// No debugging protocol; a deliberate no-op.

	default:
		return rt.typeError("unknown opcode %s", inst.OpCode())
	}
	return nil
}

// applyResumption translates a coroutine resumption into the frame's
// next action (spec.md §4.6 resumption table): next pushes the value
// and continues, throw raises it at the suspension point, return
// begins an abrupt return that still runs finally handlers.
func (f *fiber) applyResumption(typ coroutine.ReceivedType, rv jsvalue.Value) error {
	switch typ {
	case coroutine.ReceiveNext:
		f.push(rv)
		return nil
	case coroutine.ReceiveThrow:
		return &Thrown{Value: rv}
	case coroutine.ReceiveReturn:
		return &abruptReturn{value: rv}
	default:
		return errTerminated
	}
}

// yieldStar drives `yield*` delegation: every inner iteration result
// is re-yielded, and resumption types forward to the inner iterator's
// matching method.
func (f *fiber) yieldStar(fr *frame) error {
	rt := f.rt
	if fr.co == nil {
		return rt.typeError("yield outside generator")
	}
	it, err := rt.getIterator(f.pop())
	if err != nil {
		return err
	}
	for {
		value, done, err := rt.iteratorStep(it)
		if err != nil {
			return err
		}
		if done {
			f.push(value)
			return nil
		}
		typ, rv := fr.co.Suspend(coroutine.SuspendYield, value)
		switch typ {
		case coroutine.ReceiveNext:
			// Keep driving the inner iterator.
		case coroutine.ReceiveThrow:
			if m := rt.iteratorMethod(it, "throw"); m != nil {
				if _, err := rt.callValue(jsvalue.Object(m), it, []jsvalue.Value{rv}); err != nil {
					return err
				}
				continue
			}
			rt.iteratorClose(it)
			return &Thrown{Value: rv}
		case coroutine.ReceiveReturn:
			rt.iteratorClose(it)
			return &abruptReturn{value: rv}
		default:
			return errTerminated
		}
	}
}

func (f *fiber) pushBinding(fr *frame, name string, tolerant bool) error {
	env := lexenv.Resolve(fr.env, name)
	if env == nil {
		if tolerant {
			f.push(jsvalue.Undefined)
			return nil
		}
		return f.rt.referenceError("'%s' is not defined", name)
	}
	v, err := env.GetBindingValue(name, false)
	if err != nil {
		return err
	}
	f.push(v)
	return nil
}

func typeofString(v jsvalue.Value) string {
	if v.IsObject() {
		if o, _ := v.Ptr.(*object.Object); o != nil && o.IsCallable() {
			return "function"
		}
	}
	return v.TypeOf()
}

func numericOpName(op bytecode.OpCode) string {
	switch op {
	case bytecode.OpSub:
		return "-"
	case bytecode.OpMul:
		return "*"
	case bytecode.OpDiv:
		return "/"
	case bytecode.OpMod:
		return "%"
	default:
		return "**"
	}
}

func bitwiseOpName(op bytecode.OpCode) string {
	switch op {
	case bytecode.OpBitAnd:
		return "&"
	case bytecode.OpBitOr:
		return "|"
	case bytecode.OpBitXor:
		return "^"
	case bytecode.OpShl:
		return "<<"
	case bytecode.OpShr:
		return ">>"
	default:
		return ">>>"
	}
}

func compareOpName(op bytecode.OpCode) string {
	switch op {
	case bytecode.OpLess:
		return "<"
	case bytecode.OpLessEqual:
		return "<="
	case bytecode.OpGreater:
		return ">"
	default:
		return ">="
	}
}
