// Package bytecode implements the bytecode module spec.md §3/§4.4
// describe: a flat instruction stream, a constant pool, and the scope
// metadata tables (bindings, binding groups, function-declaration
// groups) the compiler emits and the VM consumes. The 32-bit
// instruction word and section layout are carried over in shape from
// the teacher's internal/bytecode package; the opcode table itself is
// regenerated for JS semantics.
package bytecode

// OpCode is a single instruction's operation tag. Kept under 128 so a
// Go switch on OpCode compiles to a dense jump table (the same
// rationale the teacher's instruction.go states).
type OpCode byte

const (
	// Constants and variables.
	OpLoadConst OpCode = iota
	OpLoadUndefined
	OpLoadNull
	OpLoadTrue
	OpLoadFalse
	OpLoadThis

	// Argument access at function entry. Arguments live in the call
	// frame rather than in named bindings until the parameter prologue
	// copies them; OpLoadRest collects arguments [A..) into an array.
	OpLoadArg  // A: argument index (undefined if beyond argc)
	OpLoadRest // A: first argument index of the rest slice

	// Binding access, indexed by slot into the current environment's
	// binding table (spec.md §4.3); binding-kind (var/let/const) and
	// TDZ checks are resolved at compile time where possible and at
	// runtime via internal/lexenv otherwise.
	OpGetBinding       // A: binding-table index
	OpSetBinding       // A: binding-table index
	OpInitBinding      // A: binding-table index -- lifts the TDZ
	OpGetBindingByName // B: constant-pool index of the name (unresolved global/with lookup)
	OpSetBindingByName // B: constant-pool index of the name

	// Arithmetic, matching JS's operator set rather than the teacher's
	// int/float split (JS numbers are always float64; integer fast
	// paths live in the VM's dispatch, not separate opcodes).
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpNegate
	OpIncrement
	OpDecrement
	OpBitAnd
	OpBitOr
	OpBitXor
	OpBitNot
	OpShl
	OpShr
	OpUShr

	// Comparison and equality.
	OpEqual
	OpNotEqual
	OpStrictEqual
	OpStrictNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual

	// Logical / unary.
	OpNot
	OpTypeof
	OpToBoolean
	OpToNumber
	OpToString
	OpToPropertyKey
	OpInstanceOf
	OpIn

	// Control flow.
	OpJump        // B: signed relative offset
	OpJumpIfTrue  // B: signed relative offset, pops
	OpJumpIfFalse // B: signed relative offset, pops
	OpJumpIfTrueNoPop
	OpJumpIfFalseNoPop
	OpJumpIfNullish // used by `?.` short-circuit
	OpLoop          // B: signed relative offset (backward)

	// Stack shuffling.
	OpPop
	OpStoreCompletion // pops into the frame's completion slot (script result value)
	OpDup
	OpDup2
	OpSwap
	OpRotate3

	// Property references (spec.md §4.2/§4.5's inline-cache slot).
	OpGetProperty // B: constant-pool index of the key, C: inline-cache slot
	OpSetProperty // B: constant-pool index of the key, C: inline-cache slot
	OpGetPropertyComputed
	OpSetPropertyComputed
	OpGetPrivateField // B: constant-pool index of the private name
	OpSetPrivateField
	OpGetSuperProperty // B: property-ref index; resolves on the method's home-object prototype
	OpDeleteProperty
	OpDeletePropertyComputed

	// Object/array/function literals.
	OpNewObject
	OpNewArray // A: initial element count taken off the stack
	OpNewArraySpread
	OpDefineProperty // defines a data property during object-literal construction
	OpDefineGetter
	OpDefineSetter
	OpDefineMethod
	OpCopyDataProperties // object spread `{...x}`
	OpClosure            // B: function-table index; captures upvalues per UpvalueDef table
	OpNewClassStatic     // finalizes a class body: binds static members, home objects

	// Calls and construction.
	OpCall // A: argument count
	OpCallSpread
	OpCallMethod // A: argument count; property already resolved via OpGetProperty-style fetch
	OpConstruct  // A: argument count
	OpConstructSpread
	OpSuperCall
	OpTailCall
	OpReturn
	OpThrow

	// Iteration protocol (for-in/for-of, spread, destructuring rest).
	OpGetIterator
	OpIteratorNext // pushes {value, done}
	OpIteratorClose
	OpForInStart // pushes an enumerator over own+inherited enumerable string keys
	OpForInNext  // B: signed offset to jump to when exhausted

	// Destructuring helpers.
	OpArrayDestructureElement // pops iterator-result pair, pushes next value
	OpRestElements            // collects remaining iterator values into an array

	// Exceptions (try/catch/finally region table, kept from the
	// teacher's TryInfo design).
	OpPushTry // B: index into the chunk's try-region table
	OpPopTry
	OpPushCatch
	OpPopCatch

	// Scope management.
	OpPushScope // B: binding-group index (declares the block's let/const slots)
	OpPopScope
	OpPushWith
	OpPopWith
	OpInstantiateFuncDecls // B: function-declaration-group index

	// Generator/async suspension (spec.md §4.7/§4.9).
	OpYield
	OpYieldStar
	OpAwait
	OpAsyncForStep

	// Template literals, spread, misc.
	OpStringConcat // A: operand count
	OpTaggedTemplate
	OpSpread

	OpHalt
	OpDebugger

	opCodeCount
)

// OpCodeNames maps each opcode to its disassembly mnemonic.
var OpCodeNames = [...]string{
	OpLoadConst:               "LOAD_CONST",
	OpLoadUndefined:           "LOAD_UNDEFINED",
	OpLoadNull:                "LOAD_NULL",
	OpLoadTrue:                "LOAD_TRUE",
	OpLoadFalse:               "LOAD_FALSE",
	OpLoadThis:                "LOAD_THIS",
	OpLoadArg:                 "LOAD_ARG",
	OpLoadRest:                "LOAD_REST",
	OpGetBinding:              "GET_BINDING",
	OpSetBinding:              "SET_BINDING",
	OpInitBinding:             "INIT_BINDING",
	OpGetBindingByName:        "GET_BINDING_BY_NAME",
	OpSetBindingByName:        "SET_BINDING_BY_NAME",
	OpAdd:                     "ADD",
	OpSub:                     "SUB",
	OpMul:                     "MUL",
	OpDiv:                     "DIV",
	OpMod:                     "MOD",
	OpPow:                     "POW",
	OpNegate:                  "NEGATE",
	OpIncrement:               "INCREMENT",
	OpDecrement:               "DECREMENT",
	OpBitAnd:                  "BIT_AND",
	OpBitOr:                   "BIT_OR",
	OpBitXor:                  "BIT_XOR",
	OpBitNot:                  "BIT_NOT",
	OpShl:                     "SHL",
	OpShr:                     "SHR",
	OpUShr:                    "USHR",
	OpEqual:                   "EQUAL",
	OpNotEqual:                "NOT_EQUAL",
	OpStrictEqual:             "STRICT_EQUAL",
	OpStrictNotEqual:          "STRICT_NOT_EQUAL",
	OpLess:                    "LESS",
	OpLessEqual:               "LESS_EQUAL",
	OpGreater:                 "GREATER",
	OpGreaterEqual:            "GREATER_EQUAL",
	OpNot:                     "NOT",
	OpTypeof:                  "TYPEOF",
	OpToBoolean:               "TO_BOOLEAN",
	OpToNumber:                "TO_NUMBER",
	OpToString:                "TO_STRING",
	OpToPropertyKey:           "TO_PROPERTY_KEY",
	OpInstanceOf:              "INSTANCEOF",
	OpIn:                      "IN",
	OpJump:                    "JUMP",
	OpJumpIfTrue:              "JUMP_IF_TRUE",
	OpJumpIfFalse:             "JUMP_IF_FALSE",
	OpJumpIfTrueNoPop:         "JUMP_IF_TRUE_NO_POP",
	OpJumpIfFalseNoPop:        "JUMP_IF_FALSE_NO_POP",
	OpJumpIfNullish:           "JUMP_IF_NULLISH",
	OpLoop:                    "LOOP",
	OpPop:                     "POP",
	OpStoreCompletion:         "STORE_COMPLETION",
	OpDup:                     "DUP",
	OpDup2:                    "DUP2",
	OpSwap:                    "SWAP",
	OpRotate3:                 "ROTATE3",
	OpGetProperty:             "GET_PROPERTY",
	OpSetProperty:             "SET_PROPERTY",
	OpGetPropertyComputed:     "GET_PROPERTY_COMPUTED",
	OpSetPropertyComputed:     "SET_PROPERTY_COMPUTED",
	OpGetPrivateField:         "GET_PRIVATE_FIELD",
	OpSetPrivateField:         "SET_PRIVATE_FIELD",
	OpGetSuperProperty:        "GET_SUPER_PROPERTY",
	OpDeleteProperty:          "DELETE_PROPERTY",
	OpDeletePropertyComputed:  "DELETE_PROPERTY_COMPUTED",
	OpNewObject:               "NEW_OBJECT",
	OpNewArray:                "NEW_ARRAY",
	OpNewArraySpread:          "NEW_ARRAY_SPREAD",
	OpDefineProperty:          "DEFINE_PROPERTY",
	OpDefineGetter:            "DEFINE_GETTER",
	OpDefineSetter:            "DEFINE_SETTER",
	OpDefineMethod:            "DEFINE_METHOD",
	OpCopyDataProperties:      "COPY_DATA_PROPERTIES",
	OpClosure:                 "CLOSURE",
	OpNewClassStatic:          "NEW_CLASS_STATIC",
	OpCall:                    "CALL",
	OpCallSpread:              "CALL_SPREAD",
	OpCallMethod:              "CALL_METHOD",
	OpConstruct:               "CONSTRUCT",
	OpConstructSpread:         "CONSTRUCT_SPREAD",
	OpSuperCall:               "SUPER_CALL",
	OpTailCall:                "TAIL_CALL",
	OpReturn:                  "RETURN",
	OpThrow:                   "THROW",
	OpGetIterator:             "GET_ITERATOR",
	OpIteratorNext:            "ITERATOR_NEXT",
	OpIteratorClose:           "ITERATOR_CLOSE",
	OpForInStart:              "FOR_IN_START",
	OpForInNext:               "FOR_IN_NEXT",
	OpArrayDestructureElement: "ARRAY_DESTRUCTURE_ELEMENT",
	OpRestElements:            "REST_ELEMENTS",
	OpPushTry:                 "PUSH_TRY",
	OpPopTry:                  "POP_TRY",
	OpPushCatch:               "PUSH_CATCH",
	OpPopCatch:                "POP_CATCH",
	OpPushScope:               "PUSH_SCOPE",
	OpPopScope:                "POP_SCOPE",
	OpPushWith:                "PUSH_WITH",
	OpPopWith:                 "POP_WITH",
	OpInstantiateFuncDecls:    "INSTANTIATE_FUNC_DECLS",
	OpYield:                   "YIELD",
	OpYieldStar:               "YIELD_STAR",
	OpAwait:                   "AWAIT",
	OpAsyncForStep:            "ASYNC_FOR_STEP",
	OpStringConcat:            "STRING_CONCAT",
	OpTaggedTemplate:          "TAGGED_TEMPLATE",
	OpSpread:                  "SPREAD",
	OpHalt:                    "HALT",
	OpDebugger:                "DEBUGGER",
}

func (op OpCode) String() string {
	if int(op) < len(OpCodeNames) && OpCodeNames[op] != "" {
		return OpCodeNames[op]
	}
	return "UNKNOWN"
}
