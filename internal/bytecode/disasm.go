package bytecode

import (
	"fmt"
	"io"

	"github.com/nyxlang/nyx/internal/jsvalue"
)

// Disassembler prints a human-readable rendering of a compiled
// Function, grounded on the teacher's disasm.go (NewDisassembler/
// Disassemble/DisassembleInstruction shape, offset+line header).
type Disassembler struct {
	writer io.Writer
	module *Module
	fn     *Function
}

// NewDisassembler creates a disassembler for fn, resolving constant-
// pool and binding-table operands against module.
func NewDisassembler(module *Module, fn *Function, writer io.Writer) *Disassembler {
	return &Disassembler{writer: writer, module: module, fn: fn}
}

// Disassemble prints the function's full header, constant pool, and
// instruction stream.
func (d *Disassembler) Disassemble() {
	fmt.Fprintf(d.writer, "== %s ==\n", d.fn.Name)
	fmt.Fprintf(d.writer, "params=%d generator=%v async=%v instructions=%d\n\n",
		d.fn.ParamCount, d.fn.IsGenerator, d.fn.IsAsync, len(d.fn.Code))

	if len(d.module.Constants) > 0 {
		fmt.Fprintf(d.writer, "Constants:\n")
		for i, c := range d.module.Constants {
			fmt.Fprintf(d.writer, "  [%04d] %s\n", i, describeConstant(c))
		}
		fmt.Fprintln(d.writer)
	}

	for offset := 0; offset < len(d.fn.Code); offset++ {
		d.DisassembleInstruction(offset)
	}
}

// DisassembleInstruction prints one instruction with its resolved
// operand, annotating jump targets and constant/binding references.
func (d *Disassembler) DisassembleInstruction(offset int) {
	if offset < 0 || offset >= len(d.fn.Code) {
		fmt.Fprintf(d.writer, "invalid offset %d\n", offset)
		return
	}
	inst := d.fn.Code[offset]
	op := inst.OpCode()
	line := d.fn.LineForOffset(offset)
	fmt.Fprintf(d.writer, "%04d %4d  %-24s", offset, line, op.String())

	switch op {
	case OpLoadConst:
		idx := int(inst.B())
		fmt.Fprintf(d.writer, " %4d  ; %s", idx, describeConstant(d.module.Constants[idx]))
	case OpGetBinding, OpSetBinding, OpInitBinding:
		idx := int(inst.B())
		if idx < len(d.module.Bindings) {
			fmt.Fprintf(d.writer, " %4d  ; %s", idx, d.module.Bindings[idx].Name)
		}
	case OpGetBindingByName, OpSetBindingByName:
		idx := int(inst.B())
		fmt.Fprintf(d.writer, " %4d  ; %s", idx, describeConstant(d.module.Constants[idx]))
	case OpGetProperty, OpSetProperty:
		idx := int(inst.B())
		if idx < len(d.module.PropertyRefs) {
			ref := d.module.PropertyRefs[idx]
			fmt.Fprintf(d.writer, " %4d  ; .%s", idx, describeConstant(d.module.Constants[ref.KeyConstant]))
		}
	case OpJump, OpJumpIfTrue, OpJumpIfFalse, OpJumpIfTrueNoPop, OpJumpIfFalseNoPop, OpJumpIfNullish, OpForInNext:
		target := offset + 1 + int(inst.SignedB())
		fmt.Fprintf(d.writer, " -> %04d", target)
	case OpLoop:
		target := offset + 1 - int(inst.SignedB())
		fmt.Fprintf(d.writer, " -> %04d", target)
	case OpClosure:
		idx := int(inst.B())
		if idx < len(d.module.Functions) {
			fmt.Fprintf(d.writer, " %4d  ; %s", idx, d.module.Functions[idx].Name)
		}
	case OpCall, OpCallMethod, OpConstruct, OpNewArray, OpStringConcat:
		fmt.Fprintf(d.writer, " argc=%d", inst.A())
	case OpPushScope:
		fmt.Fprintf(d.writer, " group=%d", inst.B())
	case OpInstantiateFuncDecls:
		fmt.Fprintf(d.writer, " group=%d", inst.B())
	case OpLoadArg, OpLoadRest:
		fmt.Fprintf(d.writer, " arg=%d", inst.A())
	case OpIteratorNext, OpAsyncForStep:
		target := offset + 1 + int(inst.SignedB())
		fmt.Fprintf(d.writer, " -> %04d", target)
	}
	fmt.Fprintln(d.writer)
}

// describeConstant renders a constant-pool value for disassembly
// output. Objects print only their kind since their contents are
// runtime-allocated heap state, not compile-time data.
func describeConstant(v jsvalue.Value) string {
	switch v.Kind {
	case jsvalue.KindUndefined:
		return "undefined"
	case jsvalue.KindNull:
		return "null"
	case jsvalue.KindBool:
		return fmt.Sprintf("%v", v.AsBool())
	case jsvalue.KindNumber:
		return fmt.Sprintf("%v", v.Num())
	case jsvalue.KindString:
		if s := v.AsString(); s != nil {
			return fmt.Sprintf("%q", s.Content)
		}
		return `""`
	default:
		return v.Kind.String()
	}
}
