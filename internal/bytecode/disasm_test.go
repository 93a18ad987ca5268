package bytecode

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/nyxlang/nyx/internal/jsvalue"
)

func TestDisassemble_GoldenSnapshot(t *testing.T) {
	m := NewModule("sum.js", false)
	m.AddConstant(jsvalue.Number(0))
	m.AddConstant(jsvalue.Number(1))
	m.AddBinding(BindingRef{Name: "i", Kind: BindingLet, Slot: 0})

	fn := NewFunction("sum")
	fn.Code = []Instruction{
		MakeInstruction(OpLoadConst, 0, 0),
		MakeInstruction(OpInitBinding, 0, 0),
		MakeInstruction(OpGetBinding, 0, 0),
		MakeInstruction(OpLoadConst, 0, 1),
		MakeSimpleInstruction(OpAdd),
		MakeInstruction(OpSetBinding, 0, 0),
		MakeInstruction(OpLoop, 0, 0),
		MakeSimpleInstruction(OpReturn),
	}
	fn.Lines = []LineInfo{{Offset: 0, Line: 1}}
	m.AddFunction(fn)

	var sb strings.Builder
	NewDisassembler(m, fn, &sb).Disassemble()

	snaps.MatchSnapshot(t, sb.String())
}
