package bytecode

import (
	"testing"

	"github.com/nyxlang/nyx/internal/jsvalue"
)

func TestSerializer_RoundTrip(t *testing.T) {
	m := NewModule("test.js", false)
	m.AddConstant(jsvalue.Number(42))
	table := jsvalue.NewStringTable()
	m.AddConstant(jsvalue.Str(table.Intern("x")))
	m.AddBinding(BindingRef{Name: "x", Kind: BindingLet, Slot: 0})
	m.AddBindingGroup([]int{0})
	m.AddPropertyRef(1)

	fn := NewFunction("test")
	fn.Code = []Instruction{
		MakeInstruction(OpLoadConst, 0, 0),
		MakeInstruction(OpInitBinding, 0, 0),
		MakeInstruction(OpGetBinding, 0, 0),
		MakeSimpleInstruction(OpReturn),
	}
	fn.Lines = []LineInfo{{Offset: 0, Line: 1}}
	fn.TryInfos[2] = TryInfo{CatchTarget: 3, HasCatch: true}
	m.AddFunction(fn)

	s := NewSerializer()
	data, err := s.Serialize(m)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	got, err := s.Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	if got.SourceFile != m.SourceFile {
		t.Errorf("SourceFile = %q, want %q", got.SourceFile, m.SourceFile)
	}
	if len(got.Constants) != len(m.Constants) {
		t.Fatalf("Constants length = %d, want %d", len(got.Constants), len(m.Constants))
	}
	if got.Constants[0].Num() != 42 {
		t.Errorf("Constants[0] = %v, want 42", got.Constants[0].Num())
	}
	if got.Constants[1].AsString().Content != "x" {
		t.Errorf("Constants[1] = %q, want \"x\"", got.Constants[1].AsString().Content)
	}
	if len(got.Functions) != 1 {
		t.Fatalf("Functions length = %d, want 1", len(got.Functions))
	}
	gotFn := got.Functions[0]
	if len(gotFn.Code) != len(fn.Code) {
		t.Fatalf("Code length = %d, want %d", len(gotFn.Code), len(fn.Code))
	}
	for i := range fn.Code {
		if gotFn.Code[i] != fn.Code[i] {
			t.Errorf("Code[%d] = %v, want %v", i, gotFn.Code[i], fn.Code[i])
		}
	}
	info, ok := gotFn.TryInfos[2]
	if !ok || info.CatchTarget != 3 || !info.HasCatch {
		t.Errorf("TryInfos[2] = %+v, ok=%v", info, ok)
	}
}

func TestSerializer_RejectsBadMagic(t *testing.T) {
	s := NewSerializer()
	if _, err := s.Deserialize([]byte("not bytecode at all")); err == nil {
		t.Error("expected an error decoding garbage input")
	}
}
