package bytecode

import "testing"

func TestMakeInstruction_RoundTripsOperands(t *testing.T) {
	inst := MakeInstruction(OpGetProperty, 7, 1234)
	if inst.OpCode() != OpGetProperty {
		t.Errorf("OpCode() = %v, want OpGetProperty", inst.OpCode())
	}
	if inst.A() != 7 {
		t.Errorf("A() = %d, want 7", inst.A())
	}
	if inst.B() != 1234 {
		t.Errorf("B() = %d, want 1234", inst.B())
	}
}

func TestSignedB_NegativeOffset(t *testing.T) {
	offset := int16(-5)
	inst := MakeInstruction(OpLoop, 0, uint16(offset))
	if inst.SignedB() != -5 {
		t.Errorf("SignedB() = %d, want -5", inst.SignedB())
	}
}

func TestMakeInstructionABC(t *testing.T) {
	inst := MakeInstructionABC(OpCall, 1, 2, 3)
	if inst.A() != 1 || inst.B() != (2|3<<8) || inst.C() != 3 {
		t.Errorf("A/B/C = %d/%d/%d, want 1/%d/3", inst.A(), inst.B(), inst.C(), 2|3<<8)
	}
}

func TestOpCodeString_KnownAndUnknown(t *testing.T) {
	if OpAdd.String() != "ADD" {
		t.Errorf("OpAdd.String() = %q, want ADD", OpAdd.String())
	}
	if opCodeCount.String() != "UNKNOWN" {
		t.Errorf("out-of-range opcode should render UNKNOWN, got %q", opCodeCount.String())
	}
}
