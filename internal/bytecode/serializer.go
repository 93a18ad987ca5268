package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/nyxlang/nyx/internal/jsvalue"
)

// Bytecode file format (.nyxc)
// ============================
//
// Header (8 bytes): magic "NYXC", version major/minor/patch, reserved.
//
// Body, written in this exact section order (spec.md §6): constants,
// bindings, binding-references [here: property-references], binding-
// groups, function-declarations, function-declaration-groups,
// private-names, private-environments, functions (each carrying its
// own code and line-info).
//
// Grounded on the teacher's serializer.go: same header/version scheme,
// same little-endian fixed-width primitive writers, generalized from
// a single Chunk to a Module's full table set.

const (
	MagicNumber  = "NYXC"
	VersionMajor = 1
	VersionMinor = 0
	VersionPatch = 0
)

// SerializerVersion is the 3-part version stamped in every file header.
type SerializerVersion struct {
	Major, Minor, Patch uint8
}

func (v SerializerVersion) String() string { return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch) }

// IsCompatible reports whether a reader at version v can load bytecode
// written at version other: major must match, and the writer's minor
// must not exceed the reader's (matches the teacher's forward-
// compatibility rule).
func (v SerializerVersion) IsCompatible(other SerializerVersion) bool {
	if v.Major != other.Major {
		return false
	}
	return other.Minor <= v.Minor
}

// CurrentVersion returns the version this build writes.
func CurrentVersion() SerializerVersion {
	return SerializerVersion{VersionMajor, VersionMinor, VersionPatch}
}

// Serializer encodes/decodes a Module to/from the .nyxc binary format.
type Serializer struct{}

func NewSerializer() *Serializer { return &Serializer{} }

// Serialize encodes module into a self-contained byte slice.
func (s *Serializer) Serialize(m *Module) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.writeHeader(&buf); err != nil {
		return nil, err
	}
	if err := s.writeBool(&buf, m.IsModule); err != nil {
		return nil, err
	}
	if err := s.writeString(&buf, m.SourceFile); err != nil {
		return nil, err
	}
	if err := s.writeConstants(&buf, m.Constants); err != nil {
		return nil, err
	}
	if err := s.writeBindings(&buf, m.Bindings); err != nil {
		return nil, err
	}
	if err := s.writePropertyRefs(&buf, m.PropertyRefs); err != nil {
		return nil, err
	}
	if err := s.writeBindingGroups(&buf, m.BindingGroups); err != nil {
		return nil, err
	}
	if err := s.writeFunctionDecls(&buf, m.FunctionDecls); err != nil {
		return nil, err
	}
	if err := s.writeFunctionDeclGroups(&buf, m.FunctionDeclGroups); err != nil {
		return nil, err
	}
	if err := s.writePrivateNames(&buf, m.PrivateNames); err != nil {
		return nil, err
	}
	if err := s.writePrivateEnvironments(&buf, m.PrivateEnvironments); err != nil {
		return nil, err
	}
	if err := s.writeFunctions(&buf, m.Functions); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Deserialize decodes a Module previously written by Serialize.
func (s *Serializer) Deserialize(data []byte) (*Module, error) {
	r := bytes.NewReader(data)
	version, err := s.readHeader(r)
	if err != nil {
		return nil, err
	}
	if !CurrentVersion().IsCompatible(version) {
		return nil, fmt.Errorf("bytecode: incompatible version %s (reader is %s)", version, CurrentVersion())
	}
	m := &Module{}
	if m.IsModule, err = s.readBool(r); err != nil {
		return nil, err
	}
	if m.SourceFile, err = s.readString(r); err != nil {
		return nil, err
	}
	if m.Constants, err = s.readConstants(r); err != nil {
		return nil, err
	}
	if m.Bindings, err = s.readBindings(r); err != nil {
		return nil, err
	}
	if m.PropertyRefs, err = s.readPropertyRefs(r); err != nil {
		return nil, err
	}
	if m.BindingGroups, err = s.readBindingGroups(r); err != nil {
		return nil, err
	}
	if m.FunctionDecls, err = s.readFunctionDecls(r); err != nil {
		return nil, err
	}
	if m.FunctionDeclGroups, err = s.readFunctionDeclGroups(r); err != nil {
		return nil, err
	}
	if m.PrivateNames, err = s.readPrivateNames(r); err != nil {
		return nil, err
	}
	if m.PrivateEnvironments, err = s.readPrivateEnvironments(r); err != nil {
		return nil, err
	}
	if m.Functions, err = s.readFunctions(r); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Serializer) writeHeader(w io.Writer) error {
	if _, err := w.Write([]byte(MagicNumber)); err != nil {
		return err
	}
	v := CurrentVersion()
	_, err := w.Write([]byte{v.Major, v.Minor, v.Patch, 0})
	return err
}

func (s *Serializer) readHeader(r io.Reader) (SerializerVersion, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return SerializerVersion{}, err
	}
	if string(header[:4]) != MagicNumber {
		return SerializerVersion{}, fmt.Errorf("bytecode: bad magic number %q", header[:4])
	}
	return SerializerVersion{header[4], header[5], header[6]}, nil
}

func (s *Serializer) writeString(w io.Writer, str string) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(str))); err != nil {
		return err
	}
	_, err := w.Write([]byte(str))
	return err
}

func (s *Serializer) readString(r io.Reader) (string, error) {
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func (s *Serializer) writeInt32(w io.Writer, v int32) error {
	return binary.Write(w, binary.LittleEndian, v)
}
func (s *Serializer) readInt32(r io.Reader) (int32, error) {
	var v int32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func (s *Serializer) writeFloat64(w io.Writer, v float64) error {
	return binary.Write(w, binary.LittleEndian, v)
}
func (s *Serializer) readFloat64(r io.Reader) (float64, error) {
	var v float64
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func (s *Serializer) writeBool(w io.Writer, v bool) error {
	b := byte(0)
	if v {
		b = 1
	}
	_, err := w.Write([]byte{b})
	return err
}
func (s *Serializer) readBool(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (s *Serializer) writeInstructions(w io.Writer, code []Instruction) error {
	if err := s.writeInt32(w, int32(len(code))); err != nil {
		return err
	}
	for _, inst := range code {
		if err := binary.Write(w, binary.LittleEndian, uint32(inst)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readInstructions(r io.Reader) ([]Instruction, error) {
	n, err := s.readInt32(r)
	if err != nil {
		return nil, err
	}
	code := make([]Instruction, n)
	for i := range code {
		var raw uint32
		if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
			return nil, err
		}
		code[i] = Instruction(raw)
	}
	return code, nil
}

// Constant tags for the value-kinds that can appear in a compile-time
// constant pool (functions/objects can't: those are runtime
// allocations referenced by index elsewhere).
const (
	constUndefined byte = iota
	constNull
	constBool
	constNumber
	constString
)

func (s *Serializer) writeConstants(w io.Writer, constants []jsvalue.Value) error {
	if err := s.writeInt32(w, int32(len(constants))); err != nil {
		return err
	}
	for _, c := range constants {
		switch c.Kind {
		case jsvalue.KindUndefined:
			if _, err := w.Write([]byte{constUndefined}); err != nil {
				return err
			}
		case jsvalue.KindNull:
			if _, err := w.Write([]byte{constNull}); err != nil {
				return err
			}
		case jsvalue.KindBool:
			if _, err := w.Write([]byte{constBool}); err != nil {
				return err
			}
			if err := s.writeBool(w, c.AsBool()); err != nil {
				return err
			}
		case jsvalue.KindNumber:
			if _, err := w.Write([]byte{constNumber}); err != nil {
				return err
			}
			if err := s.writeFloat64(w, c.Num()); err != nil {
				return err
			}
		case jsvalue.KindString:
			if _, err := w.Write([]byte{constString}); err != nil {
				return err
			}
			content := ""
			if str := c.AsString(); str != nil {
				content = str.Content
			}
			if err := s.writeString(w, content); err != nil {
				return err
			}
		default:
			return fmt.Errorf("bytecode: constant kind %s is not serializable", c.Kind)
		}
	}
	return nil
}

func (s *Serializer) readConstants(r io.Reader) ([]jsvalue.Value, error) {
	n, err := s.readInt32(r)
	if err != nil {
		return nil, err
	}
	table := jsvalue.NewStringTable()
	out := make([]jsvalue.Value, n)
	for i := range out {
		var tag [1]byte
		if _, err := io.ReadFull(r, tag[:]); err != nil {
			return nil, err
		}
		switch tag[0] {
		case constUndefined:
			out[i] = jsvalue.Undefined
		case constNull:
			out[i] = jsvalue.Null
		case constBool:
			b, err := s.readBool(r)
			if err != nil {
				return nil, err
			}
			out[i] = jsvalue.Bool(b)
		case constNumber:
			f, err := s.readFloat64(r)
			if err != nil {
				return nil, err
			}
			out[i] = jsvalue.Number(f)
		case constString:
			str, err := s.readString(r)
			if err != nil {
				return nil, err
			}
			out[i] = jsvalue.Str(table.Intern(str))
		default:
			return nil, fmt.Errorf("bytecode: unknown constant tag %d", tag[0])
		}
	}
	return out, nil
}

func (s *Serializer) writeBindings(w io.Writer, bindings []BindingRef) error {
	if err := s.writeInt32(w, int32(len(bindings))); err != nil {
		return err
	}
	for _, b := range bindings {
		if err := s.writeString(w, b.Name); err != nil {
			return err
		}
		if _, err := w.Write([]byte{byte(b.Kind)}); err != nil {
			return err
		}
		if err := s.writeInt32(w, int32(b.Slot)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readBindings(r io.Reader) ([]BindingRef, error) {
	n, err := s.readInt32(r)
	if err != nil {
		return nil, err
	}
	out := make([]BindingRef, n)
	for i := range out {
		name, err := s.readString(r)
		if err != nil {
			return nil, err
		}
		var kind [1]byte
		if _, err := io.ReadFull(r, kind[:]); err != nil {
			return nil, err
		}
		slot, err := s.readInt32(r)
		if err != nil {
			return nil, err
		}
		out[i] = BindingRef{Name: name, Kind: BindingKind(kind[0]), Slot: int(slot)}
	}
	return out, nil
}

func (s *Serializer) writePropertyRefs(w io.Writer, refs []PropertyRef) error {
	if err := s.writeInt32(w, int32(len(refs))); err != nil {
		return err
	}
	for _, ref := range refs {
		if err := s.writeInt32(w, int32(ref.KeyConstant)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readPropertyRefs(r io.Reader) ([]PropertyRef, error) {
	n, err := s.readInt32(r)
	if err != nil {
		return nil, err
	}
	out := make([]PropertyRef, n)
	for i := range out {
		idx, err := s.readInt32(r)
		if err != nil {
			return nil, err
		}
		out[i] = PropertyRef{KeyConstant: int(idx)}
	}
	return out, nil
}

func (s *Serializer) writeIntSlice(w io.Writer, xs []int) error {
	if err := s.writeInt32(w, int32(len(xs))); err != nil {
		return err
	}
	for _, x := range xs {
		if err := s.writeInt32(w, int32(x)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readIntSlice(r io.Reader) ([]int, error) {
	n, err := s.readInt32(r)
	if err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i := range out {
		v, err := s.readInt32(r)
		if err != nil {
			return nil, err
		}
		out[i] = int(v)
	}
	return out, nil
}

func (s *Serializer) writeBindingGroups(w io.Writer, groups []BindingGroup) error {
	if err := s.writeInt32(w, int32(len(groups))); err != nil {
		return err
	}
	for _, g := range groups {
		if err := s.writeIntSlice(w, g.Bindings); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readBindingGroups(r io.Reader) ([]BindingGroup, error) {
	n, err := s.readInt32(r)
	if err != nil {
		return nil, err
	}
	out := make([]BindingGroup, n)
	for i := range out {
		bindings, err := s.readIntSlice(r)
		if err != nil {
			return nil, err
		}
		out[i] = BindingGroup{Bindings: bindings}
	}
	return out, nil
}

func (s *Serializer) writeFunctionDecls(w io.Writer, decls []FunctionDecl) error {
	if err := s.writeInt32(w, int32(len(decls))); err != nil {
		return err
	}
	for _, d := range decls {
		if err := s.writeString(w, d.Name); err != nil {
			return err
		}
		if err := s.writeInt32(w, int32(d.FunctionIdx)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readFunctionDecls(r io.Reader) ([]FunctionDecl, error) {
	n, err := s.readInt32(r)
	if err != nil {
		return nil, err
	}
	out := make([]FunctionDecl, n)
	for i := range out {
		name, err := s.readString(r)
		if err != nil {
			return nil, err
		}
		idx, err := s.readInt32(r)
		if err != nil {
			return nil, err
		}
		out[i] = FunctionDecl{Name: name, FunctionIdx: int(idx)}
	}
	return out, nil
}

func (s *Serializer) writeFunctionDeclGroups(w io.Writer, groups []FunctionDeclGroup) error {
	if err := s.writeInt32(w, int32(len(groups))); err != nil {
		return err
	}
	for _, g := range groups {
		if err := s.writeIntSlice(w, g.Decls); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readFunctionDeclGroups(r io.Reader) ([]FunctionDeclGroup, error) {
	n, err := s.readInt32(r)
	if err != nil {
		return nil, err
	}
	out := make([]FunctionDeclGroup, n)
	for i := range out {
		decls, err := s.readIntSlice(r)
		if err != nil {
			return nil, err
		}
		out[i] = FunctionDeclGroup{Decls: decls}
	}
	return out, nil
}

func (s *Serializer) writePrivateNames(w io.Writer, names []PrivateNameInfo) error {
	if err := s.writeInt32(w, int32(len(names))); err != nil {
		return err
	}
	for _, n := range names {
		if err := s.writeString(w, n.Description); err != nil {
			return err
		}
		if err := s.writeString(w, n.Kind); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readPrivateNames(r io.Reader) ([]PrivateNameInfo, error) {
	n, err := s.readInt32(r)
	if err != nil {
		return nil, err
	}
	out := make([]PrivateNameInfo, n)
	for i := range out {
		desc, err := s.readString(r)
		if err != nil {
			return nil, err
		}
		kind, err := s.readString(r)
		if err != nil {
			return nil, err
		}
		out[i] = PrivateNameInfo{Description: desc, Kind: kind}
	}
	return out, nil
}

func (s *Serializer) writePrivateEnvironments(w io.Writer, envs []PrivateEnvironment) error {
	if err := s.writeInt32(w, int32(len(envs))); err != nil {
		return err
	}
	for _, e := range envs {
		if err := s.writeIntSlice(w, e.Names); err != nil {
			return err
		}
		if err := s.writeInt32(w, int32(e.Outer)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readPrivateEnvironments(r io.Reader) ([]PrivateEnvironment, error) {
	n, err := s.readInt32(r)
	if err != nil {
		return nil, err
	}
	out := make([]PrivateEnvironment, n)
	for i := range out {
		names, err := s.readIntSlice(r)
		if err != nil {
			return nil, err
		}
		outer, err := s.readInt32(r)
		if err != nil {
			return nil, err
		}
		out[i] = PrivateEnvironment{Names: names, Outer: int(outer)}
	}
	return out, nil
}

func (s *Serializer) writeLineInfos(w io.Writer, lines []LineInfo) error {
	if err := s.writeInt32(w, int32(len(lines))); err != nil {
		return err
	}
	for _, li := range lines {
		if err := s.writeInt32(w, int32(li.Offset)); err != nil {
			return err
		}
		if err := s.writeInt32(w, int32(li.Line)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readLineInfos(r io.Reader) ([]LineInfo, error) {
	n, err := s.readInt32(r)
	if err != nil {
		return nil, err
	}
	out := make([]LineInfo, n)
	for i := range out {
		offset, err := s.readInt32(r)
		if err != nil {
			return nil, err
		}
		line, err := s.readInt32(r)
		if err != nil {
			return nil, err
		}
		out[i] = LineInfo{Offset: int(offset), Line: int(line)}
	}
	return out, nil
}

func (s *Serializer) writeTryInfos(w io.Writer, tryInfos map[int]TryInfo) error {
	if err := s.writeInt32(w, int32(len(tryInfos))); err != nil {
		return err
	}
	for offset, info := range tryInfos {
		if err := s.writeInt32(w, int32(offset)); err != nil {
			return err
		}
		if err := s.writeInt32(w, int32(info.CatchTarget)); err != nil {
			return err
		}
		if err := s.writeInt32(w, int32(info.FinallyTarget)); err != nil {
			return err
		}
		if err := s.writeInt32(w, int32(info.FinallyEnd)); err != nil {
			return err
		}
		if err := s.writeBool(w, info.HasCatch); err != nil {
			return err
		}
		if err := s.writeBool(w, info.HasFinally); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readTryInfos(r io.Reader) (map[int]TryInfo, error) {
	n, err := s.readInt32(r)
	if err != nil {
		return nil, err
	}
	out := make(map[int]TryInfo, n)
	for i := int32(0); i < n; i++ {
		offset, err := s.readInt32(r)
		if err != nil {
			return nil, err
		}
		catchTarget, err := s.readInt32(r)
		if err != nil {
			return nil, err
		}
		finallyTarget, err := s.readInt32(r)
		if err != nil {
			return nil, err
		}
		finallyEnd, err := s.readInt32(r)
		if err != nil {
			return nil, err
		}
		hasCatch, err := s.readBool(r)
		if err != nil {
			return nil, err
		}
		hasFinally, err := s.readBool(r)
		if err != nil {
			return nil, err
		}
		out[int(offset)] = TryInfo{
			CatchTarget:   int(catchTarget),
			FinallyTarget: int(finallyTarget),
			FinallyEnd:    int(finallyEnd),
			HasCatch:      hasCatch,
			HasFinally:    hasFinally,
		}
	}
	return out, nil
}

func (s *Serializer) writeUpvalueDefs(w io.Writer, defs []UpvalueDef) error {
	if err := s.writeInt32(w, int32(len(defs))); err != nil {
		return err
	}
	for _, d := range defs {
		if err := s.writeBool(w, d.IsLocal); err != nil {
			return err
		}
		if err := s.writeInt32(w, int32(d.Index)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readUpvalueDefs(r io.Reader) ([]UpvalueDef, error) {
	n, err := s.readInt32(r)
	if err != nil {
		return nil, err
	}
	out := make([]UpvalueDef, n)
	for i := range out {
		isLocal, err := s.readBool(r)
		if err != nil {
			return nil, err
		}
		idx, err := s.readInt32(r)
		if err != nil {
			return nil, err
		}
		out[i] = UpvalueDef{IsLocal: isLocal, Index: int(idx)}
	}
	return out, nil
}

func (s *Serializer) writeFunctions(w io.Writer, fns []*Function) error {
	if err := s.writeInt32(w, int32(len(fns))); err != nil {
		return err
	}
	for _, fn := range fns {
		if err := s.writeString(w, fn.Name); err != nil {
			return err
		}
		if err := s.writeInt32(w, int32(fn.ParamCount)); err != nil {
			return err
		}
		if err := s.writeBool(w, fn.HasRestParam); err != nil {
			return err
		}
		if err := s.writeBool(w, fn.IsArrow); err != nil {
			return err
		}
		if err := s.writeBool(w, fn.IsGenerator); err != nil {
			return err
		}
		if err := s.writeBool(w, fn.IsAsync); err != nil {
			return err
		}
		if err := s.writeBool(w, fn.IsStrict); err != nil {
			return err
		}
		if err := s.writeBool(w, fn.IsClassConstructor); err != nil {
			return err
		}
		if err := s.writeBool(w, fn.IsDerivedConstructor); err != nil {
			return err
		}
		if err := s.writeBool(w, fn.IsMethod); err != nil {
			return err
		}
		if err := s.writeInt32(w, int32(fn.TopBindingGroup)); err != nil {
			return err
		}
		if err := s.writeInt32(w, int32(fn.PrivateEnv)); err != nil {
			return err
		}
		if err := s.writeUpvalueDefs(w, fn.UpvalueDefs); err != nil {
			return err
		}
		if err := s.writeTryInfos(w, fn.TryInfos); err != nil {
			return err
		}
		if err := s.writeInstructions(w, fn.Code); err != nil {
			return err
		}
		if err := s.writeLineInfos(w, fn.Lines); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readFunctions(r io.Reader) ([]*Function, error) {
	n, err := s.readInt32(r)
	if err != nil {
		return nil, err
	}
	out := make([]*Function, n)
	for i := range out {
		fn := &Function{}
		if fn.Name, err = s.readString(r); err != nil {
			return nil, err
		}
		pc, err := s.readInt32(r)
		if err != nil {
			return nil, err
		}
		fn.ParamCount = int(pc)
		if fn.HasRestParam, err = s.readBool(r); err != nil {
			return nil, err
		}
		if fn.IsArrow, err = s.readBool(r); err != nil {
			return nil, err
		}
		if fn.IsGenerator, err = s.readBool(r); err != nil {
			return nil, err
		}
		if fn.IsAsync, err = s.readBool(r); err != nil {
			return nil, err
		}
		if fn.IsStrict, err = s.readBool(r); err != nil {
			return nil, err
		}
		if fn.IsClassConstructor, err = s.readBool(r); err != nil {
			return nil, err
		}
		if fn.IsDerivedConstructor, err = s.readBool(r); err != nil {
			return nil, err
		}
		if fn.IsMethod, err = s.readBool(r); err != nil {
			return nil, err
		}
		tbg, err := s.readInt32(r)
		if err != nil {
			return nil, err
		}
		fn.TopBindingGroup = int(tbg)
		pe, err := s.readInt32(r)
		if err != nil {
			return nil, err
		}
		fn.PrivateEnv = int(pe)
		if fn.UpvalueDefs, err = s.readUpvalueDefs(r); err != nil {
			return nil, err
		}
		if fn.TryInfos, err = s.readTryInfos(r); err != nil {
			return nil, err
		}
		if fn.Code, err = s.readInstructions(r); err != nil {
			return nil, err
		}
		if fn.Lines, err = s.readLineInfos(r); err != nil {
			return nil, err
		}
		out[i] = fn
	}
	return out, nil
}
