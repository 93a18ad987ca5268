package bytecode

import (
	"fmt"

	"github.com/nyxlang/nyx/internal/jsvalue"
)

// LineInfo maps an instruction offset to a source line, for error
// reporting and the disassembler's source-annotated mode. Grounded on
// the teacher's bytecode.LineInfo (one entry per instruction run of
// identical line number, not one per instruction).
type LineInfo struct {
	Offset int
	Line   int
}

// TryInfo describes one try/catch/finally region's targets, kept from
// the teacher's Chunk.tryInfos design (a map keyed by the PushTry
// instruction's operand rather than inlined into the instruction
// itself, since three jump targets don't fit the 16-bit B field).
type TryInfo struct {
	CatchTarget   int
	FinallyTarget int
	FinallyEnd    int // first offset past the finally block's code
	HasCatch      bool
	HasFinally    bool
}

// BindingKind distinguishes how a declared name may be reassigned and
// whether it starts in the temporal dead zone (spec.md §4.3).
type BindingKind byte

const (
	BindingVar BindingKind = iota
	BindingLet
	BindingConst
	BindingParam
	BindingFunction
)

// BindingRef is one compiler-resolved declaration: a name, its kind,
// and the slot it occupies in its owning environment record.
type BindingRef struct {
	Name string
	Kind BindingKind
	Slot int
}

// PropertyRef is a compile-time-resolved property access site: the
// constant-pool index of the property key, plus a reserved inline-
// cache slot the VM may populate with a (shape, offset) hint (spec.md
// §4.5's "resolved once, reused across the loop" inline-cache design).
type PropertyRef struct {
	KeyConstant int
}

// BindingGroup is the set of binding-table indices a single lexical
// scope (block, function body, catch clause) declares together; the
// compiler emits one OpPushScope per group so the VM can materialize
// exactly the right declarative environment record.
type BindingGroup struct {
	Bindings []int
}

// FunctionDecl is a hoisted function declaration's name and the
// function-table index of its compiled body (spec.md §4.3's Global/
// Function Declaration Instantiation needs this to pre-bind functions
// ahead of the rest of a block's statements).
type FunctionDecl struct {
	Name        string
	FunctionIdx int
}

// FunctionDeclGroup lists the FunctionDecl indices hoisted at the top
// of one scope, mirroring BindingGroup's per-scope grouping.
type FunctionDeclGroup struct {
	Decls []int
}

// PrivateNameInfo names one `#field` declaration's identity and kind
// (field/method/accessor), resolved at compile time per class body.
type PrivateNameInfo struct {
	Description string
	Kind        string
}

// PrivateEnvironment lists the PrivateNameInfo indices visible inside
// one class body, chained to an outer class's private environment for
// nested classes.
type PrivateEnvironment struct {
	Names []int
	Outer int // index into Module.PrivateEnvironments, -1 if none
}

// UpvalueDef describes how a closure captures one free variable:
// either lifted directly off the enclosing frame's locals or forwarded
// from the enclosing closure's own upvalue list. Carried over from the
// teacher's bytecode.UpvalueDef.
type UpvalueDef struct {
	IsLocal bool
	Index   int
}

// Function is one compiled function body: its own instruction stream,
// constant references into the module-wide tables, and the metadata
// the VM needs to set up a call frame. Analogous to the teacher's
// Chunk, renamed because "chunk" in the teacher denotes a whole
// script's single flat code block, while JS compiles one Function per
// function/arrow/method/generator.
type Function struct {
	Name                 string
	ParamCount           int
	HasRestParam         bool
	IsArrow              bool
	IsGenerator          bool
	IsAsync              bool
	IsStrict             bool
	IsClassConstructor   bool
	IsDerivedConstructor bool
	IsMethod             bool // carries a home object for super references

	Code  []Instruction
	Lines []LineInfo

	UpvalueDefs []UpvalueDef

	// TopBindingGroup indexes Module.BindingGroups for the function's
	// own parameter/var scope; nested block scopes reference further
	// groups via OpPushScope operands found in Code.
	TopBindingGroup int

	TryInfos map[int]TryInfo

	// PrivateEnv indexes Module.PrivateEnvironments when this function
	// is a class constructor or method body, -1 otherwise.
	PrivateEnv int

	SourceFile string
	SourceLine int
}

// NewFunction allocates an empty function body ready for the compiler
// to append instructions to.
func NewFunction(name string) *Function {
	return &Function{
		Name:       name,
		Code:       make([]Instruction, 0, 64),
		Lines:      make([]LineInfo, 0, 16),
		TryInfos:   make(map[int]TryInfo),
		PrivateEnv: -1,
	}
}

// LineForOffset finds the source line an instruction offset belongs
// to by scanning the sparse LineInfo table (one entry per run of
// same-line instructions, matching the teacher's Chunk.Lines).
func (f *Function) LineForOffset(offset int) int {
	line := 0
	for _, li := range f.Lines {
		if li.Offset > offset {
			break
		}
		line = li.Line
	}
	return line
}

// Module is a fully compiled script or module body: every function
// compiled from it (function 0 is the top-level body), plus the
// shared tables the serializer writes out in the section order spec.md
// §6 specifies: constants, bindings, binding-references, property-
// references, binding-groups, function-declarations, function-
// declaration-groups, private-names, private-environments, functions,
// code, line-info.
type Module struct {
	Constants []jsvalue.Value

	Bindings     []BindingRef
	PropertyRefs []PropertyRef

	BindingGroups      []BindingGroup
	FunctionDecls      []FunctionDecl
	FunctionDeclGroups []FunctionDeclGroup

	PrivateNames        []PrivateNameInfo
	PrivateEnvironments []PrivateEnvironment

	Functions []*Function

	// IsModule distinguishes module-goal parsing (import/export,
	// strict by default, its own module environment record) from
	// script-goal parsing.
	IsModule   bool
	SourceFile string
}

// NewModule allocates an empty module ready for the compiler to append
// functions and tables to.
func NewModule(sourceFile string, isModule bool) *Module {
	return &Module{SourceFile: sourceFile, IsModule: isModule}
}

// AddConstant interns v into the constant pool, returning its index.
// The compiler is responsible for deduplicating identical literals
// where profitable; this simply appends.
func (m *Module) AddConstant(v jsvalue.Value) int {
	m.Constants = append(m.Constants, v)
	return len(m.Constants) - 1
}

// AddBinding registers a new resolved binding and returns its index.
func (m *Module) AddBinding(b BindingRef) int {
	m.Bindings = append(m.Bindings, b)
	return len(m.Bindings) - 1
}

// AddPropertyRef registers a property-access site and returns its
// index, used both as the OpGetProperty/OpSetProperty operand and as
// the inline-cache key.
func (m *Module) AddPropertyRef(keyConstant int) int {
	m.PropertyRefs = append(m.PropertyRefs, PropertyRef{KeyConstant: keyConstant})
	return len(m.PropertyRefs) - 1
}

// AddBindingGroup registers a scope's binding set and returns its
// index.
func (m *Module) AddBindingGroup(slots []int) int {
	m.BindingGroups = append(m.BindingGroups, BindingGroup{Bindings: slots})
	return len(m.BindingGroups) - 1
}

// AddFunctionDecl registers a hoisted function declaration and returns
// its index into Module.FunctionDecls.
func (m *Module) AddFunctionDecl(name string, fnIdx int) int {
	m.FunctionDecls = append(m.FunctionDecls, FunctionDecl{Name: name, FunctionIdx: fnIdx})
	return len(m.FunctionDecls) - 1
}

// AddFunctionDeclGroup registers one scope's hoisted-function set and
// returns its index (the OpInstantiateFuncDecls operand).
func (m *Module) AddFunctionDeclGroup(decls []int) int {
	m.FunctionDeclGroups = append(m.FunctionDeclGroups, FunctionDeclGroup{Decls: decls})
	return len(m.FunctionDeclGroups) - 1
}

// AddFunction registers a compiled function body and returns its
// index into Module.Functions (the value OpClosure's B operand
// references).
func (m *Module) AddFunction(fn *Function) int {
	m.Functions = append(m.Functions, fn)
	return len(m.Functions) - 1
}

// TopLevel returns the module's entry-point function (index 0), the
// script or module body itself rather than a nested declaration.
func (m *Module) TopLevel() *Function {
	if len(m.Functions) == 0 {
		return nil
	}
	return m.Functions[0]
}

func (m *Module) String() string {
	return fmt.Sprintf("Module(%s, %d functions, %d constants)", m.SourceFile, len(m.Functions), len(m.Constants))
}
