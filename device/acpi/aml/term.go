package aml

import (
	"strings"
)

// Term is implemented by every construct produced by the decoder.
type Term interface {
	// Opcode returns the AML opcode that introduced this term.
	Opcode() Opcode
}

// TermArg is a term that produces a value and may therefore appear as an
// operand of another term.
//
// Grammar:
// TermArg := Type2Opcode | DataObject | ArgObj | LocalObj
type TermArg interface {
	Term
	termArg()
}

// TermObj is a term that may appear inside a TermList.
//
// Grammar:
// TermObj := Object | Type1Opcode | Type2Opcode
// Object := NameSpaceModifierObj | NamedObj
type TermObj interface {
	Term
	termObj()
}

// DataObject is a literal value.
//
// Grammar:
// DataObject := ComputationalData | DefPackage | DefVarPackage
type DataObject interface {
	TermArg
	dataObject()
}

// DataRefObject is a DataObject or an object reference.
//
// Grammar:
// DataRefObject := DataObject | ObjectReference | DDBHandle
type DataRefObject interface {
	TermArg
	dataRefObject()
}

// SuperName is a term that may be used as the destination of a store or
// as the operand of a reference operator.
//
// Grammar:
// SuperName := SimpleName | DebugObj | Type6Opcode
// SimpleName := NameString | ArgObj | LocalObj
type SuperName interface {
	Term
	superName()
}

// Target is an optional SuperName that receives the result of an operator.
// A NullName target is decoded as a *NameString for which IsNull returns
// true.
type Target interface {
	SuperName
}

// expr is embedded by terms that can act both as TermArgs and TermObjs.
type expr struct{}

func (expr) termArg() {}
func (expr) termObj() {}

// stmt is embedded by terms that can only appear inside a TermList.
type stmt struct{}

func (stmt) termObj() {}

// ConstKind describes the encoding of a ComputationalData value.
type ConstKind uint8

// The list of supported ComputationalData encodings.
const (
	ConstByte ConstKind = iota
	ConstWord
	ConstDWord
	ConstQWord
	ConstZero
	ConstOne
	ConstOnes
)

// ComputationalData is an integer literal. The payload width is determined
// by the leading opcode alone; Value holds the little-endian decoded payload
// or, for the ConstObj forms, 0, 1 or all-ones.
type ComputationalData struct {
	expr
	Kind  ConstKind
	Value uint64
}

// Opcode returns the AML op associated with this term.
func (d *ComputationalData) Opcode() Opcode {
	switch d.Kind {
	case ConstByte:
		return OpBytePrefix
	case ConstWord:
		return OpWordPrefix
	case ConstDWord:
		return OpDwordPrefix
	case ConstQWord:
		return OpQwordPrefix
	case ConstOne:
		return OpOne
	case ConstOnes:
		return OpOnes
	}
	return OpZero
}

func (*ComputationalData) dataObject()    {}
func (*ComputationalData) dataRefObject() {}

// StringConst is a null-terminated ASCII string literal.
type StringConst struct {
	expr
	Value string
}

// Opcode returns the AML op associated with this term.
func (*StringConst) Opcode() Opcode { return OpStringPrefix }

func (*StringConst) dataObject()    {}
func (*StringConst) dataRefObject() {}

// ArgObj references one of the 7 arguments of the enclosing method.
type ArgObj struct {
	expr
	Index uint8
}

// Opcode returns the AML op associated with this term.
func (a *ArgObj) Opcode() Opcode { return OpArg0 + Opcode(a.Index) }

func (*ArgObj) superName() {}

// LocalObj references one of the 8 locals of the enclosing method.
type LocalObj struct {
	expr
	Index uint8
}

// Opcode returns the AML op associated with this term.
func (l *LocalObj) Opcode() Opcode { return OpLocal0 + Opcode(l.Index) }

func (*LocalObj) superName() {}

// DebugObj is the ACPI debug object.
type DebugObj struct {
	expr
}

// Opcode returns the AML op associated with this term.
func (*DebugObj) Opcode() Opcode { return OpDebug }

func (*DebugObj) superName() {}

// NameString is a decoded firmware object name. Root and ParentPrefixes are
// mutually exclusive. A NameString with no segments is the NullName.
type NameString struct {
	expr
	Root           bool
	ParentPrefixes int
	Segments       []string
}

// Opcode returns the AML op associated with this term.
func (*NameString) Opcode() Opcode { return OpIntNamePath }

func (*NameString) superName() {}

// IsNull returns true if this is the NullName.
func (n *NameString) IsNull() bool {
	return !n.Root && n.ParentPrefixes == 0 && len(n.Segments) == 0
}

// String returns the ASL representation of the name, with segments
// separated by dots (e.g. `\_SB_.PCI0`).
func (n *NameString) String() string {
	var sb strings.Builder
	if n.Root {
		sb.WriteByte(rootChar)
	}
	for i := 0; i < n.ParentPrefixes; i++ {
		sb.WriteByte(parentPrefix)
	}
	sb.WriteString(strings.Join(n.Segments, "."))
	return sb.String()
}

// IfElse is a conditional statement. Else is empty when no else block
// follows the if block.
type IfElse struct {
	stmt
	Predicate TermArg
	Then      []TermObj
	Else      []TermObj
}

// Opcode returns the AML op associated with this term.
func (*IfElse) Opcode() Opcode { return OpIf }

// While is a loop statement.
type While struct {
	stmt
	Predicate TermArg
	Body      []TermObj
}

// Opcode returns the AML op associated with this term.
func (*While) Opcode() Opcode { return OpWhile }

// Return exits the enclosing method with a value.
type Return struct {
	stmt
	Value TermArg
}

// Opcode returns the AML op associated with this term.
func (*Return) Opcode() Opcode { return OpReturn }

// Break exits the enclosing While loop.
type Break struct{ stmt }

// Opcode returns the AML op associated with this term.
func (*Break) Opcode() Opcode { return OpBreak }

// Continue skips to the next iteration of the enclosing While loop.
type Continue struct{ stmt }

// Opcode returns the AML op associated with this term.
func (*Continue) Opcode() Opcode { return OpContinue }

// Noop does nothing.
type Noop struct{ stmt }

// Opcode returns the AML op associated with this term.
func (*Noop) Opcode() Opcode { return OpNoop }

// Buffer constructs a buffer object. Bytes holds the initializer byte list
// verbatim.
type Buffer struct {
	expr
	Size  TermArg
	Bytes []byte
}

// Opcode returns the AML op associated with this term.
func (*Buffer) Opcode() Opcode { return OpBuffer }

// DerefOf dereferences an object reference.
type DerefOf struct {
	expr
	Ref TermArg
}

// Opcode returns the AML op associated with this term.
func (*DerefOf) Opcode() Opcode { return OpDerefOf }

// Increment adds one to Target in place.
type Increment struct {
	expr
	Target SuperName
}

// Opcode returns the AML op associated with this term.
func (*Increment) Opcode() Opcode { return OpIncrement }

// Decrement subtracts one from Target in place.
type Decrement struct {
	expr
	Target SuperName
}

// Opcode returns the AML op associated with this term.
func (*Decrement) Opcode() Opcode { return OpDecrement }

// Index returns a reference to element Idx of Obj.
type Index struct {
	expr
	Obj    TermArg
	Idx    TermArg
	Target Target
}

// Opcode returns the AML op associated with this term.
func (*Index) Opcode() Opcode { return OpIndex }

// LEqual compares two operands for equality.
type LEqual struct {
	expr
	Lhs, Rhs TermArg
}

// Opcode returns the AML op associated with this term.
func (*LEqual) Opcode() Opcode { return OpLEqual }

// LLess tests whether Lhs is less than Rhs.
type LLess struct {
	expr
	Lhs, Rhs TermArg
}

// Opcode returns the AML op associated with this term.
func (*LLess) Opcode() Opcode { return OpLLess }

// LogicalOp is a two-operand logical operator (LAnd, LOr, LGreater).
type LogicalOp struct {
	expr
	Op       Opcode
	Lhs, Rhs TermArg
}

// Opcode returns the AML op associated with this term.
func (l *LogicalOp) Opcode() Opcode { return l.Op }

// LNot negates its operand.
type LNot struct {
	expr
	Operand TermArg
}

// Opcode returns the AML op associated with this term.
func (*LNot) Opcode() Opcode { return OpLnot }

// SizeOf returns the size of the object referenced by Target.
type SizeOf struct {
	expr
	Target SuperName
}

// Opcode returns the AML op associated with this term.
func (*SizeOf) Opcode() Opcode { return OpSizeOf }

// Store copies Operand into Target.
type Store struct {
	expr
	Operand TermArg
	Target  SuperName
}

// Opcode returns the AML op associated with this term.
func (*Store) Opcode() Opcode { return OpStore }

// Subtract computes Minuend - Subtrahend.
type Subtract struct {
	expr
	Minuend    TermArg
	Subtrahend TermArg
	Target     Target
}

// Opcode returns the AML op associated with this term.
func (*Subtract) Opcode() Opcode { return OpSubtract }

// BinaryOp is an integer operator of the form Op Operand Operand Target
// (Add, Multiply, ShiftLeft, ShiftRight, And, Nand, Or, Nor, Xor, Mod).
type BinaryOp struct {
	expr
	Op       Opcode
	Lhs, Rhs TermArg
	Target   Target
}

// Opcode returns the AML op associated with this term.
func (b *BinaryOp) Opcode() Opcode { return b.Op }

// ToBuffer converts Operand to a buffer.
type ToBuffer struct {
	expr
	Operand TermArg
	Target  Target
}

// Opcode returns the AML op associated with this term.
func (*ToBuffer) Opcode() Opcode { return OpToBuffer }

// ToHexString converts Operand to a hexadecimal string.
type ToHexString struct {
	expr
	Operand TermArg
	Target  Target
}

// Opcode returns the AML op associated with this term.
func (*ToHexString) Opcode() Opcode { return OpToHexString }

// MethodInvocation is a reference to a named object followed by the
// arguments passed to it. A reference to a non-method object is decoded as a
// MethodInvocation with no arguments.
type MethodInvocation struct {
	expr
	Name *NameString
	Args []TermArg
}

// Opcode returns the AML op associated with this term.
func (*MethodInvocation) Opcode() Opcode { return OpIntMethodCall }

// OpRegionDecl is an operation region declaration.
type OpRegionDecl struct {
	stmt
	Name   *NameString
	Space  RegionSpace
	Offset TermArg
	Length TermArg
}

// Opcode returns the AML op associated with this term.
func (*OpRegionDecl) Opcode() Opcode { return OpOpRegion }

// MethodDecl is a control method declaration. Body is populated by the
// second decoding pass.
type MethodDecl struct {
	stmt
	Name       *NameString
	ArgCount   uint8
	Serialized bool
	SyncLevel  uint8
	Body       []TermObj

	// The stream extent of the method body and the absolute scope path
	// the body is decoded relative to.
	bodyStart, bodyEnd uint32
	scope              string
}

// Opcode returns the AML op associated with this term.
func (*MethodDecl) Opcode() Opcode { return OpMethod }

// DeviceDecl is a device declaration; its TermList defines the objects in
// the device scope.
type DeviceDecl struct {
	stmt
	Name *NameString
	Body []TermObj
}

// Opcode returns the AML op associated with this term.
func (*DeviceDecl) Opcode() Opcode { return OpDevice }

// NameDecl binds a name to a data object. Value is either a DataRefObject or
// a *Buffer.
type NameDecl struct {
	stmt
	Name  *NameString
	Value TermArg
}

// Opcode returns the AML op associated with this term.
func (*NameDecl) Opcode() Opcode { return OpName }

// ScopeDecl opens an existing scope and declares the objects in its
// TermList relative to it.
type ScopeDecl struct {
	stmt
	Name *NameString
	Body []TermObj
}

// Opcode returns the AML op associated with this term.
func (*ScopeDecl) Opcode() Opcode { return OpScope }

// AliasDecl declares Alias as another name for Source.
type AliasDecl struct {
	stmt
	Source *NameString
	Alias  *NameString
}

// Opcode returns the AML op associated with this term.
func (*AliasDecl) Opcode() Opcode { return OpAlias }
