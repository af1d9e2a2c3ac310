package aml

import "fmt"

// Opcode describes an AML opcode. Some opcodes are encoded using a
// combination of an extension prefix and a code. To map each opcode into a
// single unique value the decoder uses an uint16 representation where
// extended opcodes are stored as 0xff + code.
type Opcode uint16

const (
	extOpPrefix     = byte(0x5b)
	rootChar        = byte('\\')
	parentPrefix    = byte('^')
	dualNamePrefix  = byte(0x2e)
	multiNamePrefix = byte(0x2f)
	nullName        = byte(0x00)
)

const (
	// Regular opcode list
	OpZero         = Opcode(0x00)
	OpOne          = Opcode(0x01)
	OpAlias        = Opcode(0x06)
	OpName         = Opcode(0x08)
	OpBytePrefix   = Opcode(0x0a)
	OpWordPrefix   = Opcode(0x0b)
	OpDwordPrefix  = Opcode(0x0c)
	OpStringPrefix = Opcode(0x0d)
	OpQwordPrefix  = Opcode(0x0e)
	OpScope        = Opcode(0x10)
	OpBuffer       = Opcode(0x11)
	OpMethod       = Opcode(0x14)
	OpLocal0       = Opcode(0x60)
	OpLocal7       = Opcode(0x67)
	OpArg0         = Opcode(0x68)
	OpArg6         = Opcode(0x6e)
	OpStore        = Opcode(0x70)
	OpAdd          = Opcode(0x72)
	OpSubtract     = Opcode(0x74)
	OpIncrement    = Opcode(0x75)
	OpDecrement    = Opcode(0x76)
	OpMultiply     = Opcode(0x77)
	OpShiftLeft    = Opcode(0x79)
	OpShiftRight   = Opcode(0x7a)
	OpAnd          = Opcode(0x7b)
	OpNand         = Opcode(0x7c)
	OpOr           = Opcode(0x7d)
	OpNor          = Opcode(0x7e)
	OpXor          = Opcode(0x7f)
	OpDerefOf      = Opcode(0x83)
	OpMod          = Opcode(0x85)
	OpSizeOf       = Opcode(0x87)
	OpIndex        = Opcode(0x88)
	OpLand         = Opcode(0x90)
	OpLor          = Opcode(0x91)
	OpLnot         = Opcode(0x92)
	OpLEqual       = Opcode(0x93)
	OpLGreater     = Opcode(0x94)
	OpLLess        = Opcode(0x95)
	OpToBuffer     = Opcode(0x96)
	OpToHexString  = Opcode(0x98)
	OpContinue     = Opcode(0x9f)
	OpIf           = Opcode(0xa0)
	OpElse         = Opcode(0xa1)
	OpWhile        = Opcode(0xa2)
	OpNoop         = Opcode(0xa3)
	OpReturn       = Opcode(0xa4)
	OpBreak        = Opcode(0xa5)
	OpOnes         = Opcode(0xff)
	// Extended opcodes
	OpDebug    = Opcode(0xff + 0x31)
	OpOpRegion = Opcode(0xff + 0x80)
	OpDevice   = Opcode(0xff + 0x82)
	// Internal opcodes; these are not part of the AML encoding and are used
	// to tag decoded terms that have no opcode of their own.
	OpIntNamePath   = Opcode(0xff + 0xfc)
	OpIntMethodCall = Opcode(0xff + 0xfe)
)

var opcodeNames = map[Opcode]string{
	OpZero:          "Zero",
	OpOne:           "One",
	OpAlias:         "Alias",
	OpName:          "Name",
	OpBytePrefix:    "BytePrefix",
	OpWordPrefix:    "WordPrefix",
	OpDwordPrefix:   "DwordPrefix",
	OpStringPrefix:  "StringPrefix",
	OpQwordPrefix:   "QwordPrefix",
	OpScope:         "Scope",
	OpBuffer:        "Buffer",
	OpMethod:        "Method",
	OpStore:         "Store",
	OpAdd:           "Add",
	OpSubtract:      "Subtract",
	OpIncrement:     "Increment",
	OpDecrement:     "Decrement",
	OpMultiply:      "Multiply",
	OpShiftLeft:     "ShiftLeft",
	OpShiftRight:    "ShiftRight",
	OpAnd:           "And",
	OpNand:          "Nand",
	OpOr:            "Or",
	OpNor:           "Nor",
	OpXor:           "Xor",
	OpDerefOf:       "DerefOf",
	OpMod:           "Mod",
	OpSizeOf:        "SizeOf",
	OpIndex:         "Index",
	OpLand:          "LAnd",
	OpLor:           "LOr",
	OpLnot:          "LNot",
	OpLEqual:        "LEqual",
	OpLGreater:      "LGreater",
	OpLLess:         "LLess",
	OpToBuffer:      "ToBuffer",
	OpToHexString:   "ToHexString",
	OpContinue:      "Continue",
	OpIf:            "If",
	OpElse:          "Else",
	OpWhile:         "While",
	OpNoop:          "Noop",
	OpReturn:        "Return",
	OpBreak:         "Break",
	OpOnes:          "Ones",
	OpDebug:         "Debug",
	OpOpRegion:      "OpRegion",
	OpDevice:        "Device",
	OpIntNamePath:   "NamePath",
	OpIntMethodCall: "MethodCall",
}

// String implements fmt.Stringer for Opcode.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}

	switch {
	case OpIsLocalArg(op):
		return fmt.Sprintf("Local%d", op-OpLocal0)
	case OpIsMethodArg(op):
		return fmt.Sprintf("Arg%d", op-OpArg0)
	case op > 0xff:
		return fmt.Sprintf("ExtOp(0x%02x)", uint16(op-0xff))
	}

	return fmt.Sprintf("Op(0x%02x)", uint16(op))
}

// OpIsLocalArg returns true if this opcode represents any of the supported
// local function args 0 to 7.
func OpIsLocalArg(op Opcode) bool {
	return op >= OpLocal0 && op <= OpLocal7
}

// OpIsMethodArg returns true if this opcode represents any of the supported
// input function args 0 to 6.
func OpIsMethodArg(op Opcode) bool {
	return op >= OpArg0 && op <= OpArg6
}

// OpIsArg returns true if this opcode is either a local or a method arg.
func OpIsArg(op Opcode) bool {
	return OpIsLocalArg(op) || OpIsMethodArg(op)
}

// isLeadNameChar returns true if b is an ACPI LeadNameChar ([A-Z_]).
func isLeadNameChar(b byte) bool {
	return (b >= 'A' && b <= 'Z') || b == '_'
}

// isNameChar returns true if b can appear in a NameSeg. Segments whose first
// byte is a digit are accepted even though ACPI reserves the lead position
// for isLeadNameChar bytes.
func isNameChar(b byte) bool {
	return isLeadNameChar(b) || (b >= '0' && b <= '9')
}

// isNameStringLead returns true if b can start a NameString.
func isNameStringLead(b byte) bool {
	switch b {
	case rootChar, parentPrefix, dualNamePrefix, multiNamePrefix, nullName:
		return true
	}
	return isNameChar(b)
}
