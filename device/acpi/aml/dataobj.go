package aml

// ParseDataObject decodes the literal at the start of data.
func ParseDataObject(data []byte) (DataObject, int, error) {
	p := newSliceParser(data)
	obj, err := p.parseDataObject()
	return obj, p.consumed(err), err
}

// ParseDataRefObject decodes the DataRefObject at the start of data.
func ParseDataRefObject(data []byte) (DataRefObject, int, error) {
	p := newSliceParser(data)
	obj, err := p.parseDataRefObject()
	return obj, p.consumed(err), err
}

// ParseArgObj decodes a method argument reference (Arg0-Arg6).
func ParseArgObj(data []byte) (*ArgObj, int, error) {
	p := newSliceParser(data)
	obj, err := p.parseArgObj()
	return obj, p.consumed(err), err
}

// ParseLocalObj decodes a method local reference (Local0-Local7).
func ParseLocalObj(data []byte) (*LocalObj, int, error) {
	p := newSliceParser(data)
	obj, err := p.parseLocalObj()
	return obj, p.consumed(err), err
}

// parseDataObject parses a DataObject from the AML bytestream. The payload
// width is determined by the leading opcode.
//
// Grammar:
// ComputationalData := ByteConst | WordConst | DWordConst | QWordConst | String | ConstObj
// ConstObj := ZeroOp | OneOp | OnesOp
func (p *Parser) parseDataObject() (DataObject, error) {
	start := p.r.Offset()
	op, err := p.r.ReadByte()
	if err != nil {
		return nil, err
	}

	var (
		obj      DataObject
		numBytes uint8
		kind     ConstKind
	)

	switch Opcode(op) {
	case OpZero:
		return &ComputationalData{Kind: ConstZero}, nil
	case OpOne:
		return &ComputationalData{Kind: ConstOne, Value: 1}, nil
	case OpOnes:
		return &ComputationalData{Kind: ConstOnes, Value: ^uint64(0)}, nil
	case OpBytePrefix:
		numBytes, kind = 1, ConstByte
	case OpWordPrefix:
		numBytes, kind = 2, ConstWord
	case OpDwordPrefix:
		numBytes, kind = 4, ConstDWord
	case OpQwordPrefix:
		numBytes, kind = 8, ConstQWord
	case OpStringPrefix:
		str, err := p.parseString()
		if err != nil {
			p.r.SetOffset(start)
			return nil, err
		}
		return &StringConst{Value: str}, nil
	default:
		p.r.SetOffset(start)
		return nil, errAtf(ErrInvalidOpcode, start, "expected DataObject; got opcode 0x%02x", op)
	}

	val, err := p.parseNumConstant(numBytes)
	if err != nil {
		p.r.SetOffset(start)
		return nil, err
	}

	obj = &ComputationalData{Kind: kind, Value: val}
	return obj, nil
}

// parseDataRefObject parses a DataRefObject from the AML bytestream. Only the
// DataObject form is currently supported.
//
// Grammar:
// DataRefObject := DataObject | ObjectReference | DDBHandle
func (p *Parser) parseDataRefObject() (DataRefObject, error) {
	obj, err := p.parseDataObject()
	if err != nil {
		return nil, err
	}

	return obj.(DataRefObject), nil
}

// parseNumConstant parses a little-endian byte/word/dword or qword value from
// the AML bytestream.
func (p *Parser) parseNumConstant(numBytes uint8) (uint64, error) {
	data, err := p.r.ReadBytes(uint32(numBytes))
	if err != nil {
		return 0, err
	}

	var res uint64
	for c, next := range data {
		res |= uint64(next) << (8 * uint(c))
	}

	return res, nil
}

// parseString parses a null-terminated ASCII string from the AML bytestream.
func (p *Parser) parseString() (string, error) {
	var str []byte

	for {
		next, err := p.r.ReadByte()
		if err != nil {
			return "", err
		}

		switch {
		case next == 0x00:
			return string(str), nil
		case next <= 0x7f: // AsciiChar
			str = append(str, next)
		default:
			return "", errAtf(ErrInvalidOpcode, p.r.Offset()-1, "non-ASCII byte 0x%02x in string", next)
		}
	}
}

// parseArgObj parses an ArgObj from the AML bytestream.
//
// Grammar:
// ArgObj := Arg0Op | Arg1Op | Arg2Op | Arg3Op | Arg4Op | Arg5Op | Arg6Op
func (p *Parser) parseArgObj() (*ArgObj, error) {
	start := p.r.Offset()
	next, err := p.r.PeekByte()
	if err != nil {
		return nil, err
	}

	if !OpIsMethodArg(Opcode(next)) {
		return nil, errAtf(ErrInvalidOpcode, start, "expected ArgObj; got opcode 0x%02x", next)
	}

	_, _ = p.r.ReadByte()
	return &ArgObj{Index: next - byte(OpArg0)}, nil
}

// parseLocalObj parses a LocalObj from the AML bytestream.
//
// Grammar:
// LocalObj := Local0Op | Local1Op | Local2Op | Local3Op | Local4Op | Local5Op | Local6Op | Local7Op
func (p *Parser) parseLocalObj() (*LocalObj, error) {
	start := p.r.Offset()
	next, err := p.r.PeekByte()
	if err != nil {
		return nil, err
	}

	if !OpIsLocalArg(Opcode(next)) {
		return nil, errAtf(ErrInvalidOpcode, start, "expected LocalObj; got opcode 0x%02x", next)
	}

	_, _ = p.r.ReadByte()
	return &LocalObj{Index: next - byte(OpLocal0)}, nil
}
