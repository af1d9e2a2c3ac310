package aml

// ParseType2Opcode decodes the expression at the start of data. Anything that
// is not introduced by one of the supported operator opcodes is decoded as a
// method invocation.
func (p *Parser) ParseType2Opcode(data []byte) (TermArg, int, error) {
	p.reset(data)
	arg, err := p.parseType2Opcode()
	return arg, p.consumed(err), err
}

func (p *Parser) parseType2Opcode() (TermArg, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.exit()

	op, _, err := p.peekOpcode()
	if err != nil {
		return nil, err
	}

	if isType2Opcode(op) {
		return p.parseType2Op(op)
	}

	inv, err := p.parseMethodInvocation()
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// isType2Opcode returns true if op introduces one of the supported Type2
// operators.
func isType2Opcode(op Opcode) bool {
	switch op {
	case OpBuffer, OpDerefOf, OpIncrement, OpDecrement, OpIndex, OpSizeOf,
		OpStore, OpSubtract, OpToBuffer, OpToHexString,
		OpLEqual, OpLLess, OpLGreater, OpLand, OpLor, OpLnot:
		return true
	}
	return isBinaryOpcode(op)
}

// isBinaryOpcode returns true for integer operators of the form
// Op Operand Operand Target.
func isBinaryOpcode(op Opcode) bool {
	switch op {
	case OpAdd, OpMultiply, OpShiftLeft, OpShiftRight, OpAnd, OpNand,
		OpOr, OpNor, OpXor, OpMod:
		return true
	}
	return false
}

// parseType2Op parses the operator introduced by op. Every operand is
// parsed via parseTermArg, parseSuperName or parseTarget so the consumed
// length of the operator is the sum of its opcode and operand lengths.
//
// Grammar:
// Type2Opcode := DefBuffer | DefDerefOf | DefIncrement | DefIndex | DefLEqual |
//
//	DefLLess | DefSizeOf | DefStore | DefSubtract | DefToBuffer |
//	DefToHexString | ... | MethodInvocation
func (p *Parser) parseType2Op(op Opcode) (TermArg, error) {
	if op == OpBuffer {
		buf, err := p.parseDefBuffer()
		if err != nil {
			return nil, err
		}
		return buf, nil
	}

	start := p.r.Offset()
	_, _ = p.r.ReadByte()

	var (
		res TermArg
		err error
	)

	switch {
	case op == OpDerefOf:
		t := new(DerefOf)
		t.Ref, err = p.parseTermArg()
		res = t
	case op == OpIncrement:
		t := new(Increment)
		t.Target, err = p.parseSuperName()
		res = t
	case op == OpDecrement:
		t := new(Decrement)
		t.Target, err = p.parseSuperName()
		res = t
	case op == OpSizeOf:
		t := new(SizeOf)
		t.Target, err = p.parseSuperName()
		res = t
	case op == OpLnot:
		t := new(LNot)
		t.Operand, err = p.parseTermArg()
		res = t
	case op == OpIndex:
		t := new(Index)
		err = p.parseOperands(&t.Obj, &t.Idx)
		if err == nil {
			t.Target, err = p.parseTarget()
		}
		res = t
	case op == OpLEqual:
		t := new(LEqual)
		err = p.parseOperands(&t.Lhs, &t.Rhs)
		res = t
	case op == OpLLess:
		t := new(LLess)
		err = p.parseOperands(&t.Lhs, &t.Rhs)
		res = t
	case op == OpLand || op == OpLor || op == OpLGreater:
		t := &LogicalOp{Op: op}
		err = p.parseOperands(&t.Lhs, &t.Rhs)
		res = t
	case op == OpStore:
		t := new(Store)
		if t.Operand, err = p.parseTermArg(); err == nil {
			t.Target, err = p.parseSuperName()
		}
		res = t
	case op == OpSubtract:
		t := new(Subtract)
		err = p.parseOperands(&t.Minuend, &t.Subtrahend)
		if err == nil {
			t.Target, err = p.parseTarget()
		}
		res = t
	case op == OpToBuffer:
		t := new(ToBuffer)
		if t.Operand, err = p.parseTermArg(); err == nil {
			t.Target, err = p.parseTarget()
		}
		res = t
	case op == OpToHexString:
		t := new(ToHexString)
		if t.Operand, err = p.parseTermArg(); err == nil {
			t.Target, err = p.parseTarget()
		}
		res = t
	case isBinaryOpcode(op):
		t := &BinaryOp{Op: op}
		err = p.parseOperands(&t.Lhs, &t.Rhs)
		if err == nil {
			t.Target, err = p.parseTarget()
		}
		res = t
	default:
		p.r.SetOffset(start)
		return nil, errAtf(ErrInvalidOpcode, start, "expected Type2Opcode; got opcode %s", op)
	}

	if err != nil {
		return nil, err
	}

	return res, nil
}

// parseOperands parses a TermArg into each one of the supplied operands.
func (p *Parser) parseOperands(operands ...*TermArg) error {
	for _, operand := range operands {
		arg, err := p.parseTermArg()
		if err != nil {
			return err
		}
		*operand = arg
	}

	return nil
}

// parseDefBuffer parses a buffer declaration. The byte list that fills the
// remainder of the package is copied verbatim.
//
// Grammar:
// DefBuffer := BufferOp PkgLength BufferSize ByteList
// BufferSize := TermArg => Integer
func (p *Parser) parseDefBuffer() (*Buffer, error) {
	start := p.r.Offset()
	if op, _ := p.r.ReadByte(); Opcode(op) != OpBuffer {
		p.r.SetOffset(start)
		return nil, errAtf(ErrInvalidOpcode, start, "expected Buffer; got opcode 0x%02x", op)
	}

	end, err := p.parsePkgEnd()
	if err != nil {
		return nil, err
	}

	buf := new(Buffer)
	err = p.withinPkg(end, func() error {
		var err error
		if buf.Size, err = p.parseTermArg(); err != nil {
			return err
		}

		data, err := p.r.ReadBytes(end - p.r.Offset())
		if err != nil {
			return err
		}
		buf.Bytes = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return buf, nil
}
