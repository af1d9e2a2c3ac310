package aml

// ParseType1Opcode decodes the statement at the start of data.
func (p *Parser) ParseType1Opcode(data []byte) (TermObj, int, error) {
	p.reset(data)
	obj, err := p.parseType1Opcode()
	return obj, p.consumed(err), err
}

// isType1Opcode returns true if op introduces one of the supported Type1
// statements.
func isType1Opcode(op Opcode) bool {
	switch op {
	case OpIf, OpWhile, OpNoop, OpReturn, OpBreak, OpContinue:
		return true
	}
	return false
}

// parseType1Opcode parses a statement that does not produce a value.
//
// Grammar:
// Type1Opcode := DefBreak | DefContinue | DefIfElse | DefNoop | DefReturn | DefWhile
func (p *Parser) parseType1Opcode() (TermObj, error) {
	start := p.r.Offset()
	next, err := p.r.ReadByte()
	if err != nil {
		return nil, err
	}

	switch Opcode(next) {
	case OpIf:
		ifElse, err := p.parseDefIfElse()
		if err != nil {
			return nil, err
		}
		return ifElse, nil
	case OpWhile:
		loop, err := p.parseDefWhile()
		if err != nil {
			return nil, err
		}
		return loop, nil
	case OpNoop:
		return &Noop{}, nil
	case OpBreak:
		return &Break{}, nil
	case OpContinue:
		return &Continue{}, nil
	case OpReturn:
		val, err := p.parseTermArg()
		if err != nil {
			return nil, err
		}
		return &Return{Value: val}, nil
	}

	p.r.SetOffset(start)
	return nil, errAtf(ErrInvalidOpcode, start, "expected Type1Opcode; got opcode 0x%02x", next)
}

// parseDefIfElse parses an If block and the Else block that may immediately
// follow it. The IfOp has already been consumed. Both PkgLength values
// measure their extent from the byte following their own opcode.
//
// Grammar:
// DefIfElse := IfOp PkgLength Predicate TermList DefElse
// DefElse := Nothing | <ElseOp PkgLength TermList>
func (p *Parser) parseDefIfElse() (*IfElse, error) {
	end, err := p.parsePkgEnd()
	if err != nil {
		return nil, err
	}

	ifElse := new(IfElse)
	err = p.withinPkg(end, func() error {
		var err error
		if ifElse.Predicate, err = p.parseTermArg(); err != nil {
			return err
		}
		ifElse.Then, err = p.parseTermList()
		return err
	})
	if err != nil {
		return nil, err
	}

	if p.r.EOF() {
		return ifElse, nil
	}
	if next, _ := p.r.PeekByte(); Opcode(next) != OpElse {
		return ifElse, nil
	}

	_, _ = p.r.ReadByte()
	if end, err = p.parsePkgEnd(); err != nil {
		return nil, err
	}

	err = p.withinPkg(end, func() error {
		var err error
		ifElse.Else, err = p.parseTermList()
		return err
	})
	if err != nil {
		return nil, err
	}

	return ifElse, nil
}

// parseDefWhile parses a While loop. The WhileOp has already been consumed.
//
// Grammar:
// DefWhile := WhileOp PkgLength Predicate TermList
func (p *Parser) parseDefWhile() (*While, error) {
	end, err := p.parsePkgEnd()
	if err != nil {
		return nil, err
	}

	loop := new(While)
	err = p.withinPkg(end, func() error {
		var err error
		if loop.Predicate, err = p.parseTermArg(); err != nil {
			return err
		}
		loop.Body, err = p.parseTermList()
		return err
	})
	if err != nil {
		return nil, err
	}

	return loop, nil
}
