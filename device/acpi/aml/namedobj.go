package aml

import "fmt"

// ParseNamedObj decodes the named object declaration at the start of data.
// Methods and devices are inserted into the namespace relative to the root
// scope; an operation region is only returned to the caller.
func (p *Parser) ParseNamedObj(data []byte) (TermObj, int, error) {
	p.reset(data)
	obj, err := p.parseNamedObj()
	return obj, p.consumed(err), err
}

// parseNamedObj dispatches on the (possibly extended) opcode at the current
// offset.
//
// Grammar:
// NamedObj := DefOpRegion | DefMethod | DefDevice
func (p *Parser) parseNamedObj() (TermObj, error) {
	start := p.r.Offset()
	op, _, err := p.peekOpcode()
	if err != nil {
		return nil, err
	}

	switch op {
	case OpOpRegion:
		decl, err := p.parseDefOpRegion()
		if err != nil {
			return nil, err
		}
		return decl, nil
	case OpMethod:
		decl, err := p.parseDefMethod()
		if err != nil {
			return nil, err
		}
		return decl, nil
	case OpDevice:
		decl, err := p.parseDefDevice()
		if err != nil {
			return nil, err
		}
		return decl, nil
	}

	return nil, errAtf(ErrInvalidOpcode, start, "expected NamedObj; got opcode %s", op)
}

// parseDefOpRegion parses an operation region declaration. The caller is
// responsible for inserting the region into the namespace.
//
// Grammar:
// DefOpRegion := OpRegionOp NameString RegionSpace RegionOffset RegionLen
// OpRegionOp := ExtOpPrefix 0x80
// RegionSpace := ByteData
// RegionOffset := TermArg => Integer
// RegionLen := TermArg => Integer
func (p *Parser) parseDefOpRegion() (*OpRegionDecl, error) {
	start := p.r.Offset()
	prefix, err := p.r.ReadBytes(2)
	if err != nil {
		return nil, err
	}
	if prefix[0] != extOpPrefix || Opcode(0xff)+Opcode(prefix[1]) != OpOpRegion {
		p.r.SetOffset(start)
		return nil, errAtf(ErrInvalidOpcode, start, "expected OpRegion; got 0x%02x 0x%02x", prefix[0], prefix[1])
	}

	decl := new(OpRegionDecl)
	if decl.Name, err = p.parseNameString(); err != nil {
		return nil, err
	}

	spaceOffset := p.r.Offset()
	space, err := p.r.ReadByte()
	if err != nil {
		return nil, err
	}
	if decl.Space = RegionSpace(space); !decl.Space.Valid() {
		return nil, errAtf(ErrInvalidRegionSpace, spaceOffset, "region %s uses reserved space 0x%02x", decl.Name, space)
	}

	if decl.Offset, err = p.parseTermArg(); err != nil {
		return nil, err
	}
	if decl.Length, err = p.parseTermArg(); err != nil {
		return nil, err
	}

	return decl, nil
}

// declareOpRegion inserts a decoded operation region into the namespace and
// reports it to the diagnostics writer together with start, the offset of
// its OpRegionOp.
func (p *Parser) declareOpRegion(decl *OpRegionDecl, start uint32) error {
	path, err := p.declare(decl.Name, &OpRegion{
		Space:  decl.Space,
		Offset: decl.Offset,
		Length: decl.Length,
	})
	if err != nil {
		return err
	}

	// Nothing was inserted for regions local to a method body.
	if p.methodDepth != 0 || p.root == nil {
		return nil
	}

	fmt.Fprintf(p.errWriter, "[table: %s, offset: %d] operation region %s (space: %s)\n", p.tableName, start, path, decl.Space)
	return nil
}

// parseDefMethod parses a method declaration. When the parser is configured
// to skip method bodies, the body extent is recorded so it can be decoded
// once all methods in the table have been declared.
//
// Grammar:
// DefMethod := MethodOp PkgLength NameString MethodFlags TermList
// MethodFlags := ByteData // bit 0-2: ArgCount (0-7)
// // bit 3: SerializeFlag
// // bit 4-7: SyncLevel (0x00-0x0f)
func (p *Parser) parseDefMethod() (*MethodDecl, error) {
	start := p.r.Offset()
	if op, _ := p.r.ReadByte(); Opcode(op) != OpMethod {
		p.r.SetOffset(start)
		return nil, errAtf(ErrInvalidOpcode, start, "expected Method; got opcode 0x%02x", op)
	}

	end, err := p.parsePkgEnd()
	if err != nil {
		return nil, err
	}

	decl := new(MethodDecl)
	err = p.withinPkg(end, func() error {
		var err error
		if decl.Name, err = p.parseNameString(); err != nil {
			return err
		}

		flags, err := p.r.ReadByte()
		if err != nil {
			return err
		}
		decl.ArgCount = flags & 0x7
		decl.Serialized = flags&0x8 != 0
		decl.SyncLevel = flags >> 4

		if decl.scope, err = p.declare(decl.Name, &Value{Type: ValueMethod, Object: decl}); err != nil {
			return err
		}
		decl.bodyStart, decl.bodyEnd = p.r.Offset(), end

		if p.parseOptions == parseOptSkipMethodBodies {
			p.methods = append(p.methods, decl)
			p.r.SetOffset(end)
			return nil
		}

		p.scopeEnter(decl.scope)
		p.methodDepth++
		decl.Body, err = p.parseTermList()
		p.methodDepth--
		p.scopeExit()
		return err
	})
	if err != nil {
		return nil, err
	}

	return decl, nil
}

// parseDefDevice parses a device declaration and the objects declared in its
// scope.
//
// Grammar:
// DefDevice := DeviceOp PkgLength NameString TermList
// DeviceOp := ExtOpPrefix 0x82
func (p *Parser) parseDefDevice() (*DeviceDecl, error) {
	start := p.r.Offset()
	op, width, err := p.peekOpcode()
	if err != nil {
		return nil, err
	}
	if op != OpDevice {
		return nil, errAtf(ErrInvalidOpcode, start, "expected Device; got opcode %s", op)
	}
	p.r.SetOffset(start + width)

	end, err := p.parsePkgEnd()
	if err != nil {
		return nil, err
	}

	decl := new(DeviceDecl)
	err = p.withinPkg(end, func() error {
		var err error
		if decl.Name, err = p.parseNameString(); err != nil {
			return err
		}

		path, err := p.declare(decl.Name, &Namespace{Object: decl})
		if err != nil {
			return err
		}

		p.scopeEnter(path)
		decl.Body, err = p.parseTermList()
		p.scopeExit()
		return err
	})
	if err != nil {
		return nil, err
	}

	return decl, nil
}
