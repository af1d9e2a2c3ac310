package aml

import "fmt"

// ParseTermObj decodes the TermObj at the start of data. Objects declared by
// the term are inserted into the namespace relative to the root scope.
func (p *Parser) ParseTermObj(data []byte) (TermObj, int, error) {
	p.reset(data)
	obj, err := p.parseTermObj()
	return obj, p.consumed(err), err
}

// ParseTermArg decodes the TermArg at the start of data.
func (p *Parser) ParseTermArg(data []byte) (TermArg, int, error) {
	p.reset(data)
	arg, err := p.parseTermArg()
	return arg, p.consumed(err), err
}

// ParseTermList decodes data as a sequence of TermObjs that must fill it
// exactly.
func (p *Parser) ParseTermList(data []byte) ([]TermObj, int, error) {
	p.reset(data)
	terms, err := p.parseTermList()
	return terms, p.consumed(err), err
}

// peekOpcode returns the opcode at the current offset and its encoded width
// without advancing the reader. Extended opcodes are returned as 0xff + the
// byte following the ExtOpPrefix.
func (p *Parser) peekOpcode() (Opcode, uint32, error) {
	next, err := p.r.PeekByte()
	if err != nil {
		return 0, 0, err
	}

	if next != extOpPrefix {
		return Opcode(next), 1, nil
	}

	ext, err := p.r.PeekBytes(2)
	if err != nil {
		return 0, 0, err
	}

	return Opcode(0xff) + Opcode(ext[1]), 2, nil
}

// parseTermList parses TermObjs until the read limit is reached.
//
// Grammar:
// TermList := Nothing | <TermObj TermList>
func (p *Parser) parseTermList() ([]TermObj, error) {
	var terms []TermObj
	for !p.r.EOF() {
		term, err := p.parseTermObj()
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}

	return terms, nil
}

// parseTermObj parses a single TermObj. The candidate productions are tried
// in the following order: namespace modifiers, named objects, Type1 opcodes
// and finally anything that may also act as a TermArg.
//
// Grammar:
// TermObj := Object | Type1Opcode | Type2Opcode
// Object := NameSpaceModifierObj | NamedObj
func (p *Parser) parseTermObj() (TermObj, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.exit()

	op, _, err := p.peekOpcode()
	if err != nil {
		return nil, err
	}

	switch {
	case op == OpAlias || op == OpName || op == OpScope:
		return p.parseNameSpaceModifierObj(op)
	case op == OpOpRegion:
		start := p.r.Offset()
		decl, err := p.parseDefOpRegion()
		if err != nil {
			return nil, err
		}
		if err = p.declareOpRegion(decl, start); err != nil {
			return nil, err
		}
		return decl, nil
	case op == OpMethod || op == OpDevice:
		return p.parseNamedObj()
	case isType1Opcode(op):
		return p.parseType1Opcode()
	}

	arg, err := p.termArg(op)
	if err != nil {
		return nil, err
	}

	return arg.(TermObj), nil
}

// parseTermArg parses a single TermArg.
//
// Grammar:
// TermArg := Type2Opcode | DataObject | ArgObj | LocalObj
func (p *Parser) parseTermArg() (TermArg, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.exit()

	op, _, err := p.peekOpcode()
	if err != nil {
		return nil, err
	}

	return p.termArg(op)
}

// termArg dispatches on the lead opcode to the production that owns it. A
// method invocation is attempted last as it is the only production that is
// not introduced by a fixed opcode.
func (p *Parser) termArg(op Opcode) (TermArg, error) {
	switch {
	case isType2Opcode(op):
		return p.parseType2Op(op)
	case isDataOpcode(op):
		return p.parseDataObject()
	case OpIsMethodArg(op):
		arg, err := p.parseArgObj()
		if err != nil {
			return nil, err
		}
		return arg, nil
	case OpIsLocalArg(op):
		local, err := p.parseLocalObj()
		if err != nil {
			return nil, err
		}
		return local, nil
	}

	inv, err := p.parseMethodInvocation()
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// isDataOpcode returns true if op introduces a ComputationalData literal.
func isDataOpcode(op Opcode) bool {
	switch op {
	case OpZero, OpOne, OpOnes, OpBytePrefix, OpWordPrefix, OpDwordPrefix, OpQwordPrefix, OpStringPrefix:
		return true
	}
	return false
}

// parseNameSpaceModifierObj parses an Alias, Name or Scope declaration.
//
// Grammar:
// NameSpaceModifierObj := DefAlias | DefName | DefScope
func (p *Parser) parseNameSpaceModifierObj(op Opcode) (TermObj, error) {
	switch op {
	case OpAlias:
		decl, err := p.parseDefAlias()
		if err != nil {
			return nil, err
		}
		return decl, nil
	case OpName:
		decl, err := p.parseDefName()
		if err != nil {
			return nil, err
		}
		return decl, nil
	}

	decl, err := p.parseDefScope()
	if err != nil {
		return nil, err
	}
	return decl, nil
}

// parseDefAlias parses an alias declaration.
//
// Grammar:
// DefAlias := AliasOp NameString NameString
func (p *Parser) parseDefAlias() (*AliasDecl, error) {
	_, _ = p.r.ReadByte()

	var (
		decl = new(AliasDecl)
		err  error
	)
	if decl.Source, err = p.parseNameString(); err != nil {
		return nil, err
	}
	if decl.Alias, err = p.parseNameString(); err != nil {
		return nil, err
	}

	if _, err = p.declare(decl.Alias, &Value{Type: ValueAlias, Object: decl}); err != nil {
		return nil, err
	}

	return decl, nil
}

// parseDefName parses a named data object declaration.
//
// Grammar:
// DefName := NameOp NameString DataRefObject
func (p *Parser) parseDefName() (*NameDecl, error) {
	_, _ = p.r.ReadByte()

	var (
		decl = new(NameDecl)
		err  error
	)
	if decl.Name, err = p.parseNameString(); err != nil {
		return nil, err
	}

	valueType := ValueBuffer
	if next, _ := p.r.PeekByte(); Opcode(next) == OpBuffer {
		decl.Value, err = p.parseDefBuffer()
	} else {
		var obj DataRefObject
		if obj, err = p.parseDataRefObject(); err == nil {
			decl.Value = obj
			valueType = ValueInteger
			if _, isString := obj.(*StringConst); isString {
				valueType = ValueString
			}
		}
	}
	if err != nil {
		return nil, err
	}

	if _, err = p.declare(decl.Name, &Value{Type: valueType, Object: decl}); err != nil {
		return nil, err
	}

	return decl, nil
}

// parseDefScope parses a scope block. The scope is created if it does not
// exist yet and the objects in its TermList are declared relative to it.
//
// Grammar:
// DefScope := ScopeOp PkgLength NameString TermList
func (p *Parser) parseDefScope() (*ScopeDecl, error) {
	_, _ = p.r.ReadByte()

	end, err := p.parsePkgEnd()
	if err != nil {
		return nil, err
	}

	decl := new(ScopeDecl)
	err = p.withinPkg(end, func() error {
		var err error
		if decl.Name, err = p.parseNameString(); err != nil {
			return err
		}

		path, err := p.absolutePath(decl.Name)
		if err != nil {
			return err
		}
		if path != RootName {
			if path, err = p.declare(decl.Name, &Namespace{}); err != nil {
				return err
			}
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

// parseMethodInvocation parses a reference to a named object. If the name
// resolves to a method, the number of TermArgs specified by its declaration
// are parsed as the invocation arguments. Otherwise, the reference carries
// no arguments.
//
// Grammar:
// MethodInvocation := NameString TermArgList
// TermArgList = Nothing | TermArg TermArgList
func (p *Parser) parseMethodInvocation() (*MethodInvocation, error) {
	start := p.r.Offset()
	next, err := p.r.PeekByte()
	if err != nil {
		return nil, err
	}
	if next == nullName || !isNameStringLead(next) {
		return nil, errAtf(ErrInvalidOpcode, start, "unexpected opcode 0x%02x", next)
	}

	name, err := p.parseNameString()
	if err != nil {
		return nil, err
	}

	inv := &MethodInvocation{Name: name}
	method := p.resolveMethod(name)
	if method == nil {
		return inv, nil
	}

	inv.Args = make([]TermArg, 0, method.ArgCount)
	for len(inv.Args) < int(method.ArgCount) {
		arg, err := p.parseTermArg()
		if err != nil {
			fmt.Fprintf(p.errWriter, "[table: %s, offset: %d] unexpected arglist end for method %s invocation: expected %d; got %d\n", p.tableName, p.r.Offset(), name, method.ArgCount, len(inv.Args))
			return nil, err
		}
		inv.Args = append(inv.Args, arg)
	}

	return inv, nil
}

// resolveMethod returns the declaration of the method that name refers to or
// nil if name does not resolve to a method. Aliases are followed.
func (p *Parser) resolveMethod(name *NameString) *MethodDecl {
	for hops := 0; hops < p.maxDepth; hops++ {
		node := p.resolve(name)
		if node == nil {
			return nil
		}

		val, ok := node.Contents.(*Value)
		if !ok {
			return nil
		}

		switch obj := val.Object.(type) {
		case *MethodDecl:
			return obj
		case *AliasDecl:
			name = obj.Source
			continue
		}
		return nil
	}

	return nil
}
