package aml

// ParseNameString decodes the NameString at the start of data and returns it
// together with the number of bytes it occupies.
func ParseNameString(data []byte) (*NameString, int, error) {
	p := newSliceParser(data)
	name, err := p.parseNameString()
	return name, p.consumed(err), err
}

// ParseSimpleName decodes a SimpleName at the start of data.
func ParseSimpleName(data []byte) (SuperName, int, error) {
	p := newSliceParser(data)
	name, err := p.parseSimpleName()
	return name, p.consumed(err), err
}

// ParseSuperName decodes a SuperName at the start of data.
func ParseSuperName(data []byte) (SuperName, int, error) {
	p := newSliceParser(data)
	name, err := p.parseSuperName()
	return name, p.consumed(err), err
}

// ParseTarget decodes a Target at the start of data.
func ParseTarget(data []byte) (Target, int, error) {
	p := newSliceParser(data)
	target, err := p.parseTarget()
	return target, p.consumed(err), err
}

// parseNameString parses a NameString from the AML bytestream.
//
// Grammar:
// NameString := RootChar NamePath | PrefixPath NamePath
// PrefixPath := Nothing | '^' PrefixPath
// NamePath := NameSeg | DualNamePath | MultiNamePath | NullName
// DualNamePath := DualNamePrefix NameSeg NameSeg
// MultiNamePath := MultiNamePrefix SegCount NameSeg(SegCount)
func (p *Parser) parseNameString() (*NameString, error) {
	start := p.r.Offset()
	name, err := p.parseNamePrefixes()
	if err == nil {
		err = p.parseNamePath(name)
	}

	if err != nil {
		p.r.SetOffset(start)
		return nil, err
	}

	return name, nil
}

// parseNamePrefixes consumes an optional RootChar or a run of parent
// prefixes.
func (p *Parser) parseNamePrefixes() (*NameString, error) {
	name := new(NameString)

	next, err := p.r.PeekByte()
	if err != nil {
		return nil, err
	}

	switch next {
	case rootChar:
		name.Root = true
		_, _ = p.r.ReadByte()
	case parentPrefix:
		for next == parentPrefix {
			name.ParentPrefixes++
			_, _ = p.r.ReadByte()
			if next, err = p.r.PeekByte(); err != nil {
				return nil, err
			}
		}
	}

	return name, nil
}

// parseNamePath parses the NamePath that follows the prefixes of a
// NameString and stores the decoded segments in name.
func (p *Parser) parseNamePath(name *NameString) error {
	start := p.r.Offset()
	next, err := p.r.PeekByte()
	if err != nil {
		return err
	}

	var segCount int
	switch next {
	case nullName:
		_, _ = p.r.ReadByte()
		return nil
	case dualNamePrefix:
		_, _ = p.r.ReadByte()
		segCount = 2
	case multiNamePrefix:
		_, _ = p.r.ReadByte()
		count, err := p.r.ReadByte()
		if err != nil {
			return err
		}
		if count == 0 {
			return errAtf(ErrInvalidNameSeg, start, "multi-name path with zero segments")
		}
		segCount = int(count)
	default:
		segCount = 1
	}

	name.Segments = make([]string, 0, segCount)
	for i := 0; i < segCount; i++ {
		seg, err := p.parseNameSeg()
		if err != nil {
			return err
		}
		name.Segments = append(name.Segments, seg)
	}

	return nil
}

// parseNameSeg parses a 4-byte NameSeg. Every byte must be drawn from
// [A-Z0-9_].
func (p *Parser) parseNameSeg() (string, error) {
	start := p.r.Offset()
	seg, err := p.r.PeekBytes(amlNameLen)
	if err != nil {
		// Report a bad lead byte as an invalid segment rather than as a
		// truncated stream.
		if b, peekErr := p.r.PeekByte(); peekErr == nil && !isNameChar(b) {
			return "", errAtf(ErrInvalidNameSeg, start, "invalid name segment byte 0x%02x", b)
		}
		return "", err
	}

	for i, b := range seg {
		if !isNameChar(b) {
			return "", errAtf(ErrInvalidNameSeg, start+uint32(i), "invalid name segment byte 0x%02x", b)
		}
	}

	p.r.SetOffset(start + amlNameLen)
	return string(seg), nil
}

// parseSimpleName attempts to parse a SimpleName from the AML bytestream.
//
// Grammar:
// SimpleName := NameString | ArgObj | LocalObj
func (p *Parser) parseSimpleName() (SuperName, error) {
	name, err := p.parseNameString()
	if err == nil {
		return name, nil
	} else if !isNoMatch(err) {
		return nil, err
	}

	if arg, err := p.parseArgObj(); err == nil {
		return arg, nil
	}

	local, err := p.parseLocalObj()
	if err != nil {
		return nil, err
	}
	return local, nil
}

// parseSuperName attempts to parse a SuperName from the AML bytestream.
//
// Grammar:
// SuperName := SimpleName | DebugObj | Type6Opcode
// DebugObj := ExtOpPrefix 0x31
func (p *Parser) parseSuperName() (SuperName, error) {
	name, err := p.parseSimpleName()
	if err == nil || !isNoMatch(err) {
		return name, err
	}

	return p.parseDebugObj()
}

// parseTarget attempts to parse a Target from the AML bytestream. A NullName
// target decodes as a NameString with no segments.
//
// Grammar:
// Target := SuperName | NullName
func (p *Parser) parseTarget() (Target, error) {
	return p.parseSuperName()
}

func (p *Parser) parseDebugObj() (SuperName, error) {
	start := p.r.Offset()
	op, width, err := p.peekOpcode()
	if err != nil {
		return nil, err
	}

	if op != OpDebug {
		return nil, errAtf(ErrInvalidOpcode, start, "expected SuperName; got opcode %s", op)
	}

	p.r.SetOffset(start + width)
	return &DebugObj{}, nil
}
