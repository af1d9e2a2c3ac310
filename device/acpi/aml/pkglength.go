package aml

// ParsePkgLength decodes the PkgLength at the start of data. It returns the
// package extent, which includes the bytes of the PkgLength encoding itself,
// and the number of bytes occupied by the encoding.
func ParsePkgLength(data []byte) (uint32, int, error) {
	p := newSliceParser(data)
	pkgLen, err := p.parsePkgLength()
	return pkgLen, p.consumed(err), err
}

// parsePkgLength parses a PkgLength value from the AML bytestream.
//
// Grammar:
// PkgLength := PkgLeadByte | <PkgLeadByte ByteData> |
//
//	<PkgLeadByte ByteData ByteData> | <PkgLeadByte ByteData ByteData ByteData>
func (p *Parser) parsePkgLength() (uint32, error) {
	start := p.r.Offset()
	lead, err := p.r.ReadByte()
	if err != nil {
		return 0, err
	}

	// The high 2 bits of the lead byte indicate how many bytes follow. A
	// single byte encoding uses bits 0-5 for the length; otherwise bits 0-3
	// of the lead byte are the least significant nybble of the length.
	followCount := uint32(lead >> 6)
	if followCount == 0 {
		return uint32(lead & 0x3f), nil
	}

	follow, err := p.r.ReadBytes(followCount)
	if err != nil {
		p.r.SetOffset(start)
		return 0, err
	}

	pkgLen := uint32(lead & 0xf)
	for i, b := range follow {
		pkgLen |= uint32(b) << (4 + 8*uint32(i))
	}

	return pkgLen, nil
}

// newSliceParser returns a parser without a namespace for use by the
// context-free byte slice entry points.
func newSliceParser(data []byte) *Parser {
	p := &Parser{maxDepth: MaxDepth}
	p.errWriter = &p.backlog
	p.reset(data)
	return p
}
