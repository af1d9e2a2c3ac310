package aml

// amlStreamReader reads bytes off an AML byte slice. Reads are bounded by a
// limit which PkgLength-bounded constructs lower while their contents are
// being decoded so that nested terms can never read past the extent declared
// by their enclosing package.
type amlStreamReader struct {
	offset uint32
	limit  uint32
	data   []byte
}

// Init sets up the reader so it can read the supplied data slice starting at
// offset 0.
func (r *amlStreamReader) Init(data []byte) {
	r.data = data
	r.offset = 0
	r.limit = uint32(len(data))
}

// EOF returns true if the current read limit has been reached.
func (r *amlStreamReader) EOF() bool {
	return r.offset >= r.limit
}

// ReadByte returns the next byte from the stream.
func (r *amlStreamReader) ReadByte() (byte, error) {
	if r.EOF() {
		return 0, errAt(ErrTruncated, r.offset)
	}

	r.offset++
	return r.data[r.offset-1], nil
}

// PeekByte returns the next byte from the stream without advancing the read
// pointer.
func (r *amlStreamReader) PeekByte() (byte, error) {
	if r.EOF() {
		return 0, errAt(ErrTruncated, r.offset)
	}

	return r.data[r.offset], nil
}

// PeekBytes returns the next n bytes without advancing the read pointer.
func (r *amlStreamReader) PeekBytes(n uint32) ([]byte, error) {
	if r.offset > r.limit || r.limit-r.offset < n {
		return nil, errAt(ErrTruncated, r.offset)
	}

	return r.data[r.offset : r.offset+n], nil
}

// ReadBytes returns the next n bytes and advances the read pointer past them.
func (r *amlStreamReader) ReadBytes(n uint32) ([]byte, error) {
	b, err := r.PeekBytes(n)
	if err != nil {
		return nil, err
	}

	r.offset += n
	return b, nil
}

// LastByte returns the last byte read off the stream.
func (r *amlStreamReader) LastByte() (byte, error) {
	if r.offset == 0 {
		return 0, errAt(ErrTruncated, 0)
	}

	return r.data[r.offset-1], nil
}

// Offset returns the current offset.
func (r *amlStreamReader) Offset() uint32 {
	return r.offset
}

// SetOffset sets the reader offset to the supplied value.
func (r *amlStreamReader) SetOffset(off uint32) {
	r.offset = off
}

// Limit returns the current read limit.
func (r *amlStreamReader) Limit() uint32 {
	return r.limit
}

// SetLimit updates the read limit and returns the previous one.
func (r *amlStreamReader) SetLimit(limit uint32) uint32 {
	prev := r.limit
	r.limit = limit
	return prev
}
