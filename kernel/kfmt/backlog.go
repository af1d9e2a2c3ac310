package kfmt

import "io"

// backlogSize defines the number of bytes retained by a Backlog. It must
// always be a power of 2.
const backlogSize = 4096

// Backlog is a ring buffer that retains the most recent backlogSize bytes
// written to it. The decoder writes its diagnostics to a Backlog when the
// caller does not supply a writer so they can be inspected once decoding
// completes.
type Backlog struct {
	buffer         [backlogSize]byte
	rIndex, wIndex int
}

// Write writes len(p) bytes from p to the Backlog, overwriting the oldest
// data when the buffer is full.
func (b *Backlog) Write(p []byte) (int, error) {
	for _, c := range p {
		b.buffer[b.wIndex] = c
		b.wIndex = (b.wIndex + 1) & (backlogSize - 1)
		if b.rIndex == b.wIndex {
			b.rIndex = (b.rIndex + 1) & (backlogSize - 1)
		}
	}

	return len(p), nil
}

// Read reads up to len(p) bytes into p. It returns the number of bytes read
// (0 <= n <= len(p)) and io.EOF once the backlog has been drained.
func (b *Backlog) Read(p []byte) (n int, err error) {
	switch {
	case b.rIndex < b.wIndex:
		n = copy(p, b.buffer[b.rIndex:b.wIndex])
		b.rIndex += n
		return n, nil
	case b.rIndex > b.wIndex:
		n = copy(p, b.buffer[b.rIndex:])
		b.rIndex = (b.rIndex + n) & (backlogSize - 1)
		return n, nil
	default: // rIndex == wIndex
		return 0, io.EOF
	}
}

// String returns the buffered contents without draining them.
func (b *Backlog) String() string {
	if b.rIndex <= b.wIndex {
		return string(b.buffer[b.rIndex:b.wIndex])
	}
	return string(b.buffer[b.rIndex:]) + string(b.buffer[:b.wIndex])
}

// Reset discards the buffered contents.
func (b *Backlog) Reset() {
	b.rIndex, b.wIndex = 0, 0
}
