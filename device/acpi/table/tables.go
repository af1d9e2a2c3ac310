// Package table provides the framing helpers for the ACPI definition blocks
// that carry AML byte-code.
package table

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"unsafe"
)

// HeaderSize is the size in bytes of the common header that precedes the
// contents of every ACPI table.
const HeaderSize = uint32(unsafe.Sizeof(SDTHeader{}))

var errShortTable = errors.New("table is shorter than its SDT header")

// SDTHeader defines the common header for all ACPI-related tables.
type SDTHeader struct {
	// The signature defines the table type.
	Signature [4]byte

	// The length of the table
	Length uint32

	// If this header belongs to a DSDT/SSDT table, the revision is also
	// used to indicate whether the AML VM should treat integers as 32-bits
	// (revision < 2) or 64-bits (revision >= 2).
	Revision uint8

	// A value that when added to the sum of all other bytes in the table
	// should result in the value 0.
	Checksum uint8

	// OEM specific information
	OEMID       [6]byte
	OEMTableID  [8]byte
	OEMRevision uint32

	// Information about the ASL compiler that generated this table
	CreatorID       uint32
	CreatorRevision uint32
}

// Name returns the table signature as a string.
func (h *SDTHeader) Name() string {
	return string(h.Signature[:])
}

// IsDefinitionBlock returns true if the table contains AML byte-code.
func (h *SDTHeader) IsDefinitionBlock() bool {
	switch h.Name() {
	case "DSDT", "SSDT":
		return true
	}
	return false
}

// HeaderFromBytes decodes the SDT header at the start of data and returns it
// together with the table contents that follow it. The contents are trimmed
// to the length recorded in the header.
func HeaderFromBytes(data []byte) (*SDTHeader, []byte, error) {
	if uint32(len(data)) < HeaderSize {
		return nil, nil, errShortTable
	}

	header := new(SDTHeader)
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, header); err != nil {
		return nil, nil, err
	}

	switch {
	case header.Length < HeaderSize:
		return nil, nil, fmt.Errorf("table %q: length %d is shorter than its header", header.Name(), header.Length)
	case header.Length > uint32(len(data)):
		return nil, nil, fmt.Errorf("table %q: length %d exceeds the %d available bytes", header.Name(), header.Length, len(data))
	}

	return header, data[HeaderSize:header.Length], nil
}
