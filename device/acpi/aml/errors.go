package aml

import "fmt"

// ErrorKind classifies decoding failures.
type ErrorKind uint8

// The list of supported error kinds.
const (
	// ErrKindTruncated indicates that the input ended before the
	// construct being decoded was complete.
	ErrKindTruncated ErrorKind = iota + 1

	// ErrKindInvalidOpcode indicates that the byte at the decode position
	// does not start the expected construct.
	ErrKindInvalidOpcode

	// ErrKindInvalidNameSeg indicates a name segment containing a byte
	// outside of [A-Z0-9_].
	ErrKindInvalidNameSeg

	// ErrKindLengthMismatch indicates that the contents of a PkgLength
	// bounded construct do not fill its declared extent exactly.
	ErrKindLengthMismatch

	// ErrKindDepthExceeded indicates that the nesting depth limit was hit.
	ErrKindDepthExceeded

	// ErrKindInvalidRegionSpace indicates an operation region address
	// space tag within the reserved 0x0a-0x7f range.
	ErrKindInvalidRegionSpace

	// ErrKindNamespace indicates a failed namespace insertion.
	ErrKindNamespace
)

var kindNames = map[ErrorKind]string{
	ErrKindTruncated:          "truncated input",
	ErrKindInvalidOpcode:      "invalid opcode",
	ErrKindInvalidNameSeg:     "invalid name segment",
	ErrKindLengthMismatch:     "length mismatch",
	ErrKindDepthExceeded:      "nesting depth exceeded",
	ErrKindInvalidRegionSpace: "invalid region space",
	ErrKindNamespace:          "namespace error",
}

// String implements fmt.Stringer for ErrorKind.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// Error describes an AML decoding error. The package exports one sentinel
// Error per kind; errors returned by the decoder carry the same kind plus the
// stream offset where the failure was detected, and match their sentinel via
// errors.Is.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error classification.
	Kind ErrorKind

	// The byte offset, relative to the start of the decoded slice, where
	// the error was detected.
	Offset uint32

	// The error message.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (offset %d)", e.Module, e.Message, e.Offset)
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

const errModule = "acpi_aml_parser"

// The list of errors returned by the decoder. Returned errors carry the
// offset where decoding failed and match these values via errors.Is.
var (
	ErrTruncated          = &Error{Module: errModule, Kind: ErrKindTruncated, Message: "unexpected end of AML stream"}
	ErrInvalidOpcode      = &Error{Module: errModule, Kind: ErrKindInvalidOpcode, Message: "unexpected opcode"}
	ErrInvalidNameSeg     = &Error{Module: errModule, Kind: ErrKindInvalidNameSeg, Message: "invalid name segment"}
	ErrLengthMismatch     = &Error{Module: errModule, Kind: ErrKindLengthMismatch, Message: "contents do not match declared package length"}
	ErrDepthExceeded      = &Error{Module: errModule, Kind: ErrKindDepthExceeded, Message: "maximum nesting depth exceeded"}
	ErrInvalidRegionSpace = &Error{Module: errModule, Kind: ErrKindInvalidRegionSpace, Message: "reserved operation region space"}
	ErrNamespace          = &Error{Module: errModule, Kind: ErrKindNamespace, Message: "namespace insertion failed"}
)

// errAt returns a copy of the sentinel err tagged with the supplied offset.
func errAt(err *Error, offset uint32) *Error {
	e := *err
	e.Offset = offset
	return &e
}

// errAtf is like errAt but replaces the sentinel message.
func errAtf(err *Error, offset uint32, format string, args ...interface{}) *Error {
	e := errAt(err, offset)
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// isNoMatch returns true if err only signals that the production being tried
// does not apply at the current position.
func isNoMatch(err error) bool {
	e, ok := err.(*Error)
	return ok && (e.Kind == ErrKindInvalidOpcode || e.Kind == ErrKindInvalidNameSeg)
}
