package aml

import (
	"fmt"
	"io"
	"strings"

	"amldecode/kernel/kfmt"
)

// MaxDepth is the default limit for the number of nested terms the parser
// will descend into.
const MaxDepth = 64

type parseOpt uint8

const (
	parseOptParseMethodBodies parseOpt = iota
	parseOptSkipMethodBodies
)

// Option configures a Parser.
type Option func(*Parser)

// WithMaxDepth overrides the nesting depth limit.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}

// WithTableName sets the table name used to tag diagnostics emitted by the
// byte-slice entry points. ParseAML overrides it with its own argument.
func WithTableName(name string) Option {
	return func(p *Parser) {
		p.tableName = name
	}
}

// Parser implements an AML parser. A Parser is not safe for concurrent use.
type Parser struct {
	r         amlStreamReader
	errWriter io.Writer
	backlog   kfmt.Backlog
	root      *Node

	// scopeStack holds the absolute paths of the scopes entered while
	// decoding; names are declared and resolved relative to its top.
	scopeStack []string
	tableName  string

	depth    int
	maxDepth int

	parseOptions parseOpt

	// methodDepth is non-zero while decoding a method body. Objects
	// declared inside method bodies are created at run time and are not
	// inserted into the namespace.
	methodDepth int

	// methods with deferred bodies collected during the first pass.
	methods []*MethodDecl

	// journal records the namespaces modified by ParseAML so a failed
	// table leaves the namespace untouched.
	journal []scopeState
}

// scopeState is the state of a namespace prior to an insertion.
type scopeState struct {
	ns       *Namespace
	children int
	object   Term
}

// NewParser returns a new AML parser instance that inserts decoded objects
// below root. If root is nil, a root namespace with the default ACPI scopes
// is created. The parser emits diagnostics, including a line for each
// discovered operation region, to errWriter. If errWriter is nil the
// diagnostics are retained in a backlog that can be accessed via Backlog.
func NewParser(errWriter io.Writer, root *Node, opts ...Option) *Parser {
	if root == nil {
		root = NewRootNamespace()
	}

	p := &Parser{
		errWriter: errWriter,
		root:      root,
		maxDepth:  MaxDepth,
		tableName: "AML",
	}
	if p.errWriter == nil {
		p.errWriter = &p.backlog
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Root returns the namespace root populated by the parser.
func (p *Parser) Root() *Node {
	return p.root
}

// Backlog returns the buffer that receives diagnostics when the parser was
// created without a writer.
func (p *Parser) Backlog() *kfmt.Backlog {
	return &p.backlog
}

// Parse decodes a definition block using a new parser and returns back the
// root namespace containing all objects declared in the stream together with
// the decoded top-level terms.
func Parse(aml []byte, errWriter io.Writer) (*Node, []TermObj, error) {
	p := NewParser(errWriter, nil)
	terms, err := p.ParseAML("AML", aml)
	if err != nil {
		return nil, nil, err
	}

	return p.root, terms, nil
}

// ParseAML decodes the AML byte-code contained in the body of a definition
// block (the table contents following its SDT header) and inserts every
// declared object into the namespace. Several tables may be decoded in turn
// by the same parser; objects declared by earlier tables are visible to later
// ones.
//
// Decoding happens in two passes. The first pass builds the namespace
// without descending into method bodies. The second pass decodes the method
// bodies; by then all methods have been declared (even if forward
// declarations are used) so each method invocation can consume the number
// of arguments expected by its target.
//
// If decoding fails, every insertion made while decoding the table is
// reverted and the namespace is left as it was before the call.
func (p *Parser) ParseAML(tableName string, aml []byte) ([]TermObj, error) {
	p.tableName = tableName
	p.r.Init(aml)
	p.depth = 0
	p.methodDepth = 0
	p.methods = nil
	p.journal = []scopeState{}
	defer func() { p.journal = nil }()

	// Pass 1: decode bytecode and build the namespace without recursing
	// into method bodies.
	p.parseOptions = parseOptSkipMethodBodies
	p.scopeStack = []string{RootName}
	terms, err := p.parseTermList()
	if err != nil {
		p.reportErr(err)
		p.rollback()
		return nil, err
	}

	// Pass 2: decode method bodies.
	p.parseOptions = parseOptParseMethodBodies
	for _, method := range p.methods {
		if err := p.parseMethodBody(method); err != nil {
			p.reportErr(err)
			p.rollback()
			return nil, err
		}
	}

	return terms, nil
}

// parseMethodBody decodes the deferred body of a method declared during the
// first pass.
func (p *Parser) parseMethodBody(method *MethodDecl) error {
	p.r.SetOffset(method.bodyStart)
	p.scopeStack = []string{method.scope}
	p.methodDepth++
	defer func() { p.methodDepth-- }()

	return p.withinPkg(method.bodyEnd, func() error {
		var err error
		method.Body, err = p.parseTermList()
		return err
	})
}

// rollback reverts the namespace insertions recorded in the journal, newest
// first.
func (p *Parser) rollback() {
	for i := len(p.journal) - 1; i >= 0; i-- {
		s := p.journal[i]
		s.ns.Children = s.ns.Children[:s.children]
		s.ns.Object = s.object
	}
	p.journal = p.journal[:0]
}

// reset prepares the parser for decoding a standalone construct at the
// start of data.
func (p *Parser) reset(data []byte) {
	p.r.Init(data)
	p.depth = 0
	p.parseOptions = parseOptParseMethodBodies
	p.methodDepth = 0
	p.scopeStack = []string{RootName}
}

// consumed returns the number of bytes consumed by the last successful
// decode or 0 if err is not nil.
func (p *Parser) consumed(err error) int {
	if err != nil {
		return 0
	}
	return int(p.r.Offset())
}

// reportErr emits a diagnostic for a decoding error.
func (p *Parser) reportErr(err error) {
	offset := p.r.Offset()
	if e, ok := err.(*Error); ok {
		offset = e.Offset
	}
	lastOp, _ := p.r.LastByte()
	fmt.Fprintf(p.errWriter, "[table: %s, offset: %d] error parsing AML bytecode (last op 0x%x): %v\n", p.tableName, offset, lastOp, err)
}

// enter increments the nesting depth and fails once it exceeds the
// configured limit. Each successful call must be paired with exit.
func (p *Parser) enter() error {
	if p.depth >= p.maxDepth {
		return errAtf(ErrDepthExceeded, p.r.Offset(), "maximum nesting depth of %d exceeded", p.maxDepth)
	}
	p.depth++
	return nil
}

func (p *Parser) exit() {
	p.depth--
}

// withinPkg runs fn with the read limit lowered to end, the offset where a
// PkgLength-bounded construct finishes. fn must consume the bounded extent
// exactly.
func (p *Parser) withinPkg(end uint32, fn func() error) error {
	limit := p.r.Limit()
	switch {
	case end < p.r.Offset():
		return errAtf(ErrLengthMismatch, p.r.Offset(), "package ends at offset %d before its own header", end)
	case end > limit && limit < uint32(len(p.r.data)):
		return errAtf(ErrLengthMismatch, p.r.Offset(), "package extends to offset %d past the end of its enclosing package at %d", end, limit)
	case end > limit:
		return errAtf(ErrTruncated, p.r.Offset(), "package extends to offset %d past the end of the stream at %d", end, limit)
	}

	p.r.SetLimit(end)
	err := fn()
	p.r.SetLimit(limit)

	if err != nil {
		if e, ok := err.(*Error); ok && e.Kind == ErrKindTruncated && end < limit {
			return errAtf(ErrLengthMismatch, e.Offset, "term crosses the package boundary at offset %d", end)
		}
		return err
	}

	if p.r.Offset() != end {
		return errAtf(ErrLengthMismatch, p.r.Offset(), "package contents end at offset %d; expected %d", p.r.Offset(), end)
	}

	return nil
}

// parsePkgEnd decodes a PkgLength at the current offset and returns the
// offset where the package it describes ends.
func (p *Parser) parsePkgEnd() (uint32, error) {
	base := p.r.Offset()
	pkgLen, err := p.parsePkgLength()
	if err != nil {
		return 0, err
	}

	return base + pkgLen, nil
}

// scopeCurrent returns the absolute path of the currently active scope.
func (p *Parser) scopeCurrent() string {
	return p.scopeStack[len(p.scopeStack)-1]
}

// scopeEnter enters the scope with the given absolute path.
func (p *Parser) scopeEnter(path string) {
	p.scopeStack = append(p.scopeStack, path)
}

// scopeExit exits the current scope.
func (p *Parser) scopeExit() {
	p.scopeStack = p.scopeStack[:len(p.scopeStack)-1]
}

// joinPath appends a dot-separated relative path to an absolute scope path.
func joinPath(scope, rel string) string {
	switch {
	case rel == "":
		return scope
	case scope == RootName:
		return RootName + rel
	}
	return scope + "." + rel
}

// parentPath returns the absolute path of the parent of the scope at path
// and false if path is the root.
func parentPath(path string) (string, bool) {
	if path == RootName {
		return "", false
	}

	if lastDot := strings.LastIndexByte(path, '.'); lastDot != -1 {
		return path[:lastDot], true
	}
	return RootName, true
}

// absolutePath converts name into an absolute namespace path using the
// current scope for relative names.
func (p *Parser) absolutePath(name *NameString) (string, error) {
	rel := strings.Join(name.Segments, ".")
	if name.Root {
		return joinPath(RootName, rel), nil
	}

	scope := p.scopeCurrent()
	for i := 0; i < name.ParentPrefixes; i++ {
		var ok bool
		if scope, ok = parentPath(scope); !ok {
			return "", errAtf(ErrNamespace, p.r.Offset(), "%s refers past the root scope (current scope: %s)", name, p.scopeCurrent())
		}
	}

	return joinPath(scope, rel), nil
}

// resolve looks up name using the rules specified in page 252 of the ACPI 6.2
// spec: absolute paths, paths with parent prefixes and multi-segment paths are
// looked up relative to the root or the current scope; a single segment
// relative name is searched for in the current scope and then in each of its
// parent scopes.
func (p *Parser) resolve(name *NameString) *Node {
	if p.root == nil || name.IsNull() {
		return nil
	}

	if !name.Root && name.ParentPrefixes == 0 && len(name.Segments) == 1 {
		for scope, ok := p.scopeCurrent(), true; ok; scope, ok = parentPath(scope) {
			if node := p.root.Find(joinPath(scope, name.Segments[0])); node != nil {
				return node
			}
		}
		return nil
	}

	path, err := p.absolutePath(name)
	if err != nil {
		return nil
	}
	return p.root.Find(path)
}

// declare inserts contents into the namespace under name and returns the
// absolute path of the new node. Objects declared inside method bodies are
// not inserted.
func (p *Parser) declare(name *NameString, contents Contents) (string, error) {
	path, err := p.absolutePath(name)
	if err != nil {
		return "", err
	}

	if p.methodDepth != 0 || p.root == nil {
		return path, nil
	}

	if p.journal != nil {
		for _, ns := range p.root.scopesAlong(path) {
			p.journal = append(p.journal, scopeState{ns: ns, children: len(ns.Children), object: ns.Object})
		}
	}

	if err := p.root.PushTo(path, contents); err != nil {
		if e, ok := err.(*Error); ok {
			return "", errAtf(ErrNamespace, p.r.Offset(), "%s", e.Message)
		}
		return "", err
	}

	return path, nil
}
