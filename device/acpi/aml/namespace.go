package aml

import "strings"

// The size of AML name identifiers in bytes.
const amlNameLen = 4

// RootName is the name of the root namespace node.
const RootName = `\`

// RegionSpace is the address space tag of an operation region. The decoder
// does not interpret it.
type RegionSpace uint8

// Well-known region spaces. Values 0x80-0xff are vendor defined.
const (
	RegionSpaceSystemMemory RegionSpace = iota
	RegionSpaceSystemIO
	RegionSpacePCIConfig
	RegionSpaceEmbeddedControl
	RegionSpaceSMBus
	RegionSpaceCMOS
	RegionSpacePCIBarTarget
	RegionSpaceIPMI
	RegionSpaceGeneralPurposeIO
	RegionSpaceGenericSerialBus
)

var regionSpaceNames = [...]string{
	"SystemMemory",
	"SystemIO",
	"PCI_Config",
	"EmbeddedControl",
	"SMBus",
	"SystemCMOS",
	"PciBarTarget",
	"IPMI",
	"GeneralPurposeIO",
	"GenericSerialBus",
}

// Valid returns true if the space is one of the well-known spaces or falls
// in the vendor-defined range.
func (rs RegionSpace) Valid() bool {
	return rs <= RegionSpaceGenericSerialBus || rs >= 0x80
}

// String implements fmt.Stringer for RegionSpace.
func (rs RegionSpace) String() string {
	switch {
	case rs <= RegionSpaceGenericSerialBus:
		return regionSpaceNames[rs]
	case rs >= 0x80:
		return "OEM(0x" + hexByte(uint8(rs)) + ")"
	}
	return "Reserved(0x" + hexByte(uint8(rs)) + ")"
}

func hexByte(b uint8) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4], digits[b&0xf]})
}

// ValueType describes the kind of object stored in a Value node.
type ValueType uint8

// The list of supported value types.
const (
	ValueUninitialized ValueType = iota
	ValueInteger
	ValueString
	ValueBuffer
	ValueMethod
	ValueAlias
	ValueObjectReference
)

var valueTypeNames = [...]string{
	ValueUninitialized:   "Uninitialized",
	ValueInteger:         "Integer",
	ValueString:          "String",
	ValueBuffer:          "Buffer",
	ValueMethod:          "Method",
	ValueAlias:           "Alias",
	ValueObjectReference: "ObjectReference",
}

// String implements fmt.Stringer for ValueType.
func (vt ValueType) String() string {
	if int(vt) < len(valueTypeNames) {
		return valueTypeNames[vt]
	}
	return "ValueType(0x" + hexByte(uint8(vt)) + ")"
}

// Contents is implemented by the payloads a namespace Node can hold: *Value,
// *SubNamespace, *Namespace and *OpRegion.
type Contents interface {
	contents()
}

// Value is a leaf object such as a named integer or a method.
type Value struct {
	Type ValueType

	// The declaration or data term this value was decoded from.
	Object Term
}

// SubNamespace is a named child node.
type SubNamespace struct {
	Node *Node
}

// Namespace is an ordered list of child contents. Object is set when the
// scope was opened by a scoped declaration such as a Device.
type Namespace struct {
	Children []Contents
	Object   Term
}

// OpRegion describes an operation region.
type OpRegion struct {
	Space  RegionSpace
	Offset TermArg
	Length TermArg
}

func (*Value) contents()        {}
func (*SubNamespace) contents() {}
func (*Namespace) contents()    {}
func (*OpRegion) contents()     {}

// Node is an entry in the ACPI object hierarchy. A node exclusively owns
// its contents; children of a Namespace node are reachable only through
// their parent.
type Node struct {
	Name     string
	Contents Contents
}

// NewNamespace returns a node named name holding an empty Namespace.
func NewNamespace(name string) *Node {
	return &Node{Name: name, Contents: &Namespace{}}
}

// NewRootNamespace returns a root node populated with the default scopes
// specified by the ACPI standard:
//
//	+-[\] (Root scope)
//	   +- [_GPE] (General events in GPE register block)
//	   +- [_PR_] (ACPI 1.0 processor namespace)
//	   +- [_SB_] (System bus with all device objects)
//	   +- [_SI_] (System indicators)
//	   +- [_TZ_] (ACPI 1.0 thermal zone namespace)
func NewRootNamespace() *Node {
	root := NewNamespace(RootName)
	for _, name := range []string{"_GPE", "_PR_", "_SB_", "_SI_", "_TZ_"} {
		_ = root.Push(&SubNamespace{Node: NewNamespace(name)})
	}
	return root
}

// Children returns the child nodes of a Namespace node in insertion order.
// Unnamed contents appended via Push are skipped.
func (n *Node) Children() []*Node {
	ns, ok := n.Contents.(*Namespace)
	if !ok {
		return nil
	}

	var children []*Node
	for _, c := range ns.Children {
		if sub, ok := c.(*SubNamespace); ok {
			children = append(children, sub.Node)
		}
	}
	return children
}

// Push appends contents to the child list of a Namespace node.
func (n *Node) Push(contents Contents) error {
	ns, ok := n.Contents.(*Namespace)
	if !ok {
		return errAtf(ErrNamespace, 0, "cannot append to non-namespace node %q", n.Name)
	}

	ns.Children = append(ns.Children, contents)
	return nil
}

// PushTo inserts contents at the node reached by walking the dot-separated
// scopePath relative to n. A leading root marker is only accepted when n is
// the root node. Missing intermediate scopes are created as empty
// namespaces. Declaring an existing scope again as a Namespace reuses it;
// any other redefinition is an error.
//
// Each path segment is matched by a linear scan of the current node's
// children so an insertion costs O(depth * siblings).
func (n *Node) PushTo(scopePath string, contents Contents) error {
	if len(scopePath) == 0 {
		return errAtf(ErrNamespace, 0, "empty scope path")
	}

	path := scopePath
	if path[0] == rootChar {
		if n.Name != RootName {
			return errAtf(ErrNamespace, 0, "absolute path %q used relative to non-root node %q", scopePath, n.Name)
		}
		path = path[1:]
	}
	path = strings.TrimPrefix(path, ".")
	if len(path) == 0 {
		return errAtf(ErrNamespace, 0, "scope path %q contains no name segment", scopePath)
	}

	segment, rest, hasMore := strings.Cut(path, ".")
	if len(segment) == 0 || len(segment) > amlNameLen {
		return errAtf(ErrNamespace, 0, "invalid name segment %q in scope path %q", segment, scopePath)
	}

	ns, ok := n.Contents.(*Namespace)
	if !ok {
		return errAtf(ErrNamespace, 0, "cannot insert %q below non-namespace node %q", scopePath, n.Name)
	}

	child := ns.child(segment)
	if hasMore {
		if child == nil {
			child = NewNamespace(segment)
			ns.Children = append(ns.Children, &SubNamespace{Node: child})
		}
		return child.PushTo(rest, contents)
	}

	if child == nil {
		ns.Children = append(ns.Children, &SubNamespace{Node: &Node{Name: segment, Contents: contents}})
		return nil
	}

	existing, isNs := child.Contents.(*Namespace)
	newNs, pushNs := contents.(*Namespace)
	if !isNs || !pushNs || (existing.Object != nil && newNs.Object != nil) {
		return errAtf(ErrNamespace, 0, "%q is already defined", scopePath)
	}

	if existing.Object == nil {
		existing.Object = newNs.Object
	}
	existing.Children = append(existing.Children, newNs.Children...)
	return nil
}

// PushSubordinateNamespace declares an empty namespace at scopePath.
func (n *Node) PushSubordinateNamespace(scopePath string) error {
	return n.PushTo(scopePath, &Namespace{})
}

// scopesAlong returns the namespaces of the existing nodes visited while
// walking scopePath from n, n included. These are the only namespaces that
// PushTo may modify when inserting at scopePath.
func (n *Node) scopesAlong(scopePath string) []*Namespace {
	var scopes []*Namespace
	path := scopePath
	if n.Name == RootName {
		path = strings.TrimPrefix(path, RootName)
	}

	for node := n; node != nil; {
		ns, ok := node.Contents.(*Namespace)
		if !ok {
			break
		}
		scopes = append(scopes, ns)

		if path = strings.TrimPrefix(path, "."); len(path) == 0 {
			break
		}

		var segment string
		segment, path, _ = strings.Cut(path, ".")
		node = ns.child(segment)
	}
	return scopes
}

// child returns the named child node or nil.
func (ns *Namespace) child(name string) *Node {
	for _, c := range ns.Children {
		if sub, ok := c.(*SubNamespace); ok && sub.Node.Name == name {
			return sub.Node
		}
	}
	return nil
}

// Find returns the node reached by walking the dot-separated path relative
// to n or nil if no such node exists. A leading root marker is accepted on
// the root node only; the path `\` returns the root itself.
func (n *Node) Find(path string) *Node {
	if len(path) != 0 && path[0] == rootChar {
		if n.Name != RootName {
			return nil
		}
		path = path[1:]
	}
	path = strings.TrimPrefix(path, ".")

	cur := n
	for len(path) != 0 {
		var segment string
		segment, path, _ = strings.Cut(path, ".")

		ns, ok := cur.Contents.(*Namespace)
		if !ok {
			return nil
		}
		if cur = ns.child(segment); cur == nil {
			return nil
		}
	}

	return cur
}

// Visitor is a function invoked for each node visited by Visit. path is the
// absolute path of the node. The return value controls whether the children
// of this node should also be visited.
type Visitor func(depth int, path string, node *Node) (keepRecursing bool)

// Visit descends the namespace hierarchy rooted at n and invokes visitorFn
// for each node in insertion order.
func (n *Node) Visit(visitorFn Visitor) {
	n.visit(0, n.Name, visitorFn)
}

func (n *Node) visit(depth int, path string, visitorFn Visitor) {
	if !visitorFn(depth, path, n) {
		return
	}

	for _, child := range n.Children() {
		childPath := path + "." + child.Name
		if path == RootName {
			childPath = path + child.Name
		}
		child.visit(depth+1, childPath, visitorFn)
	}
}
