package aml

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

// pkgLength returns the PkgLength encoding for a package whose contents,
// excluding the encoding itself, are bodyLen bytes long.
func pkgLength(bodyLen int) []byte {
	if bodyLen+1 <= 0x3f {
		return []byte{byte(bodyLen + 1)}
	}

	for n := 2; n <= 4; n++ {
		total := bodyLen + n
		if total >= 1<<uint(4+8*(n-1)) {
			continue
		}

		enc := []byte{byte(n-1)<<6 | byte(total&0xf)}
		for i := 1; i < n; i++ {
			enc = append(enc, byte(total>>uint(4+8*(i-1))))
		}
		return enc
	}

	panic("package too large")
}

// pkg assembles a PkgLength-bounded construct.
func pkg(op []byte, parts ...[]byte) []byte {
	body := cat(parts...)
	return cat(op, pkgLength(len(body)), body)
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, part := range parts {
		out = append(out, part...)
	}
	return out
}

func b(data ...byte) []byte { return data }

func nameSeg(name string) []byte { return []byte(name) }

func method(name string, flags byte, body ...[]byte) []byte {
	return pkg(b(0x14), nameSeg(name), b(flags), cat(body...))
}

func device(name string, body ...[]byte) []byte {
	return pkg(b(0x5b, 0x82), nameSeg(name), cat(body...))
}

func scope(name []byte, body ...[]byte) []byte {
	return pkg(b(0x10), name, cat(body...))
}

func TestPkgLengthHelper(t *testing.T) {
	for _, bodyLen := range []int{0, 62, 63, 4000, 70000} {
		enc := pkgLength(bodyLen)
		got, consumed, err := ParsePkgLength(enc)
		if err != nil {
			t.Fatal(err)
		}

		if consumed != len(enc) || int(got) != bodyLen+len(enc) {
			t.Fatalf("[%d] helper produced an invalid encoding %x", bodyLen, enc)
		}
	}
}

func TestParseAML(t *testing.T) {
	stream := cat(
		scope(b('\\', '_', 'S', 'B', '_'),
			device("PCI0",
				cat(b(0x08), nameSeg("_ADR"), b(0x0c, 0x00, 0x00, 0x1f, 0x00)),
				cat(b(0x08), nameSeg("_HID"), b(0x0d), []byte("PNP0A03"), b(0x00)),
				cat(b(0x08), nameSeg("_PRW"), pkg(b(0x11), b(0x0a, 0x02), b(0x0d, 0x03))),
				method("_STA", 0x00, b(0xa4, 0x0a, 0x0f)),
			),
		),
		cat(b(0x06), b(0x2e), nameSeg("_SB_"), nameSeg("PCI0"), nameSeg("PCI_")),
		cat(b(0x5b, 0x80), nameSeg("GNVS"), b(0x00, 0x0c, 0x00, 0x00, 0xff, 0x7f, 0x0b, 0x00, 0x01)),
	)

	var diag bytes.Buffer
	p := NewParser(&diag, nil)
	terms, err := p.ParseAML("DSDT", stream)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, diag.String())
	}

	if exp := 3; len(terms) != exp {
		t.Fatalf("expected %d top-level terms; got %d", exp, len(terms))
	}

	specs := []struct {
		path    string
		expType interface{}
	}{
		{`\_SB_.PCI0`, &Namespace{}},
		{`\_SB_.PCI0._ADR`, &Value{}},
		{`\_SB_.PCI0._HID`, &Value{}},
		{`\_SB_.PCI0._PRW`, &Value{}},
		{`\_SB_.PCI0._STA`, &Value{}},
		{`\PCI_`, &Value{}},
		{`\GNVS`, &OpRegion{}},
	}

	for _, spec := range specs {
		node := p.Root().Find(spec.path)
		if node == nil {
			t.Errorf("expected to find %s in namespace:\n%s", spec.path, spew.Sdump(p.Root()))
			continue
		}

		if reflect.TypeOf(node.Contents) != reflect.TypeOf(spec.expType) {
			t.Errorf("expected %s to hold a %T; got %T", spec.path, spec.expType, node.Contents)
		}
	}

	valueTypes := map[string]ValueType{
		`\_SB_.PCI0._ADR`: ValueInteger,
		`\_SB_.PCI0._HID`: ValueString,
		`\_SB_.PCI0._PRW`: ValueBuffer,
		`\_SB_.PCI0._STA`: ValueMethod,
		`\PCI_`:           ValueAlias,
	}
	for path, exp := range valueTypes {
		if got := p.Root().Find(path).Contents.(*Value).Type; got != exp {
			t.Errorf("expected %s to be a %s; got %s", path, exp, got)
		}
	}

	if dev, ok := p.Root().Find(`\_SB_.PCI0`).Contents.(*Namespace).Object.(*DeviceDecl); !ok || len(dev.Body) != 4 {
		t.Errorf("expected PCI0 to be a device with 4 terms; got:\n%s", spew.Sdump(p.Root().Find(`\_SB_.PCI0`)))
	}

	region := p.Root().Find(`\GNVS`).Contents.(*OpRegion)
	if region.Space != RegionSpaceSystemMemory {
		t.Errorf("expected GNVS to use SystemMemory; got %s", region.Space)
	}
	if off, ok := region.Offset.(*ComputationalData); !ok || off.Value != 0x7fff0000 {
		t.Errorf("expected GNVS offset to be 0x7fff0000; got %#v", region.Offset)
	}

	expDiag := "[table: DSDT, offset: 73] operation region \\GNVS (space: SystemMemory)\n"
	if diag.String() != expDiag {
		t.Errorf("expected diagnostics %q; got %q", expDiag, diag.String())
	}

	// The method body is decoded in the second pass.
	sta := p.Root().Find(`\_SB_.PCI0._STA`).Contents.(*Value).Object.(*MethodDecl)
	if len(sta.Body) != 1 {
		t.Fatalf("expected _STA body to contain 1 term; got %d", len(sta.Body))
	}
	if ret, ok := sta.Body[0].(*Return); !ok || ret.Value.(*ComputationalData).Value != 0x0f {
		t.Fatalf("expected _STA to return 0x0f; got %s", spew.Sdump(sta.Body[0]))
	}
}

func TestParseAMLForwardDeclarations(t *testing.T) {
	// Method(MAIN) { Return(HLP1(0x01, HLP1(0x02, 0x03))) }
	// Method(HLP1, 2) { Return(Arg0) }
	stream := cat(
		method("MAIN", 0x00,
			b(0xa4), nameSeg("HLP1"), b(0x0a, 0x01), nameSeg("HLP1"), b(0x0a, 0x02, 0x0a, 0x03),
		),
		method("HLP1", 0x02, b(0xa4, 0x68)),
	)

	root, _, err := Parse(stream, io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	mainMethod := root.Find(`\MAIN`).Contents.(*Value).Object.(*MethodDecl)
	if len(mainMethod.Body) != 1 {
		t.Fatalf("expected MAIN body to contain 1 term; got:\n%s", spew.Sdump(mainMethod.Body))
	}

	ret := mainMethod.Body[0].(*Return)
	inv, ok := ret.Value.(*MethodInvocation)
	if !ok || inv.Name.String() != "HLP1" || len(inv.Args) != 2 {
		t.Fatalf("expected an invocation of HLP1 with 2 args; got:\n%s", spew.Sdump(ret.Value))
	}

	nested, ok := inv.Args[1].(*MethodInvocation)
	if !ok || len(nested.Args) != 2 {
		t.Fatalf("expected the second arg to be a nested invocation with 2 args; got:\n%s", spew.Sdump(inv.Args[1]))
	}

	hlp1 := root.Find(`\HLP1`).Contents.(*Value).Object.(*MethodDecl)
	if hlp1.ArgCount != 2 {
		t.Fatalf("expected HLP1 to take 2 args; got %d", hlp1.ArgCount)
	}
}

func TestParseAMLNameResolution(t *testing.T) {
	// Scope(\_SB) { Method(HLP1, 1) { Return(Arg0) } Device(DEV0) { Method(_INI) { HLP1(One) } } }
	// Method(\_SB.HLP2, 1) { Return(Arg0) }
	// Method(MAIN) { \_SB.DEV0._INI() ^_SB.HLP2(One) }
	stream := cat(
		scope(b('\\', '_', 'S', 'B', '_'),
			method("HLP1", 0x01, b(0xa4, 0x68)),
			device("DEV0", method("_INI", 0x00, nameSeg("HLP1"), b(0x01))),
		),
		pkg(b(0x14), b('\\', 0x2e), nameSeg("_SB_"), nameSeg("HLP2"), b(0x01), b(0xa4, 0x68)),
		method("MAIN", 0x00,
			b('\\', 0x2f, 0x03), nameSeg("_SB_"), nameSeg("DEV0"), nameSeg("_INI"),
			b('^', 0x2e), nameSeg("_SB_"), nameSeg("HLP2"), b(0x01),
		),
	)

	p := NewParser(io.Discard, nil)
	if _, err := p.ParseAML("DSDT", stream); err != nil {
		t.Fatal(err)
	}

	ini := p.Root().Find(`\_SB_.DEV0._INI`).Contents.(*Value).Object.(*MethodDecl)
	if len(ini.Body) != 1 {
		t.Fatalf("expected _INI body to contain 1 term; got:\n%s", spew.Sdump(ini.Body))
	}
	if inv, ok := ini.Body[0].(*MethodInvocation); !ok || len(inv.Args) != 1 {
		t.Fatalf("expected HLP1 to be resolved through the parent scopes; got:\n%s", spew.Sdump(ini.Body))
	}

	mainMethod := p.Root().Find(`\MAIN`).Contents.(*Value).Object.(*MethodDecl)
	if len(mainMethod.Body) != 2 {
		t.Fatalf("expected MAIN body to contain 2 terms; got:\n%s", spew.Sdump(mainMethod.Body))
	}
	if inv := mainMethod.Body[1].(*MethodInvocation); len(inv.Args) != 1 {
		t.Fatalf("expected the parent-relative HLP2 reference to resolve; got:\n%s", spew.Sdump(inv))
	}
}

func TestParseAMLMethodScopedDeclarations(t *testing.T) {
	// Method(MTHD) { Name(LOCL, One) Method(NEST) { Noop } }
	stream := method("MTHD", 0x00,
		cat(b(0x08), nameSeg("LOCL"), b(0x01)),
		method("NEST", 0x00, b(0xa3)),
	)

	root, _, err := Parse(stream, io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{`\MTHD.LOCL`, `\MTHD.NEST`, `\LOCL`, `\NEST`} {
		if root.Find(path) != nil {
			t.Errorf("expected %s not to be inserted into the namespace", path)
		}
	}

	mthd := root.Find(`\MTHD`).Contents.(*Value).Object.(*MethodDecl)
	if len(mthd.Body) != 2 {
		t.Fatalf("expected MTHD body to contain 2 terms; got:\n%s", spew.Sdump(mthd.Body))
	}
	if nested := mthd.Body[1].(*MethodDecl); len(nested.Body) != 1 {
		t.Fatalf("expected the nested method body to be decoded; got:\n%s", spew.Sdump(nested))
	}
}

func TestParseAMLMultipleTables(t *testing.T) {
	p := NewParser(io.Discard, nil)

	if _, err := p.ParseAML("DSDT", method("HLP1", 0x01, b(0xa4, 0x68))); err != nil {
		t.Fatal(err)
	}

	terms, err := p.ParseAML("SSDT", method("MAIN", 0x00, nameSeg("HLP1"), b(0x0a, 0x05)))
	if err != nil {
		t.Fatal(err)
	}

	body := terms[0].(*MethodDecl).Body
	if len(body) != 1 {
		t.Fatalf("expected MAIN body to contain 1 term; got:\n%s", spew.Sdump(body))
	}
	if inv, ok := body[0].(*MethodInvocation); !ok || len(inv.Args) != 1 {
		t.Fatalf("expected methods from earlier tables to be visible; got:\n%s", spew.Sdump(body))
	}
}

func TestParseAMLErrors(t *testing.T) {
	specs := []struct {
		descr   string
		stream  []byte
		expErr  error
		expDiag string
	}{
		{
			"invalid extended opcode",
			b(0x5b, 0x00),
			ErrInvalidOpcode,
			"[table: DSDT, offset: 0] error parsing AML bytecode",
		},
		{
			"incomplete extended opcode",
			b(0x5b),
			ErrTruncated,
			"error parsing AML bytecode",
		},
		{
			"incomplete buffer",
			b(0x11),
			ErrTruncated,
			"error parsing AML bytecode",
		},
		{
			"duplicate name",
			cat(b(0x08), nameSeg("FOO_"), b(0x01), b(0x08), nameSeg("FOO_"), b(0x00)),
			ErrNamespace,
			`"\\FOO_" is already defined`,
		},
		{
			"scope past the root",
			scope(cat(b('^'), nameSeg("FOO_")), b(0xa3)),
			ErrNamespace,
			"refers past the root scope",
		},
		{
			"reserved region space",
			cat(b(0x5b, 0x80), nameSeg("GNVS"), b(0x0a, 0x00, 0x00)),
			ErrInvalidRegionSpace,
			"reserved space 0x0a",
		},
		{
			"method body error",
			method("MTHD", 0x00, b(0x5b, 0x00)),
			ErrInvalidOpcode,
			"error parsing AML bytecode",
		},
		{
			"missing invocation args",
			cat(method("HLP1", 0x02, b(0xa3)), method("MAIN", 0x00, nameSeg("HLP1"), b(0x01))),
			ErrTruncated,
			"unexpected arglist end for method HLP1 invocation: expected 2; got 1",
		},
		{
			"method package past the end of the stream",
			cat(b(0x14, 0x3f), nameSeg("MTHD"), b(0x00)),
			ErrTruncated,
			"error parsing AML bytecode",
		},
	}

	for _, spec := range specs {
		t.Run(spec.descr, func(t *testing.T) {
			p := NewParser(nil, nil)
			_, err := p.ParseAML("DSDT", spec.stream)
			if !errors.Is(err, spec.expErr) {
				t.Fatalf("expected error %v; got %v", spec.expErr, err)
			}

			if got := p.Backlog().String(); !strings.Contains(got, spec.expDiag) {
				t.Fatalf("expected backlog to contain %q; got %q", spec.expDiag, got)
			}
		})
	}
}

func TestParseAMLFailureRevertsNamespace(t *testing.T) {
	root := NewRootNamespace()
	p := NewParser(io.Discard, root)

	if _, err := p.ParseAML("DSDT", cat(b(0x08), nameSeg("BAR_"), b(0x01))); err != nil {
		t.Fatal(err)
	}
	expChildren := len(root.Children())

	specs := []struct {
		descr  string
		stream []byte
		expErr error
	}{
		{
			"first pass",
			cat(
				cat(b(0x08), nameSeg("FOO_"), b(0x01)),
				scope(b('\\', '_', 'S', 'B', '_'), device("PCI0", cat(b(0x08), nameSeg("_ADR"), b(0x00)))),
				opRegion("GNVS", 0x20, b(0x0a, 0x00), b(0x0a, 0x10)),
			),
			ErrInvalidRegionSpace,
		},
		{
			"second pass",
			cat(
				cat(b(0x08), nameSeg("FOO_"), b(0x01)),
				scope(b('\\', '_', 'S', 'B', '_'), device("PCI0")),
				method("MTHD", 0x00, b(0x5b, 0x00)),
			),
			ErrInvalidOpcode,
		},
	}

	for _, spec := range specs {
		t.Run(spec.descr, func(t *testing.T) {
			if _, err := p.ParseAML("SSDT", spec.stream); !errors.Is(err, spec.expErr) {
				t.Fatalf("expected error %v; got %v", spec.expErr, err)
			}

			for _, path := range []string{`\FOO_`, `\_SB_.PCI0`, `\_SB_.PCI0._ADR`, `\GNVS`, `\MTHD`} {
				if root.Find(path) != nil {
					t.Errorf("expected %s to be removed from the namespace", path)
				}
			}

			if root.Find(`\BAR_`) == nil {
				t.Error("expected objects declared by earlier tables to be kept")
			}

			if got := len(root.Children()); got != expChildren {
				t.Errorf("expected root to have %d children; got %d:\n%s", expChildren, got, spew.Sdump(root))
			}

			if got := len(root.Find(`\_SB_`).Children()); got != 0 {
				t.Errorf("expected \\_SB_ to be empty; got %d children", got)
			}
		})
	}

	// Names declared by a failed table can be declared again.
	if _, err := p.ParseAML("SSDT", cat(b(0x08), nameSeg("FOO_"), b(0x01))); err != nil {
		t.Fatal(err)
	}
	if root.Find(`\FOO_`) == nil {
		t.Fatal("expected FOO_ to be declared")
	}
}

func TestParseAMLMethodScopedRegion(t *testing.T) {
	var diag bytes.Buffer
	p := NewParser(&diag, nil)

	// Method(MTHD) { OperationRegion(LOCR, SystemIO, 0x80, 0x04) }
	stream := method("MTHD", 0x00, opRegion("LOCR", 0x01, b(0x0a, 0x80), b(0x0a, 0x04)))
	terms, err := p.ParseAML("DSDT", stream)
	if err != nil {
		t.Fatal(err)
	}

	body := terms[0].(*MethodDecl).Body
	if len(body) != 1 {
		t.Fatalf("expected MTHD body to contain 1 term; got:\n%s", spew.Sdump(body))
	}
	if _, ok := body[0].(*OpRegionDecl); !ok {
		t.Fatalf("expected MTHD body to contain a region declaration; got %T", body[0])
	}

	for _, path := range []string{`\MTHD.LOCR`, `\LOCR`} {
		if p.Root().Find(path) != nil {
			t.Errorf("expected %s not to be inserted into the namespace", path)
		}
	}

	if diag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %q", diag.String())
	}
}

func TestFailedDecodeReturnsNil(t *testing.T) {
	p := NewParser(io.Discard, nil)

	specs := []struct {
		descr  string
		decode func() (interface{}, error)
	}{
		{"SimpleName", func() (interface{}, error) {
			name, _, err := ParseSimpleName(b(0x01))
			return name, err
		}},
		{"SuperName", func() (interface{}, error) {
			name, _, err := ParseSuperName(b(0x01))
			return name, err
		}},
		{"Target", func() (interface{}, error) {
			target, _, err := ParseTarget(b(0x01))
			return target, err
		}},
		{"TermArg invocation", func() (interface{}, error) {
			arg, _, err := p.ParseTermArg(b('x'))
			return arg, err
		}},
		{"Type2 buffer", func() (interface{}, error) {
			arg, _, err := p.ParseType2Opcode(b(0x11, 0x10, 0x0a, 0x01))
			return arg, err
		}},
		{"Type2 invocation", func() (interface{}, error) {
			arg, _, err := p.ParseType2Opcode(b('x'))
			return arg, err
		}},
		{"Type1 If", func() (interface{}, error) {
			obj, _, err := p.ParseType1Opcode(b(0xa0, 0x10))
			return obj, err
		}},
		{"Type1 While", func() (interface{}, error) {
			obj, _, err := p.ParseType1Opcode(b(0xa2, 0x10))
			return obj, err
		}},
		{"NamedObj region", func() (interface{}, error) {
			obj, _, err := p.ParseNamedObj(cat(b(0x5b, 0x80), nameSeg("GNVS")))
			return obj, err
		}},
		{"NamedObj method", func() (interface{}, error) {
			obj, _, err := p.ParseNamedObj(cat(b(0x14, 0x10), nameSeg("FOO_"), b(0x00)))
			return obj, err
		}},
		{"NamedObj device", func() (interface{}, error) {
			obj, _, err := p.ParseNamedObj(device("foo_"))
			return obj, err
		}},
		{"TermObj alias", func() (interface{}, error) {
			obj, _, err := p.ParseTermObj(b(0x06))
			return obj, err
		}},
		{"TermObj name", func() (interface{}, error) {
			obj, _, err := p.ParseTermObj(b(0x08))
			return obj, err
		}},
		{"TermObj scope", func() (interface{}, error) {
			obj, _, err := p.ParseTermObj(b(0x10))
			return obj, err
		}},
		{"TermObj region", func() (interface{}, error) {
			obj, _, err := p.ParseTermObj(opRegion("GNVS", 0x20, b(0x0a, 0x00), b(0x0a, 0x10)))
			return obj, err
		}},
	}

	for _, spec := range specs {
		t.Run(spec.descr, func(t *testing.T) {
			got, err := spec.decode()
			if err == nil {
				t.Fatal("expected an error")
			}

			if got != nil {
				t.Fatalf("expected a nil result; got %#v", got)
			}
		})
	}
}

func TestParseDepthLimit(t *testing.T) {
	nested := func(depth int) []byte {
		return append(bytes.Repeat(b(0x92), depth), 0x01)
	}

	p := NewParser(io.Discard, nil, WithMaxDepth(3))

	if _, consumed, err := p.ParseTermArg(nested(2)); err != nil || consumed != 3 {
		t.Fatalf("expected 2 nested terms to decode within a depth limit of 3; got %d, %v", consumed, err)
	}

	if _, _, err := p.ParseTermArg(nested(3)); !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded; got %v", err)
	}

	// The default limit guards against runaway recursion.
	p = NewParser(io.Discard, nil)
	if _, _, err := p.ParseTermArg(nested(1000)); !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded; got %v", err)
	}

	// Nested statements count towards the limit as well.
	stmt := b(0xa3)
	for i := 0; i < MaxDepth; i++ {
		stmt = pkg(b(0xa2), b(0x01), stmt)
	}
	if _, err := p.ParseAML("DSDT", stmt); !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded; got %v", err)
	}
}

func TestRoundTripConcatenation(t *testing.T) {
	encodings := [][]byte{
		b(0x0b, 0x34, 0x12),
		b(0x0e, 1, 2, 3, 4, 5, 6, 7, 8),
		b(0x0d, 'A', 'B', 0x00),
		cat(b(0x2e), nameSeg("_SB_"), nameSeg("PCI0")),
		b(0x68),
		b(0x72, 0x68, 0x0a, 0x01, 0x60),
		pkg(b(0x11), b(0x0a, 0x02), b(0xde, 0xad)),
		cat(pkg(b(0xa0), b(0x01), b(0xa3)), pkg(b(0xa1), b(0xa5))),
		pkg(b(0xa2), b(0x92, 0x60), b(0x75, 0x60)),
		cat(b(0x5b, 0x80), nameSeg("GNVS"), b(0x80, 0x00, 0x0a, 0x10)),
	}

	decode := func(data []byte) (Term, int, error) {
		return NewParser(io.Discard, nil).ParseTermObj(data)
	}

	for i, first := range encodings {
		for j, second := range encodings {
			exp, expConsumed, err := decode(second)
			if err != nil {
				t.Fatalf("[%d] unexpected error: %v", j, err)
			}

			data := cat(first, second)
			_, consumed, err := decode(data)
			if err != nil {
				t.Fatalf("[%d+%d] unexpected error: %v", i, j, err)
			}
			if consumed != len(first) {
				t.Fatalf("[%d+%d] expected to consume %d bytes; got %d", i, j, len(first), consumed)
			}

			got, gotConsumed, err := decode(data[consumed:])
			if err != nil {
				t.Fatalf("[%d+%d] unexpected error decoding suffix: %v", i, j, err)
			}
			if gotConsumed != expConsumed || !reflect.DeepEqual(got, exp) {
				t.Fatalf("[%d+%d] suffix decoded differently:\n%s\nvs\n%s", i, j, spew.Sdump(got), spew.Sdump(exp))
			}
		}
	}
}
