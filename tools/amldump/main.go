// Command amldump decodes the AML byte-code contained in one or more ACPI
// definition blocks (DSDT/SSDT dumps as produced by acpidump -b) and prints
// the resulting namespace.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"amldecode/device/acpi/aml"
	"amldecode/device/acpi/table"
	"amldecode/kernel/kfmt"

	"github.com/davecgh/go-spew/spew"
	"golang.org/x/term"
)

var (
	maxDepth  = flag.Int("depth", aml.MaxDepth, "maximum term nesting depth")
	tableName = flag.String("table", "", "table name used in diagnostics when -raw is set (default: file name)")
	rawInput  = flag.Bool("raw", false, "input files contain bare AML without an SDT header")
	dumpSpew  = flag.Bool("spew", false, "dump the decoded namespace with go-spew instead of printing a tree")
)

type dumpOpts struct {
	maxDepth  int
	tableName string
	raw       bool
	spew      bool

	// lines longer than width are truncated; 0 disables truncation.
	width int
}

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[amldump] error: %s\n", err.Error())
	os.Exit(1)
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: amldump [flags] table.dat [table.dat...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if len(flag.Args()) == 0 {
		exit(errors.New("missing table file"))
	}

	opts := dumpOpts{
		maxDepth:  *maxDepth,
		tableName: *tableName,
		raw:       *rawInput,
		spew:      *dumpSpew,
	}
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			opts.width = w
		}
	}

	if err := dumpTables(os.Stdout, os.Stderr, flag.Args(), opts); err != nil {
		exit(err)
	}
}

// dumpTables decodes the supplied table files in order into a single
// namespace and writes it to w. Parser diagnostics are written to errW.
func dumpTables(w, errW io.Writer, paths []string, opts dumpOpts) error {
	var (
		diag = kfmt.NewPrefixWriter(errW, "[amldump] ")
		p    = aml.NewParser(diag, nil, aml.WithMaxDepth(opts.maxDepth))
	)

	for _, path := range paths {
		name, body, err := loadTable(path, opts)
		if err != nil {
			return err
		}

		if _, err = p.ParseAML(name, body); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	if opts.spew {
		cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
		cfg.Fdump(w, p.Root())
		return nil
	}

	return printTree(w, p.Root(), opts.width)
}

// loadTable reads the file at path and returns the name of the table it
// contains and the AML byte-code that follows its header.
func loadTable(path string, opts dumpOpts) (string, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}

	if opts.raw {
		name := opts.tableName
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		return name, data, nil
	}

	header, body, err := table.HeaderFromBytes(data)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", path, err)
	}
	if !header.IsDefinitionBlock() {
		return "", nil, fmt.Errorf("%s: table %q does not contain AML byte-code", path, header.Name())
	}

	return header.Name(), body, nil
}

// printTree writes one line per namespace node, indented by its depth.
func printTree(w io.Writer, root *aml.Node, width int) error {
	var err error
	root.Visit(func(depth int, _ string, node *aml.Node) bool {
		if err != nil {
			return false
		}

		line := strings.Repeat("  ", depth) + "+- [" + node.Name + "] " + describe(node)
		if width > 0 && len(line) > width {
			line = line[:width]
		}
		_, err = fmt.Fprintln(w, line)
		return true
	})

	return err
}

// describe returns a short summary of the contents of node.
func describe(node *aml.Node) string {
	switch c := node.Contents.(type) {
	case *aml.Namespace:
		if c.Object != nil {
			return c.Object.Opcode().String()
		}
		return "Scope"
	case *aml.OpRegion:
		return "OpRegion(" + c.Space.String() + ")"
	case *aml.Value:
		switch obj := c.Object.(type) {
		case *aml.MethodDecl:
			return fmt.Sprintf("Method(args: %d, serialized: %t)", obj.ArgCount, obj.Serialized)
		case *aml.AliasDecl:
			return "Alias -> " + obj.Source.String()
		case *aml.NameDecl:
			return c.Type.String() + " = " + describeValue(obj.Value)
		}
		return c.Type.String()
	}

	return fmt.Sprintf("%T", node.Contents)
}

func describeValue(arg aml.TermArg) string {
	switch v := arg.(type) {
	case *aml.ComputationalData:
		return fmt.Sprintf("0x%x", v.Value)
	case *aml.StringConst:
		return fmt.Sprintf("%q", v.Value)
	case *aml.Buffer:
		return fmt.Sprintf("[% x]", v.Bytes)
	}
	return arg.Opcode().String()
}
