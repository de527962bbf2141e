package emit

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/nhttp/gen-automata/internal/automaton"
	"github.com/nhttp/gen-automata/internal/stream"
)

// Layout selects how the transition table is written out.
type Layout string

const (
	// LayoutRanges stores sorted byte ranges per state and binary searches them.
	LayoutRanges Layout = "ranges"
	// LayoutClasses stores a dense state by byte-class matrix.
	LayoutClasses Layout = "classes"
)

const (
	DefaultPackage   = "httpparser"
	DefaultMaxStates = 4096
	DefaultGenerator = "gen-automata"
)

type Options struct {
	Package    string
	MaxStates  int
	MaxCapture int
	Layout     Layout
	Generator  string
	// Source is recorded in the header comment, usually the grammar name.
	Source string
}

func (o Options) withDefaults() Options {
	if o.Package == "" {
		o.Package = DefaultPackage
	}
	if o.MaxStates <= 0 {
		o.MaxStates = DefaultMaxStates
	}
	if o.MaxCapture <= 0 {
		o.MaxCapture = stream.DefaultMaxCapture
	}
	if o.Layout == "" {
		o.Layout = LayoutRanges
	}
	if o.Generator == "" {
		o.Generator = DefaultGenerator
	}
	return o
}

// Artifact holds the two generated Go files. Both belong to the same package.
type Artifact struct {
	Interface      []byte
	Implementation []byte
}

// ErrEmissionLimitExceeded is shared with the subset construction limit.
var ErrEmissionLimitExceeded = automaton.ErrEmissionLimitExceeded

type EmissionLimitError struct {
	States int
	Limit  int
}

func (e *EmissionLimitError) Error() string {
	return fmt.Sprintf("emission limit exceeded: %d states, limit %d", e.States, e.Limit)
}

func (e *EmissionLimitError) Is(target error) bool {
	return target == ErrEmissionLimitExceeded
}

// Emit renders t as Go source. Nothing is rendered when the table is over
// the limit.
func Emit(t *automaton.Table, opts Options) (*Artifact, error) {
	if t == nil {
		return nil, errors.New("table is required")
	}
	opts = opts.withDefaults()
	switch opts.Layout {
	case LayoutRanges, LayoutClasses:
	default:
		return nil, fmt.Errorf("unknown layout %q", opts.Layout)
	}
	if len(t.States) > opts.MaxStates {
		return nil, &EmissionLimitError{States: len(t.States), Limit: opts.MaxStates}
	}

	m := newModel(t)
	iface, err := render(interfaceFile(m, opts))
	if err != nil {
		return nil, fmt.Errorf("render interface: %w", err)
	}
	impl, err := render(implementationFile(m, opts))
	if err != nil {
		return nil, fmt.Errorf("render implementation: %w", err)
	}
	return &Artifact{Interface: iface, Implementation: impl}, nil
}

func render(f *jen.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func header(f *jen.File, opts Options) {
	f.HeaderComment(fmt.Sprintf("Code generated by %s. DO NOT EDIT.", opts.Generator))
	if opts.Source != "" {
		f.HeaderComment("Source: " + opts.Source)
	}
}
