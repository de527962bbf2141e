package emit

import (
	"bytes"
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/nhttp/gen-automata/internal/automaton"
	"github.com/nhttp/gen-automata/internal/grammar"
)

func nhttpTable(t *testing.T) *automaton.Table {
	t.Helper()
	g, err := grammar.NHTTP()
	if err != nil {
		t.Fatalf("NHTTP error: %v", err)
	}
	res, err := automaton.Compile(g, automaton.Options{})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	return res.Table
}

func parse(t *testing.T, name string, src []byte) *ast.File {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), name, src, parser.ParseComments)
	if err != nil {
		t.Fatalf("%s does not parse: %v\n%s", name, err, src)
	}
	return f
}

func declared(f *ast.File) map[string]bool {
	names := map[string]bool{}
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv != nil && len(d.Recv.List) == 1 {
				var recv string
				switch r := d.Recv.List[0].Type.(type) {
				case *ast.StarExpr:
					recv = r.X.(*ast.Ident).Name
				case *ast.Ident:
					recv = r.Name
				}
				names[recv+"."+d.Name.Name] = true
				continue
			}
			names[d.Name.Name] = true
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					names[s.Name.Name] = true
				case *ast.ValueSpec:
					for _, n := range s.Names {
						names[n.Name] = true
					}
				}
			}
		}
	}
	return names
}

func TestEmitArtifacts(t *testing.T) {
	table := nhttpTable(t)

	for _, layout := range []Layout{LayoutRanges, LayoutClasses} {
		art, err := Emit(table, Options{Package: "nhttp", Layout: layout, Source: "nhttp"})
		if err != nil {
			t.Fatalf("%s: Emit error: %v", layout, err)
		}

		iface := parse(t, "automaton.go", art.Interface)
		impl := parse(t, "automaton_impl.go", art.Implementation)
		if iface.Name.Name != "nhttp" || impl.Name.Name != "nhttp" {
			t.Fatalf("%s: unexpected packages %s, %s", layout, iface.Name.Name, impl.Name.Name)
		}
		if !bytes.HasPrefix(art.Interface, []byte("// Code generated by gen-automata. DO NOT EDIT.")) {
			t.Fatalf("%s: missing generated header", layout)
		}

		names := declared(iface)
		for _, want := range []string{
			"State", "StateStart", "StateDone", "NumStates", "MaxCapture",
			"Action", "Action.String", "ActionMethodGET", "ActionConnectionKeepAlive", "ActionBoundary", "ActionEndOfHeaders",
			"Event", "ErrorKind", "ParseError", "ParseError.Error", "ParseError.Is",
			"ErrUnexpectedByte", "ErrCaptureOverflow", "HeadParser",
		} {
			if !names[want] {
				t.Fatalf("%s: interface artifact does not declare %s", layout, want)
			}
		}

		names = declared(impl)
		for _, want := range []string{"Parser", "NewParser", "Parser.Feed", "Parser.Reset", "Parser.Done", "states", "transitions", "next"} {
			if !names[want] {
				t.Fatalf("%s: implementation artifact does not declare %s", layout, want)
			}
		}
		if layout == LayoutClasses && !names["byteClass"] {
			t.Fatalf("classes layout without byteClass")
		}
	}
}

func TestEmitIsDeterministic(t *testing.T) {
	first, err := Emit(nhttpTable(t), Options{})
	if err != nil {
		t.Fatalf("Emit error: %v", err)
	}
	for i := 0; i < 3; i++ {
		next, err := Emit(nhttpTable(t), Options{})
		if err != nil {
			t.Fatalf("Emit error: %v", err)
		}
		if !bytes.Equal(first.Interface, next.Interface) || !bytes.Equal(first.Implementation, next.Implementation) {
			t.Fatalf("run %d produced different output", i)
		}
	}
}

func TestEmitLimit(t *testing.T) {
	table := nhttpTable(t)
	art, err := Emit(table, Options{MaxStates: len(table.States) - 1})
	if !errors.Is(err, ErrEmissionLimitExceeded) {
		t.Fatalf("expected ErrEmissionLimitExceeded, got %v", err)
	}
	if art != nil {
		t.Fatalf("expected no artifact on limit error")
	}
	var limit *EmissionLimitError
	if !errors.As(err, &limit) || limit.States != len(table.States) {
		t.Fatalf("unexpected limit error %+v", limit)
	}

	if _, err := Emit(table, Options{MaxStates: len(table.States)}); err != nil {
		t.Fatalf("expected table at the limit to emit, got %v", err)
	}
}

func TestEmitUnknownLayout(t *testing.T) {
	if _, err := Emit(nhttpTable(t), Options{Layout: "sparse"}); err == nil {
		t.Fatalf("expected error for unknown layout")
	}
}

func TestActionIdent(t *testing.T) {
	cases := []struct {
		action automaton.Action
		want   string
	}{
		{automaton.Action{Name: "Connection", Value: 0, Token: "keep-alive"}, "ActionConnectionKeepAlive"},
		{automaton.Action{Name: "Version", Value: 1, Token: "HTTP/1.1"}, "ActionVersionHTTP11"},
		{automaton.Action{Name: "Accept", Value: 0, Token: "application/json"}, "ActionAcceptApplicationJson"},
		{automaton.Action{Name: "XApiKey", Value: -1}, "ActionXApiKey"},
	}
	for _, tt := range cases {
		if got := actionIdent(tt.action); got != tt.want {
			t.Fatalf("actionIdent(%+v) = %s, want %s", tt.action, got, tt.want)
		}
	}
}

func TestDot(t *testing.T) {
	table := nhttpTable(t)
	var buf bytes.Buffer
	if err := Dot(table, &buf); err != nil {
		t.Fatalf("Dot error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "digraph head {") || !strings.HasSuffix(out, "}\n") {
		t.Fatalf("unexpected dot output framing")
	}
	if !strings.Contains(out, "EndOfHeaders") || !strings.Contains(out, "doublecircle") {
		t.Fatalf("expected terminal state in dot output")
	}
	if got := strings.Count(out, "  s0 -> "); got == 0 {
		t.Fatalf("expected edges from the start state")
	}
}
