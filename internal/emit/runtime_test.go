package emit

import (
	"errors"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/nhttp/gen-automata/internal/stream"
)

const runtimeMaxCapture = 16

// runtimeInputs covers an accepted head with a trailing body, a capture
// overflow and a bare LF.
var runtimeInputs = []string{
	"POST /upload HTTP/1.1\r\n" +
		"Host: printer\r\n" +
		"X-Api-Key: k1\r\n" +
		"If-None-Match: W/\"a\", *\r\n" +
		"Print-After-Upload: yes\r\n" +
		"Accept: application/json\r\n" +
		"Content-Length: 42\r\n" +
		"Connection: keep-alive\r\n" +
		"Content-Type: multipart/form-data; boundary=XYZ\r\n" +
		"\r\nbody",
	"GET / HTTP/1.1\r\nX-Api-Key: 0123456789abcdefXYZ\r\n\r\n",
	"GET / HTTP/1.1\nHost: x\n\n",
}

func TestEmittedArtifactsTypeCheck(t *testing.T) {
	table := nhttpTable(t)

	for _, layout := range []Layout{LayoutRanges, LayoutClasses} {
		art, err := Emit(table, Options{Package: "headparser", Layout: layout})
		if err != nil {
			t.Fatalf("%s: Emit error: %v", layout, err)
		}

		fset := token.NewFileSet()
		var files []*ast.File
		for name, src := range map[string][]byte{"automaton.go": art.Interface, "automaton_impl.go": art.Implementation} {
			f, err := parser.ParseFile(fset, name, src, 0)
			if err != nil {
				t.Fatalf("%s: %s does not parse: %v", layout, name, err)
			}
			files = append(files, f)
		}

		conf := types.Config{Importer: importer.Default()}
		pkg, err := conf.Check("headparser", fset, files, nil)
		if err != nil {
			t.Fatalf("%s: artifacts do not type-check: %v", layout, err)
		}

		parserType := pkg.Scope().Lookup("Parser")
		iface := pkg.Scope().Lookup("HeadParser")
		if parserType == nil || iface == nil {
			t.Fatalf("%s: missing Parser or HeadParser", layout)
		}
		ptr := types.NewPointer(parserType.Type())
		if !types.Implements(ptr, iface.Type().Underlying().(*types.Interface)) {
			t.Fatalf("%s: *Parser does not implement HeadParser", layout)
		}
	}
}

// TestEmittedParserMatchesStream builds the artifacts into a scratch module,
// feeds every three-way split of each input and compares the result with
// stream.Parser over the same table.
func TestEmittedParserMatchesStream(t *testing.T) {
	if testing.Short() {
		t.Skip("builds generated code with the go command")
	}
	goTool, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go command not available")
	}

	table := nhttpTable(t)
	var want strings.Builder
	p := stream.NewParser(table, runtimeMaxCapture)
	for _, in := range runtimeInputs {
		p.Reset()
		want.WriteString(describeStream(p, in))
		want.WriteString("--\n")
	}

	for _, layout := range []Layout{LayoutRanges, LayoutClasses} {
		art, err := Emit(table, Options{Package: "headparser", Layout: layout, MaxCapture: runtimeMaxCapture})
		if err != nil {
			t.Fatalf("%s: Emit error: %v", layout, err)
		}

		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "go.mod"), "module gentest\n\ngo 1.21\n")
		writeFile(t, filepath.Join(dir, "headparser", "automaton.go"), string(art.Interface))
		writeFile(t, filepath.Join(dir, "headparser", "automaton_impl.go"), string(art.Implementation))
		writeFile(t, filepath.Join(dir, "main.go"), driverSource())

		cmd := exec.Command(goTool, "run", ".")
		cmd.Dir = dir
		cmd.Env = append(os.Environ(), "GOWORK=off", "GOFLAGS=-mod=mod", "GOPROXY=off", "GOTOOLCHAIN=local")
		out, err := cmd.Output()
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				t.Fatalf("%s: generated parser failed: %v\n%s", layout, err, exitErr.Stderr)
			}
			t.Fatalf("%s: go run: %v", layout, err)
		}
		if got := string(out); got != want.String() {
			t.Fatalf("%s: generated parser differs from stream.Parser\n got:\n%s\nwant:\n%s", layout, got, want.String())
		}
	}
}

func TestRuntimeInputsExerciseErrors(t *testing.T) {
	table := nhttpTable(t)
	p := stream.NewParser(table, runtimeMaxCapture)

	cases := []struct {
		input  string
		target error
		offset int
	}{
		{runtimeInputs[1], stream.ErrCaptureOverflow, 43},
		{runtimeInputs[2], stream.ErrUnexpectedByte, 14},
	}
	for _, tc := range cases {
		p.Reset()
		_, _, err := p.Feed([]byte(tc.input))
		if !errors.Is(err, tc.target) {
			t.Fatalf("expected %v, got %v", tc.target, err)
		}
		var perr *stream.ParseError
		if !errors.As(err, &perr) || perr.Offset != tc.offset {
			t.Fatalf("expected error at offset %d, got %v", tc.offset, err)
		}
	}

	p.Reset()
	if _, _, err := p.Feed([]byte(runtimeInputs[0])); err != nil || !p.Done() {
		t.Fatalf("expected the upload request to complete, err=%v", err)
	}
}

// describeStream renders a parse in the format printed by driverSource.
func describeStream(p *stream.Parser, in string) string {
	var b strings.Builder
	events, n, err := p.Feed([]byte(in))
	for _, e := range events {
		fmt.Fprintf(&b, "%s|%s|%d\n", e.Name, e.Value, e.Offset)
	}
	if err != nil {
		var perr *stream.ParseError
		errors.As(err, &perr)
		fmt.Fprintf(&b, "error %s 0x%02x at %d\n", perr.Kind, perr.Byte, perr.Offset)
		_, again, errAgain := p.Feed([]byte("x"))
		fmt.Fprintf(&b, "sticky consumed=%d same=%t\n", again, errAgain == err)
	}
	fmt.Fprintf(&b, "consumed=%d done=%t\n", n, p.Done())
	return b.String()
}

func driverSource() string {
	quoted := make([]string, 0, len(runtimeInputs))
	for _, in := range runtimeInputs {
		quoted = append(quoted, strconv.Quote(in))
	}
	return strings.Replace(driverTemplate, "INPUTS", strings.Join(quoted, ",\n\t"), 1)
}

const driverTemplate = `package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gentest/headparser"
)

var inputs = []string{
	INPUTS,
}

func run(p *headparser.Parser, chunks ...string) string {
	var b strings.Builder
	consumed := 0
	for _, chunk := range chunks {
		events, n, err := p.Feed([]byte(chunk))
		for _, e := range events {
			fmt.Fprintf(&b, "%s|%s|%d\n", e.Action, e.Value, e.Offset)
		}
		consumed += n
		if err != nil {
			var perr *headparser.ParseError
			if !errors.As(err, &perr) {
				fmt.Fprintf(&b, "error %v\n", err)
				break
			}
			fmt.Fprintf(&b, "error %s 0x%02x at %d\n", perr.Kind, perr.Byte, perr.Offset)
			_, again, errAgain := p.Feed([]byte("x"))
			fmt.Fprintf(&b, "sticky consumed=%d same=%t\n", again, errAgain == err)
			break
		}
	}
	fmt.Fprintf(&b, "consumed=%d done=%t\n", consumed, p.Done())
	return b.String()
}

func main() {
	p := headparser.NewParser()
	for _, in := range inputs {
		p.Reset()
		whole := run(p, in)
		for i := 0; i <= len(in); i++ {
			for j := i; j <= len(in); j++ {
				p.Reset()
				if got := run(p, in[:i], in[i:j], in[j:]); got != whole {
					fmt.Fprintf(os.Stderr, "split %d,%d of %q:\n%s\nwhole:\n%s", i, j, in, got, whole)
					os.Exit(1)
				}
			}
		}
		fmt.Print(whole)
		fmt.Println("--")
	}
}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
