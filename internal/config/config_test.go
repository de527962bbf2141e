package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nhttp/gen-automata/internal/grammar"
)

const sample = `
configVersion: 1
grammar:
  name: printer
  structure: request
rules:
  - header: X-Api-Key
    name: XApiKey
    kind: header_value
    capture: true
  - header: Connection
    name: Connection
    kind: token_set
    values: [keep-alive, close]
    capture: true
  - header: Content-Type
    name: Boundary
    kind: boundary
    capture: true
limits:
  maxStates: 2048
output:
  dir: gen
  layout: classes
`

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grammar.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.BaseDir() != dir {
		t.Fatalf("expected base dir %s, got %s", dir, cfg.BaseDir())
	}
	if cfg.Output.Package != DefaultPackage || cfg.Logging.Format != FormatText || cfg.Watch.Debounce != DefaultDebounce {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if got, want := cfg.InterfacePath(), filepath.Join(dir, "gen", DefaultInterface); got != want {
		t.Fatalf("expected interface path %s, got %s", want, got)
	}
	if got, want := cfg.ImplementationPath(), filepath.Join(dir, "gen", DefaultImplementation); got != want {
		t.Fatalf("expected implementation path %s, got %s", want, got)
	}
}

func TestValidateSample(t *testing.T) {
	cfg, err := Parse([]byte(strings.Replace(sample, "  dir: gen\n", "", 1)))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			t.Fatalf("unexpected problems: %v", verr.Problems)
		}
		t.Fatalf("Validate error: %v", err)
	}
}

func TestValidateProblemsAreSorted(t *testing.T) {
	cfg, err := Parse([]byte(`
configVersion: 2
grammar:
  structure: status
rules:
  - header: "X Bad"
    name: A
    kind: regex
  - header: Accept
    name: A
    kind: presence
    capture: true
  - header: Connection
    name: C
    kind: token_set
output:
  package: Bad-Name
  layout: sparse
metrics:
  enabled: true
`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	err = cfg.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}

	want := []string{
		"configVersion must be 1",
		"grammar.name is required",
		"grammar.structure must be request|response",
		"metrics.listen invalid: address is required",
		"output.layout must be ranges|classes",
		`output.package "Bad-Name" is not a valid package name`,
		`rules[0].header "X Bad" is not a token`,
		`rules[0].kind invalid: unknown matcher kind "regex"`,
		"rules[1].capture must be false for presence",
		`rules[1].name "A" is duplicated`,
		"rules[2].values is required for token_set",
	}
	if len(verr.Problems) != len(want) {
		t.Fatalf("expected %d problems, got %d: %v", len(want), len(verr.Problems), verr.Problems)
	}
	for i := range want {
		if verr.Problems[i] != want[i] {
			t.Fatalf("problem %d: expected %q, got %q", i, want[i], verr.Problems[i])
		}
	}
}

func TestBuildGrammarWithBuiltin(t *testing.T) {
	cfg, err := Parse([]byte(`
configVersion: 1
grammar:
  name: nhttp
  builtin: nhttp
rules:
  - header: Command-Id
    name: CommandId
    kind: header_value
    capture: true
`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	g, err := cfg.BuildGrammar()
	if err != nil {
		t.Fatalf("BuildGrammar error: %v", err)
	}
	if got, want := len(g.Rules()), len(grammar.NHTTPRules())+1; got != want {
		t.Fatalf("expected %d rules, got %d", want, got)
	}
}

func TestBuildGrammarDuplicateRule(t *testing.T) {
	cfg, err := Parse([]byte(`
configVersion: 1
grammar:
  name: dup
  builtin: nhttp
rules:
  - header: connection
    name: ConnectionValue
    kind: header_value
`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	_, err = cfg.BuildGrammar()
	if !errors.Is(err, grammar.ErrDuplicateRule) {
		t.Fatalf("expected ErrDuplicateRule, got %v", err)
	}
}

func TestShippedConfigs(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "configs", "*.yaml"))
	if err != nil {
		t.Fatalf("glob error: %v", err)
	}
	if len(paths) == 0 {
		t.Fatalf("expected shipped configs")
	}
	for _, path := range paths {
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("%s: load error: %v", path, err)
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("%s: validate error: %v", path, err)
		}
		if _, err := cfg.BuildGrammar(); err != nil {
			t.Fatalf("%s: build grammar error: %v", path, err)
		}
	}
}

func TestShippedNHTTPMatchesBuiltin(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "nhttp.yaml"))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	got, err := cfg.BuildGrammar()
	if err != nil {
		t.Fatalf("build grammar error: %v", err)
	}
	want, err := grammar.NHTTP()
	if err != nil {
		t.Fatalf("NHTTP error: %v", err)
	}

	describe := func(g *grammar.Grammar) []string {
		var out []string
		for _, r := range g.Rules() {
			out = append(out, r.Header+"/"+r.Spec.Name+"/"+string(r.Spec.Kind.Name()))
		}
		return out
	}
	if a, b := strings.Join(describe(got), ","), strings.Join(describe(want), ","); a != b {
		t.Fatalf("shipped grammar differs from builtin\n got: %s\nwant: %s", a, b)
	}
}
