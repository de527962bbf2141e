package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nhttp/gen-automata/internal/grammar"
)

type ValidationError struct {
	Problems []string
}

func (v *ValidationError) Add(format string, args ...any) {
	v.Problems = append(v.Problems, fmt.Sprintf(format, args...))
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("%d validation error(s)", len(v.Problems))
}

func (c *Config) Validate() error {
	v := &ValidationError{}

	if c.ConfigVersion != 1 {
		v.Add("configVersion must be 1")
	}

	if c.Grammar.Name == "" {
		v.Add("grammar.name is required")
	}
	switch grammar.Structure(c.Grammar.Structure) {
	case grammar.StructureRequest, grammar.StructureResponse:
	default:
		v.Add("grammar.structure must be request|response")
	}
	if c.Grammar.Builtin != "" && c.Grammar.Builtin != grammar.NHTTPName {
		v.Add("grammar.builtin %q is unknown", c.Grammar.Builtin)
	}
	if c.Grammar.Builtin == "" && len(c.Rules) == 0 {
		v.Add("rules must not be empty without grammar.builtin")
	}

	names := map[string]struct{}{}
	for i, rule := range c.Rules {
		if rule.Header == "" {
			v.Add("rules[%d].header is required", i)
		} else if !grammar.IsToken(rule.Header) {
			v.Add("rules[%d].header %q is not a token", i, rule.Header)
		}
		if rule.Name == "" {
			v.Add("rules[%d].name is required", i)
		} else if _, exists := names[rule.Name]; exists {
			v.Add("rules[%d].name %q is duplicated", i, rule.Name)
		} else {
			names[rule.Name] = struct{}{}
		}

		if rule.Kind == "" {
			v.Add("rules[%d].kind is required", i)
			continue
		}
		kind, err := rule.matcher()
		if err != nil {
			v.Add("rules[%d].kind invalid: %v", i, err)
			continue
		}
		switch kind.Name() {
		case grammar.KindTokenSet:
			if len(rule.Values) == 0 {
				v.Add("rules[%d].values is required for token_set", i)
			}
		case grammar.KindPresence:
			if rule.Capture {
				v.Add("rules[%d].capture must be false for presence", i)
			}
		}
		if kind.Name() != grammar.KindTokenSet && len(rule.Values) > 0 {
			v.Add("rules[%d].values is only valid for token_set", i)
		}
		if kind.Name() != grammar.KindBoundary && (rule.Prefix != "" || rule.Param != "") {
			v.Add("rules[%d].prefix and param are only valid for boundary", i)
		}
	}

	if c.Limits.MaxStates < 0 {
		v.Add("limits.maxStates must be >= 0")
	}
	if c.Limits.MaxDFAStates < 0 {
		v.Add("limits.maxDFAStates must be >= 0")
	}
	if c.Limits.MaxCapture < 0 {
		v.Add("limits.maxCapture must be >= 0")
	}

	if !isIdent(c.Output.Package) {
		v.Add("output.package %q is not a valid package name", c.Output.Package)
	}
	switch c.Output.Layout {
	case LayoutRanges, LayoutClasses:
	default:
		v.Add("output.layout must be ranges|classes")
	}
	for field, name := range map[string]string{"interface": c.Output.Interface, "implementation": c.Output.Implementation} {
		if !strings.HasSuffix(name, ".go") {
			v.Add("output.%s must name a .go file", field)
		}
	}
	if c.Output.Interface == c.Output.Implementation {
		v.Add("output.interface and output.implementation must differ")
	}
	if c.Output.Dir != "" {
		if err := ensureWritable(c.resolvePath(c.Output.Dir)); err != nil {
			v.Add("output.dir invalid: %v", err)
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		v.Add("logging.level must be debug|info|warn|error")
	}
	switch c.Logging.Format {
	case FormatText, FormatJSON:
	default:
		v.Add("logging.format must be text|json")
	}

	if c.Metrics.Enabled {
		if err := validateListen(c.Metrics.Listen); err != nil {
			v.Add("metrics.listen invalid: %v", err)
		}
	}

	if len(v.Problems) > 0 {
		sort.Strings(v.Problems)
		return v
	}
	return nil
}

func validateListen(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return errors.New("address is required")
	}
	if _, err := net.ResolveTCPAddr("tcp", addr); err != nil {
		return err
	}
	return nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c == '_':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func ensureWritable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	file, err := os.CreateTemp(dir, "gen-automata-validate-*")
	if err != nil {
		return err
	}
	name := file.Name()
	if err := file.Close(); err != nil {
		return err
	}
	return os.Remove(filepath.Clean(name))
}
