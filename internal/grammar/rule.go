package grammar

import (
	"errors"
	"fmt"
	"strings"
)

// Structure names the start-line grammar the header rules are compiled against.
type Structure string

const (
	StructureRequest  Structure = "request"
	StructureResponse Structure = "response"
)

// Actions fired by the start line and the end of the header block. Rule
// names may not reuse them.
const (
	ActionMethod       = "Method"
	ActionTarget       = "Target"
	ActionVersion      = "Version"
	ActionStatus       = "Status"
	ActionEndOfHeaders = "EndOfHeaders"
)

var reservedActions = map[string]struct{}{
	ActionMethod:       {},
	ActionTarget:       {},
	ActionVersion:      {},
	ActionStatus:       {},
	ActionEndOfHeaders: {},
}

// RuleSpec is one matchable unit: the action it fires, how the value is
// matched and whether matched bytes are surfaced.
type RuleSpec struct {
	Name    string
	Kind    MatcherKind
	Capture bool
}

// Rule binds a RuleSpec to the header it applies to.
type Rule struct {
	Header string
	Spec   RuleSpec
}

// Key is the case-folded header name.
func (r Rule) Key() string {
	return strings.ToLower(r.Header)
}

func (s RuleSpec) validate() error {
	if s.Name == "" {
		return errors.New("rule name is required")
	}
	if !isIdentifier(s.Name) {
		return fmt.Errorf("rule name %q must start with a letter and contain only letters and digits", s.Name)
	}
	if s.Kind == nil {
		return errors.New("matcher kind is required")
	}

	switch k := s.Kind.(type) {
	case Presence:
		if s.Capture {
			return errors.New("presence rules cannot capture")
		}
	case TokenSet:
		if len(k.Values) == 0 {
			return errors.New("token_set requires at least one value")
		}
		for _, v := range k.Values {
			if v == "" {
				return errors.New("token_set values cannot be empty")
			}
			if strings.ContainsAny(v, " \t\r\n,;") {
				return fmt.Errorf("token_set value %q contains a delimiter", v)
			}
		}
	case Boundary:
		prefix := k.PrefixOrDefault()
		if strings.ContainsAny(prefix, "\r\n;") {
			return fmt.Errorf("boundary prefix %q contains a delimiter", prefix)
		}
		if !IsToken(k.ParamOrDefault()) {
			return fmt.Errorf("boundary param %q is not a token", k.ParamOrDefault())
		}
	}
	return nil
}

func isIdentifier(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}

// IsTokenByte reports whether c is an RFC 9110 tchar.
func IsTokenByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0
}

// IsToken reports whether s is a non-empty token.
func IsToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !IsTokenByte(s[i]) {
			return false
		}
	}
	return true
}
