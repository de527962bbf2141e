package grammar

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildSortsRules(t *testing.T) {
	g, err := NewBuilder("request").
		Add("X-Api-Key", RuleSpec{Name: "XApiKey", Kind: HeaderValue{}, Capture: true}).
		Add("Connection", RuleSpec{Name: "Connection", Kind: TokenSet{Values: []string{"close"}}}).
		Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	rules := g.Rules()
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].Header != "Connection" || rules[1].Header != "X-Api-Key" {
		t.Fatalf("unexpected order %q, %q", rules[0].Header, rules[1].Header)
	}
	if g.Structure() != StructureRequest {
		t.Fatalf("unexpected structure %q", g.Structure())
	}
}

func TestBuildDuplicateRule(t *testing.T) {
	cases := []struct {
		name string
		b    *Builder
	}{
		{
			name: "incompatible-kinds",
			b: NewBuilder("request").
				Add("Connection", RuleSpec{Name: "A", Kind: TokenSet{Values: []string{"close"}}}).
				Add("connection", RuleSpec{Name: "B", Kind: HeaderValue{}}),
		},
		{
			name: "same-rule-name",
			b: NewBuilder("request").
				Add("X-One", RuleSpec{Name: "Same", Kind: HeaderValue{}}).
				Add("X-Two", RuleSpec{Name: "Same", Kind: HeaderValue{}}),
		},
	}

	for _, tt := range cases {
		_, err := tt.b.Build()
		if !errors.Is(err, ErrDuplicateRule) {
			t.Fatalf("%s: expected ErrDuplicateRule, got %v", tt.name, err)
		}
		var dup *DuplicateRuleError
		if !errors.As(err, &dup) {
			t.Fatalf("%s: expected *DuplicateRuleError", tt.name)
		}
	}
}

func TestBuildSameKindPassesBuilder(t *testing.T) {
	_, err := NewBuilder("request").
		Add("Connection", RuleSpec{Name: "A", Kind: TokenSet{Values: []string{"close"}}}).
		Add("CONNECTION", RuleSpec{Name: "B", Kind: TokenSet{Values: []string{"keep-alive"}}}).
		Build()
	if err != nil {
		t.Fatalf("expected builder to defer overlap detection, got %v", err)
	}
}

func TestBuildValidation(t *testing.T) {
	cases := map[string]*Builder{
		"structure":     NewBuilder("status").Add("X-A", RuleSpec{Name: "A", Kind: HeaderValue{}}),
		"header-token":  NewBuilder("request").Add("X A", RuleSpec{Name: "A", Kind: HeaderValue{}}),
		"name":          NewBuilder("request").Add("X-A", RuleSpec{Name: "x-a", Kind: HeaderValue{}}),
		"kind":          NewBuilder("request").Add("X-A", RuleSpec{Name: "A"}),
		"empty-set":     NewBuilder("request").Add("X-A", RuleSpec{Name: "A", Kind: TokenSet{}}),
		"delim-in-set":  NewBuilder("request").Add("X-A", RuleSpec{Name: "A", Kind: TokenSet{Values: []string{"a,b"}}}),
		"presence-capt": NewBuilder("request").Add("X-A", RuleSpec{Name: "A", Kind: Presence{}, Capture: true}),
	}

	for name, b := range cases {
		if _, err := b.Build(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestBuildRejectsStartLineActionName(t *testing.T) {
	for _, structure := range []string{"request", "response"} {
		_, err := NewBuilder(structure).
			Add("X-Version", RuleSpec{Name: ActionVersion, Kind: HeaderValue{}}).
			Build()
		if err == nil {
			t.Fatalf("%s: expected error", structure)
		}
		if errors.Is(err, ErrDuplicateRule) {
			t.Fatalf("%s: expected a validation error, got duplicate rule %v", structure, err)
		}
		if !strings.Contains(err.Error(), "Version") {
			t.Fatalf("%s: expected the name in %q", structure, err)
		}
	}
}

func TestNHTTP(t *testing.T) {
	g, err := NHTTP()
	if err != nil {
		t.Fatalf("NHTTP error: %v", err)
	}
	if len(g.Rules()) != len(NHTTPRules()) {
		t.Fatalf("expected %d rules, got %d", len(NHTTPRules()), len(g.Rules()))
	}
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("token_set", KindOptions{Values: []string{"close"}})
	if err != nil {
		t.Fatalf("ParseKind error: %v", err)
	}
	set, ok := kind.(TokenSet)
	if !ok || len(set.Values) != 1 {
		t.Fatalf("unexpected kind %#v", kind)
	}

	if _, err := ParseKind("regex", KindOptions{}); err == nil {
		t.Fatalf("expected unknown kind error")
	}

	b := Boundary{}
	if b.PrefixOrDefault() != DefaultBoundaryPrefix || b.ParamOrDefault() != DefaultBoundaryParam {
		t.Fatalf("unexpected boundary defaults")
	}
}
