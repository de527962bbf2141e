package grammar

import (
	"fmt"
	"sort"
	"strings"
)

// Grammar is an immutable set of header rules plus the start-line structure
// they are compiled against.
type Grammar struct {
	structure Structure
	rules     []Rule
}

func (g *Grammar) Structure() Structure {
	return g.structure
}

// Rules returns the rules ordered by case-folded header name, then rule name.
func (g *Grammar) Rules() []Rule {
	return append([]Rule(nil), g.rules...)
}

type Builder struct {
	structure string
	rules     []Rule
}

func NewBuilder(structure string) *Builder {
	return &Builder{structure: structure}
}

func (b *Builder) Add(header string, spec RuleSpec) *Builder {
	b.rules = append(b.rules, Rule{Header: strings.TrimSpace(header), Spec: spec})
	return b
}

func (b *Builder) Build() (*Grammar, error) {
	structure := Structure(b.structure)
	switch structure {
	case StructureRequest, StructureResponse:
	default:
		return nil, fmt.Errorf("unknown structure %q", b.structure)
	}

	rules := append([]Rule(nil), b.rules...)
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Key() == rules[j].Key() {
			return rules[i].Spec.Name < rules[j].Spec.Name
		}
		return rules[i].Key() < rules[j].Key()
	})

	names := make(map[string]Rule, len(rules))
	headers := make(map[string]Rule, len(rules))
	for _, rule := range rules {
		if !IsToken(rule.Header) {
			return nil, fmt.Errorf("rule %s: header %q is not a token", rule.Spec.Name, rule.Header)
		}
		if err := rule.Spec.validate(); err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Header, err)
		}
		if _, reserved := reservedActions[rule.Spec.Name]; reserved {
			return nil, fmt.Errorf("rule %s: name %s is used by the %s line", rule.Header, rule.Spec.Name, structure)
		}
		if prev, ok := names[rule.Spec.Name]; ok {
			return nil, &DuplicateRuleError{
				First:  prev.Header,
				Second: rule.Header,
				Reason: fmt.Sprintf("both are named %s", rule.Spec.Name),
			}
		}
		names[rule.Spec.Name] = rule

		if prev, ok := headers[rule.Key()]; ok && prev.Spec.Kind.Name() != rule.Spec.Kind.Name() {
			return nil, &DuplicateRuleError{
				Header: rule.Header,
				First:  prev.Spec.Name,
				Second: rule.Spec.Name,
				Reason: fmt.Sprintf("incompatible matchers %s and %s", prev.Spec.Kind.Name(), rule.Spec.Kind.Name()),
			}
		}
		headers[rule.Key()] = rule
	}

	return &Grammar{structure: structure, rules: rules}, nil
}

// FromMap builds a grammar from a header name to RuleSpec mapping.
func FromMap(structure string, specs map[string]RuleSpec) (*Grammar, error) {
	headers := make([]string, 0, len(specs))
	for header := range specs {
		headers = append(headers, header)
	}
	sort.Strings(headers)

	b := NewBuilder(structure)
	for _, header := range headers {
		b.Add(header, specs[header])
	}
	return b.Build()
}
