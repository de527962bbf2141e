package config

import (
	"fmt"
	"sort"

	"github.com/nhttp/gen-automata/internal/grammar"
)

func (r Rule) matcher() (grammar.MatcherKind, error) {
	return grammar.ParseKind(r.Kind, grammar.KindOptions{
		Values: r.Values,
		Prefix: r.Prefix,
		Param:  r.Param,
	})
}

// BuildGrammar turns the rules section into a compiled-ready grammar,
// starting from the built-in rule set when one is named.
func (c *Config) BuildGrammar() (*grammar.Grammar, error) {
	b := grammar.NewBuilder(c.Grammar.Structure)

	if c.Grammar.Builtin == grammar.NHTTPName {
		builtin := grammar.NHTTPRules()
		headers := make([]string, 0, len(builtin))
		for header := range builtin {
			headers = append(headers, header)
		}
		sort.Strings(headers)
		for _, header := range headers {
			b.Add(header, builtin[header])
		}
	}

	for i, rule := range c.Rules {
		kind, err := rule.matcher()
		if err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
		b.Add(rule.Header, grammar.RuleSpec{Name: rule.Name, Kind: kind, Capture: rule.Capture})
	}

	g, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("grammar %s: %w", c.Grammar.Name, err)
	}
	return g, nil
}
