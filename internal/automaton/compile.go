package automaton

import (
	"fmt"

	"github.com/nhttp/gen-automata/internal/grammar"
)

type Options struct {
	MaxDFAStates int
}

// Result keeps the intermediate sizes for logging and metrics next to the
// minimized automaton.
type Result struct {
	NFAStates int
	RawStates int
	DFA       *DFA
	Table     *Table
}

// Compile turns a grammar into a minimal DFA and its flattened table.
func Compile(g *grammar.Grammar, opts Options) (*Result, error) {
	nfa, err := BuildNFA(g)
	if err != nil {
		return nil, fmt.Errorf("build nfa: %w", err)
	}
	raw, err := Determinize(nfa, opts.MaxDFAStates)
	if err != nil {
		return nil, fmt.Errorf("determinize: %w", err)
	}
	min := Minimize(raw)
	return &Result{
		NFAStates: nfa.Len(),
		RawStates: raw.Len(),
		DFA:       min,
		Table:     NewTable(min),
	}, nil
}
