package automaton

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAmbiguousGrammar      = errors.New("ambiguous grammar")
	ErrEmissionLimitExceeded = errors.New("emission limit exceeded")
)

// AmbiguousGrammarError names the rules that can match the same input.
// State is -1 when the overlap was found between rules, before any DFA state
// existed.
type AmbiguousGrammarError struct {
	Rules  []string
	Header string
	State  int
}

func (e *AmbiguousGrammarError) Error() string {
	rules := strings.Join(e.Rules, ", ")
	if e.State < 0 {
		return fmt.Sprintf("ambiguous grammar: rules %s all match header %q", rules, e.Header)
	}
	return fmt.Sprintf("ambiguous grammar: DFA state %d fires %s on the same input", e.State, rules)
}

func (e *AmbiguousGrammarError) Is(target error) bool {
	return target == ErrAmbiguousGrammar
}

// LimitError reports an automaton larger than the configured ceiling.
type LimitError struct {
	Stage  string
	States int
	Limit  int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: %d states exceeds limit %d", e.Stage, e.States, e.Limit)
}

func (e *LimitError) Is(target error) bool {
	return target == ErrEmissionLimitExceeded
}
