package automaton

import "fmt"

// Action identifies what fired: a rule, optionally narrowed to one of its
// enumerated values.
type Action struct {
	Name   string
	Header string
	Value  int
	Token  string
}

// Label is the human readable form used in diagnostics and generated code comments.
func (a Action) Label() string {
	if a.Value < 0 {
		return a.Name
	}
	return fmt.Sprintf("%s=%s", a.Name, a.Token)
}

// Edge consumes one byte in [Lo, Hi] and moves to To.
type Edge struct {
	Lo, Hi byte
	To     int
}

type nfaState struct {
	edges    []Edge
	fallback []Edge
	eps      []int
	action   int
	capture  bool
	clear    bool
}

// NFA is an arena of states indexed by int.
//
// Fallback edges are taken only when no ordinary edge of any active state
// consumes the byte. They let unknown header names and unmatched values
// continue without being ambiguous with the named rules.
type NFA struct {
	states  []nfaState
	start   int
	actions []Action
	index   map[Action]int
}

func newNFA() *NFA {
	return &NFA{index: map[Action]int{}}
}

func (n *NFA) Len() int { return len(n.states) }

func (n *NFA) Start() int { return n.start }

func (n *NFA) Actions() []Action { return append([]Action(nil), n.actions...) }

func (n *NFA) newState() int {
	n.states = append(n.states, nfaState{action: -1})
	return len(n.states) - 1
}

func (n *NFA) edge(from int, set charset, to int) {
	for _, r := range set.ranges() {
		n.states[from].edges = append(n.states[from].edges, Edge{Lo: r[0], Hi: r[1], To: to})
	}
}

func (n *NFA) byteEdge(from int, c byte, to int) {
	n.states[from].edges = append(n.states[from].edges, Edge{Lo: c, Hi: c, To: to})
}

func (n *NFA) fallbackEdge(from int, set charset, to int) {
	for _, r := range set.ranges() {
		n.states[from].fallback = append(n.states[from].fallback, Edge{Lo: r[0], Hi: r[1], To: to})
	}
}

func (n *NFA) epsilon(from, to int) {
	n.states[from].eps = append(n.states[from].eps, to)
}

func (n *NFA) tag(state int, a Action) {
	id, ok := n.index[a]
	if !ok {
		id = len(n.actions)
		n.actions = append(n.actions, a)
		n.index[a] = id
	}
	n.states[state].action = id
}

// tagged returns a fresh state firing a when entered.
func (n *NFA) tagged(a Action) int {
	s := n.newState()
	n.tag(s, a)
	return s
}

func (n *NFA) closure(seed []int) []int {
	seen := make(map[int]bool, len(seed))
	stack := append([]int(nil), seed...)
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[s] {
			continue
		}
		seen[s] = true
		stack = append(stack, n.states[s].eps...)
	}
	return sortedKeys(seen)
}

// step returns the states reached from set on c, before closure.
func (n *NFA) step(set []int, c byte) []int {
	var out []int
	for _, s := range set {
		for _, e := range n.states[s].edges {
			if e.Lo <= c && c <= e.Hi {
				out = append(out, e.To)
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, s := range set {
		for _, e := range n.states[s].fallback {
			if e.Lo <= c && c <= e.Hi {
				out = append(out, e.To)
			}
		}
	}
	return out
}
