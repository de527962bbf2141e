package automaton

import (
	"sort"
	"strconv"
	"strings"
)

// DefaultMaxDFAStates bounds subset construction before minimization.
const DefaultMaxDFAStates = 1 << 16

// Range sends every byte in [Lo, Hi] to Next.
type Range struct {
	Lo, Hi byte
	Next   int
}

// DState is one DFA state. Ranges are sorted and never overlap; a byte with
// no range is rejected.
type DState struct {
	Ranges  []Range
	Action  int
	Capture bool
	Clear   bool
}

type DFA struct {
	States  []DState
	Start   int
	Actions []Action
}

func (d *DFA) Len() int { return len(d.States) }

// Next returns the state reached from s on c, or -1.
func (d *DFA) Next(s int, c byte) int {
	return lookup(d.States[s].Ranges, c)
}

func lookup(ranges []Range, c byte) int {
	i := sort.Search(len(ranges), func(i int) bool { return ranges[i].Hi >= c })
	if i < len(ranges) && ranges[i].Lo <= c {
		return ranges[i].Next
	}
	return -1
}

// Determinize runs subset construction. States are numbered in discovery
// order, which is breadth first from the start state in byte order.
func Determinize(n *NFA, maxStates int) (*DFA, error) {
	if maxStates <= 0 {
		maxStates = DefaultMaxDFAStates
	}

	d := &DFA{Actions: n.Actions()}
	index := map[string]int{}
	var sets [][]int

	add := func(set []int) (int, error) {
		key := setKey(set)
		if id, ok := index[key]; ok {
			return id, nil
		}
		id := len(d.States)
		if id >= maxStates {
			return 0, &LimitError{Stage: "subset construction", States: id + 1, Limit: maxStates}
		}
		state, err := n.attributes(set, id)
		if err != nil {
			return 0, err
		}
		index[key] = id
		sets = append(sets, set)
		d.States = append(d.States, state)
		return id, nil
	}

	start, err := add(n.closure([]int{n.start}))
	if err != nil {
		return nil, err
	}
	d.Start = start

	for cur := 0; cur < len(sets); cur++ {
		set := sets[cur]
		var ranges []Range
		for _, iv := range n.intervals(set) {
			targets := n.step(set, iv[0])
			if len(targets) == 0 {
				continue
			}
			next, err := add(n.closure(targets))
			if err != nil {
				return nil, err
			}
			ranges = appendRange(ranges, Range{Lo: iv[0], Hi: iv[1], Next: next})
		}
		d.States[cur].Ranges = ranges
	}

	return d, nil
}

// intervals splits the byte alphabet at every edge boundary of set, so each
// interval is handled identically by every member.
func (n *NFA) intervals(set []int) [][2]byte {
	var cut [257]bool
	cut[0] = true
	cut[256] = true
	mark := func(edges []Edge) {
		for _, e := range edges {
			cut[e.Lo] = true
			cut[int(e.Hi)+1] = true
		}
	}
	for _, s := range set {
		mark(n.states[s].edges)
		mark(n.states[s].fallback)
	}

	var out [][2]byte
	lo := 0
	for c := 1; c <= 256; c++ {
		if cut[c] {
			out = append(out, [2]byte{byte(lo), byte(c - 1)})
			lo = c
		}
	}
	return out
}

// attributes merges the flags and actions of the members of a DFA state.
func (n *NFA) attributes(set []int, id int) (DState, error) {
	state := DState{Action: -1}
	var actions []int
	for _, s := range set {
		st := n.states[s]
		state.Capture = state.Capture || st.capture
		state.Clear = state.Clear || st.clear
		if st.action >= 0 && !containsInt(actions, st.action) {
			actions = append(actions, st.action)
		}
	}

	switch len(actions) {
	case 0:
	case 1:
		state.Action = actions[0]
	default:
		sort.Ints(actions)
		labels := make([]string, len(actions))
		for i, a := range actions {
			labels[i] = n.actions[a].Label()
		}
		return DState{}, &AmbiguousGrammarError{Rules: labels, State: id}
	}
	return state, nil
}

func appendRange(ranges []Range, r Range) []Range {
	if last := len(ranges) - 1; last >= 0 {
		prev := ranges[last]
		if prev.Next == r.Next && int(prev.Hi)+1 == int(r.Lo) {
			ranges[last].Hi = r.Hi
			return ranges
		}
	}
	return append(ranges, r)
}

func setKey(set []int) string {
	var b strings.Builder
	buf := make([]byte, 0, 8)
	for i, s := range set {
		if i > 0 {
			b.WriteByte(',')
		}
		buf = strconv.AppendInt(buf[:0], int64(s), 10)
		b.Write(buf)
	}
	return b.String()
}

func sortedKeys(m map[int]bool) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
