package automaton

import (
	"strconv"
	"strings"
)

// Minimize merges states that have the same action, flags and, for every
// byte, equivalent targets. Classes start from (action, capture, clear) and
// are split until no class changes. The result is numbered canonically, so
// minimizing a minimal DFA returns an identical DFA.
func Minimize(d *DFA) *DFA {
	d = Canonical(d)

	class := make([]int, len(d.States))
	initial := map[string]int{}
	for i, s := range d.States {
		key := strconv.Itoa(s.Action) + "/" + strconv.FormatBool(s.Capture) + "/" + strconv.FormatBool(s.Clear)
		id, ok := initial[key]
		if !ok {
			id = len(initial)
			initial[key] = id
		}
		class[i] = id
	}
	count := len(initial)

	for {
		next := make([]int, len(d.States))
		index := map[string]int{}
		for i, s := range d.States {
			key := signature(class[i], s.Ranges, class)
			id, ok := index[key]
			if !ok {
				id = len(index)
				index[key] = id
			}
			next[i] = id
		}
		if len(index) == count {
			break
		}
		class, count = next, len(index)
	}

	states := make([]DState, count)
	seen := make([]bool, count)
	for i, s := range d.States {
		c := class[i]
		if seen[c] {
			continue
		}
		seen[c] = true
		var ranges []Range
		for _, r := range s.Ranges {
			ranges = appendRange(ranges, Range{Lo: r.Lo, Hi: r.Hi, Next: class[r.Next]})
		}
		states[c] = DState{Ranges: ranges, Action: s.Action, Capture: s.Capture, Clear: s.Clear}
	}

	return Canonical(&DFA{States: states, Start: class[d.Start], Actions: d.Actions})
}

func signature(own int, ranges []Range, class []int) string {
	var merged []Range
	for _, r := range ranges {
		merged = appendRange(merged, Range{Lo: r.Lo, Hi: r.Hi, Next: class[r.Next]})
	}

	var b strings.Builder
	b.WriteString(strconv.Itoa(own))
	for _, r := range merged {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(int(r.Lo)))
		b.WriteByte('-')
		b.WriteString(strconv.Itoa(int(r.Hi)))
		b.WriteByte('>')
		b.WriteString(strconv.Itoa(r.Next))
	}
	return b.String()
}

// Canonical drops states unreachable from the start state and renumbers the
// rest breadth first, visiting targets in byte order.
func Canonical(d *DFA) *DFA {
	order := []int{d.Start}
	renum := map[int]int{d.Start: 0}
	for i := 0; i < len(order); i++ {
		for _, r := range d.States[order[i]].Ranges {
			if _, ok := renum[r.Next]; !ok {
				renum[r.Next] = len(order)
				order = append(order, r.Next)
			}
		}
	}

	out := &DFA{States: make([]DState, len(order)), Start: 0, Actions: append([]Action(nil), d.Actions...)}
	for i, old := range order {
		s := d.States[old]
		ranges := make([]Range, len(s.Ranges))
		for j, r := range s.Ranges {
			ranges[j] = Range{Lo: r.Lo, Hi: r.Hi, Next: renum[r.Next]}
		}
		out.States[i] = DState{Ranges: ranges, Action: s.Action, Capture: s.Capture, Clear: s.Clear}
	}
	return out
}

// Equal reports whether both automata have identical numbering, transitions,
// actions and flags.
func (d *DFA) Equal(o *DFA) bool {
	if d.Start != o.Start || len(d.States) != len(o.States) {
		return false
	}
	for i := range d.States {
		a, b := d.States[i], o.States[i]
		if a.Action != b.Action || a.Capture != b.Capture || a.Clear != b.Clear || len(a.Ranges) != len(b.Ranges) {
			return false
		}
		for j := range a.Ranges {
			if a.Ranges[j] != b.Ranges[j] {
				return false
			}
		}
	}
	return true
}
