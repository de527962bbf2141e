package automaton

// Event is one match: the action that fired, the captured bytes and the
// offset of the byte that completed it.
type Event struct {
	Action int
	Value  string
	Offset int
}

// Run feeds input through d. It stops at a state without transitions and
// returns the number of bytes consumed; ok is false when a byte was rejected.
// Capture size is not bounded here.
func (d *DFA) Run(input []byte) (events []Event, n int, ok bool) {
	state := d.Start
	var buf []byte
	for i, c := range input {
		if len(d.States[state].Ranges) == 0 {
			return events, i, true
		}
		next := d.Next(state, c)
		if next < 0 {
			return events, i, false
		}
		st := d.States[next]
		events, buf = apply(events, buf, st.Action, st.Clear, st.Capture, c, i)
		state = next
	}
	return events, len(input), true
}

// SimulateNFA is the reference for Run: it tracks the full set of active NFA
// states instead of a DFA state. An ambiguous set is reported with State set
// to the input offset.
func SimulateNFA(n *NFA, input []byte) (events []Event, consumed int, ok bool, err error) {
	set := n.closure([]int{n.start})
	var buf []byte
	for i, c := range input {
		if n.terminal(set) {
			return events, i, true, nil
		}
		targets := n.step(set, c)
		if len(targets) == 0 {
			return events, i, false, nil
		}
		set = n.closure(targets)
		st, err := n.attributes(set, i)
		if err != nil {
			return events, i, false, err
		}
		events, buf = apply(events, buf, st.Action, st.Clear, st.Capture, c, i)
	}
	return events, len(input), true, nil
}

func (n *NFA) terminal(set []int) bool {
	for _, s := range set {
		if len(n.states[s].edges) > 0 || len(n.states[s].fallback) > 0 {
			return false
		}
	}
	return true
}

// apply performs the per-byte effects of entering a state: emit, then clear,
// then capture.
func apply(events []Event, buf []byte, action int, clear, capture bool, c byte, offset int) ([]Event, []byte) {
	if action >= 0 {
		events = append(events, Event{Action: action, Value: string(buf), Offset: offset})
		buf = buf[:0]
	}
	if clear {
		buf = buf[:0]
	}
	if capture {
		buf = append(buf, c)
	}
	return events, buf
}
