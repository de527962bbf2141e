package automaton

import (
	"strconv"
	"strings"
)

// TableState locates a state's ranges in Table.Ranges.
type TableState struct {
	Action  int
	Capture bool
	Clear   bool
	First   int
	Count   int
}

// Table is a flattened DFA: what the emitter writes out and what
// stream.Parser interprets.
type Table struct {
	Start   int
	States  []TableState
	Ranges  []Range
	Actions []Action
}

func NewTable(d *DFA) *Table {
	t := &Table{Start: d.Start, Actions: append([]Action(nil), d.Actions...)}
	for _, s := range d.States {
		t.States = append(t.States, TableState{
			Action:  s.Action,
			Capture: s.Capture,
			Clear:   s.Clear,
			First:   len(t.Ranges),
			Count:   len(s.Ranges),
		})
		t.Ranges = append(t.Ranges, s.Ranges...)
	}
	return t
}

// Next returns the state reached from s on c, or -1.
func (t *Table) Next(s int, c byte) int {
	st := t.States[s]
	return lookup(t.Ranges[st.First:st.First+st.Count], c)
}

// Terminal reports whether s has no outgoing transitions.
func (t *Table) Terminal(s int) bool {
	return t.States[s].Count == 0
}

// ByteClasses groups bytes that every state treats the same way, so a dense
// table needs one column per class instead of 256.
type ByteClasses struct {
	Map   [256]int
	Count int
	Next  []int
}

func (t *Table) Classes() ByteClasses {
	var bc ByteClasses
	index := map[string]int{}
	buf := make([]byte, 0, 16)
	for c := 0; c < 256; c++ {
		var key strings.Builder
		for s := range t.States {
			buf = strconv.AppendInt(buf[:0], int64(t.Next(s, byte(c))), 10)
			key.Write(buf)
			key.WriteByte(',')
		}
		id, ok := index[key.String()]
		if !ok {
			id = len(index)
			index[key.String()] = id
		}
		bc.Map[c] = id
	}
	bc.Count = len(index)

	bc.Next = make([]int, len(t.States)*bc.Count)
	for i := range bc.Next {
		bc.Next[i] = -1
	}
	for s := range t.States {
		for c := 0; c < 256; c++ {
			bc.Next[s*bc.Count+bc.Map[c]] = t.Next(s, byte(c))
		}
	}
	return bc
}
