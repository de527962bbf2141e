package stream

import "github.com/nhttp/gen-automata/internal/automaton"

// DefaultMaxCapture bounds a single captured value.
const DefaultMaxCapture = 8 << 10

// Event is one fired action. Value is a copy of the captured bytes.
type Event struct {
	Action int
	Name   string
	Value  string
	Offset int
}

// Parser runs a compiled table over input delivered in arbitrary chunks.
// Only the state, the capture buffer and the offset survive between Feed
// calls, so the events do not depend on how the input was split.
type Parser struct {
	table      *automaton.Table
	names      []string
	maxCapture int

	state  int
	buf    []byte
	offset int
	done   bool
	err    error
}

func NewParser(t *automaton.Table, maxCapture int) *Parser {
	if maxCapture <= 0 {
		maxCapture = DefaultMaxCapture
	}
	names := make([]string, len(t.Actions))
	for i, a := range t.Actions {
		names[i] = a.Label()
	}
	return &Parser{
		table:      t,
		names:      names,
		maxCapture: maxCapture,
		state:      t.Start,
	}
}

// Feed consumes chunk and returns the events it completed and the number of
// bytes consumed. It stops early once the head is complete; the remaining
// bytes belong to the body. A failed parser keeps returning its error until
// Reset.
func (p *Parser) Feed(chunk []byte) ([]Event, int, error) {
	if p.err != nil {
		return nil, 0, p.err
	}

	var events []Event
	for i, c := range chunk {
		if p.done {
			return events, i, nil
		}

		next := p.table.Next(p.state, c)
		if next < 0 {
			p.err = &ParseError{Kind: UnexpectedByte, State: p.state, Offset: p.offset, Byte: c}
			return events, i, p.err
		}

		st := p.table.States[next]
		kept := len(p.buf)
		if st.Action >= 0 || st.Clear {
			kept = 0
		}
		if st.Capture && kept >= p.maxCapture {
			p.err = &ParseError{Kind: CaptureOverflow, State: p.state, Offset: p.offset, Byte: c}
			return events, i, p.err
		}

		if st.Action >= 0 {
			events = append(events, Event{
				Action: st.Action,
				Name:   p.names[st.Action],
				Value:  string(p.buf),
				Offset: p.offset,
			})
		}
		p.buf = p.buf[:kept]
		if st.Capture {
			p.buf = append(p.buf, c)
		}

		p.state = next
		p.offset++
		p.done = p.table.Terminal(next)
	}
	return events, len(chunk), nil
}

// Reset returns the parser to the start state, keeping the buffer's memory.
func (p *Parser) Reset() {
	p.state = p.table.Start
	p.buf = p.buf[:0]
	p.offset = 0
	p.done = false
	p.err = nil
}

// Done reports whether the end of the header block has been consumed.
func (p *Parser) Done() bool {
	return p.done
}

func (p *Parser) State() int {
	return p.state
}

func (p *Parser) Offset() int {
	return p.offset
}
