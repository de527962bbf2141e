package automaton

import (
	"errors"

	"github.com/nhttp/gen-automata/internal/grammar"
)

var (
	requestMethods = []string{"GET", "HEAD", "POST", "PUT", "DELETE", "CONNECT", "OPTIONS", "TRACE", "PATCH"}
	httpVersions   = []string{"HTTP/1.0", "HTTP/1.1"}
)

type constructor struct {
	n *NFA

	hub         int
	lineCR      int
	unknownName int
	skipValue   int
}

// BuildNFA expands the grammar into one NFA: the start line, then a header
// hub that every rule fragment hangs off through an epsilon edge.
func BuildNFA(g *grammar.Grammar) (*NFA, error) {
	if g == nil {
		return nil, errors.New("grammar is required")
	}

	n := newNFA()
	c := &constructor{n: n}

	n.start = n.newState()
	n.states[n.start].clear = true
	c.hub = n.newState()
	n.states[c.hub].clear = true
	c.lineCR = n.newState()
	c.unknownName = n.newState()
	c.skipValue = n.newState()

	n.byteEdge(c.lineCR, '\n', c.hub)
	n.edge(c.unknownName, tokenChars, c.unknownName)
	n.byteEdge(c.unknownName, ':', c.skipValue)
	n.edge(c.skipValue, valueChars, c.skipValue)
	n.byteEdge(c.skipValue, '\r', c.lineCR)

	n.fallbackEdge(c.hub, tokenChars, c.unknownName)
	hubCR := n.newState()
	n.byteEdge(c.hub, '\r', hubCR)
	done := n.tagged(Action{Name: grammar.ActionEndOfHeaders, Value: -1})
	n.byteEdge(hubCR, '\n', done)

	switch g.Structure() {
	case grammar.StructureRequest:
		c.requestLine()
	case grammar.StructureResponse:
		c.statusLine()
	default:
		return nil, errors.New("unknown structure " + string(g.Structure()))
	}

	byHeader := make(map[string]grammar.Rule)
	for _, rule := range g.Rules() {
		if prev, ok := byHeader[rule.Key()]; ok {
			return nil, &AmbiguousGrammarError{
				Rules:  []string{prev.Spec.Name, rule.Spec.Name},
				Header: rule.Header,
				State:  -1,
			}
		}
		byHeader[rule.Key()] = rule
		c.rule(rule)
	}

	return n, nil
}

func (c *constructor) requestLine() {
	n := c.n
	target := n.newState()
	n.states[target].clear = true

	for i, method := range requestMethods {
		end, _ := c.chain(n.start, method, false, false)
		t := n.tagged(Action{Name: grammar.ActionMethod, Value: i, Token: method})
		n.byteEdge(end, ' ', t)
		n.epsilon(t, target)
	}

	chars := n.newState()
	n.states[chars].capture = true
	n.edge(target, visibleChars, chars)
	n.edge(chars, visibleChars, chars)
	targetDone := n.tagged(Action{Name: grammar.ActionTarget, Value: -1})
	n.byteEdge(chars, ' ', targetDone)

	for i, version := range httpVersions {
		end, _ := c.chain(targetDone, version, false, false)
		t := n.tagged(Action{Name: grammar.ActionVersion, Value: i, Token: version})
		n.byteEdge(end, '\r', t)
		n.byteEdge(t, '\n', c.hub)
	}
}

func (c *constructor) statusLine() {
	n := c.n
	digits := [3]int{n.newState(), n.newState(), n.newState()}
	for i, d := range digits {
		n.states[d].capture = true
		if i > 0 {
			n.edge(digits[i-1], digitChars, d)
		}
	}

	for i, version := range httpVersions {
		end, _ := c.chain(n.start, version, false, false)
		t := n.tagged(Action{Name: grammar.ActionVersion, Value: i, Token: version})
		n.byteEdge(end, ' ', t)
		n.edge(t, digitChars, digits[0])
	}

	status := Action{Name: grammar.ActionStatus, Value: -1}
	withReason := n.tagged(status)
	n.byteEdge(digits[2], ' ', withReason)
	bare := n.tagged(status)
	n.byteEdge(digits[2], '\r', bare)
	n.byteEdge(bare, '\n', c.hub)

	reason := n.newState()
	n.edge(withReason, valueChars, reason)
	n.edge(reason, valueChars, reason)
	n.byteEdge(withReason, '\r', c.lineCR)
	n.byteEdge(reason, '\r', c.lineCR)
}

func (c *constructor) rule(r grammar.Rule) {
	n := c.n
	entry := n.newState()
	n.epsilon(c.hub, entry)

	cur := entry
	for i := 0; i < len(r.Header); i++ {
		next := n.newState()
		foldEdge(n, cur, r.Header[i], next, true)
		n.fallbackEdge(next, tokenChars, c.unknownName)
		n.fallbackEdge(next, setOf(":"), c.skipValue)
		cur = next
	}

	value := n.newState()
	n.states[value].clear = true
	n.byteEdge(cur, ':', value)

	act := Action{Name: r.Spec.Name, Header: r.Header, Value: -1}
	switch k := r.Spec.Kind.(type) {
	case grammar.HeaderValue:
		c.headerValue(value, act, r.Spec.Capture)
	case grammar.ContentLength:
		c.contentLength(value, act, r.Spec.Capture)
	case grammar.EntityTag:
		c.entityTag(value, act, r.Spec.Capture)
	case grammar.Boundary:
		c.boundary(value, act, r.Spec.Capture, k)
	case grammar.TokenSet:
		c.tokenSet(value, act, r.Spec.Capture, k)
	case grammar.Presence:
		c.presence(value, act)
	}
}

func (c *constructor) headerValue(vs int, act Action, capture bool) {
	n := c.n
	n.edge(vs, owsChars, vs)

	v := n.newState()
	n.states[v].capture = capture
	n.edge(vs, visibleChars, v)
	n.edge(v, valueChars, v)

	t := n.tagged(act)
	n.byteEdge(vs, '\r', t)
	n.byteEdge(v, '\r', t)
	n.byteEdge(t, '\n', c.hub)
}

// contentLength has no fallback: anything but digits and OWS is malformed.
func (c *constructor) contentLength(vs int, act Action, capture bool) {
	n := c.n
	n.edge(vs, owsChars, vs)

	d := n.newState()
	n.states[d].capture = capture
	n.edge(vs, digitChars, d)
	n.edge(d, digitChars, d)

	atCR := n.tagged(act)
	n.byteEdge(d, '\r', atCR)
	n.byteEdge(atCR, '\n', c.hub)

	atOWS := n.tagged(act)
	n.edge(d, owsChars, atOWS)
	trailing := n.newState()
	n.epsilon(atOWS, trailing)
	n.edge(trailing, owsChars, trailing)
	n.byteEdge(trailing, '\r', c.lineCR)
}

// list holds the shared states of a comma separated value list.
type list struct {
	start int
	skip  int
	ows   int
	param int
}

func (c *constructor) newList(start int, params bool) list {
	n := c.n
	l := list{start: start, skip: n.newState(), ows: n.newState(), param: -1}

	n.edge(start, owsChars, start)

	n.edge(l.skip, valueChars.without(","), l.skip)
	n.byteEdge(l.skip, ',', start)
	n.byteEdge(l.skip, '\r', c.lineCR)

	n.edge(l.ows, owsChars, l.ows)
	n.byteEdge(l.ows, ',', start)
	n.byteEdge(l.ows, '\r', c.lineCR)

	if params {
		l.param = n.newState()
		n.edge(l.param, valueChars.without(","), l.param)
		n.byteEdge(l.param, ',', start)
		n.byteEdge(l.param, '\r', c.lineCR)
		n.byteEdge(l.ows, ';', l.param)
	}

	c.elementFallback(l, start)
	c.elementFallback(l, l.ows)
	return l
}

// elementFallback sends an element that stopped matching to the skip state.
func (c *constructor) elementFallback(l list, s int) {
	n := c.n
	n.fallbackEdge(s, valueChars.without(","), l.skip)
	n.fallbackEdge(s, setOf(","), l.start)
	n.fallbackEdge(s, setOf("\r"), c.lineCR)
}

// terminate fires act when an element ending at end is followed by a delimiter.
func (c *constructor) terminate(l list, end int, act Action) {
	n := c.n

	comma := n.tagged(act)
	n.byteEdge(end, ',', comma)
	n.epsilon(comma, l.start)

	ows := n.tagged(act)
	n.edge(end, owsChars, ows)
	n.epsilon(ows, l.ows)

	cr := n.tagged(act)
	n.byteEdge(end, '\r', cr)
	n.byteEdge(cr, '\n', c.hub)

	if l.param >= 0 {
		semi := n.tagged(act)
		n.byteEdge(end, ';', semi)
		n.epsilon(semi, l.param)
	}
}

func (c *constructor) tokenSet(vs int, act Action, capture bool, k grammar.TokenSet) {
	l := c.newList(vs, true)
	for i, value := range k.Values {
		end, nodes := c.chain(vs, value, true, capture)
		for _, s := range nodes {
			c.elementFallback(l, s)
		}
		a := act
		a.Value = i
		a.Token = value
		c.terminate(l, end, a)
	}
}

func (c *constructor) entityTag(vs int, act Action, capture bool) {
	n := c.n
	l := c.newList(vs, false)

	element := func() int {
		s := n.newState()
		n.states[s].capture = capture
		c.elementFallback(l, s)
		return s
	}

	star := element()
	n.byteEdge(vs, '*', star)

	weak := element()
	weakSlash := element()
	n.byteEdge(vs, 'W', weak)
	n.byteEdge(weak, '/', weakSlash)

	opaque := element()
	n.byteEdge(vs, '"', opaque)
	n.byteEdge(weakSlash, '"', opaque)
	n.edge(opaque, etagChars, opaque)

	closed := element()
	n.byteEdge(opaque, '"', closed)

	c.terminate(l, star, act)
	c.terminate(l, closed, act)
}

func (c *constructor) boundary(vs int, act Action, capture bool, k grammar.Boundary) {
	n := c.n
	n.edge(vs, owsChars, vs)
	c.skipLine(vs)

	prefixEnd, nodes := c.chain(vs, k.PrefixOrDefault(), true, false)
	for _, s := range nodes {
		c.skipLine(s)
	}

	params := n.newState()
	n.edge(params, owsChars, params)

	afterPrefix := n.newState()
	for _, s := range []int{prefixEnd, afterPrefix} {
		n.edge(s, owsChars, afterPrefix)
		n.byteEdge(s, ';', params)
		n.byteEdge(s, '\r', c.lineCR)
		c.skipLine(s)
	}

	otherName := n.newState()
	otherValue := n.newState()
	n.edge(otherName, tokenChars, otherName)
	n.byteEdge(otherName, '=', otherValue)
	n.edge(otherValue, valueChars.without(";"), otherValue)
	n.byteEdge(otherValue, ';', params)
	n.byteEdge(otherValue, '\r', c.lineCR)
	c.skipLine(otherName)

	paramFallback := func(s int) {
		n.fallbackEdge(s, tokenChars, otherName)
		n.fallbackEdge(s, setOf("="), otherValue)
		n.fallbackEdge(s, valueChars.minus(tokenChars).without("="), c.skipValue)
		n.fallbackEdge(s, setOf("\r"), c.lineCR)
	}
	paramFallback(params)

	nameEnd, nameNodes := c.chain(params, k.ParamOrDefault(), true, false)
	for _, s := range nameNodes {
		paramFallback(s)
	}

	value := n.newState()
	n.states[value].clear = true
	n.byteEdge(nameEnd, '=', value)
	c.skipLine(value)

	after := n.newState()
	n.edge(after, owsChars, after)
	n.byteEdge(after, ';', params)
	n.byteEdge(after, '\r', c.lineCR)
	c.skipLine(after)

	quoted := valueChars.without(`"`)
	open := n.newState()
	n.byteEdge(value, '"', open)
	inQuotes := n.newState()
	n.states[inQuotes].capture = capture
	n.edge(open, quoted, inQuotes)
	n.edge(inQuotes, quoted, inQuotes)
	c.skipLine(open)
	c.skipLine(inQuotes)
	closeQuote := n.tagged(act)
	n.byteEdge(inQuotes, '"', closeQuote)
	n.epsilon(closeQuote, after)

	bare := valueChars.without(" \t;,\"")
	chars := n.newState()
	n.states[chars].capture = capture
	n.edge(value, bare, chars)
	n.edge(chars, bare, chars)
	c.skipLine(chars)

	atCR := n.tagged(act)
	n.byteEdge(chars, '\r', atCR)
	n.byteEdge(atCR, '\n', c.hub)

	atSemi := n.tagged(act)
	n.byteEdge(chars, ';', atSemi)
	n.epsilon(atSemi, params)

	atComma := n.tagged(act)
	n.byteEdge(chars, ',', atComma)
	n.epsilon(atComma, c.skipValue)

	atOWS := n.tagged(act)
	n.edge(chars, owsChars, atOWS)
	n.epsilon(atOWS, after)
}

func (c *constructor) presence(vs int, act Action) {
	n := c.n
	rest := n.newState()
	n.edge(vs, valueChars, rest)
	n.edge(rest, valueChars, rest)

	t := n.tagged(act)
	n.byteEdge(vs, '\r', t)
	n.byteEdge(rest, '\r', t)
	n.byteEdge(t, '\n', c.hub)
}

// skipLine lets a lenient matcher give up on the value without an event.
func (c *constructor) skipLine(s int) {
	c.n.fallbackEdge(s, valueChars, c.skipValue)
	c.n.fallbackEdge(s, setOf("\r"), c.lineCR)
}

// chain appends one state per byte of word. With fold set, ASCII letters
// accept both cases and converge on the same next state.
func (c *constructor) chain(from int, word string, fold, capture bool) (int, []int) {
	nodes := make([]int, 0, len(word))
	cur := from
	for i := 0; i < len(word); i++ {
		next := c.n.newState()
		c.n.states[next].capture = capture
		foldEdge(c.n, cur, word[i], next, fold)
		nodes = append(nodes, next)
		cur = next
	}
	return cur, nodes
}

func foldEdge(n *NFA, from int, c byte, to int, fold bool) {
	switch {
	case fold && c >= 'a' && c <= 'z':
		n.byteEdge(from, c, to)
		n.byteEdge(from, c-'a'+'A', to)
	case fold && c >= 'A' && c <= 'Z':
		n.byteEdge(from, c-'A'+'a', to)
		n.byteEdge(from, c, to)
	default:
		n.byteEdge(from, c, to)
	}
}
