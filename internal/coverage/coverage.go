package coverage

import (
	"errors"
	"fmt"
	"strings"

	ac "github.com/petar-dambovaliev/aho-corasick"

	"github.com/nhttp/gen-automata/internal/automaton"
	"github.com/nhttp/gen-automata/internal/grammar"
	"github.com/nhttp/gen-automata/internal/stream"
)

var errIncomplete = errors.New("header block is incomplete")

// RuleCoverage compares how often a rule's header appears in the samples
// with how often the compiled automaton fired for it.
type RuleCoverage struct {
	Rule    string `json:"rule"`
	Header  string `json:"header"`
	Present int    `json:"present"`
	Matched int    `json:"matched"`
	Events  int    `json:"events"`
}

// Silent is the number of header lines that produced no event, i.e. values
// a lenient matcher skipped.
func (c RuleCoverage) Silent() int {
	return c.Present - c.Matched
}

type SampleError struct {
	Sample string `json:"sample"`
	Error  string `json:"error"`
}

type Report struct {
	Samples  int            `json:"samples"`
	Accepted int            `json:"accepted"`
	Rejected int            `json:"rejected"`
	Rules    []RuleCoverage `json:"rules"`
	Errors   []SampleError  `json:"errors"`
}

// Analyzer finds rule header lines with a case-insensitive multi-pattern
// scan and runs the same samples through the compiled table.
type Analyzer struct {
	table      *automaton.Table
	maxCapture int
	matcher    *ac.AhoCorasick
	byName     map[string]int
	report     Report
}

func NewAnalyzer(g *grammar.Grammar, t *automaton.Table, maxCapture int) *Analyzer {
	a := &Analyzer{table: t, maxCapture: maxCapture, byName: map[string]int{}}

	rules := g.Rules()
	patterns := make([]string, 0, len(rules))
	for i, rule := range rules {
		a.report.Rules = append(a.report.Rules, RuleCoverage{Rule: rule.Spec.Name, Header: rule.Header})
		a.byName[rule.Spec.Name] = i
		patterns = append(patterns, "\n"+rule.Header+":")
	}

	if len(patterns) > 0 {
		builder := ac.NewAhoCorasickBuilder(ac.Opts{
			AsciiCaseInsensitive: true,
			MatchKind:            ac.LeftMostLongestMatch,
			DFA:                  true,
		})
		built := builder.Build(patterns)
		a.matcher = &built
	}
	return a
}

// Add parses one sample head and folds it into the report.
func (a *Analyzer) Add(name string, sample []byte) {
	a.report.Samples++

	p := stream.NewParser(a.table, a.maxCapture)
	events, n, err := p.Feed(sample)
	if err == nil && !p.Done() {
		err = errIncomplete
	}
	if err != nil {
		a.report.Rejected++
		a.report.Errors = append(a.report.Errors, SampleError{Sample: name, Error: err.Error()})
	} else {
		a.report.Accepted++
	}

	for _, e := range events {
		if i, ok := a.byName[a.table.Actions[e.Action].Name]; ok {
			a.report.Rules[i].Events++
		}
	}

	if a.matcher == nil {
		return
	}
	head := string(sample[:n])
	for _, m := range a.matcher.FindAll(head) {
		cov := &a.report.Rules[m.Pattern()]
		cov.Present++

		start := m.Start() + 1
		end := len(head)
		if i := strings.Index(head[start:], "\r\n"); i >= 0 {
			end = start + i + 2
		}
		for _, e := range events {
			if e.Offset >= start && e.Offset < end && a.table.Actions[e.Action].Name == cov.Rule {
				cov.Matched++
				break
			}
		}
	}
}

func (a *Analyzer) Report() Report {
	r := a.report
	r.Rules = append([]RuleCoverage(nil), a.report.Rules...)
	r.Errors = append([]SampleError(nil), a.report.Errors...)
	return r
}

func RenderText(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Samples: %d (accepted %d, rejected %d)\n", r.Samples, r.Accepted, r.Rejected)
	fmt.Fprintf(&b, "%-20s %-20s %8s %8s %8s %8s\n", "RULE", "HEADER", "PRESENT", "MATCHED", "SILENT", "EVENTS")
	for _, c := range r.Rules {
		fmt.Fprintf(&b, "%-20s %-20s %8d %8d %8d %8d\n", c.Rule, c.Header, c.Present, c.Matched, c.Silent(), c.Events)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "rejected %s: %s\n", e.Sample, e.Error)
	}
	return b.String()
}
