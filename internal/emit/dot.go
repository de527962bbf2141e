package emit

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/nhttp/gen-automata/internal/automaton"
)

// Dot writes t as a Graphviz digraph. Ranges leading to the same state are
// folded into one edge.
//
//	dot -Tsvg head.dot > head.svg
func Dot(t *automaton.Table, w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "digraph head {\n")
	fmt.Fprintf(bw, "  graph [rankdir=LR,nodesep=0.3,ranksep=0.6]\n")
	fmt.Fprintf(bw, "  node [shape=\"circle\" style=\"filled\" fillcolor=\"#99ddc8\" fontsize=\"10\"]\n")
	fmt.Fprintf(bw, "  edge [fontsize=\"9\"]\n")

	for i, s := range t.States {
		label := fmt.Sprintf("%d", i)
		if s.Action >= 0 {
			label += "\\n" + escape(t.Actions[s.Action].Label())
		}
		var attrs []string
		if s.Action >= 0 {
			attrs = append(attrs, `fillcolor="#2d93ad"`)
		}
		if s.Capture {
			attrs = append(attrs, `color="red"`)
		}
		if s.Count == 0 {
			attrs = append(attrs, `shape="doublecircle"`)
		}
		if i == t.Start {
			attrs = append(attrs, `style="filled,bold"`)
		}
		attrs = append(attrs, fmt.Sprintf("label=\"%s\"", label))
		fmt.Fprintf(bw, "  s%d [%s]\n", i, strings.Join(attrs, " "))
	}

	for i, s := range t.States {
		var order []int
		labels := map[int][]string{}
		for _, r := range t.Ranges[s.First : s.First+s.Count] {
			if _, ok := labels[r.Next]; !ok {
				order = append(order, r.Next)
			}
			labels[r.Next] = append(labels[r.Next], rangeLabel(r))
		}
		for _, next := range order {
			fmt.Fprintf(bw, "  s%d -> s%d [label=\"%s\"]\n", i, next, escape(strings.Join(labels[next], " ")))
		}
	}

	fmt.Fprintf(bw, "}\n")
	return bw.Flush()
}

func rangeLabel(r automaton.Range) string {
	if r.Lo == r.Hi {
		return byteLabel(r.Lo)
	}
	return byteLabel(r.Lo) + "-" + byteLabel(r.Hi)
}

func byteLabel(c byte) string {
	switch c {
	case '\r':
		return `\r`
	case '\n':
		return `\n`
	case ' ':
		return "SP"
	case '\t':
		return "HT"
	}
	if c > 0x20 && c < 0x7f {
		return string(c)
	}
	return fmt.Sprintf("0x%02x", c)
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
