package emit

import (
	"strconv"
	"strings"

	"github.com/nhttp/gen-automata/internal/automaton"
	"github.com/nhttp/gen-automata/internal/grammar"
)

// model is the table plus the Go identifiers chosen for it.
type model struct {
	table   *automaton.Table
	actions []string
	done    int
}

func newModel(t *automaton.Table) *model {
	m := &model{table: t, done: -1}
	used := map[string]bool{}
	for _, a := range t.Actions {
		id := actionIdent(a)
		base := id
		for i := 2; used[id]; i++ {
			id = base + strconv.Itoa(i)
		}
		used[id] = true
		m.actions = append(m.actions, id)
	}

	for i, s := range t.States {
		if s.Count == 0 && s.Action >= 0 && t.Actions[s.Action].Name == grammar.ActionEndOfHeaders {
			m.done = i
			break
		}
	}
	return m
}

// actionIdent builds Action<Name><Token>, e.g. ActionConnectionKeepAlive.
func actionIdent(a automaton.Action) string {
	id := "Action" + a.Name
	if a.Value >= 0 {
		id += camel(a.Token)
	}
	return id
}

func camel(s string) string {
	var b strings.Builder
	upper := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
			if upper {
				c -= 'a' - 'A'
			}
			b.WriteByte(c)
			upper = false
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
			upper = false
		default:
			upper = true
		}
	}
	return b.String()
}
