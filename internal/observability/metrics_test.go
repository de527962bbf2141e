package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nhttp/gen-automata/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	metrics.Observe(logging.BuildRecord{
		Grammar:    "nhttp",
		Result:     logging.ResultOK,
		NFAStates:  400,
		RawStates:  210,
		States:     180,
		DurationMS: 12,
	})
	metrics.Observe(logging.BuildRecord{Grammar: "nhttp", Result: logging.ResultError, ErrorKind: "ambiguous_grammar"})
	metrics.ObserveWatchEvent()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("expected metrics gather to succeed: %v", err)
	}
	found := map[string]bool{}
	for _, family := range families {
		found[family.GetName()] = true
	}
	for _, name := range []string{"genautomata_compilations_total", "genautomata_automaton_states", "genautomata_watch_events_total"} {
		if !found[name] {
			t.Fatalf("expected %s to be gathered", name)
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	metrics.Observe(logging.BuildRecord{Grammar: "nhttp", Result: logging.ResultOK, States: 7})

	path := filepath.Join(t.TempDir(), "genautomata.prom")
	if err := WriteTextfile(reg, path); err != nil {
		t.Fatalf("WriteTextfile error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `genautomata_automaton_states{grammar="nhttp",stage="minimal"} 7`) {
		t.Fatalf("unexpected textfile:\n%s", data)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Observe(logging.BuildRecord{})
	m.ObserveWatchEvent()
}
