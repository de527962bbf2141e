package observability

import (
	"net/http"
	"time"

	"github.com/nhttp/gen-automata/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	compilationsTotal *prometheus.CounterVec
	compileDuration   *prometheus.HistogramVec
	automatonStates   *prometheus.GaugeVec
	artifactBytes     *prometheus.GaugeVec
	watchEventsTotal  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		compilationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "genautomata_compilations_total", Help: "Total grammar compilations"},
			[]string{"grammar", "result", "error_kind"},
		),
		compileDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "genautomata_compile_duration_seconds",
				Help:    "Grammar compilation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"grammar"},
		),
		automatonStates: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "genautomata_automaton_states", Help: "States of the last successful compilation"},
			[]string{"grammar", "stage"},
		),
		artifactBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "genautomata_artifact_bytes", Help: "Size of the last emitted artifacts"},
			[]string{"grammar", "artifact"},
		),
		watchEventsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "genautomata_watch_events_total", Help: "Grammar file changes seen by watch"},
		),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.compilationsTotal,
		m.compileDuration,
		m.automatonStates,
		m.artifactBytes,
		m.watchEventsTotal,
	)

	return m
}

func (m *Metrics) Handler(reg *prometheus.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Observe records one compilation from its build log record.
func (m *Metrics) Observe(record logging.BuildRecord) {
	if m == nil {
		return
	}

	m.compilationsTotal.WithLabelValues(record.Grammar, record.Result, record.ErrorKind).Inc()
	m.compileDuration.WithLabelValues(record.Grammar).Observe((time.Duration(record.DurationMS) * time.Millisecond).Seconds())

	if record.Result != logging.ResultOK {
		return
	}
	m.automatonStates.WithLabelValues(record.Grammar, "nfa").Set(float64(record.NFAStates))
	m.automatonStates.WithLabelValues(record.Grammar, "subset").Set(float64(record.RawStates))
	m.automatonStates.WithLabelValues(record.Grammar, "minimal").Set(float64(record.States))
	m.artifactBytes.WithLabelValues(record.Grammar, "interface").Set(float64(record.InterfaceBytes))
	m.artifactBytes.WithLabelValues(record.Grammar, "implementation").Set(float64(record.ImplementationBytes))
}

func (m *Metrics) ObserveWatchEvent() {
	if m == nil {
		return
	}
	m.watchEventsTotal.Inc()
}

// WriteTextfile dumps the registry in the node exporter textfile format.
func WriteTextfile(reg *prometheus.Registry, path string) error {
	return prometheus.WriteToTextfile(path, reg)
}
