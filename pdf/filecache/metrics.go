package filecache

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts cache traffic. One Metrics may be shared by many caches,
// e.g. every member of a broadcast group.
type Metrics struct {
	reads        *prometheus.CounterVec
	fetchedBytes prometheus.Counter
	flushes      prometheus.Counter
}

// NewMetrics builds the collectors and registers them with reg when reg is
// non-nil. Collectors already registered under the same names are reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdfgrid",
			Subsystem: "filecache",
			Name:      "reads_total",
			Help:      "Cache reads by result (hit, miss, broadcast, error).",
		}, []string{"result"}),
		fetchedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pdfgrid",
			Subsystem: "filecache",
			Name:      "fetched_bytes_total",
			Help:      "Raw bytes obtained from the underlying fetcher.",
		}),
		flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pdfgrid",
			Subsystem: "filecache",
			Name:      "flushes_total",
			Help:      "Explicit cache flushes.",
		}),
	}
	if reg != nil {
		m.reads = register(reg, m.reads)
		m.fetchedBytes = register(reg, m.fetchedBytes)
		m.flushes = register(reg, m.flushes)
	}
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) hit() {
	if m != nil {
		m.reads.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) miss(n int) {
	if m != nil {
		m.reads.WithLabelValues("miss").Inc()
		m.fetchedBytes.Add(float64(n))
	}
}

// received counts a miss served by a broadcast leader rather than storage.
func (m *Metrics) received() {
	if m != nil {
		m.reads.WithLabelValues("broadcast").Inc()
	}
}

func (m *Metrics) failed() {
	if m != nil {
		m.reads.WithLabelValues("error").Inc()
	}
}

func (m *Metrics) flushed() {
	if m != nil {
		m.flushes.Inc()
	}
}
