package dnsflow

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the Prometheus collectors the core publishes. Purely
// observational: nothing in dnsflow's control flow reads these back, and
// every recording site checks for nil first, so a Global left with a nil
// *Metrics (its zero value) records nothing and needs no registration,
// which is how the unit tests run. The host process registers a *Metrics with its own
// prometheus.Registerer and attaches it via Global.SetMetrics.
type Metrics struct {
	eventsTotal         *prometheus.CounterVec
	globalMemBytes      prometheus.Gauge
	transactionsCreated prometheus.Counter
	transactionsFreed   prometheus.Counter
}

// NewMetrics constructs a Metrics bundle with the given namespace
// (e.g. "dns_ids"). Call Collectors and register the result with a
// prometheus.Registerer before traffic starts flowing.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Decoder/anomaly events raised by the DNS parser, by kind.",
		}, []string{"kind"}),
		globalMemBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "global_mem_bytes",
			Help:      "Process-wide bytes currently accounted to DNS flow state.",
		}),
		transactionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_created_total",
			Help:      "DNS transactions created by the request parser.",
		}),
		transactionsFreed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_freed_total",
			Help:      "DNS transactions freed by the detection engine or state teardown.",
		}),
	}
}

// Collectors returns every collector in the bundle, for bulk
// registration: for _, c := range m.Collectors() { registerer.MustRegister(c) }
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.eventsTotal,
		m.globalMemBytes,
		m.transactionsCreated,
		m.transactionsFreed,
	}
}

func (m *Metrics) recordEvent(k EventKind) {
	m.eventsTotal.WithLabelValues(EventName(k)).Inc()
}

func (m *Metrics) SetGlobalMemUse(v uint64) { m.globalMemBytes.Set(float64(v)) }
func (m *Metrics) incTransactionCreated()   { m.transactionsCreated.Inc() }
func (m *Metrics) incTransactionFreed()     { m.transactionsFreed.Inc() }
