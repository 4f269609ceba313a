package ray

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts intercepted calls per method name. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	calls   *prometheus.CounterVec
	faults  *prometheus.CounterVec
	proxies prometheus.Counter
}

// NewMetrics registers the ray collectors with reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		calls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ray_intercepted_calls_total",
			Help: "Total number of intercepted method calls.",
		}, []string{"method", "outcome"}),
		faults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ray_intercepted_faults_total",
			Help: "Intercepted calls that returned an error.",
		}, []string{"method"}),
		proxies: factory.NewCounter(prometheus.CounterOpts{
			Name: "ray_proxies_created_total",
			Help: "Number of proxies created during post-processing.",
		}),
	}
}

func (m *Metrics) started(d MethodDescriptor) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(d.Name, "started").Inc()
}

func (m *Metrics) stopped(d MethodDescriptor) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(d.Name, "stopped").Inc()
}

func (m *Metrics) faulted(d MethodDescriptor) {
	if m == nil {
		return
	}
	m.faults.WithLabelValues(d.Name).Inc()
}

func (m *Metrics) proxyCreated() {
	if m == nil {
		return
	}
	m.proxies.Inc()
}
