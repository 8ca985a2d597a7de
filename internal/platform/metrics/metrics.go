package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK   = "ok"
	OutcomeFail = "fail"
)

// Metrics holds every collector the service exports.
type Metrics struct {
	DispatchTotal   *prometheus.CounterVec
	QueueReconnects prometheus.Counter
	HTTPRequests    *prometheus.CounterVec
}

// New registers the collectors on reg; tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "judge_dispatch_total",
			Help: "Judge jobs pushed to a language queue, by outcome.",
		}, []string{"queue", "outcome"}),
		QueueReconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "judge_queue_reconnects_total",
			Help: "Times the queue client had to open a new connection.",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by route pattern and status.",
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) ObserveDispatch(queue string, ok bool) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if !ok {
		outcome = OutcomeFail
	}
	m.DispatchTotal.WithLabelValues(queue, outcome).Inc()
}

func (m *Metrics) ObserveReconnect() {
	if m == nil {
		return
	}
	m.QueueReconnects.Inc()
}
