package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveDispatch(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveDispatch("cpp", true)
	m.ObserveDispatch("cpp", true)
	m.ObserveDispatch("cpp", false)
	m.ObserveReconnect()

	require.Equal(t, 2.0, testutil.ToFloat64(m.DispatchTotal.WithLabelValues("cpp", OutcomeOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.DispatchTotal.WithLabelValues("cpp", OutcomeFail)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.QueueReconnects))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveDispatch("cpp", false)
		m.ObserveReconnect()
	})
}
