package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NoError(t, m.Track("sweep").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("sweep").End(boom), boom)
	m.AddSweptProducts(3)

	require.InDelta(t, 1, testutil.ToFloat64(m.runs.WithLabelValues("sweep", "success")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.failures.WithLabelValues("sweep")), 0)
	require.InDelta(t, 3, testutil.ToFloat64(m.products), 0)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	require.NoError(t, m.Track("x").End(nil))
	m.AddSweptProducts(1)
}
