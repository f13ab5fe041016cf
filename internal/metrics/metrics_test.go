package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveImport(time.Now(), OutcomeImported, 1, 1)
		m.ObserveBatch(time.Now())
		m.SetActiveVersion(1, 2)
		m.ObserveQuery("search", time.Now())
		m.IncRateLimited()
	})
}

func TestObserveImport(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveImport(time.Now(), OutcomeImported, 2, 1)
	m.ObserveImport(time.Now(), OutcomeNoOp, 0, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportsTotal.WithLabelValues(OutcomeImported)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportsTotal.WithLabelValues(OutcomeNoOp)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RowsImported))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RowsSkipped))
}

func TestSetActiveVersion(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SetActiveVersion(7, 1300000)

	assert.Equal(t, 7.0, testutil.ToFloat64(m.ActiveVersionID))
	assert.Equal(t, 1300000.0, testutil.ToFloat64(m.ActiveRecordCount))
}
