package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRun("stake", 20*time.Millisecond)
	m.ObserveRun("stake", 30*time.Millisecond)
	m.ObserveRun("stress", time.Second)
	m.Drop("UNKNOWN_LEG")
	m.AddSamples(12000)
	m.AddSamples(-5)
	m.SetThrottle(0.625)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues("stake")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("stress")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dropped.WithLabelValues("UNKNOWN_LEG")))
	assert.Equal(t, 12000.0, testutil.ToFloat64(m.samples))
	assert.Equal(t, 0.625, testutil.ToFloat64(m.throttle))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "sliprisk_run_duration_seconds")
	assert.Contains(t, names, "sliprisk_throttle_factor")
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRun("joint", time.Millisecond)
		m.Drop("BAD_LEG")
		m.AddSamples(10)
		m.SetThrottle(1)
	})
}

func TestUnregistered(t *testing.T) {
	t.Parallel()

	m := New(nil)
	m.AddSamples(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.samples))
}
