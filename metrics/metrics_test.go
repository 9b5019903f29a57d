package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveConnectedSetsGauge(t *testing.T) {
	c := NewCollectors()
	c.ObserveConnected("dev0", true)

	m := &dto.Metric{}
	g, err := c.DeviceConnected.GetMetricWithLabelValues("dev0")
	require.NoError(t, err)
	require.NoError(t, g.(prometheus.Gauge).Write(m))
	assert.Equal(t, float64(1), m.GetGauge().GetValue())
}

func TestIncBackendRestartIncrementsCounter(t *testing.T) {
	c := NewCollectors()
	c.IncBackendRestart("dev0")
	c.IncBackendRestart("dev0")

	m := &dto.Metric{}
	cnt, err := c.BackendRestarts.GetMetricWithLabelValues("dev0")
	require.NoError(t, err)
	require.NoError(t, cnt.(prometheus.Counter).Write(m))
	assert.Equal(t, float64(2), m.GetCounter().GetValue())
}

func TestMustRegisterDoesNotPanicOnFreshRegistry(t *testing.T) {
	c := NewCollectors()
	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() { c.MustRegister(reg) })
}
