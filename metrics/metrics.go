// Package metrics wires prometheus/client_golang gauges over the core's
// internal counters — MixCount generation, live voice count, backend
// restarts — as ambient observability alongside the device/context
// lifecycle core.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors bundles every gauge/counter this module publishes. Callers
// register it with their own prometheus.Registry (or prometheus.DefaultRegisterer).
type Collectors struct {
	MixGeneration   prometheus.Gauge
	LiveVoiceCount  *prometheus.GaugeVec
	BackendRestarts *prometheus.CounterVec
	DeviceConnected *prometheus.GaugeVec
}

// NewCollectors constructs the metric set, unregistered.
func NewCollectors() *Collectors {
	return &Collectors{
		MixGeneration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "oalcore",
			Name:      "mix_generation",
			Help:      "Current even/odd MixCount generation counter.",
		}),
		LiveVoiceCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "oalcore",
			Name:      "live_voice_count",
			Help:      "Number of currently assigned (non-free) voices per context.",
		}, []string{"context"}),
		BackendRestarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oalcore",
			Name:      "backend_restarts_total",
			Help:      "Number of times a device's backend was reset due to reconfiguration or disconnect recovery.",
		}, []string{"device"}),
		DeviceConnected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "oalcore",
			Name:      "device_connected",
			Help:      "1 if the device's Connected flag is true, 0 otherwise.",
		}, []string{"device"}),
	}
}

// MustRegister registers every collector against reg, panicking on
// duplicate registration (mirrors prometheus.MustRegister's own contract).
func (c *Collectors) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(c.MixGeneration, c.LiveVoiceCount, c.BackendRestarts, c.DeviceConnected)
}

// ObserveConnected records a device's current connection state.
func (c *Collectors) ObserveConnected(deviceName string, connected bool) {
	v := 0.0
	if connected {
		v = 1.0
	}
	c.DeviceConnected.WithLabelValues(deviceName).Set(v)
}

// ObserveVoiceCount records a context's live voice count, identified by its
// UUID string.
func (c *Collectors) ObserveVoiceCount(contextID string, count int) {
	c.LiveVoiceCount.WithLabelValues(contextID).Set(float64(count))
}

// ObserveMixGeneration records the device's current MixCount generation.
func (c *Collectors) ObserveMixGeneration(gen uint64) {
	c.MixGeneration.Set(float64(gen))
}

// IncBackendRestart records one backend restart for deviceName.
func (c *Collectors) IncBackendRestart(deviceName string) {
	c.BackendRestarts.WithLabelValues(deviceName).Inc()
}
