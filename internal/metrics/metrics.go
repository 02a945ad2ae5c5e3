// Package metrics exposes Prometheus metrics for the HAL layer: property
// access outcomes, registry reconciliations and per-device state.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "audiohal"

var (
	propertyAccess = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "hal",
		Name:      "property_access_total",
		Help:      "HAL property reads, writes and translations by selector and outcome",
	}, []string{"op", "selector", "result"})

	registryDevices = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "registry",
		Name:      "devices",
		Help:      "Devices currently indexed",
	})

	registryReconciliations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "registry",
		Name:      "reconciliations_total",
		Help:      "Device list reconciliations",
	})

	registryChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "registry",
		Name:      "device_changes_total",
		Help:      "Devices added or removed by reconciliation",
	}, []string{"change"})

	deviceVolume = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "device",
		Name:      "volume_scalar",
		Help:      "Last observed scalar volume per channel",
	}, []string{"uid", "scope", "channel"})

	deviceMuted = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "device",
		Name:      "muted",
		Help:      "1 when the channel is muted",
	}, []string{"uid", "scope", "channel"})

	deviceSampleRate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "device",
		Name:      "sample_rate_hz",
		Help:      "Nominal and actual sample rate",
	}, []string{"uid", "kind"})

	deviceHogPID = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "device",
		Name:      "hog_mode_pid",
		Help:      "PID holding exclusive access, -1 when free",
	}, []string{"uid"})
)

// Handler serves every registered metric.
func Handler() http.Handler {
	return promhttp.Handler()
}
