package metrics

import (
	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

// Observer feeds registry and property access activity into Prometheus.
// Pass it to coreaudio.WithObserver.
type Observer struct{}

// PropertyAccess counts one HAL access.
func (Observer) PropertyAccess(op string, sel hal.Selector, ok bool) {
	result := "ok"
	if !ok {
		result = "absent"
	}
	propertyAccess.WithLabelValues(op, sel.String(), result).Inc()
}

// Reconciled records the outcome of one device list reconciliation.
func (Observer) Reconciled(added, removed, total int) {
	registryReconciliations.Inc()
	registryDevices.Set(float64(total))
	if added > 0 {
		registryChanges.WithLabelValues("added").Add(float64(added))
	}
	if removed > 0 {
		registryChanges.WithLabelValues("removed").Add(float64(removed))
	}
}
