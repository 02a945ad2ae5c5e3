package metrics

import (
	"strconv"
	"sync"

	"github.com/smazurov/audiohal/internal/events"
)

// DeviceCollector keeps the per-device gauges current from bus events and
// drops a device's series when it is removed.
type DeviceCollector struct {
	bus    *events.Bus
	mu     sync.Mutex
	unsubs []func()
}

// NewDeviceCollector creates a collector listening on bus.
func NewDeviceCollector(bus *events.Bus) *DeviceCollector {
	return &DeviceCollector{bus: bus}
}

// Start subscribes to device events.
func (c *DeviceCollector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unsubs = append(c.unsubs,
		events.Subscribe(c.bus, func(e events.VolumeChangedEvent) {
			deviceVolume.WithLabelValues(e.UID, e.Scope, strconv.FormatUint(uint64(e.Channel), 10)).Set(float64(e.Volume))
		}),
		events.Subscribe(c.bus, func(e events.MuteChangedEvent) {
			v := 0.0
			if e.Muted {
				v = 1
			}
			deviceMuted.WithLabelValues(e.UID, e.Scope, strconv.FormatUint(uint64(e.Channel), 10)).Set(v)
		}),
		events.Subscribe(c.bus, func(e events.SampleRateChangedEvent) {
			deviceSampleRate.WithLabelValues(e.UID, "nominal").Set(e.Nominal)
			deviceSampleRate.WithLabelValues(e.UID, "actual").Set(e.Actual)
		}),
		events.Subscribe(c.bus, func(e events.HogModeChangedEvent) {
			deviceHogPID.WithLabelValues(e.UID).Set(float64(e.PID))
		}),
		events.Subscribe(c.bus, func(e events.DeviceRemovedEvent) {
			forget(e.UID)
		}),
	)
}

// Stop unsubscribes.
func (c *DeviceCollector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, unsub := range c.unsubs {
		unsub()
	}
	c.unsubs = nil
}

func forget(uid string) {
	if uid == "" {
		return
	}
	match := map[string]string{"uid": uid}
	deviceVolume.DeletePartialMatch(match)
	deviceMuted.DeletePartialMatch(match)
	deviceSampleRate.DeletePartialMatch(match)
	deviceHogPID.DeletePartialMatch(match)
}
