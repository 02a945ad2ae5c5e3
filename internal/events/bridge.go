package events

import (
	"sync"

	"github.com/smazurov/audiohal/internal/logging"
	"github.com/smazurov/audiohal/pkg/coreaudio"
	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

// Bridge republishes registry and property notifications as bus events.
type Bridge struct {
	reg    *coreaudio.Registry
	bus    *Bus
	logger logging.Logger

	mu      sync.Mutex
	watched map[hal.ObjectID]*watch
	unsub   func()
}

type watch struct {
	uid     string
	removes []func()
}

// NewBridge creates a bridge from reg to bus.
func NewBridge(reg *coreaudio.Registry, bus *Bus, logger logging.Logger) *Bridge {
	return &Bridge{
		reg:     reg,
		bus:     bus,
		logger:  logger,
		watched: map[hal.ObjectID]*watch{},
	}
}

// Start subscribes to device-list changes and watches the devices already
// indexed.
func (b *Bridge) Start() {
	b.mu.Lock()
	b.unsub = b.reg.Subscribe(b.onListChanged)
	b.mu.Unlock()
	for _, d := range b.reg.Devices() {
		b.watch(d)
	}
}

// Stop removes every listener.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
	for id, w := range b.watched {
		for _, remove := range w.removes {
			remove()
		}
		delete(b.watched, id)
	}
}

func (b *Bridge) onListChanged(ev coreaudio.DeviceListChanged) {
	for _, d := range ev.Removed {
		uid := b.unwatch(d.ID())
		if uid == "" {
			continue
		}
		Publish(b.bus, DeviceRemovedEvent{UID: uid, ID: uint32(d.ID()), Timestamp: now()})
	}
	for _, d := range ev.Added {
		if !b.watch(d) {
			continue
		}
		uid, _ := d.UID()
		name, _ := d.Name()
		Publish(b.bus, DeviceAddedEvent{UID: uid, ID: uint32(d.ID()), Name: name, Timestamp: now()})
	}
}

// watch installs the property listeners for d. It reports false when d
// was already watched.
func (b *Bridge) watch(d *coreaudio.Device) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.watched[d.ID()]; ok {
		return false
	}
	uid, _ := d.UID()
	w := &watch{uid: uid}
	w.removes = append(w.removes,
		d.OnPropertyChange(hal.PropertyVolumeScalar, func(a hal.Address) {
			v, ok := d.Volume(uint32(a.Element), a.Scope)
			if !ok {
				return
			}
			Publish(b.bus, VolumeChangedEvent{UID: uid, Scope: a.Scope.String(), Channel: uint32(a.Element), Volume: v, Timestamp: now()})
		}),
		d.OnPropertyChange(hal.PropertyMute, func(a hal.Address) {
			muted, ok := d.IsMuted(uint32(a.Element), a.Scope)
			if !ok {
				return
			}
			Publish(b.bus, MuteChangedEvent{UID: uid, Scope: a.Scope.String(), Channel: uint32(a.Element), Muted: muted, Timestamp: now()})
		}),
		d.OnPropertyChange(hal.PropertyNominalSampleRate, func(hal.Address) { b.rateChanged(d, uid) }),
		d.OnPropertyChange(hal.PropertyActualSampleRate, func(hal.Address) { b.rateChanged(d, uid) }),
		d.OnPropertyChange(hal.PropertyHogMode, func(hal.Address) {
			pid, ok := d.HogModePID()
			if !ok {
				return
			}
			Publish(b.bus, HogModeChangedEvent{UID: uid, PID: pid, Timestamp: now()})
		}),
	)
	b.watched[d.ID()] = w
	b.logger.Debug("Watching device", "uid", uid, "id", d.ID())
	return true
}

func (b *Bridge) unwatch(id hal.ObjectID) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.watched[id]
	if !ok {
		return ""
	}
	for _, remove := range w.removes {
		remove()
	}
	delete(b.watched, id)
	return w.uid
}

func (b *Bridge) rateChanged(d *coreaudio.Device, uid string) {
	nominal, ok := d.NominalSampleRate()
	if !ok {
		return
	}
	actual, _ := d.ActualSampleRate()
	Publish(b.bus, SampleRateChangedEvent{
		UID:       uid,
		Nominal:   nominal,
		Actual:    actual,
		Settled:   nominal == actual,
		Timestamp: now(),
	})
}
