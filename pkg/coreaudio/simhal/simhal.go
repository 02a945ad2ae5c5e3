// Package simhal is an in-memory hardware abstraction layer.
//
// It publishes devices built from DeviceSpec fixtures and reproduces the
// observable behaviour the control layer depends on: asynchronous
// notifications, delayed sample-rate settle, hog-mode ownership, HAL-side
// volume curves and aggregate device lifecycle.
package simhal

import (
	"os"
	"sync"
	"time"

	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

const defaultSettleDelay = 50 * time.Millisecond

// HAL is a simulated hardware abstraction layer. It is safe for concurrent use.
type HAL struct {
	mu      sync.Mutex
	objects map[hal.ObjectID]*object
	devices []hal.ObjectID
	nextID  hal.ObjectID
	pid     int32
	settle  time.Duration
	repeat  int

	lmu           sync.Mutex
	nextToken     int
	listListeners map[int]func()
	propListeners map[int]propListener
}

type propListener struct {
	id  hal.ObjectID
	sel hal.Selector
	fn  func(hal.Address)
}

type change struct {
	id   hal.ObjectID
	addr hal.Address
}

// Option configures a HAL.
type Option func(*HAL)

// WithProcessID sets the PID the HAL attributes hog-mode requests to.
// It defaults to the current process.
func WithProcessID(pid int) Option {
	return func(h *HAL) { h.pid = int32(pid) }
}

// WithSettleDelay sets how long a nominal sample-rate change takes before
// the actual rate follows. Default is 50ms.
func WithSettleDelay(d time.Duration) Option {
	return func(h *HAL) { h.settle = d }
}

// WithDuplicateNotifications delivers every notification twice.
func WithDuplicateNotifications() Option {
	return func(h *HAL) { h.repeat = 2 }
}

// New creates an empty HAL holding only the system object.
func New(opts ...Option) *HAL {
	h := &HAL{
		objects:       make(map[hal.ObjectID]*object),
		nextID:        hal.SystemObject + 1,
		pid:           int32(os.Getpid()),
		settle:        defaultSettleDelay,
		repeat:        1,
		listListeners: make(map[int]func()),
		propListeners: make(map[int]propListener),
	}
	for _, opt := range opts {
		opt(h)
	}

	sys := &object{id: hal.SystemObject, class: hal.ClassSystem, props: make(map[hal.Address]*prop)}
	sys.put(hal.Global(hal.PropertyClassID), hal.Uint32.Encode(hal.ClassSystem), false)
	sys.put(hal.Global(hal.PropertyName), hal.String.Encode("System"), false)
	for _, sel := range []hal.Selector{
		hal.PropertyDefaultInputDevice,
		hal.PropertyDefaultOutputDevice,
		hal.PropertyDefaultSystemOutputDevice,
	} {
		sys.put(hal.Global(sel), hal.ObjectRef.Encode(hal.UnknownObject), true)
	}
	sys.props[hal.Global(hal.PropertyDevices)] = &prop{get: func([]byte) ([]byte, error) {
		return hal.ObjectIDs.Encode(h.devices), nil
	}}
	h.objects[sys.id] = sys
	return h
}

// NewWithFixture creates a HAL publishing every device of f.
func NewWithFixture(f Fixture, opts ...Option) (*HAL, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	h := New(opts...)
	for _, spec := range f.Devices {
		if _, err := h.AddDevice(spec); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// DeviceIDs implements hal.HAL.
func (h *HAL) DeviceIDs() ([]hal.ObjectID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]hal.ObjectID(nil), h.devices...), nil
}

// HasProperty implements hal.HAL.
func (h *HAL) HasProperty(id hal.ObjectID, addr hal.Address) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.lookup(id, addr)
	return err == nil
}

// IsPropertySettable implements hal.HAL.
func (h *HAL) IsPropertySettable(id hal.ObjectID, addr hal.Address) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, err := h.lookup(id, addr)
	if err != nil {
		return false, err
	}
	return p.settable, nil
}

// PropertyDataSize implements hal.HAL.
func (h *HAL) PropertyDataSize(id hal.ObjectID, addr hal.Address) (uint32, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, err := h.lookup(id, addr)
	if err != nil {
		return 0, err
	}
	if p.get != nil {
		if p.size > 0 {
			return uint32(p.size), nil
		}
		data, getErr := p.get(nil)
		if getErr != nil {
			return 0, getErr
		}
		return uint32(len(data)), nil
	}
	return uint32(len(p.data)), nil
}

// GetPropertyData implements hal.HAL.
func (h *HAL) GetPropertyData(id hal.ObjectID, addr hal.Address, qualifier []byte) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, err := h.lookup(id, addr)
	if err != nil {
		return nil, err
	}
	if p.get != nil {
		return p.get(qualifier)
	}
	return append([]byte(nil), p.data...), nil
}

// SetPropertyData implements hal.HAL.
func (h *HAL) SetPropertyData(id hal.ObjectID, addr hal.Address, data []byte) error {
	h.mu.Lock()
	p, err := h.lookup(id, addr)
	if err != nil {
		h.mu.Unlock()
		return err
	}
	if !p.settable {
		h.mu.Unlock()
		return hal.StatusIllegalOperation
	}
	want := len(p.data)
	if p.get != nil {
		want = p.size
	}
	if want > 0 && len(data) != want {
		h.mu.Unlock()
		return hal.StatusBadPropertySize
	}
	changes, err := h.apply(h.objects[id], addr, p, data)
	h.mu.Unlock()
	if err != nil {
		return err
	}
	h.emit(changes)
	return nil
}

// AddDeviceListListener implements hal.HAL.
func (h *HAL) AddDeviceListListener(fn func()) func() {
	h.lmu.Lock()
	defer h.lmu.Unlock()
	token := h.nextToken
	h.nextToken++
	h.listListeners[token] = fn
	return func() {
		h.lmu.Lock()
		defer h.lmu.Unlock()
		delete(h.listListeners, token)
	}
}

// AddPropertyListener implements hal.HAL.
func (h *HAL) AddPropertyListener(id hal.ObjectID, sel hal.Selector, fn func(hal.Address)) func() {
	h.lmu.Lock()
	defer h.lmu.Unlock()
	token := h.nextToken
	h.nextToken++
	h.propListeners[token] = propListener{id: id, sel: sel, fn: fn}
	return func() {
		h.lmu.Lock()
		defer h.lmu.Unlock()
		delete(h.propListeners, token)
	}
}

func (h *HAL) lookup(id hal.ObjectID, addr hal.Address) (*prop, error) {
	o, ok := h.objects[id]
	if !ok {
		return nil, hal.StatusBadObject
	}
	p, ok := o.props[addr]
	if !ok {
		return nil, hal.StatusUnknownProperty
	}
	return p, nil
}

// emit delivers property notifications. It must be called without h.mu held.
func (h *HAL) emit(changes []change) {
	if len(changes) == 0 {
		return
	}
	h.lmu.Lock()
	var calls []func()
	for _, c := range changes {
		for _, l := range h.propListeners {
			if l.id == c.id && l.sel == c.addr.Selector {
				fn, addr := l.fn, c.addr
				calls = append(calls, func() { fn(addr) })
			}
		}
	}
	h.lmu.Unlock()
	h.dispatch(calls)
}

// emitDeviceList delivers a device-list-changed notification.
func (h *HAL) emitDeviceList() {
	h.lmu.Lock()
	calls := make([]func(), 0, len(h.listListeners))
	for _, fn := range h.listListeners {
		calls = append(calls, fn)
	}
	h.lmu.Unlock()
	h.dispatch(calls)
}

func (h *HAL) dispatch(calls []func()) {
	for range h.repeat {
		for _, call := range calls {
			go call()
		}
	}
}

// ForceHogMode hands exclusive ownership of a device to pid, as another
// process or the system would. Use hal.HogModeNoOwner to force a release.
func (h *HAL) ForceHogMode(id hal.ObjectID, pid int32) error {
	h.mu.Lock()
	o, ok := h.objects[id]
	if !ok || o.dev == nil {
		h.mu.Unlock()
		return hal.StatusBadObject
	}
	addr := hal.Global(hal.PropertyHogMode)
	o.props[addr].data = hal.Int32.Encode(pid)
	h.mu.Unlock()
	h.emit([]change{{id: id, addr: addr}})
	return nil
}
