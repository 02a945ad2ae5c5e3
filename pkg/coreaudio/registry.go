package coreaudio

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kelindar/event"
	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

// TypeDeviceListChanged identifies DeviceListChanged on an event dispatcher.
const TypeDeviceListChanged uint32 = 0x100

// DeviceListChanged is published after every reconciliation that added or
// removed devices. Removed devices are already gone from the HAL; their
// accessors fail softly.
type DeviceListChanged struct {
	Added   []*Device
	Removed []*Device
}

// Type implements event.Event.
func (DeviceListChanged) Type() uint32 { return TypeDeviceListChanged }

// ErrStopped is returned by Start on a registry that has been stopped.
var ErrStopped = errors.New("coreaudio: registry stopped")

// snapshot is an immutable view of the device set. Readers load it
// atomically and never observe a reconciliation in progress.
type snapshot struct {
	list  []*Device
	byID  map[hal.ObjectID]*Device
	byUID map[string]*Device
	uids  map[hal.ObjectID]string
}

var emptySnapshot = &snapshot{
	byID:  map[hal.ObjectID]*Device{},
	byUID: map[string]*Device{},
	uids:  map[hal.ObjectID]string{},
}

// Registry indexes the HAL's devices by ID and UID.
//
// Device-list-changed notifications are posted to a single reconcile
// goroutine; Refresh runs the same reconciliation synchronously. Both
// serialize on one writer lock and publish a new snapshot atomically.
type Registry struct {
	hal           hal.HAL
	logger        Logger
	observer      Observer
	pid           int32
	settleTimeout time.Duration

	snap    atomic.Pointer[snapshot]
	writeMu sync.Mutex

	genMu   sync.Mutex
	changed chan struct{}

	dispatcher *event.Dispatcher
	notify     chan struct{}
	stop       chan struct{}
	stopOnce   sync.Once
	unlisten   func()
	wg         sync.WaitGroup
	started    bool
	stopped    bool
}

// NewRegistry creates a registry over h. Call Start before use.
func NewRegistry(h hal.HAL, opts ...Option) *Registry {
	r := &Registry{
		hal:           h,
		logger:        noopLogger{},
		observer:      noopObserver{},
		pid:           defaultPID(),
		settleTimeout: defaultSettleTimeout,
		changed:       make(chan struct{}),
		dispatcher:    event.NewDispatcher(),
		notify:        make(chan struct{}, 1),
		stop:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.snap.Store(emptySnapshot)
	return r
}

// Start subscribes to device-list-changed notifications and performs the
// initial enumeration. A registry cannot be restarted: Start after Stop,
// or after a failed Start, returns ErrStopped.
func (r *Registry) Start() error {
	r.writeMu.Lock()
	if r.stopped {
		r.writeMu.Unlock()
		return ErrStopped
	}
	if r.started {
		r.writeMu.Unlock()
		return nil
	}
	r.started = true
	r.writeMu.Unlock()

	r.unlisten = r.hal.AddDeviceListListener(r.post)
	r.wg.Add(1)
	go r.run()

	if err := r.Refresh(); err != nil {
		r.Stop()
		return err
	}
	r.logger.Info("Registry started", "devices", len(r.snap.Load().list))
	return nil
}

// Stop unsubscribes from the HAL and waits for the reconcile goroutine.
// A stopped registry cannot be started again.
func (r *Registry) Stop() {
	r.writeMu.Lock()
	if !r.started {
		r.writeMu.Unlock()
		return
	}
	r.started = false
	r.stopped = true
	r.writeMu.Unlock()

	if r.unlisten != nil {
		r.unlisten()
	}
	r.stopOnce.Do(func() { close(r.stop) })
	r.wg.Wait()
	r.logger.Debug("Registry stopped")
}

// SettleTimeout is how long asynchronous HAL changes are awaited.
func (r *Registry) SettleTimeout() time.Duration { return r.settleTimeout }

// post queues a reconciliation. Bursts of notifications coalesce into one.
func (r *Registry) post() {
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *Registry) run() {
	defer r.wg.Done()
	for {
		select {
		case <-r.stop:
			return
		case <-r.notify:
			if err := r.Refresh(); err != nil {
				r.logger.Warn("Device list reconciliation failed", "error", err)
			}
		}
	}
}

// Refresh re-enumerates the HAL and reconciles the indices.
func (r *Registry) Refresh() error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	ids, err := r.hal.DeviceIDs()
	if err != nil {
		return fmt.Errorf("enumerate devices: %w", err)
	}

	old := r.snap.Load()
	next := &snapshot{
		list:  make([]*Device, 0, len(ids)),
		byID:  make(map[hal.ObjectID]*Device, len(ids)),
		byUID: make(map[string]*Device, len(ids)),
		uids:  make(map[hal.ObjectID]string, len(ids)),
	}
	var added, removed []*Device
	for _, id := range ids {
		if _, dup := next.byID[id]; dup {
			continue
		}
		d, known := old.byID[id]
		if !known {
			d = &Device{object: object{id: id, reg: r}}
			added = append(added, d)
		}
		uid := old.uids[id]
		if uid == "" {
			uid, _ = d.UID()
		}
		next.list = append(next.list, d)
		next.byID[id] = d
		if uid != "" {
			next.byUID[uid] = d
			next.uids[id] = uid
		}
	}
	for _, d := range old.list {
		if _, ok := next.byID[d.id]; !ok {
			removed = append(removed, d)
		}
	}

	r.snap.Store(next)
	r.bump()
	r.observer.Reconciled(len(added), len(removed), len(next.list))

	if len(added) == 0 && len(removed) == 0 {
		return nil
	}
	for _, d := range added {
		r.logger.Info("Device added", "id", d.id, "uid", next.uids[d.id])
	}
	for _, d := range removed {
		r.logger.Info("Device removed", "id", d.id, "uid", old.uids[d.id])
	}
	event.Publish(r.dispatcher, DeviceListChanged{Added: added, Removed: removed})
	return nil
}

// bump wakes every waiter blocked on the current generation.
func (r *Registry) bump() {
	r.genMu.Lock()
	close(r.changed)
	r.changed = make(chan struct{})
	r.genMu.Unlock()
}

func (r *Registry) generation() <-chan struct{} {
	r.genMu.Lock()
	defer r.genMu.Unlock()
	return r.changed
}

// Subscribe calls fn for every DeviceListChanged. Handlers run on a
// dispatcher goroutine in publication order.
func (r *Registry) Subscribe(fn func(DeviceListChanged)) (unsubscribe func()) {
	return event.Subscribe(r.dispatcher, fn)
}

// Devices returns every known device in HAL enumeration order.
func (r *Registry) Devices() []*Device {
	return slices.Clone(r.snap.Load().list)
}

// DeviceByID looks up a device by numeric ID.
func (r *Registry) DeviceByID(id hal.ObjectID) (*Device, bool) {
	d, ok := r.snap.Load().byID[id]
	return d, ok
}

// DeviceByUID looks up a device by UID.
func (r *Registry) DeviceByUID(uid string) (*Device, bool) {
	d, ok := r.snap.Load().byUID[uid]
	return d, ok
}

// InputDevices returns the devices with at least one input channel.
func (r *Registry) InputDevices() []*Device {
	return r.filter(func(d *Device) bool { return d.hasChannels(hal.ScopeInput) })
}

// OutputDevices returns the devices with at least one output channel.
func (r *Registry) OutputDevices() []*Device {
	return r.filter(func(d *Device) bool { return d.hasChannels(hal.ScopeOutput) })
}

func (r *Registry) filter(keep func(*Device) bool) []*Device {
	var out []*Device
	for _, d := range r.snap.Load().list {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// WaitForDevice blocks until a device with uid is indexed or ctx ends.
// It has no timeout of its own; pass a ctx with a deadline to bound it.
// Between notifications it re-enumerates with exponential backoff.
func (r *Registry) WaitForDevice(ctx context.Context, uid string) (*Device, bool) {
	var found *Device
	ok := r.await(ctx, func(s *snapshot) bool {
		found = s.byUID[uid]
		return found != nil
	})
	return found, ok
}

// WaitForDeviceGone blocks until id is no longer indexed or ctx ends.
// Like WaitForDevice it is bounded only by ctx.
func (r *Registry) WaitForDeviceGone(ctx context.Context, id hal.ObjectID) bool {
	return r.await(ctx, func(s *snapshot) bool {
		_, present := s.byID[id]
		return !present
	})
}

func (r *Registry) await(ctx context.Context, done func(*snapshot) bool) bool {
	b := newBackoff()
	for {
		gen := r.generation()
		if done(r.snap.Load()) {
			return true
		}
		timer := time.NewTimer(b.next())
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-gen:
			timer.Stop()
		case <-timer.C:
			if err := r.Refresh(); err != nil {
				r.logger.Debug("Refresh while waiting failed", "error", err)
			}
		}
	}
}

// backoff doubles from 10ms up to 500ms.
type backoff struct{ d time.Duration }

func newBackoff() *backoff { return &backoff{d: 10 * time.Millisecond} }

func (b *backoff) next() time.Duration {
	d := b.d
	b.d = min(b.d*2, 500*time.Millisecond)
	return d
}
