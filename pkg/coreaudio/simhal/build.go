package simhal

import (
	"fmt"
	"math"

	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

const (
	minBufferFrames = 15
	maxBufferFrames = 4096
)

type object struct {
	id    hal.ObjectID
	class uint32
	owner hal.ObjectID
	props map[hal.Address]*prop
	dev   *device
	scope hal.Scope
}

type prop struct {
	data     []byte
	settable bool
	// get computes the value; size is then the declared size, 0 if variable.
	get  func(qualifier []byte) ([]byte, error)
	size int
}

type device struct {
	spec      DeviceSpec
	channels  map[hal.Scope]uint32
	streams   map[hal.Scope]hal.ObjectID
	controls  []hal.ObjectID
	rates     []hal.ValueRange
	sources   []string
	clocks    []string
	aggregate *hal.AggregateDescription
	subs      []hal.ObjectID
}

func (o *object) put(addr hal.Address, data []byte, settable bool) {
	o.props[addr] = &prop{data: data, settable: settable}
}

func (o *object) computed(addr hal.Address, size int, settable bool, get func([]byte) ([]byte, error)) {
	o.props[addr] = &prop{get: get, size: size, settable: settable}
}

func (o *object) float32At(addr hal.Address) float32 {
	v, _ := hal.Float32.Decode(o.props[addr].data)
	return v
}

func (o *object) float64At(addr hal.Address) float64 {
	v, _ := hal.Float64.Decode(o.props[addr].data)
	return v
}

func (o *object) has(addr hal.Address) bool {
	_, ok := o.props[addr]
	return ok
}

func (h *HAL) newObject(class uint32, owner hal.ObjectID) *object {
	o := &object{id: h.nextID, class: class, owner: owner, props: make(map[hal.Address]*prop)}
	h.nextID++
	h.objects[o.id] = o
	o.put(hal.Global(hal.PropertyClassID), hal.Uint32.Encode(class), false)
	o.put(hal.Global(hal.PropertyOwner), hal.ObjectRef.Encode(owner), false)
	return o
}

// AddDevice publishes a new physical device and fires device-list-changed.
func (h *HAL) AddDevice(spec DeviceSpec) (hal.ObjectID, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}
	h.mu.Lock()
	if h.deviceByUID(spec.UID) != nil {
		h.mu.Unlock()
		return 0, fmt.Errorf("simhal: device %q already exists", spec.UID)
	}
	o := h.buildDevice(spec, hal.ClassDevice)
	changes := h.publish(o)
	h.mu.Unlock()

	h.emit(changes)
	h.emitDeviceList()
	return o.id, nil
}

// RemoveDevice unpublishes a device by UID, as if it were unplugged.
func (h *HAL) RemoveDevice(uid string) error {
	h.mu.Lock()
	o := h.deviceByUID(uid)
	if o == nil {
		h.mu.Unlock()
		return hal.StatusBadDevice
	}
	changes := h.unpublish(o)
	h.mu.Unlock()

	h.emit(changes)
	h.emitDeviceList()
	return nil
}

// DeviceID returns the object ID of the device published under uid.
func (h *HAL) DeviceID(uid string) (hal.ObjectID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if o := h.deviceByUID(uid); o != nil {
		return o.id, true
	}
	return 0, false
}

// Apply reconciles the published physical devices with f: devices missing
// from f are removed and new ones added. Aggregates are left alone.
func (h *HAL) Apply(f Fixture) error {
	if err := f.Validate(); err != nil {
		return err
	}
	want := make(map[string]DeviceSpec, len(f.Devices))
	for _, spec := range f.Devices {
		want[spec.UID] = spec
	}

	h.mu.Lock()
	var changes []change
	changed := false
	for _, id := range append([]hal.ObjectID(nil), h.devices...) {
		o := h.objects[id]
		if o.dev.aggregate != nil {
			continue
		}
		if _, keep := want[o.dev.spec.UID]; !keep {
			changes = append(changes, h.unpublish(o)...)
			changed = true
		}
	}
	for _, spec := range f.Devices {
		if h.deviceByUID(spec.UID) != nil {
			continue
		}
		changes = append(changes, h.publish(h.buildDevice(spec, hal.ClassDevice))...)
		changed = true
	}
	h.mu.Unlock()

	h.emit(changes)
	if changed {
		h.emitDeviceList()
	}
	return nil
}

func (h *HAL) deviceByUID(uid string) *object {
	for _, id := range h.devices {
		if o := h.objects[id]; o.dev.spec.UID == uid {
			return o
		}
	}
	return nil
}

// publish adds o to the device list and fills empty default roles.
func (h *HAL) publish(o *object) []change {
	h.devices = append(h.devices, o.id)
	return h.fixDefaults()
}

// unpublish removes o and every object it created.
func (h *HAL) unpublish(o *object) []change {
	for i, id := range h.devices {
		if id == o.id {
			h.devices = append(h.devices[:i], h.devices[i+1:]...)
			break
		}
	}
	for _, sid := range o.dev.streams {
		delete(h.objects, sid)
	}
	for _, cid := range o.dev.controls {
		delete(h.objects, cid)
	}
	delete(h.objects, o.id)
	return h.fixDefaults()
}

var defaultRoles = []struct {
	sel   hal.Selector
	scope hal.Scope
}{
	{hal.PropertyDefaultInputDevice, hal.ScopeInput},
	{hal.PropertyDefaultOutputDevice, hal.ScopeOutput},
	{hal.PropertyDefaultSystemOutputDevice, hal.ScopeOutput},
}

// fixDefaults points every default role at a live device with channels in
// the role's direction.
func (h *HAL) fixDefaults() []change {
	sys := h.objects[hal.SystemObject]
	var changes []change
	for _, role := range defaultRoles {
		addr := hal.Global(role.sel)
		cur, _ := hal.ObjectRef.Decode(sys.props[addr].data)
		if o, ok := h.objects[cur]; ok && o.dev != nil && o.dev.channels[role.scope] > 0 {
			continue
		}
		next := hal.UnknownObject
		for _, id := range h.devices {
			if h.objects[id].dev.channels[role.scope] > 0 {
				next = id
				break
			}
		}
		if next != cur {
			sys.props[addr].data = hal.ObjectRef.Encode(next)
			changes = append(changes, change{id: hal.SystemObject, addr: addr})
		}
	}
	return changes
}

func (h *HAL) buildDevice(spec DeviceSpec, class uint32) *object {
	o := h.newObject(class, hal.SystemObject)
	d := &device{
		spec:     spec,
		channels: map[hal.Scope]uint32{hal.ScopeInput: spec.InputChannels, hal.ScopeOutput: spec.OutputChannels},
		streams:  make(map[hal.Scope]hal.ObjectID),
		sources:  spec.DataSources,
		clocks:   spec.ClockSources,
	}
	o.dev = d
	for _, r := range spec.SampleRates {
		d.rates = append(d.rates, hal.ValueRange{Min: r, Max: r})
	}

	g := hal.Global
	o.put(g(hal.PropertyName), hal.String.Encode(spec.Name), false)
	o.put(g(hal.PropertyManufacturer), hal.String.Encode(spec.Manufacturer), false)
	o.put(g(hal.PropertyDeviceUID), hal.String.Encode(spec.UID), false)
	if spec.ModelUID != "" {
		o.put(g(hal.PropertyModelUID), hal.String.Encode(spec.ModelUID), false)
	}
	if spec.ConfigurationApplication != "" {
		o.put(g(hal.PropertyConfigurationApplication), hal.String.Encode(spec.ConfigurationApplication), false)
	}
	o.put(g(hal.PropertyTransportType), hal.Uint32.Encode(spec.transportCode()), false)
	o.put(g(hal.PropertyIsHidden), hal.Bool.Encode(spec.Hidden), false)
	o.put(g(hal.PropertyDeviceIsAlive), hal.Bool.Encode(true), false)
	o.put(g(hal.PropertyDeviceIsRunning), hal.Bool.Encode(false), false)
	o.put(g(hal.PropertyDeviceIsRunningSomewhere), hal.Bool.Encode(false), false)
	o.put(g(hal.PropertyRelatedDevices), hal.ObjectIDs.Encode([]hal.ObjectID{o.id}), false)

	rate := spec.nominalRate()
	o.put(g(hal.PropertyNominalSampleRate), hal.Float64.Encode(rate), true)
	o.put(g(hal.PropertyAvailableNominalSampleRates), hal.Ranges.Encode(d.rates), false)
	o.put(g(hal.PropertyActualSampleRate), hal.Float64.Encode(rate), false)
	o.put(g(hal.PropertyHogMode), hal.Int32.Encode(hal.HogModeNoOwner), true)

	frames := spec.BufferFrameSize
	if frames == 0 {
		frames = 512
	}
	o.put(g(hal.PropertyBufferFrameSize), hal.Uint32.Encode(frames), true)
	o.put(g(hal.PropertyBufferFrameSizeRange), hal.Range.Encode(hal.ValueRange{Min: minBufferFrames, Max: maxBufferFrames}), false)

	if len(d.clocks) > 0 {
		ids := make([]uint32, len(d.clocks))
		for i := range ids {
			ids[i] = uint32(i + 1)
		}
		o.put(g(hal.PropertyClockSource), hal.Uint32.Encode(1), true)
		o.put(g(hal.PropertyClockSources), hal.Uint32s.Encode(ids), false)
		o.computed(g(hal.PropertyClockSourceNameForID), 0, false, func(q []byte) ([]byte, error) {
			id, ok := hal.Uint32.Decode(q)
			if !ok || id == 0 || int(id) > len(d.clocks) {
				return nil, hal.StatusIllegalOperation
			}
			return hal.String.Encode(d.clocks[id-1]), nil
		})
	}

	if spec.LFE {
		o.put(g(hal.PropertyDriverShouldOwniSub), hal.Bool.Encode(true), true)
		out := hal.Scoped(hal.PropertySubVolumeScalar, hal.ScopeOutput)
		o.put(out, hal.Float32.Encode(1), true)
		o.put(hal.Scoped(hal.PropertySubMute, hal.ScopeOutput), hal.Bool.Encode(false), true)
		o.computed(hal.Scoped(hal.PropertySubVolumeDecibels, hal.ScopeOutput), 4, true, func([]byte) ([]byte, error) {
			return hal.Float32.Encode(d.toDecibels(o.float32At(out))), nil
		})
	}

	var owned []hal.ObjectID
	for _, scope := range []hal.Scope{hal.ScopeInput, hal.ScopeOutput} {
		n := d.channels[scope]
		if n == 0 {
			continue
		}
		h.buildScope(o, scope, n)
		owned = append(owned, d.streams[scope])
	}
	owned = append(owned, d.controls...)
	o.put(g(hal.PropertyOwnedObjects), hal.ObjectIDs.Encode(owned), false)
	o.put(g(hal.PropertyControlList), hal.ObjectIDs.Encode(d.controls), false)
	return o
}

func (h *HAL) buildScope(o *object, scope hal.Scope, n uint32) {
	d := o.dev
	spec := d.spec
	at := func(sel hal.Selector) hal.Address { return hal.Scoped(sel, scope) }

	d.streams[scope] = h.buildStream(o, scope, n)
	o.put(at(hal.PropertyStreams), hal.ObjectIDs.Encode([]hal.ObjectID{d.streams[scope]}), false)
	o.put(at(hal.PropertyStreamConfiguration), hal.Buffers.Encode(hal.BufferConfig{
		Buffers: []hal.Buffer{{Channels: n, DataByteSize: n * 4 * maxBufferFrames}},
	}), false)

	layout := hal.ChannelLayout{Descriptions: make([]hal.ChannelDescription, n)}
	for i := range layout.Descriptions {
		layout.Descriptions[i].Label = uint32(i + 1)
	}
	o.put(at(hal.PropertyPreferredChannelLayout), hal.Layout.Encode(layout), false)
	o.put(at(hal.PropertyPreferredChannelsForStereo), hal.Pair.Encode(hal.StereoPair{Left: 1, Right: min(2, n)}), true)
	o.put(at(hal.PropertyLatency), hal.Uint32.Encode(spec.Latency), false)
	o.put(at(hal.PropertySafetyOffset), hal.Uint32.Encode(spec.SafetyOffset), false)
	if spec.JackConnected != nil {
		o.put(at(hal.PropertyJackIsConnected), hal.Bool.Encode(*spec.JackConnected), false)
	}

	if len(d.sources) > 0 {
		ids := make([]uint32, len(d.sources))
		for i := range ids {
			ids[i] = uint32(i)
		}
		o.put(at(hal.PropertyDataSource), hal.Uint32.Encode(0), true)
		o.put(at(hal.PropertyDataSources), hal.Uint32s.Encode(ids), false)
		o.computed(at(hal.PropertyDataSourceNameForID), 0, false, func(q []byte) ([]byte, error) {
			id, ok := hal.Uint32.Decode(q)
			if !ok || int(id) >= len(d.sources) {
				return nil, hal.StatusIllegalOperation
			}
			return hal.String.Encode(d.sources[id]), nil
		})
	}

	for i, name := range spec.ChannelNames {
		if uint32(i) < n {
			o.put(hal.Channel(hal.PropertyElementName, scope, uint32(i+1)), hal.String.Encode(name), false)
		}
	}

	var elements []uint32
	if spec.MainVolume {
		elements = append(elements, 0)
	}
	if spec.ChannelVolume {
		for ch := uint32(1); ch <= n; ch++ {
			elements = append(elements, ch)
		}
	}
	for _, el := range elements {
		h.buildVolume(o, scope, el)
	}
	if spec.PlayThru {
		o.put(hal.Channel(hal.PropertyPlayThru, scope, 0), hal.Bool.Encode(false), true)
	}
	if len(elements) > 0 {
		o.computed(at(hal.PropertyVirtualMainVolume), 4, true, func([]byte) ([]byte, error) {
			v, ok := h.virtualMainVolume(o, scope)
			if !ok {
				return nil, hal.StatusUnknownProperty
			}
			return hal.Float32.Encode(v), nil
		})
	}
	if spec.ChannelVolume && n >= 2 {
		o.computed(at(hal.PropertyVirtualMainBalance), 4, true, func([]byte) ([]byte, error) {
			b, ok := h.virtualMainBalance(o, scope)
			if !ok {
				return nil, hal.StatusUnknownProperty
			}
			return hal.Float32.Encode(b), nil
		})
	}
}

func (h *HAL) buildVolume(o *object, scope hal.Scope, el uint32) {
	d := o.dev
	at := func(sel hal.Selector) hal.Address { return hal.Channel(sel, scope, el) }
	scalar := at(hal.PropertyVolumeScalar)

	o.put(scalar, hal.Float32.Encode(1), true)
	o.put(at(hal.PropertyMute), hal.Bool.Encode(false), true)
	o.put(at(hal.PropertyVolumeRangeDecibels), hal.Range.Encode(hal.ValueRange{
		Min: float64(d.spec.MinDecibels), Max: float64(d.spec.MaxDecibels),
	}), false)
	o.computed(at(hal.PropertyVolumeDecibels), 4, true, func([]byte) ([]byte, error) {
		return hal.Float32.Encode(d.toDecibels(o.float32At(scalar))), nil
	})
	o.computed(at(hal.PropertyVolumeScalarToDecibels), 4, false, func(q []byte) ([]byte, error) {
		v, ok := hal.Float32.Decode(q)
		if !ok {
			return nil, hal.StatusBadPropertySize
		}
		return hal.Float32.Encode(d.toDecibels(v)), nil
	})
	o.computed(at(hal.PropertyVolumeDecibelsToScalar), 4, false, func(q []byte) ([]byte, error) {
		v, ok := hal.Float32.Decode(q)
		if !ok {
			return nil, hal.StatusBadPropertySize
		}
		return hal.Float32.Encode(d.toScalar(v)), nil
	})

	ctl := h.newObject(hal.ClassControl, o.id)
	ctl.put(hal.Global(hal.PropertyName), hal.String.Encode(fmt.Sprintf("%s volume %d", scope, el)), false)
	d.controls = append(d.controls, ctl.id)
}

func (h *HAL) buildStream(o *object, scope hal.Scope, n uint32) hal.ObjectID {
	d := o.dev
	s := h.newObject(hal.ClassStream, o.id)
	s.scope = scope
	g := hal.Global

	dir, term := hal.DirectionOutput, hal.TerminalSpeaker
	if scope == hal.ScopeInput {
		dir, term = hal.DirectionInput, hal.TerminalMicrophone
	}
	s.put(g(hal.PropertyName), hal.String.Encode(fmt.Sprintf("%s %s", d.spec.Name, scope)), false)
	s.put(g(hal.PropertyStreamIsActive), hal.Bool.Encode(true), false)
	s.put(g(hal.PropertyStreamDirection), hal.Uint32.Encode(dir), false)
	s.put(g(hal.PropertyStreamTerminalType), hal.Uint32.Encode(term), false)
	s.put(g(hal.PropertyStreamStartingChannel), hal.Uint32.Encode(1), false)
	s.put(g(hal.PropertyLatency), hal.Uint32.Encode(0), false)

	var virtual, physical []hal.RangedFormat
	for _, r := range d.rates {
		virtual = append(virtual, hal.RangedFormat{Format: hal.LinearPCM(r.Min, n, 32, true), RateRange: r})
		for _, bits := range []uint32{16, 24} {
			physical = append(physical, hal.RangedFormat{Format: hal.LinearPCM(r.Min, n, bits, false), RateRange: r})
		}
		physical = append(physical, hal.RangedFormat{Format: hal.LinearPCM(r.Min, n, 32, true), RateRange: r})
	}
	rate := d.spec.nominalRate()
	s.put(g(hal.PropertyStreamAvailableVirtualFormats), hal.RangedFormats.Encode(virtual), false)
	s.put(g(hal.PropertyStreamAvailablePhysicalFormat), hal.RangedFormats.Encode(physical), false)
	s.put(g(hal.PropertyStreamVirtualFormat), hal.Format.Encode(hal.LinearPCM(rate, n, 32, true)), true)
	s.put(g(hal.PropertyStreamPhysicalFormat), hal.Format.Encode(hal.LinearPCM(rate, n, 32, true)), true)
	return s.id
}

// toDecibels applies the device's squared volume curve.
func (d *device) toDecibels(scalar float32) float32 {
	lo, hi := d.spec.MinDecibels, d.spec.MaxDecibels
	s := min(max(scalar, 0), 1)
	return lo + (hi-lo)*s*s
}

func (d *device) toScalar(db float32) float32 {
	lo, hi := d.spec.MinDecibels, d.spec.MaxDecibels
	if hi <= lo {
		return 0
	}
	db = min(max(db, lo), hi)
	return float32(math.Sqrt(float64((db - lo) / (hi - lo))))
}
