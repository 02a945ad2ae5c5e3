package simhal

import (
	"math"
	"slices"
	"time"

	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

// apply validates and stores a write. It runs with h.mu held and returns
// the properties whose value changed.
func (h *HAL) apply(o *object, addr hal.Address, p *prop, data []byte) ([]change, error) {
	one := []change{{id: o.id, addr: addr}}

	switch addr.Selector {
	case hal.PropertyVolumeScalar, hal.PropertySubVolumeScalar:
		v, _ := hal.Float32.Decode(data)
		if !validScalar(v) {
			return nil, hal.StatusIllegalOperation
		}
		p.data = data
		return h.volumeChanged(o, addr), nil

	case hal.PropertyVolumeDecibels:
		db, _ := hal.Float32.Decode(data)
		if math.IsNaN(float64(db)) {
			return nil, hal.StatusIllegalOperation
		}
		scalar := hal.Channel(hal.PropertyVolumeScalar, addr.Scope, uint32(addr.Element))
		o.props[scalar].data = hal.Float32.Encode(o.dev.toScalar(db))
		return h.volumeChanged(o, scalar), nil

	case hal.PropertySubVolumeDecibels:
		db, _ := hal.Float32.Decode(data)
		if math.IsNaN(float64(db)) {
			return nil, hal.StatusIllegalOperation
		}
		scalar := hal.Scoped(hal.PropertySubVolumeScalar, addr.Scope)
		o.props[scalar].data = hal.Float32.Encode(o.dev.toScalar(db))
		return []change{{id: o.id, addr: scalar}, {id: o.id, addr: addr}}, nil

	case hal.PropertyVirtualMainVolume:
		v, _ := hal.Float32.Decode(data)
		if !validScalar(v) {
			return nil, hal.StatusIllegalOperation
		}
		return h.setVirtualMainVolume(o, addr.Scope, v), nil

	case hal.PropertyVirtualMainBalance:
		b, _ := hal.Float32.Decode(data)
		if !validScalar(b) {
			return nil, hal.StatusIllegalOperation
		}
		return h.setVirtualMainBalance(o, addr.Scope, b), nil

	case hal.PropertyPreferredChannelsForStereo:
		pair, _ := hal.Pair.Decode(data)
		n := o.dev.channels[addr.Scope]
		if pair.Left == 0 || pair.Right == 0 || pair.Left > n || pair.Right > n {
			return nil, hal.StatusIllegalOperation
		}
		p.data = data

	case hal.PropertyNominalSampleRate:
		rate, _ := hal.Float64.Decode(data)
		if !h.supportsRate(o, rate) {
			return nil, hal.StatusIllegalOperation
		}
		if o.float64At(addr) == rate {
			return nil, nil
		}
		p.data = data
		h.scheduleSettle(o.id, rate)

	case hal.PropertyHogMode:
		return h.toggleHog(o, addr, p, data)

	case hal.PropertyDataSource:
		id, _ := hal.Uint32.Decode(data)
		if int(id) >= len(o.dev.sources) {
			return nil, hal.StatusIllegalOperation
		}
		p.data = data

	case hal.PropertyClockSource:
		id, _ := hal.Uint32.Decode(data)
		if id == 0 || int(id) > len(o.dev.clocks) {
			return nil, hal.StatusIllegalOperation
		}
		p.data = data

	case hal.PropertyBufferFrameSize:
		frames, _ := hal.Uint32.Decode(data)
		if frames < minBufferFrames || frames > maxBufferFrames {
			return nil, hal.StatusIllegalOperation
		}
		p.data = data

	case hal.PropertyStreamVirtualFormat, hal.PropertyStreamPhysicalFormat:
		return h.setStreamFormat(o, addr, p, data)

	case hal.PropertyDefaultInputDevice, hal.PropertyDefaultOutputDevice, hal.PropertyDefaultSystemOutputDevice:
		id, _ := hal.ObjectRef.Decode(data)
		target, ok := h.objects[id]
		scope := hal.ScopeOutput
		if addr.Selector == hal.PropertyDefaultInputDevice {
			scope = hal.ScopeInput
		}
		if !ok || target.dev == nil || target.dev.channels[scope] == 0 {
			return nil, hal.StatusBadDevice
		}
		p.data = data

	default:
		p.data = data
	}
	return one, nil
}

func validScalar(v float32) bool {
	return !math.IsNaN(float64(v)) && v >= 0 && v <= 1
}

// volumeChanged reports a scalar change together with the properties
// derived from it.
func (h *HAL) volumeChanged(o *object, scalar hal.Address) []change {
	changes := []change{{id: o.id, addr: scalar}}
	if scalar.Selector != hal.PropertyVolumeScalar {
		return changes
	}
	changes = append(changes, change{id: o.id, addr: hal.Channel(hal.PropertyVolumeDecibels, scalar.Scope, uint32(scalar.Element))})
	for _, sel := range []hal.Selector{hal.PropertyVirtualMainVolume, hal.PropertyVirtualMainBalance} {
		if a := hal.Scoped(sel, scalar.Scope); o.has(a) {
			changes = append(changes, change{id: o.id, addr: a})
		}
	}
	return changes
}

func (h *HAL) stereoPair(o *object, scope hal.Scope) hal.StereoPair {
	pair, _ := hal.Pair.Decode(o.props[hal.Scoped(hal.PropertyPreferredChannelsForStereo, scope)].data)
	return pair
}

func (h *HAL) channelVolumes(o *object, scope hal.Scope) (l, r hal.Address, ok bool) {
	pair := h.stereoPair(o, scope)
	l = hal.Channel(hal.PropertyVolumeScalar, scope, pair.Left)
	r = hal.Channel(hal.PropertyVolumeScalar, scope, pair.Right)
	return l, r, o.has(l) && o.has(r)
}

// virtualMainVolume is the main channel volume when the device has one,
// otherwise the louder channel of the stereo pair.
func (h *HAL) virtualMainVolume(o *object, scope hal.Scope) (float32, bool) {
	if main := hal.Channel(hal.PropertyVolumeScalar, scope, 0); o.has(main) {
		return o.float32At(main), true
	}
	l, r, ok := h.channelVolumes(o, scope)
	if !ok {
		return 0, false
	}
	return max(o.float32At(l), o.float32At(r)), true
}

func (h *HAL) setVirtualMainVolume(o *object, scope hal.Scope, v float32) []change {
	if main := hal.Channel(hal.PropertyVolumeScalar, scope, 0); o.has(main) {
		o.props[main].data = hal.Float32.Encode(v)
		return h.volumeChanged(o, main)
	}
	l, r, ok := h.channelVolumes(o, scope)
	if !ok {
		return nil
	}
	lv, rv := o.float32At(l), o.float32At(r)
	top := max(lv, rv)
	if top == 0 {
		lv, rv = v, v
	} else {
		lv, rv = lv/top*v, rv/top*v
	}
	o.props[l].data = hal.Float32.Encode(lv)
	o.props[r].data = hal.Float32.Encode(rv)
	return append(h.volumeChanged(o, l), h.volumeChanged(o, r)...)
}

// virtualMainBalance maps the stereo pair levels onto 0 (left) .. 1 (right).
func (h *HAL) virtualMainBalance(o *object, scope hal.Scope) (float32, bool) {
	l, r, ok := h.channelVolumes(o, scope)
	if !ok {
		return 0, false
	}
	lv, rv := o.float32At(l), o.float32At(r)
	switch {
	case lv == rv:
		return 0.5, true
	case lv > rv:
		return 0.5 * rv / lv, true
	default:
		return 1 - 0.5*lv/rv, true
	}
}

func (h *HAL) setVirtualMainBalance(o *object, scope hal.Scope, b float32) []change {
	l, r, ok := h.channelVolumes(o, scope)
	if !ok {
		return nil
	}
	top := max(o.float32At(l), o.float32At(r))
	lv, rv := top, top
	if b < 0.5 {
		rv = top * b / 0.5
	} else if b > 0.5 {
		lv = top * (1 - b) / 0.5
	}
	o.props[l].data = hal.Float32.Encode(lv)
	o.props[r].data = hal.Float32.Encode(rv)
	return append(h.volumeChanged(o, l), h.volumeChanged(o, r)...)
}

func (h *HAL) supportsRate(o *object, rate float64) bool {
	for _, r := range o.dev.rates {
		if r.Contains(rate) {
			return true
		}
	}
	return false
}

// scheduleSettle moves the actual rate and the stream formats to rate once
// the settle delay has passed.
func (h *HAL) scheduleSettle(id hal.ObjectID, rate float64) {
	time.AfterFunc(h.settle, func() {
		h.mu.Lock()
		o, ok := h.objects[id]
		if !ok || o.float64At(hal.Global(hal.PropertyNominalSampleRate)) != rate {
			h.mu.Unlock()
			return
		}
		actual := hal.Global(hal.PropertyActualSampleRate)
		o.props[actual].data = hal.Float64.Encode(rate)
		changes := []change{{id: id, addr: actual}}
		for _, sid := range o.dev.streams {
			s := h.objects[sid]
			for _, sel := range []hal.Selector{hal.PropertyStreamVirtualFormat, hal.PropertyStreamPhysicalFormat} {
				a := hal.Global(sel)
				f, _ := hal.Format.Decode(s.props[a].data)
				f.SampleRate = rate
				s.props[a].data = hal.Format.Encode(f)
				changes = append(changes, change{id: sid, addr: a})
			}
		}
		h.mu.Unlock()
		h.emit(changes)
	})
}

// toggleHog grants ownership to the configured PID when the device is free
// and releases it when that PID is the owner. Requests against another
// owner are refused.
func (h *HAL) toggleHog(o *object, addr hal.Address, p *prop, data []byte) ([]change, error) {
	requested, _ := hal.Int32.Decode(data)
	owner, _ := hal.Int32.Decode(p.data)
	switch {
	case owner == hal.HogModeNoOwner && requested != hal.HogModeNoOwner:
		p.data = hal.Int32.Encode(h.pid)
	case owner == h.pid && requested == hal.HogModeNoOwner:
		p.data = hal.Int32.Encode(hal.HogModeNoOwner)
	case owner == h.pid:
		return nil, nil
	default:
		return nil, hal.StatusIllegalOperation
	}
	return []change{{id: o.id, addr: addr}}, nil
}

func (h *HAL) setStreamFormat(s *object, addr hal.Address, p *prop, data []byte) ([]change, error) {
	f, _ := hal.Format.Decode(data)
	list := hal.Global(hal.PropertyStreamAvailableVirtualFormats)
	if addr.Selector == hal.PropertyStreamPhysicalFormat {
		list = hal.Global(hal.PropertyStreamAvailablePhysicalFormat)
	}
	available, _ := hal.RangedFormats.Decode(s.props[list].data)
	supported := slices.ContainsFunc(available, func(r hal.RangedFormat) bool {
		want := r.Format
		want.SampleRate = f.SampleRate
		return want == f && r.RateRange.Contains(f.SampleRate)
	})
	if !supported {
		return nil, hal.StatusUnsupportedFormat
	}
	p.data = data
	changes := []change{{id: s.id, addr: addr}}

	dev := h.objects[s.owner]
	nominal := hal.Global(hal.PropertyNominalSampleRate)
	if dev != nil && dev.float64At(nominal) != f.SampleRate {
		dev.props[nominal].data = hal.Float64.Encode(f.SampleRate)
		changes = append(changes, change{id: dev.id, addr: nominal})
		h.scheduleSettle(dev.id, f.SampleRate)
	}
	return changes, nil
}
