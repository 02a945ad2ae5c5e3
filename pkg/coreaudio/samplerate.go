package coreaudio

import (
	"context"
	"slices"
	"time"

	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

// possibleRates are the standard rates offered when a device advertises a
// continuous range instead of discrete values.
var possibleRates = []float64{
	6400, 8000, 11025, 12000, 16000, 22050, 24000, 32000,
	44100, 48000, 64000, 88200, 96000, 128000, 176400, 192000,
}

// NominalSampleRate returns the requested sample rate.
func (d *Device) NominalSampleRate() (float64, bool) {
	return read(d.object, hal.Global(hal.PropertyNominalSampleRate), hal.Float64)
}

// ActualSampleRate returns the rate the device is currently running at.
func (d *Device) ActualSampleRate() (float64, bool) {
	return read(d.object, hal.Global(hal.PropertyActualSampleRate), hal.Float64)
}

// NominalSampleRates returns the discrete rates the device supports.
// Advertised ranges are expanded to the standard rates they contain.
func (d *Device) NominalSampleRates() ([]float64, bool) {
	ranges, ok := read(d.object, hal.Global(hal.PropertyAvailableNominalSampleRates), hal.Ranges)
	if !ok {
		return nil, false
	}
	rates := make([]float64, 0, len(ranges))
	add := func(r float64) {
		if !slices.Contains(rates, r) {
			rates = append(rates, r)
		}
	}
	for _, r := range ranges {
		if r.Min >= r.Max {
			add(r.Min)
			continue
		}
		for _, p := range possibleRates {
			if r.Contains(p) {
				add(p)
			}
		}
	}
	return rates, true
}

// SetNominalSampleRate requests a new sample rate. A true result means the
// HAL accepted the request; use WaitForSampleRate to observe the change.
func (d *Device) SetNominalSampleRate(rate float64) bool {
	return write(d.object, hal.Global(hal.PropertyNominalSampleRate), hal.Float64, rate)
}

// WaitForSampleRate blocks until both the nominal and actual rates equal
// rate, or ctx ends. It wakes on rate change notifications and polls with
// backoff in between. Only ctx bounds the wait; with context.Background
// it blocks until the rate settles.
func (d *Device) WaitForSampleRate(ctx context.Context, rate float64) bool {
	wake := make(chan struct{}, 1)
	notify := func(hal.Address) {
		select {
		case wake <- struct{}{}:
		default:
		}
	}
	for _, sel := range []hal.Selector{hal.PropertyNominalSampleRate, hal.PropertyActualSampleRate} {
		remove := d.OnPropertyChange(sel, notify)
		defer remove()
	}

	settled := func() bool {
		nominal, ok := d.NominalSampleRate()
		if !ok || nominal != rate {
			return false
		}
		actual, ok := d.ActualSampleRate()
		return ok && actual == rate
	}

	b := newBackoff()
	for {
		if settled() {
			return true
		}
		timer := time.NewTimer(b.next())
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// ClockSourceID returns the selected clock source.
func (d *Device) ClockSourceID() (uint32, bool) {
	return read(d.object, hal.Global(hal.PropertyClockSource), hal.Uint32)
}

// ClockSourceIDs lists the selectable clock sources. Devices without a
// selectable clock report absence.
func (d *Device) ClockSourceIDs() ([]uint32, bool) {
	return read(d.object, hal.Global(hal.PropertyClockSources), hal.Uint32s)
}

// ClockSourceName returns the name of the selected clock source.
func (d *Device) ClockSourceName() (string, bool) {
	id, ok := d.ClockSourceID()
	if !ok {
		return "", false
	}
	return d.ClockSourceNameForID(id)
}

// ClockSourceNameForID returns the name of a clock source.
func (d *Device) ClockSourceNameForID(id uint32) (string, bool) {
	return translate(d.object, hal.Global(hal.PropertyClockSourceNameForID), hal.Uint32, id, hal.String)
}

// ClockSourceNames returns the names of every selectable clock source.
func (d *Device) ClockSourceNames() ([]string, bool) {
	ids, ok := d.ClockSourceIDs()
	if !ok {
		return nil, false
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := d.ClockSourceNameForID(id); ok {
			names = append(names, name)
		}
	}
	return names, true
}

// SetClockSourceID selects a clock source. IDs outside ClockSourceIDs are
// refused without calling the HAL.
func (d *Device) SetClockSourceID(id uint32) bool {
	ids, ok := d.ClockSourceIDs()
	if !ok || !slices.Contains(ids, id) {
		return false
	}
	return write(d.object, hal.Global(hal.PropertyClockSource), hal.Uint32, id)
}
