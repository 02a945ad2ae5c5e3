package coreaudio

import (
	"math"

	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

func validScalar(v float32) bool {
	return !math.IsNaN(float64(v)) && v >= 0 && v <= 1
}

// level addresses a per-channel level property, or reports false for
// channels past the device's channel count.
func (d *Device) level(sel hal.Selector, channel uint32, scope hal.Scope) (hal.Address, bool) {
	if !d.validChannel(channel, scope) {
		return hal.Address{}, false
	}
	return hal.Channel(sel, scope, channel), true
}

// Volume returns the scalar volume of channel, in [0, 1]. Channel 0 is the
// main channel.
func (d *Device) Volume(channel uint32, scope hal.Scope) (float32, bool) {
	addr, ok := d.level(hal.PropertyVolumeScalar, channel, scope)
	if !ok {
		return 0, false
	}
	return read(d.object, addr, hal.Float32)
}

// SetVolume sets the scalar volume of channel.
func (d *Device) SetVolume(v float32, channel uint32, scope hal.Scope) bool {
	addr, ok := d.level(hal.PropertyVolumeScalar, channel, scope)
	if !ok || !validScalar(v) {
		return false
	}
	return write(d.object, addr, hal.Float32, v)
}

// VolumeInDecibels returns the volume of channel as the device reports it in dB.
func (d *Device) VolumeInDecibels(channel uint32, scope hal.Scope) (float32, bool) {
	addr, ok := d.level(hal.PropertyVolumeDecibels, channel, scope)
	if !ok {
		return 0, false
	}
	return read(d.object, addr, hal.Float32)
}

// ScalarToDecibels converts a scalar volume using the device's own curve.
func (d *Device) ScalarToDecibels(v float32, channel uint32, scope hal.Scope) (float32, bool) {
	addr, ok := d.level(hal.PropertyVolumeScalarToDecibels, channel, scope)
	if !ok {
		return 0, false
	}
	return translate(d.object, addr, hal.Float32, v, hal.Float32)
}

// DecibelsToScalar converts a dB volume using the device's own curve.
func (d *Device) DecibelsToScalar(db float32, channel uint32, scope hal.Scope) (float32, bool) {
	addr, ok := d.level(hal.PropertyVolumeDecibelsToScalar, channel, scope)
	if !ok {
		return 0, false
	}
	return translate(d.object, addr, hal.Float32, db, hal.Float32)
}

// CanSetVolume reports whether the volume of channel is settable.
func (d *Device) CanSetVolume(channel uint32, scope hal.Scope) bool {
	addr, ok := d.level(hal.PropertyVolumeScalar, channel, scope)
	return ok && settable(d.object, addr)
}

// IsMuted reports the mute state of channel.
func (d *Device) IsMuted(channel uint32, scope hal.Scope) (bool, bool) {
	addr, ok := d.level(hal.PropertyMute, channel, scope)
	if !ok {
		return false, false
	}
	return read(d.object, addr, hal.Bool)
}

// SetMute mutes or unmutes channel.
func (d *Device) SetMute(muted bool, channel uint32, scope hal.Scope) bool {
	addr, ok := d.level(hal.PropertyMute, channel, scope)
	if !ok {
		return false
	}
	return write(d.object, addr, hal.Bool, muted)
}

// CanMute reports whether channel has a settable mute.
func (d *Device) CanMute(channel uint32, scope hal.Scope) bool {
	addr, ok := d.level(hal.PropertyMute, channel, scope)
	return ok && settable(d.object, addr)
}

// IsMainChannelMuted reports the mute state of the main channel.
func (d *Device) IsMainChannelMuted(scope hal.Scope) (bool, bool) {
	return d.IsMuted(uint32(hal.ElementMain), scope)
}

// CanMuteMainChannel reports whether the scope can be muted as a whole,
// either through a main channel mute or through mutes on both channels of
// the preferred stereo pair.
func (d *Device) CanMuteMainChannel(scope hal.Scope) bool {
	if d.CanMute(uint32(hal.ElementMain), scope) {
		return true
	}
	pair, ok := d.PreferredChannelsForStereo(scope)
	if !ok {
		return false
	}
	return d.CanMute(pair.Left, scope) && d.CanMute(pair.Right, scope)
}

// VolumeInfo returns the level controls of channel, or false when the
// channel has no volume control. Mute and play-through are optional on a
// channel that has volume: when either property is absent its fields stay
// false rather than making the whole result absent.
func (d *Device) VolumeInfo(channel uint32, scope hal.Scope) (VolumeInfo, bool) {
	vol, ok := d.Volume(channel, scope)
	if !ok {
		return VolumeInfo{}, false
	}
	info := VolumeInfo{
		Volume:       vol,
		HasVolume:    true,
		CanSetVolume: d.CanSetVolume(channel, scope),
		CanMute:      d.CanMute(channel, scope),
	}
	if muted, ok := d.IsMuted(channel, scope); ok {
		info.IsMuted = muted
	}
	thru := hal.Channel(hal.PropertyPlayThru, scope, channel)
	info.CanPlayThru = settable(d.object, thru)
	if set, ok := read(d.object, thru, hal.Bool); ok {
		info.IsPlayThruSet = set
	}
	return info, true
}

// VirtualMainVolume returns the level of the whole scope.
func (d *Device) VirtualMainVolume(scope hal.Scope) (float32, bool) {
	return read(d.object, hal.Scoped(hal.PropertyVirtualMainVolume, scope), hal.Float32)
}

// SetVirtualMainVolume sets the level of the whole scope. The HAL moves
// every channel proportionally.
func (d *Device) SetVirtualMainVolume(v float32, scope hal.Scope) bool {
	if !validScalar(v) {
		return false
	}
	return write(d.object, hal.Scoped(hal.PropertyVirtualMainVolume, scope), hal.Float32, v)
}

// CanSetVirtualMainVolume reports whether the scope level is settable.
func (d *Device) CanSetVirtualMainVolume(scope hal.Scope) bool {
	return settable(d.object, hal.Scoped(hal.PropertyVirtualMainVolume, scope))
}

// VirtualMainVolumeInDecibels converts the scope level to dB on the main
// channel, or on the left channel of the stereo pair when there is no main
// volume control.
func (d *Device) VirtualMainVolumeInDecibels(scope hal.Scope) (float32, bool) {
	ref, ok := d.referenceChannel(scope)
	if !ok {
		return 0, false
	}
	v, ok := d.VirtualMainVolume(scope)
	if !ok {
		return 0, false
	}
	return d.ScalarToDecibels(v, ref, scope)
}

func (d *Device) referenceChannel(scope hal.Scope) (uint32, bool) {
	if d.CanSetVolume(uint32(hal.ElementMain), scope) {
		return uint32(hal.ElementMain), true
	}
	pair, ok := d.PreferredChannelsForStereo(scope)
	if !ok {
		return 0, false
	}
	for _, ch := range []uint32{pair.Left, pair.Right} {
		if d.CanSetVolume(ch, scope) {
			return ch, true
		}
	}
	return 0, false
}

// VirtualMainBalance returns the stereo balance from 0 (left) to 1 (right).
// Devices without independently steerable stereo channels report absence.
func (d *Device) VirtualMainBalance(scope hal.Scope) (float32, bool) {
	return read(d.object, hal.Scoped(hal.PropertyVirtualMainBalance, scope), hal.Float32)
}

// SetVirtualMainBalance sets the stereo balance.
func (d *Device) SetVirtualMainBalance(b float32, scope hal.Scope) bool {
	if !validScalar(b) {
		return false
	}
	return write(d.object, hal.Scoped(hal.PropertyVirtualMainBalance, scope), hal.Float32, b)
}

// PreferredChannelsForStereo returns the channels used for stereo output.
func (d *Device) PreferredChannelsForStereo(scope hal.Scope) (hal.StereoPair, bool) {
	return read(d.object, hal.Scoped(hal.PropertyPreferredChannelsForStereo, scope), hal.Pair)
}

// SetPreferredChannelsForStereo passes pair to the HAL unchanged; the HAL
// decides whether the channels are acceptable.
func (d *Device) SetPreferredChannelsForStereo(pair hal.StereoPair, scope hal.Scope) bool {
	return write(d.object, hal.Scoped(hal.PropertyPreferredChannelsForStereo, scope), hal.Pair, pair)
}
