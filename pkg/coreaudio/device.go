package coreaudio

import (
	"fmt"
	"slices"

	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

// Device is an audio device published by the HAL. Devices are only obtained
// from a Registry; two handles refer to the same device when their IDs are
// equal.
type Device struct {
	object
}

// Equal reports whether d and other refer to the same HAL object.
func (d *Device) Equal(other *Device) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.id == other.id
}

func (d *Device) String() string {
	name, _ := d.Name()
	return fmt.Sprintf("%s (%d)", name, d.id)
}

func (d *Device) global(sel hal.Selector) hal.Address { return hal.Global(sel) }

// Name returns the human readable device name.
func (d *Device) Name() (string, bool) {
	return read(d.object, d.global(hal.PropertyName), hal.String)
}

// Manufacturer returns the device manufacturer.
func (d *Device) Manufacturer() (string, bool) {
	return read(d.object, d.global(hal.PropertyManufacturer), hal.String)
}

// UID returns the identifier that is stable across reconnects and reboots.
func (d *Device) UID() (string, bool) {
	return read(d.object, d.global(hal.PropertyDeviceUID), hal.String)
}

// ModelUID returns an identifier shared by devices of the same model.
func (d *Device) ModelUID() (string, bool) {
	return read(d.object, d.global(hal.PropertyModelUID), hal.String)
}

// ConfigurationApplication returns the bundle ID of the app that configures the device.
func (d *Device) ConfigurationApplication() (string, bool) {
	return read(d.object, d.global(hal.PropertyConfigurationApplication), hal.String)
}

// TransportType returns how the device is connected.
func (d *Device) TransportType() (TransportType, bool) {
	code, ok := read(d.object, d.global(hal.PropertyTransportType), hal.Uint32)
	if !ok {
		return TransportUnknown, false
	}
	return transportCodes[code], true
}

// IsHidden reports whether the device is hidden from users.
func (d *Device) IsHidden() (bool, bool) {
	return read(d.object, d.global(hal.PropertyIsHidden), hal.Bool)
}

// IsAlive reports whether the device is still usable.
func (d *Device) IsAlive() (bool, bool) {
	return read(d.object, d.global(hal.PropertyDeviceIsAlive), hal.Bool)
}

// IsRunning reports whether this process is doing IO on the device.
func (d *Device) IsRunning() (bool, bool) {
	return read(d.object, d.global(hal.PropertyDeviceIsRunning), hal.Bool)
}

// IsRunningSomewhere reports whether any process is doing IO on the device.
func (d *Device) IsRunningSomewhere() (bool, bool) {
	return read(d.object, d.global(hal.PropertyDeviceIsRunningSomewhere), hal.Bool)
}

// IsJackConnected reports jack state. Devices without jack sensing report absence.
func (d *Device) IsJackConnected(scope hal.Scope) (bool, bool) {
	return read(d.object, hal.Scoped(hal.PropertyJackIsConnected, scope), hal.Bool)
}

// ElementName returns the name of a channel.
func (d *Device) ElementName(channel uint32, scope hal.Scope) (string, bool) {
	if !d.validChannel(channel, scope) {
		return "", false
	}
	return read(d.object, hal.Channel(hal.PropertyElementName, scope, channel), hal.String)
}

// ControlList lists the device's control objects.
func (d *Device) ControlList() ([]hal.ObjectID, bool) {
	return read(d.object, d.global(hal.PropertyControlList), hal.ObjectIDs)
}

// RelatedDevices lists devices that share hardware with d, including d.
func (d *Device) RelatedDevices() ([]*Device, bool) {
	ids, ok := read(d.object, d.global(hal.PropertyRelatedDevices), hal.ObjectIDs)
	if !ok {
		return nil, false
	}
	return d.reg.resolve(ids), true
}

// LayoutChannels returns the channel count of the preferred channel layout.
func (d *Device) LayoutChannels(scope hal.Scope) (uint32, bool) {
	layout, ok := read(d.object, hal.Scoped(hal.PropertyPreferredChannelLayout, scope), hal.Layout)
	if !ok {
		return 0, false
	}
	return uint32(len(layout.Descriptions)), true
}

// Channels returns the total channel count of the stream configuration.
func (d *Device) Channels(scope hal.Scope) (uint32, bool) {
	cfg, ok := read(d.object, hal.Scoped(hal.PropertyStreamConfiguration, scope), hal.Buffers)
	if !ok {
		return 0, false
	}
	return cfg.TotalChannels(), true
}

func (d *Device) hasChannels(scope hal.Scope) bool {
	n, ok := d.Channels(scope)
	return ok && n > 0
}

// IsInputOnly reports a device with input channels and no output channels.
func (d *Device) IsInputOnly() bool {
	return d.hasChannels(hal.ScopeInput) && !d.hasChannels(hal.ScopeOutput)
}

// IsOutputOnly reports a device with output channels and no input channels.
func (d *Device) IsOutputOnly() bool {
	return d.hasChannels(hal.ScopeOutput) && !d.hasChannels(hal.ScopeInput)
}

// validChannel rejects channels past the scope's channel count. Channel 0
// is the main channel and always addressable.
func (d *Device) validChannel(channel uint32, scope hal.Scope) bool {
	if channel == 0 {
		return true
	}
	n, ok := d.Channels(scope)
	if !ok {
		return false
	}
	return channel <= n
}

// Latency returns the device latency in frames.
func (d *Device) Latency(scope hal.Scope) (uint32, bool) {
	return read(d.object, hal.Scoped(hal.PropertyLatency, scope), hal.Uint32)
}

// SafetyOffset returns the safety offset in frames.
func (d *Device) SafetyOffset(scope hal.Scope) (uint32, bool) {
	return read(d.object, hal.Scoped(hal.PropertySafetyOffset, scope), hal.Uint32)
}

// BufferFrameSize returns the IO buffer size in frames.
func (d *Device) BufferFrameSize() (uint32, bool) {
	return read(d.object, d.global(hal.PropertyBufferFrameSize), hal.Uint32)
}

// SetBufferFrameSize requests a new IO buffer size.
func (d *Device) SetBufferFrameSize(frames uint32) bool {
	return write(d.object, d.global(hal.PropertyBufferFrameSize), hal.Uint32, frames)
}

// BufferFrameSizeRange returns the allowed IO buffer sizes.
func (d *Device) BufferFrameSizeRange() (hal.ValueRange, bool) {
	return read(d.object, d.global(hal.PropertyBufferFrameSizeRange), hal.Range)
}

// DataSource returns the selected data source ID.
func (d *Device) DataSource(scope hal.Scope) (uint32, bool) {
	return read(d.object, hal.Scoped(hal.PropertyDataSource, scope), hal.Uint32)
}

// DataSources lists the selectable data source IDs.
func (d *Device) DataSources(scope hal.Scope) ([]uint32, bool) {
	return read(d.object, hal.Scoped(hal.PropertyDataSources, scope), hal.Uint32s)
}

// DataSourceName returns the name of a data source.
func (d *Device) DataSourceName(id uint32, scope hal.Scope) (string, bool) {
	return translate(d.object, hal.Scoped(hal.PropertyDataSourceNameForID, scope), hal.Uint32, id, hal.String)
}

// SetDataSource selects a data source. IDs outside DataSources are refused
// without calling the HAL.
func (d *Device) SetDataSource(id uint32, scope hal.Scope) bool {
	ids, ok := d.DataSources(scope)
	if !ok || !slices.Contains(ids, id) {
		return false
	}
	return write(d.object, hal.Scoped(hal.PropertyDataSource, scope), hal.Uint32, id)
}

// ShouldOwniSub reports whether the driver owns the LFE satellite.
func (d *Device) ShouldOwniSub() (bool, bool) {
	return read(d.object, d.global(hal.PropertyDriverShouldOwniSub), hal.Bool)
}

// SetShouldOwniSub sets LFE ownership.
func (d *Device) SetShouldOwniSub(v bool) bool {
	return write(d.object, d.global(hal.PropertyDriverShouldOwniSub), hal.Bool, v)
}

// LFEMute reports whether the LFE channel is muted.
func (d *Device) LFEMute() (bool, bool) {
	return read(d.object, hal.Scoped(hal.PropertySubMute, hal.ScopeOutput), hal.Bool)
}

// SetLFEMute mutes or unmutes the LFE channel.
func (d *Device) SetLFEMute(v bool) bool {
	return write(d.object, hal.Scoped(hal.PropertySubMute, hal.ScopeOutput), hal.Bool, v)
}

// LFEVolume returns the LFE level as a scalar.
func (d *Device) LFEVolume() (float32, bool) {
	return read(d.object, hal.Scoped(hal.PropertySubVolumeScalar, hal.ScopeOutput), hal.Float32)
}

// SetLFEVolume sets the LFE level as a scalar.
func (d *Device) SetLFEVolume(v float32) bool {
	if !validScalar(v) {
		return false
	}
	return write(d.object, hal.Scoped(hal.PropertySubVolumeScalar, hal.ScopeOutput), hal.Float32, v)
}

// LFEVolumeDecibels returns the LFE level in dB.
func (d *Device) LFEVolumeDecibels() (float32, bool) {
	return read(d.object, hal.Scoped(hal.PropertySubVolumeDecibels, hal.ScopeOutput), hal.Float32)
}

// SetLFEVolumeDecibels sets the LFE level in dB.
func (d *Device) SetLFEVolumeDecibels(db float32) bool {
	return write(d.object, hal.Scoped(hal.PropertySubVolumeDecibels, hal.ScopeOutput), hal.Float32, db)
}

// IsDefault reports whether d currently fills role.
func (d *Device) IsDefault(role DefaultRole) bool {
	cur, ok := d.reg.defaultID(role)
	return ok && cur == d.id
}

func (d *Device) IsDefaultInput() bool        { return d.IsDefault(DefaultInput) }
func (d *Device) IsDefaultOutput() bool       { return d.IsDefault(DefaultOutput) }
func (d *Device) IsDefaultSystemOutput() bool { return d.IsDefault(DefaultSystemOutput) }

// SetAsDefault makes d the system default for role.
func (d *Device) SetAsDefault(role DefaultRole) bool {
	sys := object{id: hal.SystemObject, reg: d.reg}
	return write(sys, hal.Global(role.selector()), hal.ObjectRef, d.id)
}

// Streams returns the device's streams for scope.
func (d *Device) Streams(scope hal.Scope) ([]*Stream, bool) {
	ids, ok := read(d.object, hal.Scoped(hal.PropertyStreams, scope), hal.ObjectIDs)
	if !ok {
		return nil, false
	}
	streams := make([]*Stream, len(ids))
	for i, id := range ids {
		streams[i] = &Stream{object: object{id: id, reg: d.reg}, owner: d}
	}
	return streams, true
}

// DefaultDevice returns the device filling role.
func (r *Registry) DefaultDevice(role DefaultRole) (*Device, bool) {
	id, ok := r.defaultID(role)
	if !ok {
		return nil, false
	}
	return r.DeviceByID(id)
}

func (r *Registry) defaultID(role DefaultRole) (hal.ObjectID, bool) {
	sys := object{id: hal.SystemObject, reg: r}
	id, ok := read(sys, hal.Global(role.selector()), hal.ObjectRef)
	if !ok || id == hal.UnknownObject {
		return 0, false
	}
	return id, true
}

// resolve maps IDs to indexed devices, dropping IDs the registry does not know.
func (r *Registry) resolve(ids []hal.ObjectID) []*Device {
	snap := r.snap.Load()
	out := make([]*Device, 0, len(ids))
	for _, id := range ids {
		if d, ok := snap.byID[id]; ok {
			out = append(out, d)
		}
	}
	return out
}
