package coreaudio_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smazurov/audiohal/pkg/coreaudio"
	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

var scopes = []hal.Scope{hal.ScopeOutput, hal.ScopeInput}

func TestDeviceLookup(t *testing.T) {
	d, reg, _ := nullDevice(t)

	byID, ok := reg.DeviceByID(d.ID())
	require.True(t, ok)
	assert.True(t, byID.Equal(d))

	uid, ok := d.UID()
	require.True(t, ok)
	byUID, ok := reg.DeviceByUID(uid)
	require.True(t, ok)
	assert.True(t, byUID.Equal(d))

	_, ok = reg.DeviceByUID("no-such-device")
	assert.False(t, ok)
}

func TestSettingDefaultDevice(t *testing.T) {
	reg, _ := newTestRegistry(t, studioSpec(), micSpec())
	mic, ok := reg.DeviceByUID("usb-mic")
	require.True(t, ok)
	studio, ok := reg.DeviceByUID("acme-studio")
	require.True(t, ok)

	assert.True(t, studio.IsDefaultInput(), "first device with inputs is the initial default")
	require.True(t, mic.SetAsDefault(coreaudio.DefaultInput))
	assert.True(t, mic.IsDefaultInput())
	assert.False(t, studio.IsDefaultInput())

	def, ok := reg.DefaultDevice(coreaudio.DefaultInput)
	require.True(t, ok)
	assert.True(t, def.Equal(mic))

	assert.False(t, mic.SetAsDefault(coreaudio.DefaultOutput), "input-only device cannot be the default output")
	require.True(t, studio.SetAsDefault(coreaudio.DefaultSystemOutput))
	assert.True(t, studio.IsDefaultSystemOutput())
	assert.True(t, studio.IsDefaultOutput())
}

func TestGeneralDeviceInformation(t *testing.T) {
	d, _, _ := nullDevice(t)

	get := func(v string, ok bool) string {
		require.True(t, ok)
		return v
	}
	assert.Equal(t, "Null Audio Device", get(d.Name()))
	assert.Equal(t, "Apple Inc.", get(d.Manufacturer()))
	assert.Equal(t, nullUID, get(d.UID()))
	assert.Equal(t, "NullAudioDevice_ModelUID", get(d.ModelUID()))
	assert.Equal(t, "com.apple.audio.AudioMIDISetup", get(d.ConfigurationApplication()))

	transport, ok := d.TransportType()
	require.True(t, ok)
	assert.Equal(t, coreaudio.TransportVirtual, transport)
	assert.Equal(t, "virtual", transport.String())

	assert.False(t, d.IsInputOnly())
	assert.False(t, d.IsOutputOnly())

	hidden, ok := d.IsHidden()
	require.True(t, ok)
	assert.False(t, hidden)
	alive, ok := d.IsAlive()
	require.True(t, ok)
	assert.True(t, alive)
	running, ok := d.IsRunning()
	require.True(t, ok)
	assert.False(t, running)
	somewhere, ok := d.IsRunningSomewhere()
	require.True(t, ok)
	assert.False(t, somewhere)

	for _, scope := range scopes {
		_, ok := d.IsJackConnected(scope)
		assert.False(t, ok, "null device has no jack sensing")
		for ch := uint32(0); ch <= 2; ch++ {
			_, ok := d.ElementName(ch, scope)
			assert.False(t, ok, "channel %d %s", ch, scope)
		}
	}

	_, ok = d.OwnedObjectIDs()
	assert.True(t, ok)
	_, ok = d.ControlList()
	assert.True(t, ok)
	related, ok := d.RelatedDevices()
	require.True(t, ok)
	require.Len(t, related, 1)
	assert.True(t, related[0].Equal(d))

	class, ok := d.ClassID()
	require.True(t, ok)
	assert.Equal(t, hal.ClassDevice, class)
}

func TestDeviceWithJackAndNames(t *testing.T) {
	reg, _ := newTestRegistry(t, studioSpec())
	d, ok := reg.DeviceByUID("acme-studio")
	require.True(t, ok)

	jack, ok := d.IsJackConnected(hal.ScopeOutput)
	require.True(t, ok)
	assert.True(t, jack)

	name, ok := d.ElementName(1, hal.ScopeInput)
	require.True(t, ok)
	assert.Equal(t, "Left", name)
	_, ok = d.ElementName(5, hal.ScopeInput)
	assert.False(t, ok)

	transport, _ := d.TransportType()
	assert.Equal(t, coreaudio.TransportUSB, transport)

	latency, ok := d.Latency(hal.ScopeOutput)
	require.True(t, ok)
	assert.Equal(t, uint32(32), latency)
	offset, ok := d.SafetyOffset(hal.ScopeInput)
	require.True(t, ok)
	assert.Equal(t, uint32(8), offset)
}

func TestLFE(t *testing.T) {
	d, _, _ := nullDevice(t)

	_, ok := d.ShouldOwniSub()
	assert.False(t, ok)
	assert.False(t, d.SetShouldOwniSub(true))
	_, ok = d.ShouldOwniSub()
	assert.False(t, ok)

	_, ok = d.LFEMute()
	assert.False(t, ok)
	assert.False(t, d.SetLFEMute(true))

	_, ok = d.LFEVolume()
	assert.False(t, ok)
	assert.False(t, d.SetLFEVolume(1))

	_, ok = d.LFEVolumeDecibels()
	assert.False(t, ok)
	assert.False(t, d.SetLFEVolumeDecibels(6))
}

func TestLFEOnDeviceWithSub(t *testing.T) {
	reg, _ := newTestRegistry(t, studioSpec())
	d, _ := reg.DeviceByUID("acme-studio")

	require.True(t, d.SetShouldOwniSub(false))
	own, ok := d.ShouldOwniSub()
	require.True(t, ok)
	assert.False(t, own)

	require.True(t, d.SetLFEMute(true))
	muted, _ := d.LFEMute()
	assert.True(t, muted)

	require.True(t, d.SetLFEVolume(0.5))
	v, _ := d.LFEVolume()
	assert.Equal(t, float32(0.5), v)
	db, ok := d.LFEVolumeDecibels()
	require.True(t, ok)
	assert.InDelta(t, -48.0, db, 1e-4)

	require.True(t, d.SetLFEVolumeDecibels(0))
	v, _ = d.LFEVolume()
	assert.InDelta(t, 1.0, v, 1e-6)
	assert.False(t, d.SetLFEVolume(1.5))
}

func TestInputOutputLayout(t *testing.T) {
	d, _, _ := nullDevice(t)

	for _, scope := range scopes {
		n, ok := d.LayoutChannels(scope)
		require.True(t, ok)
		assert.Equal(t, uint32(2), n)
		n, ok = d.Channels(scope)
		require.True(t, ok)
		assert.Equal(t, uint32(2), n)
	}

	reg, _ := newTestRegistry(t, micSpec())
	mic, _ := reg.DeviceByUID("usb-mic")
	assert.True(t, mic.IsInputOnly())
	assert.False(t, mic.IsOutputOnly())
	_, ok := mic.Channels(hal.ScopeOutput)
	assert.False(t, ok)
}

func TestDataSources(t *testing.T) {
	d, _, _ := nullDevice(t)

	for _, scope := range scopes {
		_, ok := d.DataSource(scope)
		assert.True(t, ok)
		ids, ok := d.DataSources(scope)
		require.True(t, ok)
		assert.Equal(t, []uint32{0, 1, 2, 3}, ids)

		for id := uint32(0); id < 4; id++ {
			name, ok := d.DataSourceName(id, scope)
			require.True(t, ok)
			assert.Equal(t, fmt.Sprintf("Data Source Item %d", id), name)
		}
		_, ok = d.DataSourceName(4, scope)
		assert.False(t, ok)

		require.True(t, d.SetDataSource(2, scope))
		cur, _ := d.DataSource(scope)
		assert.Equal(t, uint32(2), cur)
		assert.False(t, d.SetDataSource(7, scope))
		cur, _ = d.DataSource(scope)
		assert.Equal(t, uint32(2), cur, "rejected selection keeps the previous source")
	}
}

func TestLatencyAndSafetyOffset(t *testing.T) {
	d, _, _ := nullDevice(t)

	for _, scope := range scopes {
		latency, ok := d.Latency(scope)
		require.True(t, ok)
		assert.Equal(t, uint32(0), latency)
		offset, ok := d.SafetyOffset(scope)
		require.True(t, ok)
		assert.Equal(t, uint32(0), offset)
	}
}

func TestBufferFrameSize(t *testing.T) {
	d, _, _ := nullDevice(t)

	frames, ok := d.BufferFrameSize()
	require.True(t, ok)
	assert.Equal(t, uint32(512), frames)

	r, ok := d.BufferFrameSizeRange()
	require.True(t, ok)
	assert.True(t, r.Contains(256))

	require.True(t, d.SetBufferFrameSize(256))
	frames, _ = d.BufferFrameSize()
	assert.Equal(t, uint32(256), frames)
	assert.False(t, d.SetBufferFrameSize(1<<20))
}

func TestStreams(t *testing.T) {
	d, _, _ := nullDevice(t)

	for _, scope := range scopes {
		streams, ok := d.Streams(scope)
		require.True(t, ok)
		require.Len(t, streams, 1)
		assert.True(t, streams[0].Owner().Equal(d))
	}
}

func TestInvalidDeviceProperties(t *testing.T) {
	d, _, _ := nullDevice(t)
	var bogus hal.Address

	_, ok := coreaudio.GetProperty(d, bogus, hal.Uint32)
	assert.False(t, ok)
	_, ok = coreaudio.GetProperty(d, bogus, hal.Float32)
	assert.False(t, ok)
	_, ok = coreaudio.GetProperty(d, bogus, hal.Float64)
	assert.False(t, ok)
	_, ok = coreaudio.GetProperty(d, bogus, hal.String)
	assert.False(t, ok)
	_, ok = coreaudio.GetProperty(d, bogus, hal.Bool)
	assert.False(t, ok)
	assert.False(t, coreaudio.SetProperty(d, bogus, hal.Uint32, 1))

	rate, ok := coreaudio.GetProperty(d, hal.Global(hal.PropertyNominalSampleRate), hal.Float64)
	require.True(t, ok)
	assert.Equal(t, 44100.0, rate)
}

func TestRemovedDeviceFailsSoftly(t *testing.T) {
	d, reg, h := nullDevice(t)

	require.NoError(t, h.RemoveDevice(nullUID))
	require.NoError(t, reg.Refresh())

	_, ok := reg.DeviceByID(d.ID())
	assert.False(t, ok)
	_, ok = d.Name()
	assert.False(t, ok)
	_, ok = d.Volume(0, hal.ScopeOutput)
	assert.False(t, ok)
	assert.False(t, d.SetMute(true, 0, hal.ScopeOutput))
	assert.False(t, d.SetHogMode())
	assert.False(t, d.IsAggregate())
}
