package coreaudio_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smazurov/audiohal/pkg/coreaudio"
	"github.com/smazurov/audiohal/pkg/coreaudio/simhal"
)

const nullUID = "NullAudioDevice_UID"

const testPID = 4321

func newTestRegistry(t *testing.T, specs ...simhal.DeviceSpec) (*coreaudio.Registry, *simhal.HAL) {
	t.Helper()
	if len(specs) == 0 {
		specs = []simhal.DeviceSpec{simhal.NullDevice()}
	}
	h, err := simhal.NewWithFixture(simhal.Fixture{Devices: specs},
		simhal.WithProcessID(testPID),
		simhal.WithSettleDelay(10*time.Millisecond))
	require.NoError(t, err)
	return newRegistryOver(t, h), h
}

func newRegistryOver(t *testing.T, h *simhal.HAL) *coreaudio.Registry {
	t.Helper()
	reg := coreaudio.NewRegistry(h,
		coreaudio.WithProcessID(testPID),
		coreaudio.WithSettleTimeout(2*time.Second))
	require.NoError(t, reg.Start())
	t.Cleanup(reg.Stop)
	return reg
}

func nullDevice(t *testing.T) (*coreaudio.Device, *coreaudio.Registry, *simhal.HAL) {
	t.Helper()
	reg, h := newTestRegistry(t)
	d, ok := reg.DeviceByUID(nullUID)
	require.True(t, ok, "null device not indexed")
	return d, reg, h
}

func studioSpec() simhal.DeviceSpec {
	jack := true
	return simhal.DeviceSpec{
		Name:              "Studio Interface",
		Manufacturer:      "Acme",
		UID:               "acme-studio",
		Transport:         "usb",
		InputChannels:     4,
		OutputChannels:    2,
		SampleRates:       []float64{44100, 48000, 96000},
		NominalSampleRate: 48000,
		ChannelVolume:     true,
		MinDecibels:       -64,
		MaxDecibels:       0,
		ClockSources:      []string{"Internal", "S/PDIF"},
		ChannelNames:      []string{"Left", "Right"},
		JackConnected:     &jack,
		LFE:               true,
		Latency:           32,
		SafetyOffset:      8,
	}
}

func micSpec() simhal.DeviceSpec {
	return simhal.DeviceSpec{
		Name:          "USB Microphone",
		UID:           "usb-mic",
		Transport:     "usb",
		InputChannels: 1,
		SampleRates:   []float64{48000},
		MainVolume:    true,
		MinDecibels:   -40,
		MaxDecibels:   20,
	}
}
