package simhal

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

// Fixture is the set of physical devices a simulated HAL publishes.
type Fixture struct {
	Devices []DeviceSpec `toml:"devices"`
}

// DeviceSpec describes one simulated physical device.
type DeviceSpec struct {
	Name                     string    `toml:"name"`
	Manufacturer             string    `toml:"manufacturer"`
	UID                      string    `toml:"uid"`
	ModelUID                 string    `toml:"model_uid"`
	ConfigurationApplication string    `toml:"configuration_application"`
	Transport                string    `toml:"transport"`
	Hidden                   bool      `toml:"hidden"`
	InputChannels            uint32    `toml:"input_channels"`
	OutputChannels           uint32    `toml:"output_channels"`
	SampleRates              []float64 `toml:"sample_rates"`
	NominalSampleRate        float64   `toml:"nominal_sample_rate"`

	// MainVolume exposes volume and mute on channel 0 of each scope.
	MainVolume bool `toml:"main_volume"`
	// ChannelVolume exposes volume and mute on every channel.
	ChannelVolume bool    `toml:"channel_volume"`
	PlayThru      bool    `toml:"play_thru"`
	MinDecibels   float32 `toml:"min_decibels"`
	MaxDecibels   float32 `toml:"max_decibels"`

	ChannelNames  []string `toml:"channel_names"`
	DataSources   []string `toml:"data_sources"`
	ClockSources  []string `toml:"clock_sources"`
	JackConnected *bool    `toml:"jack_connected"`
	LFE           bool     `toml:"lfe"`

	Latency         uint32 `toml:"latency"`
	SafetyOffset    uint32 `toml:"safety_offset"`
	BufferFrameSize uint32 `toml:"buffer_frame_size"`
}

var transports = map[string]uint32{
	"builtin":     hal.TransportBuiltIn,
	"aggregate":   hal.TransportAggregate,
	"virtual":     hal.TransportVirtual,
	"pci":         hal.TransportPCI,
	"usb":         hal.TransportUSB,
	"firewire":    hal.TransportFireWire,
	"bluetooth":   hal.TransportBluetooth,
	"bluetoothle": hal.TransportBluetoothLE,
	"hdmi":        hal.TransportHDMI,
	"displayport": hal.TransportDisplayPort,
	"airplay":     hal.TransportAirPlay,
	"avb":         hal.TransportAVB,
	"thunderbolt": hal.TransportThunderbolt,
}

// NullDevice returns the reference virtual device: two channels per
// scope, volume and mute on the main channel only, two sample rates and
// four data sources.
func NullDevice() DeviceSpec {
	return DeviceSpec{
		Name:                     "Null Audio Device",
		Manufacturer:             "Apple Inc.",
		UID:                      "NullAudioDevice_UID",
		ModelUID:                 "NullAudioDevice_ModelUID",
		ConfigurationApplication: "com.apple.audio.AudioMIDISetup",
		Transport:                "virtual",
		InputChannels:            2,
		OutputChannels:           2,
		SampleRates:              []float64{44100, 48000},
		NominalSampleRate:        44100,
		MainVolume:               true,
		MinDecibels:              -96,
		MaxDecibels:              6,
		DataSources: []string{
			"Data Source Item 0",
			"Data Source Item 1",
			"Data Source Item 2",
			"Data Source Item 3",
		},
		BufferFrameSize: 512,
	}
}

// LoadFixture reads a fixture from a TOML file.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := toml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return Fixture{}, err
	}
	return f, nil
}

// Validate checks every device spec and rejects duplicate UIDs.
func (f Fixture) Validate() error {
	seen := make(map[string]bool, len(f.Devices))
	for i, d := range f.Devices {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("device %d: %w", i, err)
		}
		if seen[d.UID] {
			return fmt.Errorf("device %d: duplicate uid %q", i, d.UID)
		}
		seen[d.UID] = true
	}
	return nil
}

// Validate reports missing or inconsistent fields.
func (d DeviceSpec) Validate() error {
	if d.UID == "" {
		return fmt.Errorf("uid is required")
	}
	if d.Name == "" {
		return fmt.Errorf("device %q: name is required", d.UID)
	}
	if d.Transport != "" {
		if _, ok := transports[strings.ToLower(d.Transport)]; !ok {
			return fmt.Errorf("device %q: unknown transport %q", d.UID, d.Transport)
		}
	}
	if d.InputChannels == 0 && d.OutputChannels == 0 {
		return fmt.Errorf("device %q: needs at least one channel", d.UID)
	}
	if len(d.SampleRates) == 0 {
		return fmt.Errorf("device %q: needs at least one sample rate", d.UID)
	}
	if (d.MainVolume || d.ChannelVolume) && d.MinDecibels >= d.MaxDecibels {
		return fmt.Errorf("device %q: decibel range %v..%v is empty", d.UID, d.MinDecibels, d.MaxDecibels)
	}
	return nil
}

func (d DeviceSpec) transportCode() uint32 {
	if code, ok := transports[strings.ToLower(d.Transport)]; ok {
		return code
	}
	return 0
}

func (d DeviceSpec) nominalRate() float64 {
	for _, r := range d.SampleRates {
		if r == d.NominalSampleRate {
			return r
		}
	}
	return d.SampleRates[0]
}
