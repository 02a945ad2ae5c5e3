package coreaudio

import "github.com/smazurov/audiohal/pkg/coreaudio/hal"

// TransportType is how a device is connected to the host.
type TransportType int

// Transport types.
const (
	TransportUnknown TransportType = iota
	TransportBuiltIn
	TransportAggregate
	TransportVirtual
	TransportPCI
	TransportUSB
	TransportFireWire
	TransportBluetooth
	TransportBluetoothLE
	TransportHDMI
	TransportDisplayPort
	TransportAirPlay
	TransportAVB
	TransportThunderbolt
)

var transportCodes = map[uint32]TransportType{
	hal.TransportBuiltIn:     TransportBuiltIn,
	hal.TransportAggregate:   TransportAggregate,
	hal.TransportVirtual:     TransportVirtual,
	hal.TransportPCI:         TransportPCI,
	hal.TransportUSB:         TransportUSB,
	hal.TransportFireWire:    TransportFireWire,
	hal.TransportBluetooth:   TransportBluetooth,
	hal.TransportBluetoothLE: TransportBluetoothLE,
	hal.TransportHDMI:        TransportHDMI,
	hal.TransportDisplayPort: TransportDisplayPort,
	hal.TransportAirPlay:     TransportAirPlay,
	hal.TransportAVB:         TransportAVB,
	hal.TransportThunderbolt: TransportThunderbolt,
}

var transportNames = [...]string{
	TransportUnknown:     "unknown",
	TransportBuiltIn:     "builtIn",
	TransportAggregate:   "aggregate",
	TransportVirtual:     "virtual",
	TransportPCI:         "pci",
	TransportUSB:         "usb",
	TransportFireWire:    "fireWire",
	TransportBluetooth:   "bluetooth",
	TransportBluetoothLE: "bluetoothLE",
	TransportHDMI:        "hdmi",
	TransportDisplayPort: "displayPort",
	TransportAirPlay:     "airPlay",
	TransportAVB:         "avb",
	TransportThunderbolt: "thunderbolt",
}

func (t TransportType) String() string {
	if t < 0 || int(t) >= len(transportNames) {
		return transportNames[TransportUnknown]
	}
	return transportNames[t]
}

// TerminalType is what a stream is physically connected to.
type TerminalType int

// Terminal types.
const (
	TerminalUnknown TerminalType = iota
	TerminalLine
	TerminalDigitalAudioInterface
	TerminalSpeaker
	TerminalHeadphones
	TerminalLFESpeaker
	TerminalReceiverSpeaker
	TerminalMicrophone
	TerminalHeadsetMicrophone
	TerminalReceiverMicrophone
	TerminalTTY
	TerminalHDMI
	TerminalDisplayPort
)

var terminalCodes = map[uint32]TerminalType{
	hal.TerminalLine:                  TerminalLine,
	hal.TerminalDigitalAudioInterface: TerminalDigitalAudioInterface,
	hal.TerminalSpeaker:               TerminalSpeaker,
	hal.TerminalHeadphones:            TerminalHeadphones,
	hal.TerminalLFESpeaker:            TerminalLFESpeaker,
	hal.TerminalReceiverSpeaker:       TerminalReceiverSpeaker,
	hal.TerminalMicrophone:            TerminalMicrophone,
	hal.TerminalHeadsetMicrophone:     TerminalHeadsetMicrophone,
	hal.TerminalReceiverMicrophone:    TerminalReceiverMicrophone,
	hal.TerminalTTY:                   TerminalTTY,
	hal.TerminalHDMI:                  TerminalHDMI,
	hal.TerminalDisplayPort:           TerminalDisplayPort,
}

var terminalNames = [...]string{
	TerminalUnknown:               "unknown",
	TerminalLine:                  "line",
	TerminalDigitalAudioInterface: "digitalAudioInterface",
	TerminalSpeaker:               "speaker",
	TerminalHeadphones:            "headphones",
	TerminalLFESpeaker:            "lfeSpeaker",
	TerminalReceiverSpeaker:       "receiverSpeaker",
	TerminalMicrophone:            "microphone",
	TerminalHeadsetMicrophone:     "headsetMicrophone",
	TerminalReceiverMicrophone:    "receiverMicrophone",
	TerminalTTY:                   "tty",
	TerminalHDMI:                  "hdmi",
	TerminalDisplayPort:           "displayPort",
}

func (t TerminalType) String() string {
	if t < 0 || int(t) >= len(terminalNames) {
		return terminalNames[TerminalUnknown]
	}
	return terminalNames[t]
}

// DefaultRole is a system-wide default device slot.
type DefaultRole int

// Default device roles.
const (
	DefaultInput DefaultRole = iota
	DefaultOutput
	DefaultSystemOutput
)

func (r DefaultRole) selector() hal.Selector {
	switch r {
	case DefaultInput:
		return hal.PropertyDefaultInputDevice
	case DefaultSystemOutput:
		return hal.PropertyDefaultSystemOutputDevice
	default:
		return hal.PropertyDefaultOutputDevice
	}
}

func (r DefaultRole) String() string {
	switch r {
	case DefaultInput:
		return "input"
	case DefaultSystemOutput:
		return "system"
	default:
		return "output"
	}
}

// VolumeInfo is a snapshot of the level controls of one channel.
type VolumeInfo struct {
	Volume        float32
	HasVolume     bool
	CanSetVolume  bool
	CanMute       bool
	IsMuted       bool
	CanPlayThru   bool
	IsPlayThruSet bool
}
