package events

import (
	"time"

	"github.com/smazurov/audiohal/internal/logging"
)

// Event type identifiers for kelindar/event.
const (
	TypeDeviceAdded uint32 = iota + 1
	TypeDeviceRemoved
	TypeVolumeChanged
	TypeMuteChanged
	TypeSampleRateChanged
	TypeHogModeChanged
	TypeLogEntry
)

// Event is implemented by everything published on a Bus.
type Event interface {
	Type() uint32
}

// DeviceAddedEvent is published when a device appears in the registry.
type DeviceAddedEvent struct {
	UID       string `json:"uid" example:"NullAudioDevice_UID" doc:"Persistent device UID"`
	ID        uint32 `json:"id" example:"2" doc:"HAL object ID"`
	Name      string `json:"name" example:"Null Audio Device" doc:"Device name"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type implements Event.
func (DeviceAddedEvent) Type() uint32 { return TypeDeviceAdded }

// DeviceRemovedEvent is published when a device disappears.
type DeviceRemovedEvent struct {
	UID       string `json:"uid" doc:"UID the device had while present"`
	ID        uint32 `json:"id" doc:"HAL object ID the device had"`
	Timestamp string `json:"timestamp" doc:"Event timestamp"`
}

// Type implements Event.
func (DeviceRemovedEvent) Type() uint32 { return TypeDeviceRemoved }

// VolumeChangedEvent reports a new scalar volume on one channel.
type VolumeChangedEvent struct {
	UID       string  `json:"uid"`
	Scope     string  `json:"scope" enum:"input,output"`
	Channel   uint32  `json:"channel" doc:"0 is the main channel"`
	Volume    float32 `json:"volume" minimum:"0" maximum:"1"`
	Timestamp string  `json:"timestamp"`
}

// Type implements Event.
func (VolumeChangedEvent) Type() uint32 { return TypeVolumeChanged }

// MuteChangedEvent reports a mute toggle on one channel.
type MuteChangedEvent struct {
	UID       string `json:"uid"`
	Scope     string `json:"scope" enum:"input,output"`
	Channel   uint32 `json:"channel"`
	Muted     bool   `json:"muted"`
	Timestamp string `json:"timestamp"`
}

// Type implements Event.
func (MuteChangedEvent) Type() uint32 { return TypeMuteChanged }

// SampleRateChangedEvent is published when either the nominal or the
// actual rate moves. The two differ until the hardware settles.
type SampleRateChangedEvent struct {
	UID       string  `json:"uid"`
	Nominal   float64 `json:"nominal" example:"48000"`
	Actual    float64 `json:"actual" example:"44100"`
	Settled   bool    `json:"settled"`
	Timestamp string  `json:"timestamp"`
}

// Type implements Event.
func (SampleRateChangedEvent) Type() uint32 { return TypeSampleRateChanged }

// HogModeChangedEvent reports a new exclusive owner, or -1 when released.
type HogModeChangedEvent struct {
	UID       string `json:"uid"`
	PID       int32  `json:"pid" example:"-1"`
	Timestamp string `json:"timestamp"`
}

// Type implements Event.
func (HogModeChangedEvent) Type() uint32 { return TypeHogModeChanged }

// LogEntryEvent carries one log record to SSE clients.
type LogEntryEvent struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level" enum:"debug,info,warn,error"`
	Module    string         `json:"module,omitempty"`
	Message   string         `json:"message"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// Type implements Event.
func (LogEntryEvent) Type() uint32 { return TypeLogEntry }

// LogEntry converts a logging history entry.
func LogEntry(e logging.Entry) LogEntryEvent {
	return LogEntryEvent{
		Timestamp: e.Time.UTC().Format(time.RFC3339Nano),
		Level:     e.Level,
		Module:    e.Module,
		Message:   e.Message,
		Attrs:     e.Attrs,
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
