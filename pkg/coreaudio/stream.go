package coreaudio

import (
	"math"

	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

// rateTolerance is how far a lenient match may stray from the nominal rate, in Hz.
const rateTolerance = 1.0

var (
	streamVirtualFormat   = hal.Prop(hal.PropertyStreamVirtualFormat, hal.Format)
	streamPhysicalFormat  = hal.Prop(hal.PropertyStreamPhysicalFormat, hal.Format)
	streamVirtualFormats  = hal.Prop(hal.PropertyStreamAvailableVirtualFormats, hal.RangedFormats)
	streamPhysicalFormats = hal.Prop(hal.PropertyStreamAvailablePhysicalFormat, hal.RangedFormats)
)

// Stream is one direction of audio IO on a device.
type Stream struct {
	object
	owner *Device
}

// Owner returns the device the stream belongs to.
func (s *Stream) Owner() *Device { return s.owner }

// Name returns the stream name.
func (s *Stream) Name() (string, bool) {
	return read(s.object, hal.Global(hal.PropertyName), hal.String)
}

// IsActive reports whether the stream is in use.
func (s *Stream) IsActive() (bool, bool) {
	return read(s.object, hal.Global(hal.PropertyStreamIsActive), hal.Bool)
}

// StartingChannel returns the device channel the stream's first channel maps to.
func (s *Stream) StartingChannel() (uint32, bool) {
	return read(s.object, hal.Global(hal.PropertyStreamStartingChannel), hal.Uint32)
}

// Scope returns hal.ScopeInput or hal.ScopeOutput.
func (s *Stream) Scope() (hal.Scope, bool) {
	dir, ok := read(s.object, hal.Global(hal.PropertyStreamDirection), hal.Uint32)
	if !ok {
		return hal.ScopeGlobal, false
	}
	if dir == hal.DirectionInput {
		return hal.ScopeInput, true
	}
	return hal.ScopeOutput, true
}

// TerminalType returns what the stream is connected to.
func (s *Stream) TerminalType() (TerminalType, bool) {
	code, ok := read(s.object, hal.Global(hal.PropertyStreamTerminalType), hal.Uint32)
	if !ok {
		return TerminalUnknown, false
	}
	return terminalCodes[code], true
}

// Latency returns the stream latency in frames.
func (s *Stream) Latency() (uint32, bool) {
	return read(s.object, hal.Global(hal.PropertyLatency), hal.Uint32)
}

// VirtualFormat returns the format the client sees.
func (s *Stream) VirtualFormat() (hal.StreamFormat, bool) {
	return read(s.object, streamVirtualFormat.Global(), streamVirtualFormat.Codec)
}

// SetVirtualFormat changes the client-side format. Malformed formats are
// refused without calling the HAL, and a rejected write leaves the current
// format in place.
func (s *Stream) SetVirtualFormat(f hal.StreamFormat) bool {
	if !f.Valid() {
		return false
	}
	return write(s.object, streamVirtualFormat.Global(), streamVirtualFormat.Codec, f)
}

// PhysicalFormat returns the format of the hardware.
func (s *Stream) PhysicalFormat() (hal.StreamFormat, bool) {
	return read(s.object, streamPhysicalFormat.Global(), streamPhysicalFormat.Codec)
}

// SetPhysicalFormat changes the hardware format.
func (s *Stream) SetPhysicalFormat(f hal.StreamFormat) bool {
	if !f.Valid() {
		return false
	}
	return write(s.object, streamPhysicalFormat.Global(), streamPhysicalFormat.Codec, f)
}

// AvailableVirtualFormats lists the client-side formats the HAL accepts.
func (s *Stream) AvailableVirtualFormats() ([]hal.RangedFormat, bool) {
	return read(s.object, streamVirtualFormats.Global(), streamVirtualFormats.Codec)
}

// AvailablePhysicalFormats lists the hardware formats the HAL accepts.
func (s *Stream) AvailablePhysicalFormats() ([]hal.RangedFormat, bool) {
	return read(s.object, streamPhysicalFormats.Global(), streamPhysicalFormats.Codec)
}

// FormatMatchOption adjusts which formats match the nominal rate.
type FormatMatchOption func(*formatMatch)

type formatMatch struct {
	tolerance   float64
	mixableOnly bool
}

// Lenient also matches rates within 1 Hz of the nominal rate.
func Lenient() FormatMatchOption {
	return func(m *formatMatch) { m.tolerance = rateTolerance }
}

// MixableOnly drops formats flagged non-mixable.
func MixableOnly() FormatMatchOption {
	return func(m *formatMatch) { m.mixableOnly = true }
}

// AvailableVirtualFormatsMatchingNominalRate returns the virtual formats
// whose rate matches the owning device's nominal sample rate.
func (s *Stream) AvailableVirtualFormatsMatchingNominalRate(opts ...FormatMatchOption) ([]hal.StreamFormat, bool) {
	formats, ok := s.AvailableVirtualFormats()
	if !ok {
		return nil, false
	}
	return s.matchNominalRate(formats, opts)
}

// AvailablePhysicalFormatsMatchingNominalRate returns the physical formats
// whose rate matches the owning device's nominal sample rate.
func (s *Stream) AvailablePhysicalFormatsMatchingNominalRate(opts ...FormatMatchOption) ([]hal.StreamFormat, bool) {
	formats, ok := s.AvailablePhysicalFormats()
	if !ok {
		return nil, false
	}
	return s.matchNominalRate(formats, opts)
}

func (s *Stream) matchNominalRate(formats []hal.RangedFormat, opts []FormatMatchOption) ([]hal.StreamFormat, bool) {
	rate, ok := s.owner.NominalSampleRate()
	if !ok {
		return nil, false
	}
	var m formatMatch
	for _, opt := range opts {
		opt(&m)
	}
	out := make([]hal.StreamFormat, 0, len(formats))
	for _, rf := range formats {
		if m.mixableOnly && !rf.Format.Mixable() {
			continue
		}
		if rf.RateRange.ContainsApprox(rate, m.tolerance) || math.Abs(rf.Format.SampleRate-rate) <= m.tolerance {
			out = append(out, rf.Format)
		}
	}
	return out, true
}
