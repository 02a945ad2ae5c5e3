package hal

import "math"

// ValueRange is an inclusive range of float64 values.
type ValueRange struct {
	Min float64
	Max float64
}

// Contains reports whether v lies in the range.
func (r ValueRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// ContainsApprox reports whether v lies in the range widened by tol on both ends.
func (r ValueRange) ContainsApprox(v, tol float64) bool {
	return v >= r.Min-tol && v <= r.Max+tol
}

// StereoPair holds the 1-based channel indices of a preferred stereo mapping.
type StereoPair struct {
	Left  uint32
	Right uint32
}

// Format identifiers.
var (
	FormatLinearPCM = FourCC("lpcm")
	FormatAC3       = FourCC("ac-3")
)

// Format flags.
const (
	FormatFlagIsFloat          uint32 = 1 << 0
	FormatFlagIsBigEndian      uint32 = 1 << 1
	FormatFlagIsSignedInteger  uint32 = 1 << 2
	FormatFlagIsPacked         uint32 = 1 << 3
	FormatFlagIsNonInterleaved uint32 = 1 << 5
	FormatFlagIsNonMixable     uint32 = 1 << 6
)

// StreamFormat is the basic description of a stream's data layout.
type StreamFormat struct {
	SampleRate       float64
	FormatID         uint32
	FormatFlags      uint32
	BytesPerPacket   uint32
	FramesPerPacket  uint32
	BytesPerFrame    uint32
	ChannelsPerFrame uint32
	BitsPerChannel   uint32
}

// Valid reports whether f describes a usable format.
func (f StreamFormat) Valid() bool {
	if f.SampleRate <= 0 || math.IsNaN(f.SampleRate) || math.IsInf(f.SampleRate, 0) {
		return false
	}
	if f.FormatID == 0 || f.ChannelsPerFrame == 0 {
		return false
	}
	if f.FormatID == FormatLinearPCM && (f.BitsPerChannel == 0 || f.BytesPerFrame == 0) {
		return false
	}
	return true
}

// Mixable reports whether the non-mixable flag is clear.
func (f StreamFormat) Mixable() bool {
	return f.FormatFlags&FormatFlagIsNonMixable == 0
}

// LinearPCM builds a packed interleaved PCM format.
func LinearPCM(rate float64, channels, bits uint32, float bool) StreamFormat {
	flags := FormatFlagIsPacked
	if float {
		flags |= FormatFlagIsFloat
	} else {
		flags |= FormatFlagIsSignedInteger
	}
	bytesPerFrame := channels * bits / 8
	return StreamFormat{
		SampleRate:       rate,
		FormatID:         FormatLinearPCM,
		FormatFlags:      flags,
		BytesPerPacket:   bytesPerFrame,
		FramesPerPacket:  1,
		BytesPerFrame:    bytesPerFrame,
		ChannelsPerFrame: channels,
		BitsPerChannel:   bits,
	}
}

// RangedFormat is a format valid over a range of sample rates.
type RangedFormat struct {
	Format    StreamFormat
	RateRange ValueRange
}

// ChannelDescription describes one channel of a layout.
type ChannelDescription struct {
	Label       uint32
	Flags       uint32
	Coordinates [3]float32
}

// ChannelLayout is a device's preferred channel layout.
type ChannelLayout struct {
	Tag          uint32
	Bitmap       uint32
	Descriptions []ChannelDescription
}

// Buffer describes one buffer of a stream configuration.
type Buffer struct {
	Channels     uint32
	DataByteSize uint32
}

// BufferConfig is the buffer list of a device's stream configuration.
type BufferConfig struct {
	Buffers []Buffer
}

// TotalChannels sums the channels of every buffer.
func (c BufferConfig) TotalChannels() uint32 {
	var n uint32
	for _, b := range c.Buffers {
		n += b.Channels
	}
	return n
}
