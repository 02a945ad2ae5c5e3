package coreaudio

import (
	"github.com/go-audio/audio"
	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

// AudioFormat converts a linear PCM stream format to the go-audio
// representation. Non-PCM and fractional-rate formats report false.
func AudioFormat(f hal.StreamFormat) (*audio.Format, bool) {
	if !f.Valid() || f.FormatID != hal.FormatLinearPCM {
		return nil, false
	}
	rate := int(f.SampleRate)
	if float64(rate) != f.SampleRate {
		return nil, false
	}
	return &audio.Format{NumChannels: int(f.ChannelsPerFrame), SampleRate: rate}, true
}

// NewPCMBuffer allocates an interleaved buffer able to hold frames frames of f.
func NewPCMBuffer(f hal.StreamFormat, frames int) (*audio.PCMBuffer, bool) {
	format, ok := AudioFormat(f)
	if !ok || frames < 0 {
		return nil, false
	}
	n := frames * format.NumChannels
	buf := &audio.PCMBuffer{Format: format, SourceBitDepth: uint8((f.BitsPerChannel + 7) / 8)}
	float := f.FormatFlags&hal.FormatFlagIsFloat != 0
	switch {
	case float && f.BitsPerChannel == 32:
		buf.DataType, buf.F32 = audio.DataTypeF32, make([]float32, n)
	case float && f.BitsPerChannel == 64:
		buf.DataType, buf.F64 = audio.DataTypeF64, make([]float64, n)
	case float:
		return nil, false
	case f.BitsPerChannel <= 8:
		buf.DataType, buf.I8 = audio.DataTypeI8, make([]int8, n)
	case f.BitsPerChannel <= 16:
		buf.DataType, buf.I16 = audio.DataTypeI16, make([]int16, n)
	case f.BitsPerChannel <= 32:
		buf.DataType, buf.I32 = audio.DataTypeI32, make([]int32, n)
	default:
		return nil, false
	}
	return buf, true
}
