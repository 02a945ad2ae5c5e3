package hal

import (
	"encoding/binary"
	"math"
)

var le = binary.LittleEndian

// Codec marshals one value shape to and from raw property data.
//
// A codec either has a fixed size, a fixed element size (arrays), or
// validates variable-length data itself while decoding.
type Codec[T any] struct {
	name   string
	size   int
	elem   int
	encode func(T) []byte
	decode func([]byte) (T, bool)
}

// Name returns the shape name, used in diagnostics.
func (c Codec[T]) Name() string { return c.name }

// Size returns the fixed byte size, or 0 for variable-length shapes.
func (c Codec[T]) Size() int { return c.size }

// Fits reports whether a property of the given declared size can hold T.
func (c Codec[T]) Fits(size uint32) bool {
	switch {
	case c.size > 0:
		return int(size) == c.size
	case c.elem > 0:
		return int(size)%c.elem == 0
	default:
		return true
	}
}

// Encode marshals v.
func (c Codec[T]) Encode(v T) []byte { return c.encode(v) }

// Decode unmarshals data, failing when it does not fit the shape.
func (c Codec[T]) Decode(data []byte) (T, bool) {
	if !c.Fits(uint32(len(data))) {
		var zero T
		return zero, false
	}
	return c.decode(data)
}

func fixed[T any](name string, size int, enc func([]byte, T) []byte, dec func([]byte) T) Codec[T] {
	return Codec[T]{
		name:   name,
		size:   size,
		encode: func(v T) []byte { return enc(make([]byte, 0, size), v) },
		decode: func(b []byte) (T, bool) { return dec(b), true },
	}
}

func array[T any](name string, elem Codec[T]) Codec[[]T] {
	return Codec[[]T]{
		name: name,
		elem: elem.size,
		encode: func(vs []T) []byte {
			out := make([]byte, 0, len(vs)*elem.size)
			for _, v := range vs {
				out = append(out, elem.encode(v)...)
			}
			return out
		},
		decode: func(b []byte) ([]T, bool) {
			out := make([]T, 0, len(b)/elem.size)
			for off := 0; off < len(b); off += elem.size {
				v, ok := elem.decode(b[off : off+elem.size])
				if !ok {
					return nil, false
				}
				out = append(out, v)
			}
			return out, true
		},
	}
}

func appendFloat32(b []byte, v float32) []byte { return le.AppendUint32(b, math.Float32bits(v)) }
func appendFloat64(b []byte, v float64) []byte { return le.AppendUint64(b, math.Float64bits(v)) }
func float32At(b []byte, off int) float32      { return math.Float32frombits(le.Uint32(b[off:])) }
func float64At(b []byte, off int) float64      { return math.Float64frombits(le.Uint64(b[off:])) }

const (
	formatSize       = 40
	rangedFormatSize = formatSize + 16
	layoutHeaderSize = 12
	channelDescSize  = 20
	bufferSize       = 8
)

func appendFormat(b []byte, f StreamFormat) []byte {
	b = appendFloat64(b, f.SampleRate)
	b = le.AppendUint32(b, f.FormatID)
	b = le.AppendUint32(b, f.FormatFlags)
	b = le.AppendUint32(b, f.BytesPerPacket)
	b = le.AppendUint32(b, f.FramesPerPacket)
	b = le.AppendUint32(b, f.BytesPerFrame)
	b = le.AppendUint32(b, f.ChannelsPerFrame)
	b = le.AppendUint32(b, f.BitsPerChannel)
	return le.AppendUint32(b, 0) // reserved
}

func formatAt(b []byte) StreamFormat {
	return StreamFormat{
		SampleRate:       float64At(b, 0),
		FormatID:         le.Uint32(b[8:]),
		FormatFlags:      le.Uint32(b[12:]),
		BytesPerPacket:   le.Uint32(b[16:]),
		FramesPerPacket:  le.Uint32(b[20:]),
		BytesPerFrame:    le.Uint32(b[24:]),
		ChannelsPerFrame: le.Uint32(b[28:]),
		BitsPerChannel:   le.Uint32(b[32:]),
	}
}

// Scalar shapes.
var (
	Uint32 = fixed("uint32", 4, le.AppendUint32, le.Uint32)
	Int32  = fixed("int32", 4,
		func(b []byte, v int32) []byte { return le.AppendUint32(b, uint32(v)) },
		func(b []byte) int32 { return int32(le.Uint32(b)) })
	Float32 = fixed("float32", 4, appendFloat32, func(b []byte) float32 { return float32At(b, 0) })
	Float64 = fixed("float64", 8, appendFloat64, func(b []byte) float64 { return float64At(b, 0) })
	Bool    = fixed("bool", 4,
		func(b []byte, v bool) []byte {
			if v {
				return le.AppendUint32(b, 1)
			}
			return le.AppendUint32(b, 0)
		},
		func(b []byte) bool { return le.Uint32(b) != 0 })
	ObjectRef = fixed("object", 4,
		func(b []byte, v ObjectID) []byte { return le.AppendUint32(b, uint32(v)) },
		func(b []byte) ObjectID { return ObjectID(le.Uint32(b)) })
)

// String carries UTF-8 text of any length.
var String = Codec[string]{
	name:   "string",
	encode: func(s string) []byte { return []byte(s) },
	decode: func(b []byte) (string, bool) { return string(b), true },
}

// Struct shapes.
var (
	Range = fixed("range", 16,
		func(b []byte, r ValueRange) []byte { return appendFloat64(appendFloat64(b, r.Min), r.Max) },
		func(b []byte) ValueRange { return ValueRange{Min: float64At(b, 0), Max: float64At(b, 8)} })
	Pair = fixed("stereo pair", 8,
		func(b []byte, p StereoPair) []byte { return le.AppendUint32(le.AppendUint32(b, p.Left), p.Right) },
		func(b []byte) StereoPair { return StereoPair{Left: le.Uint32(b), Right: le.Uint32(b[4:])} })
	Format = fixed("stream format", formatSize, appendFormat, formatAt)
	Ranged = fixed("ranged format", rangedFormatSize,
		func(b []byte, r RangedFormat) []byte {
			b = appendFormat(b, r.Format)
			return appendFloat64(appendFloat64(b, r.RateRange.Min), r.RateRange.Max)
		},
		func(b []byte) RangedFormat {
			return RangedFormat{
				Format:    formatAt(b),
				RateRange: ValueRange{Min: float64At(b, formatSize), Max: float64At(b, formatSize+8)},
			}
		})
)

// Array shapes.
var (
	Uint32s       = array("uint32 array", Uint32)
	ObjectIDs     = array("object array", ObjectRef)
	Ranges        = array("range array", Range)
	RangedFormats = array("ranged format array", Ranged)
)

// Layout carries a channel layout header followed by its descriptions.
var Layout = Codec[ChannelLayout]{
	name: "channel layout",
	encode: func(l ChannelLayout) []byte {
		b := make([]byte, 0, layoutHeaderSize+len(l.Descriptions)*channelDescSize)
		b = le.AppendUint32(b, l.Tag)
		b = le.AppendUint32(b, l.Bitmap)
		b = le.AppendUint32(b, uint32(len(l.Descriptions)))
		for _, d := range l.Descriptions {
			b = le.AppendUint32(b, d.Label)
			b = le.AppendUint32(b, d.Flags)
			for _, c := range d.Coordinates {
				b = appendFloat32(b, c)
			}
		}
		return b
	},
	decode: func(b []byte) (ChannelLayout, bool) {
		if len(b) < layoutHeaderSize {
			return ChannelLayout{}, false
		}
		n := int(le.Uint32(b[8:]))
		if len(b) != layoutHeaderSize+n*channelDescSize {
			return ChannelLayout{}, false
		}
		l := ChannelLayout{Tag: le.Uint32(b), Bitmap: le.Uint32(b[4:]), Descriptions: make([]ChannelDescription, n)}
		for i := range l.Descriptions {
			off := layoutHeaderSize + i*channelDescSize
			d := &l.Descriptions[i]
			d.Label = le.Uint32(b[off:])
			d.Flags = le.Uint32(b[off+4:])
			for j := range d.Coordinates {
				d.Coordinates[j] = float32At(b, off+8+j*4)
			}
		}
		return l, true
	},
}

// Buffers carries a buffer count followed by per-buffer channel counts.
var Buffers = Codec[BufferConfig]{
	name: "buffer list",
	encode: func(c BufferConfig) []byte {
		b := make([]byte, 0, 4+len(c.Buffers)*bufferSize)
		b = le.AppendUint32(b, uint32(len(c.Buffers)))
		for _, buf := range c.Buffers {
			b = le.AppendUint32(b, buf.Channels)
			b = le.AppendUint32(b, buf.DataByteSize)
		}
		return b
	},
	decode: func(b []byte) (BufferConfig, bool) {
		if len(b) < 4 {
			return BufferConfig{}, false
		}
		n := int(le.Uint32(b))
		if len(b) != 4+n*bufferSize {
			return BufferConfig{}, false
		}
		c := BufferConfig{Buffers: make([]Buffer, n)}
		for i := range c.Buffers {
			off := 4 + i*bufferSize
			c.Buffers[i] = Buffer{Channels: le.Uint32(b[off:]), DataByteSize: le.Uint32(b[off+4:])}
		}
		return c, true
	},
}

// Property declares a selector together with the shape of its value.
type Property[T any] struct {
	Selector Selector
	Codec    Codec[T]
}

// Prop declares a property.
func Prop[T any](sel Selector, c Codec[T]) Property[T] {
	return Property[T]{Selector: sel, Codec: c}
}

// Global addresses p in the global scope.
func (p Property[T]) Global() Address { return Global(p.Selector) }

// In addresses p in scope on the main element.
func (p Property[T]) In(scope Scope) Address { return Scoped(p.Selector, scope) }

// On addresses p on channel ch of scope.
func (p Property[T]) On(scope Scope, ch uint32) Address { return Channel(p.Selector, scope, ch) }
