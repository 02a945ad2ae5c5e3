package coreaudio_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smazurov/audiohal/pkg/coreaudio"
	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

func TestStreamProperties(t *testing.T) {
	d, _, _ := nullDevice(t)

	tests := []struct {
		scope    hal.Scope
		terminal coreaudio.TerminalType
	}{
		{hal.ScopeOutput, coreaudio.TerminalSpeaker},
		{hal.ScopeInput, coreaudio.TerminalMicrophone},
	}
	for _, tt := range tests {
		t.Run(tt.scope.String(), func(t *testing.T) {
			streams, ok := d.Streams(tt.scope)
			require.True(t, ok)
			require.Len(t, streams, 1)
			s := streams[0]

			active, ok := s.IsActive()
			require.True(t, ok)
			assert.True(t, active)
			_, ok = s.StartingChannel()
			assert.True(t, ok)
			scope, ok := s.Scope()
			require.True(t, ok)
			assert.Equal(t, tt.scope, scope)
			terminal, ok := s.TerminalType()
			require.True(t, ok)
			assert.Equal(t, tt.terminal, terminal)
			latency, ok := s.Latency()
			require.True(t, ok)
			assert.Equal(t, uint32(0), latency)
			_, ok = s.Name()
			assert.True(t, ok)

			_, ok = s.AvailableVirtualFormats()
			assert.True(t, ok)
			_, ok = s.AvailablePhysicalFormats()
			assert.True(t, ok)
			for _, opts := range [][]coreaudio.FormatMatchOption{nil, {coreaudio.Lenient()}, {coreaudio.MixableOnly()}} {
				_, ok = s.AvailableVirtualFormatsMatchingNominalRate(opts...)
				assert.True(t, ok)
				_, ok = s.AvailablePhysicalFormatsMatchingNominalRate(opts...)
				assert.True(t, ok)
			}

			before, ok := s.VirtualFormat()
			require.True(t, ok)
			assert.False(t, s.SetVirtualFormat(hal.StreamFormat{}), "malformed format")
			after, ok := s.VirtualFormat()
			require.True(t, ok)
			assert.Equal(t, before, after)

			before, ok = s.PhysicalFormat()
			require.True(t, ok)
			assert.False(t, s.SetPhysicalFormat(hal.StreamFormat{}))
			after, ok = s.PhysicalFormat()
			require.True(t, ok)
			assert.Equal(t, before, after)
		})
	}
}

func TestFormatsMatchingNominalRate(t *testing.T) {
	d, _, _ := nullDevice(t)
	streams, _ := d.Streams(hal.ScopeOutput)
	s := streams[0]

	formats, ok := s.AvailablePhysicalFormatsMatchingNominalRate()
	require.True(t, ok)
	require.NotEmpty(t, formats)
	for _, f := range formats {
		assert.Equal(t, 44100.0, f.SampleRate)
	}

	all, _ := s.AvailablePhysicalFormats()
	assert.Less(t, len(formats), len(all), "formats for 48000 are filtered out")

	virtual, ok := s.AvailableVirtualFormatsMatchingNominalRate(coreaudio.Lenient(), coreaudio.MixableOnly())
	require.True(t, ok)
	require.Len(t, virtual, 1)
	assert.Equal(t, hal.LinearPCM(44100, 2, 32, true), virtual[0])
}

func TestSetPhysicalFormat(t *testing.T) {
	d, _, _ := nullDevice(t)
	streams, _ := d.Streams(hal.ScopeOutput)
	s := streams[0]

	pcm16 := hal.LinearPCM(44100, 2, 16, false)
	require.True(t, s.SetPhysicalFormat(pcm16))
	got, ok := s.PhysicalFormat()
	require.True(t, ok)
	assert.Equal(t, pcm16, got)

	unsupported := hal.LinearPCM(44100, 6, 16, false)
	assert.False(t, s.SetPhysicalFormat(unsupported))
	got, _ = s.PhysicalFormat()
	assert.Equal(t, pcm16, got, "rejected write keeps the prior format")
}

func TestFormatsFollowSampleRate(t *testing.T) {
	d, _, _ := nullDevice(t)
	streams, _ := d.Streams(hal.ScopeOutput)
	s := streams[0]

	require.True(t, d.SetNominalSampleRate(48000))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.True(t, d.WaitForSampleRate(ctx, 48000))

	formats, ok := s.AvailableVirtualFormatsMatchingNominalRate()
	require.True(t, ok)
	require.Len(t, formats, 1)
	assert.Equal(t, 48000.0, formats[0].SampleRate)

	current, _ := s.VirtualFormat()
	assert.Equal(t, 48000.0, current.SampleRate)
}

func TestAudioFormat(t *testing.T) {
	f, ok := coreaudio.AudioFormat(hal.LinearPCM(48000, 2, 16, false))
	require.True(t, ok)
	assert.Equal(t, &audio.Format{NumChannels: 2, SampleRate: 48000}, f)

	_, ok = coreaudio.AudioFormat(hal.StreamFormat{SampleRate: 48000, FormatID: hal.FormatAC3, ChannelsPerFrame: 6})
	assert.False(t, ok, "compressed formats have no PCM equivalent")
	_, ok = coreaudio.AudioFormat(hal.LinearPCM(44100.5, 2, 16, false))
	assert.False(t, ok)
}

func TestNewPCMBuffer(t *testing.T) {
	buf, ok := coreaudio.NewPCMBuffer(hal.LinearPCM(44100, 2, 32, true), 256)
	require.True(t, ok)
	assert.Equal(t, audio.DataTypeF32, buf.DataType)
	assert.Len(t, buf.F32, 512)
	assert.Equal(t, 512, buf.Len())

	buf, ok = coreaudio.NewPCMBuffer(hal.LinearPCM(44100, 1, 24, false), 10)
	require.True(t, ok)
	assert.Equal(t, audio.DataTypeI32, buf.DataType)
	assert.Equal(t, uint8(3), buf.SourceBitDepth)

	_, ok = coreaudio.NewPCMBuffer(hal.LinearPCM(44100, 2, 16, false), -1)
	assert.False(t, ok)
}
