package hal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smazurov/audiohal/pkg/coreaudio/hal"
)

func TestFourCC(t *testing.T) {
	assert.Equal(t, uint32(0x766f6c6d), hal.FourCC("volm"))
	assert.Equal(t, "volm", hal.PropertyVolumeScalar.String())
	assert.Equal(t, "0x00000000", hal.FourCCString(0))
	assert.Panics(t, func() { hal.FourCC("abc") })
}

func TestParseScope(t *testing.T) {
	tests := map[string]hal.Scope{
		"input":  hal.ScopeInput,
		"IN":     hal.ScopeInput,
		"output": hal.ScopeOutput,
		"":       hal.ScopeOutput,
		"global": hal.ScopeGlobal,
	}
	for in, want := range tests {
		got, err := hal.ParseScope(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := hal.ParseScope("sideways")
	assert.Error(t, err)
}

func TestAddressConstructors(t *testing.T) {
	a := hal.Channel(hal.PropertyMute, hal.ScopeInput, 2)
	assert.Equal(t, hal.Element(2), a.Element)
	assert.Equal(t, "mute/input/2", a.String())

	g := hal.Global(hal.PropertyName)
	assert.Equal(t, hal.ScopeGlobal, g.Scope)
	assert.Equal(t, hal.ElementMain, g.Element)

	p := hal.Prop(hal.PropertyVolumeScalar, hal.Float32)
	assert.Equal(t, hal.Channel(hal.PropertyVolumeScalar, hal.ScopeOutput, 1), p.On(hal.ScopeOutput, 1))
	assert.Equal(t, hal.Scoped(hal.PropertyVolumeScalar, hal.ScopeInput), p.In(hal.ScopeInput))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, hal.StatusOK, hal.StatusOf(nil))
	assert.Equal(t, hal.StatusBadObject, hal.StatusOf(hal.StatusBadObject))
	assert.Equal(t, "hal: illegal operation", hal.StatusIllegalOperation.Error())
	assert.Equal(t, hal.StatusUnspecified, hal.StatusOf(assert.AnError))
}
