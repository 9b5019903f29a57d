package al

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaban/oalcore/device"
)

func TestParseFrequencyAndTerminatesAtZeroKey(t *testing.T) {
	attrs := Attrs{KeyFrequency, 48000, 0}
	got := Parse(attrs)
	require.NotNil(t, got.Frequency)
	assert.Equal(t, 48000, *got.Frequency)
}

func TestParseEmptyAttrsYieldsAllNil(t *testing.T) {
	got := Parse(Attrs{})
	assert.Nil(t, got.Frequency)
	assert.Nil(t, got.HRTF)
}

func TestParseHRTFTriState(t *testing.T) {
	got := Parse(Attrs{KeyHRTFSoft, valTrue, 0})
	require.NotNil(t, got.HRTF)
	assert.Equal(t, device.TriEnabled, *got.HRTF)
}

func TestParseAmbisonicAttributes(t *testing.T) {
	attrs := Attrs{
		KeyAmbisonicLayout, chanBFormat,
		KeyAmbisonicScaling, scalingSN3D,
		KeyAmbisonicOrder, 3,
		0,
	}
	got := Parse(attrs)
	require.NotNil(t, got.AmbiLayout)
	require.NotNil(t, got.AmbiScaling)
	require.NotNil(t, got.AmbiOrder)
	assert.Equal(t, 3, *got.AmbiOrder)
}

func TestParseIgnoresUnrecognizedKey(t *testing.T) {
	got := Parse(Attrs{0xDEAD, 1, KeyFrequency, 22050, 0})
	require.NotNil(t, got.Frequency)
	assert.Equal(t, 22050, *got.Frequency)
}
