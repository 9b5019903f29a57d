package cpufeat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWideExcludedByName(t *testing.T) {
	assert.False(t, Wide([]string{"SSE2", "NEON"}), "excluding every SIMD extension this package checks must report not-wide")
}

func TestWideExclusionIsCaseInsensitive(t *testing.T) {
	assert.False(t, Wide([]string{"sse2", "neon"}))
}

func TestRoundPeriodSizeUnchangedWhenExcluded(t *testing.T) {
	assert.Equal(t, 513, RoundPeriodSize(513, []string{"SSE2", "NEON"}))
}

func TestRoundPeriodSizeRoundsUpWhenWide(t *testing.T) {
	if !Wide(nil) {
		t.Skip("no SIMD-wide extension detected on this CPU")
	}
	assert.Equal(t, 516, RoundPeriodSize(513, nil))
	assert.Equal(t, 512, RoundPeriodSize(512, nil))
}
