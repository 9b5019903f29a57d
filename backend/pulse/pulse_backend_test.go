//go:build linux

package pulse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaban/oalcore/device"
	"github.com/shaban/oalcore/internal/testutil"
)

// TestFactorySupportsPlaybackAndCapture needs no server: it only checks the
// static Supports table.
func TestFactorySupportsPlaybackAndCapture(t *testing.T) {
	var f Factory
	assert.True(t, f.Supports(device.Playback))
	assert.True(t, f.Supports(device.Capture))
	assert.False(t, f.Supports(device.Loopback))
}

// TestOpenResetStartAgainstRealServer requires an actual PulseAudio server
// reachable from the test environment, gated behind an explicit env opt-in
// rather than running unconditionally in CI.
func TestOpenResetStartAgainstRealServer(t *testing.T) {
	testutil.SkipUnlessEnv(t, "OALCORE_PULSE_INTEGRATION", "1")

	var f Factory
	require.True(t, f.Init(), "pulse server not reachable")

	bk, err := f.Create(device.Playback, nil)
	require.NoError(t, err)
	defer bk.Close()

	require.NoError(t, bk.Open(context.Background(), ""))

	actual, ok := bk.Reset(device.DefaultFormat())
	require.True(t, ok)
	assert.Equal(t, device.F32, actual.Type)

	require.True(t, bk.Start())
	bk.Stop()
}
