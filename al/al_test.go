package al

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaban/oalcore/alerror"
	"github.com/shaban/oalcore/backend"
	"github.com/shaban/oalcore/backend/loopback"
	"github.com/shaban/oalcore/config"
	"github.com/shaban/oalcore/device"
)

func testSystem() *System {
	cfg := config.Default()
	cfg.Drivers = "headless"
	return NewSystem(cfg)
}

// TestScenarioOpenContextPlaySilenceClose opens the default device, creates
// a context with FREQUENCY=48000, allocates one source with no buffer, and
// checks the device reports a REFRESH consistent with the negotiated
// frequency/update size.
func TestScenarioOpenContextPlaySilenceClose(t *testing.T) {
	s := testSystem()
	d, err := s.OpenPlayback(context.Background(), "default")
	require.NoError(t, err)

	c, err := s.CreateContext(d, Attrs{KeyFrequency, 48000, 0})
	require.NoError(t, err)
	require.NotNil(t, c)

	h, src := c.Sources.Alloc()
	require.NotNil(t, src)
	_ = h

	assert.Equal(t, 48000, d.Format.Frequency)
	refresh := d.Format.Frequency / d.Format.UpdateSize
	assert.Greater(t, refresh, 0)

	s.CloseDevice(d)
}

// TestScenarioLoopbackRender opens a loopback device, negotiates a format
// through UpdateDeviceParams, and renders one block through it.
func TestScenarioLoopbackRender(t *testing.T) {
	s := testSystem()
	d := s.OpenLoopback()

	freq := 44100
	stereo := device.Stereo
	f32 := device.F32
	got := d.UpdateDeviceParams(device.RequestedAttrs{
		Frequency:      &freq,
		FormatChannels: &stereo,
		FormatType:     &f32,
	})
	require.Equal(t, alerror.NoError, got)

	lb, ok := d.Backend().(*loopback.Backend)
	require.True(t, ok)
	buf := make([]byte, 1024*2*4)
	err := RenderSamples(lb, buf, 1024)
	require.NoError(t, err)
}

// TestScenarioRenderSamplesBoundaryCases checks RenderSamples' boundary
// cases: frames=0 is a no-op success; negative or null-buffer-with-positive
// is InvalidValue.
func TestScenarioRenderSamplesBoundaryCases(t *testing.T) {
	lb := &loopback.Backend{}
	lb.Reset(device.DefaultFormat())

	assert.NoError(t, RenderSamples(lb, nil, 0))
	assert.ErrorIs(t, RenderSamples(lb, nil, 10), alerror.ErrInvalidValue)
	assert.ErrorIs(t, RenderSamples(lb, make([]byte, 10), -1), alerror.ErrInvalidValue)
}

// TestScenarioDisconnect forces a disconnect after a successful open and
// checks the device's connected state, directly and as
// GetIntegerConnected reports it.
func TestScenarioDisconnect(t *testing.T) {
	s := testSystem()
	d, err := s.OpenPlayback(context.Background(), "default")
	require.NoError(t, err)

	posted := 0
	d.Disconnect(func(device.AttachedContext) { posted++ })

	assert.False(t, d.Connected())
	assert.Equal(t, int32(0), s.GetIntegerConnected(d))
}

// TestScenarioInvalidEnumPathway checks that GetString(dev, 0x12345)
// returns an error and leaves dev.LastError == InvalidEnum; a subsequent
// GetError reads and clears it.
func TestScenarioInvalidEnumPathway(t *testing.T) {
	s := testSystem()
	d, err := s.OpenPlayback(context.Background(), "default")
	require.NoError(t, err)

	_, gerr := s.GetString(d, 0x12345)
	assert.Error(t, gerr)

	code := s.GetError(d)
	assert.Equal(t, alerror.InvalidEnum, code)
	assert.Equal(t, alerror.NoError, s.GetError(d), "GetError must clear on read")
}

func TestOpenCloseRoundTripLeavesRegistryConsistent(t *testing.T) {
	s := testSystem()
	d, err := s.OpenPlayback(context.Background(), "default")
	require.NoError(t, err)
	s.CloseDevice(d)
	// no direct registry accessor is exported beyond Add/Remove; a second
	// CloseDevice on an already-removed device must not panic.
	assert.NotPanics(t, func() { s.CloseDevice(d) })
}

var _ backend.Backend = (*loopback.Backend)(nil)
