package alctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaban/oalcore/alerror"
	"github.com/shaban/oalcore/device"
	"github.com/shaban/oalcore/props"
	"github.com/shaban/oalcore/voice"
)

type fakeBackend struct {
	resetOK bool
}

func (b *fakeBackend) Open(context.Context, string) error { return nil }
func (b *fakeBackend) Reset(requested device.Format) (device.Format, bool) {
	if !b.resetOK {
		return requested, false
	}
	return requested, true
}
func (b *fakeBackend) Start() bool                            { return true }
func (b *fakeBackend) Stop()                                  {}
func (b *fakeBackend) Lock()                                  {}
func (b *fakeBackend) Unlock()                                {}
func (b *fakeBackend) AvailableSamples() int                  { return 0 }
func (b *fakeBackend) CaptureSamples(buf []byte, n int) error { return nil }
func (b *fakeBackend) Close() error                           { return nil }
func (b *fakeBackend) Name() string                           { return "fake" }

func newTestDevice(t *testing.T) *device.Device {
	t.Helper()
	d, code := device.OpenPlayback(context.Background(), "test", device.DefaultConfig(), &fakeBackend{resetOK: true})
	require.Equal(t, alerror.NoError, code)
	return d
}

func TestCreateAttachesAndInitializesListener(t *testing.T) {
	d := newTestDevice(t)
	c, code := Create(d, device.RequestedAttrs{}, nil)
	require.Equal(t, alerror.NoError, code)
	assert.Equal(t, DefaultListener(), c.Listener)
	assert.Equal(t, 256, c.Voices.Len())
	assert.Same(t, d, c.Device())
}

func TestCreateFailsWhenBackendResetFails(t *testing.T) {
	d, code := device.OpenPlayback(context.Background(), "test", device.DefaultConfig(), &fakeBackend{resetOK: false})
	require.Equal(t, alerror.NoError, code)

	c, got := Create(d, device.RequestedAttrs{}, nil)
	assert.Nil(t, c)
	assert.Equal(t, alerror.InvalidDevice, got)
}

func TestDestroyReleasesDeviceReference(t *testing.T) {
	d := newTestDevice(t)
	c, code := Create(d, device.RequestedAttrs{}, nil)
	require.Equal(t, alerror.NoError, code)

	c.Destroy()
	// The device was held once by OpenPlayback and once by Create; after
	// Destroy only the original hold remains, so one more Release finalizes.
	assert.True(t, d.Release())
}

func TestDeferProcessUpdatesRoundTrip(t *testing.T) {
	d := newTestDevice(t)
	c, _ := Create(d, device.RequestedAttrs{}, nil)

	c.DeferUpdates()
	assert.True(t, c.IsDeferring())

	var gen props.Generation
	published := false
	c.ProcessUpdates(&gen, func() { published = true })

	assert.False(t, c.IsDeferring())
	assert.False(t, c.HoldUpdates())
	assert.True(t, published)
}

func TestResizeSourceSendsPreservesAndTruncates(t *testing.T) {
	d := newTestDevice(t)
	c, _ := Create(d, device.RequestedAttrs{}, nil)

	h, src := c.Sources.Alloc()
	src.Sends = []voice.Send{{Gain: 0.5}, {Gain: 0.75}}
	_ = h

	c.ResizeSourceSends(1)
	got, ok := c.Sources.Get(h)
	require.True(t, ok)
	require.Len(t, got.Sends, 1)
	assert.Equal(t, float32(0.5), got.Sends[0].Gain)
}

func TestResizeSourceSendsReleasesDisplacedSlotRefs(t *testing.T) {
	d := newTestDevice(t)
	c, _ := Create(d, device.RequestedAttrs{}, nil)

	slotHandle, slot := c.Slots.Alloc()
	slot.RefCount = 1

	h, src := c.Sources.Alloc()
	src.Sends = []voice.Send{{Gain: 1.0}, {SlotHandle: uint32(slotHandle), Gain: 1.0}}
	_ = h

	c.ResizeSourceSends(1)

	gotSlot, ok := c.Slots.Get(slotHandle)
	require.True(t, ok)
	assert.Equal(t, int32(0), gotSlot.RefCount)
}
