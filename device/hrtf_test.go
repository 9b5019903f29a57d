package device

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaban/oalcore/alerror"
	"github.com/shaban/oalcore/backend"
)

// fakeBackend is a minimal backend.Backend stub for device tests that
// never touches real hardware.
type fakeBackend struct {
	resetOK bool
	opened  bool
	started bool
}

func (b *fakeBackend) Open(context.Context, string) error { b.opened = true; return nil }
func (b *fakeBackend) Reset(requested Format) (Format, bool) {
	if !b.resetOK {
		return requested, false
	}
	return requested, true
}
func (b *fakeBackend) Start() bool                             { b.started = true; return true }
func (b *fakeBackend) Stop()                                   { b.started = false }
func (b *fakeBackend) Lock()                                   {}
func (b *fakeBackend) Unlock()                                 {}
func (b *fakeBackend) AvailableSamples() int                   { return 0 }
func (b *fakeBackend) CaptureSamples(buf []byte, n int) error  { return nil }
func (b *fakeBackend) Close() error                            { return nil }
func (b *fakeBackend) Name() string                            { return "fake" }

var _ backend.Backend = (*fakeBackend)(nil)

// TestHRTFSelectFailureSetsDeviceFieldNotShadow is the regression test
// DESIGN.md's Open Question #2 resolution calls for: when the requested
// HRTF ID doesn't exist, the device's own hrtfEnabled field must end up
// false — not a local variable that silently shadows it and leaves a stale
// true behind.
func TestHRTFSelectFailureSetsDeviceFieldNotShadow(t *testing.T) {
	d, code := OpenPlayback(context.Background(), "test", DefaultConfig(), &fakeBackend{resetOK: true})
	require.Equal(t, alerror.NoError, code)

	enable := TriEnabled
	badID := 9999
	got := d.UpdateDeviceParams(RequestedAttrs{HRTF: &enable, HRTFID: &badID})
	assert.Equal(t, alerror.NoError, got, "HRTF selection failure alone must not fail the whole reconfiguration")
	assert.False(t, d.hrtfEnabled, "device's hrtfEnabled field must reflect the failed selection, not a shadowed local")
	assert.Equal(t, alerror.InvalidValue, d.LastError())
}

func TestHRTFSelectSuccessForcesStereoAtNativeRate(t *testing.T) {
	d, code := OpenPlayback(context.Background(), "test", DefaultConfig(), &fakeBackend{resetOK: true})
	require.Equal(t, alerror.NoError, code)

	enable := TriEnabled
	id := 1 // "Built-In 48000Hz" in device/hrtf's builtin table
	got := d.UpdateDeviceParams(RequestedAttrs{HRTF: &enable, HRTFID: &id})
	require.Equal(t, alerror.NoError, got)
	assert.True(t, d.hrtfEnabled)
	assert.Equal(t, Stereo, d.Format.Layout)
	assert.Equal(t, 48000, d.Format.Frequency)
}
