// Package loopback implements an application-rendered Backend: no native
// handle, no backend-side `open` negotiation. The application later
// supplies attributes through Reset, then pulls mixed samples out via
// Render instead of a hardware callback driving them.
package loopback

import (
	"context"
	"errors"
	"sync"

	"github.com/shaban/oalcore/backend"
	"github.com/shaban/oalcore/device"
)

// Factory is the loopback Backend Factory. al.System.OpenLoopback does not
// go through it: it constructs a loopback Backend directly, so loopback
// devices are available regardless of driver-table ordering.
type Factory struct{}

func (Factory) Name() string                         { return "loopback" }
func (Factory) Init() bool                            { return true }
func (Factory) Probe(device.Kind) ([]string, error)   { return nil, nil }
func (Factory) Supports(k device.Kind) bool           { return k == device.Loopback }
func (Factory) Create(kind device.Kind, _ backend.DisconnectFunc) (backend.Backend, error) {
	if kind != device.Loopback {
		return nil, errors.New("loopback: factory only creates loopback backends")
	}
	return &Backend{}, nil
}

// RenderFunc produces one block of mixed audio for the backend to hand
// back through Render. The Device Manager installs this once the mixer is
// wired; the sample-level mixer itself is external to this package.
type RenderFunc func(buf []byte, frames int)

// Backend is the loopback implementation. Render is the application-driven
// equivalent of a hardware audio callback.
type Backend struct {
	mu     sync.Mutex
	format device.Format
	ready  bool
	render RenderFunc
}

func (b *Backend) Open(context.Context, string) error { return nil }

func (b *Backend) Reset(requested device.Format) (device.Format, bool) {
	if err := requested.Validate(); err != nil {
		return requested, false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.format = requested
	b.ready = true
	return b.format, true
}

// SetRenderFunc installs the callback Render will invoke to fill buffers.
func (b *Backend) SetRenderFunc(fn RenderFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.render = fn
}

func (b *Backend) Start() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

func (b *Backend) Stop() {}

func (b *Backend) Lock()   {}
func (b *Backend) Unlock() {}

func (b *Backend) AvailableSamples() int                       { return 0 }
func (b *Backend) CaptureSamples(buf []byte, frames int) error { return nil }

func (b *Backend) Close() error { return nil }

func (b *Backend) Name() string { return "Loopback" }

// Render fills buf (byte-packed, b.format.Type/Channels framed) with frames
// frames of mixed audio — e.g. 1024 stereo float32 frames fills 1024×2×4 =
// 8192 bytes. A zero-frame request is a no-op success; this function does
// not itself validate frames<0 or a nil buffer with frames>0 — that
// boundary check belongs to the public al façade.
func (b *Backend) Render(buf []byte, frames int) {
	b.mu.Lock()
	fn := b.render
	b.mu.Unlock()

	if fn == nil {
		for i := range buf {
			buf[i] = 0
		}
		return
	}
	fn(buf, frames)
}
