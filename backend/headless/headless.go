// Package headless implements a no-op Backend: the same method set as a
// real backend, always succeeds, discards samples instead of touching
// hardware. Used by tests, CI, and as a last-resort driver entry.
package headless

import (
	"context"
	"sync"

	"github.com/shaban/oalcore/backend"
	"github.com/shaban/oalcore/device"
)

// Factory is the headless Backend Factory. It supports every Kind so it can
// always serve as the last-resort entry in a driver table.
type Factory struct{}

func (Factory) Name() string { return "headless" }
func (Factory) Init() bool   { return true }
func (Factory) Probe(device.Kind) ([]string, error) {
	return []string{"headless"}, nil
}
func (Factory) Supports(device.Kind) bool { return true }
func (Factory) Create(kind device.Kind, onDisconnect backend.DisconnectFunc) (backend.Backend, error) {
	return &Backend{kind: kind}, nil
}

// Backend is the headless implementation itself.
type Backend struct {
	mu      sync.Mutex
	kind    device.Kind
	running bool
	format  device.Format
	name    string
}

func (b *Backend) Open(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if name == "" {
		name = "Headless"
	}
	b.name = name
	return nil
}

func (b *Backend) Reset(requested device.Format) (device.Format, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.format = requested
	return b.format, true
}

func (b *Backend) Start() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.running = true
	return true
}

func (b *Backend) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.running = false
}

func (b *Backend) Lock()   {}
func (b *Backend) Unlock() {}

func (b *Backend) AvailableSamples() int { return 0 }

func (b *Backend) CaptureSamples(buf []byte, frames int) error {
	for i := range buf {
		buf[i] = 0
	}
	return nil
}

func (b *Backend) Close() error {
	b.Stop()
	return nil
}

func (b *Backend) Name() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.name
}
