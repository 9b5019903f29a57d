// Package oto implements a real playback Backend Factory on top of
// github.com/ebitengine/oto/v3, the cross-platform low-level audio output
// library: an atomic.Pointer-guarded sample source feeds an io.Reader the
// oto.Player pulls from, with a mutex only around setup/control calls,
// never the hot Read path.
package oto

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"

	"github.com/shaban/oalcore/backend"
	"github.com/shaban/oalcore/device"
)

// Factory is the oto-backed playback Backend Factory. oto has no capture
// support.
type Factory struct{}

func (Factory) Name() string { return "oto" }
func (Factory) Init() bool   { return true }
func (Factory) Probe(device.Kind) ([]string, error) {
	return []string{"default"}, nil
}
func (Factory) Supports(k device.Kind) bool { return k == device.Playback }
func (Factory) Create(kind device.Kind, onDisconnect backend.DisconnectFunc) (backend.Backend, error) {
	if kind != device.Playback {
		return nil, errors.New("oto: factory only creates playback backends")
	}
	return &Backend{onDisconnect: onDisconnect}, nil
}

// sampleSource is the pull side oto.Player reads from; Render installs the
// current reader atomically so the hot path never takes a lock.
type sampleSource struct {
	read atomic.Pointer[func([]byte) (int, error)]
}

func (s *sampleSource) Read(p []byte) (int, error) {
	fn := s.read.Load()
	if fn == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	return (*fn)(p)
}

// Backend is the oto-backed Backend implementation. Because an oto.Context
// is immutable once created, Reset tears down and recreates it on every
// call, rather than renegotiating it in place.
type Backend struct {
	mu           sync.Mutex
	ctx          *oto.Context
	player       *oto.Player
	src          *sampleSource
	format       device.Format
	running      bool
	name         string
	onDisconnect backend.DisconnectFunc
}

func (b *Backend) Open(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if name == "" {
		name = "Default Output Device"
	}
	b.name = name
	return nil
}

func (b *Backend) Reset(requested device.Format) (device.Format, bool) {
	if err := requested.Validate(); err != nil {
		return requested, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.player != nil {
		b.player.Close()
		b.player = nil
	}
	if b.ctx != nil {
		// oto has no explicit context teardown API beyond letting it be
		// garbage collected once its player is closed; drop our reference.
		b.ctx = nil
	}

	format := oto.FormatFloat32LE
	if requested.Type != device.F32 {
		// oto's public format set doesn't cover every SampleType; force
		// float32 output and report the override by returning the
		// adjusted format rather than failing the reset.
		requested.Type = device.F32
	}

	opts := &oto.NewContextOptions{
		SampleRate:   requested.Frequency,
		ChannelCount: requested.Channels(),
		Format:       format,
		BufferSize:   0,
	}

	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return requested, false
	}
	<-ready

	b.ctx = ctx
	b.src = &sampleSource{}
	b.player = ctx.NewPlayer(b.src)
	b.format = requested
	return b.format, true
}

// SetSampleFunc installs the pull function the mixer (or, in tests, a
// synthetic generator) uses to fill oto's playback buffer.
func (b *Backend) SetSampleFunc(fn func([]byte) (int, error)) {
	b.mu.Lock()
	src := b.src
	b.mu.Unlock()
	if src == nil {
		return
	}
	src.read.Store(&fn)
}

func (b *Backend) Start() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.player == nil {
		return false
	}
	b.player.Play()
	b.running = true
	return true
}

func (b *Backend) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.player != nil {
		b.player.Pause()
	}
	b.running = false
}

// Lock/Unlock bracket calls that reach into the player/context, against
// oto's own mixer callback (oto's Read runs on oto's internal goroutine,
// not ours).
func (b *Backend) Lock()   { b.mu.Lock() }
func (b *Backend) Unlock() { b.mu.Unlock() }

func (b *Backend) AvailableSamples() int                       { return 0 }
func (b *Backend) CaptureSamples(buf []byte, frames int) error { return errors.New("oto: capture not supported") }

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.player != nil {
		err := b.player.Close()
		b.player = nil
		b.ctx = nil
		return err
	}
	return nil
}

func (b *Backend) Name() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.name
}
