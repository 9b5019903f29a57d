//go:build linux

// Package pulse implements a real Backend Factory talking to a running
// PulseAudio server via github.com/jfreymuth/pulse, giving the backend
// framework a second native entry (alongside backend/oto) in the ordered
// driver table.
package pulse

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"sync"

	"github.com/jfreymuth/pulse"

	"github.com/shaban/oalcore/backend"
	"github.com/shaban/oalcore/device"
)

// Factory is the pulse-backed Backend Factory. It supports both Playback
// and Capture, unlike backend/oto.
type Factory struct{}

func (Factory) Name() string { return "pulse" }

// Init connects to the local PulseAudio server once, as part of the
// process's one-shot backend selection — a failed connection here simply
// removes pulse from contention, it does not abort process startup.
func (Factory) Init() bool {
	c, err := pulse.NewClient()
	if err != nil {
		return false
	}
	c.Close()
	return true
}

func (Factory) Probe(kind device.Kind) ([]string, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return nil, err
	}
	defer c.Close()

	switch kind {
	case device.Playback:
		sinks, err := c.ListSinks()
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(sinks))
		for _, s := range sinks {
			names = append(names, s.Name())
		}
		return names, nil
	case device.Capture:
		sources, err := c.ListSources()
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(sources))
		for _, s := range sources {
			names = append(names, s.Name())
		}
		return names, nil
	default:
		return nil, nil
	}
}

func (Factory) Supports(k device.Kind) bool {
	return k == device.Playback || k == device.Capture
}

func (Factory) Create(kind device.Kind, onDisconnect backend.DisconnectFunc) (backend.Backend, error) {
	if kind != device.Playback && kind != device.Capture {
		return nil, errors.New("pulse: unsupported device kind")
	}
	return &Backend{kind: kind, onDisconnect: onDisconnect}, nil
}

// Backend is the pulse-backed Backend implementation, wrapping one of
// *pulse.PlaybackStream or *pulse.RecordStream depending on kind.
type Backend struct {
	mu           sync.Mutex
	kind         device.Kind
	client       *pulse.Client
	playback     *pulse.PlaybackStream
	record       *pulse.RecordStream
	format       device.Format
	name         string
	onDisconnect backend.DisconnectFunc
	captureBuf   []byte
}

func (b *Backend) Open(_ context.Context, name string) error {
	c, err := pulse.NewClient()
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.client = c
	b.name = name
	b.mu.Unlock()
	return nil
}

func (b *Backend) Reset(requested device.Format) (device.Format, bool) {
	if err := requested.Validate(); err != nil {
		return requested, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil {
		return requested, false
	}

	channels := requested.Channels()
	chanOpt := pulse.PlaybackStereo
	recChanOpt := pulse.RecordStereo
	if channels == 1 {
		chanOpt = pulse.PlaybackMono
		recChanOpt = pulse.RecordMono
	}

	switch b.kind {
	case device.Playback:
		if b.playback != nil {
			b.playback.Close()
		}
		p, err := b.client.NewPlayback(
			func([]float32) {}, // replaced by SetSampleFunc before Start
			chanOpt,
			pulse.PlaybackSampleRate(requested.Frequency),
		)
		if err != nil {
			return requested, false
		}
		b.playback = p
	case device.Capture:
		if b.record != nil {
			b.record.Close()
		}
		r, err := b.client.NewRecord(
			b.handleCapture,
			recChanOpt,
			pulse.RecordSampleRate(requested.Frequency),
		)
		if err != nil {
			return requested, false
		}
		b.record = r
	}

	requested.Type = device.F32 // pulse streams here are always negotiated as float32
	b.format = requested
	return b.format, true
}

func (b *Backend) handleCapture(samples []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	need := len(samples) * 4
	if cap(b.captureBuf) < need {
		b.captureBuf = make([]byte, need)
	}
	b.captureBuf = b.captureBuf[:need]
	for i, s := range samples {
		binary.LittleEndian.PutUint32(b.captureBuf[i*4:], math.Float32bits(s))
	}
	// Samples are handed to CaptureSamples on demand; this callback only
	// keeps the most recent block, so AvailableSamples/CaptureSamples stay
	// a pull interface rather than a push API.
}

// SetSampleFunc installs the pull function a playback stream's Start loop
// uses to source frames (wired by the Device Manager once the mixer is
// attached).
func (b *Backend) SetSampleFunc(fn func([]float32)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.playback != nil {
		b.playback.Stop()
		p, err := b.client.NewPlayback(fn, pulse.PlaybackSampleRate(b.format.Frequency))
		if err == nil {
			b.playback = p
		}
	}
}

func (b *Backend) Start() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.kind {
	case device.Playback:
		if b.playback == nil {
			return false
		}
		b.playback.Start()
		return true
	case device.Capture:
		if b.record == nil {
			return false
		}
		b.record.Start()
		return true
	}
	return false
}

func (b *Backend) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.playback != nil {
		b.playback.Stop()
	}
	if b.record != nil {
		b.record.Stop()
	}
}

func (b *Backend) Lock()   { b.mu.Lock() }
func (b *Backend) Unlock() { b.mu.Unlock() }

func (b *Backend) AvailableSamples() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.captureBuf)
}

func (b *Backend) CaptureSamples(buf []byte, frames int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := copy(buf, b.captureBuf)
	_ = n
	return nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.playback != nil {
		b.playback.Close()
	}
	if b.record != nil {
		b.record.Close()
	}
	if b.client != nil {
		b.client.Close()
	}
	return nil
}

func (b *Backend) Name() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.name
}
