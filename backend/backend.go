// Package backend defines the platform-backend abstraction: a Factory that
// probes/creates platform Backends, and a Backend that implements the
// open/reset/start/stop/lock contract the Device Manager and mixer rely on.
package backend

import (
	"context"

	"github.com/shaban/oalcore/device"
)

// Kind mirrors device.Kind for the subset a backend is asked to support.
type Kind = device.Kind

// Backend is the platform-specific adapter. All calls are single-threaded
// from the API side (the Device Manager/Context Manager serialize access);
// a Backend is free to run its own audio thread internally and must hold
// Lock/Unlock around any call into mixer-owned state.
type Backend interface {
	// Open opens the named device ("" selects the factory's default).
	Open(ctx context.Context, name string) error

	// Reset (re)negotiates and applies a format, returning the format it
	// actually settled on. Reset is free to satisfy or override any
	// requested field; callers diff the result against what was requested
	// and clear request flags for anything unsatisfied.
	Reset(requested device.Format) (actual device.Format, ok bool)

	Start() bool
	Stop()

	// Lock/Unlock bracket a critical section against the backend's
	// internally scheduled mixer callback.
	Lock()
	Unlock()

	// AvailableSamples and CaptureSamples serve capture backends; Playback
	// and Loopback backends may implement them as no-ops returning 0/nil.
	AvailableSamples() int
	CaptureSamples(buf []byte, frames int) error

	// Close releases any native resources. Idempotent.
	Close() error

	// Name reports the backend's human-readable device name.
	Name() string
}

// DisconnectFunc is called by a Backend when it discovers its underlying
// device is gone out from under it (device unplugged, server connection
// lost), so the Device Manager can run its disconnect path.
type DisconnectFunc func()

// Factory constructs and probes Backends: init/probe/supports/create.
type Factory interface {
	// Name identifies the factory in the ordered backend table (the
	// `drivers` config key refers to backends by this name).
	Name() string

	// Init performs any process-wide, one-time setup the factory needs
	// (e.g. connecting to a server, loading a shared library). SelectFactory
	// calls Init every time it considers the factory, so Init may run more
	// than once per process.
	Init() bool

	// Probe lists the devices of the given kind this factory can see.
	Probe(kind Kind) ([]string, error)

	// Supports reports whether this factory can create backends of kind.
	Supports(kind Kind) bool

	// Create constructs a Backend bound to kind, invoking onDisconnect if
	// the backend later detects device loss.
	Create(kind Kind, onDisconnect DisconnectFunc) (Backend, error)
}
