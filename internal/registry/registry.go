// Package registry implements the Global Registry: the process-wide list
// of live devices, the process-wide and "thread-local" current-context
// cells, and one-shot process initialization.
//
// An intrusive, lock-free singly linked list of devices guarded by a
// recursive mutex doesn't translate cleanly to Go, which has neither raw
// next-pointers nor a recursive mutex. This is instead a slice-backed list
// guarded by one sync.Mutex (ListLock), with every device-list method
// acquiring the lock itself exactly once — callers never nest lock
// acquisitions. The current-context cells and InitOnce do not take ListLock.
package registry

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/shaban/oalcore/internal/cpufeat"
)

// Device is the minimal shape the registry needs from a device object: a
// comparable identity, which Verify and Remove match against. The device
// package's *device.Device satisfies this.
type Device interface {
	comparable
}

// Registry is the process-wide device list plus current-context cells.
// There is normally exactly one Registry per process, but it
// takes no package-level state itself so tests can construct isolated
// instances.
type Registry[D Device] struct {
	mu      sync.Mutex // ListLock
	devices []D

	// processCurrent is the process-wide current-context atomic; it holds
	// an opaque pointer (any concrete *Context type) set via
	// SetProcessCurrent.
	processCurrent atomic.Pointer[any]

	initOnce sync.Once
	initOK   bool
	simdWide bool
}

// New creates an empty Registry.
func New[D Device]() *Registry[D] {
	return &Registry[D]{}
}

// Add inserts a device into the list under ListLock. Go slices have no
// lock-free multi-writer append, so this trades the lock-free CAS a
// linked-list head insert would use for a plain mutex-guarded append.
func (r *Registry[D]) Add(d D) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = append(r.devices, d)
}

// Remove deletes a device from the list. No-op if not present.
func (r *Registry[D]) Remove(d D) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.devices {
		if cur == d {
			r.devices = append(r.devices[:i], r.devices[i+1:]...)
			return
		}
	}
}

// Verify is the sole mechanism by which caller-supplied opaque pointers are
// validated: it walks the list under ListLock and reports whether d is
// currently a member.
func (r *Registry[D]) Verify(d D) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cur := range r.devices {
		if cur == d {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the live device list for enumeration, taken
// under ListLock so it can't race a concurrent Add/Remove.
func (r *Registry[D]) Snapshot() []D {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]D, len(r.devices))
	copy(out, r.devices)
	return out
}

// Len reports the current device count.
func (r *Registry[D]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.devices)
}

// currentContextKey is the context.Context key used to carry the
// "thread-local" current context. Go has no real thread-locals, so this
// cell is an explicit context.Context value the caller threads through
// instead of hidden goroutine-local magic.
type currentContextKey struct{}

// WithLocalCurrent returns a derived context carrying cur as the
// "thread-local" current context, overriding the process-wide one for any
// code that receives this ctx. The release function must be called when
// the caller is done; it decrements cur's reference count via release.
func WithLocalCurrent(ctx context.Context, cur any, release func()) (context.Context, func()) {
	child := context.WithValue(ctx, currentContextKey{}, cur)
	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			if release != nil {
				release()
			}
		})
	}
	return child, cleanup
}

// LocalCurrent returns the context carried by WithLocalCurrent, if any.
func LocalCurrent(ctx context.Context) (any, bool) {
	v := ctx.Value(currentContextKey{})
	return v, v != nil
}

// SetProcessCurrent sets the process-wide current-context atomic. Pass nil
// to clear it.
func (r *Registry[D]) SetProcessCurrent(cur any) {
	if cur == nil {
		r.processCurrent.Store(nil)
		return
	}
	r.processCurrent.Store(&cur)
}

// ProcessCurrent returns the process-wide current context, or nil if unset.
func (r *Registry[D]) ProcessCurrent() any {
	p := r.processCurrent.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Current resolves "the" current context: the thread-local (ctx-carried)
// value overrides the process-wide one when both are set.
func (r *Registry[D]) Current(ctx context.Context) any {
	if local, ok := LocalCurrent(ctx); ok {
		return local
	}
	return r.ProcessCurrent()
}

// InitOnce runs fn exactly once for the lifetime of this Registry, under a
// latch: reads configuration, probes CPU capabilities, selects backends.
// Subsequent calls are no-ops returning the first call's result. fn
// receives whether the CPU has a wide-SIMD extension (cpufeat.Wide).
func (r *Registry[D]) InitOnce(fn func(simdWide bool) bool) bool {
	r.initOnce.Do(func() {
		r.simdWide = cpufeat.Wide(nil)
		r.initOK = fn(r.simdWide)
	})
	return r.initOK
}

// SIMDWide reports the CPU capability InitOnce probed, valid only after
// InitOnce has run at least once.
func (r *Registry[D]) SIMDWide() bool {
	return r.simdWide
}
