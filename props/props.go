// Package props implements Property Publication: a lock-free
// single-writer/single-reader protocol that lets the API thread publish a
// coherent parameter snapshot for a source, listener, context, or effect
// slot without the mixer ever blocking.
//
// The protocol is a CAS-swapped pointer plus a free-list of recycled
// update structs rather than a buffered channel, because the mixer thread
// must never block on the API thread.
package props

import "sync/atomic"

// Clean is the PropsClean flag every mutable entity (source, listener,
// context, effect slot) carries: test-and-set on the publish sweep, cleared
// on every API-thread mutation.
type Clean struct {
	flag atomic.Bool
}

// MarkDirty clears the clean flag, recording that this entity has
// unpublished mutations. Called by every setter on the API thread.
func (c *Clean) MarkDirty() { c.flag.Store(false) }

// TestAndSetClean atomically sets the flag and reports whether it was
// already clean. Used by the publish sweep: a false return means this
// entity actually needs a fresh snapshot published.
func (c *Clean) TestAndSetClean() (wasClean bool) {
	return c.flag.Swap(true)
}

// IsClean reports the current flag value without mutating it.
func (c *Clean) IsClean() bool { return c.flag.Load() }

// Slot is the single-writer/single-consumer publication slot for one
// entity's update struct of type T. The API thread is the sole writer via
// Publish; the mixer thread is the sole reader via Acquire.
type Slot[T any] struct {
	published atomic.Pointer[T]
	free      freeList[T]
	clean     Clean
}

// NewSlot returns an empty, clean publication slot.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{}
}

// Clean exposes the slot's PropsClean flag so callers can check that,
// after ProcessUpdates, every entity's PropsClean flag is set.
func (s *Slot[T]) Clean() *Clean { return &s.clean }

// Publish is called from the publish-all-pending sweep: if the clean flag
// was already set, nothing to do. Otherwise pop a recycled
// struct from the free-list (or allocate fresh), let build populate it with
// a coherent snapshot, and release-swap it into the published slot, pushing
// whatever was previously published back onto the free-list for the mixer
// to eventually recycle.
func (s *Slot[T]) Publish(build func(*T)) {
	if s.clean.TestAndSetClean() {
		return
	}
	upd := s.free.pop()
	if upd == nil {
		upd = new(T)
	}
	build(upd)
	old := s.published.Swap(upd) // release: paired with Acquire's acquire-load
	if old != nil {
		s.free.push(old)
	}
}

// Acquire is called once per mixer block for every live voice/slot: loads
// the published pointer (acquire semantics, paired with Publish's release
// swap), applies it via apply if present, then returns the struct to the
// free-list for recycling.
func (s *Slot[T]) Acquire(apply func(*T)) {
	upd := s.published.Swap(nil)
	if upd == nil {
		return
	}
	apply(upd)
	s.free.push(upd)
}

// freeList is a free-list of recycled update structures, single-consumer
// on the mixer side for Acquire. Pushes happen from both Publish (API
// thread, returning the displaced
// struct) and Acquire (mixer thread, returning the consumed struct), so the
// stack itself is guarded by a small spinlock rather than left lock-free;
// the struct bodies it shuttles are what stays off the hot path.
type freeList[T any] struct {
	mu    spinlock
	items []*T
}

func (f *freeList[T]) push(v *T) {
	f.mu.lock()
	f.items = append(f.items, v)
	f.mu.unlock()
}

func (f *freeList[T]) pop() *T {
	f.mu.lock()
	defer f.mu.unlock()
	n := len(f.items)
	if n == 0 {
		return nil
	}
	v := f.items[n-1]
	f.items = f.items[:n-1]
	return v
}

// spinlock is a minimal test-and-set spinlock, used only for the free-list
// bookkeeping above; Publish and Acquire take it for one push or pop each,
// so it is held only briefly.
type spinlock struct {
	state atomic.Bool
}

func (s *spinlock) lock() {
	for !s.state.CompareAndSwap(false, true) {
	}
}

func (s *spinlock) unlock() {
	s.state.Store(false)
}

// Generation is the even/odd MixCount barrier: incremented on entry and
// exit of each mixing pass, even outside a mixer iteration, odd within. Readers wanting a consistent snapshot of
// mixer-owned counters spin until two consecutive reads are equal and even.
type Generation struct {
	count atomic.Uint64
}

// EnterMix increments the generation to odd, marking a mixing pass as
// in-progress.
func (g *Generation) EnterMix() { g.count.Add(1) }

// ExitMix increments the generation back to even, marking a mixing pass as
// complete.
func (g *Generation) ExitMix() { g.count.Add(1) }

// Load returns the current raw generation value.
func (g *Generation) Load() uint64 { return g.count.Load() }

// StableSnapshot spin-polls until MixCount is even and matches across two
// reads, then invokes read to capture the protected values.
func (g *Generation) StableSnapshot(read func()) {
	for {
		a := g.count.Load()
		if a%2 != 0 {
			continue
		}
		read()
		b := g.count.Load()
		if a == b {
			return
		}
	}
}
