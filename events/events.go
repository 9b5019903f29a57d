// Package events implements the per-context async event ring: a ring
// buffer consumed by a single-goroutine event thread, used for posting
// occurrences like a device disconnect to every attached context.
//
// The Run/Close shutdown shape follows a context.Context-driven
// single-goroutine consumer idiom, and the smallnest/ringbuffer usage
// (Length() for bytes-in-use, Free() for room left, Write/Read for a byte-packed record
// protocol) is generalized here from raw PCM chunks to fixed-size event
// records.
package events

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/smallnest/ringbuffer"
)

// Kind identifies an event type; alctx.EventDisconnected is one value in
// this space.
type Kind int32

// Event is one posted occurrence: a kind plus an opaque payload. Payloads
// are serialized to a fixed-size record so the underlying ring (a byte
// buffer) never needs to store interface values.
type Event struct {
	Kind    Kind
	Payload int64 // enough to carry a handle or small scalar; richer payloads are out of scope
}

const recordSize = 12 // 4 bytes Kind + 8 bytes Payload

// Ring is the async event ring bound to one context. Post is called from
// the API thread (or from Device.Disconnect); a single consumer goroutine
// drains it via Run until the supplied context is canceled, matching
// engine/queue.Queue's Start/Close shutdown idiom.
type Ring struct {
	mu   sync.Mutex
	buf  *ringbuffer.RingBuffer
	subs []func(Event)
}

// NewRing allocates a ring sized for capacity events.
func NewRing(capacity int) *Ring {
	return &Ring{buf: ringbuffer.New(capacity * recordSize)}
}

// Post encodes and enqueues an event. Never blocks the caller: a full ring
// drops the oldest-pending event rather than stalling the API thread.
func (r *Ring) Post(kind int, payload any) {
	var p int64
	if v, ok := payload.(int64); ok {
		p = v
	} else if v, ok := payload.(int); ok {
		p = int64(v)
	}

	var rec [recordSize]byte
	binary.LittleEndian.PutUint32(rec[0:4], uint32(kind))
	binary.LittleEndian.PutUint64(rec[4:12], uint64(p))

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.buf.Free() < recordSize {
		drop := make([]byte, recordSize)
		r.buf.Read(drop)
	}
	r.buf.Write(rec[:])
}

// Subscribe registers a handler the event thread invokes for every drained
// event. Subscriptions are not removable; a context's event thread has a
// fixed, small set of listeners set up once at Create.
func (r *Ring) Subscribe(fn func(Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, fn)
}

// Run drains the ring on the calling goroutine until ctx is canceled,
// acting as the context's event thread. Intended to be started with
// `go ring.Run(ctx)` once per context.
func (r *Ring) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ev, ok := r.poll()
		if !ok {
			continue
		}
		r.mu.Lock()
		subs := make([]func(Event), len(r.subs))
		copy(subs, r.subs)
		r.mu.Unlock()
		for _, fn := range subs {
			fn(ev)
		}
	}
}

func (r *Ring) poll() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.buf.Length() < recordSize {
		return Event{}, false
	}
	rec := make([]byte, recordSize)
	if _, err := r.buf.Read(rec); err != nil {
		return Event{}, false
	}
	kind := Kind(binary.LittleEndian.Uint32(rec[0:4]))
	payload := int64(binary.LittleEndian.Uint64(rec[4:12]))
	return Event{Kind: kind, Payload: payload}, true
}

// Close is a no-op placeholder satisfying alctx.EventRing; draining stops
// when Run's context is canceled, not here, since the ring itself owns no
// goroutine.
func (r *Ring) Close() {}
