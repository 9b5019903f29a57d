// Package alctx implements the Context Manager: the Context object,
// listener state, attachment to a device, and the deferred-update
// protocol.
//
// The Context struct follows a state-struct-plus-mutex-guarded-lifecycle
// shape, with context.Context-based shutdown plumbing for its event
// thread, adapted to a device-attached rendering universe model where
// every Context is bound to exactly one Device.
package alctx

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/shaban/oalcore/alerror"
	"github.com/shaban/oalcore/device"
	"github.com/shaban/oalcore/internal/pool"
	"github.com/shaban/oalcore/props"
	"github.com/shaban/oalcore/voice"
)

// Listener is the context's single listener: position, velocity,
// orientation, gain, meters-per-unit.
type Listener struct {
	Position    [3]float32
	Velocity    [3]float32
	Orientation [6]float32 // at(3) + up(3)
	Gain        float32
	MetersPerUnit float32
}

// DefaultListener is the identity listener Context Create initializes to.
func DefaultListener() Listener {
	return Listener{
		Orientation:   [6]float32{0, 0, -1, 0, 1, 0},
		Gain:          1.0,
		MetersPerUnit: 1.0,
	}
}

// ListenerUpdate is the coherent snapshot published through props.Slot for
// the listener.
type ListenerUpdate struct {
	Listener Listener
}

// Source is a playback cursor + parameter set.
type Source struct {
	Handle     pool.Handle
	State      SourceState
	BufferQ    []pool.Handle // queue of buffer references (streaming) or len==1 (static)
	Sends      []voice.Send
	VoiceIndex int // -1 when not assigned to a voice
	clean      props.Clean
	published  props.Slot[SourceUpdate]
}

// SourceState enumerates a source's playback states.
type SourceState int

const (
	Initial SourceState = iota
	Playing
	Paused
	Stopped
)

// SourceUpdate is the coherent per-source snapshot the mixer applies.
type SourceUpdate struct {
	State SourceState
	Gain  float32
	Pitch float32
}

// EffectSlot holds an effect configuration and its running DSP state. The
// DSP state itself is out of scope for this core, modeled here as an
// opaque handle into the device's Effects pool.
type EffectSlot struct {
	Handle    pool.Handle
	EffectRef pool.Handle
	RefCount  int32
	clean     props.Clean
	published props.Slot[EffectSlotUpdate]
}

// EffectSlotUpdate is the coherent per-slot snapshot the mixer applies.
type EffectSlotUpdate struct {
	EffectRef pool.Handle
	Gain      float32
}

// Context is one rendering universe bound to one device.
type Context struct {
	ID uuid.UUID

	mu sync.Mutex

	dev *device.Device

	Listener        Listener
	listenerClean   props.Clean
	listenerSlot    props.Slot[ListenerUpdate]
	DistanceModel   int
	DopplerFactor   float32
	DopplerVelocity float32
	SpeedOfSound    float32

	Sources    *pool.Pool[Source]
	Slots      *pool.Pool[EffectSlot]
	ActiveSlots []pool.Handle // the snapshot the mixer reads

	Voices *voice.Pool

	refCount atomic.Int32

	deferUpdates atomic.Bool
	holdUpdates  atomic.Bool
	propsClean   atomic.Bool

	events EventRing

	cancel context.CancelFunc
}

// EventRing is the minimal surface alctx needs from the context's async
// event ring (the events package supplies the concrete implementation);
// kept as an interface here to avoid alctx depending on smallnest/
// ringbuffer directly.
type EventRing interface {
	Post(kind int, payload any)
	Close()
}

type noopRing struct{}

func (noopRing) Post(int, any) {}
func (noopRing) Close()        {}

// Create holds the device, constructs a fresh context, attaches it to the
// device, and calls UpdateDeviceParams with the requested attributes — on
// InvalidDevice it publishes a disconnect event and releases the device.
// Allocates 256 voices by default and initializes the listener to
// identity.
func Create(dev *device.Device, attrs device.RequestedAttrs, ring EventRing) (*Context, alerror.Code) {
	dev.Hold()

	c := &Context{
		ID:           uuid.New(),
		dev:          dev,
		Listener:     DefaultListener(),
		SpeedOfSound: 343.3,
		Sources:      pool.New[Source](),
		Slots:        pool.New[EffectSlot](),
		Voices:       voice.NewPool(256, 2),
		events:       ring,
	}
	if c.events == nil {
		c.events = noopRing{}
	}
	c.refCount.Store(1)

	dev.AttachContext(c)

	if code := dev.UpdateDeviceParams(attrs); code != alerror.NoError {
		dev.DetachContext(c)
		if code == alerror.InvalidDevice {
			c.events.Post(EventDisconnected, nil)
		}
		dev.Release()
		return nil, code
	}

	return c, alerror.NoError
}

// EventDisconnected is the event kind posted on a device disconnect, or on
// Create's InvalidDevice failure branch.
const EventDisconnected = 1

// Destroy removes this context from the device's context list, stops the
// event thread, and decrements the reference count; when it reaches zero,
// releases the device reference.
func (c *Context) Destroy() {
	c.dev.DetachContext(c)
	c.events.Close()
	if c.cancel != nil {
		c.cancel()
	}
	if c.refCount.Add(-1) == 0 {
		c.dev.Release()
	}
}

// Hold/Release model the explicit reference counting a Context needs while
// held by Current, Local, and each verifier.
func (c *Context) Hold()           { c.refCount.Add(1) }
func (c *Context) Release() bool   { return c.refCount.Add(-1) == 0 }

// Device returns the context's bound device.
func (c *Context) Device() *device.Device { return c.dev }

// DeferUpdates starts the deferred-update protocol: property publication
// continues, but the mixer is not yet told to hold applying them (that
// happens when HoldUpdates is separately set by ProcessUpdates' rendezvous
// — DeferUpdates alone only flags intent).
func (c *Context) DeferUpdates() {
	c.deferUpdates.Store(true)
}

// IsDeferring reports whether DeferUpdates is currently active.
func (c *Context) IsDeferring() bool { return c.deferUpdates.Load() }

// HoldUpdates reports whether the mixer should currently refrain from
// applying newly published updates.
func (c *Context) HoldUpdates() bool { return c.holdUpdates.Load() }

// ProcessUpdates clears DeferUpdates, sets HoldUpdates, busy-yields until
// gen's generation is even (not mid-apply), publishes all pending
// context/listener/slot/source properties as one coherent batch via
// publishAll, then clears HoldUpdates.
func (c *Context) ProcessUpdates(gen *props.Generation, publishAll func()) {
	c.deferUpdates.Store(false)
	c.holdUpdates.Store(true)

	gen.StableSnapshot(func() {
		publishAll()
	})

	c.holdUpdates.Store(false)
}

// MarkListenerDirty clears the listener's PropsClean flag, called by every
// listener setter on the API thread.
func (c *Context) MarkListenerDirty() { c.listenerClean.MarkDirty() }

// PublishListener runs the listener's publish-sweep step.
func (c *Context) PublishListener() {
	c.listenerSlot.Publish(func(u *ListenerUpdate) {
		u.Listener = c.Listener
	})
}

// --- device.AttachedContext implementation ---

// DeviceUpdate implements the per-context half of UpdateDeviceParams step
// 10: "for every effect slot (default and user), call state.deviceUpdate;
// on any failure, mark update_failed." The DSP state itself is out of
// scope, so this always succeeds unless the slot pool is corrupt.
func (c *Context) DeviceUpdate(d *device.Device) bool {
	ok := true
	c.Slots.Each(func(h pool.Handle, slot *EffectSlot) {
		if slot == nil {
			ok = false
		}
	})
	return ok
}

// ResizeSourceSends implements step 10's per-source send resize: release
// slot refs beyond the new count, resize the send array, initialize new
// sends to identity gains.
func (c *Context) ResizeSourceSends(newSends int) {
	c.Sources.Each(func(h pool.Handle, src *Source) {
		old := src.Sends
		keep := newSends
		if len(old) < keep {
			keep = len(old)
		}
		for i := keep; i < len(old); i++ {
			if old[i].SlotHandle == 0 {
				continue
			}
			if slot, ok := c.Slots.Get(pool.Handle(old[i].SlotHandle)); ok {
				slot.RefCount--
			}
		}

		next := make([]voice.Send, newSends)
		copy(next, old[:keep])
		for i := keep; i < newSends; i++ {
			next[i] = voice.IdentitySend()
		}
		src.Sends = next
		src.clean.MarkDirty()
	})
}

// AllocateVoices implements step 10's "call AllocateVoices (see §4.7) with
// the new send count": reallocate the voice pool, preserving in-flight
// state. Voices keep no queue of pending property updates, so nothing else
// is freed here.
func (c *Context) AllocateVoices(newMax, newSends int) {
	c.Voices.Reallocate(newMax, newSends)
}

// ReinitVoiceNFC implements step 10's "for each live voice whose source ID
// is nonzero, reinitialize NFC filters using the new average-speaker-
// distance."
func (c *Context) ReinitVoiceNFC(avgSpeakerDistance float32) {
	c.Voices.Each(func(i int, v *voice.Voice) {
		v.NFC.AverageDistance = avgSpeakerDistance
	})
}

// MarkAllDirty implements step 10's "mark all clean-flags dirty so the
// publication loop re-publishes everything."
func (c *Context) MarkAllDirty() {
	c.listenerClean.MarkDirty()
	c.Sources.Each(func(h pool.Handle, src *Source) { src.clean.MarkDirty() })
	c.Slots.Each(func(h pool.Handle, slot *EffectSlot) { slot.clean.MarkDirty() })
}
