// Package voice implements the Voice Pool: a fixed-capacity pool of
// mixer-side playback units, reallocated on send-count or voice-count
// change while preserving in-flight playback state by field-wise copy.
//
// Voices are not handle-addressed sub-pool slots like internal/pool's slab
// allocator — they are a flat array indexed directly by the mixer. Go's
// slice-of-struct gives each voice its own growable per-voice send slice
// without a flexible-array tail.
package voice

import "sync/atomic"

// Send is one auxiliary effect-send slot on a voice: a weak reference (by
// handle) to an effect slot plus the gain applied on the way in.
type Send struct {
	SlotHandle uint32 // zero means unassigned
	Gain       float32
}

// IdentitySend is the default state a newly grown send slot is initialized
// to: unassigned, unity gain.
func IdentitySend() Send { return Send{SlotHandle: 0, Gain: 1.0} }

// NFCFilterState holds the near-field-compensation filter coefficients
// reinitialized on every device reconfiguration using the new
// average-speaker-distance.
type NFCFilterState struct {
	AverageDistance float32
	history         [4]float32
}

// Voice is one mixer-side playback unit. SourceID is atomic because the
// mixer reads it every block while the API thread assigns/clears it when a
// source starts or stops playing; a zero SourceID means the voice is free.
type Voice struct {
	SourceID   atomic.Uint32
	Cursor     int64 // sample-accurate playback position within the source's queue
	Resampler  ResamplerState
	Sends      []Send
	NFC        NFCFilterState
}

// ResamplerState is an opaque placeholder for the resampler's working set;
// the sample-level mixer and DSP themselves are treated as a black box and
// out of scope for this core.
type ResamplerState struct {
	Phase  float64
	Factor float64
}

// IsFree reports whether this voice currently has no assigned source.
func (v *Voice) IsFree() bool { return v.SourceID.Load() == 0 }

// Assign atomically claims this voice for sourceID, sizing its send array
// to numSends with identity gains.
func (v *Voice) Assign(sourceID uint32, numSends int) {
	v.Cursor = 0
	v.Resampler = ResamplerState{}
	v.Sends = make([]Send, numSends)
	for i := range v.Sends {
		v.Sends[i] = IdentitySend()
	}
	v.SourceID.Store(sourceID)
}

// Release atomically frees this voice: a voice with source ID 0 is free.
func (v *Voice) Release() { v.SourceID.Store(0) }

// Pool is the flat, fixed-capacity array of voices: a flat contiguous
// allocation sized MaxVoices. Sends are a regular Go slice per voice rather
// than a flexible-array tail.
type Pool struct {
	voices    []Voice
	maxVoices int
	numSends  int
}

// NewPool allocates a fresh pool of maxVoices voices, each with numSends
// send slots initialized to identity gain.
func NewPool(maxVoices, numSends int) *Pool {
	p := &Pool{maxVoices: maxVoices, numSends: numSends}
	p.voices = make([]Voice, maxVoices)
	for i := range p.voices {
		p.voices[i].Sends = make([]Send, numSends)
		for j := range p.voices[i].Sends {
			p.voices[i].Sends[j] = IdentitySend()
		}
	}
	return p
}

// Len returns the pool's current voice capacity (VoiceCount, capped to
// MaxVoices).
func (p *Pool) Len() int { return len(p.voices) }

// NumSends returns the pool's current per-voice send count.
func (p *Pool) NumSends() int { return p.numSends }

// At returns a pointer to the voice at index i for direct mixer access.
func (p *Pool) At(i int) *Voice { return &p.voices[i] }

// AllocateFree scans for a free voice and assigns it to sourceID, returning
// its index, or -1 if the pool is fully occupied.
func (p *Pool) AllocateFree(sourceID uint32) int {
	for i := range p.voices {
		if p.voices[i].IsFree() {
			p.voices[i].Assign(sourceID, p.numSends)
			return i
		}
	}
	return -1
}

// Each visits every currently-assigned (non-free) voice — used by
// UpdateDeviceParams' pass that reinitializes NFC filters for every live
// voice whose source ID is nonzero.
func (p *Pool) Each(fn func(index int, v *Voice)) {
	for i := range p.voices {
		if !p.voices[i].IsFree() {
			fn(i, &p.voices[i])
		}
	}
}

// Reallocate allocates a new block sized newMax with newSends per-voice
// send slots, moves each old voice's state field-by-field (the mixer must
// already be stopped by the caller — this is not itself synchronized),
// truncates or grows per-send arrays to newSends with new slots
// default-initialized, then drops the old block. VoiceCount is capped to
// the new MaxVoices: voices beyond newMax are silently dropped, and
// per-send arrays are truncated to the minimum of old/new send counts.
func (p *Pool) Reallocate(newMax, newSends int) {
	next := make([]Voice, newMax)
	n := newMax
	if len(p.voices) < n {
		n = len(p.voices)
	}
	for i := 0; i < n; i++ {
		old := &p.voices[i]
		next[i].SourceID.Store(old.SourceID.Load())
		next[i].Cursor = old.Cursor
		next[i].Resampler = old.Resampler
		next[i].NFC = old.NFC

		sends := make([]Send, newSends)
		keep := newSends
		if len(old.Sends) < keep {
			keep = len(old.Sends)
		}
		copy(sends, old.Sends[:keep])
		for j := keep; j < newSends; j++ {
			sends[j] = IdentitySend()
		}
		next[i].Sends = sends
	}
	for i := n; i < newMax; i++ {
		next[i].Sends = make([]Send, newSends)
		for j := range next[i].Sends {
			next[i].Sends[j] = IdentitySend()
		}
	}

	p.voices = next
	p.maxVoices = newMax
	p.numSends = newSends
}
