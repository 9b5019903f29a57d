// Package hrtf provides the HRTF enumeration stub the Device Manager calls
// into during UpdateDeviceParams' HRTF selection step: enumerate, pick by
// ID or take the first, and report the chosen profile's native sample
// rate. Real HRTF file loading is treated as a black box and out of scope;
// this package only ships a fixed built-in profile table.
package hrtf

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Profile is one enumerated HRTF data set. Real HRTF files are out of
// scope; this is the fixed built-in list the core ships.
type Profile struct {
	ID           int
	Name         string
	SampleRate   int // the format the device must be forced to when this profile is selected
}

var builtin = []Profile{
	{ID: 0, Name: "Built-In 44100Hz", SampleRate: 44100},
	{ID: 1, Name: "Built-In 48000Hz", SampleRate: 48000},
	{ID: 2, Name: "Built-In 96000Hz HQ", SampleRate: 96000},
}

const cacheKey = "hrtf-profiles"

// List is the enumeration cache: a one-entry TTL cache wrapping the fixed
// builtin table, so enumeration doesn't re-derive the (static) table on
// every invocation.
type List struct {
	cache *cache.Cache
}

// NewList returns an enumeration cache with a generous TTL; the underlying
// table never changes at runtime, so expiration exists only to bound memory
// if this list is ever backed by a real file scan later.
func NewList() *List {
	return &List{cache: cache.New(1*time.Hour, 10*time.Minute)}
}

// Enumerate returns the available HRTF profiles, populating the cache on
// first call.
func (l *List) Enumerate() []Profile {
	if v, ok := l.cache.Get(cacheKey); ok {
		return v.([]Profile)
	}
	l.cache.Set(cacheKey, builtin, cache.DefaultExpiration)
	return builtin
}

// Select picks the profile by ID if specified, else the first available
// profile. id < 0 means "unspecified, take the first". The bool result is
// false on failure (empty list, or no profile with the requested ID).
// Device.UpdateDeviceParams records such a failure as InvalidValue on the
// device; no separate HRTF status is kept.
func (l *List) Select(id int) (Profile, bool) {
	profiles := l.Enumerate()
	if len(profiles) == 0 {
		return Profile{}, false
	}
	if id < 0 {
		return profiles[0], true
	}
	for _, p := range profiles {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}
