// Package device implements the Device Manager: the Device object, format
// negotiation, UpdateDeviceParams reconfiguration, and disconnect handling.
package device

import "fmt"

// Kind is the device kind: playback, capture, or loopback.
type Kind int

const (
	Playback Kind = iota
	Capture
	Loopback
)

func (k Kind) String() string {
	switch k {
	case Playback:
		return "playback"
	case Capture:
		return "capture"
	case Loopback:
		return "loopback"
	default:
		return "unknown"
	}
}

// ChannelLayout enumerates the channel layouts a device can negotiate.
type ChannelLayout int

const (
	Mono ChannelLayout = iota
	Stereo
	Quad
	Surround51
	Surround51Rear
	Surround61
	Surround71
	Ambisonic3D // order carried separately on Format.AmbiOrder
)

func (l ChannelLayout) String() string {
	switch l {
	case Mono:
		return "mono"
	case Stereo:
		return "stereo"
	case Quad:
		return "quad"
	case Surround51:
		return "5.1"
	case Surround51Rear:
		return "5.1-rear"
	case Surround61:
		return "6.1"
	case Surround71:
		return "7.1"
	case Ambisonic3D:
		return "ambisonic3d"
	default:
		return "unknown"
	}
}

// baseChannelCount returns the channel count for non-ambisonic layouts. Ambisonic3D
// channel count depends on AmbiOrder and is computed by Format.Channels.
func (l ChannelLayout) baseChannelCount() int {
	switch l {
	case Mono:
		return 1
	case Stereo:
		return 2
	case Quad:
		return 4
	case Surround51, Surround51Rear:
		return 6
	case Surround61:
		return 7
	case Surround71:
		return 8
	default:
		return 0
	}
}

// SampleType enumerates the sample storage types a format can use.
type SampleType int

const (
	I8 SampleType = iota
	U8
	I16
	U16
	I32
	U32
	F32
)

func (t SampleType) BytesPerSample() int {
	switch t {
	case I8, U8:
		return 1
	case I16, U16:
		return 2
	case I32, U32, F32:
		return 4
	default:
		return 0
	}
}

// AmbiScaling selects the ambisonic normalization scheme the
// AMBISONIC_SCALING_SOFT attribute requests.
type AmbiScaling int

const (
	ScalingN3D AmbiScaling = iota
	ScalingSN3D
	ScalingFuMa
)

// MaxAmbiOrder is the highest ambisonic order this core will negotiate.
const MaxAmbiOrder = 14

// MaxFuMaOrder is the FuMa-specific cap: FuMa scaling only supports order
// up to 3.
const MaxFuMaOrder = 3

// MinOutputRate is the floor frequency for loopback/opened devices.
const MinOutputRate = 8000

// Format is a device's negotiated mix format.
type Format struct {
	Layout     ChannelLayout
	Type       SampleType
	Frequency  int
	UpdateSize int // frames per callback
	NumUpdates int // periods per buffer

	AmbiOrder   int
	AmbiScaling AmbiScaling
}

// Channels returns the number of interleaved channels this format mixes,
// accounting for ambisonic order.
func (f Format) Channels() int {
	if f.Layout == Ambisonic3D {
		n := f.AmbiOrder + 1
		return n * n
	}
	return f.Layout.baseChannelCount()
}

// Validate checks the invariants that hold independent of any backend:
// frequency floor, and FuMa order cap.
func (f Format) Validate() error {
	if f.Frequency < MinOutputRate {
		return fmt.Errorf("device: frequency %d below MIN_OUTPUT_RATE %d", f.Frequency, MinOutputRate)
	}
	if f.Layout == Ambisonic3D {
		if f.AmbiOrder < 1 || f.AmbiOrder > MaxAmbiOrder {
			return fmt.Errorf("device: ambisonic order %d out of range [1,%d]", f.AmbiOrder, MaxAmbiOrder)
		}
		if f.AmbiScaling == ScalingFuMa && f.AmbiOrder > MaxFuMaOrder {
			return fmt.Errorf("device: FuMa scaling only supports order <= %d, got %d", MaxFuMaOrder, f.AmbiOrder)
		}
	}
	return nil
}

// DefaultFormat is the format seeded from global config when opening a
// playback device with no caller-supplied overrides.
func DefaultFormat() Format {
	return Format{
		Layout:     Stereo,
		Type:       F32,
		Frequency:  48000,
		UpdateSize: 512,
		NumUpdates: 3,
	}
}

// CaptureFormats is the fixed table of canonical capture formats a capture
// open requires format decomposition against: mono/stereo/quad/5.1/6.1/7.1
// × {u8, i16, f32}.
var CaptureFormats = func() map[ChannelLayout]map[SampleType]bool {
	layouts := []ChannelLayout{Mono, Stereo, Quad, Surround51, Surround61, Surround71}
	types := []SampleType{U8, I16, F32}
	m := make(map[ChannelLayout]map[SampleType]bool, len(layouts))
	for _, l := range layouts {
		m[l] = make(map[SampleType]bool, len(types))
		for _, t := range types {
			m[l][t] = true
		}
	}
	return m
}()

// DecomposeCapture validates a requested capture layout/type pair against
// CaptureFormats, returning alerror.InvalidEnum's sentinel condition via a
// plain bool so callers in the device package can attach the right code.
func DecomposeCapture(l ChannelLayout, t SampleType) bool {
	types, ok := CaptureFormats[l]
	if !ok {
		return false
	}
	return types[t]
}
