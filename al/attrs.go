// Package al is the top-level façade: attribute list parsing, the
// GetError surface, and the object-pool wiring applications see when they
// open a device and create a context. Each exported method is a thin,
// validated wrapper calling into the real subsystem underneath.
package al

import (
	"github.com/shaban/oalcore/device"
)

// Attrs is a zero-terminated sequence of 32-bit signed (key, value) pairs.
// It is modeled as a typed slice with a Parse function rather than leaving
// callers to walk raw pairs themselves.
type Attrs []int32

// Recognized attribute keys.
const (
	KeyFrequency          int32 = 0x1007
	KeyRefresh            int32 = 0x1008 // read-only
	KeySync               int32 = 0x1009 // read-only, always false
	KeyMonoSources        int32 = 0x1010
	KeyStereoSources      int32 = 0x1011
	KeyMaxAuxiliarySends  int32 = 0x1012
	KeyHRTFSoft           int32 = 0x1992
	KeyHRTFIDSoft         int32 = 0x1996
	KeyOutputLimiterSoft  int32 = 0x199A
	KeyFormatChannelsSoft int32 = 0x1990
	KeyFormatTypeSoft     int32 = 0x1991
	KeyAmbisonicLayout    int32 = 0x1997
	KeyAmbisonicScaling   int32 = 0x1998
	KeyAmbisonicOrder     int32 = 0x1999
)

// triState values for HRTF_SOFT/OUTPUT_LIMITER_SOFT: enable / disable /
// default.
const (
	valFalse   int32 = 0
	valTrue    int32 = 1
	valDefault int32 = 2
)

// channel/type/layout/scaling value encodings for the format-pinning keys.
const (
	chanMono    int32 = 0
	chanStereo  int32 = 1
	chanQuad    int32 = 2
	chan51      int32 = 3
	chan51Rear  int32 = 4
	chan61      int32 = 5
	chan71      int32 = 6
	chanBFormat int32 = 7

	typeI8  int32 = 0
	typeU8  int32 = 1
	typeI16 int32 = 2
	typeU16 int32 = 3
	typeI32 int32 = 4
	typeU32 int32 = 5
	typeF32 int32 = 6

	scalingN3D  int32 = 0
	scalingSN3D int32 = 1
	scalingFuMa int32 = 2
)

// Parse walks the attribute list as (key, value) pairs until a zero key
// (or the slice ends), returning a typed device.RequestedAttrs.
// Unrecognized keys are skipped rather than rejected.
func Parse(a Attrs) device.RequestedAttrs {
	var out device.RequestedAttrs

	for i := 0; i+1 < len(a); i += 2 {
		key, val := a[i], a[i+1]
		if key == 0 {
			break
		}
		switch key {
		case KeyFrequency:
			v := int(val)
			out.Frequency = &v
		case KeyMonoSources:
			v := int(val)
			out.MonoSources = &v
		case KeyStereoSources:
			v := int(val)
			out.StereoSources = &v
		case KeyMaxAuxiliarySends:
			v := int(val)
			out.MaxAuxSends = &v
		case KeyHRTFSoft:
			t := triFromInt(val)
			out.HRTF = &t
		case KeyHRTFIDSoft:
			v := int(val)
			out.HRTFID = &v
		case KeyOutputLimiterSoft:
			t := triFromInt(val)
			out.OutputLimiter = &t
		case KeyFormatChannelsSoft:
			l := layoutFromInt(val)
			out.FormatChannels = &l
		case KeyFormatTypeSoft:
			s := sampleTypeFromInt(val)
			out.FormatType = &s
		case KeyAmbisonicLayout:
			l := device.Ambisonic3D
			out.AmbiLayout = &l
		case KeyAmbisonicScaling:
			s := scalingFromInt(val)
			out.AmbiScaling = &s
		case KeyAmbisonicOrder:
			v := int(val)
			out.AmbiOrder = &v
		}
	}
	return out
}

func triFromInt(v int32) device.TriState {
	switch v {
	case valTrue:
		return device.TriEnabled
	case valFalse:
		return device.TriDisabled
	default:
		return device.TriDefault
	}
}

func layoutFromInt(v int32) device.ChannelLayout {
	switch v {
	case chanMono:
		return device.Mono
	case chanQuad:
		return device.Quad
	case chan51:
		return device.Surround51
	case chan51Rear:
		return device.Surround51Rear
	case chan61:
		return device.Surround61
	case chan71:
		return device.Surround71
	case chanBFormat:
		return device.Ambisonic3D
	default:
		return device.Stereo
	}
}

func sampleTypeFromInt(v int32) device.SampleType {
	switch v {
	case typeI8:
		return device.I8
	case typeU8:
		return device.U8
	case typeI16:
		return device.I16
	case typeU16:
		return device.U16
	case typeI32:
		return device.I32
	case typeU32:
		return device.U32
	default:
		return device.F32
	}
}

func scalingFromInt(v int32) device.AmbiScaling {
	switch v {
	case scalingSN3D:
		return device.ScalingSN3D
	case scalingFuMa:
		return device.ScalingFuMa
	default:
		return device.ScalingN3D
	}
}
