// Package cpufeat probes CPU capabilities during one-shot process init, and
// helps UpdateDeviceParams round the negotiated period size up to a
// multiple of 4 when SSE/NEON is present, using klauspost/cpuid/v2 for this
// SIMD-dispatch decision rather than hand-rolling CPUID parsing.
package cpufeat

import (
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// Wide reports whether the current CPU has a SIMD extension that benefits
// from 4-sample-aligned period sizes (SSE2 on amd64, NEON on arm64), and
// that extension's name is not present in excluded. NEON is reported by
// cpuid as ASIMD; either name excludes it.
func Wide(excluded []string) bool {
	if cpuid.CPU.Supports(cpuid.SSE2) && !isExcluded(excluded, cpuid.SSE2.String()) {
		return true
	}
	if cpuid.CPU.Supports(cpuid.ASIMD) && !isExcluded(excluded, cpuid.ASIMD.String()) && !isExcluded(excluded, "NEON") {
		return true
	}
	return false
}

func isExcluded(excluded []string, name string) bool {
	for _, e := range excluded {
		if strings.EqualFold(e, name) {
			return true
		}
	}
	return false
}

// RoundPeriodSize rounds n up to a multiple of 4 when Wide(excluded)
// reports true, otherwise returns n unchanged.
func RoundPeriodSize(n int, excluded []string) int {
	if !Wide(excluded) {
		return n
	}
	if rem := n % 4; rem != 0 {
		n += 4 - rem
	}
	return n
}
