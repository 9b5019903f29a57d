// Package testutil holds small test-only helpers shared across packages
// that need to gate a test behind a real external resource (a running
// PulseAudio server, CI-only environment assumptions) instead of mocking it.
package testutil

import (
	"os"
	"testing"
)

// SkipUnlessEnv skips the test unless the given env var equals the wanted
// value, gating a test that needs a real external resource behind an
// explicit opt-in.
func SkipUnlessEnv(t *testing.T, key, want string) {
	t.Helper()
	if os.Getenv(key) != want {
		t.Skipf("skipped: set %s=%s to run", key, want)
	}
}

// IsCI reports whether running under common CI environments.
func IsCI() bool {
	return os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"
}
