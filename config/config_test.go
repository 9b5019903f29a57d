package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithoutPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "oto,pulse,headless", cfg.Drivers)
	assert.Equal(t, 256, cfg.MonoSources)
}

func TestLoadMergesYAMLOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oalcore.yaml")
	content := []byte("drivers: \"pulse,headless\"\nmono_sources: 32\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pulse,headless", cfg.Drivers)
	assert.Equal(t, 32, cfg.MonoSources)
	assert.Equal(t, 64, cfg.StereoSources, "unset fields keep their default")
}

func TestDeviceConfigAppliesOverride(t *testing.T) {
	cfg := Default()
	cfg.DeviceOverrides = map[string]DeviceOverride{
		"usb-dac": {Frequency: 96000, Sends: 4},
	}

	dc := cfg.DeviceConfig("usb-dac")
	assert.Equal(t, 96000, dc.DefaultFormat.Frequency)
	assert.Equal(t, 4, dc.MaxAuxSends)
}

func TestDeviceConfigFallsBackWithoutOverride(t *testing.T) {
	cfg := Default()
	dc := cfg.DeviceConfig("unknown")
	assert.Equal(t, cfg.MonoSources, dc.MonoSources)
}

func TestDeviceConfigPropagatesCPUExtensionExclusions(t *testing.T) {
	cfg := Default()
	cfg.CPUExtensionExclusions = []string{"SSE2"}
	dc := cfg.DeviceConfig("unknown")
	assert.Equal(t, []string{"SSE2"}, dc.CPUExtensionExclusions)
}

func TestExcludesCPUExtensionCaseInsensitive(t *testing.T) {
	cfg := Default()
	cfg.CPUExtensionExclusions = []string{"SSE2"}
	assert.True(t, cfg.ExcludesCPUExtension("sse2"))
	assert.False(t, cfg.ExcludesCPUExtension("neon"))
}
