// Package config loads the environment/configuration settings: log
// level/file, context-suspend behavior, CPU-extension exclusions,
// backend-driver ordering, trap-error flag, default-reverb preset,
// per-device overrides — read at one-shot init or device open. It wires
// spf13/viper over a YAML file with struct tags and sane defaults set
// before Unmarshal.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"

	"github.com/shaban/oalcore/device"
)

// DeviceOverride is one per-device-name override block.
type DeviceOverride struct {
	Frequency      int     `mapstructure:"frequency" yaml:"frequency"`
	Periods        int     `mapstructure:"periods" yaml:"periods"`
	PeriodSize     int     `mapstructure:"period_size" yaml:"period_size"`
	Sources        int     `mapstructure:"sources" yaml:"sources"`
	Slots          int     `mapstructure:"slots" yaml:"slots"`
	Sends          int     `mapstructure:"sends" yaml:"sends"`
	Dither         bool    `mapstructure:"dither" yaml:"dither"`
	OutputLimiter  bool    `mapstructure:"output_limiter" yaml:"output_limiter"`
	VolumeAdjustDB float64 `mapstructure:"volume_adjust_db" yaml:"volume_adjust_db"`
	AmbiFormat     string  `mapstructure:"ambi_format" yaml:"ambi_format"`
}

// Config is the root configuration document, loaded via viper and
// (by default) expressed as YAML.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`

	ContextSuspendOnDefer bool `mapstructure:"context_suspend_on_defer" yaml:"context_suspend_on_defer"`

	CPUExtensionExclusions []string `mapstructure:"cpu_extension_exclusions" yaml:"cpu_extension_exclusions"`

	Drivers string `mapstructure:"drivers" yaml:"drivers"`

	TrapOnError bool `mapstructure:"trap_on_error" yaml:"trap_on_error"`

	DefaultReverbPreset string `mapstructure:"default_reverb_preset" yaml:"default_reverb_preset"`

	MonoSources   int `mapstructure:"mono_sources" yaml:"mono_sources"`
	StereoSources int `mapstructure:"stereo_sources" yaml:"stereo_sources"`
	MaxAuxSends   int `mapstructure:"max_aux_sends" yaml:"max_aux_sends"`
	Periods       int `mapstructure:"periods" yaml:"periods"`
	PeriodSize    int `mapstructure:"period_size" yaml:"period_size"`

	DeviceOverrides map[string]DeviceOverride `mapstructure:"device_overrides" yaml:"device_overrides"`
}

// Default returns the built-in defaults, set before any config file is
// merged in, following the common pattern of seeding viper with defaults
// before ReadInConfig.
func Default() Config {
	return Config{
		LogLevel:            "info",
		Drivers:             "oto,pulse,headless",
		MonoSources:         256,
		StereoSources:       64,
		MaxAuxSends:         2,
		Periods:             3,
		PeriodSize:          512,
		DefaultReverbPreset: "generic",
	}
}

// Load reads configuration from path (YAML by default) using viper,
// merging over Default()'s values; a missing file is not an error — the
// defaults alone are a valid configuration.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	}

	setDefaults(v, cfg)

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return cfg, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("drivers", cfg.Drivers)
	v.SetDefault("mono_sources", cfg.MonoSources)
	v.SetDefault("stereo_sources", cfg.StereoSources)
	v.SetDefault("max_aux_sends", cfg.MaxAuxSends)
	v.SetDefault("periods", cfg.Periods)
	v.SetDefault("period_size", cfg.PeriodSize)
	v.SetDefault("default_reverb_preset", cfg.DefaultReverbPreset)
}

// DeviceConfig resolves a device.Config for name, applying this config's
// global defaults and then, if present, that device's override block.
func (c Config) DeviceConfig(name string) device.Config {
	dc := device.Config{
		DefaultFormat:          device.DefaultFormat(),
		Periods:                c.Periods,
		PeriodSize:             c.PeriodSize,
		MonoSources:            c.MonoSources,
		StereoSources:          c.StereoSources,
		MaxAuxSends:            c.MaxAuxSends,
		TrapOnError:            c.TrapOnError,
		Drivers:                c.Drivers,
		CPUExtensionExclusions: c.CPUExtensionExclusions,
	}

	ov, ok := c.DeviceOverrides[name]
	if !ok {
		return dc
	}
	if ov.Frequency > 0 {
		dc.DefaultFormat.Frequency = ov.Frequency
	}
	if ov.Periods > 0 {
		dc.Periods = ov.Periods
	}
	if ov.PeriodSize > 0 {
		dc.PeriodSize = ov.PeriodSize
	}
	if ov.Sources > 0 {
		dc.MonoSources = ov.Sources
	}
	if ov.Sends > 0 {
		dc.MaxAuxSends = ov.Sends
	}
	dc.OutputLimiterWanted = ov.OutputLimiter
	return dc
}

// ExcludesCPUExtension reports whether name (e.g. "sse2", "neon") is listed
// in CPUExtensionExclusions, case-insensitively.
func (c Config) ExcludesCPUExtension(name string) bool {
	for _, ex := range c.CPUExtensionExclusions {
		if strings.EqualFold(ex, name) {
			return true
		}
	}
	return false
}
