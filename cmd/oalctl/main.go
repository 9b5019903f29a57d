// Command oalctl is a thin inspection/smoke-test harness over the oalcore
// façade: open a device, create a context, print what the core negotiated,
// and optionally render a loopback buffer. Sub-commands are built from a
// shared config loaded via cobra.Command PersistentFlags bound through
// viper.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shaban/oalcore/al"
	"github.com/shaban/oalcore/alerror"
	"github.com/shaban/oalcore/backend"
	"github.com/shaban/oalcore/backend/loopback"
	"github.com/shaban/oalcore/config"
	"github.com/shaban/oalcore/device"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:   "oalctl",
		Short: "inspect and exercise an oalcore device/context",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML config file (defaults alone are valid)")
	if err := viper.BindPFlag("config", root.PersistentFlags().Lookup("config")); err != nil {
		fmt.Fprintln(os.Stderr, "oalctl: bind flag:", err)
	}

	root.AddCommand(devicesCommand(&cfgPath), openCommand(&cfgPath), loopbackCommand(&cfgPath))
	return root
}

func loadSystem(cfgPath string) (*al.System, config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, cfg, err
	}
	return al.NewSystem(cfg), cfg, nil
}

// devicesCommand prints the resolved driver order without actually opening
// anything.
func devicesCommand(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "print the resolved backend driver order",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, err := loadSystem(*cfgPath)
			if err != nil {
				return err
			}
			order := backend.ParseDriverOrder(cfg.Drivers, []string{"oto", "pulse", "headless"})
			fmt.Printf("drivers: %s\n", strings.Join(order, ","))
			return nil
		},
	}
}

// openCommand opens a playback device by name, creates a context at the
// given frequency, prints the negotiated format, then closes everything.
func openCommand(cfgPath *string) *cobra.Command {
	var name string
	var freq int

	cmd := &cobra.Command{
		Use:   "open",
		Short: "open a playback device, create a context, print what was negotiated",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := loadSystem(*cfgPath)
			if err != nil {
				return err
			}

			d, err := s.OpenPlayback(context.Background(), name)
			if err != nil {
				return fmt.Errorf("open playback %q: %w", name, err)
			}
			defer s.CloseDevice(d)

			attrs := al.Attrs{al.KeyFrequency, int32(freq), 0}
			c, err := s.CreateContext(d, attrs)
			if err != nil {
				return fmt.Errorf("create context: %w", err)
			}
			defer c.Destroy()

			fmt.Printf("device:     %s (%s)\n", d.Name, d.ID)
			fmt.Printf("frequency:  %d\n", d.Format.Frequency)
			fmt.Printf("channels:   %v (%d)\n", d.Format.Layout, d.Format.Channels())
			fmt.Printf("sample:     %v\n", d.Format.Type)
			fmt.Printf("period:     %d x %d\n", d.Format.NumUpdates, d.Format.UpdateSize)
			fmt.Printf("connected:  %d\n", s.GetIntegerConnected(d))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "default", "device name to open (an empty name selects the backend's default device)")
	cmd.Flags().IntVar(&freq, "frequency", 48000, "requested ALC_FREQUENCY")
	return cmd
}

// loopbackCommand opens an application-rendered loopback device and renders
// one buffer's worth of silence through it, exercising RenderSamples
// without requiring any native audio hardware.
func loopbackCommand(cfgPath *string) *cobra.Command {
	var frequency int
	var frames int

	cmd := &cobra.Command{
		Use:   "loopback",
		Short: "render one buffer through an application-rendered loopback device",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := loadSystem(*cfgPath)
			if err != nil {
				return err
			}

			d := s.OpenLoopback()
			defer s.CloseDevice(d)

			stereo := device.Stereo
			f32 := device.F32
			if code := d.UpdateDeviceParams(device.RequestedAttrs{
				Frequency:      &frequency,
				FormatChannels: &stereo,
				FormatType:     &f32,
			}); code != alerror.NoError {
				return fmt.Errorf("update loopback params: %s", code)
			}

			lb, ok := d.Backend().(*loopback.Backend)
			if !ok {
				return fmt.Errorf("loopback backend does not expose Render")
			}
			buf := make([]byte, frames*2*4) // stereo, f32
			if err := al.RenderSamples(lb, buf, frames); err != nil {
				return err
			}

			fmt.Printf("rendered %d frames at %dHz (%d bytes)\n", frames, d.Format.Frequency, len(buf))
			return nil
		},
	}
	cmd.Flags().IntVar(&frequency, "frequency", 44100, "loopback render frequency")
	cmd.Flags().IntVar(&frames, "frames", 1024, "frames to render")
	return cmd
}
