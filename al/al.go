package al

import (
	"context"
	"errors"
	"fmt"

	gocache "github.com/patrickmn/go-cache"

	"github.com/shaban/oalcore/alctx"
	"github.com/shaban/oalcore/alerror"
	"github.com/shaban/oalcore/backend"
	"github.com/shaban/oalcore/backend/headless"
	"github.com/shaban/oalcore/backend/loopback"
	"github.com/shaban/oalcore/backend/oto"
	"github.com/shaban/oalcore/config"
	"github.com/shaban/oalcore/device"
	"github.com/shaban/oalcore/internal/registry"
)

// System is the process-wide facade: the Global Registry plus the set of
// Backend Factories, assembled by NewSystem.
type System struct {
	reg         *registry.Registry[*device.Device]
	factories   map[string]backend.Factory
	cfg         config.Config
	nullErr     alerror.Latch
	driverOrder []string

	// listCache is allocated by NewSystem; no System method reads or
	// writes it.
	listCache *gocache.Cache
}

// NewSystem constructs a System with the standard Backend Factory set
// (oto, loopback, headless — pulse is registered separately through
// RegisterFactory from a linux-build-tagged call site, since the
// pulse package itself is build-tagged linux).
func NewSystem(cfg config.Config) *System {
	s := &System{
		reg: registry.New[*device.Device](),
		factories: map[string]backend.Factory{
			"oto":      oto.Factory{},
			"loopback": loopback.Factory{},
			"headless": headless.Factory{},
		},
		cfg:       cfg,
		listCache: gocache.New(0, 0),
	}
	return s
}

// RegisterFactory adds (or replaces) a named Backend Factory, used by
// platform-specific build-tagged call sites (e.g. backend/pulse on linux)
// to extend the default set.
func (s *System) RegisterFactory(f backend.Factory) {
	s.factories[f.Name()] = f
}

// selectBackend runs backend selection on every open call: walk the
// ordered driver table, the first factory whose Init() succeeds and whose
// Supports(kind) is true wins. The choice is not cached between calls.
func (s *System) selectBackend(kind device.Kind) (backend.Backend, error) {
	order := backend.ParseDriverOrder(s.cfg.Drivers, []string{"oto", "pulse", "headless"})
	factory := backend.SelectFactory(order, s.factories, backend.Kind(kind))
	if factory == nil {
		return nil, errors.New("al: no backend factory supports the requested device kind")
	}
	return factory.Create(kind, nil)
}

// OpenPlayback selects a playback backend and opens a playback device.
func (s *System) OpenPlayback(ctx context.Context, name string) (*device.Device, error) {
	bk, err := s.selectBackend(device.Playback)
	if err != nil {
		s.nullErr.Store(alerror.InvalidDevice)
		return nil, err
	}
	dc := s.cfg.DeviceConfig(name)
	d, code := device.OpenPlayback(ctx, name, dc, bk)
	if code != alerror.NoError {
		s.nullErr.Store(code)
		return nil, alerror.FromCode(code)
	}
	s.reg.Add(d)
	return d, nil
}

// OpenCapture selects a capture backend and opens a capture device.
func (s *System) OpenCapture(ctx context.Context, name string, format device.Format) (*device.Device, error) {
	bk, err := s.selectBackend(device.Capture)
	if err != nil {
		s.nullErr.Store(alerror.InvalidDevice)
		return nil, err
	}
	dc := s.cfg.DeviceConfig(name)
	d, code := device.OpenCapture(ctx, name, format, dc, bk)
	if code != alerror.NoError {
		s.nullErr.Store(code)
		return nil, alerror.FromCode(code)
	}
	s.reg.Add(d)
	return d, nil
}

// OpenLoopback opens an application-rendered loopback device.
func (s *System) OpenLoopback() *device.Device {
	bk := &loopback.Backend{}
	dc := s.cfg.DeviceConfig("loopback")
	d := device.OpenLoopback(dc, bk)
	s.reg.Add(d)
	return d
}

// CloseDevice removes d from the global device list, leaving it identical
// to before the matching open call.
func (s *System) CloseDevice(d *device.Device) {
	s.reg.Remove(d)
}

// CreateContext parses attrs and creates a Context bound to dev.
func (s *System) CreateContext(dev *device.Device, attrs Attrs) (*alctx.Context, error) {
	requested := Parse(attrs)
	c, code := alctx.Create(dev, requested, nil)
	if code != alerror.NoError {
		dev.LastError() // clear whatever UpdateDeviceParams may have left, matching Create's "clear the device's last error" step
		return nil, alerror.FromCode(code)
	}
	return c, nil
}

// GetError returns and clears the latest error for a specific device;
// errors are not queued.
func (s *System) GetError(d *device.Device) alerror.Code {
	if d == nil {
		return s.nullErr.Take()
	}
	return d.LastError()
}

// GetIntegerConnected reports a device's connection state the way
// GetIntegerv(CONNECTED) would: 1 connected, 0 otherwise.
func (s *System) GetIntegerConnected(d *device.Device) int32 {
	if d.Connected() {
		return 1
	}
	return 0
}

// GetString handles string queries: an unrecognized query key returns
// ("", InvalidEnum) and leaves the device's last error latched.
func (s *System) GetString(d *device.Device, key int32) (string, error) {
	switch key {
	case KeyFrequency:
		return fmt.Sprintf("%d", d.Format.Frequency), nil
	default:
		d.LastError() // drain any stale error first so the caller observes only this call's outcome
		s.setDeviceError(d, alerror.InvalidEnum)
		return "", alerror.ErrInvalidEnum
	}
}

func (s *System) setDeviceError(d *device.Device, c alerror.Code) {
	d.SetLastErrorForQuery(c)
}

// RenderSamples renders frames of loopback audio into buf. frames==0 is a
// no-op success; a negative frame count or a nil buffer with frames>0 is
// InvalidValue.
func RenderSamples(lb *loopback.Backend, buf []byte, frames int) error {
	if frames == 0 {
		return nil
	}
	if frames < 0 || (buf == nil && frames > 0) {
		return alerror.ErrInvalidValue
	}
	lb.Render(buf, frames)
	return nil
}
