package device

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/shaban/oalcore/alerror"
	"github.com/shaban/oalcore/backend"
	"github.com/shaban/oalcore/device/hrtf"
	"github.com/shaban/oalcore/internal/cpufeat"
	"github.com/shaban/oalcore/internal/pool"
	"github.com/shaban/oalcore/props"
)

// MaxSends is the hard ceiling on a source's auxiliary send count.
const MaxSends = 16

// MinPeriods / MaxPeriods / MinPeriodSize / MaxPeriodSize are the clamp
// bounds UpdateDeviceParams step 4 applies.
const (
	MinPeriods    = 2
	MaxPeriods    = 16
	MinPeriodSize = 64
	MaxPeriodSize = 8192
)

// AttachedContext is the subset of a context's behavior the Device Manager
// must drive during UpdateDeviceParams step 10. Modeled as an interface
// (rather than importing the context package directly) because a context
// holds a reference to its device and the device must, in turn, reach
// every attached context — broken here with an interface instead of a
// weak/raw pointer.
type AttachedContext interface {
	DeviceUpdate(d *Device) (ok bool)
	ResizeSourceSends(newSends int)
	AllocateVoices(newMax, newSends int)
	ReinitVoiceNFC(avgSpeakerDistance float32)
	MarkAllDirty()
}

// Buffer, Effect, Filter are plain parameter containers stored in sub-pool
// slabs.
type Buffer struct {
	Handle   pool.Handle
	RefCount int32
	Data     []byte
	Format   Format
}

type Effect struct {
	Handle pool.Handle
	Type   int32
	Params [32]float32
}

type Filter struct {
	Handle pool.Handle
	Type   int32
	Gain   float32
	GainHF float32
}

// MixChannels is one sub-view of the mix buffer: a channel count and the
// offset of its first channel within Device.MixBuffer. A zero-channel view
// aliases Dry at Dry's offset rather than owning any space of its own.
type MixChannels struct {
	Channels int
	Offset   int
}

// Device represents one open audio endpoint.
type Device struct {
	mu sync.Mutex // guards the fields below except where noted as atomic

	ID   uuid.UUID
	kind Kind
	Name string

	Format       Format
	AmbiLayout   ChannelLayout
	AmbiScaling  AmbiScaling
	RequestFlags RequestFlags

	connected atomic.Bool // Connected: monotone false-latching until reset

	lastError alerror.Latch

	hrtfList     *hrtf.List
	hrtfSelected hrtf.Profile
	hrtfEnabled  bool

	RoutingTable []int // per-channel output routing

	Dry       MixChannels
	FOAOut    MixChannels
	RealOut   MixChannels
	MixBuffer []float32

	refCount atomic.Int32

	clock       clockState
	mixGen      props.Generation
	backendImpl backend.Backend
	running     atomic.Bool

	contexts []AttachedContext

	Buffers *pool.Pool[Buffer]
	Effects *pool.Pool[Effect]
	Filters *pool.Pool[Filter]

	cfg Config
}

// clockState tracks the monotone sample counter and the ClockBase
// UpdateDeviceParams step 3 rewrites.
type clockState struct {
	mu          sync.Mutex
	clockBase   int64
	samplesDone int64
}

// Config is the subset of global/per-device configuration the Device
// Manager consults when opening or reconfiguring a device. The config
// package loads and supplies this; device does not import config to avoid
// a cycle (config depends on device's types for defaults).
type Config struct {
	DefaultFormat      Format
	Periods            int
	PeriodSize         int
	MonoSources        int
	StereoSources      int
	MaxAuxSends        int
	OutputLimiterWanted bool
	TrapOnError        bool
	Drivers            string

	CPUExtensionExclusions []string
}

// DefaultConfig mirrors DefaultFormat plus the device-open defaulting rules.
func DefaultConfig() Config {
	return Config{
		DefaultFormat: DefaultFormat(),
		Periods:       3,
		PeriodSize:    512,
		MonoSources:   256,
		StereoSources: 64,
		MaxAuxSends:   2,
	}
}

// New allocates a Device in the given kind, seeding config defaults.
func New(kind Kind, name string, cfg Config) *Device {
	d := &Device{
		ID:       uuid.New(),
		kind:     kind,
		Name:     name,
		Format:   cfg.DefaultFormat,
		hrtfList: hrtf.NewList(),
		cfg:     cfg,
	}
	d.refCount.Store(1) // held by the device list from construction
	return d
}

// KindOf returns the device's kind.
func (d *Device) KindOf() Kind { return d.kind }

// Backend returns the device's underlying Backend, so a caller (the al
// façade's loopback render path, or a VU-meter/diagnostics tool) can reach
// backend-specific methods like loopback.Backend.Render.
func (d *Device) Backend() backend.Backend {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.backendImpl
}

// Connected reports the device's sticky connection state: once false, it
// never becomes true again without a fresh Open.
func (d *Device) Connected() bool { return d.connected.Load() }

// Hold increments the device's reference count (the registry head, an
// enumerator snapshot, and each attached context each contribute one).
func (d *Device) Hold() { d.refCount.Add(1) }

// Release decrements the reference count, returning true if it reached
// zero (the caller must then finalize the device).
func (d *Device) Release() bool { return d.refCount.Add(-1) == 0 }

// LastError returns and clears the device's last-error latch: errors are
// returned at most once and are never queued.
func (d *Device) LastError() alerror.Code { return d.lastError.Take() }

func (d *Device) setError(c alerror.Code) {
	d.lastError.Store(c)
}

// SetLastErrorForQuery lets a caller outside this package (the al façade's
// read-only query surface, e.g. GetString on an unrecognized key) latch an
// error against this device without going through UpdateDeviceParams.
func (d *Device) SetLastErrorForQuery(c alerror.Code) {
	d.setError(c)
}

// OpenPlayback allocates a Device in Playback kind, seeds defaults, applies
// per-device overrides (via cfg, the caller having already merged them),
// and opens the given backend.
func OpenPlayback(ctx context.Context, name string, cfg Config, bk backend.Backend) (*Device, alerror.Code) {
	d := New(Playback, name, cfg)
	d.Buffers = pool.New[Buffer]()
	d.Effects = pool.New[Effect]()
	d.Filters = pool.New[Filter]()
	d.backendImpl = bk

	if err := bk.Open(ctx, name); err != nil {
		return nil, alerror.InvalidDevice
	}
	d.connected.Store(true)
	return d, alerror.NoError
}

// OpenCapture allocates a Device in Capture kind: format, frequency, and
// buffer depth come from the caller; format must decompose via the fixed
// canonical-format table, else InvalidEnum.
func OpenCapture(ctx context.Context, name string, format Format, cfg Config, bk backend.Backend) (*Device, alerror.Code) {
	if !DecomposeCapture(format.Layout, format.Type) {
		return nil, alerror.InvalidEnum
	}
	d := New(Capture, name, cfg)
	d.Format = format
	d.Buffers = pool.New[Buffer]()
	d.Effects = pool.New[Effect]()
	d.Filters = pool.New[Filter]()
	d.backendImpl = bk

	if err := bk.Open(ctx, name); err != nil {
		return nil, alerror.InvalidDevice
	}
	d.connected.Store(true)
	return d, alerror.NoError
}

// OpenLoopback allocates a Device in Loopback kind. There is no backend open
// negotiation; the application later supplies attributes through
// UpdateDeviceParams/reset.
func OpenLoopback(cfg Config, bk backend.Backend) *Device {
	d := New(Loopback, "Loopback", cfg)
	d.Buffers = pool.New[Buffer]()
	d.Effects = pool.New[Effect]()
	d.Filters = pool.New[Filter]()
	d.backendImpl = bk
	d.connected.Store(true)
	return d
}

// AttachContext registers ctx on this device's context list, the list a
// newly created Context pushes itself onto.
func (d *Device) AttachContext(c AttachedContext) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contexts = append(d.contexts, c)
}

// DetachContext removes ctx from this device's context list, the inverse of
// AttachContext performed when a Context is destroyed.
func (d *Device) DetachContext(c AttachedContext) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, existing := range d.contexts {
		if existing == c {
			d.contexts = append(d.contexts[:i], d.contexts[i+1:]...)
			return
		}
	}
}

// Disconnect atomically sets Connected=false and posts a disconnect event
// to every attached context's
// event ring. The event-posting callback is supplied by the caller (the
// events package) to avoid an import cycle.
func (d *Device) Disconnect(postEvent func(AttachedContext)) {
	d.connected.Store(false)
	d.mu.Lock()
	contexts := append([]AttachedContext(nil), d.contexts...)
	d.mu.Unlock()
	if postEvent == nil {
		return
	}
	for _, c := range contexts {
		postEvent(c)
	}
}

// UpdateDeviceParams is the central reconfiguration routine: it merges the
// requested attribute overrides onto the current format, stops and resets
// the backend against the merged request, and drives every attached context
// through its device-update sequence, in the eleven steps below.
func (d *Device) UpdateDeviceParams(attrs RequestedAttrs) alerror.Code {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Step 1: loopback with an empty attribute list is InvalidValue. An
	// "empty" RequestedAttrs is detected by every field being nil.
	if d.kind == Loopback && isEmptyAttrs(attrs) {
		d.setError(alerror.InvalidValue)
		return alerror.InvalidValue
	}

	requested := d.Format
	var flags RequestFlags
	flags.Apply(attrs)

	if attrs.Frequency != nil {
		requested.Frequency = *attrs.Frequency
	}
	if attrs.FormatChannels != nil {
		requested.Layout = *attrs.FormatChannels
	}
	if attrs.FormatType != nil {
		requested.Type = *attrs.FormatType
	}
	if attrs.AmbiLayout != nil {
		requested.Layout = Ambisonic3D
	}
	if attrs.AmbiScaling != nil {
		requested.AmbiScaling = *attrs.AmbiScaling
	}
	if attrs.AmbiOrder != nil {
		requested.AmbiOrder = *attrs.AmbiOrder
	}

	// Step 2: loopback validation. Format channels, sample type, and
	// frequency must all be present in the caller's attribute list, not
	// merely present (possibly stale) on the merged format.
	if d.kind == Loopback {
		if attrs.FormatChannels == nil || attrs.FormatType == nil || attrs.Frequency == nil {
			d.setError(alerror.InvalidValue)
			return alerror.InvalidValue
		}
		if err := requested.Validate(); err != nil {
			d.setError(alerror.InvalidValue)
			return alerror.InvalidValue
		}
		if requested.Frequency < MinOutputRate {
			d.setError(alerror.InvalidValue)
			return alerror.InvalidValue
		}
	}

	// Step 3: stop the backend if running; clear running flag; advance the
	// mix-count generation twice around a ClockBase update so a reader
	// never observes an inconsistent pair.
	if d.backendImpl != nil && d.running.Load() {
		d.backendImpl.Stop()
	}
	d.running.Store(false)
	d.mixGen.EnterMix()
	d.clock.mu.Lock()
	freq := int64(requested.Frequency)
	if freq <= 0 {
		freq = 1
	}
	d.clock.clockBase += d.clock.samplesDone / freq
	d.clock.samplesDone = 0
	d.clock.mu.Unlock()
	d.mixGen.ExitMix()

	// Step 4: for non-loopback, merge periods/period-size overrides, clamp
	// period count to [2,16], period size to [64,8192], round up to a
	// multiple of 4 when SIMD-wide.
	periods := d.cfg.Periods
	periodSize := requested.UpdateSize
	if periodSize == 0 {
		periodSize = d.cfg.PeriodSize
	}
	if d.kind != Loopback {
		periods = clampInt(periods, MinPeriods, MaxPeriods)
		periodSize = clampInt(periodSize, MinPeriodSize, MaxPeriodSize)
		periodSize = cpufeat.RoundPeriodSize(periodSize, d.cfg.CPUExtensionExclusions)
	}
	requested.NumUpdates = periods
	requested.UpdateSize = periodSize

	// Step 5: clamp mono/stereo source counts; resolve SourcesMax; resolve
	// send count.
	monoSources := d.cfg.MonoSources
	if attrs.MonoSources != nil {
		monoSources = clampInt(*attrs.MonoSources, 0, 1<<20)
	}
	stereoSources := d.cfg.StereoSources
	if attrs.StereoSources != nil {
		stereoSources = clampInt(*attrs.StereoSources, 0, 1<<20)
	}
	_ = monoSources + stereoSources // SourcesMax consumed by the object pool sizing, out of this routine's direct scope

	sends := d.cfg.MaxAuxSends
	if attrs.MaxAuxSends != nil {
		sends = clampInt(*attrs.MaxAuxSends, 0, MaxSends)
	}

	// Step 6: HRTF selection.
	if attrs.HRTF != nil && *attrs.HRTF == TriEnabled {
		id := -1
		if attrs.HRTFID != nil {
			id = *attrs.HRTFID
		}
		profile, ok := d.hrtfList.Select(id)
		if ok {
			requested.Layout = Stereo
			requested.Frequency = profile.SampleRate
			flags.ChannelLayout = true
			flags.Frequency = true
			d.hrtfSelected = profile
			d.hrtfEnabled = true // device's field, not a local shadow
		} else {
			d.setError(alerror.InvalidValue)
			d.hrtfEnabled = false
		}
	} else if attrs.HRTF != nil && *attrs.HRTF == TriDisabled {
		d.hrtfEnabled = false
	}

	// Step 7: call backend reset(); failure -> InvalidDevice. Compare each
	// requested field and clear unsatisfied request flags.
	if d.backendImpl == nil {
		d.setError(alerror.InvalidDevice)
		return alerror.InvalidDevice
	}
	actual, ok := d.backendImpl.Reset(requested)
	if !ok {
		d.setError(alerror.InvalidDevice)
		return alerror.InvalidDevice
	}
	flags.ClearUnsatisfied(requested, actual)
	d.Format = actual
	d.RequestFlags = flags

	// Step 8: reallocate the mix buffer sized Dry.channels + FOAOut.channels
	// + RealOut.channels. RealOut and FOAOut alias Dry (stay at zero
	// channels) for non-ambisonic formats. For an ambisonic format RealOut
	// carries the stereo speaker feed the ambisonic mix decodes down to, and
	// FOAOut carries a first-order decode stage only when the order is
	// above 1 (a first-order Dry needs no separate stage).
	d.Format.NumUpdates = requested.NumUpdates

	d.Dry = MixChannels{Channels: d.Format.Channels(), Offset: 0}
	d.FOAOut = MixChannels{Offset: d.Dry.Offset + d.Dry.Channels}
	d.RealOut = MixChannels{Offset: d.FOAOut.Offset}
	if d.Format.Layout == Ambisonic3D {
		if d.Format.AmbiOrder > 1 {
			d.FOAOut.Channels = 4 // W, X, Y, Z
			d.RealOut.Offset = d.FOAOut.Offset + d.FOAOut.Channels
		}
		d.RealOut.Channels = Stereo.baseChannelCount()
	}
	if d.FOAOut.Channels == 0 {
		d.FOAOut.Offset = d.Dry.Offset
	}
	if d.RealOut.Channels == 0 {
		d.RealOut.Offset = d.Dry.Offset
	}
	d.MixBuffer = make([]float32, d.Dry.Channels+d.FOAOut.Channels+d.RealOut.Channels)

	// Step 9: output limiter, tracked only as a flag; the DSP itself lives
	// outside this core.
	limiterWanted := d.cfg.OutputLimiterWanted
	if attrs.OutputLimiter != nil {
		limiterWanted = *attrs.OutputLimiter == TriEnabled
	}
	_ = limiterWanted

	// Step 10: drive every attached context through its device-update
	// sequence.
	updateFailed := false
	d.clock.mu.Lock()
	avgDistance := float32(1.0) // placeholder average-speaker-distance derived from channel layout; DSP-accurate value is out of scope
	d.clock.mu.Unlock()
	for _, c := range d.contexts {
		if ok := c.DeviceUpdate(d); !ok {
			updateFailed = true
		}
		c.ResizeSourceSends(sends)
		c.AllocateVoices(256, sends)
		c.ReinitVoiceNFC(avgDistance)
		c.MarkAllDirty()
	}

	if updateFailed {
		d.setError(alerror.InvalidDevice)
		return alerror.InvalidDevice
	}

	// Step 11: start the backend if not paused.
	if d.backendImpl.Start() {
		d.running.Store(true)
	}
	return alerror.NoError
}

func isEmptyAttrs(a RequestedAttrs) bool {
	return a.Frequency == nil && a.MonoSources == nil && a.StereoSources == nil &&
		a.MaxAuxSends == nil && a.HRTF == nil && a.HRTFID == nil &&
		a.OutputLimiter == nil && a.FormatChannels == nil && a.FormatType == nil &&
		a.AmbiLayout == nil && a.AmbiScaling == nil && a.AmbiOrder == nil
}
