package ptz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"pelco-remote/internal/metrics"
	"pelco-remote/internal/pelco"
)

// Default control loop tuning.
const (
	DefaultDeadZone      = 0.17
	DefaultGuardInterval = 300 * time.Millisecond
)

// Axis identifies an analog input the translator tracks.
type Axis int

const (
	AxisPan Axis = iota
	AxisTilt
	AxisZoomIn
	AxisZoomOut
	numAxes
)

func (a Axis) String() string {
	switch a {
	case AxisPan:
		return "pan"
	case AxisTilt:
		return "tilt"
	case AxisZoomIn:
		return "zoom in"
	case AxisZoomOut:
		return "zoom out"
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// trigger reports whether a is an unsigned trigger axis.
func (a Axis) trigger() bool { return a == AxisZoomIn || a == AxisZoomOut }

// Sample is one raw axis reading. Pan is positive to the right, tilt is
// positive upwards.
type Sample struct {
	Axis  Axis
	Value float64
}

// Link is the part of a pelco.Session the translator drives.
type Link interface {
	Send(f pelco.Frame) error
	TransactGeneral(f pelco.Frame) (pelco.GeneralReply, error)
}

// State is the motion last issued to the device.
type State struct {
	Pan       int // signed pan speed index
	Tilt      int // signed tilt speed index
	Zoom      int // 1 tele, -1 wide, 0 none
	ZoomSpeed int // valid while Zoom != 0
	InMotion  bool
	LastMove  time.Time
}

func (s State) motion() State {
	m := State{Pan: s.Pan, Tilt: s.Tilt, Zoom: s.Zoom}
	if s.Zoom != 0 {
		m.ZoomSpeed = s.ZoomSpeed
	}
	return m
}

func (s State) zero() bool { return s.Pan == 0 && s.Tilt == 0 && s.Zoom == 0 }

// TranslatorConfig configures a Translator.
type TranslatorConfig struct {
	Factory *pelco.Factory
	Link    Link
	// Confirm waits for the general reply of every issued command.
	Confirm bool

	DeadZone      float64
	GuardInterval time.Duration
	StickRange    AxisRange
	TriggerRange  AxisRange

	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

// Translator turns noisy analog samples into rate-limited Pelco D motion
// commands. It keeps only the last issued motion, so repeated samples that
// quantize to the same speeds never reach the wire.
type Translator struct {
	mu      sync.Mutex
	factory *pelco.Factory
	link    Link
	confirm bool

	deadZone   float64
	guard      time.Duration
	stick      AxisRange
	trigger    AxisRange
	panLevels  int
	tiltLevels int
	zoomLevels int

	input [numAxes]float64
	state State
	// zoomSpeed is the zoom speed last sent to the device, -1 when unknown.
	zoomSpeed int

	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewTranslator validates cfg and returns an idle Translator.
func NewTranslator(cfg TranslatorConfig) (*Translator, error) {
	if cfg.Factory == nil || cfg.Link == nil {
		return nil, errors.New("ptz: translator needs a factory and a link")
	}
	if cfg.DeadZone < 0 || cfg.DeadZone >= 1 {
		return nil, fmt.Errorf("ptz: dead zone %.2f not in [0, 1)", cfg.DeadZone)
	}
	if cfg.GuardInterval <= 0 {
		cfg.GuardInterval = DefaultGuardInterval
	}
	if cfg.StickRange == (AxisRange{}) {
		cfg.StickRange = StickRange
	}
	if cfg.TriggerRange == (AxisRange{}) {
		cfg.TriggerRange = TriggerRange
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	v := cfg.Factory.Validator()
	return &Translator{
		factory:    cfg.Factory,
		link:       cfg.Link,
		confirm:    cfg.Confirm,
		deadZone:   cfg.DeadZone,
		guard:      cfg.GuardInterval,
		stick:      cfg.StickRange,
		trigger:    cfg.TriggerRange,
		panLevels:  v.Range(pelco.FieldPanSpeed).Levels(),
		tiltLevels: v.Range(pelco.FieldTiltSpeed).Levels(),
		zoomLevels: v.Range(pelco.FieldZoomSpeed).Levels(),
		zoomSpeed:  -1,
		logger:     logger.Named("translator"),
		metrics:    cfg.Metrics,
		now:        cfg.Now,
	}, nil
}

// State returns the motion last issued.
func (t *Translator) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Reset forgets all input and issued motion. Callers reset after the link
// has been re-established, since the device state is then unknown.
func (t *Translator) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reset()
}

func (t *Translator) reset() {
	t.input = [numAxes]float64{}
	t.state = State{}
	t.zoomSpeed = -1
	t.metrics.Reset()
}

// HandleSample applies one axis reading.
func (t *Translator) HandleSample(s Sample) error {
	return t.Update(s)
}

// Update applies several readings at once, so a diagonal reported as two
// samples still yields a single frame.
func (t *Translator) Update(samples ...Sample) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range samples {
		if s.Axis < 0 || s.Axis >= numAxes {
			return fmt.Errorf("ptz: unknown axis %d", int(s.Axis))
		}
		if s.Axis.trigger() {
			t.input[s.Axis] = t.trigger.unsigned(s.Value)
		} else {
			t.input[s.Axis] = t.stick.signed(s.Value)
		}
	}

	return t.evaluate(true)
}

// Refresh re-evaluates the held input without a new sample. Motion that the
// guard interval held back goes out once the interval has passed.
func (t *Translator) Refresh() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.evaluate(false)
}

// evaluate moves the device towards the held input. sampled is false for
// refreshes, which are not counted as samples.
func (t *Translator) evaluate(sampled bool) error {
	want := t.desired()
	if want == t.state.motion() {
		switch {
		case !sampled:
		case want.zero():
			t.metrics.Sample("deadzone")
		default:
			t.metrics.Sample("suppressed")
		}
		return nil
	}

	now := t.now()
	if want.zero() {
		return t.stop(now)
	}
	if !t.state.LastMove.IsZero() && now.Sub(t.state.LastMove) < t.guard {
		if sampled {
			t.metrics.Sample("dropped")
		}
		return nil
	}
	return t.move(want, now)
}

// Stop halts all motion immediately, ignoring the guard interval.
func (t *Translator) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.input = [numAxes]float64{}
	return t.stop(t.now())
}

// refreshEvery is how often held input is re-evaluated.
func (t *Translator) refreshEvery() time.Duration {
	return max(t.guard/4, time.Millisecond)
}

func (t *Translator) refresh() {
	if err := t.Refresh(); err != nil {
		t.logger.Warn("refresh failed", zap.Error(err))
	}
}

// Hold re-evaluates the held input until ctx is done, so a stick kept still
// after a dropped sample still reaches the device.
func (t *Translator) Hold(ctx context.Context) error {
	tick := time.NewTicker(t.refreshEvery())
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			t.refresh()
		}
	}
}

// Run feeds samples until the channel closes or ctx is done, re-evaluating
// held input in between. Link errors reset the translator and are logged;
// the loop keeps going.
func (t *Translator) Run(ctx context.Context, samples <-chan Sample) error {
	tick := time.NewTicker(t.refreshEvery())
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			t.refresh()
		case s, ok := <-samples:
			if !ok {
				return nil
			}
			if err := t.HandleSample(s); err != nil {
				t.logger.Warn("sample failed", zap.Stringer("axis", s.Axis), zap.Float64("value", s.Value), zap.Error(err))
			}
		}
	}
}

func (t *Translator) desired() State {
	var s State
	s.Pan = Quantize(t.input[AxisPan], t.deadZone, t.panLevels)
	s.Tilt = Quantize(t.input[AxisTilt], t.deadZone, t.tiltLevels)

	in, out := t.input[AxisZoomIn], t.input[AxisZoomOut]
	switch {
	case in > out:
		s.Zoom = 1
		s.ZoomSpeed, _ = QuantizeTrigger(in, t.zoomLevels)
	case out > in:
		s.Zoom = -1
		s.ZoomSpeed, _ = QuantizeTrigger(out, t.zoomLevels)
	}
	return s
}

func (t *Translator) stop(now time.Time) error {
	f, err := t.factory.Stop()
	if err != nil {
		return err
	}
	if err := t.issue(f); err != nil {
		return err
	}
	t.state = State{LastMove: now}
	t.metrics.Sample("issued")
	t.logger.Debug("stop")
	return nil
}

// move issues want. A zoom speed the device does not have yet is sent on its
// own first; the motion frame follows a guard interval later.
func (t *Translator) move(want State, now time.Time) error {
	if want.Zoom != 0 && want.ZoomSpeed != t.zoomSpeed {
		f, err := t.factory.SetZoomSpeed(want.ZoomSpeed)
		if err != nil {
			return err
		}
		if err := t.issue(f); err != nil {
			return err
		}
		t.zoomSpeed = want.ZoomSpeed
		t.state.LastMove = now
		if t.state.Pan == want.Pan && t.state.Tilt == want.Tilt && t.state.Zoom == want.Zoom {
			// Already zooming that way; the device picks up the new speed.
			t.state.ZoomSpeed = want.ZoomSpeed
		}
		t.logger.Debug("zoom speed", zap.Int("speed", want.ZoomSpeed))
		return nil
	}

	cmd := pelco.Standard{
		Right:     want.Pan > 0,
		Left:      want.Pan < 0,
		Up:        want.Tilt > 0,
		Down:      want.Tilt < 0,
		ZoomTele:  want.Zoom > 0,
		ZoomWide:  want.Zoom < 0,
		PanSpeed:  byte(absInt(want.Pan)),
		TiltSpeed: byte(absInt(want.Tilt)),
	}
	f, err := t.factory.Build(cmd)
	if err != nil {
		return err
	}
	if err := t.issue(f); err != nil {
		return err
	}

	want.InMotion = true
	want.LastMove = now
	t.state = want
	t.metrics.Sample("issued")
	t.logger.Debug("move",
		zap.Int("pan", want.Pan),
		zap.Int("tilt", want.Tilt),
		zap.Int("zoom", want.Zoom),
		zap.Int("zoom_speed", want.ZoomSpeed))
	return nil
}

// issue writes f; any link failure leaves the device state unknown, so the
// translator falls back to idle.
func (t *Translator) issue(f pelco.Frame) error {
	var err error
	if t.confirm {
		_, err = t.link.TransactGeneral(f)
	} else {
		err = t.link.Send(f)
	}
	if err != nil {
		t.reset()
		return fmt.Errorf("issue %s: %w", f, err)
	}
	return nil
}
