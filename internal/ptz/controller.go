package ptz

import (
	"context"
	"errors"
	"io"

	"pelco-remote/internal/pelco"
)

// Controller defines the interface for PTZ camera control
type Controller interface {
	// PanTilt sends a pan/tilt command
	// pan: -1.0 (left) to 1.0 (right)
	// tilt: -1.0 (down) to 1.0 (up)
	PanTilt(pan, tilt float64) error

	// Zoom sends a zoom command
	// zoom: -1.0 (wide/out) to 1.0 (tele/in)
	Zoom(zoom float64) error

	// Stop stops all PTZ movement immediately
	Stop() error

	// RecallPreset recalls a preset position (1-255)
	RecallPreset(preset int) error

	// SavePreset saves current position to a preset (1-255)
	SavePreset(preset int) error

	// Close closes the controller connection
	Close() error
}

// Position is the pan/tilt/zoom readback of a camera.
type Position struct {
	Pan           float64 // degrees
	Tilt          float64 // degrees
	Zoom          uint16
	Magnification float64
}

// PelcoController drives a Pelco D camera. Continuous motion goes through the
// translator; discrete operations go straight to the camera.
type PelcoController struct {
	translator *Translator
	camera     *pelco.Camera
	closer     io.Closer
	gamepad    Gamepad
}

// NewPelcoController wires t and cam together. closer, when non-nil, is the
// serial port released by Close.
func NewPelcoController(t *Translator, cam *pelco.Camera, closer io.Closer, pad Gamepad) *PelcoController {
	return &PelcoController{translator: t, camera: cam, closer: closer, gamepad: pad}
}

func (c *PelcoController) PanTilt(pan, tilt float64) error {
	r := c.translator.stick
	return c.translator.Update(
		Sample{Axis: AxisPan, Value: r.rawSigned(pan)},
		Sample{Axis: AxisTilt, Value: r.rawSigned(tilt)},
	)
}

func (c *PelcoController) Zoom(zoom float64) error {
	r := c.translator.trigger
	in, out := 0.0, 0.0
	if zoom > 0 {
		in = zoom
	} else {
		out = -zoom
	}
	return c.translator.Update(
		Sample{Axis: AxisZoomIn, Value: r.rawUnsigned(in)},
		Sample{Axis: AxisZoomOut, Value: r.rawUnsigned(out)},
	)
}

// Command moves on all three axes in one update, so pan, tilt and zoom
// reach the device together.
func (c *PelcoController) Command(pan, tilt, zoom float64) error {
	stick, trigger := c.translator.stick, c.translator.trigger
	in, out := 0.0, 0.0
	if zoom > 0 {
		in = zoom
	} else {
		out = -zoom
	}
	return c.translator.Update(
		Sample{Axis: AxisPan, Value: stick.rawSigned(pan)},
		Sample{Axis: AxisTilt, Value: stick.rawSigned(tilt)},
		Sample{Axis: AxisZoomIn, Value: trigger.rawUnsigned(in)},
		Sample{Axis: AxisZoomOut, Value: trigger.rawUnsigned(out)},
	)
}

func (c *PelcoController) Stop() error {
	return c.translator.Stop()
}

func (c *PelcoController) RecallPreset(preset int) error {
	return c.discrete(c.camera.GoToPreset(preset))
}

func (c *PelcoController) SavePreset(preset int) error {
	return c.discrete(c.camera.SetPreset(preset))
}

func (c *PelcoController) ClearPreset(preset int) error {
	return c.discrete(c.camera.ClearPreset(preset))
}

// SetAux switches auxiliary relay id on or off.
func (c *PelcoController) SetAux(id int, on bool) error {
	if on {
		return c.discrete(c.camera.SetAux(id))
	}
	return c.discrete(c.camera.ClearAux(id))
}

// Position queries the current pan, tilt and zoom readback.
func (c *PelcoController) Position() (Position, error) {
	var p Position
	var err error
	if p.Pan, err = c.camera.QueryPanPosition(); err != nil {
		return p, c.discrete(err)
	}
	if p.Tilt, err = c.camera.QueryTiltPosition(); err != nil {
		return p, c.discrete(err)
	}
	if p.Zoom, err = c.camera.QueryZoomPosition(); err != nil {
		return p, c.discrete(err)
	}
	if p.Magnification, err = c.camera.QueryMagnification(); err != nil {
		return p, c.discrete(err)
	}
	return p, nil
}

// Axis applies a raw reading from a named gamepad axis.
func (c *PelcoController) Axis(name string, value float64) error {
	s, ok := c.gamepad.sample(name, value, c.translator)
	if !ok {
		return nil
	}
	return c.translator.HandleSample(s)
}

// Axes applies a snapshot of named gamepad axes as a single update.
// Unmapped names are ignored.
func (c *PelcoController) Axes(values map[string]float64) error {
	samples := make([]Sample, 0, len(values))
	for name, v := range values {
		if s, ok := c.gamepad.sample(name, v, c.translator); ok {
			samples = append(samples, s)
		}
	}
	if len(samples) == 0 {
		return nil
	}
	return c.translator.Update(samples...)
}

// Run keeps held input flowing to the camera until ctx is done.
func (c *PelcoController) Run(ctx context.Context) error {
	return c.translator.Hold(ctx)
}

// Button handles a named gamepad button press.
func (c *PelcoController) Button(name string, pressed bool) error {
	if !pressed {
		return nil
	}
	if name == ButtonMenu {
		return c.SavePreset(c.gamepad.MenuPreset)
	}
	if preset, ok := c.gamepad.DPad[name]; ok {
		return c.RecallPreset(preset)
	}
	return nil
}

func (c *PelcoController) Close() error {
	err := c.translator.Stop()
	if c.closer != nil {
		err = errors.Join(err, c.closer.Close())
	}
	return err
}

// discrete resets the translator when a camera operation failed on the
// link, since the motion state is then unknown.
func (c *PelcoController) discrete(err error) error {
	if errors.Is(err, pelco.ErrTransport) || errors.Is(err, pelco.ErrFrame) ||
		errors.Is(err, pelco.ErrChecksumMismatch) || errors.Is(err, pelco.ErrProtocol) {
		c.translator.Reset()
	}
	return err
}
