package ptz

// Gamepad axis names, following the standard Gamepad API mapping.
const (
	AxisLeftX        = "left_x"
	AxisLeftY        = "left_y"
	AxisRightX       = "right_x"
	AxisRightY       = "right_y"
	AxisLeftTrigger  = "left_trigger"
	AxisRightTrigger = "right_trigger"
)

// Gamepad button names.
const (
	ButtonMenu      = "menu"
	ButtonDPadUp    = "dpad_up"
	ButtonDPadDown  = "dpad_down"
	ButtonDPadLeft  = "dpad_left"
	ButtonDPadRight = "dpad_right"
)

// Gamepad maps named gamepad inputs onto camera operations. The left stick
// pans and tilts, the right trigger zooms in and the left trigger zooms out.
type Gamepad struct {
	// MenuPreset is saved when the menu button is pressed.
	MenuPreset int
	// DPad maps D-pad buttons to presets to recall.
	DPad map[string]int
	// InvertTilt makes pushing the stick forward tilt down. Gamepads report
	// forward as negative Y, so the default tilts up.
	InvertTilt bool
}

// DefaultGamepad saves preset 1 from the menu button and recalls presets 1-4
// from the D-pad.
func DefaultGamepad() Gamepad {
	return Gamepad{
		MenuPreset: 1,
		DPad: map[string]int{
			ButtonDPadUp:    1,
			ButtonDPadRight: 2,
			ButtonDPadDown:  3,
			ButtonDPadLeft:  4,
		},
	}
}

// sample translates a named axis reading. Unmapped axes report false.
func (g Gamepad) sample(name string, value float64, t *Translator) (Sample, bool) {
	switch name {
	case AxisLeftX:
		return Sample{Axis: AxisPan, Value: value}, true
	case AxisLeftY:
		if !g.InvertTilt {
			value = t.stick.invert(value)
		}
		return Sample{Axis: AxisTilt, Value: value}, true
	case AxisRightTrigger:
		return Sample{Axis: AxisZoomIn, Value: value}, true
	case AxisLeftTrigger:
		return Sample{Axis: AxisZoomOut, Value: value}, true
	}
	return Sample{}, false
}
