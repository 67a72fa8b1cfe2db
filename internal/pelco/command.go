package pelco

import "fmt"

// ErrEvenOpcode is returned when an extended command names an even opcode,
// which a device would read as standard motion bits.
var ErrEvenOpcode = fmt.Errorf("%w: extended opcode must be odd", ErrValidation)

// Command is a logical camera operation in one of the two wire shapes,
// Standard or Extended.
type Command interface {
	isCommand()
}

// Standard is a command composed of independent flags plus raw pan and tilt
// speeds. The zero value is Stop.
type Standard struct {
	Sense     bool
	Scan      bool
	Camera    bool
	IrisClose bool
	IrisOpen  bool
	FocusNear bool
	FocusFar  bool
	ZoomWide  bool
	ZoomTele  bool
	Down      bool
	Up        bool
	Left      bool
	Right     bool
	PanSpeed  byte
	TiltSpeed byte
}

func (Standard) isCommand() {}

// Validate checks the exclusion groups and the speed ranges for v's model.
func (s Standard) Validate(v Validator) error {
	groups := [][]Flag{
		{{"iris close", s.IrisClose}, {"iris open", s.IrisOpen}},
		{{"focus near", s.FocusNear}, {"focus far", s.FocusFar}},
		{{"zoom wide", s.ZoomWide}, {"zoom tele", s.ZoomTele}},
		{{"tilt up", s.Up}, {"tilt down", s.Down}},
		{{"pan left", s.Left}, {"pan right", s.Right}},
	}
	for _, g := range groups {
		if err := ValidateExclusive(g...); err != nil {
			return err
		}
	}
	if err := v.Check(FieldPanSpeed, int(s.PanSpeed)); err != nil {
		return err
	}
	return v.Check(FieldTiltSpeed, int(s.TiltSpeed))
}

// Moving reports whether any pan, tilt or zoom flag is set.
func (s Standard) Moving() bool {
	return s.Left || s.Right || s.Up || s.Down || s.ZoomTele || s.ZoomWide
}

func (s Standard) bytes() (c1, c2 byte) {
	set := func(b *byte, on bool, bit byte) {
		if on {
			*b |= bit
		}
	}
	set(&c1, s.Sense, bitSense)
	set(&c1, s.Scan, bitScan)
	set(&c1, s.Camera, bitCamera)
	set(&c1, s.IrisClose, bitIrisClose)
	set(&c1, s.IrisOpen, bitIrisOpen)
	set(&c1, s.FocusNear, bitFocusNear)
	set(&c2, s.FocusFar, bitFocusFar)
	set(&c2, s.ZoomWide, bitZoomWide)
	set(&c2, s.ZoomTele, bitZoomTele)
	set(&c2, s.Down, bitDown)
	set(&c2, s.Up, bitUp)
	set(&c2, s.Left, bitLeft)
	set(&c2, s.Right, bitRight)
	return c1, c2
}

// Extended is an opcode command: Opcode in command 2, Sub in command 1 and
// Payload split big-endian over the data bytes.
type Extended struct {
	Opcode  Opcode
	Sub     byte
	Payload uint16
}

func (Extended) isCommand() {}

// Validate checks that the opcode is odd.
func (e Extended) Validate() error {
	if e.Opcode&1 == 0 {
		return fmt.Errorf("%w: 0x%02X", ErrEvenOpcode, byte(e.Opcode))
	}
	return nil
}

// Build validates c and lays it out as a frame for address.
func Build(v Validator, address byte, c Command) (Frame, error) {
	if err := v.Check(FieldAddress, int(address)); err != nil {
		return Frame{}, err
	}
	switch c := c.(type) {
	case Standard:
		if err := c.Validate(v); err != nil {
			return Frame{}, err
		}
		c1, c2 := c.bytes()
		return Frame{Address: address, Command1: c1, Command2: c2, Data1: c.PanSpeed, Data2: c.TiltSpeed}, nil
	case Extended:
		if err := c.Validate(); err != nil {
			return Frame{}, err
		}
		return Frame{
			Address:  address,
			Command1: c.Sub,
			Command2: byte(c.Opcode),
			Data1:    byte(c.Payload >> 8),
			Data2:    byte(c.Payload),
		}, nil
	default:
		return Frame{}, fmt.Errorf("%w: unsupported command %T", ErrValidation, c)
	}
}
