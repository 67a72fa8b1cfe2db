package pelco

import (
	"fmt"
	"strings"
)

// Field names a validated command parameter.
type Field int

const (
	FieldAddress Field = iota
	FieldPanSpeed
	FieldTiltSpeed
	FieldPresetID
	FieldAuxID
	FieldZoneID
	FieldPatternID
	FieldZoomSpeed
	FieldFocusSpeed
	FieldScreenColumn
	FieldByte
	FieldToggle
	FieldAdjustMode
	FieldPanPosition
	FieldTiltPosition
	FieldZoomPosition
	FieldShutterSpeed
	FieldLineLockPhase
	FieldWhiteBalance
	FieldGain
	FieldIrisLevel
	FieldIrisPeak
	numFields
)

var fieldNames = [numFields]string{
	FieldAddress:       "address",
	FieldPanSpeed:      "pan speed",
	FieldTiltSpeed:     "tilt speed",
	FieldPresetID:      "preset id",
	FieldAuxID:         "auxiliary id",
	FieldZoneID:        "zone id",
	FieldPatternID:     "pattern id",
	FieldZoomSpeed:     "zoom speed",
	FieldFocusSpeed:    "focus speed",
	FieldScreenColumn:  "screen column",
	FieldByte:          "byte",
	FieldToggle:        "mode",
	FieldAdjustMode:    "adjust mode",
	FieldPanPosition:   "pan position",
	FieldTiltPosition:  "tilt position",
	FieldZoomPosition:  "zoom position",
	FieldShutterSpeed:  "shutter speed",
	FieldLineLockPhase: "line lock phase delay",
	FieldWhiteBalance:  "white balance",
	FieldGain:          "gain",
	FieldIrisLevel:     "auto iris level",
	FieldIrisPeak:      "auto iris peak value",
}

func (f Field) String() string {
	if f < 0 || f >= numFields {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldNames[f]
}

// Range is an inclusive legal interval.
type Range struct {
	Min int
	Max int
}

// Contains reports whether v lies in r.
func (r Range) Contains(v int) bool { return v >= r.Min && v <= r.Max }

// Levels is the number of discrete values in r.
func (r Range) Levels() int { return r.Max - r.Min + 1 }

// ranges is the process-wide table for the standard device model.
var ranges = [numFields]Range{
	FieldAddress:       {1, 255},
	FieldPanSpeed:      {0, 0x3F},
	FieldTiltSpeed:     {0, 0x3F},
	FieldPresetID:      {1, 255},
	FieldAuxID:         {1, 8},
	FieldZoneID:        {1, 255},
	FieldPatternID:     {0, 8},
	FieldZoomSpeed:     {0, 3},
	FieldFocusSpeed:    {0, 3},
	FieldScreenColumn:  {0, 39},
	FieldByte:          {0, 255},
	FieldToggle:        {0, 1},
	FieldAdjustMode:    {0, 1},
	FieldPanPosition:   {0, 0xFFFF},
	FieldTiltPosition:  {0, 0xFFFF},
	FieldZoomPosition:  {0, 0xFFFF},
	FieldShutterSpeed:  {0, 0xFFFF},
	FieldLineLockPhase: {0, 0xFFFF},
	FieldWhiteBalance:  {0, 0xFFFF},
	FieldGain:          {0, 0xFFFF},
	FieldIrisLevel:     {0, 0xFFFF},
	FieldIrisPeak:      {0, 0xFFFF},
}

// Model selects the device variant. Variants differ only in the pan speed
// ceiling: turbo devices accept 0x40 as a pan speed.
type Model int

const (
	ModelStandard Model = iota
	ModelTurbo
)

// ParseModel maps a configuration string to a Model.
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(s) {
	case "", "standard":
		return ModelStandard, nil
	case "turbo":
		return ModelTurbo, nil
	}
	return 0, fmt.Errorf("unknown device model %q", s)
}

func (m Model) String() string {
	if m == ModelTurbo {
		return "turbo"
	}
	return "standard"
}

// Validator checks parameters against the range table of one device model.
// The zero value validates for ModelStandard.
type Validator struct {
	model Model
}

// NewValidator returns a Validator for m.
func NewValidator(m Model) Validator {
	return Validator{model: m}
}

// Model returns the device model v validates for.
func (v Validator) Model() Model { return v.model }

// Range returns the legal interval of f.
func (v Validator) Range(f Field) Range {
	if f < 0 || f >= numFields {
		return Range{}
	}
	if f == FieldPanSpeed && v.model == ModelTurbo {
		return Range{0, int(SpeedTurbo)}
	}
	return ranges[f]
}

// Check fails with a *RangeError when value is outside the range of f.
func (v Validator) Check(f Field, value int) error {
	r := v.Range(f)
	if !r.Contains(value) {
		return &RangeError{Field: f, Value: value, Min: r.Min, Max: r.Max}
	}
	return nil
}

// ValidateRange checks value against the standard model's range for f.
func ValidateRange(value int, f Field) error {
	return Validator{}.Check(f, value)
}

// Flag is one member of a mutual exclusion group.
type Flag struct {
	Name string
	Set  bool
}

// ValidateExclusive fails with a *ConflictError when more than one flag of the
// group is set.
func ValidateExclusive(flags ...Flag) error {
	var set []string
	for _, f := range flags {
		if f.Set {
			set = append(set, f.Name)
		}
	}
	if len(set) > 1 {
		return &ConflictError{Flags: set}
	}
	return nil
}
