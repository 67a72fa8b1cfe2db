package pelco

import "fmt"

// Factory builds validated command frames for one device address. Every
// method checks its parameters before a frame exists, so an invalid request
// never reaches the wire.
type Factory struct {
	address byte
	v       Validator
}

// NewFactory returns a Factory for the device at address.
func NewFactory(address int, model Model) (*Factory, error) {
	v := NewValidator(model)
	if err := v.Check(FieldAddress, address); err != nil {
		return nil, err
	}
	return &Factory{address: byte(address), v: v}, nil
}

// Address returns the device address frames are built for.
func (f *Factory) Address() byte { return f.address }

// Validator returns the range table in use.
func (f *Factory) Validator() Validator { return f.v }

// Build validates and encodes an arbitrary command for this device.
func (f *Factory) Build(c Command) (Frame, error) {
	return Build(f.v, f.address, c)
}

func (f *Factory) standard(s Standard) (Frame, error) {
	return Build(f.v, f.address, s)
}

func (f *Factory) extended(op Opcode, sub byte, payload uint16) (Frame, error) {
	return Build(f.v, f.address, Extended{Opcode: op, Sub: sub, Payload: payload})
}

func (f *Factory) check(field Field, value int) error {
	return f.v.Check(field, value)
}

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Stop halts all motion.
func (f *Factory) Stop() (Frame, error) { return f.standard(Standard{}) }

func (f *Factory) CameraOn() (Frame, error)   { return f.standard(Standard{Camera: true, Sense: true}) }
func (f *Factory) CameraOff() (Frame, error)  { return f.standard(Standard{Camera: true}) }
func (f *Factory) ScanAuto() (Frame, error)   { return f.standard(Standard{Scan: true, Sense: true}) }
func (f *Factory) ScanManual() (Frame, error) { return f.standard(Standard{Scan: true}) }
func (f *Factory) IrisOpen() (Frame, error)   { return f.standard(Standard{IrisOpen: true}) }
func (f *Factory) IrisClose() (Frame, error)  { return f.standard(Standard{IrisClose: true}) }
func (f *Factory) ZoomTele() (Frame, error)   { return f.standard(Standard{ZoomTele: true}) }
func (f *Factory) ZoomWide() (Frame, error)   { return f.standard(Standard{ZoomWide: true}) }
func (f *Factory) FocusNear() (Frame, error)  { return f.standard(Standard{FocusNear: true}) }
func (f *Factory) FocusFar() (Frame, error)   { return f.standard(Standard{FocusFar: true}) }

func (f *Factory) PanLeft(speed int) (Frame, error) {
	if err := f.check(FieldPanSpeed, speed); err != nil {
		return Frame{}, err
	}
	return f.standard(Standard{Left: true, PanSpeed: byte(speed)})
}

func (f *Factory) PanRight(speed int) (Frame, error) {
	if err := f.check(FieldPanSpeed, speed); err != nil {
		return Frame{}, err
	}
	return f.standard(Standard{Right: true, PanSpeed: byte(speed)})
}

func (f *Factory) TiltUp(speed int) (Frame, error) {
	if err := f.check(FieldTiltSpeed, speed); err != nil {
		return Frame{}, err
	}
	return f.standard(Standard{Up: true, TiltSpeed: byte(speed)})
}

func (f *Factory) TiltDown(speed int) (Frame, error) {
	if err := f.check(FieldTiltSpeed, speed); err != nil {
		return Frame{}, err
	}
	return f.standard(Standard{Down: true, TiltSpeed: byte(speed)})
}

// Pan moves right for positive speeds, left for negative ones and stops at 0.
func (f *Factory) Pan(speed int) (Frame, error) {
	switch {
	case speed > 0:
		return f.PanRight(speed)
	case speed < 0:
		return f.PanLeft(-speed)
	}
	return f.Stop()
}

// Tilt moves up for positive speeds, down for negative ones and stops at 0.
func (f *Factory) Tilt(speed int) (Frame, error) {
	switch {
	case speed > 0:
		return f.TiltUp(speed)
	case speed < 0:
		return f.TiltDown(-speed)
	}
	return f.Stop()
}

// Move combines signed pan and tilt speeds into one diagonal frame.
func (f *Factory) Move(pan, tilt int) (Frame, error) {
	s := Standard{Right: pan > 0, Left: pan < 0, Up: tilt > 0, Down: tilt < 0}
	if err := firstErr(f.check(FieldPanSpeed, abs(pan)), f.check(FieldTiltSpeed, abs(tilt))); err != nil {
		return Frame{}, err
	}
	s.PanSpeed, s.TiltSpeed = byte(abs(pan)), byte(abs(tilt))
	return f.standard(s)
}

func (f *Factory) SetPreset(id int) (Frame, error)   { return f.preset(OpSetPreset, id) }
func (f *Factory) ClearPreset(id int) (Frame, error) { return f.preset(OpClearPreset, id) }
func (f *Factory) GoToPreset(id int) (Frame, error)  { return f.preset(OpGoToPreset, id) }

// Flip turns the camera 180 degrees about.
func (f *Factory) Flip() (Frame, error) { return f.GoToPreset(int(PresetFlip)) }

// GoToZeroPan pans to the zero position.
func (f *Factory) GoToZeroPan() (Frame, error) { return f.GoToPreset(int(PresetZeroPan)) }

func (f *Factory) preset(op Opcode, id int) (Frame, error) {
	if err := f.check(FieldPresetID, id); err != nil {
		return Frame{}, err
	}
	return f.extended(op, 0, uint16(id))
}

// SetAuxRelay closes auxiliary relay id.
func (f *Factory) SetAuxRelay(id int) (Frame, error) {
	if err := f.check(FieldAuxID, id); err != nil {
		return Frame{}, err
	}
	return f.extended(OpSetAux, AuxRelay, uint16(id))
}

// SetAuxLED lights an auxiliary LED at the given blink rate.
func (f *Factory) SetAuxLED(led, rate int) (Frame, error) {
	if err := firstErr(f.check(FieldByte, led), f.check(FieldByte, rate)); err != nil {
		return Frame{}, err
	}
	return f.extended(OpSetAux, AuxLED, uint16(rate)<<8|uint16(led))
}

func (f *Factory) ClearAux(id int) (Frame, error) {
	if err := f.check(FieldAuxID, id); err != nil {
		return Frame{}, err
	}
	return f.extended(OpClearAux, 0, uint16(id))
}

// Dummy is a no-op the device acknowledges.
func (f *Factory) Dummy() (Frame, error) { return f.extended(OpDummy, 0, 0) }

// RemoteReset power-cycles the device. It takes several seconds to recover.
func (f *Factory) RemoteReset() (Frame, error) { return f.extended(OpRemoteReset, 0, 0) }

func (f *Factory) ZoneStart(id int) (Frame, error) { return f.zone(OpZoneStart, id) }
func (f *Factory) ZoneEnd(id int) (Frame, error)   { return f.zone(OpZoneEnd, id) }

func (f *Factory) zone(op Opcode, id int) (Frame, error) {
	if err := f.check(FieldZoneID, id); err != nil {
		return Frame{}, err
	}
	return f.extended(op, 0, uint16(id))
}

// WriteChar writes one ASCII character at column of the on-screen display.
func (f *Factory) WriteChar(column int, char int) (Frame, error) {
	if err := firstErr(f.check(FieldScreenColumn, column), f.check(FieldByte, char)); err != nil {
		return Frame{}, err
	}
	return f.extended(OpWriteChar, 0, uint16(column)<<8|uint16(char))
}

func (f *Factory) ClearScreen() (Frame, error) { return f.extended(OpClearScreen, 0, 0) }

// AlarmAck acknowledges alarm number alarm.
func (f *Factory) AlarmAck(alarm int) (Frame, error) {
	if err := f.check(FieldByte, alarm); err != nil {
		return Frame{}, err
	}
	return f.extended(OpAlarmAck, 0, uint16(alarm))
}

func (f *Factory) ZoneScanOn() (Frame, error)  { return f.extended(OpZoneScanOn, 0, 0) }
func (f *Factory) ZoneScanOff() (Frame, error) { return f.extended(OpZoneScanOff, 0, 0) }

func (f *Factory) PatternStart(id int) (Frame, error) { return f.pattern(OpPatternStart, id) }
func (f *Factory) PatternEnd(id int) (Frame, error)   { return f.pattern(OpPatternStop, id) }
func (f *Factory) RunPattern(id int) (Frame, error)   { return f.pattern(OpRunPattern, id) }

func (f *Factory) pattern(op Opcode, id int) (Frame, error) {
	if err := f.check(FieldPatternID, id); err != nil {
		return Frame{}, err
	}
	return f.extended(op, 0, uint16(id))
}

func (f *Factory) SetZoomSpeed(speed int) (Frame, error) {
	if err := f.check(FieldZoomSpeed, speed); err != nil {
		return Frame{}, err
	}
	return f.extended(OpZoomSpeed, 0, uint16(speed))
}

func (f *Factory) SetFocusSpeed(speed int) (Frame, error) {
	if err := f.check(FieldFocusSpeed, speed); err != nil {
		return Frame{}, err
	}
	return f.extended(OpFocusSpeed, 0, uint16(speed))
}

func (f *Factory) ResetCameraDefaults() (Frame, error) { return f.extended(OpResetCamera, 0, 0) }

func (f *Factory) AutoFocus(mode byte) (Frame, error) { return f.toggle(OpAutoFocus, mode) }
func (f *Factory) AutoIris(mode byte) (Frame, error)  { return f.toggle(OpAutoIris, mode) }
func (f *Factory) AGC(mode byte) (Frame, error)       { return f.toggle(OpAGC, mode) }
func (f *Factory) Backlight(mode byte) (Frame, error) { return f.toggle(OpBacklight, mode) }

func (f *Factory) AutoWhiteBalance(mode byte) (Frame, error) {
	return f.toggle(OpAutoWhiteBalance, mode)
}

func (f *Factory) toggle(op Opcode, mode byte) (Frame, error) {
	if err := f.check(FieldToggle, int(mode)); err != nil {
		return Frame{}, err
	}
	return f.extended(op, 0, uint16(mode))
}

func (f *Factory) EnableDevicePhaseDelay() (Frame, error) {
	return f.extended(OpDevicePhaseDelay, 0, 0)
}

func (f *Factory) SetShutterSpeed(speed int) (Frame, error) {
	if err := f.check(FieldShutterSpeed, speed); err != nil {
		return Frame{}, err
	}
	return f.extended(OpShutterSpeed, 0, uint16(speed))
}

func (f *Factory) AdjustLineLockPhase(mode AdjustMode, value int) (Frame, error) {
	return f.adjust(OpLineLockPhase, FieldLineLockPhase, mode, value)
}

func (f *Factory) AdjustWhiteBalanceRB(mode AdjustMode, value int) (Frame, error) {
	return f.adjust(OpWhiteBalanceRB, FieldWhiteBalance, mode, value)
}

func (f *Factory) AdjustWhiteBalanceMG(mode AdjustMode, value int) (Frame, error) {
	return f.adjust(OpWhiteBalanceMG, FieldWhiteBalance, mode, value)
}

func (f *Factory) AdjustGain(mode AdjustMode, value int) (Frame, error) {
	return f.adjust(OpGain, FieldGain, mode, value)
}

func (f *Factory) AdjustIrisLevel(mode AdjustMode, value int) (Frame, error) {
	return f.adjust(OpAutoIrisLevel, FieldIrisLevel, mode, value)
}

func (f *Factory) AdjustIrisPeak(mode AdjustMode, value int) (Frame, error) {
	return f.adjust(OpAutoIrisPeak, FieldIrisPeak, mode, value)
}

func (f *Factory) adjust(op Opcode, field Field, mode AdjustMode, value int) (Frame, error) {
	if err := firstErr(f.check(FieldAdjustMode, int(mode)), f.check(field, value)); err != nil {
		return Frame{}, err
	}
	return f.extended(op, byte(mode), uint16(value))
}

func (f *Factory) SetZeroPosition() (Frame, error) { return f.extended(OpSetZeroPosition, 0, 0) }

// SetPanPosition moves to an absolute pan position in hundredths of a degree.
func (f *Factory) SetPanPosition(pos int) (Frame, error) {
	return f.position(OpSetPanPosition, FieldPanPosition, pos)
}

// SetTiltPosition moves to an absolute tilt position in hundredths of a degree.
func (f *Factory) SetTiltPosition(pos int) (Frame, error) {
	return f.position(OpSetTiltPosition, FieldTiltPosition, pos)
}

func (f *Factory) SetZoomPosition(pos int) (Frame, error) {
	return f.position(OpSetZoomPosition, FieldZoomPosition, pos)
}

func (f *Factory) position(op Opcode, field Field, pos int) (Frame, error) {
	if err := f.check(field, pos); err != nil {
		return Frame{}, err
	}
	return f.extended(op, 0, uint16(pos))
}

func (f *Factory) QueryPanPosition() (Frame, error)  { return f.extended(OpQueryPan, 0, 0) }
func (f *Factory) QueryTiltPosition() (Frame, error) { return f.extended(OpQueryTilt, 0, 0) }
func (f *Factory) QueryZoomPosition() (Frame, error) { return f.extended(OpQueryZoom, 0, 0) }
func (f *Factory) QueryMagnification() (Frame, error) {
	return f.extended(OpQueryMag, 0, 0)
}
func (f *Factory) QueryDeviceType() (Frame, error)  { return f.extended(OpQueryDeviceType, 0, 0) }
func (f *Factory) QueryDiagnostics() (Frame, error) { return f.extended(OpQueryDiagnostics, 0, 0) }

// VersionInfo requests software version or build number.
func (f *Factory) VersionInfo(sub byte) (Frame, error) {
	if sub != VersionSoftware && sub != VersionBuild {
		return Frame{}, &ChoiceError{Field: FieldByte, Value: int(sub), Allowed: []int{int(VersionSoftware), int(VersionBuild)}}
	}
	return f.extended(OpVersionInfo, sub, 0)
}

// VendorMacro issues a vendor macro. Macro sub-opcodes are even, the reply
// carries the sub-opcode plus one.
func (f *Factory) VendorMacro(sub byte, data1, data2 int) (Frame, error) {
	if sub&1 != 0 {
		return Frame{}, fmt.Errorf("%w: macro sub-opcode 0x%02X must be even", ErrValidation, sub)
	}
	if err := firstErr(f.check(FieldByte, data1), f.check(FieldByte, data2)); err != nil {
		return Frame{}, err
	}
	return f.extended(OpVendorMacro, sub, uint16(data1)<<8|uint16(data2))
}

// Query builds the broadcast address-discovery query. The address byte is
// left at zero so any unit on the line answers.
func (f *Factory) Query(queryType int) (Frame, error) {
	if err := f.check(FieldByte, queryType); err != nil {
		return Frame{}, err
	}
	return Frame{Command1: byte(queryType), Command2: byte(OpQuery)}, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
