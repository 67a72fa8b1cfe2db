package pelco

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFactory(t *testing.T, model Model) *Factory {
	t.Helper()
	f, err := NewFactory(1, model)
	require.NoError(t, err)
	return f
}

func TestFactoryFrames(t *testing.T) {
	f := newFactory(t, ModelStandard)
	build := func(fr Frame, err error) []byte {
		require.NoError(t, err)
		return fr.Encode()
	}

	tests := []struct {
		name string
		got  []byte
		want []byte
	}{
		{"stop", build(f.Stop()), []byte{0xFF, 0x01, 0x00, 0x00, 0x00, 0x00, 0x01}},
		{"camera on", build(f.CameraOn()), []byte{0xFF, 0x01, 0x88, 0x00, 0x00, 0x00, 0x89}},
		{"camera off", build(f.CameraOff()), []byte{0xFF, 0x01, 0x08, 0x00, 0x00, 0x00, 0x09}},
		{"pan right", build(f.PanRight(0x20)), []byte{0xFF, 0x01, 0x00, 0x02, 0x20, 0x00, 0x23}},
		{"pan left", build(f.Pan(-0x20)), []byte{0xFF, 0x01, 0x00, 0x04, 0x20, 0x00, 0x25}},
		{"tilt up", build(f.Tilt(0x10)), []byte{0xFF, 0x01, 0x00, 0x08, 0x00, 0x10, 0x19}},
		{"zoom tele", build(f.ZoomTele()), []byte{0xFF, 0x01, 0x00, 0x20, 0x00, 0x00, 0x21}},
		{"focus near", build(f.FocusNear()), []byte{0xFF, 0x01, 0x01, 0x00, 0x00, 0x00, 0x02}},
		{"clear preset", build(f.ClearPreset(1)), []byte{0xFF, 0x01, 0x00, 0x05, 0x00, 0x01, 0x07}},
		{"go to preset", build(f.GoToPreset(1)), []byte{0xFF, 0x01, 0x00, 0x07, 0x00, 0x01, 0x09}},
		{"flip", build(f.Flip()), []byte{0xFF, 0x01, 0x00, 0x07, 0x00, 0x21, 0x29}},
		{"zero pan", build(f.GoToZeroPan()), []byte{0xFF, 0x01, 0x00, 0x07, 0x00, 0x22, 0x2A}},
		{"aux led", build(f.SetAuxLED(2, 1)), []byte{0xFF, 0x01, 0x01, 0x09, 0x01, 0x02, 0x0E}},
		{"write char", build(f.WriteChar(3, 'A')), []byte{0xFF, 0x01, 0x00, 0x15, 0x03, 0x41, 0x5A}},
		{"gain delta", build(f.AdjustGain(AdjustDelta, 0x0102)), []byte{0xFF, 0x01, 0x01, 0x3F, 0x01, 0x02, 0x44}},
		{"pan position", build(f.SetPanPosition(18000)), []byte{0xFF, 0x01, 0x00, 0x4B, 0x46, 0x50, 0xE2}},
		{"query pan", build(f.QueryPanPosition()), []byte{0xFF, 0x01, 0x00, 0x51, 0x00, 0x00, 0x52}},
		{"version build", build(f.VersionInfo(VersionBuild)), []byte{0xFF, 0x01, 0x02, 0x73, 0x00, 0x00, 0x76}},
		{"broadcast query", build(f.Query(0)), []byte{0xFF, 0x00, 0x00, 0x45, 0x00, 0x00, 0x45}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.got)
		})
	}
}

func TestFactoryMoveIsOneDiagonalFrame(t *testing.T) {
	f := newFactory(t, ModelStandard)
	fr, err := f.Move(-0x10, 0x20)
	require.NoError(t, err)
	assert.Equal(t, bitLeft|bitUp, fr.Command2)
	assert.Equal(t, byte(0x10), fr.Data1)
	assert.Equal(t, byte(0x20), fr.Data2)
}

func TestFactoryRejectsInvalidInput(t *testing.T) {
	f := newFactory(t, ModelStandard)
	tests := []struct {
		name string
		call func() (Frame, error)
	}{
		{"pan speed", func() (Frame, error) { return f.PanLeft(64) }},
		{"tilt speed", func() (Frame, error) { return f.TiltDown(-1) }},
		{"preset zero", func() (Frame, error) { return f.SetPreset(0) }},
		{"preset high", func() (Frame, error) { return f.GoToPreset(256) }},
		{"aux", func() (Frame, error) { return f.SetAuxRelay(9) }},
		{"zone", func() (Frame, error) { return f.ZoneStart(0) }},
		{"pattern", func() (Frame, error) { return f.RunPattern(9) }},
		{"zoom speed", func() (Frame, error) { return f.SetZoomSpeed(4) }},
		{"column", func() (Frame, error) { return f.WriteChar(40, 'x') }},
		{"toggle", func() (Frame, error) { return f.AutoFocus(2) }},
		{"adjust mode", func() (Frame, error) { return f.AdjustGain(AdjustMode(2), 1) }},
		{"position", func() (Frame, error) { return f.SetTiltPosition(0x10000) }},
		{"version", func() (Frame, error) { return f.VersionInfo(0x04) }},
		{"macro", func() (Frame, error) { return f.VendorMacro(0x01, 0, 0) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.call()
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestVersionInfoSubOpcode(t *testing.T) {
	f := newFactory(t, ModelStandard)

	_, err := f.VersionInfo(0x01)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotAllowed)
	assert.NotErrorIs(t, err, ErrOutOfRange)
	var ce *ChoiceError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []int{0x00, 0x02}, ce.Allowed)
	assert.Equal(t, "pelco: byte 0x01 not one of 0x00, 0x02", err.Error())

	_, err = f.VersionInfo(VersionSoftware)
	assert.NoError(t, err)
}

func TestFactoryTurboPanSpeed(t *testing.T) {
	_, err := newFactory(t, ModelStandard).PanRight(int(SpeedTurbo))
	assert.ErrorIs(t, err, ErrOutOfRange)

	fr, err := newFactory(t, ModelTurbo).PanRight(int(SpeedTurbo))
	require.NoError(t, err)
	assert.Equal(t, SpeedTurbo, fr.Data1)
}

func TestNewFactoryAddress(t *testing.T) {
	_, err := NewFactory(0, ModelStandard)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = NewFactory(256, ModelStandard)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestBuildRejectsConflicts(t *testing.T) {
	v := NewValidator(ModelStandard)
	tests := []Standard{
		{Left: true, Right: true, PanSpeed: 0x10, TiltSpeed: 0x10},
		{Up: true, Down: true},
		{IrisOpen: true, IrisClose: true},
		{FocusNear: true, FocusFar: true},
		{ZoomTele: true, ZoomWide: true, Left: true},
	}
	for _, s := range tests {
		_, err := Build(v, 1, s)
		var ce *ConflictError
		assert.ErrorAs(t, err, &ce)
		assert.ErrorIs(t, err, ErrConflictingFlags)
	}
}

func TestBuildRejectsEvenOpcode(t *testing.T) {
	_, err := Build(NewValidator(ModelStandard), 1, Extended{Opcode: 0x04})
	assert.ErrorIs(t, err, ErrEvenOpcode)
	assert.ErrorIs(t, err, ErrValidation)
}
