package pelco

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanSpeedBoundary(t *testing.T) {
	tests := []struct {
		model  Model
		accept int
		reject int
	}{
		{ModelStandard, 63, 64},
		{ModelTurbo, 64, 65},
	}
	for _, tc := range tests {
		t.Run(tc.model.String(), func(t *testing.T) {
			v := NewValidator(tc.model)
			assert.NoError(t, v.Check(FieldPanSpeed, tc.accept))

			err := v.Check(FieldPanSpeed, tc.reject)
			var re *RangeError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, FieldPanSpeed, re.Field)
			assert.Equal(t, tc.reject, re.Value)
			assert.Equal(t, tc.accept, re.Max)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestTiltSpeedIgnoresModel(t *testing.T) {
	v := NewValidator(ModelTurbo)
	assert.ErrorIs(t, v.Check(FieldTiltSpeed, 64), ErrOutOfRange)
}

func TestValidateRange(t *testing.T) {
	tests := []struct {
		field Field
		ok    []int
		bad   []int
	}{
		{FieldAddress, []int{1, 255}, []int{0, 256}},
		{FieldPresetID, []int{1, 255}, []int{0, 256}},
		{FieldAuxID, []int{1, 8}, []int{0, 9}},
		{FieldZoneID, []int{1, 255}, []int{0}},
		{FieldPatternID, []int{0, 8}, []int{-1, 9}},
		{FieldZoomSpeed, []int{0, 3}, []int{4}},
		{FieldFocusSpeed, []int{0, 3}, []int{4}},
		{FieldScreenColumn, []int{0, 39}, []int{40}},
		{FieldByte, []int{0, 255}, []int{-1, 256}},
		{FieldGain, []int{0, 0xFFFF}, []int{0x10000}},
	}
	for _, tc := range tests {
		t.Run(tc.field.String(), func(t *testing.T) {
			for _, v := range tc.ok {
				assert.NoError(t, ValidateRange(v, tc.field), "value %d", v)
			}
			for _, v := range tc.bad {
				assert.ErrorIs(t, ValidateRange(v, tc.field), ErrOutOfRange, "value %d", v)
			}
		})
	}
}

func TestValidateExclusive(t *testing.T) {
	assert.NoError(t, ValidateExclusive(Flag{"a", true}, Flag{"b", false}))
	assert.NoError(t, ValidateExclusive())

	err := ValidateExclusive(Flag{"pan left", true}, Flag{"pan right", true})
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"pan left", "pan right"}, ce.Flags)
	assert.ErrorIs(t, err, ErrConflictingFlags)
}

func TestParseModel(t *testing.T) {
	m, err := ParseModel("Turbo")
	require.NoError(t, err)
	assert.Equal(t, ModelTurbo, m)

	m, err = ParseModel("")
	require.NoError(t, err)
	assert.Equal(t, ModelStandard, m)

	_, err = ParseModel("pelco-p")
	assert.Error(t, err)
}
