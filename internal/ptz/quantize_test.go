package ptz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantizeMonotonic(t *testing.T) {
	for _, levels := range []int{4, 64, 65} {
		prev := 0
		for v := DefaultDeadZone + 0.001; v <= 1; v += 0.001 {
			q := Quantize(v, DefaultDeadZone, levels)
			assert.GreaterOrEqual(t, q, prev, "levels=%d v=%.3f", levels, v)
			assert.Equal(t, -q, Quantize(-v, DefaultDeadZone, levels))
			prev = q
		}
		assert.Equal(t, levels-1, Quantize(1, DefaultDeadZone, levels))
	}
}

func TestQuantizeDeadZone(t *testing.T) {
	for _, v := range []float64{0, 0.01, -0.1, 0.17, -0.17} {
		assert.Equal(t, 0, Quantize(v, DefaultDeadZone, 64), "v=%.2f", v)
	}
	assert.Equal(t, 63, Quantize(2, DefaultDeadZone, 64))
}

func TestQuantizeTrigger(t *testing.T) {
	tests := []struct {
		in    float64
		want  int
		moves bool
	}{
		{0, 0, false},
		{0.01, 0, true},
		{0.2, 1, true},
		{0.5, 2, true},
		{1, 3, true},
	}
	for _, tc := range tests {
		got, ok := QuantizeTrigger(tc.in, 4)
		assert.Equal(t, tc.want, got, "in=%.2f", tc.in)
		assert.Equal(t, tc.moves, ok, "in=%.2f", tc.in)
	}
}

func TestAxisRange(t *testing.T) {
	r := AxisRange{Min: -32768, Max: 32767}
	assert.InDelta(t, -1, r.signed(-32768), 1e-9)
	assert.InDelta(t, 1, r.signed(32767), 1e-9)
	assert.InDelta(t, 0.5, r.signed(r.rawSigned(0.5)), 1e-9)
	assert.InDelta(t, -0.25, r.signed(r.invert(r.rawSigned(0.25))), 1e-9)

	tr := AxisRange{Min: 0, Max: 255}
	assert.InDelta(t, 0.2, tr.unsigned(tr.rawUnsigned(0.2)), 1e-9)
	assert.Equal(t, 0.0, tr.unsigned(-5))

	assert.Equal(t, 0.0, AxisRange{}.signed(3))
}
