package ptz

import "math"

// AxisRange is the raw interval an input device reports for an axis.
type AxisRange struct {
	Min float64
	Max float64
}

var (
	// StickRange matches the browser Gamepad API stick axes.
	StickRange = AxisRange{Min: -1, Max: 1}
	// TriggerRange matches the browser Gamepad API trigger buttons.
	TriggerRange = AxisRange{Min: 0, Max: 1}
)

// signed maps v onto [-1, 1].
func (r AxisRange) signed(v float64) float64 {
	if r.Max <= r.Min {
		return 0
	}
	return clamp(2*(v-r.Min)/(r.Max-r.Min)-1, -1, 1)
}

// unsigned maps v onto [0, 1].
func (r AxisRange) unsigned(v float64) float64 {
	if r.Max <= r.Min {
		return 0
	}
	return clamp((v-r.Min)/(r.Max-r.Min), 0, 1)
}

// rawSigned is the inverse of signed.
func (r AxisRange) rawSigned(n float64) float64 {
	return r.Min + (clamp(n, -1, 1)+1)/2*(r.Max-r.Min)
}

// invert mirrors v within r.
func (r AxisRange) invert(v float64) float64 { return r.Min + r.Max - v }

// rawUnsigned is the inverse of unsigned.
func (r AxisRange) rawUnsigned(n float64) float64 {
	return r.Min + clamp(n, 0, 1)*(r.Max-r.Min)
}

// Quantize maps a normalized stick value in [-1, 1] to a signed speed index
// in [-(levels-1), levels-1]. Magnitudes at or below deadZone are 0; the rest
// of the travel is rescaled to [0, 1] before rounding.
func Quantize(n, deadZone float64, levels int) int {
	mag := math.Abs(n)
	if mag <= deadZone || levels < 2 {
		return 0
	}
	scaled := clamp((mag-deadZone)/(1-deadZone), 0, 1)
	idx := int(math.Round(scaled * float64(levels-1)))
	if n < 0 {
		return -idx
	}
	return idx
}

// QuantizeTrigger maps a normalized trigger value in [0, 1] to a speed index
// in [0, levels-1], without a dead zone. ok is false only for an exact zero.
func QuantizeTrigger(n float64, levels int) (idx int, ok bool) {
	if n <= 0 {
		return 0, false
	}
	if levels < 1 {
		return 0, true
	}
	return int(math.Round(clamp(n, 0, 1) * float64(levels-1))), true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
