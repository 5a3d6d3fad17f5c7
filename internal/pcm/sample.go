// Package pcm defines the sample representation shared by the biquad,
// envelope, oscillator and WAV-file stages: a signed integer normalized
// to a 32-bit left-justified form, matching the original reference's use
// of libSoX's sox_sample_t (a 16-bit PCM value shifted left by 16 bits
// before it reaches the filter core, so the filter's internal arithmetic
// and clip detection operate over the full 32-bit range rather than the
// narrower 16-bit wire format).
package pcm

import "math"

// Sample is one 32-bit left-justified signal value.
type Sample int32

// FromInt16 left-justifies a 16-bit little-endian PCM sample as read from
// a WAV file.
func FromInt16(s int16) Sample {
	return Sample(int32(s) << 16)
}

// ToInt16 narrows back down to 16-bit PCM, rounding to nearest and
// reporting whether the value had to be clipped to fit.
func (s Sample) ToInt16() (int16, bool) {
	v := float64(s) / 65536.0
	if v >= 0 {
		v += 0.5
	} else {
		v -= 0.5
	}
	if v > math.MaxInt16 {
		return math.MaxInt16, true
	}
	if v < math.MinInt16 {
		return math.MinInt16, true
	}
	return int16(v), false
}

// Abs returns the absolute value, saturating at MaxInt32 for MinInt32
// (whose magnitude has no positive int32 representation).
func (s Sample) Abs() Sample {
	if s < 0 {
		if s == math.MinInt32 {
			return math.MaxInt32
		}
		return -s
	}
	return s
}
