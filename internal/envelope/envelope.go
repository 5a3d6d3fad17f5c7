// Package envelope implements the leaky-peak ("RC") follower that turns a
// filtered MARK or SPACE band into an instantaneous energy estimate,
// grounded on original_source/model/sigdec.cpp's rc_filter_state_t /
// rc_filter: level decays by a constant factor each sample and is
// immediately reseeded by any sample whose magnitude exceeds the decayed
// level.
package envelope

import (
	"math"

	"github.com/jwhitham-go/comfilter/internal/fixedpoint"
	"github.com/jwhitham-go/comfilter/internal/pcm"
)

// Decay computes the per-sample multiplicative decay factor d such that a
// level of 1.0 falls to decayPerBit over one bit period of
// sampleRate/baud samples. decayPerBit must be in (0,1).
func Decay(decayPerBit float64, sampleRate, baud float64) float64 {
	samplesPerBit := sampleRate / baud
	timeConstant := -math.Log(decayPerBit) / samplesPerBit
	return math.Exp(-timeConstant)
}

// Follower is a stateful envelope detector for one band (MARK or SPACE).
// Two independent Followers are needed per spec.md section 4.2; they
// must never share state.
type Follower struct {
	level float64
	decay float64
}

// New returns a Follower with level 0 and the given per-sample decay
// factor (see Decay).
func New(decay float64) *Follower {
	return &Follower{decay: decay}
}

// Level returns the current envelope level.
func (f *Follower) Level() float64 {
	return f.level
}

// Step feeds one filtered sample and returns the updated level:
// L <- max(|s|, L*d).
func (f *Follower) Step(sample pcm.Sample) float64 {
	f.level *= f.decay
	mag := math.Abs(float64(sample))
	if mag > f.level {
		f.level = mag
	}
	return f.level
}

// Flow streams min(len(in), len(out)) samples, mirroring biquad.Filter's
// I/O contract: the envelope produces exactly one output per input, so
// this is really just len(in) capped by len(out).
func (f *Follower) Flow(in []pcm.Sample, out []float64) int {
	n := len(in)
	if len(out) < n {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		out[i] = f.Step(in[i])
	}
	return n
}

// FixedFollower is the fixed-point twin of Follower, grounded on the same
// rc_filter_state_t / rc_filter in original_source/model/sigdec.cpp.
type FixedFollower struct {
	level  fixedpoint.Value
	decay  fixedpoint.Value
	format fixedpoint.Format
}

// NewFixed returns a FixedFollower with level zero and the per-sample
// decay factor that Decay computes from decayPerBit, sampleRate and baud,
// already converted to the format.
func NewFixed(decayPerBit, sampleRate, baud float64, format fixedpoint.Format) *FixedFollower {
	decay := format.MustFromFloat(Decay(decayPerBit, sampleRate, baud))
	return &FixedFollower{level: format.MustFromFloat(0), decay: decay, format: format}
}

// Step feeds one filtered fixed-point sample and returns the updated
// level.
func (f *FixedFollower) Step(sample fixedpoint.Value) fixedpoint.Value {
	f.level = f.level.Mul(f.decay)
	mag := sample.Abs()
	if mag.GreaterThan(f.level) {
		f.level = mag
	}
	return f.level
}

// Flow streams min(len(in), len(out)) samples.
func (f *FixedFollower) Flow(in, out []fixedpoint.Value) int {
	n := len(in)
	if len(out) < n {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		out[i] = f.Step(in[i])
	}
	return n
}
