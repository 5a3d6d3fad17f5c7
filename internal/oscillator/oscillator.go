// Package oscillator implements the phase-continuous binary FSK tone
// generator used by the transmit chain, grounded on
// original_source/c/packetgen.c's oscillator loop (a running phase angle
// advanced by an upper or lower delta each sample, wrapped modulo 2*pi,
// with sin(angle) scaled to the PCM range) and on the teacher's
// gen_tone.go (phase-accumulator terminology: "Phase continuity across
// bit transitions is mandatory... this is what gives the band-pass
// filters clean separation").
package oscillator

import (
	"math"

	"github.com/jwhitham-go/comfilter/internal/bit"
	"github.com/jwhitham-go/comfilter/internal/pcm"
)

// Oscillator holds the running phase of a single FSK generator. Phase is
// never reset between bits or between packets — only LeadIn/LeadOut
// silence (which is itself just a long run of MARK bits) separates one
// transmission from the next.
type Oscillator struct {
	sampleRate float64
	highDelta  float64 // radians/sample when the bit is ONE (MARK)
	lowDelta   float64 // radians/sample when the bit is ZERO (SPACE)
	amplitude  float64 // S_max - 1, in 16-bit PCM units
	phase      float64
}

// New returns an Oscillator for the given sample rate, MARK (highHz) and
// SPACE (lowHz) tone frequencies, and 16-bit PCM amplitude (must be in
// (0, 32768]; the generated samples reach amplitude-1 at most, matching
// spec.md's "S_max - 1").
func New(sampleRate, highHz, lowHz float64, amplitude int16) *Oscillator {
	return &Oscillator{
		sampleRate: sampleRate,
		highDelta:  2 * math.Pi * highHz / sampleRate,
		lowDelta:   2 * math.Pi * lowHz / sampleRate,
		amplitude:  float64(amplitude) - 1,
	}
}

// Next advances the oscillator by one sample for the given bit and
// returns the generated PCM sample, left-justified to 32 bits to match
// the rest of the pipeline's pcm.Sample convention.
func (o *Oscillator) Next(b bit.Bit) pcm.Sample {
	if b == bit.One {
		o.phase += o.highDelta
	} else {
		o.phase += o.lowDelta
	}
	if o.phase > 2*math.Pi {
		o.phase -= 2 * math.Pi
	}
	value := math.Floor(math.Sin(o.phase)*o.amplitude + 0.5)
	return pcm.Sample(int32(value) << 16)
}

// Generate produces one sample per element of bits, continuing the
// oscillator's running phase from whatever call preceded it (or from
// phase zero on first use).
func (o *Oscillator) Generate(bits []bit.Bit) []pcm.Sample {
	out := make([]pcm.Sample, len(bits))
	for i, b := range bits {
		out[i] = o.Next(b)
	}
	return out
}

// GenerateMark produces n samples of a steady MARK tone, used for the
// lead-in and lead-out idle carrier (spec.md section 4.3: "the oscillator
// holds the MARK bit (1) for L_in samples... before the first packet").
func (o *Oscillator) GenerateMark(n int) []pcm.Sample {
	out := make([]pcm.Sample, n)
	for i := range out {
		out[i] = o.Next(bit.One)
	}
	return out
}
