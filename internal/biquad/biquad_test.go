package biquad

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwhitham-go/comfilter/internal/pcm"
)

func Test_Design_NyquistBoundary(t *testing.T) {
	sampleRate := 48000.0

	_, err := Design(Params{Kind: BPF, SampleRate: sampleRate, CenterHz: sampleRate/2 - 1, WidthHz: 1000})
	require.NoError(t, err)

	_, err = Design(Params{Kind: BPF, SampleRate: sampleRate, CenterHz: sampleRate/2 + 1, WidthHz: 1000})
	require.ErrorIs(t, err, ErrNyquist)
}

func Test_Design_A0Normalized(t *testing.T) {
	coef, err := Design(Params{Kind: BPF, SampleRate: 48000, CenterHz: 10000, WidthHz: 1000})
	require.NoError(t, err)
	// A0 is implicit 1; just sanity check the other coefficients are finite.
	assert.False(t, math.IsNaN(coef.B0))
	assert.False(t, math.IsNaN(coef.A1))
}

func Test_Flow_ZeroInZeroOut(t *testing.T) {
	coef, err := Design(Params{Kind: BPF, SampleRate: 48000, CenterHz: 10000, WidthHz: 1000})
	require.NoError(t, err)
	f := New(coef)

	in := make([]pcm.Sample, 64)
	out := make([]pcm.Sample, 64)
	n := f.Flow(in, out)
	require.Equal(t, 64, n)
	for _, v := range out {
		assert.Equal(t, pcm.Sample(0), v)
	}
	assert.Equal(t, uint64(0), f.Clips())
}

func Test_Flow_MinOfTwoLengths(t *testing.T) {
	coef, _ := Design(Params{Kind: BPF, SampleRate: 48000, CenterHz: 10000, WidthHz: 1000})
	f := New(coef)

	in := make([]pcm.Sample, 100)
	out := make([]pcm.Sample, 30)
	n := f.Flow(in, out)
	assert.Equal(t, 30, n)
}

func Test_Flow_ZeroLength(t *testing.T) {
	coef, _ := Design(Params{Kind: BPF, SampleRate: 48000, CenterHz: 10000, WidthHz: 1000})
	f := New(coef)
	n := f.Flow(nil, nil)
	assert.Equal(t, 0, n)
}

// Test_Flow_FrequencyResponseAtCenter checks that a steady sinusoid at
// the design center frequency passes through close to 0 dB, per spec.md's
// invariant that the steady-state response at Fc is within ±0.5 dB of
// the RBJ closed-form prediction.
func Test_Flow_FrequencyResponseAtCenter(t *testing.T) {
	const sampleRate = 48000.0
	const centerHz = 10000.0
	coef, err := Design(Params{Kind: BPF, SampleRate: sampleRate, CenterHz: centerHz, WidthHz: 1000})
	require.NoError(t, err)
	f := New(coef)

	const n = 4000
	in := make([]pcm.Sample, n)
	out := make([]pcm.Sample, n)
	amplitude := 1 << 28
	for i := range in {
		in[i] = pcm.Sample(float64(amplitude) * math.Sin(2*math.Pi*centerHz*float64(i)/sampleRate))
	}
	f.Flow(in, out)

	// Measure steady-state peak amplitude over the last quarter, skipping
	// the filter's settling transient.
	start := n * 3 / 4
	var peak float64
	for _, v := range out[start:] {
		if math.Abs(float64(v)) > peak {
			peak = math.Abs(float64(v))
		}
	}
	ratioDB := 20 * math.Log10(peak/float64(amplitude))
	assert.InDelta(t, 0.0, ratioDB, 0.5)
}

func Test_Design_Deemphasis_UnsupportedRate(t *testing.T) {
	RegisterDeemphasisTable(map[float64]struct{ Zero, Pole float64 }{
		48000: {Zero: -0.4072715, Pole: 0.2822217},
	})
	defer RegisterDeemphasisTable(map[float64]struct{ Zero, Pole float64 }{})

	_, err := Design(Params{Kind: Deemphasis, SampleRate: 44100})
	require.ErrorIs(t, err, ErrUnsupportedSampleRate)

	_, err = Design(Params{Kind: Deemphasis, SampleRate: 48000})
	require.NoError(t, err)
}

func Test_Design_LPF_HPF_Basic(t *testing.T) {
	for _, kind := range []Kind{LPF, HPF, Notch, AllPass, OnePoleLowPass, OnePoleHighPass} {
		_, err := Design(Params{Kind: kind, SampleRate: 48000, CenterHz: 1000, WidthHz: 500, Q: 0.707})
		require.NoError(t, err, "kind %d", kind)
	}
}

func Test_Design_Shelving(t *testing.T) {
	for _, kind := range []Kind{PeakingEQ, LowShelf, HighShelf} {
		coef, err := Design(Params{Kind: kind, SampleRate: 48000, CenterHz: 1000, Q: 0.707, GainDB: 6})
		require.NoError(t, err, "kind %d", kind)
		assert.False(t, math.IsNaN(coef.B0))
	}
}
