// Package biquad implements the RBJ Audio EQ Cookbook family of two-pole
// IIR filters behind one streaming engine, grounded in the libSoX biquad
// effect (biquads.c / biquad.h in the original reference) that this
// system's receive chain reuses twice: once tuned to MARK, once to SPACE.
//
// Only Kind BPF sits on the receive critical path. The rest of the family
// is implemented because the Cookbook's forms all reduce to the same
// direct-form-I difference equation and state, and a filter design
// function that only knew about band-pass would be an arbitrary
// restriction rather than a real simplification.
package biquad

import (
	"errors"
	"fmt"
	"math"

	"github.com/jwhitham-go/comfilter/internal/pcm"
)

// ErrNyquist is returned by Design when the requested center frequency is
// at or above half the sample rate (w0 >= pi).
var ErrNyquist = errors.New("biquad: center frequency at or above Nyquist")

// ErrUnsupportedSampleRate is returned by Design for a Deemphasis filter
// whose sample rate has no tabulated zero/pole pair.
var ErrUnsupportedSampleRate = errors.New("biquad: no de-emphasis table entry for this sample rate")

// Kind selects which Cookbook formula Design evaluates. BPF is the only
// one exercised by the MARK/SPACE receive chain; the others are listed so
// every Cookbook filter sharing this engine has a concrete home.
type Kind int

const (
	// BPF is the constant 0 dB peak gain band-pass used for MARK/SPACE
	// tone separation.
	BPF Kind = iota
	BPFConstantSkirt
	LPF
	HPF
	Notch
	AllPass
	PeakingEQ
	LowShelf
	HighShelf
	OnePoleLowPass
	OnePoleHighPass
	Deemphasis
)

// Params bundles Design's inputs. Not every field is meaningful for every
// Kind: BPF/Notch use WidthHz; BPFConstantSkirt/LPF/HPF/AllPass/PeakingEQ/
// LowShelf/HighShelf use Q; PeakingEQ/LowShelf/HighShelf additionally use
// GainDB; OnePoleLowPass/OnePoleHighPass use only CenterHz and SampleRate;
// Deemphasis uses only SampleRate (CenterHz is ignored, normalized
// internally to 1 kHz per the Cookbook de-emphasis recipe).
type Params struct {
	Kind       Kind
	SampleRate float64
	CenterHz   float64
	WidthHz    float64
	Q          float64
	GainDB     float64
}

// Coefficients is a designed, a0-normalized biquad: A0 is implicit 1 after
// Design divides the other five through, matching spec.md's requirement
// that normalization happen once at filter start rather than every
// sample.
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Design computes Coefficients for the given Params. It fails with
// ErrNyquist if the center frequency is at or beyond half the sample
// rate, and with ErrUnsupportedSampleRate for a Deemphasis request at an
// untabulated rate.
func Design(p Params) (Coefficients, error) {
	if p.Kind == Deemphasis {
		return designDeemphasis(p.SampleRate)
	}

	w0 := 2 * math.Pi * p.CenterHz / p.SampleRate
	if w0 >= math.Pi {
		return Coefficients{}, fmt.Errorf("%w: fc=%g fs=%g", ErrNyquist, p.CenterHz, p.SampleRate)
	}

	var b0, b1, b2, a0, a1, a2 float64
	cosw0 := math.Cos(w0)
	sinw0 := math.Sin(w0)

	switch p.Kind {
	case BPF:
		alpha := sinw0 / (2 * p.CenterHz / p.WidthHz)
		b0, b1, b2 = alpha, 0, -alpha
		a0, a1, a2 = 1+alpha, -2*cosw0, 1-alpha

	case BPFConstantSkirt:
		alpha := sinw0 / (2 * p.Q)
		b0, b1, b2 = sinw0/2, 0, -sinw0/2
		a0, a1, a2 = 1+alpha, -2*cosw0, 1-alpha

	case Notch:
		alpha := sinw0 / (2 * p.CenterHz / p.WidthHz)
		b0, b1, b2 = 1, -2*cosw0, 1
		a0, a1, a2 = 1+alpha, -2*cosw0, 1-alpha

	case LPF:
		alpha := sinw0 / (2 * p.Q)
		b0, b1, b2 = (1-cosw0)/2, 1-cosw0, (1-cosw0)/2
		a0, a1, a2 = 1+alpha, -2*cosw0, 1-alpha

	case HPF:
		alpha := sinw0 / (2 * p.Q)
		b0, b1, b2 = (1+cosw0)/2, -(1 + cosw0), (1+cosw0)/2
		a0, a1, a2 = 1+alpha, -2*cosw0, 1-alpha

	case AllPass:
		alpha := sinw0 / (2 * p.Q)
		b0, b1, b2 = 1-alpha, -2*cosw0, 1+alpha
		a0, a1, a2 = 1+alpha, -2*cosw0, 1-alpha

	case PeakingEQ:
		alpha := sinw0 / (2 * p.Q)
		A := math.Pow(10, p.GainDB/40)
		b0, b1, b2 = 1+alpha*A, -2*cosw0, 1-alpha*A
		a0, a1, a2 = 1+alpha/A, -2*cosw0, 1-alpha/A

	case LowShelf:
		A := math.Pow(10, p.GainDB/40)
		alpha := sinw0 / 2 * math.Sqrt((A+1/A)*(1/p.Q-1)+2)
		twoSqrtAAlpha := 2 * math.Sqrt(A) * alpha
		b0 = A * ((A + 1) - (A-1)*cosw0 + twoSqrtAAlpha)
		b1 = 2 * A * ((A - 1) - (A+1)*cosw0)
		b2 = A * ((A + 1) - (A-1)*cosw0 - twoSqrtAAlpha)
		a0 = (A + 1) + (A-1)*cosw0 + twoSqrtAAlpha
		a1 = -2 * ((A - 1) + (A+1)*cosw0)
		a2 = (A + 1) + (A-1)*cosw0 - twoSqrtAAlpha

	case HighShelf:
		A := math.Pow(10, p.GainDB/40)
		alpha := sinw0 / 2 * math.Sqrt((A+1/A)*(1/p.Q-1)+2)
		twoSqrtAAlpha := 2 * math.Sqrt(A) * alpha
		b0 = A * ((A + 1) + (A-1)*cosw0 + twoSqrtAAlpha)
		b1 = -2 * A * ((A - 1) + (A+1)*cosw0)
		b2 = A * ((A + 1) + (A-1)*cosw0 - twoSqrtAAlpha)
		a0 = (A + 1) - (A-1)*cosw0 + twoSqrtAAlpha
		a1 = 2 * ((A - 1) - (A+1)*cosw0)
		a2 = (A + 1) - (A-1)*cosw0 - twoSqrtAAlpha

	case OnePoleLowPass:
		x := math.Exp(-2 * math.Pi * p.CenterHz / p.SampleRate)
		b0, b1, b2 = 1-x, 0, 0
		a0, a1, a2 = 1, -x, 0

	case OnePoleHighPass:
		x := math.Exp(-2 * math.Pi * p.CenterHz / p.SampleRate)
		b0, b1, b2 = (1+x)/2, -(1+x)/2, 0
		a0, a1, a2 = 1, -x, 0

	default:
		return Coefficients{}, fmt.Errorf("biquad: unknown kind %d", p.Kind)
	}

	return Coefficients{
		B0: b0 / a0, B1: b1 / a0, B2: b2 / a0,
		A1: a1 / a0, A2: a2 / a0,
	}, nil
}

// deemphasisTable holds one zero/pole pair per supported sample rate,
// normalized to 0 dB at 1 kHz. Populated from modemcfg's embedded YAML so
// the table lives as data, not code; see modemcfg.LoadDeemphasisTable.
var deemphasisTable = map[float64]struct{ Zero, Pole float64 }{}

// RegisterDeemphasisTable installs the zero/pole table used by
// Design(Deemphasis, ...). modemcfg calls this once at program start
// after loading deemphasis.yaml, keeping this package free of an import
// on the config loader.
func RegisterDeemphasisTable(table map[float64]struct{ Zero, Pole float64 }) {
	deemphasisTable = table
}

func designDeemphasis(sampleRate float64) (Coefficients, error) {
	entry, ok := deemphasisTable[sampleRate]
	if !ok {
		return Coefficients{}, fmt.Errorf("%w: %g Hz", ErrUnsupportedSampleRate, sampleRate)
	}
	// One-pole, one-zero de-emphasis: y[n] = b0*x[n] + b1*x[n-1] - a1*y[n-1],
	// gain-normalized so the response is 0 dB at 1 kHz.
	b0, b1 := 1.0, entry.Zero
	a1 := -entry.Pole
	w1k := 2 * math.Pi * 1000 / sampleRate
	num := math.Hypot(b0+b1*math.Cos(w1k), b1*math.Sin(w1k))
	den := math.Hypot(1+a1*math.Cos(w1k), a1*math.Sin(w1k))
	gain := den / num
	return Coefficients{B0: b0 * gain, B1: b1 * gain, B2: 0, A1: a1, A2: 0}, nil
}

// Filter is a stateful direct-form-I biquad instance operating on
// left-justified 32-bit samples (pcm.Sample). The zero Filter (zero
// Coefficients, zero state) is not usable; construct with New. A Filter
// is owned by exactly one caller — spec.md is explicit that two filters
// must never interleave calls against the same state.
type Filter struct {
	coef   Coefficients
	i1, i2 float64
	o1, o2 float64
	clips  uint64
}

// New returns a Filter ready to stream, with all state zeroed.
func New(coef Coefficients) *Filter {
	return &Filter{coef: coef}
}

// Clips returns the number of output samples that have saturated since
// the filter was constructed.
func (f *Filter) Clips() uint64 {
	return f.clips
}

// Flow streams min(len(in), len(out)) samples through the filter,
// writing that many to out and returning the count. Per spec.md's I/O
// contract this is the number actually consumed/produced in both
// directions; a caller that wants a full block processed simply sizes in
// and out equally.
func (f *Filter) Flow(in, out []pcm.Sample) int {
	n := len(in)
	if len(out) < n {
		n = len(out)
	}
	c := f.coef
	for i := 0; i < n; i++ {
		x := float64(in[i])
		y := x*c.B0 + f.i1*c.B1 + f.i2*c.B2 - f.o1*c.A1 - f.o2*c.A2
		f.i2, f.i1 = f.i1, x
		f.o2, f.o1 = f.o1, y
		out[i] = roundClip(y, &f.clips)
	}
	return n
}

func roundClip(y float64, clips *uint64) pcm.Sample {
	rounded := y
	if rounded >= 0 {
		rounded += 0.5
	} else {
		rounded -= 0.5
	}
	if rounded > math.MaxInt32 {
		*clips++
		return math.MaxInt32
	}
	if rounded < math.MinInt32 {
		*clips++
		return math.MinInt32
	}
	return pcm.Sample(rounded)
}
