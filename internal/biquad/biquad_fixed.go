package biquad

import "github.com/jwhitham-go/comfilter/internal/fixedpoint"

// FixedCoefficients is Coefficients converted into one fixedpoint.Format,
// grounded on original_source/model/sigdec.cpp's my_filter_state_t: the
// same six registers (here five, since A0 is already normalized to 1),
// held in fixed-point so the whole receive chain can run in the
// deterministic arithmetic an FPGA synthesis target needs.
type FixedCoefficients struct {
	B0, B1, B2 fixedpoint.Value
	A1, A2     fixedpoint.Value
}

// ToFixed converts a0-normalized Coefficients into the given format,
// panicking (via fixedpoint.Format.FromFloat's error) only if a
// coefficient doesn't fit — an implementation error, since a correctly
// designed BPF never produces a coefficient whose magnitude reaches the
// format's non-fractional range.
func (c Coefficients) ToFixed(format fixedpoint.Format) FixedCoefficients {
	return FixedCoefficients{
		B0: format.MustFromFloat(c.B0),
		B1: format.MustFromFloat(c.B1),
		B2: format.MustFromFloat(c.B2),
		A1: format.MustFromFloat(c.A1),
		A2: format.MustFromFloat(c.A2),
	}
}

// FixedFilter is the fixed-point twin of Filter: identical direct-form-I
// streaming equation, but every value is a fixedpoint.Value instead of a
// float64. Used by the model/FPGA-equivalence path described in
// SPEC_FULL.md section 3: the same input, run through Filter and through
// FixedFilter, must decode to the same byte stream even though the
// intermediate envelope/filter values may differ by a bounded epsilon.
type FixedFilter struct {
	coef   FixedCoefficients
	i1, i2 fixedpoint.Value
	o1, o2 fixedpoint.Value
	format fixedpoint.Format
}

// NewFixed returns a FixedFilter with all state zeroed to the given
// format.
func NewFixed(coef FixedCoefficients, format fixedpoint.Format) *FixedFilter {
	zero := format.MustFromFloat(0)
	return &FixedFilter{coef: coef, i1: zero, i2: zero, o1: zero, o2: zero, format: format}
}

// Flow streams min(len(in), len(out)) samples, same contract as
// Filter.Flow.
func (f *FixedFilter) Flow(in, out []fixedpoint.Value) int {
	n := len(in)
	if len(out) < n {
		n = len(out)
	}
	c := f.coef
	for i := 0; i < n; i++ {
		x := in[i]
		y := x.Mul(c.B0).Add(f.i1.Mul(c.B1)).Add(f.i2.Mul(c.B2)).
			Sub(f.o1.Mul(c.A1)).Sub(f.o2.Mul(c.A2))
		f.i2, f.i1 = f.i1, x
		f.o2, f.o1 = f.o1, y
		out[i] = y
	}
	return n
}
