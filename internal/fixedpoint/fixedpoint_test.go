package fixedpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var testFormat = Format{NonFractionalBits: 8, FractionalBits: 16}

func Test_FromFloat_OutOfRange(t *testing.T) {
	_, err := testFormat.FromFloat(1000.0)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func Test_FromFloat_RoundTrip(t *testing.T) {
	v, err := testFormat.FromFloat(1.25)
	require.NoError(t, err)
	assert.InDelta(t, 1.25, v.ToFloat(), 1e-4)
}

func Test_FromSample16_FullScale(t *testing.T) {
	v := testFormat.FromSample16(32767)
	assert.InDelta(t, 1.0, v.ToFloat(), 0.01)

	neg := testFormat.FromSample16(-32768)
	assert.InDelta(t, -1.0, neg.ToFloat(), 0.01)

	zero := testFormat.FromSample16(0)
	assert.Equal(t, 0.0, zero.ToFloat())
}

func Test_Abs(t *testing.T) {
	v := testFormat.MustFromFloat(-3.5)
	assert.InDelta(t, 3.5, v.Abs().ToFloat(), 1e-4)
}

func Test_Mul_Zero(t *testing.T) {
	a := testFormat.MustFromFloat(2.0)
	z := testFormat.MustFromFloat(0.0)
	assert.Equal(t, 0.0, a.Mul(z).ToFloat())
}

func Test_AddSub_Commutative_Associative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		gen := rapid.Float64Range(-50, 50)
		af := gen.Draw(t, "a")
		bf := gen.Draw(t, "b")
		cf := gen.Draw(t, "c")

		a := testFormat.MustFromFloat(af)
		b := testFormat.MustFromFloat(bf)
		c := testFormat.MustFromFloat(cf)

		assert.Equal(t, a.Add(b).Internal(), b.Add(a).Internal(), "addition must commute")

		left := a.Add(b).Add(c)
		right := a.Add(b.Add(c))
		assert.InDelta(t, left.ToFloat(), right.ToFloat(), 1e-3, "addition must associate within representable range")
	})
}

func Test_Mul_Commutative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		gen := rapid.Float64Range(-10, 10)
		af := gen.Draw(t, "a")
		bf := gen.Draw(t, "b")

		a := testFormat.MustFromFloat(af)
		b := testFormat.MustFromFloat(bf)

		assert.Equal(t, a.Mul(b).Internal(), b.Mul(a).Internal(), "multiplication must commute")
	})
}

func Test_IncompatibleFormats_Panic(t *testing.T) {
	a := testFormat.MustFromFloat(1.0)
	other := Format{NonFractionalBits: 4, FractionalBits: 20}
	b := other.MustFromFloat(1.0)

	assert.Panics(t, func() {
		a.Add(b)
	})
}
