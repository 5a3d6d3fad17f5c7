package envelope

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/jwhitham-go/comfilter/internal/pcm"
)

func Test_Decay_OneBitPeriod(t *testing.T) {
	d := Decay(0.1, 48000, 10)
	samplesPerBit := 48000.0 / 10.0
	level := 1.0
	for i := 0; i < int(samplesPerBit); i++ {
		level *= d
	}
	assert.InDelta(t, 0.1, level, 0.01)
}

func Test_Follower_NonNegative_And_ReseedsOnPeak(t *testing.T) {
	f := New(Decay(0.1, 48000, 10))

	l1 := f.Step(pcm.Sample(1000))
	assert.GreaterOrEqual(t, l1, 0.0)

	// A later, larger sample must immediately reseed above the decayed level.
	l2 := f.Step(pcm.Sample(5000))
	assert.Equal(t, 5000.0, l2)
}

func Test_Follower_ContinuousCarrier_SettlesNearPeak(t *testing.T) {
	f := New(Decay(0.1, 48000, 10))
	const amplitude = 20000
	var level float64
	for i := 0; i < 48000; i++ { // 1 second of steady carrier
		level = f.Step(pcm.Sample(amplitude))
	}
	assert.GreaterOrEqual(t, level, 0.9*amplitude)
}

// Test_Follower_Invariants checks spec.md's stated invariants hold for
// arbitrary input: L is non-negative, L[n+1] >= L[n]*d, L[n+1] >= |s[n+1]|.
func Test_Follower_Invariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		decay := rapid.Float64Range(0.5, 0.999).Draw(t, "decay")
		samples := rapid.SliceOfN(rapid.Int32Range(-30000, 30000), 1, 200).Draw(t, "samples")

		f := New(decay)
		prevLevel := 0.0
		for _, s := range samples {
			level := f.Step(pcm.Sample(s))
			assert.GreaterOrEqual(t, level, 0.0)
			assert.GreaterOrEqual(t, level+1e-9, prevLevel*decay)
			assert.GreaterOrEqual(t, level+1e-9, math.Abs(float64(s)))
			prevLevel = level
		}
	})
}

func Test_Flow_ZeroLength(t *testing.T) {
	f := New(0.9)
	n := f.Flow(nil, nil)
	assert.Equal(t, 0, n)
}
