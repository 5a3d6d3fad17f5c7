package modem

import (
	"github.com/jwhitham-go/comfilter/internal/biquad"
	"github.com/jwhitham-go/comfilter/internal/envelope"
	"github.com/jwhitham-go/comfilter/internal/errsink"
	"github.com/jwhitham-go/comfilter/internal/framefsm"
	"github.com/jwhitham-go/comfilter/internal/pcm"
)

// TraceSample is one sample's worth of intermediate pipeline state,
// grounded on original_source/model/sigdec.cpp's test_vector_t struct
// (SPEC_FULL.md section 10): used to cross-check the fixed-point and
// floating-point receive paths sample-for-sample instead of only at
// the decoded-byte level.
type TraceSample struct {
	Input         pcm.Sample
	UpperBandpass pcm.Sample
	LowerBandpass pcm.Sample
	UpperEnvelope float64
	LowerEnvelope float64
	Bit           framefsm.Bit
}

// DecodeWithTrace runs the same floating-point pipeline as Decode but
// additionally returns one TraceSample per input sample.
func (m *Modem) DecodeWithTrace(samples []pcm.Sample, sink errsink.Sink) ([]byte, []TraceSample) {
	if sink == nil {
		sink = errsink.Discard
	}

	upper := biquad.New(m.upperCoef)
	lower := biquad.New(m.lowerCoef)

	upperOut := make([]pcm.Sample, len(samples))
	lowerOut := make([]pcm.Sample, len(samples))
	upper.Flow(samples, upperOut)
	lower.Flow(samples, lowerOut)

	upperEnv := envelope.New(m.decay)
	lowerEnv := envelope.New(m.decay)
	noiseFloor := float64(pcm.FromInt16(Amplitude)) * noiseFloorFraction

	trace := make([]TraceSample, len(samples))
	bits := make([]framefsm.Bit, len(samples))
	for i := range samples {
		u := upperEnv.Step(upperOut[i])
		l := lowerEnv.Step(lowerOut[i])
		b := framefsm.Slice(u, l, noiseFloor)
		bits[i] = b
		trace[i] = TraceSample{
			Input:         samples[i],
			UpperBandpass: upperOut[i],
			LowerBandpass: lowerOut[i],
			UpperEnvelope: u,
			LowerEnvelope: l,
			Bit:           b,
		}
	}
	if c1, c2 := upper.Clips(), lower.Clips(); c1+c2 > 0 {
		for i := uint64(0); i < c1+c2; i++ {
			sink.OnClip()
		}
	}

	fsm := framefsm.New(m.halfBit, 8, sink)
	return fsm.Flow(bits, nil), trace
}
