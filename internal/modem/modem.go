// Package modem wires the leaf DSP/framing packages into the two
// end-to-end operations the CLI exposes — generate and decode — per
// spec.md section 6: "The core exposes two operations to its shell:
// generate(input_bytes, output_samples) and decode(input_samples,
// output_bytes)."
package modem

import (
	"errors"
	"fmt"

	"github.com/jwhitham-go/comfilter/internal/bit"
	"github.com/jwhitham-go/comfilter/internal/biquad"
	"github.com/jwhitham-go/comfilter/internal/envelope"
	"github.com/jwhitham-go/comfilter/internal/errsink"
	"github.com/jwhitham-go/comfilter/internal/fixedpoint"
	"github.com/jwhitham-go/comfilter/internal/framefsm"
	"github.com/jwhitham-go/comfilter/internal/framer"
	"github.com/jwhitham-go/comfilter/internal/modemcfg"
	"github.com/jwhitham-go/comfilter/internal/morse"
	"github.com/jwhitham-go/comfilter/internal/oscillator"
	"github.com/jwhitham-go/comfilter/internal/packetfsm"
	"github.com/jwhitham-go/comfilter/internal/pcm"
)

// noiseFloorFraction sets the combined-amplitude gate (spec.md's open
// question resolution, section 9) as a fraction of the full-scale
// envelope level: below this, both bands are too quiet to trust and
// the slicer reports INVALID rather than guessing.
const noiseFloorFraction = 0.02

// Amplitude is the 16-bit PCM amplitude handed to the TX oscillator as
// S_max (spec.md section 4.3); the oscillator's peak output is
// Amplitude-1, matching the original's near-full scale output.
const Amplitude = int16(32767)

// ErrInternal wraps the fatal, programming-error class of spec.md
// section 7 class 6 ("packet word = 0 during TX shifting; block-size
// mismatch between MARK and SPACE paths").
var ErrInternal = errors.New("modem: internal invariant violation")

// Modem holds every piece of per-stream state needed to run the TX or
// RX pipeline for one configuration: the two band-pass filter
// coefficient sets, the envelope decay factor, and the derived sample
// timing. One Modem must not be shared between concurrent streams —
// Encode/Decode each build fresh Filter/Follower/FSM instances from
// these shared, read-only coefficients.
type Modem struct {
	cfg           modemcfg.Config
	samplesPerBit int
	halfBit       uint32
	upperCoef     biquad.Coefficients
	lowerCoef     biquad.Coefficients
	decay         float64
}

// New validates cfg and designs the two band-pass filters, failing
// exactly as spec.md section 7 class 1 describes: fatal at start, no
// state created, if either center frequency is at or above Nyquist.
func New(cfg modemcfg.Config) (*Modem, error) {
	samplesPerBit, err := cfg.SamplesPerBit()
	if err != nil {
		return nil, err
	}
	if samplesPerBit < 4 {
		return nil, fmt.Errorf("%w: samples per bit %d", modemcfg.ErrBadBaudDivision, samplesPerBit)
	}

	upperCoef, err := biquad.Design(biquad.Params{
		Kind: biquad.BPF, SampleRate: cfg.SampleRate,
		CenterHz: cfg.UpperFrequency, WidthHz: cfg.FilterWidth,
	})
	if err != nil {
		return nil, fmt.Errorf("modem: designing MARK filter: %w", err)
	}
	lowerCoef, err := biquad.Design(biquad.Params{
		Kind: biquad.BPF, SampleRate: cfg.SampleRate,
		CenterHz: cfg.LowerFrequency, WidthHz: cfg.FilterWidth,
	})
	if err != nil {
		return nil, fmt.Errorf("modem: designing SPACE filter: %w", err)
	}

	return &Modem{
		cfg:           cfg,
		samplesPerBit: samplesPerBit,
		halfBit:       uint32(samplesPerBit / 2),
		upperCoef:     upperCoef,
		lowerCoef:     lowerCoef,
		decay:         envelope.Decay(cfg.RCDecayPerBit, cfg.SampleRate, cfg.BaudRate),
	}, nil
}

// leadSamples returns the lead-in/lead-out carrier length: Fs/10,
// spec.md section 4.3's typical value.
func (m *Modem) leadSamples() int {
	return int(m.cfg.SampleRate / 10)
}

func byteBits(b byte) []bit.Bit {
	bits := make([]bit.Bit, 0, 10)
	bits = append(bits, bit.Zero) // start
	for i := 0; i < 8; i++ {
		if (b>>uint(i))&1 == 1 {
			bits = append(bits, bit.One)
		} else {
			bits = append(bits, bit.Zero)
		}
	}
	bits = append(bits, bit.One) // stop
	return bits
}

func wordBits(word uint64, width int) []bit.Bit {
	bits := make([]bit.Bit, width)
	for i := 0; i < width; i++ {
		if (word>>uint(i))&1 == 1 {
			bits[i] = bit.One
		} else {
			bits[i] = bit.Zero
		}
	}
	return bits
}

func expandBit(b bit.Bit, n int, out []bit.Bit) []bit.Bit {
	for i := 0; i < n; i++ {
		out = append(out, b)
	}
	return out
}

// leadIn returns the lead-in bit stream: the Morse-coded station ID
// (SPEC_FULL.md section 4.7), if cfg.StationID is set, expanded to wire
// timing at the modem's own baud rate and spliced in immediately before
// the plain MARK idle carrier, otherwise just the plain carrier.
func (m *Modem) leadIn() []bit.Bit {
	var bits []bit.Bit
	for _, b := range morse.Encode(m.cfg.StationID) {
		bits = expandBit(b, m.samplesPerBit, bits)
	}
	return expandBit(bit.One, m.leadSamples(), bits)
}

// leadOut is leadIn's mirror for the trailing idle period: plain MARK
// carrier first, then the station ID.
func (m *Modem) leadOut() []bit.Bit {
	bits := expandBit(bit.One, m.leadSamples(), nil)
	for _, b := range morse.Encode(m.cfg.StationID) {
		bits = expandBit(b, m.samplesPerBit, bits)
	}
	return bits
}

// Encode renders data as a raw byte stream (spec.md section 4.5's
// framing, one start bit + 8 data bits LSB-first + one stop bit per
// byte, no CRC) bracketed by MARK lead-in/lead-out carrier.
func (m *Modem) Encode(data []byte) []pcm.Sample {
	bits := m.leadIn()
	for _, b := range data {
		for _, wireBit := range byteBits(b) {
			bits = expandBit(wireBit, m.samplesPerBit, bits)
		}
	}
	bits = append(bits, m.leadOut()...)

	osc := oscillator.New(m.cfg.SampleRate, m.cfg.UpperFrequency, m.cfg.LowerFrequency, Amplitude)
	return osc.Generate(bits)
}

// EncodePacket renders each data word as a CRC-16-framed packet (spec.md
// sections 4.4/4.6), bracketed by MARK lead-in/lead-out carrier.
func (m *Modem) EncodePacket(words []uint64, dataBits int) ([]pcm.Sample, error) {
	frm, err := framer.New(dataBits)
	if err != nil {
		return nil, err
	}

	bits := m.leadIn()
	for _, word := range words {
		frame := frm.Build(word)
		if frame == 0 {
			return nil, fmt.Errorf("%w: packet word built as zero", ErrInternal)
		}
		for _, wireBit := range wordBits(frame, frm.FrameBits()) {
			bits = expandBit(wireBit, m.samplesPerBit, bits)
		}
	}
	bits = append(bits, m.leadOut()...)

	osc := oscillator.New(m.cfg.SampleRate, m.cfg.UpperFrequency, m.cfg.LowerFrequency, Amplitude)
	return osc.Generate(bits), nil
}

// receiveBits runs the two band-pass filters and envelope followers
// over samples and returns one sliced framefsm.Bit per input sample.
func (m *Modem) receiveBits(samples []pcm.Sample, sink errsink.Sink) []framefsm.Bit {
	upper := biquad.New(m.upperCoef)
	lower := biquad.New(m.lowerCoef)

	upperOut := make([]pcm.Sample, len(samples))
	lowerOut := make([]pcm.Sample, len(samples))
	upper.Flow(samples, upperOut)
	lower.Flow(samples, lowerOut)

	upperEnv := envelope.New(m.decay)
	lowerEnv := envelope.New(m.decay)
	noiseFloor := float64(pcm.FromInt16(Amplitude)) * noiseFloorFraction

	bits := make([]framefsm.Bit, len(samples))
	for i := range samples {
		u := upperEnv.Step(upperOut[i])
		l := lowerEnv.Step(lowerOut[i])
		bits[i] = framefsm.Slice(u, l, noiseFloor)
	}
	if c1, c2 := upper.Clips(), lower.Clips(); c1+c2 > 0 {
		for i := uint64(0); i < c1+c2; i++ {
			sink.OnClip()
		}
	}
	return bits
}

// Decode runs the full floating-point receive pipeline and returns the
// decoded byte stream (spec.md section 4.5, no CRC). sink may be nil to
// discard diagnostics.
func (m *Modem) Decode(samples []pcm.Sample, sink errsink.Sink) []byte {
	if sink == nil {
		sink = errsink.Discard
	}
	bits := m.receiveBits(samples, sink)
	fsm := framefsm.New(m.halfBit, 8, sink)
	return fsm.Flow(bits, nil)
}

// DecodePacket runs the full floating-point receive pipeline in
// CRC-packet mode (spec.md section 4.6) and returns the CRC-verified
// data words.
func (m *Modem) DecodePacket(samples []pcm.Sample, dataBits int, sink errsink.Sink) ([]uint64, error) {
	if sink == nil {
		sink = errsink.Discard
	}
	bits := m.receiveBits(samples, sink)

	fsmBits := make([]framefsm.Bit, len(bits))
	copy(fsmBits, bits)

	fsm, err := packetfsm.New(m.halfBit, dataBits, sink)
	if err != nil {
		return nil, err
	}
	return fsm.Flow(fsmBits, nil), nil
}

// fixedFormat is the Q-format used for the fixed-point-equivalence
// path: 8 non-fractional bits comfortably bound a 16-bit PCM sample
// scaled by filter coefficients whose magnitude rarely exceeds 4, with
// the remaining bits fractional, matching SPEC_FULL.md section 3's
// "unused bits" headroom band for safe intermediate multiplication.
var fixedFormat = fixedpoint.Format{NonFractionalBits: 8, FractionalBits: 23}

// DecodeFixed runs the fixed-point-equivalent receive pipeline —
// biquad.FixedFilter and envelope.FixedFollower instead of their
// float64 twins — and must decode to the same byte stream as Decode for
// any input, per SPEC_FULL.md section 3's floating-point/fixed-point
// equivalence obligation.
func (m *Modem) DecodeFixed(samples []pcm.Sample, sink errsink.Sink) ([]byte, error) {
	if sink == nil {
		sink = errsink.Discard
	}

	upperFixed := m.upperCoef.ToFixed(fixedFormat)
	lowerFixed := m.lowerCoef.ToFixed(fixedFormat)
	upper := biquad.NewFixed(upperFixed, fixedFormat)
	lower := biquad.NewFixed(lowerFixed, fixedFormat)

	in := make([]fixedpoint.Value, len(samples))
	for i, s := range samples {
		s16, _ := s.ToInt16()
		in[i] = fixedFormat.FromSample16(s16)
	}

	upperOut := make([]fixedpoint.Value, len(in))
	lowerOut := make([]fixedpoint.Value, len(in))
	upper.Flow(in, upperOut)
	lower.Flow(in, lowerOut)

	upperEnv := envelope.NewFixed(m.cfg.RCDecayPerBit, m.cfg.SampleRate, m.cfg.BaudRate, fixedFormat)
	lowerEnv := envelope.NewFixed(m.cfg.RCDecayPerBit, m.cfg.SampleRate, m.cfg.BaudRate, fixedFormat)
	floorLevel := float64(Amplitude) * noiseFloorFraction
	noiseFloor := fixedFormat.FromSample16(int16(floorLevel))

	bits := make([]framefsm.Bit, len(in))
	for i := range in {
		u := upperEnv.Step(upperOut[i])
		l := lowerEnv.Step(lowerOut[i])
		sum := u.Add(l)
		switch {
		case sum.Compare(noiseFloor) < 0:
			bits[i] = framefsm.Invalid
		case u.Compare(l) > 0:
			bits[i] = framefsm.One
		case l.Compare(u) > 0:
			bits[i] = framefsm.Zero
		default:
			bits[i] = framefsm.Invalid
		}
	}

	fsm := framefsm.New(m.halfBit, 8, sink)
	return fsm.Flow(bits, nil), nil
}
