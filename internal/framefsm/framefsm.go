// Package framefsm implements the receive-side start/stop bit framing
// state machine, grounded on original_source/model/sigdec.cpp's
// serial_decode: the same ten states, the same half-bit countdown
// scheme for mid-bit sampling, and the same STOP/STOP_ERROR/START_ERROR
// recovery behaviour. The number of data bits is a New parameter rather
// than fixed at 8, but the accumulator is a single byte filled from bit 7
// downward, so the emitted byte holds the data bits at positions 0
// through 7 only when that number is 8.
package framefsm

import "github.com/jwhitham-go/comfilter/internal/errsink"

// State names the ten states from spec.md section 4.5.
type State int

const (
	WaitHigh State = iota
	WaitLow
	Start
	CheckStart
	WaitNext
	Data0
	Data1
	Stop
	StopError
	StartError
)

func (s State) String() string {
	switch s {
	case WaitHigh:
		return "WAIT_HIGH"
	case WaitLow:
		return "WAIT_LOW"
	case Start:
		return "START"
	case CheckStart:
		return "CHECK_START"
	case WaitNext:
		return "WAIT_NEXT"
	case Data0:
		return "DATA_0"
	case Data1:
		return "DATA_1"
	case Stop:
		return "STOP"
	case StopError:
		return "STOP_ERROR"
	case StartError:
		return "START_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Slice turns a MARK envelope level U and a SPACE envelope level L into
// a bit.Bit: ONE if U > L, ZERO if L > U, INVALID on a tie or when the
// combined amplitude U+L does not reach noiseFloor. This resolves
// spec.md's open question on noise-floor policy with the "U > L slicer
// with a combined-amplitude gate" variant it names as the simplest.
func Slice(u, l, noiseFloor float64) Bit {
	if u+l < noiseFloor {
		return Invalid
	}
	switch {
	case u > l:
		return One
	case l > u:
		return Zero
	default:
		return Invalid
	}
}

// Bit mirrors bit.Bit locally to avoid importing internal/bit just for
// the slicer; FSM callers pass the framefsm.Bit values Slice produces.
// Kept as a distinct type, with no conversion to or from bit.Bit, so
// framefsm has no dependency on the oscillator's bit package.
type Bit int

const (
	Zero Bit = iota
	One
	Invalid
)

// FSM is the receive framing state machine for one data width. One
// instance owns exactly one receive stream; it must not be shared
// across streams (spec.md section 4: "Lifetimes... mutated only by the
// single thread processing samples in arrival order").
type FSM struct {
	halfBit    uint32
	dataBits   int
	state      State
	countdown  uint32
	bitCount   int
	accum      byte
	sink       errsink.Sink
}

// New returns an FSM for the given half-bit sample count H = (Fs/baud)/2
// and data payload width in bits (9 in the original fixed 8-bit-plus-stop
// design; spec.md's table writes bit_count <- 9 for an implicit 8 data
// bits, so dataBits here is the number of DATA_0/DATA_1 bits collected,
// 8 for a byte stream). sink receives framing-error notifications; pass
// errsink.Discard if diagnostics aren't needed.
func New(halfBit uint32, dataBits int, sink errsink.Sink) *FSM {
	if sink == nil {
		sink = errsink.Discard
	}
	return &FSM{halfBit: halfBit, dataBits: dataBits, state: WaitHigh, sink: sink}
}

// State returns the FSM's current state, mainly for tests and the
// debug trace (SPEC_FULL.md section 10).
func (f *FSM) State() State {
	return f.state
}

// Step advances the FSM by one sample's sliced bit. It returns the
// decoded byte and true if a STOP transition just emitted one.
func (f *FSM) Step(bit Bit) (out byte, emitted bool) {
	switch f.state {
	case WaitHigh, Stop, StopError:
		if bit == One {
			f.state = WaitLow
		} else {
			f.state = WaitHigh
		}

	case WaitLow, StartError:
		if bit == One {
			f.state = WaitLow
		} else {
			f.state = Start
			f.countdown = f.halfBit
		}

	case Start, CheckStart:
		switch bit {
		case One:
			f.state = StartError
			f.sink.OnFramingError(errsink.StartError)
		case Invalid:
			f.state = StartError
			f.sink.OnFramingError(errsink.InvalidBit)
		default:
			f.countdown--
			if f.countdown == 0 {
				f.countdown = f.halfBit * 2
				f.state = WaitNext
				f.bitCount = f.dataBits + 1
				f.accum = 0
			} else {
				f.state = CheckStart
			}
		}

	case WaitNext, Data0, Data1:
		f.countdown--
		if f.countdown != 0 {
			f.state = WaitNext
			break
		}
		f.countdown = f.halfBit * 2
		if bit == Invalid {
			f.sink.OnFramingError(errsink.InvalidBit)
			f.state = StopError
			break
		}
		f.bitCount--
		if f.bitCount > 0 {
			f.accum >>= 1
			if bit == One {
				f.accum |= 0x80
				f.state = Data1
			} else {
				f.state = Data0
			}
		} else {
			if bit == One {
				out = f.accum
				emitted = true
				f.state = Stop
			} else {
				f.sink.OnFramingError(errsink.StopBitError)
				f.state = StopError
			}
		}
	}
	return out, emitted
}

// Flow streams bits and returns the decoded bytes in order, appended to
// dst.
func (f *FSM) Flow(bits []Bit, dst []byte) []byte {
	for _, b := range bits {
		if out, ok := f.Step(b); ok {
			dst = append(dst, out)
		}
	}
	return dst
}
