// Package packetfsm implements the optional CRC-packet de-framer from
// spec.md section 4.6: the same start/stop synchronization as
// internal/framefsm, but instead of emitting bytes it accumulates a
// full D+18-bit frame, splits out the data and (reversed) CRC fields,
// and emits the data word only when the recomputed CRC matches.
package packetfsm

import (
	"github.com/jwhitham-go/comfilter/internal/errsink"
	"github.com/jwhitham-go/comfilter/internal/framefsm"
	"github.com/jwhitham-go/comfilter/internal/framer"
)

// FSM is the packet-mode receive state machine for one data width. It
// reuses framefsm.Bit/State's synchronization shape (WAIT_HIGH through
// CHECK_START are identical) but replaces the byte accumulator with a
// dataBits+16-bit word and a CRC check in place of the plain stop-bit
// check.
type FSM struct {
	halfBit  uint32
	dataBits int
	frm      *framer.Framer
	sink     errsink.Sink

	state     framefsm.State
	countdown uint32
	bitCount  int
	bitPos    int
	word      uint64
}

// New returns a packet FSM for the given half-bit sample count and data
// payload width (matching the framer.Framer that produced the frames it
// will decode).
func New(halfBit uint32, dataBits int, sink errsink.Sink) (*FSM, error) {
	frm, err := framer.New(dataBits)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = errsink.Discard
	}
	return &FSM{halfBit: halfBit, dataBits: dataBits, frm: frm, sink: sink, state: framefsm.WaitHigh}, nil
}

// State returns the FSM's current synchronization state.
func (f *FSM) State() framefsm.State {
	return f.state
}

// Step advances the FSM by one sliced bit. It returns the decoded data
// word and true only when a full frame's CRC matches; a CRC mismatch or
// bad stop bit is reported to the sink and no word is returned.
func (f *FSM) Step(bit framefsm.Bit) (data uint64, emitted bool) {
	switch f.state {
	case framefsm.WaitHigh, framefsm.Stop, framefsm.StopError:
		if bit == framefsm.One {
			f.state = framefsm.WaitLow
		} else {
			f.state = framefsm.WaitHigh
		}

	case framefsm.WaitLow, framefsm.StartError:
		if bit == framefsm.One {
			f.state = framefsm.WaitLow
		} else {
			f.state = framefsm.Start
			f.countdown = f.halfBit
		}

	case framefsm.Start, framefsm.CheckStart:
		switch bit {
		case framefsm.One:
			f.state = framefsm.StartError
			f.sink.OnFramingError(errsink.StartError)
		case framefsm.Invalid:
			f.state = framefsm.StartError
			f.sink.OnFramingError(errsink.InvalidBit)
		default:
			f.countdown--
			if f.countdown == 0 {
				f.countdown = f.halfBit * 2
				f.state = framefsm.WaitNext
				f.bitCount = f.dataBits + 16 + 1
				f.bitPos = 0
				f.word = 0
			} else {
				f.state = framefsm.CheckStart
			}
		}

	case framefsm.WaitNext, framefsm.Data0, framefsm.Data1:
		f.countdown--
		if f.countdown != 0 {
			f.state = framefsm.WaitNext
			break
		}
		f.countdown = f.halfBit * 2
		if bit == framefsm.Invalid {
			f.sink.OnFramingError(errsink.InvalidBit)
			f.state = framefsm.StopError
			break
		}
		f.bitCount--
		if f.bitCount > 0 {
			if bit == framefsm.One {
				f.word |= uint64(1) << uint(f.bitPos)
				f.state = framefsm.Data1
			} else {
				f.state = framefsm.Data0
			}
			f.bitPos++
		} else {
			if bit != framefsm.One {
				f.sink.OnFramingError(errsink.StopBitError)
				f.state = framefsm.StopError
				break
			}
			f.state = framefsm.Stop
			frameData := f.word & ((uint64(1) << uint(f.dataBits)) - 1)
			crc := uint16(f.word >> uint(f.dataBits))
			if f.frm.Verify(frameData, crc) {
				data = frameData
				emitted = true
			} else {
				f.sink.OnCRCMismatch()
			}
		}
	}
	return data, emitted
}

// Flow streams bits and returns the CRC-verified data words in order,
// appended to dst.
func (f *FSM) Flow(bits []framefsm.Bit, dst []uint64) []uint64 {
	for _, b := range bits {
		if word, ok := f.Step(b); ok {
			dst = append(dst, word)
		}
	}
	return dst
}
