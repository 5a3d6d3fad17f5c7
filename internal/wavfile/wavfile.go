// Package wavfile reads and writes the RIFF/WAVE PCM container at the
// exact byte layout in spec.md section 6, grounded on
// original_source/wave.h's t_header struct (the same field order and
// offsets, translated from a packed C struct into explicit
// little-endian field reads/writes).
package wavfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	formatPCM     = 1
	bitsPerSample = 16
	fmtChunkLen   = 16
	HeaderSize    = 44
)

// ErrBadHeader is returned for any literal mismatch or internal
// consistency failure in a WAV header — spec.md section 6: "MUST refuse
// input that fails any literal or consistency check."
var ErrBadHeader = errors.New("wavfile: invalid or inconsistent header")

// ErrUnsupportedFormat is returned for a structurally valid header that
// nonetheless isn't 16-bit PCM, which is all this package supports.
var ErrUnsupportedFormat = errors.New("wavfile: only 16-bit PCM is supported")

// Header describes a mono or stereo 16-bit PCM WAV stream. The
// remaining header fields (byte rate, block align, bits per sample) are
// always derived, never stored independently, so a Header can never
// itself be internally inconsistent.
type Header struct {
	Channels   uint16 // 1 (mono) or 2 (stereo, for debug)
	SampleRate uint32
}

func (h Header) blockAlign() uint16 {
	return h.Channels * (bitsPerSample / 8)
}

func (h Header) byteRate() uint32 {
	return h.SampleRate * uint32(h.blockAlign())
}

// Read parses a RIFF/WAVE header and its interleaved 16-bit PCM sample
// data, refusing anything that does not match spec.md section 6's
// literal fields or derived-field consistency.
func Read(r io.Reader) (Header, []int16, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, nil, fmt.Errorf("wavfile: reading header: %w", err)
	}

	if string(buf[0:4]) != "RIFF" {
		return Header{}, nil, fmt.Errorf("%w: missing RIFF tag", ErrBadHeader)
	}
	fileSize := binary.LittleEndian.Uint32(buf[4:8])
	if string(buf[8:12]) != "WAVE" {
		return Header{}, nil, fmt.Errorf("%w: missing WAVE tag", ErrBadHeader)
	}
	if string(buf[12:16]) != "fmt " {
		return Header{}, nil, fmt.Errorf("%w: missing fmt chunk", ErrBadHeader)
	}
	if fmtLen := binary.LittleEndian.Uint32(buf[16:20]); fmtLen != fmtChunkLen {
		return Header{}, nil, fmt.Errorf("%w: format chunk length %d, want %d", ErrBadHeader, fmtLen, fmtChunkLen)
	}
	if typ := binary.LittleEndian.Uint16(buf[20:22]); typ != formatPCM {
		return Header{}, nil, fmt.Errorf("%w: format type %d, want PCM (1)", ErrUnsupportedFormat, typ)
	}

	channels := binary.LittleEndian.Uint16(buf[22:24])
	if channels != 1 && channels != 2 {
		return Header{}, nil, fmt.Errorf("%w: %d channels, want 1 or 2", ErrBadHeader, channels)
	}
	sampleRate := binary.LittleEndian.Uint32(buf[24:28])
	byteRate := binary.LittleEndian.Uint32(buf[28:32])
	blockAlign := binary.LittleEndian.Uint16(buf[32:34])
	bits := binary.LittleEndian.Uint16(buf[34:36])
	if bits != bitsPerSample {
		return Header{}, nil, fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, bits)
	}
	if string(buf[36:40]) != "data" {
		return Header{}, nil, fmt.Errorf("%w: missing data chunk", ErrBadHeader)
	}
	dataSize := binary.LittleEndian.Uint32(buf[40:44])

	h := Header{Channels: channels, SampleRate: sampleRate}
	if blockAlign != h.blockAlign() {
		return Header{}, nil, fmt.Errorf("%w: bytes_per_frame %d inconsistent with %d channels", ErrBadHeader, blockAlign, channels)
	}
	if byteRate != h.byteRate() {
		return Header{}, nil, fmt.Errorf("%w: bytes_per_second %d inconsistent with rate/frame size", ErrBadHeader, byteRate)
	}
	if fileSize != dataSize+uint32(HeaderSize)-8 {
		return Header{}, nil, fmt.Errorf("%w: file_size %d inconsistent with data_size %d", ErrBadHeader, fileSize, dataSize)
	}
	if dataSize%uint32(blockAlign) != 0 {
		return Header{}, nil, fmt.Errorf("%w: data_size %d not a multiple of the frame size", ErrBadHeader, dataSize)
	}

	raw := make([]byte, dataSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return Header{}, nil, fmt.Errorf("wavfile: reading sample data: %w", err)
	}
	samples := make([]int16, dataSize/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return h, samples, nil
}

// Write emits a RIFF/WAVE header followed by the given interleaved
// 16-bit samples, deriving every size/rate field from h and
// len(samples) so the result always satisfies Read's consistency
// checks.
func Write(w io.Writer, h Header, samples []int16) error {
	if h.Channels != 1 && h.Channels != 2 {
		return fmt.Errorf("%w: %d channels, want 1 or 2", ErrBadHeader, h.Channels)
	}

	dataSize := uint32(len(samples)) * 2
	var buf [HeaderSize]byte
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], dataSize+uint32(HeaderSize)-8)
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], fmtChunkLen)
	binary.LittleEndian.PutUint16(buf[20:22], formatPCM)
	binary.LittleEndian.PutUint16(buf[22:24], h.Channels)
	binary.LittleEndian.PutUint32(buf[24:28], h.SampleRate)
	binary.LittleEndian.PutUint32(buf[28:32], h.byteRate())
	binary.LittleEndian.PutUint16(buf[32:34], h.blockAlign())
	binary.LittleEndian.PutUint16(buf[34:36], bitsPerSample)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], dataSize)

	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("wavfile: writing header: %w", err)
	}

	raw := make([]byte, dataSize)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}
	_, err := w.Write(raw)
	if err != nil {
		err = fmt.Errorf("wavfile: writing sample data: %w", err)
	}
	return err
}
