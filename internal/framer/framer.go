// Package framer implements the transmit-side packet framer: CRC-16 over
// the data payload, bit-reversed and appended, bracketed by a start bit
// and a stop bit. Grounded on original_source/c/packetgen.c's
// packetgen_build_bits, which builds exactly this 64-bit word.
package framer

import "errors"

// ErrDataBitsRange is returned when the configured data width does not
// leave room for the CRC, start and stop bits in a 64-bit word.
var ErrDataBitsRange = errors.New("framer: data bits must be in [1, 46]")

const (
	crcBits  = 16
	polynomial = 0x8005
)

// Framer builds CRC-16-framed bit words for a fixed data payload width.
type Framer struct {
	dataBits int
}

// New returns a Framer for the given data payload width in bits. The
// total frame width is dataBits+18 (start + data + CRC + stop), which
// must fit in 64 bits.
func New(dataBits int) (*Framer, error) {
	if dataBits < 1 || dataBits+18 > 64 {
		return nil, ErrDataBitsRange
	}
	return &Framer{dataBits: dataBits}, nil
}

// DataBits returns the configured payload width.
func (f *Framer) DataBits() int {
	return f.dataBits
}

// FrameBits returns the total width of one framed word (dataBits + 18).
func (f *Framer) FrameBits() int {
	return f.dataBits + 18
}

// CRC16 computes the CRC-16/0x8005 of the low dataBits bits of data,
// processing bits LSB-first: for each bit, XOR it with the MSB of the
// running CRC register, shift the register left by one, and XOR with
// the polynomial if that XOR result has bit 0 set. Grounded on
// packetgen_build_bits's crc loop.
func (f *Framer) CRC16(data uint64) uint16 {
	return crc16(data, f.dataBits)
}

func crc16(data uint64, dataBits int) uint16 {
	data &= (uint64(1) << uint(dataBits)) - 1
	var crc uint16
	for i := 0; i < dataBits; i++ {
		bitFlag := uint16(data>>uint(i)) ^ (crc >> (crcBits - 1))
		crc <<= 1
		if bitFlag&1 != 0 {
			crc ^= polynomial
		}
	}
	return crc
}

// reverseBits reverses the low n bits of v.
func reverseBits(v uint16, n int) uint16 {
	var r uint16
	for i := 0; i < n; i++ {
		r |= ((v >> uint(i)) & 1) << uint(n-1-i)
	}
	return r
}

// Build assembles one framed word from a D-bit data payload: mask to
// dataBits, compute and bit-reverse the CRC, append a stop bit at
// position D+16, then shift left by one to make room for the start bit
// (0) at the LSB. The result is always non-zero (the stop bit alone
// guarantees this), matching spec.md section 4.4's guarantee.
func (f *Framer) Build(data uint64) uint64 {
	masked := data & ((uint64(1) << uint(f.dataBits)) - 1)
	crc := f.CRC16(masked)
	reversed := reverseBits(crc, crcBits)

	word := masked
	word |= uint64(reversed) << uint(f.dataBits)
	// stop bit
	word |= uint64(1) << uint(f.dataBits+crcBits)
	// start bit: shift everything up by one, leaving bit 0 as zero
	word <<= 1
	return word
}

// Verify recomputes the CRC over the dataBits low bits of a received
// frame (data bits only, without start/stop/CRC) and reports whether it
// matches the received, bit-reversed CRC field. Used by the optional
// packet de-framer (spec.md section 4.6) to validate a received frame
// without rebuilding it via Build.
func (f *Framer) Verify(data uint64, receivedCRC uint16) bool {
	want := f.CRC16(data)
	return reverseBits(want, crcBits) == receivedCRC
}
