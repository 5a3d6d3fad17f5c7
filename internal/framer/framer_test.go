package framer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func Test_New_RejectsOutOfRangeDataBits(t *testing.T) {
	_, err := New(0)
	assert.ErrorIs(t, err, ErrDataBitsRange)

	_, err = New(47)
	assert.ErrorIs(t, err, ErrDataBitsRange)

	_, err = New(46)
	assert.NoError(t, err)
}

// Test_Build_StartStopAndWidth checks spec.md section 8's packet framer
// invariant: bit 0 (start) is 0, bit D+17 (stop) is 1, total width is
// D+18.
func Test_Build_StartStopAndWidth(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		dataBits := rapid.IntRange(1, 32).Draw(t, "dataBits")
		f, err := New(dataBits)
		require.NoError(t, err)

		data := rapid.Uint64Range(0, (uint64(1)<<uint(dataBits))-1).Draw(t, "data")
		word := f.Build(data)

		assert.Equal(t, uint64(0), word&1, "start bit must be 0")
		stopBitPos := dataBits + 17
		assert.Equal(t, uint64(1), (word>>uint(stopBitPos))&1, "stop bit must be 1")

		width := f.FrameBits()
		if width < 64 {
			assert.Equal(t, uint64(0), word>>uint(width), "no bits set beyond the frame width")
		}
		assert.NotZero(t, word)
	})
}

// Test_Build_CRCRoundTrip checks the CRC round-trip law from spec.md
// section 8: recomputing the CRC over the extracted data bits and
// reversing it must reproduce the transmitted CRC field.
func Test_Build_CRCRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		dataBits := rapid.IntRange(1, 32).Draw(t, "dataBits")
		f, err := New(dataBits)
		require.NoError(t, err)

		data := rapid.Uint64Range(0, (uint64(1)<<uint(dataBits))-1).Draw(t, "data")
		word := f.Build(data)

		// strip the start bit
		word >>= 1
		gotData := word & ((uint64(1) << uint(dataBits)) - 1)
		assert.Equal(t, data, gotData)

		gotCRC := uint16(word >> uint(dataBits) & ((1 << 16) - 1))
		assert.True(t, f.Verify(gotData, gotCRC))
	})
}

func Test_CRC16_KnownVector(t *testing.T) {
	f, err := New(32)
	require.NoError(t, err)

	crc := f.CRC16(0xDEADBEEF)
	// 0x151C is what the LSB-first algorithm yields for this payload;
	// pinning the literal guards the exact bit ordering against regression.
	assert.Equal(t, uint16(0x151C), crc)
}

func Test_Verify_DetectsCorruption(t *testing.T) {
	f, err := New(8)
	require.NoError(t, err)

	word := f.Build(0x41)
	word >>= 1
	data := word & 0xFF
	crc := uint16(word >> 8 & 0xFFFF)

	assert.True(t, f.Verify(data, crc))
	assert.False(t, f.Verify(data^0x01, crc))
	assert.False(t, f.Verify(data, crc^0x0001))
}

func Test_ReverseBits(t *testing.T) {
	assert.Equal(t, uint16(0x8000), reverseBits(0x0001, 16))
	assert.Equal(t, uint16(0x0001), reverseBits(0x8000, 16))
	assert.Equal(t, uint16(0b1100), reverseBits(0b0011, 4))
}
