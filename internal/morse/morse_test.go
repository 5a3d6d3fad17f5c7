package morse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwhitham-go/comfilter/internal/bit"
)

func Test_Lookup_KnownLetters(t *testing.T) {
	enc, ok := Lookup('A')
	require.True(t, ok)
	assert.Equal(t, ".-", enc)

	enc, ok = Lookup('a')
	require.True(t, ok)
	assert.Equal(t, ".-", enc)

	_, ok = Lookup('~')
	assert.False(t, ok)
}

// Test_Units_SpaceConvention checks the teacher's documented quirk:
// a space is costed like any other character, 1 unit with the usual
// 3-unit gap on each side, not the conventional 7.
func Test_Units_SpaceConvention(t *testing.T) {
	assert.Equal(t, 1, Units("E"))
	assert.Equal(t, 1+3+1+3+1, Units("E E"))
	assert.Equal(t, 1+3+1, Units("EE"))
}

func Test_Send_ProducesExpectedSampleCount(t *testing.T) {
	const sampleRate = 48000.0
	const wpm = 20.0
	g := NewGenerator(sampleRate, wpm, 20000)

	samples := g.Send("E", 0, 0)
	expectedMs := float64(Units("E")) * 1200.0 / wpm
	expectedSamples := int(expectedMs*sampleRate/1000.0 + 0.5)
	assert.InDelta(t, expectedSamples, len(samples), 1)
}

func Test_Send_TxDelayAndTailAddSilence(t *testing.T) {
	const sampleRate = 8000.0
	g := NewGenerator(sampleRate, 20, 20000)

	withDelays := g.Send("E", 100, 50)
	bare := g.Send("E", 0, 0)
	assert.Greater(t, len(withDelays), len(bare))
}

func Test_Send_UnknownCharacterIsOneUnitOfSilence(t *testing.T) {
	assert.Equal(t, 1, unitsForChar('~'))
}

// Test_Encode_SingleLetter checks the literal baud-unit timing: E is a
// single dit, so Encode("E") is exactly one ONE bit.
func Test_Encode_SingleLetter(t *testing.T) {
	bits := Encode("E")
	require.Equal(t, []bit.Bit{bit.One}, bits)
}

// Test_Encode_DahAndElementGap checks T (a single dah, 3 baud) and that
// a two-symbol letter inserts exactly one inter-element gap bit.
func Test_Encode_DahAndElementGap(t *testing.T) {
	bits := Encode("T")
	require.Equal(t, []bit.Bit{bit.One, bit.One, bit.One}, bits)

	// A is dit-dah: 1 ONE, 1 gap ZERO, 3 ONEs.
	bits = Encode("A")
	want := []bit.Bit{bit.One, bit.Zero, bit.One, bit.One, bit.One}
	require.Equal(t, want, bits)
}

// Test_Encode_InterCharacterGap checks the 3-baud gap between two
// characters and the 7-baud gap a literal space renders as.
func Test_Encode_InterCharacterGap(t *testing.T) {
	bits := Encode("EE")
	// E, 3-baud inter-character gap, E
	want := append([]bit.Bit{bit.One}, zeros(3)...)
	want = append(want, bit.One)
	require.Equal(t, want, bits)

	bits = Encode("E E")
	want = append([]bit.Bit{bit.One}, zeros(7)...)
	want = append(want, bit.One)
	require.Equal(t, want, bits)
}

// Test_Encode_SkipsUnrecognizedCharacters checks that a character with
// no Morse mapping renders no bits at all, rather than a guessed tone.
func Test_Encode_SkipsUnrecognizedCharacters(t *testing.T) {
	assert.Empty(t, Encode("~"))

	bits := Encode("E~")
	require.NotEmpty(t, bits)
	assert.Equal(t, bit.One, bits[0])
	for _, b := range bits[1:] {
		assert.Equal(t, bit.Zero, b)
	}
}

func zeros(n int) []bit.Bit {
	out := make([]bit.Bit, n)
	for i := range out {
		out[i] = bit.Zero
	}
	return out
}
