// Package morse generates a Morse code station identification tone,
// grounded on the teacher's morse.go (morse_send/morse_tone/morse_quiet
// and the MORSE lookup table), reimplemented on top of
// internal/oscillator.Oscillator instead of the teacher's private sine
// table and phase accumulator.
package morse

import (
	"unicode"

	"github.com/jwhitham-go/comfilter/internal/bit"
	"github.com/jwhitham-go/comfilter/internal/oscillator"
	"github.com/jwhitham-go/comfilter/internal/pcm"
)

// Tone is the standard CW identification tone frequency used by the
// teacher (MORSE_TONE).
const Tone = 800.0

type code struct {
	ch  rune
	enc string
}

// table is the International Morse Code alphanumeric table, carried
// over verbatim from the teacher's MORSE table (ITU letters, digits and
// the ARRL/Wikipedia punctuation entries).
var table = []code{
	{'A', ".-"}, {'B', "-..."}, {'C', "-.-."}, {'D', "-.."}, {'E', "."},
	{'F', "..-."}, {'G', "--."}, {'H', "...."}, {'I', ".."}, {'J', ".---"},
	{'K', "-.-"}, {'L', ".-.."}, {'M', "--"}, {'N', "-."}, {'O', "---"},
	{'P', ".--."}, {'Q', "--.-"}, {'R', ".-."}, {'S', "..."}, {'T', "-"},
	{'U', "..-"}, {'V', "...-"}, {'W', ".--"}, {'X', "-..-"}, {'Y', "-.--"},
	{'Z', "--.."},
	{'1', ".----"}, {'2', "..---"}, {'3', "...--"}, {'4', "....-"}, {'5', "....."},
	{'6', "-...."}, {'7', "--..."}, {'8', "---.."}, {'9', "----."}, {'0', "-----"},
	{'.', ".-.-.-"}, {',', "--..--"}, {'?', "..--.."}, {'/', "-..-."},
	{'=', "-...-"}, {'-', "-....-"}, {')', "-.--.-"}, {':', "---..."},
	{';', "-.-.-."}, {'"', ".-..-."}, {'\'', ".----."}, {'$', "...-..-"},
	{'!', "-.-.--"}, {'(', "-.--."}, {'&', ".-..."}, {'+', ".-.-."},
	{'_', "..--.-"}, {'@', ".--.-."},
}

func lookup(ch rune) (string, bool) {
	ch = unicode.ToUpper(ch)
	for _, c := range table {
		if c.ch == ch {
			return c.enc, true
		}
	}
	return "", false
}

// Generator renders a station ID string into PCM samples at a given
// speed (words per minute) and sample rate, grounded on morse_send's
// dit/dah/space timing: one time unit per dit, three per dah, one
// between symbols of a character, three between characters, and (the
// teacher's documented quirk) one unit for an unrecognized character or
// space rather than the conventional seven.
type Generator struct {
	sampleRate float64
	wpm        float64
	amplitude  int16
	osc        *oscillator.Oscillator
}

// NewGenerator returns a Generator for the given sample rate, speed in
// words per minute, and 16-bit PCM amplitude.
func NewGenerator(sampleRate, wpm float64, amplitude int16) *Generator {
	return &Generator{
		sampleRate: sampleRate,
		wpm:        wpm,
		amplitude:  amplitude,
		osc:        oscillator.New(sampleRate, Tone, Tone, amplitude),
	}
}

// unitMillis is the teacher's TIME_UNITS_TO_MS: 1200ms/wpm per unit,
// the standard PARIS timing convention.
func (g *Generator) unitMillis(units int) float64 {
	return float64(units) * 1200.0 / g.wpm
}

func (g *Generator) samplesFor(units int) int {
	n := int(g.unitMillis(units)*g.sampleRate/1000.0 + 0.5)
	if n < 0 {
		n = 0
	}
	return n
}

func (g *Generator) tone(units int, out []pcm.Sample) []pcm.Sample {
	n := g.samplesFor(units)
	for i := 0; i < n; i++ {
		out = append(out, g.osc.Next(bit.One))
	}
	return out
}

func (g *Generator) quiet(units int, out []pcm.Sample) []pcm.Sample {
	n := g.samplesFor(units)
	for i := 0; i < n; i++ {
		out = append(out, pcm.Sample(0))
	}
	return out
}

// Send renders str as a Morse code tone burst, with txdelay and txtail
// milliseconds of silence before and after, matching morse_send's
// signature and behaviour (minus the radio PTT/channel bookkeeping,
// which this package has no use for).
func (g *Generator) Send(str string, txdelayMs, txtailMs int) []pcm.Sample {
	var out []pcm.Sample
	out = g.quietMs(txdelayMs, out)

	runes := []rune(str)
	for i, ch := range runes {
		if enc, ok := lookup(ch); ok {
			for j, sym := range enc {
				if sym == '.' {
					out = g.tone(1, out)
				} else {
					out = g.tone(3, out)
				}
				if j != len(enc)-1 {
					out = g.quiet(1, out)
				}
			}
		} else {
			out = g.quiet(1, out)
		}
		if i != len(runes)-1 {
			out = g.quiet(3, out)
		}
	}

	out = g.quietMs(txtailMs, out)
	return out
}

func (g *Generator) quietMs(ms int, out []pcm.Sample) []pcm.Sample {
	n := int(float64(ms)*g.sampleRate/1000.0 + 0.5)
	for i := 0; i < n; i++ {
		out = append(out, pcm.Sample(0))
	}
	return out
}

// Units returns the total time-unit count Send will render str as,
// mirroring morse_units_str — used by tests and callers that need to
// predict duration without rendering samples.
func Units(str string) int {
	runes := []rune(str)
	units := (len(runes) - 1) * 3
	for _, ch := range runes {
		units += unitsForChar(ch)
	}
	return units
}

func unitsForChar(ch rune) int {
	enc, ok := lookup(ch)
	if !ok {
		return 1
	}
	units := len(enc) - 1
	for _, sym := range enc {
		if sym == '.' {
			units++
		} else {
			units += 3
		}
	}
	return units
}

// Encode renders str as International Morse code at baud-unit
// granularity — one bit.Bit per dit-length time unit, dit = 1 baud,
// dah = 3 baud, inter-element gap = 1 baud, inter-character gap = 3
// baud, inter-word gap = 7 baud — so the result can be spliced into the
// oscillator's bit stream during the lead-in/lead-out idle periods as a
// station ID: bit.One keys the tone on (the same MARK symbol framed
// data uses), bit.Zero keys it off (SPACE), and the oscillator never
// needs to know whether it is rendering Morse or framed data.
// Unrecognized characters other than a plain space are skipped rather
// than rendered as an error tone.
func Encode(str string) []bit.Bit {
	var bits []bit.Bit
	push := func(v bit.Bit, units int) {
		for i := 0; i < units; i++ {
			bits = append(bits, v)
		}
	}

	runes := []rune(str)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		if ch == ' ' {
			push(bit.Zero, 7)
			continue
		}
		enc, ok := lookup(ch)
		if !ok {
			continue
		}
		for j, sym := range enc {
			if sym == '.' {
				push(bit.One, 1)
			} else {
				push(bit.One, 3)
			}
			if j != len(enc)-1 {
				push(bit.Zero, 1)
			}
		}
		if i != len(runes)-1 && runes[i+1] != ' ' {
			push(bit.Zero, 3)
		}
	}
	return bits
}

// ValidChars reports whether every rune in str is either a recognized
// Morse character or a plain space.
func ValidChars(str string) bool {
	for _, ch := range str {
		if ch == ' ' {
			continue
		}
		if _, ok := lookup(ch); !ok {
			return false
		}
	}
	return true
}

// Lookup exposes the code-table lookup used internally, mainly for
// tests that want to check individual character encodings without
// rendering audio.
func Lookup(ch rune) (string, bool) {
	return lookup(ch)
}
