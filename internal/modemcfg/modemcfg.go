// Package modemcfg parses the modem's reduced text option file format
// (spec.md section 6's configuration options table), grounded on the
// teacher's config.go: a bufio.Scanner line reader, '#'-comment
// skipping, and case-insensitive first-token dispatch, reduced here to
// the eight options this modem actually has (seven modem parameters plus
// STATION_ID) instead of direwolf's hundred-plus TNC settings.
package modemcfg

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrUnknownOption is returned for a line whose first token isn't one
// of the recognized options.
var ErrUnknownOption = errors.New("modemcfg: unknown option")

// ErrMissingValue is returned for a recognized option with no value
// token following it.
var ErrMissingValue = errors.New("modemcfg: missing value")

// ErrBadBaudDivision is returned when SampleRate/BaudRate isn't an
// integer of at least 4, per spec.md section 6's "Fs/baud must be an
// integer ≥ 4".
var ErrBadBaudDivision = errors.New("modemcfg: sample rate / baud rate must be an integer >= 4")

// Config holds the seven modem options from spec.md section 6.
type Config struct {
	SampleRate     float64
	UpperFrequency float64
	LowerFrequency float64
	BaudRate       float64
	FilterWidth    float64
	RCDecayPerBit  float64
	DataBits       int

	// StationID, when non-empty, is Morse-coded and spliced into the
	// lead-in/lead-out idle carrier as a station identification (see
	// internal/morse.Encode). Empty disables the feature.
	StationID string
}

// Default returns the typical values spec.md section 6 and 4.3 call
// out: 48 kHz sampling, 10 kHz / 5 kHz MARK/SPACE tones, 10 baud.
func Default() Config {
	return Config{
		SampleRate:     48000,
		UpperFrequency: 10000,
		LowerFrequency: 5000,
		BaudRate:       10,
		FilterWidth:    2000,
		RCDecayPerBit:  0.1,
		DataBits:       8,
	}
}

// SamplesPerBit returns Fs/baud and an error if it is not an integer at
// least 4.
func (c Config) SamplesPerBit() (int, error) {
	ratio := c.SampleRate / c.BaudRate
	n := int(ratio)
	if float64(n) != ratio || n < 4 {
		return 0, fmt.Errorf("%w (got %g)", ErrBadBaudDivision, ratio)
	}
	return n, nil
}

// Parse reads a text option file, one option per line, blank lines and
// lines starting with '#' or '*' ignored, matching the teacher's
// config.go comment convention. Options start from Default() so a file
// may override only the options it cares about.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == '*' {
			continue
		}

		fields := strings.Fields(line)
		key := strings.ToUpper(fields[0])
		if len(fields) < 2 {
			return Config{}, fmt.Errorf("modemcfg: line %d: %w for %s", lineNo, ErrMissingValue, key)
		}
		value := fields[1]

		var err error
		switch key {
		case "SAMPLE_RATE":
			cfg.SampleRate, err = strconv.ParseFloat(value, 64)
		case "UPPER_FREQUENCY":
			cfg.UpperFrequency, err = strconv.ParseFloat(value, 64)
		case "LOWER_FREQUENCY":
			cfg.LowerFrequency, err = strconv.ParseFloat(value, 64)
		case "BAUD_RATE":
			cfg.BaudRate, err = strconv.ParseFloat(value, 64)
		case "FILTER_WIDTH":
			cfg.FilterWidth, err = strconv.ParseFloat(value, 64)
		case "RC_DECAY_PER_BIT":
			cfg.RCDecayPerBit, err = strconv.ParseFloat(value, 64)
		case "DATA_BITS":
			cfg.DataBits, err = strconv.Atoi(value)
		case "STATION_ID":
			cfg.StationID = value
		default:
			return Config{}, fmt.Errorf("modemcfg: line %d: %w: %s", lineNo, ErrUnknownOption, fields[0])
		}
		if err != nil {
			return Config{}, fmt.Errorf("modemcfg: line %d: parsing %s: %w", lineNo, key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, fmt.Errorf("modemcfg: reading config: %w", err)
	}
	if _, err := cfg.SamplesPerBit(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
