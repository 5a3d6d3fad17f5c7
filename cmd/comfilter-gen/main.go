// Command comfilter-gen renders data as a BFSK-modulated WAV file,
// grounded on the teacher's gen_packets tool: given a message (or a
// data file), write the modulated audio to a .wav file so a decoder
// can be tested against it.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/jwhitham-go/comfilter/internal/modem"
	"github.com/jwhitham-go/comfilter/internal/modemcfg"
	"github.com/jwhitham-go/comfilter/internal/pcm"
	"github.com/jwhitham-go/comfilter/internal/wavfile"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = pflag.StringP("config", "c", "", "Path to a modem configuration file (defaults built in).")
		outPath    = pflag.StringP("output", "o", "", "Output .wav file path (required).")
		dataBits   = pflag.IntP("packet", "p", 0, "Send as CRC-16 packets of N data bits instead of a raw byte stream. 0 disables packet mode.")
		stationID  = pflag.StringP("station-id", "i", "", "Morse-coded station ID spliced into the lead-in/lead-out idle carrier (empty disables).")
		verbose    = pflag.BoolP("verbose", "v", false, "Enable debug logging.")
		help       = pflag.BoolP("help", "h", false, "Display help text.")
	)
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "comfilter-gen: render data as a BFSK-modulated WAV file\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n  comfilter-gen -o out.wav [input-file]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		return 0
	}

	logger := log.Default()
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if *outPath == "" {
		fmt.Fprintln(os.Stderr, "comfilter-gen: -o/--output is required")
		pflag.Usage()
		return 2
	}

	cfg := modemcfg.Default()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			logger.Error("opening config", "path", *configPath, "err", err)
			return 2
		}
		cfg, err = modemcfg.Parse(f)
		f.Close()
		if err != nil {
			logger.Error("parsing config", "path", *configPath, "err", err)
			return 2
		}
	}

	if *stationID != "" {
		cfg.StationID = *stationID
	}

	m, err := modem.New(cfg)
	if err != nil {
		logger.Error("building modem", "err", err)
		return 1
	}

	data, err := readInput(pflag.Arg(0))
	if err != nil {
		logger.Error("reading input", "err", err)
		return 2
	}

	var samples []int16
	if *dataBits > 0 {
		words := bytesToWords(data, *dataBits)
		pcmSamples, err := m.EncodePacket(words, *dataBits)
		if err != nil {
			logger.Error("encoding packets", "err", err)
			return 1
		}
		samples = toInt16(pcmSamples)
	} else {
		samples = toInt16(m.Encode(data))
	}

	out, err := os.Create(*outPath)
	if err != nil {
		logger.Error("creating output", "path", *outPath, "err", err)
		return 2
	}
	defer out.Close()

	header := wavfile.Header{Channels: 1, SampleRate: uint32(cfg.SampleRate)}
	if err := wavfile.Write(out, header, samples); err != nil {
		logger.Error("writing wav", "err", err)
		return 1
	}

	logger.Info("generated", "samples", len(samples), "bytes", len(data))
	return 0
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		scanner := bufio.NewScanner(os.Stdin)
		var data []byte
		for scanner.Scan() {
			data = append(data, scanner.Bytes()...)
			data = append(data, '\n')
		}
		return data, scanner.Err()
	}
	return os.ReadFile(path)
}

func bytesToWords(data []byte, dataBits int) []uint64 {
	wordBytes := (dataBits + 7) / 8
	var words []uint64
	for i := 0; i < len(data); i += wordBytes {
		var word uint64
		chunk := data[i:min(i+wordBytes, len(data))]
		for j, b := range chunk {
			word |= uint64(b) << uint(8*j)
		}
		words = append(words, word)
	}
	return words
}

func toInt16(samples []pcm.Sample) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i], _ = s.ToInt16()
	}
	return out
}
