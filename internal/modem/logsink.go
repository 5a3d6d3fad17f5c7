package modem

import (
	"github.com/charmbracelet/log"

	"github.com/jwhitham-go/comfilter/internal/errsink"
)

// LogSink is the CLI's default errsink.Sink, grounded in the teacher's
// declared-but-unwired github.com/charmbracelet/log dependency
// (SPEC_FULL.md section 11): framing errors and CRC mismatches are
// logged at Warn, clips at Debug, since a clip is routine on a hot
// signal but a framing error means a byte was lost.
type LogSink struct {
	Logger *log.Logger

	framingErrors int
	crcMismatches int
	clips         int
}

// NewLogSink wraps logger (nil uses log.Default()) as an errsink.Sink.
func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{Logger: logger}
}

var _ errsink.Sink = (*LogSink)(nil)

func (s *LogSink) OnFramingError(kind errsink.FrameErrorKind) {
	s.framingErrors++
	s.Logger.Warn("framing error", "kind", kind.String(), "total", s.framingErrors)
}

func (s *LogSink) OnCRCMismatch() {
	s.crcMismatches++
	s.Logger.Warn("CRC mismatch", "total", s.crcMismatches)
}

func (s *LogSink) OnClip() {
	s.clips++
	s.Logger.Debug("clip", "total", s.clips)
}

// Summary reports the running totals, logged at Info by the CLI on
// clean EOF (SPEC_FULL.md section 11).
func (s *LogSink) Summary() (framingErrors, crcMismatches, clips int) {
	return s.framingErrors, s.crcMismatches, s.clips
}

// LogSummary emits the per-run summary line at Info level.
func (s *LogSink) LogSummary(framesDecoded int) {
	s.Logger.Info("decode complete",
		"frames", framesDecoded,
		"framing_errors", s.framingErrors,
		"crc_mismatches", s.crcMismatches,
		"clips", s.clips,
	)
}
