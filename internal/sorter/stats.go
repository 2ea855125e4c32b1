package sorter

import (
	"log/slog"
	"sync/atomic"

	"github.com/dustin/go-humanize"
)

// Stats counts the work done during this run. Counters are atomic so the
// periodic emitter can read them from outside the event loop.
type Stats struct {
	filesCopied  atomic.Int64
	bytesCopied  atomic.Int64
	filesSkipped atomic.Int64
	copyErrors   atomic.Int64
}

func (s *Stats) RecordCopy(size int64) {
	s.filesCopied.Add(1)
	s.bytesCopied.Add(size)
}

func (s *Stats) RecordSkip() {
	s.filesSkipped.Add(1)
}

func (s *Stats) RecordError() {
	s.copyErrors.Add(1)
}

func (s *Stats) FilesCopied() int64 {
	return s.filesCopied.Load()
}

// LogSummary emits the aggregate counters. No-op counters are still shown;
// callers decide whether to emit at all.
func (s *Stats) LogSummary() {
	slog.Info("copy statistics",
		"copied", s.filesCopied.Load(),
		"size", humanize.Bytes(uint64(s.bytesCopied.Load())),
		"skipped", s.filesSkipped.Load(),
		"errors", s.copyErrors.Load(),
	)
}
