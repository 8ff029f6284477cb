// Package diag is the diagnostic sink for the pipeline's non-fatal
// warnings (MissingCode, NoReplacement per spec §7), routed through a
// structured logger rather than printed directly, and tagged with a
// per-run correlation ID so a given invocation's warnings can be pulled
// out of a shared log stream.
package diag

import (
	"encoding/hex"
	"log/slog"

	"github.com/google/uuid"
)

// Sink collects warnings during a single pipeline run.
type Sink struct {
	log   *slog.Logger
	runID string

	missingCodes   int
	noReplacements int
}

// NewSink returns a Sink that logs through logger. If logger is nil,
// slog.Default() is used.
func NewSink(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.NewString()
	return &Sink{
		log:   logger.With("run_id", runID),
		runID: runID,
	}
}

// RunID returns the correlation ID attached to every record this Sink
// emits.
func (s *Sink) RunID() string {
	return s.runID
}

// MissingCode records a warning that a byte sequence had no trie
// payload; per spec §7 this is never fatal — the offending bytes are
// skipped by the caller. offset locates the bytes: translate passes
// their source-image offset, the mutator passes the index of the line
// they belong to.
func (s *Sink) MissingCode(offset int, bytes []byte) {
	s.missingCodes++
	s.log.Warn("missing character table entry",
		"offset", offset,
		"bytes", hex.EncodeToString(bytes),
	)
}

// NoReplacement records that a target_find_replace call matched nothing.
func (s *Sink) NoReplacement(lineIndex int, needle string) {
	s.noReplacements++
	s.log.Warn("find/replace matched nothing",
		"line", lineIndex,
		"needle", needle,
	)
}

// Counts returns the number of MissingCode and NoReplacement warnings
// recorded so far.
func (s *Sink) Counts() (missingCodes, noReplacements int) {
	return s.missingCodes, s.noReplacements
}
