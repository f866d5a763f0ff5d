// Package storage appends record batches to the local log file. The file is
// exclusively owned by this sink and is never read back.
package storage

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// Sink appends bytes to a single CSV artifact. Each append opens, writes and
// closes the file so a power loss never leaves an open handle behind.
type Sink struct {
	path string
	log  zerolog.Logger
}

func NewSink(path string, log zerolog.Logger) *Sink {
	return &Sink{path: path, log: log.With().Str("component", "storage").Logger()}
}

// Path returns the location of the log file.
func (s *Sink) Path() string { return s.path }

// WriteHeaderIfAbsent creates the file with the header line if it does not
// exist yet. An existing file is left untouched so appends survive restarts.
func (s *Sink) WriteHeaderIfAbsent(header string) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			s.log.Debug().Str("path", s.path).Msg("log file exists, keeping header")
			return nil
		}
		return fmt.Errorf("create log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	s.log.Info().Str("path", s.path).Msg("created log file")
	return nil
}

// Append writes one drained batch. Failures are returned for diagnostics but
// the caller clears its buffer either way; a failed batch is lost.
func (s *Sink) Append(b []byte) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("append records: %w", err)
	}
	return nil
}
