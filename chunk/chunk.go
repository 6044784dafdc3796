// Package chunk provides the sink that writes fixed width records.
//
// Only complete records are ever written. When the stream ends, units of
// a partially filled record are discarded. The number of discarded units
// is available with Sink.Discarded, the pipe logs it at warn level and
// meters it.
package chunk

import (
	"errors"
	"fmt"
	"io"

	pipe "github.com/pipelined/textpipe"
)

const (
	// Width is the number of units in a record.
	Width = 80
	// Separator is written after every record.
	Separator = '\n'
)

// ErrNoWriter is returned when sink has no writer to write records to.
var ErrNoWriter = errors.New("chunk: writer is not set")

// flusher is implemented by buffered writers, like bufio.Writer.
type flusher interface {
	Flush() error
}

// Sink accumulates units into records of Width units. Every complete record
// is written together with Separator and writer is flushed if it supports
// that.
// This component cannot be reused for concurrent runs.
type Sink struct {
	Writer io.Writer

	line      []byte
	records   int
	discarded int
}

// Sink returns new sink function instance.
func (s *Sink) Sink(pipeID string) (pipe.SinkFunc, error) {
	if s.Writer == nil {
		return nil, ErrNoWriter
	}
	s.line = make([]byte, 0, Width+1)
	s.records, s.discarded = 0, 0
	return func(fetch pipe.FetchFunc) error {
		v, ok := fetch()
		if !ok {
			return io.EOF
		}
		s.line = append(s.line, v)
		if len(s.line) < Width {
			return nil
		}
		if err := s.write(); err != nil {
			return err
		}
		s.records++
		return nil
	}, nil
}

// write emits full line with separator and resets it.
func (s *Sink) write() error {
	defer s.reset()
	if _, err := s.Writer.Write(append(s.line, Separator)); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if f, ok := s.Writer.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flush record: %w", err)
		}
	}
	return nil
}

// Flush drops the partial record.
func (s *Sink) Flush(pipeID string) error {
	s.discarded = len(s.line)
	s.reset()
	return nil
}

// reset zeroes the line buffer.
func (s *Sink) reset() {
	s.line = s.line[:cap(s.line)]
	clear(s.line)
	s.line = s.line[:0]
}

// Records returns the number of records written by the last run. It must
// not be called while pipe is running.
func (s *Sink) Records() int {
	return s.records
}

// Discarded returns the number of units dropped at the end of the last
// run. It must not be called while pipe is running.
func (s *Sink) Discarded() int {
	return s.discarded
}
