// Package ingest provides the source stage that reads text records.
package ingest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	pipe "github.com/pipelined/textpipe"
)

// Sentinel is the record that ends the stream. It's never forwarded.
const Sentinel = "STOP"

// ErrNoReader is returned when source has no reader to read records from.
var ErrNoReader = errors.New("ingest: reader is not set")

var sentinel = []byte(Sentinel)

// Source reads line-feed terminated records and emits every unit of the
// record, including the line-feed. The stream ends on the sentinel
// record or when reader is exhausted; a final record without line-feed is
// still emitted. Records longer than the read buffer are emitted in parts,
// so memory doesn't grow with record length. Units read before a read
// error are emitted before the error is returned.
// This component cannot be reused for consequent runs.
type Source struct {
	Reader  io.Reader
	records int
}

// Source returns new source function instance.
func (s *Source) Source(pipeID string) (pipe.SourceFunc, error) {
	if s.Reader == nil {
		return nil, ErrNoReader
	}
	r := bufio.NewReader(s.Reader)
	s.records = 0
	var exhausted bool
	return func(emit pipe.EmitFunc) error {
		if exhausted {
			return io.EOF
		}
		var n int
		for {
			part, err := r.ReadSlice('\n')
			if err == bufio.ErrBufferFull {
				// record doesn't fit the buffer, so it's not the sentinel.
				n += emitAll(emit, part)
				continue
			}
			var readErr error
			switch {
			case err == io.EOF:
				exhausted = true
			case err != nil:
				exhausted = true
				readErr = fmt.Errorf("read record: %w", err)
			}
			if n == 0 && IsSentinel(part) {
				exhausted = true
				if readErr != nil {
					return readErr
				}
				return io.EOF
			}
			n += emitAll(emit, part)
			switch {
			case readErr != nil:
				return readErr
			case n == 0:
				return io.EOF
			}
			s.records++
			return nil
		}
	}, nil
}

// emitAll emits every unit of slice and returns their number.
func emitAll(emit pipe.EmitFunc, units []byte) int {
	for _, v := range units {
		emit(v)
	}
	return len(units)
}

// Records returns the number of records emitted by the last run. It must
// not be called while pipe is running.
func (s *Source) Records() int {
	return s.records
}

// IsSentinel reports whether record is the sentinel with optional trailing
// line-feed.
func IsSentinel(record []byte) bool {
	return bytes.Equal(bytes.TrimSuffix(record, []byte{'\n'}), sentinel)
}
