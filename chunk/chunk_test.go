package chunk_test

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipe "github.com/pipelined/textpipe"
	"github.com/pipelined/textpipe/chunk"
	"github.com/pipelined/textpipe/internal/mock"
)

func run(t *testing.T, s *chunk.Sink, in string) error {
	t.Helper()
	fn, err := s.Sink("test")
	require.NoError(t, err)
	fetch := mock.Fetcher(in)
	for err == nil {
		err = fn(fetch)
	}
	require.NoError(t, s.Flush("test"))
	if err == io.EOF {
		return nil
	}
	return err
}

func TestSink(t *testing.T) {
	tests := []struct {
		length    int
		records   int
		discarded int
	}{
		{length: 0},
		{length: 9, discarded: 9},
		{length: 79, discarded: 79},
		{length: 80, records: 1},
		{length: 81, records: 1, discarded: 1},
		{length: 160, records: 2},
		{length: 239, records: 2, discarded: 79},
	}
	for _, test := range tests {
		in := make([]byte, test.length)
		for i := range in {
			in[i] = 'a' + byte(i%26)
		}
		var out bytes.Buffer
		s := &chunk.Sink{Writer: &out}
		require.NoError(t, run(t, s, string(in)))

		records := strings.Split(out.String(), "\n")
		// split leaves empty tail after the last separator.
		require.Equal(t, test.records+1, len(records), spew.Sdump(records))
		for i, r := range records[:test.records] {
			assert.Equal(t, string(in[i*chunk.Width:(i+1)*chunk.Width]), r)
		}
		assert.Equal(t, "", records[test.records])
		assert.Equal(t, test.records, s.Records(), "length %d", test.length)
		assert.Equal(t, test.discarded, s.Discarded(), "length %d", test.length)
	}
}

func TestSinkFlushesWriter(t *testing.T) {
	var out bytes.Buffer
	w := bufio.NewWriterSize(&out, 4096)
	s := &chunk.Sink{Writer: w}
	require.NoError(t, run(t, s, strings.Repeat("x", chunk.Width+5)))
	// record is visible without flushing the writer.
	assert.Equal(t, strings.Repeat("x", chunk.Width)+"\n", out.String())
	assert.Equal(t, 0, w.Buffered())
}

func TestSinkReportsOutcome(t *testing.T) {
	s := &chunk.Sink{Writer: io.Discard}
	// the pipe reads outcome of the sink after flush.
	var _ pipe.Discarder = s
	var _ pipe.RecordCounter = s

	require.NoError(t, run(t, s, "ab^ +cd "))
	assert.Equal(t, 0, s.Records())
	assert.Equal(t, 8, s.Discarded())

	require.NoError(t, run(t, s, strings.Repeat("x", chunk.Width)))
	assert.Equal(t, 1, s.Records())
	assert.Equal(t, 0, s.Discarded())
}

type failingWriter struct {
	err error
}

func (w failingWriter) Write([]byte) (int, error) {
	return 0, w.err
}

func TestSinkErrors(t *testing.T) {
	_, err := (&chunk.Sink{}).Sink("")
	assert.Equal(t, chunk.ErrNoWriter, err)

	errWrite := errors.New("write failed")
	s := &chunk.Sink{Writer: failingWriter{err: errWrite}}
	err = run(t, s, strings.Repeat("x", chunk.Width))
	assert.ErrorIs(t, err, errWrite)
	assert.Equal(t, 0, s.Records())
	assert.Equal(t, 0, s.Discarded())
}
