package ingest_test

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipelined/textpipe/ingest"
	"github.com/pipelined/textpipe/internal/mock"
)

func TestSource(t *testing.T) {
	tests := []struct {
		description string
		input       string
		expected    string
		records     int
	}{
		{
			description: "sentinel ends stream",
			input:       "ab+\n+cd\nSTOP\nignored\n",
			expected:    "ab+\n+cd\n",
			records:     2,
		},
		{
			description: "sentinel without line-feed",
			input:       "ab\nSTOP",
			expected:    "ab\n",
			records:     1,
		},
		{
			description: "exhausted without sentinel",
			input:       "ab\ncd\n",
			expected:    "ab\ncd\n",
			records:     2,
		},
		{
			description: "final record without line-feed",
			input:       "ab\ncd",
			expected:    "ab\ncd",
			records:     2,
		},
		{
			description: "sentinel is a whole record only",
			input:       "STOPPED\n STOP\nSTOP \n",
			expected:    "STOPPED\n STOP\nSTOP \n",
			records:     3,
		},
		{
			description: "empty lines are records",
			input:       "\n\nSTOP\n",
			expected:    "\n\n",
			records:     2,
		},
		{
			description: "record longer than read buffer",
			input:       strings.Repeat("x", 10000) + "\nSTOP\n",
			expected:    strings.Repeat("x", 10000) + "\n",
			records:     1,
		},
		{
			description: "sentinel after long record",
			input:       strings.Repeat("x", 5000) + "STOP\nab\nSTOP\n",
			expected:    strings.Repeat("x", 5000) + "STOP\nab\n",
			records:     2,
		},
		{
			description: "empty input",
		},
	}
	for _, test := range tests {
		source := &ingest.Source{Reader: iotest.OneByteReader(strings.NewReader(test.input))}
		fn, err := source.Source("")
		require.NoError(t, err, test.description)

		var out []byte
		emit := mock.Emitter(&out)
		for err == nil {
			err = fn(emit)
		}
		assert.Equal(t, io.EOF, err, test.description)
		assert.Equal(t, test.expected, string(out), test.description)
		assert.Equal(t, test.records, source.Records(), test.description)
		// source stays exhausted.
		assert.Equal(t, io.EOF, fn(emit), test.description)
	}
}

func TestSourceErrors(t *testing.T) {
	_, err := (&ingest.Source{}).Source("")
	assert.Equal(t, ingest.ErrNoReader, err)

	errRead := errors.New("read failed")
	source := &ingest.Source{Reader: iotest.ErrReader(errRead)}
	fn, err := source.Source("")
	require.NoError(t, err)
	err = fn(func(byte) {})
	assert.ErrorIs(t, err, errRead)

	// units read before failure are still emitted.
	source = &ingest.Source{Reader: io.MultiReader(
		strings.NewReader("ab\ncd"),
		iotest.ErrReader(errRead),
	)}
	fn, err = source.Source("")
	require.NoError(t, err)
	var out []byte
	emit := mock.Emitter(&out)
	for err == nil {
		err = fn(emit)
	}
	assert.ErrorIs(t, err, errRead)
	assert.Equal(t, "ab\ncd", string(out))
	assert.Equal(t, 1, source.Records())
	assert.Equal(t, io.EOF, fn(emit))
}

func TestIsSentinel(t *testing.T) {
	assert.True(t, ingest.IsSentinel([]byte("STOP")))
	assert.True(t, ingest.IsSentinel([]byte("STOP\n")))
	assert.False(t, ingest.IsSentinel([]byte("STOP\n\n")))
	assert.False(t, ingest.IsSentinel([]byte("STOP\r\n")))
	assert.False(t, ingest.IsSentinel([]byte("stop\n")))
	assert.False(t, ingest.IsSentinel(nil))
}
