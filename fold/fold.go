// Package fold provides the processor that turns line-feeds into spaces.
package fold

import (
	"io"

	pipe "github.com/pipelined/textpipe"
)

// Processor replaces every line-feed with a space. Other units are passed
// as is.
type Processor struct{}

// Process returns new process function instance.
func (*Processor) Process(pipeID string) (pipe.ProcessFunc, error) {
	return func(fetch pipe.FetchFunc, emit pipe.EmitFunc) error {
		v, ok := fetch()
		if !ok {
			return io.EOF
		}
		emit(Fold(v))
		return nil
	}, nil
}

// Fold maps line-feed to space.
func Fold(v byte) byte {
	if v == '\n' {
		return ' '
	}
	return v
}
