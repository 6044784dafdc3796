// Package collapse provides the processor that turns pairs of pluses into
// carets.
package collapse

import (
	"io"

	pipe "github.com/pipelined/textpipe"
)

const (
	plus  = '+'
	caret = '^'
)

// Processor replaces every adjacent "++" pair with a single "^". Pairs
// are matched greedily from left to right, so "+++" becomes "^+".
//
// To see the second unit of a pair the processor fetches one unit ahead.
// If it isn't a plus, it's held and processed on the next step as if it
// was just fetched.
type Processor struct{}

// Process returns new process function instance. Every instance owns its
// own pending unit.
func (*Processor) Process(pipeID string) (pipe.ProcessFunc, error) {
	var (
		pending byte
		held    bool
	)
	return func(fetch pipe.FetchFunc, emit pipe.EmitFunc) error {
		var (
			v  byte
			ok = true
		)
		if held {
			v, held = pending, false
		} else {
			v, ok = fetch()
		}
		if !ok {
			return io.EOF
		}
		if v != plus {
			emit(v)
			return nil
		}

		next, ok := fetch()
		switch {
		case !ok:
			// lone plus at the end of stream.
			emit(plus)
			return io.EOF
		case next == plus:
			emit(caret)
		default:
			emit(plus)
			pending, held = next, true
		}
		return nil
	}, nil
}
