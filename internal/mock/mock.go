// Package mock provides mocks for pipe components and allows to execute integration tests.
package mock

import (
	"io"

	pipe "github.com/pipelined/textpipe"
)

// Source mocks a pipe.Source interface. Every record is emitted in a
// separate step.
type Source struct {
	counter
	Records     []string
	ErrorOnMake error
	ErrorOnCall error
	Hooks
}

// Source returns new source function.
func (m *Source) Source(pipeID string) (pipe.SourceFunc, error) {
	if m.ErrorOnMake != nil {
		return nil, m.ErrorOnMake
	}
	var i int
	return func(emit pipe.EmitFunc) error {
		if m.ErrorOnCall != nil {
			return m.ErrorOnCall
		}
		if i == len(m.Records) {
			return io.EOF
		}
		for _, v := range []byte(m.Records[i]) {
			emit(v)
		}
		m.advance(len(m.Records[i]))
		i++
		return nil
	}, nil
}

// Reset implements pipe.Resetter.
func (m *Source) Reset(string) error {
	m.Resetted = true
	m.reset()
	return m.ErrorOnReset
}

// Flush implements pipe.Flusher.
func (m *Source) Flush(string) error {
	m.Flushed = true
	return m.ErrorOnFlush
}

// Processor mocks a pipe.Processor interface. Units are passed as is.
type Processor struct {
	counter
	ErrorOnMake error
	ErrorOnCall error
	Hooks
}

// Process returns new process function.
func (m *Processor) Process(pipeID string) (pipe.ProcessFunc, error) {
	if m.ErrorOnMake != nil {
		return nil, m.ErrorOnMake
	}
	return func(fetch pipe.FetchFunc, emit pipe.EmitFunc) error {
		if m.ErrorOnCall != nil {
			return m.ErrorOnCall
		}
		v, ok := fetch()
		if !ok {
			return io.EOF
		}
		emit(v)
		m.advance(1)
		return nil
	}, nil
}

// Reset implements pipe.Resetter.
func (m *Processor) Reset(string) error {
	m.Resetted = true
	m.reset()
	return m.ErrorOnReset
}

// Flush implements pipe.Flusher.
func (m *Processor) Flush(string) error {
	m.Flushed = true
	return m.ErrorOnFlush
}

// Sink mocks up a pipe.Sink interface.
// Units are not thread-safe, so should not be checked while pipe is running.
type Sink struct {
	counter
	units       []byte
	Discard     bool
	ErrorOnMake error
	ErrorOnCall error
	Hooks
}

// Sink returns new sink function.
func (m *Sink) Sink(pipeID string) (pipe.SinkFunc, error) {
	if m.ErrorOnMake != nil {
		return nil, m.ErrorOnMake
	}
	return func(fetch pipe.FetchFunc) error {
		if m.ErrorOnCall != nil {
			return m.ErrorOnCall
		}
		v, ok := fetch()
		if !ok {
			return io.EOF
		}
		if !m.Discard {
			m.units = append(m.units, v)
		}
		m.advance(1)
		return nil
	}, nil
}

// Reset implements pipe.Resetter.
func (m *Sink) Reset(string) error {
	m.Resetted = true
	m.units = nil
	m.reset()
	return m.ErrorOnReset
}

// Flush implements pipe.Flusher.
func (m *Sink) Flush(string) error {
	m.Flushed = true
	return m.ErrorOnFlush
}

// Received returns units received by sink.
func (m *Sink) Received() []byte {
	return m.units
}

// Hooks allows to mock components hooks.
type Hooks struct {
	Resetted bool
	Flushed  bool

	ErrorOnReset error
	ErrorOnFlush error
}

// counter counts steps and units.
type counter struct {
	Steps int
	Units int
}

// advance counter's metrics.
func (c *counter) advance(units int) {
	c.Steps++
	c.Units = c.Units + units
}

// reset resets counter's metrics.
func (c *counter) reset() {
	c.Steps, c.Units = 0, 0
}

// Fetcher returns fetch function that yields units of s and then reports
// end of stream on every call.
func Fetcher(s string) pipe.FetchFunc {
	units := []byte(s)
	return func() (byte, bool) {
		if len(units) == 0 {
			return 0, false
		}
		v := units[0]
		units = units[1:]
		return v, true
	}
}

// Emitter returns emit function that appends units to out.
func Emitter(out *[]byte) pipe.EmitFunc {
	return func(v byte) {
		*out = append(*out, v)
	}
}

// Drive calls fn until it returns an error and returns everything emitted.
// io.EOF is not returned.
func Drive(fn pipe.ProcessFunc, in string) ([]byte, error) {
	var out []byte
	fetch, emit := Fetcher(in), Emitter(&out)
	for {
		if err := fn(fetch, emit); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, err
		}
	}
}
