package pipe

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/pipelined/textpipe/channel"
	"github.com/pipelined/textpipe/internal/state"
	"github.com/pipelined/textpipe/metric"
)

type (
	// FetchFunc returns the next unit from upstream. False is returned
	// when upstream is closed and drained. It keeps returning false on
	// consequent calls.
	FetchFunc func() (byte, bool)

	// EmitFunc puts a unit downstream. It blocks while downstream is full.
	EmitFunc func(byte)

	// SourceFunc reads a single record and emits its units. It returns
	// io.EOF when there are no more records.
	SourceFunc func(emit EmitFunc) error

	// ProcessFunc does a single step of transformation. It returns io.EOF
	// after fetch reported end of stream and all held units were emitted.
	ProcessFunc func(fetch FetchFunc, emit EmitFunc) error

	// SinkFunc does a single step of output. It returns io.EOF after fetch
	// reported end of stream.
	SinkFunc func(fetch FetchFunc) error
)

// Source is the origin of units.
type Source interface {
	Source(pipeID string) (SourceFunc, error)
}

// Processor rewrites units.
type Processor interface {
	Process(pipeID string) (ProcessFunc, error)
}

// Sink is the final stage of the pipe.
type Sink interface {
	Sink(pipeID string) (SinkFunc, error)
}

// Pipe is a chain of stages with fully defined processing sequence.
// It has:
//	 1 		source
//	 0..n 	processors
//	 1	sink
type Pipe struct {
	uid      string
	name     string
	capacity int

	source     *sourceRunner
	processors []*processRunner
	sink       *sinkRunner

	metric *metric.Metric
	log    logrus.FieldLogger

	mu      sync.Mutex
	started bool
}

// Option provides a way to set functional parameters to pipe.
type Option func(p *Pipe) error

var (
	// ErrInvalidState is returned if pipe method cannot be executed at this moment.
	ErrInvalidState = errors.New("invalid state")
	// ErrNoSource is returned if pipe is created without source.
	ErrNoSource = errors.New("pipe has no source")
	// ErrNoSink is returned if pipe is created without sink.
	ErrNoSink = errors.New("pipe has no sink")
)

// New creates a new pipe and applies provided options. Every channel
// between stages can hold capacity units.
func New(capacity int, options ...Option) (*Pipe, error) {
	if capacity < 1 {
		return nil, channel.ErrCapacity
	}
	p := &Pipe{
		uid:      newUID(),
		capacity: capacity,
		log:      silentLogger(),
	}
	for _, option := range options {
		if err := option(p); err != nil {
			return nil, err
		}
	}
	if p.source == nil {
		return nil, ErrNoSource
	}
	if p.sink == nil {
		return nil, ErrNoSink
	}
	p.bind()
	return p, nil
}

// WithName sets name to Pipe.
func WithName(n string) Option {
	return func(p *Pipe) error {
		p.name = n
		return nil
	}
}

// WithLogger sets logger to Pipe. If this option is not provided, silent logger is used.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(p *Pipe) error {
		p.log = logger
		return nil
	}
}

// WithMetric adds metrics for this pipe and all stages.
func WithMetric(m *metric.Metric) Option {
	return func(p *Pipe) error {
		p.metric = m
		return nil
	}
}

// WithSource sets source to Pipe.
func WithSource(source Source) Option {
	return func(p *Pipe) error {
		if source == nil {
			return ErrNoSource
		}
		fn, err := source.Source(p.uid)
		if err != nil {
			return fmt.Errorf("allocate source %v: %w", metric.StageName(source), err)
		}
		p.source = &sourceRunner{
			runner: newRunner(source),
			fn:     fn,
		}
		return nil
	}
}

// WithProcessors appends processors to Pipe.
func WithProcessors(processors ...Processor) Option {
	return func(p *Pipe) error {
		for _, proc := range processors {
			fn, err := proc.Process(p.uid)
			if err != nil {
				return fmt.Errorf("allocate processor %v: %w", metric.StageName(proc), err)
			}
			p.processors = append(p.processors, &processRunner{
				runner: newRunner(proc),
				fn:     fn,
			})
		}
		return nil
	}
}

// WithSink sets sink to Pipe.
func WithSink(sink Sink) Option {
	return func(p *Pipe) error {
		if sink == nil {
			return ErrNoSink
		}
		fn, err := sink.Sink(p.uid)
		if err != nil {
			return fmt.Errorf("allocate sink %v: %w", metric.StageName(sink), err)
		}
		p.sink = &sinkRunner{
			runner: newRunner(sink),
			fn:     fn,
		}
		return nil
	}
}

// bind assigns positions, loggers and meters to all runners once options
// are applied.
func (p *Pipe) bind() {
	for i, r := range p.runners() {
		r.position = i
		r.meter = p.metric.Meter(r.component, i)
		r.log = p.log.WithFields(logrus.Fields{
			"pipe":  p.uid,
			"stage": fmt.Sprintf("%d:%s", i, r.name),
		})
	}
}

// runners returns all runners in the order of stages.
func (p *Pipe) runners() []*runner {
	runners := make([]*runner, 0, len(p.processors)+2)
	runners = append(runners, &p.source.runner)
	for _, proc := range p.processors {
		runners = append(runners, &proc.runner)
	}
	return append(runners, &p.sink.runner)
}

// Run starts all stages and returns the channel of their errors. The
// channel is closed when every stage returned. Pipe can be run only once.
func (p *Pipe) Run() <-chan error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		errc := make(chan error, 1)
		errc <- ErrInvalidState
		close(errc)
		return errc
	}
	p.started = true

	// one channel between every pair of adjacent stages.
	links := make([]*channel.Channel[byte], len(p.processors)+1)
	for i := range links {
		// capacity is validated in constructor.
		links[i], _ = channel.New[byte](p.capacity)
	}

	runners := p.runners()
	// every stage can report reset, execution and flush errors.
	merger := newMerger(3 * len(runners))
	p.log.Debug(fmt.Sprintf("%v starting %d stages", p, len(runners)))
	merger.add(p.source.run(p.uid, links[0]))
	for i, proc := range p.processors {
		merger.add(proc.run(p.uid, links[i], links[i+1]))
	}
	merger.add(p.sink.run(p.uid, links[len(links)-1]))
	go merger.wait()
	return merger.errorChan
}

// States returns current states of all stages in the order of stages.
func (p *Pipe) States() []state.State {
	runners := p.runners()
	states := make([]state.State, 0, len(runners))
	for _, r := range runners {
		states = append(states, r.stage.State())
	}
	return states
}

// ID returns the unique identifier of the pipe.
func (p *Pipe) ID() string {
	return p.uid
}

// Wait blocks until error channel is closed and returns all received
// errors combined. Nil is returned if no errors occured.
func Wait(errc <-chan error) error {
	var errs execErrors
	for err := range errc {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs.ret()
}

// Convert pipe to string. If name is included if has value.
func (p *Pipe) String() string {
	if p.name == "" {
		return p.uid
	}
	return fmt.Sprintf("%v %v", p.name, p.uid)
}

// newUID returns new unique id value.
func newUID() string {
	return xid.New().String()
}

func silentLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
