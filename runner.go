package pipe

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/pipelined/textpipe/channel"
	"github.com/pipelined/textpipe/internal/state"
	"github.com/pipelined/textpipe/metric"
)

// Flusher defines component that must be flushed in the end of execution.
type Flusher interface {
	Flush(pipeID string) error
}

// Resetter defines component that must be reset before execution.
type Resetter interface {
	Reset(pipeID string) error
}

// RecordCounter defines component that counts complete records it handled.
// Records is called once the stage is flushed.
type RecordCounter interface {
	Records() int
}

// Discarder defines component that drops units when the stream ends.
// Discarded is called once the stage is flushed.
type Discarder interface {
	Discarded() int
}

// hook represents optional functions for components lifecycle.
type hook func(string) error

// set of hooks for runners.
type hooks struct {
	flush hook
	reset hook
}

// runner holds everything a stage goroutine needs apart from its step
// function.
type runner struct {
	component interface{}
	name      string
	position  int
	stage     *state.Stage
	meter     *metric.Meter
	log       logrus.FieldLogger
	hooks
}

// sourceRunner runs the first stage.
type sourceRunner struct {
	runner
	fn SourceFunc
}

// processRunner runs intermediate stages.
type processRunner struct {
	runner
	fn ProcessFunc
}

// sinkRunner runs the final stage.
type sinkRunner struct {
	runner
	fn SinkFunc
}

func newRunner(component interface{}) runner {
	return runner{
		component: component,
		name:      metric.StageName(component),
		stage:     state.New(),
		log:       silentLogger(),
		hooks:     bindHooks(component),
	}
}

// bindHooks of component.
func bindHooks(v interface{}) hooks {
	return hooks{
		flush: flusher(v),
		reset: resetter(v),
	}
}

// flusher checks if interface implements Flusher and if so, return it.
func flusher(i interface{}) hook {
	if v, ok := i.(Flusher); ok {
		return v.Flush
	}
	return nil
}

// resetter checks if interface implements Resetter and if so, return it.
func resetter(i interface{}) hook {
	if v, ok := i.(Resetter); ok {
		return v.Reset
	}
	return nil
}

// run the source runner.
func (r *sourceRunner) run(pipeID string, out *channel.Channel[byte]) <-chan error {
	emit := r.emitter(out)
	return r.start(pipeID, nil, out, func() error {
		return r.fn(emit)
	})
}

// run the processor runner.
func (r *processRunner) run(pipeID string, in, out *channel.Channel[byte]) <-chan error {
	fetch, emit := r.fetcher(in), r.emitter(out)
	return r.start(pipeID, in, out, func() error {
		return r.fn(fetch, emit)
	})
}

// run the sink runner.
func (r *sinkRunner) run(pipeID string, in *channel.Channel[byte]) <-chan error {
	fetch := r.fetcher(in)
	return r.start(pipeID, in, nil, func() error {
		return r.fn(fetch)
	})
}

// start the stage goroutine. Step is called until it returns an error.
// Both in and out might be nil for the first and the last stages.
func (r *runner) start(pipeID string, in, out *channel.Channel[byte], step func() error) <-chan error {
	errc := make(chan error, 3)
	go func() {
		defer close(errc)
		r.meter.Start()
		defer r.meter.Stop()

		var err error
		if err = call(r.reset, pipeID); err != nil {
			err = fmt.Errorf("reset %v: %w", r, err)
		} else {
			err = execute(step)
			if err != nil {
				err = fmt.Errorf("execute %v: %w", r, err)
			}
		}
		if err != nil {
			errc <- err
			// upstream producer must not stay blocked on a full channel.
			r.discard(in)
		}
		r.handle(state.Exhaust)
		if out != nil {
			out.Close()
		}
		if err := call(r.flush, pipeID); err != nil {
			errc <- fmt.Errorf("flush %v: %w", r, err)
		}
		r.report()
		r.handle(state.Close)
	}()
	return errc
}

// fetcher returns closure that gets units from upstream. The stage is
// moved to draining state when upstream reports end of stream.
func (r *runner) fetcher(in *channel.Channel[byte]) FetchFunc {
	return func() (byte, bool) {
		v, ok := in.Get()
		if !ok {
			r.handle(state.Exhaust)
			return 0, false
		}
		r.meter.Received()
		return v, true
	}
}

// emitter returns closure that puts units downstream.
func (r *runner) emitter(out *channel.Channel[byte]) EmitFunc {
	return func(v byte) {
		out.Put(v)
		r.meter.Sent()
	}
}

// discard drains upstream after stage failure.
func (r *runner) discard(in *channel.Channel[byte]) {
	if in == nil {
		return
	}
	var n int
	for {
		if _, ok := in.Get(); !ok {
			break
		}
		n++
	}
	r.meter.Discarded(n)
	if n > 0 {
		r.log.Warn(fmt.Sprintf("discarded %d units after failure", n))
	}
}

// report meters the outcome of flushed component.
func (r *runner) report() {
	if c, ok := r.component.(RecordCounter); ok {
		r.meter.Records(c.Records())
	}
	if d, ok := r.component.(Discarder); ok {
		if n := d.Discarded(); n > 0 {
			r.meter.Truncated(n)
			r.log.Warn(fmt.Sprintf("discarded %d units of incomplete record", n))
		}
	}
}

// handle applies the event to the stage state. Invalid transition means
// broken pipe wiring and causes a panic.
func (r *runner) handle(e state.Event) {
	from, to, err := r.stage.Handle(e)
	if err != nil {
		panic(fmt.Errorf("%v: %w", r, err))
	}
	if from != to {
		r.log.Debug(fmt.Sprintf("%v -> %v", from, to))
	}
}

func (r *runner) String() string {
	return fmt.Sprintf("stage %d %s", r.position, r.name)
}

// execute calls step until it fails. io.EOF means normal termination and
// nil is returned.
func execute(step func() error) error {
	var err error
	for err == nil {
		err = step()
	}
	if err == io.EOF {
		return nil
	}
	return err
}

// call optional function with pipeID argument.
func call(fn hook, pipeID string) error {
	if fn == nil {
		return nil
	}
	return fn(pipeID)
}
