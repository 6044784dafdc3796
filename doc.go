/*
Package pipe allows to build and execute streaming text pipelines.

Concept

The pipeline moves single byte code units through a fixed chain of stages:

    Source - reads records and produces units;
    Processor - rewrites units;
    Sink - the destination of units.

It implies the following constraints:

    Source and Sink are mandatory;
    There might be 0 to n Processors;
    Every stage runs in its own goroutine;
    Adjacent stages are connected by a bounded channel.

Each channel has exactly one producer and one consumer. A stage blocks only
when it puts into a full channel or gets from an empty one, so a slow stage
stalls the stages before it instead of growing memory.

Components

Components are allocated per pipe. Allocation returns a step closure that
the pipe calls repeatedly:

    SourceFunc - reads one record and emits its units;
    ProcessFunc - fetches units and emits rewritten ones;
    SinkFunc - fetches units and writes them out.

A closure returns io.EOF when there is nothing left to do. Optional Resetter
and Flusher hooks are called before the first and after the last step.

Termination

There is no cancellation. The source decides when the stream ends: once it
returns io.EOF, the pipe closes its downstream channel. Every following
stage drains its upstream, emits what it still holds, closes its own
downstream and exits. Each stage goes through Running, Draining and Closed
states exactly once.

    p, err := pipe.New(256,
        pipe.WithSource(&ingest.Source{Reader: os.Stdin}),
        pipe.WithProcessors(&fold.Processor{}, &collapse.Processor{}),
        pipe.WithSink(&chunk.Sink{Writer: w}),
    )
    err = pipe.Wait(p.Run())

Run returns once all stages are started. Wait blocks until every stage has
returned.

Lossy output

The chunk sink writes fixed 80 unit records only. Units left in a partially
filled record when the stream ends are discarded. The pipe logs their number
at warn level and counts them in textpipe_discarded_units_total with
"incomplete" reason.
*/
package pipe
