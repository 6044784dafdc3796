// Command textpipe reads records from stdin until STOP record, folds
// line-feeds into spaces, collapses "++" into "^" and writes 80 unit
// records to stdout. Units of the last incomplete record are discarded.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	pipe "github.com/pipelined/textpipe"
	"github.com/pipelined/textpipe/chunk"
	"github.com/pipelined/textpipe/collapse"
	"github.com/pipelined/textpipe/config"
	"github.com/pipelined/textpipe/fold"
	"github.com/pipelined/textpipe/ingest"
	"github.com/pipelined/textpipe/log"
	"github.com/pipelined/textpipe/metric"
)

var (
	successExitCode = 0
	errorExitCode   = 1
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(errorExitCode)
	}
	os.Exit(run(cfg, os.Stdin, os.Stdout, os.Stderr))
}

// run executes the pipe and returns the exit code.
func run(cfg *config.Config, in io.Reader, out, errOut io.Writer) int {
	logger, err := log.New(errOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(errOut, "Invalid logging configuration: %v\n", err)
		return errorExitCode
	}

	var m *metric.Metric
	if cfg.Metrics {
		m = metric.New()
	}
	w := bufio.NewWriter(out)
	p, err := newPipe(cfg.Capacity, in, w, logger, m)
	if err != nil {
		logger.WithError(err).Error("failed to create pipe")
		return errorExitCode
	}

	logger.WithField("pipe", p.ID()).Debug("pipe started")
	if err := pipe.Wait(p.Run()); err != nil {
		logger.WithError(err).WithField("pipe", p.ID()).Error("pipe failed")
		return errorExitCode
	}
	if err := w.Flush(); err != nil {
		logger.WithError(err).Error("failed to flush output")
		return errorExitCode
	}
	if m != nil {
		snapshot, err := m.Snapshot()
		if err != nil {
			logger.WithError(err).Warn("failed to collect metrics")
		}
		fields := logrus.Fields{}
		for k, v := range snapshot {
			fields[k] = v
		}
		logger.WithFields(fields).Info("pipe metrics")
	}
	logger.WithField("pipe", p.ID()).Debug("pipe done")
	return successExitCode
}

// newPipe binds the standard chain of stages.
func newPipe(capacity int, in io.Reader, out io.Writer, logger logrus.FieldLogger, m *metric.Metric) (*pipe.Pipe, error) {
	return pipe.New(capacity,
		pipe.WithName("textpipe"),
		pipe.WithLogger(logger),
		pipe.WithMetric(m),
		pipe.WithSource(&ingest.Source{Reader: in}),
		pipe.WithProcessors(&fold.Processor{}, &collapse.Processor{}),
		pipe.WithSink(&chunk.Sink{Writer: out}),
	)
}
