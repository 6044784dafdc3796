package log

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Formats supported by New.
const (
	TextFormat = "text"
	JSONFormat = "json"
)

// New returns a new logger instance that writes to w.
func New(w io.Writer, level, format string) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(w)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	l.SetLevel(lvl)
	switch format {
	case TextFormat, "":
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	case JSONFormat:
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format: %q", format)
	}
	return l, nil
}
