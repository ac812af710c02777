// Package logging provides the shared logrus logger for trendwatch.
//
// One logger instance is created at startup and injected through
// constructors; components attach their own "component" field so log
// lines can be filtered per subsystem.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a JSON-formatted logger at the given level.
// Unknown level strings fall back to info.
func New(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// NewWithService creates a logger that tags every entry with the
// service name.
func NewWithService(level, service string) *logrus.Logger {
	logger := New(level)
	logger.AddHook(&serviceHook{service: service})
	return logger
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// serviceHook stamps a service field on every entry.
type serviceHook struct {
	service string
}

func (h *serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *serviceHook) Fire(entry *logrus.Entry) error {
	entry.Data["service"] = h.service
	return nil
}
