// Package log defines the pluggable logger capability every other package
// in this module accepts: callers may inject any implementation, and the
// package ships a concrete default backed by logrus.
package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

// PluggableLoggerInterface is the capability every component logs through.
// It is small on purpose so test doubles are trivial to write.
type PluggableLoggerInterface interface {
	Trace(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

type logrusLogger struct {
	entry *logrus.Logger
}

// New builds the default logrus-backed logger at the given level
// ("trace", "debug", "info", "warn", "error"; unknown values fall back to
// "info").
// nolint: ireturn
func New(level string) PluggableLoggerInterface {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	return &logrusLogger{entry: l}
}

func (l *logrusLogger) Trace(msg string, args ...interface{}) { l.entry.Tracef(msg, args...) }
func (l *logrusLogger) Debug(msg string, args ...interface{}) { l.entry.Debugf(msg, args...) }
func (l *logrusLogger) Info(msg string, args ...interface{})  { l.entry.Infof(msg, args...) }
func (l *logrusLogger) Warn(msg string, args ...interface{})  { l.entry.Warnf(msg, args...) }
func (l *logrusLogger) Error(msg string, args ...interface{}) { l.entry.Errorf(msg, args...) }

// Noop returns a logger that discards everything, useful for tests that
// don't want log noise but still need to satisfy the interface.
// nolint: ireturn
func Noop() PluggableLoggerInterface {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.PanicLevel)
	return &logrusLogger{entry: l}
}
