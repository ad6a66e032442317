// Package log configures the process-wide logger. Everything outside
// the audio thread logs through here; the audio thread never logs.
package log

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Fields is re-exported so call sites don't import logrus directly.
type Fields = logrus.Fields

var logger = logrus.New()

func init() {
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000000",
	})
	logger.SetLevel(logrus.InfoLevel)
}

// Setup applies the configured level and destination. A nil writer
// keeps the current output; an unknown level falls back to info.
func Setup(level string, out io.Writer) {
	if out != nil {
		logger.SetOutput(out)
	}
	if lvl, ok := ParseLevel(level); ok {
		logger.SetLevel(lvl)
	}
}

// ParseLevel converts a string (case-insensitive) to a logrus level.
// Returns info and false if the string is not recognized.
func ParseLevel(level string) (logrus.Level, bool) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return logrus.InfoLevel, false
	}
	return lvl, true
}

// Level returns the currently active level.
func Level() logrus.Level {
	return logger.GetLevel()
}

// WithField returns an entry carrying a single structured field.
func WithField(key string, value any) *logrus.Entry {
	return logger.WithField(key, value)
}

// WithFields returns an entry carrying structured fields.
func WithFields(fields Fields) *logrus.Entry {
	return logger.WithFields(fields)
}

// WithError returns an entry carrying the error as a field.
func WithError(err error) *logrus.Entry {
	return logger.WithError(err)
}

func Debugf(format string, v ...any) { logger.Debugf(format, v...) }
func Infof(format string, v ...any)  { logger.Infof(format, v...) }
func Warnf(format string, v ...any)  { logger.Warnf(format, v...) }
func Errorf(format string, v ...any) { logger.Errorf(format, v...) }
func Fatalf(format string, v ...any) { logger.Fatalf(format, v...) }

func Debug(v ...any) { logger.Debug(v...) }
func Info(v ...any)  { logger.Info(v...) }
func Warn(v ...any)  { logger.Warn(v...) }
func Error(v ...any) { logger.Error(v...) }
func Fatal(v ...any) { logger.Fatal(v...) }
