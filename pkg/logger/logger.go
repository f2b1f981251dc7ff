package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a new logger with the specified log level and format. Format is
// either "text" or "json"; anything else falls back to text.
func New(level, format string) *logrus.Logger {
	logger := logrus.New()

	// Set log level
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set formatter
	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	// Set output
	logger.SetOutput(os.Stdout)

	return logger
}

// WithFields creates a logger entry with the specified fields
func WithFields(logger *logrus.Logger, fields logrus.Fields) *logrus.Entry {
	return logger.WithFields(fields)
}
