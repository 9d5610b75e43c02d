package logging

import (
	"github.com/sirupsen/logrus"
)

type LogFormat string

const (
	FormatText LogFormat = "text"
	FormatJSON LogFormat = "json"
)

// NewLogger builds the process-wide logger. Unknown formats fall back
// to text so a misconfigured deployment still logs.
func NewLogger(format LogFormat) *logrus.Logger {
	logger := logrus.New()

	switch format {
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	case FormatText:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		logger.Warnf("unknown log format %q, using text", format)
	}

	return logger
}
