package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level (debug, info, warn, error)
	Level string `yaml:"level"`
	// Format (text, json)
	Format string `yaml:"format"`
	// Output (stdout, stderr, or a file path)
	Output string `yaml:"output"`
}

func parseLevel(s string) (logrus.Level, error) {
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return 0, fmt.Errorf("invalid log level: %q", s)
	}
	return level, nil
}

// Configure applies the settings to logger. The returned closer releases a
// log file and is never nil.
func (l LoggingConfig) Configure(logger *logrus.Logger) (io.Closer, error) {
	level, err := parseLevel(l.Level)
	if err != nil {
		return nopCloser{}, err
	}
	logger.SetLevel(level)

	switch strings.ToLower(l.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nopCloser{}, fmt.Errorf("unknown log format: %q", l.Format)
	}

	switch l.Output {
	case "", "stderr":
		logger.SetOutput(os.Stderr)
	case "stdout":
		logger.SetOutput(os.Stdout)
	default:
		f, err := os.OpenFile(l.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nopCloser{}, fmt.Errorf("opening log file: %w", err)
		}
		logger.SetOutput(f)
		return f, nil
	}
	return nopCloser{}, nil
}

// Apply configures the standard logrus logger.
func (l LoggingConfig) Apply() (io.Closer, error) {
	return l.Configure(logrus.StandardLogger())
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
