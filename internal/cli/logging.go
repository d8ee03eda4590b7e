package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"
)

var (
	_ pflag.Value = (*LogFormat)(nil)
	_ pflag.Value = (*LogLevel)(nil)
)

// LogFormat selects the slog handler. It implements pflag.Value.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Set implements pflag.Value.
func (f *LogFormat) Set(value string) error {
	for _, candidate := range []LogFormat{LogFormatText, LogFormatJSON} {
		if strings.EqualFold(value, string(candidate)) {
			*f = candidate
			return nil
		}
	}
	return fmt.Errorf("invalid log format: %s (valid options: %s, %s)", value, LogFormatText, LogFormatJSON)
}

// String implements pflag.Value.
func (f *LogFormat) String() string {
	if *f == "" {
		return string(LogFormatText)
	}
	return string(*f)
}

// Type implements pflag.Value.
func (f *LogFormat) Type() string {
	return "format"
}

// LogLevel wraps slog.Level as a pflag.Value.
type LogLevel struct {
	slog.Level
}

// Set implements pflag.Value.
func (l *LogLevel) Set(value string) error {
	if err := l.UnmarshalText([]byte(value)); err != nil {
		return fmt.Errorf("invalid log level: %s (valid options: debug, info, warn, error)", value)
	}
	return nil
}

// Type implements pflag.Value.
func (l *LogLevel) Type() string {
	return "level"
}

func newLogger(w io.Writer, level slog.Level, format LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
