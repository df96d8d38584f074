// Package logging builds the process logger from configuration.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/papapumpkin/graha/internal/ansi"
	"github.com/papapumpkin/graha/internal/config"
)

// New creates a logger with the configured level, format, and output.
// The returned closer releases a log file and is a no-op for stdout and
// stderr.
func New(cfg config.LogConfig) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %s: %w", cfg.Level, err)
	}
	logger.SetLevel(level)

	output, closer, err := openOutput(cfg.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set output: %w", err)
	}
	logger.SetOutput(output)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	default:
		logger.SetFormatter(&TextFormatter{
			TimestampFormat: "15:04:05.000",
			Color:           ansi.IsTerminal(output),
		})
	}
	return logger, closer, nil
}

// WithComponent returns an entry tagged with the component name.
func WithComponent(logger logrus.FieldLogger, component string) *logrus.Entry {
	return logger.WithField("component", component)
}

// TextFormatter renders one line per entry: time, four-letter level,
// message, then the fields sorted by key.
type TextFormatter struct {
	TimestampFormat string
	Color           bool
}

// Format renders a single log entry.
func (f *TextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	color := func(code, s string) string {
		if !f.Color {
			return s
		}
		return ansi.Wrap(code, s)
	}

	var b strings.Builder
	b.WriteString(color(ansi.Gray, entry.Time.Format(f.TimestampFormat)))
	b.WriteByte(' ')
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}
	b.WriteString(color(levelColor(entry.Level), level))
	b.WriteByte(' ')
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", color(ansi.Dim, k), entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func levelColor(level logrus.Level) string {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return ansi.Cyan
	case logrus.InfoLevel:
		return ansi.Green
	case logrus.WarnLevel:
		return ansi.Yellow
	case logrus.ErrorLevel:
		return ansi.Red
	default:
		return ansi.Magenta
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openOutput maps "stdout", "stderr", or a file path to a writer.
func openOutput(output string) (io.Writer, io.Closer, error) {
	switch output {
	case "", "stderr":
		return os.Stderr, nopCloser{}, nil
	case "stdout":
		return os.Stdout, nopCloser{}, nil
	}
	file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", output, err)
	}
	return file, file, nil
}
