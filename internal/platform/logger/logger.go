package logger

import (
	"io"
	"os"
	"sort"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "info", "":
		return Info
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

func (l Level) charm() charmlog.Level {
	switch l {
	case Debug:
		return charmlog.DebugLevel
	case Warn:
		return charmlog.WarnLevel
	case Error:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

type Logger interface {
	With(fields map[string]any) Logger

	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// CharmLogger adapta charmbracelet/log a la interfaz de fields por map.
type CharmLogger struct {
	l *charmlog.Logger
}

type Options struct {
	Level  Level
	Format Format
	App    string

	// Output por defecto os.Stderr.
	Output io.Writer
}

func New(opts Options) *CharmLogger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	formatter := charmlog.TextFormatter
	if opts.Format == FormatJSON {
		formatter = charmlog.JSONFormatter
	}

	l := charmlog.NewWithOptions(out, charmlog.Options{
		Level:           opts.Level.charm(),
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		Formatter:       formatter,
	})
	if app := strings.TrimSpace(opts.App); app != "" {
		l = l.With("app", app)
	}

	return &CharmLogger{l: l}
}

// NewFromEnv crea logger desde env:
// - LOG_LEVEL=debug|info|warn|error (default info)
// - LOG_FORMAT=text|json (default text)
// - APP_NAME=petstore (opcional)
func NewFromEnv() *CharmLogger {
	return New(Options{
		Level:  ParseLevel(os.Getenv("LOG_LEVEL")),
		Format: ParseFormat(os.Getenv("LOG_FORMAT")),
		App:    os.Getenv("APP_NAME"),
	})
}

// Nop descarta todo; útil en tests.
func Nop() *CharmLogger {
	return New(Options{Output: io.Discard, Level: Error})
}

func (c *CharmLogger) With(fields map[string]any) Logger {
	if len(fields) == 0 {
		return c
	}
	return &CharmLogger{l: c.l.With(keyvals(fields)...)}
}

func (c *CharmLogger) Debug(msg string, fields map[string]any) { c.l.Debug(msg, keyvals(fields)...) }
func (c *CharmLogger) Info(msg string, fields map[string]any)  { c.l.Info(msg, keyvals(fields)...) }
func (c *CharmLogger) Warn(msg string, fields map[string]any)  { c.l.Warn(msg, keyvals(fields)...) }
func (c *CharmLogger) Error(msg string, fields map[string]any) { c.l.Error(msg, keyvals(fields)...) }

// keyvals ordena las keys para salida estable (útil en tests/logs).
func keyvals(fields map[string]any) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if strings.TrimSpace(k) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		out = append(out, k, fields[k])
	}
	return out
}
