package logging

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/agentstation/eventmerge/pkg/constants"
)

// consoleTimeFormat is the timestamp layout for human-readable output.
const consoleTimeFormat = "15:04:05"

// Config holds logger configuration options
type Config struct {
	// Level is the minimum level: trace, debug, info, warn, error, off.
	Level string

	// Format is json, console, or auto (console on a terminal).
	Format string

	// Output is stderr, stdout, discard, or a file path to append to.
	Output string

	NoColor bool

	// AddCaller includes file:line. Always on at debug and below.
	AddCaller bool

	// Fields are attached to every entry.
	Fields map[string]any
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Level:   "info",
		Format:  "auto",
		Output:  "stderr",
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// configFromEnv reads EVENTMERGE_LOG_LEVEL and EVENTMERGE_LOG_FORMAT on top
// of the defaults.
func configFromEnv() *Config {
	cfg := DefaultConfig()
	if level := os.Getenv("EVENTMERGE_LOG_LEVEL"); level != "" {
		cfg.Level = level
	}
	if format := os.Getenv("EVENTMERGE_LOG_FORMAT"); format != "" {
		cfg.Format = format
	}
	return cfg
}

// NewLoggerFromConfig builds a logger and sets zerolog's global level to match.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	logCtx := zerolog.New(writerFor(cfg)).Level(level).With().Timestamp()
	if cfg.AddCaller || level <= zerolog.DebugLevel {
		logCtx = logCtx.Caller()
	}
	if len(cfg.Fields) > 0 {
		logCtx = logCtx.Fields(cfg.Fields)
	}
	return logCtx.Logger()
}

func writerFor(cfg *Config) io.Writer {
	var out io.Writer
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	case "discard", "none":
		out = io.Discard
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
		if err != nil {
			out = os.Stderr
		} else {
			out = f
		}
	}

	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
	case "", "auto":
		if !isTerminal(out) {
			return out
		}
	default:
		return out
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: consoleTimeFormat, NoColor: cfg.NoColor}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// parseLevel accepts zerolog level names plus warning and off. Unknown
// names mean info.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "", "info":
		return zerolog.InfoLevel
	case "warning":
		return zerolog.WarnLevel
	case "off", "none":
		return zerolog.Disabled
	}
	l, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}
