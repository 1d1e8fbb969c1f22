package app

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/agentstation/eventmerge/pkg/logging"
)

var logLevels = []string{"trace", "debug", "info", "warn", "error"}

// NewLogger builds the process logger from config. The level comes from
// --log-level (or EVENTMERGE_LOG_LEVEL) when set, then -v (debug), then
// -q (warn), and is info otherwise. A rejected setting is reported through
// the new logger itself.
func NewLogger(config *Config) zerolog.Logger {
	level, warning := resolveLevel(config)

	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Format = config.LogFormat
	cfg.Output = config.LogOutput
	cfg.NoColor = cfg.NoColor || config.NoColor
	cfg.AddCaller = level == "trace" || level == "debug"

	logger := logging.NewLoggerFromConfig(cfg)
	if warning != "" {
		logger.Warn().Msg(warning)
	}
	return logger
}

// resolveLevel picks the effective level and, when a setting had to be
// overridden, a warning describing it.
func resolveLevel(config *Config) (level, warning string) {
	switch {
	case config.LogLevel != "":
		if !knownLevel(config.LogLevel) {
			return "info", fmt.Sprintf("invalid log level %q, using %q", config.LogLevel, "info")
		}
		return config.LogLevel, ""
	case config.Verbose && config.Quiet:
		return "warn", "both --verbose and --quiet specified, using --quiet"
	case config.Verbose:
		return "debug", ""
	case config.Quiet:
		return "warn", ""
	default:
		return "info", ""
	}
}

// knownLevel is case sensitive; the CLI documents lowercase names.
func knownLevel(level string) bool {
	return slices.Contains(logLevels, level)
}
