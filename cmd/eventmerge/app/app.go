// Package app provides the application context and dependency management
// for the eventmerge CLI: configuration, logging, and construction of the
// merger from flags, environment and config file.
package app

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/agentstation/eventmerge"
	"github.com/agentstation/eventmerge/internal/cmd/alerts"
	"github.com/agentstation/eventmerge/internal/cmd/output"
	"github.com/agentstation/eventmerge/pkg/errors"
	"github.com/agentstation/eventmerge/pkg/join"
	"github.com/agentstation/eventmerge/pkg/logging"
)

// App represents the eventmerge application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	viper  *viper.Viper
	config *Config
	logger *zerolog.Logger

	// out receives progress lines and the run summary; errOut receives
	// warnings.
	out    io.Writer
	errOut io.Writer
}

// New creates a new App instance with the given version information.
// Configuration is read when a command runs, after flags are parsed.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		viper:   newViper(),
		config:  &Config{},
		logger:  logging.Default(),
		out:     os.Stdout,
		errOut:  os.Stderr,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Merger builds a merger from the loaded configuration.
func (a *App) Merger() (eventmerge.Merger, error) {
	opts, err := a.mergerOptions()
	if err != nil {
		return nil, err
	}
	m, err := eventmerge.New(opts...)
	if err != nil {
		return nil, errors.WrapResource("create", "merger", "", err)
	}
	return m, nil
}

// mergerOptions translates the configuration into merger options.
func (a *App) mergerOptions() ([]eventmerge.Option, error) {
	c := a.config
	cardinality, err := join.ParseCardinality(c.Cardinality)
	if err != nil {
		return nil, err
	}

	opts := []eventmerge.Option{
		eventmerge.WithSheet(c.SheetID, c.SheetName),
		eventmerge.WithSheetAuth(c.SheetAuth, c.SheetToken),
		eventmerge.WithHTTPTimeout(c.HTTPTimeout),
		eventmerge.WithBaseFile(c.BaseFile),
		eventmerge.WithOutputFile(c.OutputFile),
		eventmerge.WithMarker(c.Marker),
		eventmerge.WithCardinality(cardinality),
		eventmerge.WithDryRun(c.DryRun),
	}
	if c.SheetURL != "" {
		opts = append(opts, eventmerge.WithSheetURL(c.SheetURL))
	}
	if c.CacheDir != "" {
		opts = append(opts, eventmerge.WithSheetCache(c.CacheDir, c.CacheTTL))
	}
	if c.ProvenanceFile != "" {
		opts = append(opts, eventmerge.WithProvenanceFile(c.ProvenanceFile))
	}
	if c.MetricsFile != "" {
		opts = append(opts, eventmerge.WithMetricsFile(c.MetricsFile))
	}
	if len(c.NullValues) > 0 {
		opts = append(opts, eventmerge.WithNullValues(c.NullValues...))
	}
	return opts, nil
}

// alertWriter returns where progress alerts go. Quiet runs print none.
func (a *App) alertWriter() alerts.Writer {
	if a.config.Quiet {
		return alerts.DiscardWriter
	}
	w := alerts.NewFormatWriter(a.out, output.FormatTable)
	if a.config.NoColor {
		w = w.WithConfig(alerts.WriterConfig{ShowDetails: true})
	}
	return w
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithOutput redirects command output and warnings.
func WithOutput(out, errOut io.Writer) Option {
	return func(a *App) error {
		a.out = out
		a.errOut = errOut
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}
