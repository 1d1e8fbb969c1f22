package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/agentstation/eventmerge"
	"github.com/agentstation/eventmerge/internal/cmd/alerts"
	"github.com/agentstation/eventmerge/internal/cmd/output"
	"github.com/agentstation/eventmerge/pkg/constants"
	"github.com/agentstation/eventmerge/pkg/errors"
	"github.com/agentstation/eventmerge/pkg/logging"
)

// Execute runs the eventmerge CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd, err := a.createRootCommand()
	if err != nil {
		return err
	}
	if args == nil {
		// cobra reads os.Args when given nil
		args = []string{}
	}
	rootCmd.SetArgs(args)
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() (*cobra.Command, error) {
	var configFile string

	rootCmd := &cobra.Command{
		Use:     "eventmerge",
		Short:   "Merge an enriched event listing with a categorized Google Sheet",
		Version: a.version,
		Long: `eventmerge downloads the categorized event sheet, joins it with the
local enriched event CSV on the registration link, lets the sheet's
description and attendee counts win, adds its categories, and writes the
merged CSV.

Settings are read from flags, EVENTMERGE_* environment variables, .env
files, and .eventmerge.yaml in the working or home directory.`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setupCommand(configFile)
		},
		RunE:          a.runMerge,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default is ./.eventmerge.yaml or $HOME/.eventmerge.yaml)")
	pf.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	pf.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	pf.Bool("no-color", false, "disable colored output")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	pf.String("log-format", "auto", "log format: auto, console, json")
	pf.String("sheet-id", constants.DefaultSheetID, "Google Sheet ID of the categorized overlay")
	pf.String("sheet-name", constants.DefaultSheetName, "sheet tab to export")
	pf.String("sheet-url", "", "full CSV export URL (overrides --sheet-id and --sheet-name)")
	pf.String("sheet-auth", "none", "sheet auth scheme: none, bearer, header:NAME, query:PARAM")
	pf.Duration("http-timeout", constants.DefaultHTTPTimeout, "timeout for the sheet download")

	f := rootCmd.Flags()
	f.StringP("base", "b", constants.DefaultBaseFile, "local enriched event CSV")
	f.StringP("output", "o", constants.DefaultOutputFile, "merged CSV to write")
	f.String("provenance-file", "", "write per-field provenance YAML to this path")
	f.String("metrics-file", "", "write Prometheus metrics in textfile format to this path")
	f.String("cache-dir", "", "cache downloaded sheets in this directory")
	f.Duration("cache-ttl", 0, "reuse a cached sheet younger than this")
	f.String("marker", constants.DefaultMarker, "link fragment a registration link must contain")
	f.StringSlice("null-values", nil, "extra cell values read as missing")
	f.String("cardinality", "one-to-one", "join cardinality: one-to-one, many-to-many")
	f.Bool("dry-run", false, "run the merge without writing the output")
	f.StringP("summary", "s", "none", "print a run summary: none, auto, table, json, yaml")

	if err := a.bindFlags(pf, f); err != nil {
		return nil, err
	}

	rootCmd.SetVersionTemplate("eventmerge {{.Version}}\n")
	a.registerCommands(rootCmd)
	return rootCmd, nil
}

// flagKeys maps flag names to configuration keys where they differ.
var flagKeys = map[string]string{
	"base":   KeyBaseFile,
	"output": KeyOutputFile,
}

// bindFlags binds flags to their configuration keys so a set flag wins over
// environment and config file.
func (a *App) bindFlags(sets ...*pflag.FlagSet) error {
	var err error
	for _, set := range sets {
		set.VisitAll(func(fl *pflag.Flag) {
			if err != nil || fl.Name == "config" {
				return
			}
			key, ok := flagKeys[fl.Name]
			if !ok {
				key = flagToKey(fl.Name)
			}
			if bindErr := a.viper.BindPFlag(key, fl); bindErr != nil {
				err = errors.NewConfigError("flags", "binding --"+fl.Name, bindErr)
			}
		})
	}
	return err
}

// setupCommand loads configuration and the logger before any command runs.
func (a *App) setupCommand(configFile string) error {
	config, err := LoadConfig(a.viper, configFile)
	if err != nil {
		return err
	}
	a.config = config

	logger := NewLogger(a.config)
	a.logger = &logger
	logging.SetDefault(logger)
	return nil
}

// runMerge performs one merge and prints its summary.
func (a *App) runMerge(cmd *cobra.Command, _ []string) error {
	format, err := output.ParseFormat(a.config.Summary)
	if err != nil {
		return err
	}
	format = output.DetectFormat(format, a.out)

	m, err := a.Merger()
	if err != nil {
		return err
	}

	w := a.alertWriter()
	m.OnProgress(func(e eventmerge.Event) {
		if err := w.WriteAlert(alerts.FromEvent(e)); err != nil {
			a.logger.Debug().Err(err).Msg("Failed to write progress")
		}
	})

	ctx := logging.WithLogger(cmd.Context(), a.logger)
	res, err := m.Run(ctx)
	if err != nil {
		return err
	}

	if dups := res.Counts.BaseDuplicates + res.Counts.OverlayDuplicates; dups > 0 && !a.config.Quiet {
		warn := alerts.NewWarning(fmt.Sprintf("Skipped %d rows with a repeated registration link.", dups)).
			WithDetails(
				fmt.Sprintf("base: %d", res.Counts.BaseDuplicates),
				fmt.Sprintf("sheet: %d", res.Counts.OverlayDuplicates),
			)
		_ = alerts.NewFormatWriter(a.errOut, output.FormatTable).WriteAlert(warn)
	}

	return output.FormatResult(a.out, format, res)
}

// ExitOnError prints an error alert and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		//nolint:errcheck // exiting anyway
		_ = alerts.NewWriterTo(os.Stderr).WriteAlert(alerts.NewError(err.Error()))
		os.Exit(1)
	}
}

func flagToKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
