package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(a.NewVersionCommand())
	rootCmd.AddCommand(a.NewURLCommand())
}

// NewVersionCommand prints build information.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "eventmerge %s\n  commit: %s\n  built:  %s by %s\n",
				a.version, a.commit, a.date, a.builtBy)
			return err
		},
	}
}

// NewURLCommand prints the address the sheet would be downloaded from.
func (a *App) NewURLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "url",
		Short: "Print the sheet export URL without downloading it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.Merger()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), m.SheetURL())
			return err
		},
	}
}
