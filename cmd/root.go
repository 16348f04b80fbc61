// Package cmd assembles the CLI: the serve subcommand runs the HTTP server,
// process runs the pipeline offline against a single recording.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jkoskela/vocalis/cmd/process"
	"github.com/jkoskela/vocalis/cmd/serve"
	"github.com/jkoskela/vocalis/internal/conf"
	"github.com/jkoskela/vocalis/internal/logging"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vocalis",
		Short: "Vocalis turns recorded feedback sessions into structured, bias-checked performance feedback",
	}

	rootCmd.PersistentFlags().BoolVar(&settings.Debug, "debug", settings.Debug, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Output.SQLite.Path, "db", settings.Output.SQLite.Path, "Path to the SQLite database")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if settings.Debug {
			logging.SetLevel(slog.LevelDebug)
		}
		return conf.ValidateSettings(settings)
	}

	rootCmd.AddCommand(
		serve.Command(settings),
		process.Command(settings),
	)
	return rootCmd
}
