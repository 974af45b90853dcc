package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tordrt/relschema/internal/schema"
)

const (
	exitError       = 1
	exitSchemaError = 2
)

var errorFmt = color.New(color.FgRed, color.Bold).SprintfFunc()

func newRootCmd() *cobra.Command {
	var verbose int

	rootCmd := &cobra.Command{
		Use:   "relschema",
		Short: "Resolve relationship names of a database schema",
		Long: `relschema reads a schema from a YAML description or a live PostgreSQL, MySQL
or SQLite database and resolves every foreign key into the property names,
cardinalities and query capabilities a source generator needs.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFiles(); err != nil {
				return err
			}
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), verbose))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase verbosity (can be repeated)")

	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newConstraintNameCmd())
	return rootCmd
}

// loadEnvFiles loads .env from the working directory if it exists
func loadEnvFiles() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

func newLogger(w io.Writer, verbose int) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbose >= 2:
		level = slog.LevelDebug
	case verbose == 1:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func exitCode(err error) int {
	if errors.Is(err, schema.ErrStructuralInconsistency) {
		return exitSchemaError
	}
	return exitError
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorFmt("Error: %v", err))
		os.Exit(exitCode(err))
	}
}
