package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tordrt/relschema"
	"github.com/tordrt/relschema/internal/relation"
)

var warningFmt = color.New(color.FgYellow).SprintfFunc()

type resolveFlags struct {
	schemaFile string
	dbURL      string
	mysqlURL   string
	sqlitePath string
	configFile string
	outputFile string
	outputDir  string
	tables     string
	exclude    string
	schemaName string
	format     string
	workers    int
}

func newResolveCmd() *cobra.Command {
	var f resolveFlags

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve every relation of a schema and print the report",
		Example: `  # Resolve a YAML description
  relschema resolve --schema-file schema.yaml

  # Read a live PostgreSQL catalog and write one markdown file per table
  relschema resolve --db-url postgres://localhost/shop -d docs/relations -f markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, &f)
		},
	}

	cmd.Flags().StringVar(&f.schemaFile, "schema-file", "", "YAML schema description")
	cmd.Flags().StringVar(&f.dbURL, "db-url", "", "Database URL (postgres://, mysql:// or sqlite://)")
	cmd.Flags().StringVar(&f.mysqlURL, "mysql-url", "", "MySQL connection string")
	cmd.Flags().StringVar(&f.sqlitePath, "sqlite", "", "SQLite database file path")
	cmd.Flags().StringVar(&f.configFile, "config", "", "Policy file (default: auto-discover relschema.yaml)")
	cmd.Flags().StringVarP(&f.outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "d", "", "Output directory for multi-file output")
	cmd.Flags().StringVarP(&f.tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	cmd.Flags().StringVarP(&f.exclude, "exclude", "x", "", "Tables to exclude (comma-separated, optional)")
	cmd.Flags().StringVarP(&f.schemaName, "schema", "s", "", "Database schema name (default: public for PostgreSQL)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "Output format: text or markdown")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Parallel resolution workers (default: GOMAXPROCS)")
	return cmd
}

func runResolve(cmd *cobra.Command, f *resolveFlags) error {
	ctx := cmd.Context()

	databaseURL, err := sourceURL(f)
	if err != nil {
		return err
	}
	if f.outputDir != "" && f.outputFile != "" {
		return errors.New("cannot use both --output-dir and --output flags")
	}

	p, configPath, err := relschema.LoadPolicy(f.configFile)
	if err != nil {
		return fmt.Errorf("failed to load policy: %w", err)
	}
	if configPath != "" {
		slog.Info("policy loaded", "file", configPath)
	}

	res, err := relschema.Resolve(ctx, &relschema.Options{
		SchemaFile:    f.schemaFile,
		DatabaseURL:   databaseURL,
		Tables:        parseTableList(f.tables),
		ExcludeTables: parseTableList(f.exclude),
		SchemaName:    f.schemaName,
		Policy:        p,
		Workers:       f.workers,
		Logger:        slog.Default(),
	})
	if err != nil {
		return err
	}

	out := &relschema.OutputOptions{
		Writer:    cmd.OutOrStdout(),
		OutputDir: f.outputDir,
		Format:    f.format,
	}
	if f.outputFile != "" {
		file, err := os.Create(f.outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if err := file.Close(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to close output file: %v\n", err)
			}
		}()
		out.Writer = file
	}

	if err := relschema.FormatResolution(ctx, res, out); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	writeWarnings(cmd.ErrOrStderr(), res)
	return nil
}

// sourceURL picks the single schema source named by the flags and returns
// it as a database URL. A schema file yields "".
func sourceURL(f *resolveFlags) (string, error) {
	var sources []string
	if f.schemaFile != "" {
		sources = append(sources, "")
	}
	if f.dbURL != "" {
		sources = append(sources, f.dbURL)
	}
	if f.mysqlURL != "" {
		sources = append(sources, "mysql://"+strings.TrimPrefix(f.mysqlURL, "mysql://"))
	}
	if f.sqlitePath != "" {
		sources = append(sources, "sqlite://"+f.sqlitePath)
	}

	switch len(sources) {
	case 0:
		if env := os.Getenv("RELSCHEMA_DATABASE_URL"); env != "" {
			return env, nil
		}
		return "", errors.New("one of --schema-file, --db-url, --mysql-url, or --sqlite must be specified")
	case 1:
		return sources[0], nil
	default:
		return "", errors.New("only one of --schema-file, --db-url, --mysql-url, or --sqlite can be specified")
	}
}

// parseTableList splits a comma-separated list, dropping empty entries
func parseTableList(s string) []string {
	if s == "" {
		return nil
	}
	var tables []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tables = append(tables, t)
		}
	}
	return tables
}

func writeWarnings(w io.Writer, res *relation.Resolution) {
	for _, c := range res.Collisions() {
		fmt.Fprintln(w, warningFmt("warning: constraint name %s", c))
	}
	for _, c := range res.Conflicts() {
		fmt.Fprintln(w, warningFmt("warning: property %s", c))
	}
}
