package formatter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tordrt/relschema/internal/relation"
	"github.com/tordrt/relschema/internal/schema"
)

const (
	formatMarkdown = "markdown"
	formatText     = "text"
)

// ParseFormat validates a report format name
func ParseFormat(name string) (string, error) {
	switch strings.ToLower(name) {
	case "", formatText:
		return formatText, nil
	case formatMarkdown, "md":
		return formatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text or markdown)", name)
	}
}

// Formatter renders a resolution
type Formatter interface {
	Format(res *relation.Resolution) error
}

// New returns the single-stream formatter for format
func New(format string, w io.Writer) (Formatter, error) {
	format, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if format == formatMarkdown {
		return NewMarkdownFormatter(w), nil
	}
	return NewTextFormatter(w), nil
}

// MultiFileFormatter writes an overview plus one file per table into a
// directory. Table files are written concurrently.
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // "text" or "markdown"
	Workers      int
	Logger       *slog.Logger
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
		Workers:      runtime.GOMAXPROCS(0),
		Logger:       slog.Default(),
	}
}

// Format writes the report files
func (f *MultiFileFormatter) Format(res *relation.Resolution) error {
	return f.FormatContext(context.Background(), res)
}

// FormatContext writes the report files, stopping early when ctx is done
func (f *MultiFileFormatter) FormatContext(ctx context.Context, res *relation.Resolution) error {
	format, err := ParseFormat(f.OutputFormat)
	if err != nil {
		return err
	}

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(f.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeOverview(res, format); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	errg, ctx := errgroup.WithContext(ctx)
	errg.SetLimit(max(f.Workers, 1))
	for _, table := range res.Database().Tables() {
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := f.writeTableFile(res, table, format); err != nil {
				return fmt.Errorf("failed to write table file for %s: %w", table.Name(), err)
			}
			return nil
		})
	}
	if err := errg.Wait(); err != nil {
		return err
	}

	f.logger().Info("report written",
		"dir", f.OutputDir,
		"format", format,
		"tables", len(res.Database().Tables()))
	return nil
}

func (f *MultiFileFormatter) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.Default()
	}
	return f.Logger
}

// writeOverview writes the overview file: tables, their outgoing relations,
// sequences and warnings
func (f *MultiFileFormatter) writeOverview(res *relation.Resolution, format string) error {
	ext := fileExtension(format)
	var buf bytes.Buffer

	// Sort tables alphabetically
	tables := append([]*schema.Table(nil), res.Database().Tables()...)
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].Name().String() < tables[j].Name().String()
	})

	if format == formatMarkdown {
		_, _ = fmt.Fprintf(&buf, "# Schema Overview\n\n")
		_, _ = fmt.Fprintf(&buf, "Each table has a corresponding file: `<table_name>%s`\n\n", ext)
		_, _ = fmt.Fprintf(&buf, "## Tables\n\n")
		for _, table := range tables {
			_, _ = fmt.Fprintf(&buf, "- **%s**%s\n", table.Name(), referenceSummary(res, table, ", "))
		}
		_, _ = fmt.Fprintln(&buf)
		writeMarkdownSequences(&buf, res.Database().Sequences())
		writeMarkdownWarnings(&buf, res)
	} else {
		_, _ = fmt.Fprintf(&buf, "SCHEMA OVERVIEW\n")
		_, _ = fmt.Fprintf(&buf, "Each table has a file: <table_name>%s\n\n", ext)
		for _, table := range tables {
			_, _ = fmt.Fprintf(&buf, "%s%s\n", table.Name(), referenceSummary(res, table, ","))
		}
		for _, seq := range res.Database().Sequences() {
			_, _ = fmt.Fprintf(&buf, "SEQUENCE %s\n", formatSequence(seq))
		}
		for _, w := range warningLines(res) {
			_, _ = fmt.Fprintf(&buf, "WARNING %s\n", w)
		}
	}

	return os.WriteFile(filepath.Join(f.OutputDir, "_overview"+ext), buf.Bytes(), 0o644)
}

func referenceSummary(res *relation.Resolution, table *schema.Table, sep string) string {
	rels := res.ForeignRelations(table)
	if len(rels) == 0 {
		return ""
	}
	targets := make([]string, 0, len(rels))
	for _, rel := range rels {
		targets = append(targets, rel.Foreign().Property+"→"+rel.ForeignTable().Name().String())
	}
	return fmt.Sprintf(" (references: %s)", strings.Join(targets, sep))
}

// writeTableFile writes a single table to its own file
func (f *MultiFileFormatter) writeTableFile(res *relation.Resolution, table *schema.Table, format string) error {
	var buf bytes.Buffer
	if format == formatMarkdown {
		writeMarkdownTable(&buf, res, table)
	} else {
		writeTextTable(&buf, res, table)
	}

	filename := filepath.Join(f.OutputDir, tableFileName(table)+fileExtension(format))
	if err := os.WriteFile(filename, buf.Bytes(), 0o644); err != nil {
		return err
	}
	f.logger().Debug("table file written", "table", table.Name().String(), "file", filename)
	return nil
}

func fileExtension(format string) string {
	if format == formatMarkdown {
		return ".md"
	}
	return ".txt"
}
