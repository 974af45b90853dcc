package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/relschema/internal/relation"
	"github.com/tordrt/relschema/internal/schema"
)

// MarkdownFormatter formats resolved relations as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the schema in markdown format
func (f *MarkdownFormatter) Format(res *relation.Resolution) error {
	_, _ = fmt.Fprintln(f.writer, "# Database Schema")
	_, _ = fmt.Fprintln(f.writer)

	for _, table := range res.Database().Tables() {
		writeMarkdownTable(f.writer, res, table)
	}

	writeMarkdownSequences(f.writer, res.Database().Sequences())
	writeMarkdownWarnings(f.writer, res)
	return nil
}

func writeMarkdownTable(w io.Writer, res *relation.Resolution, table *schema.Table) {
	_, _ = fmt.Fprintf(w, "## %s\n\n", table.Name())
	if table.Comment != "" {
		_, _ = fmt.Fprintf(w, "%s\n\n", table.Comment)
	}

	_, _ = fmt.Fprintln(w, "### Columns")
	_, _ = fmt.Fprintln(w)
	for _, col := range table.Columns() {
		if constraints := formatConstraints(col); constraints != "" {
			_, _ = fmt.Fprintf(w, "- **%s:** %s, %s\n", col.Name, columnType(col), constraints)
		} else {
			_, _ = fmt.Fprintf(w, "- **%s:** %s\n", col.Name, columnType(col))
		}
	}
	_, _ = fmt.Fprintln(w)

	if uniques := table.Uniques(); len(uniques) > 0 {
		_, _ = fmt.Fprintln(w, "### Unique Constraints")
		_, _ = fmt.Fprintln(w)
		for _, u := range uniques {
			_, _ = fmt.Fprintf(w, "- %s on (%s)\n", u.Name(), strings.Join(columnNames(u.Columns()), ", "))
		}
		_, _ = fmt.Fprintln(w)
	}

	if rels := res.ForeignRelations(table); len(rels) > 0 {
		_, _ = fmt.Fprintln(w, "### References")
		_, _ = fmt.Fprintln(w)
		for _, rel := range rels {
			_, _ = fmt.Fprintf(w, "- `%s` (%s) → %s via %s [%s], %s%s\n",
				rel.Foreign().Property, rel.ForeignType(),
				rel.ForeignTable().Name(), rel.ConstraintName(), columnPairs(rel.ForeignKey()),
				ForeignCardinality(rel), markdownFlags(foreignFlags(rel)))
			if cond := rel.Condition(); cond != nil {
				_, _ = fmt.Fprintf(w, "  - condition: `%s`\n", cond.Text)
				if params := parameterList(rel); params != "" {
					_, _ = fmt.Fprintf(w, "  - %s: %s\n", cond.ParameterMap, params)
				}
			}
		}
		_, _ = fmt.Fprintln(w)
	}

	if rels := res.ReferrerRelations(table); len(rels) > 0 {
		_, _ = fmt.Fprintln(w, "### Referenced by")
		_, _ = fmt.Fprintln(w)
		for _, rel := range rels {
			_, _ = fmt.Fprintf(w, "- `%s` (%s) ← %s via %s [%s], %s%s\n",
				rel.Referrer().Property, rel.ReferrerType(),
				rel.LocalTable().Name(), rel.ConstraintName(), columnPairs(rel.ForeignKey()),
				ReferrerCardinality(rel), markdownFlags(referrerFlags(rel)))
		}
		_, _ = fmt.Fprintln(w)
	}

	if indexes := table.Indexes(); len(indexes) > 0 {
		_, _ = fmt.Fprintln(w, "### Idx")
		_, _ = fmt.Fprintln(w)
		for _, idx := range indexes {
			if idx.IsUnique {
				_, _ = fmt.Fprintf(w, "- %s on (%s), unique\n", idx.Name, strings.Join(idx.Columns, ", "))
			} else {
				_, _ = fmt.Fprintf(w, "- %s on (%s)\n", idx.Name, strings.Join(idx.Columns, ", "))
			}
		}
		_, _ = fmt.Fprintln(w)
	}
}

func writeMarkdownSequences(w io.Writer, seqs []*schema.Sequence) {
	if len(seqs) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "## Sequences")
	_, _ = fmt.Fprintln(w)
	for _, seq := range seqs {
		_, _ = fmt.Fprintf(w, "- %s\n", formatSequence(seq))
	}
	_, _ = fmt.Fprintln(w)
}

func writeMarkdownWarnings(w io.Writer, res *relation.Resolution) {
	warnings := warningLines(res)
	if len(warnings) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "## Warnings")
	_, _ = fmt.Fprintln(w)
	for _, line := range warnings {
		_, _ = fmt.Fprintf(w, "- %s\n", line)
	}
	_, _ = fmt.Fprintln(w)
}

func markdownFlags(flags []string) string {
	if len(flags) == 0 {
		return ""
	}
	return ", " + strings.Join(flags, ", ")
}

func formatConstraints(col *schema.Column) string {
	var constraints []string

	if col.IsPrimaryKey() {
		constraints = append(constraints, "PK")
	} else if col.IsUnique() {
		constraints = append(constraints, "UNIQUE")
	}

	if col.NotNull {
		constraints = append(constraints, "NOT NULL")
	}

	if col.Default != nil {
		constraints = append(constraints, fmt.Sprintf("DEFAULT %s", *col.Default))
	}

	if col.Comment != "" {
		constraints = append(constraints, col.Comment)
	}

	return strings.Join(constraints, ", ")
}
