package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/relschema/internal/relation"
	"github.com/tordrt/relschema/internal/schema"
)

// TextFormatter formats resolved relations as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes every table, then sequences and warnings
func (f *TextFormatter) Format(res *relation.Resolution) error {
	db := res.Database()
	for i, table := range db.Tables() {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between tables
		}
		writeTextTable(f.writer, res, table)
	}

	if seqs := db.Sequences(); len(seqs) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		for _, seq := range seqs {
			_, _ = fmt.Fprintf(f.writer, "SEQUENCE %s\n", formatSequence(seq))
		}
	}

	if warnings := warningLines(res); len(warnings) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		for _, w := range warnings {
			_, _ = fmt.Fprintf(f.writer, "WARNING %s\n", w)
		}
	}
	return nil
}

func writeTextTable(w io.Writer, res *relation.Resolution, table *schema.Table) {
	// Table header with primary key
	pkStr := ""
	if pk := table.PrimaryKey(); len(pk) > 0 {
		pkStr = fmt.Sprintf(" (PK: %s)", strings.Join(columnNames(pk), ", "))
	}
	_, _ = fmt.Fprintf(w, "TABLE %s%s\n", table.Name(), pkStr)

	for _, col := range table.Columns() {
		_, _ = fmt.Fprintf(w, "  %s\n", formatTextColumn(col))
	}

	if uniques := table.Uniques(); len(uniques) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "  UNIQUE:")
		for _, u := range uniques {
			_, _ = fmt.Fprintf(w, "    %s (%s)\n", u.Name(), strings.Join(columnNames(u.Columns()), ", "))
		}
	}

	if rels := res.ForeignRelations(table); len(rels) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "  RELATIONS:")
		for _, rel := range rels {
			_, _ = fmt.Fprintf(w, "    %s: %s → %s (%s: %s) %s%s\n",
				rel.Foreign().Property, rel.ForeignType(),
				rel.ForeignTable().Name(), rel.ConstraintName(), columnPairs(rel.ForeignKey()),
				ForeignCardinality(rel), textFlags(foreignFlags(rel)))
			writeTextCondition(w, rel)
		}
	}

	if rels := res.ReferrerRelations(table); len(rels) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "  REFERRERS:")
		for _, rel := range rels {
			_, _ = fmt.Fprintf(w, "    %s: %s ← %s (%s: %s) %s%s\n",
				rel.Referrer().Property, rel.ReferrerType(),
				rel.LocalTable().Name(), rel.ConstraintName(), columnPairs(rel.ForeignKey()),
				ReferrerCardinality(rel), textFlags(referrerFlags(rel)))
		}
	}

	if indexes := table.Indexes(); len(indexes) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, "  INDEXES:")
		for _, idx := range indexes {
			unique := ""
			if idx.IsUnique {
				unique = " UNIQUE"
			}
			_, _ = fmt.Fprintf(w, "    %s (%s)%s\n", idx.Name, strings.Join(idx.Columns, ", "), unique)
		}
	}
}

func writeTextCondition(w io.Writer, rel *relation.Relation) {
	cond := rel.Condition()
	if cond == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "      condition: %s\n", cond.Text)
	if params := parameterList(rel); params != "" {
		_, _ = fmt.Fprintf(w, "      %s: %s\n", cond.ParameterMap, params)
	}
}

func textFlags(flags []string) string {
	if len(flags) == 0 {
		return ""
	}
	return " [" + strings.Join(flags, ", ") + "]"
}

func formatTextColumn(col *schema.Column) string {
	parts := []string{col.Name + ":", columnType(col)}

	if col.IsUnique() && !col.IsPrimaryKey() {
		parts = append(parts, "UNIQUE")
	}
	if col.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if col.Default != nil {
		parts = append(parts, fmt.Sprintf("DEFAULT %s", *col.Default))
	}
	if col.IsMultipleFK() {
		parts = append(parts, "MULTIPLE FK")
	}

	return strings.Join(parts, " ")
}

func formatSequence(seq *schema.Sequence) string {
	parts := []string{seq.Name().String()}
	if seq.Minimum != nil {
		parts = append(parts, "min="+seq.Minimum.String())
	}
	if seq.Maximum != nil {
		parts = append(parts, "max="+seq.Maximum.String())
	}
	if seq.Start != nil {
		parts = append(parts, "start="+seq.Start.String())
	}
	if seq.Increment != nil {
		parts = append(parts, fmt.Sprintf("increment=%d", *seq.Increment))
	}
	return strings.Join(parts, " ")
}

func warningLines(res *relation.Resolution) []string {
	var lines []string
	for _, c := range res.Collisions() {
		lines = append(lines, "constraint name "+c.String())
	}
	for _, c := range res.Conflicts() {
		lines = append(lines, "property "+c.String())
	}
	return lines
}
