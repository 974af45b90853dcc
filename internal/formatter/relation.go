// Package formatter renders resolved relations as text or markdown reports,
// in one stream or as one file per table.
package formatter

import (
	"fmt"
	"strings"

	"github.com/tordrt/relschema/internal/relation"
	"github.com/tordrt/relschema/internal/schema"
)

// ForeignCardinality describes a relation as seen from its local table
func ForeignCardinality(rel *relation.Relation) string {
	switch {
	case rel.IsBizOneToOne():
		return "biz one-to-one"
	case rel.IsBizManyToOne():
		return "biz many-to-one"
	case rel.IsOneToOne():
		return "one-to-one"
	default:
		return "many-to-one"
	}
}

// ReferrerCardinality describes a relation as seen from its foreign table
func ReferrerCardinality(rel *relation.Relation) string {
	if rel.IsOneToOne() {
		return "one-to-one"
	}
	return "one-to-many"
}

// foreignFlags lists what the generated code may do along the foreign
// direction, plus notable markers of the key
func foreignFlags(rel *relation.Relation) []string {
	var flags []string
	if rel.IsForeignInScopeSupported() {
		flags = append(flags, "in-scope")
	}
	flags = append(flags, markers(rel)...)
	return flags
}

func referrerFlags(rel *relation.Relation) []string {
	var flags []string
	if rel.IsReferrerInScopeSupported() {
		flags = append(flags, "in-scope")
	}
	if rel.IsExistsReferrerSupported() {
		flags = append(flags, "exists")
	}
	if rel.IsDerivedReferrerSupported() {
		flags = append(flags, "derived")
	}
	flags = append(flags, markers(rel)...)
	return flags
}

func markers(rel *relation.Relation) []string {
	fk := rel.ForeignKey()
	var m []string
	if rel.IsSelfReference() {
		m = append(m, "self")
	}
	if rel.IsImplicitConversion() {
		m = append(m, "implicit-conversion")
	}
	if fk.Additional {
		m = append(m, "additional")
	}
	if fk.SuppressJoin {
		m = append(m, "suppress-join")
	}
	if fk.Deprecated {
		m = append(m, "deprecated")
	}
	return m
}

// columnPairs renders the key as LOCAL=FOREIGN pairs
func columnPairs(fk *schema.ForeignKey) string {
	locals, foreigns := fk.LocalColumnNames(), fk.ForeignColumnNames()
	if len(locals) == 0 {
		return "fixed condition only"
	}
	pairs := make([]string, len(locals))
	for i := range locals {
		pairs[i] = locals[i] + "=" + foreigns[i]
	}
	return strings.Join(pairs, ", ")
}

func columnType(col *schema.Column) string {
	if col.Size != "" {
		return fmt.Sprintf("%s(%s)", col.DBType, col.Size)
	}
	return col.DBType
}

func columnNames(cols []*schema.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func parameterList(rel *relation.Relation) string {
	cond := rel.Condition()
	if cond == nil || !cond.HasParameters() {
		return ""
	}
	parts := make([]string, len(cond.Parameters))
	for i, p := range cond.Parameters {
		parts[i] = p.Name + ": " + p.Type
	}
	return strings.Join(parts, ", ")
}

// tableFileName is the per-table file name without extension
func tableFileName(t *schema.Table) string {
	return t.Name().String()
}
