package relation

import (
	"fmt"
	"strings"

	"github.com/tordrt/relschema/internal/naming"
	"github.com/tordrt/relschema/internal/schema"
)

// Conflict describes two relations giving the same property name to one
// entity.
type Conflict struct {
	Table    string
	Property string
	First    string
	Second   string
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s.%s is derived from both %s and %s", c.Table, c.Property, c.First, c.Second)
}

// Resolution is the outcome of a full resolution pass.
type Resolution struct {
	db         *schema.Database
	relations  []*Relation
	byFK       map[*schema.ForeignKey]*Relation
	collisions []naming.Collision
	conflicts  []Conflict
}

func newResolution(db *schema.Database, rels []*Relation, collisions []naming.Collision) *Resolution {
	res := &Resolution{
		db:         db,
		relations:  rels,
		byFK:       make(map[*schema.ForeignKey]*Relation, len(rels)),
		collisions: collisions,
	}
	for _, rel := range rels {
		res.byFK[rel.fk] = rel
	}
	res.conflicts = findConflicts(rels)
	return res
}

// Database returns the resolved database.
func (r *Resolution) Database() *schema.Database {
	return r.db
}

// Relations returns every relation, tables and keys in declaration order.
func (r *Resolution) Relations() []*Relation {
	return r.relations
}

// Relation returns the relation of fk.
func (r *Resolution) Relation(fk *schema.ForeignKey) (*Relation, bool) {
	rel, ok := r.byFK[fk]
	return rel, ok
}

// ForeignRelations returns the relations declared on table.
func (r *Resolution) ForeignRelations(table *schema.Table) []*Relation {
	var out []*Relation
	for _, fk := range table.ForeignKeys() {
		if rel, ok := r.byFK[fk]; ok {
			out = append(out, rel)
		}
	}
	return out
}

// ReferrerRelations returns the relations that give table a back-reference.
func (r *Resolution) ReferrerRelations(table *schema.Table) []*Relation {
	var out []*Relation
	for _, fk := range table.Referrers() {
		if rel, ok := r.byFK[fk]; ok && rel.canBeReferrer {
			out = append(out, rel)
		}
	}
	return out
}

// Collisions returns the synthesized constraint names that collided.
func (r *Resolution) Collisions() []naming.Collision {
	return r.collisions
}

// Conflicts returns property names derived more than once for one entity.
func (r *Resolution) Conflicts() []Conflict {
	return r.conflicts
}

func findConflicts(rels []*Relation) []Conflict {
	type owner struct {
		table    *schema.Table
		property string
	}
	seen := make(map[owner]string)
	var conflicts []Conflict

	add := func(t *schema.Table, property, source string) {
		key := owner{table: t, property: strings.ToLower(property)}
		if prev, ok := seen[key]; ok {
			conflicts = append(conflicts, Conflict{
				Table:    t.Name().String(),
				Property: property,
				First:    prev,
				Second:   source,
			})
			return
		}
		seen[key] = source
	}

	for _, rel := range rels {
		add(rel.LocalTable(), rel.foreign.Property, rel.constraintName)
		if rel.canBeReferrer {
			add(rel.ForeignTable(), rel.referrer.Property, rel.constraintName)
		}
	}
	return conflicts
}
