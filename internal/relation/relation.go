// Package relation resolves the foreign keys of a finalized schema into
// relations: cardinality, referrer eligibility, the property names of both
// directions and the sub-query capabilities the generated code may offer.
//
// Results are computed lazily per foreign key and memoized. A Resolver may be
// shared by parallel workers.
package relation

import (
	"github.com/tordrt/relschema/internal/fixedcond"
	"github.com/tordrt/relschema/internal/schema"
)

// Fixed name markers.
const (
	SelfMarker     = "Self"
	ListMarker     = "List"
	AsOneMarker    = "AsOne"
	ByMarker       = "By"
	CollectionType = "List"
)

// Names holds both spellings of a derived property name: Name is the
// verbatim concatenation of the segments, Property is re-cased to the
// property accessor convention.
type Names struct {
	Name     string
	Property string
}

func (n Names) String() string {
	return n.Property
}

// Relation is the resolved view of one foreign key. It is read-only.
type Relation struct {
	fk             *schema.ForeignKey
	constraintName string

	oneToOne      bool
	selfReference bool
	canBeReferrer bool

	foreign      Names
	referrer     Names
	foreignType  string
	referrerType string

	foreignInScope     bool
	referrerInScope    bool
	existsReferrer     bool
	derivedReferrer    bool
	implicitConversion bool

	condition *fixedcond.Result
}

// ForeignKey returns the underlying foreign key.
func (r *Relation) ForeignKey() *schema.ForeignKey { return r.fk }

// ConstraintName returns the declared or synthesized constraint name.
func (r *Relation) ConstraintName() string { return r.constraintName }

// LocalTable returns the table declaring the foreign key.
func (r *Relation) LocalTable() *schema.Table { return r.fk.Table() }

// ForeignTable returns the referenced table.
func (r *Relation) ForeignTable() *schema.Table { return r.fk.ForeignTable() }

// IsOneToOne reports whether the local columns are exactly the local primary
// key or one of its unique constraints.
func (r *Relation) IsOneToOne() bool { return r.oneToOne }

// IsBizOneToOne reports a one-to-one relation with a fixed condition.
func (r *Relation) IsBizOneToOne() bool { return r.oneToOne && r.fk.HasFixedCondition() }

// IsBizManyToOne reports a many-to-one relation with a fixed condition.
func (r *Relation) IsBizManyToOne() bool { return !r.oneToOne && r.fk.HasFixedCondition() }

// IsSelfReference reports a key referencing its own table.
func (r *Relation) IsSelfReference() bool { return r.selfReference }

// CanBeReferrer reports whether the foreign table gets a back-reference
// property for this relation.
func (r *Relation) CanBeReferrer() bool { return r.canBeReferrer }

// Foreign returns the property name on the local entity pointing to the
// foreign one.
func (r *Relation) Foreign() Names { return r.foreign }

// Referrer returns the property name on the foreign entity pointing back to
// the local one: a collection, or a single entity for one-to-one.
func (r *Relation) Referrer() Names { return r.referrer }

// ForeignType returns the display type of the foreign property.
func (r *Relation) ForeignType() string { return r.foreignType }

// ReferrerType returns the display type of the referrer property.
func (r *Relation) ReferrerType() string { return r.referrerType }

// IsForeignInScopeSupported reports support for restricting local rows by a
// sub-query on the foreign table (IN semantics, single-column keys).
func (r *Relation) IsForeignInScopeSupported() bool { return r.foreignInScope }

// IsReferrerInScopeSupported reports support for restricting foreign rows by
// a sub-query on the local table (IN semantics, single-column keys).
func (r *Relation) IsReferrerInScopeSupported() bool { return r.referrerInScope }

// IsExistsReferrerSupported reports support for correlated EXISTS sub-queries
// from the foreign table on the local one.
func (r *Relation) IsExistsReferrerSupported() bool { return r.existsReferrer }

// IsDerivedReferrerSupported reports support for scalar columns derived from
// the local rows of a foreign row.
func (r *Relation) IsDerivedReferrerSupported() bool { return r.derivedReferrer }

// IsImplicitConversion reports that traversing the relation needs a value
// conversion rather than a plain assignment.
func (r *Relation) IsImplicitConversion() bool { return r.implicitConversion }

// Condition returns the analyzed fixed condition, or nil without one.
func (r *Relation) Condition() *fixedcond.Result { return r.condition }
