package relation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tordrt/relschema/internal/fixedcond"
	"github.com/tordrt/relschema/internal/policy"
	"github.com/tordrt/relschema/internal/schema"
)

// Resolver resolves the foreign keys of one database. Each foreign key is
// resolved at most once; concurrent callers wait for the first computation
// and share its result.
type Resolver struct {
	db      *schema.Database
	policy  *policy.Policy
	names   *nameDeriver
	logger  *slog.Logger
	workers int

	mu      sync.Mutex
	entries map[*schema.ForeignKey]*entry
}

type entry struct {
	once sync.Once
	rel  *Relation
	err  error
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithWorkers sets how many foreign keys ResolveAll resolves in parallel.
func WithWorkers(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.workers = n
		}
	}
}

// NewResolver creates a resolver over db. It finalizes db if that has not
// happened yet; a structural error of the model is returned here. A nil
// policy means policy.Default().
func NewResolver(db *schema.Database, p *policy.Policy, opts ...Option) (*Resolver, error) {
	if p == nil {
		p = policy.Default()
	}
	r := &Resolver{
		db:      db,
		policy:  p,
		logger:  slog.Default(),
		workers: 1,
		entries: make(map[*schema.ForeignKey]*entry),
		names: &nameDeriver{
			gen:        p.Generator(),
			convention: p.Convention(),
			aliases:    p.MultipleFKAlias,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := db.Finalize(); err != nil {
		return nil, err
	}
	return r, nil
}

// Database returns the resolved database.
func (r *Resolver) Database() *schema.Database {
	return r.db
}

// Policy returns the policy in use.
func (r *Resolver) Policy() *policy.Policy {
	return r.policy
}

// Resolve returns the relation of fk, computing it on first access.
func (r *Resolver) Resolve(fk *schema.ForeignKey) (*Relation, error) {
	if fk.Table().Database() != r.db {
		return nil, fmt.Errorf("foreign key %s belongs to another database", fk.Name())
	}
	e := r.entry(fk)
	e.once.Do(func() {
		e.rel, e.err = r.resolve(fk)
	})
	return e.rel, e.err
}

func (r *Resolver) entry(fk *schema.ForeignKey) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[fk]
	if !ok {
		e = &entry{}
		r.entries[fk] = e
	}
	return e
}

func (r *Resolver) resolve(fk *schema.ForeignKey) (*Relation, error) {
	if err := fixedcond.CheckOptions(fk); err != nil {
		return nil, err
	}
	local, foreign := fk.Table(), fk.ForeignTable()
	if foreign == nil {
		return nil, schema.NewConfigError(fk.Name(), local.Name().String(),
			"foreign table "+fk.ForeignTableName().String(), "foreign table not resolved")
	}

	rel := &Relation{
		fk:             fk,
		constraintName: fk.Name(),
		oneToOne:       isOneToOne(fk),
		selfReference:  fk.IsSelfReference(),
	}

	rel.foreign = r.names.foreign(fk, rel.selfReference)
	rel.referrer = r.names.referrer(fk, rel.selfReference, rel.oneToOne)
	rel.canBeReferrer = canBeReferrer(fk, rel.referrer.Property, r.policy)

	optional := r.policy.Naming.OptionalEntity
	rel.foreignType = wrapType(optional, r.names.entity(foreign))
	if rel.oneToOne {
		rel.referrerType = wrapType(optional, r.names.entity(local))
	} else {
		rel.referrerType = wrapType(CollectionType, r.names.entity(local))
	}

	caps := subQueryCapabilities(fk, rel.oneToOne, rel.canBeReferrer, r.policy)
	rel.foreignInScope = caps.foreignInScope
	rel.referrerInScope = caps.referrerInScope
	rel.existsReferrer = caps.existsReferrer
	rel.derivedReferrer = caps.derivedReferrer
	rel.implicitConversion = isImplicitConversion(fk)

	if fk.HasFixedCondition() {
		res, err := fixedcond.Analyze(fk.FixedCondition, fixedcond.Context{
			Relation:     rel.foreign.Name,
			LocalTable:   local,
			ForeignTable: foreign,
		})
		if err != nil {
			cfgErr := schema.NewConfigError(fk.Name(), local.Name().String(), "fixedCondition", "malformed fixed condition")
			cfgErr.Cause = err
			return nil, cfgErr
		}
		rel.condition = res
	}

	r.logger.Debug("relation resolved",
		"foreignKey", fk.Name(),
		"table", local.Name().String(),
		"foreignTable", foreign.Name().String(),
		"foreignProperty", rel.foreign.Property,
		"referrerProperty", rel.referrer.Property,
		"oneToOne", rel.oneToOne,
		"canBeReferrer", rel.canBeReferrer)
	return rel, nil
}

// ResolveAll resolves every foreign key of the database, tables and keys in
// declaration order. The first structural error aborts the pass.
func (r *Resolver) ResolveAll(ctx context.Context) (*Resolution, error) {
	var fks []*schema.ForeignKey
	for _, t := range r.db.Tables() {
		fks = append(fks, t.ForeignKeys()...)
	}

	rels := make([]*Relation, len(fks))
	errg, ctx := errgroup.WithContext(ctx)
	errg.SetLimit(r.workers)
	for i, fk := range fks {
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rel, err := r.Resolve(fk)
			if err != nil {
				return err
			}
			rels[i] = rel
			return nil
		})
	}
	if err := errg.Wait(); err != nil {
		return nil, err
	}

	res := newResolution(r.db, rels, r.db.Collisions())
	for _, c := range res.Conflicts() {
		r.logger.Warn("relation property name conflict",
			"table", c.Table, "property", c.Property, "first", c.First, "second", c.Second)
	}
	r.logger.Info("relations resolved",
		"database", r.db.Name,
		"relations", len(rels),
		"nameCollisions", len(res.Collisions()))
	return res, nil
}
