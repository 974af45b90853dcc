package relation

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tordrt/relschema/internal/policy"
	"github.com/tordrt/relschema/internal/schema"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	t  *testing.T
	db *schema.Database
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{t: t, db: schema.NewDatabase("main", "postgresql", "public", schema.WithLogger(discard))}
}

func pk(name, dbType string) schema.ColumnSpec {
	return schema.ColumnSpec{Name: name, DBType: dbType, PrimaryKey: true}
}

func col(name, dbType string) schema.ColumnSpec {
	return schema.ColumnSpec{Name: name, DBType: dbType}
}

func (f *fixture) table(name string, cols ...schema.ColumnSpec) *schema.Table {
	f.t.Helper()
	tbl, err := f.db.AddTable(schema.TableSpec{Name: name})
	require.NoError(f.t, err)
	for _, c := range cols {
		_, err := tbl.AddColumn(c)
		require.NoError(f.t, err)
	}
	return tbl
}

func (f *fixture) fk(tbl *schema.Table, spec schema.ForeignKeySpec) *schema.ForeignKey {
	f.t.Helper()
	fk, err := tbl.AddForeignKey(spec)
	require.NoError(f.t, err)
	return fk
}

func (f *fixture) simpleFK(tbl *schema.Table, name, foreign, local, foreignCol string) *schema.ForeignKey {
	f.t.Helper()
	return f.fk(tbl, schema.ForeignKeySpec{
		Name:           name,
		ForeignTable:   foreign,
		LocalColumns:   []string{local},
		ForeignColumns: []string{foreignCol},
	})
}

func (f *fixture) resolver(p *policy.Policy, opts ...Option) *Resolver {
	f.t.Helper()
	r, err := NewResolver(f.db, p, append([]Option{WithLogger(discard)}, opts...)...)
	require.NoError(f.t, err)
	return r
}

func (f *fixture) resolve(r *Resolver, fk *schema.ForeignKey) *Relation {
	f.t.Helper()
	rel, err := r.Resolve(fk)
	require.NoError(f.t, err)
	return rel
}

// memberSchema is a small shop schema:
//
//	MEMBER_STATUS <- MEMBER <- MEMBER_SECURITY (one-to-one)
//	                 MEMBER <- PURCHASE (twice, plus a fixed-condition relation)
//	                 MEMBER <- MEMBER_LOGIN
type memberSchema struct {
	*fixture
	memberStatus, member, security, login, purchase *schema.Table

	fkMemberStatus, fkSecurity, fkLogin            *schema.ForeignKey
	fkPurchaseMember, fkRecommender, fkFormalMember *schema.ForeignKey
}

func newMemberSchema(t *testing.T) *memberSchema {
	f := newFixture(t)
	s := &memberSchema{fixture: f}

	s.memberStatus = f.table("MEMBER_STATUS",
		pk("MEMBER_STATUS_CODE", "CHAR(3)"),
		col("MEMBER_STATUS_NAME", "VARCHAR(50)"),
	)
	s.member = f.table("MEMBER",
		pk("MEMBER_ID", "INTEGER"),
		col("MEMBER_NAME", "VARCHAR(200)"),
		col("MEMBER_STATUS_CODE", "VARCHAR(3)"),
		col("REGISTER_DATETIME", "TIMESTAMP"),
	)
	s.security = f.table("MEMBER_SECURITY",
		pk("MEMBER_ID", "INTEGER"),
		col("LOGIN_PASSWORD", "VARCHAR(50)"),
	)
	s.login = f.table("MEMBER_LOGIN",
		pk("MEMBER_LOGIN_ID", "BIGINT"),
		col("MEMBER_ID", "INTEGER"),
		col("LOGIN_DATETIME", "TIMESTAMP"),
	)
	_, err := s.login.AddUnique("UQ_MEMBER_LOGIN", "MEMBER_ID", "LOGIN_DATETIME")
	require.NoError(t, err)
	s.purchase = f.table("PURCHASE",
		pk("PURCHASE_ID", "BIGINT"),
		col("MEMBER_ID", "INTEGER"),
		col("RECOMMENDER_MEMBER_ID", "BIGINT"),
		col("PURCHASE_PRICE", "NUMERIC(10,2)"),
	)

	s.fkMemberStatus = f.simpleFK(s.member, "FK_MEMBER_MEMBER_STATUS", "MEMBER_STATUS", "MEMBER_STATUS_CODE", "MEMBER_STATUS_CODE")
	s.fkSecurity = f.simpleFK(s.security, "FK_MEMBER_SECURITY_MEMBER", "MEMBER", "MEMBER_ID", "MEMBER_ID")
	s.fkLogin = f.simpleFK(s.login, "FK_MEMBER_LOGIN_MEMBER", "MEMBER", "MEMBER_ID", "MEMBER_ID")
	s.fkPurchaseMember = f.simpleFK(s.purchase, "FK_PURCHASE_MEMBER", "MEMBER", "MEMBER_ID", "MEMBER_ID")
	s.fkRecommender = f.simpleFK(s.purchase, "FK_PURCHASE_RECOMMENDER", "MEMBER", "RECOMMENDER_MEMBER_ID", "MEMBER_ID")
	s.fkFormalMember = f.fk(s.purchase, schema.ForeignKeySpec{
		Name:           "FK_PURCHASE_MEMBER_FORMAL",
		ForeignTable:   "MEMBER",
		LocalColumns:   []string{"MEMBER_ID"},
		ForeignColumns: []string{"MEMBER_ID"},
		FixedCondition: "$$foreignAlias$$.MEMBER_STATUS_CODE = /*pmb.statusCode*/'FML'",
		FixedSuffix:    "AsFormal",
	})
	return s
}
