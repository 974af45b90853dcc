package schema

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietDatabase(name string) *Database {
	return NewDatabase(name, "postgresql", "public", WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func mustTable(t *testing.T, db *Database, name string, cols ...ColumnSpec) *Table {
	t.Helper()
	tbl, err := db.AddTable(TableSpec{Name: name})
	require.NoError(t, err)
	for _, c := range cols {
		_, err := tbl.AddColumn(c)
		require.NoError(t, err)
	}
	return tbl
}

func TestSchemaHoldsOneDatabase(t *testing.T) {
	s := NewSchema()
	assert.Equal(t, "", s.Dialect())

	require.NoError(t, s.AddDatabase(quietDatabase("main")))
	assert.Equal(t, "postgresql", s.Dialect())

	err := s.AddDatabase(quietDatabase("other"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStructuralInconsistency)
	assert.Equal(t, "main", s.Database().Name)
}

func TestDatabaseTableLookup(t *testing.T) {
	db := quietDatabase("main")
	mustTable(t, db, "MEMBER")
	_, err := db.AddTable(TableSpec{Name: "MEMBER", Schema: "audit"})
	require.NoError(t, err)

	tbl, ok := db.Table(QualifiedName{Name: "member"})
	require.True(t, ok)
	assert.Equal(t, "MEMBER", tbl.Name().Name)
	assert.Equal(t, "", tbl.Name().Schema)

	tbl, ok = db.Table(QualifiedName{Schema: "public", Name: "MEMBER"})
	require.True(t, ok)
	assert.Equal(t, "", tbl.Name().Schema)

	tbl, ok = db.Table(QualifiedName{Schema: "AUDIT", Name: "member"})
	require.True(t, ok)
	assert.Equal(t, "audit.MEMBER", tbl.Name().String())

	_, ok = db.Table(QualifiedName{Name: "PURCHASE"})
	assert.False(t, ok)

	_, err = db.AddTable(TableSpec{Name: "member"})
	assert.True(t, IsConfigError(err))

	names := []string{}
	for _, tbl := range db.Tables() {
		names = append(names, tbl.Name().String())
	}
	assert.Equal(t, []string{"MEMBER", "audit.MEMBER"}, names)
}

func TestColumnClassification(t *testing.T) {
	db := quietDatabase("main")
	tbl := mustTable(t, db, "MEMBER",
		ColumnSpec{Name: "MEMBER_ID", DBType: "INTEGER", PrimaryKey: true},
		ColumnSpec{Name: "MEMBER_NAME", DBType: "varchar(200)"},
		ColumnSpec{Name: "BIRTHDATE", DBType: "DATE"},
		ColumnSpec{Name: "UPDATED_AT", DBType: "TIMESTAMP(3) WITH TIME ZONE"},
		ColumnSpec{Name: "PHOTO", DBType: "BYTEA"},
		ColumnSpec{Name: "LOCATION", DBType: "POINT"},
	)

	tests := []struct {
		column  string
		logical LogicalType
		native  string
	}{
		{"MEMBER_ID", NumericType, "Integer"},
		{"MEMBER_NAME", StringType, "String"},
		{"BIRTHDATE", TemporalType, "Date"},
		{"UPDATED_AT", TemporalType, "Timestamp"},
		{"PHOTO", BinaryType, "byte[]"},
		{"LOCATION", OtherType, "Object"},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			c, ok := tbl.Column(tt.column)
			require.True(t, ok)
			assert.Equal(t, tt.logical, c.LogicalType())
			assert.Equal(t, tt.native, c.NativeType())
		})
	}

	id, _ := tbl.Column("member_id")
	assert.True(t, id.IsPrimaryKey())
	assert.True(t, id.NotNull)
	assert.True(t, id.IsNumericLike())
}

func TestBaseType(t *testing.T) {
	assert.Equal(t, "VARCHAR", BaseType("varchar(200)"))
	assert.Equal(t, "INT", BaseType("int(11) unsigned"))
	assert.Equal(t, "NUMERIC", BaseType("NUMERIC(12, 2)"))
	assert.Equal(t, "TIMESTAMP WITH TIME ZONE", BaseType("timestamp(6)  with time zone"))
	assert.Equal(t, "TEXT", BaseType("text[]"))
	assert.Equal(t, NumericType, ClassifyType("UNSIGNED BIGINT"))
}

func TestUniqueAndPrimaryKeySets(t *testing.T) {
	db := quietDatabase("main")
	tbl := mustTable(t, db, "MEMBER_LOGIN",
		ColumnSpec{Name: "MEMBER_LOGIN_ID", DBType: "BIGINT", PrimaryKey: true},
		ColumnSpec{Name: "MEMBER_ID", DBType: "INTEGER"},
		ColumnSpec{Name: "LOGIN_DATETIME", DBType: "TIMESTAMP"},
		ColumnSpec{Name: "LOGIN_CODE", DBType: "VARCHAR(20)", Unique: true},
	)
	_, err := tbl.AddUnique("UQ_MEMBER_LOGIN", "MEMBER_ID", "LOGIN_DATETIME")
	require.NoError(t, err)

	col := func(n string) *Column {
		c, ok := tbl.Column(n)
		require.True(t, ok)
		return c
	}

	assert.True(t, tbl.IsPrimaryKeySet([]*Column{col("MEMBER_LOGIN_ID")}))
	assert.True(t, tbl.IsUniqueSet([]*Column{col("LOGIN_DATETIME"), col("MEMBER_ID")}))
	assert.True(t, tbl.IsUniqueSet([]*Column{col("LOGIN_CODE")}))
	assert.False(t, tbl.IsUniqueSet([]*Column{col("MEMBER_ID")}))
	assert.False(t, tbl.IsUniqueSet([]*Column{col("MEMBER_ID"), col("LOGIN_DATETIME"), col("LOGIN_CODE")}))
	assert.False(t, tbl.IsPrimaryKeySet(nil))
	assert.True(t, col("MEMBER_ID").IsUnique())

	_, err = tbl.AddUnique("UQ_BROKEN", "NO_SUCH_COLUMN")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NO_SUCH_COLUMN")
	assert.Len(t, tbl.Uniques(), 2)
}

func TestSetPrimaryKey(t *testing.T) {
	db := quietDatabase("main")
	tbl := mustTable(t, db, "PURCHASE_PAYMENT",
		ColumnSpec{Name: "PURCHASE_ID", DBType: "BIGINT"},
		ColumnSpec{Name: "PAYMENT_SEQ", DBType: "INTEGER"},
	)
	require.NoError(t, tbl.SetPrimaryKey("PAYMENT_SEQ", "PURCHASE_ID"))
	require.Len(t, tbl.PrimaryKey(), 2)
	assert.Equal(t, "PAYMENT_SEQ", tbl.PrimaryKey()[0].Name)
	assert.True(t, tbl.PrimaryKey()[1].IsPrimaryKey())

	assert.Error(t, tbl.SetPrimaryKey("UNKNOWN"))
}

func TestAddForeignKeyValidation(t *testing.T) {
	db := quietDatabase("main")
	tbl := mustTable(t, db, "PURCHASE",
		ColumnSpec{Name: "PURCHASE_ID", DBType: "BIGINT", PrimaryKey: true},
		ColumnSpec{Name: "MEMBER_ID", DBType: "INTEGER"},
	)

	tests := []struct {
		name string
		spec ForeignKeySpec
	}{
		{
			name: "misaligned pairs",
			spec: ForeignKeySpec{Name: "FK_A", ForeignTable: "MEMBER", LocalColumns: []string{"MEMBER_ID"}},
		},
		{
			name: "fixed only join with columns",
			spec: ForeignKeySpec{
				Name: "FK_B", ForeignTable: "MEMBER",
				LocalColumns: []string{"MEMBER_ID"}, ForeignColumns: []string{"MEMBER_ID"},
				FixedCondition: "$$foreignAlias$$.MEMBER_STATUS_CODE = 'FML'", FixedOnlyJoin: true,
			},
		},
		{
			name: "plain join without columns",
			spec: ForeignKeySpec{Name: "FK_C", ForeignTable: "MEMBER"},
		},
		{
			name: "no foreign table",
			spec: ForeignKeySpec{Name: "FK_D", LocalColumns: []string{"MEMBER_ID"}, ForeignColumns: []string{"MEMBER_ID"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tbl.AddForeignKey(tt.spec)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrStructuralInconsistency)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.spec.Name, cfgErr.ForeignKey)
			assert.Equal(t, "PURCHASE", cfgErr.Table)
		})
	}

	fk, err := tbl.AddForeignKey(ForeignKeySpec{
		Name: "FK_FIXED_ONLY", ForeignTable: "MEMBER",
		FixedCondition: "$$foreignAlias$$.MEMBER_STATUS_CODE = 'FML'", FixedOnlyJoin: true,
	})
	require.NoError(t, err)
	assert.Empty(t, fk.LocalColumnNames())
	assert.Len(t, tbl.ForeignKeys(), 1)
}

func TestFinalizeResolvesReferences(t *testing.T) {
	db := quietDatabase("main")
	member := mustTable(t, db, "MEMBER",
		ColumnSpec{Name: "MEMBER_ID", DBType: "INTEGER", PrimaryKey: true},
	)
	purchase := mustTable(t, db, "PURCHASE",
		ColumnSpec{Name: "PURCHASE_ID", DBType: "BIGINT", PrimaryKey: true},
		ColumnSpec{Name: "MEMBER_ID", DBType: "INTEGER"},
		ColumnSpec{Name: "RECOMMENDER_MEMBER_ID", DBType: "INTEGER"},
	)
	fk1, err := purchase.AddForeignKey(ForeignKeySpec{
		Name: "FK_PURCHASE_MEMBER", ForeignTable: "MEMBER",
		LocalColumns: []string{"MEMBER_ID"}, ForeignColumns: []string{"MEMBER_ID"},
	})
	require.NoError(t, err)
	fk2, err := purchase.AddForeignKey(ForeignKeySpec{
		ForeignTable: "member", ForeignSchema: "public",
		LocalColumns: []string{"recommender_member_id"}, ForeignColumns: []string{"MEMBER_ID"},
	})
	require.NoError(t, err)

	require.NoError(t, db.Finalize())
	require.NoError(t, db.Finalize())
	assert.True(t, db.Finalized())

	assert.Same(t, member, fk1.ForeignTable())
	assert.Same(t, member, fk2.ForeignTable())
	assert.Equal(t, []*ForeignKey{fk1, fk2}, member.Referrers())
	assert.Empty(t, purchase.Referrers())

	assert.Equal(t, "FK_PURCHASE_MEMBER", fk1.Name())
	assert.False(t, fk1.GeneratedName())
	assert.Equal(t, "PURCHASE_FK_2", fk2.Name())
	assert.True(t, fk2.GeneratedName())

	memberID, _ := purchase.Column("MEMBER_ID")
	recommender, _ := purchase.Column("RECOMMENDER_MEMBER_ID")
	assert.False(t, memberID.IsMultipleFK())
	assert.True(t, recommender.IsMultipleFK())

	local, ok := fk2.ForeignColumnFor("recommender_member_id")
	assert.True(t, ok)
	assert.Equal(t, "MEMBER_ID", local)
	back, ok := fk1.LocalColumnFor("MEMBER_ID")
	assert.True(t, ok)
	assert.Equal(t, "MEMBER_ID", back)

	_, err = db.AddTable(TableSpec{Name: "LATE"})
	assert.Error(t, err)
}

func TestMultipleFKKeepsNaturalKeyPlain(t *testing.T) {
	recommenderFK := ForeignKeySpec{
		Name: "FK_ORDER_RECOMMENDER", ForeignTable: "MEMBER",
		LocalColumns: []string{"RECOMMENDER_MEMBER_ID"}, ForeignColumns: []string{"MEMBER_ID"},
	}
	memberFK := ForeignKeySpec{
		Name: "FK_ORDER_MEMBER", ForeignTable: "MEMBER",
		LocalColumns: []string{"member_id"}, ForeignColumns: []string{"MEMBER_ID"},
	}
	referrerFK := ForeignKeySpec{
		Name: "FK_ORDER_REFERRER", ForeignTable: "MEMBER",
		LocalColumns: []string{"REFERRER_ID"}, ForeignColumns: []string{"MEMBER_ID"},
	}

	tests := []struct {
		name     string
		specs    []ForeignKeySpec
		multiple []string
		plain    []string
	}{
		{
			name:     "natural key declared last",
			specs:    []ForeignKeySpec{recommenderFK, memberFK},
			multiple: []string{"RECOMMENDER_MEMBER_ID"},
			plain:    []string{"MEMBER_ID", "REFERRER_ID"},
		},
		{
			name:     "natural key declared first",
			specs:    []ForeignKeySpec{memberFK, recommenderFK},
			multiple: []string{"RECOMMENDER_MEMBER_ID"},
			plain:    []string{"MEMBER_ID", "REFERRER_ID"},
		},
		{
			name:     "no natural key falls back to declaration order",
			specs:    []ForeignKeySpec{recommenderFK, referrerFK},
			multiple: []string{"REFERRER_ID"},
			plain:    []string{"RECOMMENDER_MEMBER_ID", "MEMBER_ID"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := quietDatabase("main")
			mustTable(t, db, "MEMBER", ColumnSpec{Name: "MEMBER_ID", DBType: "INTEGER", PrimaryKey: true})
			order := mustTable(t, db, "ORDER",
				ColumnSpec{Name: "ORDER_ID", DBType: "BIGINT", PrimaryKey: true},
				ColumnSpec{Name: "RECOMMENDER_MEMBER_ID", DBType: "INTEGER"},
				ColumnSpec{Name: "MEMBER_ID", DBType: "INTEGER"},
				ColumnSpec{Name: "REFERRER_ID", DBType: "INTEGER"},
			)
			for _, spec := range tt.specs {
				_, err := order.AddForeignKey(spec)
				require.NoError(t, err)
			}
			require.NoError(t, db.Finalize())

			for _, name := range tt.multiple {
				c, ok := order.Column(name)
				require.True(t, ok)
				assert.True(t, c.IsMultipleFK(), name)
			}
			for _, name := range tt.plain {
				c, ok := order.Column(name)
				require.True(t, ok)
				assert.False(t, c.IsMultipleFK(), name)
			}
		})
	}
}

func TestFinalizeFailsOnUnresolvedReferences(t *testing.T) {
	tests := []struct {
		name      string
		spec      ForeignKeySpec
		reference string
	}{
		{
			name: "missing foreign table",
			spec: ForeignKeySpec{
				Name: "FK_PURCHASE_PRODUCT", ForeignTable: "PRODUCT",
				LocalColumns: []string{"MEMBER_ID"}, ForeignColumns: []string{"PRODUCT_ID"},
			},
			reference: "foreign table PRODUCT",
		},
		{
			name: "missing local column",
			spec: ForeignKeySpec{
				Name: "FK_PURCHASE_MEMBER", ForeignTable: "MEMBER",
				LocalColumns: []string{"BUYER_ID"}, ForeignColumns: []string{"MEMBER_ID"},
			},
			reference: "local column BUYER_ID",
		},
		{
			name: "missing foreign column",
			spec: ForeignKeySpec{
				Name: "FK_PURCHASE_MEMBER", ForeignTable: "MEMBER",
				LocalColumns: []string{"MEMBER_ID"}, ForeignColumns: []string{"MEMBER_CODE"},
			},
			reference: "foreign column MEMBER.MEMBER_CODE",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := quietDatabase("main")
			mustTable(t, db, "MEMBER", ColumnSpec{Name: "MEMBER_ID", DBType: "INTEGER", PrimaryKey: true})
			purchase := mustTable(t, db, "PURCHASE", ColumnSpec{Name: "MEMBER_ID", DBType: "INTEGER"})
			_, err := purchase.AddForeignKey(tt.spec)
			require.NoError(t, err)

			err = db.Finalize()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrStructuralInconsistency)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.spec.Name, cfgErr.ForeignKey)
			assert.Equal(t, "PURCHASE", cfgErr.Table)
			assert.Equal(t, tt.reference, cfgErr.Reference)
			assert.False(t, db.Finalized())
			assert.Equal(t, err, db.Finalize())
		})
	}
}

func TestFinalizeReportsNameCollisions(t *testing.T) {
	db := quietDatabase("main")
	mustTable(t, db, "MEMBER", ColumnSpec{Name: "MEMBER_ID", DBType: "INTEGER", PrimaryKey: true})
	for _, name := range []string{"PURCHASE_PAYMENT_HISTORY_DETAIL_A", "PURCHASE_PAYMENT_HISTORY_DETAIL_B"} {
		tbl := mustTable(t, db, name, ColumnSpec{Name: "MEMBER_ID", DBType: "INTEGER"})
		_, err := tbl.AddForeignKey(ForeignKeySpec{
			ForeignTable: "MEMBER", LocalColumns: []string{"MEMBER_ID"}, ForeignColumns: []string{"MEMBER_ID"},
		})
		require.NoError(t, err)
	}
	require.NoError(t, db.Finalize())

	collisions := db.Collisions()
	require.Len(t, collisions, 1)
	assert.Equal(t, "PURCHASE_PAYMENT_HISTORY__FK_1", collisions[0].Name)
	assert.True(t, strings.HasSuffix(collisions[0].Second, "PURCHASE_PAYMENT_HISTORY_DETAIL_B"))
}

func TestSequence(t *testing.T) {
	db := quietDatabase("main")
	minimum := decimal.NewFromInt(1)
	maximum := decimal.RequireFromString("99999999999999999999999999")
	inc := int64(1)

	seq, err := db.AddSequence(SequenceSpec{Name: "SEQ_MEMBER", Schema: "public", Minimum: &minimum, Maximum: &maximum, Increment: &inc})
	require.NoError(t, err)
	assert.Equal(t, "public.SEQ_MEMBER", seq.Name().String())
	assert.Len(t, db.Sequences(), 1)

	_, err = db.AddSequence(SequenceSpec{Name: "SEQ_BROKEN", Minimum: &maximum, Maximum: &minimum})
	assert.Error(t, err)
}

func TestConfigErrorMessage(t *testing.T) {
	cause := errors.New("root cause")
	err := &ConfigError{ForeignKey: "FK_X", Table: "PURCHASE", Reference: "local column Y", Message: "column not found", Cause: cause}

	msg := err.Error()
	assert.Contains(t, msg, "foreign key FK_X")
	assert.Contains(t, msg, "table PURCHASE")
	assert.Contains(t, msg, "local column Y")
	assert.Contains(t, msg, "root cause")
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrStructuralInconsistency)
	assert.False(t, IsConfigError(errors.New("other")))
}
