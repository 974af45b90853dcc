package formatter

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/relschema/internal/loader"
	"github.com/tordrt/relschema/internal/relation"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

const memberYAML = `
database: { name: shop, dialect: postgresql }
tables:
  - name: MEMBER
    comment: registered members
    columns:
      - { name: MEMBER_ID, type: INTEGER, primary_key: true }
      - { name: MEMBER_NAME, type: VARCHAR, size: "200", not_null: true }
      - { name: MEMBER_STATUS_CODE, type: CHAR, size: "3", default: "'PRV'" }
  - name: MEMBER_SECURITY
    columns:
      - { name: MEMBER_ID, type: INTEGER, primary_key: true }
    foreign_keys:
      - { name: FK_MEMBER_SECURITY_MEMBER, foreign_table: MEMBER, local_columns: [MEMBER_ID], foreign_columns: [MEMBER_ID] }
  - name: PURCHASE
    columns:
      - { name: PURCHASE_ID, type: BIGINT, primary_key: true }
      - { name: MEMBER_ID, type: INTEGER, not_null: true }
    indexes:
      - { name: IX_PURCHASE_MEMBER, columns: [MEMBER_ID] }
    foreign_keys:
      - { name: FK_PURCHASE_MEMBER, foreign_table: MEMBER, local_columns: [MEMBER_ID], foreign_columns: [MEMBER_ID] }
      - name: FK_PURCHASE_MEMBER_FORMAL
        foreign_table: MEMBER
        local_columns: [MEMBER_ID]
        foreign_columns: [MEMBER_ID]
        fixed_condition: "$$foreignAlias$$.MEMBER_STATUS_CODE = /*pmb.statusCode*/'FML'"
        fixed_suffix: AsFormal
sequences:
  - { name: SEQ_PURCHASE, minimum: "1", maximum: "9223372036854775807" }
`

func resolveMember(t *testing.T) *relation.Resolution {
	t.Helper()
	desc, err := loader.Decode(strings.NewReader(memberYAML))
	require.NoError(t, err)
	s, err := loader.Build(desc, loader.Options{Logger: quiet})
	require.NoError(t, err)
	r, err := relation.NewResolver(s.Database(), nil, relation.WithLogger(quiet))
	require.NoError(t, err)
	res, err := r.ResolveAll(context.Background())
	require.NoError(t, err)
	return res
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(&buf).Format(resolveMember(t)))
	out := buf.String()

	for _, want := range []string{
		"TABLE MEMBER (PK: MEMBER_ID)\n",
		"  MEMBER_NAME: VARCHAR(200) NOT NULL\n",
		"  MEMBER_STATUS_CODE: CHAR(3) DEFAULT 'PRV'\n",
		"    memberSecurityAsOne: OptionalEntity<MemberSecurity> ← MEMBER_SECURITY (FK_MEMBER_SECURITY_MEMBER: MEMBER_ID=MEMBER_ID) one-to-one\n",
		"    purchaseList: List<Purchase> ← PURCHASE (FK_PURCHASE_MEMBER: MEMBER_ID=MEMBER_ID) one-to-many [in-scope, exists, derived]\n",
		"    member: OptionalEntity<Member> → MEMBER (FK_MEMBER_SECURITY_MEMBER: MEMBER_ID=MEMBER_ID) one-to-one [in-scope]\n",
		"    member: OptionalEntity<Member> → MEMBER (FK_PURCHASE_MEMBER: MEMBER_ID=MEMBER_ID) many-to-one [in-scope]\n",
		"    memberAsFormal: OptionalEntity<Member> → MEMBER (FK_PURCHASE_MEMBER_FORMAL: MEMBER_ID=MEMBER_ID) biz many-to-one\n",
		"      condition: $$foreignAlias$$.MEMBER_STATUS_CODE = /*$$locationBase$$.parameterMapMemberAsFormal.statusCode*/'FML'\n",
		"      parameterMapMemberAsFormal: statusCode: String\n",
		"    IX_PURCHASE_MEMBER (MEMBER_ID)\n",
		"SEQUENCE SEQ_PURCHASE min=1 max=9223372036854775807\n",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "memberAsFormalList", "fixed condition without fixedReferrer has no referrer")
	assert.NotContains(t, out, "WARNING")
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter(&buf).Format(resolveMember(t)))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Database Schema\n\n## MEMBER\n\nregistered members\n\n### Columns\n"))
	for _, want := range []string{
		"- **MEMBER_ID:** INTEGER, PK, NOT NULL\n",
		"- `purchaseList` (List<Purchase>) ← PURCHASE via FK_PURCHASE_MEMBER [MEMBER_ID=MEMBER_ID], one-to-many, in-scope, exists, derived\n",
		"- `memberAsFormal` (OptionalEntity<Member>) → MEMBER via FK_PURCHASE_MEMBER_FORMAL [MEMBER_ID=MEMBER_ID], biz many-to-one\n",
		"  - parameterMapMemberAsFormal: statusCode: String\n",
		"### Idx\n\n- IX_PURCHASE_MEMBER on (MEMBER_ID)\n",
		"## Sequences\n\n- SEQ_PURCHASE min=1 max=9223372036854775807\n",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "## Warnings")
}

func TestWarningsAreReported(t *testing.T) {
	desc, err := loader.Decode(strings.NewReader(memberYAML))
	require.NoError(t, err)
	purchase, _ := desc.Table("PURCHASE")
	purchase.ForeignKeys[1].FixedSuffix = ""
	purchase.ForeignKeys[1].FixedReferrer = true

	s, err := loader.Build(desc, loader.Options{Logger: quiet})
	require.NoError(t, err)
	r, err := relation.NewResolver(s.Database(), nil, relation.WithLogger(quiet))
	require.NoError(t, err)
	res, err := r.ResolveAll(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, res.Conflicts())

	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter(&buf).Format(res))
	assert.Contains(t, buf.String(), "## Warnings\n\n- property PURCHASE.member is derived from both FK_PURCHASE_MEMBER and FK_PURCHASE_MEMBER_FORMAL\n")
}

func TestMultiFileFormatter(t *testing.T) {
	res := resolveMember(t)

	for _, format := range []string{"markdown", "text"} {
		t.Run(format, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "report")
			f := NewMultiFileFormatter(dir, format)
			f.Logger = quiet
			f.Workers = 2
			require.NoError(t, f.Format(res))

			ext := fileExtension(format)
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			var names []string
			for _, e := range entries {
				names = append(names, e.Name())
			}
			assert.ElementsMatch(t, []string{
				"_overview" + ext, "MEMBER" + ext, "MEMBER_SECURITY" + ext, "PURCHASE" + ext,
			}, names)

			overview, err := os.ReadFile(filepath.Join(dir, "_overview"+ext))
			require.NoError(t, err)
			assert.Contains(t, string(overview), "member→MEMBER")
			assert.Contains(t, string(overview), "SEQ_PURCHASE")

			purchase, err := os.ReadFile(filepath.Join(dir, "PURCHASE"+ext))
			require.NoError(t, err)
			assert.Contains(t, string(purchase), "memberAsFormal")
		})
	}
}

func TestMultiFileFormatterErrors(t *testing.T) {
	res := resolveMember(t)

	f := NewMultiFileFormatter(t.TempDir(), "html")
	assert.ErrorContains(t, f.Format(res), `unknown format "html"`)

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	f = NewMultiFileFormatter(filepath.Join(blocker, "report"), "text")
	f.Logger = quiet
	assert.ErrorContains(t, f.Format(res), "failed to create output directory")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f = NewMultiFileFormatter(t.TempDir(), "text")
	f.Logger = quiet
	assert.ErrorIs(t, f.FormatContext(ctx, res), context.Canceled)
}

func TestNew(t *testing.T) {
	f, err := New("md", io.Discard)
	require.NoError(t, err)
	assert.IsType(t, &MarkdownFormatter{}, f)

	f, err = New("", io.Discard)
	require.NoError(t, err)
	assert.IsType(t, &TextFormatter{}, f)

	_, err = New("pdf", io.Discard)
	assert.Error(t, err)
}
