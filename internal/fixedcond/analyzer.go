// Package fixedcond analyzes the custom join predicates ("fixed conditions")
// of foreign keys: it extracts the bind parameters embedded as block comments,
// infers their types and rewrites them into the form the generated code reads
// them from.
//
// Recognized placeholders:
//
//	/*pmb.targetDate*/'2024-01-01'     path placeholder
//	/*targetDate(Date)*/null           typed placeholder
//	/*$$locationBase$$.parameterMapMemberAsValid.targetDate*/null
//
// The last one is the rewritten form; analyzing it again is a no-op.
// Comments of any other shape are kept as they are.
package fixedcond

import (
	"regexp"
	"strings"

	"github.com/tordrt/relschema/internal/schema"
)

// ObjectType is the type of a parameter nothing more specific is known for.
const ObjectType = "Object"

const parameterMapPrefix = "parameterMap"

var (
	canonicalPattern = regexp.MustCompile(`^\$\$` + LocationBase + `\$\$\.` + parameterMapPrefix + `\w*\.(\w+)((?:\.\w+)*)(?:\((\w+(?:\[\])?)\))?$`)
	pathPattern      = regexp.MustCompile(`^pmb\.(\w+)((?:\.\w+)*)(?:\((\w+(?:\[\])?)\))?$`)
	typedPattern     = regexp.MustCompile(`^(\w+)\((\w+(?:\[\])?)\)$`)

	datePattern      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}:\d{2}(\.\d{1,9})?$`)
	timePattern      = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
)

// Context carries what the analyzer needs to know about the relation a
// condition belongs to.
type Context struct {
	// Relation is the capitalized foreign property name; it names the
	// parameter map, e.g. "MemberAsValid" gives parameterMapMemberAsValid.
	Relation     string
	LocalTable   *schema.Table
	ForeignTable *schema.Table
}

// ParameterMapName returns the name of the generated parameter map.
func (c Context) ParameterMapName() string {
	return parameterMapPrefix + c.Relation
}

// Parameter is a bind parameter found in a condition.
type Parameter struct {
	Name string
	Type string
	// Explicit reports a type declared in the placeholder itself.
	Explicit bool
}

// Result is the outcome of Analyze.
type Result struct {
	// Text is the rewritten condition.
	Text string
	// Parameters in order of first appearance, without duplicates.
	Parameters []Parameter
	// ParameterMap is the name of the parameter map the rewritten text
	// refers to.
	ParameterMap string
}

// HasParameters reports whether the condition binds any parameter.
func (r *Result) HasParameters() bool {
	return len(r.Parameters) > 0
}

// Parameter returns the parameter of that name.
func (r *Result) Parameter(name string) (Parameter, bool) {
	for _, p := range r.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

type placeholder struct {
	name string
	// sub-path after the parameter name, with leading dot
	path string
	typ  string
}

func parsePlaceholder(body string) (placeholder, bool) {
	if m := canonicalPattern.FindStringSubmatch(body); m != nil {
		return placeholder{name: m[1], path: m[2], typ: m[3]}, true
	}
	if m := pathPattern.FindStringSubmatch(body); m != nil {
		return placeholder{name: m[1], path: m[2], typ: m[3]}, true
	}
	if m := typedPattern.FindStringSubmatch(body); m != nil {
		return placeholder{name: m[1], typ: m[2]}, true
	}
	return placeholder{}, false
}

func (p placeholder) canonical(ctx Context) string {
	var b strings.Builder
	b.WriteString("/*$$")
	b.WriteString(LocationBase)
	b.WriteString("$$.")
	b.WriteString(ctx.ParameterMapName())
	b.WriteString(".")
	b.WriteString(p.name)
	b.WriteString(p.path)
	if p.typ != "" {
		b.WriteString("(")
		b.WriteString(p.typ)
		b.WriteString(")")
	}
	b.WriteString("*/")
	return b.String()
}

// Analyze extracts the bind parameters of condition and rewrites their
// placeholders to the canonical form. The type of a parameter is, in order of
// precedence: the declared "(Type)", the kind of a quoted date/time literal
// right after the placeholder, the type of the column the placeholder is
// compared with, or ObjectType. A placeholder with a nested path such as
// "pmb.a.b" is ObjectType unless declared.
//
// Only a lexically broken condition (unterminated comment or literal) is an
// error.
func Analyze(condition string, ctx Context) (*Result, error) {
	tokens, err := Tokenize(condition)
	if err != nil {
		return nil, err
	}

	res := &Result{ParameterMap: ctx.ParameterMapName()}
	seen := make(map[string]bool)
	var b strings.Builder
	b.Grow(len(condition))

	for i, tok := range tokens {
		if tok.Type != BLOCK_COMMENT {
			b.WriteString(tok.Value)
			continue
		}
		ph, ok := parsePlaceholder(tok.CommentBody())
		if !ok {
			b.WriteString(tok.Value)
			continue
		}
		b.WriteString(ph.canonical(ctx))

		if seen[ph.name] {
			continue
		}
		seen[ph.name] = true
		p := Parameter{Name: ph.name, Type: ph.typ, Explicit: ph.typ != ""}
		// a nested path's literal or column types the property, not the root
		if p.Type == "" && ph.path == "" {
			p.Type = literalType(tokens, i)
		}
		if p.Type == "" && ph.path == "" {
			p.Type = comparedColumnType(tokens, i, ctx)
		}
		if p.Type == "" {
			p.Type = ObjectType
		}
		res.Parameters = append(res.Parameters, p)
	}

	res.Text = b.String()
	return res, nil
}

// literalType looks at the test value right after the placeholder at i.
func literalType(tokens []Token, i int) string {
	if i+1 >= len(tokens) || tokens[i+1].Type != QUOTE {
		return ""
	}
	v := tokens[i+1].Value
	v = v[1 : len(v)-1]
	switch {
	case datePattern.MatchString(v):
		return "Date"
	case timestampPattern.MatchString(v):
		return "Timestamp"
	case timePattern.MatchString(v):
		return "Time"
	}
	return ""
}

// comparedColumnType matches "$$alias$$.COLUMN <op> /*placeholder*/" backwards
// from the placeholder at i.
func comparedColumnType(tokens []Token, i int, ctx Context) string {
	j := skipWhitespaceBackward(tokens, i-1)
	if j < 0 || !isComparison(tokens[j]) {
		return ""
	}
	j = skipWhitespaceBackward(tokens, j-1)
	if j < 2 || tokens[j].Type != WORD || tokens[j-1].Type != DOT || tokens[j-2].Type != ALIAS {
		return ""
	}

	var table *schema.Table
	switch tokens[j-2].AliasName() {
	case ForeignAlias:
		table = ctx.ForeignTable
	case LocalAlias:
		table = ctx.LocalTable
	}
	if table == nil {
		return ""
	}
	col, ok := table.Column(tokens[j].Value)
	if !ok {
		return ""
	}
	return col.NativeType()
}

func skipWhitespaceBackward(tokens []Token, j int) int {
	for j >= 0 && tokens[j].Type == WHITESPACE {
		j--
	}
	return j
}

func isComparison(t Token) bool {
	return t.Type == OPERATOR || (t.Type == WORD && strings.EqualFold(t.Value, "like"))
}

// ReferencesAlias reports whether condition uses the $$alias$$ marker.
func ReferencesAlias(condition, alias string) (bool, error) {
	for tok, err := range NewLexer(condition).Tokens() {
		if err != nil {
			return false, err
		}
		if tok.Type == ALIAS && tok.AliasName() == alias {
			return true, nil
		}
	}
	return false, nil
}
