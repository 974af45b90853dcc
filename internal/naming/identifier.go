// Package naming converts raw schema identifiers into object-model names
// and builds length-safe constraint names.
package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Method selects an identifier generation algorithm.
type Method string

const (
	// Underscore splits on the separator, optionally lowercases each token,
	// and capitalizes each token: MEMBER_STATUS -> MemberStatus.
	Underscore Method = "underscore"
	// Verbatim splits and capitalizes but never lowercases: memberSTATUS_code -> MemberSTATUSCode.
	Verbatim Method = "verbatim"
	// NoChange returns the raw name as is.
	NoChange Method = "nochange"
)

// Separator is the token delimiter of raw schema identifiers.
const Separator = "_"

// ParseMethod maps a configured method name to a Method.
// Unknown names fall back to Underscore.
func ParseMethod(s string) Method {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case Verbatim, "verbatim-capitalize", "capitalize":
		return Verbatim
	case NoChange, "no-change", "none":
		return NoChange
	default:
		return Underscore
	}
}

// Options holds the global policy flags consulted by the generators.
type Options struct {
	// ConvertToLower lowercases every token before capitalizing
	// (Underscore method only).
	ConvertToLower bool
}

// Generator converts a raw identifier into a target identifier.
type Generator interface {
	Generate(raw string) string
	Method() Method
}

// ForMethod returns the generator implementing m.
func ForMethod(m Method, opts Options) Generator {
	switch m {
	case Verbatim:
		return verbatimGenerator{}
	case NoChange:
		return noChangeGenerator{}
	default:
		return underscoreGenerator{lower: opts.ConvertToLower}
	}
}

// Generate converts raw with the given method.
func Generate(raw string, m Method, opts Options) string {
	return ForMethod(m, opts).Generate(raw)
}

type underscoreGenerator struct {
	lower bool
}

func (g underscoreGenerator) Method() Method { return Underscore }

func (g underscoreGenerator) Generate(raw string) string {
	return joinCapitalized(raw, g.lower)
}

type verbatimGenerator struct{}

func (verbatimGenerator) Method() Method { return Verbatim }

func (verbatimGenerator) Generate(raw string) string {
	return joinCapitalized(raw, false)
}

type noChangeGenerator struct{}

func (noChangeGenerator) Method() Method { return NoChange }

func (noChangeGenerator) Generate(raw string) string { return raw }

var lowerCaser = cases.Lower(language.Und)

func joinCapitalized(raw string, lower bool) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, tok := range strings.Split(raw, Separator) {
		if tok == "" {
			continue
		}
		if lower {
			tok = lowerCaser.String(tok)
		}
		b.WriteString(Capitalize(tok))
	}
	return b.String()
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	if size == 1 {
		return inflect.Capitalize(s)
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Convention is the property accessor naming convention used when a derived
// name is re-cased for use as a property.
type Convention string

const (
	// Beans leaves names whose first two runes are upper case untouched
	// (URLList stays URLList) and lower-cases the first rune otherwise.
	Beans Convention = "beans"
	// Lower always lower-cases the first rune.
	Lower Convention = "lower"
)

// Uncapitalize re-cases the first rune of s according to c.
func Uncapitalize(s string, c Convention) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	if c != Lower && size < len(s) {
		second, _ := utf8.DecodeRuneInString(s[size:])
		if unicode.IsUpper(first) && unicode.IsUpper(second) {
			return s
		}
	}
	return string(unicode.ToLower(first)) + s[size:]
}
