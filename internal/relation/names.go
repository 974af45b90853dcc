package relation

import (
	"strings"

	"github.com/tordrt/relschema/internal/naming"
	"github.com/tordrt/relschema/internal/schema"
)

// nameDeriver builds relation property names from the naming policy.
type nameDeriver struct {
	gen        naming.Generator
	convention naming.Convention
	aliases    func(table string, columns []string) (string, bool)
}

func (d *nameDeriver) names(name string) Names {
	return Names{Name: name, Property: naming.Uncapitalize(name, d.convention)}
}

// entity returns the identifier of a table.
func (d *nameDeriver) entity(t *schema.Table) string {
	return d.gen.Generate(t.Name().Name)
}

// disambiguation returns the segment telling apart several relations between
// the same tables: the declared fixed suffix, "By" plus the configured alias
// of the multiple-FK columns, "By" plus their identifiers, or nothing.
func (d *nameDeriver) disambiguation(fk *schema.ForeignKey) string {
	if fk.FixedSuffix != "" {
		return fk.FixedSuffix
	}

	var names []string
	for _, c := range fk.LocalColumns() {
		if c.IsMultipleFK() {
			names = append(names, c.Name)
		}
	}
	if len(names) == 0 {
		return ""
	}

	if d.aliases != nil {
		if alias, ok := d.aliases(fk.Table().Name().Name, names); ok {
			return ByMarker + naming.Capitalize(alias)
		}
	}

	var b strings.Builder
	b.WriteString(ByMarker)
	for _, n := range names {
		b.WriteString(d.gen.Generate(n))
	}
	return b.String()
}

// base joins prefix, target identifier, disambiguation and the self marker.
// A fixed suffix ending in the marker already carries it.
func (d *nameDeriver) base(fk *schema.ForeignKey, target *schema.Table, self bool) string {
	name := fk.Prefix + d.entity(target) + d.disambiguation(fk)
	if self && !strings.HasSuffix(fk.FixedSuffix, SelfMarker) {
		name += SelfMarker
	}
	return name
}

// foreign derives the local-to-foreign property name.
func (d *nameDeriver) foreign(fk *schema.ForeignKey, self bool) Names {
	return d.names(d.base(fk, fk.ForeignTable(), self))
}

// referrer derives the foreign-to-local property name.
func (d *nameDeriver) referrer(fk *schema.ForeignKey, self, oneToOne bool) Names {
	name := d.base(fk, fk.Table(), self)
	if oneToOne {
		name += AsOneMarker
	} else {
		name += ListMarker
	}
	return d.names(name)
}

func wrapType(wrapper, entity string) string {
	if wrapper == "" {
		return entity
	}
	return wrapper + "<" + entity + ">"
}
