package rust

import (
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"

	"github.com/blimu-dev/realmgen/pkg/ir"
	"github.com/blimu-dev/realmgen/pkg/tags"
)

var typeToken = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

// TypesEmitter renders a declaration for every named component schema
type TypesEmitter struct {
	base
}

// NewTypesEmitter creates a type declaration emitter
func NewTypesEmitter(opts Options) *TypesEmitter {
	return &TypesEmitter{base: newBase(opts)}
}

// GetType returns the emitter type identifier
func (e *TypesEmitter) GetType() string {
	return "types"
}

type fieldDecl struct {
	FieldName
	Type        string
	Description string
	Deprecated  bool
}

// typeDecl is a resolved schema declaration before rendering
type typeDecl struct {
	schema ir.NamedSchema
	// alias is the aliased type expression for non-struct, non-enum schemas
	alias  string
	fields []fieldDecl
	camel  bool
}

func (d typeDecl) isStruct() bool {
	return d.schema.Schema.Type == ir.SchemaObject && d.schema.Schema.Object != nil &&
		d.schema.Schema.Object.Type == ir.ObjectStruct
}

// Emit writes all type declarations. Declarations are not tag scoped; scope is ignored.
func (e *TypesEmitter) Emit(w io.Writer, spec *ir.Spec, _ tags.Scope) error {
	decls := make([]typeDecl, 0, len(spec.Schemas))
	for _, s := range spec.Schemas {
		d, err := e.declare(s)
		if err != nil {
			return fmt.Errorf("schema %s: %w", s.Name, err)
		}
		decls = append(decls, d)
	}

	floats := floatingTypes(decls)
	items := make([]string, 0, len(decls))
	for _, d := range decls {
		items = append(items, e.renderDecl(d, !floats[d.schema.Name]))
	}
	return e.render(w, "types", struct {
		Items []string
	}{items})
}

func (e *TypesEmitter) declare(s ir.NamedSchema) (typeDecl, error) {
	d := typeDecl{schema: s}
	switch s.Schema.Type {
	case ir.SchemaEnum:
		return d, nil
	case ir.SchemaAlias:
		if s.Schema.Alias == nil {
			d.alias = typeValue
			return d, nil
		}
		t, err := MapKind(*s.Schema.Alias, Owned)
		d.alias = t
		return d, err
	}

	o := s.Schema.Object
	if o == nil {
		d.alias = "TypeMap<String, " + typeValue + ">"
		return d, nil
	}
	switch o.Type {
	case ir.ObjectStruct:
		return e.declareStruct(d, o)
	case ir.ObjectMap:
		value := typeValue
		if o.Additional != nil {
			var err error
			if value, err = MapKind(o.Additional.Kind, Owned); err != nil {
				return d, err
			}
		}
		d.alias = "TypeMap<String, " + value + ">"
	case ir.ObjectAllOf:
		if len(o.AllOf) != 1 {
			return d, fmt.Errorf("%w (%d members)", ErrUnsupportedAllOf, len(o.AllOf))
		}
		t, err := MapKind(o.AllOf[0].Kind, Owned)
		if err != nil {
			return d, err
		}
		d.alias = t
	default:
		d.alias = "TypeMap<String, " + typeValue + ">"
	}
	return d, nil
}

func (e *TypesEmitter) declareStruct(d typeDecl, o *ir.ObjectSchema[ir.Property]) (typeDecl, error) {
	originals := make([]string, 0, len(o.Properties))
	for _, p := range o.Properties {
		originals = append(originals, p.Name)
	}
	names := DeriveFieldNames(originals)
	d.camel = PreferCamel(names)

	for i, p := range o.Properties {
		fn := names[i]
		t, err := MapProperty(p.Value, Owned)
		if err != nil {
			return d, fmt.Errorf("field %s: %w", p.Name, err)
		}
		if override, ok := e.overrides.ResolveField(d.schema.Name, []string{fn.Ident, fn.Original}, t); ok {
			t = override
		}
		d.fields = append(d.fields, fieldDecl{
			FieldName:   fn,
			Type:        t,
			Description: p.Value.Description,
			Deprecated:  p.Value.Deprecated,
		})
	}
	// sorted by original name so the output does not depend on declaration order
	slices.SortStableFunc(d.fields, func(a, b fieldDecl) int {
		return strings.Compare(a.Original, b.Original)
	})
	return d, nil
}

// floatingTypes returns the schemas that contain a floating point value,
// directly or through referenced schemas. Those cannot derive Eq.
func floatingTypes(decls []typeDecl) map[string]bool {
	refs := make(map[string][]string, len(decls))
	floats := make(map[string]bool)
	for _, d := range decls {
		exprs := []string{d.alias}
		for _, f := range d.fields {
			exprs = append(exprs, f.Type)
		}
		for _, expr := range exprs {
			for _, tok := range typeToken.FindAllString(expr, -1) {
				if tok == "f32" || tok == "f64" {
					floats[d.schema.Name] = true
				}
				refs[d.schema.Name] = append(refs[d.schema.Name], tok)
			}
		}
	}
	for changed := true; changed; {
		changed = false
		for _, d := range decls {
			name := d.schema.Name
			if floats[name] {
				continue
			}
			for _, tok := range refs[name] {
				if floats[tok] {
					floats[name] = true
					changed = true
					break
				}
			}
		}
	}
	return floats
}

func (e *TypesEmitter) renderDecl(d typeDecl, eq bool) string {
	s := d.schema
	var l lines
	if desc := strings.TrimSpace(s.Description); desc != "" {
		l.docs(0, strings.Split(desc, "\n"))
	}
	if s.Deprecated {
		l.add(0, "#[deprecated]")
	}

	switch {
	case s.Schema.Type == ir.SchemaEnum:
		renderEnum(&l, s.Name, s.Schema.Enum)
	case d.isStruct():
		renderStruct(&l, d, eq)
	default:
		l.add(0, "pub type %s = %s;", s.Name, d.alias)
	}
	return l.String()
}

func renderStruct(l *lines, d typeDecl, eq bool) {
	l.add(0, "#[skip_serializing_none]")
	if eq {
		l.add(0, "#[derive(Clone, Debug, Default, PartialEq, Eq, Deserialize, Serialize)]")
	} else {
		l.add(0, "#[derive(Clone, Debug, Default, PartialEq, Deserialize, Serialize)]")
	}
	l.add(0, `#[cfg_attr(feature = "schemars", derive(JsonSchema))]`)
	if d.camel {
		l.add(0, `#[serde(rename_all = "camelCase")]`)
	}
	if len(d.fields) == 0 {
		l.add(0, "pub struct %s {}", d.schema.Name)
		return
	}
	l.add(0, "pub struct %s {", d.schema.Name)
	for _, f := range d.fields {
		if desc := strings.TrimSpace(f.Description); desc != "" {
			l.docs(4, strings.Split(desc, "\n"))
		}
		if f.Deprecated {
			l.add(4, "#[deprecated]")
		}
		if f.NeedsRename(d.camel) {
			l.add(4, "#[serde(rename = %q)]", f.Original)
		}
		l.add(4, "pub %s: %s,", f.Ident, f.Type)
	}
	l.add(0, "}")
}

func renderEnum(l *lines, name string, literals []string) {
	variants, screaming := DeriveEnumVariants(literals)
	l.add(0, "#[derive(Clone, Debug, PartialEq, Eq, PartialOrd, Ord, Hash, Deserialize, Serialize)]")
	l.add(0, `#[cfg_attr(feature = "schemars", derive(JsonSchema))]`)
	if screaming {
		l.add(0, `#[serde(rename_all = "SCREAMING_SNAKE_CASE")]`)
	}
	l.add(0, "pub enum %s {", name)
	for _, v := range variants {
		if v.Rename {
			l.add(4, "#[serde(rename = %q)]", v.Literal)
		}
		l.add(4, "%s,", v.Ident)
	}
	l.add(0, "}")
}
