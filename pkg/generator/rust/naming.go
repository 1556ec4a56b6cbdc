package rust

import (
	"strings"
	"unicode"

	"github.com/blimu-dev/realmgen/pkg/config"
	"github.com/blimu-dev/realmgen/pkg/ir"
	"github.com/blimu-dev/realmgen/pkg/utils"
)

// locals of generated method bodies and holder structs that parameters must not shadow
var bodyLocals = []string{"p", "builder", "response", "realm_admin"}

// Param is an operation parameter with its derived identifier
type Param struct {
	ir.Parameter
	Ident string
}

// MethodName is a derived flat method name
type MethodName struct {
	Name string
	// Path is the route with placeholders renamed to parameter identifiers
	Path   string
	Params []Param
}

// Rewritten reports whether Path differs from the declared route
func (m MethodName) Rewritten(route string) bool {
	return m.Path != route
}

// MergeParameters returns the route-level parameters followed by the
// operation's own parameters not already declared on the route.
func MergeParameters(shared, own []ir.Parameter) []ir.Parameter {
	out := make([]ir.Parameter, 0, len(shared)+len(own))
	out = append(out, shared...)
	for _, p := range own {
		dup := false
		for _, s := range shared {
			if s.Name == p.Name {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}

// DeriveMethodName names the flat method for an operation.
//
// The target path prefix is stripped, every path placeholder becomes
// "with_<ident>" (just "<ident>" for the scope parameter), and the remnant
// plus the verb is snake cased: /admin/realms/{realm}/users/{user-id} GET
// gives realm_users_with_user_id_get.
func DeriveMethodName(route string, method ir.Method, params []ir.Parameter, hasBody bool, target config.Target) MethodName {
	used := make(map[string]bool, len(bodyLocals)+len(params)+1)
	for _, l := range bodyLocals {
		used[l] = true
	}
	if hasBody {
		used["body"] = true
	}

	remnant, ok := strings.CutPrefix(route, target.PathPrefix)
	if !ok || target.PathPrefix == "" {
		remnant = route
	}
	path := route

	out := MethodName{Params: make([]Param, 0, len(params))}
	for _, p := range params {
		ident := identifier(p.Name)
		for used[ident] {
			ident += "_"
		}
		used[ident] = true
		out.Params = append(out.Params, Param{Parameter: p, Ident: ident})

		placeholder := "{" + p.Name + "}"
		if p.In == ir.InPath {
			with := "with_"
			if p.Name == target.ScopeParameter {
				with = ""
			}
			remnant = strings.ReplaceAll(remnant, placeholder, with+ident)
			if ident != p.Name {
				path = strings.ReplaceAll(path, placeholder, "{"+ident+"}")
			}
		}
	}

	out.Name = utils.ToSnakeCase(remnant + method.Title())
	out.Path = path
	return out
}

// ScopedName returns the method name on the scoped client, or false when the
// route is not under the scope parameter.
func ScopedName(route, name string, target config.Target) (string, bool) {
	if target.ScopeParameter == "" {
		return "", false
	}
	remnant, ok := strings.CutPrefix(route, target.PathPrefix)
	if !ok || target.PathPrefix == "" {
		remnant = route
	}
	if !strings.HasPrefix(remnant, "/{"+target.ScopeParameter+"}") {
		return "", false
	}
	return strings.TrimPrefix(name, utils.ToSnakeCase(target.ScopeParameter)+"_"), true
}

// identifier converts a name into a legal snake case Rust identifier
func identifier(name string) string {
	ident := utils.ToSnakeCase(name)
	if ident == "" {
		ident = "value"
	}
	if unicode.IsDigit(rune(ident[0])) {
		ident = "_" + ident
	}
	return utils.EscapeReserved(ident)
}

// FieldCase classifies the spelling of a declared field name
type FieldCase int

const (
	// CaseUnknown is a single lowercase word, valid in both conventions
	CaseUnknown FieldCase = iota
	CaseSnake
	CaseCamel
	// CaseCustom needs an explicit rename whatever the struct convention
	CaseCustom
)

// FieldName is a declared field with its Rust identifier
type FieldName struct {
	Original string
	Ident    string
	Case     FieldCase
	// Suffixed is set when the identifier was extended to stay unique
	Suffixed bool
}

// DeriveFieldNames converts declared field names into unique identifiers.
// Identifiers never collide with an original field name other than their own
// nor with each other.
func DeriveFieldNames(originals []string) []FieldName {
	declared := make(map[string]bool, len(originals))
	for _, o := range originals {
		declared[o] = true
	}
	assigned := make(map[string]bool, len(originals))

	out := make([]FieldName, 0, len(originals))
	for _, field := range originals {
		base := utils.ToSnakeCase(field)
		ident := identifier(field)

		var fc FieldCase
		switch {
		case ident != base:
			fc = CaseCustom
		case field == ident:
			if strings.Contains(field, "_") {
				fc = CaseSnake
			} else {
				fc = CaseUnknown
			}
		case field == utils.ToLowerCamelCase(field):
			fc = CaseCamel
		default:
			fc = CaseCustom
		}

		// a field may always take its own spelling back
		chosen := ident
		for assigned[chosen] || (declared[chosen] && chosen != field) {
			chosen += "_"
		}
		assigned[chosen] = true
		out = append(out, FieldName{Original: field, Ident: chosen, Case: fc, Suffixed: chosen != ident && chosen != field})
	}
	return out
}

// PreferCamel decides the struct-wide convention: camelCase wins ties as
// long as at least one field is camel cased.
func PreferCamel(fields []FieldName) bool {
	camel, snake := 0, 0
	for _, f := range fields {
		switch f.Case {
		case CaseCamel:
			camel++
		case CaseSnake:
			snake++
		}
	}
	return camel > 0 && camel >= snake
}

// NeedsRename reports whether f needs an explicit serde rename under the
// struct convention.
func (f FieldName) NeedsRename(camel bool) bool {
	if !camel && f.Ident == f.Original {
		return false
	}
	if f.Suffixed {
		return true
	}
	switch f.Case {
	case CaseCustom:
		return true
	case CaseCamel:
		return !camel
	case CaseSnake:
		return camel
	}
	return false
}

// EnumVariant is a string enum literal with its Rust variant
type EnumVariant struct {
	Literal string
	Ident   string
	// Rename is set when serde would not produce Literal from Ident
	Rename bool
}

// DeriveEnumVariants builds variants for enum literals. screaming reports
// whether the enum serializes as SCREAMING_SNAKE_CASE, which is the case when
// no literal carries a lowercase letter.
func DeriveEnumVariants(literals []string) (variants []EnumVariant, screaming bool) {
	screaming = true
	for _, l := range literals {
		if utils.HasLower(l) {
			screaming = false
			break
		}
	}

	used := make(map[string]bool, len(literals))
	variants = make([]EnumVariant, 0, len(literals))
	for _, l := range literals {
		ident := utils.ToUpperCamelCase(l)
		switch {
		case ident == "":
			ident = "Empty"
		case unicode.IsDigit(rune(ident[0])):
			ident = "V" + ident
		}
		ident = utils.EscapeReserved(ident)
		for used[ident] {
			ident += "_"
		}
		used[ident] = true

		serialized := ident
		if screaming {
			serialized = screamingSnake(ident)
		}
		variants = append(variants, EnumVariant{Literal: l, Ident: ident, Rename: serialized != l})
	}
	return variants, screaming
}

// screamingSnake mirrors serde's SCREAMING_SNAKE_CASE rule for variant names
func screamingSnake(variant string) string {
	var b strings.Builder
	for i, r := range variant {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
