package utils

// rustKeywords holds strict and reserved Rust keywords. Raw identifiers are
// avoided in generated code, so colliding names get a trailing underscore.
var rustKeywords = map[string]struct{}{
	"as": {}, "async": {}, "await": {}, "break": {}, "const": {}, "continue": {},
	"crate": {}, "dyn": {}, "else": {}, "enum": {}, "extern": {}, "false": {},
	"fn": {}, "for": {}, "if": {}, "impl": {}, "in": {}, "let": {}, "loop": {},
	"match": {}, "mod": {}, "move": {}, "mut": {}, "pub": {}, "ref": {},
	"return": {}, "self": {}, "Self": {}, "static": {}, "struct": {}, "super": {},
	"trait": {}, "true": {}, "type": {}, "unsafe": {}, "use": {}, "where": {},
	"while": {}, "abstract": {}, "become": {}, "box": {}, "do": {}, "final": {},
	"macro": {}, "override": {}, "priv": {}, "typeof": {}, "unsized": {},
	"virtual": {}, "yield": {}, "try": {}, "gen": {},
}

// IsReservedWord reports whether name cannot be used as a plain Rust identifier.
func IsReservedWord(name string) bool {
	_, ok := rustKeywords[name]
	return ok
}

// EscapeReserved appends underscores to name until it is no longer a reserved word.
func EscapeReserved(name string) string {
	for IsReservedWord(name) {
		name += "_"
	}
	return name
}
