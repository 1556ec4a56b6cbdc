package rust

import (
	"fmt"
	"strings"

	"github.com/blimu-dev/realmgen/pkg/ir"
	"github.com/blimu-dev/realmgen/pkg/utils"
)

// defaultResponse is the result type of operations without a typed success body
const defaultResponse = "DefaultResponse"

// maxPlainArgs is the argument count above which clippy's too_many_arguments fires
const maxPlainArgs = 6

// argument is a resolved method argument
type argument struct {
	Name        string
	Ident       string
	Type        string
	Description string
	In          ir.Position
	Required    bool
	Array       bool
	Body        bool
	// Scope marks the parameter supplied by the scoped client
	Scope bool
}

// result describes how the response body is extracted
type result struct {
	Type string
	// Method is the response extraction call (json, text, bytes); empty for untyped results
	Method  string
	Convert string
}

func (r result) untyped() bool {
	return r.Method == ""
}

// operation is a fully resolved call: names, argument types, body handling,
// result and documentation.
type operation struct {
	Route  string
	Method ir.Method
	Name   string
	// Scoped is the method name on the scoped client, empty when the route is not scoped
	Scoped     string
	Path       string
	Tag        string
	Deprecated bool
	Args       []argument
	// BodyCall is the request builder call attaching the body, empty without a body
	BodyCall string
	Result   result
	Docs     []string
}

func (o operation) hasQuery() bool {
	for _, a := range o.Args {
		if a.In == ir.InQuery {
			return true
		}
	}
	return false
}

// hasOptional reports whether any argument can be left out by the caller
func (o operation) hasOptional() bool {
	for _, a := range o.Args {
		if !a.Required && !a.Scope {
			return true
		}
	}
	return false
}

func (o operation) key() string {
	return string(o.Method) + " " + o.Route
}

// resolve builds the operation for one verb of a path
func (b *base) resolve(route string, sp ir.SpecPath, mc ir.MethodCall) (operation, error) {
	call := mc.Call
	verb := string(mc.Method)
	params := MergeParameters(sp.Parameters, call.Parameters)
	name := DeriveMethodName(route, mc.Method, params, call.RequestBody != nil, b.target)

	op := operation{
		Route:      route,
		Method:     mc.Method,
		Name:       name.Name,
		Path:       name.Path,
		Deprecated: call.Deprecated,
	}
	op.Tag, _ = call.SingleTag()

	scoped := false
	for _, p := range name.Params {
		t, err := MapParameter(p.Schema, p.Required)
		if err != nil {
			return op, fmt.Errorf("%s: parameter %s: %w", op.key(), p.Name, err)
		}
		t = b.pathOverride(route, verb, p.Ident, t)
		isScope := p.In == ir.InPath && p.Name == b.target.ScopeParameter
		scoped = scoped || isScope
		op.Args = append(op.Args, argument{
			Name:        p.Name,
			Ident:       p.Ident,
			Type:        t,
			Description: p.Description,
			In:          p.In,
			Required:    p.Required,
			Array:       p.Schema.Type == ir.KindArray,
			Scope:       isScope,
		})
	}
	if scoped {
		op.Scoped, _ = ScopedName(route, op.Name, b.target)
	}

	if rb := call.RequestBody; rb != nil {
		bodyCall, schema, ok := selectBody(rb.Content)
		if !ok {
			return op, fmt.Errorf("%s: %w", op.key(), ErrUnsupportedBody)
		}
		t, err := MapKind(schema, Std)
		if err != nil {
			return op, fmt.Errorf("%s: body: %w", op.key(), err)
		}
		inferred := t
		t = b.pathOverride(route, verb, "body", t)
		if t == valueType && inferred == valueType {
			b.logger.Warn("untyped type inferred", "key", route+":"+verb+":body")
		}
		op.BodyCall = bodyCall
		op.Args = append(op.Args, argument{Name: "body", Ident: "body", Type: t, Required: true, Body: true})
	}

	res, err := b.resolveResult(route, verb, call)
	if err != nil {
		return op, fmt.Errorf("%s: result: %w", op.key(), err)
	}
	op.Result = res
	op.Docs = b.docs(op, call)
	return op, nil
}

func (b *base) pathOverride(route, verb, param, inferred string) string {
	if o, ok := b.overrides.ResolvePath(route, verb, param, inferred); ok {
		return o.RustType
	}
	return inferred
}

func (b *base) resolveResult(route, verb string, call ir.Call) (result, error) {
	res := result{Type: defaultResponse}
	if resp, ok := call.SuccessResponse(); ok {
		if parse, ok := selectResponse(resp.Content); ok {
			t := "Bytes"
			if !parse.raw {
				var err error
				if t, err = MapKind(parse.schema, Owned); err != nil {
					return res, err
				}
			}
			res = result{Type: t, Method: parse.method, Convert: parse.convert}
		}
	}

	if o, ok := b.overrides.ResolvePath(route, verb, "", res.Type); ok {
		method := o.Method
		if method == "" {
			method = "json"
		}
		return result{Type: o.RustType, Method: method, Convert: o.Convert}, nil
	}
	if res.Type == valueType {
		b.logger.Warn("untyped type inferred", "key", route+":"+verb+":")
	}
	return res, nil
}

// selectBody picks the request representation: JSON, form, plain text, any, then binary
func selectBody(c ir.Content) (call string, schema ir.Kind, ok bool) {
	if m, ok := c.Get(ir.ContentJSON); ok {
		return "json(&body)", m.Schema, true
	}
	if m, ok := c.Get(ir.ContentForm); ok {
		return "form(&body)", m.Schema, true
	}
	if m, ok := c.Get(ir.ContentText); ok {
		return "body(body)", m.Schema, true
	}
	if m, ok := c.Get(ir.ContentAny); ok {
		return "json(&body)", m.Schema, true
	}
	if m, ok := c.Get(ir.ContentBinary); ok {
		return "body(body)", m.Schema, true
	}
	return "", ir.Kind{}, false
}

type responseParse struct {
	method  string
	convert string
	schema  ir.Kind
	// raw is set for binary payloads that are not strings
	raw bool
}

// selectResponse picks the response representation: JSON, plain text, any, then binary
func selectResponse(c ir.Content) (responseParse, bool) {
	if m, ok := c.Get(ir.ContentJSON); ok {
		return responseParse{method: "json", schema: m.Schema}, true
	}
	if m, ok := c.Get(ir.ContentText); ok {
		return responseParse{method: "text", convert: ".map(From::from)", schema: m.Schema}, true
	}
	if m, ok := c.Get(ir.ContentAny); ok {
		return responseParse{method: "json", schema: m.Schema}, true
	}
	if m, ok := c.Get(ir.ContentBinary); ok {
		if m.Schema.IsString() {
			return responseParse{method: "text", convert: ".map(From::from)", schema: m.Schema}, true
		}
		return responseParse{method: "bytes", raw: true}, true
	}
	return responseParse{}, false
}

// docs builds the documentation blocks of a method; blocks are separated by empty lines
func (b *base) docs(op operation, call ir.Call) []string {
	var blocks [][]string

	summary := strings.TrimSpace(call.Summary)
	if summary == "" {
		summary = strings.TrimSpace(call.Description)
	}
	if summary != "" {
		blocks = append(blocks, strings.Split(summary, "\n"))
	}

	if len(op.Args) > 0 {
		blocks = append(blocks, []string{"Parameters:"})
		list := make([]string, 0, len(op.Args))
		for _, a := range op.Args {
			line := "- `" + a.Ident + "`"
			if d := singleLine(a.Description); d != "" {
				line += ": " + d
			}
			list = append(list, line)
		}
		blocks = append(blocks, list)
	}
	if op.Result.untyped() {
		blocks = append(blocks, []string{"Returns response for future processing."})
	}
	if op.Tag != "" {
		blocks = append(blocks, []string{"Resource: `" + op.Tag + "`"})
	}
	blocks = append(blocks, []string{"`" + op.Method.Upper() + " " + op.Path + "`"})
	if b.target.DocsURL != "" {
		blocks = append(blocks, []string{"Documentation: <" + b.target.DocsURL + "#" + docsAnchor(op.Method, op.Route) + ">"})
	}
	if op.Path != op.Route {
		blocks = append(blocks, []string{"REST method: `" + op.Method.Upper() + " " + op.Route + "`"})
	}

	var out []string
	for i, block := range blocks {
		if i > 0 {
			out = append(out, "")
		}
		for _, l := range block {
			out = append(out, strings.TrimRight(l, " \t\r"))
		}
	}
	return out
}

// docsAnchor builds the reference anchor: _get_adminrealmsrealmusersuser_id
func docsAnchor(method ir.Method, route string) string {
	suffix := strings.ReplaceAll(route, "-", "_")
	suffix = strings.NewReplacer("{", "", "}", "", "/", "").Replace(suffix)
	return "_" + string(method) + "_" + strings.ToLower(suffix)
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// lifetime adds the 'a lifetime to borrowed types stored in holder structs
func lifetime(t string) string {
	if rest, ok := strings.CutPrefix(t, "&"); ok && !strings.HasPrefix(rest, "'") {
		return "&'a " + rest
	}
	return t
}

// scopeField is the scoped client field holding the scope value
func (b *base) scopeField() string {
	return utils.ToSnakeCase(b.target.ScopeParameter)
}
