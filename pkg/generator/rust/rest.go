package rust

import (
	"fmt"
	"io"
	"strings"

	"github.com/blimu-dev/realmgen/pkg/config"
	"github.com/blimu-dev/realmgen/pkg/ir"
	"github.com/blimu-dev/realmgen/pkg/tags"
)

// groupOps is a tag group with its resolved operations in declaration order
type groupOps struct {
	tags.Group
	Ops []operation
}

// collect resolves every operation of the selected groups
func (b *base) collect(spec *ir.Spec, scope tags.Scope) ([]groupOps, int, error) {
	groups, rest, err := b.groups(spec, scope)
	if err != nil {
		return nil, 0, err
	}
	out := make([]groupOps, 0, len(groups))
	for _, g := range groups {
		gop := groupOps{Group: g}
		for _, pe := range g.Paths {
			for _, mc := range pe.Path.Calls {
				op, err := b.resolve(pe.Route, pe.Path, mc)
				if err != nil {
					return nil, 0, err
				}
				gop.Ops = append(gop.Ops, op)
			}
		}
		out = append(out, gop)
	}
	return out, rest, nil
}

// groupView is what the file templates render for one tag group
type groupView struct {
	Header  string
	Feature string
	Module  string
	Doc     string
	// Methods is the group's rendered methods, blank line separated
	Methods string
	// Structs holds the fluent holder declarations
	Structs string
	// Setters holds the fluent builder impls
	Setters string
}

// RestEmitter renders one async method per operation on the client type
type RestEmitter struct {
	base
}

// NewRestEmitter creates a flat method emitter
func NewRestEmitter(opts Options) *RestEmitter {
	return &RestEmitter{base: newBase(opts)}
}

// GetType returns the emitter type identifier
func (e *RestEmitter) GetType() string {
	return "rest"
}

// Emit writes the client methods of the groups selected by scope
func (e *RestEmitter) Emit(w io.Writer, spec *ir.Spec, scope tags.Scope) error {
	groups, rest, err := e.collect(spec, scope)
	if err != nil {
		return err
	}

	full := !scope.Scoped()
	views := make([]groupView, 0, len(groups))
	for _, g := range groups {
		methods := make([]string, 0, len(g.Ops))
		for _, op := range g.Ops {
			gate := ""
			if full {
				gate = g.Feature()
			}
			methods = append(methods, e.flatMethod(op, gate))
		}
		views = append(views, groupView{
			Header:  g.Header(),
			Feature: g.Feature(),
			Methods: strings.Join(methods, "\n\n"),
		})
	}

	return e.render(w, "rest", struct {
		Full   bool
		Target config.Target
		Groups []groupView
		Rest   int
	}{full, e.target, views, rest})
}

// flatMethod renders one client method; gate is the feature guarding it, if any
func (e *RestEmitter) flatMethod(op operation, gate string) string {
	var l lines
	l.docs(4, op.Docs)
	if gate != "" {
		l.add(4, `#[cfg(feature = %q)]`, gate)
	}
	if op.Deprecated {
		l.add(4, "#[deprecated]")
	}
	if len(op.Args) > maxPlainArgs {
		l.add(4, "#[allow(clippy::too_many_arguments)]")
	}

	output := fmt.Sprintf("Result<%s, %s>", op.Result.Type, e.target.ErrorType)
	if len(op.Args) == 0 {
		l.add(4, "pub async fn %s(&self) -> %s {", op.Name, output)
	} else {
		l.add(4, "pub async fn %s(", op.Name)
		l.add(8, "&self,")
		for _, a := range op.Args {
			l.add(8, "%s: %s,", a.Ident, a.Type)
		}
		l.add(4, ") -> %s {", output)
	}

	for _, a := range op.Args {
		if a.In == ir.InPath && a.Type == "&str" {
			l.add(8, "let %s = p(%s);", a.Ident, a.Ident)
		}
	}
	if op.hasQuery() {
		l.add(8, "let mut builder = self")
	} else {
		l.add(8, "let builder = self")
	}
	l.add(12, ".client")
	switch op.Method {
	case ir.MethodOptions, ir.MethodTrace:
		// reqwest::Client has no shorthand for these verbs
		l.add(12, `.request(reqwest::Method::%s, format!("{}%s", self.url))`, op.Method.Upper(), op.Path)
	default:
		l.add(12, `.%s(format!("{}%s", self.url))`, op.Method, op.Path)
	}
	switch {
	case op.BodyCall != "":
		l.add(12, ".%s", op.BodyCall)
	case op.Method == ir.MethodPut:
		l.add(12, `.header(CONTENT_LENGTH, "0")`)
	}
	l.add(12, ".bearer_auth(self.token_supplier.get(&self.url).await?);")

	for _, a := range op.Args {
		if a.In != ir.InQuery {
			continue
		}
		if a.Required {
			if a.Array {
				l.add(8, `builder = builder.query(&%s.iter().map(|e| (%q, e)).collect::<Vec<_>>());`, a.Ident, a.Name)
			} else {
				l.add(8, `builder = builder.query(&[(%q, %s)]);`, a.Name, a.Ident)
			}
			continue
		}
		l.add(8, "if let Some(v) = %s {", a.Ident)
		if a.Array {
			l.add(12, `builder = builder.query(&v.into_iter().map(|e| (%q, e)).collect::<Vec<_>>());`, a.Name)
		} else {
			l.add(12, `builder = builder.query(&[(%q, v)]);`, a.Name)
		}
		l.add(8, "}")
	}

	l.add(8, "let response = builder.send().await?;")
	if op.Result.untyped() {
		l.add(8, "error_check(response).await.map(From::from)")
	} else {
		l.add(8, "Ok(error_check(response).await?.%s().await%s?)", op.Result.Method, op.Result.Convert)
	}
	l.add(4, "}")
	return l.String()
}
