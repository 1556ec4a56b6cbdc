package rust

import (
	"fmt"
	"io"
	"strings"

	"github.com/blimu-dev/realmgen/pkg/config"
	"github.com/blimu-dev/realmgen/pkg/ir"
	"github.com/blimu-dev/realmgen/pkg/tags"
	"github.com/blimu-dev/realmgen/pkg/utils"
)

// ResourceEmitter renders the fluent scoped client: pass-through methods for
// operations without optional arguments, and holder types with builder
// setters for the rest.
type ResourceEmitter struct {
	base
}

// NewResourceEmitter creates a fluent client emitter
func NewResourceEmitter(opts Options) *ResourceEmitter {
	return &ResourceEmitter{base: newBase(opts)}
}

// GetType returns the emitter type identifier
func (e *ResourceEmitter) GetType() string {
	return "resource"
}

// Emit writes the scoped client methods of the groups selected by scope
func (e *ResourceEmitter) Emit(w io.Writer, spec *ir.Spec, scope tags.Scope) error {
	groups, _, err := e.collect(spec, scope)
	if err != nil {
		return err
	}

	full := !scope.Scoped()
	views := make([]groupView, 0, len(groups))
	hasBuilder := false
	skipped := 0
	for _, g := range groups {
		gate := ""
		if full {
			gate = g.Feature()
		}
		var methods, structs, setters []string
		for _, op := range g.Ops {
			if op.Scoped == "" {
				skipped++
				continue
			}
			m := op.realmMethod()
			methods = append(methods, e.scopedMethod(m, gate, !full))
			if m.HasOptional {
				structs = append(structs, e.holder(m, gate)...)
				setters = append(setters, e.setters(m))
			}
		}
		view := groupView{
			Header:  g.Header(),
			Feature: g.Feature(),
			Methods: strings.Join(methods, "\n\n"),
			Structs: strings.Join(structs, "\n\n"),
		}
		// unscoped output is a single file without the builder module
		if !full && len(setters) > 0 {
			view.Setters = strings.Join(setters, "\n\n")
			hasBuilder = true
		}
		views = append(views, view)
	}
	if skipped > 0 {
		e.logger.Debug("operations outside the scoped client", "count", skipped)
	}

	return e.render(w, "resource", struct {
		Full       bool
		Target     config.Target
		Groups     []groupView
		HasBuilder bool
	}{full, e.target, views, hasBuilder})
}

// realmMethod flattens a resolved operation into the view the fluent
// emitter works from.
func (o operation) realmMethod() ir.RealmMethod {
	m := ir.RealmMethod{
		Name:        o.Name,
		ScopedName:  o.Scoped,
		Output:      o.Result.Type,
		Docs:        o.Docs,
		Tag:         o.Tag,
		Deprecated:  o.Deprecated,
		HasOptional: o.hasOptional(),
		Parameters:  make([]ir.RealmMethodParameter, 0, len(o.Args)),
	}
	for _, a := range o.Args {
		m.Parameters = append(m.Parameters, ir.RealmMethodParameter{
			Name:        a.Ident,
			Type:        a.Type,
			Description: singleLine(a.Description),
			Required:    a.Required,
			Scope:       a.Scope,
			Body:        a.Body,
		})
	}
	return m
}

// holderName is the type returned for methods with optional arguments
func holderName(m ir.RealmMethod) string {
	return utils.ToUpperCamelCase(m.Name)
}

func (e *ResourceEmitter) adminField() string {
	return e.scopeField() + "_admin"
}

func (e *ResourceEmitter) output(t string) string {
	return fmt.Sprintf("impl Future<Output = Result<%s, %s>> + use<'a, TS>", t, e.target.ErrorType)
}

// explicit returns the parameters the caller passes to the scoped method
func explicit(m ir.RealmMethod) []ir.RealmMethodParameter {
	var out []ir.RealmMethodParameter
	for _, p := range m.Parameters {
		if p.Required && !p.Scope {
			out = append(out, p)
		}
	}
	return out
}

func (e *ResourceEmitter) scopedMethod(m ir.RealmMethod, gate string, withDocs bool) string {
	var l lines
	if withDocs {
		l.docs(4, m.Docs)
	}
	if gate != "" {
		l.add(4, `#[cfg(feature = %q)]`, gate)
	}
	if m.Deprecated {
		l.add(4, "#[deprecated]")
	}
	args := explicit(m)
	if len(args) > maxPlainArgs {
		l.add(4, "#[allow(clippy::too_many_arguments)]")
	}

	if m.HasOptional {
		holder := holderName(m)
		if len(args) == 0 {
			l.add(4, "pub fn %s(&'a self) -> %s<'a, TS> {", m.ScopedName, holder)
			l.add(8, "%s { %s: self }", holder, e.adminField())
			l.add(4, "}")
			return l.String()
		}
		l.add(4, "pub fn %s(", m.ScopedName)
		l.add(8, "&'a self,")
		for _, p := range args {
			l.add(8, "%s: %s,", p.Name, lifetime(p.Type))
		}
		l.add(4, ") -> %s<'a, TS> {", holder)
		l.add(8, "%s {", holder)
		l.add(12, "%s: self,", e.adminField())
		for _, p := range args {
			l.add(12, "%s,", p.Name)
		}
		l.add(8, "}")
		l.add(4, "}")
		return l.String()
	}

	l.add(4, "pub fn %s(", m.ScopedName)
	l.add(8, "&'a self,")
	for _, p := range args {
		l.add(8, "%s: %s,", p.Name, lifetime(p.Type))
	}
	l.add(4, ") -> %s {", e.output(m.Output))
	call := make([]string, 0, len(m.Parameters))
	for _, p := range m.Parameters {
		if p.Scope {
			call = append(call, "self."+e.scopeField())
		} else {
			call = append(call, p.Name)
		}
	}
	l.add(8, "self.admin.%s(%s)", m.Name, strings.Join(call, ", "))
	l.add(4, "}")
	return l.String()
}

// holder renders the holder struct, its argument struct, the method trait
// binding and the IntoFuture wrapper.
func (e *ResourceEmitter) holder(m ir.RealmMethod, gate string) []string {
	name := holderName(m)
	argsName := name + "Args"
	t := e.target
	var items []string

	var s lines
	gateLine(&s, gate)
	s.add(0, "pub struct %s<'a, TS: %s> {", name, t.TokenSupplier)
	s.add(4, "/// %s admin client", utils.ToUpperCamelCase(t.ScopeParameter))
	s.add(4, "pub %s: &'a %s<'a, TS>,", e.adminField(), t.ScopedClientType)
	for _, p := range explicit(m) {
		s.add(4, "pub %s: %s,", p.Name, lifetime(p.Type))
	}
	s.add(0, "}")
	items = append(items, s.String())

	var a lines
	gateLine(&a, gate)
	a.add(0, "#[derive(Default)]")
	a.add(0, "pub struct %s {", argsName)
	var optional []string
	for _, p := range m.Parameters {
		if p.Required || p.Scope {
			continue
		}
		optional = append(optional, p.Name)
		if p.Description != "" {
			a.add(4, "/// %s", p.Description)
		}
		a.add(4, "pub %s: %s,", p.Name, p.Type)
	}
	a.add(0, "}")
	items = append(items, a.String())

	var tr lines
	gateLine(&tr, gate)
	tr.add(0, "impl<'a, TS: %s> %s for %s<'a, TS> {", t.TokenSupplier, t.MethodTrait, name)
	tr.add(4, "type Output = %s;", m.Output)
	tr.add(4, "type Args = %s;", argsName)
	tr.add(0, "")
	tr.add(4, "fn opts(")
	tr.add(8, "self,")
	tr.add(8, "Self::Args {")
	for _, o := range optional {
		tr.add(12, "%s,", o)
	}
	tr.add(8, "}: Self::Args,")
	tr.add(4, ") -> %s {", e.output("Self::Output"))
	tr.add(8, "self.%s.admin.%s(", e.adminField(), m.Name)
	for _, p := range m.Parameters {
		switch {
		case p.Scope:
			tr.add(12, "self.%s.%s,", e.adminField(), e.scopeField())
		case p.Required:
			tr.add(12, "self.%s,", p.Name)
		default:
			tr.add(12, "%s,", p.Name)
		}
	}
	tr.add(8, ")")
	tr.add(4, "}")
	tr.add(0, "}")
	items = append(items, tr.String())

	var f lines
	gateLine(&f, gate)
	f.add(0, "impl<'a, TS> IntoFuture for %s<'a, TS>", name)
	f.add(0, "where")
	f.add(4, "TS: %s,", t.TokenSupplier)
	f.add(0, "{")
	f.add(4, "type Output = Result<%s, %s>;", m.Output, t.ErrorType)
	f.add(4, "type IntoFuture = Pin<Box<dyn 'a + Future<Output = Self::Output>>>;")
	f.add(4, "fn into_future(self) -> Self::IntoFuture {")
	f.add(8, "Box::pin(self.opts(Default::default()))")
	f.add(4, "}")
	f.add(0, "}")
	items = append(items, f.String())

	return items
}

// setters renders the builder entry points on the holder and the argument
// setters on the builder.
func (e *ResourceEmitter) setters(m ir.RealmMethod) string {
	name := holderName(m)
	var l lines
	l.add(4, "impl<'a, TS> %s<'a, TS>", name)
	l.add(4, "where")
	l.add(8, "TS: %s,", e.target.TokenSupplier)
	l.add(4, "{")
	for _, p := range m.Parameters {
		if p.Required || p.Scope {
			continue
		}
		if p.Description != "" {
			l.add(8, "/// %s", p.Description)
		}
		l.add(8, "pub fn %s(self, value: impl Into<%s>) -> Builder<'a, Self> {", p.Name, p.Type)
		l.add(12, "self.builder().%s(value)", p.Name)
		l.add(8, "}")
	}
	l.add(4, "}")
	l.add(0, "")
	l.add(4, "impl<TS> Builder<'_, %s<'_, TS>>", name)
	l.add(4, "where")
	l.add(8, "TS: %s,", e.target.TokenSupplier)
	l.add(4, "{")
	for _, p := range m.Parameters {
		if p.Required || p.Scope {
			continue
		}
		if p.Description != "" {
			l.add(8, "/// %s", p.Description)
		}
		l.add(8, "pub fn %s(mut self, value: impl Into<%s>) -> Self {", p.Name, p.Type)
		l.add(12, "self.args.%s = value.into();", p.Name)
		l.add(12, "self")
		l.add(8, "}")
	}
	l.add(4, "}")
	return l.String()
}

func gateLine(l *lines, gate string) {
	if gate != "" {
		l.add(0, `#[cfg(feature = %q)]`, gate)
	}
}
