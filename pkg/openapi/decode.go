package openapi

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blimu-dev/realmgen/pkg/ir"
)

const parameterRefPrefix = "#/components/parameters/"

// DecodeError reports a description that does not have the expected shape.
type DecodeError struct {
	Line   int
	Column int
	// Path is a JSON pointer to the offending node
	Path string
	Msg  string
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d col %d: %s: %s", e.Line, e.Column, e.Path, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

func errorAt(n *yaml.Node, path, format string, args ...any) error {
	e := &DecodeError{Path: path, Msg: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Line, e.Column = n.Line, n.Column
	}
	return e
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func pointer(path, key string) string {
	return path + "/" + pointerEscaper.Replace(key)
}

type decoder struct {
	parameters map[string]*yaml.Node
}

// Decode parses a JSON or YAML OpenAPI description into the IR. Paths,
// operations, properties and component schemas keep their declaration order.
func Decode(data []byte) (*ir.Spec, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse description: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &DecodeError{Path: "#", Msg: "empty document"}
	}
	doc := resolve(root.Content[0])
	if doc.Kind != yaml.MappingNode {
		return nil, errorAt(doc, "#", "expected an object")
	}

	d := &decoder{parameters: map[string]*yaml.Node{}}
	return d.spec(doc)
}

func (d *decoder) spec(doc *yaml.Node) (*ir.Spec, error) {
	spec := &ir.Spec{OpenAPI: str(lookup(doc, "openapi"))}

	if info := lookup(doc, "info"); info != nil {
		spec.Info = ir.Info{
			Title:       str(lookup(info, "title")),
			Description: str(lookup(info, "description")),
			Version:     str(lookup(info, "version")),
		}
	}

	if tags := lookup(doc, "tags"); tags != nil {
		if tags.Kind != yaml.SequenceNode {
			return nil, errorAt(tags, "#/tags", "expected a list")
		}
		for i, t := range tags.Content {
			t = resolve(t)
			name := str(lookup(t, "name"))
			if name == "" {
				return nil, errorAt(t, fmt.Sprintf("#/tags/%d", i), "tag without a name")
			}
			spec.Tags = append(spec.Tags, ir.Tag{Name: name, Description: str(lookup(t, "description"))})
		}
	}

	components := lookup(doc, "components")
	err := eachPair(lookup(components, "parameters"), "#/components/parameters", func(name string, n *yaml.Node) error {
		d.parameters[name] = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	paths := lookup(doc, "paths")
	if paths == nil {
		return nil, errorAt(doc, "#", "missing paths")
	}
	err = eachPair(paths, "#/paths", func(route string, item *yaml.Node) error {
		sp, err := d.specPath(item, pointer("#/paths", route))
		if err != nil {
			return err
		}
		spec.Paths = append(spec.Paths, ir.PathEntry{Route: route, Path: sp})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachPair(lookup(components, "schemas"), "#/components/schemas", func(name string, n *yaml.Node) error {
		s, err := d.namedSchema(name, n, pointer("#/components/schemas", name))
		if err != nil {
			return err
		}
		spec.Schemas = append(spec.Schemas, s)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return spec, nil
}

func (d *decoder) specPath(n *yaml.Node, path string) (ir.SpecPath, error) {
	var sp ir.SpecPath
	err := eachPair(n, path, func(key string, v *yaml.Node) error {
		if key == "parameters" {
			params, err := d.parameterList(v, pointer(path, key))
			sp.Parameters = params
			return err
		}
		method, ok := ir.ParseMethod(key)
		if !ok {
			return nil
		}
		call, err := d.call(v, pointer(path, key))
		if err != nil {
			return err
		}
		sp.Calls = append(sp.Calls, ir.MethodCall{Method: method, Call: call})
		return nil
	})
	return sp, err
}

func (d *decoder) call(n *yaml.Node, path string) (ir.Call, error) {
	if n.Kind != yaml.MappingNode {
		return ir.Call{}, errorAt(n, path, "expected an operation object")
	}
	c := ir.Call{
		OperationID: str(lookup(n, "operationId")),
		Summary:     str(lookup(n, "summary")),
		Description: str(lookup(n, "description")),
	}

	var err error
	if c.Deprecated, err = boolean(lookup(n, "deprecated"), pointer(path, "deprecated")); err != nil {
		return c, err
	}

	if tags := lookup(n, "tags"); tags != nil {
		if tags.Kind != yaml.SequenceNode {
			return c, errorAt(tags, pointer(path, "tags"), "expected a list")
		}
		for _, t := range tags.Content {
			c.Tags = append(c.Tags, str(resolve(t)))
		}
	}

	if c.Parameters, err = d.parameterList(lookup(n, "parameters"), pointer(path, "parameters")); err != nil {
		return c, err
	}

	if body := lookup(n, "requestBody"); body != nil {
		rb := &ir.RequestBody{}
		if rb.Required, err = boolean(lookup(body, "required"), pointer(path, "requestBody/required")); err != nil {
			return c, err
		}
		if rb.Content, err = d.content(lookup(body, "content"), pointer(path, "requestBody")+"/content"); err != nil {
			return c, err
		}
		c.RequestBody = rb
	}

	responsesPath := pointer(path, "responses")
	err = eachPair(lookup(n, "responses"), responsesPath, func(status string, r *yaml.Node) error {
		resp := ir.StatusResponse{Status: status, Description: str(lookup(r, "description"))}
		content, err := d.content(lookup(r, "content"), pointer(responsesPath, status)+"/content")
		if err != nil {
			return err
		}
		resp.Content = content
		c.Responses = append(c.Responses, resp)
		return nil
	})
	return c, err
}

func (d *decoder) parameterList(n *yaml.Node, path string) ([]ir.Parameter, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, errorAt(n, path, "expected a list")
	}
	out := make([]ir.Parameter, 0, len(n.Content))
	for i, item := range n.Content {
		p, err := d.parameter(resolve(item), fmt.Sprintf("%s/%d", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (d *decoder) parameter(n *yaml.Node, path string) (ir.Parameter, error) {
	if ref := str(lookup(n, "$ref")); ref != "" {
		name, ok := strings.CutPrefix(ref, parameterRefPrefix)
		target, found := d.parameters[name]
		if !ok || !found || lookup(target, "$ref") != nil {
			return ir.Parameter{}, errorAt(n, path, "unresolvable parameter reference %q", ref)
		}
		n = target
	}
	if n.Kind != yaml.MappingNode {
		return ir.Parameter{}, errorAt(n, path, "expected a parameter object")
	}

	p := ir.Parameter{
		Name:        str(lookup(n, "name")),
		Description: str(lookup(n, "description")),
	}
	if p.Name == "" {
		return p, errorAt(n, path, "parameter without a name")
	}

	var err error
	if p.Required, err = boolean(lookup(n, "required"), pointer(path, "required")); err != nil {
		return p, err
	}
	if p.Deprecated, err = boolean(lookup(n, "deprecated"), pointer(path, "deprecated")); err != nil {
		return p, err
	}

	switch in := str(lookup(n, "in")); in {
	case "path":
		p.In = ir.InPath
		// path parameters are always required
		p.Required = true
	case "query":
		p.In = ir.InQuery
	default:
		return p, errorAt(n, pointer(path, "in"), "unsupported parameter location %q", in)
	}

	if p.Schema, err = d.kind(lookup(n, "schema"), pointer(path, "schema")); err != nil {
		return p, err
	}
	return p, nil
}

func (d *decoder) content(n *yaml.Node, path string) (ir.Content, error) {
	var out ir.Content
	err := eachPair(n, path, func(mediaType string, m *yaml.Node) error {
		ct, ok := ir.ParseContentType(mediaType)
		if !ok {
			return nil
		}
		schema, err := d.kind(lookup(m, "schema"), pointer(pointer(path, mediaType), "schema"))
		if err != nil {
			return err
		}
		out = append(out, ir.Media{Type: ct, Schema: schema})
		return nil
	})
	return out, err
}

func (d *decoder) kind(n *yaml.Node, path string) (ir.Kind, error) {
	if n == nil || n.Kind == yaml.ScalarNode {
		// absent schema, or a boolean schema such as `additionalProperties: true`
		return ir.Kind{Type: ir.KindDefault}, nil
	}
	if n.Kind != yaml.MappingNode {
		return ir.Kind{}, errorAt(n, path, "expected a schema object")
	}
	if ref := lookup(n, "$ref"); ref != nil {
		return ir.Kind{Type: ir.KindRef, Ref: str(ref)}, nil
	}

	typ, err := schemaType(n, path)
	if err != nil {
		return ir.Kind{}, err
	}
	format := str(lookup(n, "format"))

	switch typ {
	case "array":
		k := ir.Kind{Type: ir.KindArray}
		if items := lookup(n, "items"); items != nil {
			item, err := d.kind(items, pointer(path, "items"))
			if err != nil {
				return ir.Kind{}, err
			}
			k.Items = &item
		}
		if k.UniqueItems, err = boolean(lookup(n, "uniqueItems"), pointer(path, "uniqueItems")); err != nil {
			return ir.Kind{}, err
		}
		return k, nil
	case "boolean":
		return ir.Kind{Type: ir.KindBoolean}, nil
	case "integer":
		return ir.Kind{Type: ir.KindInteger, Format: format}, nil
	case "number":
		return ir.Kind{Type: ir.KindNumber, Format: format}, nil
	case "string":
		return ir.Kind{Type: ir.KindString, Format: format}, nil
	case "object":
		return d.objectKind(n, path)
	case "", "null":
		if isObjectShaped(n) {
			return d.objectKind(n, path)
		}
		return ir.Kind{Type: ir.KindDefault}, nil
	}
	return ir.Kind{}, errorAt(n, pointer(path, "type"), "unsupported schema type %q", typ)
}

func (d *decoder) objectKind(n *yaml.Node, path string) (ir.Kind, error) {
	obj, err := decodeObject[ir.Kind](n, path, d.kindMember)
	if err != nil {
		return ir.Kind{}, err
	}
	return ir.Kind{Type: ir.KindObject, Object: obj}, nil
}

func (d *decoder) kindMember(n *yaml.Node, path string, _ bool) (ir.Kind, error) {
	return d.kind(n, path)
}

func (d *decoder) property(n *yaml.Node, path string, required bool) (ir.Property, error) {
	k, err := d.kind(n, path)
	if err != nil {
		return ir.Property{}, err
	}
	p := ir.Property{
		Kind:        k,
		Required:    required,
		Description: str(lookup(n, "description")),
	}
	if p.Deprecated, err = boolean(lookup(n, "deprecated"), pointer(path, "deprecated")); err != nil {
		return p, err
	}
	// a boolean `required` on the property itself, as some generators write it
	if r := lookup(n, "required"); r != nil && r.Kind == yaml.ScalarNode {
		flag, err := boolean(r, pointer(path, "required"))
		if err != nil {
			return p, err
		}
		p.Required = p.Required || flag
	}
	return p, nil
}

func (d *decoder) namedSchema(name string, n *yaml.Node, path string) (ir.NamedSchema, error) {
	if n.Kind != yaml.MappingNode {
		return ir.NamedSchema{}, errorAt(n, path, "expected a schema object")
	}
	s := ir.NamedSchema{Name: name, Description: str(lookup(n, "description"))}

	var err error
	if s.Deprecated, err = boolean(lookup(n, "deprecated"), pointer(path, "deprecated")); err != nil {
		return s, err
	}

	typ, err := schemaType(n, path)
	if err != nil {
		return s, err
	}
	isRef := lookup(n, "$ref") != nil
	enum := lookup(n, "enum")

	switch {
	case !isRef && typ == "string" && enum != nil:
		if enum.Kind != yaml.SequenceNode {
			return s, errorAt(enum, pointer(path, "enum"), "expected a list")
		}
		values := make([]string, 0, len(enum.Content))
		for i, v := range enum.Content {
			v = resolve(v)
			if v.Kind != yaml.ScalarNode {
				return s, errorAt(v, fmt.Sprintf("%s/enum/%d", path, i), "expected a scalar")
			}
			if v.Tag == "!!null" {
				continue
			}
			values = append(values, v.Value)
		}
		s.Schema = ir.Schema{Type: ir.SchemaEnum, Enum: values}
	case !isRef && (typ == "object" || (typ == "" && isObjectShaped(n))):
		obj, err := decodeObject[ir.Property](n, path, d.property)
		if err != nil {
			return s, err
		}
		s.Schema = ir.Schema{Type: ir.SchemaObject, Object: obj}
	default:
		k, err := d.kind(n, path)
		if err != nil {
			return s, err
		}
		s.Schema = ir.Schema{Type: ir.SchemaAlias, Alias: &k}
	}
	return s, nil
}

type memberDecoder[P any] func(n *yaml.Node, path string, required bool) (P, error)

// decodeObject classifies an object schema as AllOf, Struct, Map or Value,
// in that order of precedence.
func decodeObject[P any](n *yaml.Node, path string, member memberDecoder[P]) (*ir.ObjectSchema[P], error) {
	if all := lookup(n, "allOf"); all != nil {
		if all.Kind != yaml.SequenceNode {
			return nil, errorAt(all, pointer(path, "allOf"), "expected a list")
		}
		obj := &ir.ObjectSchema[P]{Type: ir.ObjectAllOf}
		for i, m := range all.Content {
			p, err := member(resolve(m), fmt.Sprintf("%s/allOf/%d", path, i), false)
			if err != nil {
				return nil, err
			}
			obj.AllOf = append(obj.AllOf, p)
		}
		return obj, nil
	}

	if props := lookup(n, "properties"); props != nil && len(props.Content) > 0 {
		required, err := requiredSet(lookup(n, "required"), pointer(path, "required"))
		if err != nil {
			return nil, err
		}
		propsPath := pointer(path, "properties")
		obj := &ir.ObjectSchema[P]{Type: ir.ObjectStruct}
		err = eachPair(props, propsPath, func(name string, v *yaml.Node) error {
			p, err := member(v, pointer(propsPath, name), required[name])
			if err != nil {
				return err
			}
			obj.Properties = append(obj.Properties, ir.Field[P]{Name: name, Value: p})
			return nil
		})
		if err != nil {
			return nil, err
		}
		return obj, nil
	}

	if ap := lookup(n, "additionalProperties"); ap != nil && !(ap.Kind == yaml.ScalarNode && ap.Value == "false") {
		p, err := member(ap, pointer(path, "additionalProperties"), false)
		if err != nil {
			return nil, err
		}
		return &ir.ObjectSchema[P]{Type: ir.ObjectMap, Additional: &p}, nil
	}

	return &ir.ObjectSchema[P]{Type: ir.ObjectValue}, nil
}

func isObjectShaped(n *yaml.Node) bool {
	return lookup(n, "properties") != nil || lookup(n, "additionalProperties") != nil || lookup(n, "allOf") != nil
}

// schemaType returns the declared type; for 3.1 type lists the first non-null entry.
func schemaType(n *yaml.Node, path string) (string, error) {
	t := lookup(n, "type")
	if t == nil {
		return "", nil
	}
	switch t.Kind {
	case yaml.ScalarNode:
		return t.Value, nil
	case yaml.SequenceNode:
		for _, v := range t.Content {
			if v = resolve(v); v.Value != "null" {
				return v.Value, nil
			}
		}
		return "null", nil
	}
	return "", errorAt(t, pointer(path, "type"), "expected a string or a list")
}

func requiredSet(n *yaml.Node, path string) (map[string]bool, error) {
	set := map[string]bool{}
	if n == nil || n.Kind == yaml.ScalarNode {
		return set, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, errorAt(n, path, "expected a list")
	}
	for _, v := range n.Content {
		set[resolve(v).Value] = true
	}
	return set, nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func lookup(n *yaml.Node, key string) *yaml.Node {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return resolve(n.Content[i+1])
		}
	}
	return nil
}

func eachPair(n *yaml.Node, path string, fn func(key string, value *yaml.Node) error) error {
	n = resolve(n)
	if n == nil {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return errorAt(n, path, "expected an object")
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := fn(n.Content[i].Value, resolve(n.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}

func str(n *yaml.Node) string {
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return n.Value
}

func boolean(n *yaml.Node, path string) (bool, error) {
	if n == nil {
		return false, nil
	}
	var b bool
	if n.Kind != yaml.ScalarNode || n.Decode(&b) != nil {
		return false, errorAt(n, path, "expected a boolean")
	}
	return b, nil
}
