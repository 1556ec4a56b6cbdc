package ir

import "strings"

// Spec is the decoded API description. It is built once per run and is
// read-only afterwards.
type Spec struct {
	OpenAPI string        `yaml:"openapi"`
	Info    Info          `yaml:"info"`
	Tags    []Tag         `yaml:"tags,omitempty"`
	Paths   []PathEntry   `yaml:"paths"`
	Schemas []NamedSchema `yaml:"schemas,omitempty"`
}

// Info carries the description metadata
type Info struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Version     string `yaml:"version"`
}

// Tag is a declared operation group
type Tag struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// PathEntry keeps a route together with its SpecPath so declaration order survives.
type PathEntry struct {
	Route string   `yaml:"route"`
	Path  SpecPath `yaml:"path"`
}

// SpecPath is one route: its operations in declaration order and the
// parameters shared by all of them.
type SpecPath struct {
	Calls      []MethodCall `yaml:"calls"`
	Parameters []Parameter  `yaml:"parameters,omitempty"`
}

// MethodCall binds an HTTP verb to its operation
type MethodCall struct {
	Method Method `yaml:"method"`
	Call   Call   `yaml:"call"`
}

// Method is a lowercase HTTP verb as it appears in the description
type Method string

const (
	MethodGet     Method = "get"
	MethodPut     Method = "put"
	MethodPost    Method = "post"
	MethodDelete  Method = "delete"
	MethodPatch   Method = "patch"
	MethodHead    Method = "head"
	MethodOptions Method = "options"
	MethodTrace   Method = "trace"
)

// ParseMethod returns the Method for a path-item key, or false when the key is not a verb.
func ParseMethod(key string) (Method, bool) {
	switch m := Method(key); m {
	case MethodGet, MethodPut, MethodPost, MethodDelete, MethodPatch, MethodHead, MethodOptions, MethodTrace:
		return m, true
	}
	return "", false
}

// Title returns the verb with its first letter capitalized ("Get")
func (m Method) Title() string {
	if m == "" {
		return ""
	}
	return strings.ToUpper(string(m[:1])) + string(m[1:])
}

// Upper returns the verb in upper case ("GET")
func (m Method) Upper() string {
	return strings.ToUpper(string(m))
}

// Call is a single operation
type Call struct {
	OperationID string           `yaml:"operationId,omitempty"`
	Tags        []string         `yaml:"tags,omitempty"`
	Summary     string           `yaml:"summary,omitempty"`
	Description string           `yaml:"description,omitempty"`
	Deprecated  bool             `yaml:"deprecated,omitempty"`
	Parameters  []Parameter      `yaml:"parameters,omitempty"`
	RequestBody *RequestBody     `yaml:"requestBody,omitempty"`
	Responses   []StatusResponse `yaml:"responses,omitempty"`
}

// SingleTag returns the call's tag when it declares exactly one.
func (c Call) SingleTag() (string, bool) {
	if len(c.Tags) == 1 {
		return c.Tags[0], true
	}
	return "", false
}

// SuccessResponse picks the response to materialize: the literal "200",
// else the first 2xx status in declaration order.
func (c Call) SuccessResponse() (StatusResponse, bool) {
	for _, r := range c.Responses {
		if r.Status == "200" {
			return r, true
		}
	}
	for _, r := range c.Responses {
		if strings.HasPrefix(r.Status, "2") {
			return r, true
		}
	}
	return StatusResponse{}, false
}

// RequestBody is the operation payload
type RequestBody struct {
	Required bool    `yaml:"required,omitempty"`
	Content  Content `yaml:"content"`
}

// StatusResponse is a response keyed by its status code string
type StatusResponse struct {
	Status      string  `yaml:"status"`
	Description string  `yaml:"description,omitempty"`
	Content     Content `yaml:"content,omitempty"`
}

// ContentType is a recognized media type
type ContentType string

const (
	ContentJSON   ContentType = "application/json"
	ContentBinary ContentType = "application/octet-stream"
	ContentXML    ContentType = "application/xml"
	ContentText   ContentType = "text/plain"
	ContentForm   ContentType = "application/x-www-form-urlencoded"
	ContentAny    ContentType = "*/*"
)

// ParseContentType maps a media type (parameters ignored) to a known ContentType.
func ParseContentType(s string) (ContentType, bool) {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	switch ct := ContentType(strings.ToLower(strings.TrimSpace(s))); ct {
	case ContentJSON, ContentBinary, ContentXML, ContentText, ContentForm, ContentAny:
		return ct, true
	}
	return "", false
}

// Media is one representation of a payload
type Media struct {
	Type   ContentType `yaml:"type"`
	Schema Kind        `yaml:"schema"`
}

// Content lists payload representations in declaration order
type Content []Media

// Get returns the representation for ct.
func (c Content) Get(ct ContentType) (Media, bool) {
	for _, m := range c {
		if m.Type == ct {
			return m, true
		}
	}
	return Media{}, false
}

// Position is where a parameter is bound
type Position string

const (
	InPath  Position = "path"
	InQuery Position = "query"
)

// Parameter is a path or query parameter
type Parameter struct {
	Name        string   `yaml:"name"`
	In          Position `yaml:"in"`
	Description string   `yaml:"description,omitempty"`
	Required    bool     `yaml:"required,omitempty"`
	Deprecated  bool     `yaml:"deprecated,omitempty"`
	Schema      Kind     `yaml:"schema"`
}

// KindType discriminates Kind
type KindType string

const (
	// KindDefault is the untyped fallback
	KindDefault KindType = "default"
	KindRef     KindType = "ref"
	KindArray   KindType = "array"
	KindBoolean KindType = "boolean"
	KindInteger KindType = "integer"
	KindNumber  KindType = "number"
	KindString  KindType = "string"
	KindObject  KindType = "object"
)

// Kind is the recursive type node used by parameters, bodies, responses
// and schema properties.
type Kind struct {
	Type KindType `yaml:"type"`
	// Ref is the raw reference string ("#/components/schemas/Name")
	Ref    string `yaml:"ref,omitempty"`
	Format string `yaml:"format,omitempty"`
	// Items is nil for arrays without an item schema
	Items       *Kind               `yaml:"items,omitempty"`
	UniqueItems bool                `yaml:"uniqueItems,omitempty"`
	Object      *ObjectSchema[Kind] `yaml:"object,omitempty"`
}

// IsString reports whether k is a plain string
func (k Kind) IsString() bool {
	return k.Type == KindString
}

// ObjectType discriminates ObjectSchema
type ObjectType string

const (
	ObjectStruct ObjectType = "struct"
	ObjectMap    ObjectType = "map"
	ObjectAllOf  ObjectType = "allOf"
	ObjectValue  ObjectType = "value"
)

// ObjectSchema is an object shape whose members carry payload P: Property
// for named component schemas, Kind for inline parameter and body schemas.
type ObjectSchema[P any] struct {
	Type ObjectType `yaml:"type"`
	// Properties holds Struct fields in declaration order
	Properties []Field[P] `yaml:"properties,omitempty"`
	// Additional is the Map value payload
	Additional *P  `yaml:"additional,omitempty"`
	AllOf      []P `yaml:"allOf,omitempty"`
}

// Field is a named struct member
type Field[P any] struct {
	Name  string `yaml:"name"`
	Value P      `yaml:"value"`
}

// Property is a field of a named schema
type Property struct {
	Description string `yaml:"description,omitempty"`
	Deprecated  bool   `yaml:"deprecated,omitempty"`
	Required    bool   `yaml:"required,omitempty"`
	Kind        Kind   `yaml:"kind"`
}

// SchemaType discriminates Schema
type SchemaType string

const (
	SchemaObject SchemaType = "object"
	SchemaEnum   SchemaType = "enum"
	SchemaAlias  SchemaType = "alias"
)

// Schema is the body of a named component schema
type Schema struct {
	Type   SchemaType              `yaml:"type"`
	Object *ObjectSchema[Property] `yaml:"object,omitempty"`
	Enum   []string                `yaml:"enum,omitempty"`
	Alias  *Kind                   `yaml:"alias,omitempty"`
}

// NamedSchema is a component schema registry entry
type NamedSchema struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Deprecated  bool   `yaml:"deprecated,omitempty"`
	Schema      Schema `yaml:"schema"`
}

// RealmMethod is the flattened, fully resolved view of one operation used by
// the fluent emitter.
type RealmMethod struct {
	// Name is the flat client method name
	Name string
	// ScopedName is Name without the scope prefix ("users_get")
	ScopedName  string
	Parameters  []RealmMethodParameter
	Output      string
	Docs        []string
	Tag         string
	Deprecated  bool
	HasOptional bool
}

// RealmMethodParameter is a resolved parameter of a RealmMethod
type RealmMethodParameter struct {
	Name        string
	Type        string
	Description string
	Required    bool
	// Scope marks the implicit subject parameter supplied by the scoped client
	Scope bool
	Body  bool
}
