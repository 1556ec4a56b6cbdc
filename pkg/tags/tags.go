// Package tags partitions the paths of a description into tag groups.
//
// A path belongs to the group of tag T when every operation on it declares
// exactly the single tag T. Paths whose operations declare no tags at all
// form the untagged group. Anything else (mixed or multiple tags) belongs to
// no group and is reported as left over by the emitters.
package tags

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/blimu-dev/realmgen/pkg/ir"
	"github.com/blimu-dev/realmgen/pkg/utils"
)

const (
	// NoneFeature gates the untagged group
	NoneFeature = "tag-none"
	// OtherModule is the module holding the untagged group
	OtherModule = "other_methods"
	// OtherDoc documents the untagged group module
	OtherDoc = "Other (non tagged) methods"
	// DefaultHeader is the section header used for untagged operations
	DefaultHeader = "default"
)

// ErrConflictingScope is returned when a scope names a tag and asks for untagged operations at once.
var ErrConflictingScope = errors.New("tag and no-tag scoping are mutually exclusive")

// Group is a tag together with the paths it owns.
type Group struct {
	// Tag has an empty name for the untagged group
	Tag   ir.Tag
	Paths []ir.PathEntry
}

// Untagged reports whether g is the untagged group
func (g Group) Untagged() bool {
	return g.Tag.Name == ""
}

// Header is the display name used in section comments
func (g Group) Header() string {
	if g.Untagged() {
		return DefaultHeader
	}
	return g.Tag.Name
}

// Feature returns the cargo feature gating the group ("tag-client-scopes")
func (g Group) Feature() string {
	if g.Untagged() {
		return NoneFeature
	}
	return FeatureName(g.Tag.Name)
}

// Module returns the module name for the group ("client_scopes")
func (g Group) Module() string {
	if g.Untagged() {
		return OtherModule
	}
	return utils.ToSnakeCase(g.Tag.Name)
}

// Doc returns the one-line module documentation
func (g Group) Doc() string {
	if g.Untagged() {
		return OtherDoc
	}
	return g.Tag.Name
}

// FeatureName converts a tag name into its feature name
func FeatureName(tag string) string {
	return "tag-" + utils.ToKebabCase(tag)
}

// Collect returns the declared tags followed by tags used by operations
// but never declared, in first-seen order.
func Collect(spec *ir.Spec) []ir.Tag {
	seen := make(map[string]bool, len(spec.Tags))
	out := make([]ir.Tag, 0, len(spec.Tags))
	for _, t := range spec.Tags {
		if seen[t.Name] {
			continue
		}
		seen[t.Name] = true
		out = append(out, t)
	}
	for _, p := range spec.Paths {
		for _, c := range p.Path.Calls {
			for _, name := range c.Call.Tags {
				if !seen[name] {
					seen[name] = true
					out = append(out, ir.Tag{Name: name})
				}
			}
		}
	}
	return out
}

// Partition groups the paths of spec by tag. Groups come in Collect order
// with the untagged group last; paths that fit no group are returned in
// declaration order as left.
func Partition(spec *ir.Spec) (groups []Group, left []ir.PathEntry) {
	all := Collect(spec)
	byTag := make(map[string]int, len(all))
	groups = make([]Group, 0, len(all)+1)
	for i, t := range all {
		byTag[t.Name] = i
		groups = append(groups, Group{Tag: t})
	}
	groups = append(groups, Group{})
	untagged := len(groups) - 1

	for _, p := range spec.Paths {
		tag, ok := pathTag(p.Path)
		switch {
		case !ok:
			left = append(left, p)
		case tag == "":
			groups[untagged].Paths = append(groups[untagged].Paths, p)
		default:
			i := byTag[tag]
			groups[i].Paths = append(groups[i].Paths, p)
		}
	}
	return groups, left
}

// pathTag returns the single tag shared by every call of p, "" when no call
// is tagged, or false when the calls disagree.
func pathTag(p ir.SpecPath) (string, bool) {
	tag := ""
	for i, c := range p.Calls {
		var t string
		switch len(c.Call.Tags) {
		case 0:
		case 1:
			t = c.Call.Tags[0]
			if t == "" {
				return "", false
			}
		default:
			return "", false
		}
		if i == 0 {
			tag = t
		} else if t != tag {
			return "", false
		}
	}
	return tag, true
}

// Scope restricts emission to one tag group or to the untagged group.
// The zero Scope selects everything.
type Scope struct {
	Tag   string
	NoTag bool
}

// Validate rejects contradictory scopes
func (s Scope) Validate() error {
	if s.Tag != "" && s.NoTag {
		return fmt.Errorf("%w (tag %q)", ErrConflictingScope, s.Tag)
	}
	return nil
}

// Scoped reports whether s narrows emission to a single group
func (s Scope) Scoped() bool {
	return s.NoTag || s.Tag != ""
}

// Selects reports whether g is emitted under s
func (s Scope) Selects(g Group) bool {
	switch {
	case s.NoTag:
		return g.Untagged()
	case s.Tag != "":
		return g.Tag.Name == s.Tag
	}
	return true
}

// Select returns the groups emitted under s, in order
func (s Scope) Select(groups []Group) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if s.Selects(g) {
			out = append(out, g)
		}
	}
	return out
}

// Filter keeps groups whose tag matches the include patterns (any, when
// there are none) and no exclude pattern.
type Filter struct {
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

// NewFilter compiles include and exclude regular expressions
func NewFilter(include, exclude []string) (*Filter, error) {
	inc := make([]*regexp.Regexp, 0, len(include))
	for _, p := range include {
		r, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid includeTags pattern %q: %w", p, err)
		}
		inc = append(inc, r)
	}
	exc := make([]*regexp.Regexp, 0, len(exclude))
	for _, p := range exclude {
		r, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid excludeTags pattern %q: %w", p, err)
		}
		exc = append(exc, r)
	}
	return &Filter{include: inc, exclude: exc}, nil
}

// Match decides on a set of operation tags: included if any tag matches any
// include pattern, then excluded if any tag matches any exclude pattern.
func (f *Filter) Match(tags []string) bool {
	if f == nil {
		return true
	}
	included := len(f.include) == 0
	for _, tag := range tags {
		if included {
			break
		}
		for _, r := range f.include {
			if r.MatchString(tag) {
				included = true
				break
			}
		}
	}
	if !included {
		return false
	}

	for _, tag := range tags {
		for _, r := range f.exclude {
			if r.MatchString(tag) {
				return false
			}
		}
	}
	return true
}

// Apply drops groups rejected by the filter. The untagged group carries no
// tag, so it only survives when there are no include patterns.
func (f *Filter) Apply(groups []Group) []Group {
	if f == nil {
		return groups
	}
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		var names []string
		if !g.Untagged() {
			names = []string{g.Tag.Name}
		}
		if f.Match(names) {
			out = append(out, g)
		}
	}
	return out
}
