package rust

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/blimu-dev/realmgen/pkg/ir"
	"github.com/blimu-dev/realmgen/pkg/tags"
)

// Tag listing shapes
const (
	// FormatFeatures renders the cargo [features] entries
	FormatFeatures = "features"
	// FormatList renders one tag name per line
	FormatList = "list"
	// FormatModules renders the feature gated module index
	FormatModules = "modules"
	// FormatJSON renders the groups as a JSON array
	FormatJSON = "json"
)

// TagFormats lists the supported tag listing shapes
var TagFormats = []string{FormatFeatures, FormatList, FormatModules, FormatJSON}

// TagsEmitter lists tag groups for build tooling
type TagsEmitter struct {
	base
	format string
}

// NewTagsEmitter creates a tag listing emitter for one of TagFormats
func NewTagsEmitter(opts Options, format string) (*TagsEmitter, error) {
	if format == "" {
		format = FormatFeatures
	}
	if !slices.Contains(TagFormats, format) {
		return nil, fmt.Errorf("unknown tag format %q (want one of %s)", format, strings.Join(TagFormats, ", "))
	}
	return &TagsEmitter{base: newBase(opts), format: format}, nil
}

// GetType returns the emitter type identifier
func (e *TagsEmitter) GetType() string {
	return "tags"
}

type tagEntry struct {
	Name    string `json:"name"`
	Feature string `json:"feature"`
	Module  string `json:"module"`
	Doc     string `json:"doc"`
	Paths   int    `json:"paths"`
}

// Emit writes the groups in the configured shape. The untagged group is
// always listed last except by FormatList, which lists declared names only.
func (e *TagsEmitter) Emit(w io.Writer, spec *ir.Spec, scope tags.Scope) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	all, _ := tags.Partition(spec)
	groups := scope.Select(e.filter.Apply(all))

	entries := make([]tagEntry, 0, len(groups))
	for _, g := range groups {
		entries = append(entries, tagEntry{
			Name:    g.Tag.Name,
			Feature: g.Feature(),
			Module:  g.Module(),
			Doc:     g.Doc(),
			Paths:   len(g.Paths),
		})
	}

	switch e.format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case FormatList:
		named := slices.DeleteFunc(slices.Clone(entries), func(t tagEntry) bool { return t.Name == "" })
		return e.render(w, "list", named)
	case FormatModules:
		sorted := slices.Clone(entries)
		slices.SortStableFunc(sorted, func(a, b tagEntry) int {
			return strings.Compare(a.Module, b.Module)
		})
		return e.render(w, "modules", sorted)
	}
	return e.render(w, "features", entries)
}
