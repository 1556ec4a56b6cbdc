package generator

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/blimu-dev/realmgen/pkg/ir"
	"github.com/blimu-dev/realmgen/pkg/tags"
)

// SpecsEmitter dumps the decoded description as YAML for inspection
type SpecsEmitter struct{}

// NewSpecsEmitter creates an IR dump emitter
func NewSpecsEmitter() *SpecsEmitter {
	return &SpecsEmitter{}
}

// GetType returns the emitter type identifier
func (e *SpecsEmitter) GetType() string {
	return "specs"
}

// Emit writes spec as YAML. A scoped run only dumps the paths of the selected groups.
func (e *SpecsEmitter) Emit(w io.Writer, spec *ir.Spec, scope tags.Scope) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	out := spec
	if scope.Scoped() {
		groups, _ := tags.Partition(spec)
		narrowed := *spec
		narrowed.Paths = nil
		for _, g := range scope.Select(groups) {
			narrowed.Paths = append(narrowed.Paths, g.Paths...)
		}
		out = &narrowed
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode spec: %w", err)
	}
	return enc.Close()
}
