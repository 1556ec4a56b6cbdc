package generator

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/blimu-dev/realmgen/pkg/generator/rust"
	"github.com/blimu-dev/realmgen/pkg/ir"
	"github.com/blimu-dev/realmgen/pkg/tags"
)

// Emitter defines the interface for output backends
type Emitter interface {
	// Emit renders the artifact for the groups selected by scope into w
	Emit(w io.Writer, spec *ir.Spec, scope tags.Scope) error
	// GetType returns the type identifier for this emitter (e.g., "rest")
	GetType() string
}

// Registry manages available emitters
type Registry struct {
	emitters map[string]Emitter
}

// NewRegistry creates a new emitter registry
func NewRegistry() *Registry {
	return &Registry{
		emitters: make(map[string]Emitter),
	}
}

// Register adds an emitter to the registry
func (r *Registry) Register(e Emitter) {
	r.emitters[e.GetType()] = e
}

// Get retrieves an emitter by type
func (r *Registry) Get(kind string) (Emitter, bool) {
	e, exists := r.emitters[kind]
	return e, exists
}

// GetAvailableTypes returns all registered emitter types, sorted
func (r *Registry) GetAvailableTypes() []string {
	types := make([]string, 0, len(r.emitters))
	for t := range r.emitters {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// ServiceOptions configures the default emitters
type ServiceOptions struct {
	rust.Options
	// TagFormat is the shape of the tags listing; empty means features
	TagFormat string
}

// Service provides high-level emission functionality
type Service struct {
	registry *Registry
}

// NewService creates a new service with the default emitters
func NewService(opts ServiceOptions) (*Service, error) {
	tagList, err := rust.NewTagsEmitter(opts.Options, opts.TagFormat)
	if err != nil {
		return nil, err
	}
	registry := NewRegistry()
	// Register default emitters
	registry.Register(rust.NewTypesEmitter(opts.Options))
	registry.Register(rust.NewRestEmitter(opts.Options))
	registry.Register(rust.NewResourceEmitter(opts.Options))
	registry.Register(tagList)
	registry.Register(NewSpecsEmitter())
	return &Service{
		registry: registry,
	}, nil
}

// NewServiceWithRegistry creates a new service with a custom registry
func NewServiceWithRegistry(registry *Registry) *Service {
	return &Service{
		registry: registry,
	}
}

// Emit runs the emitter registered for kind
func (s *Service) Emit(w io.Writer, kind string, spec *ir.Spec, scope tags.Scope) error {
	e, exists := s.registry.Get(kind)
	if !exists {
		return fmt.Errorf("unsupported emitter type: %s (available: %s)", kind, strings.Join(s.registry.GetAvailableTypes(), ", "))
	}
	return e.Emit(w, spec, scope)
}

// GetRegistry returns the emitter registry
func (s *Service) GetRegistry() *Registry {
	return s.registry
}

// executeCommand executes a post-generation command given in array form
func executeCommand(command []string, workDir, commandLabel string) error {
	if len(command) == 0 {
		return nil
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = workDir
	// generated code may go to stdout, keep command output on stderr
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s (%s) failed: %w", commandLabel, strings.Join(command, " "), err)
	}
	return nil
}
