// Package realmgen generates Rust client code for an admin REST API from its
// OpenAPI description.
//
// The generator produces four artifacts, each selected by an emitter kind:
// type declarations ("types"), flat async client methods ("rest"), the fluent
// realm scoped client ("resource") and tag listings for cargo ("tags").
//
// Quick Start:
//
//	import "github.com/blimu-dev/realmgen"
//
//	// Print the type declarations for a description
//	err := realmgen.Generate(os.Stdout, realmgen.Options{
//		Spec: "./openapi.json",
//		Kind: "types",
//	})
//
// For more advanced usage, see the generator package.
package realmgen

import (
	"context"
	"io"
	"log/slog"

	"github.com/blimu-dev/realmgen/pkg/config"
	"github.com/blimu-dev/realmgen/pkg/generator"
	"github.com/blimu-dev/realmgen/pkg/tags"
)

// Options contains options for a single generation
type Options struct {
	// ConfigPath is the path to a realmgen.yaml file (optional)
	ConfigPath string

	// Spec overrides the description location from the config file
	Spec string
	// Overrides overrides the patch file location from the config file
	Overrides string

	Kind      string // Emitter kind: types, rest, resource, tags, specs
	Tag       string // Emit only the group of this tag
	NoTag     bool   // Emit only the untagged group
	TagFormat string // Tag listing shape for the tags kind
	Logger    *slog.Logger
}

// Generate renders one artifact into w.
//
// Example:
//
//	var buf bytes.Buffer
//	err := realmgen.Generate(&buf, realmgen.Options{
//		ConfigPath: "./realmgen.yaml",
//		Kind:       "resource",
//		Tag:        "Users",
//	})
func Generate(w io.Writer, opts Options) error {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			return err
		}
	}
	if opts.Spec != "" {
		cfg.Spec = opts.Spec
	}
	if opts.Overrides != "" {
		cfg.Overrides = opts.Overrides
	}

	return generator.Run(context.Background(), generator.RunOptions{
		Config:    cfg,
		Kind:      opts.Kind,
		Scope:     tags.Scope{Tag: opts.Tag, NoTag: opts.NoTag},
		TagFormat: opts.TagFormat,
		Out:       w,
		Logger:    opts.Logger,
	})
}

// ValidateSpec validates an OpenAPI description file or URL.
// This is useful for checking a description before generating from it.
//
// Example:
//
//	err := realmgen.ValidateSpec("./openapi.json")
//	if err != nil {
//		log.Fatalf("Invalid OpenAPI spec: %v", err)
//	}
func ValidateSpec(specPath string) error {
	return generator.ValidateSpec(specPath)
}
