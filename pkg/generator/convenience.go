package generator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/blimu-dev/realmgen/pkg/config"
	"github.com/blimu-dev/realmgen/pkg/generator/rust"
	"github.com/blimu-dev/realmgen/pkg/openapi"
	"github.com/blimu-dev/realmgen/pkg/overrides"
	"github.com/blimu-dev/realmgen/pkg/tags"
)

// RunOptions contains options for one generator run
type RunOptions struct {
	Config *config.Config
	// Kind selects the emitter (types, rest, resource, tags, specs)
	Kind  string
	Scope tags.Scope
	// TagFormat selects the tags listing shape
	TagFormat string
	// Out receives the output when OutFile is empty; nil means os.Stdout
	Out io.Writer
	// OutFile writes the output to a file and runs the configured post command on it
	OutFile string
	Logger  *slog.Logger
}

// Run loads the description and overrides, emits one artifact and finally
// prunes redundant overrides. Nothing is written when emission fails.
func Run(ctx context.Context, opts RunOptions) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.ValidateSpec {
		if err := openapi.ValidateDocument(ctx, cfg.Spec); err != nil {
			return err
		}
		logger.Debug("description is valid", "spec", cfg.Spec)
	}

	spec, err := openapi.Load(ctx, cfg.Spec)
	if err != nil {
		return err
	}
	logger.Debug("description loaded", "paths", len(spec.Paths), "schemas", len(spec.Schemas))

	store := overrides.New(logger)
	if cfg.Overrides != "" {
		if store, err = overrides.Load(cfg.Overrides, logger); err != nil {
			return err
		}
	}

	filter, err := tags.NewFilter(cfg.IncludeTags, cfg.ExcludeTags)
	if err != nil {
		return err
	}

	service, err := NewService(ServiceOptions{
		Options: rust.Options{
			Target:    cfg.Target,
			Overrides: store,
			Filter:    filter,
			Logger:    logger,
		},
		TagFormat: opts.TagFormat,
	})
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := service.Emit(&buf, opts.Kind, spec, opts.Scope); err != nil {
		return err
	}

	if err := write(opts, buf.Bytes()); err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		return err
	}

	if opts.OutFile != "" {
		file, err := filepath.Abs(opts.OutFile)
		if err != nil {
			return err
		}
		if command := cfg.PostCommandFor(file); command != nil {
			return executeCommand(command, filepath.Dir(file), "post-command")
		}
	}
	return nil
}

func write(opts RunOptions, data []byte) error {
	if opts.OutFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.OutFile), 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		return os.WriteFile(opts.OutFile, data, 0o644)
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	_, err := out.Write(data)
	return err
}

// ValidateSpec validates an OpenAPI description
func ValidateSpec(specPath string) error {
	return openapi.ValidateDocument(context.Background(), specPath)
}
