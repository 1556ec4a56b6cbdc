package cli

import (
	"context"
	"io"

	"github.com/blimu-dev/realmgen/pkg/config"
	"github.com/blimu-dev/realmgen/pkg/generator"
	"github.com/blimu-dev/realmgen/pkg/tags"
)

// RunParams holds the flag values of a generating subcommand. Empty values
// leave the config file and environment settings alone.
type RunParams struct {
	Kind       string
	ConfigPath string
	Input      string
	Overrides  string
	Tag        string
	NoTag      bool
	Validate   bool
	Verbose    bool
	TagFormat  string
	OutFile    string
	// Environ replaces os.Environ for the REALMGEN_* overlay when set
	Environ map[string]string
}

// RunValidate validates the description at input
func RunValidate(input string) error {
	return generator.ValidateSpec(input)
}

// RunGenerate resolves the configuration and runs one emitter. Output goes
// to stdout unless an output file is given; diagnostics go to stderr.
func RunGenerate(ctx context.Context, p RunParams, stdout, stderr io.Writer) error {
	cfg, err := buildConfig(p)
	if err != nil {
		return err
	}
	logger, err := NewLogger(stderr, cfg.LogLevel, p.Verbose)
	if err != nil {
		return err
	}

	return generator.Run(ctx, generator.RunOptions{
		Config:    cfg,
		Kind:      p.Kind,
		Scope:     tags.Scope{Tag: p.Tag, NoTag: p.NoTag},
		TagFormat: p.TagFormat,
		Out:       stdout,
		OutFile:   p.OutFile,
		Logger:    logger,
	})
}

// buildConfig layers the config file, the environment and the flags
func buildConfig(p RunParams) (*config.Config, error) {
	cfg := config.Default()
	if p.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(p.ConfigPath); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(p.Environ); err != nil {
		return nil, err
	}

	if p.Input != "" {
		cfg.Spec = p.Input
	}
	if p.Overrides != "" {
		cfg.Overrides = p.Overrides
	}
	if p.Validate {
		cfg.ValidateSpec = true
	}
	return cfg, cfg.Validate()
}
