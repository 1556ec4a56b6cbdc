package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/realmgen/pkg/config"
)

const description = `openapi: 3.0.3
info: {title: admin, version: "1"}
paths:
  /admin/realms/{realm}/keys:
    parameters:
      - {name: realm, in: path, required: true, schema: {type: string}}
    get:
      responses: {"204": {description: done}}
`

func TestBuildConfig_Layering(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "realmgen.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`spec: openapi.json
overrides: patches.yaml
logLevel: warn
target:
  errorType: AdminError
`), 0o644))

	cfg, err := buildConfig(RunParams{
		ConfigPath: cfgPath,
		Environ: map[string]string{
			"REALMGEN_LOG_LEVEL":       "debug",
			"REALMGEN_TARGET_DOCS_URL": "https://example.com/docs",
			"REALMGEN_OVERRIDES":       "/etc/realmgen/patches.yaml",
		},
		Overrides: "flag.yaml",
		Validate:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "openapi.json"), cfg.Spec)
	assert.Equal(t, "flag.yaml", cfg.Overrides)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "https://example.com/docs", cfg.Target.DocsURL)
	assert.True(t, cfg.ValidateSpec)
	assert.Equal(t, "AdminError", cfg.Target.ErrorType)
	// untouched defaults survive
	assert.Equal(t, "KeycloakRealmAdmin", cfg.Target.ScopedClientType)
}

func TestBuildConfig_RequiresSpec(t *testing.T) {
	_, err := buildConfig(RunParams{Environ: map[string]string{}})
	assert.ErrorIs(t, err, config.ErrSpecRequired)

	cfg, err := buildConfig(RunParams{Environ: map[string]string{"REALMGEN_SPEC": "https://example.com/openapi.json"}})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/openapi.json", cfg.Spec)
}

func TestRunGenerate(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "openapi.yaml")
	require.NoError(t, os.WriteFile(input, []byte(description), 0o644))

	var stdout, stderr bytes.Buffer
	err := RunGenerate(context.Background(), RunParams{
		Kind:    "rest",
		Input:   input,
		NoTag:   true,
		Verbose: true,
		Environ: map[string]string{},
	}, &stdout, &stderr)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stdout.String(), "use super::*;\n"))
	assert.Contains(t, stdout.String(), "pub async fn realm_keys_get(")
	assert.Contains(t, stderr.String(), "level=DEBUG")
	assert.Contains(t, stderr.String(), "description loaded")
}

func TestRunGenerate_UnknownKind(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "openapi.yaml")
	require.NoError(t, os.WriteFile(input, []byte(description), 0o644))

	var stdout, stderr bytes.Buffer
	err := RunGenerate(context.Background(), RunParams{Kind: "golang", Input: input, Environ: map[string]string{}}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: resource, rest, specs, tags, types")
	assert.Empty(t, stdout.String())
}

func TestRunValidate(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "openapi.yaml")
	require.NoError(t, os.WriteFile(input, []byte(description), 0o644))
	assert.NoError(t, RunValidate(input))

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("openapi: 3.0.3\ninfo: {title: t}\npaths:\n  noslash: {}\n"), 0o644))
	assert.Error(t, RunValidate(broken))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warn", false)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown key=value")

	buf.Reset()
	logger, err = NewLogger(&buf, "error", true)
	require.NoError(t, err)
	logger.Debug("verbose wins")
	assert.Contains(t, buf.String(), "verbose wins")

	_, err = NewLogger(&buf, "loud", false)
	assert.Error(t, err)
}
