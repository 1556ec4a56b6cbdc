package generator

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/blimu-dev/realmgen/pkg/config"
	"github.com/blimu-dev/realmgen/pkg/generator/rust"
	"github.com/blimu-dev/realmgen/pkg/ir"
	"github.com/blimu-dev/realmgen/pkg/tags"
)

const description = `
openapi: 3.0.3
info: {title: admin, version: "1"}
tags:
  - name: Users
paths:
  /admin/realms/{realm}/users:
    parameters:
      - {name: realm, in: path, required: true, schema: {type: string}}
    get:
      tags: [Users]
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: array
                items: {$ref: '#/components/schemas/UserRepresentation'}
  /admin/realms/{realm}/keys:
    parameters:
      - {name: realm, in: path, required: true, schema: {type: string}}
    get:
      responses: {"204": {description: done}}
components:
  schemas:
    UserRepresentation:
      type: object
      properties:
        id: {type: string}
        username: {type: string}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistry(t *testing.T) {
	service, err := NewService(ServiceOptions{Options: rust.Options{Target: config.DefaultTarget(), Logger: discard()}})
	require.NoError(t, err)

	assert.Equal(t, []string{"resource", "rest", "specs", "tags", "types"}, service.GetRegistry().GetAvailableTypes())

	e, ok := service.GetRegistry().Get("rest")
	require.True(t, ok)
	assert.Equal(t, "rest", e.GetType())

	_, ok = service.GetRegistry().Get("python")
	assert.False(t, ok)
}

func TestNewService_UnknownTagFormat(t *testing.T) {
	_, err := NewService(ServiceOptions{TagFormat: "xml"})
	assert.Error(t, err)
}

func TestService_UnsupportedKind(t *testing.T) {
	service := NewServiceWithRegistry(NewRegistry())
	err := service.Emit(io.Discard, "rest", &ir.Spec{}, tags.Scope{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported emitter type: rest")
}

func TestRun_PrunesOverrides(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Spec = writeFile(t, dir, "openapi.yaml", description)
	cfg.Overrides = writeFile(t, dir, "patches.yaml", `path:
  "/admin/realms/{realm}/users:get:":
    from_type: Value
    rust_type: TypeVec<UserRepresentation>
type:
  "UserRepresentation:id":
    rust_type: TypeString
`)

	var out bytes.Buffer
	err := Run(context.Background(), RunOptions{
		Config: cfg,
		Kind:   "rest",
		Scope:  tags.Scope{Tag: "Users"},
		Out:    &out,
		Logger: discard(),
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "pub async fn realm_users_get(")

	patched, err := os.ReadFile(cfg.Overrides)
	require.NoError(t, err)
	assert.NotContains(t, string(patched), "users:get:")
	// type entries are only consulted by the types emitter
	assert.Contains(t, string(patched), "UserRepresentation:id")
}

func TestRun_NothingWrittenOnFailure(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Spec = writeFile(t, dir, "openapi.yaml", description)

	var out bytes.Buffer
	err := Run(context.Background(), RunOptions{
		Config: cfg,
		Kind:   "rest",
		Scope:  tags.Scope{Tag: "Users", NoTag: true},
		Out:    &out,
		Logger: discard(),
	})
	assert.ErrorIs(t, err, tags.ErrConflictingScope)
	assert.Empty(t, out.String())

	err = Run(context.Background(), RunOptions{Config: config.Default(), Kind: "rest", Out: &out})
	assert.ErrorIs(t, err, config.ErrSpecRequired)

	cfg.Spec = filepath.Join(dir, "missing.yaml")
	err = Run(context.Background(), RunOptions{Config: cfg, Kind: "rest", Out: &out, Logger: discard()})
	assert.Error(t, err)
	assert.Empty(t, out.String())
}

func TestRun_OutFileAndPostCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("post command uses touch")
	}
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Spec = writeFile(t, dir, "openapi.yaml", description)
	cfg.PostCommand = []string{"touch", "{file}.formatted"}

	outFile := filepath.Join(dir, "src", "types.rs")
	err := Run(context.Background(), RunOptions{
		Config:  cfg,
		Kind:    "types",
		OutFile: outFile,
		Logger:  discard(),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pub struct UserRepresentation {")
	assert.FileExists(t, outFile+".formatted")
}

func TestRun_PostCommandFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("post command uses false")
	}
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Spec = writeFile(t, dir, "openapi.yaml", description)
	cfg.PostCommand = []string{"false"}

	err := Run(context.Background(), RunOptions{
		Config:  cfg,
		Kind:    "tags",
		OutFile: filepath.Join(dir, "features.toml"),
		Logger:  discard(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post-command")
}

func TestSpecsEmitter(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Spec = writeFile(t, dir, "openapi.yaml", description)

	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), RunOptions{
		Config: cfg,
		Kind:   "specs",
		Scope:  tags.Scope{NoTag: true},
		Out:    &out,
		Logger: discard(),
	}))

	var dumped struct {
		Paths []struct {
			Route string `yaml:"route"`
		} `yaml:"paths"`
		Schemas []struct {
			Name string `yaml:"name"`
		} `yaml:"schemas"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &dumped))
	require.Len(t, dumped.Paths, 1)
	assert.Equal(t, "/admin/realms/{realm}/keys", dumped.Paths[0].Route)
	require.Len(t, dumped.Schemas, 1)
	assert.Equal(t, "UserRepresentation", dumped.Schemas[0].Name)
}
