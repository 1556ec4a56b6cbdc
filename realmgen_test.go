package realmgen_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blimu-dev/realmgen"
)

func TestValidateSpec_NoSpec(t *testing.T) {
	// Smoke: ValidateSpec errors on a missing file
	if _, err := os.Stat("/no/such/file.yaml"); err == nil {
		t.Fatal("expected no file")
	}
	if err := realmgen.ValidateSpec("/no/such/file.yaml"); err == nil {
		t.Fatal("expected error")
	}
}

func TestGenerate_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	spec := `openapi: 3.0.3
info: {title: admin, version: "1"}
tags:
  - name: Attack Detection
paths:
  /admin/realms/{realm}/attack-detection/brute-force/users:
    parameters:
      - {name: realm, in: path, required: true, schema: {type: string}}
    delete:
      tags: [Attack Detection]
      responses: {"204": {description: done}}
`
	if err := os.WriteFile(filepath.Join(dir, "openapi.yaml"), []byte(spec), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := "spec: openapi.yaml\ntarget:\n  errorType: AdminError\n"
	if err := os.WriteFile(filepath.Join(dir, "realmgen.yaml"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	err := realmgen.Generate(&buf, realmgen.Options{
		ConfigPath: filepath.Join(dir, "realmgen.yaml"),
		Kind:       "resource",
		Tag:        "Attack Detection",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	want := "self.admin.realm_attack_detection_brute_force_users_delete(self.realm)"
	if !strings.Contains(buf.String(), want) {
		t.Fatalf("expected %q in output:\n%s", want, buf.String())
	}
	if !strings.Contains(buf.String(), "Result<DefaultResponse, AdminError>") {
		t.Fatalf("expected configured error type in output:\n%s", buf.String())
	}
}
