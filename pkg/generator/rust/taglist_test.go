package rust

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/realmgen/pkg/tags"
)

const tagsSpec = `
openapi: 3.0.3
info: {title: t, version: "1"}
tags:
  - name: Users
  - name: Client Scopes
  - name: Attack Detection
paths:
  /admin/realms/{realm}/users:
    get:
      tags: [Users]
      responses: {"204": {description: done}}
  /admin/realms/{realm}/client-scopes:
    get:
      tags: [Client Scopes]
      responses: {"204": {description: done}}
    post:
      tags: [Client Scopes]
      responses: {"204": {description: done}}
  /admin/realms/{realm}/keys:
    get:
      responses: {"204": {description: done}}
`

func emitTags(t *testing.T, format string, scope tags.Scope, filter *tags.Filter) string {
	t.Helper()
	opts := testOptions()
	opts.Filter = filter
	e, err := NewTagsEmitter(opts, format)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, e.Emit(&buf, decodeSpec(t, tagsSpec), scope))
	return buf.String()
}

func TestTagsEmitter_Features(t *testing.T) {
	want := `tags-all = ["tag-users", "tag-client-scopes", "tag-attack-detection", "tag-none"]
tag-users = []
tag-client-scopes = []
tag-attack-detection = []
tag-none = []
`
	assert.Equal(t, want, emitTags(t, "", tags.Scope{}, nil))
	assert.Equal(t, want, emitTags(t, FormatFeatures, tags.Scope{}, nil))
}

func TestTagsEmitter_List(t *testing.T) {
	assert.Equal(t, "Users\nClient Scopes\nAttack Detection\n", emitTags(t, FormatList, tags.Scope{}, nil))
}

func TestTagsEmitter_Modules(t *testing.T) {
	want := `/// Attack Detection
#[cfg(feature = "tag-attack-detection")]
pub mod attack_detection;
/// Client Scopes
#[cfg(feature = "tag-client-scopes")]
pub mod client_scopes;
/// Other (non tagged) methods
#[cfg(feature = "tag-none")]
pub mod other_methods;
/// Users
#[cfg(feature = "tag-users")]
pub mod users;
`
	assert.Equal(t, want, emitTags(t, FormatModules, tags.Scope{}, nil))
}

func TestTagsEmitter_JSON(t *testing.T) {
	var got []tagEntry
	require.NoError(t, json.Unmarshal([]byte(emitTags(t, FormatJSON, tags.Scope{}, nil)), &got))
	assert.Equal(t, []tagEntry{
		{Name: "Users", Feature: "tag-users", Module: "users", Doc: "Users", Paths: 1},
		{Name: "Client Scopes", Feature: "tag-client-scopes", Module: "client_scopes", Doc: "Client Scopes", Paths: 1},
		{Name: "Attack Detection", Feature: "tag-attack-detection", Module: "attack_detection", Doc: "Attack Detection", Paths: 0},
		{Name: "", Feature: "tag-none", Module: "other_methods", Doc: "Other (non tagged) methods", Paths: 1},
	}, got)
}

func TestTagsEmitter_ScopeAndFilter(t *testing.T) {
	assert.Equal(t, "tags-all = [\"tag-none\"]\ntag-none = []\n", emitTags(t, FormatFeatures, tags.Scope{NoTag: true}, nil))

	filter, err := tags.NewFilter([]string{"^Client"}, nil)
	require.NoError(t, err)
	// include patterns drop the untagged group
	assert.Equal(t, "tags-all = [\"tag-client-scopes\"]\ntag-client-scopes = []\n", emitTags(t, FormatFeatures, tags.Scope{}, filter))

	filter, err = tags.NewFilter(nil, []string{"Detection$"})
	require.NoError(t, err)
	assert.Equal(t, "Users\nClient Scopes\n", emitTags(t, FormatList, tags.Scope{}, filter))
}

func TestNewTagsEmitter_UnknownFormat(t *testing.T) {
	_, err := NewTagsEmitter(testOptions(), "toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown tag format "toml"`)
}

func TestTagsEmitter_ConflictingScope(t *testing.T) {
	e, err := NewTagsEmitter(testOptions(), FormatList)
	require.NoError(t, err)
	var buf bytes.Buffer
	err = e.Emit(&buf, decodeSpec(t, tagsSpec), tags.Scope{Tag: "Users", NoTag: true})
	assert.ErrorIs(t, err, tags.ErrConflictingScope)
}
