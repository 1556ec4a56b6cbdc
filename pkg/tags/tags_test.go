package tags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/realmgen/pkg/ir"
)

func call(method ir.Method, tags ...string) ir.MethodCall {
	return ir.MethodCall{Method: method, Call: ir.Call{Tags: tags}}
}

func path(route string, calls ...ir.MethodCall) ir.PathEntry {
	return ir.PathEntry{Route: route, Path: ir.SpecPath{Calls: calls}}
}

func fixture() *ir.Spec {
	return &ir.Spec{
		Tags: []ir.Tag{{Name: "Users"}, {Name: "Client Scopes"}, {Name: "Roles (by ID)"}},
		Paths: []ir.PathEntry{
			path("/users", call(ir.MethodGet, "Users"), call(ir.MethodPost, "Users")),
			path("/scopes", call(ir.MethodGet, "Client Scopes")),
			path("/mixed", call(ir.MethodGet, "Users"), call(ir.MethodPut, "Client Scopes")),
			path("/plain", call(ir.MethodGet)),
			path("/double", call(ir.MethodGet, "Users", "Client Scopes")),
			path("/half", call(ir.MethodGet), call(ir.MethodDelete, "Users")),
			path("/stray", call(ir.MethodGet, "Attack Detection")),
			path("/users/{id}", call(ir.MethodGet, "Users")),
		},
	}
}

func routes(entries []ir.PathEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Route)
	}
	return out
}

func TestCollect(t *testing.T) {
	got := Collect(fixture())
	names := make([]string, 0, len(got))
	for _, tag := range got {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"Users", "Client Scopes", "Roles (by ID)", "Attack Detection"}, names)
}

func TestPartition(t *testing.T) {
	groups, left := Partition(fixture())
	require.Len(t, groups, 5)

	assert.Equal(t, "Users", groups[0].Tag.Name)
	assert.Equal(t, []string{"/users", "/users/{id}"}, routes(groups[0].Paths))
	assert.Equal(t, []string{"/scopes"}, routes(groups[1].Paths))
	assert.Empty(t, groups[2].Paths)
	assert.Equal(t, []string{"/stray"}, routes(groups[3].Paths))

	untagged := groups[4]
	assert.True(t, untagged.Untagged())
	assert.Equal(t, []string{"/plain"}, routes(untagged.Paths))

	assert.Equal(t, []string{"/mixed", "/double", "/half"}, routes(left))
}

func TestGroupNames(t *testing.T) {
	tests := []struct {
		group   Group
		feature string
		module  string
		doc     string
		header  string
	}{
		{Group{Tag: ir.Tag{Name: "Client Scopes"}}, "tag-client-scopes", "client_scopes", "Client Scopes", "Client Scopes"},
		{Group{Tag: ir.Tag{Name: "Roles (by ID)"}}, "tag-roles-by-id", "roles_by_id", "Roles (by ID)", "Roles (by ID)"},
		{Group{}, "tag-none", "other_methods", "Other (non tagged) methods", "default"},
	}
	for _, tt := range tests {
		t.Run(tt.feature, func(t *testing.T) {
			assert.Equal(t, tt.feature, tt.group.Feature())
			assert.Equal(t, tt.module, tt.group.Module())
			assert.Equal(t, tt.doc, tt.group.Doc())
			assert.Equal(t, tt.header, tt.group.Header())
		})
	}
}

func TestScope(t *testing.T) {
	groups, _ := Partition(fixture())

	all := Scope{}
	assert.False(t, all.Scoped())
	assert.Len(t, all.Select(groups), len(groups))

	users := Scope{Tag: "Users"}
	assert.True(t, users.Scoped())
	selected := users.Select(groups)
	require.Len(t, selected, 1)
	assert.Equal(t, "Users", selected[0].Tag.Name)

	none := Scope{NoTag: true}
	selected = none.Select(groups)
	require.Len(t, selected, 1)
	assert.True(t, selected[0].Untagged())

	assert.Empty(t, Scope{Tag: "Nope"}.Select(groups))

	assert.NoError(t, users.Validate())
	assert.ErrorIs(t, Scope{Tag: "Users", NoTag: true}.Validate(), ErrConflictingScope)
}

func TestFilterMatch(t *testing.T) {
	tests := []struct {
		name     string
		tags     []string
		include  []string
		exclude  []string
		expected bool
	}{
		{"no filters - include all", []string{"users", "internal"}, nil, nil, true},
		{"include filter matches first tag", []string{"users", "internal"}, []string{"users"}, nil, true},
		{"include filter matches second tag", []string{"internal", "users"}, []string{"users"}, nil, true},
		{"include filter matches none", []string{"internal", "admin"}, []string{"users"}, nil, false},
		{"exclude filter matches first tag", []string{"internal", "users"}, nil, []string{"internal"}, false},
		{"exclude filter matches second tag", []string{"users", "internal"}, nil, []string{"internal"}, false},
		{"exclude takes precedence", []string{"users", "internal"}, []string{"users"}, []string{"internal"}, false},
		{"include matches, exclude doesn't", []string{"users", "public"}, []string{"users"}, []string{"internal"}, true},
		{"regex patterns work", []string{"users_v1", "internal_api"}, []string{"^users_.*"}, []string{".*_api$"}, false},
		{"regex include matches", []string{"users_v1", "public"}, []string{"^users_.*"}, nil, true},
		{"multiple include patterns - any match", []string{"orders", "billing"}, []string{"users", "orders"}, nil, true},
		{"untagged with include", nil, []string{"users"}, nil, false},
		{"untagged without include", nil, nil, []string{"users"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(tt.include, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f.Match(tt.tags))
		})
	}
}

func TestFilterApply(t *testing.T) {
	groups, _ := Partition(fixture())

	f, err := NewFilter(nil, []string{"^Roles"})
	require.NoError(t, err)
	kept := f.Apply(groups)
	require.Len(t, kept, 4)
	for _, g := range kept {
		assert.NotEqual(t, "Roles (by ID)", g.Tag.Name)
	}

	f, err = NewFilter([]string{"^Users$"}, nil)
	require.NoError(t, err)
	kept = f.Apply(groups)
	require.Len(t, kept, 1)
	assert.Equal(t, "Users", kept[0].Tag.Name)

	var none *Filter
	assert.Len(t, none.Apply(groups), len(groups))
}

func TestNewFilter_InvalidPattern(t *testing.T) {
	_, err := NewFilter([]string{"("}, nil)
	assert.ErrorContains(t, err, "includeTags")

	_, err = NewFilter(nil, []string{"[z-a]"})
	assert.ErrorContains(t, err, "excludeTags")
}
