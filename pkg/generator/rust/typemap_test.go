package rust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blimu-dev/realmgen/pkg/ir"
)

func str() ir.Kind { return ir.Kind{Type: ir.KindString} }

func arrayOf(k ir.Kind) ir.Kind { return ir.Kind{Type: ir.KindArray, Items: &k} }

func ref(name string) ir.Kind { return ir.Kind{Type: ir.KindRef, Ref: schemaPrefix + name} }

func TestMapKind(t *testing.T) {
	tests := []struct {
		name string
		kind ir.Kind
		mode RefMode
		want string
	}{
		{"string owned", str(), Owned, "TypeString"},
		{"string borrowed", str(), Borrowed, "&str"},
		{"string std", str(), Std, "String"},
		{"bool", ir.Kind{Type: ir.KindBoolean}, Borrowed, "bool"},
		{"int32", ir.Kind{Type: ir.KindInteger, Format: "int32"}, Owned, "i32"},
		{"int64", ir.Kind{Type: ir.KindInteger, Format: "int64"}, Owned, "i64"},
		{"integer without format", ir.Kind{Type: ir.KindInteger}, Owned, "i64"},
		{"float", ir.Kind{Type: ir.KindNumber, Format: "float"}, Owned, "f32"},
		{"double", ir.Kind{Type: ir.KindNumber}, Owned, "f64"},
		{"ref", ref("UserRepresentation"), Borrowed, "UserRepresentation"},
		{"array owned", arrayOf(str()), Owned, "TypeVec<String>"},
		{"array borrowed", arrayOf(str()), Borrowed, "&[String]"},
		{"array std", arrayOf(ref("Group")), Std, "Vec<Group>"},
		{"array without items", ir.Kind{Type: ir.KindArray}, Owned, "TypeVec<TypeValue>"},
		{"nested arrays", arrayOf(arrayOf(str())), Owned, "TypeVec<Vec<String>>"},
		{"default", ir.Kind{Type: ir.KindDefault}, Owned, "Value"},
		{"bare object", ir.Kind{Type: ir.KindObject}, Owned, "Value"},
		{"untyped object", ir.Kind{Type: ir.KindObject, Object: &ir.ObjectSchema[ir.Kind]{Type: ir.ObjectValue}}, Owned, "Value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MapKind(tt.kind, tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapKind_Objects(t *testing.T) {
	s := str()
	mapOf := ir.Kind{Type: ir.KindObject, Object: &ir.ObjectSchema[ir.Kind]{Type: ir.ObjectMap, Additional: &s}}

	got, err := MapKind(mapOf, Owned)
	require.NoError(t, err)
	assert.Equal(t, "TypeMap<String, TypeString>", got)

	// borrowed maps store owned values
	got, err = MapKind(mapOf, Borrowed)
	require.NoError(t, err)
	assert.Equal(t, "TypeMap<String, String>", got)

	open := ir.Kind{Type: ir.KindObject, Object: &ir.ObjectSchema[ir.Kind]{Type: ir.ObjectMap}}
	got, err = MapKind(open, Owned)
	require.NoError(t, err)
	assert.Equal(t, "TypeMap<String, TypeValue>", got)

	uniform := ir.Kind{Type: ir.KindObject, Object: &ir.ObjectSchema[ir.Kind]{
		Type:       ir.ObjectStruct,
		Properties: []ir.Field[ir.Kind]{{Name: "a", Value: str()}, {Name: "b", Value: str()}},
	}}
	got, err = MapKind(uniform, Owned)
	require.NoError(t, err)
	assert.Equal(t, "TypeMap<String, TypeString>", got)

	mixed := ir.Kind{Type: ir.KindObject, Object: &ir.ObjectSchema[ir.Kind]{
		Type:       ir.ObjectStruct,
		Properties: []ir.Field[ir.Kind]{{Name: "a", Value: str()}, {Name: "b", Value: ir.Kind{Type: ir.KindBoolean}}},
	}}
	got, err = MapKind(mixed, Owned)
	require.NoError(t, err)
	assert.Equal(t, "TypeMap<String, TypeValue>", got)

	single := ir.Kind{Type: ir.KindObject, Object: &ir.ObjectSchema[ir.Kind]{Type: ir.ObjectAllOf, AllOf: []ir.Kind{ref("Base")}}}
	got, err = MapKind(single, Owned)
	require.NoError(t, err)
	assert.Equal(t, "Base", got)
}

func TestMapKind_Errors(t *testing.T) {
	composed := ir.Kind{Type: ir.KindObject, Object: &ir.ObjectSchema[ir.Kind]{
		Type:  ir.ObjectAllOf,
		AllOf: []ir.Kind{ref("A"), ref("B")},
	}}
	_, err := MapKind(composed, Owned)
	assert.ErrorIs(t, err, ErrUnsupportedAllOf)

	_, err = MapKind(ir.Kind{Type: ir.KindRef, Ref: "#/definitions/User"}, Owned)
	assert.ErrorIs(t, err, ErrMissingSchemaPrefix)

	_, err = MapKind(arrayOf(ir.Kind{Type: ir.KindRef, Ref: "User"}), Owned)
	assert.ErrorIs(t, err, ErrMissingSchemaPrefix)
}

func TestMapParameter(t *testing.T) {
	got, err := MapParameter(str(), true)
	require.NoError(t, err)
	assert.Equal(t, "&str", got)

	got, err = MapParameter(str(), false)
	require.NoError(t, err)
	assert.Equal(t, "Option<String>", got)

	got, err = MapParameter(arrayOf(str()), true)
	require.NoError(t, err)
	assert.Equal(t, "&[String]", got)

	got, err = MapParameter(ir.Kind{Type: ir.KindInteger, Format: "int32"}, false)
	require.NoError(t, err)
	assert.Equal(t, "Option<i32>", got)
}

func TestMapProperty(t *testing.T) {
	got, err := MapProperty(ir.Property{Kind: str()}, Owned)
	require.NoError(t, err)
	assert.Equal(t, "Option<TypeString>", got)

	got, err = MapProperty(ir.Property{Kind: arrayOf(ref("Role")), Required: true}, Owned)
	require.NoError(t, err)
	assert.Equal(t, "TypeVec<Role>", got)
}

func TestSchemaName(t *testing.T) {
	name, err := SchemaName("#/components/schemas/ClientRepresentation")
	require.NoError(t, err)
	assert.Equal(t, "ClientRepresentation", name)

	_, err = SchemaName("#/components/schemas/")
	assert.ErrorIs(t, err, ErrMissingSchemaPrefix)
}
