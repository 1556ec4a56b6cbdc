package rust

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blimu-dev/realmgen/pkg/ir"
)

const schemaPrefix = "#/components/schemas/"

// Fallback types
const (
	// valueType is the untyped fallback for operation payloads and results
	valueType = "Value"
	// typeValue is the untyped fallback inside declared types
	typeValue = "TypeValue"
)

var (
	// ErrUnsupportedAllOf is returned for allOf compositions with more than one member
	ErrUnsupportedAllOf = errors.New("allOf with more than one member is not supported")
	// ErrMissingSchemaPrefix is returned for references outside the component schema registry
	ErrMissingSchemaPrefix = errors.New("reference does not point into " + schemaPrefix)
)

// RefMode selects how collections and strings are represented
type RefMode int

const (
	// Owned uses the shared aliases (TypeString, TypeVec) of the generated crate
	Owned RefMode = iota
	// Borrowed uses zero-copy forms (&str, &[T])
	Borrowed
	// Std uses plain standard library types (String, Vec<T>)
	Std
)

// SchemaName returns the type name a component reference points at
func SchemaName(ref string) (string, error) {
	name, ok := strings.CutPrefix(ref, schemaPrefix)
	if !ok || name == "" {
		return "", fmt.Errorf("%w: %q", ErrMissingSchemaPrefix, ref)
	}
	return name, nil
}

// MapKind converts a type node into a Rust type expression
func MapKind(k ir.Kind, mode RefMode) (string, error) {
	switch k.Type {
	case ir.KindRef:
		return SchemaName(k.Ref)
	case ir.KindString:
		switch mode {
		case Owned:
			return "TypeString", nil
		case Borrowed:
			return "&str", nil
		}
		return "String", nil
	case ir.KindBoolean:
		return "bool", nil
	case ir.KindInteger:
		if k.Format == "int32" {
			return "i32", nil
		}
		return "i64", nil
	case ir.KindNumber:
		if k.Format == "float" {
			return "f32", nil
		}
		return "f64", nil
	case ir.KindArray:
		item := typeValue
		if k.Items != nil {
			var err error
			// items are never borrowed
			if item, err = MapKind(*k.Items, Std); err != nil {
				return "", err
			}
		}
		switch mode {
		case Owned:
			return "TypeVec<" + item + ">", nil
		case Borrowed:
			return "&[" + item + "]", nil
		}
		return "Vec<" + item + ">", nil
	case ir.KindObject:
		if k.Object == nil {
			return valueType, nil
		}
		return mapObject(k.Object, mode)
	}
	return valueType, nil
}

func mapObject(o *ir.ObjectSchema[ir.Kind], mode RefMode) (string, error) {
	// map values are stored, not borrowed
	if mode == Borrowed {
		mode = Std
	}
	switch o.Type {
	case ir.ObjectMap:
		value := typeValue
		if o.Additional != nil {
			var err error
			if value, err = MapKind(*o.Additional, mode); err != nil {
				return "", err
			}
		}
		return "TypeMap<String, " + value + ">", nil
	case ir.ObjectStruct:
		common := ""
		for i, f := range o.Properties {
			t, err := MapKind(f.Value, mode)
			if err != nil {
				return "", fmt.Errorf("property %s: %w", f.Name, err)
			}
			if i == 0 {
				common = t
			} else if t != common {
				common = typeValue
				break
			}
		}
		if common == "" {
			common = typeValue
		}
		return "TypeMap<String, " + common + ">", nil
	case ir.ObjectAllOf:
		if len(o.AllOf) != 1 {
			return "", fmt.Errorf("%w (%d members)", ErrUnsupportedAllOf, len(o.AllOf))
		}
		return MapKind(o.AllOf[0], mode)
	}
	return valueType, nil
}

// MapParameter maps a parameter type. Required parameters are borrowed,
// optional ones are owned standard types wrapped in Option.
func MapParameter(k ir.Kind, required bool) (string, error) {
	if required {
		return MapKind(k, Borrowed)
	}
	t, err := MapKind(k, Std)
	if err != nil {
		return "", err
	}
	return "Option<" + t + ">", nil
}

// MapProperty maps a declared schema field, wrapping non-required ones in Option
func MapProperty(p ir.Property, mode RefMode) (string, error) {
	t, err := MapKind(p.Kind, mode)
	if err != nil {
		return "", err
	}
	if p.Required {
		return t, nil
	}
	return "Option<" + t + ">", nil
}
