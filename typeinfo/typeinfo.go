// Package typeinfo describes Go types for the mapping layer.
//
// The mapping core never walks reflect.Type values directly. It asks a
// TypeInformation for the facts it needs (collection and map shape, element
// types, property types) so that other descriptor sources can stand in for
// runtime reflection.
package typeinfo

import (
	"errors"
	"reflect"
)

// TypeInformation exposes structural facts about a single type.
//
// Implementations must be comparable: two values describing the same type
// compare equal with == and can be used as map keys.
type TypeInformation interface {
	// Type returns the raw type.
	Type() reflect.Type

	// IsMap reports whether the type is a map.
	IsMap() bool
	// IsCollectionLike reports whether the type is a slice or an array.
	IsCollectionLike() bool
	// IsArray reports whether the type is a fixed size array.
	IsArray() bool
	// IsPointer reports whether the type is a pointer.
	IsPointer() bool
	// IsInterface reports whether the type is an interface.
	IsInterface() bool
	// IsStruct reports whether the type is a struct.
	IsStruct() bool

	// ComponentType returns the element type of slices, arrays and
	// pointers and the key type of maps. Nil for every other type.
	ComponentType() TypeInformation
	// MapValueType returns the value type of a map, nil otherwise.
	MapValueType() TypeInformation
	// ActualType peels one wrapping layer: the value type of maps and the
	// element type of slices, arrays and pointers. Any other type is its own
	// actual type.
	ActualType() TypeInformation

	// Property returns the resolved type of the named member, nil when the
	// type has no such member.
	Property(name string) TypeInformation
	// RequiredProperty is Property that fails when the member is absent.
	RequiredProperty(name string) (TypeInformation, error)

	// SuperTypeInformation returns this type viewed as super when it
	// implements or is assignable to super, nil otherwise. Go has no type
	// hierarchy to resolve, so the view describes the same type.
	SuperTypeInformation(super reflect.Type) TypeInformation
	// IsAssignableFrom reports whether values of other can be assigned to
	// this type.
	IsAssignableFrom(other TypeInformation) bool

	String() string
}

// ErrPropertyNotFound is returned by RequiredProperty for unknown members.
var ErrPropertyNotFound = errors.New("property not found")

// From returns reflection backed type information for t. A nil type yields
// a nil TypeInformation.
func From(t reflect.Type) TypeInformation {
	if t == nil {
		return nil
	}
	return classType{typ: t}
}

// Of returns type information for T.
func Of[T any]() TypeInformation {
	return From(reflect.TypeFor[T]())
}

// Indirect strips every pointer layer from t.
func Indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
