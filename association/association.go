// Package association provides the association wrapper capability.
//
// Importing the package registers the Association marker with the schema
// package. Properties whose type implements Association, such as Ref, are
// then mapped as references to other aggregates instead of embedded values.
//
//	import _ "github.com/Konsultn-Engineering/mapping/association"
package association

import (
	"reflect"

	"github.com/Konsultn-Engineering/mapping/schema"
	"github.com/Konsultn-Engineering/mapping/typeinfo"
)

// Association marks a reference to another aggregate.
type Association interface {
	// TargetType returns the referenced aggregate type.
	TargetType() reflect.Type
}

// Ref references an aggregate T by its identifier.
type Ref[T any, ID comparable] struct {
	id ID
}

// To returns a reference to the aggregate identified by id.
func To[T any, ID comparable](id ID) Ref[T, ID] {
	return Ref[T, ID]{id: id}
}

// ID returns the referenced identifier.
func (r Ref[T, ID]) ID() ID { return r.id }

// IsZero reports whether r references nothing.
func (r Ref[T, ID]) IsZero() bool {
	var zero ID
	return r.id == zero
}

// TargetType implements Association.
func (Ref[T, ID]) TargetType() reflect.Type { return reflect.TypeFor[T]() }

var markerType = reflect.TypeFor[Association]()

// Type returns the capability registered by this package.
func Type() schema.AssociationType {
	return schema.AssociationType{Marker: markerType, Target: Target}
}

// Target resolves the aggregate referenced by an association type. Raw
// uses of the marker interface have no resolvable target and yield nil.
func Target(info typeinfo.TypeInformation) typeinfo.TypeInformation {
	if info == nil || info.SuperTypeInformation(markerType) == nil {
		return nil
	}
	t := typeinfo.Indirect(info.Type())
	if t.Kind() == reflect.Interface {
		return nil
	}
	a, ok := reflect.Zero(t).Interface().(Association)
	if !ok {
		// Implemented on the pointer receiver only
		a, ok = reflect.New(t).Interface().(Association)
		if !ok {
			return nil
		}
	}
	return typeinfo.From(a.TargetType())
}

func init() {
	schema.RegisterAssociationType(Type())
}
