package typeinfo

import (
	"fmt"
	"reflect"
)

// classType is the reflection backed TypeInformation.
type classType struct {
	typ reflect.Type
}

func (c classType) Type() reflect.Type { return c.typ }

func (c classType) IsMap() bool { return c.typ.Kind() == reflect.Map }

func (c classType) IsCollectionLike() bool {
	k := c.typ.Kind()
	return k == reflect.Slice || k == reflect.Array
}

func (c classType) IsArray() bool { return c.typ.Kind() == reflect.Array }

func (c classType) IsPointer() bool { return c.typ.Kind() == reflect.Ptr }

func (c classType) IsInterface() bool { return c.typ.Kind() == reflect.Interface }

func (c classType) IsStruct() bool { return c.typ.Kind() == reflect.Struct }

func (c classType) ComponentType() TypeInformation {
	switch c.typ.Kind() {
	case reflect.Slice, reflect.Array, reflect.Ptr:
		return From(c.typ.Elem())
	case reflect.Map:
		return From(c.typ.Key())
	default:
		return nil
	}
}

func (c classType) MapValueType() TypeInformation {
	if c.typ.Kind() != reflect.Map {
		return nil
	}
	return From(c.typ.Elem())
}

func (c classType) ActualType() TypeInformation {
	switch c.typ.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Ptr:
		return From(c.typ.Elem())
	default:
		return c
	}
}

// Property resolves struct fields by name, including unexported and
// promoted ones. Interfaces resolve getter methods, Name() or GetName(): no
// arguments, at least one result.
func (c classType) Property(name string) TypeInformation {
	t := Indirect(c.typ)

	switch t.Kind() {
	case reflect.Struct:
		if f, ok := t.FieldByName(name); ok {
			return From(f.Type)
		}
	case reflect.Interface:
		for _, candidate := range [...]string{name, "Get" + name} {
			if m, ok := t.MethodByName(candidate); ok && m.Type.NumIn() == 0 && m.Type.NumOut() > 0 {
				return From(m.Type.Out(0))
			}
		}
	default:
	}

	return nil
}

func (c classType) RequiredProperty(name string) (TypeInformation, error) {
	if info := c.Property(name); info != nil {
		return info, nil
	}
	return nil, fmt.Errorf("%w: %s has no member %q", ErrPropertyNotFound, c.typ, name)
}

func (c classType) SuperTypeInformation(super reflect.Type) TypeInformation {
	if super == nil {
		return nil
	}
	if c.typ == super || c.typ.AssignableTo(super) {
		return c
	}
	if super.Kind() == reflect.Interface && c.typ.Implements(super) {
		return c
	}
	return nil
}

func (c classType) IsAssignableFrom(other TypeInformation) bool {
	if other == nil {
		return false
	}
	return other.Type().AssignableTo(c.typ)
}

func (c classType) String() string { return c.typ.String() }
