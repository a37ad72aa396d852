package schema

import (
	"io/fs"
	"reflect"
	"slices"

	"github.com/Konsultn-Engineering/mapping/lazy"
	"github.com/Konsultn-Engineering/mapping/typeinfo"
)

// FieldRef names a struct field by its declaring type.
type FieldRef struct {
	Owner reflect.Type
	Name  string
}

// pathErrorCause is the one field always accessed through methods unless a
// tag says otherwise.
var pathErrorCause = FieldRef{Owner: reflect.TypeFor[fs.PathError](), Name: "Err"}

// PersistentProperty is the mapping metadata of one member of a
// PersistentEntity. Name, type, accessors and immutability are computed on
// construction; everything derived from them is computed on first use and
// then cached.
type PersistentProperty struct {
	property    *Property
	owner       *PersistentEntity
	simpleTypes SimpleTypeHolder
	information typeinfo.TypeInformation
	immutable   bool

	hash              *lazy.Value[uint64]
	usePropertyAccess *lazy.Value[bool]
	isAssociation     *lazy.Value[bool]
	associationTarget *lazy.Value[typeinfo.TypeInformation]
	entityTypes       *lazy.Value[[]typeinfo.TypeInformation]
	association       *lazy.Value[*Association]
}

// NewPersistentProperty builds the metadata of prop as declared by owner.
func NewPersistentProperty(prop *Property, owner *PersistentEntity, simpleTypes SimpleTypeHolder) (*PersistentProperty, error) {
	if simpleTypes == nil {
		return nil, mappingError(CodeNilSimpleTypes, nil, "", ErrNilSimpleTypes, "new persistent property")
	}
	if owner == nil {
		return nil, mappingError(CodeNilOwner, nil, "", ErrNilOwner, "new persistent property")
	}
	if prop == nil {
		return nil, mappingError(CodeUnknownProperty, owner.Type(), "", ErrUnknownProperty, "nil property descriptor")
	}

	information := owner.TypeInformation().Property(prop.Name())
	if information == nil {
		return nil, mappingError(CodeUnknownProperty, owner.Type(), prop.Name(), ErrUnknownProperty,
			"%s declares no member %s", owner.Type(), prop.Name())
	}

	p := &PersistentProperty{
		property:    prop,
		owner:       owner,
		simpleTypes: simpleTypes,
		information: information,
		immutable:   prop.Setter() == nil && (prop.Field() == nil || prop.IsFieldFinal()),
	}

	p.hash = lazy.Of(prop.Hash)
	p.usePropertyAccess = lazy.Of(p.detectPropertyAccess)
	p.isAssociation = lazy.Of(func() bool { return owner.env.association.matches(information.Type()) })
	if owner.env.association == nil {
		p.associationTarget = lazy.Empty[typeinfo.TypeInformation]()
	} else {
		p.associationTarget = lazy.Of(func() typeinfo.TypeInformation {
			return owner.env.association.target(information)
		})
	}
	p.entityTypes = lazy.Of(p.detectEntityTypes)
	p.association = lazy.Optional(func() (*Association, bool) {
		if !p.IsAssociation() {
			return nil, false
		}
		return &Association{property: p, target: p.AssociationTargetTypeInformation()}, true
	})

	return p, nil
}

func (p *PersistentProperty) Owner() *PersistentEntity { return p.owner }

func (p *PersistentProperty) Name() string { return p.property.Name() }

// Type returns the declared type of the property.
func (p *PersistentProperty) Type() reflect.Type { return p.information.Type() }

// RawType returns the runtime type of the property. Instantiated generic
// types are already concrete, so it matches Type.
func (p *PersistentProperty) RawType() reflect.Type { return p.property.Type() }

func (p *PersistentProperty) TypeInformation() typeinfo.TypeInformation { return p.information }

func (p *PersistentProperty) Property() *Property { return p.property }

func (p *PersistentProperty) Getter() *reflect.Method { return p.property.Getter() }

func (p *PersistentProperty) Setter() *reflect.Method { return p.property.Setter() }

func (p *PersistentProperty) Wither() *reflect.Method { return p.property.Wither() }

func (p *PersistentProperty) Field() *reflect.StructField { return p.property.Field() }

// Column returns the column the property maps to.
func (p *PersistentProperty) Column() string { return p.property.Tag().ColumnName }

// ColumnType returns the explicit column type, empty when none was declared.
func (p *PersistentProperty) ColumnType() string { return p.property.Tag().Type }

// IsImmutable reports whether the property has no setter and no assignable
// field.
func (p *PersistentProperty) IsImmutable() bool { return p.immutable }

func (p *PersistentProperty) IsTransient() bool { return p.property.Tag().Transient }

func (p *PersistentProperty) IsWritable() bool { return !p.IsTransient() }

func (p *PersistentProperty) IsIDProperty() bool { return p.owner.idProperty == p.Name() }

func (p *PersistentProperty) IsVersionProperty() bool { return p.owner.versionProperty == p.Name() }

func (p *PersistentProperty) IsMap() bool { return p.information.IsMap() }

func (p *PersistentProperty) IsCollectionLike() bool { return p.information.IsCollectionLike() }

func (p *PersistentProperty) IsArray() bool { return p.information.IsArray() }

func (p *PersistentProperty) ComponentType() reflect.Type {
	if c := p.information.ComponentType(); c != nil {
		return c.Type()
	}
	return nil
}

func (p *PersistentProperty) MapValueType() reflect.Type {
	if v := p.information.MapValueType(); v != nil {
		return v.Type()
	}
	return nil
}

// ActualType returns the association target when there is one and the
// unwrapped element type otherwise.
func (p *PersistentProperty) ActualType() reflect.Type {
	return p.ActualTypeInformation().Type()
}

func (p *PersistentProperty) ActualTypeInformation() typeinfo.TypeInformation {
	if target := p.AssociationTargetTypeInformation(); target != nil {
		return target
	}
	return p.information.ActualType()
}

// UsePropertyAccess reports whether values should go through getter and
// setter rather than the field. An explicit access tag decides; otherwise
// interface owners and the registered access fields use methods.
func (p *PersistentProperty) UsePropertyAccess() bool { return p.usePropertyAccess.Get() }

func (p *PersistentProperty) detectPropertyAccess() bool {
	switch p.property.Tag().Access {
	case AccessProperty:
		return true
	case AccessField:
		return false
	default:
	}

	if p.owner.TypeInformation().IsInterface() {
		return true
	}

	f := p.property.Field()
	if f == nil {
		return false
	}
	ref := FieldRef{Owner: declaringType(p.owner.Type(), *f), Name: f.Name}
	return slices.Contains(p.owner.env.accessFields, ref)
}

// declaringType returns the struct that declares f, which differs from
// owner for promoted fields.
func declaringType(owner reflect.Type, f reflect.StructField) reflect.Type {
	if len(f.Index) <= 1 {
		return owner
	}
	return typeinfo.Indirect(owner.FieldByIndex(f.Index[:len(f.Index)-1]).Type)
}

// IsAssociation reports whether the property type implements the
// registered association marker.
func (p *PersistentProperty) IsAssociation() bool { return p.isAssociation.Get() }

// Association returns the association handle, nil for plain properties.
func (p *PersistentProperty) Association() *Association { return p.association.Get() }

// AssociationTargetType returns the referenced type of an association, nil
// when the property is not an association or the target is unresolvable.
func (p *PersistentProperty) AssociationTargetType() reflect.Type {
	if info := p.AssociationTargetTypeInformation(); info != nil {
		return info.Type()
	}
	return nil
}

func (p *PersistentProperty) AssociationTargetTypeInformation() typeinfo.TypeInformation {
	if !p.IsAssociation() {
		return nil
	}
	return p.associationTarget.Get()
}

// IsEntity reports whether the property references at least one entity
// type.
func (p *PersistentProperty) IsEntity() bool {
	return !p.IsTransient() && len(p.entityTypes.Get()) > 0
}

// PersistentEntityTypeInformation returns the entity types reachable
// through the property. Collections and maps always report them, other
// properties only when they are entities.
func (p *PersistentProperty) PersistentEntityTypeInformation() []typeinfo.TypeInformation {
	if p.IsMap() || p.IsCollectionLike() {
		return slices.Clone(p.entityTypes.Get())
	}
	if !p.IsEntity() {
		return nil
	}
	return slices.Clone(p.entityTypes.Get())
}

func (p *PersistentProperty) detectEntityTypes() []typeinfo.TypeInformation {
	start := p.AssociationTargetTypeInformation()
	if start == nil {
		start = p.information
	}

	var found typeSet
	collectEntityTypes(start, &found)

	marker := p.owner.env.association
	result := make([]typeinfo.TypeInformation, 0, len(found.items))
	for _, info := range found.items {
		if p.simpleTypes.IsSimpleType(info.Type()) || marker.isMarker(info.Type()) {
			continue
		}
		result = append(result, info)
	}
	return result
}

// collectEntityTypes peels map, collection and pointer layers off source.
// Maps contribute their key side and their value side. Recursion is over
// types; a source already visited ends it.
func collectEntityTypes(source typeinfo.TypeInformation, into *typeSet) {
	if source == nil || !into.visit(source) {
		return
	}
	if source.IsMap() {
		collectEntityTypes(source.ComponentType(), into)
	}

	actual := source.ActualType()
	if actual == source {
		into.add(source)
		return
	}
	collectEntityTypes(actual, into)
}

// typeSet keeps insertion order to give stable results.
type typeSet struct {
	seen    map[typeinfo.TypeInformation]struct{}
	visited map[typeinfo.TypeInformation]struct{}
	items   []typeinfo.TypeInformation
}

func (s *typeSet) visit(info typeinfo.TypeInformation) bool {
	if s.visited == nil {
		s.visited = make(map[typeinfo.TypeInformation]struct{})
	}
	if _, ok := s.visited[info]; ok {
		return false
	}
	s.visited[info] = struct{}{}
	return true
}

func (s *typeSet) add(info typeinfo.TypeInformation) {
	if s.seen == nil {
		s.seen = make(map[typeinfo.TypeInformation]struct{})
	}
	if _, ok := s.seen[info]; ok {
		return
	}
	s.seen[info] = struct{}{}
	s.items = append(s.items, info)
}

// Equal reports whether both properties describe the same raw property.
func (p *PersistentProperty) Equal(other *PersistentProperty) bool {
	if p == other {
		return true
	}
	if p == nil || other == nil {
		return false
	}
	return p.property.Equal(other.property)
}

func (p *PersistentProperty) Hash() uint64 { return p.hash.Get() }

func (p *PersistentProperty) String() string { return p.property.String() }
