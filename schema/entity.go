package schema

import (
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/Konsultn-Engineering/mapping/lazy"
	"github.com/Konsultn-Engineering/mapping/typeinfo"
)

// TableNamer overrides the derived table name of an entity.
type TableNamer interface {
	TableName() string
}

// environment is the configuration an entity and its properties share
// with the context that built them.
type environment struct {
	simpleTypes  SimpleTypeHolder
	association  *AssociationType
	accessFields []FieldRef
	naming       NamingStrategy
}

type propertyCell struct {
	property *PersistentProperty
	err      error
}

// PersistentEntity is the mapping metadata of one struct or interface
// type. It owns the metadata of its properties, created on first access,
// and the creator chosen for the type. Entities are immutable once built.
type PersistentEntity struct {
	info       typeinfo.TypeInformation
	name       string
	table      string
	properties []*Property
	byName     map[string]int
	byColumn   map[string]int
	cells      []*lazy.Value[propertyCell]
	members    []Member
	creator    InstanceCreatorMetadata

	idProperty      string
	versionProperty string

	env         *environment
	entityTypes *lazy.Value[[]typeinfo.TypeInformation]

	// resolved is set once every entity reachable from this one was built.
	resolved atomic.Bool
}

// newPersistentEntity validates props and discovers the creator.
func newPersistentEntity(info typeinfo.TypeInformation, props []*Property, members []Member, env *environment) (*PersistentEntity, error) {
	t := typeinfo.Indirect(info.Type())
	e := &PersistentEntity{
		info:       typeinfo.From(t),
		name:       t.Name(),
		properties: props,
		byName:     make(map[string]int, len(props)),
		byColumn:   make(map[string]int, len(props)),
		cells:      make([]*lazy.Value[propertyCell], len(props)),
		members:    members,
		env:        env,
	}
	e.table = tableName(t, env.naming)

	var explicitID string
	for i, p := range props {
		if _, dup := e.byName[p.Name()]; dup {
			return nil, mappingError(CodeDuplicateProperty, t, p.Name(), ErrDuplicateProperty,
				"%s declares property %s twice", t, p.Name())
		}
		if e.info.Property(p.Name()) == nil {
			return nil, mappingError(CodeUnknownProperty, t, p.Name(), ErrUnknownProperty,
				"%s declares no member %s", t, p.Name())
		}
		e.byName[p.Name()] = i

		tag := p.Tag()
		if !tag.Transient {
			if other, dup := e.byColumn[tag.ColumnName]; dup {
				return nil, mappingError(CodeDuplicateColumn, t, p.Name(), ErrDuplicateColumn,
					"column %s of %s is mapped by %s and %s", tag.ColumnName, t, props[other].Name(), p.Name())
			}
			e.byColumn[tag.ColumnName] = i
		}

		switch {
		case tag.Primary && explicitID != "":
			return nil, mappingError(CodeInvalidTag, t, p.Name(), ErrInvalidTag,
				"%s marks both %s and %s as primary", t, explicitID, p.Name())
		case tag.Primary:
			explicitID = p.Name()
		case tag.Version && e.versionProperty != "":
			return nil, mappingError(CodeInvalidTag, t, p.Name(), ErrInvalidTag,
				"%s marks both %s and %s as version", t, e.versionProperty, p.Name())
		case tag.Version:
			e.versionProperty = p.Name()
		default:
		}

		prop := p
		e.cells[i] = lazy.Of(func() propertyCell {
			pp, err := NewPersistentProperty(prop, e, env.simpleTypes)
			return propertyCell{property: pp, err: err}
		})
	}

	e.idProperty = explicitID
	if e.idProperty == "" {
		for _, p := range props {
			if strings.EqualFold(p.Name(), "id") && !p.Tag().Transient {
				e.idProperty = p.Name()
				break
			}
		}
	}

	e.entityTypes = lazy.Of(e.collectEntityTypes)

	creator, err := DiscoverCreator(e)
	if err != nil {
		return nil, err
	}
	e.creator = creator

	return e, nil
}

func tableName(t reflect.Type, naming NamingStrategy) string {
	if t.Kind() == reflect.Struct {
		if tn, ok := reflect.New(t).Interface().(TableNamer); ok {
			return tn.TableName()
		}
	}
	return naming.TableName(t.Name())
}

func (e *PersistentEntity) TypeInformation() typeinfo.TypeInformation { return e.info }

// Type returns the mapped type, never a pointer.
func (e *PersistentEntity) Type() reflect.Type { return e.info.Type() }

func (e *PersistentEntity) Name() string { return e.name }

func (e *PersistentEntity) TableName() string { return e.table }

// Properties returns the raw property descriptors in declaration order.
func (e *PersistentEntity) Properties() []*Property {
	return append([]*Property(nil), e.properties...)
}

// DeclaredMembers returns the declared creator candidates.
func (e *PersistentEntity) DeclaredMembers() []Member {
	return append([]Member(nil), e.members...)
}

// Creator returns the selected creator, nil when none could be chosen.
func (e *PersistentEntity) Creator() InstanceCreatorMetadata { return e.creator }

// HasCreator reports whether a creator was selected.
func (e *PersistentEntity) HasCreator() bool { return e.creator != nil }

// IsCreatorParameter reports whether prop is bound by a creator parameter.
func (e *PersistentEntity) IsCreatorParameter(prop *PersistentProperty) bool {
	return e.creator != nil && e.creator.IsCreatorParameter(prop)
}

// PersistentProperty returns the metadata of the named property, nil when
// the entity has no such property.
func (e *PersistentEntity) PersistentProperty(name string) *PersistentProperty {
	i, ok := e.byName[name]
	if !ok {
		return nil
	}
	return e.cells[i].Get().property
}

// RequiredPersistentProperty is PersistentProperty that fails for unknown
// names.
func (e *PersistentEntity) RequiredPersistentProperty(name string) (*PersistentProperty, error) {
	i, ok := e.byName[name]
	if !ok {
		return nil, mappingError(CodeNoSuchProperty, e.Type(), name, ErrNoSuchProperty,
			"%s has no persistent property %s", e.Type(), name)
	}
	cell := e.cells[i].Get()
	return cell.property, cell.err
}

// PropertyByColumn returns the property mapped to column.
func (e *PersistentEntity) PropertyByColumn(column string) *PersistentProperty {
	i, ok := e.byColumn[column]
	if !ok {
		return nil
	}
	return e.cells[i].Get().property
}

// IDProperty returns the identifier property: the one tagged primary, or
// else the property named ID.
func (e *PersistentEntity) IDProperty() *PersistentProperty {
	if e.idProperty == "" {
		return nil
	}
	return e.PersistentProperty(e.idProperty)
}

func (e *PersistentEntity) HasIDProperty() bool { return e.idProperty != "" }

func (e *PersistentEntity) VersionProperty() *PersistentProperty {
	if e.versionProperty == "" {
		return nil
	}
	return e.PersistentProperty(e.versionProperty)
}

func (e *PersistentEntity) HasVersionProperty() bool { return e.versionProperty != "" }

// DoWithProperties calls fn for every persistent property that is neither
// transient nor an association, in declaration order.
func (e *PersistentEntity) DoWithProperties(fn func(*PersistentProperty)) {
	for _, cell := range e.cells {
		p := cell.Get().property
		if p == nil || p.IsTransient() || p.IsAssociation() {
			continue
		}
		fn(p)
	}
}

// DoWithAssociations calls fn for every association property that is not
// transient.
func (e *PersistentEntity) DoWithAssociations(fn func(*Association)) {
	for _, cell := range e.cells {
		p := cell.Get().property
		if p == nil || p.IsTransient() {
			continue
		}
		if a := p.Association(); a != nil {
			fn(a)
		}
	}
}

// EntityTypes returns the entity types referenced by the properties of
// the entity, in declaration order.
func (e *PersistentEntity) EntityTypes() []typeinfo.TypeInformation {
	return append([]typeinfo.TypeInformation(nil), e.entityTypes.Get()...)
}

func (e *PersistentEntity) collectEntityTypes() []typeinfo.TypeInformation {
	var set typeSet
	for _, cell := range e.cells {
		p := cell.Get().property
		if p == nil || p.IsTransient() {
			continue
		}
		for _, info := range p.PersistentEntityTypeInformation() {
			set.add(info)
		}
	}
	return set.items
}

// IsResolved reports whether every entity reachable from this one has been
// built by the context.
func (e *PersistentEntity) IsResolved() bool { return e.resolved.Load() }

func (e *PersistentEntity) String() string { return typeName(e.Type()) }
