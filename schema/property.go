package schema

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Konsultn-Engineering/mapping/typeinfo"
	"github.com/Konsultn-Engineering/mapping/utils"
)

// Property is the raw descriptor of one member of a mapped type: its name,
// its type and whichever accessors exist for it. Descriptors are produced
// by a PropertySource and are immutable.
type Property struct {
	name   string
	owner  reflect.Type
	typ    reflect.Type
	field  *reflect.StructField
	getter *reflect.Method
	setter *reflect.Method
	wither *reflect.Method
	tag    *ParsedTag
}

// PropertyOption configures a Property built with NewProperty.
type PropertyOption func(*Property)

// WithField attaches a backing struct field.
func WithField(f reflect.StructField) PropertyOption {
	return func(p *Property) { p.field = &f }
}

// WithGetter attaches a getter method.
func WithGetter(m reflect.Method) PropertyOption {
	return func(p *Property) { p.getter = &m }
}

// WithSetter attaches a setter method.
func WithSetter(m reflect.Method) PropertyOption {
	return func(p *Property) { p.setter = &m }
}

// WithWither attaches a method returning a modified copy.
func WithWither(m reflect.Method) PropertyOption {
	return func(p *Property) { p.wither = &m }
}

// WithTag attaches parsed mapping configuration.
func WithTag(tag *ParsedTag) PropertyOption {
	return func(p *Property) { p.tag = tag }
}

// NewProperty builds a descriptor by hand. Property sources other than
// reflection use it.
func NewProperty(owner reflect.Type, name string, typ reflect.Type, opts ...PropertyOption) *Property {
	p := &Property{name: name, owner: typeinfo.Indirect(owner), typ: typ}
	for _, opt := range opts {
		opt(p)
	}
	if p.tag == nil {
		p.tag = &ParsedTag{ColumnName: name}
	}
	return p
}

func (p *Property) Name() string { return p.name }
func (p *Property) Owner() reflect.Type { return p.owner }
func (p *Property) Type() reflect.Type { return p.typ }
func (p *Property) Field() *reflect.StructField { return p.field }
func (p *Property) Getter() *reflect.Method { return p.getter }
func (p *Property) Setter() *reflect.Method { return p.setter }
func (p *Property) Wither() *reflect.Method { return p.wither }
func (p *Property) Tag() *ParsedTag { return p.tag }
func (p *Property) HasAccessor() bool { return p.getter != nil || p.setter != nil }
func (p *Property) IsFieldBacked() bool { return p.field != nil }

// IsFieldFinal reports whether the backing field may not be assigned by the
// mapping layer: it is unexported or tagged readonly.
func (p *Property) IsFieldFinal() bool {
	return p.field != nil && (!p.field.IsExported() || p.tag.ReadOnly)
}

// Equal reports whether both descriptors name the same member of the same
// type.
func (p *Property) Equal(other *Property) bool {
	if p == other {
		return true
	}
	if p == nil || other == nil {
		return false
	}
	return p.owner == other.owner && p.name == other.name && p.typ == other.typ
}

// Hash is consistent with Equal.
func (p *Property) Hash() uint64 {
	return utils.Fingerprint(typeName(p.owner), p.name, p.typ.String())
}

func (p *Property) String() string {
	return fmt.Sprintf("%s.%s %s", typeName(p.owner), p.name, p.typ)
}

// PropertySource supplies the raw property descriptors of a type.
type PropertySource interface {
	Properties(owner typeinfo.TypeInformation) ([]*Property, error)
}

// PropertySourceFunc adapts a function to PropertySource.
type PropertySourceFunc func(owner typeinfo.TypeInformation) ([]*Property, error)

func (f PropertySourceFunc) Properties(owner typeinfo.TypeInformation) ([]*Property, error) {
	return f(owner)
}

// ReflectPropertySource discovers properties through reflection. Struct
// owners contribute their fields, promoted fields of embedded structs
// included. Interface owners contribute their getter methods.
//
// Embedded value types (time.Time, for example) are kept whole instead of
// being flattened into their own fields.
type ReflectPropertySource struct {
	tags   *TagParser
	simple SimpleTypeHolder
}

// NewReflectPropertySource returns a source parsing field tags with tags.
// simple identifies embedded types that must not be flattened.
func NewReflectPropertySource(tags *TagParser, simple SimpleTypeHolder) *ReflectPropertySource {
	return &ReflectPropertySource{tags: tags, simple: simple}
}

// Properties implements PropertySource.
func (s *ReflectPropertySource) Properties(owner typeinfo.TypeInformation) ([]*Property, error) {
	t := typeinfo.Indirect(owner.Type())

	switch t.Kind() {
	case reflect.Struct:
		return s.structProperties(t)
	case reflect.Interface:
		return s.interfaceProperties(t), nil
	default:
		return nil, mappingError(CodeUnsupportedType, t, "", ErrUnsupportedType,
			"%s is neither a struct nor an interface", t.Kind())
	}
}

func (s *ReflectPropertySource) structProperties(t reflect.Type) ([]*Property, error) {
	ptr := reflect.PointerTo(t)
	fields := reflect.VisibleFields(t)
	props := make([]*Property, 0, len(fields))

	var opaque [][]int
	for _, f := range fields {
		if promotedFrom(opaque, f.Index) {
			continue
		}
		if f.Anonymous && isStructLike(f.Type) {
			if s.simple == nil || !s.simple.IsSimpleType(f.Type) {
				// Promoted fields follow in the list
				continue
			}
			opaque = append(opaque, f.Index)
		}

		parsed, err := s.tags.ParseTag(f.Name, f.Tag)
		if err != nil {
			return nil, mappingError(CodeInvalidTag, t, f.Name, err, "parse tag of field %s", f.Name)
		}
		if parsed.Skip {
			continue
		}

		p := &Property{name: f.Name, owner: t, typ: f.Type, field: &f, tag: parsed}
		p.getter, p.setter, p.wither = findAccessors(ptr, t, f.Name, f.Type)
		props = append(props, p)
	}

	return props, nil
}

func (s *ReflectPropertySource) interfaceProperties(t reflect.Type) []*Property {
	props := make([]*Property, 0, t.NumMethod())

	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !m.IsExported() || m.Type.NumIn() != 0 || m.Type.NumOut() != 1 {
			continue
		}
		name := m.Name
		if hasWordPrefix(name, "Get") {
			name = name[len("Get"):]
		}
		if isMutatorName(m.Name) {
			continue
		}
		if name != m.Name {
			if _, clash := t.MethodByName(name); clash {
				// Name() and GetName() both exist, Name() wins
				continue
			}
		}

		p := &Property{
			name:  name,
			owner: t,
			typ:   m.Type.Out(0),
			tag:   &ParsedTag{ColumnName: s.tags.namingStrategy.ColumnName(name)},
		}
		p.getter = &m
		if setter, ok := t.MethodByName("Set" + name); ok && setter.Type.NumIn() == 1 && setter.Type.NumOut() == 0 &&
			p.typ.AssignableTo(setter.Type.In(0)) {
			p.setter = &setter
		}
		props = append(props, p)
	}

	return props
}

// findAccessors resolves getter, setter and wither by naming convention on
// the pointer method set, which includes value receiver methods.
func findAccessors(ptr, owner reflect.Type, name string, typ reflect.Type) (getter, setter, wither *reflect.Method) {
	base := capitalize(name)

	for _, candidate := range []string{base, "Get" + base} {
		if candidate == name {
			// An exported field cannot share its name with a method
			continue
		}
		if m, ok := ptr.MethodByName(candidate); ok && m.Type.NumIn() == 1 && m.Type.NumOut() == 1 &&
			m.Type.Out(0).AssignableTo(typ) {
			getter = &m
			break
		}
	}

	if m, ok := ptr.MethodByName("Set" + base); ok && m.Type.NumIn() == 2 && m.Type.NumOut() == 0 &&
		typ.AssignableTo(m.Type.In(1)) {
		setter = &m
	}

	if m, ok := ptr.MethodByName("With" + base); ok && m.Type.NumIn() == 2 && m.Type.NumOut() == 1 &&
		typ.AssignableTo(m.Type.In(1)) && typeinfo.Indirect(m.Type.Out(0)) == owner {
		wither = &m
	}

	return getter, setter, wither
}

func isMutatorName(name string) bool {
	return hasWordPrefix(name, "Set") || hasWordPrefix(name, "With")
}

// hasWordPrefix reports whether name starts with prefix followed by an
// upper case letter, so that "Settings" is not a mutator.
func hasWordPrefix(name, prefix string) bool {
	if !strings.HasPrefix(name, prefix) || len(name) == len(prefix) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(name[len(prefix):])
	return unicode.IsUpper(r)
}

func promotedFrom(prefixes [][]int, index []int) bool {
	for _, prefix := range prefixes {
		if len(index) > len(prefix) && slices.Equal(index[:len(prefix)], prefix) {
			return true
		}
	}
	return false
}

func isStructLike(t reflect.Type) bool {
	return typeinfo.Indirect(t).Kind() == reflect.Struct
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
