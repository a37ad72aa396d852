package schema

import (
	"reflect"
	"strings"

	"github.com/Konsultn-Engineering/mapping/typeinfo"
	"github.com/Konsultn-Engineering/mapping/utils"
)

// CreatorSource is what creator discovery reads from an entity.
type CreatorSource interface {
	// Type returns the struct or interface type being created.
	Type() reflect.Type
	// DeclaredMembers returns the declared creator candidates.
	DeclaredMembers() []Member
	// Properties returns the raw properties parameters may bind to.
	Properties() []*Property
}

// DiscoverCreator selects the creator of source:
//
//  1. The member marked as persistence creator. Marking more than one
//     member, marking an instance method and marking a factory that does
//     not return the type are errors.
//  2. The only declared constructor. Structs without declared
//     constructors get the zero value constructor.
//  3. Among several constructors, the only no-argument one when it is an
//     exported function.
//
// No creator is not an error: the result is nil and materialisation has to
// deal with it. Members are validated as Registry.Describe does, so sources
// other than the registry get the same configuration errors.
func DiscoverCreator(source CreatorSource) (InstanceCreatorMetadata, error) {
	owner := typeinfo.Indirect(source.Type())
	if owner == nil {
		return nil, mappingError(CodeUnsupportedType, nil, "", ErrUnsupportedType, "discover creator of nil type")
	}
	members := source.DeclaredMembers()
	props := source.Properties()

	for _, m := range members {
		if err := validateMember(owner, m); err != nil {
			return nil, err
		}
	}

	marked, err := markedCreators(owner, members)
	if err != nil {
		return nil, err
	}
	switch len(marked) {
	case 0:
	case 1:
		return buildCreator(owner, marked[0], props, true)
	default:
		names := make([]string, len(marked))
		for i, m := range marked {
			names[i] = m.String()
		}
		return nil, oopsMultiple(owner, names)
	}

	var constructors []Member
	for _, m := range members {
		if m.kind == MemberConstructor {
			constructors = append(constructors, m)
		}
	}

	switch len(constructors) {
	case 0:
		if owner.Kind() == reflect.Struct {
			return syntheticConstructor(owner), nil
		}
		return nil, nil
	case 1:
		return buildCreator(owner, constructors[0], props, false)
	default:
	}

	var noArg []Member
	for _, c := range constructors {
		if c.fn.Type().NumIn() == 0 {
			noArg = append(noArg, c)
		}
	}
	if len(noArg) == 1 && isExportedFunc(noArg[0].fn) {
		return buildCreator(owner, noArg[0], props, false)
	}

	return nil, nil
}

func oopsMultiple(owner reflect.Type, names []string) error {
	return mappingError(CodeMultipleCreators, owner, strings.Join(names, ", "), ErrMultipleCreators,
		"%s marks %d members as persistence creator: %s", owner, len(names), strings.Join(names, ", "))
}

// markedCreators resolves every marked member to a callable candidate.
// Method marks resolve to the factories sharing their name.
func markedCreators(owner reflect.Type, members []Member) ([]Member, error) {
	var (
		marked []Member
		taken  = make(map[int]bool)
	)

	add := func(i int, m Member) error {
		if taken[i] {
			return nil
		}
		taken[i] = true
		if m.kind == MemberFactory {
			if isMethodExpression(owner, m.fn) {
				return mappingError(CodeNonStaticCreator, owner, m.Name(), ErrNonStaticCreator,
					"factory %s of %s is a method expression", m.Name(), owner)
			}
			if !returnsOwner(m.fn.Type(), owner) {
				return mappingError(CodeCreatorReturnType, owner, m.Name(), ErrCreatorReturnType,
					"factory %s returns %s, want %s", m.Name(), results(m.fn.Type()), owner)
			}
		}
		marked = append(marked, m)
		return nil
	}

	for i, m := range members {
		if !m.marked {
			continue
		}

		if m.kind != MemberMethod {
			if err := add(i, m); err != nil {
				return nil, err
			}
			continue
		}

		var found bool
		for j, f := range members {
			if f.kind != MemberFactory || f.label != m.label {
				continue
			}
			found = true
			if len(f.params) == 0 {
				f.params = m.params
			}
			f.marked = true
			if err := add(j, f); err != nil {
				return nil, err
			}
		}
		if found {
			continue
		}

		if hasMethod(owner, m.label) {
			return nil, mappingError(CodeNonStaticCreator, owner, m.label, ErrNonStaticCreator,
				"%s.%s is an instance method and cannot create instances", owner, m.label)
		}
		return nil, mappingError(CodeUnknownCreatorMethod, owner, m.label, ErrUnknownCreatorMethod,
			"%s has no factory or method %s", owner, m.label)
	}

	return marked, nil
}

func hasMethod(owner reflect.Type, name string) bool {
	if owner.Kind() == reflect.Interface {
		_, ok := owner.MethodByName(name)
		return ok
	}
	_, ok := reflect.PointerTo(owner).MethodByName(name)
	return ok
}

// isMethodExpression reports whether fn is a method expression such as
// T.Of or (*T).Of on owner.
func isMethodExpression(owner reflect.Type, fn reflect.Value) bool {
	ft := fn.Type()
	if ft.NumIn() == 0 {
		return false
	}
	recv := ft.In(0)
	if recv != owner && !(recv.Kind() == reflect.Ptr && recv.Elem() == owner) {
		return false
	}
	name := funcName(fn)
	return strings.HasPrefix(name, owner.Name()+".") || strings.HasPrefix(name, "(*"+owner.Name()+").")
}

func buildCreator(owner reflect.Type, m Member, props []*Property, marked bool) (InstanceCreatorMetadata, error) {
	ft := m.fn.Type()
	params, err := bindParameters(ft, m.params, props)
	if err != nil {
		return nil, mappingError(CodeInvalidTag, owner, m.Name(), err, "parameter of %s", m)
	}
	base := creatorBase{
		fn:     m.fn,
		name:   m.Name(),
		params: params,
		marked: marked,
	}

	if m.kind == MemberFactory {
		return &FactoryMethod{creatorBase: base, returnType: ft.Out(0)}, nil
	}
	return &PreferredConstructor{creatorBase: base}, nil
}

// bindParameters matches parameters to properties in declaration order.
// Named parameters bind to the property of that name, compared exactly and
// then loosely. Unnamed ones bind to the first free property of the same
// type, then of an assignable type. Transient properties never bind and
// no property binds twice.
func bindParameters(ft reflect.Type, specs []string, props []*Property) ([]*Parameter, error) {
	params := make([]*Parameter, ft.NumIn())
	claimed := make([]bool, len(props))

	for i := range params {
		tag := &ParsedTag{}
		if i < len(specs) {
			var err error
			if tag, err = ParseParameter(specs[i]); err != nil {
				return nil, err
			}
		}

		param := &Parameter{
			name:       tag.Name,
			typ:        ft.In(i),
			defaultVal: tag.Default,
			hasDefault: tag.HasDefault,
			enclosing:  tag.Enclosing,
		}
		if !tag.Enclosing {
			if idx := bindParameter(tag.Name, param.typ, props, claimed); idx >= 0 {
				claimed[idx] = true
				param.property = props[idx]
			}
		}
		params[i] = param
	}

	return params, nil
}

func bindParameter(name string, typ reflect.Type, props []*Property, claimed []bool) int {
	bindable := func(i int) bool { return !claimed[i] && !props[i].Tag().Transient }

	if name != "" {
		for i, p := range props {
			if bindable(i) && p.Name() == name {
				return i
			}
		}
		for i, p := range props {
			if bindable(i) && utils.SameIdent(p.Name(), name) {
				return i
			}
		}
		return -1
	}

	for i, p := range props {
		if bindable(i) && p.Type() == typ {
			return i
		}
	}
	for i, p := range props {
		if bindable(i) && p.Type().AssignableTo(typ) {
			return i
		}
	}
	return -1
}
