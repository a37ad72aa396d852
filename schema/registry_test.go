package schema

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func NewGeneric[T any]() *T { return new(T) }

type describedOnly struct {
	ID int64
}

func newDescribedOnly() *describedOnly { return &describedOnly{} }

func TestRegistry_Describe(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Describe(typeOf[*person](), Constructor(newPerson, "firstname", "lastname")))

	d, ok := r.Lookup(typeOf[person]())
	require.True(t, ok)
	assert.Equal(t, typeOf[person](), d.Type, "pointer types are normalised")
	require.Len(t, d.Members, 1)
	assert.Equal(t, MemberConstructor, d.Members[0].Kind())
	assert.Equal(t, "newPerson", d.Members[0].Name())
	assert.Equal(t, "constructor newPerson", d.Members[0].String())

	require.NoError(t, r.Describe(typeOf[person](), Constructor(otherPerson)))
	d, _ = r.Lookup(typeOf[person]())
	require.Len(t, d.Members, 1)
	assert.Equal(t, "otherPerson", d.Members[0].Name(), "descriptions are replaced")

	assert.Equal(t, 1, r.Len())
	r.Remove(typeOf[*person]())
	assert.Zero(t, r.Len())
	_, ok = r.Lookup(typeOf[person]())
	assert.False(t, ok)
}

func TestRegistry_LookupReturnsCopy(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Describe(typeOf[person](), Constructor(newPerson)))

	d, _ := r.Lookup(typeOf[person]())
	d.Members[0] = Constructor(otherPerson)

	d, _ = r.Lookup(typeOf[person]())
	assert.Equal(t, "newPerson", d.Members[0].Name())
}

func TestRegistry_DescribeInvalid(t *testing.T) {
	tests := []struct {
		name     string
		typ      reflect.Type
		member   Member
		sentinel error
		code     string
	}{
		{
			name:     "NotAFunction",
			typ:      typeOf[person](),
			member:   Constructor("newPerson"),
			sentinel: ErrInvalidCreator,
			code:     CodeInvalidCreator,
		},
		{
			name:     "NilFunction",
			typ:      typeOf[person](),
			member:   Constructor((func() *person)(nil)),
			sentinel: ErrInvalidCreator,
			code:     CodeInvalidCreator,
		},
		{
			name:     "ConstructorReturnType",
			typ:      typeOf[person](),
			member:   Constructor(newWidget),
			sentinel: ErrInvalidCreator,
			code:     CodeInvalidCreator,
		},
		{
			name:     "SecondResultNotError",
			typ:      typeOf[person](),
			member:   Constructor(func() (*person, bool) { return nil, false }),
			sentinel: ErrInvalidCreator,
			code:     CodeInvalidCreator,
		},
		{
			name:     "FactoryWithoutLabel",
			typ:      typeOf[factoryPerson](),
			member:   Factory("", factoryPersonOf),
			sentinel: ErrInvalidCreator,
			code:     CodeInvalidCreator,
		},
		{
			name:     "ParameterCount",
			typ:      typeOf[person](),
			member:   Constructor(newPerson, "firstname"),
			sentinel: ErrInvalidCreator,
			code:     CodeInvalidCreator,
		},
		{
			name:     "ParameterTag",
			typ:      typeOf[person](),
			member:   Constructor(newPerson, "firstname;primary", "lastname"),
			sentinel: ErrInvalidTag,
			code:     CodeInvalidTag,
		},
		{
			name:     "DuplicateParameter",
			typ:      typeOf[person](),
			member:   Constructor(newPerson, "firstname", "First_Name"),
			sentinel: ErrInvalidCreator,
			code:     CodeInvalidCreator,
		},
		{
			name:     "SkippedParameter",
			typ:      typeOf[person](),
			member:   Constructor(newPerson, "-", "lastname"),
			sentinel: ErrInvalidTag,
			code:     CodeInvalidTag,
		},
		{
			name:     "ConstructorMethodExpression",
			typ:      typeOf[constructorPerson](),
			member:   Constructor((*constructorPerson).Clone),
			sentinel: ErrNonStaticCreator,
			code:     CodeNonStaticCreator,
		},
		{
			name:     "MethodWithoutName",
			typ:      typeOf[person](),
			member:   CreatorMethod(""),
			sentinel: ErrInvalidCreator,
			code:     CodeInvalidCreator,
		},
		{
			name:     "NilType",
			member:   Constructor(newPerson),
			sentinel: ErrUnsupportedType,
			code:     CodeUnsupportedType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			err := r.Describe(tt.typ, tt.member)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assertErrorCode(t, err, tt.code)
			assert.Zero(t, r.Len(), "nothing is registered")
		})
	}
}

func TestRegistry_ConstructorWithError(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Describe(typeOf[person](), Constructor(func(firstname string) (person, error) {
		return person{firstname: firstname}, nil
	}, "firstname")))
}

func TestRegistry_MustDescribePanics(t *testing.T) {
	r := NewRegistry()
	assert.Panics(t, func() { r.MustDescribe(typeOf[person](), Constructor(newWidget)) })
	assert.NotPanics(t, func() { r.MustDescribe(typeOf[person](), Constructor(newPerson)) })
}

func TestDescribe_DefaultRegistry(t *testing.T) {
	t.Cleanup(func() { DefaultRegistry().Remove(typeOf[describedOnly]()) })

	require.NoError(t, Describe[describedOnly](Constructor(newDescribedOnly)))
	assert.NotPanics(t, func() { MustDescribe[describedOnly](Constructor(newDescribedOnly)) })

	ctx := New(WithoutAssociations(), WithLogger(discardLogger()))
	assert.Same(t, DefaultRegistry(), ctx.Registry())

	e := mustIntrospect(t, ctx, typeOf[describedOnly]())
	c, ok := e.Creator().(*PreferredConstructor)
	require.True(t, ok, "got %T", e.Creator())
	assert.False(t, c.IsSynthetic())
	assert.Equal(t, reflect.ValueOf(newDescribedOnly).Pointer(), c.Func().Pointer())
}

func TestMemberKind_String(t *testing.T) {
	assert.Equal(t, "constructor", MemberConstructor.String())
	assert.Equal(t, "factory", MemberFactory.String())
	assert.Equal(t, "method", MemberMethod.String())
	assert.Equal(t, "unknown", MemberKind(0).String())
}

func TestMember(t *testing.T) {
	m := Factory("of", factoryPersonOf, "firstname")
	assert.Equal(t, MemberFactory, m.Kind())
	assert.Equal(t, "of", m.Name())
	assert.False(t, m.IsMarked())
	assert.True(t, PersistenceCreator(m).IsMarked())
	assert.False(t, m.IsMarked(), "marking copies the member")
	assert.True(t, m.Func().IsValid())

	method := CreatorMethod("Of")
	assert.Equal(t, MemberMethod, method.Kind())
	assert.True(t, method.IsMarked())
	assert.False(t, method.Func().IsValid())
	assert.Equal(t, "method Of", method.String())
}

func TestFuncName(t *testing.T) {
	closure := func() *widget { return nil }
	var ref addressRef

	tests := []struct {
		name     string
		fn       any
		want     string
		exported bool
	}{
		{name: "Exported", fn: NewWidget, want: "NewWidget", exported: true},
		{name: "Unexported", fn: newWidget, want: "newWidget"},
		{name: "Generic", fn: NewGeneric[widget], want: "NewGeneric[...]", exported: true},
		{name: "Closure", fn: closure, want: "TestFuncName.func1"},
		{name: "MethodExpression", fn: nonStaticFactory.Of, want: "nonStaticFactory.Of"},
		{name: "MethodValue", fn: ref.referenceMarker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := funcName(reflect.ValueOf(tt.fn))
			if tt.want != "" {
				assert.Equal(t, tt.want, got)
			}
			assert.Equal(t, tt.exported, isExportedFunc(reflect.ValueOf(tt.fn)))
		})
	}

	assert.Empty(t, funcName(reflect.Value{}))
	assert.Empty(t, funcName(reflect.ValueOf(42)))
}

func TestReturnsOwner(t *testing.T) {
	owner := typeOf[person]()
	assert.True(t, returnsOwner(reflect.TypeOf(newPerson), owner))
	assert.True(t, returnsOwner(reflect.TypeOf(func() (person, error) { return person{}, nil }), owner))
	assert.False(t, returnsOwner(reflect.TypeOf(func() {}), owner))
	assert.False(t, returnsOwner(reflect.TypeOf(func() (*person, error, bool) { return nil, nil, false }), owner))
	assert.False(t, returnsOwner(reflect.TypeOf(newWidget), owner))
}
