package typeinfo

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	Street string
	City   string
}

type customer struct {
	Name      string
	addresses []address
	Tags      map[string]*address
	Primary   *address
	Scores    [3]int
	Joined    time.Time
}

type named interface {
	Name() string
	SetName(string)
}

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil))

	a := From(reflect.TypeOf(address{}))
	b := Of[address]()
	assert.True(t, a == b, "type information must be comparable")
	assert.Equal(t, "typeinfo.address", a.String())

	set := map[TypeInformation]struct{}{a: {}, b: {}}
	assert.Len(t, set, 1)
}

func TestShapes(t *testing.T) {
	tests := []struct {
		name       string
		info       TypeInformation
		collection bool
		isMap      bool
		array      bool
		pointer    bool
		component  TypeInformation
		mapValue   TypeInformation
		actual     TypeInformation
	}{
		{
			name:       "Slice",
			info:       Of[[]address](),
			collection: true,
			component:  Of[address](),
			actual:     Of[address](),
		},
		{
			name:       "Array",
			info:       Of[[3]int](),
			collection: true,
			array:      true,
			component:  Of[int](),
			actual:     Of[int](),
		},
		{
			name:      "Map",
			info:      Of[map[string]*address](),
			isMap:     true,
			component: Of[string](),
			mapValue:  Of[*address](),
			actual:    Of[*address](),
		},
		{
			name:      "Pointer",
			info:      Of[*address](),
			pointer:   true,
			component: Of[address](),
			actual:    Of[address](),
		},
		{
			name:   "Struct",
			info:   Of[address](),
			actual: Of[address](),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.collection, tt.info.IsCollectionLike())
			assert.Equal(t, tt.isMap, tt.info.IsMap())
			assert.Equal(t, tt.array, tt.info.IsArray())
			assert.Equal(t, tt.pointer, tt.info.IsPointer())
			assert.Equal(t, tt.component, tt.info.ComponentType())
			assert.Equal(t, tt.mapValue, tt.info.MapValueType())
			assert.Equal(t, tt.actual, tt.info.ActualType())
		})
	}
}

func TestProperty(t *testing.T) {
	info := Of[customer]()

	assert.Equal(t, Of[string](), info.Property("Name"))
	assert.Equal(t, Of[[]address](), info.Property("addresses"), "unexported fields resolve")
	assert.Equal(t, Of[map[string]*address](), info.Property("Tags"))
	assert.Nil(t, info.Property("Missing"))

	viaPointer := Of[*customer]()
	assert.Equal(t, Of[time.Time](), viaPointer.Property("Joined"))

	_, err := info.RequiredProperty("Missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPropertyNotFound))
	assert.Contains(t, err.Error(), "Missing")
}

func TestProperty_Interface(t *testing.T) {
	info := Of[named]()
	assert.True(t, info.IsInterface())
	assert.Equal(t, Of[string](), info.Property("Name"))
	assert.Nil(t, info.Property("SetName"), "setters are not getters")
}

type stringer interface{ String() string }

type label string

func (l label) String() string { return string(l) }

func TestSuperTypeInformation(t *testing.T) {
	super := reflect.TypeFor[stringer]()

	assert.Equal(t, Of[label](), Of[label]().SuperTypeInformation(super))
	assert.Equal(t, Of[*label](), Of[*label]().SuperTypeInformation(super))
	assert.Nil(t, Of[int]().SuperTypeInformation(super))
	assert.Nil(t, Of[label]().SuperTypeInformation(nil))
	assert.Equal(t, Of[stringer](), Of[stringer]().SuperTypeInformation(super))
}

func TestIsAssignableFrom(t *testing.T) {
	assert.True(t, Of[stringer]().IsAssignableFrom(Of[label]()))
	assert.False(t, Of[label]().IsAssignableFrom(Of[string]()))
	assert.True(t, Of[string]().IsAssignableFrom(Of[string]()))
	assert.False(t, Of[string]().IsAssignableFrom(nil))
}

func TestIndirect(t *testing.T) {
	assert.Equal(t, reflect.TypeFor[address](), Indirect(reflect.TypeFor[**address]()))
	assert.Nil(t, Indirect(nil))
}

type described interface {
	GetDescription() string
}

func TestProperty_InterfaceGetPrefix(t *testing.T) {
	info := Of[described]()
	assert.Equal(t, Of[string](), info.Property("Description"))
	assert.Equal(t, Of[string](), info.Property("GetDescription"))
}
