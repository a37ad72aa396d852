package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// InstanceCreatorMetadata describes how instances of an entity are
// created. It is implemented by *PreferredConstructor and *FactoryMethod
// only.
type InstanceCreatorMetadata interface {
	// Parameters returns the parameters in declaration order.
	Parameters() []*Parameter
	ParameterCount() int
	HasParameters() bool
	// IsCreatorParameter reports whether a parameter binds to prop.
	IsCreatorParameter(prop *PersistentProperty) bool
	// IsExplicitlyMarked reports whether the creator was marked as
	// persistence creator rather than picked by default.
	IsExplicitlyMarked() bool
	// Func returns the function to call.
	Func() reflect.Value
	String() string

	instanceCreator()
}

// Parameter is one creator argument and the property it is bound to.
type Parameter struct {
	name       string
	typ        reflect.Type
	property   *Property
	defaultVal string
	hasDefault bool
	enclosing  bool
}

// Name returns the declared name, or the bound property name for unnamed
// parameters. Unbound unnamed parameters have no name.
func (p *Parameter) Name() string {
	if p.name == "" && p.property != nil {
		return p.property.Name()
	}
	return p.name
}

func (p *Parameter) Type() reflect.Type { return p.typ }

// Property returns the bound property, nil when the value has to come from
// elsewhere at materialisation time.
func (p *Parameter) Property() *Property { return p.property }

func (p *Parameter) IsBound() bool { return p.property != nil }

// Default returns the declared default value.
func (p *Parameter) Default() (string, bool) { return p.defaultVal, p.hasDefault }

func (p *Parameter) HasDefault() bool { return p.hasDefault }

// IsEnclosingInstance reports whether the parameter receives the instance
// that owns the one being created.
func (p *Parameter) IsEnclosingInstance() bool { return p.enclosing }

func (p *Parameter) String() string {
	var b strings.Builder
	if name := p.Name(); name != "" {
		b.WriteString(name)
		b.WriteByte(' ')
	}
	b.WriteString(p.typ.String())
	if p.hasDefault {
		fmt.Fprintf(&b, " = %q", p.defaultVal)
	}
	return b.String()
}

type creatorBase struct {
	fn     reflect.Value
	name   string
	params []*Parameter
	marked bool
}

func (c *creatorBase) Parameters() []*Parameter {
	return append([]*Parameter(nil), c.params...)
}

func (c *creatorBase) ParameterCount() int { return len(c.params) }

func (c *creatorBase) HasParameters() bool { return len(c.params) > 0 }

func (c *creatorBase) IsCreatorParameter(prop *PersistentProperty) bool {
	if prop == nil {
		return false
	}
	for _, p := range c.params {
		if p.property != nil && p.property.Equal(prop.Property()) {
			return true
		}
	}
	return false
}

func (c *creatorBase) IsExplicitlyMarked() bool { return c.marked }

func (c *creatorBase) Func() reflect.Value { return c.fn }

func (c *creatorBase) signature() string {
	params := make([]string, len(c.params))
	for i, p := range c.params {
		params[i] = p.String()
	}
	return c.name + "(" + strings.Join(params, ", ") + ")"
}

// PreferredConstructor is a constructor selected as creator.
type PreferredConstructor struct {
	creatorBase
	synthetic bool
}

func (*PreferredConstructor) instanceCreator() {}

// IsNoArgConstructor reports whether the constructor takes no argument.
func (c *PreferredConstructor) IsNoArgConstructor() bool { return len(c.params) == 0 }

// IsSynthetic reports whether the constructor is the implicit zero value
// constructor of a struct without declared constructors.
func (c *PreferredConstructor) IsSynthetic() bool { return c.synthetic }

func (c *PreferredConstructor) String() string { return "constructor " + c.signature() }

// FactoryMethod is a static factory selected as creator.
type FactoryMethod struct {
	creatorBase
	returnType reflect.Type
}

func (*FactoryMethod) instanceCreator() {}

// Label returns the label the factory was declared with.
func (f *FactoryMethod) Label() string { return f.name }

// ReturnType returns the type the factory produces.
func (f *FactoryMethod) ReturnType() reflect.Type { return f.returnType }

func (f *FactoryMethod) String() string {
	return "factory " + f.signature() + " " + f.returnType.String()
}

// syntheticConstructor returns a constructor producing a zero *t.
func syntheticConstructor(t reflect.Type) *PreferredConstructor {
	ft := reflect.FuncOf(nil, []reflect.Type{reflect.PointerTo(t)}, false)
	fn := reflect.MakeFunc(ft, func([]reflect.Value) []reflect.Value {
		return []reflect.Value{reflect.New(t)}
	})
	return &PreferredConstructor{
		creatorBase: creatorBase{fn: fn, name: "new(" + t.Name() + ")"},
		synthetic:   true,
	}
}
