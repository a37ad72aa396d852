package schema

import (
	"reflect"
	"runtime"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/Konsultn-Engineering/mapping/typeinfo"
	"github.com/Konsultn-Engineering/mapping/utils"
)

// MemberKind distinguishes creator candidates.
type MemberKind uint8

const (
	// MemberConstructor is a function returning a new instance.
	MemberConstructor MemberKind = iota + 1
	// MemberFactory is a labelled function that may return the owning type.
	MemberFactory
	// MemberMethod names a method of the owning type.
	MemberMethod
)

func (k MemberKind) String() string {
	switch k {
	case MemberConstructor:
		return "constructor"
	case MemberFactory:
		return "factory"
	case MemberMethod:
		return "method"
	default:
		return "unknown"
	}
}

// Member is a creator candidate declared for a type.
type Member struct {
	kind   MemberKind
	fn     reflect.Value
	label  string
	params []string
	marked bool
}

// Constructor declares fn as a constructor. params declare the parameters
// in order, see ParseParameter for the syntax. Omitting params leaves every
// parameter unnamed.
func Constructor(fn any, params ...string) Member {
	return Member{kind: MemberConstructor, fn: reflect.ValueOf(fn), params: params}
}

// Factory declares fn as a static factory labelled label. Several
// factories may share a label.
func Factory(label string, fn any, params ...string) Member {
	return Member{kind: MemberFactory, fn: reflect.ValueOf(fn), label: label, params: params}
}

// PersistenceCreator marks m as the creator to use for materialisation.
func PersistenceCreator(m Member) Member {
	m.marked = true
	return m
}

// CreatorMethod marks the member called name as the creator. The name is
// looked up among the factory labels first and the method set of the type
// second.
func CreatorMethod(name string, params ...string) Member {
	return Member{kind: MemberMethod, label: name, params: params, marked: true}
}

func (m Member) Kind() MemberKind { return m.kind }

func (m Member) IsMarked() bool { return m.marked }

// Name returns the label of factories and methods and the function name of
// constructors.
func (m Member) Name() string {
	if m.kind == MemberConstructor {
		return funcName(m.fn)
	}
	return m.label
}

func (m Member) Func() reflect.Value { return m.fn }

func (m Member) String() string {
	return m.kind.String() + " " + m.Name()
}

// TypeDescriptor holds the creator candidates declared for one type.
type TypeDescriptor struct {
	Type    reflect.Type
	Members []Member
}

// Registry maps types to their descriptors. It is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[reflect.Type]TypeDescriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{descriptors: make(map[reflect.Type]TypeDescriptor)}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry used by contexts created without
// WithRegistry.
func DefaultRegistry() *Registry { return defaultRegistry }

// Describe declares the creator candidates of t, replacing earlier
// declarations. Entities already built by a context are not affected.
func (r *Registry) Describe(t reflect.Type, members ...Member) error {
	t = typeinfo.Indirect(t)
	if t == nil {
		return mappingError(CodeUnsupportedType, nil, "", ErrUnsupportedType, "describe nil type")
	}

	for _, m := range members {
		if err := validateMember(t, m); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors[t] = TypeDescriptor{Type: t, Members: append([]Member(nil), members...)}
	return nil
}

// MustDescribe is Describe that panics on error. Meant for package
// initialisation.
func (r *Registry) MustDescribe(t reflect.Type, members ...Member) {
	if err := r.Describe(t, members...); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor of t.
func (r *Registry) Lookup(t reflect.Type) (TypeDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.descriptors[typeinfo.Indirect(t)]
	if !ok {
		return TypeDescriptor{}, false
	}
	d.Members = append([]Member(nil), d.Members...)
	return d, true
}

// Remove drops the descriptor of t.
func (r *Registry) Remove(t reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.descriptors, typeinfo.Indirect(t))
}

// Len returns the number of described types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descriptors)
}

// Describe declares the creator candidates of T on the default registry.
func Describe[T any](members ...Member) error {
	return defaultRegistry.Describe(reflect.TypeFor[T](), members...)
}

// MustDescribe is Describe that panics on error.
func MustDescribe[T any](members ...Member) {
	defaultRegistry.MustDescribe(reflect.TypeFor[T](), members...)
}

func validateMember(owner reflect.Type, m Member) error {
	if m.kind == MemberMethod {
		if m.label == "" {
			return mappingError(CodeInvalidCreator, owner, "", ErrInvalidCreator, "creator method without a name")
		}
		return validateParams(owner, m, -1)
	}

	if !m.fn.IsValid() || m.fn.Kind() != reflect.Func || m.fn.IsNil() {
		return mappingError(CodeInvalidCreator, owner, m.label, ErrInvalidCreator,
			"%s of %s is not a function", m.kind, owner)
	}
	ft := m.fn.Type()

	if m.kind == MemberConstructor && !returnsOwner(ft, owner) {
		return mappingError(CodeInvalidCreator, owner, m.Name(), ErrInvalidCreator,
			"constructor %s returns %s, want %s or *%s", m.Name(), results(ft), owner, owner)
	}
	if m.kind == MemberConstructor && isMethodExpression(owner, m.fn) {
		return mappingError(CodeNonStaticCreator, owner, m.Name(), ErrNonStaticCreator,
			"constructor %s of %s is a method expression", m.Name(), owner)
	}
	if m.kind == MemberFactory && m.label == "" {
		return mappingError(CodeInvalidCreator, owner, m.Name(), ErrInvalidCreator, "factory without a label")
	}

	return validateParams(owner, m, ft.NumIn())
}

// validateParams checks the declared parameters against the function
// arity. arity below zero skips the count check.
func validateParams(owner reflect.Type, m Member, arity int) error {
	if len(m.params) > 0 && arity >= 0 && len(m.params) != arity {
		return mappingError(CodeInvalidCreator, owner, m.Name(), ErrInvalidCreator,
			"%s declares %d parameters, function takes %d", m, len(m.params), arity)
	}
	names := make(map[string]string, len(m.params))
	for _, spec := range m.params {
		tag, err := ParseParameter(spec)
		if err != nil {
			return mappingError(CodeInvalidTag, owner, m.Name(), err, "parameter of %s", m)
		}
		if tag.Name == "" {
			continue
		}
		key := utils.NormalizeIdent(tag.Name)
		if other, dup := names[key]; dup {
			return mappingError(CodeInvalidCreator, owner, m.Name(), ErrInvalidCreator,
				"%s declares parameters %s and %s for the same property", m, other, tag.Name)
		}
		names[key] = tag.Name
	}
	return nil
}

// returnsOwner reports whether ft returns owner or a pointer to it,
// optionally followed by an error.
func returnsOwner(ft reflect.Type, owner reflect.Type) bool {
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return false
		}
	default:
		return false
	}
	out := ft.Out(0)
	return out == owner || (out.Kind() == reflect.Ptr && out.Elem() == owner)
}

var errorType = reflect.TypeFor[error]()

func results(ft reflect.Type) string {
	if ft.NumOut() == 0 {
		return "nothing"
	}
	outs := make([]string, ft.NumOut())
	for i := range outs {
		outs[i] = ft.Out(i).String()
	}
	return "(" + strings.Join(outs, ", ") + ")"
}

// funcName returns the symbol of fn without its package path, for example
// "NewPerson" or "TestX.func1".
func funcName(fn reflect.Value) string {
	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return ""
	}
	name := f.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// isExportedFunc reports whether fn is a package level exported function.
// Closures and methods are not.
func isExportedFunc(fn reflect.Value) bool {
	name := funcName(fn)
	if i := strings.IndexByte(name, '['); i >= 0 {
		// Generic instantiation
		name = name[:i]
	}
	if name == "" || strings.ContainsAny(name, ".()") {
		return false
	}
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
