package schema

import (
	"reflect"

	"github.com/samber/oops"

	"github.com/Konsultn-Engineering/mapping/typeinfo"
)

// Introspect returns the entity of t, building it and every entity
// reachable from it on first use. Pointer types resolve to their element
// type. When any of them fails nothing is published for t.
func (ctx *Context) Introspect(t reflect.Type) (*PersistentEntity, error) {
	t = typeinfo.Indirect(t)
	if t == nil || (t.Kind() != reflect.Struct && t.Kind() != reflect.Interface) {
		return nil, mappingError(CodeUnsupportedType, t, "", ErrUnsupportedType,
			"invalid model type: %v (expected struct or interface)", t)
	}

	root, err := ctx.entity(t)
	if err != nil {
		return nil, err
	}
	if root.resolved.Load() {
		return root, nil
	}

	if err := ctx.resolveNested(root); err != nil {
		ctx.entities.Remove(t)
		return nil, err
	}
	return root, nil
}

// EntityOf returns the entity of T.
func EntityOf[T any](ctx *Context) (*PersistentEntity, error) {
	return ctx.Introspect(reflect.TypeFor[T]())
}

// entity returns the cached entity of t or builds it. Concurrent callers
// for the same type share one build.
func (ctx *Context) entity(t reflect.Type) (*PersistentEntity, error) {
	e, hit, err := ctx.entities.GetOrBuild(t, func() (*PersistentEntity, error) {
		return ctx.buildEntity(t)
	})
	recordLookup(hit)
	return e, err
}

// resolveNested builds every entity reachable from root, breadth first.
// It runs outside the per type build guard so that reference cycles never
// wait on themselves.
func (ctx *Context) resolveNested(root *PersistentEntity) error {
	visited := map[reflect.Type]bool{root.Type(): true}
	walked := []*PersistentEntity{root}
	queue := root.EntityTypes()

	for len(queue) > 0 {
		info := queue[0]
		queue = queue[1:]

		t := typeinfo.Indirect(info.Type())
		if visited[t] || (t.Kind() != reflect.Struct && t.Kind() != reflect.Interface) {
			continue
		}
		visited[t] = true

		nested, err := ctx.entity(t)
		if err != nil {
			return oops.Code(CodeNestedEntity).
				With("type", typeName(root.Type())).
				With("member", typeName(t)).
				Wrapf(err, "build entity %s referenced from %s", t, root.Type())
		}
		walked = append(walked, nested)
		if !nested.resolved.Load() {
			queue = append(queue, nested.EntityTypes()...)
		}
	}

	for _, e := range walked {
		e.resolved.Store(true)
	}
	return nil
}
