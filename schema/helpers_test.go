package schema

import (
	"bytes"
	"log/slog"
	"reflect"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertErrorCode asserts that err is an oops error with the given code.
func assertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	assert.Equal(t, code, oopsErr.Code())
}

// assertErrorContext asserts that err is an oops error with the given
// context key and value.
func assertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	ctx := oopsErr.Context()
	assert.Contains(t, ctx, key)
	assert.Equal(t, value, ctx[key])
}

// newTestContext returns a context with a private registry and no
// association capability.
func newTestContext(t *testing.T, opts ...Option) (*Context, *Registry) {
	t.Helper()
	r := NewRegistry()
	base := []Option{WithRegistry(r), WithoutAssociations(), WithLogger(discardLogger())}
	return New(append(base, opts...)...), r
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func mustIntrospect(t *testing.T, ctx *Context, typ reflect.Type) *PersistentEntity {
	t.Helper()
	e, err := ctx.Introspect(typ)
	require.NoError(t, err)
	require.NotNil(t, e)
	return e
}

func typeOf[T any]() reflect.Type { return reflect.TypeFor[T]() }
