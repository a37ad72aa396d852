package schema

import (
	"errors"
	"log/slog"
	"reflect"

	"github.com/samber/oops"
)

// Precondition violations.
var (
	ErrNilOwner        = errors.New("owning entity is nil")
	ErrNilSimpleTypes  = errors.New("simple type holder is nil")
	ErrUnknownProperty = errors.New("property is not declared by the owning type")
	ErrUnsupportedType = errors.New("type cannot be mapped")
)

// Configuration errors.
var (
	ErrMultipleCreators     = errors.New("more than one member is marked as persistence creator")
	ErrNonStaticCreator     = errors.New("persistence creator method is not static")
	ErrCreatorReturnType    = errors.New("persistence creator does not return the owning type")
	ErrUnknownCreatorMethod = errors.New("persistence creator method does not exist")
	ErrInvalidCreator       = errors.New("invalid creator function")
	ErrInvalidTag           = errors.New("invalid mapping tag")
	ErrDuplicateColumn      = errors.New("column is mapped by more than one property")
	ErrDuplicateProperty    = errors.New("property is declared more than once")
)

// ErrNoSuchProperty is returned by RequiredPersistentProperty.
var ErrNoSuchProperty = errors.New("no such persistent property")

// Error codes attached to every error the package returns.
const (
	CodeNilOwner             = "MAPPING_NIL_OWNER"
	CodeNilSimpleTypes       = "MAPPING_NIL_SIMPLE_TYPES"
	CodeUnknownProperty      = "MAPPING_UNKNOWN_PROPERTY"
	CodeUnsupportedType      = "MAPPING_UNSUPPORTED_TYPE"
	CodeMultipleCreators     = "MAPPING_MULTIPLE_CREATORS"
	CodeNonStaticCreator     = "MAPPING_NON_STATIC_CREATOR"
	CodeCreatorReturnType    = "MAPPING_CREATOR_RETURN_TYPE"
	CodeUnknownCreatorMethod = "MAPPING_UNKNOWN_CREATOR_METHOD"
	CodeInvalidCreator       = "MAPPING_INVALID_CREATOR"
	CodeInvalidTag           = "MAPPING_INVALID_TAG"
	CodeDuplicateColumn      = "MAPPING_DUPLICATE_COLUMN"
	CodeDuplicateProperty    = "MAPPING_DUPLICATE_PROPERTY"
	CodeNoSuchProperty       = "MAPPING_NO_SUCH_PROPERTY"
	CodeNestedEntity         = "MAPPING_NESTED_ENTITY"
)

// mappingError wraps sentinel with the code and the offending type and
// member. member may be empty.
func mappingError(code string, t reflect.Type, member string, sentinel error, format string, args ...any) error {
	b := oops.Code(code).With("type", typeName(t))
	if member != "" {
		b = b.With("member", member)
	}
	return b.Wrapf(sentinel, format, args...)
}

// typeName renders t with its import path so that same-named types from
// different packages stay distinguishable in error context.
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// errorCode returns the oops code of err or "unknown".
func errorCode(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok && code != "" {
			return code
		}
	}
	return "unknown"
}

// logError logs err with its oops code and context when present.
func logError(logger *slog.Logger, msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []any{
			"error", oopsErr.Error(),
		}
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
		logger.Error(msg, attrs...)
	} else {
		logger.Error(msg, "error", err)
	}
}
