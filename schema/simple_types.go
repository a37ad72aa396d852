package schema

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"net"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/oklog/ulid/v2"
)

// SimpleTypeHolder decides which types are stored as plain values and are
// therefore never entities.
type SimpleTypeHolder interface {
	IsSimpleType(t reflect.Type) bool
}

// SimpleTypeHolderFunc adapts a function to SimpleTypeHolder.
type SimpleTypeHolderFunc func(t reflect.Type) bool

func (f SimpleTypeHolderFunc) IsSimpleType(t reflect.Type) bool { return f(t) }

var (
	valuerType    = reflect.TypeFor[driver.Valuer]()
	timeType      = reflect.TypeFor[time.Time]()
	bytesType     = reflect.TypeFor[[]byte]()
	emptyIfceType = reflect.TypeFor[any]()
)

// defaultSimpleTypes are value types beyond the basic kinds.
var defaultSimpleTypes = []reflect.Type{
	timeType,
	reflect.TypeFor[time.Duration](),
	reflect.TypeFor[time.Location](),
	bytesType,
	reflect.TypeFor[json.RawMessage](),
	reflect.TypeFor[net.IP](),

	// Nullable SQL types
	reflect.TypeFor[sql.NullString](),
	reflect.TypeFor[sql.NullTime](),
	reflect.TypeFor[sql.NullBool](),
	reflect.TypeFor[sql.NullByte](),
	reflect.TypeFor[sql.NullInt16](),
	reflect.TypeFor[sql.NullInt32](),
	reflect.TypeFor[sql.NullInt64](),
	reflect.TypeFor[sql.NullFloat64](),
	reflect.TypeFor[sql.RawBytes](),

	// Identifiers
	reflect.TypeFor[uuid.UUID](),
	reflect.TypeFor[uuid.NullUUID](),
	reflect.TypeFor[ulid.ULID](),

	// PostgreSQL value types
	reflect.TypeFor[pgtype.Text](),
	reflect.TypeFor[pgtype.Bool](),
	reflect.TypeFor[pgtype.Int2](),
	reflect.TypeFor[pgtype.Int4](),
	reflect.TypeFor[pgtype.Int8](),
	reflect.TypeFor[pgtype.Float4](),
	reflect.TypeFor[pgtype.Float8](),
	reflect.TypeFor[pgtype.Numeric](),
	reflect.TypeFor[pgtype.Date](),
	reflect.TypeFor[pgtype.Time](),
	reflect.TypeFor[pgtype.Timestamp](),
	reflect.TypeFor[pgtype.Timestamptz](),
	reflect.TypeFor[pgtype.Interval](),
	reflect.TypeFor[pgtype.UUID](),
}

// DefaultSimpleTypeHolder classifies the basic kinds, the empty interface,
// time, byte slices, database/sql null types, UUID and ULID identifiers,
// pgx value types and every type implementing driver.Valuer as simple.
type DefaultSimpleTypeHolder struct {
	registered map[reflect.Type]struct{}
	cache      sync.Map // reflect.Type -> bool
}

// NewSimpleTypeHolder returns the default classifier extended by custom
// types.
func NewSimpleTypeHolder(custom ...reflect.Type) *DefaultSimpleTypeHolder {
	h := &DefaultSimpleTypeHolder{
		registered: make(map[reflect.Type]struct{}, len(defaultSimpleTypes)+len(custom)),
	}
	for _, t := range defaultSimpleTypes {
		h.registered[t] = struct{}{}
	}
	for _, t := range custom {
		if t != nil {
			h.registered[t] = struct{}{}
		}
	}
	return h
}

// IsSimpleType implements SimpleTypeHolder.
func (h *DefaultSimpleTypeHolder) IsSimpleType(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if v, ok := h.cache.Load(t); ok {
		return v.(bool)
	}
	simple := h.classify(t)
	h.cache.Store(t, simple)
	return simple
}

func (h *DefaultSimpleTypeHolder) classify(t reflect.Type) bool {
	if _, ok := h.registered[t]; ok {
		return true
	}

	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Interface:
		return t == emptyIfceType
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		// Not mappable, never an entity either
		return true
	default:
	}

	return t.Implements(valuerType) || reflect.PointerTo(t).Implements(valuerType)
}
