package schema

import (
	"log/slog"
	"reflect"
	"strconv"
	"time"

	"github.com/Konsultn-Engineering/mapping/cache"
	"github.com/Konsultn-Engineering/mapping/typeinfo"
)

// Context builds and caches persistent entities. A Context is safe for
// concurrent use.
type Context struct {
	// Configuration
	namingStrategy NamingStrategy
	tagName        string
	simpleTypes    SimpleTypeHolder
	extraSimple    []reflect.Type
	association    *AssociationType
	associationSet bool
	accessFields   []FieldRef
	registry       *Registry
	source         PropertySource
	logger         *slog.Logger

	// Cache configuration
	cacheSize int
	onEvict   func(reflect.Type, *PersistentEntity)

	tags     *TagParser
	env      *environment
	entities *cache.Memo[reflect.Type, *PersistentEntity]
}

type Option func(*Context)

// WithNamingStrategy sets the strategy deriving column and table names.
func WithNamingStrategy(strategy NamingStrategy) Option {
	return func(ctx *Context) { ctx.namingStrategy = strategy }
}

// WithTagName sets the struct tag key holding mapping configuration.
func WithTagName(tagName string) Option {
	return func(ctx *Context) { ctx.tagName = tagName }
}

// WithCacheSize sets how many entities the context keeps.
func WithCacheSize(size int) Option {
	return func(ctx *Context) { ctx.cacheSize = size }
}

// WithEvictionCallback sets a function called for entities leaving the
// cache.
func WithEvictionCallback(onEvict func(reflect.Type, *PersistentEntity)) Option {
	return func(ctx *Context) { ctx.onEvict = onEvict }
}

// WithSimpleTypes adds value types to the simple type classifier.
func WithSimpleTypes(types ...reflect.Type) Option {
	return func(ctx *Context) { ctx.extraSimple = append(ctx.extraSimple, types...) }
}

// WithSimpleTypeHolder replaces the simple type classifier.
func WithSimpleTypeHolder(holder SimpleTypeHolder) Option {
	return func(ctx *Context) { ctx.simpleTypes = holder }
}

// WithAssociationType sets the association capability instead of the
// registered one.
func WithAssociationType(a AssociationType) Option {
	return func(ctx *Context) {
		ctx.association = &a
		ctx.associationSet = true
	}
}

// WithoutAssociations disables association detection.
func WithoutAssociations() Option {
	return func(ctx *Context) {
		ctx.association = nil
		ctx.associationSet = true
	}
}

// WithPropertyAccessField adds fields that are accessed through their
// getter and setter. fs.PathError.Err is always included.
func WithPropertyAccessField(refs ...FieldRef) Option {
	return func(ctx *Context) { ctx.accessFields = append(ctx.accessFields, refs...) }
}

// WithRegistry sets the registry supplying creator candidates.
func WithRegistry(r *Registry) Option {
	return func(ctx *Context) { ctx.registry = r }
}

// WithPropertySource replaces reflection based property discovery.
func WithPropertySource(source PropertySource) Option {
	return func(ctx *Context) { ctx.source = source }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(ctx *Context) { ctx.logger = logger }
}

// New creates a mapping context.
func New(options ...Option) *Context {
	ctx := &Context{
		// Default configuration
		namingStrategy: DefaultNamingStrategy(),
		tagName:        "db",
		accessFields:   []FieldRef{pathErrorCause},
		registry:       defaultRegistry,
		logger:         slog.Default(),
		cacheSize:      256,
	}

	for _, opt := range options {
		opt(ctx)
	}

	if ctx.cacheSize <= 0 {
		ctx.cacheSize = 256
	}
	if !ctx.associationSet {
		if a, ok := RegisteredAssociationType(); ok {
			ctx.association = &a
		}
	}
	ctx.simpleTypes = ctx.buildSimpleTypes()

	ctx.tags = NewTagParser(ctx.tagName, ctx.namingStrategy)
	if ctx.source == nil {
		ctx.source = NewReflectPropertySource(ctx.tags, ctx.simpleTypes)
	}
	ctx.env = &environment{
		simpleTypes:  ctx.simpleTypes,
		association:  ctx.association,
		accessFields: ctx.accessFields,
		naming:       ctx.namingStrategy,
	}

	// Size was checked above, cache.New only fails for non-positive sizes
	ctx.entities, _ = cache.New[reflect.Type, *PersistentEntity](ctx.cacheSize, typeKey, ctx.onEvict)

	return ctx
}

func (ctx *Context) buildSimpleTypes() SimpleTypeHolder {
	if ctx.simpleTypes == nil {
		return NewSimpleTypeHolder(ctx.extraSimple...)
	}
	if len(ctx.extraSimple) == 0 {
		return ctx.simpleTypes
	}

	base, extra := ctx.simpleTypes, make(map[reflect.Type]struct{}, len(ctx.extraSimple))
	for _, t := range ctx.extraSimple {
		extra[t] = struct{}{}
	}
	return SimpleTypeHolderFunc(func(t reflect.Type) bool {
		if _, ok := extra[t]; ok {
			return true
		}
		return base.IsSimpleType(t)
	})
}

// typeKey collapses concurrent builds per type. Types are unique by
// identity, so the address of the type descriptor tells apart same named
// types declared in different scopes.
func typeKey(t reflect.Type) string {
	return t.String() + "@" + strconv.FormatUint(uint64(reflect.ValueOf(t).Pointer()), 16)
}

func (ctx *Context) NamingStrategy() NamingStrategy { return ctx.namingStrategy }

func (ctx *Context) TagName() string { return ctx.tagName }

func (ctx *Context) SimpleTypes() SimpleTypeHolder { return ctx.simpleTypes }

func (ctx *Context) Registry() *Registry { return ctx.registry }

// AssociationType returns the association capability in use.
func (ctx *Context) AssociationType() (AssociationType, bool) {
	if ctx.association == nil {
		return AssociationType{}, false
	}
	return *ctx.association, true
}

// HasPersistentEntity reports whether the entity of t is cached.
func (ctx *Context) HasPersistentEntity(t reflect.Type) bool {
	return ctx.entities.Contains(typeinfo.Indirect(t))
}

// PersistentEntities returns the cached entities from least to most
// recently used.
func (ctx *Context) PersistentEntities() []*PersistentEntity {
	return ctx.entities.Values()
}

// CacheLen returns the number of cached entities.
func (ctx *Context) CacheLen() int { return ctx.entities.Len() }

// ClearCache drops every cached entity.
func (ctx *Context) ClearCache() {
	ctx.entities.Purge()
	ctx.tags.ClearCache()
}

// buildEntity builds the entity of t alone, nested entities are not
// touched.
func (ctx *Context) buildEntity(t reflect.Type) (*PersistentEntity, error) {
	start := time.Now()

	entity, err := ctx.newEntity(t)
	recordBuild(time.Since(start), err)
	if err != nil {
		logError(ctx.logger, "build persistent entity", err)
		return nil, err
	}

	ctx.logger.Debug("built persistent entity",
		"type", typeName(t),
		"properties", len(entity.properties),
		"creator", creatorName(entity.creator))
	if entity.creator == nil && t.Kind() == reflect.Struct {
		ctx.logger.Warn("no persistence creator selected",
			"type", typeName(t),
			"constructors", len(entity.members))
	}

	return entity, nil
}

func (ctx *Context) newEntity(t reflect.Type) (*PersistentEntity, error) {
	info := typeinfo.From(t)

	props, err := ctx.source.Properties(info)
	if err != nil {
		return nil, err
	}

	var members []Member
	if d, ok := ctx.registry.Lookup(t); ok {
		members = d.Members
	}

	return newPersistentEntity(info, props, members, ctx.env)
}

func creatorName(c InstanceCreatorMetadata) string {
	if c == nil {
		return "none"
	}
	return c.String()
}
