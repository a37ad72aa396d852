package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// AccessType selects how a property value is read and written.
type AccessType uint8

const (
	// AccessDefault leaves the decision to the mapping rules.
	AccessDefault AccessType = iota
	// AccessField reads and writes the struct field directly.
	AccessField
	// AccessProperty goes through getter and setter methods.
	AccessProperty
)

func (a AccessType) String() string {
	switch a {
	case AccessField:
		return "field"
	case AccessProperty:
		return "property"
	default:
		return "default"
	}
}

// ParsedTag is the mapping configuration of one struct field or creator
// parameter.
type ParsedTag struct {
	Name       string // Property name override, parameters only
	ColumnName string // Column name (explicit or derived from the field name)
	Skip       bool   // db:"-"
	Type       string // Column type override
	Primary    bool
	Version    bool
	Transient  bool // Declared but never persisted
	ReadOnly   bool // Field is not assignable by the mapping layer
	Access     AccessType
	Default    string
	HasDefault bool
	Enclosing  bool // Parameter receives the enclosing instance
}

// TagParser parses and caches mapping tags.
//
// Supported syntax:
//
//	`db:"column_name"`                      // Column mapping
//	`db:"user_id;primary"`                  // Column with flags
//	`db:"column:custom;primary"`            // Explicit column with flags
//	`db:"version"`                          // Optimistic locking version
//	`db:"transient"`                        // Not persisted
//	`db:"readonly;access:property"`         // Final field, accessed via methods
//	`db:"-"`                                // Not a property at all
//
// Creator parameters use the same grammar with the property name first:
//
//	"lastname;default:unknown"
//	"parent;enclosing"
type TagParser struct {
	tagName        string
	namingStrategy NamingStrategy
	cache          map[string]*ParsedTag
	cacheMu        sync.RWMutex
}

// NewTagParser returns a parser reading tagName with columns derived by
// namingStrategy.
func NewTagParser(tagName string, namingStrategy NamingStrategy) *TagParser {
	return &TagParser{
		tagName:        tagName,
		namingStrategy: namingStrategy,
		cache:          make(map[string]*ParsedTag, 128),
	}
}

// TagName returns the struct tag key read by the parser.
func (p *TagParser) TagName() string { return p.tagName }

// ParseTag parses the mapping tag of a struct field. The returned value is
// shared and must not be modified.
func (p *TagParser) ParseTag(fieldName string, tag reflect.StructTag) (*ParsedTag, error) {
	tagValue := tag.Get(p.tagName)

	if tagValue == "" {
		return &ParsedTag{ColumnName: p.namingStrategy.ColumnName(fieldName)}, nil
	}

	cacheKey := fieldName + ":" + tagValue
	p.cacheMu.RLock()
	if cached, exists := p.cache[cacheKey]; exists {
		p.cacheMu.RUnlock()
		return cached, nil
	}
	p.cacheMu.RUnlock()

	parsed, err := p.parseTagValue(fieldName, tagValue)
	if err != nil {
		return nil, err
	}

	p.cacheMu.Lock()
	p.cache[cacheKey] = parsed
	p.cacheMu.Unlock()

	return parsed, nil
}

// ParseParameter parses a creator parameter declaration. The first segment
// names the property the parameter binds to and may be empty for unnamed
// parameters.
func ParseParameter(spec string) (*ParsedTag, error) {
	name, rest, _ := strings.Cut(spec, ";")
	name = strings.TrimSpace(name)
	if strings.ContainsRune(name, ':') || isFlag(name) {
		// Option in first position, no name
		name, rest = "", spec
	}
	if name == "-" {
		return nil, fmt.Errorf("%w: %q: parameters cannot be skipped", ErrInvalidTag, spec)
	}

	parsed := &ParsedTag{Name: name}
	if err := parseOptions(parsed, rest); err != nil {
		return nil, err
	}
	if parsed.Primary || parsed.Version || parsed.Transient || parsed.Skip {
		return nil, fmt.Errorf("%w: %q: parameters only accept default and enclosing", ErrInvalidTag, spec)
	}
	return parsed, nil
}

func (p *TagParser) parseTagValue(fieldName, tagValue string) (*ParsedTag, error) {
	if tagValue == "-" {
		return &ParsedTag{Skip: true}, nil
	}

	parsed := &ParsedTag{ColumnName: p.namingStrategy.ColumnName(fieldName)}

	// Plain column name
	if !strings.ContainsAny(tagValue, ";:") && !isFlag(tagValue) {
		parsed.ColumnName = strings.TrimSpace(tagValue)
		if err := validateTag(parsed); err != nil {
			return nil, fmt.Errorf("%w: field %s: %q: %s", ErrInvalidTag, fieldName, tagValue, err.Error())
		}
		return parsed, nil
	}

	// A leading segment that is neither a flag nor a pair names the column
	options := tagValue
	if first, rest, ok := strings.Cut(tagValue, ";"); ok && !strings.ContainsRune(first, ':') && !isFlag(first) {
		parsed.ColumnName = strings.TrimSpace(first)
		options = rest
	}

	if err := parseOptions(parsed, options); err != nil {
		return nil, err
	}
	if err := validateTag(parsed); err != nil {
		return nil, fmt.Errorf("%w: field %s: %q: %s", ErrInvalidTag, fieldName, tagValue, err.Error())
	}
	return parsed, nil
}

func parseOptions(tag *ParsedTag, value string) error {
	for _, option := range strings.Split(value, ";") {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}

		if key, v, ok := strings.Cut(option, ":"); ok {
			if err := parseKeyValue(tag, strings.TrimSpace(key), strings.TrimSpace(v)); err != nil {
				return err
			}
			continue
		}
		parseFlag(tag, option)
	}
	return nil
}

var flags = map[string]struct{}{
	"primary": {}, "primary_key": {}, "version": {}, "transient": {},
	"readonly": {}, "enclosing": {},
}

func isFlag(option string) bool {
	_, ok := flags[strings.TrimSpace(option)]
	return ok
}

func parseFlag(tag *ParsedTag, flag string) {
	switch flag {
	case "primary", "primary_key":
		tag.Primary = true
	case "version":
		tag.Version = true
	case "transient":
		tag.Transient = true
	case "readonly":
		tag.ReadOnly = true
	case "enclosing":
		tag.Enclosing = true
	default:
		// Unknown flags are ignored for forward compatibility
	}
}

func parseKeyValue(tag *ParsedTag, key, value string) error {
	switch key {
	case "column", "name":
		tag.ColumnName = value
	case "type":
		tag.Type = value
	case "default":
		tag.Default = value
		tag.HasDefault = true
	case "access":
		switch value {
		case "field":
			tag.Access = AccessField
		case "property":
			tag.Access = AccessProperty
		default:
			return fmt.Errorf("%w: unknown access type %q", ErrInvalidTag, value)
		}
	default:
		// Unknown pairs are ignored for extensibility
	}
	return nil
}

func validateTag(tag *ParsedTag) error {
	switch {
	case tag.Transient && tag.Primary:
		return errors.New("transient property cannot be primary")
	case tag.Transient && tag.Version:
		return errors.New("transient property cannot be a version")
	case tag.Primary && tag.Version:
		return errors.New("primary property cannot be a version")
	case tag.ColumnName == "":
		return errors.New("empty column name")
	}
	return nil
}

// ClearCache removes all cached parsed tags.
func (p *TagParser) ClearCache() {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	clear(p.cache)
}

// CacheSize returns the number of cached parsed tags.
func (p *TagParser) CacheSize() int {
	p.cacheMu.RLock()
	defer p.cacheMu.RUnlock()
	return len(p.cache)
}
