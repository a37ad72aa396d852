package schema

import (
	"strings"
	"unicode"

	pluralizer "github.com/gertd/go-pluralize"
)

// pluralizeClient is shared; the client is safe for concurrent reads once
// built.
var pluralizeClient = pluralizer.NewClient()

// NamingStrategy derives storage names from Go identifiers.
type NamingStrategy interface {
	// ColumnName converts a Go field name to a column name.
	ColumnName(fieldName string) string
	// TableName converts a Go type name to a table name.
	TableName(typeName string) string
}

// Case selects the identifier convention of a naming strategy.
type Case int

const (
	SnakeCase  Case = iota // first_name
	CamelCase              // firstName
	PascalCase             // FirstName
)

type namingStrategy struct {
	columns Case
	tables  Case
	plural  bool
}

// NewNamingStrategy returns a strategy converting columns and tables to the
// given cases, pluralising table names when plural is set.
func NewNamingStrategy(columns, tables Case, plural bool) NamingStrategy {
	return namingStrategy{columns: columns, tables: tables, plural: plural}
}

// DefaultNamingStrategy returns snake_case columns and plural snake_case
// tables.
func DefaultNamingStrategy() NamingStrategy {
	return NewNamingStrategy(SnakeCase, SnakeCase, true)
}

func (s namingStrategy) ColumnName(fieldName string) string {
	return convertCase(fieldName, s.columns)
}

func (s namingStrategy) TableName(typeName string) string {
	name := convertCase(typeName, s.tables)
	if s.plural {
		name = pluralize(name)
	}
	return name
}

func convertCase(name string, c Case) string {
	switch c {
	case CamelCase:
		return toCamelCase(name)
	case PascalCase:
		return toPascalCase(name)
	default:
		return toSnakeCase(name)
	}
}

// toSnakeCase handles acronyms: "UserID" -> "user_id", "HTTPServer" ->
// "http_server".
func toSnakeCase(name string) string {
	if name == "" {
		return ""
	}
	if strings.Contains(name, "_") && !hasUpperCase(name) {
		return name
	}

	var result strings.Builder
	result.Grow(len(name) + 4)

	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			// aB -> a_b, a1B -> a1_b, ABc -> a_bc
			if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
				(unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])) {
				result.WriteByte('_')
			}
		}
		result.WriteRune(unicode.ToLower(r))
	}

	return result.String()
}

func toCamelCase(name string) string {
	parts := strings.Split(toSnakeCase(name), "_")

	var result strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			result.WriteString(part)
			continue
		}
		result.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return result.String()
}

func toPascalCase(name string) string {
	camel := toCamelCase(name)
	if camel == "" {
		return ""
	}
	return strings.ToUpper(camel[:1]) + camel[1:]
}

// pluralize converts a singular noun to its plural form, keeping the case
// pattern of the input.
func pluralize(name string) string {
	if name == "" {
		return ""
	}

	// Only the last word of a compound name is inflected
	cut := strings.LastIndexFunc(name, func(r rune) bool { return r == '_' || unicode.IsUpper(r) })
	if cut < 0 {
		cut = 0
	}
	if name[cut] == '_' {
		cut++
	}
	head, word := name[:cut], name[cut:]
	if word == "" {
		return name
	}

	return head + preserveCase(word, pluralizeClient.Plural(strings.ToLower(word)))
}

func hasUpperCase(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func preserveCase(original, result string) string {
	if original == "" || result == "" {
		return result
	}
	if strings.ToUpper(original) == original && len(original) > 1 {
		return strings.ToUpper(result)
	}
	if unicode.IsUpper(rune(original[0])) {
		return strings.ToUpper(result[:1]) + result[1:]
	}
	return result
}
