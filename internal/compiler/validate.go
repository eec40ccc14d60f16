package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/patomic/internal/schema"
)

// Validation error codes (E100-E199)
const (
	ErrMissingField       = "E101" // name, identity or valueType empty
	ErrDuplicateIdent     = "E102" // two attributes render the same ident
	ErrInvalidValueType   = "E103"
	ErrInvalidCardinality = "E104"
	ErrInvalidUnique      = "E105"
	ErrInvalidInstall     = "E106"
	ErrInvalidPartition   = "E107"
	ErrFulltextNotString  = "E110" // fulltext only indexes string values
	ErrComponentNotRef    = "E111" // isComponent requires a ref value type
	ErrUniqueMany         = "E112" // unique identity cannot be cardinality many
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a parsed schema as a whole.
// Returns all errors found (does not fail-fast).
func Validate(specs []AttributeSpec) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]string, len(specs))

	for _, s := range specs {
		field := s.Label
		if field == "" {
			field = s.Ident()
		}
		add := func(code, format string, args ...any) {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf(format, args...),
				Code:    code,
				Line:    s.Pos.Line(),
			})
		}

		if s.Name == "" || s.Identity == "" || s.ValueType == "" {
			add(ErrMissingField, "name, identity and valueType must be non-empty")
			continue
		}
		ident := s.Ident()
		if prev, ok := seen[ident]; ok {
			add(ErrDuplicateIdent, "ident :%s is already defined by %s", ident, prev)
		} else {
			seen[ident] = field
		}

		valueType := strings.ToLower(s.ValueType)
		if !slices.Contains(schema.ValueTypes, valueType) {
			add(ErrInvalidValueType, "valueType %q is not one of [%s]", s.ValueType, strings.Join(schema.ValueTypes, ", "))
		}
		cardinality := strings.ToLower(s.Cardinality)
		if !slices.Contains(schema.Cardinalities, cardinality) {
			add(ErrInvalidCardinality, "cardinality %q is not one of [%s]", s.Cardinality, strings.Join(schema.Cardinalities, ", "))
		}
		if s.Unique != "" && !slices.Contains(schema.Uniqueness, strings.ToLower(s.Unique)) {
			add(ErrInvalidUnique, "unique %q is not one of [%s]", s.Unique, strings.Join(schema.Uniqueness, ", "))
		}
		if !slices.Contains(schema.InstallTypes, strings.ToLower(s.Install)) {
			add(ErrInvalidInstall, "install %q is not one of [%s]", s.Install, strings.Join(schema.InstallTypes, ", "))
		}
		if !slices.Contains(schema.Partitions, s.Partition) {
			add(ErrInvalidPartition, "partition %q is not one of [%s]", s.Partition, strings.Join(schema.Partitions, ", "))
		}

		if s.Fulltext && valueType != "string" {
			add(ErrFulltextNotString, "fulltext requires valueType string, got %s", valueType)
		}
		if s.IsComponent && valueType != "ref" {
			add(ErrComponentNotRef, "isComponent requires valueType ref, got %s", valueType)
		}
		if strings.EqualFold(s.Unique, "identity") && cardinality == "many" {
			add(ErrUniqueMany, "unique identity requires cardinality one")
		}
	}
	return errs
}
