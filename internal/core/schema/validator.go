package schema

import (
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const rootPath = "#/"

// Validator checks payloads against the schemas of a Registry.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	registry *Registry
}

// NewValidator returns a validator bound to the given registry.
func NewValidator(registry *Registry) *Validator {
	return &Validator{registry: registry}
}

// Registry returns the schema registry the validator reads from.
func (v *Validator) Registry() *Registry {
	return v.registry
}

// Validate checks a raw JSON payload against the named schema.
//
// Issues are reported in a fixed order so that messages are stable: missing
// required properties, then type mismatches, then bound, length, enum and
// format violations, each group following the schema's declaration order, and
// finally undeclared properties in payload order.
func (v *Validator) Validate(payload []byte, schemaName string) Result {
	if !gjson.ValidBytes(payload) {
		return invalid(Issue{Kind: KindInvalidJSON, Message: "Invalid JSON payload", Path: rootPath})
	}
	return v.ValidateValue(gjson.ParseBytes(payload), schemaName)
}

// ValidateValue checks an already parsed JSON value against the named schema.
func (v *Validator) ValidateValue(value gjson.Result, schemaName string) Result {
	s, ok := v.registry.Lookup(schemaName)
	if !ok {
		return invalid(Issue{Kind: KindUnknownSchema, Message: "Unknown schema: " + schemaName, Path: rootPath})
	}
	issues := validateObject(s, value, rootPath)
	return Result{Valid: len(issues) == 0, Issues: issues}
}

func invalid(issue Issue) Result {
	return Result{Valid: false, Issues: []Issue{issue}}
}

func validateObject(s *Schema, value gjson.Result, path string) []Issue {
	if actual := TypeOf(value); actual != TypeObject {
		return []Issue{typeMismatch(TypeObject, actual, path)}
	}

	var issues []Issue

	// A null property is treated as absent.
	present := func(name string) (gjson.Result, bool) {
		field := value.Get(name)
		if !field.Exists() || field.Type == gjson.Null {
			return field, false
		}
		return field, true
	}

	for _, p := range s.Properties {
		if !s.isRequired(p.Name) {
			continue
		}
		if _, ok := present(p.Name); !ok {
			issues = append(issues, Issue{
				Kind:    KindMissingRequired,
				Message: "Missing required property: " + p.Name,
				Path:    path,
			})
		}
	}

	typed := make([]Property, 0, len(s.Properties))
	for _, p := range s.Properties {
		field, ok := present(p.Name)
		if !ok {
			continue
		}
		if actual := TypeOf(field); !typeMatches(p.Type, actual) {
			issues = append(issues, typeMismatch(p.Type, actual, path+p.Name))
			continue
		}
		typed = append(typed, p)
	}

	for _, p := range typed {
		field, _ := present(p.Name)
		issues = append(issues, checkConstraints(p, field, path+p.Name)...)
	}

	if !s.AdditionalProperties {
		value.ForEach(func(key, _ gjson.Result) bool {
			if _, declared := s.property(key.String()); !declared {
				issues = append(issues, Issue{
					Kind:    KindAdditionalProperty,
					Message: "Additional properties not allowed: " + key.String(),
					Path:    path + key.String(),
				})
			}
			return true
		})
	}

	return issues
}

func checkConstraints(p Property, field gjson.Result, path string) []Issue {
	var issues []Issue

	switch p.Type {
	case TypeInteger, TypeNumber:
		d, err := decimal.NewFromString(field.Raw)
		if err != nil {
			return nil
		}
		if p.Minimum != nil && d.LessThan(decimal.NewFromInt(*p.Minimum)) {
			issues = append(issues, Issue{
				Kind:    KindMinimum,
				Message: fmt.Sprintf("Value %s is less than minimum %d", field.Raw, *p.Minimum),
				Path:    path,
			})
		}
		if p.Maximum != nil && d.GreaterThan(decimal.NewFromInt(*p.Maximum)) {
			issues = append(issues, Issue{
				Kind:    KindMaximum,
				Message: fmt.Sprintf("Value %s is greater than maximum %d", field.Raw, *p.Maximum),
				Path:    path,
			})
		}

	case TypeString:
		str := field.String()
		n := utf8.RuneCountInString(str)
		if p.MinLength != nil && n < *p.MinLength {
			issues = append(issues, Issue{
				Kind:    KindMinLength,
				Message: fmt.Sprintf("String is too short (%d chars), minimum %d", n, *p.MinLength),
				Path:    path,
			})
		}
		if p.MaxLength != nil && n > *p.MaxLength {
			issues = append(issues, Issue{
				Kind:    KindMaxLength,
				Message: fmt.Sprintf("String is too long (%d chars), maximum %d", n, *p.MaxLength),
				Path:    path,
			})
		}
		if len(p.Enum) > 0 && !contains(p.Enum, str) {
			issues = append(issues, Issue{
				Kind:    KindEnumMismatch,
				Message: "No enum match for: " + str,
				Path:    path,
			})
		}
		// Empty strings are left to the length bounds.
		if p.Format != "" && str != "" && !CheckFormat(p.Format, str) {
			issues = append(issues, Issue{
				Kind:    KindFormatViolation,
				Message: fmt.Sprintf("Object didn't pass validation for format %s: %s", p.Format, str),
				Path:    path,
			})
		}
	}

	return issues
}

func typeMismatch(expected, actual, path string) Issue {
	return Issue{
		Kind:    KindTypeMismatch,
		Message: fmt.Sprintf("Expected type %s but found type %s", expected, actual),
		Path:    path,
	}
}

func typeMatches(expected, actual string) bool {
	if expected == actual {
		return true
	}
	return expected == TypeNumber && actual == TypeInteger
}

// TypeOf returns the JSON type name of a parsed value. Numbers whose literal
// denotes a whole value (1, -3, 1.0, 2e3) are integers.
func TypeOf(v gjson.Result) string {
	if !v.Exists() {
		return TypeUndefined
	}
	switch v.Type {
	case gjson.Null:
		return TypeNull
	case gjson.True, gjson.False:
		return TypeBoolean
	case gjson.String:
		return TypeString
	case gjson.Number:
		d, err := decimal.NewFromString(v.Raw)
		if err == nil && d.IsInteger() {
			return TypeInteger
		}
		return TypeNumber
	case gjson.JSON:
		if v.IsArray() {
			return TypeArray
		}
		return TypeObject
	}
	return TypeUndefined
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
