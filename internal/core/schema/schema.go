// Package schema implements the structural validation of transaction payloads.
//
// Schemas are plain data: an ordered list of declared properties with their JSON
// type, bounds and format. Validation walks a raw JSON document with gjson, so
// the distinction between integer and number literals is taken from the source
// text instead of a float64 decode.
package schema

// JSON type names as reported in type mismatch issues.
const (
	TypeString    = "string"
	TypeInteger   = "integer"
	TypeNumber    = "number"
	TypeBoolean   = "boolean"
	TypeArray     = "array"
	TypeObject    = "object"
	TypeNull      = "null"
	TypeUndefined = "undefined"
)

// Property is one declared property of an object schema.
type Property struct {
	Name string

	// Type is the expected JSON type. TypeNumber also accepts integers.
	Type string

	// Format names a string format checked after the type (see formats.go).
	Format string

	// Minimum and Maximum bound integer and number values.
	Minimum *int64
	Maximum *int64

	// MinLength and MaxLength bound string lengths in characters.
	MinLength *int
	MaxLength *int

	// Enum restricts string values to a fixed set.
	Enum []string
}

// Schema describes the structure of a JSON object.
type Schema struct {
	Name string

	// Properties are validated in declaration order.
	Properties []Property

	// Required lists mandatory property names. Missing properties are
	// reported in declaration order of Properties, not of this slice.
	Required []string

	// AdditionalProperties permits properties that are not declared.
	AdditionalProperties bool
}

func (s *Schema) property(name string) (Property, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

func (s *Schema) isRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Int64 returns a pointer to v, for use in Property bounds.
func Int64(v int64) *int64 { return &v }

// Int returns a pointer to v, for use in Property length bounds.
func Int(v int) *int { return &v }
