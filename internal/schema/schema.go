// Package schema declares typed output structures and parses model text into
// them. A Schema is built once and reused; parsing never mutates it.
package schema

import (
	"fmt"
	"strings"
)

// FieldType is the closed set of value types a field may declare.
type FieldType string

const (
	TypeString     FieldType = "string"
	TypeInt        FieldType = "integer"
	TypeFloat      FieldType = "number"
	TypeBool       FieldType = "boolean"
	TypeStringList FieldType = "list_of_string"
	TypeObject     FieldType = "object"
)

// Absent is the explicit marker stored for optional fields the response did
// not include. Required fields never default; their omission is a ParseError.
type absentMarker struct{}

func (absentMarker) String() string { return "<absent>" }

// Absent is the singleton absent-value marker.
var Absent = absentMarker{}

// Field declares one named, typed slot in a Schema.
type Field struct {
	Name        string
	Type        FieldType
	Description string
	Required    bool
	// Nested holds the sub-schema for TypeObject fields.
	Nested *Schema
}

// Schema is a named set of typed fields.
type Schema struct {
	Name   string
	Fields []Field
}

// New builds a schema. Field order is preserved for format instructions.
func New(name string, fields ...Field) *Schema {
	return &Schema{Name: name, Fields: fields}
}

// Validate checks structural sanity: non-empty names, nested schemas present
// where declared.
func (s *Schema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("schema: name is required")
	}
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema %s: field with empty name", s.Name)
		}
		if f.Type == TypeObject {
			if f.Nested == nil {
				return fmt.Errorf("schema %s: object field %q has no nested schema", s.Name, f.Name)
			}
			if err := f.Nested.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// FormatInstructions renders the directions appended to a prompt so the
// model emits JSON matching this schema.
func (s *Schema) FormatInstructions() string {
	var b strings.Builder
	b.WriteString("Respond with a JSON object matching this structure. ")
	b.WriteString("Do not include any text outside the JSON.\n")
	b.WriteString(s.skeleton(0))
	return b.String()
}

func (s *Schema) skeleton(indent int) string {
	pad := strings.Repeat("  ", indent)
	inner := strings.Repeat("  ", indent+1)

	var b strings.Builder
	b.WriteString("{\n")
	for i, f := range s.Fields {
		b.WriteString(inner)
		b.WriteString(fmt.Sprintf("%q: ", f.Name))
		switch f.Type {
		case TypeString:
			b.WriteString(fmt.Sprintf("\"<string: %s>\"", f.describe()))
		case TypeInt:
			b.WriteString(fmt.Sprintf("\"<integer: %s>\"", f.describe()))
		case TypeFloat:
			b.WriteString(fmt.Sprintf("\"<number: %s>\"", f.describe()))
		case TypeBool:
			b.WriteString(fmt.Sprintf("\"<boolean: %s>\"", f.describe()))
		case TypeStringList:
			b.WriteString(fmt.Sprintf("[\"<string: %s>\"]", f.describe()))
		case TypeObject:
			b.WriteString(f.Nested.skeleton(indent + 1))
		}
		if i < len(s.Fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(pad)
	b.WriteString("}")
	return b.String()
}

func (f Field) describe() string {
	if f.Description != "" {
		return f.Description
	}
	return f.Name
}
