package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/promptflow/internal/schema/jsonfix"
)

// ParseError carries the raw model text alongside the reason parsing failed.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("schema: parse failed: %s", e.Reason)
}

func parseErrf(raw, format string, args ...interface{}) *ParseError {
	return &ParseError{Raw: raw, Reason: fmt.Sprintf(format, args...)}
}

// Result is a parsed value mapping conforming to a Schema. Optional fields
// the response omitted map to the Absent marker.
type Result map[string]interface{}

// Nested returns the sub-result for an object field, or nil when absent.
func (r Result) Nested(name string) Result {
	if sub, ok := r[name].(Result); ok {
		return sub
	}
	return nil
}

// Parser validates model output against a target Schema.
type Parser struct {
	schema *Schema
}

// NewParser builds a schema parser. The schema must already be validated.
func NewParser(s *Schema) *Parser {
	return &Parser{schema: s}
}

// FormatInstructions delegates to the schema.
func (p *Parser) FormatInstructions() string {
	return p.schema.FormatInstructions()
}

// Parse extracts the JSON payload from text (handling markdown fences and
// surrounding prose), repairs near-JSON, and validates it against the
// schema. Missing required fields and type mismatches fail; optional
// omissions resolve to the Absent marker.
func (p *Parser) Parse(text string) (Result, error) {
	payload := ExtractJSON(text)
	if payload == "" {
		return nil, parseErrf(text, "no JSON object found in response")
	}

	repaired, _, err := jsonfix.Repair(payload)
	if err != nil {
		return nil, parseErrf(text, "malformed JSON: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
		return nil, parseErrf(text, "response is not a JSON object: %v", err)
	}

	return coerceObject(text, p.schema, raw)
}

func coerceObject(raw string, s *Schema, obj map[string]interface{}) (Result, error) {
	out := make(Result, len(s.Fields))
	for _, f := range s.Fields {
		val, present := obj[f.Name]
		if !present || val == nil {
			if f.Required {
				return nil, parseErrf(raw, "missing required field %q", f.Name)
			}
			out[f.Name] = Absent
			continue
		}

		coerced, err := coerceValue(raw, f, val)
		if err != nil {
			return nil, err
		}
		out[f.Name] = coerced
	}
	return out, nil
}

func coerceValue(raw string, f Field, val interface{}) (interface{}, error) {
	switch f.Type {
	case TypeString:
		s, ok := val.(string)
		if !ok {
			return nil, parseErrf(raw, "field %q: expected string, got %T", f.Name, val)
		}
		return s, nil

	case TypeInt:
		n, ok := val.(float64)
		if !ok || n != math.Trunc(n) {
			return nil, parseErrf(raw, "field %q: expected integer, got %v", f.Name, val)
		}
		return int(n), nil

	case TypeFloat:
		n, ok := val.(float64)
		if !ok {
			return nil, parseErrf(raw, "field %q: expected number, got %T", f.Name, val)
		}
		return n, nil

	case TypeBool:
		b, ok := val.(bool)
		if !ok {
			return nil, parseErrf(raw, "field %q: expected boolean, got %T", f.Name, val)
		}
		return b, nil

	case TypeStringList:
		items, ok := val.([]interface{})
		if !ok {
			return nil, parseErrf(raw, "field %q: expected list, got %T", f.Name, val)
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, parseErrf(raw, "field %q: expected list of strings, got element %T", f.Name, item)
			}
			out = append(out, s)
		}
		return out, nil

	case TypeObject:
		obj, ok := val.(map[string]interface{})
		if !ok {
			return nil, parseErrf(raw, "field %q: expected object, got %T", f.Name, val)
		}
		return coerceObject(raw, f.Nested, obj)

	default:
		return nil, parseErrf(raw, "field %q: unknown type %q", f.Name, f.Type)
	}
}

// ExtractJSON pulls the JSON object out of model text, preferring fenced
// ```json blocks and falling back to the outermost brace pair.
func ExtractJSON(text string) string {
	if idx := strings.Index(text, "```json"); idx != -1 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
		// Fence never closed; fall through to brace matching on the rest.
		text = rest
	} else if idx := strings.Index(text, "```"); idx != -1 {
		rest := text[idx+3:]
		if end := strings.Index(rest, "```"); end != -1 {
			candidate := strings.TrimSpace(rest[:end])
			if strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(text, "}")
	if end > start {
		return strings.TrimSpace(text[start : end+1])
	}
	// Truncated object; hand the open brace onward and let repair close it.
	return strings.TrimSpace(text[start:])
}

// ListParser splits a comma-delimited response into an ordered string slice.
// It fails only when no non-empty items remain.
type ListParser struct{}

// FormatInstructions tells the model to emit a flat comma-separated line.
func (ListParser) FormatInstructions() string {
	return "Respond with a single line of comma-separated values and nothing else, " +
		"for example: item1, item2, item3"
}

// Parse splits on commas, trimming whitespace and dropping empty items.
func (ListParser) Parse(text string) ([]string, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.Trim(cleaned, ".")

	var out []string
	for _, part := range strings.Split(cleaned, ",") {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil, parseErrf(text, "empty list")
	}
	return out, nil
}
