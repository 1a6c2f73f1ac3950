// Package prompt implements parameterized prompt templates. A template is an
// immutable pattern with {name} placeholders; resolving it against a variable
// mapping produces either a string or an ordered message payload.
//
// The variant set is closed: TextTemplate renders a single string,
// ChatTemplate composes role-tagged sub-templates in caller order, and
// FewShotTemplate renders prefix + formatted examples + suffix.
package prompt

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Scans a pattern left to right: doubled braces escape a literal brace,
// a braced name is a placeholder. Alternation order makes {{{name}}} read
// as "{" + placeholder + "}".
var tokenPattern = regexp.MustCompile(`\{\{|}}|\{([a-zA-Z0-9_\-]+)}`)

// MissingVariableError reports the first placeholder that had no value
// supplied at resolution time.
type MissingVariableError struct {
	Name string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("prompt: missing variable %q", e.Name)
}

// Variables returns the distinct placeholder names in pattern, in order of
// first appearance. Escaped braces are not placeholders.
func Variables(pattern string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range tokenPattern.FindAllStringSubmatch(pattern, -1) {
		if m[1] == "" || seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		out = append(out, m[1])
	}
	return out
}

func resolvePattern(pattern string, vars map[string]string) (string, error) {
	var missing string
	resolved := tokenPattern.ReplaceAllStringFunc(pattern, func(raw string) string {
		switch raw {
		case "{{":
			return "{"
		case "}}":
			return "}"
		}
		name := raw[1 : len(raw)-1]
		val, ok := vars[name]
		if !ok {
			if missing == "" {
				missing = name
			}
			return raw
		}
		return val
	})
	if missing != "" {
		return "", &MissingVariableError{Name: missing}
	}
	return resolved, nil
}

// Template resolves named variables into an ordered message payload.
type Template interface {
	// Resolve substitutes every placeholder; it fails with
	// *MissingVariableError if any declared placeholder has no value.
	Resolve(vars map[string]string) ([]Message, error)
	// InputVariables lists the placeholder names the template declares.
	InputVariables() []string
}

// TextTemplate is a single-string pattern rendered as one human message.
type TextTemplate struct {
	pattern  string
	partials map[string]string
}

// NewText creates a text template from a pattern with {name} placeholders.
func NewText(pattern string) *TextTemplate {
	return &TextTemplate{pattern: pattern}
}

// Partial returns a copy with name pre-bound to value. The bound variable no
// longer appears in InputVariables.
func (t *TextTemplate) Partial(name, value string) *TextTemplate {
	partials := make(map[string]string, len(t.partials)+1)
	for k, v := range t.partials {
		partials[k] = v
	}
	partials[name] = value
	return &TextTemplate{pattern: t.pattern, partials: partials}
}

// Render resolves the pattern to a plain string.
func (t *TextTemplate) Render(vars map[string]string) (string, error) {
	merged := t.merge(vars)
	return resolvePattern(t.pattern, merged)
}

func (t *TextTemplate) Resolve(vars map[string]string) ([]Message, error) {
	s, err := t.Render(vars)
	if err != nil {
		return nil, err
	}
	return []Message{Human(s)}, nil
}

func (t *TextTemplate) InputVariables() []string {
	var out []string
	for _, v := range Variables(t.pattern) {
		if _, bound := t.partials[v]; !bound {
			out = append(out, v)
		}
	}
	return out
}

func (t *TextTemplate) merge(vars map[string]string) map[string]string {
	if len(t.partials) == 0 {
		return vars
	}
	merged := make(map[string]string, len(vars)+len(t.partials))
	for k, v := range t.partials {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}
	return merged
}

// RolePattern is one role-tagged sub-template of a ChatTemplate.
type RolePattern struct {
	Role    Role
	Pattern string
}

// ChatTemplate composes role-tagged sub-templates, resolved in the order the
// caller listed them.
type ChatTemplate struct {
	parts []RolePattern
}

// NewChat creates a chat template from role-tagged patterns.
func NewChat(parts ...RolePattern) *ChatTemplate {
	return &ChatTemplate{parts: parts}
}

func (t *ChatTemplate) Resolve(vars map[string]string) ([]Message, error) {
	out := make([]Message, 0, len(t.parts))
	for _, p := range t.parts {
		content, err := resolvePattern(p.Pattern, vars)
		if err != nil {
			return nil, err
		}
		out = append(out, Message{Role: p.Role, Content: content})
	}
	return out, nil
}

func (t *ChatTemplate) InputVariables() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range t.parts {
		for _, v := range Variables(p.Pattern) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// Example is one input/output demonstration for few-shot prompting.
type Example map[string]string

// FewShotTemplate renders a prefix, each example through ExamplePattern, and
// a suffix holding the actual query placeholders.
type FewShotTemplate struct {
	Prefix         string
	ExamplePattern string
	Examples       []Example
	Suffix         string
}

func (t *FewShotTemplate) Resolve(vars map[string]string) ([]Message, error) {
	var b strings.Builder
	if t.Prefix != "" {
		b.WriteString(t.Prefix)
		b.WriteString("\n")
	}
	for _, ex := range t.Examples {
		rendered, err := resolvePattern(t.ExamplePattern, ex)
		if err != nil {
			return nil, err
		}
		b.WriteString(rendered)
		b.WriteString("\n")
	}
	suffix, err := resolvePattern(t.Suffix, vars)
	if err != nil {
		return nil, err
	}
	b.WriteString(suffix)
	return []Message{Human(b.String())}, nil
}

// InputVariables reports only the suffix placeholders; example placeholders
// are satisfied by the examples themselves.
func (t *FewShotTemplate) InputVariables() []string {
	vars := Variables(t.Suffix)
	sort.Strings(vars)
	return vars
}
