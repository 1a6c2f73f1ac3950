// Package jsonfix repairs the near-JSON that local models tend to emit
// before it reaches the strict parser. Strategies are applied in order and
// each application is recorded so callers can log what was fixed.
package jsonfix

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Stats records which repair strategies ran and whether any were needed.
type Stats struct {
	WasRepaired bool     `json:"was_repaired"`
	Strategies  []string `json:"strategies,omitempty"`
}

var (
	trailingCommaBrace   = regexp.MustCompile(`,\s*}`)
	trailingCommaBracket = regexp.MustCompile(`,\s*]`)
	unquotedKey          = regexp.MustCompile(`([{,]\s*)([a-zA-Z_][a-zA-Z0-9_]*)(\s*:)`)
)

// Repair returns raw unchanged when it is already valid JSON. Otherwise it
// applies cheap fixups (trailing commas, unquoted keys, unclosed structures)
// and falls back to the jsonrepair library. It fails when the text is still
// not valid JSON afterwards.
func Repair(raw string) (string, Stats, error) {
	var stats Stats

	var probe interface{}
	if json.Unmarshal([]byte(raw), &probe) == nil {
		return raw, stats, nil
	}

	stats.WasRepaired = true
	repaired := raw

	if trailingCommaBrace.MatchString(repaired) || trailingCommaBracket.MatchString(repaired) {
		repaired = trailingCommaBrace.ReplaceAllString(repaired, "}")
		repaired = trailingCommaBracket.ReplaceAllString(repaired, "]")
		stats.Strategies = append(stats.Strategies, "trailing_commas")
	}

	if unquotedKey.MatchString(repaired) {
		repaired = unquotedKey.ReplaceAllString(repaired, `$1"$2"$3`)
		stats.Strategies = append(stats.Strategies, "key_quotes")
	}

	if completed := closeOpenStructures(repaired); completed != repaired {
		repaired = completed
		stats.Strategies = append(stats.Strategies, "completion")
	}

	if json.Unmarshal([]byte(repaired), &probe) == nil {
		return repaired, stats, nil
	}

	// Library fallback handles the cases the cheap strategies miss
	// (single quotes, unescaped quotes, stray text).
	fixed, err := jsonrepair.JSONRepair(repaired)
	if err == nil && json.Unmarshal([]byte(fixed), &probe) == nil {
		stats.Strategies = append(stats.Strategies, "jsonrepair_library")
		return fixed, stats, nil
	}

	return repaired, stats, fmt.Errorf("jsonfix: repair failed after %d strategies", len(stats.Strategies))
}

// closeOpenStructures appends the closing braces/brackets a truncated
// response is missing, last-opened first.
func closeOpenStructures(s string) string {
	s = strings.TrimSpace(s)

	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '{':
			if !inString {
				stack = append(stack, '}')
			}
		case '[':
			if !inString {
				stack = append(stack, ']')
			}
		case '}', ']':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		s += `"`
	}
	for i := len(stack) - 1; i >= 0; i-- {
		s += string(stack[i])
	}
	return s
}
