// internal/providers/common/jsonx.go
package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONPayload pulls a JSON object out of a possibly decorated model
// response. Models routinely wrap their JSON in markdown code fences or
// surround it with prose; we strip a fence if present, otherwise take the
// first balanced {...} span.
func ExtractJSONPayload(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty response")
	}

	if fenced, ok := stripCodeFence(s); ok {
		s = fenced
	}

	if strings.HasPrefix(s, "{") && json.Valid([]byte(s)) {
		return s, nil
	}

	span, ok := firstBalancedObject(s)
	if !ok {
		return "", fmt.Errorf("no JSON object found in response")
	}
	if !json.Valid([]byte(span)) {
		return "", fmt.Errorf("extracted span is not valid JSON")
	}
	return span, nil
}

// DecodeJSONPayload extracts and unmarshals in one step, tagging failures
// with the stage name for the error taxonomy.
func DecodeJSONPayload(raw, stage string, out interface{}) error {
	payload, err := ExtractJSONPayload(raw)
	if err != nil {
		return NewParseError(stage, err)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return NewParseError(stage, err)
	}
	return nil
}

func stripCodeFence(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start == -1 {
		return "", false
	}
	rest := s[start+3:]
	// Skip a language tag like "json" on the fence line.
	if nl := strings.Index(rest, "\n"); nl != -1 {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end == -1 {
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:end]), true
}

// firstBalancedObject scans for the first top-level {...} span, tracking
// string literals so braces inside quoted text do not break the balance.
func firstBalancedObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
