package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSONBlock returns the first balanced {...} substring of s, or
// ok=false when none is found. Brace counting skips braces inside JSON
// string literals so prose like `{"note": "a } inside"}` stays balanced.
func ExtractJSONBlock(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
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

// DecodeJSONBlock extracts the first balanced JSON object from a free-text
// collaborator response and unmarshals it into v. It is the total,
// never-throwing half of the parse-or-default contract: ok=false means the
// caller must fall back to its documented default value.
func DecodeJSONBlock(s string, v any) bool {
	block, found := ExtractJSONBlock(s)
	if !found {
		return false
	}
	return json.Unmarshal([]byte(block), v) == nil
}
