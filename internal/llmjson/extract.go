// Package llmjson extracts machine-readable JSON from the free-text replies
// that chat models produce around it.
package llmjson

import (
	"encoding/json"
	"fmt"
)

// ExtractObject returns the first balanced {...} span in text, tolerating
// preamble and epilogue chatter. Braces inside JSON string literals (and
// escape sequences) do not count toward balance. The extracted span is
// validated as parseable JSON before being returned.
func ExtractObject(text string) (json.RawMessage, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]

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
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				span := text[start : i+1]
				if !json.Valid([]byte(span)) {
					return nil, fmt.Errorf("balanced span is not valid JSON")
				}
				return json.RawMessage(span), nil
			}
		}
	}

	if start >= 0 {
		return nil, fmt.Errorf("unterminated JSON object")
	}
	return nil, fmt.Errorf("no JSON object found")
}
