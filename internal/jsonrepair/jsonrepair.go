// Package jsonrepair decodes analysis report documents that may have been
// truncated before storage. The fallback chain is strict parse, regex
// extraction of the analysis array, bracket balancing, then empty.
package jsonrepair

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Status classifies how a stored report document was decoded.
type Status string

const (
	// StatusComplete means the document parsed strictly.
	StatusComplete Status = "complete"
	// StatusTruncated means partial data was recovered from a cut-off document.
	StatusTruncated Status = "truncated"
	// StatusCorrupted means no structure could be recovered.
	StatusCorrupted Status = "corrupted"
	// StatusMissing means the stored text was empty.
	StatusMissing Status = "missing"
)

var (
	analysisArrayRe = regexp.MustCompile(`"analysis"\s*:\s*\[`)
	fieldRe         = regexp.MustCompile(`"([A-Za-z0-9_]+)"\s*:\s*(?:"((?:[^"\\]|\\.)*)"|(-?\d+(?:\.\d+)?)|(true|false|null))`)
	danglingKeyRe   = regexp.MustCompile(`,?\s*"(?:[^"\\]|\\.)*"\s*:?\s*$`)
	trailingCommaRe = regexp.MustCompile(`,\s*$`)
)

// Decode parses a stored report document, recovering what it can from
// truncated text. It never fails; callers branch on the returned Status.
func Decode(raw string) (map[string]any, Status) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, StatusMissing
	}

	if doc, ok := strictParse(trimmed); ok {
		return doc, StatusComplete
	}

	if doc, ok := extractAnalysis(trimmed); ok {
		return doc, StatusTruncated
	}

	if doc, ok := balanceAndParse(trimmed); ok {
		return doc, StatusTruncated
	}

	return nil, StatusCorrupted
}

func strictParse(raw string) (map[string]any, bool) {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, false
	}

	switch typed := value.(type) {
	case map[string]any:
		return typed, true
	case []any:
		// Some pipeline versions stored the analysis array bare.
		return map[string]any{"analysis": typed}, true
	default:
		return nil, false
	}
}

// extractAnalysis pulls the "analysis": [...] fragment out of a document whose
// tail was cut off after the array. Complete entries parse directly; damaged
// entries are rebuilt field by field.
func extractAnalysis(raw string) (map[string]any, bool) {
	loc := analysisArrayRe.FindStringIndex(raw)
	if loc == nil {
		return nil, false
	}

	entries := make([]any, 0)
	for _, object := range scanObjects(raw[loc[1]:]) {
		var entry map[string]any
		if err := json.Unmarshal([]byte(object), &entry); err == nil {
			entries = append(entries, entry)
			continue
		}
		if rebuilt := rebuildEntry(object); len(rebuilt) > 0 {
			entries = append(entries, rebuilt)
		}
	}

	if len(entries) == 0 {
		return nil, false
	}

	doc := map[string]any{"analysis": entries}
	// Scalar fields stored before the array survive truncation; keep them.
	for key, value := range rebuildEntry(raw[:loc[0]]) {
		doc[key] = value
	}

	return doc, true
}

// scanObjects returns the top-level {...} objects of an array body, stopping
// at the first incomplete one.
func scanObjects(body string) []string {
	objects := make([]string, 0)
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(body); i++ {
		ch := body[i]
		if inString {
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start >= 0 {
				objects = append(objects, body[start:i+1])
				start = -1
			}
		case ']':
			if depth == 0 {
				return objects
			}
		}
	}

	return objects
}

// rebuildEntry recovers key/value pairs from a damaged object fragment.
func rebuildEntry(fragment string) map[string]any {
	entry := make(map[string]any)
	for _, match := range fieldRe.FindAllStringSubmatch(fragment, -1) {
		key := match[1]
		switch {
		case match[3] != "":
			if number, err := strconv.ParseFloat(match[3], 64); err == nil {
				entry[key] = number
			}
		case match[4] == "true":
			entry[key] = true
		case match[4] == "false":
			entry[key] = false
		case match[4] == "null":
			entry[key] = nil
		default:
			var text string
			if err := json.Unmarshal([]byte(`"`+match[2]+`"`), &text); err == nil {
				entry[key] = text
			} else {
				entry[key] = match[2]
			}
		}
	}

	return entry
}

// balanceAndParse cuts the document back to the last structurally complete
// value and appends closing brackets for every unterminated structure.
func balanceAndParse(raw string) (map[string]any, bool) {
	stack := make([]byte, 0, 8)
	inString := false
	escaped := false
	lastSafe := -1

	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
				lastSafe = i
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, ch)
		case '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
				lastSafe = i
			}
		case ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
				lastSafe = i
			}
		default:
			// Trailing character of a number or of true/false/null.
			if (ch >= '0' && ch <= '9') || ch == 'e' || ch == 'l' || ch == '.' {
				lastSafe = i
			}
		}
	}

	if lastSafe < 0 || len(stack) == 0 {
		return nil, false
	}

	closers := make([]byte, len(stack))
	for i, opener := range stack {
		if opener == '{' {
			closers[len(stack)-1-i] = '}'
		} else {
			closers[len(stack)-1-i] = ']'
		}
	}

	body := raw[:lastSafe+1]
	attempts := []string{
		body,
		// The cut may leave a key with no value, or a trailing comma.
		trailingCommaRe.ReplaceAllString(danglingKeyRe.ReplaceAllString(body, ""), ""),
	}

	for _, attempt := range attempts {
		if doc, ok := strictParse(attempt + string(closers)); ok {
			return doc, true
		}
	}

	return nil, false
}
