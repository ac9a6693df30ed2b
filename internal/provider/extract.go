package provider

import "encoding/json"

// maxExtractCandidates bounds how many balanced objects are decoded while
// looking for the answer, newest first.
const maxExtractCandidates = 64

// ExtractLastJSONObject finds the last balanced {...} substring of text that
// parses as a JSON object containing every required key. Reasoning models
// often think aloud before answering, so earlier objects are ignored.
func ExtractLastJSONObject(text string, requiredKeys ...string) (json.RawMessage, bool) {
	spans := balancedObjects(text)

	// Spans are ordered by closing offset, so the last qualifying one is the
	// outermost answer and never nested inside another match.
	tried := 0
	for i := len(spans) - 1; i >= 0 && tried < maxExtractCandidates; i-- {
		candidate := text[spans[i][0] : spans[i][1]+1]
		tried++
		if hasKeys(candidate, requiredKeys) {
			return json.RawMessage(candidate), true
		}
	}
	return nil, false
}

// balancedObjects scans text once and returns the [open, close] offsets of
// every balanced brace pair in closing order. Quotes only start a JSON
// string while some brace is open; braces inside strings are skipped.
func balancedObjects(text string) [][2]int {
	var (
		open     []int
		spans    [][2]int
		inString bool
		escaped  bool
	)

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
			inString = len(open) > 0
		case '{':
			open = append(open, i)
		case '}':
			if len(open) == 0 {
				continue
			}
			start := open[len(open)-1]
			open = open[:len(open)-1]
			spans = append(spans, [2]int{start, i})
		}
	}
	return spans
}

func hasKeys(candidate string, keys []string) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return false
	}
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			return false
		}
	}
	return true
}
