// Package scriptjson isolates JSON objects embedded inside script text,
// such as a payload passed as an argument to a bootstrap call in an
// inline <script> block. It performs no network I/O and keeps no state.
package scriptjson

import (
	"encoding/json"
	"strings"

	"github.com/ysmood/gson"
)

// Status classifies the result of an extraction attempt.
type Status int

const (
	// StatusFound means a balanced span was located and decoded.
	StatusFound Status = iota
	// StatusNotFound means the marker (or any brace after it) is absent.
	StatusNotFound
	// StatusMalformedJSON means a candidate span exists but is not a
	// well-formed JSON object (unbalanced braces or a decode failure).
	StatusMalformedJSON
)

// String returns a human readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not_found"
	case StatusMalformedJSON:
		return "malformed_json"
	}
	return "unknown"
}

// Outcome is the three-way result of Extract. Payload and End are only
// meaningful when Status is StatusFound; Err carries the decode error
// for StatusMalformedJSON when one exists.
type Outcome struct {
	Status  Status
	Payload gson.JSON
	// End is the offset just past the closing brace of the matched
	// span. Re-invoking Extract on doc[End:] yields the next
	// occurrence, if any.
	End int
	Err error
}

// scanner states for the balance check
const (
	stateNormal = iota
	stateInString
	stateEscaped
)

// Extract locates the first occurrence of marker in doc, then the first
// JSON object literal after it, and decodes it. Braces inside
// double-quoted string literals are ignored while balancing, so titles
// containing literal braces do not break the span detection.
//
// Extract is a pure function of its inputs: every input maps to exactly
// one outcome and no caller state is touched.
func Extract(doc, marker string) Outcome {
	markerIdx := strings.Index(doc, marker)
	if markerIdx < 0 {
		return Outcome{Status: StatusNotFound}
	}

	rest := doc[markerIdx+len(marker):]
	openRel := strings.IndexByte(rest, '{')
	if openRel < 0 {
		return Outcome{Status: StatusNotFound}
	}
	open := markerIdx + len(marker) + openRel

	end, ok := balancedSpanEnd(doc[open:])
	if !ok {
		return Outcome{Status: StatusMalformedJSON}
	}

	span := doc[open : open+end]
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return Outcome{Status: StatusMalformedJSON, Err: err}
	}

	return Outcome{
		Status:  StatusFound,
		Payload: gson.New(raw),
		End:     open + end,
	}
}

// ExtractAll re-invokes Extract on the remainder of doc after each
// found span and returns every payload in order. Malformed occurrences
// stop the scan; the payloads found so far are returned.
func ExtractAll(doc, marker string) []gson.JSON {
	var payloads []gson.JSON
	for {
		outcome := Extract(doc, marker)
		if outcome.Status != StatusFound {
			return payloads
		}
		payloads = append(payloads, outcome.Payload)
		doc = doc[outcome.End:]
	}
}

// balancedSpanEnd scans s, which must start at an opening brace, and
// returns the offset just past the matching closing brace. The counter
// only reacts to braces outside string literals; backslash escapes
// inside strings are honored so an escaped quote does not end a string.
func balancedSpanEnd(s string) (int, bool) {
	depth := 0
	state := stateNormal

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch state {
		case stateNormal:
			switch c {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return i + 1, true
				}
			case '"':
				state = stateInString
			}
		case stateInString:
			switch c {
			case '\\':
				state = stateEscaped
			case '"':
				state = stateNormal
			}
		case stateEscaped:
			state = stateInString
		}
	}

	return 0, false
}
