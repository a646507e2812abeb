// Package projector maps extracted script payloads to flat records via
// declarative dot-separated paths. Every lookup is fallible: a missing
// field is reported to the caller instead of silently becoming a zero
// value.
package projector

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/ysmood/gson"
)

// Lookup resolves a dot-separated path ("a.b.0.c") against a payload.
// Map segments are key lookups, array segments are decimal indexes.
// The boolean reports whether every segment resolved; a present null
// value still counts as resolved.
func Lookup(payload gson.JSON, path string) (gson.JSON, bool) {
	if path == "" {
		return payload, true
	}

	cur := payload.Val()
	start := 0
	for i := 0; i <= len(path); i++ {
		if i != len(path) && path[i] != '.' {
			continue
		}
		segment := path[start:i]
		start = i + 1

		switch v := cur.(type) {
		case map[string]interface{}:
			next, ok := v[segment]
			if !ok {
				return gson.JSON{}, false
			}
			cur = next
		case []interface{}:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(v) {
				return gson.JSON{}, false
			}
			cur = v[idx]
		default:
			return gson.JSON{}, false
		}
	}

	return gson.New(cur), true
}

// LookupString resolves a path and renders the value as a string.
// Scalars use their natural textual form; composite values are
// rendered as compact JSON. Null resolves to the empty string.
func LookupString(payload gson.JSON, path string) (string, bool) {
	val, ok := Lookup(payload, path)
	if !ok {
		return "", false
	}
	return stringify(val.Val()), true
}

// Items resolves a path expected to hold an ordered sequence and wraps
// each element for further projection.
func Items(payload gson.JSON, path string) ([]gson.JSON, bool) {
	val, ok := Lookup(payload, path)
	if !ok {
		return nil, false
	}
	arr, ok := val.Val().([]interface{})
	if !ok {
		return nil, false
	}
	items := make([]gson.JSON, len(arr))
	for i, elem := range arr {
		items[i] = gson.New(elem)
	}
	return items, true
}

// Project applies a field→path table to a payload and returns the flat
// record plus the names of fields whose paths did not resolve, sorted
// for stable logging.
func Project(payload gson.JSON, paths map[string]string) (map[string]string, []string) {
	record := make(map[string]string, len(paths))
	var missing []string

	for field, path := range paths {
		value, ok := LookupString(payload, path)
		if !ok {
			missing = append(missing, field)
			continue
		}
		record[field] = value
	}

	sort.Strings(missing)
	return record, missing
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
