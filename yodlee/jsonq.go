package yodlee

import (
	"encoding/json"
	"strconv"

	"github.com/PaesslerAG/jsonpath"
)

// stringAt extracts a string at a JSONPath. The second return is false when
// the path is absent or the value is not a string.
func stringAt(doc any, path string) (string, bool) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// intAt extracts an integer at a JSONPath. Documents decoded with UseNumber
// carry json.Number; documents built in tests may carry float64 instead, so
// both are accepted as long as the value is integral.
func intAt(doc any, path string) (int64, bool) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case float64:
		i := int64(n)
		if float64(i) != n {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// arrayAt extracts a JSON array at a JSONPath.
func arrayAt(doc any, path string) ([]any, bool) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, false
	}
	arr, ok := v.([]any)
	return arr, ok
}

// scalarAt extracts a scalar at a JSONPath rendered as a form value.
func scalarAt(doc any, path string) (string, bool) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return "", false
	}
	return formValue(v)
}

// formValue renders a decoded JSON scalar the way it is sent on the wire:
// numbers verbatim, booleans as true/false. Objects, arrays and null do not
// render.
func formValue(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	case bool:
		return strconv.FormatBool(s), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	}
	return "", false
}
