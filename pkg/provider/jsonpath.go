package provider

import (
	"strconv"
	"strings"

	"github.com/oradev/ora/pkg/errors"
)

// EvaluateJSONPath walks a decoded JSON document with a deliberately
// small path dialect: "$.a.b[*].c". A "[*]" suffix iterates the array at
// that field; leaves are coerced to strings. Anything fancier belongs in
// a custom-api recipe's regex instead.
func EvaluateJSONPath(path string, doc interface{}) ([]string, error) {
	trimmed := strings.TrimPrefix(path, "$")
	trimmed = strings.TrimPrefix(trimmed, ".")
	if trimmed == "" {
		return leafStrings(doc), nil
	}

	segments := strings.Split(trimmed, ".")
	nodes := []interface{}{doc}

	for _, seg := range segments {
		iterate := strings.HasSuffix(seg, "[*]")
		field := strings.TrimSuffix(seg, "[*]")
		if field == "" {
			return nil, errors.Newf(errors.ErrRepoFormat, "invalid JSON path segment in %q", path)
		}

		var next []interface{}
		for _, node := range nodes {
			obj, ok := node.(map[string]interface{})
			if !ok {
				continue
			}
			value, ok := obj[field]
			if !ok {
				continue
			}
			if iterate {
				arr, ok := value.([]interface{})
				if !ok {
					continue
				}
				next = append(next, arr...)
			} else {
				next = append(next, value)
			}
		}
		nodes = next
	}

	var out []string
	for _, node := range nodes {
		out = append(out, leafStrings(node)...)
	}
	return out, nil
}

// leafStrings coerces a leaf value to strings; arrays of leaves flatten.
func leafStrings(v interface{}) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case float64:
		return []string{strconv.FormatFloat(val, 'f', -1, 64)}
	case bool:
		return []string{strconv.FormatBool(val)}
	case []interface{}:
		var out []string
		for _, item := range val {
			out = append(out, leafStrings(item)...)
		}
		return out
	default:
		return nil
	}
}
