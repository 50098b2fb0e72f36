// Package fieldpath provides safe nested-field access on arbitrary
// JSON-like documents (maps, slices, and primitives as produced by
// encoding/json unmarshaling into any).
package fieldpath

import (
	"strconv"
	"strings"
)

// Get resolves a dot-separated path against a document and returns the
// value at that path, or nil if any step fails. A segment that parses
// as a non-negative integer is treated as an index when the current
// value is a slice, and as a map key otherwise. Get never panics:
// nil intermediates, out-of-range indices, and traversal into
// non-container values all yield nil.
func Get(doc any, path string) any {
	if path == "" {
		return nil
	}
	cur := doc
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return nil
		}
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil
			}
			cur = v[idx]
		default:
			return nil
		}
	}
	return cur
}

// Has reports whether the path resolves to a present value. A present
// value may still be JSON null; Has only distinguishes reachable from
// unreachable paths, which is what existence filters need.
func Has(doc any, path string) bool {
	if path == "" {
		return false
	}
	cur := doc
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return false
		}
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return false
			}
			cur = v[idx]
		default:
			return false
		}
	}
	return true
}
