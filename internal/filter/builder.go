// Package filter turns declarative filter specifications into the
// query shape the catalog capability consumes.
package filter

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sinharash/entitypick/internal/catalog"
	"github.com/sinharash/entitypick/internal/template"
)

// Spec is one declarative filter specification: a mapping from field
// path to a literal, a list of literals (OR over values), or the
// existence marker {"exists": true}. Entries within one spec are ANDed.
type Spec map[string]any

// MalformedError reports a filter specification the builder refuses to
// interpret. It always fails fast; a bad filter never silently becomes
// a match-nothing or match-everything query.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return "malformed filter: " + e.Reason
}

// IsMalformed reports whether err is a MalformedError.
func IsMalformed(err error) bool {
	var me *MalformedError
	return errors.As(err, &me)
}

// Build converts filter specifications into a catalog query. Multiple
// specs are unioned (the store ORs across groups). The allowedKinds
// shorthand is equivalent to the single spec {kind: allowedKinds} and
// applies only when no explicit spec is given.
func Build(specs []Spec, allowedKinds []string) (catalog.Query, error) {
	if len(specs) == 0 {
		if len(allowedKinds) == 0 {
			return catalog.Query{}, nil
		}
		return catalog.Query{Groups: []catalog.FilterGroup{
			{"kind": catalog.MatchAny(allowedKinds...)},
		}}, nil
	}

	groups := make([]catalog.FilterGroup, 0, len(specs))
	for _, spec := range specs {
		g, err := buildGroup(spec)
		if err != nil {
			return catalog.Query{}, err
		}
		groups = append(groups, g)
	}
	return catalog.Query{Groups: groups}, nil
}

// buildGroup converts one spec into a filter group.
func buildGroup(spec Spec) (catalog.FilterGroup, error) {
	if len(spec) == 0 {
		return nil, &MalformedError{Reason: "empty filter specification"}
	}
	g := make(catalog.FilterGroup, len(spec))

	// Deterministic iteration keeps error messages stable.
	keys := make([]string, 0, len(spec))
	for k := range spec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == "" {
			return nil, &MalformedError{Reason: "filter key must not be empty"}
		}
		m, err := buildMatcher(key, spec[key])
		if err != nil {
			return nil, err
		}
		g[key] = m
	}
	return g, nil
}

func buildMatcher(key string, value any) (catalog.Matcher, error) {
	switch v := value.(type) {
	case map[string]any:
		// The existence marker becomes the reserved token, never the
		// literal string "true".
		if exists, ok := v["exists"].(bool); ok && exists && len(v) == 1 {
			return catalog.MatchExists, nil
		}
		return catalog.Matcher{}, &MalformedError{
			Reason: fmt.Sprintf("field %q: object values must be {exists: true}", key),
		}
	case []any:
		if len(v) == 0 {
			return catalog.Matcher{}, &MalformedError{
				Reason: fmt.Sprintf("field %q: value list must not be empty", key),
			}
		}
		values := make([]string, len(v))
		for i, e := range v {
			values[i] = template.Coerce(e)
		}
		return catalog.MatchAny(values...), nil
	case []string:
		if len(v) == 0 {
			return catalog.Matcher{}, &MalformedError{
				Reason: fmt.Sprintf("field %q: value list must not be empty", key),
			}
		}
		return catalog.MatchAny(v...), nil
	default:
		return catalog.MatchValue(template.Coerce(value)), nil
	}
}
