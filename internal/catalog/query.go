package catalog

import (
	"sort"
	"strings"

	"github.com/sinharash/entitypick/internal/fieldpath"
)

// Matcher constrains a single field path within a filter group. It is
// either a value matcher (OR over Values) or the reserved existence
// matcher. The existence form is an opaque token distinct from any
// literal, so a field whose real value happens to be "true" can never
// be confused with an existence check.
type Matcher struct {
	Exists bool
	Values []string
}

// MatchValue matches a single literal value.
func MatchValue(v string) Matcher {
	return Matcher{Values: []string{v}}
}

// MatchAny matches any of the given literal values.
func MatchAny(vs ...string) Matcher {
	return Matcher{Values: vs}
}

// MatchExists is the reserved existence token: the field must be
// present, whatever its value.
var MatchExists = Matcher{Exists: true}

// FilterGroup maps field paths to matchers. All entries in one group
// must hold simultaneously.
type FilterGroup map[string]Matcher

// Query is the shape stores consume: zero or more filter groups,
// unioned. An empty query matches every record.
type Query struct {
	Groups []FilterGroup
}

// Matches evaluates the query against a single record. Value matchers
// compare the coerced string form of the field; when the field holds a
// slice, any element may satisfy the matcher. The kind field is
// compared case-insensitively.
func (q Query) Matches(r Record) bool {
	if len(q.Groups) == 0 {
		return true
	}
	for _, g := range q.Groups {
		if groupMatches(g, r) {
			return true
		}
	}
	return false
}

// KindValues returns every kind the query constrains, across all
// groups, in first-seen order. Empty when the query has no kind clause.
func (q Query) KindValues() []string {
	var kinds []string
	seen := make(map[string]bool)
	for _, g := range q.Groups {
		m, ok := g["kind"]
		if !ok || m.Exists {
			continue
		}
		for _, v := range m.Values {
			k := strings.ToLower(v)
			if !seen[k] {
				seen[k] = true
				kinds = append(kinds, v)
			}
		}
	}
	return kinds
}

// Key returns a canonical string form of the query, suitable as a
// cache key and for filter-identity comparison. Groups and fields are
// emitted in sorted order so equivalent queries produce equal keys.
func (q Query) Key() string {
	groups := make([]string, 0, len(q.Groups))
	for _, g := range q.Groups {
		fields := make([]string, 0, len(g))
		for path, m := range g {
			if m.Exists {
				fields = append(fields, path+"?")
				continue
			}
			fields = append(fields, path+"="+strings.Join(m.Values, "|"))
		}
		sort.Strings(fields)
		groups = append(groups, strings.Join(fields, "&"))
	}
	sort.Strings(groups)
	return strings.Join(groups, ";")
}

func groupMatches(g FilterGroup, r Record) bool {
	for path, m := range g {
		if m.Exists {
			if !fieldpath.Has(map[string]any(r), path) {
				return false
			}
			continue
		}
		got := fieldpath.Get(map[string]any(r), path)
		if !valueMatches(got, m.Values, path == "kind") {
			return false
		}
	}
	return true
}

func valueMatches(got any, want []string, foldCase bool) bool {
	candidates := []any{got}
	if list, ok := got.([]any); ok {
		candidates = list
	}
	for _, c := range candidates {
		s := stringify(c)
		if s == "" && c == nil {
			continue
		}
		for _, w := range want {
			if s == w || (foldCase && sameKind(s, w)) {
				return true
			}
		}
	}
	return false
}
