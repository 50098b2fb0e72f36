// Package template renders human-readable labels from catalog records.
//
// A display template is either a placeholder template with zero or more
// "{{ path.expr }}" substitutions, or a fallback chain of path
// expressions joined by " || ". The two forms are mutually exclusive:
// the fallback delimiter is detected first, and only when it is absent
// is the string treated as a placeholder template. Rendering is a pure
// function of (template, record) and never fails — authoring mistakes
// degrade to literal or empty output so a broken template is visible
// in the UI instead of crashing the picker.
package template

import (
	"strings"

	"github.com/sinharash/entitypick/internal/catalog"
)

// RefForm is the reserved template that bypasses placeholder logic and
// renders the record's canonical identifier directly.
const RefForm = "${entity.ref}"

const fallbackDelim = " || "

// Render produces the label for a record under the given template.
func Render(tmpl string, rec catalog.Record) string {
	if strings.TrimSpace(tmpl) == RefForm {
		return rec.Ref().String()
	}
	if strings.Contains(tmpl, fallbackDelim) {
		return renderFallback(tmpl, rec)
	}
	return renderPlaceholders(tmpl, rec)
}

// renderFallback evaluates each alternative as a single path expression
// and returns the first whose coerced value is non-empty after trimming.
func renderFallback(tmpl string, rec catalog.Record) string {
	for _, alt := range strings.Split(tmpl, fallbackDelim) {
		expr := strings.TrimSpace(alt)
		// Tolerate alternatives written with placeholder braces.
		if strings.HasPrefix(expr, "{{") && strings.HasSuffix(expr, "}}") {
			expr = strings.TrimSpace(expr[2 : len(expr)-2])
		}
		s := Coerce(rec.Get(expr))
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// renderPlaceholders substitutes every balanced "{{ expr }}" and passes
// literal text through. An unmatched "{{" renders literally to the end
// of the template.
func renderPlaceholders(tmpl string, rec catalog.Record) string {
	var b strings.Builder
	rest := tmpl
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			b.WriteString(rest)
			return b.String()
		}
		end := strings.Index(rest[open+2:], "}}")
		if end < 0 {
			// Unbalanced braces render literally.
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:open])
		expr := strings.TrimSpace(rest[open+2 : open+2+end])
		b.WriteString(Coerce(rec.Get(expr)))
		rest = rest[open+2+end+2:]
	}
}
