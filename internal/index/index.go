// Package index provides the per-fetch record index: canonical
// identifier to record, and rendered label to the identifiers that
// produce it. The index is rebuilt wholesale on every fetch; there is
// no incremental update.
package index

import (
	"github.com/sinharash/entitypick/internal/catalog"
	"github.com/sinharash/entitypick/internal/template"
)

// Index is an immutable snapshot built from one fetch. Lookup and
// LookupByLabel are O(1) average; Refs preserves fetch order, which is
// the deterministic tie-break order for ambiguous labels.
type Index struct {
	byRef      map[string]catalog.Record
	labelByRef map[string]string
	refsByLabel map[string][]string
	order      []string
}

// Build renders every record's label under the template and indexes
// both directions. Records without a usable identity are skipped; the
// picker cannot emit a recoverable value for them anyway.
func Build(records []catalog.Record, tmpl string) *Index {
	ix := &Index{
		byRef:       make(map[string]catalog.Record, len(records)),
		labelByRef:  make(map[string]string, len(records)),
		refsByLabel: make(map[string][]string),
	}
	for _, r := range records {
		if r.Validate() != nil {
			continue
		}
		ref := r.Ref().String()
		if _, dup := ix.byRef[ref]; dup {
			continue
		}
		label := template.Render(tmpl, r)
		ix.byRef[ref] = r
		ix.labelByRef[ref] = label
		ix.refsByLabel[label] = append(ix.refsByLabel[label], ref)
		ix.order = append(ix.order, ref)
	}
	return ix
}

// Lookup returns the record for a canonical identifier.
func (ix *Index) Lookup(ref string) (catalog.Record, bool) {
	r, ok := ix.byRef[ref]
	return r, ok
}

// LookupByLabel returns the identifiers whose rendered label equals
// label exactly, in fetch order. More than one identifier means the
// template is ambiguous over the fetched records.
func (ix *Index) LookupByLabel(label string) []string {
	return ix.refsByLabel[label]
}

// Label returns the rendered label for a canonical identifier.
func (ix *Index) Label(ref string) (string, bool) {
	l, ok := ix.labelByRef[ref]
	return l, ok
}

// Refs returns all indexed identifiers in fetch order.
func (ix *Index) Refs() []string {
	return ix.order
}

// Len returns the number of indexed records.
func (ix *Index) Len() int {
	return len(ix.order)
}
