// Package catalog defines the record model of the entity catalog: the
// Record document, the canonical EntityRef identity, the query shape
// consumed by stores, and the Store capability for fetching records.
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sinharash/entitypick/internal/fieldpath"
)

// DefaultNamespace is assumed whenever a record or reference carries
// no explicit namespace.
const DefaultNamespace = "default"

// Record is a catalog-held structured document. Identity fields live
// at well-known paths (kind, metadata.namespace, metadata.name);
// everything else is arbitrary nested data addressed by fieldpath.
type Record map[string]any

// Kind returns the record's kind, or "" when absent.
func (r Record) Kind() string {
	s, _ := r.Get("kind").(string)
	return s
}

// Namespace returns the record's namespace, defaulting when absent.
func (r Record) Namespace() string {
	s, _ := r.Get("metadata.namespace").(string)
	if s == "" {
		return DefaultNamespace
	}
	return s
}

// Name returns the record's stable name, or "" when absent.
func (r Record) Name() string {
	s, _ := r.Get("metadata.name").(string)
	return s
}

// Ref returns the record's canonical identity triple.
func (r Record) Ref() EntityRef {
	return EntityRef{Kind: r.Kind(), Namespace: r.Namespace(), Name: r.Name()}
}

// Get resolves a dot-separated field path within the record.
func (r Record) Get(path string) any {
	return fieldpath.Get(map[string]any(r), path)
}

// Validate checks that the record carries a usable identity.
func (r Record) Validate() error {
	if r.Kind() == "" {
		return fmt.Errorf("record missing kind")
	}
	if r.Name() == "" {
		return fmt.Errorf("record %q missing metadata.name", r.Kind())
	}
	return nil
}

// EntityRef is the canonical identifier of a record: the
// (kind, namespace, name) triple, serialized as "kind:namespace/name"
// with a lower-cased kind.
type EntityRef struct {
	Kind      string
	Namespace string
	Name      string
}

// String serializes the reference in canonical form.
func (e EntityRef) String() string {
	ns := e.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return strings.ToLower(e.Kind) + ":" + ns + "/" + e.Name
}

// MarshalJSON serializes the reference as its canonical string form.
func (e EntityRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

// UnmarshalJSON parses a canonical reference string.
func (e *EntityRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	ref, err := ParseRef(s)
	if err != nil {
		return err
	}
	*e = ref
	return nil
}

// IsZero reports whether the reference carries no identity at all.
func (e EntityRef) IsZero() bool {
	return e.Kind == "" && e.Namespace == "" && e.Name == ""
}

// ParseRef parses a canonical "kind:namespace/name" string. The
// namespace segment may be omitted ("kind:name"), in which case the
// default namespace is assumed.
func ParseRef(s string) (EntityRef, error) {
	colon := strings.Index(s, ":")
	if colon <= 0 || colon == len(s)-1 {
		return EntityRef{}, fmt.Errorf("invalid entity reference %q: want kind:namespace/name", s)
	}
	kind := s[:colon]
	rest := s[colon+1:]

	ns := DefaultNamespace
	name := rest
	if slash := strings.Index(rest, "/"); slash >= 0 {
		if slash == 0 || slash == len(rest)-1 {
			return EntityRef{}, fmt.Errorf("invalid entity reference %q: empty namespace or name", s)
		}
		ns = rest[:slash]
		name = rest[slash+1:]
	}
	if name == "" {
		return EntityRef{}, fmt.Errorf("invalid entity reference %q: empty name", s)
	}
	return EntityRef{Kind: strings.ToLower(kind), Namespace: ns, Name: name}, nil
}

// sameKind compares kinds case-insensitively; kind is the one identity
// component whose casing varies between authored records and canonical
// references.
func sameKind(a, b string) bool {
	return strings.EqualFold(a, b)
}
