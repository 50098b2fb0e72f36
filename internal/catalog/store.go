package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
)

// ErrNotFound is returned by ResolveByRef when no record carries the
// requested identity.
var ErrNotFound = errors.New("catalog: record not found")

// Store is the catalog capability: it answers filter queries and
// resolves canonical references. Implementations must be safe for
// concurrent use.
type Store interface {
	// FindRecords returns every record matching the query, in a
	// stable store-defined order.
	FindRecords(ctx context.Context, q Query) ([]Record, error)

	// ResolveByRef returns the record with the given canonical
	// identity, or ErrNotFound.
	ResolveByRef(ctx context.Context, ref EntityRef) (Record, error)

	// UpsertRecords inserts or replaces records keyed by identity.
	UpsertRecords(ctx context.Context, records []Record) error
}

// stringify renders a scalar field value for query comparison.
// JSON numbers arrive as float64; integral values print without a
// fractional part so "42" matches a stored 42.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
