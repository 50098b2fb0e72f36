// Package resolve exposes the non-interactive decode surface: given a
// display value produced by the picker, recover the canonical entity
// reference without a UI in the loop. It runs in pipeline contexts, so
// failures propagate to the caller instead of becoming view state.
package resolve

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/sinharash/entitypick/internal/catalog"
	"github.com/sinharash/entitypick/internal/eventbus"
	"github.com/sinharash/entitypick/internal/filter"
	"github.com/sinharash/entitypick/internal/index"
	"github.com/sinharash/entitypick/internal/refcodec"
)

// Resolution kinds.
const (
	ResolutionExact     = "exact"
	ResolutionAmbiguous = "ambiguous"
)

// Input is one decode request.
type Input struct {
	// DisplayValue is the stored composite value (or bare label).
	DisplayValue string
	// Filter selects the candidate records; it must pin down a kind.
	Filter []filter.Spec
	// Template renders candidate labels for the fallback label scan.
	Template string
	// Namespace applies when the embedded fragment omits one.
	// Empty means "default".
	Namespace string
}

// Resolution is the outcome of a successful decode.
type Resolution struct {
	Ref   catalog.EntityRef `json:"ref"`
	Label string            `json:"label"`
	Kind  string            `json:"resolution"` // "exact" or "ambiguous"
}

// Resolver decodes display values against the catalog. Per-filter record
// indexes are cached with a TTL and invalidated on catalog change events.
type Resolver struct {
	store catalog.Store
	opts  refcodec.Options
	cache *gocache.Cache
}

// New creates a Resolver. Zero-value opts fields fall back to codec
// defaults. Index TTL is 5 minutes with change-event invalidation on top.
func New(store catalog.Store, opts refcodec.Options) *Resolver {
	return &Resolver{
		store: store,
		opts:  opts,
		cache: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// ResolveFromDisplay recovers the entity behind a display value.
//
// Errors: filter.MalformedError when the filter does not pin down a kind
// (never silently defaulted), refcodec.NotFoundError when zero records
// match, and store errors from the fetch. Ambiguity is not an error: the
// deterministic pick is returned with Kind set to "ambiguous".
func (r *Resolver) ResolveFromDisplay(ctx context.Context, in Input) (Resolution, error) {
	q, err := filter.Build(in.Filter, nil)
	if err != nil {
		return Resolution{}, err
	}
	kinds := q.KindValues()
	if len(kinds) == 0 {
		return Resolution{}, &filter.MalformedError{
			Reason: "filter must pin down a kind",
		}
	}
	// A multi-kind filter leaves the context kind empty; decoding then
	// succeeds only when the embedded fragment carries its own kind.
	var kind string
	if len(kinds) == 1 {
		kind = kinds[0]
	}

	ix, err := r.indexFor(ctx, q, in.Template)
	if err != nil {
		return Resolution{}, err
	}

	dec, err := refcodec.Decode(in.DisplayValue, kind, in.Namespace, ix, r.opts)
	if err != nil {
		return Resolution{}, err
	}

	res := Resolution{Ref: dec.Ref, Label: dec.Label, Kind: ResolutionExact}
	if dec.Ambiguous {
		res.Kind = ResolutionAmbiguous
	}
	return res, nil
}

// HandleEvent implements eventbus.Handler: catalog mutations flush the
// index cache so subsequent decodes see fresh records.
func (r *Resolver) HandleEvent(_ context.Context, _ eventbus.Event) error {
	r.cache.Flush()
	return nil
}

func (r *Resolver) indexFor(ctx context.Context, q catalog.Query, tmpl string) (*index.Index, error) {
	key := q.Key() + "\x00" + tmpl
	if v, ok := r.cache.Get(key); ok {
		return v.(*index.Index), nil
	}
	records, err := r.store.FindRecords(ctx, q)
	if err != nil {
		return nil, err
	}
	ix := index.Build(records, tmpl)
	r.cache.Set(key, ix, gocache.DefaultExpiration)
	return ix, nil
}

// String implements fmt.Stringer for log lines.
func (res Resolution) String() string {
	var b strings.Builder
	b.WriteString(res.Ref.String())
	if res.Kind == ResolutionAmbiguous {
		b.WriteString(" (ambiguous)")
	}
	return b.String()
}
