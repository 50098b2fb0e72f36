package resolve

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sinharash/entitypick/internal/catalog"
	"github.com/sinharash/entitypick/internal/eventbus"
	"github.com/sinharash/entitypick/internal/filter"
	"github.com/sinharash/entitypick/internal/refcodec"
)

// countingStore wraps a Store and counts FindRecords calls, to observe
// index cache hits.
type countingStore struct {
	catalog.Store
	finds atomic.Int64
}

func (s *countingStore) FindRecords(ctx context.Context, q catalog.Query) ([]catalog.Record, error) {
	s.finds.Add(1)
	return s.Store.FindRecords(ctx, q)
}

func newTestResolver(t *testing.T) (*Resolver, *countingStore) {
	t.Helper()
	mem := catalog.NewMemoryStore()
	err := mem.UpsertRecords(context.Background(), []catalog.Record{
		{"kind": "user", "metadata": map[string]any{"name": "jdoe"}, "displayName": "Jane Doe", "email": "jane@x.com"},
		{"kind": "user", "metadata": map[string]any{"name": "jsmith"}, "displayName": "John Smith", "email": "john@x.com"},
		{"kind": "group", "metadata": map[string]any{"name": "platform"}, "displayName": "Platform"},
	})
	require.NoError(t, err)
	cs := &countingStore{Store: mem}
	return New(cs, refcodec.Options{}), cs
}

func TestResolveFromDisplay_Composite(t *testing.T) {
	r, _ := newTestResolver(t)

	res, err := r.ResolveFromDisplay(context.Background(), Input{
		DisplayValue: "Jane Doe (jane@x.com)|||user:default/jdoe",
		Filter:       []filter.Spec{{"kind": "user"}},
		Template:     "{{ displayName }} ({{ email }})",
	})
	require.NoError(t, err)
	assert.Equal(t, "user:default/jdoe", res.Ref.String())
	assert.Equal(t, "Jane Doe (jane@x.com)", res.Label)
	assert.Equal(t, ResolutionExact, res.Kind)
}

func TestResolveFromDisplay_BareLabelScan(t *testing.T) {
	r, _ := newTestResolver(t)

	res, err := r.ResolveFromDisplay(context.Background(), Input{
		DisplayValue: "John Smith (john@x.com)",
		Filter:       []filter.Spec{{"kind": "user"}},
		Template:     "{{ displayName }} ({{ email }})",
	})
	require.NoError(t, err)
	assert.Equal(t, "user:default/jsmith", res.Ref.String())
	assert.Equal(t, ResolutionExact, res.Kind)
}

func TestResolveFromDisplay_MissingKindFailsFast(t *testing.T) {
	r, _ := newTestResolver(t)

	_, err := r.ResolveFromDisplay(context.Background(), Input{
		DisplayValue: "anything|||user:default/jdoe",
		Filter:       []filter.Spec{{"spec.type": "service"}},
		Template:     "{{ displayName }}",
	})
	require.Error(t, err)
	assert.True(t, filter.IsMalformed(err))
}

func TestResolveFromDisplay_MultiKindFilterDecodesFullFragment(t *testing.T) {
	r, _ := newTestResolver(t)

	// The embedded fragment names its own kind, so the filter only
	// needs to pin down some kind, not exactly one.
	res, err := r.ResolveFromDisplay(context.Background(), Input{
		DisplayValue: "Platform|||group:default/platform",
		Filter:       []filter.Spec{{"kind": []any{"user", "group"}}},
		Template:     "{{ displayName }}",
	})
	require.NoError(t, err)
	assert.Equal(t, "group:default/platform", res.Ref.String())
	assert.Equal(t, ResolutionExact, res.Kind)
}

func TestResolveFromDisplay_NotFound(t *testing.T) {
	r, _ := newTestResolver(t)

	_, err := r.ResolveFromDisplay(context.Background(), Input{
		DisplayValue: "Ghost|||user:default/nobody",
		Filter:       []filter.Spec{{"kind": "user"}},
		Template:     "{{ displayName }}",
	})
	require.Error(t, err)
	assert.True(t, refcodec.IsNotFound(err))
}

func TestResolveFromDisplay_AmbiguousLabel(t *testing.T) {
	mem := catalog.NewMemoryStore()
	err := mem.UpsertRecords(context.Background(), []catalog.Record{
		{"kind": "user", "metadata": map[string]any{"name": "a"}, "displayName": "Sam"},
		{"kind": "user", "metadata": map[string]any{"name": "b"}, "displayName": "Sam"},
	})
	require.NoError(t, err)
	r := New(mem, refcodec.Options{})

	res, err := r.ResolveFromDisplay(context.Background(), Input{
		DisplayValue: "Sam",
		Filter:       []filter.Spec{{"kind": "user"}},
		Template:     "{{ displayName }}",
	})
	require.NoError(t, err)
	assert.Equal(t, ResolutionAmbiguous, res.Kind)
	assert.Equal(t, "user:default/a", res.Ref.String())

	// With the fail policy the same input becomes an error.
	strict := New(mem, refcodec.Options{OnAmbiguous: refcodec.FailOnAmbiguous})
	_, err = strict.ResolveFromDisplay(context.Background(), Input{
		DisplayValue: "Sam",
		Filter:       []filter.Spec{{"kind": "user"}},
		Template:     "{{ displayName }}",
	})
	require.Error(t, err)
	var ambErr *refcodec.AmbiguousError
	assert.True(t, errors.As(err, &ambErr))
}

func TestResolverCachesIndexUntilInvalidated(t *testing.T) {
	r, cs := newTestResolver(t)
	in := Input{
		DisplayValue: "Jane Doe (jane@x.com)|||user:default/jdoe",
		Filter:       []filter.Spec{{"kind": "user"}},
		Template:     "{{ displayName }} ({{ email }})",
	}

	_, err := r.ResolveFromDisplay(context.Background(), in)
	require.NoError(t, err)
	_, err = r.ResolveFromDisplay(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cs.finds.Load(), "second decode should hit the index cache")

	require.NoError(t, r.HandleEvent(context.Background(), eventbus.Event{Type: "records.upserted"}))

	_, err = r.ResolveFromDisplay(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cs.finds.Load(), "change event should flush the cache")
}
