package refcodec

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/sinharash/entitypick/internal/catalog"
	"github.com/sinharash/entitypick/internal/index"
	"github.com/sinharash/entitypick/internal/template"
)

func drawRecord(r *rapid.T) catalog.Record {
	kind := rapid.SampledFrom([]string{"User", "Group", "Service"}).Draw(r, "kind")
	name := rapid.StringMatching(`[a-z][a-z0-9-]{1,12}`).Draw(r, "name")
	title := rapid.StringN(0, 24, -1).Draw(r, "title")
	return catalog.Record{
		"kind": kind,
		"metadata": map[string]any{
			"name":  name,
			"title": title,
		},
	}
}

// Round-trip: for any record and template, decoding the encoded
// composite value recovers the canonical identifier.
func TestRoundTrip_Property(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		rec := drawRecord(r)
		tmpl := rapid.SampledFrom([]string{
			"{{ metadata.title }}",
			"{{ metadata.title }} [{{ kind }}]",
			"metadata.title || metadata.name",
			"${entity.ref}",
		}).Draw(r, "template")

		ix := index.Build([]catalog.Record{rec}, tmpl)
		value := Encode(rec, tmpl, Options{})

		d, err := Decode(value, rec.Kind(), rec.Namespace(), ix, Options{})
		require.NoError(t, err)
		require.Equal(t, rec.Ref().String(), d.Ref.String())
	})
}

// Round-trip holds for the name fragment as long as both ends agree.
func TestRoundTrip_NameFragment_Property(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		rec := drawRecord(r)
		opts := Options{Fragment: FragmentName}
		ix := index.Build([]catalog.Record{rec}, "{{ metadata.title }}")

		value := Encode(rec, "{{ metadata.title }}", opts)
		d, err := Decode(value, rec.Kind(), rec.Namespace(), ix, opts)
		require.NoError(t, err)
		require.Equal(t, rec.Ref().String(), d.Ref.String())
	})
}

// Determinism: rendering is a pure function of (template, record).
func TestRenderDeterminism_Property(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		rec := drawRecord(r)
		tmpl := rapid.SampledFrom([]string{
			"{{ metadata.title }}",
			"metadata.title || metadata.name",
			"literal {{ metadata.name }} tail",
		}).Draw(r, "template")
		require.Equal(t, template.Render(tmpl, rec), template.Render(tmpl, rec))
	})
}

// Separator robustness: whatever the label contains, the last-segment
// rule recovers the identifier.
func TestSeparatorRobustness_Property(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		rec := drawRecord(r)
		// Force separator occurrences into the label.
		title := "x|||" + rapid.StringMatching(`[a-z|]{0,8}`).Draw(r, "titleTail")
		rec["metadata"].(map[string]any)["title"] = title

		ix := index.Build([]catalog.Record{rec}, "{{ metadata.title }}")
		value := Encode(rec, "{{ metadata.title }}", Options{})

		d, err := Decode(value, rec.Kind(), rec.Namespace(), ix, Options{})
		require.NoError(t, err)
		require.Equal(t, rec.Ref().String(), d.Ref.String())
	})
}
