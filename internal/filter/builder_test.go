package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sinharash/entitypick/internal/catalog"
)

func TestBuild_SingleSpec(t *testing.T) {
	q, err := Build([]Spec{{
		"kind":           "User",
		"metadata.title": "Jane Doe",
	}}, nil)
	require.NoError(t, err)
	require.Len(t, q.Groups, 1)
	assert.Equal(t, catalog.MatchValue("User"), q.Groups[0]["kind"])
	assert.Equal(t, catalog.MatchValue("Jane Doe"), q.Groups[0]["metadata.title"])
}

func TestBuild_ArrayBecomesOrClause(t *testing.T) {
	q, err := Build([]Spec{{"kind": []any{"User", "Group"}}}, nil)
	require.NoError(t, err)
	require.Len(t, q.Groups, 1)
	assert.Equal(t, catalog.MatchAny("User", "Group"), q.Groups[0]["kind"])
	// No additional AND constraints sneak in.
	assert.Len(t, q.Groups[0], 1)
}

func TestBuild_ExistsSentinel(t *testing.T) {
	q, err := Build([]Spec{{"spec.profile.email": map[string]any{"exists": true}}}, nil)
	require.NoError(t, err)
	m := q.Groups[0]["spec.profile.email"]
	assert.True(t, m.Exists)
	// Never the literal string "true".
	assert.NotContains(t, m.Values, "true")
	assert.Empty(t, m.Values)
}

func TestBuild_MultipleSpecsUnioned(t *testing.T) {
	q, err := Build([]Spec{
		{"kind": "User"},
		{"kind": "Group", "metadata.title": map[string]any{"exists": true}},
	}, nil)
	require.NoError(t, err)
	assert.Len(t, q.Groups, 2)
}

func TestBuild_AllowedKindsShorthand(t *testing.T) {
	q, err := Build(nil, []string{"User", "Group"})
	require.NoError(t, err)
	require.Len(t, q.Groups, 1)
	assert.Equal(t, catalog.MatchAny("User", "Group"), q.Groups[0]["kind"])
}

func TestBuild_ExplicitSpecWinsOverShorthand(t *testing.T) {
	q, err := Build([]Spec{{"kind": "Service"}}, []string{"User", "Group"})
	require.NoError(t, err)
	require.Len(t, q.Groups, 1)
	assert.Equal(t, catalog.MatchValue("Service"), q.Groups[0]["kind"])
}

func TestBuild_EmptyEverything(t *testing.T) {
	q, err := Build(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, q.Groups)
}

func TestBuild_NonStringLiterals(t *testing.T) {
	q, err := Build([]Spec{{"spec.replicas": float64(3), "spec.enabled": true}}, nil)
	require.NoError(t, err)
	assert.Equal(t, catalog.MatchValue("3"), q.Groups[0]["spec.replicas"])
	assert.Equal(t, catalog.MatchValue("true"), q.Groups[0]["spec.enabled"])
}

func TestBuild_Malformed(t *testing.T) {
	cases := []struct {
		name  string
		specs []Spec
	}{
		{"empty key", []Spec{{"": "x"}}},
		{"empty spec", []Spec{{}}},
		{"bad object value", []Spec{{"f": map[string]any{"exists": false}}}},
		{"arbitrary object value", []Spec{{"f": map[string]any{"eq": "x"}}}},
		{"empty value list", []Spec{{"f": []any{}}}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.specs, nil)
			require.Error(t, err)
			assert.True(t, IsMalformed(err))
		})
	}
}
