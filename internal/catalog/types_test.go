package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		in   string
		want EntityRef
	}{
		{"user:default/jdoe", EntityRef{Kind: "user", Namespace: "default", Name: "jdoe"}},
		{"User:default/jdoe", EntityRef{Kind: "user", Namespace: "default", Name: "jdoe"}},
		{"group:platform/admins", EntityRef{Kind: "group", Namespace: "platform", Name: "admins"}},
		{"service:api", EntityRef{Kind: "service", Namespace: "default", Name: "api"}},
	}
	for _, tt := range tests {
		got, err := ParseRef(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseRef_Invalid(t *testing.T) {
	for _, in := range []string{"", "noseparator", ":default/x", "kind:", "kind:/name", "kind:ns/"} {
		_, err := ParseRef(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestEntityRef_String(t *testing.T) {
	assert.Equal(t, "user:default/jdoe", EntityRef{Kind: "User", Namespace: "default", Name: "jdoe"}.String())
	assert.Equal(t, "group:default/admins", EntityRef{Kind: "Group", Name: "admins"}.String())
}

func TestRecord_Identity(t *testing.T) {
	r := Record{
		"kind": "User",
		"metadata": map[string]any{
			"name":  "jdoe",
			"title": "Jane Doe",
		},
	}
	assert.Equal(t, "User", r.Kind())
	assert.Equal(t, "default", r.Namespace())
	assert.Equal(t, "jdoe", r.Name())
	assert.Equal(t, "user:default/jdoe", r.Ref().String())
	require.NoError(t, r.Validate())
}

func TestRecord_IdentityAfterJSONDecode(t *testing.T) {
	// Identity must resolve through the Record named type itself; a
	// record decoded straight from JSON has no plain map[string]any
	// wrapper anywhere for the accessors to fall back on.
	var r Record
	require.NoError(t, json.Unmarshal([]byte(
		`{"kind": "User", "metadata": {"name": "jdoe"}}`), &r))
	assert.Equal(t, "User", r.Kind())
	assert.Equal(t, "jdoe", r.Name())
	assert.Equal(t, "user:default/jdoe", r.Ref().String())
	require.NoError(t, r.Validate())
}

func TestRecord_Validate(t *testing.T) {
	assert.Error(t, Record{}.Validate())
	assert.Error(t, Record{"kind": "User"}.Validate())
	assert.Error(t, Record{"metadata": map[string]any{"name": "x"}}.Validate())
}

func TestRecord_RoundTripParse(t *testing.T) {
	r := Record{
		"kind":     "Service",
		"metadata": map[string]any{"name": "api", "namespace": "platform"},
	}
	ref, err := ParseRef(r.Ref().String())
	require.NoError(t, err)
	assert.Equal(t, EntityRef{Kind: "service", Namespace: "platform", Name: "api"}, ref)
}
