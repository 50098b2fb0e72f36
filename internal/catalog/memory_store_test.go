package catalog

import (
	"context"
	"testing"
)

func seedRecords() []Record {
	return []Record{
		user("jdoe", "Jane Doe"),
		user("bob", "Bob Bobson"),
		{
			"kind":     "Group",
			"metadata": map[string]any{"name": "team-a", "title": "Team A"},
		},
	}
}

func TestMemoryStore_UpsertAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.UpsertRecords(ctx, seedRecords()); err != nil {
		t.Fatalf("UpsertRecords: %v", err)
	}
	if store.Len() != 3 {
		t.Errorf("Len = %d, want 3", store.Len())
	}

	q := Query{Groups: []FilterGroup{{"kind": MatchValue("User")}}}
	records, err := store.FindRecords(ctx, q)
	if err != nil {
		t.Fatalf("FindRecords: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("records = %d, want 2", len(records))
	}
}

func TestMemoryStore_Find_StableOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.UpsertRecords(ctx, seedRecords())

	first, err := store.FindRecords(ctx, Query{})
	if err != nil {
		t.Fatalf("FindRecords: %v", err)
	}
	second, _ := store.FindRecords(ctx, Query{})
	for i := range first {
		if first[i].Ref() != second[i].Ref() {
			t.Fatalf("order differs at %d: %s vs %s", i, first[i].Ref(), second[i].Ref())
		}
	}
}

func TestMemoryStore_ResolveByRef(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.UpsertRecords(ctx, seedRecords())

	r, err := store.ResolveByRef(ctx, EntityRef{Kind: "user", Namespace: "default", Name: "jdoe"})
	if err != nil {
		t.Fatalf("ResolveByRef: %v", err)
	}
	if r.Name() != "jdoe" {
		t.Errorf("name = %q, want jdoe", r.Name())
	}

	_, err = store.ResolveByRef(ctx, EntityRef{Kind: "user", Namespace: "default", Name: "nobody"})
	if err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_Upsert_Replaces(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.UpsertRecords(ctx, []Record{user("jdoe", "Jane Doe")})
	store.UpsertRecords(ctx, []Record{user("jdoe", "Jane D. Doe")})

	r, err := store.ResolveByRef(ctx, EntityRef{Kind: "user", Name: "jdoe"})
	if err != nil {
		t.Fatalf("ResolveByRef: %v", err)
	}
	if got := r.Get("metadata.title"); got != "Jane D. Doe" {
		t.Errorf("title = %v, want replaced value", got)
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}
}

func TestMemoryStore_Upsert_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.UpsertRecords(ctx, []Record{{"kind": "User"}}); err == nil {
		t.Fatal("expected error for record without name")
	}
}
