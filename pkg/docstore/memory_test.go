package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

type sample struct {
	ID        string    `bson:"_id,omitempty"`
	Name      string    `bson:"name"`
	Rank      int       `bson:"rank"`
	Active    bool      `bson:"isActive"`
	CreatedAt time.Time `bson:"createdAt"`
}

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id, err := s.Insert(ctx, "things", sample{Name: "a", Rank: 1}, "")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id == "" {
		t.Fatalf("expected generated id")
	}

	doc, err := s.GetOne(ctx, "things", id)
	if err != nil {
		t.Fatalf("GetOne: %v", err)
	}
	var got sample
	if err := Decode(doc, &got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.ID != id || got.Name != "a" || got.Rank != 1 {
		t.Fatalf("unexpected doc: %+v", got)
	}

	if err := s.Update(ctx, "things", id, bson.M{"rank": 5}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	doc, _ = s.GetOne(ctx, "things", id)
	if err := Decode(doc, &got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Rank != 5 || got.Name != "a" {
		t.Fatalf("update did not merge: %+v", got)
	}

	if err := s.Update(ctx, "things", "missing", bson.M{"rank": 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Delete(ctx, "things", id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.GetOne(ctx, "things", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "things", id); err != nil {
		t.Fatalf("deleting a missing doc should not fail: %v", err)
	}
}

func TestMemoryStoreInsertWithIDOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Insert(ctx, "things", sample{Name: "first"}, "fixed"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := s.Insert(ctx, "things", sample{Name: "second"}, "fixed"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if n := s.Count("things"); n != 1 {
		t.Fatalf("expected 1 doc, got %d", n)
	}
	doc, _ := s.GetOne(ctx, "things", "fixed")
	if doc["name"] != "second" {
		t.Fatalf("expected overwrite, got %v", doc["name"])
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id, _ := s.Insert(ctx, "things", bson.M{"name": "a"}, "")

	doc, _ := s.GetOne(ctx, "things", id)
	doc["name"] = "mutated"

	again, _ := s.GetOne(ctx, "things", id)
	if again["name"] != "a" {
		t.Fatalf("store shared its map with the caller")
	}
}

func TestMemoryStoreQuery(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []sample{
		{Name: "a", Rank: 3, Active: true, CreatedAt: base},
		{Name: "b", Rank: 1, Active: false, CreatedAt: base.Add(time.Hour)},
		{Name: "c", Rank: 2, Active: true, CreatedAt: base.Add(2 * time.Hour)},
		{Name: "d", Rank: 5, Active: true, CreatedAt: base.Add(3 * time.Hour)},
	}
	for _, r := range rows {
		if _, err := s.Insert(ctx, "things", r, ""); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	tests := []struct {
		name  string
		conds []Condition
		want  []string
	}{
		{"no conditions keeps insertion order", nil, []string{"a", "b", "c", "d"}},
		{"equality on bool", []Condition{Eq("isActive", true)}, []string{"a", "c", "d"}},
		{"inequality", []Condition{Where("name", OpNe, "b")}, []string{"a", "c", "d"}},
		{"range and", []Condition{Where("rank", OpGte, 2), Where("rank", OpLt, 5)}, []string{"a", "c"}},
		{"order desc by time", []Condition{OrderBy("createdAt", Desc)}, []string{"d", "c", "b", "a"}},
		{"filter order limit", []Condition{Eq("isActive", true), OrderBy("rank", Asc), Limit(2)}, []string{"c", "a"}},
		{"time comparison", []Condition{Where("createdAt", OpGt, base.Add(90 * time.Minute))}, []string{"c", "d"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := s.Query(ctx, "things", tt.conds...)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(docs) != len(tt.want) {
				t.Fatalf("got %d docs, want %d", len(docs), len(tt.want))
			}
			for i, d := range docs {
				if d["name"] != tt.want[i] {
					t.Fatalf("position %d: got %v want %s", i, d["name"], tt.want[i])
				}
			}
		})
	}
}

func TestMemoryStoreRejectsTwoSortKeys(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Query(context.Background(), "things", OrderBy("a", Asc), OrderBy("b", Desc))
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestMemoryStoreFaultInjection(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	boom := errors.New("boom")
	s.FailWhen(func(action Action, collection string) error {
		if action == ActionInsert && collection == "broken" {
			return boom
		}
		return nil
	})

	if _, err := s.Insert(ctx, "broken", bson.M{}, ""); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if _, err := s.Insert(ctx, "fine", bson.M{}, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.FailWhen(nil)
	if _, err := s.Insert(ctx, "broken", bson.M{}, ""); err != nil {
		t.Fatalf("hook should be removed: %v", err)
	}
}
