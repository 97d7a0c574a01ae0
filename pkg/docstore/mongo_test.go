package docstore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func mongoTestStore(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("set TEST_MONGO_URI to run mongo gateway integration tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	db := client.Database("educorp_test_" + NewID()[:8])
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return NewMongoStore(db)
}

func TestMongoStoreRoundTrip(t *testing.T) {
	s := mongoTestStore(t)
	ctx := context.Background()

	for i, name := range []string{"a", "b", "c"} {
		if _, err := s.Insert(ctx, "things", bson.M{"name": name, "rank": i, "isActive": i != 1}, ""); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	docs, err := s.Query(ctx, "things", Eq("isActive", true), OrderBy("rank", Desc), Limit(1))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(docs) != 1 || docs[0]["name"] != "c" {
		t.Fatalf("unexpected result: %v", docs)
	}

	id := DocumentID(docs[0])
	if err := s.Update(ctx, "things", id, bson.M{"name": "z"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	doc, err := s.GetOne(ctx, "things", id)
	if err != nil || doc["name"] != "z" {
		t.Fatalf("GetOne after update: %v %v", doc, err)
	}
	if err := s.Update(ctx, "things", "missing", bson.M{"name": "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "things", id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.GetOne(ctx, "things", id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
