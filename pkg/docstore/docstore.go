// Package docstore is the gateway to the document database. Every collection is addressed by
// name and every document by an opaque string id stored under "_id".
package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// IDField is the key under which a document keeps its id.
const IDField = "_id"

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidQuery = errors.New("invalid query")
)

// Gateway is the capability ceiling of the backing store: single-collection reads with
// AND-ed filters, one sort key and a limit. There are no joins, no aggregations and no
// transactions across documents.
type Gateway interface {
	GetAll(ctx context.Context, collection string) ([]bson.M, error)
	// GetOne returns ErrNotFound when the document does not exist.
	GetOne(ctx context.Context, collection, id string) (bson.M, error)
	// Insert stores data under id, or under a generated id when id is empty. An existing
	// document with the same id is overwritten.
	Insert(ctx context.Context, collection string, data interface{}, id string) (string, error)
	// Update merges patch into the top-level fields of an existing document.
	Update(ctx context.Context, collection, id string, patch bson.M) error
	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, conds ...Condition) ([]bson.M, error)
	Ping(ctx context.Context) error
}

// NewID generates a document id.
func NewID() string {
	return uuid.New().String()
}

// ToDocument converts a tagged struct (or a map) into a document by round-tripping it
// through BSON, so values take the same shape they would have when read back.
func ToDocument(data interface{}) (bson.M, error) {
	if data == nil {
		return bson.M{}, nil
	}
	raw, err := bson.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Decode fills out from a document.
func Decode(doc bson.M, out interface{}) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// DocumentID returns the id stored in doc, or "" if it has none.
func DocumentID(doc bson.M) string {
	id, _ := doc[IDField].(string)
	return id
}

func prepareInsert(data interface{}, id string) (bson.M, string, error) {
	doc, err := ToDocument(data)
	if err != nil {
		return nil, "", err
	}
	if id == "" {
		id = DocumentID(doc)
	}
	if id == "" {
		id = NewID()
	}
	doc[IDField] = id
	return doc, id, nil
}
