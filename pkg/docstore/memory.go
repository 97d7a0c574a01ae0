package docstore

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// Action names a gateway call, for fault injection.
type Action string

const (
	ActionGetAll Action = "getAll"
	ActionGetOne Action = "getOne"
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionQuery  Action = "query"
)

// FaultFunc is consulted before every call; a non-nil error fails the call.
type FaultFunc func(action Action, collection string) error

type memCollection struct {
	docs  map[string]bson.M
	order []string
}

// MemoryStore keeps collections in process. Documents are copied through BSON on the way in
// and out, so callers never share maps with the store and value types match MongoDB's.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
	fault       FaultFunc
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memCollection)}
}

// FailWhen installs fn as the fault hook; nil removes it.
func (s *MemoryStore) FailWhen(fn FaultFunc) {
	s.mu.Lock()
	s.fault = fn
	s.mu.Unlock()
}

func (s *MemoryStore) check(action Action, collection string) error {
	s.mu.RLock()
	fn := s.fault
	s.mu.RUnlock()
	if fn == nil {
		return nil
	}
	return fn(action, collection)
}

func (s *MemoryStore) collection(name string) *memCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &memCollection{docs: make(map[string]bson.M)}
		s.collections[name] = c
	}
	return c
}

func (s *MemoryStore) snapshot(name string) ([]bson.M, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return []bson.M{}, nil
	}
	out := make([]bson.M, 0, len(c.order))
	for _, id := range c.order {
		doc, err := ToDocument(c.docs[id])
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *MemoryStore) GetAll(ctx context.Context, collection string) ([]bson.M, error) {
	if err := s.check(ActionGetAll, collection); err != nil {
		return nil, err
	}
	return s.snapshot(collection)
}

func (s *MemoryStore) GetOne(ctx context.Context, collection, id string) (bson.M, error) {
	if err := s.check(ActionGetOne, collection); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil, ErrNotFound
	}
	doc, ok := c.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ToDocument(doc)
}

func (s *MemoryStore) Insert(ctx context.Context, collection string, data interface{}, id string) (string, error) {
	if err := s.check(ActionInsert, collection); err != nil {
		return "", err
	}
	doc, id, err := prepareInsert(data, id)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collection(collection)
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = doc
	return id, nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, patch bson.M) error {
	if err := s.check(ActionUpdate, collection); err != nil {
		return err
	}
	normalized, err := ToDocument(patch)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return ErrNotFound
	}
	doc, ok := c.docs[id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range normalized {
		if k == IDField {
			continue
		}
		doc[k] = v
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := s.check(ActionDelete, collection); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil
	}
	if _, ok := c.docs[id]; !ok {
		return nil
	}
	delete(c.docs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, conds ...Condition) ([]bson.M, error) {
	if err := s.check(ActionQuery, collection); err != nil {
		return nil, err
	}
	p, err := compile(conds)
	if err != nil {
		return nil, err
	}
	docs, err := s.snapshot(collection)
	if err != nil {
		return nil, err
	}
	return p.apply(docs), nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Count reports how many documents a collection holds.
func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.collections[collection]; ok {
		return len(c.docs)
	}
	return 0
}
