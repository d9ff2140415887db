package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MemoryRepo mimics the Mongo repository against an in-process map. It is
// the test double for the service and handler tests: it enforces the same
// unique-title constraint, returns the same sentinel errors the driver
// would, and counts calls so tests can assert that fail-fast paths never
// reach the backend.
type MemoryRepo struct {
	mu    sync.Mutex
	docs  map[primitive.ObjectID]bson.M
	calls map[string]int

	// FailWith, when set, is returned by every operation. Used to drive
	// the classifier through backend-failure paths.
	FailWith error
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:  make(map[primitive.ObjectID]bson.M),
		calls: make(map[string]int),
	}
}

// CallCount reports how many times the named operation was invoked.
func (m *MemoryRepo) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MemoryRepo) Find(ctx context.Context, limit, offset int64) ([]bson.M, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["Find"]++
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	all := make([]bson.M, 0, len(m.docs))
	for _, d := range m.docs {
		all = append(all, clone(d))
	}
	sort.Slice(all, func(i, j int) bool {
		ti, _ := all[i]["createdAt"].(time.Time)
		tj, _ := all[j]["createdAt"].(time.Time)
		if ti.Equal(tj) {
			return all[i]["_id"].(primitive.ObjectID).Hex() < all[j]["_id"].(primitive.ObjectID).Hex()
		}
		return ti.Before(tj)
	})
	if offset >= int64(len(all)) {
		return []bson.M{}, nil
	}
	all = all[offset:]
	if limit > 0 && int64(len(all)) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemoryRepo) FindOne(ctx context.Context, id primitive.ObjectID) (bson.M, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["FindOne"]++
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	d, ok := m.docs[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return clone(d), nil
}

func (m *MemoryRepo) InsertOne(ctx context.Context, doc bson.D) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["InsertOne"]++
	if m.FailWith != nil {
		return primitive.NilObjectID, m.FailWith
	}
	d := fromD(doc)
	if title, ok := d["title"].(string); ok {
		for _, existing := range m.docs {
			if existing["title"] == title {
				return primitive.NilObjectID, duplicateKeyError()
			}
		}
	}
	id := primitive.NewObjectID()
	d["_id"] = id
	m.docs[id] = d
	return id, nil
}

func (m *MemoryRepo) UpdateOne(ctx context.Context, id primitive.ObjectID, set bson.D) (bson.M, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["UpdateOne"]++
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	d, ok := m.docs[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	for _, e := range set {
		d[e.Key] = e.Value
	}
	return clone(d), nil
}

func (m *MemoryRepo) DeleteOne(ctx context.Context, id primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["DeleteOne"]++
	if m.FailWith != nil {
		return 0, m.FailWith
	}
	if _, ok := m.docs[id]; !ok {
		return 0, nil
	}
	delete(m.docs, id)
	return 1, nil
}

// Put stores a raw document directly, bypassing insert bookkeeping. Tests
// use it to seed malformed documents the mapper must reject.
func (m *MemoryRepo) Put(id primitive.ObjectID, doc bson.M) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := clone(doc)
	d["_id"] = id
	m.docs[id] = d
}

func clone(d bson.M) bson.M {
	out := make(bson.M, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func fromD(doc bson.D) bson.M {
	out := make(bson.M, len(doc))
	for _, e := range doc {
		out[e.Key] = e.Value
	}
	return out
}

// duplicateKeyError fabricates the same error shape the driver reports
// for a unique index violation, so mongo.IsDuplicateKeyError matches it.
func duplicateKeyError() error {
	return mongo.WriteException{
		WriteErrors: []mongo.WriteError{{
			Code:    11000,
			Message: "E11000 duplicate key error collection",
		}},
	}
}
