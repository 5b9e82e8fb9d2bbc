package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// Memory is an in-memory Repository used by unit tests and local runs
// without a database. Filters support equality matching only, which is all
// the services use. Operations hold a single mutex, so updates and deletes
// are atomic like their Mongo counterparts.
type Memory[T any, PT interface {
	*T
	Document
}] struct {
	mu     sync.Mutex
	docs   map[string]bson.M
	unique []string
}

// NewMemory creates an in-memory repository. Fields listed in unique behave
// like unique indexes: duplicate values fail Create with ErrConflict.
func NewMemory[T any, PT interface {
	*T
	Document
}](unique ...string) *Memory[T, PT] {
	return &Memory[T, PT]{docs: make(map[string]bson.M), unique: unique}
}

func (r *Memory[T, PT]) Create(ctx context.Context, doc *T) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := PT(doc)
	p.SetID(uuid.NewString())
	p.Stamp(time.Now().UTC())

	raw, err := toRaw(doc)
	if err != nil {
		return nil, err
	}
	for _, field := range r.unique {
		for _, existing := range r.docs {
			if eq(existing[field], raw[field]) {
				return nil, fmt.Errorf("%w: duplicate %s", ErrConflict, field)
			}
		}
	}
	r.docs[p.GetID()] = raw
	return doc, nil
}

func (r *Memory[T, PT]) FindOne(ctx context.Context, filter bson.M) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, raw := range r.docs {
		if matches(raw, filter) {
			return fromRaw[T](raw)
		}
	}
	return nil, ErrNotFound
}

func (r *Memory[T, PT]) FindMany(ctx context.Context, filter bson.M) ([]*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*T{}
	for _, raw := range r.docs {
		if matches(raw, filter) {
			doc, err := fromRaw[T](raw)
			if err != nil {
				return nil, err
			}
			out = append(out, doc)
		}
	}
	return out, nil
}

func (r *Memory[T, PT]) FindOneAndUpdate(ctx context.Context, filter bson.M, set bson.M) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, raw := range r.docs {
		if !matches(raw, filter) {
			continue
		}
		for k, v := range set {
			raw[k] = v
		}
		raw["updatedAt"] = time.Now().UTC()
		// normalize through bson so stored values look store-typed
		doc, err := fromRaw[T](raw)
		if err != nil {
			return nil, err
		}
		norm, err := toRaw(doc)
		if err != nil {
			return nil, err
		}
		r.docs[id] = norm
		return doc, nil
	}
	return nil, ErrNotFound
}

func (r *Memory[T, PT]) FindOneAndDelete(ctx context.Context, filter bson.M) (*T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, raw := range r.docs {
		if matches(raw, filter) {
			doc, err := fromRaw[T](raw)
			if err != nil {
				return nil, err
			}
			delete(r.docs, id)
			return doc, nil
		}
	}
	return nil, ErrNotFound
}

func (r *Memory[T, PT]) Exists(ctx context.Context, filter bson.M) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, raw := range r.docs {
		if matches(raw, filter) {
			return true, nil
		}
	}
	return false, nil
}

func toRaw[T any](doc *T) (bson.M, error) {
	b, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var raw bson.M
	if err := bson.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func fromRaw[T any](raw bson.M) (*T, error) {
	b, err := bson.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var doc T
	if err := bson.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func matches(raw bson.M, filter bson.M) bool {
	for k, want := range filter {
		got, ok := raw[k]
		if !ok || !eq(got, want) {
			return false
		}
	}
	return true
}

// eq compares loosely across bson round-trip representations (e.g. a
// time.Time filter value against a stored primitive.DateTime).
func eq(a, b interface{}) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}
