package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is the MongoDB-backed Repository. The second type parameter ties the
// document's pointer type to the Document interface so the repository can
// assign ids; constraint inference lets callers write NewMongo[users.User](col).
type Mongo[T any, PT interface {
	*T
	Document
}] struct {
	col *mongo.Collection
}

func NewMongo[T any, PT interface {
	*T
	Document
}](col *mongo.Collection) *Mongo[T, PT] {
	return &Mongo[T, PT]{col: col}
}

// EnsureUniqueIndex creates a unique index on the given field. Duplicate
// inserts then surface as ErrConflict, closing read-then-write races at the
// store.
func (r *Mongo[T, PT]) EnsureUniqueIndex(ctx context.Context, field string) error {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.col.Indexes().CreateOne(ctx, idx); err != nil {
		return mapMongoErr(err)
	}
	return nil
}

// Create assigns a fresh id, stamps timestamps and inserts the document.
// The returned pointer is the stored representation including the id.
func (r *Mongo[T, PT]) Create(ctx context.Context, doc *T) (*T, error) {
	p := PT(doc)
	p.SetID(uuid.NewString())
	p.Stamp(time.Now().UTC())
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, mapMongoErr(err)
	}
	return doc, nil
}

func (r *Mongo[T, PT]) FindOne(ctx context.Context, filter bson.M) (*T, error) {
	var doc T
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapMongoErr(err)
	}
	return &doc, nil
}

func (r *Mongo[T, PT]) FindMany(ctx context.Context, filter bson.M) ([]*T, error) {
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	defer cur.Close(ctx)
	out := []*T{}
	for cur.Next(ctx) {
		var doc T
		if err := cur.Decode(&doc); err != nil {
			return nil, mapMongoErr(err)
		}
		out = append(out, &doc)
	}
	if err := cur.Err(); err != nil {
		return nil, mapMongoErr(err)
	}
	return out, nil
}

// FindOneAndUpdate applies the partial update as a single native
// findOneAndUpdate, so concurrent updates on the same document cannot
// interleave. The post-update document is returned.
func (r *Mongo[T, PT]) FindOneAndUpdate(ctx context.Context, filter bson.M, set bson.M) (*T, error) {
	fields := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range set {
		fields[k] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc T
	if err := r.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": fields}, opts).Decode(&doc); err != nil {
		return nil, mapMongoErr(err)
	}
	return &doc, nil
}

// FindOneAndDelete removes one matching document and returns its pre-deletion
// representation.
func (r *Mongo[T, PT]) FindOneAndDelete(ctx context.Context, filter bson.M) (*T, error) {
	var doc T
	if err := r.col.FindOneAndDelete(ctx, filter).Decode(&doc); err != nil {
		return nil, mapMongoErr(err)
	}
	return &doc, nil
}

func (r *Mongo[T, PT]) Exists(ctx context.Context, filter bson.M) (bool, error) {
	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, mapMongoErr(err)
	}
	return n > 0, nil
}

// mapMongoErr translates driver errors into the repository taxonomy. Domain
// outcomes (no match, duplicate key) and infrastructure failures (network,
// timeout) must stay distinguishable for callers.
func mapMongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return err
	}
}
