// Package repository provides a generic document repository: uniform
// create/read/update/delete semantics for any document type backed by a
// MongoDB collection, with shared not-found/conflict/unavailable error
// mapping. Concrete repositories (users, reservations) are thin
// specializations that hold a Repository and supply filters.
package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	// ErrNotFound reports that no document matched the filter. This is an
	// expected, recoverable outcome, never conflated with store failures.
	ErrNotFound = errors.New("document not found")
	// ErrConflict reports a unique-index violation on insert.
	ErrConflict = errors.New("document already exists")
	// ErrUnavailable reports that the underlying store could not be reached
	// or timed out. Callers may retry under their own policy.
	ErrUnavailable = errors.New("document store unavailable")
)

// Document is implemented by pointer types embedding Base. The repository
// uses it to assign ids and maintain timestamps; callers never set ids.
type Document interface {
	GetID() string
	SetID(id string)
	Stamp(now time.Time)
}

// Base carries the fields every stored document shares. Embed it with the
// bson inline tag:
//
//	type Reservation struct {
//		repository.Base `bson:",inline"`
//		...
//	}
type Base struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (b *Base) GetID() string   { return b.ID }
func (b *Base) SetID(id string) { b.ID = id }

// Stamp sets the modification time, and the creation time on first call.
func (b *Base) Stamp(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// Repository is the generic CRUD contract. Filters are equality/comparison
// filters over document fields in the store's native form (bson).
//
// FindOne, FindOneAndUpdate and FindOneAndDelete fail with ErrNotFound when
// nothing matches; FindMany returns an empty slice instead. Exists is the
// explicit existence probe, so callers never use ErrNotFound for control
// flow.
type Repository[T any] interface {
	Create(ctx context.Context, doc *T) (*T, error)
	FindOne(ctx context.Context, filter bson.M) (*T, error)
	FindMany(ctx context.Context, filter bson.M) ([]*T, error)
	FindOneAndUpdate(ctx context.Context, filter bson.M, set bson.M) (*T, error)
	FindOneAndDelete(ctx context.Context, filter bson.M) (*T, error)
	Exists(ctx context.Context, filter bson.M) (bool, error)
}
