// Package reservations is the reservations service's domain layer: a thin
// specialization of the generic document repository, scoped to the owning
// user on every operation.
package reservations

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/reservio/reservio/internal/repository"
)

// Reservation references its owner by user id. The reference points the
// other way only: deleting a reservation never touches the user.
type Reservation struct {
	repository.Base `bson:",inline"`
	StartDate       time.Time `bson:"startDate" json:"startDate"`
	EndDate         time.Time `bson:"endDate" json:"endDate"`
	PlaceID         string    `bson:"placeId" json:"placeId"`
	InvoiceID       string    `bson:"invoiceId,omitempty" json:"invoiceId,omitempty"`
	UserID          string    `bson:"userId" json:"userId"`
}

// Update carries a partial field update; nil fields are left untouched.
type Update struct {
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	PlaceID   *string    `json:"placeId"`
	InvoiceID *string    `json:"invoiceId"`
}

func (u Update) set() bson.M {
	set := bson.M{}
	if u.StartDate != nil {
		set["startDate"] = *u.StartDate
	}
	if u.EndDate != nil {
		set["endDate"] = *u.EndDate
	}
	if u.PlaceID != nil {
		set["placeId"] = *u.PlaceID
	}
	if u.InvoiceID != nil {
		set["invoiceId"] = *u.InvoiceID
	}
	return set
}

type Service struct {
	repo repository.Repository[Reservation]
}

func NewService(r repository.Repository[Reservation]) *Service {
	return &Service{repo: r}
}

func (s *Service) Create(ctx context.Context, userID string, r *Reservation) (*Reservation, error) {
	r.UserID = userID
	return s.repo.Create(ctx, r)
}

func (s *Service) Get(ctx context.Context, userID, id string) (*Reservation, error) {
	return s.repo.FindOne(ctx, bson.M{"_id": id, "userId": userID})
}

func (s *Service) List(ctx context.Context, userID string) ([]*Reservation, error) {
	return s.repo.FindMany(ctx, bson.M{"userId": userID})
}

// Apply applies a partial update atomically and returns the post-update
// document.
func (s *Service) Apply(ctx context.Context, userID, id string, u Update) (*Reservation, error) {
	return s.repo.FindOneAndUpdate(ctx, bson.M{"_id": id, "userId": userID}, u.set())
}

// Delete removes the reservation and returns its last stored state.
func (s *Service) Delete(ctx context.Context, userID, id string) (*Reservation, error) {
	return s.repo.FindOneAndDelete(ctx, bson.M{"_id": id, "userId": userID})
}
