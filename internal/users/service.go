// Package users implements the authority's identity store: registration with
// a uniqueness guarantee on email, credential validation against bcrypt
// hashes, and lookup by id for token resolution.
package users

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/reservio/reservio/internal/repository"
)

// ErrUnauthorized covers both unknown email and wrong password, so callers
// cannot tell which check failed.
var ErrUnauthorized = errors.New("invalid credentials")

// Service encapsulates user-related business logic over the generic
// document repository.
type Service struct {
	repo repository.Repository[User]
}

func NewService(r repository.Repository[User]) *Service {
	return &Service{repo: r}
}

// Register creates a user with a bcrypt-hashed password. A duplicate email
// fails with repository.ErrConflict: the explicit existence check catches the
// common case, the store's unique index on email catches concurrent
// duplicates.
func (s *Service) Register(ctx context.Context, email, password string) (*DTO, error) {
	taken, err := s.repo.Exists(ctx, bson.M{"email": email})
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: email already registered", repository.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.Create(ctx, &User{Email: email, Password: string(hash)})
	if err != nil {
		return nil, err
	}
	return u.DTO(), nil
}

// ValidateCredentials resolves the identity for an email/password pair.
// bcrypt's comparison is constant-time over the hash.
func (s *Service) ValidateCredentials(ctx context.Context, email, password string) (*DTO, error) {
	u, err := s.repo.FindOne(ctx, bson.M{"email": email})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}
	return u.DTO(), nil
}

// GetByID resolves the identity embedded in a verified token.
func (s *Service) GetByID(ctx context.Context, id string) (*DTO, error) {
	u, err := s.repo.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	return u.DTO(), nil
}
