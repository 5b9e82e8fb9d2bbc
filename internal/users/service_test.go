package users

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/reservio/reservio/internal/repository"
)

func newService() *Service {
	return NewService(repository.NewMemory[User]("email"))
}

func TestRegisterAndValidate(t *testing.T) {
	s := newService()
	ctx := context.Background()

	dto, err := s.Register(ctx, "a@x.com", "pw123!")
	require.NoError(t, err)
	require.NotEmpty(t, dto.ID)
	require.Equal(t, "a@x.com", dto.Email)

	got, err := s.ValidateCredentials(ctx, "a@x.com", "pw123!")
	require.NoError(t, err)
	require.Equal(t, dto.ID, got.ID)
	require.Equal(t, dto.Email, got.Email)
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	s := newService()
	ctx := context.Background()

	first, err := s.Register(ctx, "a@x.com", "pw123!")
	require.NoError(t, err)

	_, err = s.Register(ctx, "a@x.com", "other-pw")
	require.ErrorIs(t, err, repository.ErrConflict)

	// first user unchanged and still retrievable
	got, err := s.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", got.Email)
}

func TestValidateCredentials_WrongPassword(t *testing.T) {
	s := newService()
	ctx := context.Background()
	_, err := s.Register(ctx, "a@x.com", "pw123!")
	require.NoError(t, err)

	_, err = s.ValidateCredentials(ctx, "a@x.com", "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestValidateCredentials_UnknownEmailSameError(t *testing.T) {
	s := newService()
	_, err := s.ValidateCredentials(context.Background(), "nobody@x.com", "pw")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestPasswordNeverStoredInPlaintext(t *testing.T) {
	repo := repository.NewMemory[User]("email")
	s := NewService(repo)
	ctx := context.Background()

	dto, err := s.Register(ctx, "a@x.com", "pw123!")
	require.NoError(t, err)

	u, err := repo.FindOne(ctx, bson.M{"_id": dto.ID})
	require.NoError(t, err)
	require.NotEqual(t, "pw123!", u.Password)
	require.True(t, strings.HasPrefix(u.Password, "$2"), "expected a bcrypt hash, got %q", u.Password)
}
