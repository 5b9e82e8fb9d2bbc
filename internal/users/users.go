package users

import (
	"github.com/reservio/reservio/internal/repository"
)

// User is the persisted identity document. Password holds the bcrypt hash,
// never the plaintext, and is excluded from JSON.
type User struct {
	repository.Base `bson:",inline"`
	Email           string `bson:"email" json:"email"`
	Password        string `bson:"password" json:"-"`
}

// DTO is the identity attached to authenticated requests. It is built fresh
// per request and never persisted by consuming services.
type DTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (u *User) DTO() *DTO {
	return &DTO{ID: u.ID, Email: u.Email}
}
