package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is the account profile shared by the client session and the backend.
type User struct {
	ID                  uuid.UUID `json:"id"`
	FirstName           string    `json:"firstName"`
	LastName            string    `json:"lastName"`
	Email               string    `json:"email"`
	MobileNumber        string    `json:"mobileNumber,omitempty"`
	OnboardingCompleted bool      `json:"onboardingCompleted"`
	PasswordHash        string    `json:"-"` // argon2id, backend only
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// FullName joins first and last name, skipping an empty last name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByMobile(ctx context.Context, mobile string) (*User, error)
	Update(ctx context.Context, u *User) error
}
