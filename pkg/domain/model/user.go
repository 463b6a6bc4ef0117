package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound       = newError(ErrNotFound, "user not found")
	ErrEmailTaken         = newError(ErrConflict, "email is already taken")
	ErrInvalidCredentials = newError(ErrUnauthorized, "invalid email or password")
	ErrSessionNotFound    = newError(ErrUnauthorized, "session not found or expired")
	ErrPermissionDenied   = newError(ErrForbidden, "insufficient permissions")
)

type User struct {
	ID           uuid.UUID  `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	IsAdmin      bool       `json:"isAdmin"`
	RoleID       *uuid.UUID `json:"roleId,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type Session struct {
	Token     string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

type UserRepository interface {
	NextID() (uuid.UUID, error)
	Create(ctx context.Context, user *User) error
	Find(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, page Page) ([]User, int, error)
	Count(ctx context.Context) (int, error)
	CountByRole(ctx context.Context, roleID uuid.UUID) (int, error)
	SetRole(ctx context.Context, userID uuid.UUID, roleID *uuid.UUID) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	Find(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

type PasswordManager interface {
	Hash(plainTextPassword string) (string, error)
	Check(hashedPassword, plainTextPassword string) (bool, error)
}
