package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"ecommerce/pkg/domain/model"
)

var ErrPasswordTooShort = model.NewValidationError("password is too short", "password")

const (
	minPasswordLength  = 8
	DefaultSessionTTL  = 24 * time.Hour
	sessionTokenLength = 32
)

type UserService interface {
	RegisterNewUser(ctx context.Context, name, email, plainTextPassword string) (*model.User, error)
	CreateAdmin(ctx context.Context, name, email, plainTextPassword string) (*model.User, error)
	Login(ctx context.Context, email, plainTextPassword string) (*model.Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*model.User, error)
	ListUsers(ctx context.Context, page model.Page) ([]model.User, int, error)
}

func NewUserService(
	repo model.UserRepository,
	sessions model.SessionRepository,
	passManager model.PasswordManager,
	dispatcher EventDispatcher,
	sessionTTL time.Duration,
) UserService {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &userService{
		repo:        repo,
		sessions:    sessions,
		passManager: passManager,
		dispatcher:  dispatcher,
		sessionTTL:  sessionTTL,
	}
}

type userService struct {
	repo        model.UserRepository
	sessions    model.SessionRepository
	passManager model.PasswordManager
	dispatcher  EventDispatcher
	sessionTTL  time.Duration
}

func (s *userService) RegisterNewUser(ctx context.Context, name, email, plainTextPassword string) (*model.User, error) {
	user, err := s.createUser(ctx, name, email, plainTextPassword, false)
	if err != nil {
		return nil, err
	}
	_ = s.dispatcher.Dispatch(model.UserRegistered{UserID: user.ID, Email: user.Email, Name: user.Name})
	return user, nil
}

func (s *userService) CreateAdmin(ctx context.Context, name, email, plainTextPassword string) (*model.User, error) {
	return s.createUser(ctx, name, email, plainTextPassword, true)
}

func (s *userService) Login(ctx context.Context, email, plainTextPassword string) (*model.Session, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrInvalidCredentials
	} else if err != nil {
		return nil, err
	}

	ok, err := s.passManager.Check(user.PasswordHash, plainTextPassword)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.ErrInvalidCredentials
	}

	token, err := newSessionToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	session := &model.Session{
		Token:     token,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *userService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

func (s *userService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, model.ErrSessionNotFound
	}
	session, err := s.sessions.Find(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.Expired(time.Now().UTC()) {
		return nil, model.ErrSessionNotFound
	}
	user, err := s.repo.Find(ctx, session.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrSessionNotFound
	}
	return user, err
}

func (s *userService) ListUsers(ctx context.Context, page model.Page) ([]model.User, int, error) {
	return s.repo.List(ctx, page)
}

func (s *userService) createUser(ctx context.Context, name, email, plainTextPassword string, isAdmin bool) (*model.User, error) {
	email = normalizeEmail(email)
	var missing []string
	if strings.TrimSpace(name) == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return nil, model.NewValidationError("missing required fields", missing...)
	}
	if len(plainTextPassword) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, model.ErrEmailTaken
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return nil, err
	}

	hashedPassword, err := s.passManager.Hash(plainTextPassword)
	if err != nil {
		return nil, err
	}
	userID, err := s.repo.NextID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           userID,
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hashedPassword,
		IsAdmin:      isAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newSessionToken() (string, error) {
	b := make([]byte, sessionTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
