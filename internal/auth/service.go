package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"proprag/internal/models"
	"proprag/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionExpired     = errors.New("session expired")
)

// Identity is the authenticated caller. It is threaded explicitly into every
// store and retrieval call; nothing in the pipelines reads ambient session
// state.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type Service struct {
	users    *storage.UserRepo
	sessions *storage.SessionRepo
	ttl      time.Duration
}

func NewService(users *storage.UserRepo, sessions *storage.SessionRepo, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &Service{users: users, sessions: sessions, ttl: ttl}
}

func (s *Service) SignUp(ctx context.Context, email, password string) (models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return models.User{}, fmt.Errorf("invalid email address")
	}
	if len(password) < 8 {
		return models.User{}, fmt.Errorf("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{UserID: uuid.NewString(), Email: email}
	if err := s.users.CreateUser(ctx, user, string(hash)); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *Service) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	user, hash, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, storage.ErrUserNotFound) {
		return models.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return models.Session{}, ErrInvalidCredentials
	}
	session := models.Session{
		Token:     uuid.NewString(),
		UserID:    user.UserID,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return models.Session{}, err
	}
	return session, nil
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}

// Authenticate resolves a bearer token to the caller identity.
func (s *Service) Authenticate(ctx context.Context, token string) (Identity, error) {
	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return Identity{}, err
	}
	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.DeleteSession(ctx, token)
		return Identity{}, ErrSessionExpired
	}
	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: user.UserID, Email: user.Email}, nil
}
