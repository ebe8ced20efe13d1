package storage

import (
	"context"
	"errors"
	"fmt"

	"proprag/internal/models"

	"github.com/jackc/pgx/v5"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) CreateUser(ctx context.Context, u models.User, passwordHash string) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO users (user_id, email, password_hash)
VALUES ($1, LOWER($2), $3)`, u.UserID, u.Email, passwordHash)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, string, error) {
	var (
		u    models.User
		hash string
	)
	err := r.db.Pool.QueryRow(ctx, `
SELECT user_id, email, password_hash, created_at
FROM users WHERE email=LOWER($1)`, email).
		Scan(&u.UserID, &u.Email, &hash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, "", ErrUserNotFound
	}
	if err != nil {
		return models.User{}, "", fmt.Errorf("get user by email: %w", err)
	}
	return u, hash, nil
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (models.User, error) {
	var u models.User
	err := r.db.Pool.QueryRow(ctx, `
SELECT user_id, email, created_at FROM users WHERE user_id=$1`, userID).
		Scan(&u.UserID, &u.Email, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}
