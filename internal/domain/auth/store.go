package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type User struct {
	ID           int64
	Email        string
	PasswordHash string
}

type Store struct {
	DB *pgxpool.Pool
}

var _ StoreAPI = (*Store)(nil)

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (User, error) {
	var out User
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, password_hash
    FROM users
    WHERE lower(email) = lower($1) AND is_active
  `, strings.TrimSpace(email)).Scan(&out.ID, &out.Email, &out.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return out, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID int64) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login_at = now() WHERE id = $1", userID)
	return err
}

// EnsureUser creates the user when the email is not taken yet.
func (s *Store) EnsureUser(ctx context.Context, email, passwordHash string) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO users (email, password_hash)
    VALUES ($1, $2)
    ON CONFLICT (email) DO NOTHING
  `, strings.TrimSpace(email), passwordHash)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
