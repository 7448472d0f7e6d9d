package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type StoreAPI interface {
	FindActiveUserByEmail(ctx context.Context, email string) (User, error)
	UpdateLastLogin(ctx context.Context, userID int64) error
}

type Service struct {
	Store  StoreAPI
	Secret string
	TTL    time.Duration
	logger *zap.Logger
}

func NewService(store StoreAPI, secret string, ttl time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Store: store, Secret: secret, TTL: ttl, logger: logger.Named("auth")}
}

// Login checks the credentials and issues a signed token. Unknown users and
// wrong passwords both come back as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, User, error) {
	user, err := s.Store.FindActiveUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", User{}, ErrInvalidCredentials
		}
		return "", User{}, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return "", User{}, ErrInvalidCredentials
	}
	token, err := GenerateToken(s.Secret, Claims{UserID: user.ID, Email: user.Email}, s.TTL)
	if err != nil {
		return "", User{}, err
	}
	if err := s.Store.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("update last_login failed", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	return token, user, nil
}
