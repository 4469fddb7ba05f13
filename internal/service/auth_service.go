package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"villabook/internal/domain"
)

var (
	ErrInvalidPIN      = errors.New("invalid pin")
	ErrTooManyAttempts = errors.New("too many pin attempts, try again later")
)

// AuthService gates the whole app behind a single four-digit PIN. A
// correct PIN mints a random session token; every other endpoint checks
// that token.
type AuthService struct {
	pin           string
	sessions      domain.SessionRepository
	sessionTTL    time.Duration
	attemptLimit  int
	attemptWindow time.Duration
	logger        *zerolog.Logger
}

func NewAuthService(pin string, sessions domain.SessionRepository, sessionTTL time.Duration, attemptLimit int, attemptWindow time.Duration, logger *zerolog.Logger) *AuthService {
	return &AuthService{
		pin:           pin,
		sessions:      sessions,
		sessionTTL:    sessionTTL,
		attemptLimit:  attemptLimit,
		attemptWindow: attemptWindow,
		logger:        logger,
	}
}

// Login checks the PIN and returns a fresh session token. Attempts are
// throttled per client key so the four-digit space cannot be brute forced.
func (s *AuthService) Login(ctx context.Context, pin, clientKey string) (string, error) {
	allowed, err := s.sessions.CheckRateLimit(ctx, "pin:"+clientKey, s.attemptLimit, s.attemptWindow)
	if err != nil {
		s.logger.Warn().Err(err).Msg("pin rate limit check error")
	} else if !allowed {
		return "", ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(pin), []byte(s.pin)) != 1 {
		s.logger.Info().Str("client", clientKey).Msg("pin rejected")
		return "", ErrInvalidPIN
	}

	token := uuid.NewString()
	if err := s.sessions.CreateSession(ctx, token, s.sessionTTL); err != nil {
		return "", err
	}
	return token, nil
}

// Authorized reports whether the token belongs to a live session.
func (s *AuthService) Authorized(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	return s.sessions.SessionExists(ctx, token)
}

// Logout drops the session. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.DeleteSession(ctx, token)
}
