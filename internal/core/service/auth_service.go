package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/ebms/billing-system/internal/core/domain"
	"github.com/ebms/billing-system/internal/core/ports"
)

// AuthService implements registration and login on top of the user directory
// and issues HS256 session tokens.
type AuthService struct {
	users     ports.UserService
	throttle  ports.LoginThrottle
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

// NewAuthService wires an AuthService. A nil throttle disables lockout.
func NewAuthService(users ports.UserService, throttle ports.LoginThrottle, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if throttle == nil {
		throttle = NoLoginThrottle{}
	}
	return &AuthService{users: users, throttle: throttle, jwtSecret: jwtSecret, tokenTTL: tokenTTL, log: log}
}

// Register self-registers a customer and logs them in.
func (s *AuthService) Register(ctx context.Context, profile ports.ProfileInput, password string) (string, *domain.PublicUser, error) {
	user, err := s.users.Register(ctx, profile, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Login authenticates identifier under role and returns a signed token.
// Repeated failures for the same identifier lock it out for a while; a
// throttle outage is logged and does not block logins.
func (s *AuthService) Login(ctx context.Context, identifier, password string, role domain.Role) (string, *domain.PublicUser, error) {
	key := throttleKey(identifier, role)

	locked, err := s.throttle.Locked(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Msg("login throttle check failed, continuing")
	} else if locked {
		return "", nil, domain.ErrTooManyAttempts
	}

	user, err := s.users.Authenticate(ctx, identifier, password, role)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			if ferr := s.throttle.RecordFailure(ctx, key); ferr != nil {
				s.log.Warn().Err(ferr).Msg("failed to record login failure")
			}
		}
		return "", nil, err
	}

	if err := s.throttle.Reset(ctx, key); err != nil {
		s.log.Warn().Err(err).Msg("failed to reset login throttle")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}
	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("login succeeded")
	return token, user, nil
}

func (s *AuthService) generateToken(user *domain.PublicUser) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func throttleKey(identifier string, role domain.Role) string {
	return string(role) + ":" + strings.ToLower(strings.TrimSpace(identifier))
}

// NoLoginThrottle never locks anyone out.
type NoLoginThrottle struct{}

func (NoLoginThrottle) Locked(context.Context, string) (bool, error) { return false, nil }
func (NoLoginThrottle) RecordFailure(context.Context, string) error  { return nil }
func (NoLoginThrottle) Reset(context.Context, string) error          { return nil }
