package ports

import (
	"context"

	"github.com/ebms/billing-system/internal/core/domain"
)

// AuthService issues session tokens on top of the user directory.
type AuthService interface {
	Register(ctx context.Context, profile ProfileInput, password string) (string, *domain.PublicUser, error)
	Login(ctx context.Context, identifier, password string, role domain.Role) (string, *domain.PublicUser, error)
}

// LoginThrottle tracks failed logins per identifier.
type LoginThrottle interface {
	Locked(ctx context.Context, identifier string) (bool, error)
	RecordFailure(ctx context.Context, identifier string) error
	Reset(ctx context.Context, identifier string) error
}
