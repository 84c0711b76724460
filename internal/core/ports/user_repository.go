package ports

import (
	"context"

	"github.com/ebms/billing-system/internal/core/domain"
)

// UserRepository is the user half of the persistence gateway.
// Lookups that match nothing return domain.ErrUserNotFound; driver failures
// are wrapped in domain.ErrStorage.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail expects the normalized (lower-cased) email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByMeterNumber(ctx context.Context, meterNumber string) (*domain.User, error)
	// Insert assigns the ID and returns domain.ErrUserExists on a duplicate email.
	Insert(ctx context.Context, user *domain.User) (*domain.User, error)
	// Update overwrites name, address, email, password hash and updated_at.
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}
