package ports

import (
	"context"

	"github.com/ebms/billing-system/internal/core/domain"
)

// ProfileInput carries the fields of a new directory entry.
type ProfileInput struct {
	Name        string
	Address     string
	Email       string
	MeterNumber string
}

// ProfileUpdate carries an edit to an existing profile. Nil fields are left
// untouched. Role and meter number are deliberately absent.
type ProfileUpdate struct {
	Name    *string
	Address *string
	Email   *string
}

// PasswordChange carries a credential rotation. Current may be empty only
// when an admin rotates another user's password.
type PasswordChange struct {
	Current string
	New     string
}

// UserService is the user directory.
type UserService interface {
	Register(ctx context.Context, profile ProfileInput, password string) (*domain.PublicUser, error)
	CreateCustomer(ctx context.Context, actor domain.Actor, profile ProfileInput, password string) (*domain.PublicUser, error)
	Authenticate(ctx context.Context, identifier, password string, claimedRole domain.Role) (*domain.PublicUser, error)
	Get(ctx context.Context, actor domain.Actor, userID string) (*domain.PublicUser, error)
	// List returns every user, or only those holding role when it is non-empty.
	List(ctx context.Context, actor domain.Actor, role domain.Role) ([]*domain.PublicUser, error)
	UpdateProfile(ctx context.Context, actor domain.Actor, userID string, update ProfileUpdate) (*domain.PublicUser, error)
	ChangePassword(ctx context.Context, actor domain.Actor, userID string, change PasswordChange) error
	EnsureAdmin(ctx context.Context, profile ProfileInput, password string) (*domain.PublicUser, bool, error)
}
