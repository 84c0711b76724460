package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ebms/billing-system/internal/core/domain"
	"github.com/ebms/billing-system/internal/core/policy"
	"github.com/ebms/billing-system/internal/core/ports"
)

// UserService implements the user directory.
type UserService struct {
	repo            ports.UserRepository
	defaultPassword string
	cost            int
	now             func() time.Time
	log             zerolog.Logger
}

// UserOption customises a UserService.
type UserOption func(*UserService)

// WithBcryptCost overrides bcrypt.DefaultCost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) UserOption {
	return func(s *UserService) { s.cost = cost }
}

// WithUserClock overrides time.Now.
func WithUserClock(now func() time.Time) UserOption {
	return func(s *UserService) { s.now = now }
}

// NewUserService returns a directory backed by repo. defaultPassword is the
// placeholder credential given to admin-created customers when none is set.
func NewUserService(repo ports.UserRepository, defaultPassword string, log zerolog.Logger, opts ...UserOption) *UserService {
	s := &UserService{
		repo:            repo,
		defaultPassword: defaultPassword,
		cost:            bcrypt.DefaultCost,
		now:             func() time.Time { return time.Now().UTC() },
		log:             log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a customer account. The role is always CUSTOMER.
func (s *UserService) Register(ctx context.Context, profile ports.ProfileInput, password string) (*domain.PublicUser, error) {
	user, err := s.create(ctx, profile, password, domain.RoleCustomer)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Msg("customer registered")
	return user, nil
}

// CreateCustomer is Register initiated by an admin. An empty password falls
// back to the configured placeholder credential.
func (s *UserService) CreateCustomer(ctx context.Context, actor domain.Actor, profile ports.ProfileInput, password string) (*domain.PublicUser, error) {
	if err := policy.Authorize(actor, policy.CreateCustomer, ""); err != nil {
		return nil, err
	}
	if password == "" {
		password = s.defaultPassword
	}
	user, err := s.create(ctx, profile, password, domain.RoleCustomer)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Str("admin_id", actor.ID).Msg("customer created")
	return user, nil
}

// EnsureAdmin creates an admin account unless a user with the same email
// already exists. The boolean reports whether a new account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, profile ports.ProfileInput, password string) (*domain.PublicUser, bool, error) {
	existing, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(profile.Email))
	if err == nil {
		return existing.Public(), false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, err
	}
	user, err := s.create(ctx, profile, password, domain.RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	s.log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("admin account seeded")
	return user, true, nil
}

func (s *UserService) create(ctx context.Context, profile ports.ProfileInput, password string, role domain.Role) (*domain.PublicUser, error) {
	profile.Name = strings.TrimSpace(profile.Name)
	profile.Address = strings.TrimSpace(profile.Address)
	profile.Email = domain.NormalizeEmail(profile.Email)
	profile.MeterNumber = strings.TrimSpace(profile.MeterNumber)

	if profile.Name == "" || profile.Email == "" {
		return nil, domain.InvalidInput("name and email are required")
	}
	if role == domain.RoleCustomer && profile.MeterNumber == "" {
		return nil, domain.InvalidInput("meter number is required")
	}
	if len(password) < domain.MinPasswordLength {
		return nil, domain.InvalidInput("password is too short")
	}

	if err := s.ensureEmailFree(ctx, profile.Email, ""); err != nil {
		return nil, err
	}
	if role == domain.RoleCustomer {
		if _, err := s.repo.FindByMeterNumber(ctx, profile.MeterNumber); err == nil {
			return nil, domain.ErrMeterExists
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}

	now := s.now()
	created, err := s.repo.Insert(ctx, &domain.User{
		Name:         profile.Name,
		Address:      profile.Address,
		Email:        profile.Email,
		MeterNumber:  profile.MeterNumber,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}
	return created.Public(), nil
}

// ensureEmailFree fails with ErrUserExists if email belongs to anyone other
// than selfID.
func (s *UserService) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != selfID:
		return domain.ErrUserExists
	case err == nil, errors.Is(err, domain.ErrUserNotFound):
		return nil
	default:
		return err
	}
}

// Authenticate checks identifier, password and role together. Customers may
// log in with their email or meter number; admins only with email. Every
// mismatch yields ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string, claimedRole domain.Role) (*domain.PublicUser, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" || !claimedRole.Valid() {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.lookup(ctx, identifier, claimedRole)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if user.Role != claimedRole {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user.Public(), nil
}

func (s *UserService) lookup(ctx context.Context, identifier string, role domain.Role) (*domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(identifier))
	if err == nil || !errors.Is(err, domain.ErrUserNotFound) || role != domain.RoleCustomer {
		return user, err
	}
	return s.repo.FindByMeterNumber(ctx, identifier)
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, actor domain.Actor, userID string) (*domain.PublicUser, error) {
	if err := policy.Authorize(actor, policy.ReadUser, userID); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

// List returns the directory, optionally narrowed to one role.
func (s *UserService) List(ctx context.Context, actor domain.Actor, role domain.Role) ([]*domain.PublicUser, error) {
	if err := policy.Authorize(actor, policy.ListUsers, ""); err != nil {
		return nil, err
	}
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.PublicUser, 0, len(users))
	for _, u := range users {
		if role != "" && u.Role != role {
			continue
		}
		out = append(out, u.Public())
	}
	return out, nil
}

// UpdateProfile edits name, address and email. Role and meter number cannot
// be changed through this path.
func (s *UserService) UpdateProfile(ctx context.Context, actor domain.Actor, userID string, update ports.ProfileUpdate) (*domain.PublicUser, error) {
	if err := policy.Authorize(actor, policy.UpdateUser, userID); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, domain.InvalidInput("name must not be empty")
		}
		user.Name = name
	}
	if update.Address != nil {
		user.Address = strings.TrimSpace(*update.Address)
	}
	if update.Email != nil {
		email := domain.NormalizeEmail(*update.Email)
		if email == "" {
			return nil, domain.InvalidInput("email must not be empty")
		}
		if email != user.Email {
			if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	user.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", userID).Str("actor_id", actor.ID).Msg("profile updated")
	return updated.Public(), nil
}

// ChangePassword rotates a credential. Admins changing somebody else's
// password skip the current-password check.
func (s *UserService) ChangePassword(ctx context.Context, actor domain.Actor, userID string, change ports.PasswordChange) error {
	if err := policy.Authorize(actor, policy.ChangePassword, userID); err != nil {
		return err
	}
	if len(change.New) < domain.MinPasswordLength {
		return domain.InvalidInput("password is too short")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !actor.IsAdmin() || actor.ID == userID {
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(change.Current)) != nil {
			return domain.ErrInvalidCredentials
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(change.New), s.cost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = s.now()

	if _, err := s.repo.Update(ctx, user); err != nil {
		return err
	}
	s.log.Info().Str("user_id", userID).Str("actor_id", actor.ID).Msg("password changed")
	return nil
}
