// Package memory is the local-only persistence gateway. It keeps users and
// bills in process memory and loses them on restart; use it for demos and
// tests, not production.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ebms/billing-system/internal/core/domain"
	"github.com/ebms/billing-system/internal/core/ports"
)

// Store holds both repositories behind one lock.
type Store struct {
	mu    sync.RWMutex
	users map[string]*domain.User
	bills map[string]*domain.Bill
	newID func() string
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]*domain.User),
		bills: make(map[string]*domain.Bill),
		newID: uuid.NewString,
	}
}

// Users returns the user half of the gateway.
func (s *Store) Users() ports.UserRepository { return (*userRepo)(s) }

// Bills returns the bill half of the gateway.
func (s *Store) Bills() ports.BillRepository { return (*billRepo)(s) }

type userRepo Store

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (r *userRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *userRepo) FindByMeterNumber(_ context.Context, meterNumber string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Role == domain.RoleCustomer && u.MeterNumber == meterNumber {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *userRepo) Insert(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
		if user.Role == domain.RoleCustomer && u.Role == domain.RoleCustomer && u.MeterNumber == user.MeterNumber {
			return nil, domain.ErrMeterExists
		}
	}
	c := cloneUser(user)
	c.ID = r.newID()
	r.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *userRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.users[user.ID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	for id, u := range r.users {
		if id != user.ID && u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	c := cloneUser(current)
	c.Name = user.Name
	c.Address = user.Address
	c.Email = user.Email
	c.PasswordHash = user.PasswordHash
	c.UpdatedAt = user.UpdatedAt
	r.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *userRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

type billRepo Store

func (r *billRepo) Insert(_ context.Context, bill *domain.Bill) (*domain.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := bill.Clone()
	c.ID = r.newID()
	r.bills[c.ID] = c
	return c.Clone(), nil
}

func (r *billRepo) FindByID(_ context.Context, id string) (*domain.Bill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.bills[id]; ok {
		return b.Clone(), nil
	}
	return nil, domain.ErrBillNotFound
}

func (r *billRepo) List(_ context.Context, filter ports.BillFilter) ([]*domain.Bill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Bill, 0)
	for _, b := range r.bills {
		if filter.CustomerID != "" && b.CustomerID != filter.CustomerID {
			continue
		}
		out = append(out, b.Clone())
	}
	return out, nil
}

func (r *billRepo) Replace(_ context.Context, id string, bill *domain.Bill) (*domain.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bills[id]; !ok {
		return nil, domain.ErrBillNotFound
	}
	c := bill.Clone()
	c.ID = id
	r.bills[id] = c
	return c.Clone(), nil
}
