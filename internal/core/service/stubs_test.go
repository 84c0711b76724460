package service

import (
	"context"
	"fmt"

	"github.com/ebms/billing-system/internal/core/domain"
	"github.com/ebms/billing-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users     map[string]*domain.User
	seq       int
	insertErr error
	findErr   error
	updates   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByMeterNumber(_ context.Context, meter string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.MeterNumber == meter && u.Role == domain.RoleCustomer {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Insert(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	c := cloneUser(user)
	c.ID = fmt.Sprintf("user-%d", r.seq)
	r.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := r.users[user.ID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	r.updates++
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

// put seeds a user directly, bypassing hashing.
func (r *stubUserRepo) put(u *domain.User) *domain.User {
	r.users[u.ID] = cloneUser(u)
	return u
}

type stubBillRepo struct {
	bills      map[string]*domain.Bill
	seq        int
	replaceErr error
	listErr    error
	replaced   int
	lastFilter ports.BillFilter
}

func newStubBillRepo() *stubBillRepo {
	return &stubBillRepo{bills: make(map[string]*domain.Bill)}
}

func (r *stubBillRepo) Insert(_ context.Context, b *domain.Bill) (*domain.Bill, error) {
	r.seq++
	c := b.Clone()
	c.ID = fmt.Sprintf("bill-%d", r.seq)
	r.bills[c.ID] = c
	return c.Clone(), nil
}

func (r *stubBillRepo) FindByID(_ context.Context, id string) (*domain.Bill, error) {
	if b, ok := r.bills[id]; ok {
		return b.Clone(), nil
	}
	return nil, domain.ErrBillNotFound
}

func (r *stubBillRepo) List(_ context.Context, filter ports.BillFilter) ([]*domain.Bill, error) {
	r.lastFilter = filter
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*domain.Bill
	for _, b := range r.bills {
		if filter.CustomerID != "" && b.CustomerID != filter.CustomerID {
			continue
		}
		out = append(out, b.Clone())
	}
	return out, nil
}

func (r *stubBillRepo) Replace(_ context.Context, id string, b *domain.Bill) (*domain.Bill, error) {
	if r.replaceErr != nil {
		return nil, r.replaceErr
	}
	if _, ok := r.bills[id]; !ok {
		return nil, domain.ErrBillNotFound
	}
	r.replaced++
	r.bills[id] = b.Clone()
	return b.Clone(), nil
}
