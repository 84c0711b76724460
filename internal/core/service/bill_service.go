package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ebms/billing-system/internal/core/domain"
	"github.com/ebms/billing-system/internal/core/policy"
	"github.com/ebms/billing-system/internal/core/ports"
)

// BillService implements the bill lifecycle: generation, customer payment,
// administrative status override and role-scoped retrieval.
//
// Every mutation is one read-modify-write of a single bill; concurrent writers
// to the same bill are last-write-wins.
type BillService struct {
	bills  ports.BillRepository
	users  ports.UserRepository
	tariff domain.Tariff
	now    func() time.Time
	newID  func() string
	log    zerolog.Logger
}

// BillOption customises a BillService.
type BillOption func(*BillService)

// WithTariff replaces domain.DefaultTariff.
func WithTariff(t domain.Tariff) BillOption {
	return func(s *BillService) { s.tariff = t }
}

// WithBillClock overrides time.Now.
func WithBillClock(now func() time.Time) BillOption {
	return func(s *BillService) { s.now = now }
}

// WithPaymentIDs overrides the payment ID generator.
func WithPaymentIDs(newID func() string) BillOption {
	return func(s *BillService) { s.newID = newID }
}

func NewBillService(bills ports.BillRepository, users ports.UserRepository, log zerolog.Logger, opts ...BillOption) *BillService {
	s := &BillService{
		bills:  bills,
		users:  users,
		tariff: domain.DefaultTariff,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
		log:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate bills a customer for a period. Amount and charge lines are fixed
// here and never recomputed.
func (s *BillService) Generate(ctx context.Context, actor domain.Actor, input ports.GenerateBillInput) (*domain.Bill, error) {
	if err := policy.Authorize(actor, policy.GenerateBill, input.CustomerID); err != nil {
		return nil, err
	}
	if input.UnitsConsumed < 0 {
		return nil, domain.ErrNegativeUnits
	}

	customer, err := s.users.FindByID(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}

	bill, err := domain.NewBill(customer, input.Period, input.UnitsConsumed, s.tariff, s.now())
	if err != nil {
		return nil, err
	}

	created, err := s.bills.Insert(ctx, bill)
	if err != nil {
		s.log.Error().Err(err).Str("customer_id", input.CustomerID).Msg("failed to store bill")
		return nil, err
	}

	s.log.Info().
		Str("bill_id", created.ID).
		Str("customer_id", created.CustomerID).
		Str("period", created.Period).
		Int64("units", created.UnitsConsumed).
		Str("amount", created.Amount.StringFixed(2)).
		Msg("bill generated")
	return created, nil
}

// Pay settles an UNPAID bill in full on behalf of its owner.
func (s *BillService) Pay(ctx context.Context, actor domain.Actor, billID string) (*domain.Bill, error) {
	if !actor.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	bill, err := s.bills.FindByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.PayBill, bill.CustomerID); err != nil {
		return nil, err
	}

	if err := bill.Pay(s.newID(), s.now()); err != nil {
		return nil, err
	}

	updated, err := s.bills.Replace(ctx, bill.ID, bill)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("bill_id", billID).Str("actor_id", actor.ID).Msg("bill paid")
	return updated, nil
}

// SetStatus is the administrative override. See domain.Bill.Override for the
// payment-history rules.
func (s *BillService) SetStatus(ctx context.Context, actor domain.Actor, input ports.SetStatusInput) (*domain.Bill, error) {
	if err := policy.Authorize(actor, policy.OverrideBill, ""); err != nil {
		return nil, err
	}
	if !input.Status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	bill, err := s.bills.FindByID(ctx, input.BillID)
	if err != nil {
		return nil, err
	}

	// A supplied list only matters when marking the bill PAID.
	var payments []domain.Payment
	if input.Status == domain.BillPaid {
		if payments, err = s.toPayments(input.Payments); err != nil {
			return nil, err
		}
	}
	synth := func() domain.Payment {
		return domain.Payment{ID: s.newID(), PaidAt: s.now(), Amount: bill.Amount}
	}
	previous := bill.Status
	if err := bill.Override(input.Status, payments, synth); err != nil {
		return nil, err
	}

	updated, err := s.bills.Replace(ctx, bill.ID, bill)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("bill_id", bill.ID).
		Str("admin_id", actor.ID).
		Str("from", string(previous)).
		Str("to", string(input.Status)).
		Int("payments", len(updated.Payments)).
		Msg("bill status overridden")
	return updated, nil
}

func (s *BillService) toPayments(in []ports.PaymentInput) ([]domain.Payment, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]domain.Payment, 0, len(in))
	for _, p := range in {
		if p.Amount.IsNegative() {
			return nil, domain.InvalidInput("payment amount must not be negative")
		}
		id := p.ID
		if id == "" {
			id = s.newID()
		}
		paidAt := p.PaidAt
		if paidAt.IsZero() {
			paidAt = s.now()
		}
		out = append(out, domain.Payment{ID: id, PaidAt: paidAt.UTC(), Amount: p.Amount.Round(2)})
	}
	return out, nil
}

// Get returns one bill visible to actor.
func (s *BillService) Get(ctx context.Context, actor domain.Actor, billID string) (*domain.Bill, error) {
	if !actor.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	bill, err := s.bills.FindByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ReadBill, bill.CustomerID); err != nil {
		return nil, err
	}
	return bill, nil
}

// List returns every bill for admins and only the caller's bills for
// customers. No ordering is applied here.
func (s *BillService) List(ctx context.Context, actor domain.Actor) ([]*domain.Bill, error) {
	var filter ports.BillFilter
	if policy.Scoped(actor, policy.ListBills) {
		filter.CustomerID = actor.ID
	}
	if err := policy.Authorize(actor, policy.ListBills, filter.CustomerID); err != nil {
		return nil, err
	}
	return s.bills.List(ctx, filter)
}
