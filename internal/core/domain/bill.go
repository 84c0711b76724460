package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BillStatus represents the payment state of a bill.
type BillStatus string

const (
	BillUnpaid BillStatus = "UNPAID"
	BillPaid   BillStatus = "PAID"
)

// Valid reports whether s is a known status.
func (s BillStatus) Valid() bool {
	return s == BillUnpaid || s == BillPaid
}

// ParseBillStatus accepts "PAID"/"UNPAID" in any case.
func ParseBillStatus(s string) (BillStatus, error) {
	st := BillStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// Payment is one settlement recorded against a bill.
type Payment struct {
	ID     string          `json:"id"`
	PaidAt time.Time       `json:"paid_at"`
	Amount decimal.Decimal `json:"amount"`
}

// Bill is the aggregate root of the billing domain.
//
// CustomerName and MeterNumber are copied from the customer when the bill is
// generated and are not refreshed afterwards. Amount and Charges are fixed at
// generation as well.
type Bill struct {
	ID            string
	CustomerID    string
	CustomerName  string
	MeterNumber   string
	Period        string
	UnitsConsumed int64
	Amount        decimal.Decimal
	Charges       []Charge
	Status        BillStatus
	GeneratedAt   time.Time
	Payments      []Payment
}

// NewBill prices units under t and returns an UNPAID bill for customer.
func NewBill(customer *User, period string, units int64, t Tariff, now time.Time) (*Bill, error) {
	if units < 0 {
		return nil, ErrNegativeUnits
	}
	period = strings.TrimSpace(period)
	if period == "" {
		return nil, InvalidInput("period is required")
	}
	if customer.Role != RoleCustomer {
		return nil, ErrNotCustomer
	}
	return &Bill{
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		MeterNumber:   customer.MeterNumber,
		Period:        period,
		UnitsConsumed: units,
		Amount:        t.ComputeAmount(units).Round(2),
		Charges:       t.Breakdown(units),
		Status:        BillUnpaid,
		GeneratedAt:   now,
		Payments:      []Payment{},
	}, nil
}

// Pay settles the bill in full with a single payment.
func (b *Bill) Pay(paymentID string, now time.Time) error {
	if b.Status == BillPaid {
		return ErrBillAlreadyPaid
	}
	b.Payments = append(b.Payments, Payment{ID: paymentID, PaidAt: now, Amount: b.Amount})
	b.Status = BillPaid
	return nil
}

// Override forces the bill into status. For PAID, a nil payments slice makes
// the bill record one full payment built by synth; a non-nil slice replaces
// the history verbatim. For UNPAID the history is always cleared.
func (b *Bill) Override(status BillStatus, payments []Payment, synth func() Payment) error {
	switch status {
	case BillPaid:
		if payments == nil {
			payments = []Payment{synth()}
		}
		b.Payments = append([]Payment{}, payments...)
	case BillUnpaid:
		b.Payments = []Payment{}
	default:
		return ErrInvalidStatus
	}
	b.Status = status
	return nil
}

// OwnedBy reports whether the bill belongs to customerID.
func (b *Bill) OwnedBy(customerID string) bool {
	return b.CustomerID == customerID
}

// EffectiveRate is the average price per unit of this bill.
func (b *Bill) EffectiveRate() decimal.Decimal {
	return EffectiveRate(b.Amount, b.UnitsConsumed)
}

// PaidTotal sums the recorded payments.
func (b *Bill) PaidTotal() decimal.Decimal {
	total := decimal.Zero
	for _, p := range b.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// Clone returns a deep copy so adapters can hand out snapshots safely.
func (b *Bill) Clone() *Bill {
	c := *b
	c.Charges = append([]Charge(nil), b.Charges...)
	c.Payments = append([]Payment{}, b.Payments...)
	return &c
}
