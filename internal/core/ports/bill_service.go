package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ebms/billing-system/internal/core/domain"
)

// GenerateBillInput carries what an admin submits to bill a customer.
type GenerateBillInput struct {
	CustomerID    string
	Period        string
	UnitsConsumed int64
}

// PaymentInput is one entry of an explicit payment list in an admin override.
// Empty ID or zero PaidAt are filled in by the service.
type PaymentInput struct {
	ID     string
	PaidAt time.Time
	Amount decimal.Decimal
}

// SetStatusInput carries an administrative override. A nil Payments slice
// means "not supplied".
type SetStatusInput struct {
	BillID   string
	Status   domain.BillStatus
	Payments []PaymentInput
}

// BillService is the bill lifecycle manager.
type BillService interface {
	Generate(ctx context.Context, actor domain.Actor, input GenerateBillInput) (*domain.Bill, error)
	Pay(ctx context.Context, actor domain.Actor, billID string) (*domain.Bill, error)
	SetStatus(ctx context.Context, actor domain.Actor, input SetStatusInput) (*domain.Bill, error)
	Get(ctx context.Context, actor domain.Actor, billID string) (*domain.Bill, error)
	List(ctx context.Context, actor domain.Actor) ([]*domain.Bill, error)
}
