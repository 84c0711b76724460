package ports

import (
	"context"

	"github.com/ebms/billing-system/internal/core/domain"
)

// BillFilter narrows List. An empty CustomerID matches every bill.
type BillFilter struct {
	CustomerID string
}

// BillRepository is the bill half of the persistence gateway.
type BillRepository interface {
	// Insert assigns the ID.
	Insert(ctx context.Context, bill *domain.Bill) (*domain.Bill, error)
	FindByID(ctx context.Context, id string) (*domain.Bill, error)
	// List makes no ordering promise.
	List(ctx context.Context, filter BillFilter) ([]*domain.Bill, error)
	// Replace overwrites the whole bill snapshot stored under id.
	Replace(ctx context.Context, id string, bill *domain.Bill) (*domain.Bill, error)
}
