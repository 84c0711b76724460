package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/ebms/billing-system/internal/core/domain"
	"github.com/ebms/billing-system/internal/core/ports"
)

const billColumns = `id, customer_id, customer_name, meter_number, period, units_consumed, amount, charges, status, generated_at, payments`

// BillRepository implements ports.BillRepository on the bills table.
type BillRepository struct {
	db    *sql.DB
	newID func() string
}

func NewBillRepository(db *sql.DB) *BillRepository {
	return &BillRepository{db: db, newID: uuid.NewString}
}

func scanBill(row rowScanner) (*domain.Bill, error) {
	var (
		b                    domain.Bill
		status               string
		charges, paymentsRaw []byte
	)
	if err := row.Scan(&b.ID, &b.CustomerID, &b.CustomerName, &b.MeterNumber, &b.Period,
		&b.UnitsConsumed, &b.Amount, &charges, &status, &b.GeneratedAt, &paymentsRaw); err != nil {
		return nil, err
	}
	b.Status = domain.BillStatus(status)
	b.GeneratedAt = b.GeneratedAt.UTC()
	if err := json.Unmarshal(charges, &b.Charges); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(paymentsRaw, &b.Payments); err != nil {
		return nil, err
	}
	if b.Payments == nil {
		b.Payments = []domain.Payment{}
	}
	return &b, nil
}

func encodeDetails(b *domain.Bill) (charges, payments []byte, err error) {
	c := b.Charges
	if c == nil {
		c = []domain.Charge{}
	}
	p := b.Payments
	if p == nil {
		p = []domain.Payment{}
	}
	if charges, err = json.Marshal(c); err != nil {
		return nil, nil, err
	}
	if payments, err = json.Marshal(p); err != nil {
		return nil, nil, err
	}
	return charges, payments, nil
}

func (r *BillRepository) Insert(ctx context.Context, bill *domain.Bill) (*domain.Bill, error) {
	charges, payments, err := encodeDetails(bill)
	if err != nil {
		return nil, domain.StorageError("encode bill", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	b := bill.Clone()
	b.ID = r.newID()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO bills (`+billColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.CustomerID, b.CustomerName, b.MeterNumber, b.Period, b.UnitsConsumed,
		b.Amount, charges, string(b.Status), b.GeneratedAt, payments)
	if err != nil {
		return nil, domain.StorageError("insert bill", err)
	}
	return b, nil
}

func (r *BillRepository) FindByID(ctx context.Context, id string) (*domain.Bill, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	b, err := scanBill(r.db.QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBillNotFound
		}
		return nil, domain.StorageError("find bill", err)
	}
	return b, nil
}

func (r *BillRepository) List(ctx context.Context, filter ports.BillFilter) ([]*domain.Bill, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `SELECT ` + billColumns + ` FROM bills`
	var args []any
	if filter.CustomerID != "" {
		query += ` WHERE customer_id = $1`
		args = append(args, filter.CustomerID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.StorageError("list bills", err)
	}
	defer rows.Close()

	var bills []*domain.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, domain.StorageError("scan bill", err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError("list bills", err)
	}
	return bills, nil
}

func (r *BillRepository) Replace(ctx context.Context, id string, bill *domain.Bill) (*domain.Bill, error) {
	charges, payments, err := encodeDetails(bill)
	if err != nil {
		return nil, domain.StorageError("encode bill", err)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE bills SET customer_id = $2, customer_name = $3, meter_number = $4, period = $5,
		 units_consumed = $6, amount = $7, charges = $8, status = $9, generated_at = $10, payments = $11
		 WHERE id = $1`,
		id, bill.CustomerID, bill.CustomerName, bill.MeterNumber, bill.Period, bill.UnitsConsumed,
		bill.Amount, charges, string(bill.Status), bill.GeneratedAt, payments)
	if err != nil {
		return nil, domain.StorageError("replace bill", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, domain.StorageError("replace bill", err)
	}
	if n == 0 {
		return nil, domain.ErrBillNotFound
	}

	b := bill.Clone()
	b.ID = id
	return b, nil
}
