package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func testCustomer() *User {
	return &User{ID: "cust-1", Name: "Asha", MeterNumber: "MTR-001", Role: RoleCustomer}
}

func TestNewBill(t *testing.T) {
	t.Run("prices and snapshots the customer", func(t *testing.T) {
		b, err := NewBill(testCustomer(), " March 2024 ", 150, DefaultTariff, testNow)
		require.NoError(t, err)

		assert.Equal(t, "cust-1", b.CustomerID)
		assert.Equal(t, "Asha", b.CustomerName)
		assert.Equal(t, "MTR-001", b.MeterNumber)
		assert.Equal(t, "March 2024", b.Period)
		assert.True(t, b.Amount.Equal(decimal.NewFromInt(850)))
		assert.Len(t, b.Charges, 2)
		assert.Equal(t, BillUnpaid, b.Status)
		assert.Equal(t, testNow, b.GeneratedAt)
		assert.NotNil(t, b.Payments)
		assert.Empty(t, b.Payments)
	})

	t.Run("rejects negative units", func(t *testing.T) {
		_, err := NewBill(testCustomer(), "March 2024", -1, DefaultTariff, testNow)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects empty period", func(t *testing.T) {
		_, err := NewBill(testCustomer(), "  ", 10, DefaultTariff, testNow)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects admin owner", func(t *testing.T) {
		admin := &User{ID: "adm", Role: RoleAdmin}
		_, err := NewBill(admin, "March 2024", 10, DefaultTariff, testNow)
		assert.ErrorIs(t, err, ErrNotCustomer)
	})

	t.Run("later profile edits do not touch the snapshot", func(t *testing.T) {
		c := testCustomer()
		b, err := NewBill(c, "March 2024", 10, DefaultTariff, testNow)
		require.NoError(t, err)
		c.Name = "Renamed"
		assert.Equal(t, "Asha", b.CustomerName)
	})
}

func TestBill_Pay(t *testing.T) {
	b, err := NewBill(testCustomer(), "March 2024", 250, DefaultTariff, testNow)
	require.NoError(t, err)

	require.NoError(t, b.Pay("pay-1", testNow.Add(time.Hour)))
	assert.Equal(t, BillPaid, b.Status)
	require.Len(t, b.Payments, 1)
	assert.True(t, b.Payments[0].Amount.Equal(b.Amount))
	assert.Equal(t, "pay-1", b.Payments[0].ID)

	err = b.Pay("pay-2", testNow.Add(2*time.Hour))
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Len(t, b.Payments, 1)
}

func TestBill_Override(t *testing.T) {
	synth := func() Payment { return Payment{ID: "synth", PaidAt: testNow, Amount: decimal.NewFromInt(850)} }

	t.Run("paid without list synthesizes one payment", func(t *testing.T) {
		b, _ := NewBill(testCustomer(), "March 2024", 150, DefaultTariff, testNow)
		require.NoError(t, b.Override(BillPaid, nil, synth))
		assert.Equal(t, BillPaid, b.Status)
		require.Len(t, b.Payments, 1)
		assert.Equal(t, "synth", b.Payments[0].ID)
	})

	t.Run("paid with list replaces history verbatim", func(t *testing.T) {
		b, _ := NewBill(testCustomer(), "March 2024", 150, DefaultTariff, testNow)
		list := []Payment{
			{ID: "a", Amount: decimal.NewFromInt(400)},
			{ID: "b", Amount: decimal.NewFromInt(450)},
		}
		require.NoError(t, b.Override(BillPaid, list, synth))
		assert.Equal(t, list, b.Payments)
	})

	t.Run("unpaid clears history regardless of length", func(t *testing.T) {
		b, _ := NewBill(testCustomer(), "March 2024", 150, DefaultTariff, testNow)
		b.Payments = []Payment{{ID: "a"}, {ID: "b"}, {ID: "c"}}
		b.Status = BillPaid
		require.NoError(t, b.Override(BillUnpaid, []Payment{{ID: "ignored"}}, synth))
		assert.Equal(t, BillUnpaid, b.Status)
		assert.Empty(t, b.Payments)
	})

	t.Run("unknown status", func(t *testing.T) {
		b, _ := NewBill(testCustomer(), "March 2024", 150, DefaultTariff, testNow)
		assert.ErrorIs(t, b.Override("VOID", nil, synth), ErrInvalidInput)
		assert.Equal(t, BillUnpaid, b.Status)
	})
}

func TestParseBillStatus(t *testing.T) {
	st, err := ParseBillStatus("paid")
	require.NoError(t, err)
	assert.Equal(t, BillPaid, st)

	_, err = ParseBillStatus("Refunded")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestBill_CloneIsDeep(t *testing.T) {
	b, _ := NewBill(testCustomer(), "March 2024", 150, DefaultTariff, testNow)
	c := b.Clone()
	c.Payments = append(c.Payments, Payment{ID: "x"})
	c.Charges[0].Units = 0
	assert.Empty(t, b.Payments)
	assert.Equal(t, int64(100), b.Charges[0].Units)
}
