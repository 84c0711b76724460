package handler

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ebms/billing-system/internal/core/domain"
	"github.com/ebms/billing-system/internal/core/ports"
)

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func toTierResponses(tiers []domain.Tier) []tierResponse {
	out := make([]tierResponse, len(tiers))
	for i, t := range tiers {
		out[i] = tierResponse{UpTo: t.UpTo, Rate: money(t.Rate)}
	}
	return out
}

func toChargeResponses(charges []domain.Charge) []chargeResponse {
	out := make([]chargeResponse, len(charges))
	for i, c := range charges {
		out[i] = chargeResponse{
			From:     c.From,
			To:       c.To,
			Units:    c.Units,
			Rate:     money(c.Rate),
			Subtotal: money(c.Subtotal),
		}
	}
	return out
}

func toBillResponse(b *domain.Bill) billResponse {
	payments := make([]paymentResponse, len(b.Payments))
	for i, p := range b.Payments {
		payments[i] = paymentResponse{ID: p.ID, PaidAt: p.PaidAt, Amount: money(p.Amount)}
	}

	links := billLinks{Self: "/v1/bills/" + b.ID}
	if b.Status == domain.BillUnpaid {
		links.Pay = "/v1/bills/" + b.ID + "/pay"
	}

	return billResponse{
		ID:            b.ID,
		CustomerID:    b.CustomerID,
		CustomerName:  b.CustomerName,
		MeterNumber:   b.MeterNumber,
		Period:        b.Period,
		UnitsConsumed: b.UnitsConsumed,
		Amount:        money(b.Amount),
		EffectiveRate: money(b.EffectiveRate()),
		Charges:       toChargeResponses(b.Charges),
		Status:        string(b.Status),
		GeneratedAt:   b.GeneratedAt,
		Payments:      payments,
		PaidTotal:     money(b.PaidTotal()),
		Links:         links,
	}
}

// toBillListResponse renders bills newest first; ties keep ID order so the
// listing is stable.
func toBillListResponse(bills []*domain.Bill) billListResponse {
	sorted := make([]*domain.Bill, len(bills))
	copy(sorted, bills)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].GeneratedAt.Equal(sorted[j].GeneratedAt) {
			return sorted[i].GeneratedAt.After(sorted[j].GeneratedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	out := billListResponse{Bills: make([]billResponse, len(sorted)), Total: len(sorted)}
	for i, b := range sorted {
		out.Bills[i] = toBillResponse(b)
	}
	return out
}

func toPaymentInputs(in []paymentRequest) []ports.PaymentInput {
	if in == nil {
		return nil
	}
	out := make([]ports.PaymentInput, len(in))
	for i, p := range in {
		out[i] = ports.PaymentInput{ID: p.ID, PaidAt: p.PaidAt, Amount: p.Amount}
	}
	return out
}
