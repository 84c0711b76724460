package domain

import "github.com/shopspring/decimal"

// Tier is one consumption bracket. UpTo is the inclusive upper bound in units;
// zero means the bracket is open-ended.
type Tier struct {
	UpTo int64           `json:"up_to,omitempty"`
	Rate decimal.Decimal `json:"rate"`
}

// Charge is the part of a bill produced by a single tier.
type Charge struct {
	From     int64           `json:"from"`
	To       int64           `json:"to,omitempty"`
	Units    int64           `json:"units"`
	Rate     decimal.Decimal `json:"rate"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Tariff is a staged rate schedule: each unit is charged at the rate of the
// tier it falls in. Tiers must be ordered by UpTo with the open tier last.
type Tariff struct {
	Tiers []Tier
}

// DefaultTariff is the residential schedule: 5 per unit up to 100, 7 per unit
// from 101 to 200, 10 per unit beyond.
var DefaultTariff = Tariff{
	Tiers: []Tier{
		{UpTo: 100, Rate: decimal.NewFromInt(5)},
		{UpTo: 200, Rate: decimal.NewFromInt(7)},
		{Rate: decimal.NewFromInt(10)},
	},
}

// ComputeAmount returns the cost of consuming units. Negative input is treated
// as zero; callers are expected to reject it first.
func (t Tariff) ComputeAmount(units int64) decimal.Decimal {
	total := decimal.Zero
	for _, c := range t.Breakdown(units) {
		total = total.Add(c.Subtotal)
	}
	return total
}

// Breakdown returns one charge line per tier that units reaches.
func (t Tariff) Breakdown(units int64) []Charge {
	if units <= 0 {
		return nil
	}
	var (
		charges []Charge
		lower   int64
	)
	for _, tier := range t.Tiers {
		if units <= lower {
			break
		}
		upper := units
		if tier.UpTo > 0 && tier.UpTo < units {
			upper = tier.UpTo
		}
		n := upper - lower
		charges = append(charges, Charge{
			From:     lower + 1,
			To:       tier.UpTo,
			Units:    n,
			Rate:     tier.Rate,
			Subtotal: tier.Rate.Mul(decimal.NewFromInt(n)),
		})
		if tier.UpTo == 0 {
			break
		}
		lower = tier.UpTo
	}
	return charges
}

// ComputeAmount prices units under DefaultTariff.
func ComputeAmount(units int64) decimal.Decimal {
	return DefaultTariff.ComputeAmount(units)
}

// EffectiveRate is the average price per unit, rounded to currency precision.
func EffectiveRate(amount decimal.Decimal, units int64) decimal.Decimal {
	if units <= 0 {
		return decimal.Zero
	}
	return amount.DivRound(decimal.NewFromInt(units), 2)
}
