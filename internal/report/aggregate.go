// Package report folds per-zone payment figures into totals.
package report

import (
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/shopspring/decimal"
)

// ZoneRollup is one zone's figures with the derived remaining amount.
// Remaining is negative when a zone was overpaid.
type ZoneRollup struct {
	domain.ZoneFigures
	Remaining decimal.Decimal
}

type Totals struct {
	TotalAmount   decimal.Decimal
	TotalPaid     decimal.Decimal
	Remaining     decimal.Decimal
	ClientCount   int
	FinishedCount int
}

type Summary struct {
	Zones  []ZoneRollup
	Totals Totals
}

// Aggregate computes remaining = total - paid per zone and in aggregate.
// Nothing is rounded or clamped.
func Aggregate(figs []domain.ZoneFigures) Summary {
	s := Summary{
		Zones: make([]ZoneRollup, 0, len(figs)),
		Totals: Totals{
			TotalAmount: decimal.Zero,
			TotalPaid:   decimal.Zero,
			Remaining:   decimal.Zero,
		},
	}
	for _, f := range figs {
		remaining := f.TotalAmount.Sub(f.TotalPaid)
		s.Zones = append(s.Zones, ZoneRollup{ZoneFigures: f, Remaining: remaining})
		s.Totals.TotalAmount = s.Totals.TotalAmount.Add(f.TotalAmount)
		s.Totals.TotalPaid = s.Totals.TotalPaid.Add(f.TotalPaid)
		s.Totals.ClientCount += f.ClientCount
		s.Totals.FinishedCount += f.FinishedCount
	}
	s.Totals.Remaining = s.Totals.TotalAmount.Sub(s.Totals.TotalPaid)
	return s
}

// Validate rejects figures that break the non-negative amount rule.
func Validate(figs []domain.ZoneFigures) error {
	for _, f := range figs {
		label := domain.CoalesceStr(f.ZoneName, f.ZoneID)
		switch {
		case f.TotalAmount.IsNegative():
			return domain.Invalid("total_amount", "zone %s has a negative total", label)
		case f.TotalPaid.IsNegative():
			return domain.Invalid("total_paid", "zone %s has a negative paid amount", label)
		case f.ClientCount < 0 || f.FinishedCount < 0:
			return domain.Invalid("client_count", "zone %s has a negative client count", label)
		case f.FinishedCount > f.ClientCount:
			return domain.Invalid("finished_count", "zone %s finished %d of %d clients", label, f.FinishedCount, f.ClientCount)
		}
	}
	return nil
}

// Overpaid lists the zones whose remaining amount is negative.
func (s Summary) Overpaid() []ZoneRollup {
	var out []ZoneRollup
	for _, z := range s.Zones {
		if z.Remaining.IsNegative() {
			out = append(out, z)
		}
	}
	return out
}
