package domain

import "github.com/shopspring/decimal"

// Zone is a geographic service area grouping clients and manpower.
type Zone struct {
	ID          string
	Name        string
	Cell        string
	Village     string
	Description string
	ChiefID     *string
}

// ZoneRef is the id/name pair embedded in other listings.
type ZoneRef struct {
	ID   string
	Name string
}

// UserRef is the id/username pair embedded in other listings.
type UserRef struct {
	ID       string
	Username string
}

// Client belongs to exactly one zone and is billed monthly.
type Client struct {
	ID            string
	Name          string
	ZoneID        string
	MonthlyAmount decimal.Decimal
}

// ZonePayments is the payment block returned alongside a single zone.
type ZonePayments struct {
	AmountToBePaid   decimal.Decimal
	CurrentMonthPaid decimal.Decimal
	TodayPaid        decimal.Decimal
}

// Outstanding is what is still owed for the current month. It goes negative
// on overpayment and is never clamped.
func (p ZonePayments) Outstanding() decimal.Decimal {
	return p.AmountToBePaid.Sub(p.CurrentMonthPaid)
}
