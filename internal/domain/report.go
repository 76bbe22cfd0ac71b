package domain

import "github.com/shopspring/decimal"

// ZoneFigures is one zone's payment and client-completion line as reported
// by the server.
type ZoneFigures struct {
	ZoneID        string
	ZoneName      string
	TotalAmount   decimal.Decimal
	TotalPaid     decimal.Decimal
	ClientCount   int
	FinishedCount int
}

// SystemSummary is the superuser dashboard header.
type SystemSummary struct {
	Users   int
	Clients int
	Total   decimal.Decimal
}
