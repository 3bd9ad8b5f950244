package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderOutcome is one simulated order placed by an agent on a given day.
type OrderOutcome struct {
	CustomerID     int64
	Date           time.Time
	Amount         decimal.Decimal
	TicketEligible bool
}

// DailyTotal aggregates all outcomes of a single simulated day.
type DailyTotal struct {
	Date    time.Time
	Orders  int
	Revenue decimal.Decimal
	Tickets int
}

// PrizeAward records a raffle win on a prize day.
type PrizeAward struct {
	Date       time.Time
	Prize      string
	CustomerID int64
}

// RunResult is the complete output of one simulation run: the daily series,
// period totals, and the campaign lift relative to the baseline window.
// A run aborted between days yields a partial result with Completed=false
// that is still consistent through the last aggregated day.
type RunResult struct {
	ID            uuid.UUID
	Seed          uint64
	BaselineStart time.Time
	CampaignStart time.Time
	CampaignEnd   time.Time

	Days []DailyTotal

	TotalOrders  int
	TotalRevenue decimal.Decimal
	TotalTickets int

	BaselineAvgDaily decimal.Decimal
	CampaignAvgDaily decimal.Decimal
	LiftAbsolute     decimal.Decimal
	LiftPercent      decimal.Decimal

	Awards    []PrizeAward
	Quality   QualityReport
	Completed bool
	CreatedAt time.Time
}
