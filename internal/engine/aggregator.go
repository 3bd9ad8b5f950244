package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"campaign-forecast/internal/domain"
)

// aggregator accumulates per-day and per-period totals. It is the single
// mutation point of a run: the engine hands it each day's merged outcomes
// before advancing the date.
type aggregator struct {
	days []domain.DailyTotal

	totalOrders  int
	totalRevenue decimal.Decimal
	totalTickets int
}

func newAggregator() *aggregator {
	return &aggregator{totalRevenue: decimal.Zero}
}

// recordDay folds one day's outcomes into the daily series and the running
// totals.
func (g *aggregator) recordDay(date time.Time, outcomes []domain.OrderOutcome) {
	day := domain.DailyTotal{Date: date, Revenue: decimal.Zero}
	for _, outcome := range outcomes {
		day.Orders++
		day.Revenue = day.Revenue.Add(outcome.Amount)
		if outcome.TicketEligible {
			day.Tickets++
		}
	}

	g.days = append(g.days, day)
	g.totalOrders += day.Orders
	g.totalRevenue = g.totalRevenue.Add(day.Revenue)
	g.totalTickets += day.Tickets
}

// finalize derives the lift metric and assembles the immutable RunResult.
// Lift compares simulated average daily revenue inside the campaign window
// against the baseline window; both come from the same stochastic process.
func (g *aggregator) finalize(seed uint64, baselineStart, campaignStart, campaignEnd time.Time, completed bool) domain.RunResult {
	result := domain.RunResult{
		ID:            uuid.New(),
		Seed:          seed,
		BaselineStart: baselineStart,
		CampaignStart: campaignStart,
		CampaignEnd:   campaignEnd,
		Days:          g.days,
		TotalOrders:   g.totalOrders,
		TotalRevenue:  g.totalRevenue,
		TotalTickets:  g.totalTickets,
		Completed:     completed,
		CreatedAt:     time.Now().UTC(),

		BaselineAvgDaily: decimal.Zero,
		CampaignAvgDaily: decimal.Zero,
		LiftAbsolute:     decimal.Zero,
		LiftPercent:      decimal.Zero,
	}

	baselineRevenue, baselineDays := decimal.Zero, 0
	campaignRevenue, campaignDays := decimal.Zero, 0
	for _, day := range g.days {
		switch {
		case day.Date.Before(campaignStart):
			baselineRevenue = baselineRevenue.Add(day.Revenue)
			baselineDays++
		case !day.Date.After(campaignEnd):
			campaignRevenue = campaignRevenue.Add(day.Revenue)
			campaignDays++
		}
	}

	if baselineDays > 0 {
		result.BaselineAvgDaily = baselineRevenue.Div(decimal.NewFromInt(int64(baselineDays))).Round(4)
	}
	if campaignDays > 0 {
		result.CampaignAvgDaily = campaignRevenue.Div(decimal.NewFromInt(int64(campaignDays))).Round(4)
	}

	result.LiftAbsolute = result.CampaignAvgDaily.Sub(result.BaselineAvgDaily)
	if !result.BaselineAvgDaily.IsZero() {
		result.LiftPercent = result.LiftAbsolute.
			Div(result.BaselineAvgDaily).
			Mul(decimal.NewFromInt(100)).
			Round(4)
	}

	return result
}
