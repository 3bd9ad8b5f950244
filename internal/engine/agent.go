package engine

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"campaign-forecast/internal/calendar"
	"campaign-forecast/internal/domain"
	"campaign-forecast/internal/estimator"
)

// agent holds one customer's simulation state: a read-only reference to its
// purchase profile plus the per-run tally it exclusively owns. The impact
// factor starts neutral and only grows through raffle wins, applied by the
// engine at day boundaries.
type agent struct {
	profile   estimator.Profile
	impact    float64
	maxImpact float64
	minOrder  float64

	orders  int
	revenue decimal.Decimal
	tickets int
}

func newAgent(profile estimator.Profile, maxImpact, minOrder float64) *agent {
	return &agent{
		profile:   profile,
		impact:    1.0,
		maxImpact: maxImpact,
		minOrder:  minOrder,
		revenue:   decimal.Zero,
		// Every customer enters the raffle with one ticket.
		tickets: 1,
	}
}

// step decides whether the agent orders on the given day. It is a pure
// function of the agent's own state and the supplied sub-stream; no agent
// ever reads another agent's state, so per-day evaluation is safe to run on
// any number of workers.
func (a *agent) step(date time.Time, eff calendar.Effect, rng *rand.Rand) *domain.OrderOutcome {
	p := clampProbability(a.profile.BaseDailyProbability * eff.UpliftFactor * a.impact)
	if rng.Float64() >= p {
		return nil
	}

	amount := a.sampleOrderValue(rng)
	a.orders++
	a.revenue = a.revenue.Add(amount)
	if eff.TicketEligible {
		a.tickets++
	}

	return &domain.OrderOutcome{
		CustomerID:     a.profile.CustomerID,
		Date:           date,
		Amount:         amount,
		TicketEligible: eff.TicketEligible,
	}
}

// sampleOrderValue draws from the customer's log-normal order-value
// distribution, clamped to the configured minimum order value.
func (a *agent) sampleOrderValue(rng *rand.Rand) decimal.Decimal {
	value := a.profile.MeanValue
	if a.profile.Sigma > 0 {
		value = math.Exp(a.profile.Mu + a.profile.Sigma*rng.NormFloat64())
	}
	if value < a.minOrder {
		value = a.minOrder
	}
	return decimal.NewFromFloat(value).Round(2)
}

// boostImpact raises the agent's impact factor after a raffle win, capped at
// the configured maximum.
func (a *agent) boostImpact(increase float64) {
	a.impact += increase
	if a.impact > a.maxImpact {
		a.impact = a.maxImpact
	}
}

func clampProbability(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
