// Package calendar implements the campaign effect model: it maps a simulated
// date to the propensity uplift applied to every agent that day, ticket
// eligibility, and the prize (if any) raffled at the end of the day.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Prize names a raffle prize and the impact-factor increase the winner
// receives. The prize amount itself is informational; it never enters the
// revenue computation.
type Prize struct {
	Name           string
	ImpactIncrease float64
}

// Effect is the campaign adjustment for one simulated day.
type Effect struct {
	// UpliftFactor multiplies each agent's base probability. Neutral days
	// carry 1.0; days inside the campaign window carry the baseline uplift.
	UpliftFactor float64
	// TicketEligible is true when an order placed this day earns a raffle
	// ticket, i.e. on every day inside the campaign window.
	TicketEligible bool
	// Prize is the raffle drawn at the end of this day, nil when none.
	Prize *Prize
}

// Options configure a Calendar.
type Options struct {
	CampaignStart  time.Time
	CampaignEnd    time.Time
	BaselineUplift float64
	// WeeklyPrizes is keyed by lowercase English weekday name.
	WeeklyPrizes map[string]Prize
	// Draws are one-off draw dates; a draw on a given date replaces that
	// weekday's recurring prize.
	Draws map[time.Time]Prize
}

// Calendar is the read-only campaign schedule for one simulation run.
type Calendar struct {
	start          time.Time
	end            time.Time
	baselineUplift float64
	weekly         map[time.Weekday]Prize
	draws          map[string]Prize
}

// New validates options and builds a Calendar.
func New(opts Options) (*Calendar, error) {
	if !opts.CampaignEnd.After(opts.CampaignStart) {
		return nil, fmt.Errorf("campaign end %s must be after start %s",
			opts.CampaignEnd.Format(time.DateOnly), opts.CampaignStart.Format(time.DateOnly))
	}
	if opts.BaselineUplift < 1 {
		return nil, fmt.Errorf("baseline uplift %.3f must be >= 1", opts.BaselineUplift)
	}

	weekly := make(map[time.Weekday]Prize, len(opts.WeeklyPrizes))
	for name, prize := range opts.WeeklyPrizes {
		day, err := parseWeekday(name)
		if err != nil {
			return nil, err
		}
		weekly[day] = prize
	}

	draws := make(map[string]Prize, len(opts.Draws))
	for date, prize := range opts.Draws {
		draws[dayKey(date)] = prize
	}

	return &Calendar{
		start:          truncateDay(opts.CampaignStart),
		end:            truncateDay(opts.CampaignEnd),
		baselineUplift: opts.BaselineUplift,
		weekly:         weekly,
		draws:          draws,
	}, nil
}

// Start returns the first campaign day.
func (c *Calendar) Start() time.Time { return c.start }

// End returns the last campaign day (inclusive).
func (c *Calendar) End() time.Time { return c.end }

// InCampaign reports whether date falls inside the campaign window.
func (c *Calendar) InCampaign(date time.Time) bool {
	d := truncateDay(date)
	return !d.Before(c.start) && !d.After(c.end)
}

// EffectFor returns the campaign effect for one simulated day. Days outside
// the campaign window are always neutral; this is how baseline days are told
// apart from campaign days when computing lift.
func (c *Calendar) EffectFor(date time.Time) Effect {
	if !c.InCampaign(date) {
		return Effect{UpliftFactor: 1.0}
	}

	eff := Effect{
		UpliftFactor:   c.baselineUplift,
		TicketEligible: true,
	}

	if prize, ok := c.draws[dayKey(date)]; ok {
		eff.Prize = &prize
		return eff
	}
	if prize, ok := c.weekly[date.Weekday()]; ok {
		eff.Prize = &prize
	}
	return eff
}

// PrizeDates lists every date in the campaign window that carries a prize,
// in chronological order.
func (c *Calendar) PrizeDates() []time.Time {
	var dates []time.Time
	for d := c.start; !d.After(c.end); d = d.AddDate(0, 0, 1) {
		if eff := c.EffectFor(d); eff.Prize != nil {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func parseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayKey(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
