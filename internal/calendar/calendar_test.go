package calendar

import (
	"testing"
	"time"
)

func testOptions() Options {
	return Options{
		CampaignStart:  time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		CampaignEnd:    time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC),
		BaselineUplift: 1.3,
		WeeklyPrizes: map[string]Prize{
			"monday": {Name: "1000 GEL", ImpactIncrease: 0.5},
			"friday": {Name: "3500 GEL", ImpactIncrease: 0.7},
		},
		Draws: map[time.Time]Prize{
			time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC): {Name: "BMW M4", ImpactIncrease: 0.2},
		},
	}
}

func TestEffectOutsideWindowIsNeutral(t *testing.T) {
	cal, err := New(testOptions())
	if err != nil {
		t.Fatalf("calendar should build: %v", err)
	}

	before := time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)
	after := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	for _, date := range []time.Time{before, after} {
		eff := cal.EffectFor(date)
		if eff.UpliftFactor != 1.0 {
			t.Fatalf("uplift on %s should be neutral, got %f", date, eff.UpliftFactor)
		}
		if eff.TicketEligible {
			t.Fatalf("%s should not be ticket eligible", date)
		}
		if eff.Prize != nil {
			t.Fatalf("%s should carry no prize", date)
		}
	}
}

func TestEffectInsideWindowAppliesBaselineUplift(t *testing.T) {
	cal, err := New(testOptions())
	if err != nil {
		t.Fatalf("calendar should build: %v", err)
	}

	// 2025-09-02 is a Tuesday with no configured prize.
	eff := cal.EffectFor(time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC))
	if eff.UpliftFactor != 1.3 {
		t.Fatalf("expected baseline uplift 1.3, got %f", eff.UpliftFactor)
	}
	if !eff.TicketEligible {
		t.Fatal("campaign days should be ticket eligible")
	}
	if eff.Prize != nil {
		t.Fatal("plain campaign days should carry no prize")
	}
}

func TestWeeklyPrizeLookup(t *testing.T) {
	cal, err := New(testOptions())
	if err != nil {
		t.Fatalf("calendar should build: %v", err)
	}

	// 2025-09-01 is a Monday.
	eff := cal.EffectFor(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))
	if eff.Prize == nil || eff.Prize.Name != "1000 GEL" {
		t.Fatalf("expected Monday prize, got %+v", eff.Prize)
	}
}

func TestOneOffDrawOverridesWeeklyPrize(t *testing.T) {
	opts := testOptions()
	// 2025-10-17 is a Friday; pin the draw on it to exercise the override.
	opts.Draws = map[time.Time]Prize{
		time.Date(2025, 10, 17, 0, 0, 0, 0, time.UTC): {Name: "CyberTruck", ImpactIncrease: 0.0},
	}

	cal, err := New(opts)
	if err != nil {
		t.Fatalf("calendar should build: %v", err)
	}

	eff := cal.EffectFor(time.Date(2025, 10, 17, 0, 0, 0, 0, time.UTC))
	if eff.Prize == nil || eff.Prize.Name != "CyberTruck" {
		t.Fatalf("draw should replace the weekly prize, got %+v", eff.Prize)
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	opts := testOptions()
	opts.CampaignEnd = opts.CampaignStart.AddDate(0, 0, -1)
	if _, err := New(opts); err == nil {
		t.Fatal("end before start should be rejected")
	}

	opts = testOptions()
	opts.BaselineUplift = 0.5
	if _, err := New(opts); err == nil {
		t.Fatal("uplift below 1 should be rejected")
	}

	opts = testOptions()
	opts.WeeklyPrizes = map[string]Prize{"someday": {Name: "x"}}
	if _, err := New(opts); err == nil {
		t.Fatal("unknown weekday should be rejected")
	}
}

func TestPrizeDatesAreChronological(t *testing.T) {
	cal, err := New(testOptions())
	if err != nil {
		t.Fatalf("calendar should build: %v", err)
	}

	dates := cal.PrizeDates()
	if len(dates) == 0 {
		t.Fatal("expected prize dates inside the window")
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			t.Fatalf("dates out of order at %d: %s then %s", i, dates[i-1], dates[i])
		}
	}
	for _, d := range dates {
		if !cal.InCampaign(d) {
			t.Fatalf("prize date %s outside campaign window", d)
		}
	}
}
