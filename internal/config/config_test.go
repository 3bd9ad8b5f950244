package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := defaultConfig(t)

	if cfg.App.Name != "campaignsim" {
		t.Fatalf("unexpected app name %q", cfg.App.Name)
	}
	if cfg.Input.Source != "file" {
		t.Fatalf("unexpected input source %q", cfg.Input.Source)
	}

	sim := cfg.Simulation
	if !sim.CampaignStart.Equal(time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected campaign start %s", sim.CampaignStart)
	}
	if !sim.CampaignEnd.Equal(time.Date(2025, time.November, 30, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected campaign end %s", sim.CampaignEnd)
	}
	if sim.BaselineWindowDays != 30 || sim.Seed != 1 || sim.Workers != 4 {
		t.Fatalf("unexpected run defaults: %+v", sim)
	}
	if sim.DefaultDailyProbability != 0.01 || sim.DefaultOrderValue != 35.0 {
		t.Fatalf("unexpected estimation defaults: %+v", sim)
	}
	if sim.BaselineUplift != 1.3 || sim.MaxImpactFactor != 2.0 || sim.MinOrderValue != 5.0 {
		t.Fatalf("unexpected behaviour defaults: %+v", sim)
	}

	if len(cfg.Calendar.WeeklyPrizes) != 5 {
		t.Fatalf("expected 5 weekly prizes, got %d", len(cfg.Calendar.WeeklyPrizes))
	}
	if prize := cfg.Calendar.WeeklyPrizes["friday"]; prize.Name != "3500 GEL" || prize.ImpactIncrease != 0.7 {
		t.Fatalf("unexpected friday prize: %+v", prize)
	}
	if len(cfg.Calendar.Draws) != 2 {
		t.Fatalf("expected 2 one-off draws, got %d", len(cfg.Calendar.Draws))
	}
	if !cfg.Calendar.Draws[0].Date.Equal(time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected first draw date %s", cfg.Calendar.Draws[0].Date)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	payload := strings.Join([]string{
		"simulation:",
		"  seed: 99",
		"  workers: 2",
		"  campaign_start: 2026-01-01",
		"  campaign_end: 2026-02-01",
		"input:",
		"  source: postgres",
		"database:",
		"  dsn: postgres://localhost/forecast",
	}, "\n")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config file: %v", err)
	}
	if cfg.Simulation.Seed != 99 || cfg.Simulation.Workers != 2 {
		t.Fatalf("file overrides not applied: %+v", cfg.Simulation)
	}
	if !cfg.Simulation.CampaignStart.Equal(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("campaign start not decoded: %s", cfg.Simulation.CampaignStart)
	}
	if cfg.Input.Source != "postgres" || cfg.Database.DSN == "" {
		t.Fatalf("input overrides not applied: %+v", cfg.Input)
	}
	// Keys not present in the file keep defaults.
	if cfg.Simulation.BaselineUplift != 1.3 {
		t.Fatalf("defaults lost on partial config: %+v", cfg.Simulation)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"end before start", func(c *Config) {
			c.Simulation.CampaignEnd = c.Simulation.CampaignStart.AddDate(0, 0, -1)
		}},
		{"negative baseline window", func(c *Config) { c.Simulation.BaselineWindowDays = -1 }},
		{"probability above one", func(c *Config) { c.Simulation.DefaultDailyProbability = 1.5 }},
		{"zero default order value", func(c *Config) { c.Simulation.DefaultOrderValue = 0 }},
		{"uplift below one", func(c *Config) { c.Simulation.BaselineUplift = 0.9 }},
		{"impact cap below one", func(c *Config) { c.Simulation.MaxImpactFactor = 0.5 }},
		{"unknown input source", func(c *Config) { c.Input.Source = "csv" }},
		{"negative prize increase", func(c *Config) {
			c.Calendar.WeeklyPrizes = map[string]PrizeConfig{"monday": {Name: "x", ImpactIncrease: -1}}
		}},
		{"draw without date", func(c *Config) {
			c.Calendar.Draws = []DrawConfig{{Name: "x"}}
		}},
		{"zero max data points", func(c *Config) { c.Export.MaxDataPoints = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestResolveWorkers(t *testing.T) {
	cfg := defaultConfig(t)
	if got := cfg.ResolveWorkers(0); got != 4 {
		t.Fatalf("expected configured workers 4, got %d", got)
	}
	if got := cfg.ResolveWorkers(8); got != 8 {
		t.Fatalf("expected override 8, got %d", got)
	}
	cfg.Simulation.Workers = 0
	if got := cfg.ResolveWorkers(0); got != 1 {
		t.Fatalf("zero workers should resolve to 1, got %d", got)
	}
}
