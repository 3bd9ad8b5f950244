package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"campaign-forecast/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    logging.Config   `mapstructure:"logging"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Input      InputConfig      `mapstructure:"input"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Calendar   CalendarConfig   `mapstructure:"calendar"`
	Export     ExportConfig     `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity. The database is
// optional: it serves as a customer-record source and as a destination for
// run summaries.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// InputConfig selects where customer records come from.
type InputConfig struct {
	// Source is either "file" (JSON export) or "postgres".
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`
}

// SimulationConfig holds every tunable of the behaviour model. Each key has
// a default so a run is reproducible from the seed alone.
type SimulationConfig struct {
	CampaignStart      time.Time `mapstructure:"campaign_start"`
	CampaignEnd        time.Time `mapstructure:"campaign_end"`
	BaselineWindowDays int       `mapstructure:"baseline_window_days"`
	Seed               uint64    `mapstructure:"seed"`
	Workers            int       `mapstructure:"workers"`

	// Propensity estimation.
	DefaultDailyProbability float64 `mapstructure:"default_daily_probability"`
	DefaultOrderValue       float64 `mapstructure:"default_order_value"`
	MinHistoryDays          int     `mapstructure:"min_history_days"`
	MinValueSamples         int     `mapstructure:"min_value_samples"`
	PopulationVariance      float64 `mapstructure:"population_variance"`

	// Campaign behaviour.
	BaselineUplift  float64 `mapstructure:"baseline_uplift"`
	MaxImpactFactor float64 `mapstructure:"max_impact_factor"`
	MinOrderValue   float64 `mapstructure:"min_order_value"`

	// Load-time reconciliation of order totals against line sums,
	// expressed as a fraction of the order total.
	ReconcileTolerance float64 `mapstructure:"reconcile_tolerance"`
}

// PrizeConfig describes one raffle prize and its behavioural effect on the
// winner.
type PrizeConfig struct {
	Name           string  `mapstructure:"name"`
	ImpactIncrease float64 `mapstructure:"impact_increase"`
}

// DrawConfig is a one-off draw bound to an exact date.
type DrawConfig struct {
	Date           time.Time `mapstructure:"date"`
	Name           string    `mapstructure:"name"`
	ImpactIncrease float64   `mapstructure:"impact_increase"`
}

// CalendarConfig declares the prize schedule: recurring weekday prizes plus
// one-off draw dates.
type CalendarConfig struct {
	WeeklyPrizes map[string]PrizeConfig `mapstructure:"weekly_prizes"`
	Draws        []DrawConfig           `mapstructure:"draws"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CAMPAIGNSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "campaignsim")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("input.source", "file")
	v.SetDefault("input.path", "data/customers.json")

	v.SetDefault("simulation.campaign_start", "2025-09-01")
	v.SetDefault("simulation.campaign_end", "2025-11-30")
	v.SetDefault("simulation.baseline_window_days", 30)
	v.SetDefault("simulation.seed", 1)
	v.SetDefault("simulation.workers", 4)
	v.SetDefault("simulation.default_daily_probability", 0.01)
	v.SetDefault("simulation.default_order_value", 35.0)
	v.SetDefault("simulation.min_history_days", 30)
	v.SetDefault("simulation.min_value_samples", 3)
	v.SetDefault("simulation.population_variance", 0.0)
	v.SetDefault("simulation.baseline_uplift", 1.3)
	v.SetDefault("simulation.max_impact_factor", 2.0)
	v.SetDefault("simulation.min_order_value", 5.0)
	v.SetDefault("simulation.reconcile_tolerance", 0.01)

	v.SetDefault("calendar.weekly_prizes", map[string]any{
		"monday":    map[string]any{"name": "1000 GEL", "impact_increase": 0.5},
		"tuesday":   map[string]any{"name": "1500 GEL", "impact_increase": 0.5},
		"wednesday": map[string]any{"name": "2000 GEL", "impact_increase": 0.6},
		"thursday":  map[string]any{"name": "3000 GEL", "impact_increase": 0.7},
		"friday":    map[string]any{"name": "3500 GEL", "impact_increase": 0.7},
	})
	v.SetDefault("calendar.draws", []map[string]any{
		{"date": "2025-10-15", "name": "BMW M4", "impact_increase": 0.2},
		{"date": "2025-11-30", "name": "CyberTruck", "impact_increase": 0.0},
	})

	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.DateOnly),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs the pre-run sanity checks. Any violation here aborts
// before a single simulation step executes.
func (c *Config) Validate() error {
	sim := c.Simulation
	if !sim.CampaignEnd.After(sim.CampaignStart) {
		return fmt.Errorf("simulation.campaign_end must be after simulation.campaign_start")
	}
	if sim.BaselineWindowDays < 0 {
		return fmt.Errorf("simulation.baseline_window_days cannot be negative")
	}
	if sim.DefaultDailyProbability < 0 || sim.DefaultDailyProbability > 1 {
		return fmt.Errorf("simulation.default_daily_probability must be within [0,1]")
	}
	if sim.DefaultOrderValue <= 0 {
		return fmt.Errorf("simulation.default_order_value must be greater than zero")
	}
	if sim.MinHistoryDays <= 0 {
		return fmt.Errorf("simulation.min_history_days must be greater than zero")
	}
	if sim.MinValueSamples < 1 {
		return fmt.Errorf("simulation.min_value_samples must be at least 1")
	}
	if sim.PopulationVariance < 0 {
		return fmt.Errorf("simulation.population_variance cannot be negative")
	}
	if sim.BaselineUplift < 1 {
		return fmt.Errorf("simulation.baseline_uplift must be a multiplier >= 1")
	}
	if sim.MaxImpactFactor < 1 {
		return fmt.Errorf("simulation.max_impact_factor must be a multiplier >= 1")
	}
	if sim.MinOrderValue < 0 {
		return fmt.Errorf("simulation.min_order_value cannot be negative")
	}
	if sim.ReconcileTolerance < 0 {
		return fmt.Errorf("simulation.reconcile_tolerance cannot be negative")
	}
	if sim.Workers < 0 {
		return fmt.Errorf("simulation.workers cannot be negative")
	}

	switch c.Input.Source {
	case "file", "postgres":
	default:
		return fmt.Errorf("input.source must be \"file\" or \"postgres\", got %q", c.Input.Source)
	}

	for day, prize := range c.Calendar.WeeklyPrizes {
		if prize.ImpactIncrease < 0 {
			return fmt.Errorf("calendar.weekly_prizes.%s.impact_increase cannot be negative", day)
		}
	}
	for i, draw := range c.Calendar.Draws {
		if draw.ImpactIncrease < 0 {
			return fmt.Errorf("calendar.draws[%d].impact_increase cannot be negative", i)
		}
		if draw.Date.IsZero() {
			return fmt.Errorf("calendar.draws[%d].date is required", i)
		}
	}

	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}

// ResolveWorkers returns the CLI override when given, the configured worker
// count otherwise. Zero means "one worker".
func (c *Config) ResolveWorkers(override int) int {
	workers := c.Simulation.Workers
	if override > 0 {
		workers = override
	}
	if workers <= 0 {
		workers = 1
	}
	return workers
}
