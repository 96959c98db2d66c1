package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/sliprisk/copula"
	"github.com/rustyeddy/sliprisk/risk"
	"github.com/rustyeddy/sliprisk/sim"
)

// Config represents the complete engine configuration
type Config struct {
	Bankroll   BankrollConfig           `json:"bankroll" yaml:"bankroll"`
	Staking    StakingConfig            `json:"staking" yaml:"staking"`
	Tiers      map[string]risk.TierCaps `json:"tiers,omitempty" yaml:"tiers,omitempty"`
	Templates  map[string]risk.Template `json:"templates,omitempty" yaml:"templates,omitempty"`
	MonteCarlo MonteCarloConfig         `json:"monte_carlo" yaml:"monte_carlo"`
	Stress     StressConfig             `json:"stress" yaml:"stress"`
	Journal    JournalConfig            `json:"journal" yaml:"journal"`
	Log        LogConfig                `json:"log" yaml:"log"`
}

// BankrollConfig is the capital stakes are sized against
type BankrollConfig struct {
	Amount float64 `json:"amount" yaml:"amount"`
	Unit   float64 `json:"unit" yaml:"unit"`
}

// StakingConfig contains the Kelly fraction and per-slip ceilings
type StakingConfig struct {
	KellyFraction float64 `json:"kelly_fraction" yaml:"kelly_fraction"`
	UnitCap       float64 `json:"unit_cap" yaml:"unit_cap"`
	BankrollCap   float64 `json:"bankroll_cap" yaml:"bankroll_cap"`
	Tier          string  `json:"tier,omitempty" yaml:"tier,omitempty"`
	Template      string  `json:"template,omitempty" yaml:"template,omitempty"`
}

// MonteCarloConfig drives joint probability estimation
type MonteCarloConfig struct {
	Samples    int    `json:"samples" yaml:"samples"`
	Seed       uint64 `json:"seed" yaml:"seed"`
	Shards     int    `json:"shards" yaml:"shards"`
	TimeBudget string `json:"time_budget,omitempty" yaml:"time_budget,omitempty"` // e.g. "2s"
}

// StressConfig drives portfolio stress runs
type StressConfig struct {
	Samples    int                `json:"samples" yaml:"samples"`
	Seed       uint64             `json:"seed" yaml:"seed"`
	Alpha      float64            `json:"alpha" yaml:"alpha"`
	PathSample int                `json:"path_sample" yaml:"path_sample"`
	Throttle   sim.ThrottlePolicy `json:"throttle" yaml:"throttle"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "", "csv" or "sqlite"
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	RunsFile   string `json:"runs_file,omitempty" yaml:"runs_file,omitempty"`
	StakesFile string `json:"stakes_file,omitempty" yaml:"stakes_file,omitempty"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
	JSON  bool   `json:"json" yaml:"json"`
}

// ParseBudget converts the time budget to a time.Duration. Zero means no
// budget.
func (m MonteCarloConfig) ParseBudget() (time.Duration, error) {
	if m.TimeBudget == "" {
		return 0, nil
	}
	return time.ParseDuration(m.TimeBudget)
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (YAML by extension, else JSON)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Bankroll.Amount <= 0 {
		return fmt.Errorf("bankroll.amount must be positive")
	}
	if c.Bankroll.Unit <= 0 {
		return fmt.Errorf("bankroll.unit must be positive")
	}
	if c.Staking.KellyFraction <= 0 || c.Staking.KellyFraction > 1 {
		return fmt.Errorf("staking.kelly_fraction must be in (0, 1]")
	}
	if c.Staking.UnitCap < 0 {
		return fmt.Errorf("staking.unit_cap must not be negative")
	}
	if c.Staking.BankrollCap < 0 || c.Staking.BankrollCap > 1 {
		return fmt.Errorf("staking.bankroll_cap must be between 0 and 1")
	}
	for _, name := range sortedKeys(c.Tiers) {
		tc := c.Tiers[name]
		if tc.UnitCap < 0 || tc.BankrollCap < 0 || tc.BankrollCap > 1 {
			return fmt.Errorf("tiers.%s: caps must be non-negative and br_cap at most 1", name)
		}
	}
	if t := c.Staking.Template; t != "" {
		if _, ok := c.Templates[t]; !ok {
			return fmt.Errorf("staking.template %q is not defined", t)
		}
	}
	for _, name := range sortedKeys(c.Templates) {
		tp := c.Templates[name]
		if tp.MinUnit < 0 || tp.MaxUnit < 0 {
			return fmt.Errorf("templates.%s: units must not be negative", name)
		}
		if tp.MaxUnit > 0 && tp.MinUnit > tp.MaxUnit {
			return fmt.Errorf("templates.%s: min_unit exceeds max_unit", name)
		}
	}
	if c.MonteCarlo.Samples <= 0 {
		return fmt.Errorf("monte_carlo.samples must be positive")
	}
	if c.MonteCarlo.Shards <= 0 {
		return fmt.Errorf("monte_carlo.shards must be positive")
	}
	if d, err := c.MonteCarlo.ParseBudget(); err != nil || d < 0 {
		return fmt.Errorf("monte_carlo.time_budget %q is not a valid duration", c.MonteCarlo.TimeBudget)
	}
	if c.Stress.Samples <= 0 {
		return fmt.Errorf("stress.samples must be positive")
	}
	if c.Stress.Alpha <= 0 || c.Stress.Alpha >= 1 {
		return fmt.Errorf("stress.alpha must be between 0 and 1")
	}
	if th := c.Stress.Throttle; th.Min < 0 || th.Max <= 0 || th.Min > th.Max || th.Limit < 0 {
		return fmt.Errorf("stress.throttle requires 0 <= min <= max, max > 0 and limit >= 0")
	}
	switch c.Journal.Type {
	case "":
	case "csv":
		if c.Journal.RunsFile == "" || c.Journal.StakesFile == "" {
			return fmt.Errorf("journal runs_file and stakes_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be empty, 'csv' or 'sqlite'")
	}
	return nil
}

// Policy builds the staking policy for one run. tier and template
// override the configured defaults when non-empty.
func (c *Config) Policy(tier, template string) risk.Policy {
	if tier == "" {
		tier = c.Staking.Tier
	}
	if template == "" {
		template = c.Staking.Template
	}

	p := risk.Policy{
		Bankroll:      c.Bankroll.Amount,
		Unit:          c.Bankroll.Unit,
		KellyFraction: c.Staking.KellyFraction,
		BankrollCap:   c.Staking.BankrollCap,
		UnitCap:       c.Staking.UnitCap,
		Tier:          tier,
		Tiers:         c.Tiers,
	}
	if t, ok := c.Templates[template]; ok {
		t.Name = template
		p.Template = &t
	}
	return p
}

// JointSampler is the sampler used for joint probability estimates.
func (c *Config) JointSampler() copula.Sampler {
	return copula.Sampler{Samples: c.MonteCarlo.Samples, Seed: c.MonteCarlo.Seed, Shards: c.MonteCarlo.Shards}
}

// Simulator is the portfolio stress simulator. It shares the shard count
// of the joint sampler.
func (c *Config) Simulator() sim.Simulator {
	return sim.Simulator{
		Sampler:    copula.Sampler{Samples: c.Stress.Samples, Seed: c.Stress.Seed, Shards: c.MonteCarlo.Shards},
		Alpha:      c.Stress.Alpha,
		Throttle:   c.Stress.Throttle,
		PathSample: c.Stress.PathSample,
	}
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Bankroll: BankrollConfig{
			Amount: 10000,
			Unit:   100,
		},
		Staking: StakingConfig{
			KellyFraction: 0.5,
			UnitCap:       1.2,
			BankrollCap:   0.05,
		},
		Tiers: risk.DefaultTiers(),
		Templates: map[string]risk.Template{
			"bank_builder": {MinUnit: 0.5, MaxUnit: 1.0},
			"spray":        {MinUnit: 0.1, MaxUnit: 0.25},
		},
		MonteCarlo: MonteCarloConfig{
			Samples: copula.DefaultSamples,
			Seed:    7,
			Shards:  copula.DefaultShards,
		},
		Stress: StressConfig{
			Samples:    sim.DefaultSamples,
			Seed:       99,
			Alpha:      sim.DefaultAlpha,
			PathSample: sim.DefaultPathSample,
			Throttle:   sim.DefaultThrottle(),
		},
		Log: LogConfig{Level: "info"},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
