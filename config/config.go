package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rustyeddy/portsim/risk"
	"gopkg.in/yaml.v3"
)

// MaxMonteCarloIterations bounds the CPU cost of a single projection.
const MaxMonteCarloIterations = 1_000_000

// Config represents the complete simulation configuration
type Config struct {
	Simulator  SimulatorConfig   `json:"simulator" yaml:"simulator"`
	Sizing     risk.SizingPolicy `json:"sizing" yaml:"sizing"`
	MonteCarlo MonteCarloConfig  `json:"monte_carlo" yaml:"monte_carlo"`
	Journal    JournalConfig     `json:"journal" yaml:"journal"`
	Backtest   BacktestConfig    `json:"backtest" yaml:"backtest"`
}

// SimulatorConfig is fixed for the lifetime of one simulation run.
// Rates are fractions: 0.001 = 0.1%.
type SimulatorConfig struct {
	InitialCapital        float64   `json:"initial_capital" yaml:"initial_capital"`
	CommissionRate        float64   `json:"commission_rate" yaml:"commission_rate"`
	SlippageRate          float64   `json:"slippage_rate" yaml:"slippage_rate"`
	MaxPositionsPerSymbol int       `json:"max_positions_per_symbol" yaml:"max_positions_per_symbol"`
	RiskFreeRate          float64   `json:"risk_free_rate" yaml:"risk_free_rate"` // annual
	MonteCarloIterations  int       `json:"monte_carlo_iterations" yaml:"monte_carlo_iterations"`
	RollingWindowSize     int       `json:"rolling_window_size" yaml:"rolling_window_size"`
	BenchmarkReturns      []float64 `json:"benchmark_returns,omitempty" yaml:"benchmark_returns,omitempty"`
}

// MonteCarloConfig controls the terminal-balance projection.
type MonteCarloConfig struct {
	Mode     string  `json:"mode" yaml:"mode"`         // "bootstrap" or "replay"
	Fraction float64 `json:"fraction" yaml:"fraction"` // share of balance committed per trade
	Seed     uint64  `json:"seed" yaml:"seed"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// BacktestConfig controls the orchestrator.
type BacktestConfig struct {
	FeedPath      string  `json:"feed_path,omitempty" yaml:"feed_path,omitempty"`
	CloseEnd      bool    `json:"close_end" yaml:"close_end"`
	MinRewardRisk float64 `json:"min_reward_risk,omitempty" yaml:"min_reward_risk,omitempty"`
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

// SaveToFile saves configuration as YAML for .yaml/.yml paths, JSON otherwise.
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
	if err := c.Simulator.Validate(); err != nil {
		return err
	}
	if err := c.Sizing.Validate(); err != nil {
		return fmt.Errorf("sizing: %w", err)
	}

	switch c.MonteCarlo.Mode {
	case "", "bootstrap", "replay":
	default:
		return fmt.Errorf("monte_carlo.mode must be 'bootstrap' or 'replay'")
	}
	if c.MonteCarlo.Fraction < 0 || c.MonteCarlo.Fraction > 1 {
		return fmt.Errorf("monte_carlo.fraction must be between 0 and 1")
	}

	if c.Backtest.MinRewardRisk < 0 {
		return fmt.Errorf("backtest.min_reward_risk must not be negative")
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

// Validate checks the simulator section on its own; the engine calls it at
// construction.
func (s SimulatorConfig) Validate() error {
	if s.InitialCapital <= 0 {
		return fmt.Errorf("simulator.initial_capital must be positive")
	}
	if s.CommissionRate < 0 || s.CommissionRate >= 1 {
		return fmt.Errorf("simulator.commission_rate must be in [0, 1)")
	}
	if s.SlippageRate < 0 || s.SlippageRate >= 1 {
		return fmt.Errorf("simulator.slippage_rate must be in [0, 1)")
	}
	if s.MaxPositionsPerSymbol < 1 {
		return fmt.Errorf("simulator.max_positions_per_symbol must be at least 1")
	}
	if s.MonteCarloIterations < 0 || s.MonteCarloIterations > MaxMonteCarloIterations {
		return fmt.Errorf("simulator.monte_carlo_iterations must be between 0 and %d", MaxMonteCarloIterations)
	}
	if s.RollingWindowSize < 2 {
		return fmt.Errorf("simulator.rolling_window_size must be at least 2")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Simulator: SimulatorConfig{
			InitialCapital:        100000,
			CommissionRate:        0.001,
			SlippageRate:          0.0005,
			MaxPositionsPerSymbol: 3,
			RiskFreeRate:          0.02,
			MonteCarloIterations:  1000,
			RollingWindowSize:     20,
		},
		Sizing: risk.SizingPolicy{
			Type:  risk.Percentage,
			Value: 10,
		},
		MonteCarlo: MonteCarloConfig{
			Mode:     "bootstrap",
			Fraction: 0.1,
			Seed:     1,
		},
		Journal: JournalConfig{
			Type: "none",
		},
		Backtest: BacktestConfig{
			CloseEnd: true,
		},
	}
}
