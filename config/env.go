package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment overrides, applied on top of defaults or a config file.
const (
	EnvInitialCapital = "PORTSIM_INITIAL_CAPITAL"
	EnvCommissionRate = "PORTSIM_COMMISSION_RATE"
	EnvSlippageRate   = "PORTSIM_SLIPPAGE_RATE"
	EnvRiskFreeRate   = "PORTSIM_RISK_FREE_RATE"
	EnvMonteCarloSeed = "PORTSIM_MC_SEED"
	EnvJournalDB      = "PORTSIM_JOURNAL_DB"
	EnvFeed           = "PORTSIM_FEED"
)

// ApplyEnv overrides fields from PORTSIM_* variables. Unparseable values are
// ignored.
func (c *Config) ApplyEnv() {
	c.Simulator.InitialCapital = getEnvFloat(EnvInitialCapital, c.Simulator.InitialCapital)
	c.Simulator.CommissionRate = getEnvFloat(EnvCommissionRate, c.Simulator.CommissionRate)
	c.Simulator.SlippageRate = getEnvFloat(EnvSlippageRate, c.Simulator.SlippageRate)
	c.Simulator.RiskFreeRate = getEnvFloat(EnvRiskFreeRate, c.Simulator.RiskFreeRate)

	if v := os.Getenv(EnvMonteCarloSeed); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.MonteCarlo.Seed = seed
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournalDB)); v != "" {
		c.Journal.Type = "sqlite"
		c.Journal.DBPath = v
	}
	c.Backtest.FeedPath = getEnv(EnvFeed, c.Backtest.FeedPath)
}

// Load reads path (or defaults when path is empty), applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
