package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// This is the global app config for the blockchain.
type AppConfig struct {
	// How many leading 0 bits form a valid hash.
	DIFFICULTY int `yaml:"DIFFICULTY"`
	// The reward paid to the miner of every block.
	COINBASE_REWARD int64 `yaml:"COINBASE_REWARD"`
	// How many pool transactions are packed into one block at most.
	MAX_BLOCK_TRANSACTIONS int `yaml:"MAX_BLOCK_TRANSACTIONS"`
	// Blocks whose parent is buried deeper than this are rejected. 0 disables the check.
	CONFIRMATION int `yaml:"CONFIRMATION"`
	// Abandon the current mining round when a peer block replaces the tail.
	REMINE_ON_TAIL_CHANGE bool `yaml:"REMINE_ON_TAIL_CHANGE"`

	Log     LogConfig     `yaml:"LOG"`
	Metrics MetricsConfig `yaml:"METRICS"`
}

type LogConfig struct {
	// debug, info, warn or error.
	Level string `yaml:"LEVEL"`
	// Logs go to stderr when empty.
	File       string `yaml:"FILE"`
	MaxSizeMB  int    `yaml:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"MAX_AGE_DAYS"`
	// Human readable console output instead of JSON.
	Development bool `yaml:"DEVELOPMENT"`
}

type MetricsConfig struct {
	// Address to serve /metrics on, disabled when empty.
	Addr string `yaml:"ADDR"`
}

func Default() AppConfig {
	return AppConfig{
		DIFFICULTY:             16,
		COINBASE_REWARD:        50,
		MAX_BLOCK_TRANSACTIONS: 100,
		CONFIRMATION:           6,
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Load reads the yaml file at path on top of the defaults.
func Load(path string) (AppConfig, error) {
	c := Default()
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(yamlFile, &c); err != nil {
		return c, errors.Wrapf(err, "parse config %s", path)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c AppConfig) Validate() error {
	if c.DIFFICULTY < 0 || c.DIFFICULTY > 256 {
		return errors.Errorf("DIFFICULTY must be within [0, 256], got %d", c.DIFFICULTY)
	}
	if c.COINBASE_REWARD < 0 {
		return errors.Errorf("COINBASE_REWARD must not be negative, got %d", c.COINBASE_REWARD)
	}
	if c.MAX_BLOCK_TRANSACTIONS < 0 {
		return errors.Errorf("MAX_BLOCK_TRANSACTIONS must not be negative, got %d", c.MAX_BLOCK_TRANSACTIONS)
	}
	if c.CONFIRMATION < 0 {
		return errors.Errorf("CONFIRMATION must not be negative, got %d", c.CONFIRMATION)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
