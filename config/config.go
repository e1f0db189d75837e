package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"sftledger/crypto"
	"sftledger/native/royalty"
)

// Config carries the daemon configuration loaded from TOML.
type Config struct {
	RPCAddress  string `toml:"RPCAddress"`
	DataDir     string `toml:"DataDir"`
	NetworkName string `toml:"NetworkName"`

	// DefaultRoyaltyReceiver and DefaultRoyaltyBps seed the registry's
	// fallback royalty record at startup when no record is stored yet.
	DefaultRoyaltyReceiver string `toml:"DefaultRoyaltyReceiver"`
	DefaultRoyaltyBps      uint32 `toml:"DefaultRoyaltyBps"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./sftdata"
	}
	if strings.TrimSpace(c.NetworkName) == "" {
		c.NetworkName = "sft-local"
	}
}

// Validate checks the royalty seed against the registry's validation rules so
// a misconfigured daemon fails at startup rather than at first use.
func (c *Config) Validate() error {
	if c.DefaultRoyaltyBps > royalty.FeeDenominator {
		return fmt.Errorf("config: DefaultRoyaltyBps %d exceeds denominator %d", c.DefaultRoyaltyBps, royalty.FeeDenominator)
	}
	receiver := strings.TrimSpace(c.DefaultRoyaltyReceiver)
	if c.DefaultRoyaltyBps > 0 && receiver == "" {
		return fmt.Errorf("config: DefaultRoyaltyReceiver required when DefaultRoyaltyBps is non-zero")
	}
	if receiver != "" {
		if _, err := crypto.ParseAddress(receiver); err != nil {
			return fmt.Errorf("config: invalid DefaultRoyaltyReceiver: %w", err)
		}
	}
	return nil
}

// DefaultRoyalty returns the parsed royalty seed. The boolean reports whether
// a seed is configured at all.
func (c *Config) DefaultRoyalty() (crypto.Address, uint32, bool, error) {
	receiver := strings.TrimSpace(c.DefaultRoyaltyReceiver)
	if receiver == "" && c.DefaultRoyaltyBps == 0 {
		return crypto.Address{}, 0, false, nil
	}
	if receiver == "" {
		return crypto.Address{}, c.DefaultRoyaltyBps, true, nil
	}
	addr, err := crypto.ParseAddress(receiver)
	if err != nil {
		return crypto.Address{}, 0, false, err
	}
	return addr, c.DefaultRoyaltyBps, true, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
