package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress == "" || cfg.DataDir == "" || cfg.NetworkName == "" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config file not created: %v", err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.NetworkName != "sft-local" {
		t.Fatalf("unexpected network name %q", cfg.NetworkName)
	}
}

func TestLoadRejectsExcessiveBps(t *testing.T) {
	path := writeConfig(t, `
DefaultRoyaltyReceiver = "0x0102030405060708090a0b0c0d0e0f1011121314"
DefaultRoyaltyBps = 10001
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "10001") {
		t.Fatalf("expected bps validation error, got %v", err)
	}
}

func TestLoadRejectsMissingReceiver(t *testing.T) {
	path := writeConfig(t, "DefaultRoyaltyBps = 100\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "DefaultRoyaltyReceiver") {
		t.Fatalf("expected receiver validation error, got %v", err)
	}
}

func TestDefaultRoyaltyParsing(t *testing.T) {
	path := writeConfig(t, `
DefaultRoyaltyReceiver = "0x0102030405060708090a0b0c0d0e0f1011121314"
DefaultRoyaltyBps = 250
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	receiver, feeBps, configured, err := cfg.DefaultRoyalty()
	if err != nil {
		t.Fatalf("default royalty: %v", err)
	}
	if !configured {
		t.Fatalf("expected configured seed")
	}
	if feeBps != 250 {
		t.Fatalf("unexpected bps %d", feeBps)
	}
	if receiver[0] != 0x01 || receiver[19] != 0x14 {
		t.Fatalf("unexpected receiver %s", receiver)
	}
}

func TestDefaultRoyaltyUnconfigured(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, _, configured, err := cfg.DefaultRoyalty(); err != nil || configured {
		t.Fatalf("expected no seed, configured=%v err=%v", configured, err)
	}
}
