package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes a TOML config file into a temp dir and returns its path.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "oracle"
log_level = "debug"

[ledger]
fee_bps = 150

[oracle]
required_consensus = 3
grace_period = "1h30m"

[providers.odds_api]
api_key = "k1"

[providers.sports_db]
api_key = "k2"

[providers.football_data]
api_token = "k3"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "oracle" {
		t.Errorf("Mode = %q, want oracle", cfg.Mode)
	}
	if cfg.Ledger.FeeBps != 150 {
		t.Errorf("FeeBps = %d, want 150", cfg.Ledger.FeeBps)
	}
	if cfg.Oracle.RequiredConsensus != 3 {
		t.Errorf("RequiredConsensus = %d, want 3", cfg.Oracle.RequiredConsensus)
	}
	if got := cfg.Oracle.GracePeriod.Duration; got != 90*time.Minute {
		t.Errorf("GracePeriod = %s, want 1h30m", got)
	}
	// Untouched fields keep their defaults.
	if got := cfg.Oracle.PollInterval.Duration; got != 10*time.Minute {
		t.Errorf("PollInterval default = %s, want 10m", got)
	}
	if cfg.Postgres.Port != 5432 {
		t.Errorf("Postgres.Port default = %d, want 5432", cfg.Postgres.Port)
	}
	if got := cfg.S3.ArchiveInterval.Duration; got != 24*time.Hour {
		t.Errorf("S3.ArchiveInterval default = %s, want 24h", got)
	}
	if got := cfg.S3.AuditRetention.Duration; got != 30*24*time.Hour {
		t.Errorf("S3.AuditRetention default = %s, want 720h", got)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
mode = "server"

[ledger]
fee_bps = 100
`)

	t.Setenv("PARIBET_LEDGER_FEE_BPS", "250")
	t.Setenv("PARIBET_ORACLE_POLL_INTERVAL", "30s")
	t.Setenv("PARIBET_POSTGRES_PASSWORD", "s3cret")
	t.Setenv("PARIBET_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PARIBET_CHAIN_GAS_LIMIT", "300000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Ledger.FeeBps != 250 {
		t.Errorf("env override lost: FeeBps = %d, want 250", cfg.Ledger.FeeBps)
	}
	if got := cfg.Oracle.PollInterval.Duration; got != 30*time.Second {
		t.Errorf("PollInterval = %s, want 30s", got)
	}
	if cfg.Postgres.Password != "s3cret" {
		t.Errorf("Postgres.Password = %q", cfg.Postgres.Password)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != want[0] || cfg.Server.CORSOrigins[1] != want[1] {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	if cfg.Chain.GasLimit != 300_000 {
		t.Errorf("Chain.GasLimit = %d, want 300000", cfg.Chain.GasLimit)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "banana"
	cfg.Ledger.FeeBps = 20_000
	cfg.Oracle.RequiredConsensus = 0
	cfg.Redis.Addr = ""
	cfg.Server.Port = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate must fail")
	}
	for _, want := range []string{"unknown mode", "fee_bps", "required_consensus", "redis", "server: port"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%s", want, err)
		}
	}
}

func TestValidateProviderThreshold(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "oracle"
	cfg.Providers.OddsAPI.ApiKey = "k"
	cfg.Oracle.RequiredConsensus = 2

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "consensus would never be reached") {
		t.Errorf("expected unreachable-consensus error, got %v", err)
	}

	// Server mode does not run the oracle, so no provider keys are required.
	cfg2 := Defaults()
	cfg2.Mode = "server"
	if err := cfg2.Validate(); err != nil {
		t.Errorf("server mode without providers: %v", err)
	}
}

func TestValidateChainRequiresKey(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "server"
	cfg.Chain.Enabled = true
	cfg.Chain.RPCURL = "https://rpc.example"
	cfg.Chain.ContractAddr = "0x0000000000000000000000000000000000000001"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "private_key or encrypted_key_path") {
		t.Errorf("expected chain key error, got %v", err)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Providers.OddsAPI.ApiKey = "secret-odds"
	cfg.Postgres.Password = "secret-pg"
	cfg.Chain.PrivateKey = "secret-key"
	cfg.Server.APIKey = "secret-api"

	red := RedactedConfig(&cfg)

	if red.Providers.OddsAPI.ApiKey != "***" || red.Postgres.Password != "***" ||
		red.Chain.PrivateKey != "***" || red.Server.APIKey != "***" {
		t.Error("secrets not redacted")
	}
	// Originals must be untouched.
	if cfg.Postgres.Password != "secret-pg" {
		t.Error("redaction mutated the original config")
	}
	// Empty secrets stay empty, not "***".
	if red.Redis.Password != "" {
		t.Errorf("empty password redacted to %q", red.Redis.Password)
	}
}
