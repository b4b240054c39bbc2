// Package config defines the top-level configuration for the paribet service
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by PARIBET_* environment variables.
type Config struct {
	Ledger    LedgerConfig    `toml:"ledger"`
	Oracle    OracleConfig    `toml:"oracle"`
	Providers ProvidersConfig `toml:"providers"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Chain     ChainConfig     `toml:"chain"`
	Server    ServerConfig    `toml:"server"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// LedgerConfig holds pool-ledger parameters. Monetary amounts are in micros
// (6 decimal places).
type LedgerConfig struct {
	FeeBps             int64  `toml:"fee_bps"`
	MinLiquidityMicros int64  `toml:"min_liquidity_micros"`
	OracleAddr         string `toml:"oracle_addr"`
	HouseAddr          string `toml:"house_addr"`
}

// OracleConfig holds consensus-engine parameters.
type OracleConfig struct {
	RequiredConsensus int      `toml:"required_consensus"`
	GracePeriod       duration `toml:"grace_period"`
	PollInterval      duration `toml:"poll_interval"`
	LockTTL           duration `toml:"lock_ttl"`
}

// ProvidersConfig holds credentials for the external sports result APIs. A
// provider with an empty key is simply not wired in.
type ProvidersConfig struct {
	OddsAPI      OddsAPIConfig      `toml:"odds_api"`
	SportsDB     SportsDBConfig     `toml:"sports_db"`
	FootballData FootballDataConfig `toml:"football_data"`
}

// OddsAPIConfig holds The Odds API credentials.
type OddsAPIConfig struct {
	ApiKey   string `toml:"api_key"`
	Sport    string `toml:"sport"`
	BaseURL  string `toml:"base_url"`
	DaysFrom int    `toml:"days_from"`
}

// SportsDBConfig holds TheSportsDB credentials.
type SportsDBConfig struct {
	ApiKey  string `toml:"api_key"`
	Sport   string `toml:"sport"`
	BaseURL string `toml:"base_url"`
}

// FootballDataConfig holds football-data.org credentials.
type FootballDataConfig struct {
	ApiToken string `toml:"api_token"`
	BaseURL  string `toml:"base_url"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`

	// ArchiveInterval is how often the audit archive sweep runs.
	// AuditRetention is the age past which audit entries are swept to cold
	// storage.
	ArchiveInterval duration `toml:"archive_interval"`
	AuditRetention  duration `toml:"audit_retention"`
}

// ChainConfig holds the on-chain settlement relay parameters. When Enabled,
// the oracle submits settlements through the contract instead of the local
// ledger.
type ChainConfig struct {
	Enabled          bool   `toml:"enabled"`
	RPCURL           string `toml:"rpc_url"`
	ContractAddr     string `toml:"contract_addr"`
	ChainID          int64  `toml:"chain_id"`
	GasLimit         uint64 `toml:"gas_limit"`
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled           bool     `toml:"enabled"`
	Port              int      `toml:"port"`
	CORSOrigins       []string `toml:"cors_origins"`
	APIKey            string   `toml:"api_key"`
	RateLimitPerMin   int      `toml:"rate_limit_per_min"`
	RateLimitDisabled bool     `toml:"rate_limit_disabled"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Ledger: LedgerConfig{
			FeeBps:             200,
			MinLiquidityMicros: 0,
			OracleAddr:         "oracle",
			HouseAddr:          "house",
		},
		Oracle: OracleConfig{
			RequiredConsensus: 2,
			GracePeriod:       duration{2 * time.Hour},
			PollInterval:      duration{10 * time.Minute},
			LockTTL:           duration{5 * time.Minute},
		},
		Providers: ProvidersConfig{
			OddsAPI: OddsAPIConfig{
				Sport:    "soccer_epl",
				BaseURL:  "https://api.the-odds-api.com",
				DaysFrom: 3,
			},
			SportsDB: SportsDBConfig{
				Sport:   "Soccer",
				BaseURL: "https://www.thesportsdb.com",
			},
			FootballData: FootballDataConfig{
				BaseURL: "https://api.football-data.org",
			},
		},
		Postgres: PostgresConfig{
			DSN:           "",
			Host:          "localhost",
			Port:          5432,
			Database:      "paribet",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "paribet-archive",
			UseSSL:          false,
			ForcePathStyle:  true,
			ArchiveInterval: duration{24 * time.Hour},
			AuditRetention:  duration{30 * 24 * time.Hour},
		},
		Chain: ChainConfig{
			Enabled: false,
			ChainID: 137,
		},
		Server: ServerConfig{
			Enabled:         true,
			Port:            8000,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimitPerMin: 120,
		},
		Notify: NotifyConfig{
			Events: []string{"settlement", "void", "no_consensus", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"full":   true, // ledger + oracle + server
	"oracle": true, // consensus engine only
	"server": true, // HTTP API only
	"once":   true, // run one oracle cycle and exit
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ProviderCount returns how many result providers have credentials configured.
func (c *Config) ProviderCount() int {
	n := 0
	if c.Providers.OddsAPI.ApiKey != "" {
		n++
	}
	if c.Providers.SportsDB.ApiKey != "" {
		n++
	}
	if c.Providers.FootballData.ApiToken != "" {
		n++
	}
	return n
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: full, oracle, server, once)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Ledger
	if c.Ledger.FeeBps < 0 || c.Ledger.FeeBps > 10_000 {
		errs = append(errs, fmt.Sprintf("ledger: fee_bps must be 0-10000, got %d", c.Ledger.FeeBps))
	}
	if c.Ledger.MinLiquidityMicros < 0 {
		errs = append(errs, "ledger: min_liquidity_micros must be >= 0")
	}
	if c.Ledger.OracleAddr == "" {
		errs = append(errs, "ledger: oracle_addr must not be empty")
	}
	if c.Ledger.HouseAddr == "" {
		errs = append(errs, "ledger: house_addr must not be empty")
	}

	// Oracle
	if c.Oracle.RequiredConsensus < 1 {
		errs = append(errs, "oracle: required_consensus must be >= 1")
	}
	if c.Oracle.GracePeriod.Duration < 0 {
		errs = append(errs, "oracle: grace_period must not be negative")
	}
	if c.Oracle.PollInterval.Duration <= 0 {
		errs = append(errs, "oracle: poll_interval must be > 0")
	}

	// Providers are needed whenever the oracle runs. A consensus threshold
	// that exceeds the number of configured providers can never settle.
	runsOracle := c.Mode == "full" || c.Mode == "oracle" || c.Mode == "once"
	if runsOracle {
		n := c.ProviderCount()
		if n == 0 {
			errs = append(errs, "providers: at least one provider key is required for mode "+c.Mode)
		} else if n < c.Oracle.RequiredConsensus {
			errs = append(errs, fmt.Sprintf(
				"providers: %d configured but oracle.required_consensus is %d; consensus would never be reached",
				n, c.Oracle.RequiredConsensus))
		}
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
	}

	// Chain
	if c.Chain.Enabled {
		if c.Chain.RPCURL == "" {
			errs = append(errs, "chain: rpc_url must not be empty when enabled")
		}
		if c.Chain.ContractAddr == "" {
			errs = append(errs, "chain: contract_addr must not be empty when enabled")
		}
		if c.Chain.ChainID <= 0 {
			errs = append(errs, "chain: chain_id must be positive")
		}
		if c.Chain.PrivateKey == "" && c.Chain.EncryptedKeyPath == "" {
			errs = append(errs, "chain: either private_key or encrypted_key_path must be set when enabled")
		}
		if c.Chain.EncryptedKeyPath != "" && c.Chain.KeyPassword == "" {
			errs = append(errs, "chain: key_password is required when encrypted_key_path is set")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if !c.Server.RateLimitDisabled && c.Server.RateLimitPerMin < 1 {
			errs = append(errs, "server: rate_limit_per_min must be >= 1 (or set rate_limit_disabled)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
