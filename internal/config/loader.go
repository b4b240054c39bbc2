package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies PARIBET_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PARIBET_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Ledger ──
	setInt64(&cfg.Ledger.FeeBps, "PARIBET_LEDGER_FEE_BPS")
	setInt64(&cfg.Ledger.MinLiquidityMicros, "PARIBET_LEDGER_MIN_LIQUIDITY_MICROS")
	setStr(&cfg.Ledger.OracleAddr, "PARIBET_LEDGER_ORACLE_ADDR")
	setStr(&cfg.Ledger.HouseAddr, "PARIBET_LEDGER_HOUSE_ADDR")

	// ── Oracle ──
	setInt(&cfg.Oracle.RequiredConsensus, "PARIBET_ORACLE_REQUIRED_CONSENSUS")
	setDuration(&cfg.Oracle.GracePeriod, "PARIBET_ORACLE_GRACE_PERIOD")
	setDuration(&cfg.Oracle.PollInterval, "PARIBET_ORACLE_POLL_INTERVAL")
	setDuration(&cfg.Oracle.LockTTL, "PARIBET_ORACLE_LOCK_TTL")

	// ── Providers ──
	setStr(&cfg.Providers.OddsAPI.ApiKey, "PARIBET_PROVIDERS_ODDS_API_KEY")
	setStr(&cfg.Providers.OddsAPI.Sport, "PARIBET_PROVIDERS_ODDS_API_SPORT")
	setStr(&cfg.Providers.OddsAPI.BaseURL, "PARIBET_PROVIDERS_ODDS_API_BASE_URL")
	setInt(&cfg.Providers.OddsAPI.DaysFrom, "PARIBET_PROVIDERS_ODDS_API_DAYS_FROM")
	setStr(&cfg.Providers.SportsDB.ApiKey, "PARIBET_PROVIDERS_SPORTS_DB_KEY")
	setStr(&cfg.Providers.SportsDB.Sport, "PARIBET_PROVIDERS_SPORTS_DB_SPORT")
	setStr(&cfg.Providers.SportsDB.BaseURL, "PARIBET_PROVIDERS_SPORTS_DB_BASE_URL")
	setStr(&cfg.Providers.FootballData.ApiToken, "PARIBET_PROVIDERS_FOOTBALL_DATA_TOKEN")
	setStr(&cfg.Providers.FootballData.BaseURL, "PARIBET_PROVIDERS_FOOTBALL_DATA_BASE_URL")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "PARIBET_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "PARIBET_DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "PARIBET_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "PARIBET_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "PARIBET_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "PARIBET_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "PARIBET_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "PARIBET_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "PARIBET_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "PARIBET_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "PARIBET_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "PARIBET_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PARIBET_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PARIBET_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "PARIBET_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "PARIBET_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "PARIBET_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "PARIBET_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "PARIBET_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "PARIBET_S3_REGION")
	setStr(&cfg.S3.Bucket, "PARIBET_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "PARIBET_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "PARIBET_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "PARIBET_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "PARIBET_S3_FORCE_PATH_STYLE")
	setDuration(&cfg.S3.ArchiveInterval, "PARIBET_S3_ARCHIVE_INTERVAL")
	setDuration(&cfg.S3.AuditRetention, "PARIBET_S3_AUDIT_RETENTION")

	// ── Chain ──
	setBool(&cfg.Chain.Enabled, "PARIBET_CHAIN_ENABLED")
	setStr(&cfg.Chain.RPCURL, "PARIBET_CHAIN_RPC_URL")
	setStr(&cfg.Chain.ContractAddr, "PARIBET_CHAIN_CONTRACT_ADDR")
	setInt64(&cfg.Chain.ChainID, "PARIBET_CHAIN_CHAIN_ID")
	setUint64(&cfg.Chain.GasLimit, "PARIBET_CHAIN_GAS_LIMIT")
	setStr(&cfg.Chain.PrivateKey, "PARIBET_CHAIN_PRIVATE_KEY")
	setStr(&cfg.Chain.EncryptedKeyPath, "PARIBET_CHAIN_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Chain.KeyPassword, "PARIBET_CHAIN_KEY_PASSWORD")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "PARIBET_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "PARIBET_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "PARIBET_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "PARIBET_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimitPerMin, "PARIBET_SERVER_RATE_LIMIT_PER_MIN")
	setBool(&cfg.Server.RateLimitDisabled, "PARIBET_SERVER_RATE_LIMIT_DISABLED")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "PARIBET_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "PARIBET_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "PARIBET_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "PARIBET_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "PARIBET_MODE")
	setStr(&cfg.LogLevel, "PARIBET_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
