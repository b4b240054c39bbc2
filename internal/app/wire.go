package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/paribet/internal/blob/s3"
	"github.com/alanyoungcy/paribet/internal/cache/redis"
	"github.com/alanyoungcy/paribet/internal/chain"
	"github.com/alanyoungcy/paribet/internal/config"
	"github.com/alanyoungcy/paribet/internal/crypto"
	"github.com/alanyoungcy/paribet/internal/domain"
	"github.com/alanyoungcy/paribet/internal/ledger"
	"github.com/alanyoungcy/paribet/internal/notify"
	"github.com/alanyoungcy/paribet/internal/oracle"
	"github.com/alanyoungcy/paribet/internal/provider/footballdata"
	"github.com/alanyoungcy/paribet/internal/provider/oddsapi"
	"github.com/alanyoungcy/paribet/internal/provider/sportsdb"
	"github.com/alanyoungcy/paribet/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Stores
	MarketStore  domain.MarketStore
	BetStore     domain.BetStore
	BalanceStore domain.BalanceStore
	AuditStore   domain.AuditStore

	// Caches
	Processed   domain.ProcessedMarkets
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	SignalBus   domain.SignalBus

	// Blob storage
	BlobWriter domain.BlobWriter
	Archiver   *s3blob.Archiver

	// Notifications
	Notifier *notify.Notifier

	// Core
	Ledger *ledger.Ledger
	Engine *oracle.Engine // nil in server mode
}

// runsOracle returns true for modes that run the consensus engine.
func runsOracle(mode string) bool {
	switch mode {
	case "full", "oracle", "once":
		return true
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL journal ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.MarketStore = postgres.NewMarketStore(pool)
	deps.BetStore = postgres.NewBetStore(pool)
	deps.BalanceStore = postgres.NewBalanceStore(pool)
	deps.AuditStore = postgres.NewAuditStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.Processed = redis.NewProcessedMarkets(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- S3 blob storage (optional cold archive) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, deps.AuditStore)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Pool ledger ---
	deps.Ledger = ledger.New(ledger.Config{
		FeeBps:       cfg.Ledger.FeeBps,
		MinLiquidity: domain.Micros(cfg.Ledger.MinLiquidityMicros),
		OracleAddr:   cfg.Ledger.OracleAddr,
		HouseAddr:    cfg.Ledger.HouseAddr,
	}, ledger.Journal{
		Markets:  deps.MarketStore,
		Bets:     deps.BetStore,
		Balances: deps.BalanceStore,
		Audit:    deps.AuditStore,
	}, deps.SignalBus, logger)

	if err := deps.Ledger.Restore(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: restore ledger: %w", err)
	}

	// --- Consensus engine (only for modes that resolve markets) ---
	if runsOracle(cfg.Mode) {
		handle := deps.Ledger.OracleHandle()
		var submitter domain.SettlementSubmitter = handle
		var attestor oracle.Attestor

		// When the authoritative pool lives in a contract, settlements go
		// through the relay instead of the in-process ledger.
		if cfg.Chain.Enabled {
			keyHex, err := crypto.LoadKey(crypto.KeyConfig{
				RawPrivateKey:    cfg.Chain.PrivateKey,
				EncryptedKeyPath: cfg.Chain.EncryptedKeyPath,
				KeyPassword:      cfg.Chain.KeyPassword,
			})
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: chain key: %w", err)
			}
			signer, err := crypto.NewSigner(keyHex, cfg.Chain.ChainID)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: chain signer: %w", err)
			}
			relay, err := chain.New(ctx, chain.Config{
				RPCURL:       cfg.Chain.RPCURL,
				ContractAddr: cfg.Chain.ContractAddr,
				GasLimit:     cfg.Chain.GasLimit,
			}, signer, logger)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: chain relay: %w", err)
			}
			closers = append(closers, relay.Close)
			submitter = relay
			attestor = signer
		}

		providers := buildProviders(cfg)
		var archiver oracle.RecordArchiver
		if deps.Archiver != nil {
			archiver = deps.Archiver
		}

		deps.Engine = oracle.New(oracle.Config{
			RequiredConsensus: cfg.Oracle.RequiredConsensus,
			GracePeriod:       cfg.Oracle.GracePeriod.Duration,
			PollInterval:      cfg.Oracle.PollInterval.Duration,
			LockTTL:           cfg.Oracle.LockTTL.Duration,
		}, handle, submitter, providers, deps.Processed, deps.LockManager, archiver, deps.Notifier, logger)
		if attestor != nil {
			deps.Engine.SetAttestor(attestor)
		}
	}

	return deps, cleanup, nil
}

// buildProviders instantiates a result provider for every configured
// credential. Order is stable so vote logs stay comparable across runs.
func buildProviders(cfg *config.Config) []domain.ResultProvider {
	var providers []domain.ResultProvider
	if c := cfg.Providers.OddsAPI; c.ApiKey != "" {
		client := oddsapi.New(c.BaseURL, c.ApiKey, c.Sport)
		client.SetDaysFrom(c.DaysFrom)
		providers = append(providers, client)
	}
	if c := cfg.Providers.SportsDB; c.ApiKey != "" {
		providers = append(providers, sportsdb.New(c.BaseURL, c.ApiKey, c.Sport))
	}
	if c := cfg.Providers.FootballData; c.ApiToken != "" {
		providers = append(providers, footballdata.New(c.BaseURL, c.ApiToken))
	}
	return providers
}
