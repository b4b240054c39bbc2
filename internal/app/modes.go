package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/paribet/internal/server"
	"github.com/alanyoungcy/paribet/internal/server/handler"
	"github.com/alanyoungcy/paribet/internal/server/ws"
)

// expireInterval is how often Forming markets are checked against their
// activation deadline.
const expireInterval = time.Minute

// FullMode runs the pool ledger, the consensus engine, and the HTTP +
// WebSocket API in one process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Engine.Run(ctx)
	})
	g.Go(func() error {
		return a.expireFormingLoop(ctx, deps)
	})
	if deps.Archiver != nil {
		g.Go(func() error {
			return a.archiveAuditLoop(ctx, deps)
		})
	}
	if a.cfg.Server.Enabled {
		a.startServer(ctx, g, deps, deps.Engine)
	}

	return g.Wait()
}

// OracleMode runs only the consensus engine against the shared journal.
func (a *App) OracleMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting oracle mode")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Engine.Run(ctx)
	})
	g.Go(func() error {
		return a.expireFormingLoop(ctx, deps)
	})
	if deps.Archiver != nil {
		g.Go(func() error {
			return a.archiveAuditLoop(ctx, deps)
		})
	}

	return g.Wait()
}

// ServerMode runs the HTTP + WebSocket API without the consensus engine.
// Markets still expire locally so Forming pools are not stuck forever.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.expireFormingLoop(ctx, deps)
	})
	a.startServer(ctx, g, deps, nil)

	return g.Wait()
}

// OnceMode runs a single resolution cycle and exits. Useful for cron-style
// deployments and debugging.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "running single oracle cycle")

	stats, err := deps.Engine.CheckPendingMarkets(ctx)
	if err != nil {
		return err
	}

	a.logger.InfoContext(ctx, "cycle complete",
		slog.Int("overdue", stats.Overdue),
		slog.Int("settled", stats.Settled),
		slog.Int("no_consensus", stats.NoConsensus),
		slog.Int("failed", stats.Failed),
		slog.Int("skipped", stats.Skipped),
	)
	return nil
}

// startServer builds the HTTP handlers and the WebSocket hub and launches
// the server on the errgroup, with a shutdown watcher tied to ctx.
func (a *App) startServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, engine handler.CycleTrigger) {
	handlers := server.Handlers{
		Health:  handler.NewHealthHandler(a.logger),
		Markets: handler.NewMarketHandler(deps.Ledger, deps.MarketStore, a.logger),
		Bets:    handler.NewBetHandler(deps.Ledger, a.logger),
		Oracle:  handler.NewOracleHandler(engine, deps.Ledger.OracleHandle(), a.logger),
	}

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		err := hub.Run(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})

	rateLimit := a.cfg.Server.RateLimitPerMin
	if a.cfg.Server.RateLimitDisabled {
		rateLimit = 0
	}
	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		RateLimitPerMin: rateLimit,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown", slog.String("error", err.Error()))
		}
		return ctx.Err()
	})
}

// archiveAuditLoop periodically sweeps audit entries past the retention
// cutoff to cold storage. Upload failures are logged and retried on the
// next tick; the primary store keeps the rows either way.
func (a *App) archiveAuditLoop(ctx context.Context, deps *Dependencies) error {
	ticker := time.NewTicker(a.cfg.S3.ArchiveInterval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			cutoff := now.UTC().Add(-a.cfg.S3.AuditRetention.Duration)
			archived, err := deps.Archiver.ArchiveAudit(ctx, cutoff)
			if err != nil {
				a.logger.ErrorContext(ctx, "archive audit entries",
					slog.String("error", err.Error()),
				)
				continue
			}
			if archived > 0 {
				a.logger.InfoContext(ctx, "audit entries archived",
					slog.Int64("count", archived),
					slog.Time("cutoff", cutoff),
				)
			}
		}
	}
}

// expireFormingLoop periodically voids Forming markets whose activation
// deadline passed without reaching the liquidity threshold.
func (a *App) expireFormingLoop(ctx context.Context, deps *Dependencies) error {
	ticker := time.NewTicker(expireInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			voided, err := deps.Ledger.ExpireForming(ctx, now.UTC())
			if err != nil {
				a.logger.ErrorContext(ctx, "expire forming markets",
					slog.String("error", err.Error()),
				)
				continue
			}
			if len(voided) > 0 {
				a.logger.InfoContext(ctx, "voided unfilled markets",
					slog.Int("count", len(voided)),
				)
			}
		}
	}
}
