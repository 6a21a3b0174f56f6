package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dfelipebr/oddsmirror/internal/pipeline"
	"github.com/dfelipebr/oddsmirror/internal/secrets"
	"github.com/dfelipebr/oddsmirror/internal/server"
	"github.com/dfelipebr/oddsmirror/internal/server/handler"
	"github.com/dfelipebr/oddsmirror/internal/server/ws"
	"github.com/dfelipebr/oddsmirror/internal/service"
)

// ServeMode runs the HTTP + WebSocket API without the background pipeline.
// Feed polling is assumed to run in a separate mirror-mode process sharing
// the same stores.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)
	if err := a.startHTTPServer(ctx, g, deps); err != nil {
		return err
	}
	return g.Wait()
}

// MirrorMode runs only the background pipeline: feed polling, reserve
// bootstrapping, and snapshot archival.
func (a *App) MirrorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting mirror mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startPipeline(ctx, g, deps)
	return g.Wait()
}

// FullMode runs the HTTP API and the background pipeline in one process.
// Dev mode takes this path too, on in-process stores.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.Pipeline.Enabled {
		a.startPipeline(ctx, g, deps)
	} else {
		a.logger.InfoContext(ctx, "pipeline disabled by configuration")
	}

	if a.cfg.Server.Enabled {
		if err := a.startHTTPServer(ctx, g, deps); err != nil {
			return err
		}
	} else {
		a.logger.InfoContext(ctx, "server disabled by configuration")
	}

	return g.Wait()
}

// startPipeline builds the background loops and runs them on the errgroup.
func (a *App) startPipeline(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	poller := pipeline.NewFeedPoller(
		deps.Feed, deps.MarketStore, deps.Tracker, deps.PriceCache, deps.SignalBus,
		a.logger.With(slog.String("component", "feed_poller")),
	)
	bootstrapper := pipeline.NewBootstrapper(
		deps.MarketStore, deps.ReserveStore, deps.SnapshotStore, deps.Tracker,
		a.cfg.Engine.LiquidityScale,
		a.logger.With(slog.String("component", "bootstrapper")),
	)

	var archiver *pipeline.Archiver
	if deps.Archiver != nil {
		archiver = pipeline.NewArchiver(
			deps.Archiver, a.cfg.Pipeline.ArchiveRetentionDays,
			a.logger.With(slog.String("component", "archiver")),
		)
	} else {
		a.logger.Info("snapshot archival disabled (no s3 bucket configured)")
	}

	orch := pipeline.NewOrchestrator(
		poller, bootstrapper, archiver,
		a.cfg.Pipeline.PollInterval.Duration,
		a.cfg.Pipeline.BootstrapInterval.Duration,
		a.cfg.Pipeline.ArchiveCron,
		a.logger.With(slog.String("component", "orchestrator")),
	)

	g.Go(func() error {
		return orch.Run(ctx)
	})
}

// startHTTPServer builds the services and handlers, resolves the admin
// token, and runs the server and WebSocket hub on the errgroup.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) error {
	adminToken, err := a.resolveAdminToken()
	if err != nil {
		return fmt.Errorf("app: resolve admin token: %w", err)
	}
	if adminToken == "" {
		a.logger.Warn("no admin token configured, admin endpoints are open")
	}

	marketSvc := service.NewMarketService(
		deps.MarketStore, deps.ReserveStore, deps.SnapshotStore,
		a.cfg.Engine.LiquidityScale, a.logger,
	)
	tradeSvc := service.NewTradeService(
		deps.MarketStore, deps.ReserveStore, deps.TradeStore, deps.SnapshotStore,
		deps.LockManager, deps.SignalBus, deps.Engine, a.cfg.Engine.FeeBps, a.logger,
	)

	hub := ws.NewHub(deps.SignalBus, a.cfg.Mode, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			AdminToken:  adminToken,
		},
		server.Handlers{
			Health:  handler.NewHealthHandler(a.logger),
			Markets: handler.NewMarketHandler(marketSvc, a.logger),
			Trades:  handler.NewTradeHandler(tradeSvc, a.logger),
			Mirror:  handler.NewMirrorHandler(deps.Tracker, a.logger),
		},
		hub,
		deps.RateLimiter,
		a.logger,
	)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return nil
}

// resolveAdminToken loads the admin API token from the configured source:
// plaintext config value or an encrypted secret file.
func (a *App) resolveAdminToken() (string, error) {
	if a.cfg.Server.AdminToken == "" && a.cfg.Server.AdminTokenPath == "" {
		return "", nil
	}
	return secrets.LoadSecret(secrets.SecretConfig{
		Raw:           a.cfg.Server.AdminToken,
		EncryptedPath: a.cfg.Server.AdminTokenPath,
		Password:      a.cfg.Server.AdminTokenPassword,
	})
}
