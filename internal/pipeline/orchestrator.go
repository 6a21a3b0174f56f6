package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Orchestrator manages the background goroutines: feed polling, reserve
// bootstrapping, and cold-storage archival.
type Orchestrator struct {
	poller            *FeedPoller
	bootstrapper      *Bootstrapper
	archiver          *Archiver
	pollInterval      time.Duration
	bootstrapInterval time.Duration
	archiveCron       string
	logger            *slog.Logger
}

// NewOrchestrator creates an Orchestrator. The archiver may be nil when
// blob storage is not configured; in that case no archival loop starts.
func NewOrchestrator(
	poller *FeedPoller,
	bootstrapper *Bootstrapper,
	archiver *Archiver,
	pollInterval time.Duration,
	bootstrapInterval time.Duration,
	archiveCron string,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		poller:            poller,
		bootstrapper:      bootstrapper,
		archiver:          archiver,
		pollInterval:      pollInterval,
		bootstrapInterval: bootstrapInterval,
		archiveCron:       archiveCron,
		logger:            logger,
	}
}

// Run starts all loops as concurrent goroutines using an errgroup. Each
// goroutine respects ctx cancellation. If any goroutine returns a
// non-context error, the errgroup cancels the shared context and Run
// returns that error.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("pipeline orchestrator starting",
		slog.Duration("poll_interval", o.pollInterval),
		slog.Duration("bootstrap_interval", o.bootstrapInterval),
		slog.String("archive_cron", o.archiveCron),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		o.logger.Info("starting feed poller loop")
		err := o.poller.RunLoop(ctx, o.pollInterval)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("feed poller: %w", err)
	})

	g.Go(func() error {
		o.logger.Info("starting bootstrapper loop")
		err := o.bootstrapper.RunLoop(ctx, o.bootstrapInterval)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("bootstrapper: %w", err)
	})

	if o.archiver != nil {
		g.Go(func() error {
			o.logger.Info("starting archiver cron")
			err := o.archiver.RunCron(ctx, o.archiveCron)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("archiver: %w", err)
		})
	}

	err := g.Wait()
	if err != nil {
		o.logger.Error("pipeline orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}

	o.logger.Info("pipeline orchestrator stopped cleanly")
	return nil
}
