package settlementworker

import (
	"context"
	"log/slog"
	"time"
)

// Settler is the slice of the settlement usecase the worker drives.
type Settler interface {
	SettleDue(ctx context.Context, limit int) (int, error)
	RecoverInFlight(ctx context.Context, limit int) (int, error)
}

// recoveryEvery is how many settlement ticks pass between recovery sweeps.
// Recovery only matters for cheques whose lease already expired, so it can
// run at a fraction of the settlement cadence.
const recoveryEvery = 5

// Worker polls for due cheques and drives them through settlement. Several
// workers may run concurrently; per-cheque leases keep them off each other's
// cheques.
type Worker struct {
	settler   Settler
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// Config for Worker.
type Config struct {
	Settler   Settler
	Logger    *slog.Logger
	Interval  time.Duration // Polling interval
	BatchSize int           // Cheques claimed per tick
}

// New creates a new Worker.
func New(cfg Config) *Worker {
	if cfg.Interval == 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 20
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Worker{
		settler:   cfg.Settler,
		logger:    cfg.Logger,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
	}
}

// Start runs the settlement loop until the context is cancelled. Recovery of
// stuck in-flight cheques happens on startup and then periodically, so a
// worker that replaces a crashed one picks up its unresolved attempts.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("settlement worker started",
		slog.Duration("interval", w.interval),
		slog.Int("batch_size", w.batchSize))

	w.recover(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	ticks := 0

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("settlement worker shutting down")
			return ctx.Err()
		case <-ticker.C:
			w.settle(ctx)

			ticks++
			if ticks%recoveryEvery == 0 {
				w.recover(ctx)
			}
		}
	}
}

func (w *Worker) settle(ctx context.Context) {
	processed, err := w.settler.SettleDue(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("settlement pass failed", slog.String("error", err.Error()))
		return
	}

	if processed > 0 {
		w.logger.Info("settlement pass complete", slog.Int("processed", processed))
	}
}

func (w *Worker) recover(ctx context.Context) {
	recovered, err := w.settler.RecoverInFlight(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("recovery pass failed", slog.String("error", err.Error()))
		return
	}

	if recovered > 0 {
		w.logger.Info("recovery pass complete", slog.Int("recovered", recovered))
	}
}
