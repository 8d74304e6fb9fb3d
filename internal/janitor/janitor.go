// Package janitor runs the periodic cleanup jobs using robfig/cron.
package janitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	// DefaultSchedule runs the cleanup at the top of every hour
	DefaultSchedule = "0 * * * *"
	// DefaultRetention is how long delivery records are kept
	DefaultRetention = 7 * 24 * time.Hour
	// DefaultScratchAge is the age after which a scratch file is an orphan
	DefaultScratchAge = time.Hour
)

// Pruner removes delivery records older than a cutoff
type Pruner interface {
	Prune(cutoff time.Time) (int, error)
}

// Sweeper removes scratch files older than a cutoff
type Sweeper interface {
	Sweep(cutoff time.Time) (int, error)
}

// Config controls the cleanup schedule
type Config struct {
	Schedule   string
	Retention  time.Duration
	ScratchAge time.Duration
}

// Janitor prunes the delivery ledger and sweeps the scratch directory
type Janitor struct {
	cron    *cron.Cron
	cfg     Config
	ledger  Pruner
	scratch Sweeper
	now     func() time.Time
}

// New creates a new Janitor
func New(cfg Config, ledger Pruner, scratch Sweeper) *Janitor {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.ScratchAge <= 0 {
		cfg.ScratchAge = DefaultScratchAge
	}

	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug))))

	return &Janitor{
		cron:    c,
		cfg:     cfg,
		ledger:  ledger,
		scratch: scratch,
		now:     time.Now,
	}
}

// Start schedules the cleanup job
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc(j.cfg.Schedule, j.RunNow); err != nil {
		return err
	}

	j.cron.Start()
	slog.Info("Janitor started", "schedule", j.cfg.Schedule, "jobs", len(j.cron.Entries()))
	return nil
}

// Stop stops the scheduler. The returned context is done when a running job finishes.
func (j *Janitor) Stop() context.Context {
	slog.Info("Janitor stopping")
	return j.cron.Stop()
}

// RunNow performs one cleanup pass
func (j *Janitor) RunNow() {
	now := j.now()

	if j.ledger != nil {
		pruned, err := j.ledger.Prune(now.Add(-j.cfg.Retention))
		if err != nil {
			slog.Error("Failed to prune deliveries", "error", err)
		} else {
			slog.Info("Pruned deliveries", "count", pruned)
		}
	}

	if j.scratch != nil {
		swept, err := j.scratch.Sweep(now.Add(-j.cfg.ScratchAge))
		if err != nil {
			slog.Error("Failed to sweep scratch directory", "error", err)
		} else if swept > 0 {
			slog.Info("Removed orphaned scratch files", "count", swept)
		}
	}
}
