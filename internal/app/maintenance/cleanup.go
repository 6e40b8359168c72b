package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eirikhm/tripfellows/internal/services"
	"github.com/eirikhm/tripfellows/pkg/logger"
)

// DefaultSchedule runs the retention sweep once a day.
const DefaultSchedule = "@daily"

// Options configures the background cleaner.
type Options struct {
	// Schedule is a cron expression (robfig/cron v3 syntax, descriptors allowed).
	Schedule string
	// AuditRetentionDays bounds how long audit log entries are kept. Zero
	// disables audit cleanup.
	AuditRetentionDays int
	// RunTimeout bounds a single sweep. Defaults to one minute.
	RunTimeout time.Duration
}

// Cleaner periodically removes expired records from the database.
type Cleaner struct {
	audit *services.AuditService
	opts  Options
	cron  *cron.Cron
	log   *zap.Logger
}

// NewCleaner builds a Cleaner bound to the supplied database handle.
func NewCleaner(db *gorm.DB, opts Options) (*Cleaner, error) {
	if db == nil {
		return nil, errors.New("maintenance: db is required")
	}

	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}

	if opts.Schedule == "" {
		opts.Schedule = DefaultSchedule
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = time.Minute
	}

	return &Cleaner{
		audit: audit,
		opts:  opts,
		log:   logger.WithModule("maintenance"),
	}, nil
}

// Start registers the cron schedule and begins running sweeps in the background.
func (c *Cleaner) Start() error {
	if c.cron != nil {
		return nil
	}

	runner := cron.New()
	_, err := runner.AddFunc(c.opts.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.RunTimeout)
		defer cancel()
		if err := c.RunOnce(ctx); err != nil {
			c.log.Warn("maintenance sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	runner.Start()
	c.cron = runner
	c.log.Info("maintenance cleaner started", zap.String("schedule", c.opts.Schedule))
	return nil
}

// Stop halts the scheduler and waits for any in-flight sweep to finish.
func (c *Cleaner) Stop() {
	if c.cron == nil {
		return
	}
	ctx := c.cron.Stop()
	<-ctx.Done()
	c.cron = nil
}

// RunOnce performs a single sweep. All cleanup steps are attempted even
// when an earlier one fails.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	var errs error

	if c.opts.AuditRetentionDays > 0 {
		removed, err := c.audit.CleanupOlderThan(ctx, c.opts.AuditRetentionDays)
		if err != nil {
			errs = multierr.Append(errs, err)
		} else if removed > 0 {
			c.log.Info("audit logs pruned",
				zap.Int64("removed", removed),
				zap.Int("retention_days", c.opts.AuditRetentionDays))
		}
	}

	return errs
}
