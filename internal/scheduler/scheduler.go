// Package scheduler runs the nightly maintenance of the occupancy counters.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/iliyamo/pet-boarding-reservation/internal/booking"
	"github.com/iliyamo/pet-boarding-reservation/internal/config"
)

// Counters is the boarding_days maintenance surface.
type Counters interface {
	Reconcile(ctx context.Context, from time.Time) (int, error)
	PurgeBefore(ctx context.Context, day time.Time) (int64, error)
}

// Orphans removes reservations left without pets.
type Orphans interface {
	PurgeOrphans(ctx context.Context) (int64, error)
}

// Tokens removes expired refresh tokens.
type Tokens interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Maintenance is the nightly job.
type Maintenance struct {
	Counters Counters
	Orphans  Orphans
	Tokens   Tokens
	Clock    booking.Clock
	Timeout  time.Duration
}

// Seed rebuilds the counters from today on.  It runs once at startup,
// before any request is served, so stays that have no counter rows yet are
// seen by the capacity check of the first submission.
func (m *Maintenance) Seed(ctx context.Context) (int, error) {
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}
	today := m.today()
	n, err := m.Counters.Reconcile(ctx, today)
	if err != nil {
		return 0, err
	}
	log.Printf("scheduler: seeded %d day counters from %s", n, today.Format(booking.DateLayout))
	return n, nil
}

func (m *Maintenance) now() time.Time {
	if m.Clock != nil {
		return m.Clock.Now()
	}
	return time.Now()
}

func (m *Maintenance) today() time.Time { return booking.Day(m.now()) }

// Run purges orphan reservations, rebuilds counters from today on, drops
// counters for past days and expired refresh tokens.  Each step logs its
// own failure and the remaining steps still run.
func (m *Maintenance) Run(ctx context.Context) {
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}
	now := m.now()
	today := booking.Day(now)

	if n, err := m.Orphans.PurgeOrphans(ctx); err != nil {
		log.Printf("scheduler: purge orphan reservations: %v", err)
	} else if n > 0 {
		log.Printf("scheduler: purged %d orphan reservations", n)
	}
	if n, err := m.Counters.Reconcile(ctx, today); err != nil {
		log.Printf("scheduler: reconcile counters: %v", err)
	} else {
		log.Printf("scheduler: reconciled %d day counters from %s", n, today.Format(booking.DateLayout))
	}
	if _, err := m.Counters.PurgeBefore(ctx, today); err != nil {
		log.Printf("scheduler: purge past counters: %v", err)
	}
	if m.Tokens != nil {
		if _, err := m.Tokens.PurgeExpired(ctx, now.UTC()); err != nil {
			log.Printf("scheduler: purge refresh tokens: %v", err)
		}
	}
}

// Start schedules m on cfg.ReconcileCron (UTC) and starts the scheduler.
// The caller shuts it down.
func Start(cfg config.SchedulerConfig, m *Maintenance) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	_, err = s.NewJob(
		gocron.CronJob(cfg.ReconcileCron, false),
		gocron.NewTask(func() { m.Run(context.Background()) }),
		gocron.WithName("boarding-maintenance"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}
	s.Start()
	log.Printf("scheduler: maintenance scheduled at %q UTC", cfg.ReconcileCron)
	return s, nil
}
