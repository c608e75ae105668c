package duel

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// Sweeper is the periodic cleanup hook driven by the reaper.
type Sweeper interface {
	Sweep(now time.Time) SweepStats
}

// Reaper runs Sweep on a fixed interval so abandoned queue entries, mailbox
// slots and rooms do not accumulate under low traffic.
type Reaper struct {
	sched  gocron.Scheduler
	logger zerolog.Logger
}

// NewReaper schedules target.Sweep every interval. Call Start to begin.
func NewReaper(target Sweeper, interval time.Duration, logger zerolog.Logger) (*Reaper, error) {
	if interval <= 0 {
		interval = time.Minute
	}
	logger = logger.With().Str("component", "duel_reaper").Logger()

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			stats := target.Sweep(time.Now())
			if stats.Queue+stats.Mailbox+stats.Rooms == 0 {
				return
			}
			logger.Info().
				Int("queue", stats.Queue).
				Int("mailbox", stats.Mailbox).
				Int("rooms", stats.Rooms).
				Msg("expired duel state reaped")
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule sweep: %w", err)
	}
	return &Reaper{sched: sched, logger: logger}, nil
}

// Start begins running the sweep job.
func (r *Reaper) Start() {
	r.sched.Start()
	r.logger.Info().Msg("reaper started")
}

// Stop waits for a running sweep to finish and stops the scheduler.
func (r *Reaper) Stop() error {
	if err := r.sched.Shutdown(); err != nil {
		return fmt.Errorf("stop reaper: %w", err)
	}
	return nil
}
