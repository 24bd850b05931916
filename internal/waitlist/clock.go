package waitlist

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Clock drives confirmation-deadline expiry.  Deadlines are persisted
// on the entries themselves, so the clock is a reconciliation sweep
// rather than a per-entry timer: it periodically asks the coordinator
// to expire every overdue reservation, which also covers deadlines
// that lapsed while the process was down.
type Clock struct {
	coord *Coordinator
	sched gocron.Scheduler
	every time.Duration
}

// NewClock builds the sweep scheduler.  interval is how often the
// sweep runs; the coordinator's config carries it.
func NewClock(coord *Coordinator, interval time.Duration) (*Clock, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("init scheduler: %w", err)
	}
	return &Clock{coord: coord, sched: sched, every: interval}, nil
}

// Start runs one immediate sweep to catch deadlines that passed while
// the process was down, then schedules the periodic sweep.
func (c *Clock) Start(ctx context.Context) error {
	c.sweep(ctx)

	_, err := c.sched.NewJob(
		gocron.DurationJob(c.every),
		gocron.NewTask(func() { c.sweep(context.Background()) }),
	)
	if err != nil {
		return fmt.Errorf("schedule deadline sweep: %w", err)
	}
	c.sched.Start()
	return nil
}

// Stop shuts the scheduler down; a sweep in progress is allowed to
// finish.
func (c *Clock) Stop() {
	if err := c.sched.Shutdown(); err != nil {
		log.Printf("waitlist-clock: shutdown: %v", err)
	}
}

func (c *Clock) sweep(ctx context.Context) {
	n, err := c.coord.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("waitlist-clock: deadline sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("waitlist-clock: expired %d overdue reservation(s)", n)
	}
}
