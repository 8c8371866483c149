// Package decay runs the recurring daily score decay and triggers
// tier reconciliation afterwards.
package decay

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Aladore384/guildpulse/internal/score"
)

// dateLayout is the calendar-date format of the daily decay marker.
const dateLayout = "2006-01-02"

// Reconciler triggers tier reconciliation for every known member.
type Reconciler interface {
	ReconcileAll(ctx context.Context) error
}

// Scheduler wakes on a fixed interval and applies the daily decay at
// most once per calendar date. The fixed-interval wake is a deliberate
// tradeoff against computing exact time-to-midnight: decay may run up
// to one interval late, but the marker check in the ledger keeps it
// from running twice for the same date.
type Scheduler struct {
	scores     *score.Ledger
	reconciler Reconciler
	amount     int
	interval   time.Duration
	clock      clockwork.Clock
	stopCh     chan struct{}
}

// NewScheduler creates a decay scheduler. amount is subtracted from
// every below-cap score once per day; interval is the wake period.
func NewScheduler(scores *score.Ledger, reconciler Reconciler, amount int, interval time.Duration, clock clockwork.Clock) *Scheduler {
	return &Scheduler{
		scores:     scores,
		reconciler: reconciler,
		amount:     amount,
		interval:   interval,
		clock:      clock,
		stopCh:     make(chan struct{}),
	}
}

// Run executes the wake-sleep loop until Stop is called or ctx is
// cancelled. The first pass runs immediately so a restart on a new
// day does not wait a full interval.
func (s *Scheduler) Run(ctx context.Context) {
	s.tick(ctx)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			s.tick(ctx)
		case <-s.stopCh:
			slog.Info("Decay scheduler stopped")
			return
		case <-ctx.Done():
			slog.Info("Decay scheduler context cancelled")
			return
		}
	}
}

// Stop gracefully stops the loop.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

func (s *Scheduler) tick(ctx context.Context) {
	today := s.clock.Now().Format(dateLayout)

	applied, err := s.scores.DecayAll(s.amount, today)
	if err != nil {
		slog.Error("Daily decay failed", "date", today, "error", err)
		return
	}
	if applied {
		slog.Info("Daily decay applied", "date", today, "amount", s.amount)
	}

	// Reconciliation runs on every wake, decayed or not, so role state
	// converges even after out-of-band score changes.
	if err := s.reconciler.ReconcileAll(ctx); err != nil {
		slog.Error("Tier reconciliation failed", "error", err)
	}
}
