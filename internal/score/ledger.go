// Package score implements per-member engagement point accounting:
// message rewards, admin overrides, capping, and daily decay.
package score

import (
	"fmt"

	"github.com/Aladore384/guildpulse/internal/domain"
	"github.com/Aladore384/guildpulse/internal/metrics"
	"github.com/Aladore384/guildpulse/internal/statestore"
)

// Ledger mutates member scores through the state store.
type Ledger struct {
	store  *statestore.Store
	reward int
	limit  int
}

// NewLedger creates a score ledger. reward is granted per qualifying
// message; limit caps every entry.
func NewLedger(store *statestore.Store, reward, limit int) *Ledger {
	return &Ledger{store: store, reward: reward, limit: limit}
}

// Limit returns the configured score cap.
func (l *Ledger) Limit() int {
	return l.limit
}

// Reward increments memberID's score by the configured reward amount,
// clamped to the limit. The entry is created on first reward and the
// new point total is returned.
func (l *Ledger) Reward(memberID string) (int, error) {
	var points int
	err := l.store.Mutate(func(s *domain.State) error {
		i := s.FindScore(memberID)
		if i < 0 {
			points = min(l.reward, l.limit)
			s.Scores = append(s.Scores, domain.MemberScore{MemberID: memberID, Points: points})
			return nil
		}
		points = min(s.Scores[i].Points+l.reward, l.limit)
		s.Scores[i].Points = points
		return nil
	})
	if err != nil {
		return 0, err
	}
	metrics.ScoreMutations.WithLabelValues("reward").Inc()
	return points, nil
}

// Set overrides memberID's score. Points outside [0, limit] are
// rejected with ErrScoreOutOfRange and the state is unchanged.
func (l *Ledger) Set(memberID string, points int) error {
	if points < 0 || points > l.limit {
		return fmt.Errorf("%w: %d not in [0, %d]", domain.ErrScoreOutOfRange, points, l.limit)
	}
	err := l.store.Mutate(func(s *domain.State) error {
		i := s.FindScore(memberID)
		if i < 0 {
			s.Scores = append(s.Scores, domain.MemberScore{MemberID: memberID, Points: points})
			return nil
		}
		s.Scores[i].Points = points
		return nil
	})
	if err != nil {
		return err
	}
	metrics.ScoreMutations.WithLabelValues("set").Inc()
	return nil
}

// DecayAll subtracts amount (floored at 0) from every entry strictly
// below the limit and stamps date as the daily decay marker, all in
// one atomic mutation. Entries at or above the limit are exempt:
// a member at cap has stayed engaged and keeps the cap. When the
// marker already equals date the call is a no-op and returns false,
// which makes the daily application idempotent across scheduler
// restarts within the same day.
func (l *Ledger) DecayAll(amount int, date string) (bool, error) {
	applied := false
	err := l.store.Mutate(func(s *domain.State) error {
		if s.LastDaily == date {
			return nil
		}
		for i := range s.Scores {
			if s.Scores[i].Points >= l.limit {
				continue
			}
			s.Scores[i].Points = max(0, s.Scores[i].Points-amount)
		}
		s.LastDaily = date
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if applied {
		metrics.DecayRuns.Inc()
	}
	return applied, nil
}

// Get returns memberID's score, defaulting to 0 for unknown members.
func (l *Ledger) Get(memberID string) int {
	s := l.store.Snapshot()
	if i := s.FindScore(memberID); i >= 0 {
		return s.Scores[i].Points
	}
	return 0
}

// Members returns the IDs of every member with a score entry, in
// entry order. Used by tier reconciliation.
func (l *Ledger) Members() []string {
	s := l.store.Snapshot()
	ids := make([]string, len(s.Scores))
	for i, entry := range s.Scores {
		ids[i] = entry.MemberID
	}
	return ids
}

// LastDecayDate returns the calendar date of the last applied decay.
func (l *Ledger) LastDecayDate() string {
	return l.store.Snapshot().LastDaily
}
