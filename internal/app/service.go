// Package app is the application layer, the only component that
// references multiple domain components. It dispatches inbound events,
// orchestrates state mutations, and applies the resulting side effects
// through the platform collaborators. State commits always happen
// before side effects; a slow or failing platform call never rolls
// back committed state.
package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/Aladore384/guildpulse/internal/domain"
	"github.com/Aladore384/guildpulse/internal/metrics"
	"github.com/Aladore384/guildpulse/internal/reactrole"
	"github.com/Aladore384/guildpulse/internal/score"
	"github.com/Aladore384/guildpulse/internal/statestore"
	"github.com/Aladore384/guildpulse/internal/tier"
	"github.com/Aladore384/guildpulse/internal/verify"
)

// Settings carries the identity and role wiring the service needs.
type Settings struct {
	BotUserID        string
	ScoreThreshold   int
	TierRoles        tier.Pair
	VerifiedRoleID   string
	UnverifiedRoleID string
	JoinlogChannelID string
}

// Service orchestrates all use cases of the engagement engine.
type Service struct {
	settings Settings

	store  *statestore.Store
	scores *score.Ledger
	links  *reactrole.Registry
	panels *reactrole.PanelTracker
	codes  *verify.Ledger

	roles   domain.RoleDirectory
	channel domain.MessageChannel
	email   domain.EmailDispatcher
	clock   clockwork.Clock

	// memberLocks serializes role mutations per member so interleaved
	// add/remove calls for the same member cannot race on the platform
	// side.
	mu          sync.Mutex
	memberLocks map[string]*sync.Mutex
}

// NewService creates the application layer service.
func NewService(
	settings Settings,
	store *statestore.Store,
	scores *score.Ledger,
	links *reactrole.Registry,
	panels *reactrole.PanelTracker,
	codes *verify.Ledger,
	roles domain.RoleDirectory,
	channel domain.MessageChannel,
	email domain.EmailDispatcher,
	clock clockwork.Clock,
) *Service {
	return &Service{
		settings:    settings,
		store:       store,
		scores:      scores,
		links:       links,
		panels:      panels,
		codes:       codes,
		roles:       roles,
		channel:     channel,
		email:       email,
		clock:       clock,
		memberLocks: make(map[string]*sync.Mutex),
	}
}

// ReconcileMember re-derives the member's tier from the current score
// and applies the minimal role delta so exactly one of the tier roles
// is held. Called after every score mutation and from the decay loop.
func (s *Service) ReconcileMember(ctx context.Context, memberID string) error {
	points := s.scores.Get(memberID)
	t := tier.Resolve(points, s.settings.ScoreThreshold)

	unlock := s.lockMember(memberID)
	defer unlock()

	hasActive, err := s.roles.HasRole(ctx, memberID, s.settings.TierRoles.ActiveRoleID)
	if err != nil {
		return err
	}
	hasPassive, err := s.roles.HasRole(ctx, memberID, s.settings.TierRoles.PassiveRoleID)
	if err != nil {
		return err
	}

	delta := s.settings.TierRoles.Reconcile(hasActive, hasPassive, t)
	if delta.Empty() {
		return nil
	}

	slog.DebugContext(ctx, "Reconciling tier roles",
		"member_id", memberID, "points", points, "tier", t.String(),
		"add", delta.Add, "remove", delta.Remove)
	return s.applyDeltaLocked(ctx, memberID, delta)
}

// ReconcileAll reconciles every member with a score entry. Individual
// failures are logged and skipped so one unreachable member does not
// stall the rest.
func (s *Service) ReconcileAll(ctx context.Context) error {
	for _, memberID := range s.scores.Members() {
		if err := s.ReconcileMember(ctx, memberID); err != nil {
			slog.WarnContext(ctx, "Member reconciliation failed", "member_id", memberID, "error", err)
		}
	}
	return nil
}

// applyDelta grabs the member's lock and applies the delta.
func (s *Service) applyDelta(ctx context.Context, memberID string, delta domain.RoleDelta) error {
	unlock := s.lockMember(memberID)
	defer unlock()
	return s.applyDeltaLocked(ctx, memberID, delta)
}

// applyDeltaLocked applies the delta; the member lock must be held.
// Removals run before additions so a tier swap passes through the
// no-roles state rather than the both-roles state.
func (s *Service) applyDeltaLocked(ctx context.Context, memberID string, delta domain.RoleDelta) error {
	for _, roleID := range delta.Remove {
		if err := s.roles.Revoke(ctx, memberID, roleID); err != nil {
			return err
		}
		metrics.RoleRevocations.Inc()
	}
	for _, roleID := range delta.Add {
		if err := s.roles.Grant(ctx, memberID, roleID); err != nil {
			return err
		}
		metrics.RoleGrants.Inc()
	}
	return nil
}

// lockMember returns an unlock func for the member's role mutex.
func (s *Service) lockMember(memberID string) func() {
	s.mu.Lock()
	m, ok := s.memberLocks[memberID]
	if !ok {
		m = &sync.Mutex{}
		s.memberLocks[memberID] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}
