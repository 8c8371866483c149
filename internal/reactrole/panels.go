package reactrole

import (
	"context"

	"github.com/Aladore384/guildpulse/internal/domain"
	apperrors "github.com/Aladore384/guildpulse/internal/errors"
	"github.com/Aladore384/guildpulse/internal/metrics"
	"github.com/Aladore384/guildpulse/internal/statestore"
)

// ReactionOutcome describes the side effects a reaction event calls
// for. The caller executes them against the platform after the state
// has committed; the tracker itself never applies them.
type ReactionOutcome struct {
	// GrantRole is the role to grant the reacting member, if any.
	GrantRole string
	// RevokeRole is the role to revoke from the member, if any.
	RevokeRole string
	// RemoveReaction asks the caller to strip the just-added reaction
	// from the panel message.
	RemoveReaction bool
}

// PanelTracker tracks which outstanding messages are reaction-role
// panels and reconciles reaction events into role grants and
// revocations. It consults the role directory read-only; it never
// mutates roles itself.
type PanelTracker struct {
	store    *statestore.Store
	registry *Registry
	roles    domain.RoleDirectory
}

// NewPanelTracker creates a panel tracker.
func NewPanelTracker(store *statestore.Store, registry *Registry, roles domain.RoleDirectory) *PanelTracker {
	return &PanelTracker{store: store, registry: registry, roles: roles}
}

// Track records messageID as a live panel with the given mode.
func (t *PanelTracker) Track(messageID string, mode domain.PanelMode) error {
	if !mode.Valid() {
		return apperrors.ValidationError("unknown panel mode").WithContext("mode", string(mode))
	}
	return t.store.Mutate(func(s *domain.State) error {
		if _, ok := s.FindPanel(messageID); ok {
			return apperrors.ConflictError("message is already a panel").WithContext("message_id", messageID)
		}
		s.Panels = append(s.Panels, domain.ReactionPanel{MessageID: messageID, Mode: mode})
		return nil
	})
}

// Untrack drops the panel for a deleted message. Roles already granted
// through the panel persist; deletion has no role side effects.
// Unknown messages are ignored, most deletions are not panels.
func (t *PanelTracker) Untrack(messageID string) error {
	return t.UntrackBulk([]string{messageID})
}

// UntrackBulk drops every panel whose message was purged.
func (t *PanelTracker) UntrackBulk(messageIDs []string) error {
	deleted := make(map[string]struct{}, len(messageIDs))
	for _, id := range messageIDs {
		deleted[id] = struct{}{}
	}
	return t.store.Mutate(func(s *domain.State) error {
		kept := s.Panels[:0]
		for _, p := range s.Panels {
			if _, gone := deleted[p.MessageID]; !gone {
				kept = append(kept, p)
			}
		}
		s.Panels = append([]domain.ReactionPanel{}, kept...)
		return nil
	})
}

// Panels returns all tracked panels.
func (t *PanelTracker) Panels() []domain.ReactionPanel {
	return t.store.Snapshot().Panels
}

// OnReactionAdded resolves a reaction-added event into an outcome.
// Reactions on untracked messages and reactions with unlinked emojis
// are foreign and produce an empty outcome. On an exclusive panel a
// reaction for a role the member already holds is re-confirmation
// churn: the reaction is stripped and nothing is granted. Everything
// else grants the resolved role, including a second role on an
// exclusive panel; the earlier role is deliberately not revoked, since
// the platform emits independent per-emoji events with no atomic
// switch primitive.
func (t *PanelTracker) OnReactionAdded(ctx context.Context, ev domain.ReactionAdded) (ReactionOutcome, error) {
	panel, ok := t.lookup(ev.MessageID)
	if !ok {
		return ReactionOutcome{}, nil
	}

	roleID, ok := t.registry.Resolve(ev.Emoji)
	if !ok {
		metrics.PanelReactions.WithLabelValues("foreign").Inc()
		return ReactionOutcome{}, nil
	}

	if panel.Mode == domain.PanelModeExclusive {
		held, err := t.roles.HasRole(ctx, ev.MemberID, roleID)
		if err != nil {
			return ReactionOutcome{}, apperrors.TransportError("checking role holdings", err).
				WithContext("member_id", ev.MemberID).
				WithContext("role_id", roleID)
		}
		if held {
			metrics.PanelReactions.WithLabelValues("blocked").Inc()
			return ReactionOutcome{RemoveReaction: true}, nil
		}
	}

	metrics.PanelReactions.WithLabelValues("grant").Inc()
	return ReactionOutcome{GrantRole: roleID}, nil
}

// OnReactionRemoved resolves a reaction-removed event. A removed
// reaction on a panel always revokes the linked role, in both modes.
func (t *PanelTracker) OnReactionRemoved(ev domain.ReactionRemoved) ReactionOutcome {
	if _, ok := t.lookup(ev.MessageID); !ok {
		return ReactionOutcome{}
	}

	roleID, ok := t.registry.Resolve(ev.Emoji)
	if !ok {
		metrics.PanelReactions.WithLabelValues("foreign").Inc()
		return ReactionOutcome{}
	}

	metrics.PanelReactions.WithLabelValues("revoke").Inc()
	return ReactionOutcome{RevokeRole: roleID}
}

func (t *PanelTracker) lookup(messageID string) (domain.ReactionPanel, bool) {
	return t.store.Snapshot().FindPanel(messageID)
}
