package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Aladore384/guildpulse/internal/domain"
	apperrors "github.com/Aladore384/guildpulse/internal/errors"
	"github.com/Aladore384/guildpulse/internal/verify"
)

// --- Score commands ---

// SetScore overrides a member's score and reconciles their tier.
func (s *Service) SetScore(ctx context.Context, memberID string, points int) error {
	if err := s.scores.Set(memberID, points); err != nil {
		return err
	}
	return s.ReconcileMember(ctx, memberID)
}

// GetScore returns a member's score, 0 for unknown members.
func (s *Service) GetScore(memberID string) int {
	return s.scores.Get(memberID)
}

// --- Autorole commands ---

// AddAutorole adds roleID to the set granted on join.
func (s *Service) AddAutorole(roleID string) error {
	return s.store.Mutate(func(st *domain.State) error {
		for _, id := range st.Autoroles {
			if id == roleID {
				return apperrors.ConflictError("role is already an autorole").WithContext("role_id", roleID)
			}
		}
		st.Autoroles = append(st.Autoroles, roleID)
		return nil
	})
}

// RemoveAutorole removes roleID from the autorole set.
func (s *Service) RemoveAutorole(roleID string) error {
	return s.store.Mutate(func(st *domain.State) error {
		for i, id := range st.Autoroles {
			if id == roleID {
				st.Autoroles = append(st.Autoroles[:i], st.Autoroles[i+1:]...)
				return nil
			}
		}
		return apperrors.NotFoundError("role is not an autorole").WithContext("role_id", roleID)
	})
}

// ListAutoroles returns the autorole set in insertion order.
func (s *Service) ListAutoroles() []string {
	return s.store.Snapshot().Autoroles
}

// ClearAutoroles empties the autorole set.
func (s *Service) ClearAutoroles() error {
	return s.store.Mutate(func(st *domain.State) error {
		st.Autoroles = []string{}
		return nil
	})
}

// --- Reaction link commands ---

// LinkRole binds a role to an emoji for panel use.
func (s *Service) LinkRole(roleID, emoji string) error {
	return s.links.Link(roleID, emoji)
}

// UnlinkRole removes a role's emoji binding.
func (s *Service) UnlinkRole(roleID string) error {
	return s.links.Unlink(roleID)
}

// Links returns all reaction links in creation order.
func (s *Service) Links() []domain.ReactionLink {
	return s.links.List()
}

// ClearLinks removes every reaction link.
func (s *Service) ClearLinks() error {
	return s.links.Clear()
}

// --- Panel commands ---

// CreatePanel posts a reaction-role panel for the given roles to
// channelID, seeds one reaction per role, and tracks the message.
// Every role must already have a reaction link.
func (s *Service) CreatePanel(ctx context.Context, channelID string, mode domain.PanelMode, roleIDs []string) (string, error) {
	if !mode.Valid() {
		return "", apperrors.ValidationError("unknown panel mode").WithContext("mode", string(mode))
	}
	if len(roleIDs) == 0 {
		return "", apperrors.ValidationError("panel needs at least one role")
	}

	emojis, err := s.links.EmojisFor(roleIDs)
	if err != nil {
		return "", apperrors.ValidationError("role has no reaction link").WithContext("cause", err.Error())
	}

	messageID, err := s.channel.Send(ctx, channelID, panelText(mode, roleIDs, emojis))
	if err != nil {
		return "", apperrors.TransportError("posting panel message", err)
	}

	for _, emoji := range emojis {
		if err := s.channel.AddReaction(ctx, channelID, messageID, emoji); err != nil {
			slog.WarnContext(ctx, "Seeding panel reaction failed",
				"message_id", messageID, "emoji", emoji, "error", err)
		}
	}

	if err := s.panels.Track(messageID, mode); err != nil {
		// The panel message exists but was never recorded; take it
		// back down so reactions on it stay inert.
		if delErr := s.channel.Delete(ctx, channelID, messageID); delErr != nil {
			slog.ErrorContext(ctx, "Failed to delete orphaned panel message",
				"message_id", messageID, "error", delErr)
		}
		return "", err
	}

	slog.InfoContext(ctx, "Panel created", "message_id", messageID, "mode", string(mode), "roles", len(roleIDs))
	return messageID, nil
}

func panelText(mode domain.PanelMode, roleIDs, emojis []string) string {
	var b strings.Builder
	b.WriteString("React to this message to choose your role:\n\n")
	for i, roleID := range roleIDs {
		fmt.Fprintf(&b, "| %s | <@&%s>\n", emojis[i], roleID)
	}
	if mode == domain.PanelModeCumulative {
		b.WriteString("\nCan select **multiple** roles.")
	} else {
		b.WriteString("\nCan select **only one** role.")
	}
	return b.String()
}

// --- Verification commands ---

// RequestVerification issues a code for the member's email claim and
// dispatches it by mail. The entry is committed before the mail goes
// out; a dispatch failure surfaces as a transport error and leaves the
// entry redeemable.
func (s *Service) RequestVerification(ctx context.Context, memberID, email string) error {
	code, err := s.codes.Issue(ctx, memberID, email)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Verification Code: %s", code)
	if err := s.email.Send(ctx, email, subject, verificationBody(code)); err != nil {
		return apperrors.TransportError("dispatching verification email", err).
			WithContext("member_id", memberID)
	}

	slog.InfoContext(ctx, "Verification code dispatched", "member_id", memberID)
	return nil
}

// RedeemCode redeems a verification code. On success the member's
// unverified role is swapped for the verified role.
func (s *Service) RedeemCode(ctx context.Context, memberID, code string) (verify.Outcome, error) {
	outcome, err := s.codes.Redeem(memberID, code)
	if err != nil || outcome != verify.OutcomeSuccess {
		return outcome, err
	}

	delta := domain.RoleDelta{
		Add:    []string{s.settings.VerifiedRoleID},
		Remove: []string{s.settings.UnverifiedRoleID},
	}
	if err := s.applyDelta(ctx, memberID, delta); err != nil {
		return outcome, err
	}

	slog.InfoContext(ctx, "Member verified", "member_id", memberID)
	return outcome, nil
}

func verificationBody(code string) string {
	return fmt.Sprintf(`Hello,

Your verification code is %s.

Use the code command with this code, and your role shall be updated.

This code is active for the next 30 minutes.

Remember, this is a noreply address.

Welcome aboard!
`, code)
}
