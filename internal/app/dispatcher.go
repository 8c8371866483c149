package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Aladore384/guildpulse/internal/domain"
	"github.com/Aladore384/guildpulse/internal/metrics"
	"github.com/Aladore384/guildpulse/internal/platform/correlation"
)

// HandleEvent is the single dispatch point for inbound platform
// events. Each variant routes to exactly one handler; the handler
// commits its state mutation first and only then applies side effects.
// A persistence error aborts the handler before any side effect runs.
func (s *Service) HandleEvent(ctx context.Context, ev domain.Event) error {
	ctx = correlation.WithID(ctx, correlation.NewID())

	var err error
	switch e := ev.(type) {
	case domain.MessageReceived:
		err = s.onMessageReceived(ctx, e)
	case domain.ReactionAdded:
		err = s.onReactionAdded(ctx, e)
	case domain.ReactionRemoved:
		err = s.onReactionRemoved(ctx, e)
	case domain.MessageDeleted:
		err = s.panels.Untrack(e.MessageID)
	case domain.MessagesBulkDeleted:
		err = s.panels.UntrackBulk(e.MessageIDs)
	case domain.MemberJoined:
		err = s.onMemberJoined(ctx, e)
	default:
		err = fmt.Errorf("unhandled event type %T", ev)
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.EventsDispatched.WithLabelValues(eventName(ev), status).Inc()
	return err
}

func eventName(ev domain.Event) string {
	switch ev.(type) {
	case domain.MessageReceived:
		return "message_received"
	case domain.ReactionAdded:
		return "reaction_added"
	case domain.ReactionRemoved:
		return "reaction_removed"
	case domain.MessageDeleted:
		return "message_deleted"
	case domain.MessagesBulkDeleted:
		return "messages_bulk_deleted"
	case domain.MemberJoined:
		return "member_joined"
	default:
		return "unknown"
	}
}

// onMessageReceived rewards the author and reconciles their tier. The
// bot's own messages do not qualify.
func (s *Service) onMessageReceived(ctx context.Context, ev domain.MessageReceived) error {
	if ev.AuthorID == s.settings.BotUserID {
		return nil
	}

	points, err := s.scores.Reward(ev.AuthorID)
	if err != nil {
		return err
	}
	slog.DebugContext(ctx, "Message rewarded", "member_id", ev.AuthorID, "points", points)

	return s.ReconcileMember(ctx, ev.AuthorID)
}

func (s *Service) onReactionAdded(ctx context.Context, ev domain.ReactionAdded) error {
	if ev.MemberID == s.settings.BotUserID {
		return nil
	}

	outcome, err := s.panels.OnReactionAdded(ctx, ev)
	if err != nil {
		return err
	}

	if outcome.RemoveReaction {
		if err := s.channel.RemoveReaction(ctx, ev.ChannelID, ev.MessageID, ev.Emoji, ev.MemberID); err != nil {
			return err
		}
		slog.InfoContext(ctx, "Duplicate panel reaction stripped",
			"member_id", ev.MemberID, "message_id", ev.MessageID, "emoji", ev.Emoji)
		return nil
	}

	if outcome.GrantRole != "" {
		if err := s.applyDelta(ctx, ev.MemberID, domain.RoleDelta{Add: []string{outcome.GrantRole}}); err != nil {
			return err
		}
		slog.InfoContext(ctx, "Panel role granted",
			"member_id", ev.MemberID, "role_id", outcome.GrantRole, "message_id", ev.MessageID)
	}
	return nil
}

func (s *Service) onReactionRemoved(ctx context.Context, ev domain.ReactionRemoved) error {
	if ev.MemberID == s.settings.BotUserID {
		return nil
	}

	outcome := s.panels.OnReactionRemoved(ev)
	if outcome.RevokeRole == "" {
		return nil
	}

	if err := s.applyDelta(ctx, ev.MemberID, domain.RoleDelta{Remove: []string{outcome.RevokeRole}}); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Panel role revoked",
		"member_id", ev.MemberID, "role_id", outcome.RevokeRole, "message_id", ev.MessageID)
	return nil
}

// onMemberJoined grants every autorole and posts a join-log line.
func (s *Service) onMemberJoined(ctx context.Context, ev domain.MemberJoined) error {
	autoroles := s.store.Snapshot().Autoroles
	if len(autoroles) > 0 {
		if err := s.applyDelta(ctx, ev.MemberID, domain.RoleDelta{Add: autoroles}); err != nil {
			return err
		}
	}

	if s.settings.JoinlogChannelID != "" {
		text := fmt.Sprintf("<@%s> joined.", ev.MemberID)
		if _, err := s.channel.Send(ctx, s.settings.JoinlogChannelID, text); err != nil {
			// Transport-only failure, the member is already set up.
			slog.WarnContext(ctx, "Join log message failed", "member_id", ev.MemberID, "error", err)
		}
	}
	return nil
}
