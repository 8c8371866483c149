package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aladore384/guildpulse/internal/domain"
)

func TestHandleEvent_MessageRewardsAndPromotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Four messages at 10 points each stay below the threshold of 50.
	for i := 0; i < 4; i++ {
		require.NoError(t, f.service.HandleEvent(ctx, domain.MessageReceived{AuthorID: "alice"}))
	}
	assert.Equal(t, 40, f.service.GetScore("alice"))
	assert.True(t, f.roles.has("alice", "passive"))
	assert.False(t, f.roles.has("alice", "active"))

	// The fifth message crosses the threshold and swaps the tier roles.
	require.NoError(t, f.service.HandleEvent(ctx, domain.MessageReceived{AuthorID: "alice"}))
	assert.Equal(t, 50, f.service.GetScore("alice"))
	assert.True(t, f.roles.has("alice", "active"))
	assert.False(t, f.roles.has("alice", "passive"))
}

func TestHandleEvent_MessageFromBotIsIgnored(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.service.HandleEvent(context.Background(), domain.MessageReceived{AuthorID: "bot"}))

	assert.Equal(t, 0, f.service.GetScore("bot"))
	assert.Empty(t, f.roles.callLog())
}

func TestHandleEvent_TierSwapRemovesBeforeAdding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.roles.Grant(ctx, "alice", "passive"))
	require.NoError(t, f.service.SetScore(ctx, "alice", 80))

	calls := f.roles.callLog()
	require.Len(t, calls, 3) // seed grant, revoke passive, grant active
	assert.Equal(t, roleCall{Op: "revoke", MemberID: "alice", RoleID: "passive"}, calls[1])
	assert.Equal(t, roleCall{Op: "grant", MemberID: "alice", RoleID: "active"}, calls[2])
}

func TestHandleEvent_PanelReactionGrantsRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.links.Link("r-gold", "🥇"))
	require.NoError(t, f.panels.Track("panel-1", domain.PanelModeExclusive))

	ev := domain.ReactionAdded{ChannelID: "c1", MessageID: "panel-1", Emoji: "🥇", MemberID: "alice"}
	require.NoError(t, f.service.HandleEvent(ctx, ev))

	assert.True(t, f.roles.has("alice", "r-gold"))
	assert.Empty(t, f.channel.removed)
}

func TestHandleEvent_DuplicateExclusiveReactionIsStripped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.links.Link("r-gold", "🥇"))
	require.NoError(t, f.panels.Track("panel-1", domain.PanelModeExclusive))
	require.NoError(t, f.roles.Grant(ctx, "alice", "r-gold"))

	ev := domain.ReactionAdded{ChannelID: "c1", MessageID: "panel-1", Emoji: "🥇", MemberID: "alice"}
	require.NoError(t, f.service.HandleEvent(ctx, ev))

	require.Len(t, f.channel.removed, 1)
	assert.Equal(t, removedReaction{MessageID: "panel-1", Emoji: "🥇", MemberID: "alice"}, f.channel.removed[0])
	// Only the seed grant happened; the reaction produced no role call.
	assert.Len(t, f.roles.callLog(), 1)
}

func TestHandleEvent_ReactionOnUntrackedMessageIsInert(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.links.Link("r-gold", "🥇"))

	ev := domain.ReactionAdded{ChannelID: "c1", MessageID: "plain-msg", Emoji: "🥇", MemberID: "alice"}
	require.NoError(t, f.service.HandleEvent(context.Background(), ev))

	assert.Empty(t, f.roles.callLog())
	assert.Empty(t, f.channel.removed)
}

func TestHandleEvent_BotReactionIsIgnored(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.links.Link("r-gold", "🥇"))
	require.NoError(t, f.panels.Track("panel-1", domain.PanelModeExclusive))

	ev := domain.ReactionAdded{ChannelID: "c1", MessageID: "panel-1", Emoji: "🥇", MemberID: "bot"}
	require.NoError(t, f.service.HandleEvent(context.Background(), ev))

	assert.Empty(t, f.roles.callLog())
}

func TestHandleEvent_ReactionRemovalRevokesRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.links.Link("r-gold", "🥇"))
	require.NoError(t, f.panels.Track("panel-1", domain.PanelModeCumulative))
	require.NoError(t, f.roles.Grant(ctx, "alice", "r-gold"))

	ev := domain.ReactionRemoved{ChannelID: "c1", MessageID: "panel-1", Emoji: "🥇", MemberID: "alice"}
	require.NoError(t, f.service.HandleEvent(ctx, ev))

	assert.False(t, f.roles.has("alice", "r-gold"))
}

func TestHandleEvent_MessageDeletedUntracksPanel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.links.Link("r-gold", "🥇"))
	require.NoError(t, f.panels.Track("panel-1", domain.PanelModeExclusive))
	require.NoError(t, f.roles.Grant(ctx, "alice", "r-gold"))

	require.NoError(t, f.service.HandleEvent(ctx, domain.MessageDeleted{MessageID: "panel-1"}))

	assert.Empty(t, f.panels.Panels())
	// Tearing down the panel does not touch roles granted through it.
	assert.True(t, f.roles.has("alice", "r-gold"))

	// Reactions on the former panel are now inert.
	ev := domain.ReactionAdded{ChannelID: "c1", MessageID: "panel-1", Emoji: "🥇", MemberID: "bob"}
	require.NoError(t, f.service.HandleEvent(ctx, ev))
	assert.False(t, f.roles.has("bob", "r-gold"))
}

func TestHandleEvent_BulkDeleteUntracksAllPanels(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.links.Link("r-gold", "🥇"))
	require.NoError(t, f.panels.Track("panel-1", domain.PanelModeExclusive))
	require.NoError(t, f.panels.Track("panel-2", domain.PanelModeCumulative))

	ev := domain.MessagesBulkDeleted{MessageIDs: []string{"panel-1", "panel-2", "unrelated"}}
	require.NoError(t, f.service.HandleEvent(context.Background(), ev))

	assert.Empty(t, f.panels.Panels())
}

func TestHandleEvent_MemberJoinedGrantsAutorolesAndLogs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.AddAutorole("unverified"))
	require.NoError(t, f.service.AddAutorole("newcomer"))

	require.NoError(t, f.service.HandleEvent(ctx, domain.MemberJoined{MemberID: "carol"}))

	assert.True(t, f.roles.has("carol", "unverified"))
	assert.True(t, f.roles.has("carol", "newcomer"))

	require.Len(t, f.channel.sent, 1)
	assert.Equal(t, "joinlog", f.channel.sent[0].ChannelID)
	assert.Contains(t, f.channel.sent[0].Text, "carol")
}

func TestHandleEvent_MemberJoinedWithoutAutoroles(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.service.HandleEvent(context.Background(), domain.MemberJoined{MemberID: "carol"}))

	assert.Empty(t, f.roles.callLog())
	require.Len(t, f.channel.sent, 1)
}

func TestHandleEvent_JoinlogFailureDoesNotFailJoin(t *testing.T) {
	f := newFixture(t)
	f.channel.sendErr = assert.AnError

	require.NoError(t, f.service.AddAutorole("unverified"))
	require.NoError(t, f.service.HandleEvent(context.Background(), domain.MemberJoined{MemberID: "carol"}))

	assert.True(t, f.roles.has("carol", "unverified"))
}
