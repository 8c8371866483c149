package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/Aladore384/guildpulse/internal/reactrole"
	"github.com/Aladore384/guildpulse/internal/score"
	"github.com/Aladore384/guildpulse/internal/statestore"
	"github.com/Aladore384/guildpulse/internal/tier"
	"github.com/Aladore384/guildpulse/internal/verify"
)

type roleCall struct {
	Op       string // "grant" or "revoke"
	MemberID string
	RoleID   string
}

type fakeRoles struct {
	mu       sync.Mutex
	held     map[string]map[string]bool
	calls    []roleCall
	grantErr error
}

func newFakeRoles() *fakeRoles {
	return &fakeRoles{held: make(map[string]map[string]bool)}
}

func (f *fakeRoles) HasRole(_ context.Context, memberID, roleID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.held[memberID][roleID], nil
}

func (f *fakeRoles) Grant(_ context.Context, memberID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.grantErr != nil {
		return f.grantErr
	}
	if f.held[memberID] == nil {
		f.held[memberID] = make(map[string]bool)
	}
	f.held[memberID][roleID] = true
	f.calls = append(f.calls, roleCall{Op: "grant", MemberID: memberID, RoleID: roleID})
	return nil
}

func (f *fakeRoles) Revoke(_ context.Context, memberID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held[memberID], roleID)
	f.calls = append(f.calls, roleCall{Op: "revoke", MemberID: memberID, RoleID: roleID})
	return nil
}

func (f *fakeRoles) has(memberID, roleID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.held[memberID][roleID]
}

func (f *fakeRoles) callLog() []roleCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]roleCall, len(f.calls))
	copy(out, f.calls)
	return out
}

type sentMessage struct {
	ChannelID string
	Text      string
	MessageID string
}

type removedReaction struct {
	MessageID string
	Emoji     string
	MemberID  string
}

type fakeChannel struct {
	mu        sync.Mutex
	nextID    int
	sent      []sentMessage
	reactions []string // emojis seeded, in order
	removed   []removedReaction
	deleted   []string
	sendErr   error
}

func (f *fakeChannel) Send(_ context.Context, channelID, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.nextID++
	id := fmt.Sprintf("msg-%d", f.nextID)
	f.sent = append(f.sent, sentMessage{ChannelID: channelID, Text: text, MessageID: id})
	return id, nil
}

func (f *fakeChannel) Delete(_ context.Context, _, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeChannel) AddReaction(_ context.Context, _, _, emoji string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, emoji)
	return nil
}

func (f *fakeChannel) RemoveReaction(_ context.Context, _, messageID, emoji, memberID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, removedReaction{MessageID: messageID, Emoji: emoji, MemberID: memberID})
	return nil
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeEmail struct {
	mu      sync.Mutex
	sent    []sentMail
	sendErr error
}

func (f *fakeEmail) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

type fixture struct {
	service *Service
	store   *statestore.Store
	scores  *score.Ledger
	links   *reactrole.Registry
	panels  *reactrole.PanelTracker
	codes   *verify.Ledger
	roles   *fakeRoles
	channel *fakeChannel
	email   *fakeEmail
	clock   *clockwork.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := statestore.Open(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err)

	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	roles := newFakeRoles()
	channel := &fakeChannel{}
	email := &fakeEmail{}

	scores := score.NewLedger(store, 10, 100)
	links := reactrole.NewRegistry(store)
	panels := reactrole.NewPanelTracker(store, links, roles)
	codes := verify.NewLedger(store, clock, roles, "verified", []string{"school.edu"})

	settings := Settings{
		BotUserID:      "bot",
		ScoreThreshold: 50,
		TierRoles: tier.Pair{
			ActiveRoleID:  "active",
			PassiveRoleID: "passive",
		},
		VerifiedRoleID:   "verified",
		UnverifiedRoleID: "unverified",
		JoinlogChannelID: "joinlog",
	}

	return &fixture{
		service: NewService(settings, store, scores, links, panels, codes, roles, channel, email, clock),
		store:   store,
		scores:  scores,
		links:   links,
		panels:  panels,
		codes:   codes,
		roles:   roles,
		channel: channel,
		email:   email,
		clock:   clock,
	}
}
