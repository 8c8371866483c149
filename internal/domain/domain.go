package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// --- Model types ---

// Tier classifies a member by engagement score.
type Tier int

const (
	TierPassive Tier = iota
	TierActive
)

func (t Tier) String() string {
	if t == TierActive {
		return "active"
	}
	return "passive"
}

// PanelMode governs whether reactions on a panel are meant to grant a
// single role or any number of them. The wire values match the data
// file of the original deployment.
type PanelMode string

const (
	PanelModeExclusive  PanelMode = "mono"
	PanelModeCumulative PanelMode = "multi"
)

// Valid reports whether m is a known panel mode.
func (m PanelMode) Valid() bool {
	return m == PanelModeExclusive || m == PanelModeCumulative
}

// MemberScore is the engagement score of a single member. Entries are
// created lazily on a member's first message and never deleted.
type MemberScore struct {
	MemberID string `json:"member_id"`
	Points   int    `json:"points"`
}

// ReactionLink binds an emoji to a role. The set of links is a
// bijection: a role appears in at most one link and so does an emoji.
type ReactionLink struct {
	RoleID string `json:"role_id"`
	Emoji  string `json:"emoji"`
}

// ReactionPanel is a live message whose reactions grant roles.
type ReactionPanel struct {
	MessageID string    `json:"message_id"`
	Mode      PanelMode `json:"mode"`
}

// VerificationEntry is a time-boxed code binding a member to an email
// claim. At most one live entry exists per member; a new issue
// overwrites the old one. IssuanceID distinguishes an entry from any
// later entry for the same member, so a stale expiry timer can detect
// that it no longer owns the slot.
type VerificationEntry struct {
	MemberID   string    `json:"member_id"`
	Email      string    `json:"email"`
	Code       string    `json:"code"`
	IssuanceID uuid.UUID `json:"issuance_id"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// RoleDelta is the minimal set of role changes to apply to a member.
type RoleDelta struct {
	Add    []string
	Remove []string
}

// Empty reports whether the delta carries no changes.
func (d RoleDelta) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// --- Persisted state document ---

// State is the single structured document holding all persistent
// entities. Every mutation rewrites the whole document atomically.
type State struct {
	Scores     []MemberScore                `json:"scores"`
	ReactLinks []ReactionLink               `json:"reactlinks"`
	Panels     []ReactionPanel              `json:"reactmessages"`
	Autoroles  []string                     `json:"autoroles"`
	Codes      map[string]VerificationEntry `json:"codes"`
	LastDaily  string                       `json:"last_daily"`
}

// NewState returns an empty state document with all collections
// allocated, so serialization is stable from the first write.
func NewState() *State {
	return &State{
		Scores:     []MemberScore{},
		ReactLinks: []ReactionLink{},
		Panels:     []ReactionPanel{},
		Autoroles:  []string{},
		Codes:      map[string]VerificationEntry{},
	}
}

// Normalize allocates any nil collections. Called after decoding a
// data file that may predate one of the sections.
func (s *State) Normalize() {
	if s.Scores == nil {
		s.Scores = []MemberScore{}
	}
	if s.ReactLinks == nil {
		s.ReactLinks = []ReactionLink{}
	}
	if s.Panels == nil {
		s.Panels = []ReactionPanel{}
	}
	if s.Autoroles == nil {
		s.Autoroles = []string{}
	}
	if s.Codes == nil {
		s.Codes = map[string]VerificationEntry{}
	}
}

// Clone returns a deep copy of the state document.
func (s *State) Clone() *State {
	c := &State{
		Scores:     make([]MemberScore, len(s.Scores)),
		ReactLinks: make([]ReactionLink, len(s.ReactLinks)),
		Panels:     make([]ReactionPanel, len(s.Panels)),
		Autoroles:  make([]string, len(s.Autoroles)),
		Codes:      make(map[string]VerificationEntry, len(s.Codes)),
		LastDaily:  s.LastDaily,
	}
	copy(c.Scores, s.Scores)
	copy(c.ReactLinks, s.ReactLinks)
	copy(c.Panels, s.Panels)
	copy(c.Autoroles, s.Autoroles)
	for k, v := range s.Codes {
		c.Codes[k] = v
	}
	return c
}

// FindScore returns the index of the score entry for memberID, or -1.
func (s *State) FindScore(memberID string) int {
	for i := range s.Scores {
		if s.Scores[i].MemberID == memberID {
			return i
		}
	}
	return -1
}

// FindPanel returns the panel for messageID, if tracked.
func (s *State) FindPanel(messageID string) (ReactionPanel, bool) {
	for _, p := range s.Panels {
		if p.MessageID == messageID {
			return p, true
		}
	}
	return ReactionPanel{}, false
}

// ResolveEmoji returns the role bound to emoji, if any.
func (s *State) ResolveEmoji(emoji string) (string, bool) {
	for _, l := range s.ReactLinks {
		if l.Emoji == emoji {
			return l.RoleID, true
		}
	}
	return "", false
}

// EmojiFor returns the emoji bound to roleID, if any.
func (s *State) EmojiFor(roleID string) (string, bool) {
	for _, l := range s.ReactLinks {
		if l.RoleID == roleID {
			return l.Emoji, true
		}
	}
	return "", false
}

// --- Collaborator interfaces ---

// RoleDirectory is the chat platform's role surface. Grant and Revoke
// report ErrForbidden when the bot lacks permission and ErrUnavailable
// on transport failure.
type RoleDirectory interface {
	HasRole(ctx context.Context, memberID, roleID string) (bool, error)
	Grant(ctx context.Context, memberID, roleID string) error
	Revoke(ctx context.Context, memberID, roleID string) error
}

// MessageChannel is the chat platform's messaging surface.
type MessageChannel interface {
	Send(ctx context.Context, channelID, text string) (messageID string, err error)
	Delete(ctx context.Context, channelID, messageID string) error
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	RemoveReaction(ctx context.Context, channelID, messageID, emoji, memberID string) error
}

// EmailDispatcher delivers outbound mail. Retry policy, if any,
// belongs to the implementation, never to the caller.
type EmailDispatcher interface {
	Send(ctx context.Context, to, subject, body string) error
}
