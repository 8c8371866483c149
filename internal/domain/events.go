package domain

// Event is a tagged variant describing a single inbound occurrence
// from the chat platform. The dispatcher matches exhaustively on the
// concrete type; adding a variant without a dispatch arm is a bug.
type Event interface {
	isEvent()
}

// MessageReceived fires for every message posted in the guild.
type MessageReceived struct {
	MessageID string
	ChannelID string
	AuthorID  string
}

// ReactionAdded fires when a member adds a reaction to any message.
type ReactionAdded struct {
	MessageID string
	ChannelID string
	MemberID  string
	Emoji     string
}

// ReactionRemoved fires when a member removes a reaction.
type ReactionRemoved struct {
	MessageID string
	ChannelID string
	MemberID  string
	Emoji     string
}

// MessageDeleted fires when a single message is deleted.
type MessageDeleted struct {
	MessageID string
}

// MessagesBulkDeleted fires when messages are purged in bulk.
type MessagesBulkDeleted struct {
	MessageIDs []string
}

// MemberJoined fires when a member joins the guild.
type MemberJoined struct {
	MemberID string
}

func (MessageReceived) isEvent()     {}
func (ReactionAdded) isEvent()       {}
func (ReactionRemoved) isEvent()     {}
func (MessageDeleted) isEvent()      {}
func (MessagesBulkDeleted) isEvent() {}
func (MemberJoined) isEvent()        {}
