// Package dryrun provides in-process implementations of the platform
// collaborators. The real chat-platform gateway lives outside this
// repository; these adapters let the engine run standalone for local
// development, logging every side effect instead of calling a
// platform and tracking role holdings in memory.
package dryrun

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// RoleDirectory tracks role holdings in memory.
type RoleDirectory struct {
	mu       sync.Mutex
	holdings map[string]map[string]bool // memberID -> roleID -> held
}

// NewRoleDirectory creates an empty in-memory role directory.
func NewRoleDirectory() *RoleDirectory {
	return &RoleDirectory{holdings: make(map[string]map[string]bool)}
}

func (d *RoleDirectory) HasRole(_ context.Context, memberID, roleID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.holdings[memberID][roleID], nil
}

func (d *RoleDirectory) Grant(_ context.Context, memberID, roleID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.holdings[memberID] == nil {
		d.holdings[memberID] = make(map[string]bool)
	}
	d.holdings[memberID][roleID] = true
	slog.Info("dryrun: role granted", "member_id", memberID, "role_id", roleID)
	return nil
}

func (d *RoleDirectory) Revoke(_ context.Context, memberID, roleID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.holdings[memberID], roleID)
	slog.Info("dryrun: role revoked", "member_id", memberID, "role_id", roleID)
	return nil
}

// MessageChannel logs sends and fabricates message IDs.
type MessageChannel struct{}

// NewMessageChannel creates a logging message channel.
func NewMessageChannel() *MessageChannel {
	return &MessageChannel{}
}

func (c *MessageChannel) Send(_ context.Context, channelID, text string) (string, error) {
	id := uuid.NewString()
	slog.Info("dryrun: message sent", "channel_id", channelID, "message_id", id, "text", text)
	return id, nil
}

func (c *MessageChannel) Delete(_ context.Context, channelID, messageID string) error {
	slog.Info("dryrun: message deleted", "channel_id", channelID, "message_id", messageID)
	return nil
}

func (c *MessageChannel) AddReaction(_ context.Context, channelID, messageID, emoji string) error {
	slog.Info("dryrun: reaction added", "channel_id", channelID, "message_id", messageID, "emoji", emoji)
	return nil
}

func (c *MessageChannel) RemoveReaction(_ context.Context, channelID, messageID, emoji, memberID string) error {
	slog.Info("dryrun: reaction removed", "channel_id", channelID, "message_id", messageID, "emoji", emoji, "member_id", memberID)
	return nil
}

// EmailDispatcher logs mail instead of sending it.
type EmailDispatcher struct{}

// NewEmailDispatcher creates a logging email dispatcher.
func NewEmailDispatcher() *EmailDispatcher {
	return &EmailDispatcher{}
}

func (d *EmailDispatcher) Send(_ context.Context, to, subject, _ string) error {
	slog.Info("dryrun: email dispatched", "to", to, "subject", subject)
	return nil
}
