// Package reactrole implements emoji-to-role bindings and the
// reaction panels that turn member reactions into role grants.
package reactrole

import (
	"fmt"

	"github.com/Aladore384/guildpulse/internal/domain"
	apperrors "github.com/Aladore384/guildpulse/internal/errors"
	"github.com/Aladore384/guildpulse/internal/statestore"
)

// Registry maintains the bijection between roles and emojis.
type Registry struct {
	store *statestore.Store
}

// NewRegistry creates a reaction link registry backed by store.
func NewRegistry(store *statestore.Store) *Registry {
	return &Registry{store: store}
}

// Link binds roleID to emoji. It fails with a conflict error when
// either side is already bound, preserving the bijection.
func (r *Registry) Link(roleID, emoji string) error {
	return r.store.Mutate(func(s *domain.State) error {
		for _, l := range s.ReactLinks {
			if l.RoleID == roleID || l.Emoji == emoji {
				return apperrors.ConflictError("role or emoji already linked").
					WithContext("role_id", roleID).
					WithContext("emoji", emoji)
			}
		}
		s.ReactLinks = append(s.ReactLinks, domain.ReactionLink{RoleID: roleID, Emoji: emoji})
		return nil
	})
}

// Unlink removes the binding for roleID, freeing both the role and its
// emoji for new links.
func (r *Registry) Unlink(roleID string) error {
	return r.store.Mutate(func(s *domain.State) error {
		for i, l := range s.ReactLinks {
			if l.RoleID == roleID {
				s.ReactLinks = append(s.ReactLinks[:i], s.ReactLinks[i+1:]...)
				return nil
			}
		}
		return apperrors.NotFoundError("reaction link not found").WithContext("role_id", roleID)
	})
}

// Clear removes every link.
func (r *Registry) Clear() error {
	return r.store.Mutate(func(s *domain.State) error {
		s.ReactLinks = []domain.ReactionLink{}
		return nil
	})
}

// Resolve returns the role bound to emoji, if any.
func (r *Registry) Resolve(emoji string) (string, bool) {
	return r.store.Snapshot().ResolveEmoji(emoji)
}

// EmojiFor returns the emoji bound to roleID, if any.
func (r *Registry) EmojiFor(roleID string) (string, bool) {
	return r.store.Snapshot().EmojiFor(roleID)
}

// List returns all links in the order they were created.
func (r *Registry) List() []domain.ReactionLink {
	return r.store.Snapshot().ReactLinks
}

// EmojisFor maps each of the given roles to its bound emoji, in input
// order. It fails if any role has no link; panels must only carry
// resolvable roles.
func (r *Registry) EmojisFor(roleIDs []string) ([]string, error) {
	s := r.store.Snapshot()
	emojis := make([]string, len(roleIDs))
	for i, roleID := range roleIDs {
		emoji, ok := s.EmojiFor(roleID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrRoleNotLinked, roleID)
		}
		emojis[i] = emoji
	}
	return emojis, nil
}
