// Package statestore owns the authoritative in-memory state document
// and its durable serialization. All other components read and write
// through it; Mutate is the single point of serialization for the
// whole engine.
package statestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Aladore384/guildpulse/internal/domain"
	apperrors "github.com/Aladore384/guildpulse/internal/errors"
	"github.com/Aladore384/guildpulse/internal/metrics"
)

// Store holds the state document and persists it after every mutation.
type Store struct {
	mu    sync.Mutex
	path  string
	state *domain.State
}

// Open loads the state document from path, creating an empty document
// (and its file) when none exists yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		s.state = domain.NewState()
		if err := persist(path, s.state); err != nil {
			return nil, apperrors.PersistenceError("initializing data file", err).WithContext("path", path)
		}
	case err != nil:
		return nil, apperrors.PersistenceError("reading data file", err).WithContext("path", path)
	default:
		state := &domain.State{}
		if err := json.Unmarshal(raw, state); err != nil {
			return nil, apperrors.PersistenceError("decoding data file", err).WithContext("path", path)
		}
		state.Normalize()
		s.state = state
	}

	return s, nil
}

// Snapshot returns a deep copy of the current state for read-only
// callers. The copy never observes later mutations.
func (s *Store) Snapshot() *domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Mutate applies fn to a copy of the state, persists the result, and
// swaps it in as the new authoritative state. Mutations are serialized
// with respect to each other. If fn returns an error the state is
// untouched; if the durable write fails the in-memory state rolls back
// to the last persisted document and a persistence error is returned.
func (s *Store) Mutate(fn func(*domain.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if err := fn(next); err != nil {
		return err
	}

	if err := persist(s.path, next); err != nil {
		metrics.PersistenceFailures.Inc()
		return apperrors.PersistenceError("persisting state", err).WithContext("path", s.path)
	}

	s.state = next
	return nil
}

// persist writes the document with write-temp-then-replace discipline:
// a crash mid-write leaves the previous file intact.
func persist(path string, state *domain.State) error {
	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	raw = append(raw, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".guildpulse-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing data file: %w", err)
	}
	return nil
}
