// Package store persists protocols, memories and conversation history under
// three fixed keys. Reads fall back to the seed defaults when a key is absent
// or its value cannot be parsed.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mrsingh-rishi/brahmastra/logger"
	"github.com/mrsingh-rishi/brahmastra/model"
)

const (
	KeyProtocols = "brahmastra_protocols"
	KeyMemories  = "brahmastra_memories"
	KeyHistory   = "brahmastra_history"
)

var ErrNotFound = errors.New("key not found")

// Backend is a string-keyed, string-valued durable slot store.
type Backend interface {
	// Get returns ErrNotFound when key has never been written.
	Get(ctx context.Context, key string) (string, error)
	// SetMany writes all values as one unit.
	SetMany(ctx context.Context, values map[string]string) error
}

// DefaultMemories are seeded when no memories have been stored yet.
func DefaultMemories() []string {
	return []string{"Boss prefers Hinglish interaction.", "Admin access granted."}
}

// DefaultProtocols are seeded when no protocols have been stored yet.
func DefaultProtocols() []model.Protocol {
	return []model.Protocol{
		{ID: "1", Phrase: "Initiate Red Protocol", Action: "Set all systems to maximum alert and scan local perimeter."},
		{ID: "2", Phrase: "Dharma Check", Action: "Quote a relevant shloka from Bhagavad Gita for the current situation."},
	}
}

// Defaults is the state of a fresh install.
func Defaults() model.PersistedState {
	return model.PersistedState{
		Protocols: DefaultProtocols(),
		Memories:  DefaultMemories(),
		History:   []model.ConversationTurn{},
	}
}

type Store struct {
	backend Backend
}

func New(backend Backend) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	return &Store{backend: backend}, nil
}

// Load reads the three collections. The returned state is always usable:
// missing or malformed collections are replaced by their defaults, and any
// backend error is returned alongside the fallback state.
func (s *Store) Load(ctx context.Context) (model.PersistedState, error) {
	state := Defaults()
	errs := []error{
		loadInto(ctx, s.backend, KeyProtocols, &state.Protocols, DefaultProtocols),
		loadInto(ctx, s.backend, KeyMemories, &state.Memories, DefaultMemories),
		loadInto(ctx, s.backend, KeyHistory, &state.History, func() []model.ConversationTurn { return []model.ConversationTurn{} }),
	}
	return state, errors.Join(errs...)
}

func loadInto[T any](ctx context.Context, backend Backend, key string, dst *[]T, fallback func() []T) error {
	raw, err := backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}

	var v []T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		logger.Warn("Stored collection is malformed, using defaults", "key", key, "error", err)
		*dst = fallback()
		return nil
	}
	*dst = nonNil(v)
	return nil
}

// Save serializes all three collections and writes them together.
func (s *Store) Save(ctx context.Context, state model.PersistedState) error {
	values := make(map[string]string, 3)
	for key, v := range map[string]any{
		KeyProtocols: nonNil(state.Protocols),
		KeyMemories:  nonNil(state.Memories),
		KeyHistory:   nonNil(state.History),
	} {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", key, err)
		}
		values[key] = string(data)
	}

	if err := s.backend.SetMany(ctx, values); err != nil {
		return fmt.Errorf("failed to persist state: %w", err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
