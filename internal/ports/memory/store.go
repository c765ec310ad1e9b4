package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"whist/internal/domain"
	"whist/internal/ports"
)

// Store is an in-process ports.GameStore. Games are kept as JSON so callers
// never share memory with what was saved.
type Store struct {
	mu    sync.RWMutex
	games map[string][]byte
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{games: make(map[string][]byte)}
}

func (s *Store) Save(ctx context.Context, game *domain.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to marshal game %s: %w", game.ID, err)
	}
	s.mu.Lock()
	s.games[game.ID] = data
	s.mu.Unlock()
	return nil
}

func (s *Store) Load(ctx context.Context, id string) (*domain.Game, error) {
	s.mu.RLock()
	data, ok := s.games[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ports.ErrNotFound
	}
	var g domain.Game
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game %s: %w", id, err)
	}
	return &g, nil
}

// Len reports how many games are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// Results collects game summaries in memory.
type Results struct {
	mu        sync.Mutex
	summaries []domain.GameSummary
}

func (r *Results) RecordResults(ctx context.Context, summary domain.GameSummary) error {
	r.mu.Lock()
	r.summaries = append(r.summaries, summary)
	r.mu.Unlock()
	return nil
}

// Summaries returns a copy of everything recorded so far.
func (r *Results) Summaries() []domain.GameSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.GameSummary(nil), r.summaries...)
}
