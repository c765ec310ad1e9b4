package ports

import (
	"context"
	"errors"

	"whist/internal/domain"
)

// ErrNotFound is returned by GameStore.Load when no game is stored under the id.
var ErrNotFound = errors.New("game not found in store")

// GameStore persists committed game state. Save is called after every
// committed mutation; Load restores a game after a restart.
type GameStore interface {
	// Save writes the full game state, replacing any previous version.
	Save(ctx context.Context, game *domain.Game) error
	// Load reads a game by id. Returns ErrNotFound if absent.
	Load(ctx context.Context, id string) (*domain.Game, error)
}
