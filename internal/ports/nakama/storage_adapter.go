package nakama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"

	"whist/internal/domain"
	"whist/internal/ports"
)

// StorageAPI is the part of runtime.NakamaModule the storage adapters use.
type StorageAPI interface {
	StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error)
	StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error)
}

// NakamaGameStore implements ports.GameStore on Nakama storage. Games are
// system-owned objects that clients cannot read or write.
type NakamaGameStore struct {
	nk StorageAPI
}

// NewNakamaGameStore creates a new game store.
func NewNakamaGameStore(nk StorageAPI) *NakamaGameStore {
	return &NakamaGameStore{nk: nk}
}

func (s *NakamaGameStore) Save(ctx context.Context, game *domain.Game) error {
	value, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to marshal game %s: %w", game.ID, err)
	}
	_, err = s.nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      gamesCollection,
			Key:             game.ID,
			Value:           string(value),
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write game %s: %w", game.ID, err)
	}
	return nil
}

func (s *NakamaGameStore) Load(ctx context.Context, id string) (*domain.Game, error) {
	objects, err := s.nk.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: gamesCollection, Key: id},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read game %s: %w", id, err)
	}
	if len(objects) == 0 {
		return nil, ports.ErrNotFound
	}
	var g domain.Game
	if err := json.Unmarshal([]byte(objects[0].GetValue()), &g); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game %s: %w", id, err)
	}
	return &g, nil
}

var _ ports.GameStore = (*NakamaGameStore)(nil)
