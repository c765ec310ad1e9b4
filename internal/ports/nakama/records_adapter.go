package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"whist/internal/bot"
	"whist/internal/domain"
	"whist/internal/ports"
)

// NakamaRecordAdapter keeps player records and per-game results in Nakama
// storage. Players may read their own objects; only the server writes them.
type NakamaRecordAdapter struct {
	nk  StorageAPI
	now func() time.Time
}

// NewNakamaRecordAdapter creates a new record adapter.
func NewNakamaRecordAdapter(nk StorageAPI) *NakamaRecordAdapter {
	return &NakamaRecordAdapter{nk: nk, now: time.Now}
}

// CreateRecordOnce writes an empty record unless the player already has one.
func (a *NakamaRecordAdapter) CreateRecordOnce(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, fmt.Errorf("userID is required")
	}
	value, err := json.Marshal(ports.PlayerRecord{})
	if err != nil {
		return false, fmt.Errorf("failed to marshal record: %w", err)
	}
	_, err = a.nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      recordsCollection,
			Key:             recordKey,
			UserID:          userID,
			Value:           string(value),
			Version:         "*",
			PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	})
	if err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create record: %w", err)
	}
	return true, nil
}

// GetRecord returns the stored record, or a zero record if none exists.
func (a *NakamaRecordAdapter) GetRecord(ctx context.Context, userID string) (ports.PlayerRecord, error) {
	rec, _, err := a.readRecord(ctx, userID)
	return rec, err
}

func (a *NakamaRecordAdapter) readRecord(ctx context.Context, userID string) (ports.PlayerRecord, string, error) {
	var rec ports.PlayerRecord
	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: recordsCollection, Key: recordKey, UserID: userID},
	})
	if err != nil {
		return rec, "", fmt.Errorf("failed to read record for %s: %w", userID, err)
	}
	if len(objects) == 0 {
		return rec, "", nil
	}
	if err := json.Unmarshal([]byte(objects[0].GetValue()), &rec); err != nil {
		return rec, "", fmt.Errorf("failed to unmarshal record for %s: %w", userID, err)
	}
	return rec, objects[0].GetVersion(), nil
}

type gameResult struct {
	GameID     string            `json:"game_id"`
	Seat       int               `json:"seat"`
	Score      int               `json:"score"`
	Rank       int               `json:"rank"`
	Standings  []domain.Standing `json:"standings"`
	FinishedAt string            `json:"finished_at"`
}

// RecordResults stores each human player's result for the game and folds it
// into their record. AI seats are skipped.
func (a *NakamaRecordAdapter) RecordResults(ctx context.Context, summary domain.GameSummary) error {
	var errs []error
	for _, s := range summary.Standings {
		if s.IsAI || bot.IsBot(s.PlayerID) {
			continue
		}
		if err := a.recordOne(ctx, summary, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *NakamaRecordAdapter) recordOne(ctx context.Context, summary domain.GameSummary, s domain.Standing) error {
	rec, version, err := a.readRecord(ctx, s.PlayerID)
	if err != nil {
		return err
	}
	if rec.LastGameID == summary.GameID {
		return nil
	}
	rec.Apply(summary.GameID, s)
	if version == "" {
		version = "*"
	}

	recValue, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record for %s: %w", s.PlayerID, err)
	}
	resValue, err := json.Marshal(gameResult{
		GameID:     summary.GameID,
		Seat:       s.Seat,
		Score:      s.Score,
		Rank:       s.Rank,
		Standings:  summary.Standings,
		FinishedAt: a.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal result for %s: %w", s.PlayerID, err)
	}

	_, err = a.nk.StorageWrite(ctx, []*runtime.StorageWrite{
		{
			Collection:      recordsCollection,
			Key:             recordKey,
			UserID:          s.PlayerID,
			Value:           string(recValue),
			Version:         version,
			PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
		{
			Collection:      resultsCollection,
			Key:             summary.GameID,
			UserID:          s.PlayerID,
			Value:           string(resValue),
			PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write results for %s: %w", s.PlayerID, err)
	}
	return nil
}

var (
	_ ports.RecordPort  = (*NakamaRecordAdapter)(nil)
	_ ports.ResultsPort = (*NakamaRecordAdapter)(nil)
)
