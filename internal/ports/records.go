package ports

import (
	"context"

	"whist/internal/domain"
)

// PlayerRecord is a player's lifetime tally across finished games.
type PlayerRecord struct {
	GamesPlayed int    `json:"games_played"`
	Wins        int    `json:"wins"`
	TotalPoints int    `json:"total_points"`
	BestScore   int    `json:"best_score"`
	LastGameID  string `json:"last_game_id,omitempty"`
}

// Apply folds one final standing into the record. A shared first place counts
// as a win.
func (r *PlayerRecord) Apply(gameID string, s domain.Standing) {
	if r.GamesPlayed == 0 || s.Score > r.BestScore {
		r.BestScore = s.Score
	}
	r.GamesPlayed++
	r.TotalPoints += s.Score
	if s.Rank == 1 {
		r.Wins++
	}
	r.LastGameID = gameID
}

// RecordPort stores player records.
type RecordPort interface {
	// CreateRecordOnce writes an empty record. It returns false without error
	// when the player already has one.
	CreateRecordOnce(ctx context.Context, userID string) (bool, error)
	// GetRecord returns the player's record, or a zero record if none exists.
	GetRecord(ctx context.Context, userID string) (PlayerRecord, error)
}
