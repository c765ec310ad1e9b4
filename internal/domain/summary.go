package domain

import "sort"

// Standing is a player's final position. Equal scores share a rank.
type Standing struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	IsAI     bool   `json:"is_ai"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

// GameSummary is the record of a finished game.
type GameSummary struct {
	GameID    string        `json:"game_id"`
	Standings []Standing    `json:"standings"`
	Rounds    []RoundResult `json:"rounds"`
}

// Standings ranks seated players by score, highest first. Ties share the
// better rank and the next rank is skipped (1, 1, 3).
func Standings(g *Game) []Standing {
	out := make([]Standing, 0, PlayerCount)
	for seat, p := range g.Seats {
		if p == nil {
			continue
		}
		out = append(out, Standing{Seat: seat, PlayerID: p.ID, Name: p.Name, IsAI: p.IsAI, Score: p.Score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Seat < out[j].Seat
	})
	for i := range out {
		if i > 0 && out[i].Score == out[i-1].Score {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

// BuildSummary returns standings and per-round results of a completed game.
func BuildSummary(g *Game) (GameSummary, error) {
	if g.Phase != GamePhaseComplete {
		return GameSummary{}, ErrGameNotComplete
	}
	rounds := make([]RoundResult, len(g.History))
	for i, h := range g.History {
		h.Scores = append([]RoundScore(nil), h.Scores...)
		rounds[i] = h
	}
	return GameSummary{
		GameID:    g.ID,
		Standings: Standings(g),
		Rounds:    rounds,
	}, nil
}
