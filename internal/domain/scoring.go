package domain

// RoundScore is one seat's result for a single round.
type RoundScore struct {
	Seat      int  `json:"seat"`
	Bid       int  `json:"bid"`
	TricksWon int  `json:"tricks_won"`
	Points    int  `json:"points"`
	Bonus     bool `json:"bonus"`
}

// RoundPoints scores one trick for every trick won, plus ExactBidBonus when the
// bid was met exactly.
func RoundPoints(bid, tricksWon int) (points int, bonus bool) {
	points = tricksWon
	if tricksWon == bid {
		points += ExactBidBonus
		bonus = true
	}
	return points, bonus
}

// TricksWon counts sealed tricks per seat.
func TricksWon(tricks []Trick) [PlayerCount]int {
	var won [PlayerCount]int
	for _, t := range tricks {
		if t.Winner >= 0 && t.Winner < PlayerCount {
			won[t.Winner]++
		}
	}
	return won
}

// ScoreRound computes every seat's score from the round's bids and sealed tricks.
func ScoreRound(bids []Bid, tricks []Trick) []RoundScore {
	won := TricksWon(tricks)
	scores := make([]RoundScore, PlayerCount)
	for seat := range scores {
		scores[seat] = RoundScore{Seat: seat, TricksWon: won[seat]}
	}
	for _, b := range bids {
		if b.Seat >= 0 && b.Seat < PlayerCount {
			scores[b.Seat].Bid = b.Value
		}
	}
	for seat := range scores {
		scores[seat].Points, scores[seat].Bonus = RoundPoints(scores[seat].Bid, scores[seat].TricksWon)
	}
	return scores
}
