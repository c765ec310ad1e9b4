package domain

// PlayerView is the public face of a seated player.
type PlayerView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Seat        int    `json:"seat"`
	IsAI        bool   `json:"is_ai"`
	Ready       bool   `json:"ready"`
	Score       int    `json:"score"`
	CardsInHand int    `json:"cards_in_hand"`
	TricksWon   int    `json:"tricks_won"`
	Bid         *int   `json:"bid,omitempty"`
}

// GameView is what one viewer is allowed to see. Only the viewer's own hand
// and legal plays are included.
type GameView struct {
	GameID       string       `json:"game_id"`
	Phase        GamePhase    `json:"phase"`
	Version      int64        `json:"version"`
	ViewerSeat   int          `json:"viewer_seat"`
	Round        int          `json:"round"`
	TotalRounds  int          `json:"total_rounds"`
	CardsDealt   int          `json:"cards_dealt"`
	Dealer       int          `json:"dealer"`
	RoundPhase   RoundPhase   `json:"round_phase,omitempty"`
	Trump        Trump        `json:"trump,omitempty"`
	TrumpChooser int          `json:"trump_chooser"`
	TurnSeat     int          `json:"turn_seat"`
	Players      []PlayerView `json:"players"`
	Bids         []Bid        `json:"bids"`
	CurrentTrick *Trick       `json:"current_trick,omitempty"`
	Completed    []Trick      `json:"completed_tricks"`
	LastRound    *RoundResult `json:"last_round,omitempty"`
	Standings    []Standing   `json:"standings,omitempty"`

	Hand       []Card `json:"hand,omitempty"`
	LegalPlays []Card `json:"legal_plays,omitempty"`
}

// LedSuit returns the suit led in the current trick, if any.
func (v GameView) LedSuit() Suit {
	if v.CurrentTrick == nil {
		return 0
	}
	return v.CurrentTrick.LedSuit()
}

// MyTurn reports whether the viewer is expected to act.
func (v GameView) MyTurn() bool {
	return v.ViewerSeat >= 0 && v.ViewerSeat == v.TurnSeat
}

// BuildView renders g for viewerID. An unknown viewer sees only public state.
func BuildView(g *Game, viewerID string) GameView {
	v := GameView{
		GameID:       g.ID,
		Phase:        g.Phase,
		Version:      g.Version,
		ViewerSeat:   -1,
		TotalRounds:  TotalRounds,
		Dealer:       -1,
		TrumpChooser: -1,
		TurnSeat:     g.TurnSeat(),
		Players:      make([]PlayerView, 0, PlayerCount),
		Bids:         []Bid{},
		Completed:    []Trick{},
	}

	var won [PlayerCount]int
	r := g.Round
	if r != nil {
		v.Round = r.Number
		v.CardsDealt = r.CardsDealt
		v.Dealer = r.Dealer
		v.RoundPhase = r.Phase
		v.Trump = r.Trump
		v.TrumpChooser = r.TrumpChooser
		v.Bids = append(v.Bids, r.Bids...)
		for _, t := range r.CompletedTricks() {
			t.Plays = append([]Play(nil), t.Plays...)
			v.Completed = append(v.Completed, t)
		}
		if t := r.CurrentTrick(); t != nil {
			cur := *t
			cur.Plays = append([]Play(nil), t.Plays...)
			v.CurrentTrick = &cur
		}
		won = TricksWon(r.Tricks)
	}

	for seat, p := range g.Seats {
		if p == nil {
			continue
		}
		pv := PlayerView{
			ID:          p.ID,
			Name:        p.Name,
			Seat:        seat,
			IsAI:        p.IsAI,
			Ready:       p.Ready,
			Score:       p.Score,
			CardsInHand: len(p.Hand),
			TricksWon:   won[seat],
		}
		if r != nil {
			if bid, ok := r.BidOf(seat); ok {
				b := bid
				pv.Bid = &b
			}
		}
		v.Players = append(v.Players, pv)

		if p.ID == viewerID {
			v.ViewerSeat = seat
			v.Hand = append([]Card(nil), p.Hand...)
		}
	}

	if len(g.History) > 0 {
		last := g.History[len(g.History)-1]
		last.Scores = append([]RoundScore(nil), last.Scores...)
		v.LastRound = &last
	}
	if g.Phase == GamePhaseComplete {
		v.Standings = Standings(g)
	}
	if v.ViewerSeat >= 0 && v.TurnSeat == v.ViewerSeat && r != nil && r.Phase == RoundPhasePlaying {
		v.LegalPlays = LegalPlays(v.Hand, v.LedSuit())
	}
	return v
}
