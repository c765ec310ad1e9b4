package bot

import (
	"errors"

	"whist/internal/domain"
)

// Level names an AI strategy.
type Level string

const (
	LevelGood   Level = "good"
	LevelSmart  Level = "smart"
	LevelRandom Level = "random"
	LevelScript Level = "script"
)

var (
	ErrNotMyTurn  = errors.New("bot asked to act out of turn")
	ErrNoDecision = errors.New("no decision available in this phase")
)

// MoveKind tells which field of a Move is meaningful.
type MoveKind string

const (
	MoveBid   MoveKind = "bid"
	MoveTrump MoveKind = "trump"
	MovePlay  MoveKind = "play"
)

// Move represents the decision made by the AI.
type Move struct {
	Kind  MoveKind
	Bid   int
	Trump domain.Trump
	Card  domain.Card
}

// Brain is the interface that all bot strategies must implement. Every call
// receives the bot's own player view; strategies never see other hands.
type Brain interface {
	ChooseBid(view domain.GameView) (int, error)
	ChooseTrump(view domain.GameView) (domain.Trump, error)
	ChoosePlay(view domain.GameView) (domain.Card, error)
}

// legalPlays returns the view's legal plays, computing them if the view omits them.
func legalPlays(v domain.GameView) []domain.Card {
	if len(v.LegalPlays) > 0 {
		return v.LegalPlays
	}
	return domain.LegalPlays(v.Hand, v.LedSuit())
}

// myStanding returns the bot's bid and tricks won so far this round.
func myStanding(v domain.GameView) (bid, won int, hasBid bool) {
	for _, p := range v.Players {
		if p.Seat != v.ViewerSeat {
			continue
		}
		won = p.TricksWon
		if p.Bid != nil {
			return *p.Bid, won, true
		}
	}
	return 0, won, false
}

// currentWinner returns the play currently winning the open trick.
func currentWinner(v domain.GameView) (domain.Play, bool) {
	if v.CurrentTrick == nil {
		return domain.Play{}, false
	}
	return domain.TrickWinner(v.CurrentTrick.Plays, v.Trump)
}

// wouldWin reports whether playing c now would take the lead of the open trick.
func wouldWin(v domain.GameView, c domain.Card) bool {
	w, ok := currentWinner(v)
	if !ok {
		return true
	}
	return domain.Beats(c, w.Card, v.Trump)
}

func clampBid(n, cardsDealt int) int {
	lo, hi := domain.LegalBidRange(cardsDealt)
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
