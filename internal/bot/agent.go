package bot

import (
	"fmt"

	"whist/internal/domain"
)

// Agent represents an autonomous bot player.
type Agent struct {
	ID       string
	Name     string
	Level    Level
	Strategy Brain
}

// NewAgent builds an agent with a fresh brain for level.
func NewAgent(id, name string, level Level, seed int64) (*Agent, error) {
	b, err := NewBrain(level, seed)
	if err != nil {
		return nil, err
	}
	return &Agent{ID: id, Name: name, Level: level, Strategy: b}, nil
}

// Decide asks the strategy for the move the view is waiting on.
func (a *Agent) Decide(view domain.GameView) (Move, error) {
	if !view.MyTurn() {
		return Move{}, ErrNotMyTurn
	}
	switch view.RoundPhase {
	case domain.RoundPhaseBidding:
		v, err := a.Strategy.ChooseBid(view)
		if err != nil {
			return Move{}, fmt.Errorf("bot %s bid: %w", a.ID, err)
		}
		return Move{Kind: MoveBid, Bid: v}, nil
	case domain.RoundPhaseTrumpSelection:
		t, err := a.Strategy.ChooseTrump(view)
		if err != nil {
			return Move{}, fmt.Errorf("bot %s trump: %w", a.ID, err)
		}
		return Move{Kind: MoveTrump, Trump: t}, nil
	case domain.RoundPhasePlaying:
		c, err := a.Strategy.ChoosePlay(view)
		if err != nil {
			return Move{}, fmt.Errorf("bot %s play: %w", a.ID, err)
		}
		return Move{Kind: MovePlay, Card: c}, nil
	}
	return Move{}, ErrNoDecision
}

// FallbackMove returns the first legal option for the view. It is used when a
// strategy fails or its choice is rejected.
func FallbackMove(view domain.GameView) (Move, error) {
	switch view.RoundPhase {
	case domain.RoundPhaseBidding:
		lo, _ := domain.LegalBidRange(view.CardsDealt)
		return Move{Kind: MoveBid, Bid: lo}, nil
	case domain.RoundPhaseTrumpSelection:
		return Move{Kind: MoveTrump, Trump: domain.Trumps[0]}, nil
	case domain.RoundPhasePlaying:
		legal := legalPlays(view)
		if len(legal) == 0 {
			return Move{}, ErrNoDecision
		}
		return Move{Kind: MovePlay, Card: legal[0]}, nil
	}
	return Move{}, ErrNoDecision
}
