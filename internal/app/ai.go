package app

import (
	"fmt"

	"whist/internal/bot"
	"whist/internal/domain"
)

// driveAI lets AI seats act until a human must move or the game ends. A
// rejected decision is replaced by the first legal alternative.
func (s *Service) driveAI(e *entry, g *domain.Game) ([]Event, error) {
	var events []Event
	for i := 0; i < maxAIMoves; i++ {
		seat := g.TurnSeat()
		if seat < 0 {
			return events, nil
		}
		p := g.Seats[seat]
		if !p.IsAI {
			return events, nil
		}

		agent := s.agentFor(e, g, p)
		view := domain.BuildView(g, p.ID)
		move, err := agent.Decide(view)
		var evs []Event
		if err == nil {
			evs, err = applyMove(g, p.ID, move)
		}
		if err != nil {
			s.logger.Warn("Bot %s in game %s: %v, using fallback", p.ID, g.ID, err)
			move, ferr := bot.FallbackMove(view)
			if ferr != nil {
				return nil, fmt.Errorf("%w: no fallback for %s: %v", domain.ErrInvariant, p.ID, ferr)
			}
			if evs, err = applyMove(g, p.ID, move); err != nil {
				return nil, fmt.Errorf("%w: fallback %+v rejected: %v", domain.ErrInvariant, move, err)
			}
		}
		events = append(events, evs...)
	}
	return nil, fmt.Errorf("%w: AI did not yield after %d moves", domain.ErrInvariant, maxAIMoves)
}

func applyMove(g *domain.Game, playerID string, m bot.Move) ([]Event, error) {
	switch m.Kind {
	case bot.MoveBid:
		return applyBid(g, playerID, m.Bid)
	case bot.MoveTrump:
		return applyTrump(g, playerID, m.Trump)
	case bot.MovePlay:
		return applyPlay(g, playerID, m.Card)
	}
	return nil, fmt.Errorf("unknown move kind %q", m.Kind)
}

// agentFor returns the seat's agent, building it on first use. Games restored
// from storage rebuild their agents here.
func (s *Service) agentFor(e *entry, g *domain.Game, p *domain.Player) *bot.Agent {
	if a, ok := e.agents[p.ID]; ok {
		return a
	}
	seed := g.Options.Seed + int64(p.Seat)
	level, err := bot.ParseLevel(p.AILevel, bot.Level(s.botLevel))
	var a *bot.Agent
	if err == nil {
		a, err = bot.NewAgent(p.ID, p.Name, level, seed)
	}
	if err != nil {
		s.logger.Warn("Bot %s: %v, falling back to %s", p.ID, err, bot.LevelGood)
		a, _ = bot.NewAgent(p.ID, p.Name, bot.LevelGood, seed)
	}
	e.agents[p.ID] = a
	return a
}

func closeAgent(a *bot.Agent) {
	if c, ok := a.Strategy.(interface{ Close() }); ok {
		c.Close()
	}
}
