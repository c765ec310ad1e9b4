package bot

import (
	"math"
	"sort"

	"whist/internal/bot/brain"
	"whist/internal/domain"
)

// SmartBot evaluates honours and suit length for bidding, and tracks played
// cards and revealed voids to decide when a card is safe to win with.
type SmartBot struct {
	Memory *brain.GameMemory
	tuning Tuning
}

func NewSmartBot(t Tuning) *SmartBot {
	return &SmartBot{Memory: brain.NewMemory(), tuning: t}
}

func suitCards(hand []domain.Card, s domain.Suit) []domain.Card {
	var out []domain.Card
	for _, c := range hand {
		if c.Suit == s {
			out = append(out, c)
		}
	}
	return out
}

// EstimateTricks is the expected number of tricks the hand takes.
func (b *SmartBot) EstimateTricks(hand []domain.Card) float64 {
	est := 0.0
	longest := 0
	for _, s := range domain.Suits {
		cards := suitCards(hand, s)
		if len(cards) > longest {
			longest = len(cards)
		}
		for _, c := range cards {
			switch {
			case c.Rank == domain.RankAce:
				est += b.tuning.AceValue
			case c.Rank == domain.RankKing && len(cards) >= 2:
				est += b.tuning.KingValue
			case c.Rank == domain.RankQueen && len(cards) >= 3:
				est += b.tuning.QueenValue
			}
		}
	}
	if extra := longest - b.tuning.LongSuitFrom; extra > 0 {
		est += float64(extra) * b.tuning.LongSuitValue
	}
	return est
}

func (b *SmartBot) ChooseBid(v domain.GameView) (int, error) {
	b.Memory.Observe(v)
	return clampBid(int(math.Round(b.EstimateTricks(v.Hand))), v.CardsDealt), nil
}

func honourPoints(cards []domain.Card) int {
	pts := 0
	for _, c := range cards {
		switch c.Rank {
		case domain.RankAce:
			pts += 4
		case domain.RankKing:
			pts += 3
		case domain.RankQueen:
			pts += 2
		case domain.RankJack:
			pts++
		}
	}
	return pts
}

func (b *SmartBot) ChooseTrump(v domain.GameView) (domain.Trump, error) {
	b.Memory.Observe(v)
	best, bestScore := domain.Suit(0), -1.0
	for _, s := range domain.Suits {
		cards := suitCards(v.Hand, s)
		score := float64(len(cards))*b.tuning.LengthWeight + float64(honourPoints(cards))*b.tuning.HonourWeight
		if score > bestScore {
			best, bestScore = s, score
		}
	}
	if bestScore < b.tuning.NoTrumpBelow {
		return domain.NoTrump, nil
	}
	return domain.TrumpOf(best), nil
}

// safe reports whether c should win the trick if led now.
func (b *SmartBot) safe(v domain.GameView, c domain.Card) bool {
	if !b.Memory.IsBoss(c) {
		return false
	}
	ts, hasTrump := v.Trump.Suit()
	if !hasTrump || c.Suit == ts {
		return true
	}
	// A void opponent may ruff unless trumps are exhausted.
	return !b.Memory.AnyVoid(v.ViewerSeat, c.Suit) || b.Memory.Outstanding(ts) == 0
}

func (b *SmartBot) ChoosePlay(v domain.GameView) (domain.Card, error) {
	b.Memory.Observe(v)
	legal := legalPlays(v)
	if len(legal) == 0 {
		return domain.Card{}, ErrNoDecision
	}
	bid, won, _ := myStanding(v)
	wantTricks := won < bid
	leading := v.CurrentTrick == nil || len(v.CurrentTrick.Plays) == 0

	if leading {
		return b.lead(v, legal, wantTricks), nil
	}
	return b.follow(v, legal, wantTricks), nil
}

func (b *SmartBot) lead(v domain.GameView, legal []domain.Card, wantTricks bool) domain.Card {
	ts, hasTrump := v.Trump.Suit()
	if wantTricks {
		var best *domain.Card
		for i := range legal {
			c := legal[i]
			if !b.safe(v, c) {
				continue
			}
			// Prefer cashing side-suit winners before trumps.
			if best == nil || (hasTrump && best.Suit == ts && c.Suit != ts) {
				best = &legal[i]
			}
		}
		if best != nil {
			return *best
		}
	}
	// Otherwise lead low from a side suit to keep control.
	var side []domain.Card
	for _, c := range legal {
		if !hasTrump || c.Suit != ts {
			side = append(side, c)
		}
	}
	if len(side) > 0 {
		return lowestCard(side)
	}
	return lowestCard(legal)
}

func (b *SmartBot) follow(v domain.GameView, legal []domain.Card, wantTricks bool) domain.Card {
	var winners, losers []domain.Card
	for _, c := range legal {
		if wouldWin(v, c) {
			winners = append(winners, c)
		} else {
			losers = append(losers, c)
		}
	}
	last := len(v.CurrentTrick.Plays) == domain.PlayerCount-1

	if wantTricks {
		if len(winners) == 0 {
			return b.discard(v, losers)
		}
		if last {
			return cheapestWinner(v, winners)
		}
		for _, c := range sortedByRank(winners) {
			if b.safe(v, c) {
				return c
			}
		}
		return highestCard(winners)
	}

	if len(losers) > 0 {
		return highestCard(losers)
	}
	if last {
		// Forced to win: shed the biggest card.
		return highestCard(winners)
	}
	return lowestCard(winners)
}

// discard throws the lowest side-suit card, keeping trumps when possible.
func (b *SmartBot) discard(v domain.GameView, cards []domain.Card) domain.Card {
	ts, hasTrump := v.Trump.Suit()
	var side []domain.Card
	for _, c := range cards {
		if !hasTrump || c.Suit != ts {
			side = append(side, c)
		}
	}
	if len(side) > 0 {
		return lowestCard(side)
	}
	return lowestCard(cards)
}

// cheapestWinner prefers the lowest non-trump winner, then the lowest trump.
func cheapestWinner(v domain.GameView, winners []domain.Card) domain.Card {
	ts, hasTrump := v.Trump.Suit()
	var side []domain.Card
	for _, c := range winners {
		if !hasTrump || c.Suit != ts {
			side = append(side, c)
		}
	}
	if len(side) > 0 {
		return lowestCard(side)
	}
	return lowestCard(winners)
}

func sortedByRank(cards []domain.Card) []domain.Card {
	out := append([]domain.Card(nil), cards...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}
