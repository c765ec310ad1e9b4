package bot

import (
	"whist/internal/domain"
)

// GoodBot plays a plain deterministic game: bid your aces, name your longest
// suit, win cheaply while short of the bid and duck once it is made.
type GoodBot struct{}

func (b *GoodBot) ChooseBid(v domain.GameView) (int, error) {
	aces := 0
	for _, c := range v.Hand {
		if c.Rank == domain.RankAce {
			aces++
		}
	}
	return clampBid(aces, v.CardsDealt), nil
}

func (b *GoodBot) ChooseTrump(v domain.GameView) (domain.Trump, error) {
	best, bestLen := domain.Suit(0), 0
	for _, s := range domain.Suits {
		n := 0
		for _, c := range v.Hand {
			if c.Suit == s {
				n++
			}
		}
		if n > bestLen {
			best, bestLen = s, n
		}
	}
	if bestLen == 0 {
		return domain.NoTrump, nil
	}
	return domain.TrumpOf(best), nil
}

func (b *GoodBot) ChoosePlay(v domain.GameView) (domain.Card, error) {
	legal := legalPlays(v)
	if len(legal) == 0 {
		return domain.Card{}, ErrNoDecision
	}
	bid, won, _ := myStanding(v)
	lowest := lowestCard(legal)
	if won >= bid {
		return lowest, nil
	}
	// Short of the bid: take the trick as cheaply as possible.
	var winner *domain.Card
	for i := range legal {
		c := legal[i]
		if !wouldWin(v, c) {
			continue
		}
		if winner == nil || c.Rank < winner.Rank {
			winner = &legal[i]
		}
	}
	if winner != nil {
		return *winner, nil
	}
	return lowest, nil
}

func lowestCard(cards []domain.Card) domain.Card {
	low := cards[0]
	for _, c := range cards[1:] {
		if c.Rank < low.Rank {
			low = c
		}
	}
	return low
}

func highestCard(cards []domain.Card) domain.Card {
	high := cards[0]
	for _, c := range cards[1:] {
		if c.Rank > high.Rank {
			high = c
		}
	}
	return high
}
