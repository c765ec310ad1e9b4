package bot

import (
	"math/rand"

	"whist/internal/domain"
)

// RandomBot picks uniformly among legal options.
type RandomBot struct {
	rng *rand.Rand
}

// NewRandomBot seeds the bot so a given seed replays the same choices.
func NewRandomBot(seed int64) *RandomBot {
	return &RandomBot{rng: rand.New(rand.NewSource(seed))}
}

func (b *RandomBot) ChooseBid(v domain.GameView) (int, error) {
	lo, hi := domain.LegalBidRange(v.CardsDealt)
	return lo + b.rng.Intn(hi-lo+1), nil
}

func (b *RandomBot) ChooseTrump(v domain.GameView) (domain.Trump, error) {
	return domain.Trumps[b.rng.Intn(len(domain.Trumps))], nil
}

func (b *RandomBot) ChoosePlay(v domain.GameView) (domain.Card, error) {
	legal := legalPlays(v)
	if len(legal) == 0 {
		return domain.Card{}, ErrNoDecision
	}
	return legal[b.rng.Intn(len(legal))], nil
}
