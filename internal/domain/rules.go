package domain

const (
	// PlayerCount is fixed: every game seats exactly four.
	PlayerCount = 4
	// TotalRounds is the length of the round schedule.
	TotalRounds = 26
	// MaxHandSize is dealt in the first and last round.
	MaxHandSize = 13
	// MinHandSize is dealt in the four middle rounds.
	MinHandSize = 2
	// ExactBidBonus is added when a player takes exactly the tricks they bid.
	ExactBidBonus = 10
)

// CardsDealt returns the per-player hand size for a 1-based round number:
// 13 down to 3 over rounds 1-11, 2 for rounds 12-15, then 3 up to 13 over rounds 16-26.
// Out-of-range rounds return 0.
func CardsDealt(round int) int {
	switch {
	case round < 1 || round > TotalRounds:
		return 0
	case round <= 11:
		return 14 - round
	case round <= 15:
		return MinHandSize
	default:
		return round - 13
	}
}

// DealerForRound rotates the deal one seat per round, starting from firstDealer.
func DealerForRound(firstDealer, round int) int {
	return SeatAfter(firstDealer, round-1)
}

// NextSeat returns the seat to the left of seat.
func NextSeat(seat int) int {
	return SeatAfter(seat, 1)
}

// SeatAfter returns the seat n places to the left of seat.
func SeatAfter(seat, n int) int {
	s := (seat + n) % PlayerCount
	if s < 0 {
		s += PlayerCount
	}
	return s
}

// LegalBidRange returns the inclusive range of bids allowed for a round.
func LegalBidRange(cardsDealt int) (lo, hi int) {
	return 0, cardsDealt
}

// LegalPlays returns the cards from hand that may be played. A zero led suit
// means the player is leading and may play anything. Otherwise the player must
// follow suit when able.
func LegalPlays(hand []Card, led Suit) []Card {
	if !led.Valid() || !HasSuit(hand, led) {
		out := make([]Card, len(hand))
		copy(out, hand)
		return out
	}
	out := make([]Card, 0, len(hand))
	for _, c := range hand {
		if c.Suit == led {
			out = append(out, c)
		}
	}
	return out
}

// IsLegalPlay reports whether card may be played from hand against led.
func IsLegalPlay(hand []Card, card Card, led Suit) bool {
	return ContainsCard(LegalPlays(hand, led), card)
}

// Beats reports whether challenger beats the current best card of a trick.
// Trump beats non-trump, a card only beats another of its own suit by rank,
// and an off-suit non-trump never wins.
func Beats(challenger, best Card, trump Trump) bool {
	if ts, ok := trump.Suit(); ok {
		if challenger.Suit == ts && best.Suit != ts {
			return true
		}
		if challenger.Suit != ts && best.Suit == ts {
			return false
		}
	}
	if challenger.Suit != best.Suit {
		return false
	}
	return challenger.Rank > best.Rank
}

// TrickWinner returns the winning play. The first play defines the led suit.
// ok is false for an empty trick.
func TrickWinner(plays []Play, trump Trump) (winner Play, ok bool) {
	if len(plays) == 0 {
		return Play{}, false
	}
	winner = plays[0]
	for _, p := range plays[1:] {
		if Beats(p.Card, winner.Card, trump) {
			winner = p
		}
	}
	return winner, true
}

// CompareBid orders two bid values.
func CompareBid(a, b int) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}

// HighestBidder returns the highest bid. Ties go to whoever bid first, so bids
// must be supplied in turn order.
func HighestBidder(bids []Bid) (Bid, bool) {
	if len(bids) == 0 {
		return Bid{}, false
	}
	best := bids[0]
	for _, b := range bids[1:] {
		if CompareBid(b.Value, best.Value) > 0 {
			best = b
		}
	}
	return best, true
}
