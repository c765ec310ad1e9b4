package domain

import (
	"math/rand"
	"sort"
)

// NewDeck returns the 52 distinct cards in suit-then-rank order.
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for _, s := range Suits {
		for r := RankTwo; r <= RankAce; r++ {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// Shuffle returns a shuffled copy of deck. The same seed always yields the same order.
func Shuffle(deck []Card, seed int64) []Card {
	shuffled := make([]Card, len(deck))
	copy(shuffled, deck)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// Deal hands out cardsEach cards to every seat one at a time, starting left of
// the dealer. The rest of the deck is left undealt.
func Deal(deck []Card, cardsEach, dealer int) [PlayerCount][]Card {
	var hands [PlayerCount][]Card
	for i := range hands {
		hands[i] = make([]Card, 0, cardsEach)
	}
	idx := 0
	for n := 0; n < cardsEach; n++ {
		for k := 1; k <= PlayerCount; k++ {
			seat := SeatAfter(dealer, k)
			hands[seat] = append(hands[seat], deck[idx])
			idx++
		}
	}
	for i := range hands {
		SortHand(hands[i])
	}
	return hands
}

// SortHand orders cards by suit then rank ascending, in place.
func SortHand(hand []Card) {
	sort.Slice(hand, func(i, j int) bool {
		if hand[i].Suit != hand[j].Suit {
			return hand[i].Suit < hand[j].Suit
		}
		return hand[i].Rank < hand[j].Rank
	})
}

// ContainsCard reports whether c is in cards.
func ContainsCard(cards []Card, c Card) bool {
	for _, x := range cards {
		if x == c {
			return true
		}
	}
	return false
}

// RemoveCard returns cards without the first occurrence of c.
func RemoveCard(cards []Card, c Card) []Card {
	out := make([]Card, 0, len(cards))
	removed := false
	for _, x := range cards {
		if !removed && x == c {
			removed = true
			continue
		}
		out = append(out, x)
	}
	return out
}

// HasSuit reports whether any card in cards has suit s.
func HasSuit(cards []Card, s Suit) bool {
	for _, c := range cards {
		if c.Suit == s {
			return true
		}
	}
	return false
}
