package brain

import (
	"whist/internal/domain"
)

// CardStatus represents what the bot knows about a specific card.
type CardStatus int

const (
	StatusUnknown CardStatus = iota // Held by someone else or not dealt
	StatusMine                      // In the bot's hand
	StatusPlayed                    // Already on the table
)

// GameMemory stores the bot's private view of the current round.
type GameMemory struct {
	// DeckStatus tracks all 52 cards. Index = (Suit-1)*13 + Rank-2.
	DeckStatus [52]CardStatus
	// Opponents tracks revealed voids by seat index.
	Opponents map[int]*OpponentProfile
	// Round is the round number the memory was built for.
	Round int
}

// NewMemory initializes a fresh memory state.
func NewMemory() *GameMemory {
	return &GameMemory{
		Opponents: make(map[int]*OpponentProfile),
	}
}

// Reset clears the memory for a new round.
func (m *GameMemory) Reset() {
	for i := range m.DeckStatus {
		m.DeckStatus[i] = StatusUnknown
	}
	m.Opponents = make(map[int]*OpponentProfile)
	m.Round = 0
}

// MarkMine records the cards currently in the bot's hand.
func (m *GameMemory) MarkMine(cards []domain.Card) {
	for _, c := range cards {
		m.DeckStatus[cardToIndex(c)] = StatusMine
	}
}

// MarkPlayed records cards that have been played on the table.
func (m *GameMemory) MarkPlayed(cards []domain.Card) {
	for _, c := range cards {
		m.DeckStatus[cardToIndex(c)] = StatusPlayed
	}
}

// UpdateHand marks hand as Mine; cards previously Mine but no longer held become Unknown.
func (m *GameMemory) UpdateHand(hand []domain.Card) {
	for i, status := range m.DeckStatus {
		if status == StatusMine {
			m.DeckStatus[i] = StatusUnknown
		}
	}
	m.MarkMine(hand)
}

// RecordPlay logs that seat played card to a trick led in led.
func (m *GameMemory) RecordPlay(seat int, card domain.Card, led domain.Suit) {
	m.DeckStatus[cardToIndex(card)] = StatusPlayed
	p, ok := m.Opponents[seat]
	if !ok {
		p = NewOpponentProfile(seat)
		m.Opponents[seat] = p
	}
	p.RecordPlay(card, led)
}

// Observe rebuilds memory from a player view. Views carry every trick of the
// round, so observing the same view twice changes nothing.
func (m *GameMemory) Observe(v domain.GameView) {
	if v.Round != m.Round {
		m.Reset()
		m.Round = v.Round
	}
	for _, p := range m.Opponents {
		p.CardsPlayed = 0
	}
	record := func(t domain.Trick) {
		led := t.LedSuit()
		for i, p := range t.Plays {
			if i == 0 {
				m.RecordPlay(p.Seat, p.Card, 0)
				continue
			}
			m.RecordPlay(p.Seat, p.Card, led)
		}
	}
	for _, t := range v.Completed {
		record(t)
	}
	if v.CurrentTrick != nil {
		record(*v.CurrentTrick)
	}
	m.UpdateHand(v.Hand)
}

// IsBoss returns true if no higher card of the same suit is still out.
func (m *GameMemory) IsBoss(c domain.Card) bool {
	for r := c.Rank + 1; r <= domain.RankAce; r++ {
		if m.DeckStatus[cardToIndex(domain.Card{Rank: r, Suit: c.Suit})] == StatusUnknown {
			return false
		}
	}
	return true
}

// IsPlayed returns true if the card is already out of the round.
func (m *GameMemory) IsPlayed(c domain.Card) bool {
	return m.DeckStatus[cardToIndex(c)] == StatusPlayed
}

// Outstanding counts cards of suit s that are neither mine nor played.
func (m *GameMemory) Outstanding(s domain.Suit) int {
	n := 0
	for r := domain.RankTwo; r <= domain.RankAce; r++ {
		if m.DeckStatus[cardToIndex(domain.Card{Rank: r, Suit: s})] == StatusUnknown {
			n++
		}
	}
	return n
}

// AnyVoid reports whether any seat other than self is known void in s.
func (m *GameMemory) AnyVoid(self int, s domain.Suit) bool {
	for seat, p := range m.Opponents {
		if seat != self && p.IsVoid(s) {
			return true
		}
	}
	return false
}

// cardToIndex converts domain.Card to a 0-51 index.
func cardToIndex(c domain.Card) int {
	return (int(c.Suit)-1)*13 + int(c.Rank) - 2
}
