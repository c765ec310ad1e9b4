package brain

import (
	"whist/internal/domain"
)

// OpponentProfile tracks what a specific seat has revealed this round.
type OpponentProfile struct {
	Seat        int
	CardsPlayed int
	// Voids holds suits the player failed to follow, so they hold none.
	Voids map[domain.Suit]bool
}

// NewOpponentProfile initializes a profile for a specific seat.
func NewOpponentProfile(seat int) *OpponentProfile {
	return &OpponentProfile{
		Seat:  seat,
		Voids: make(map[domain.Suit]bool),
	}
}

// RecordPlay logs a card played by this opponent against the led suit.
// Playing off-suit proves the player is void in the led suit.
func (p *OpponentProfile) RecordPlay(card domain.Card, led domain.Suit) {
	p.CardsPlayed++
	if led.Valid() && card.Suit != led {
		p.Voids[led] = true
	}
}

// IsVoid reports whether the player is known to hold no cards of suit s.
func (p *OpponentProfile) IsVoid(s domain.Suit) bool {
	return p.Voids[s]
}
