package domain

import (
	"fmt"
	"strings"
)

// GamePhase represents the lifecycle of a game.
type GamePhase string

const (
	GamePhaseWaiting    GamePhase = "waiting"
	GamePhaseInProgress GamePhase = "in_progress"
	GamePhaseComplete   GamePhase = "complete"
)

// RoundPhase represents progress within a single round.
type RoundPhase string

const (
	RoundPhaseBidding        RoundPhase = "bidding"
	RoundPhaseTrumpSelection RoundPhase = "trump_selection"
	RoundPhasePlaying        RoundPhase = "playing"
	RoundPhaseScoring        RoundPhase = "scoring"
	RoundPhaseComplete       RoundPhase = "complete"
)

// LeadRule decides who leads the first trick of a round.
type LeadRule string

const (
	// LeadAfterTrumpChooser: the seat left of the trump chooser leads.
	LeadAfterTrumpChooser LeadRule = "after_trump_chooser"
	// LeadAfterDealer: the seat left of the dealer leads.
	LeadAfterDealer LeadRule = "after_dealer"
)

// ParseLeadRule accepts the LeadRule values. Empty input yields the default.
func ParseLeadRule(s string) (LeadRule, error) {
	switch LeadRule(strings.ToLower(strings.TrimSpace(s))) {
	case "", LeadAfterTrumpChooser:
		return LeadAfterTrumpChooser, nil
	case LeadAfterDealer:
		return LeadAfterDealer, nil
	}
	return "", fmt.Errorf("unknown lead rule %q", s)
}

// Options are fixed when a game is created.
type Options struct {
	FirstDealer int      `json:"first_dealer"`
	LeadRule    LeadRule `json:"lead_rule"`
	// Seed drives every deal. Round n is shuffled with Seed+n.
	Seed int64 `json:"seed"`
}

// Player is a seated participant.
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Seat    int    `json:"seat"`
	IsAI    bool   `json:"is_ai"`
	AILevel string `json:"ai_level,omitempty"`
	Ready   bool   `json:"ready"`
	Score   int    `json:"score"`
	Hand    []Card `json:"hand"`
}

type Bid struct {
	Seat  int `json:"seat"`
	Value int `json:"value"`
}

type Play struct {
	Seat int  `json:"seat"`
	Card Card `json:"card"`
}

// Trick is one lap of plays. Winner is -1 until all four cards are down.
type Trick struct {
	Number int    `json:"number"`
	Leader int    `json:"leader"`
	Plays  []Play `json:"plays"`
	Winner int    `json:"winner"`
}

// Complete reports whether every seat has played to the trick.
func (t *Trick) Complete() bool {
	return len(t.Plays) == PlayerCount
}

// LedSuit returns the suit of the first card, or zero for an empty trick.
func (t *Trick) LedSuit() Suit {
	if len(t.Plays) == 0 {
		return 0
	}
	return t.Plays[0].Card.Suit
}

// Round is the state of one deal.
type Round struct {
	Number       int          `json:"number"`
	CardsDealt   int          `json:"cards_dealt"`
	Dealer       int          `json:"dealer"`
	Phase        RoundPhase   `json:"phase"`
	Bids         []Bid        `json:"bids"`
	Trump        Trump        `json:"trump"`
	TrumpChooser int          `json:"trump_chooser"`
	Tricks       []Trick      `json:"tricks"`
	Scores       []RoundScore `json:"scores,omitempty"`
}

// BidOf returns the seat's bid for the round.
func (r *Round) BidOf(seat int) (int, bool) {
	for _, b := range r.Bids {
		if b.Seat == seat {
			return b.Value, true
		}
	}
	return 0, false
}

// CurrentTrick returns the trick in progress, or nil when none is open.
func (r *Round) CurrentTrick() *Trick {
	if len(r.Tricks) == 0 {
		return nil
	}
	t := &r.Tricks[len(r.Tricks)-1]
	if t.Complete() {
		return nil
	}
	return t
}

// CompletedTricks returns the sealed tricks of the round.
func (r *Round) CompletedTricks() []Trick {
	out := make([]Trick, 0, len(r.Tricks))
	for _, t := range r.Tricks {
		if t.Complete() {
			out = append(out, t)
		}
	}
	return out
}

// RoundResult is the compact record kept for every scored round.
type RoundResult struct {
	Round        int          `json:"round"`
	CardsDealt   int          `json:"cards_dealt"`
	Dealer       int          `json:"dealer"`
	Trump        Trump        `json:"trump"`
	TrumpChooser int          `json:"trump_chooser"`
	Scores       []RoundScore `json:"scores"`
}

// Game is the full authoritative state of one table.
type Game struct {
	ID      string               `json:"id"`
	Phase   GamePhase            `json:"phase"`
	Options Options              `json:"options"`
	Seats   [PlayerCount]*Player `json:"seats"`
	Round   *Round               `json:"round,omitempty"`
	History []RoundResult        `json:"history"`
	// Version increases by one on every successful mutation.
	Version int64 `json:"version"`
}
