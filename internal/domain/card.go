package domain

import (
	"fmt"
	"strings"
)

// Suit is one of the four French suits. The zero value means "no suit".
type Suit uint8

const (
	SuitSpades Suit = iota + 1
	SuitHearts
	SuitDiamonds
	SuitClubs
)

// Suits lists every suit in display order.
var Suits = [...]Suit{SuitSpades, SuitHearts, SuitDiamonds, SuitClubs}

func (s Suit) Valid() bool {
	return s >= SuitSpades && s <= SuitClubs
}

func (s Suit) String() string {
	switch s {
	case SuitSpades:
		return "S"
	case SuitHearts:
		return "H"
	case SuitDiamonds:
		return "D"
	case SuitClubs:
		return "C"
	default:
		return ""
	}
}

// ParseSuit accepts the single-letter suit code, case-insensitive.
func ParseSuit(s string) (Suit, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "S":
		return SuitSpades, nil
	case "H":
		return SuitHearts, nil
	case "D":
		return SuitDiamonds, nil
	case "C":
		return SuitClubs, nil
	}
	return 0, fmt.Errorf("unknown suit %q", s)
}

// Rank runs from 2 to 14 (ace high).
type Rank uint8

const (
	RankTwo   Rank = 2
	RankTen   Rank = 10
	RankJack  Rank = 11
	RankQueen Rank = 12
	RankKing  Rank = 13
	RankAce   Rank = 14
)

func (r Rank) Valid() bool {
	return r >= RankTwo && r <= RankAce
}

func (r Rank) String() string {
	switch {
	case r >= RankTwo && r < RankTen:
		return string(rune('0' + r))
	case r == RankTen:
		return "T"
	case r == RankJack:
		return "J"
	case r == RankQueen:
		return "Q"
	case r == RankKing:
		return "K"
	case r == RankAce:
		return "A"
	default:
		return "?"
	}
}

func parseRank(s string) (Rank, error) {
	switch strings.ToUpper(s) {
	case "T", "10":
		return RankTen, nil
	case "J":
		return RankJack, nil
	case "Q":
		return RankQueen, nil
	case "K":
		return RankKing, nil
	case "A":
		return RankAce, nil
	}
	if len(s) == 1 && s[0] >= '2' && s[0] <= '9' {
		return Rank(s[0] - '0'), nil
	}
	return 0, fmt.Errorf("unknown rank %q", s)
}

// Card is an immutable playing card. Two cards are equal when rank and suit match.
type Card struct {
	Rank Rank
	Suit Suit
}

func (c Card) Valid() bool {
	return c.Rank.Valid() && c.Suit.Valid()
}

// String renders rank then suit, e.g. "AS", "TD", "2C".
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// ParseCard reads the text form produced by String. "10" is accepted for ten.
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card %q", s)
	}
	rank, err := parseRank(s[:len(s)-1])
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", s, err)
	}
	suit, err := ParseSuit(s[len(s)-1:])
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", s, err)
	}
	return Card{Rank: rank, Suit: suit}, nil
}

func (c Card) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid card %d/%d", c.Rank, c.Suit)
	}
	return []byte(c.String()), nil
}

func (c *Card) UnmarshalText(text []byte) error {
	parsed, err := ParseCard(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Trump is the suit chosen for a round, or NoTrump. The empty value means unset.
type Trump string

const (
	TrumpUnset    Trump = ""
	TrumpSpades   Trump = "S"
	TrumpHearts   Trump = "H"
	TrumpDiamonds Trump = "D"
	TrumpClubs    Trump = "C"
	NoTrump       Trump = "NT"
)

// Trumps lists every choosable trump value.
var Trumps = [...]Trump{TrumpSpades, TrumpHearts, TrumpDiamonds, TrumpClubs, NoTrump}

// TrumpOf maps a suit to its trump value.
func TrumpOf(s Suit) Trump {
	return Trump(s.String())
}

func (t Trump) Valid() bool {
	switch t {
	case TrumpSpades, TrumpHearts, TrumpDiamonds, TrumpClubs, NoTrump:
		return true
	}
	return false
}

// Suit returns the trump suit; ok is false for NoTrump or unset.
func (t Trump) Suit() (Suit, bool) {
	if t == NoTrump || t == TrumpUnset {
		return 0, false
	}
	s, err := ParseSuit(string(t))
	if err != nil {
		return 0, false
	}
	return s, true
}

// ParseTrump accepts short codes (S, H, D, C, NT) and long names (Spades ... NoTrump).
func ParseTrump(s string) (Trump, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "spades":
		return TrumpSpades, nil
	case "h", "hearts":
		return TrumpHearts, nil
	case "d", "diamonds":
		return TrumpDiamonds, nil
	case "c", "clubs":
		return TrumpClubs, nil
	case "nt", "notrump", "no_trump", "no-trump", "none":
		return NoTrump, nil
	}
	return TrumpUnset, fmt.Errorf("%w: %q", ErrInvalidTrump, s)
}
