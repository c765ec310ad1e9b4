package domain

import "fmt"

func invariantf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

func validSeat(seat int) bool {
	return seat >= 0 && seat < PlayerCount
}

// CheckInvariants verifies the structural rules a committed game must satisfy:
// seat ranges, card conservation, hand sizes, schedule and dealer rotation,
// bid ordering, trick winners and that running totals match the round history.
// It never panics on a malformed game, so it is safe on state read from storage.
func (g *Game) CheckInvariants() error {
	if !validSeat(g.Options.FirstDealer) {
		return invariantf("first dealer %d out of range", g.Options.FirstDealer)
	}
	switch g.Options.LeadRule {
	case "", LeadAfterTrumpChooser, LeadAfterDealer:
	default:
		return invariantf("unknown lead rule %q", g.Options.LeadRule)
	}

	seatsFilled := 0
	seen := make(map[string]bool, PlayerCount)
	for seat, p := range g.Seats {
		if p == nil {
			continue
		}
		seatsFilled++
		if p.Seat != seat {
			return invariantf("player %s recorded at seat %d but sits at %d", p.ID, p.Seat, seat)
		}
		if seen[p.ID] {
			return invariantf("player %s seated twice", p.ID)
		}
		seen[p.ID] = true
	}

	switch g.Phase {
	case GamePhaseWaiting:
		if g.Round != nil {
			return invariantf("waiting game has a round")
		}
		return nil
	case GamePhaseInProgress, GamePhaseComplete:
	default:
		return invariantf("unknown game phase %q", g.Phase)
	}

	if seatsFilled != PlayerCount {
		return invariantf("%d seats filled in a started game", seatsFilled)
	}
	if g.Round == nil {
		return invariantf("started game has no round")
	}
	if err := g.checkRound(g.Round); err != nil {
		return err
	}
	if g.Phase == GamePhaseComplete && (g.Round.Number != TotalRounds || g.Round.Phase != RoundPhaseComplete) {
		return invariantf("complete game ended at round %d phase %s", g.Round.Number, g.Round.Phase)
	}
	return g.checkTotals()
}

func (g *Game) checkRound(r *Round) error {
	if r.Number < 1 || r.Number > TotalRounds {
		return invariantf("round number %d out of range", r.Number)
	}
	if want := CardsDealt(r.Number); r.CardsDealt != want {
		return invariantf("round %d dealt %d cards, schedule says %d", r.Number, r.CardsDealt, want)
	}
	if want := DealerForRound(g.Options.FirstDealer, r.Number); r.Dealer != want {
		return invariantf("round %d dealer %d, rotation says %d", r.Number, r.Dealer, want)
	}
	switch r.Phase {
	case RoundPhaseBidding, RoundPhaseTrumpSelection, RoundPhasePlaying, RoundPhaseScoring, RoundPhaseComplete:
	default:
		return invariantf("unknown round phase %q", r.Phase)
	}
	if len(r.Bids) > PlayerCount {
		return invariantf("%d bids recorded", len(r.Bids))
	}
	for i, b := range r.Bids {
		if want := SeatAfter(r.Dealer, 1+i); b.Seat != want {
			return invariantf("bid %d from seat %d, expected seat %d", i, b.Seat, want)
		}
		if b.Value < 0 || b.Value > r.CardsDealt {
			return invariantf("bid %d out of range", b.Value)
		}
	}
	if r.Phase == RoundPhaseBidding {
		if len(r.Bids) == PlayerCount {
			return invariantf("bidding phase with every bid in")
		}
	} else {
		if len(r.Bids) != PlayerCount {
			return invariantf("phase %s with %d bids", r.Phase, len(r.Bids))
		}
		best, _ := HighestBidder(r.Bids)
		if r.TrumpChooser != best.Seat {
			return invariantf("trump chooser %d, highest bidder is %d", r.TrumpChooser, best.Seat)
		}
	}
	if err := r.checkTricks(g.FirstLeader()); err != nil {
		return err
	}
	for _, s := range r.Scores {
		if !validSeat(s.Seat) {
			return invariantf("round %d score for seat %d", r.Number, s.Seat)
		}
	}

	inPlay := make(map[Card]bool, PlayerCount*r.CardsDealt)
	var played [PlayerCount]int
	for _, t := range r.Tricks {
		for _, p := range t.Plays {
			if inPlay[p.Card] {
				return invariantf("card %s appears twice", p.Card)
			}
			inPlay[p.Card] = true
			played[p.Seat]++
		}
	}
	for seat, p := range g.Seats {
		if want := r.CardsDealt - played[seat]; len(p.Hand) != want {
			return invariantf("seat %d holds %d cards, expected %d", seat, len(p.Hand), want)
		}
		for _, c := range p.Hand {
			if !c.Valid() {
				return invariantf("seat %d holds invalid card %v", seat, c)
			}
			if inPlay[c] {
				return invariantf("card %s appears twice", c)
			}
			inPlay[c] = true
		}
	}
	if len(inPlay) != PlayerCount*r.CardsDealt {
		return invariantf("%d cards accounted for, %d dealt", len(inPlay), PlayerCount*r.CardsDealt)
	}
	return nil
}

// checkTricks validates trump, trick order and sealed winners. Play seats are
// range checked here before anything indexes by them.
func (r *Round) checkTricks(firstLeader int) error {
	switch r.Phase {
	case RoundPhaseBidding, RoundPhaseTrumpSelection:
		if r.Trump != TrumpUnset {
			return invariantf("trump %q set during %s", r.Trump, r.Phase)
		}
		if len(r.Tricks) > 0 {
			return invariantf("%d tricks during %s", len(r.Tricks), r.Phase)
		}
		return nil
	}
	if !r.Trump.Valid() {
		return invariantf("round %d in %s without a valid trump", r.Number, r.Phase)
	}
	if len(r.Tricks) == 0 || len(r.Tricks) > r.CardsDealt {
		return invariantf("%d tricks in a %d card round", len(r.Tricks), r.CardsDealt)
	}

	leader := firstLeader
	for i, t := range r.Tricks {
		if t.Number != i+1 {
			return invariantf("trick %d numbered %d", i+1, t.Number)
		}
		if t.Leader != leader {
			return invariantf("trick %d led by %d, expected %d", t.Number, t.Leader, leader)
		}
		if len(t.Plays) > PlayerCount {
			return invariantf("trick %d has %d plays", t.Number, len(t.Plays))
		}
		for j, p := range t.Plays {
			if want := SeatAfter(t.Leader, j); p.Seat != want {
				return invariantf("trick %d play %d from seat %d, expected %d", t.Number, j, p.Seat, want)
			}
			if !p.Card.Valid() {
				return invariantf("trick %d has invalid card %v", t.Number, p.Card)
			}
		}
		if !t.Complete() {
			if t.Winner != -1 {
				return invariantf("open trick %d has winner %d", t.Number, t.Winner)
			}
			if i != len(r.Tricks)-1 {
				return invariantf("trick %d left open", t.Number)
			}
			continue
		}
		winner, _ := TrickWinner(t.Plays, r.Trump)
		if t.Winner != winner.Seat {
			return invariantf("trick %d recorded winner %d, %s by seat %d takes it", t.Number, t.Winner, winner.Card, winner.Seat)
		}
		leader = t.Winner
	}

	last := r.Tricks[len(r.Tricks)-1]
	switch r.Phase {
	case RoundPhasePlaying:
		if last.Complete() {
			return invariantf("playing round %d has no open trick", r.Number)
		}
	default:
		if len(r.Tricks) != r.CardsDealt || !last.Complete() {
			return invariantf("round %d %s before every trick was played", r.Number, r.Phase)
		}
	}
	return nil
}

func (g *Game) checkTotals() error {
	var totals [PlayerCount]int
	for _, h := range g.History {
		for _, s := range h.Scores {
			if !validSeat(s.Seat) {
				return invariantf("round %d history scores seat %d", h.Round, s.Seat)
			}
			totals[s.Seat] += s.Points
		}
	}
	for seat, p := range g.Seats {
		if p.Score != totals[seat] {
			return invariantf("seat %d score %d, history sums to %d", seat, p.Score, totals[seat])
		}
	}
	return nil
}
