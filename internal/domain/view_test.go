package domain

import (
	"errors"
	"testing"
)

func TestBuildViewHidesOtherHands(t *testing.T) {
	g := newStartedGame(t, Options{Seed: 21})
	bidAll(t, g, 1, 2, 0, 3)

	v := BuildView(g, "p1")
	if v.ViewerSeat != 1 {
		t.Fatalf("viewer seat = %d, want 1", v.ViewerSeat)
	}
	if len(v.Hand) != 13 {
		t.Fatalf("hand size = %d, want 13", len(v.Hand))
	}
	for i, c := range g.Seats[1].Hand {
		if v.Hand[i] != c {
			t.Fatalf("view hand differs from seat 1 hand")
		}
	}
	for _, pv := range v.Players {
		if pv.CardsInHand != 13 {
			t.Fatalf("seat %d cards in hand = %d", pv.Seat, pv.CardsInHand)
		}
		if pv.Bid == nil {
			t.Fatalf("seat %d bid missing from public view", pv.Seat)
		}
	}
	if v.RoundPhase != RoundPhaseTrumpSelection || v.TurnSeat != 0 {
		t.Fatalf("round phase %s turn %d, want trump_selection turn 0", v.RoundPhase, v.TurnSeat)
	}
	if len(v.LegalPlays) != 0 {
		t.Fatalf("legal plays outside play phase")
	}

	spectator := BuildView(g, "nobody")
	if spectator.ViewerSeat != -1 || len(spectator.Hand) != 0 {
		t.Fatalf("spectator sees a hand")
	}
}

func TestBuildViewLegalPlaysForActor(t *testing.T) {
	g := newStartedGame(t, Options{Seed: 8})
	bidAll(t, g, 1, 1, 1, 1)
	if err := g.ChooseTrump("p1", NoTrump); err != nil {
		t.Fatalf("choose: %v", err)
	}
	leader := g.TurnSeat()
	v := BuildView(g, seatID(leader))
	if !v.MyTurn() || len(v.LegalPlays) != 13 {
		t.Fatalf("leader view: my turn %v, legal %d", v.MyTurn(), len(v.LegalPlays))
	}
	other := BuildView(g, seatID(NextSeat(leader)))
	if other.MyTurn() || len(other.LegalPlays) != 0 {
		t.Fatalf("non actor sees legal plays")
	}
}

func TestBuildViewDoesNotAlias(t *testing.T) {
	g := newStartedGame(t, Options{Seed: 2})
	v := BuildView(g, "p0")
	v.Hand[0] = Card{Rank: RankAce, Suit: SuitSpades}
	v.Hand = v.Hand[:0]
	if len(g.Seats[0].Hand) != 13 {
		t.Fatalf("view mutation leaked into game")
	}
}

func TestStandingsShareRanks(t *testing.T) {
	g := newTable(t, Options{})
	scores := []int{30, 50, 30, 10}
	for seat, s := range scores {
		g.Seats[seat].Score = s
	}
	got := Standings(g)
	want := map[int]int{1: 1, 0: 2, 2: 2, 3: 4}
	for _, s := range got {
		if s.Rank != want[s.Seat] {
			t.Errorf("seat %d rank = %d, want %d", s.Seat, s.Rank, want[s.Seat])
		}
	}
	if got[0].Seat != 1 {
		t.Fatalf("leader = seat %d, want 1", got[0].Seat)
	}

	if _, err := BuildSummary(g); !errors.Is(err, ErrGameNotComplete) {
		t.Fatalf("summary error = %v, want ErrGameNotComplete", err)
	}
}
