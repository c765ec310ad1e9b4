package brain

import (
	"testing"

	"whist/internal/domain"
)

func card(t *testing.T, s string) domain.Card {
	t.Helper()
	c, err := domain.ParseCard(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return c
}

func TestGameMemory(t *testing.T) {
	m := NewMemory()

	for i := 0; i < 52; i++ {
		if m.DeckStatus[i] != StatusUnknown {
			t.Errorf("Index %d should be Unknown, got %d", i, m.DeckStatus[i])
		}
	}

	kingSpades := card(t, "KS")
	m.MarkMine([]domain.Card{kingSpades})
	if m.DeckStatus[cardToIndex(kingSpades)] != StatusMine {
		t.Errorf("KS should be StatusMine")
	}
	if m.IsBoss(kingSpades) {
		t.Errorf("KS should not be boss while AS is out")
	}

	m.MarkPlayed([]domain.Card{card(t, "AS")})
	if !m.IsBoss(kingSpades) {
		t.Errorf("KS should be boss once AS is played")
	}
	if !m.IsPlayed(card(t, "AS")) {
		t.Errorf("IsPlayed(AS) should be true")
	}
	if got := m.Outstanding(domain.SuitSpades); got != 11 {
		t.Errorf("outstanding spades = %d, want 11", got)
	}

	m.Reset()
	if m.DeckStatus[cardToIndex(kingSpades)] != StatusUnknown {
		t.Errorf("After reset, KS should be StatusUnknown")
	}
}

func TestCardIndexCoversDeck(t *testing.T) {
	seen := map[int]bool{}
	for _, c := range domain.NewDeck() {
		idx := cardToIndex(c)
		if idx < 0 || idx >= 52 || seen[idx] {
			t.Fatalf("bad index %d for %s", idx, c)
		}
		seen[idx] = true
	}
}

func TestObserveTracksVoids(t *testing.T) {
	m := NewMemory()
	view := domain.GameView{
		Round: 3,
		Hand:  []domain.Card{card(t, "2D")},
		Completed: []domain.Trick{{
			Number: 1,
			Leader: 0,
			Winner: 0,
			Plays: []domain.Play{
				{Seat: 0, Card: card(t, "AH")},
				{Seat: 1, Card: card(t, "3C")},
				{Seat: 2, Card: card(t, "4H")},
				{Seat: 3, Card: card(t, "5H")},
			},
		}},
	}
	m.Observe(view)
	m.Observe(view)

	if !m.Opponents[1].IsVoid(domain.SuitHearts) {
		t.Errorf("seat 1 should be void in hearts")
	}
	if m.Opponents[2].IsVoid(domain.SuitHearts) {
		t.Errorf("seat 2 followed suit")
	}
	if !m.AnyVoid(0, domain.SuitHearts) || m.AnyVoid(1, domain.SuitHearts) {
		t.Errorf("AnyVoid should only see other seats")
	}
	if m.Opponents[1].CardsPlayed != 1 {
		t.Errorf("observing twice double counted plays: %d", m.Opponents[1].CardsPlayed)
	}

	view.Round = 4
	view.Completed = nil
	m.Observe(view)
	if m.IsPlayed(card(t, "AH")) {
		t.Errorf("new round should reset memory")
	}
}
