package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whist/internal/domain"
	"whist/internal/logging"
	"whist/internal/ports/memory"
)

func newTestService(opts ...Option) *Service {
	opts = append([]Option{WithRand(rand.New(rand.NewSource(42)))}, opts...)
	return NewService(logging.Nop(), opts...)
}

func seatHumans(t *testing.T, svc *Service, gameID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := svc.AddPlayer(context.Background(), gameID, fmt.Sprintf("p%d", i), "")
		require.NoError(t, err)
	}
}

func startHumans(t *testing.T, svc *Service) string {
	t.Helper()
	ctx := context.Background()
	g, err := svc.CreateGame(ctx, "")
	require.NoError(t, err)
	seatHumans(t, svc, g.ID, 4)
	for i := 0; i < 4; i++ {
		_, err := svc.MarkReady(ctx, g.ID, fmt.Sprintf("p%d", i))
		require.NoError(t, err)
	}
	return g.ID
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

// actAsHuman makes the simplest legal move for viewerID.
func actAsHuman(t *testing.T, svc *Service, gameID string, v domain.GameView, playerID string) {
	t.Helper()
	ctx := context.Background()
	var err error
	switch v.RoundPhase {
	case domain.RoundPhaseBidding:
		_, err = svc.SubmitBid(ctx, gameID, playerID, 0)
	case domain.RoundPhaseTrumpSelection:
		_, err = svc.ChooseTrump(ctx, gameID, playerID, domain.NoTrump)
	case domain.RoundPhasePlaying:
		require.NotEmpty(t, v.LegalPlays)
		_, err = svc.PlayCard(ctx, gameID, playerID, v.LegalPlays[0])
	default:
		t.Fatalf("unexpected round phase %s", v.RoundPhase)
	}
	require.NoError(t, err)
}

func TestCreateGame(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	g, err := svc.CreateGame(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, domain.GamePhaseWaiting, g.Phase)
	assert.NotZero(t, g.Options.Seed)

	_, err = svc.CreateGame(ctx, "table-1")
	require.NoError(t, err)
	_, err = svc.CreateGame(ctx, "table-1")
	assert.ErrorIs(t, err, ErrGameExists)

	_, err = svc.View(ctx, "missing", "p0")
	assert.ErrorIs(t, err, ErrGameNotFound)
	_, err = svc.SubmitBid(ctx, "missing", "p0", 1)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestSeating(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	g, err := svc.CreateGame(ctx, "seats")
	require.NoError(t, err)

	evs, err := svc.AddPlayer(ctx, g.ID, "p0", "Alice")
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, PlayerJoinedPayload{PlayerID: "p0", Name: "Alice", Seat: 0}, evs[0].Payload)

	_, err = svc.AddPlayer(ctx, g.ID, "p0", "Alice")
	assert.ErrorIs(t, err, domain.ErrAlreadySeated)

	for i := 1; i < 4; i++ {
		_, err := svc.AddPlayer(ctx, g.ID, fmt.Sprintf("p%d", i), "")
		require.NoError(t, err)
	}
	_, err = svc.AddPlayer(ctx, g.ID, "p4", "")
	assert.ErrorIs(t, err, domain.ErrGameFull)
	assert.Empty(t, svc.OpenGames())

	evs, err = svc.Leave(ctx, g.ID, "p2")
	require.NoError(t, err)
	assert.Equal(t, PlayerLeftPayload{PlayerID: "p2", Seat: 2}, evs[0].Payload)
	assert.Equal(t, []GameInfo{{ID: g.ID, OpenSeats: 1, Players: 3}}, svc.OpenGames())

	_, err = svc.Start(ctx, g.ID, "p0")
	assert.ErrorIs(t, err, domain.ErrNotReady)
	_, err = svc.AddAI(ctx, g.ID, "genius")
	assert.ErrorIs(t, err, ErrInvalidBotLevel)
}

func TestReadyStartsGame(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	g, err := svc.CreateGame(ctx, "ready")
	require.NoError(t, err)
	seatHumans(t, svc, g.ID, 4)

	for i := 0; i < 3; i++ {
		evs, err := svc.MarkReady(ctx, g.ID, fmt.Sprintf("p%d", i))
		require.NoError(t, err)
		assert.Equal(t, []EventKind{EventPlayerReady}, kinds(evs))
	}
	evs, err := svc.MarkReady(ctx, g.ID, "p3")
	require.NoError(t, err)
	assert.Equal(t, []EventKind{
		EventPlayerReady, EventGameStarted, EventRoundStarted,
		EventHandDealt, EventHandDealt, EventHandDealt, EventHandDealt,
	}, kinds(evs))

	for _, ev := range evs {
		if ev.Kind != EventHandDealt {
			assert.Empty(t, ev.Recipients)
			continue
		}
		p := ev.Payload.(HandDealtPayload)
		assert.Equal(t, []string{p.PlayerID}, ev.Recipients)
		assert.Len(t, p.Hand, 13)
	}

	v, err := svc.View(ctx, g.ID, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.GamePhaseInProgress, v.Phase)
	assert.Equal(t, 1, v.Round)
	assert.Equal(t, 1, v.TurnSeat)
	assert.Len(t, v.Hand, 13)
	assert.True(t, v.MyTurn())

	_, err = svc.MarkReady(ctx, g.ID, "p0")
	assert.ErrorIs(t, err, domain.ErrWrongPhase)
}

func TestBiddingThroughService(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	id := startHumans(t, svc)

	before, err := svc.Game(ctx, id)
	require.NoError(t, err)

	_, err = svc.SubmitBid(ctx, id, "p2", 3)
	assert.ErrorIs(t, err, domain.ErrOutOfTurn)
	_, err = svc.SubmitBid(ctx, id, "p1", 14)
	assert.ErrorIs(t, err, domain.ErrInvalidBid)

	after, err := svc.Game(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version, "rejected operations must not change state")

	evs, err := svc.SubmitBid(ctx, id, "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, BidPlacedPayload{PlayerID: "p1", Seat: 1, Value: 3, NextSeat: 2}, evs[0].Payload)

	_, err = svc.SubmitBid(ctx, id, "p1", 3)
	assert.ErrorIs(t, err, domain.ErrAlreadyBid)

	for _, b := range []struct {
		id    string
		value int
	}{{"p2", 5}, {"p3", 5}, {"p0", 2}} {
		evs, err = svc.SubmitBid(ctx, id, b.id, b.value)
		require.NoError(t, err)
	}
	require.Equal(t, []EventKind{EventBidPlaced, EventBiddingComplete}, kinds(evs))
	done := evs[1].Payload.(BiddingCompletePayload)
	assert.Equal(t, 2, done.TrumpChooser)
	assert.Equal(t, 5, done.HighestBid)

	_, err = svc.ChooseTrump(ctx, id, "p3", domain.TrumpHearts)
	assert.ErrorIs(t, err, domain.ErrNotTrumpChooser)
	evs, err = svc.ChooseTrump(ctx, id, "p2", domain.TrumpHearts)
	require.NoError(t, err)
	assert.Equal(t, TrumpChosenPayload{PlayerID: "p2", Seat: 2, Trump: domain.TrumpHearts, Leader: 3}, evs[0].Payload)
	_, err = svc.ChooseTrump(ctx, id, "p2", domain.TrumpSpades)
	assert.ErrorIs(t, err, domain.ErrAlreadyChosen)
}

func TestHumanAgainstAIPlaysFullGame(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	results := &memory.Results{}
	svc := newTestService(WithStore(store), WithResults(results))

	g, err := svc.CreateGame(ctx, "vs-ai")
	require.NoError(t, err)
	_, err = svc.AddPlayer(ctx, g.ID, "human", "Human")
	require.NoError(t, err)
	for _, level := range []string{"good", "smart", "random"} {
		_, err := svc.AddAI(ctx, g.ID, level)
		require.NoError(t, err)
	}
	_, err = svc.Summary(ctx, g.ID)
	assert.ErrorIs(t, err, domain.ErrGameNotComplete)

	_, err = svc.MarkReady(ctx, g.ID, "human")
	require.NoError(t, err)

	for i := 0; ; i++ {
		require.Less(t, i, 1000, "game did not finish")
		v, err := svc.View(ctx, g.ID, "human")
		require.NoError(t, err)
		if v.Phase == domain.GamePhaseComplete {
			break
		}
		require.True(t, v.MyTurn(), "AI must yield only when the human acts")
		actAsHuman(t, svc, g.ID, v, "human")
	}

	summary, err := svc.Summary(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, summary.Rounds, domain.TotalRounds)
	assert.Len(t, summary.Standings, 4)
	require.Len(t, results.Summaries(), 1)
	assert.Equal(t, g.ID, results.Summaries()[0].GameID)

	// A second service sharing the store sees the same committed game.
	restored := newTestService(WithStore(store))
	rg, err := restored.Game(ctx, g.ID)
	require.NoError(t, err)
	cg, err := svc.Game(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, cg.Version, rg.Version)
	assert.Equal(t, domain.GamePhaseComplete, rg.Phase)
}

func TestRestoredGameContinues(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestService(WithStore(store))
	id := startHumans(t, svc)
	_, err := svc.SubmitBid(ctx, id, "p1", 2)
	require.NoError(t, err)

	restored := newTestService(WithStore(store))
	_, err = restored.SubmitBid(ctx, id, "p1", 2)
	assert.ErrorIs(t, err, domain.ErrAlreadyBid)
	_, err = restored.SubmitBid(ctx, id, "p2", 1)
	require.NoError(t, err)

	_, err = restored.CreateGame(ctx, id)
	assert.ErrorIs(t, err, ErrGameExists)
}

// startedDomainGame builds a started four-human game outside the service.
func startedDomainGame(t *testing.T, id string) *domain.Game {
	t.Helper()
	g := domain.NewGame(id, domain.Options{Seed: 5})
	for i := 0; i < 4; i++ {
		_, err := g.AddPlayer(fmt.Sprintf("p%d", i), "", false, "")
		require.NoError(t, err)
		_, err = g.MarkReady(fmt.Sprintf("p%d", i))
		require.NoError(t, err)
	}
	return g
}

func TestCorruptStoredGameFaults(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(t *testing.T, g *domain.Game)
	}{
		{"DuplicateCard", func(t *testing.T, g *domain.Game) {
			g.Seats[0].Hand[0] = g.Seats[1].Hand[0]
		}},
		{"PlayFromMissingSeat", func(t *testing.T, g *domain.Game) {
			for g.Round.Phase == domain.RoundPhaseBidding {
				require.NoError(t, g.SubmitBid(g.Seats[g.TurnSeat()].ID, 0))
			}
			require.NoError(t, g.ChooseTrump(g.Seats[g.TurnSeat()].ID, domain.TrumpSpades))
			trick := &g.Round.Tricks[0]
			leader := g.Seats[trick.Leader]
			trick.Plays = append(trick.Plays, domain.Play{Seat: 7, Card: leader.Hand[0]})
		}},
		{"HistoryScoresMissingSeat", func(t *testing.T, g *domain.Game) {
			g.History = append(g.History, domain.RoundResult{Round: 1, Scores: []domain.RoundScore{{Seat: 11, Points: 4}}})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.NewStore()
			g := startedDomainGame(t, "broken")
			tt.corrupt(t, g)
			require.NoError(t, store.Save(ctx, g))

			svc := newTestService(WithStore(store))
			require.NotPanics(t, func() {
				_, err := svc.SubmitBid(ctx, "broken", "p1", 0)
				assert.ErrorIs(t, err, ErrGameFaulted)
				assert.ErrorIs(t, err, domain.ErrInvariant)
			})

			_, err := svc.SubmitBid(ctx, "broken", "p1", 0)
			assert.ErrorIs(t, err, ErrGameFaulted)
			_, err = svc.View(ctx, "broken", "p1")
			assert.ErrorIs(t, err, ErrGameFaulted)
			_, err = svc.Game(ctx, "broken")
			assert.ErrorIs(t, err, ErrGameFaulted)
			_, err = svc.Summary(ctx, "broken")
			assert.ErrorIs(t, err, ErrGameFaulted)
			assert.Empty(t, svc.OpenGames())
		})
	}
}

func TestConcurrentGames(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	const games = 6
	var wg sync.WaitGroup
	errs := make(chan error, games)
	for i := 0; i < games; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g, err := svc.CreateGame(ctx, fmt.Sprintf("auto-%d", i))
			if err != nil {
				errs <- err
				return
			}
			for seat := 0; seat < 4; seat++ {
				if _, err := svc.AddAI(ctx, g.ID, "good"); err != nil {
					errs <- err
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	for i := 0; i < games; i++ {
		g, err := svc.Game(ctx, fmt.Sprintf("auto-%d", i))
		require.NoError(t, err)
		assert.Equal(t, domain.GamePhaseComplete, g.Phase)
		assert.Len(t, g.History, domain.TotalRounds)
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	g, err := svc.CreateGame(ctx, "gone")
	require.NoError(t, err)
	_, err = svc.AddAI(ctx, g.ID, "script")
	require.NoError(t, err)

	svc.Remove(g.ID)
	_, err = svc.View(ctx, g.ID, "")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrGameNotFound, "game_not_found"},
		{ErrGameExists, "game_exists"},
		{fmt.Errorf("%w: %w", ErrGameFaulted, domain.ErrInvariant), "game_faulted"},
		{fmt.Errorf("%w: bad", ErrInvalidBotLevel), "invalid_bot_level"},
		{domain.ErrOutOfTurn, "out_of_turn"},
		{fmt.Errorf("wrapped: %w", domain.ErrIllegalPlay), "illegal_play"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorCode(tt.err), "ErrorCode(%v)", tt.err)
	}
}
