package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"

	"whist/internal/bot"
	"whist/internal/domain"
	"whist/internal/ports"
)

var (
	ErrGameNotFound    = errors.New("game not found")
	ErrGameExists      = errors.New("game already exists")
	ErrGameFaulted     = errors.New("game is faulted")
	ErrInvalidBotLevel = errors.New("invalid bot level")
)

// ErrorCode maps service and domain errors to the stable codes transports
// send to clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrGameNotFound):
		return "game_not_found"
	case errors.Is(err, ErrGameExists):
		return "game_exists"
	case errors.Is(err, ErrGameFaulted):
		return "game_faulted"
	case errors.Is(err, ErrInvalidBotLevel):
		return "invalid_bot_level"
	}
	return domain.ErrorCode(err)
}

// entry holds one committed game. The committed pointer is replaced, never
// mutated, so readers may keep it after releasing mu. A non-nil fault latches
// the game; game is nil when the stored state itself was broken.
type entry struct {
	mu     sync.Mutex
	game   *domain.Game
	fault  error
	agents map[string]*bot.Agent
}

func newEntry(g *domain.Game) *entry {
	return &entry{game: g, agents: make(map[string]*bot.Agent)}
}

func (e *entry) snapshot() (*domain.Game, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.game, e.fault
}

// readable returns the committed game for queries. A game faulted by a later
// mutation is still readable; one that failed validation on load is not.
func (e *entry) readable() (*domain.Game, error) {
	g, fault := e.snapshot()
	if g == nil {
		return nil, fmt.Errorf("%w: %w", ErrGameFaulted, fault)
	}
	return g, nil
}

// Service contains Nomination Whist use-cases operating on domain state.
// Games are independent: each has its own lock and the registry lock is only
// held for lookups.
type Service struct {
	logger runtime.Logger

	mu    sync.RWMutex
	games map[string]*entry

	rngMu sync.Mutex
	rng   *rand.Rand

	store    ports.GameStore
	results  ports.ResultsPort
	defaults domain.Options
	botLevel string
}

// Option configures a Service.
type Option func(*Service)

// WithStore persists every committed game and restores games on lookup.
func WithStore(store ports.GameStore) Option {
	return func(s *Service) { s.store = store }
}

// WithResults records final standings when a game completes.
func WithResults(results ports.ResultsPort) Option {
	return func(s *Service) { s.results = results }
}

// WithRand seeds new games from rng instead of the clock.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithGameOptions sets the options new games start from. A zero Seed means a
// fresh seed is drawn per game.
func WithGameOptions(opts domain.Options) Option {
	return func(s *Service) { s.defaults = opts }
}

// WithBotLevel sets the level used by AddAI when none is given.
func WithBotLevel(level string) Option {
	return func(s *Service) { s.botLevel = level }
}

// NewService constructs a Service. rng defaults to a time-seeded source.
func NewService(logger runtime.Logger, opts ...Option) *Service {
	s := &Service{
		logger:   logger,
		games:    make(map[string]*entry),
		botLevel: DefaultBotLevel,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

func (s *Service) nextSeed() int64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Int63()
}

// lookup returns the registry entry for id, restoring it from the store when
// it is not loaded.
func (s *Service) lookup(ctx context.Context, id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.games[id]
	s.mu.RUnlock()
	if ok {
		return e, nil
	}
	if s.store == nil {
		return nil, ErrGameNotFound
	}

	g, err := s.store.Load(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game %s: %w", id, err)
	}

	var fault error
	if g == nil || g.ID != id {
		fault = fmt.Errorf("%w: stored game does not match id %s", domain.ErrInvariant, id)
	} else {
		fault = g.CheckInvariants()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.games[id]; ok {
		return e, nil
	}
	if fault != nil {
		s.logger.Error("Game %s faulted on load: %v", id, fault)
		e = newEntry(nil)
		e.fault = fault
	} else {
		e = newEntry(g)
		s.logger.Info("Restored game %s at version %d", id, g.Version)
	}
	s.games[id] = e
	return e, nil
}

// CreateGame registers an empty table. An empty gameID gets a generated one.
func (s *Service) CreateGame(ctx context.Context, gameID string) (*domain.Game, error) {
	if gameID == "" {
		gameID = uuid.NewString()
	}
	if s.store != nil {
		_, err := s.store.Load(ctx, gameID)
		if err == nil {
			return nil, ErrGameExists
		}
		if !errors.Is(err, ports.ErrNotFound) {
			return nil, fmt.Errorf("failed to check game %s: %w", gameID, err)
		}
	}

	opts := s.defaults
	if opts.Seed == 0 {
		opts.Seed = s.nextSeed()
	}
	g := domain.NewGame(gameID, opts)

	s.mu.Lock()
	if _, ok := s.games[gameID]; ok {
		s.mu.Unlock()
		return nil, ErrGameExists
	}
	s.games[gameID] = newEntry(g)
	s.mu.Unlock()

	s.persist(ctx, g)
	s.logger.Info("Created game %s", gameID)
	return g.Clone(), nil
}

// Remove drops a game from the registry. Stored state is left untouched.
func (s *Service) Remove(gameID string) {
	s.mu.Lock()
	e, ok := s.games[gameID]
	delete(s.games, gameID)
	s.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, a := range e.agents {
		closeAgent(a)
	}
	e.agents = nil
}

// mutate runs fn on a clone of the committed game, lets AI seats act, checks
// invariants and commits. On any error the committed game is unchanged.
func (s *Service) mutate(ctx context.Context, gameID string, fn func(g *domain.Game) ([]Event, error)) ([]Event, error) {
	e, err := s.lookup(ctx, gameID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fault != nil {
		return nil, fmt.Errorf("%w: %w", ErrGameFaulted, e.fault)
	}

	prev := e.game
	next := prev.Clone()
	events, err := fn(next)
	if err == nil {
		var more []Event
		more, err = s.driveAI(e, next)
		events = append(events, more...)
	}
	if err == nil {
		err = next.CheckInvariants()
	}
	if err != nil {
		if errors.Is(err, domain.ErrInvariant) {
			e.fault = err
			s.logger.Error("Game %s faulted: %v", gameID, err)
			return nil, fmt.Errorf("%w: %w", ErrGameFaulted, err)
		}
		return nil, err
	}

	e.game = next
	s.persist(ctx, next)
	if next.Phase == domain.GamePhaseComplete && prev.Phase != domain.GamePhaseComplete {
		s.recordResults(ctx, next)
	}
	return events, nil
}

func (s *Service) persist(ctx context.Context, g *domain.Game) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, g); err != nil {
		s.logger.Error("Failed to save game %s at version %d: %v", g.ID, g.Version, err)
	}
}

func (s *Service) recordResults(ctx context.Context, g *domain.Game) {
	summary, err := domain.BuildSummary(g)
	if err != nil {
		s.logger.Error("Failed to build summary for game %s: %v", g.ID, err)
		return
	}
	s.logger.Info("Game %s complete, winner %s", g.ID, summary.Standings[0].PlayerID)
	if s.results == nil {
		return
	}
	if err := s.results.RecordResults(ctx, summary); err != nil {
		s.logger.Error("Failed to record results for game %s: %v", g.ID, err)
	}
}

// maybeStart starts a full table where everyone is ready.
func maybeStart(g *domain.Game) []Event {
	if g.Phase != domain.GamePhaseWaiting || g.OpenSeats() > 0 {
		return nil
	}
	if err := g.Start(); err != nil {
		return nil
	}
	return gameStartedEvents(g)
}

// AddPlayer seats a human player.
func (s *Service) AddPlayer(ctx context.Context, gameID, playerID, name string) ([]Event, error) {
	return s.mutate(ctx, gameID, func(g *domain.Game) ([]Event, error) {
		p, err := g.AddPlayer(playerID, name, false, "")
		if err != nil {
			return nil, err
		}
		return append([]Event{playerJoinedEvent(p)}, maybeStart(g)...), nil
	})
}

// AddAI fills the lowest free seat with an AI player. level may be empty.
func (s *Service) AddAI(ctx context.Context, gameID, level string) ([]Event, error) {
	return s.mutate(ctx, gameID, func(g *domain.Game) ([]Event, error) {
		identity := pickIdentity(g)
		lvl, err := bot.ParseLevel(level, "")
		if err == nil && lvl == "" {
			lvl, err = bot.ParseLevel(identity.Level, bot.Level(s.botLevel))
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBotLevel, err)
		}
		p, err := g.AddPlayer(identity.UserID, identity.DisplayName, true, string(lvl))
		if err != nil {
			return nil, err
		}
		return append([]Event{playerJoinedEvent(p)}, maybeStart(g)...), nil
	})
}

func pickIdentity(g *domain.Game) bot.BotIdentity {
	for i := 0; ; i++ {
		id := bot.GetBotIdentity(i)
		if _, seated := g.Player(id.UserID); !seated {
			return id
		}
		if i > 64 {
			// Every pooled identity is already seated here.
			id.UserID = fmt.Sprintf("%s-%d", id.UserID, i)
			return id
		}
	}
}

// Leave frees the player's seat. Only allowed while the game is waiting.
func (s *Service) Leave(ctx context.Context, gameID, playerID string) ([]Event, error) {
	return s.mutate(ctx, gameID, func(g *domain.Game) ([]Event, error) {
		p, err := g.RemovePlayer(playerID)
		if err != nil {
			return nil, err
		}
		return []Event{{Kind: EventPlayerLeft, Payload: PlayerLeftPayload{PlayerID: p.ID, Seat: p.Seat}}}, nil
	})
}

// MarkReady flags the player ready. The game starts when the table is full
// and everybody is ready.
func (s *Service) MarkReady(ctx context.Context, gameID, playerID string) ([]Event, error) {
	return s.mutate(ctx, gameID, func(g *domain.Game) ([]Event, error) {
		started, err := g.MarkReady(playerID)
		if err != nil {
			return nil, err
		}
		p, _ := g.Player(playerID)
		events := []Event{{Kind: EventPlayerReady, Payload: PlayerReadyPayload{PlayerID: p.ID, Seat: p.Seat}}}
		if started {
			events = append(events, gameStartedEvents(g)...)
		}
		return events, nil
	})
}

// Start begins the game on behalf of a seated player.
func (s *Service) Start(ctx context.Context, gameID, playerID string) ([]Event, error) {
	return s.mutate(ctx, gameID, func(g *domain.Game) ([]Event, error) {
		if _, ok := g.Player(playerID); !ok {
			return nil, domain.ErrUnknownPlayer
		}
		if err := g.Start(); err != nil {
			return nil, err
		}
		return gameStartedEvents(g), nil
	})
}

// SubmitBid records the player's bid.
func (s *Service) SubmitBid(ctx context.Context, gameID, playerID string, value int) ([]Event, error) {
	return s.mutate(ctx, gameID, func(g *domain.Game) ([]Event, error) {
		return applyBid(g, playerID, value)
	})
}

// ChooseTrump sets the round's trump.
func (s *Service) ChooseTrump(ctx context.Context, gameID, playerID string, trump domain.Trump) ([]Event, error) {
	return s.mutate(ctx, gameID, func(g *domain.Game) ([]Event, error) {
		return applyTrump(g, playerID, trump)
	})
}

// PlayCard plays a card to the current trick.
func (s *Service) PlayCard(ctx context.Context, gameID, playerID string, card domain.Card) ([]Event, error) {
	return s.mutate(ctx, gameID, func(g *domain.Game) ([]Event, error) {
		return applyPlay(g, playerID, card)
	})
}

func applyBid(g *domain.Game, playerID string, value int) ([]Event, error) {
	if err := g.SubmitBid(playerID, value); err != nil {
		return nil, err
	}
	p, _ := g.Player(playerID)
	r := g.Round
	events := []Event{{
		Kind:    EventBidPlaced,
		Payload: BidPlacedPayload{PlayerID: p.ID, Seat: p.Seat, Value: value, NextSeat: g.TurnSeat()},
	}}
	if r.Phase == domain.RoundPhaseTrumpSelection {
		best, _ := domain.HighestBidder(r.Bids)
		events = append(events, Event{
			Kind: EventBiddingComplete,
			Payload: BiddingCompletePayload{
				Bids:         append([]domain.Bid(nil), r.Bids...),
				TrumpChooser: r.TrumpChooser,
				HighestBid:   best.Value,
			},
		})
	}
	return events, nil
}

func applyTrump(g *domain.Game, playerID string, trump domain.Trump) ([]Event, error) {
	if err := g.ChooseTrump(playerID, trump); err != nil {
		return nil, err
	}
	p, _ := g.Player(playerID)
	return []Event{{
		Kind:    EventTrumpChosen,
		Payload: TrumpChosenPayload{PlayerID: p.ID, Seat: p.Seat, Trump: trump, Leader: g.TurnSeat()},
	}}, nil
}

func applyPlay(g *domain.Game, playerID string, card domain.Card) ([]Event, error) {
	p, ok := g.Player(playerID)
	if !ok {
		return nil, domain.ErrUnknownPlayer
	}
	seat := p.Seat
	out, err := g.PlayCard(playerID, card)
	if err != nil {
		return nil, err
	}
	events := []Event{{
		Kind:    EventCardPlayed,
		Payload: CardPlayedPayload{PlayerID: playerID, Seat: seat, Card: card, NextSeat: g.TurnSeat()},
	}}
	if out.Trick != nil {
		events = append(events, Event{
			Kind:    EventTrickCompleted,
			Payload: TrickCompletedPayload{Number: out.Trick.Number, Plays: out.Trick.Plays, Winner: out.Trick.Winner},
		})
	}
	if out.Result != nil {
		events = append(events, Event{
			Kind:    EventRoundScored,
			Payload: RoundScoredPayload{Result: *out.Result, Totals: totals(g)},
		})
		if out.GameComplete {
			events = append(events, Event{
				Kind:    EventGameEnded,
				Payload: GameEndedPayload{Standings: domain.Standings(g)},
			})
		} else {
			events = append(events, roundStartedEvents(g)...)
		}
	}
	return events, nil
}

// View renders the game for viewerID. Unknown viewers get the public view.
func (s *Service) View(ctx context.Context, gameID, viewerID string) (domain.GameView, error) {
	e, err := s.lookup(ctx, gameID)
	if err != nil {
		return domain.GameView{}, err
	}
	g, err := e.readable()
	if err != nil {
		return domain.GameView{}, err
	}
	return domain.BuildView(g, viewerID), nil
}

// Summary returns the final standings of a completed game.
func (s *Service) Summary(ctx context.Context, gameID string) (domain.GameSummary, error) {
	e, err := s.lookup(ctx, gameID)
	if err != nil {
		return domain.GameSummary{}, err
	}
	g, err := e.readable()
	if err != nil {
		return domain.GameSummary{}, err
	}
	return domain.BuildSummary(g)
}

// Game returns a deep copy of the committed game.
func (s *Service) Game(ctx context.Context, gameID string) (*domain.Game, error) {
	e, err := s.lookup(ctx, gameID)
	if err != nil {
		return nil, err
	}
	g, err := e.readable()
	if err != nil {
		return nil, err
	}
	return g.Clone(), nil
}

// GameInfo is a lobby listing entry.
type GameInfo struct {
	ID        string `json:"id"`
	OpenSeats int    `json:"open_seats"`
	Players   int    `json:"players"`
}

// OpenGames lists loaded games that are still waiting for players.
func (s *Service) OpenGames() []GameInfo {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.games))
	for _, e := range s.games {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	var out []GameInfo
	for _, e := range entries {
		g, fault := e.snapshot()
		if fault != nil || g.Phase != domain.GamePhaseWaiting || g.OpenSeats() == 0 {
			continue
		}
		open := g.OpenSeats()
		out = append(out, GameInfo{ID: g.ID, OpenSeats: open, Players: domain.PlayerCount - open})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
