package domain

import "fmt"

// NewGame creates an empty table waiting for players.
func NewGame(id string, opts Options) *Game {
	if opts.LeadRule == "" {
		opts.LeadRule = LeadAfterTrumpChooser
	}
	opts.FirstDealer = SeatAfter(opts.FirstDealer, 0)
	return &Game{
		ID:      id,
		Phase:   GamePhaseWaiting,
		Options: opts,
	}
}

// Player looks up a seated player by id.
func (g *Game) Player(id string) (*Player, bool) {
	for _, p := range g.Seats {
		if p != nil && p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// OpenSeats counts empty seats.
func (g *Game) OpenSeats() int {
	n := 0
	for _, p := range g.Seats {
		if p == nil {
			n++
		}
	}
	return n
}

// RoundNumber returns the current round, or 0 before the game starts.
func (g *Game) RoundNumber() int {
	if g.Round == nil {
		return 0
	}
	return g.Round.Number
}

// TurnSeat returns the seat expected to act next, or -1 when nobody is.
func (g *Game) TurnSeat() int {
	if g.Phase != GamePhaseInProgress || g.Round == nil {
		return -1
	}
	r := g.Round
	switch r.Phase {
	case RoundPhaseBidding:
		return SeatAfter(r.Dealer, 1+len(r.Bids))
	case RoundPhaseTrumpSelection:
		return r.TrumpChooser
	case RoundPhasePlaying:
		t := r.CurrentTrick()
		if t == nil {
			return -1
		}
		return SeatAfter(t.Leader, len(t.Plays))
	}
	return -1
}

// AddPlayer seats a player in the lowest free seat. AI players are always ready.
func (g *Game) AddPlayer(id, name string, isAI bool, aiLevel string) (*Player, error) {
	if g.Phase != GamePhaseWaiting {
		return nil, ErrGameNotJoinable
	}
	if _, ok := g.Player(id); ok {
		return nil, ErrAlreadySeated
	}
	for seat, p := range g.Seats {
		if p != nil {
			continue
		}
		if name == "" {
			name = id
		}
		player := &Player{
			ID:      id,
			Name:    name,
			Seat:    seat,
			IsAI:    isAI,
			AILevel: aiLevel,
			Ready:   isAI,
		}
		g.Seats[seat] = player
		g.Version++
		return player, nil
	}
	return nil, ErrGameFull
}

// RemovePlayer frees a seat. Only allowed before the game starts.
func (g *Game) RemovePlayer(id string) (*Player, error) {
	if g.Phase != GamePhaseWaiting {
		return nil, ErrWrongPhase
	}
	p, ok := g.Player(id)
	if !ok {
		return nil, ErrUnknownPlayer
	}
	g.Seats[p.Seat] = nil
	g.Version++
	return p, nil
}

// MarkReady flags a player as ready. When the table is full and everyone is
// ready the game starts and round 1 is dealt; started reports that transition.
func (g *Game) MarkReady(id string) (started bool, err error) {
	if g.Phase != GamePhaseWaiting {
		return false, ErrWrongPhase
	}
	p, ok := g.Player(id)
	if !ok {
		return false, ErrUnknownPlayer
	}
	p.Ready = true
	g.Version++
	if g.canStart() {
		g.start()
		return true, nil
	}
	return false, nil
}

// Start begins the game explicitly.
func (g *Game) Start() error {
	if g.Phase != GamePhaseWaiting {
		return ErrWrongPhase
	}
	if !g.canStart() {
		return ErrNotReady
	}
	g.start()
	g.Version++
	return nil
}

func (g *Game) canStart() bool {
	for _, p := range g.Seats {
		if p == nil || !p.Ready {
			return false
		}
	}
	return true
}

func (g *Game) start() {
	g.Phase = GamePhaseInProgress
	for _, p := range g.Seats {
		p.Score = 0
	}
	g.History = nil
	g.deal(1)
}

func (g *Game) deal(number int) {
	cards := CardsDealt(number)
	dealer := DealerForRound(g.Options.FirstDealer, number)
	deck := Shuffle(NewDeck(), g.Options.Seed+int64(number))
	hands := Deal(deck, cards, dealer)
	for seat, p := range g.Seats {
		p.Hand = hands[seat]
	}
	g.Round = &Round{
		Number:       number,
		CardsDealt:   cards,
		Dealer:       dealer,
		Phase:        RoundPhaseBidding,
		Bids:         make([]Bid, 0, PlayerCount),
		TrumpChooser: -1,
		Tricks:       make([]Trick, 0, cards),
	}
}

func (g *Game) activeRound() (*Round, error) {
	if g.Phase != GamePhaseInProgress || g.Round == nil {
		return nil, ErrWrongPhase
	}
	return g.Round, nil
}

// SubmitBid records a bid for the awaited bidder. A repeat bid from the same
// player in the same round is rejected with ErrAlreadyBid regardless of phase.
func (g *Game) SubmitBid(playerID string, value int) error {
	r, err := g.activeRound()
	if err != nil {
		return err
	}
	p, ok := g.Player(playerID)
	if !ok {
		return ErrUnknownPlayer
	}
	if _, bid := r.BidOf(p.Seat); bid {
		return ErrAlreadyBid
	}
	if r.Phase != RoundPhaseBidding {
		return ErrWrongPhase
	}
	if p.Seat != g.TurnSeat() {
		return ErrOutOfTurn
	}
	lo, hi := LegalBidRange(r.CardsDealt)
	if value < lo || value > hi {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidBid, value, lo, hi)
	}

	r.Bids = append(r.Bids, Bid{Seat: p.Seat, Value: value})
	if len(r.Bids) == PlayerCount {
		best, _ := HighestBidder(r.Bids)
		r.TrumpChooser = best.Seat
		r.Phase = RoundPhaseTrumpSelection
	}
	g.Version++
	return nil
}

// FirstLeader returns the seat that leads trick one under the game's lead rule.
func (g *Game) FirstLeader() int {
	if g.Round == nil {
		return -1
	}
	if g.Options.LeadRule == LeadAfterDealer {
		return NextSeat(g.Round.Dealer)
	}
	return NextSeat(g.Round.TrumpChooser)
}

// ChooseTrump sets the trump for the round and opens the first trick.
func (g *Game) ChooseTrump(playerID string, trump Trump) error {
	r, err := g.activeRound()
	if err != nil {
		return err
	}
	p, ok := g.Player(playerID)
	if !ok {
		return ErrUnknownPlayer
	}
	if r.Trump != TrumpUnset {
		return ErrAlreadyChosen
	}
	if r.Phase != RoundPhaseTrumpSelection {
		return ErrWrongPhase
	}
	if p.Seat != r.TrumpChooser {
		return ErrNotTrumpChooser
	}
	if !trump.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTrump, trump)
	}

	r.Trump = trump
	r.Phase = RoundPhasePlaying
	r.Tricks = append(r.Tricks, Trick{Number: 1, Leader: g.FirstLeader(), Winner: -1})
	g.Version++
	return nil
}

// PlayOutcome describes what a successful play completed, if anything.
type PlayOutcome struct {
	// Trick is set when the play sealed a trick.
	Trick *Trick
	// Result is set when the play finished the round.
	Result *RoundResult
	// GameComplete is true when the finished round was the last one.
	GameComplete bool
}

// PlayCard plays a card to the current trick. A fourth card seals the trick and
// the winner leads the next one. Sealing the last trick scores the round, folds
// the points into running totals and deals the next round or ends the game.
func (g *Game) PlayCard(playerID string, card Card) (PlayOutcome, error) {
	var out PlayOutcome
	r, err := g.activeRound()
	if err != nil {
		return out, err
	}
	p, ok := g.Player(playerID)
	if !ok {
		return out, ErrUnknownPlayer
	}
	if r.Phase != RoundPhasePlaying {
		return out, ErrWrongPhase
	}
	t := r.CurrentTrick()
	if t == nil {
		return out, fmt.Errorf("%w: no open trick", ErrInvariant)
	}
	if p.Seat != g.TurnSeat() {
		return out, ErrOutOfTurn
	}
	if !ContainsCard(p.Hand, card) {
		return out, fmt.Errorf("%w: %s", ErrCardNotInHand, card)
	}
	if !IsLegalPlay(p.Hand, card, t.LedSuit()) {
		return out, fmt.Errorf("%w: %s led, played %s", ErrIllegalPlay, t.LedSuit(), card)
	}

	p.Hand = RemoveCard(p.Hand, card)
	t.Plays = append(t.Plays, Play{Seat: p.Seat, Card: card})
	g.Version++

	if !t.Complete() {
		return out, nil
	}

	winner, _ := TrickWinner(t.Plays, r.Trump)
	t.Winner = winner.Seat
	sealed := *t
	sealed.Plays = append([]Play(nil), t.Plays...)
	out.Trick = &sealed

	if len(r.Tricks) < r.CardsDealt {
		r.Tricks = append(r.Tricks, Trick{Number: len(r.Tricks) + 1, Leader: winner.Seat, Winner: -1})
		return out, nil
	}

	result := g.finishRound()
	out.Result = &result
	out.GameComplete = g.Phase == GamePhaseComplete
	return out, nil
}

func (g *Game) finishRound() RoundResult {
	r := g.Round
	r.Phase = RoundPhaseScoring
	r.Scores = ScoreRound(r.Bids, r.Tricks)
	for _, s := range r.Scores {
		g.Seats[s.Seat].Score += s.Points
	}
	r.Phase = RoundPhaseComplete

	result := RoundResult{
		Round:        r.Number,
		CardsDealt:   r.CardsDealt,
		Dealer:       r.Dealer,
		Trump:        r.Trump,
		TrumpChooser: r.TrumpChooser,
		Scores:       append([]RoundScore(nil), r.Scores...),
	}
	g.History = append(g.History, result)

	if r.Number >= TotalRounds {
		g.Phase = GamePhaseComplete
		return result
	}
	g.deal(r.Number + 1)
	return result
}

// Clone returns a deep copy that shares no mutable state with g.
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	c := *g
	for i, p := range g.Seats {
		if p == nil {
			continue
		}
		cp := *p
		cp.Hand = append([]Card(nil), p.Hand...)
		c.Seats[i] = &cp
	}
	if g.Round != nil {
		r := *g.Round
		r.Bids = append([]Bid(nil), g.Round.Bids...)
		r.Scores = append([]RoundScore(nil), g.Round.Scores...)
		r.Tricks = make([]Trick, len(g.Round.Tricks), cap(g.Round.Tricks))
		for i, t := range g.Round.Tricks {
			t.Plays = append([]Play(nil), t.Plays...)
			r.Tricks[i] = t
		}
		c.Round = &r
	}
	c.History = make([]RoundResult, len(g.History))
	for i, h := range g.History {
		h.Scores = append([]RoundScore(nil), h.Scores...)
		c.History[i] = h
	}
	return &c
}
