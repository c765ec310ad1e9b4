package app

import "whist/internal/domain"

// EventKind identifies emitted domain events for transport dispatch.
type EventKind string

const (
	EventPlayerJoined    EventKind = "player_joined"
	EventPlayerLeft      EventKind = "player_left"
	EventPlayerReady     EventKind = "player_ready"
	EventGameStarted     EventKind = "game_started"
	EventRoundStarted    EventKind = "round_started"
	EventHandDealt       EventKind = "hand_dealt"
	EventBidPlaced       EventKind = "bid_placed"
	EventBiddingComplete EventKind = "bidding_complete"
	EventTrumpChosen     EventKind = "trump_chosen"
	EventCardPlayed      EventKind = "card_played"
	EventTrickCompleted  EventKind = "trick_completed"
	EventRoundScored     EventKind = "round_scored"
	EventGameEnded       EventKind = "game_ended"
)

// Event is a domain/app event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []string // player IDs; empty means broadcast
}

type PlayerJoinedPayload struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Seat     int    `json:"seat"`
	IsAI     bool   `json:"is_ai"`
}

type PlayerLeftPayload struct {
	PlayerID string `json:"player_id"`
	Seat     int    `json:"seat"`
}

type PlayerReadyPayload struct {
	PlayerID string `json:"player_id"`
	Seat     int    `json:"seat"`
}

type GameStartedPayload struct {
	GameID  string   `json:"game_id"`
	Players []string `json:"players"` // by seat
}

type RoundStartedPayload struct {
	Round       int `json:"round"`
	CardsDealt  int `json:"cards_dealt"`
	Dealer      int `json:"dealer"`
	FirstBidder int `json:"first_bidder"`
}

type HandDealtPayload struct {
	PlayerID string        `json:"player_id"`
	Round    int           `json:"round"`
	Hand     []domain.Card `json:"hand"`
}

type BidPlacedPayload struct {
	PlayerID string `json:"player_id"`
	Seat     int    `json:"seat"`
	Value    int    `json:"value"`
	NextSeat int    `json:"next_seat"`
}

type BiddingCompletePayload struct {
	Bids         []domain.Bid `json:"bids"`
	TrumpChooser int          `json:"trump_chooser"`
	HighestBid   int          `json:"highest_bid"`
}

type TrumpChosenPayload struct {
	PlayerID string       `json:"player_id"`
	Seat     int          `json:"seat"`
	Trump    domain.Trump `json:"trump"`
	Leader   int          `json:"leader"`
}

type CardPlayedPayload struct {
	PlayerID string      `json:"player_id"`
	Seat     int         `json:"seat"`
	Card     domain.Card `json:"card"`
	NextSeat int         `json:"next_seat"`
}

type TrickCompletedPayload struct {
	Number int           `json:"number"`
	Plays  []domain.Play `json:"plays"`
	Winner int           `json:"winner"`
}

type RoundScoredPayload struct {
	Result domain.RoundResult `json:"result"`
	Totals []int              `json:"totals"` // by seat
}

type GameEndedPayload struct {
	Standings []domain.Standing `json:"standings"`
}

func playerJoinedEvent(p *domain.Player) Event {
	return Event{
		Kind:    EventPlayerJoined,
		Payload: PlayerJoinedPayload{PlayerID: p.ID, Name: p.Name, Seat: p.Seat, IsAI: p.IsAI},
	}
}

func gameStartedEvents(g *domain.Game) []Event {
	ids := make([]string, 0, domain.PlayerCount)
	for _, p := range g.Seats {
		ids = append(ids, p.ID)
	}
	events := []Event{{Kind: EventGameStarted, Payload: GameStartedPayload{GameID: g.ID, Players: ids}}}
	return append(events, roundStartedEvents(g)...)
}

// roundStartedEvents announces the deal and sends each hand to its owner only.
func roundStartedEvents(g *domain.Game) []Event {
	r := g.Round
	events := make([]Event, 0, domain.PlayerCount+1)
	events = append(events, Event{
		Kind: EventRoundStarted,
		Payload: RoundStartedPayload{
			Round:       r.Number,
			CardsDealt:  r.CardsDealt,
			Dealer:      r.Dealer,
			FirstBidder: domain.NextSeat(r.Dealer),
		},
	})
	for _, p := range g.Seats {
		events = append(events, Event{
			Kind: EventHandDealt,
			Payload: HandDealtPayload{
				PlayerID: p.ID,
				Round:    r.Number,
				Hand:     append([]domain.Card(nil), p.Hand...),
			},
			Recipients: []string{p.ID},
		})
	}
	return events
}

func totals(g *domain.Game) []int {
	out := make([]int, domain.PlayerCount)
	for seat, p := range g.Seats {
		if p != nil {
			out[seat] = p.Score
		}
	}
	return out
}
