// Package ws serves whist tables over plain websockets for local play and
// development without a Nakama cluster.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"whist/internal/app"
	"whist/internal/auth"
	"whist/internal/domain"
)

const (
	sendBuffer   = 256
	pingInterval = 15 * time.Second
	writeTimeout = 10 * time.Second
)

// Request is a client frame.
type Request struct {
	T      string `json:"t"`
	GameID string `json:"game_id,omitempty"`
	Value  *int   `json:"value,omitempty"`
	Trump  string `json:"trump,omitempty"`
	Card   string `json:"card,omitempty"`
	Level  string `json:"level,omitempty"`
	AI     int    `json:"ai,omitempty"`
}

// Msg is a server frame.
type Msg struct {
	T string      `json:"t"`
	M interface{} `json:"m,omitempty"`
}

// EventMsg wraps an app event.
type EventMsg struct {
	Kind    app.EventKind `json:"kind"`
	Payload interface{}   `json:"payload"`
}

// ErrorMsg is sent to the one client whose request failed.
type ErrorMsg struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type client struct {
	playerID string
	name     string
	conn     *websocket.Conn
	send     chan Msg
	done     chan struct{}

	// gameID is only touched by the client's reader goroutine.
	gameID string
}

// Server is an http.Handler that upgrades to websocket and drives tables
// through the app service.
type Server struct {
	app      *app.Service
	verifier *auth.Verifier
	logger   runtime.Logger
	origins  []string

	mu     sync.RWMutex
	tables map[string]map[*client]struct{}
}

// NewServer creates a Server. With a nil verifier callers identify
// themselves with the player query parameter; use that only for local play.
func NewServer(svc *app.Service, verifier *auth.Verifier, logger runtime.Logger, origins []string) *Server {
	return &Server{
		app:      svc,
		verifier: verifier,
		logger:   logger,
		origins:  origins,
		tables:   make(map[string]map[*client]struct{}),
	}
}

func (s *Server) authenticate(r *http.Request) (string, error) {
	if s.verifier == nil {
		if id := r.URL.Query().Get("player"); id != "" {
			return id, nil
		}
		return "", errors.New("player is required")
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	identity, err := s.verifier.Verify(token)
	if err != nil {
		return "", err
	}
	return identity.Subject, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playerID, err := s.authenticate(r)
	if err != nil {
		s.logger.Warn("Rejected websocket from %s: %v", r.RemoteAddr, err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.origins})
	if err != nil {
		s.logger.Warn("Websocket accept failed: %v", err)
		return
	}

	c := &client{
		playerID: playerID,
		name:     r.URL.Query().Get("name"),
		conn:     conn,
		send:     make(chan Msg, sendBuffer),
		done:     make(chan struct{}),
	}
	s.logger.Info("Player %s connected", playerID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go s.writeLoop(ctx, c)

	s.readLoop(ctx, c)

	close(c.done)
	s.disconnect(c)
	s.logger.Info("Player %s disconnected", playerID)
}

func (s *Server) writeLoop(ctx context.Context, c *client) {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
	}()
	for {
		select {
		case msg := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, c.conn, msg)
			cancel()
			if err != nil {
				s.logger.Debug("Write to %s failed: %v", c.playerID, err)
				return
			}
		case <-ping.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) readLoop(ctx context.Context, c *client) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			s.sendError(c, "bad_request", fmt.Sprintf("invalid frame: %v", err))
			continue
		}
		s.handle(ctx, c, req)
	}
}

func (s *Server) sendTo(c *client, msg Msg) {
	select {
	case c.send <- msg:
	case <-c.done:
	}
}

func (s *Server) sendError(c *client, code, message string) {
	s.sendTo(c, Msg{T: "error", M: ErrorMsg{Code: code, Message: message}})
}

func (s *Server) subscribe(c *client, gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.gameID != "" {
		delete(s.tables[c.gameID], c)
	}
	subs, ok := s.tables[gameID]
	if !ok {
		subs = make(map[*client]struct{})
		s.tables[gameID] = subs
	}
	subs[c] = struct{}{}
	c.gameID = gameID
}

func (s *Server) unsubscribe(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if subs, ok := s.tables[c.gameID]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(s.tables, c.gameID)
		}
	}
	c.gameID = ""
}

func (s *Server) subscribers(gameID string) []*client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*client, 0, len(s.tables[gameID]))
	for c := range s.tables[gameID] {
		out = append(out, c)
	}
	return out
}

func (s *Server) handle(ctx context.Context, c *client, req Request) {
	var (
		events []app.Event
		err    error
	)

	switch req.T {
	case "list_tables":
		s.sendTo(c, Msg{T: "tables", M: s.app.OpenGames()})
		return
	case "create_table":
		s.createTable(ctx, c, req)
		return
	case "join_table":
		if err := s.joinTable(ctx, c, req.GameID); err != nil {
			s.fail(c, err)
		}
		return
	case "state":
		s.sendState(ctx, c)
		return
	}

	if c.gameID == "" {
		s.sendError(c, "no_table", "join a table first")
		return
	}
	gameID := c.gameID

	switch req.T {
	case "leave_table":
		events, err = s.app.Leave(ctx, gameID, c.playerID)
		if err == nil {
			s.unsubscribe(c)
		}
	case "ready":
		events, err = s.app.MarkReady(ctx, gameID, c.playerID)
	case "start":
		events, err = s.app.Start(ctx, gameID, c.playerID)
	case "add_ai":
		events, err = s.app.AddAI(ctx, gameID, req.Level)
	case "bid":
		if req.Value == nil {
			s.sendError(c, "bad_request", "value is required")
			return
		}
		events, err = s.app.SubmitBid(ctx, gameID, c.playerID, *req.Value)
	case "trump":
		var trump domain.Trump
		if trump, err = domain.ParseTrump(req.Trump); err == nil {
			events, err = s.app.ChooseTrump(ctx, gameID, c.playerID, trump)
		}
	case "play":
		card, perr := domain.ParseCard(req.Card)
		if perr != nil {
			s.sendError(c, "bad_request", perr.Error())
			return
		}
		events, err = s.app.PlayCard(ctx, gameID, c.playerID, card)
	case "summary":
		summary, serr := s.app.Summary(ctx, gameID)
		if serr != nil {
			s.fail(c, serr)
			return
		}
		s.sendTo(c, Msg{T: "summary", M: summary})
		return
	default:
		s.sendError(c, "bad_request", fmt.Sprintf("unknown request %q", req.T))
		return
	}

	if err != nil {
		s.fail(c, err)
		return
	}
	s.publish(ctx, gameID, events)
	if req.T == "leave_table" {
		s.sendTo(c, Msg{T: "left", M: map[string]string{"game_id": gameID}})
	}
}

func (s *Server) createTable(ctx context.Context, c *client, req Request) {
	if req.AI < 0 || req.AI >= domain.PlayerCount {
		s.sendError(c, "bad_request", "ai must be between 0 and 3")
		return
	}
	g, err := s.app.CreateGame(ctx, "")
	if err != nil {
		s.fail(c, err)
		return
	}
	s.sendTo(c, Msg{T: "created", M: map[string]string{"game_id": g.ID}})
	if err := s.joinTable(ctx, c, g.ID); err != nil {
		s.fail(c, err)
		return
	}
	for i := 0; i < req.AI; i++ {
		events, err := s.app.AddAI(ctx, g.ID, req.Level)
		if err != nil {
			s.fail(c, err)
			return
		}
		s.publish(ctx, g.ID, events)
	}
}

// joinTable seats the client, or just subscribes when it is already seated.
func (s *Server) joinTable(ctx context.Context, c *client, gameID string) error {
	g, err := s.app.Game(ctx, gameID)
	if err != nil {
		return err
	}
	if _, seated := g.Player(c.playerID); seated {
		s.subscribe(c, gameID)
		s.sendState(ctx, c)
		return nil
	}
	events, err := s.app.AddPlayer(ctx, gameID, c.playerID, c.name)
	if err != nil {
		return err
	}
	s.subscribe(c, gameID)
	s.publish(ctx, gameID, events)
	return nil
}

// publish fans events out to a table and then refreshes every subscriber's view.
func (s *Server) publish(ctx context.Context, gameID string, events []app.Event) {
	subs := s.subscribers(gameID)
	for _, ev := range events {
		msg := Msg{T: "event", M: EventMsg{Kind: ev.Kind, Payload: ev.Payload}}
		for _, c := range subs {
			if len(ev.Recipients) == 0 || contains(ev.Recipients, c.playerID) {
				s.sendTo(c, msg)
			}
		}
	}
	for _, c := range subs {
		s.sendView(ctx, c, gameID)
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func (s *Server) sendState(ctx context.Context, c *client) {
	if c.gameID == "" {
		s.sendError(c, "no_table", "join a table first")
		return
	}
	s.sendView(ctx, c, c.gameID)
}

func (s *Server) sendView(ctx context.Context, c *client, gameID string) {
	view, err := s.app.View(ctx, gameID, c.playerID)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.sendTo(c, Msg{T: "state", M: view})
}

func (s *Server) fail(c *client, err error) {
	s.sendError(c, app.ErrorCode(err), err.Error())
}


// disconnect frees the seat of a player who drops out before the game starts.
func (s *Server) disconnect(c *client) {
	gameID := c.gameID
	if gameID == "" {
		return
	}
	s.unsubscribe(c)

	ctx := context.Background()
	g, err := s.app.Game(ctx, gameID)
	if err != nil || g.Phase != domain.GamePhaseWaiting {
		return
	}
	events, err := s.app.Leave(ctx, gameID, c.playerID)
	if err != nil {
		return
	}
	s.publish(ctx, gameID, events)
	if len(s.subscribers(gameID)) == 0 {
		s.app.Remove(gameID)
	}
}
