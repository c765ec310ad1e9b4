package nakama

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"whist/internal/app"
	"whist/internal/domain"
	"whist/internal/ports"
)

const (
	defaultBotAutoFillDelay = 10 // ticks
	tickRate                = 1
)

// MatchState holds the runtime state of one table. The game itself lives in
// the app service under the match id.
type MatchState struct {
	GameID               string                      `json:"game_id"`
	Tick                 int64                       `json:"tick"`
	Presences            map[string]runtime.Presence `json:"-"` // Map UserId -> Presence for targeted messaging
	App                  *app.Service                `json:"-"`
	Accounts             ports.AccountPort           `json:"-"`
	BotsEnabled          bool                        `json:"bots_enabled"`
	BotLevel             string                      `json:"bot_level"`
	BotAutoFillDelay     int                         `json:"bot_auto_fill_delay"` // Ticks a lone human waits before AI fill the table
	LastSinglePlayerTick int64                       `json:"last_single_player_tick"`
}

type matchHandler struct {
	app      *app.Service
	accounts ports.AccountPort
}

func newMatchHandler(svc *app.Service, accounts ports.AccountPort) *matchHandler {
	return &matchHandler{app: svc, accounts: accounts}
}

// MatchInit is called when the match is created. The match id doubles as the
// game id so a restarted match finds its stored game.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	logger.Debug("MatchInit: Initializing match %s.", matchID)

	state := &MatchState{
		GameID:           matchID,
		Presences:        make(map[string]runtime.Presence),
		App:              mh.app,
		Accounts:         mh.accounts,
		BotsEnabled:      true,
		BotAutoFillDelay: defaultBotAutoFillDelay,
	}

	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		if val, ok := env["whist_bots_enabled"]; ok {
			state.BotsEnabled = val == "true"
		}
		if val, ok := env["whist_bot_auto_fill_delay_sec"]; ok {
			if i, err := strconv.Atoi(val); err == nil {
				state.BotAutoFillDelay = i * tickRate
			}
		}
	}
	if level, ok := params["bot_level"].(string); ok {
		state.BotLevel = level
	}

	if _, err := state.App.CreateGame(ctx, state.GameID); err != nil && !errors.Is(err, app.ErrGameExists) {
		logger.Error("MatchInit: Failed to create game %s: %v", state.GameID, err)
		return nil, 0, ""
	}

	// A table may be created with AI already seated.
	if n, ok := params["ai"].(float64); ok {
		for i := 0; i < int(n) && i < domain.PlayerCount; i++ {
			if _, err := state.App.AddAI(ctx, state.GameID, state.BotLevel); err != nil {
				logger.Warn("MatchInit: Failed to add AI: %v", err)
				break
			}
		}
	}

	label, err := mh.buildLabel(ctx, state)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	return state, tickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	g, err := matchState.App.Game(ctx, matchState.GameID)
	if err != nil {
		return state, false, "game not found"
	}
	// Seated players may always come back.
	if _, seated := g.Player(presence.GetUserId()); seated {
		return state, true, ""
	}
	if g.Phase != domain.GamePhaseWaiting {
		return state, false, "Game already started"
	}
	if g.OpenSeats() == 0 {
		return state, false, "Match full"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		matchState.Presences[userID] = p

		g, err := matchState.App.Game(ctx, matchState.GameID)
		if err != nil {
			logger.Error("MatchJoin: %v", err)
			continue
		}
		if _, seated := g.Player(userID); seated {
			logger.Info("MatchJoin: User %s rejoined game %s.", userID, matchState.GameID)
			continue
		}

		events, err := matchState.App.AddPlayer(ctx, matchState.GameID, userID, mh.displayName(ctx, matchState, p, logger))
		if err != nil {
			logger.Warn("MatchJoin: User %s joined but could not be seated: %v", userID, err)
			mh.sendError(matchState, dispatcher, logger, userID, err)
			continue
		}
		mh.broadcastEvents(matchState, dispatcher, logger, events)
	}

	mh.updateLabel(ctx, matchState, dispatcher, logger)
	mh.sendSnapshots(ctx, matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) displayName(ctx context.Context, state *MatchState, p runtime.Presence, logger runtime.Logger) string {
	if state.Accounts != nil {
		name, err := state.Accounts.DisplayName(ctx, p.GetUserId())
		if err == nil && name != "" {
			return name
		}
		if err != nil {
			logger.Warn("MatchJoin: Failed to get display name for %s: %v", p.GetUserId(), err)
		}
	}
	return p.GetUsername()
}

// MatchLeave is called when one or more players leave the match. Waiting
// tables free the seat; started games keep it so the player can rejoin.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(matchState.Presences, userID)

		g, err := matchState.App.Game(ctx, matchState.GameID)
		if err != nil || g.Phase != domain.GamePhaseWaiting {
			continue
		}
		events, err := matchState.App.Leave(ctx, matchState.GameID, userID)
		if err != nil {
			logger.Debug("MatchLeave: %s was not seated: %v", userID, err)
			continue
		}
		logger.Debug("MatchLeave: User %s left, seat freed.", userID)
		mh.broadcastEvents(matchState, dispatcher, logger, events)
	}

	if len(matchState.Presences) == 0 {
		// Nakama does not call MatchTerminate for a match ended this way.
		logger.Info("MatchLeave: Terminating match %s with no humans.", matchState.GameID)
		matchState.App.Remove(matchState.GameID)
		return nil
	}

	mh.updateLabel(ctx, matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	changed := false
	for _, msg := range messages {
		if mh.handleMessage(ctx, matchState, dispatcher, logger, msg) {
			changed = true
		}
	}

	if matchState.BotsEnabled && mh.processBots(ctx, matchState, dispatcher, logger) {
		changed = true
	}

	if changed {
		mh.updateLabel(ctx, matchState, dispatcher, logger)
		mh.sendSnapshots(ctx, matchState, dispatcher, logger)
	}
	return matchState
}

// handleMessage applies one client command. It reports whether the game changed.
func (mh *matchHandler) handleMessage(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) bool {
	senderID := msg.GetUserId()

	if msg.GetOpCode() == OpRequestState {
		mh.sendSnapshot(ctx, state, dispatcher, logger, senderID)
		return false
	}

	req, err := decodeRequest(msg.GetData())
	if err != nil {
		logger.Warn("handleMessage: Invalid request from %s (op %d): %v", senderID, msg.GetOpCode(), err)
		mh.sendErrorCode(state, dispatcher, logger, senderID, "bad_request", err.Error())
		return false
	}

	var events []app.Event
	switch msg.GetOpCode() {
	case OpReady:
		events, err = state.App.MarkReady(ctx, state.GameID, senderID)
	case OpStartGame:
		events, err = state.App.Start(ctx, state.GameID, senderID)
	case OpAddAI:
		level := fieldString(req, "level")
		if level == "" {
			level = state.BotLevel
		}
		events, err = mh.addAI(ctx, state, senderID, level)
	case OpBid:
		var value int
		if value, err = fieldInt(req, "value"); err != nil {
			mh.sendErrorCode(state, dispatcher, logger, senderID, "bad_request", err.Error())
			return false
		}
		events, err = state.App.SubmitBid(ctx, state.GameID, senderID, value)
	case OpChooseTrump:
		var trump domain.Trump
		if trump, err = fieldTrump(req, "trump"); err == nil {
			events, err = state.App.ChooseTrump(ctx, state.GameID, senderID, trump)
		}
	case OpPlayCard:
		var card domain.Card
		if card, err = fieldCard(req, "card"); err != nil {
			mh.sendErrorCode(state, dispatcher, logger, senderID, "bad_request", err.Error())
			return false
		}
		events, err = state.App.PlayCard(ctx, state.GameID, senderID, card)
	default:
		logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		return false
	}

	if err != nil {
		logger.Warn("handleMessage: User %s op %d rejected: %v", senderID, msg.GetOpCode(), err)
		mh.sendError(state, dispatcher, logger, senderID, err)
		return false
	}
	mh.broadcastEvents(state, dispatcher, logger, events)
	return true
}

// addAI lets a seated player fill a seat with an AI.
func (mh *matchHandler) addAI(ctx context.Context, state *MatchState, senderID, level string) ([]app.Event, error) {
	g, err := state.App.Game(ctx, state.GameID)
	if err != nil {
		return nil, err
	}
	if _, seated := g.Player(senderID); !seated {
		return nil, domain.ErrUnknownPlayer
	}
	return state.App.AddAI(ctx, state.GameID, level)
}

// processBots fills the table with AI when a single human has waited long
// enough. It reports whether any seat was filled.
func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) bool {
	g, err := state.App.Game(ctx, state.GameID)
	if err != nil || g.Phase != domain.GamePhaseWaiting {
		state.LastSinglePlayerTick = 0
		return false
	}

	humans := 0
	for _, p := range g.Seats {
		if p != nil && !p.IsAI {
			humans++
		}
	}
	if humans != 1 || g.OpenSeats() == 0 {
		state.LastSinglePlayerTick = 0
		return false
	}

	if state.LastSinglePlayerTick == 0 {
		state.LastSinglePlayerTick = state.Tick
		logger.Debug("processBots: Single player detected, starting auto-fill timer.")
		return false
	}
	if state.Tick-state.LastSinglePlayerTick < int64(state.BotAutoFillDelay) {
		return false
	}

	added := false
	for i := g.OpenSeats(); i > 0; i-- {
		events, err := state.App.AddAI(ctx, state.GameID, state.BotLevel)
		if err != nil {
			logger.Error("processBots: Failed to add AI to %s: %v", state.GameID, err)
			break
		}
		added = true
		mh.broadcastEvents(state, dispatcher, logger, events)
	}
	state.LastSinglePlayerTick = 0
	return added
}

var eventOpCodes = map[app.EventKind]int64{
	app.EventPlayerJoined:    OpPlayerJoined,
	app.EventPlayerLeft:      OpPlayerLeft,
	app.EventPlayerReady:     OpPlayerReady,
	app.EventGameStarted:     OpGameStarted,
	app.EventRoundStarted:    OpRoundStarted,
	app.EventHandDealt:       OpHandDealt,
	app.EventBidPlaced:       OpBidPlaced,
	app.EventBiddingComplete: OpBiddingComplete,
	app.EventTrumpChosen:     OpTrumpChosen,
	app.EventCardPlayed:      OpCardPlayed,
	app.EventTrickCompleted:  OpTrickCompleted,
	app.EventRoundScored:     OpRoundScored,
	app.EventGameEnded:       OpGameEnded,
}

func (mh *matchHandler) broadcastEvents(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		mh.broadcastEvent(state, dispatcher, logger, ev)
	}
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	opCode, ok := eventOpCodes[ev.Kind]
	if !ok {
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	bytes, err := encodePayload(ev.Payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}

		// Intended recipients that are not connected (AI seats included) must
		// not turn into a broadcast.
		if len(recipients) == 0 {
			return
		}
	}

	if err := dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true); err != nil {
		logger.Error("Failed to broadcast event %v: %v", ev.Kind, err)
	}
}

// sendSnapshots sends every connected player their own view.
func (mh *matchHandler) sendSnapshots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	for userID := range state.Presences {
		mh.sendSnapshot(ctx, state, dispatcher, logger, userID)
	}
}

func (mh *matchHandler) sendSnapshot(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	presence, ok := state.Presences[userID]
	if !ok {
		return
	}
	view, err := state.App.View(ctx, state.GameID, userID)
	if err != nil {
		mh.sendError(state, dispatcher, logger, userID, err)
		return
	}
	bytes, err := encodePayload(view)
	if err != nil {
		logger.Error("Failed to marshal view for %s: %v", userID, err)
		return
	}
	if err := dispatcher.BroadcastMessage(OpStateSnapshot, bytes, []runtime.Presence{presence}, nil, true); err != nil {
		logger.Error("Failed to send view to %s: %v", userID, err)
	}
}

// sendError sends a game error to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, err error) {
	mh.sendErrorCode(state, dispatcher, logger, userID, app.ErrorCode(err), err.Error())
}

func (mh *matchHandler) sendErrorCode(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID, code, message string) {
	bytes, err := encodePayload(errorPayload{Code: code, Message: message})
	if err != nil {
		logger.Error("Failed to marshal game error: %v", err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}

	dispatcher.BroadcastMessage(OpGameError, bytes, []runtime.Presence{presence}, nil, true)
}


func (mh *matchHandler) buildLabel(ctx context.Context, state *MatchState) (string, error) {
	fields := map[string]interface{}{
		MatchLabelKey_Game:      matchLabelGame,
		MatchLabelKey_OpenSeats: 0,
		MatchLabelKey_Phase:     string(domain.GamePhaseWaiting),
		MatchLabelKey_Round:     0,
	}
	if g, err := state.App.Game(ctx, state.GameID); err == nil {
		fields[MatchLabelKey_OpenSeats] = g.OpenSeats()
		fields[MatchLabelKey_Phase] = string(g.Phase)
		fields[MatchLabelKey_Round] = g.RoundNumber()
	}
	label, err := structpb.NewStruct(fields)
	if err != nil {
		return "", err
	}
	labelBytes, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(label)
	if err != nil {
		return "", err
	}
	return string(labelBytes), nil
}

func (mh *matchHandler) updateLabel(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := mh.buildLabel(ctx, state)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	if matchState, ok := state.(*MatchState); ok {
		logger.Debug("MatchTerminate: Match %s terminated.", matchState.GameID)
		matchState.App.Remove(matchState.GameID)
	}
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
