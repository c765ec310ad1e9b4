package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/heroiclabs/nakama-common/runtime"

	"whist/internal/app"
	"whist/internal/bot"
	"whist/internal/domain"
)

// gRPC status codes used by runtime.NewError.
const (
	codeInvalidArgument    = 3
	codeNotFound           = 5
	codeFailedPrecondition = 9
	codeInternal           = 13
	codeUnavailable        = 14
	codeUnauthenticated    = 16
)

type createMatchRequest struct {
	AI       int    `json:"ai"`
	BotLevel string `json:"bot_level"`
}

type matchRequest struct {
	MatchID string `json:"match_id"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

func decodeRPCPayload(payload string, v any) error {
	if strings.TrimSpace(payload) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return runtime.NewError("Invalid payload", codeInvalidArgument)
	}
	return nil
}

func callerID(ctx context.Context) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("No user ID in context", codeUnauthenticated)
	}
	return userID, nil
}

func marshalResponse(logger runtime.Logger, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("Failed to marshal response: %v", err)
		return "", runtime.NewError("Internal error", codeInternal)
	}
	return string(b), nil
}

// rpcCreateMatch always creates a new table, optionally with AI seated.
// Payload: {"ai": 0-3, "bot_level": "good" | "smart" | "random" | "script"}
func rpcCreateMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return createMatch(ctx, logger, nk, payload)
}

func createMatch(ctx context.Context, logger runtime.Logger, nk MatchLister, payload string) (string, error) {
	var req createMatchRequest
	if err := decodeRPCPayload(payload, &req); err != nil {
		return "", err
	}
	if req.AI < 0 || req.AI >= domain.PlayerCount {
		return "", runtime.NewError("ai must be between 0 and 3", codeInvalidArgument)
	}
	if req.BotLevel != "" {
		if _, err := bot.ParseLevel(req.BotLevel, ""); err != nil {
			return "", runtime.NewError(err.Error(), codeInvalidArgument)
		}
	}

	matchID, err := nk.MatchCreate(ctx, MatchNameWhist, map[string]interface{}{
		"ai":        float64(req.AI),
		"bot_level": req.BotLevel,
	})
	if err != nil {
		logger.Error("MatchCreate error: %v", err)
		return "", err
	}
	return marshalResponse(logger, QuickMatchResponse{MatchID: matchID, IsNew: true})
}

// rpcGameView returns the caller's view of a table.
// Payload: {"match_id": "..."}
func (h *rpcHandlers) rpcGameView(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	var req matchRequest
	if err := decodeRPCPayload(payload, &req); err != nil {
		return "", err
	}
	if req.MatchID == "" {
		return "", runtime.NewError("match_id required", codeInvalidArgument)
	}

	view, err := h.app.View(ctx, req.MatchID, userID)
	if err != nil {
		return "", appError(logger, err)
	}
	return marshalResponse(logger, view)
}

// rpcGameSummary returns the standings of a finished table.
// Payload: {"match_id": "..."}
func (h *rpcHandlers) rpcGameSummary(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var req matchRequest
	if err := decodeRPCPayload(payload, &req); err != nil {
		return "", err
	}
	if req.MatchID == "" {
		return "", runtime.NewError("match_id required", codeInvalidArgument)
	}

	summary, err := h.app.Summary(ctx, req.MatchID)
	if err != nil {
		return "", appError(logger, err)
	}
	return marshalResponse(logger, summary)
}

// rpcPlayerRecord returns the caller's lifetime record.
func (h *rpcHandlers) rpcPlayerRecord(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	record, err := h.records.GetRecord(ctx, userID)
	if err != nil {
		logger.Error("rpcPlayerRecord [User:%s]: %v", userID, err)
		return "", runtime.NewError("Failed to read record", codeInternal)
	}
	return marshalResponse(logger, record)
}

// rpcTableToken issues a signed token the standalone table server accepts.
func (h *rpcHandlers) rpcTableToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	if h.tokens == nil {
		return "", runtime.NewError("Table tokens are not configured", codeUnavailable)
	}

	token, err := h.tokens.Issue(userID, "")
	if err != nil {
		logger.Error("Failed to issue table token: %v", err)
		return "", runtime.NewError("Internal error", codeInternal)
	}
	identity, err := h.tokens.Verify(token)
	if err != nil {
		logger.Error("Issued table token does not verify: %v", err)
		return "", runtime.NewError("Internal error", codeInternal)
	}
	return marshalResponse(logger, tokenResponse{Token: token, ExpiresAt: identity.ExpiresAt.Unix()})
}

// appError maps service errors onto runtime errors.
func appError(logger runtime.Logger, err error) error {
	switch {
	case errors.Is(err, app.ErrGameNotFound):
		return runtime.NewError(err.Error(), codeNotFound)
	case errors.Is(err, domain.ErrGameNotComplete), errors.Is(err, app.ErrGameFaulted):
		return runtime.NewError(err.Error(), codeFailedPrecondition)
	}
	logger.Error("Unexpected service error: %v", err)
	return runtime.NewError("Internal error", codeInternal)
}
