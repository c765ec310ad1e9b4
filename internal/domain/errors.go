package domain

import "errors"

var (
	ErrOutOfTurn       = errors.New("not this player's turn")
	ErrInvalidBid      = errors.New("bid outside legal range")
	ErrAlreadyBid      = errors.New("player already bid this round")
	ErrNotTrumpChooser = errors.New("player is not the trump chooser")
	ErrAlreadyChosen   = errors.New("trump already chosen")
	ErrInvalidTrump    = errors.New("invalid trump")
	ErrCardNotInHand   = errors.New("card not in hand")
	ErrIllegalPlay     = errors.New("must follow the led suit")
	ErrWrongPhase      = errors.New("operation not allowed in current phase")
	ErrGameFull        = errors.New("game is full")
	ErrGameNotJoinable = errors.New("game is not accepting players")
	ErrAlreadySeated   = errors.New("player already seated")
	ErrNotReady        = errors.New("table is not full or not everyone is ready")
	ErrUnknownPlayer   = errors.New("player not found")
	ErrGameNotComplete = errors.New("game not complete")
	ErrInvariant       = errors.New("game state invariant violated")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrOutOfTurn, "out_of_turn"},
	{ErrInvalidBid, "invalid_bid"},
	{ErrAlreadyBid, "already_bid"},
	{ErrNotTrumpChooser, "not_trump_chooser"},
	{ErrAlreadyChosen, "already_chosen"},
	{ErrInvalidTrump, "invalid_trump"},
	{ErrCardNotInHand, "card_not_in_hand"},
	{ErrIllegalPlay, "illegal_play"},
	{ErrWrongPhase, "wrong_phase"},
	{ErrGameFull, "game_full"},
	{ErrGameNotJoinable, "game_not_joinable"},
	{ErrAlreadySeated, "already_seated"},
	{ErrNotReady, "not_ready"},
	{ErrUnknownPlayer, "unknown_player"},
	{ErrGameNotComplete, "game_not_complete"},
	{ErrInvariant, "invariant"},
}

// ErrorCode maps a rule error to a stable code for clients. Unrecognised errors
// map to "internal".
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal"
}
