package nakama

const (
	// RpcQuickMatch finds a waiting table with an open seat or creates one.
	RpcQuickMatch = "quick_match"
	// RpcCreateMatch always creates a new table.
	RpcCreateMatch = "create_match"
	// RpcGameView returns the caller's view of a table.
	RpcGameView = "game_view"
	// RpcGameSummary returns the standings of a finished table.
	RpcGameSummary = "game_summary"
	// RpcPlayerRecord returns the caller's lifetime record.
	RpcPlayerRecord = "player_record"
	// RpcTableToken issues a token for the standalone table server.
	RpcTableToken = "table_token"

	// MatchNameWhist is the authoritative match handler name registered with Nakama.
	MatchNameWhist = "whist_match"
)

// Match label keys.
const (
	MatchLabelKey_Game      = "game"
	MatchLabelKey_OpenSeats = "open"
	MatchLabelKey_Phase     = "phase"
	MatchLabelKey_Round     = "round"

	matchLabelGame = "whist"
)

// Storage collections.
const (
	gamesCollection   = "whist_games"
	resultsCollection = "whist_results"
	recordsCollection = "whist_records"
	recordKey         = "record"
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpReady        int64 = 1
	OpAddAI        int64 = 2
	OpBid          int64 = 3
	OpChooseTrump  int64 = 4
	OpPlayCard     int64 = 5
	OpRequestState int64 = 6
	OpStartGame    int64 = 7

	// Server -> Client events
	OpPlayerJoined    int64 = 101
	OpPlayerLeft      int64 = 102
	OpPlayerReady     int64 = 103
	OpGameStarted     int64 = 104
	OpRoundStarted    int64 = 105
	OpHandDealt       int64 = 106 // send privately
	OpBidPlaced       int64 = 107
	OpBiddingComplete int64 = 108
	OpTrumpChosen     int64 = 109
	OpCardPlayed      int64 = 110
	OpTrickCompleted  int64 = 111
	OpRoundScored     int64 = 112
	OpGameEnded       int64 = 113

	OpStateSnapshot int64 = 120 // send privately
	OpGameError     int64 = 199
)
