package app

// maxAIMoves bounds one AI drive. A full table of AI players finishes a whole
// game in well under this many moves.
const maxAIMoves = 4096

// DefaultBotLevel is used by AddAI when neither the caller nor the service
// options name a level.
const DefaultBotLevel = "smart"
