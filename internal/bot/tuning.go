package bot

// Tuning weights the smart bot's hand evaluation.
type Tuning struct {
	// Expected tricks contributed by a guarded honour.
	AceValue   float64
	KingValue  float64
	QueenValue float64
	// LongSuitValue is credited per card beyond LongSuitFrom in the longest suit.
	LongSuitValue float64
	LongSuitFrom  int
	// Trump choice: suit score = length*LengthWeight + honour points*HonourWeight.
	LengthWeight float64
	HonourWeight float64
	// NoTrumpBelow picks no-trump when the best suit scores under it.
	NoTrumpBelow float64
}

// DefaultTuning balances bidding accuracy across long and short rounds.
var DefaultTuning = Tuning{
	AceValue:      0.95,
	KingValue:     0.65,
	QueenValue:    0.3,
	LongSuitValue: 0.5,
	LongSuitFrom:  3,
	LengthWeight:  1.0,
	HonourWeight:  0.5,
	NoTrumpBelow:  2.5,
}
