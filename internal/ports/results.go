package ports

import (
	"context"

	"whist/internal/domain"
)

// ResultsPort records final standings once a game completes.
type ResultsPort interface {
	// RecordResults stores the summary of a finished game.
	// Implementations decide which players (e.g. humans only) get a record.
	RecordResults(ctx context.Context, summary domain.GameSummary) error
}
