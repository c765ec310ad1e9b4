package onboarding

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"whist/internal/ports"
)

// Result captures non-fatal onboarding outcomes.
type Result struct {
	// DisplayName is the generated table name.
	DisplayName string
	// ProfileUpdateErr is set when the profile update failed but onboarding continued.
	ProfileUpdateErr error
	// RecordCreated is false when the player already had a record.
	RecordCreated bool
}

// Service handles post-auth onboarding for new users.
type Service struct {
	accounts ports.AccountPort
	records  ports.RecordPort
	rng      *rand.Rand
}

// NewService constructs an onboarding service with required ports.
// accounts/records must be non-nil; rng may be nil to use a time-seeded default.
func NewService(accounts ports.AccountPort, records ports.RecordPort, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		accounts: accounts,
		records:  records,
		rng:      rng,
	}
}

// OnboardNewUser gives a new account a table name and an empty player record.
// Returns an error only if the record cannot be created.
func (s *Service) OnboardNewUser(ctx context.Context, userID string) (Result, error) {
	if s.accounts == nil || s.records == nil {
		return Result{}, fmt.Errorf("onboarding service not configured")
	}

	result := Result{DisplayName: s.generateFriendlyName()}
	if err := s.accounts.UpdateProfile(ctx, userID, result.DisplayName, result.DisplayName); err != nil {
		// The name is cosmetic; the record is what results are written into.
		result.ProfileUpdateErr = err
	}

	created, err := s.records.CreateRecordOnce(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("failed to create player record: %w", err)
	}
	result.RecordCreated = created
	return result, nil
}

func (s *Service) generateFriendlyName() string {
	adjectives := []string{"Bold", "Canny", "Lucky", "Sharp", "Steady", "Quiet", "Daring", "Shrewd", "Nimble", "Cool"}
	nouns := []string{"Trumper", "Bidder", "Dealer", "Ace", "Knave", "Queen", "King", "Finesse", "Ruff", "Squeeze"}

	adj := adjectives[s.rng.Intn(len(adjectives))]
	noun := nouns[s.rng.Intn(len(nouns))]
	num := s.rng.Intn(9000) + 1000

	return fmt.Sprintf("%s%s%d", adj, noun, num)
}
