package ports

import "context"

// AccountPort updates player account details.
type AccountPort interface {
	// UpdateProfile sets the username and display name of an account.
	UpdateProfile(ctx context.Context, userID, username, displayName string) error
	// DisplayName returns the name shown at the table.
	DisplayName(ctx context.Context, userID string) (string, error)
}
