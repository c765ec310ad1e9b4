package memory

import (
	"context"
	"errors"
	"testing"

	"whist/internal/domain"
	"whist/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Load(ctx, "missing")
	require.True(t, errors.Is(err, ports.ErrNotFound))

	g := domain.NewGame("g1", domain.Options{Seed: 3})
	_, err = g.AddPlayer("alice", "Alice", false, "")
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, g))

	// Later mutations must not leak into the stored copy.
	_, err = g.AddPlayer("bob", "Bob", false, "")
	require.NoError(t, err)

	loaded, err := s.Load(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.OpenSeats())
	assert.Equal(t, "Alice", loaded.Seats[0].Name)
	assert.Equal(t, 1, s.Len())
}

func TestResultsCollects(t *testing.T) {
	r := &Results{}
	require.NoError(t, r.RecordResults(context.Background(), domain.GameSummary{GameID: "g1"}))
	got := r.Summaries()
	require.Len(t, got, 1)
	assert.Equal(t, "g1", got[0].GameID)
}
