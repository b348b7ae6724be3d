package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAssignsIDAndTime(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	e, err := s.Record(ctx, Entry{
		PossessionDifference: 15.5,
		ShotDifference:       8,
		Attendance:           45000,
		Outcome:              "Home Win",
		Probabilities:        map[string]float64{"Home Win": 0.6, "Draw": 0.25, "Away Win": 0.15},
		Scaled:               true,
	})
	require.NoError(t, err)
	_, err = uuid.Parse(e.ID)
	assert.NoError(t, err)
	assert.False(t, e.CreatedAt.IsZero())

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, e.ID, got[0].ID)
	assert.Equal(t, 45000, got[0].Attendance)
	assert.True(t, got[0].Scaled)
	assert.InDelta(t, 0.25, got[0].Probabilities["Draw"], 1e-12)
	assert.True(t, e.CreatedAt.Equal(got[0].CreatedAt))
}

func TestRecentNewestFirstWithLimit(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	base := time.Date(2024, 8, 16, 19, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := s.Record(ctx, Entry{
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
			Attendance:    i,
			Outcome:       "Draw",
			Probabilities: map[string]float64{"Draw": 1},
		})
		require.NoError(t, err)
	}

	got, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int{4, 3, 2}, []int{got[0].Attendance, got[1].Attendance, got[2].Attendance})

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestRecentEmpty(t *testing.T) {
	got, err := openMemory(t).Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestOpenFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = s.Record(ctx, Entry{Outcome: "Away Win", Probabilities: map[string]float64{}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDuplicateIDRejected(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	e := Entry{ID: "fixed", Outcome: "Draw"}
	_, err := s.Record(ctx, e)
	require.NoError(t, err)
	_, err = s.Record(ctx, e)
	assert.Error(t, err)
}
