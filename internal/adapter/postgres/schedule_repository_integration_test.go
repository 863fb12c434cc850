package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pscheid92/streamagenda/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSchedule(streamerID string, now time.Time) domain.Schedule {
	end := now.Add(3 * time.Hour)
	return domain.NewSchedule(streamerID, []domain.Stream{
		{
			ID:           "seg-1",
			Title:        "Speedrun night",
			StartTime:    now.Add(time.Hour),
			EndTime:      &end,
			Game:         &domain.Game{Name: "Celeste"},
			StreamerID:   streamerID,
			StreamerName: "Runner",
		},
		{
			ID:           "seg-2",
			Title:        "Open ended",
			StartTime:    now.Add(26 * time.Hour),
			StreamerID:   streamerID,
			StreamerName: "Runner",
		},
	}, now)
}

func TestScheduleRepo_GetMissingReturnsNil(t *testing.T) {
	repo := NewScheduleRepo(setupTestDB(t))

	s, err := repo.Get(context.Background(), "nobody")

	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestScheduleRepo_PutGet(t *testing.T) {
	repo := NewScheduleRepo(setupTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	want := sampleSchedule("42", now)

	require.NoError(t, repo.Put(ctx, "42", want))

	got, err := repo.Get(ctx, "42")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "42", got.StreamerID)
	assert.True(t, want.LastUpdated.Equal(got.LastUpdated))
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
	require.Len(t, got.Streams, 2)
	assert.Equal(t, "Celeste", got.Streams[0].GameName())
	assert.NotNil(t, got.Streams[0].EndTime)
	assert.Nil(t, got.Streams[1].EndTime)
	assert.Nil(t, got.Streams[1].Game)
}

func TestScheduleRepo_PutReplacesWholeRecord(t *testing.T) {
	repo := NewScheduleRepo(setupTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Put(ctx, "42", sampleSchedule("42", now)))
	require.NoError(t, repo.Put(ctx, "42", domain.NewSchedule("42", nil, now.Add(time.Minute))))

	got, err := repo.Get(ctx, "42")
	require.NoError(t, err)
	assert.Empty(t, got.Streams)
	assert.NotNil(t, got.Streams)
}

func TestScheduleRepo_Delete(t *testing.T) {
	repo := NewScheduleRepo(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "42", sampleSchedule("42", time.Now())))
	require.NoError(t, repo.Delete(ctx, "42"))
	require.NoError(t, repo.Delete(ctx, "42"))

	got, err := repo.Get(ctx, "42")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestScheduleRepo_PurgeExpiredBefore(t *testing.T) {
	repo := NewScheduleRepo(setupTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Put(ctx, "old", domain.NewSchedule("old", nil, now.Add(-48*time.Hour))))
	require.NoError(t, repo.Put(ctx, "new", domain.NewSchedule("new", nil, now)))

	n, err := repo.PurgeExpiredBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := repo.Get(ctx, "new")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
