package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldkit/cascade/pkg/models"
	"github.com/fieldkit/cascade/pkg/persistence/file"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := file.NewContinuationRepository(t.TempDir())

	return NewScheduler(repo, logger)
}

func TestSchedule(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s := newTestScheduler(t).WithClock(func() time.Time { return base })

	payload := models.ContinuationPayload{
		ObjectType:      "Opportunity",
		TriggerEvent:    models.TriggerEventUpdate,
		Record:          map[string]any{"id": "rec-1"},
		NextActionIndex: 2,
	}

	continuation, err := s.Schedule(ctx, "exec-1", "wf-1", "a2", 30*time.Minute, payload)
	require.NoError(t, err)
	assert.Equal(t, base.Add(30*time.Minute), continuation.ScheduledFor)
	assert.Equal(t, models.ContinuationStatusPending, continuation.Status)

	// Not due before the delay elapses.
	due, err := s.Due(ctx)
	require.NoError(t, err)
	assert.Empty(t, due)

	// Due once the clock passes the scheduled time.
	s.WithClock(func() time.Time { return base.Add(31 * time.Minute) })

	due, err = s.Due(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, continuation.ID, due[0].ID)
	assert.Equal(t, 2, due[0].Payload.NextActionIndex)
}

func TestMarkConsumed(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s := newTestScheduler(t).WithClock(func() time.Time { return base })

	continuation, err := s.Schedule(ctx, "exec-1", "wf-1", "a2", 0, models.ContinuationPayload{})
	require.NoError(t, err)

	require.NoError(t, s.MarkConsumed(ctx, continuation.ID))

	due, err := s.Due(ctx)
	require.NoError(t, err)
	assert.Empty(t, due, "consumed continuations never come back")
}

func TestMarkFailed(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s := newTestScheduler(t).WithClock(func() time.Time { return base })

	continuation, err := s.Schedule(ctx, "exec-1", "wf-1", "a2", 0, models.ContinuationPayload{})
	require.NoError(t, err)

	require.NoError(t, s.MarkFailed(ctx, continuation.ID))

	due, err := s.Due(ctx)
	require.NoError(t, err)
	assert.Empty(t, due, "failed continuations are not retried")
}
