package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/arbiter-io/arbiter/internal/jobs"
)

type mockTouchStore struct {
	prefixes []string
	usedAts  []time.Time
	err      error
}

func (m *mockTouchStore) Touch(ctx context.Context, prefix string, usedAt time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.prefixes = append(m.prefixes, prefix)
	m.usedAts = append(m.usedAts, usedAt)
	return nil
}

func TestAPIKeyTouchTaskRoundtrip(t *testing.T) {
	usedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	task, err := NewAPIKeyTouchTask(APIKeyTouchPayload{Prefix: "deadbeef", UsedAt: usedAt})
	require.NoError(t, err)
	assert.Equal(t, TaskTypeAPIKeyTouch, task.Type())

	store := &mockTouchStore{}
	handler := NewAPIKeyTouchHandler(store, jobmetrics.NewMetrics(nil))

	require.NoError(t, handler(context.Background(), task))
	require.Len(t, store.prefixes, 1)
	assert.Equal(t, "deadbeef", store.prefixes[0])
	assert.True(t, usedAt.Equal(store.usedAts[0]))
}

func TestAPIKeyTouchHandlerSkipsMalformedPayload(t *testing.T) {
	store := &mockTouchStore{}
	handler := NewAPIKeyTouchHandler(store, jobmetrics.NewMetrics(nil))

	task := asynq.NewTask(TaskTypeAPIKeyTouch, []byte("not json"))
	err := handler(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, store.prefixes)
}

func TestAPIKeyTouchHandlerPropagatesStoreError(t *testing.T) {
	store := &mockTouchStore{err: assert.AnError}
	handler := NewAPIKeyTouchHandler(store, jobmetrics.NewMetrics(nil))

	task, err := NewAPIKeyTouchTask(APIKeyTouchPayload{Prefix: "deadbeef", UsedAt: time.Now().UTC()})
	require.NoError(t, err)

	assert.ErrorIs(t, handler(context.Background(), task), assert.AnError)
}
