package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/arbiter-io/arbiter/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAPIKeyTouch is the task type for recording api key usage.
	TaskTypeAPIKeyTouch = "apikey:touch"
)

// APIKeyTouchPayload identifies the credential whose last-use timestamp moves.
type APIKeyTouchPayload struct {
	Prefix string    `json:"prefix"`
	UsedAt time.Time `json:"used_at"`
}

// NewAPIKeyTouchTask constructs an Asynq task.
func NewAPIKeyTouchTask(payload APIKeyTouchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAPIKeyTouch, data), nil
}

// TouchStore persists last-use timestamps for machine credentials.
type TouchStore interface {
	Touch(ctx context.Context, prefix string, usedAt time.Time) error
}

// NewAPIKeyTouchHandler builds the handler processing TaskTypeAPIKeyTouch
// tasks. Malformed payloads are dropped without retry.
func NewAPIKeyTouchHandler(store TouchStore, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("apikey_touch")
		var payload APIKeyTouchPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			_ = tracker.End(err)
			return asynq.SkipRetry
		}
		return tracker.End(store.Touch(ctx, payload.Prefix, payload.UsedAt))
	}
}
