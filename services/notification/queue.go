package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookline/models"

	"github.com/hibiken/asynq"
)

// AsynqDispatcher enqueues email tasks on the Redis-backed queue; the worker
// in cron/worker.go consumes them.
type AsynqDispatcher struct {
	Client *asynq.Client
}

func NewAsynqDispatcher(client *asynq.Client) *AsynqDispatcher {
	return &AsynqDispatcher{Client: client}
}

func (d *AsynqDispatcher) Dispatch(ctx context.Context, inst *models.Instance, rec *models.GuestRecord, kind Event) error {
	payload, err := json.Marshal(EmailTaskPayload{
		InstanceID: inst.ID,
		RecordID:   rec.ID,
		Kind:       kind,
	})
	if err != nil {
		return fmt.Errorf("failed to encode email task: %w", err)
	}

	task := asynq.NewTask(TypeEmailSend, payload)
	_, err = d.Client.EnqueueContext(ctx, task,
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue email task: %w", err)
	}
	return nil
}
