package queue

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

// HandlePublishPostTask unwraps the payload and hands the schedule to the
// engine. A returned error means the record store was unreachable; asynq
// redelivers and the engine's idempotent guard keeps that safe.
func (w *Worker) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return w.engine.Dispatch(ctx, payload.ScheduleID)
}
