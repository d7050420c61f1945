package queue

import (
	"github.com/maheshrc27/reposter/internal/scheduler"
)

const TaskTypePublishPost = "publish:post"

type PublishPostPayload struct {
	ScheduleID string `json:"schedule_id"`
}

// Worker serves publish tasks against the scheduling engine.
type Worker struct {
	engine *scheduler.Engine
}

func NewWorker(engine *scheduler.Engine) *Worker {
	return &Worker{engine: engine}
}
