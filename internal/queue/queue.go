package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

const queueName = "default"

// Client is the asynq side of the engine's Enqueuer boundary.
type Client struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

func NewClient(redisOpt asynq.RedisClientOpt) *Client {
	return &Client{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
	}
}

func (c *Client) Enqueue(ctx context.Context, scheduleID string, delay time.Duration) (string, error) {
	taskPayload, err := json.Marshal(PublishPostPayload{ScheduleID: scheduleID})
	if err != nil {
		return "", err
	}

	task := asynq.NewTask(TaskTypePublishPost, taskPayload)

	info, err := c.client.EnqueueContext(ctx, task, asynq.ProcessIn(delay), asynq.Queue(queueName))
	if err != nil {
		return "", err
	}

	log.Printf("Task scheduled: schedule_id=%s delay=%s", scheduleID, delay)
	return info.ID, nil
}

func (c *Client) Withdraw(ctx context.Context, taskID string) error {
	return c.inspector.DeleteTask(queueName, taskID)
}

func (c *Client) Close() error {
	return c.client.Close()
}
