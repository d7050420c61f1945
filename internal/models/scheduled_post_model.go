package models

import "time"

type ScheduledPost struct {
	ID            string     `db:"id" json:"id"`
	MediaPostID   string     `db:"media_post_id" json:"media_post_id"`
	ScheduledTime time.Time  `db:"scheduled_time" json:"scheduled_time"`
	IsProcessed   bool       `db:"is_processed" json:"is_processed"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt   *time.Time `db:"processed_at" json:"processed_at"`
	RetryCount    int        `db:"retry_count" json:"retry_count"`
	MaxRetries    int        `db:"max_retries" json:"max_retries"`
	TaskID        string     `db:"task_id" json:"-"`
}
