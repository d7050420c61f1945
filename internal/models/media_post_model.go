package models

import "time"

type MediaPost struct {
	ID           string     `db:"id" json:"id"`
	SourceURL    string     `db:"source_url" json:"source_url"`
	MediaType    string     `db:"media_type" json:"media_type"`
	Caption      string     `db:"caption" json:"caption"`
	AccountID    string     `db:"account_id" json:"account_id"`
	Status       string     `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	PostedAt     *time.Time `db:"posted_at" json:"posted_at"`
	ErrorMessage *string    `db:"error_message" json:"error_message"`
	LocalPath    string     `db:"local_path" json:"-"`
}

const (
	PostStatusPending = "pending"
	PostStatusPosted  = "posted"
	PostStatusFailed  = "failed"
)

const (
	MediaTypeImage   = "image"
	MediaTypeVideo   = "video"
	MediaTypeUnknown = "unknown"
)
