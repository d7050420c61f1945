package transfer

type ScheduleRequest struct {
	MediaPostID   string `json:"media_post_id"`
	ScheduledTime string `json:"scheduled_time"`
}
