package job

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/maheshrc27/reposter/internal/repository"
)

// CleanupJob reaps local asset files for posts that reached posted state
// beyond the retention window. Records are left untouched; only files go.
type CleanupJob struct {
	mr        repository.MediaPostRepository
	retention time.Duration
}

func NewCleanupJob(mr repository.MediaPostRepository, retention time.Duration) *CleanupJob {
	return &CleanupJob{
		mr:        mr,
		retention: retention,
	}
}

func (c *CleanupJob) Run() {
	ctx := context.Background()

	cutoff := time.Now().UTC().Add(-c.retention)
	posts, err := c.mr.ListPostedBefore(ctx, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, post := range posts {
		if post.LocalPath == "" {
			continue
		}
		if err := os.Remove(post.LocalPath); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			// Per-item isolation: keep sweeping the rest.
			slog.Error(fmt.Sprintf("error cleaning up media file %s: %v", post.LocalPath, err))
			continue
		}
		slog.Info("cleaned up media file: " + post.LocalPath)
	}
}
