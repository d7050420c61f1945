package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/reposter/internal/models"
	"github.com/maheshrc27/reposter/internal/repository"
	"github.com/maheshrc27/reposter/internal/service"
	"github.com/maheshrc27/reposter/pkg/vault"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrNotFound is returned by Schedule when the referenced media post does
// not exist.
var ErrNotFound = errors.New("media post not found")

// Enqueuer is the delayed-job boundary: delivery at or after the given
// delay, at least once. Withdraw is best-effort; a fired task for a removed
// schedule is a no-op in Dispatch anyway.
type Enqueuer interface {
	Enqueue(ctx context.Context, scheduleID string, delay time.Duration) (string, error)
	Withdraw(ctx context.Context, taskID string) error
}

// Engine owns the scheduled-post lifecycle. It is the only writer of
// retry_count, is_processed and processed_at.
type Engine struct {
	accounts   repository.AccountRepository
	media      repository.MediaPostRepository
	schedules  repository.ScheduledPostRepository
	vault      *vault.Vault
	publisher  service.Publisher
	enq        Enqueuer
	maxRetries int
	backoff    time.Duration
}

func NewEngine(
	accounts repository.AccountRepository,
	media repository.MediaPostRepository,
	schedules repository.ScheduledPostRepository,
	v *vault.Vault,
	publisher service.Publisher,
	enq Enqueuer,
	maxRetries int,
	backoff time.Duration) *Engine {
	return &Engine{
		accounts:   accounts,
		media:      media,
		schedules:  schedules,
		vault:      v,
		publisher:  publisher,
		enq:        enq,
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

// Schedule records a publish job for the media post and arms a delayed task
// for it. The durable write happens before arming so a crash between the
// two is recovered by RearmPending; an arming failure is therefore logged,
// not surfaced.
func (e *Engine) Schedule(ctx context.Context, mediaPostID string, at time.Time) (*models.ScheduledPost, error) {
	post, err := e.media.GetByID(ctx, mediaPostID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	sp := &models.ScheduledPost{
		ID:            id,
		MediaPostID:   post.ID,
		ScheduledTime: at,
		IsProcessed:   false,
		CreatedAt:     time.Now().UTC(),
		RetryCount:    0,
		MaxRetries:    e.maxRetries,
	}

	if err := e.schedules.Create(ctx, sp); err != nil {
		return nil, err
	}

	e.arm(ctx, sp)

	return sp, nil
}

func (e *Engine) arm(ctx context.Context, sp *models.ScheduledPost) {
	delay := time.Until(sp.ScheduledTime)
	if delay < 0 {
		delay = 0
	}

	taskID, err := e.enq.Enqueue(ctx, sp.ID, delay)
	if err != nil {
		slog.Error(fmt.Sprintf("failed to arm schedule %s: %v", sp.ID, err))
		return
	}

	sp.TaskID = taskID
	if err := e.schedules.SetTaskID(ctx, sp.ID, taskID); err != nil {
		slog.Info(err.Error())
	}
}

// Cancel removes a pending schedule and reports whether a row went away.
// A schedule already claimed for execution completes regardless; the
// guarded delete makes the race harmless.
func (e *Engine) Cancel(ctx context.Context, scheduleID string) (bool, error) {
	sp, err := e.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return false, err
	}
	if sp == nil || sp.IsProcessed {
		return false, nil
	}

	removed, err := e.schedules.Remove(ctx, scheduleID)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}

	if sp.TaskID != "" {
		if err := e.enq.Withdraw(ctx, sp.TaskID); err != nil {
			slog.Info(fmt.Sprintf("could not withdraw task %s: %v", sp.TaskID, err))
		}
	}

	return true, nil
}

// RearmPending re-creates delayed tasks for every unprocessed schedule.
// Called once at startup; duplicates from still-armed tasks are absorbed by
// the idempotent guard in Dispatch.
func (e *Engine) RearmPending(ctx context.Context) error {
	pending, err := e.schedules.ListUnprocessed(ctx)
	if err != nil {
		return err
	}

	for _, sp := range pending {
		e.arm(ctx, sp)
	}

	if len(pending) > 0 {
		slog.Info(fmt.Sprintf("re-armed %d pending schedules", len(pending)))
	}
	return nil
}
