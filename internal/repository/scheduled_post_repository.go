package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/reposter/internal/models"
)

type ScheduledPostRepository interface {
	Create(ctx context.Context, sp *models.ScheduledPost) error
	GetByID(ctx context.Context, id string) (*models.ScheduledPost, error)
	ListUnprocessed(ctx context.Context) ([]*models.ScheduledPost, error)
	SetTaskID(ctx context.Context, id, taskID string) error
	IncrementRetry(ctx context.Context, id string) (int, error)
	MarkProcessed(ctx context.Context, id string, at time.Time) (bool, error)
	CompleteSuccess(ctx context.Context, id, mediaPostID string, at time.Time) (bool, error)
	CompleteFailure(ctx context.Context, id, mediaPostID, errMsg string, at time.Time) (bool, error)
	Remove(ctx context.Context, id string) (bool, error)
}

type scheduledPostRepository struct {
	db *sql.DB
}

func NewScheduledPostRepository(db *sql.DB) ScheduledPostRepository {
	return &scheduledPostRepository{db: db}
}

const scheduledPostColumns = `id, media_post_id, scheduled_time, is_processed, created_at, processed_at, retry_count, max_retries, task_id`

func (r *scheduledPostRepository) Create(ctx context.Context, sp *models.ScheduledPost) error {
	query := `
		INSERT INTO scheduled_posts (id, media_post_id, scheduled_time, is_processed, created_at, retry_count, max_retries, task_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query, sp.ID, sp.MediaPostID, sp.ScheduledTime, sp.IsProcessed, sp.CreatedAt, sp.RetryCount, sp.MaxRetries, sp.TaskID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduledPostRepository) GetByID(ctx context.Context, id string) (*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var sp models.ScheduledPost
	err := row.Scan(&sp.ID, &sp.MediaPostID, &sp.ScheduledTime, &sp.IsProcessed, &sp.CreatedAt, &sp.ProcessedAt, &sp.RetryCount, &sp.MaxRetries, &sp.TaskID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &sp, nil
}

func (r *scheduledPostRepository) ListUnprocessed(ctx context.Context) ([]*models.ScheduledPost, error) {
	query := `SELECT ` + scheduledPostColumns + ` FROM scheduled_posts WHERE is_processed = FALSE ORDER BY scheduled_time`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.ScheduledPost
	for rows.Next() {
		var sp models.ScheduledPost
		err := rows.Scan(&sp.ID, &sp.MediaPostID, &sp.ScheduledTime, &sp.IsProcessed, &sp.CreatedAt, &sp.ProcessedAt, &sp.RetryCount, &sp.MaxRetries, &sp.TaskID)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, &sp)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

func (r *scheduledPostRepository) SetTaskID(ctx context.Context, id, taskID string) error {
	query := `UPDATE scheduled_posts SET task_id = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, taskID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// IncrementRetry bumps the retry counter of an unprocessed schedule and
// returns the new count. A schedule that raced to processed is left alone
// and reported with count -1.
func (r *scheduledPostRepository) IncrementRetry(ctx context.Context, id string) (int, error) {
	query := `
		UPDATE scheduled_posts
		SET retry_count = retry_count + 1
		WHERE id = $1 AND is_processed = FALSE
		RETURNING retry_count
	`
	var count int
	err := r.db.QueryRowContext(ctx, query, id).Scan(&count)
	if err != nil {
		if err == sql.ErrNoRows {
			return -1, nil
		}
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

// MarkProcessed flips is_processed with a conditional update so two racing
// deliveries cannot both claim the terminal transition. Returns whether this
// caller won the flip.
func (r *scheduledPostRepository) MarkProcessed(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET is_processed = TRUE, processed_at = $2
		WHERE id = $1 AND is_processed = FALSE
	`
	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

// CompleteSuccess commits the success transition as one transaction: the
// guarded is_processed flip plus the media post moving to posted. If the
// guard loses (another delivery finished first) nothing is written.
func (r *scheduledPostRepository) CompleteSuccess(ctx context.Context, id, mediaPostID string, at time.Time) (bool, error) {
	return r.complete(ctx, id, at, func(tx *sql.Tx) error {
		query := `UPDATE media_posts SET status = $2, posted_at = $3 WHERE id = $1`
		_, err := tx.ExecContext(ctx, query, mediaPostID, models.PostStatusPosted, at)
		return err
	})
}

// CompleteFailure is the terminal failure counterpart: the schedule is
// marked processed and the media post moves to failed with the captured
// error message, atomically.
func (r *scheduledPostRepository) CompleteFailure(ctx context.Context, id, mediaPostID, errMsg string, at time.Time) (bool, error) {
	return r.complete(ctx, id, at, func(tx *sql.Tx) error {
		query := `UPDATE media_posts SET status = $2, error_message = $3 WHERE id = $1`
		_, err := tx.ExecContext(ctx, query, mediaPostID, models.PostStatusFailed, errMsg)
		return err
	})
}

func (r *scheduledPostRepository) complete(ctx context.Context, id string, at time.Time, writeMedia func(tx *sql.Tx) error) (bool, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	defer tx.Rollback()

	markQuery := `
		UPDATE scheduled_posts
		SET is_processed = TRUE, processed_at = $2
		WHERE id = $1 AND is_processed = FALSE
	`
	result, err := tx.ExecContext(ctx, markQuery, id, at)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	if affected != 1 {
		return false, nil
	}

	if err := writeMedia(tx); err != nil {
		slog.Info(err.Error())
		return false, err
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return true, nil
}

// Remove deletes only unprocessed rows so cancellation cannot erase a
// schedule that already reached a terminal state.
func (r *scheduledPostRepository) Remove(ctx context.Context, id string) (bool, error) {
	query := `DELETE FROM scheduled_posts WHERE id = $1 AND is_processed = FALSE`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}
