package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/reposter/internal/models"
)

type MediaPostRepository interface {
	Create(ctx context.Context, p *models.MediaPost) error
	GetByID(ctx context.Context, id string) (*models.MediaPost, error)
	ListByAccountID(ctx context.Context, accountID string) ([]*models.MediaPost, error)
	ListPostedBefore(ctx context.Context, cutoff time.Time) ([]*models.MediaPost, error)
	Remove(ctx context.Context, id string) (bool, error)
}

type mediaPostRepository struct {
	db *sql.DB
}

func NewMediaPostRepository(db *sql.DB) MediaPostRepository {
	return &mediaPostRepository{db: db}
}

const mediaPostColumns = `id, source_url, media_type, caption, account_id, status, created_at, posted_at, error_message, local_path`

func (r *mediaPostRepository) Create(ctx context.Context, p *models.MediaPost) error {
	query := `
		INSERT INTO media_posts (id, source_url, media_type, caption, account_id, status, created_at, local_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.SourceURL, p.MediaType, p.Caption, p.AccountID, p.Status, p.CreatedAt, p.LocalPath)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *mediaPostRepository) GetByID(ctx context.Context, id string) (*models.MediaPost, error) {
	query := `SELECT ` + mediaPostColumns + ` FROM media_posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var p models.MediaPost
	err := row.Scan(&p.ID, &p.SourceURL, &p.MediaType, &p.Caption, &p.AccountID, &p.Status, &p.CreatedAt, &p.PostedAt, &p.ErrorMessage, &p.LocalPath)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &p, nil
}

func (r *mediaPostRepository) ListByAccountID(ctx context.Context, accountID string) ([]*models.MediaPost, error) {
	query := `SELECT ` + mediaPostColumns + ` FROM media_posts WHERE account_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return scanMediaPosts(rows)
}

func (r *mediaPostRepository) ListPostedBefore(ctx context.Context, cutoff time.Time) ([]*models.MediaPost, error) {
	query := `SELECT ` + mediaPostColumns + ` FROM media_posts WHERE status = $1 AND posted_at < $2`
	rows, err := r.db.QueryContext(ctx, query, models.PostStatusPosted, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return scanMediaPosts(rows)
}

func (r *mediaPostRepository) Remove(ctx context.Context, id string) (bool, error) {
	query := `DELETE FROM media_posts WHERE id = $1`
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

func scanMediaPosts(rows *sql.Rows) ([]*models.MediaPost, error) {
	var posts []*models.MediaPost
	for rows.Next() {
		var p models.MediaPost
		err := rows.Scan(&p.ID, &p.SourceURL, &p.MediaType, &p.Caption, &p.AccountID, &p.Status, &p.CreatedAt, &p.PostedAt, &p.ErrorMessage, &p.LocalPath)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, &p)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}
