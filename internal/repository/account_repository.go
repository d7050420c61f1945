package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/reposter/internal/models"
)

type AccountRepository interface {
	Create(ctx context.Context, a *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	List(ctx context.Context, limit, offset int) ([]*models.Account, error)
	SetActive(ctx context.Context, id string, active bool) (bool, error)
	TouchLastUsed(ctx context.Context, id string, t time.Time) error
	Remove(ctx context.Context, id string) (bool, error)
}

type accountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, a *models.Account) error {
	query := `
		INSERT INTO accounts (id, username, encrypted_credentials, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.Username, a.EncryptedCredentials, a.IsActive, a.CreatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT id, username, encrypted_credentials, is_active, created_at, last_used FROM accounts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var a models.Account
	err := row.Scan(&a.ID, &a.Username, &a.EncryptedCredentials, &a.IsActive, &a.CreatedAt, &a.LastUsed)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &a, nil
}

func (r *accountRepository) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	query := `SELECT id, username, encrypted_credentials, is_active, created_at, last_used FROM accounts ORDER BY created_at LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var a models.Account
		err := rows.Scan(&a.ID, &a.Username, &a.EncryptedCredentials, &a.IsActive, &a.CreatedAt, &a.LastUsed)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &a)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepository) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	query := `UPDATE accounts SET is_active = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, active)
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

func (r *accountRepository) TouchLastUsed(ctx context.Context, id string, t time.Time) error {
	query := `UPDATE accounts SET last_used = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, t)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *accountRepository) Remove(ctx context.Context, id string) (bool, error) {
	query := `DELETE FROM accounts WHERE id = $1`
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
