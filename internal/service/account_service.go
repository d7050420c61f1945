package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/maheshrc27/reposter/internal/models"
	"github.com/maheshrc27/reposter/internal/repository"
	"github.com/maheshrc27/reposter/pkg/vault"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type AccountService interface {
	Create(ctx context.Context, username, password string) (*models.Account, error)
	List(ctx context.Context, limit, offset int) ([]*models.Account, error)
	SetActive(ctx context.Context, id string, active bool) (bool, error)
	Remove(ctx context.Context, id string) (bool, error)
}

type accountService struct {
	ar repository.AccountRepository
	v  *vault.Vault
}

func NewAccountService(ar repository.AccountRepository, v *vault.Vault) AccountService {
	return &accountService{ar: ar, v: v}
}

func (s *accountService) Create(ctx context.Context, username, password string) (*models.Account, error) {
	if username == "" || password == "" {
		err := errors.New("username and password cannot be empty")
		slog.Info(err.Error())
		return nil, err
	}

	encrypted, err := s.v.EncryptCredentials(vault.Credentials{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ID:                   id,
		Username:             username,
		EncryptedCredentials: encrypted,
		IsActive:             true,
		CreatedAt:            time.Now().UTC(),
	}

	if err := s.ar.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

func (s *accountService) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.ar.List(ctx, limit, offset)
}

func (s *accountService) SetActive(ctx context.Context, id string, active bool) (bool, error) {
	return s.ar.SetActive(ctx, id, active)
}

func (s *accountService) Remove(ctx context.Context, id string) (bool, error) {
	return s.ar.Remove(ctx, id)
}
