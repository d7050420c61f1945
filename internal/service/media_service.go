package service

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/maheshrc27/reposter/internal/models"
	"github.com/maheshrc27/reposter/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type MediaService interface {
	CreateMediaPost(ctx context.Context, accountID, sourceURL, caption string) (*models.MediaPost, error)
	MediaPostInfo(ctx context.Context, id string) (*models.MediaPost, error)
	ListByAccount(ctx context.Context, accountID string) ([]*models.MediaPost, error)
}

var ErrAccountNotFound = errors.New("account not found")

type mediaService struct {
	mr repository.MediaPostRepository
	ar repository.AccountRepository
	dl *MediaDownloader
	r2 *R2Service
}

func NewMediaService(
	mr repository.MediaPostRepository,
	ar repository.AccountRepository,
	dl *MediaDownloader,
	r2 *R2Service) MediaService {
	return &mediaService{
		mr: mr,
		ar: ar,
		dl: dl,
		r2: r2,
	}
}

// CreateMediaPost downloads the source asset up front so scheduling later
// only has to publish an already local file.
func (s *mediaService) CreateMediaPost(ctx context.Context, accountID, sourceURL, caption string) (*models.MediaPost, error) {
	if sourceURL == "" {
		err := errors.New("source url cannot be empty")
		slog.Info(err.Error())
		return nil, err
	}

	account, err := s.ar.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}

	localPath, mediaType, err := s.dl.Download(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	if s.r2 != nil && s.r2.Enabled() {
		if err := s.r2.MirrorFile(ctx, filepath.Base(localPath), localPath); err != nil {
			slog.Info("failed to mirror media to r2: " + err.Error())
		}
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	post := &models.MediaPost{
		ID:        id,
		SourceURL: sourceURL,
		MediaType: mediaType,
		Caption:   caption,
		AccountID: account.ID,
		Status:    models.PostStatusPending,
		CreatedAt: time.Now().UTC(),
		LocalPath: localPath,
	}

	if err := s.mr.Create(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

func (s *mediaService) MediaPostInfo(ctx context.Context, id string) (*models.MediaPost, error) {
	return s.mr.GetByID(ctx, id)
}

func (s *mediaService) ListByAccount(ctx context.Context, accountID string) ([]*models.MediaPost, error) {
	return s.mr.ListByAccountID(ctx, accountID)
}
