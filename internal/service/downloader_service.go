package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/h2non/filetype"
	"github.com/maheshrc27/reposter/internal/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// MediaDownloader fetches a remote asset into the local media directory.
type MediaDownloader struct {
	client *http.Client
	dir    string
}

func NewMediaDownloader(dir string) *MediaDownloader {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error(err.Error())
	}
	return &MediaDownloader{
		client: &http.Client{Timeout: 5 * time.Minute},
		dir:    dir,
	}
}

// Download fetches url into the media directory and returns the local path
// along with the sniffed media kind (image, video or unknown).
func (d *MediaDownloader) Download(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		slog.Info(err.Error())
		return "", "", err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", "", fmt.Errorf("failed to download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("failed to download media: HTTP %d", resp.StatusCode)
		slog.Info(err.Error())
		return "", "", err
	}

	// Sniff the head bytes to pick an extension and media kind.
	head := make([]byte, 261)
	n, err := io.ReadFull(resp.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		slog.Info(err.Error())
		return "", "", err
	}
	head = head[:n]

	ext := ".bin"
	mediaType := models.MediaTypeUnknown
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		ext = "." + kind.Extension
		switch {
		case filetype.IsImage(head):
			mediaType = models.MediaTypeImage
		case filetype.IsVideo(head):
			mediaType = models.MediaTypeVideo
		}
	}

	name, err := gonanoid.New()
	if err != nil {
		return "", "", err
	}
	path := filepath.Join(d.dir, name+ext)

	f, err := os.Create(path)
	if err != nil {
		slog.Info(err.Error())
		return "", "", err
	}
	defer f.Close()

	if _, err := f.Write(head); err != nil {
		os.Remove(path)
		return "", "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		slog.Info(err.Error())
		return "", "", err
	}

	return path, mediaType, nil
}
