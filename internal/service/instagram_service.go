package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/maheshrc27/reposter/pkg/vault"
)

// Publisher uploads a local asset to the remote platform. Implementations
// report a single attempt; retry decisions belong to the caller.
type Publisher interface {
	Publish(ctx context.Context, creds vault.Credentials, localPath, caption string) error
}

type instagramService struct {
	baseURL string
	client  *http.Client
}

func NewInstagramService(baseURL string) Publisher {
	return &instagramService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Minute},
	}
}

type instagramSession struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (ig *instagramService) login(ctx context.Context, creds vault.Credentials) (*instagramSession, error) {
	data := url.Values{}
	data.Set("username", creds.Username)
	data.Set("password", creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		ig.baseURL+"/accounts/login/", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ig.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("instagram login failed: %w", err)
	}
	defer resp.Body.Close()

	var session instagramSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || session.Status != "ok" {
		err := fmt.Errorf("instagram login failed for %s: %s", creds.Username, session.Message)
		slog.Info(err.Error())
		return nil, err
	}

	return &session, nil
}

func (ig *instagramService) Publish(ctx context.Context, creds vault.Credentials, localPath, caption string) error {
	session, err := ig.login(ctx, creds)
	if err != nil {
		return err
	}

	var endpoint string
	switch strings.ToLower(filepath.Ext(localPath)) {
	case ".jpg", ".jpeg", ".png":
		endpoint = ig.baseURL + "/media/upload/photo/"
	case ".mp4", ".mov":
		endpoint = ig.baseURL + "/media/upload/video/"
	default:
		return fmt.Errorf("unsupported media format: %s", localPath)
	}

	file, err := os.Open(localPath)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("media", filepath.Base(localPath))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	if err := writer.WriteField("caption", caption); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+session.SessionID)

	resp, err := ig.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("instagram upload failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to decode upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || result.Status != "ok" {
		err := fmt.Errorf("instagram upload failed: %s", result.Message)
		slog.Info(err.Error())
		return err
	}

	return nil
}
