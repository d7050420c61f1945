package job

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maheshrc27/reposter/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMediaRepo struct {
	posts []*models.MediaPost
}

func (r *fakeMediaRepo) Create(ctx context.Context, p *models.MediaPost) error { return nil }

func (r *fakeMediaRepo) GetByID(ctx context.Context, id string) (*models.MediaPost, error) {
	return nil, nil
}

func (r *fakeMediaRepo) ListByAccountID(ctx context.Context, accountID string) ([]*models.MediaPost, error) {
	return nil, nil
}

func (r *fakeMediaRepo) ListPostedBefore(ctx context.Context, cutoff time.Time) ([]*models.MediaPost, error) {
	var out []*models.MediaPost
	for _, p := range r.posts {
		if p.Status == models.PostStatusPosted && p.PostedAt != nil && p.PostedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeMediaRepo) Remove(ctx context.Context, id string) (bool, error) { return false, nil }

func writeAsset(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("media bytes"), 0o644))
	return path
}

func postedAt(age time.Duration) *time.Time {
	at := time.Now().UTC().Add(-age)
	return &at
}

func TestCleanupRemovesOnlyExpiredAssets(t *testing.T) {
	dir := t.TempDir()
	oldAsset := writeAsset(t, dir, "old.jpg")
	freshAsset := writeAsset(t, dir, "fresh.jpg")

	repo := &fakeMediaRepo{posts: []*models.MediaPost{
		{ID: "m1", Status: models.PostStatusPosted, PostedAt: postedAt(25 * time.Hour), LocalPath: oldAsset},
		{ID: "m2", Status: models.PostStatusPosted, PostedAt: postedAt(time.Hour), LocalPath: freshAsset},
	}}

	NewCleanupJob(repo, 24*time.Hour).Run()

	_, err := os.Stat(oldAsset)
	assert.True(t, os.IsNotExist(err), "expired asset should be removed")
	_, err = os.Stat(freshAsset)
	assert.NoError(t, err, "fresh asset should survive")
}

func TestCleanupIgnoresPendingAndFailedPosts(t *testing.T) {
	dir := t.TempDir()
	pending := writeAsset(t, dir, "pending.jpg")
	failed := writeAsset(t, dir, "failed.jpg")

	repo := &fakeMediaRepo{posts: []*models.MediaPost{
		{ID: "m1", Status: models.PostStatusPending, LocalPath: pending},
		{ID: "m2", Status: models.PostStatusFailed, LocalPath: failed},
	}}

	NewCleanupJob(repo, 24*time.Hour).Run()

	_, err := os.Stat(pending)
	assert.NoError(t, err)
	_, err = os.Stat(failed)
	assert.NoError(t, err)
}

func TestCleanupSweepSurvivesPerItemErrors(t *testing.T) {
	dir := t.TempDir()

	// A non-empty directory makes os.Remove fail for the first item.
	stubborn := filepath.Join(dir, "stubborn")
	require.NoError(t, os.MkdirAll(stubborn, 0o755))
	writeAsset(t, stubborn, "inner.jpg")

	removable := writeAsset(t, dir, "removable.jpg")

	repo := &fakeMediaRepo{posts: []*models.MediaPost{
		{ID: "m1", Status: models.PostStatusPosted, PostedAt: postedAt(48 * time.Hour), LocalPath: stubborn},
		{ID: "m2", Status: models.PostStatusPosted, PostedAt: postedAt(48 * time.Hour), LocalPath: "/nonexistent/asset.jpg"},
		{ID: "m3", Status: models.PostStatusPosted, PostedAt: postedAt(48 * time.Hour), LocalPath: removable},
	}}

	NewCleanupJob(repo, 24*time.Hour).Run()

	_, err := os.Stat(removable)
	assert.True(t, os.IsNotExist(err), "later items should still be swept")
}
