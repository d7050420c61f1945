package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/reposter/internal/models"
	"github.com/maheshrc27/reposter/pkg/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *engineFixture) seedSchedule(t *testing.T, id, mediaPostID string) *models.ScheduledPost {
	t.Helper()
	sp := &models.ScheduledPost{
		ID:            id,
		MediaPostID:   mediaPostID,
		ScheduledTime: time.Now().UTC(),
		CreatedAt:     time.Now().UTC(),
		MaxRetries:    3,
	}
	require.NoError(t, f.schedules.Create(context.Background(), sp))
	return sp
}

func TestDispatchSuccess(t *testing.T) {
	f := newEngineFixture(t)
	f.seedAccount(t, "acc1")
	f.seedMediaPost(t, "m1", "acc1")
	f.seedSchedule(t, "s1", "m1")

	require.NoError(t, f.engine.Dispatch(context.Background(), "s1"))

	post, err := f.media.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPosted, post.Status)
	require.NotNil(t, post.PostedAt)
	assert.Nil(t, post.ErrorMessage)

	sp, err := f.schedules.GetByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, sp.IsProcessed)
	require.NotNil(t, sp.ProcessedAt)
	assert.Equal(t, 0, sp.RetryCount)

	account, err := f.accounts.GetByID(context.Background(), "acc1")
	require.NoError(t, err)
	assert.NotNil(t, account.LastUsed)
}

func TestDispatchRedeliveryIsNoOp(t *testing.T) {
	f := newEngineFixture(t)
	f.seedAccount(t, "acc1")
	f.seedMediaPost(t, "m1", "acc1")
	f.seedSchedule(t, "s1", "m1")

	require.NoError(t, f.engine.Dispatch(context.Background(), "s1"))
	require.NoError(t, f.engine.Dispatch(context.Background(), "s1"))

	assert.Equal(t, 1, f.publisher.callCount())
}

func TestDispatchMissingScheduleIsNoOp(t *testing.T) {
	f := newEngineFixture(t)

	require.NoError(t, f.engine.Dispatch(context.Background(), "ghost"))
	assert.Equal(t, 0, f.publisher.callCount())
}

func TestDispatchMissingMediaPostMarksProcessed(t *testing.T) {
	f := newEngineFixture(t)
	f.seedSchedule(t, "s1", "gone")

	require.NoError(t, f.engine.Dispatch(context.Background(), "s1"))

	sp, err := f.schedules.GetByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, sp.IsProcessed)
	assert.Equal(t, 0, f.publisher.callCount())

	// No further attempt on redelivery.
	require.NoError(t, f.engine.Dispatch(context.Background(), "s1"))
	assert.Equal(t, 0, f.publisher.callCount())
}

func TestDispatchMissingAccountIsFatal(t *testing.T) {
	f := newEngineFixture(t)
	f.seedMediaPost(t, "m1", "gone")
	f.seedSchedule(t, "s1", "m1")

	require.NoError(t, f.engine.Dispatch(context.Background(), "s1"))

	post, err := f.media.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusFailed, post.Status)
	require.NotNil(t, post.ErrorMessage)
	assert.Nil(t, post.PostedAt)

	sp, err := f.schedules.GetByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, sp.IsProcessed)
	assert.Equal(t, 0, sp.RetryCount)
	assert.Equal(t, 0, f.publisher.callCount())
}

func TestDispatchDeactivatedAccountIsFatal(t *testing.T) {
	f := newEngineFixture(t)
	f.seedAccount(t, "acc1")
	f.seedMediaPost(t, "m1", "acc1")
	f.seedSchedule(t, "s1", "m1")

	_, err := f.accounts.SetActive(context.Background(), "acc1", false)
	require.NoError(t, err)

	require.NoError(t, f.engine.Dispatch(context.Background(), "s1"))

	post, err := f.media.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusFailed, post.Status)
	assert.Equal(t, 0, f.publisher.callCount())
}

func TestDispatchDecryptFailureIsFatal(t *testing.T) {
	f := newEngineFixture(t)
	require.NoError(t, f.accounts.Create(context.Background(), &models.Account{
		ID:                   "acc1",
		Username:             "poster",
		EncryptedCredentials: "not-a-valid-blob",
		IsActive:             true,
		CreatedAt:            time.Now().UTC(),
	}))
	f.seedMediaPost(t, "m1", "acc1")
	f.seedSchedule(t, "s1", "m1")

	require.NoError(t, f.engine.Dispatch(context.Background(), "s1"))

	post, err := f.media.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusFailed, post.Status)
	require.NotNil(t, post.ErrorMessage)
	assert.Contains(t, *post.ErrorMessage, vault.ErrCrypto.Error())

	sp, err := f.schedules.GetByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, sp.IsProcessed)
	assert.Equal(t, 0, f.publisher.callCount())
}

func TestDispatchRetriesThenSucceeds(t *testing.T) {
	f := newEngineFixture(t)
	f.seedAccount(t, "acc1")
	f.seedMediaPost(t, "m1", "acc1")
	f.seedSchedule(t, "s1", "m1")
	f.publisher.script = []error{
		errors.New("upload timed out"),
		errors.New("upload timed out"),
	}

	// Each transient failure re-arms; the queue would redeliver after the
	// backoff, modeled here by calling Dispatch again.
	require.NoError(t, f.engine.Dispatch(context.Background(), "s1"))
	require.NoError(t, f.engine.Dispatch(context.Background(), "s1"))
	require.NoError(t, f.engine.Dispatch(context.Background(), "s1"))

	post, err := f.media.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPosted, post.Status)
	require.NotNil(t, post.PostedAt)
	assert.Nil(t, post.ErrorMessage)

	sp, err := f.schedules.GetByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, sp.IsProcessed)
	assert.Equal(t, 2, sp.RetryCount)

	require.Len(t, f.enq.calls, 2)
	for _, call := range f.enq.calls {
		assert.Equal(t, "s1", call.scheduleID)
		assert.Equal(t, 300*time.Second, call.delay)
	}
}

func TestDispatchExhaustsRetries(t *testing.T) {
	f := newEngineFixture(t)
	f.seedAccount(t, "acc1")
	f.seedMediaPost(t, "m1", "acc1")
	f.seedSchedule(t, "s1", "m1")
	f.publisher.script = []error{
		errors.New("server error"),
		errors.New("server error"),
		errors.New("server error"),
	}

	require.NoError(t, f.engine.Dispatch(context.Background(), "s1"))
	require.NoError(t, f.engine.Dispatch(context.Background(), "s1"))
	require.NoError(t, f.engine.Dispatch(context.Background(), "s1"))

	post, err := f.media.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusFailed, post.Status)
	require.NotNil(t, post.ErrorMessage)
	assert.Equal(t, "server error", *post.ErrorMessage)
	assert.Nil(t, post.PostedAt)

	sp, err := f.schedules.GetByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, sp.IsProcessed)
	assert.Equal(t, 3, sp.RetryCount)

	// Only the two non-final failures re-armed.
	assert.Len(t, f.enq.calls, 2)

	// Terminal: a stray redelivery does nothing.
	require.NoError(t, f.engine.Dispatch(context.Background(), "s1"))
	assert.Equal(t, 3, f.publisher.callCount())
}

func TestDispatchConcurrentRedelivery(t *testing.T) {
	f := newEngineFixture(t)
	f.seedAccount(t, "acc1")
	f.seedMediaPost(t, "m1", "acc1")
	f.seedSchedule(t, "s1", "m1")

	// Hold both deliveries inside the publish call so both pass the
	// idempotent guard before either commits.
	barrier := &sync.WaitGroup{}
	barrier.Add(2)
	f.publisher.barrier = barrier

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.engine.Dispatch(context.Background(), "s1"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, f.publisher.callCount())

	// Exactly one terminal transition committed.
	post, err := f.media.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPosted, post.Status)
	require.NotNil(t, post.PostedAt)

	sp, err := f.schedules.GetByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, sp.IsProcessed)
	assert.Equal(t, 0, sp.RetryCount)
}
