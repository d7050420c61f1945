package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/reposter/internal/models"
)

type outcomeKind int

const (
	outcomePublished outcomeKind = iota
	outcomeTransient
	outcomeFatal
)

// attemptOutcome is the result of a single publish attempt. Transient
// failures feed the retry path; fatal ones (integrity or crypto problems)
// terminate the job immediately.
type attemptOutcome struct {
	kind outcomeKind
	err  error
}

// Dispatch executes one attempt for a scheduled post. Every business path
// ends in either a re-arm or a terminal record write; the returned error is
// non-nil only for record-store I/O failures, which the queue redelivers
// and the idempotent guard absorbs.
func (e *Engine) Dispatch(ctx context.Context, scheduleID string) error {
	sp, err := e.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return err
	}
	if sp == nil || sp.IsProcessed {
		// Cancel race or duplicate delivery.
		return nil
	}

	post, err := e.media.GetByID(ctx, sp.MediaPostID)
	if err != nil {
		return err
	}
	if post == nil {
		slog.Error(fmt.Sprintf("media post %s missing for schedule %s", sp.MediaPostID, sp.ID))
		_, err := e.schedules.MarkProcessed(ctx, sp.ID, time.Now().UTC())
		return err
	}

	res, err := e.attempt(ctx, post)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	switch res.kind {
	case outcomePublished:
		won, err := e.schedules.CompleteSuccess(ctx, sp.ID, post.ID, now)
		if err != nil {
			return err
		}
		if !won {
			slog.Info(fmt.Sprintf("schedule %s already resolved by another delivery", sp.ID))
			return nil
		}
		slog.Info(fmt.Sprintf("successfully posted media %s", post.ID))

	case outcomeTransient:
		count, err := e.schedules.IncrementRetry(ctx, sp.ID)
		if err != nil {
			return err
		}
		if count < 0 {
			// Raced to processed between the guard and the increment.
			return nil
		}
		if count < sp.MaxRetries {
			slog.Info(fmt.Sprintf("publish attempt %d/%d for schedule %s failed: %v, retrying in %s",
				count, sp.MaxRetries, sp.ID, res.err, e.backoff))
			taskID, err := e.enq.Enqueue(ctx, sp.ID, e.backoff)
			if err != nil {
				slog.Error(fmt.Sprintf("failed to re-arm schedule %s: %v", sp.ID, err))
				return err
			}
			if err := e.schedules.SetTaskID(ctx, sp.ID, taskID); err != nil {
				slog.Info(err.Error())
			}
			return nil
		}
		slog.Error(fmt.Sprintf("schedule %s exhausted %d retries: %v", sp.ID, sp.MaxRetries, res.err))
		if _, err := e.schedules.CompleteFailure(ctx, sp.ID, post.ID, res.err.Error(), now); err != nil {
			return err
		}

	case outcomeFatal:
		slog.Error(fmt.Sprintf("fatal failure for schedule %s: %v", sp.ID, res.err))
		if _, err := e.schedules.CompleteFailure(ctx, sp.ID, post.ID, res.err.Error(), now); err != nil {
			return err
		}
	}

	return nil
}

// attempt loads the owning account, decrypts its credentials and invokes
// the publisher once. The returned error is reserved for record-store I/O;
// everything else is folded into the outcome.
func (e *Engine) attempt(ctx context.Context, post *models.MediaPost) (attemptOutcome, error) {
	account, err := e.accounts.GetByID(ctx, post.AccountID)
	if err != nil {
		return attemptOutcome{}, err
	}
	if account == nil {
		return attemptOutcome{kind: outcomeFatal, err: fmt.Errorf("account %s missing for media post %s", post.AccountID, post.ID)}, nil
	}
	if !account.IsActive {
		return attemptOutcome{kind: outcomeFatal, err: fmt.Errorf("account %s is deactivated", account.ID)}, nil
	}

	creds, err := e.vault.DecryptCredentials(account.EncryptedCredentials)
	if err != nil {
		return attemptOutcome{kind: outcomeFatal, err: err}, nil
	}

	if err := e.publisher.Publish(ctx, creds, post.LocalPath, post.Caption); err != nil {
		return attemptOutcome{kind: outcomeTransient, err: err}, nil
	}

	if err := e.accounts.TouchLastUsed(ctx, account.ID, time.Now().UTC()); err != nil {
		slog.Info(err.Error())
	}

	return attemptOutcome{kind: outcomePublished}, nil
}
