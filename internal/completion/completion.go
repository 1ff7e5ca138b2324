// Package completion is the single gate through which cards leave the
// pipeline. A card completes only from the fixed exit stage, only with
// every required task checked off, and exactly once.
package completion

import (
	"errors"
	"fmt"
	"time"

	"github.com/fitops/coachdesk/internal/apierr"
	"github.com/fitops/coachdesk/internal/auth"
	"github.com/fitops/coachdesk/internal/card"
	"github.com/fitops/coachdesk/internal/models"
	"github.com/fitops/coachdesk/internal/scope"
	"github.com/fitops/coachdesk/internal/stage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Result reports the outcome of a completion request.
type Result struct {
	Card   *models.Card
	Record *models.HistoryRecord

	// AlreadyCompleted is set when the request was a no-op replay.
	AlreadyCompleted bool
}

// CanComplete reports whether the card could complete right now, and the
// gate error that would block it otherwise.
func CanComplete(db *gorm.DB, id auth.Identity, cardID string) (*models.Card, error) {
	c, err := card.Get(db, id, cardID)
	if err != nil {
		return nil, err
	}
	if !scope.CanMutateCard(id, c) {
		return nil, apierr.Forbidden(fmt.Errorf("role %q cannot complete card %s", id.Role, cardID))
	}
	if c.Completed() {
		return c, nil
	}

	exit, err := stage.Exit(db, id.TenantID)
	if err != nil {
		return nil, err
	}
	if c.StageID != exit.ID {
		return nil, apierr.NotInExitStage(cardID)
	}

	var pending int64
	err = db.Model(&models.CardTask{}).
		Where("tenant_id = ? AND card_id = ? AND is_required = ? AND status != ?",
			id.TenantID, cardID, true, models.TaskCompleted).
		Count(&pending).Error
	if err != nil {
		return nil, fmt.Errorf("completion: count pending tasks: %w", err)
	}
	if pending > 0 {
		return nil, apierr.IncompleteRequiredTasks(cardID)
	}
	return c, nil
}

// Complete marks the card as done and writes its history record in one
// transaction. Completing an already-completed card is a harmless no-op
// that returns the existing state and no second record.
func Complete(db *gorm.DB, id auth.Identity, cardID string) (*Result, error) {
	c, err := CanComplete(db, id, cardID)
	if err != nil {
		return nil, err
	}
	if c.Completed() {
		rec, err := recordFor(db, id.TenantID, c.ID)
		if err != nil {
			return nil, err
		}
		return &Result{Card: c, Record: rec, AlreadyCompleted: true}, nil
	}

	now := time.Now().UTC()
	rec := &models.HistoryRecord{
		ID:          uuid.NewString(),
		TenantID:    c.TenantID,
		CardID:      c.ID,
		StudentID:   c.StudentID,
		TrainerID:   c.TrainerID,
		CompletedAt: now,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		// Guard against a concurrent completion of the same card: only
		// the first writer flips completed_at.
		res := tx.Model(&models.Card{}).
			Where("tenant_id = ? AND id = ? AND completed_at IS NULL", id.TenantID, c.ID).
			Update("completed_at", &now)
		if res.Error != nil {
			return fmt.Errorf("completion: mark card %s: %w", c.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return errAlreadyCompleted
		}
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("completion: write history for %s: %w", c.ID, err)
		}
		return nil
	})
	if errors.Is(err, errAlreadyCompleted) {
		fresh, ferr := card.Get(db, id, cardID)
		if ferr != nil {
			return nil, ferr
		}
		existing, ferr := recordFor(db, id.TenantID, c.ID)
		if ferr != nil {
			return nil, ferr
		}
		return &Result{Card: fresh, Record: existing, AlreadyCompleted: true}, nil
	}
	if err != nil {
		return nil, apierr.UpdateFailed(err)
	}

	c.CompletedAt = &now
	return &Result{Card: c, Record: rec}, nil
}

var errAlreadyCompleted = errors.New("completion: card already completed")

func recordFor(db *gorm.DB, tenantID, cardID string) (*models.HistoryRecord, error) {
	var rec models.HistoryRecord
	err := db.Where("tenant_id = ? AND card_id = ?", tenantID, cardID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("completion: load history for %s: %w", cardID, err)
	}
	return &rec, nil
}
