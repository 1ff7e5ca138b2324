// Package stage owns the ordered stage list of a tenant's pipeline and
// the fixed-endpoint invariant: every tenant has exactly one entry stage
// at the minimum position and one exit stage at the maximum, neither of
// which can be deleted, renamed or reordered by user action.
package stage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fitops/coachdesk/internal/apierr"
	"github.com/fitops/coachdesk/internal/models"
	"github.com/fitops/coachdesk/internal/ordering"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// List returns all stages of a tenant sorted by position ascending.
func List(db *gorm.DB, tenantID string) ([]models.Stage, error) {
	var stages []models.Stage
	if err := db.Where("tenant_id = ?", tenantID).Order("position ASC").Find(&stages).Error; err != nil {
		return nil, fmt.Errorf("stage: list: %w", err)
	}
	return stages, nil
}

// Get returns a stage by ID within a tenant. A stage belonging to a
// different tenant is reported as not found, never as forbidden.
func Get(db *gorm.DB, tenantID, stageID string) (*models.Stage, error) {
	var s models.Stage
	err := db.Where("tenant_id = ? AND id = ?", tenantID, stageID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("stage", stageID)
		}
		return nil, fmt.Errorf("stage: get %s: %w", stageID, err)
	}
	return &s, nil
}

// Entry returns the fixed entry stage of a tenant.
func Entry(db *gorm.DB, tenantID string) (*models.Stage, error) {
	return fixedAt(db, tenantID, models.PositionEntry)
}

// Exit returns the fixed exit stage of a tenant.
func Exit(db *gorm.DB, tenantID string) (*models.Stage, error) {
	return fixedAt(db, tenantID, models.PositionExit)
}

func fixedAt(db *gorm.DB, tenantID string, position int) (*models.Stage, error) {
	var s models.Stage
	err := db.Where("tenant_id = ? AND position = ? AND is_fixed = ?", tenantID, position, true).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("stage: tenant %s has no fixed stage at position %d", tenantID, position)
		}
		return nil, fmt.Errorf("stage: fixed stage lookup: %w", err)
	}
	return &s, nil
}

// EnsureFixed idempotently creates the two fixed endpoint stages for a
// tenant. Safe to call on every board load.
func EnsureFixed(db *gorm.DB, tenantID string) error {
	fixed := []models.Stage{
		{Title: models.TitleEntryStage, Code: models.CodeEntryStage, Position: models.PositionEntry},
		{Title: models.TitleExitStage, Code: models.CodeExitStage, Position: models.PositionExit},
	}
	for _, want := range fixed {
		var count int64
		if err := db.Model(&models.Stage{}).
			Where("tenant_id = ? AND position = ? AND is_fixed = ?", tenantID, want.Position, true).
			Count(&count).Error; err != nil {
			return fmt.Errorf("stage: check fixed stage %q: %w", want.Code, err)
		}
		if count > 0 {
			continue
		}
		s := models.Stage{
			ID:       uuid.NewString(),
			TenantID: tenantID,
			Title:    want.Title,
			Code:     want.Code,
			Position: want.Position,
			IsFixed:  true,
		}
		if err := db.Create(&s).Error; err != nil {
			return fmt.Errorf("stage: create fixed stage %q: %w", want.Code, err)
		}
	}
	return nil
}

// Create adds a non-fixed stage after the last non-fixed stage, always
// strictly between the fixed endpoints.
func Create(db *gorm.DB, tenantID, title, color string) (*models.Stage, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apierr.InvalidPayload(fmt.Errorf("stage title is required"))
	}

	var dup int64
	if err := db.Model(&models.Stage{}).
		Where("tenant_id = ? AND title = ?", tenantID, title).
		Count(&dup).Error; err != nil {
		return nil, fmt.Errorf("stage: check title: %w", err)
	}
	if dup > 0 {
		return nil, apierr.InvalidPayload(fmt.Errorf("stage title %q already exists", title))
	}

	var maxPos int
	err := db.Model(&models.Stage{}).
		Where("tenant_id = ? AND is_fixed = ?", tenantID, false).
		Select("COALESCE(MAX(position), ?)", models.PositionEntry).
		Scan(&maxPos).Error
	if err != nil {
		return nil, fmt.Errorf("stage: max position: %w", err)
	}

	position := ordering.Append(maxPos)
	if position >= models.PositionExit {
		return nil, apierr.InvalidPayload(fmt.Errorf("no positions left before the exit stage"))
	}

	s := models.Stage{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		Title:    title,
		Position: position,
		Color:    color,
	}
	if err := db.Create(&s).Error; err != nil {
		return nil, fmt.Errorf("stage: create: %w", err)
	}
	return &s, nil
}

// Rename changes a non-fixed stage's title. Fixed stages keep their
// terminal roles and cannot be renamed.
func Rename(db *gorm.DB, tenantID, stageID, title string) (*models.Stage, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apierr.InvalidPayload(fmt.Errorf("stage title is required"))
	}

	s, err := Get(db, tenantID, stageID)
	if err != nil {
		return nil, err
	}
	if s.IsFixed {
		return nil, apierr.ForbiddenFixedStage(stageID)
	}

	var dup int64
	if err := db.Model(&models.Stage{}).
		Where("tenant_id = ? AND title = ? AND id != ?", tenantID, title, stageID).
		Count(&dup).Error; err != nil {
		return nil, fmt.Errorf("stage: check title: %w", err)
	}
	if dup > 0 {
		return nil, apierr.InvalidPayload(fmt.Errorf("stage title %q already exists", title))
	}

	if err := db.Model(s).Update("title", title).Error; err != nil {
		return nil, apierr.UpdateFailed(fmt.Errorf("stage: rename %s: %w", stageID, err))
	}
	s.Title = title
	return s, nil
}

// Reorder recomputes positions for the tenant's non-fixed stages to
// match the given order. IDs that do not name a legitimate non-fixed
// stage of the tenant are ignored, so a crafted payload can never move a
// fixed stage. All writes happen in one transaction; any failure rolls
// the whole reorder back and surfaces as UpdateFailed.
func Reorder(db *gorm.DB, tenantID string, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return apierr.InvalidPayload(fmt.Errorf("ordered stage list is empty"))
	}

	var movable []models.Stage
	if err := db.Where("tenant_id = ? AND is_fixed = ?", tenantID, false).Find(&movable).Error; err != nil {
		return fmt.Errorf("stage: load stages: %w", err)
	}
	byID := make(map[string]*models.Stage, len(movable))
	for i := range movable {
		byID[movable[i].ID] = &movable[i]
	}

	var targets []*models.Stage
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		s, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		targets = append(targets, s)
	}
	if len(targets) == 0 {
		return apierr.InvalidPayload(fmt.Errorf("no reorderable stages in payload"))
	}

	ranks := ordering.Renumber(len(targets))
	err := db.Transaction(func(tx *gorm.DB) error {
		// Two-phase update keeps the unique (tenant, position) index
		// satisfied while positions swap.
		for i, s := range targets {
			if err := tx.Model(&models.Stage{}).
				Where("tenant_id = ? AND id = ?", tenantID, s.ID).
				Update("position", -(i + 1)).Error; err != nil {
				return err
			}
		}
		for i, s := range targets {
			if err := tx.Model(&models.Stage{}).
				Where("tenant_id = ? AND id = ?", tenantID, s.ID).
				Update("position", ranks[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apierr.UpdateFailed(fmt.Errorf("stage: reorder: %w", err))
	}
	return nil
}

// Delete removes a non-fixed stage. When migrate is true any cards in
// the stage are moved to the entry stage first (the caller owns the
// migration policy); otherwise a populated stage cannot be deleted.
func Delete(db *gorm.DB, tenantID, stageID string, migrate bool) error {
	s, err := Get(db, tenantID, stageID)
	if err != nil {
		return err
	}
	if s.IsFixed {
		return apierr.ForbiddenFixedStage(stageID)
	}

	var cards int64
	if err := db.Model(&models.Card{}).
		Where("tenant_id = ? AND stage_id = ?", tenantID, stageID).
		Count(&cards).Error; err != nil {
		return fmt.Errorf("stage: count cards: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if cards > 0 {
			if !migrate {
				return apierr.InvalidPayload(fmt.Errorf("stage %s holds %d cards; migrate them first", stageID, cards))
			}
			entry, err := Entry(tx, tenantID)
			if err != nil {
				return err
			}
			// Append migrated cards to the end of the entry stage so
			// ranks stay unique within (tenant, stage).
			var maxRank int
			if err := tx.Model(&models.Card{}).
				Where("tenant_id = ? AND stage_id = ?", tenantID, entry.ID).
				Select("COALESCE(MAX(`rank`), 0)").Scan(&maxRank).Error; err != nil {
				return fmt.Errorf("stage: entry stage max rank: %w", err)
			}
			var migrating []models.Card
			if err := tx.Where("tenant_id = ? AND stage_id = ?", tenantID, stageID).
				Order("`rank` ASC").Find(&migrating).Error; err != nil {
				return fmt.Errorf("stage: load cards to migrate: %w", err)
			}
			for _, c := range migrating {
				maxRank = ordering.Append(maxRank)
				if err := tx.Model(&models.Card{}).
					Where("tenant_id = ? AND id = ?", tenantID, c.ID).
					Updates(map[string]interface{}{"stage_id": entry.ID, "rank": maxRank}).Error; err != nil {
					return apierr.UpdateFailed(fmt.Errorf("stage: migrate card %s: %w", c.ID, err))
				}
			}
		}
		if err := tx.Where("tenant_id = ? AND id = ?", tenantID, stageID).
			Delete(&models.Stage{}).Error; err != nil {
			return apierr.UpdateFailed(fmt.Errorf("stage: delete %s: %w", stageID, err))
		}
		return nil
	})
}
