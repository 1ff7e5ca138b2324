// Package card owns card placement and metadata: which stage a card is
// in, its rank within the stage, the assigned trainer and the task
// checklist. All operations are tenant-checked through the caller's
// Identity and role-scoped through the scope package.
package card

import (
	"errors"
	"fmt"

	"github.com/fitops/coachdesk/internal/apierr"
	"github.com/fitops/coachdesk/internal/auth"
	"github.com/fitops/coachdesk/internal/models"
	"github.com/fitops/coachdesk/internal/ordering"
	"github.com/fitops/coachdesk/internal/scope"
	"github.com/fitops/coachdesk/internal/stage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a new card.
type CreateOpts struct {
	StudentID   string
	ServiceType string
	TrainerID   string // optional; trainers always get themselves
}

// ListFilters holds optional filters for listing cards.
type ListFilters struct {
	StageID       string
	OnlyActive    bool // exclude completed cards
	OnlyCompleted bool
}

// Create places a new card in the fixed entry stage with a fresh rank at
// the end of the stage and instantiates its task checklist from the
// tenant's templates for the service type.
func Create(db *gorm.DB, id auth.Identity, opts CreateOpts) (*models.Card, error) {
	if !scope.CanViewBoard(id.Role) {
		return nil, apierr.Forbidden(fmt.Errorf("role %q cannot create cards", id.Role))
	}
	if opts.StudentID == "" {
		return nil, apierr.InvalidPayload(fmt.Errorf("student ID is required"))
	}

	trainerID := opts.TrainerID
	if id.Role == auth.RoleTrainer {
		trainerID = id.UserID
	}

	entry, err := stage.Entry(db, id.TenantID)
	if err != nil {
		return nil, err
	}

	var c *models.Card
	err = db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Card{}).
			Where("tenant_id = ? AND stage_id = ?", id.TenantID, entry.ID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("card: count entry stage: %w", err)
		}

		c = &models.Card{
			ID:          uuid.NewString(),
			TenantID:    id.TenantID,
			StudentID:   opts.StudentID,
			StageID:     entry.ID,
			Rank:        int(count)*ordering.Gap + ordering.Gap,
			ServiceType: opts.ServiceType,
		}
		if trainerID != "" {
			c.TrainerID = &trainerID
		}
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("card: create: %w", err)
		}
		return seedTasks(tx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Get retrieves a card visible to the caller. Cards of other tenants and
// cards outside a trainer's scope are reported as not found.
func Get(db *gorm.DB, id auth.Identity, cardID string) (*models.Card, error) {
	var c models.Card
	err := db.Where("tenant_id = ? AND id = ?", id.TenantID, cardID).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("card", cardID)
		}
		return nil, fmt.Errorf("card: get %s: %w", cardID, err)
	}
	if !scope.CanViewCard(id, &c) {
		return nil, apierr.NotFound("card", cardID)
	}
	return &c, nil
}

// List returns the caller's visible cards, ordered by stage rank.
func List(db *gorm.DB, id auth.Identity, filters ListFilters) ([]models.Card, error) {
	if !scope.CanViewBoard(id.Role) {
		return nil, apierr.Forbidden(fmt.Errorf("role %q cannot list cards", id.Role))
	}

	q := scope.CardFilter(db.Model(&models.Card{}), id)
	if filters.StageID != "" {
		q = q.Where("stage_id = ?", filters.StageID)
	}
	if filters.OnlyActive {
		q = q.Where("completed_at IS NULL")
	}
	if filters.OnlyCompleted {
		q = q.Where("completed_at IS NOT NULL")
	}

	var cards []models.Card
	if err := q.Order("`rank` ASC").Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("card: list: %w", err)
	}
	return cards, nil
}

// Move places a card at the end of the target stage. The target must
// belong to the caller's tenant; a foreign stage is reported as not
// found so existence never leaks across tenants.
func Move(db *gorm.DB, id auth.Identity, cardID, targetStageID string) (*models.Card, error) {
	c, err := Get(db, id, cardID)
	if err != nil {
		return nil, err
	}
	if !scope.CanMutateCard(id, c) {
		return nil, apierr.Forbidden(fmt.Errorf("role %q cannot move card %s", id.Role, cardID))
	}
	if c.Completed() {
		return nil, apierr.CardAlreadyCompleted(cardID)
	}

	target, err := stage.Get(db, id.TenantID, targetStageID)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var maxRank int
		if err := tx.Model(&models.Card{}).
			Where("tenant_id = ? AND stage_id = ?", id.TenantID, target.ID).
			Select("COALESCE(MAX(`rank`), 0)").Scan(&maxRank).Error; err != nil {
			return fmt.Errorf("card: target stage max rank: %w", err)
		}
		rank := ordering.Append(maxRank)
		if err := tx.Model(&models.Card{}).
			Where("tenant_id = ? AND id = ?", id.TenantID, c.ID).
			Updates(map[string]interface{}{"stage_id": target.ID, "rank": rank}).Error; err != nil {
			return fmt.Errorf("card: move %s: %w", c.ID, err)
		}
		c.StageID = target.ID
		c.Rank = rank
		return nil
	})
	if err != nil {
		return nil, apierr.UpdateFailed(err)
	}
	return c, nil
}

// PlaceAfter re-ranks a single card within its stage so it sits directly
// after the given neighbour (empty afterID means the head of the stage).
// Most drops are one row update via the rank midpoint; when the gap
// between neighbours is exhausted the whole stage is renumbered.
func PlaceAfter(db *gorm.DB, id auth.Identity, cardID, afterID string) (*models.Card, error) {
	c, err := Get(db, id, cardID)
	if err != nil {
		return nil, err
	}
	if !scope.CanMutateCard(id, c) {
		return nil, apierr.Forbidden(fmt.Errorf("role %q cannot reorder card %s", id.Role, cardID))
	}

	var siblings []models.Card
	if err := db.Where("tenant_id = ? AND stage_id = ? AND id != ?", id.TenantID, c.StageID, c.ID).
		Order("`rank` ASC").Find(&siblings).Error; err != nil {
		return nil, fmt.Errorf("card: load stage siblings: %w", err)
	}

	prev, next := 0, 0
	found := afterID == ""
	for i, s := range siblings {
		if s.ID == afterID {
			prev = s.Rank
			if i+1 < len(siblings) {
				next = siblings[i+1].Rank
			}
			found = true
			break
		}
	}
	if !found {
		return nil, apierr.InvalidPayload(fmt.Errorf("card %s is not in the same stage", afterID))
	}
	if afterID == "" && len(siblings) > 0 {
		next = siblings[0].Rank
	}

	if next == 0 {
		// Dropped at the tail.
		c.Rank = ordering.Append(prev)
		if err := db.Model(&models.Card{}).
			Where("tenant_id = ? AND id = ?", id.TenantID, c.ID).
			Update("rank", c.Rank).Error; err != nil {
			return nil, apierr.UpdateFailed(fmt.Errorf("card: re-rank %s: %w", c.ID, err))
		}
		return c, nil
	}

	if rank, ok := ordering.Between(prev, next); ok {
		c.Rank = rank
		if err := db.Model(&models.Card{}).
			Where("tenant_id = ? AND id = ?", id.TenantID, c.ID).
			Update("rank", rank).Error; err != nil {
			return nil, apierr.UpdateFailed(fmt.Errorf("card: re-rank %s: %w", c.ID, err))
		}
		return c, nil
	}

	// Gap exhausted: rebuild the whole stage order with the moved card
	// in its new slot, then renumber.
	orderedIDs := make([]string, 0, len(siblings)+1)
	if afterID == "" {
		orderedIDs = append(orderedIDs, c.ID)
	}
	for _, s := range siblings {
		orderedIDs = append(orderedIDs, s.ID)
		if s.ID == afterID {
			orderedIDs = append(orderedIDs, c.ID)
		}
	}
	if err := ReorderInStage(db, id, c.StageID, orderedIDs); err != nil {
		return nil, err
	}
	return Get(db, id, cardID)
}

// ReorderInStage recomputes ranks for exactly the named cards, in the
// given order; cards omitted from the list are untouched. All writes
// happen in one transaction; any failure rolls back and surfaces as
// UpdateFailed.
func ReorderInStage(db *gorm.DB, id auth.Identity, stageID string, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return apierr.InvalidPayload(fmt.Errorf("ordered card list is empty"))
	}
	if _, err := stage.Get(db, id.TenantID, stageID); err != nil {
		return err
	}

	var inStage []models.Card
	if err := scope.CardFilter(db.Model(&models.Card{}), id).
		Where("stage_id = ?", stageID).Find(&inStage).Error; err != nil {
		return fmt.Errorf("card: load stage cards: %w", err)
	}
	byID := make(map[string]*models.Card, len(inStage))
	for i := range inStage {
		byID[inStage[i].ID] = &inStage[i]
	}

	targets := make([]*models.Card, 0, len(orderedIDs))
	seen := make(map[string]bool, len(orderedIDs))
	for _, cardID := range orderedIDs {
		c, ok := byID[cardID]
		if !ok {
			return apierr.InvalidPayload(fmt.Errorf("card %s is not in stage %s", cardID, stageID))
		}
		if seen[cardID] {
			return apierr.InvalidPayload(fmt.Errorf("card %s appears twice", cardID))
		}
		seen[cardID] = true
		targets = append(targets, c)
	}

	ranks := ordering.Renumber(len(targets))
	err := db.Transaction(func(tx *gorm.DB) error {
		for i, c := range targets {
			if err := tx.Model(&models.Card{}).
				Where("tenant_id = ? AND id = ?", id.TenantID, c.ID).
				Update("rank", ranks[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apierr.UpdateFailed(fmt.Errorf("card: reorder stage %s: %w", stageID, err))
	}
	return nil
}

// Assign sets or clears the card's trainer. Only admins and managers
// reassign cards; trainers cannot hand their cards to someone else.
func Assign(db *gorm.DB, id auth.Identity, cardID, trainerID string) (*models.Card, error) {
	if id.Role != auth.RoleAdmin && id.Role != auth.RoleManager {
		return nil, apierr.Forbidden(fmt.Errorf("role %q cannot assign cards", id.Role))
	}
	c, err := Get(db, id, cardID)
	if err != nil {
		return nil, err
	}

	var value interface{}
	if trainerID == "" {
		value = nil
		c.TrainerID = nil
	} else {
		value = trainerID
		c.TrainerID = &trainerID
	}
	if err := db.Model(&models.Card{}).
		Where("tenant_id = ? AND id = ?", id.TenantID, c.ID).
		Update("trainer_id", value).Error; err != nil {
		return nil, apierr.UpdateFailed(fmt.Errorf("card: assign %s: %w", c.ID, err))
	}
	return c, nil
}

// Delete removes a card and its task checklist. Completed cards are part
// of the audit trail and can never be deleted.
func Delete(db *gorm.DB, id auth.Identity, cardID string) error {
	c, err := Get(db, id, cardID)
	if err != nil {
		return err
	}
	if !scope.CanMutateCard(id, c) {
		return apierr.Forbidden(fmt.Errorf("role %q cannot delete card %s", id.Role, cardID))
	}
	if c.Completed() {
		return apierr.CardAlreadyCompleted(cardID)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND card_id = ?", id.TenantID, c.ID).
			Delete(&models.CardTask{}).Error; err != nil {
			return apierr.UpdateFailed(fmt.Errorf("card: delete tasks of %s: %w", c.ID, err))
		}
		if err := tx.Where("tenant_id = ? AND id = ?", id.TenantID, c.ID).
			Delete(&models.Card{}).Error; err != nil {
			return apierr.UpdateFailed(fmt.Errorf("card: delete %s: %w", c.ID, err))
		}
		return nil
	})
}
