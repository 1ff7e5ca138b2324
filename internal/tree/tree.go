// Package tree builds the read-side aggregates: active cards grouped
// per trainer, and the paginated completion history.
package tree

import (
	"context"
	"fmt"
	"sort"

	"github.com/fitops/coachdesk/internal/apierr"
	"github.com/fitops/coachdesk/internal/auth"
	"github.com/fitops/coachdesk/internal/models"
	"github.com/fitops/coachdesk/internal/scope"
	"gorm.io/gorm"
)

// UnassignedBucket groups active cards that no trainer owns yet.
const UnassignedBucket = "unassigned"

// Bucket holds one trainer's active cards, ordered by stage rank.
type Bucket struct {
	TrainerID string        `json:"trainer_id"`
	Cards     []models.Card `json:"cards"`
}

// TrainerTree is the grouped view of every non-completed card the
// caller may see.
type TrainerTree struct {
	TenantID string   `json:"tenant_id"`
	Buckets  []Bucket `json:"buckets"`
	Total    int      `json:"total"`
}

// BuildTrainerTree groups the caller's visible active cards by trainer.
// Admins and managers see every bucket plus the unassigned one; a
// trainer's tree only ever contains their own bucket.
func BuildTrainerTree(ctx context.Context, db *gorm.DB, id auth.Identity) (*TrainerTree, error) {
	if !scope.CanViewBoard(id.Role) {
		return nil, apierr.Forbidden(fmt.Errorf("role %q cannot view the board", id.Role))
	}

	var cards []models.Card
	err := scope.CardFilter(db.WithContext(ctx).Model(&models.Card{}), id).
		Where("completed_at IS NULL").
		Preload("Stage").
		Order("stage_id ASC, `rank` ASC").
		Find(&cards).Error
	if err != nil {
		return nil, fmt.Errorf("tree: load active cards: %w", err)
	}

	grouped := make(map[string][]models.Card)
	for _, c := range cards {
		key := UnassignedBucket
		if c.TrainerID != nil && *c.TrainerID != "" {
			key = *c.TrainerID
		}
		grouped[key] = append(grouped[key], c)
	}

	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		if k != UnassignedBucket {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := grouped[UnassignedBucket]; ok {
		keys = append(keys, UnassignedBucket)
	}

	t := &TrainerTree{TenantID: id.TenantID, Total: len(cards)}
	for _, k := range keys {
		t.Buckets = append(t.Buckets, Bucket{TrainerID: k, Cards: grouped[k]})
	}
	return t, nil
}
