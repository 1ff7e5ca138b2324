// Package scope enforces role-based visibility before data crosses the
// API boundary. It is the single source of truth for "can this caller
// see this card" — list endpoints, the trainer tree and the completion
// history all go through the same filter.
package scope

import (
	"github.com/fitops/coachdesk/internal/auth"
	"github.com/fitops/coachdesk/internal/models"
	"gorm.io/gorm"
)

// CanViewBoard reports whether the role may read pipeline data at all.
// Stage structure is shared, so any board-visible role sees all stages.
func CanViewBoard(role auth.Role) bool {
	switch role {
	case auth.RoleAdmin, auth.RoleManager, auth.RoleTrainer:
		return true
	default:
		return false
	}
}

// CanManageStages reports whether the role may create, rename, reorder
// or delete stages. Trainers work within the structure managers define.
func CanManageStages(role auth.Role) bool {
	return role == auth.RoleAdmin || role == auth.RoleManager
}

// CardFilter narrows a card query to what the caller may see. Admins and
// managers see the whole tenant; trainers see only their own cards.
// The tenant predicate is always applied here, on reads and writes alike.
func CardFilter(q *gorm.DB, id auth.Identity) *gorm.DB {
	q = q.Where("tenant_id = ?", id.TenantID)
	if id.Role == auth.RoleTrainer {
		q = q.Where("trainer_id = ?", id.UserID)
	}
	return q
}

// CanMutateCard reports whether the caller may modify the given card.
// The card must already be tenant-checked; a cross-tenant card is never
// mutable regardless of role.
func CanMutateCard(id auth.Identity, card *models.Card) bool {
	if card.TenantID != id.TenantID {
		return false
	}
	switch id.Role {
	case auth.RoleAdmin, auth.RoleManager:
		return true
	case auth.RoleTrainer:
		return card.TrainerID != nil && *card.TrainerID == id.UserID
	default:
		return false
	}
}

// CanViewCard reports whether the caller may read the given card.
// Unassigned cards are visible to managers and admins only.
func CanViewCard(id auth.Identity, card *models.Card) bool {
	if card.TenantID != id.TenantID {
		return false
	}
	switch id.Role {
	case auth.RoleAdmin, auth.RoleManager:
		return true
	case auth.RoleTrainer:
		return card.TrainerID != nil && *card.TrainerID == id.UserID
	default:
		return false
	}
}
