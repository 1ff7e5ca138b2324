package models

import "time"

// Pipeline log actions.
const (
	ActionStageCreated   = "stage_created"
	ActionStageRenamed   = "stage_renamed"
	ActionStageReordered = "stages_reordered"
	ActionStageDeleted   = "stage_deleted"
	ActionCardCreated    = "card_created"
	ActionCardMoved      = "card_moved"
	ActionCardReordered  = "cards_reordered"
	ActionCardAssigned   = "card_assigned"
	ActionCardDeleted    = "card_deleted"
	ActionCardCompleted  = "card_completed"
	ActionTaskToggled    = "card_task_toggled"
)

// PipelineLog is an append-only audit row for stage and card mutations.
// Writes are best-effort: a failed log insert never fails the operation
// it describes.
type PipelineLog struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	TenantID   string `gorm:"size:36;index;not null"`
	ActorID    string `gorm:"size:36"`
	Action     string `gorm:"size:32;index"`
	EntityType string `gorm:"size:32"`
	EntityID   string `gorm:"size:36"`
	Payload    string `gorm:"type:text"`

	CreatedAt time.Time
}
