package models

import "time"

// Fixed-stage sentinels. The entry stage always sits at position 0 and the
// exit stage at PositionExit; intermediate stages are renumbered in gapped
// increments strictly between the two.
const (
	PositionEntry = 0
	PositionExit  = 10000
)

// Codes for the two structurally mandatory stages.
const (
	CodeEntryStage = "new_student"
	CodeExitStage  = "training_delivery"
)

// Titles for the two structurally mandatory stages.
const (
	TitleEntryStage = "New Student"
	TitleExitStage  = "Training Delivery"
)

// Stage is a named, ordered column in a tenant's onboarding pipeline.
type Stage struct {
	ID       string `gorm:"primaryKey;size:36"`
	TenantID string `gorm:"size:36;index:idx_stage_tenant_pos,unique;not null"`
	Title    string `gorm:"size:128;not null"`
	Code     string `gorm:"size:64"`
	Position int    `gorm:"index:idx_stage_tenant_pos,unique;not null"`
	IsFixed  bool   `gorm:"default:false"`
	Color    string `gorm:"size:7"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsEntry reports whether the stage is the fixed pipeline entry.
func (s *Stage) IsEntry() bool {
	return s.IsFixed && s.Position == PositionEntry
}

// IsExit reports whether the stage is the fixed pipeline exit.
func (s *Stage) IsExit() bool {
	return s.IsFixed && s.Position == PositionExit
}
