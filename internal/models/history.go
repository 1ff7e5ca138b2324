package models

import "time"

// HistoryRecord is an immutable projection written exactly once, at the
// moment a card completes. Never updated in place.
type HistoryRecord struct {
	ID          string  `gorm:"primaryKey;size:36"`
	TenantID    string  `gorm:"size:36;index;not null"`
	CardID      string  `gorm:"size:36;uniqueIndex;not null"`
	StudentID   string  `gorm:"size:36;index;not null"`
	TrainerID   *string `gorm:"size:36;index"`
	CompletedAt time.Time `gorm:"index"`

	CreatedAt time.Time
}
