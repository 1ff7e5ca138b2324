package models

import "time"

// Card is a student's onboarding record as it progresses through stages.
type Card struct {
	ID          string  `gorm:"primaryKey;size:36"`
	TenantID    string  `gorm:"size:36;index;not null"`
	StudentID   string  `gorm:"size:36;index;not null"`
	StageID     string  `gorm:"size:36;index;not null"`
	Rank        int     `gorm:"not null"`
	TrainerID   *string `gorm:"size:36;index"`
	ServiceType string  `gorm:"size:64"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time

	Stage Stage      `gorm:"foreignKey:StageID"`
	Tasks []CardTask `gorm:"foreignKey:CardID"`
}

// Completed reports whether the card has finished the pipeline.
// Completion is terminal; CompletedAt is never cleared.
func (c *Card) Completed() bool {
	return c.CompletedAt != nil
}

// Task statuses.
const (
	TaskPending   = "pending"
	TaskCompleted = "completed"
)

// CardTask is a checklist item instantiated on a card from the task
// templates of the service the student purchased.
type CardTask struct {
	ID         string `gorm:"primaryKey;size:36"`
	TenantID   string `gorm:"size:36;index;not null"`
	CardID     string `gorm:"size:36;index:idx_task_card_key,unique;not null"`
	TaskKey    string `gorm:"size:64;index:idx_task_card_key,unique;not null"`
	Title      string `gorm:"size:255"`
	IsRequired bool   `gorm:"default:false"`
	Status     string `gorm:"size:16;default:pending"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// TaskTemplate defines a checklist item seeded onto every new card of a
// given service type within a tenant.
type TaskTemplate struct {
	ID          string `gorm:"primaryKey;size:36"`
	TenantID    string `gorm:"size:36;index:idx_tpl_tenant_service_key,unique;not null"`
	ServiceType string `gorm:"size:64;index:idx_tpl_tenant_service_key,unique;not null"`
	TaskKey     string `gorm:"size:64;index:idx_tpl_tenant_service_key,unique;not null"`
	Title       string `gorm:"size:255"`
	IsRequired  bool   `gorm:"default:false"`

	CreatedAt time.Time
}
