package db

import (
	"fmt"

	"github.com/fitops/coachdesk/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Stage{},
		&models.Card{},
		&models.CardTask{},
		&models.TaskTemplate{},
		&models.HistoryRecord{},
		&models.PipelineLog{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// DefaultTaskTemplates returns the checklist seeded for a fresh tenant.
// Tenants customize these per service type afterwards.
func DefaultTaskTemplates(tenantID string) []models.TaskTemplate {
	return []models.TaskTemplate{
		{TenantID: tenantID, ServiceType: "personal_training", TaskKey: "anamnesis", Title: "Collect health questionnaire", IsRequired: true},
		{TenantID: tenantID, ServiceType: "personal_training", TaskKey: "assessment", Title: "Physical assessment", IsRequired: true},
		{TenantID: tenantID, ServiceType: "personal_training", TaskKey: "first_workout", Title: "Deliver first workout plan", IsRequired: true},
		{TenantID: tenantID, ServiceType: "personal_training", TaskKey: "welcome_call", Title: "Welcome call", IsRequired: false},
		{TenantID: tenantID, ServiceType: "online_coaching", TaskKey: "anamnesis", Title: "Collect health questionnaire", IsRequired: true},
		{TenantID: tenantID, ServiceType: "online_coaching", TaskKey: "app_setup", Title: "Set up training app access", IsRequired: true},
		{TenantID: tenantID, ServiceType: "online_coaching", TaskKey: "first_checkin", Title: "Schedule first check-in", IsRequired: false},
	}
}

// SeedTaskTemplates upserts task templates for a tenant, falling back
// to the defaults when none are given.
func SeedTaskTemplates(db *gorm.DB, tenantID string, templates ...models.TaskTemplate) error {
	if len(templates) == 0 {
		templates = DefaultTaskTemplates(tenantID)
	}
	for i := range templates {
		t := &templates[i]
		if t.ID == "" {
			t.ID = newID()
		}
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "service_type"}, {Name: "task_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "is_required"}),
		}).Create(t)
		if result.Error != nil {
			return fmt.Errorf("db: seed template %s/%s: %w", t.ServiceType, t.TaskKey, result.Error)
		}
	}
	return nil
}
