package card

import (
	"errors"
	"fmt"
	"time"

	"github.com/fitops/coachdesk/internal/apierr"
	"github.com/fitops/coachdesk/internal/auth"
	"github.com/fitops/coachdesk/internal/models"
	"github.com/fitops/coachdesk/internal/scope"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// seedTasks instantiates the card's checklist from the tenant's task
// templates for the card's service type. A card without matching
// templates simply starts with an empty checklist.
func seedTasks(tx *gorm.DB, c *models.Card) error {
	var templates []models.TaskTemplate
	if err := tx.Where("tenant_id = ? AND service_type = ?", c.TenantID, c.ServiceType).
		Order("task_key ASC").Find(&templates).Error; err != nil {
		return fmt.Errorf("card: load task templates: %w", err)
	}
	for _, tpl := range templates {
		task := models.CardTask{
			ID:         uuid.NewString(),
			TenantID:   c.TenantID,
			CardID:     c.ID,
			TaskKey:    tpl.TaskKey,
			Title:      tpl.Title,
			IsRequired: tpl.IsRequired,
			Status:     models.TaskPending,
		}
		if err := tx.Create(&task).Error; err != nil {
			return fmt.Errorf("card: seed task %s: %w", tpl.TaskKey, err)
		}
		c.Tasks = append(c.Tasks, task)
	}
	return nil
}

// ListTasks returns the card's checklist in stable key order.
func ListTasks(db *gorm.DB, id auth.Identity, cardID string) ([]models.CardTask, error) {
	if _, err := Get(db, id, cardID); err != nil {
		return nil, err
	}
	var tasks []models.CardTask
	if err := db.Where("tenant_id = ? AND card_id = ?", id.TenantID, cardID).
		Order("task_key ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("card: list tasks of %s: %w", cardID, err)
	}
	return tasks, nil
}

// SetTaskStatus marks a checklist item pending or completed. Tasks on a
// completed card are frozen.
func SetTaskStatus(db *gorm.DB, id auth.Identity, cardID, taskKey, status string) (*models.CardTask, error) {
	if status != models.TaskPending && status != models.TaskCompleted {
		return nil, apierr.InvalidPayload(fmt.Errorf("unknown task status %q", status))
	}

	c, err := Get(db, id, cardID)
	if err != nil {
		return nil, err
	}
	if !scope.CanMutateCard(id, c) {
		return nil, apierr.Forbidden(fmt.Errorf("role %q cannot update tasks of card %s", id.Role, cardID))
	}
	if c.Completed() {
		return nil, apierr.CardAlreadyCompleted(cardID)
	}

	var task models.CardTask
	err = db.Where("tenant_id = ? AND card_id = ? AND task_key = ?", id.TenantID, cardID, taskKey).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("task", taskKey)
		}
		return nil, fmt.Errorf("card: get task %s: %w", taskKey, err)
	}

	task.Status = status
	if status == models.TaskCompleted {
		now := time.Now().UTC()
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}
	if err := db.Model(&models.CardTask{}).
		Where("tenant_id = ? AND id = ?", id.TenantID, task.ID).
		Updates(map[string]interface{}{"status": task.Status, "completed_at": task.CompletedAt}).Error; err != nil {
		return nil, apierr.UpdateFailed(fmt.Errorf("card: update task %s: %w", taskKey, err))
	}
	return &task, nil
}
