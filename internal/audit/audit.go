// Package audit appends pipeline mutations to an append-only log.
package audit

import (
	"encoding/json"
	"log"

	"github.com/fitops/coachdesk/internal/models"
	"gorm.io/gorm"
)

// Entry describes one pipeline mutation.
type Entry struct {
	TenantID   string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Payload    map[string]interface{}
}

// Log appends an audit row. Best-effort: errors are logged, not
// returned, so a failed audit write never fails the mutation it records.
func Log(db *gorm.DB, e Entry) {
	payload := "{}"
	if e.Payload != nil {
		data, err := json.Marshal(e.Payload)
		if err != nil {
			log.Printf("audit: marshal payload for %s: %v", e.Action, err)
		} else {
			payload = string(data)
		}
	}

	row := models.PipelineLog{
		TenantID:   e.TenantID,
		ActorID:    e.ActorID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Payload:    payload,
	}
	if err := db.Create(&row).Error; err != nil {
		log.Printf("audit: append %s for tenant %s: %v", e.Action, e.TenantID, err)
	}
}
