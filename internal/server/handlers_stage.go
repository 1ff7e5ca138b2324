package server

import (
	"fmt"
	"net/http"

	"github.com/fitops/coachdesk/internal/apierr"
	"github.com/fitops/coachdesk/internal/audit"
	"github.com/fitops/coachdesk/internal/db"
	"github.com/fitops/coachdesk/internal/models"
	"github.com/fitops/coachdesk/internal/scope"
	"github.com/fitops/coachdesk/internal/stage"
	"github.com/gin-gonic/gin"
)

// handleBoardInit seeds the fixed stages and the default task templates
// for the caller's tenant. Safe to call repeatedly.
func (h *handlers) handleBoardInit(c *gin.Context) {
	id := identityFrom(c)
	if !scope.CanManageStages(id.Role) {
		fail(c, apierr.Forbidden(fmt.Errorf("role %q cannot initialize the board", id.Role)))
		return
	}
	if err := stage.EnsureFixed(h.db, id.TenantID); err != nil {
		fail(c, err)
		return
	}
	if err := db.SeedTaskTemplates(h.db, id.TenantID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"initialized": true})
}

func (h *handlers) handleStageList(c *gin.Context) {
	id := identityFrom(c)
	if !scope.CanViewBoard(id.Role) {
		fail(c, apierr.Forbidden(fmt.Errorf("role %q cannot view stages", id.Role)))
		return
	}
	stages, err := stage.List(h.db, id.TenantID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stages": stages})
}

func (h *handlers) handleStageCreate(c *gin.Context) {
	id := identityFrom(c)
	if !scope.CanManageStages(id.Role) {
		fail(c, apierr.Forbidden(fmt.Errorf("role %q cannot manage stages", id.Role)))
		return
	}
	var req struct {
		Title string `json:"title"`
		Color string `json:"color"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apierr.InvalidPayload(err))
		return
	}
	s, err := stage.Create(h.db, id.TenantID, req.Title, req.Color)
	if err != nil {
		fail(c, err)
		return
	}
	audit.Log(h.db, audit.Entry{
		TenantID: id.TenantID, ActorID: id.UserID,
		Action: models.ActionStageCreated, EntityType: "stage", EntityID: s.ID,
		Payload: map[string]interface{}{"title": s.Title},
	})
	c.JSON(http.StatusCreated, gin.H{"stage": s})
}

func (h *handlers) handleStageReorder(c *gin.Context) {
	id := identityFrom(c)
	if !scope.CanManageStages(id.Role) {
		fail(c, apierr.Forbidden(fmt.Errorf("role %q cannot manage stages", id.Role)))
		return
	}
	var req struct {
		StageIDs []string `json:"stage_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apierr.InvalidPayload(err))
		return
	}
	if err := stage.Reorder(h.db, id.TenantID, req.StageIDs); err != nil {
		fail(c, err)
		return
	}
	audit.Log(h.db, audit.Entry{
		TenantID: id.TenantID, ActorID: id.UserID,
		Action: models.ActionStageReordered, EntityType: "stage",
		Payload: map[string]interface{}{"stage_ids": req.StageIDs},
	})
	c.JSON(http.StatusOK, gin.H{"reordered": true})
}

func (h *handlers) handleStageRename(c *gin.Context) {
	id := identityFrom(c)
	if !scope.CanManageStages(id.Role) {
		fail(c, apierr.Forbidden(fmt.Errorf("role %q cannot manage stages", id.Role)))
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apierr.InvalidPayload(err))
		return
	}
	s, err := stage.Rename(h.db, id.TenantID, c.Param("id"), req.Title)
	if err != nil {
		fail(c, err)
		return
	}
	audit.Log(h.db, audit.Entry{
		TenantID: id.TenantID, ActorID: id.UserID,
		Action: models.ActionStageRenamed, EntityType: "stage", EntityID: s.ID,
		Payload: map[string]interface{}{"title": s.Title},
	})
	c.JSON(http.StatusOK, gin.H{"stage": s})
}

func (h *handlers) handleStageDelete(c *gin.Context) {
	id := identityFrom(c)
	if !scope.CanManageStages(id.Role) {
		fail(c, apierr.Forbidden(fmt.Errorf("role %q cannot manage stages", id.Role)))
		return
	}
	stageID := c.Param("id")
	migrate := c.Query("migrate") == "true"
	if err := stage.Delete(h.db, id.TenantID, stageID, migrate); err != nil {
		fail(c, err)
		return
	}
	audit.Log(h.db, audit.Entry{
		TenantID: id.TenantID, ActorID: id.UserID,
		Action: models.ActionStageDeleted, EntityType: "stage", EntityID: stageID,
		Payload: map[string]interface{}{"migrate": migrate},
	})
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
