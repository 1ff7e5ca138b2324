package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fitops/coachdesk/internal/apierr"
	"github.com/fitops/coachdesk/internal/audit"
	"github.com/fitops/coachdesk/internal/card"
	"github.com/fitops/coachdesk/internal/completion"
	"github.com/fitops/coachdesk/internal/models"
	"github.com/fitops/coachdesk/internal/notify"
	"github.com/fitops/coachdesk/internal/tree"
	"github.com/gin-gonic/gin"
)

func (h *handlers) handleCardList(c *gin.Context) {
	id := identityFrom(c)
	filters := card.ListFilters{
		StageID:       c.Query("stage_id"),
		OnlyActive:    c.Query("active") == "true",
		OnlyCompleted: c.Query("completed") == "true",
	}
	cards, err := card.List(h.db, id, filters)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

func (h *handlers) handleCardCreate(c *gin.Context) {
	id := identityFrom(c)
	var req struct {
		StudentID   string `json:"student_id"`
		ServiceType string `json:"service_type"`
		TrainerID   string `json:"trainer_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apierr.InvalidPayload(err))
		return
	}
	created, err := card.Create(h.db, id, card.CreateOpts{
		StudentID:   req.StudentID,
		ServiceType: req.ServiceType,
		TrainerID:   req.TrainerID,
	})
	if err != nil {
		fail(c, err)
		return
	}
	audit.Log(h.db, audit.Entry{
		TenantID: id.TenantID, ActorID: id.UserID,
		Action: models.ActionCardCreated, EntityType: "card", EntityID: created.ID,
		Payload: map[string]interface{}{"student_id": created.StudentID},
	})
	h.notifier.Publish(c.Request.Context(), notify.Event{
		Type:     notify.EventCardCreated,
		TenantID: id.TenantID,
		Title:    "New student entered the pipeline",
		Body:     fmt.Sprintf("student %s (%s)", created.StudentID, created.ServiceType),
		Color:    notify.ColorInfo,
	})
	c.JSON(http.StatusCreated, gin.H{"card": created})
}

func (h *handlers) handleCardGet(c *gin.Context) {
	id := identityFrom(c)
	got, err := card.Get(h.db, id, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card": got})
}

func (h *handlers) handleCardDelete(c *gin.Context) {
	id := identityFrom(c)
	cardID := c.Param("id")
	if err := card.Delete(h.db, id, cardID); err != nil {
		fail(c, err)
		return
	}
	audit.Log(h.db, audit.Entry{
		TenantID: id.TenantID, ActorID: id.UserID,
		Action: models.ActionCardDeleted, EntityType: "card", EntityID: cardID,
	})
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *handlers) handleCardMove(c *gin.Context) {
	id := identityFrom(c)
	var req struct {
		StageID string `json:"stage_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apierr.InvalidPayload(err))
		return
	}
	moved, err := card.Move(h.db, id, c.Param("id"), req.StageID)
	if err != nil {
		fail(c, err)
		return
	}
	audit.Log(h.db, audit.Entry{
		TenantID: id.TenantID, ActorID: id.UserID,
		Action: models.ActionCardMoved, EntityType: "card", EntityID: moved.ID,
		Payload: map[string]interface{}{"stage_id": moved.StageID},
	})
	c.JSON(http.StatusOK, gin.H{"card": moved})
}

func (h *handlers) handleCardRank(c *gin.Context) {
	id := identityFrom(c)
	var req struct {
		AfterID string `json:"after_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apierr.InvalidPayload(err))
		return
	}
	placed, err := card.PlaceAfter(h.db, id, c.Param("id"), req.AfterID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"card": placed})
}

func (h *handlers) handleCardReorder(c *gin.Context) {
	id := identityFrom(c)
	var req struct {
		StageID string   `json:"stage_id"`
		CardIDs []string `json:"card_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apierr.InvalidPayload(err))
		return
	}
	if err := card.ReorderInStage(h.db, id, req.StageID, req.CardIDs); err != nil {
		fail(c, err)
		return
	}
	audit.Log(h.db, audit.Entry{
		TenantID: id.TenantID, ActorID: id.UserID,
		Action: models.ActionCardReordered, EntityType: "stage", EntityID: req.StageID,
		Payload: map[string]interface{}{"card_ids": req.CardIDs},
	})
	c.JSON(http.StatusOK, gin.H{"reordered": true})
}

func (h *handlers) handleCardAssign(c *gin.Context) {
	id := identityFrom(c)
	var req struct {
		TrainerID string `json:"trainer_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apierr.InvalidPayload(err))
		return
	}
	assigned, err := card.Assign(h.db, id, c.Param("id"), req.TrainerID)
	if err != nil {
		fail(c, err)
		return
	}
	audit.Log(h.db, audit.Entry{
		TenantID: id.TenantID, ActorID: id.UserID,
		Action: models.ActionCardAssigned, EntityType: "card", EntityID: assigned.ID,
		Payload: map[string]interface{}{"trainer_id": req.TrainerID},
	})
	c.JSON(http.StatusOK, gin.H{"card": assigned})
}

func (h *handlers) handleCardComplete(c *gin.Context) {
	id := identityFrom(c)
	res, err := completion.Complete(h.db, id, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if !res.AlreadyCompleted {
		audit.Log(h.db, audit.Entry{
			TenantID: id.TenantID, ActorID: id.UserID,
			Action: models.ActionCardCompleted, EntityType: "card", EntityID: res.Card.ID,
		})
		tree.InvalidateHistory(c.Request.Context(), h.cache, id.TenantID)
		h.notifier.Publish(c.Request.Context(), notify.Event{
			Type:     notify.EventCardCompleted,
			TenantID: id.TenantID,
			Title:    "Student completed onboarding",
			Body:     fmt.Sprintf("student %s", res.Card.StudentID),
			Color:    notify.ColorSuccess,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"card":              res.Card,
		"record":            res.Record,
		"already_completed": res.AlreadyCompleted,
	})
}

func (h *handlers) handleTaskList(c *gin.Context) {
	id := identityFrom(c)
	tasks, err := card.ListTasks(h.db, id, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *handlers) handleTaskToggle(c *gin.Context) {
	id := identityFrom(c)
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apierr.InvalidPayload(err))
		return
	}
	cardID, key := c.Param("id"), c.Param("key")
	task, err := card.SetTaskStatus(h.db, id, cardID, key, req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	audit.Log(h.db, audit.Entry{
		TenantID: id.TenantID, ActorID: id.UserID,
		Action: models.ActionTaskToggled, EntityType: "card", EntityID: cardID,
		Payload: map[string]interface{}{"task_key": key, "status": task.Status},
	})
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (h *handlers) handleTree(c *gin.Context) {
	id := identityFrom(c)
	t, err := tree.BuildTrainerTree(c.Request.Context(), h.db, id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *handlers) handleHistory(c *gin.Context) {
	id := identityFrom(c)
	filters := tree.HistoryFilters{
		TrainerID: c.Query("trainer_id"),
		Page:      intQuery(c, "page"),
		PageSize:  intQuery(c, "page_size"),
	}
	if from, ok := timeQuery(c, "from"); ok {
		filters.From = &from
	}
	if to, ok := timeQuery(c, "to"); ok {
		filters.To = &to
	}
	page, err := tree.ListHistory(c.Request.Context(), h.db, h.cache, id, filters)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func intQuery(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}

func timeQuery(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
