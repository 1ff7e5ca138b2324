package server

import (
	"net/http"

	"github.com/fitops/coachdesk/internal/cache"
	"github.com/fitops/coachdesk/internal/notify"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// handlers bundles the dependencies every endpoint shares.
type handlers struct {
	db       *gorm.DB
	cache    *cache.Cache
	notifier *notify.Notifier
	log      *zap.Logger
}

// registerRoutes sets up the full API surface.
func registerRoutes(router *gin.Engine, h *handlers, secret []byte) {
	router.GET("/healthz", h.handleHealth)

	api := router.Group("/api", requireAuth(secret))

	api.POST("/board/init", h.handleBoardInit)

	api.GET("/stages", h.handleStageList)
	api.POST("/stages", h.handleStageCreate)
	api.POST("/stages/reorder", h.handleStageReorder)
	api.PATCH("/stages/:id", h.handleStageRename)
	api.DELETE("/stages/:id", h.handleStageDelete)

	api.GET("/cards", h.handleCardList)
	api.POST("/cards", h.handleCardCreate)
	api.POST("/cards/reorder", h.handleCardReorder)
	api.GET("/cards/:id", h.handleCardGet)
	api.DELETE("/cards/:id", h.handleCardDelete)
	api.POST("/cards/:id/move", h.handleCardMove)
	api.POST("/cards/:id/rank", h.handleCardRank)
	api.POST("/cards/:id/assign", h.handleCardAssign)
	api.POST("/cards/:id/complete", h.handleCardComplete)
	api.GET("/cards/:id/tasks", h.handleTaskList)
	api.PATCH("/cards/:id/tasks/:key", h.handleTaskToggle)

	api.GET("/tree", h.handleTree)
	api.GET("/history", h.handleHistory)
}

// handleHealth reports database and cache connectivity.
func (h *handlers) handleHealth(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "db": err.Error()})
		return
	}
	if err := h.cache.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "degraded", "cache": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
