package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tensorwhiz141/Vaani-Sentinel/internal/guard"
	"github.com/tensorwhiz141/Vaani-Sentinel/internal/scheduler"
	"github.com/tensorwhiz141/Vaani-Sentinel/internal/store"
	"github.com/tensorwhiz141/Vaani-Sentinel/pkg/logging"
)

// Handlers bundles the HTTP surface over the scheduler and security guard.
type Handlers struct {
	scheduler *scheduler.Scheduler
	guard     *guard.Guard
	logger    logging.Logger
}

// New initializes the handlers.
func New(sched *scheduler.Scheduler, g *guard.Guard, logger logging.Logger) *Handlers {
	return &Handlers{scheduler: sched, guard: g, logger: logger}
}

// RegisterRoutes mounts the API on router.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/posts", h.SchedulePost)
		api.GET("/posts", h.ListPosts)
		api.GET("/posts/:id", h.GetPost)
		api.POST("/posts/:id/cancel", h.CancelPost)
		api.POST("/posts/:id/reschedule", h.ReschedulePost)
		api.POST("/posts/process", h.ProcessPosts)
		api.GET("/stats", h.GetStats)

		security := api.Group("/security")
		{
			security.POST("/analyze", h.AnalyzeContent)
			security.POST("/encrypt", h.EncryptContent)
			security.POST("/decrypt", h.DecryptContent)
			security.POST("/archive", h.CreateArchive)
			security.GET("/dashboard", h.Dashboard)
			security.GET("/killswitch", h.KillSwitchStatus)
			security.POST("/killswitch", h.ActivateKillSwitch)
			security.DELETE("/killswitch", h.DeactivateKillSwitch)
		}
	}
}

// SchedulePost creates a new scheduled post
func (h *Handlers) SchedulePost(c *gin.Context) {
	var req scheduler.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.scheduler.SchedulePost(req)
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrInvalidPlatform), errors.Is(err, scheduler.ErrEmptyContent):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.WithError(err).Error("Failed to schedule post")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to schedule post"})
		}
		return
	}
	c.JSON(http.StatusCreated, post)
}

// ListPosts returns posts, optionally filtered by platform and status
func (h *Handlers) ListPosts(c *gin.Context) {
	filter := store.Filter{
		Platform: store.Platform(c.Query("platform")),
		Status:   store.Status(c.Query("status")),
	}
	if filter.Platform != "" && !filter.Platform.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid platform filter"})
		return
	}
	if filter.Status != "" && !filter.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
		return
	}

	posts := h.scheduler.ListPosts(filter)
	c.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}

// GetPost returns a single post by id
func (h *Handlers) GetPost(c *gin.Context) {
	post, err := h.scheduler.GetPost(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, post)
}

// CancelPost cancels a scheduled post
func (h *Handlers) CancelPost(c *gin.Context) {
	postID := c.Param("id")
	cancelled, err := h.scheduler.CancelScheduledPost(postID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to cancel post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel post"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"post_id": postID, "cancelled": cancelled})
}

type rescheduleRequest struct {
	ScheduledTime time.Time `json:"scheduled_time" binding:"required"`
}

// ReschedulePost moves a scheduled post to a new time
func (h *Handlers) ReschedulePost(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	postID := c.Param("id")
	rescheduled, err := h.scheduler.ReschedulePost(postID, req.ScheduledTime)
	if err != nil {
		h.logger.WithError(err).Error("Failed to reschedule post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reschedule post"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"post_id": postID, "rescheduled": rescheduled})
}

// ProcessPosts triggers a sweep of due posts and returns the per-post
// outcomes
func (h *Handlers) ProcessPosts(c *gin.Context) {
	outcomes, err := h.scheduler.ProcessScheduledPosts(c.Request.Context())
	if errors.Is(err, guard.ErrKillSwitchActive) {
		c.JSON(http.StatusLocked, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Sweep failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process posts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"processed": len(outcomes), "outcomes": outcomes})
}

// GetStats returns publishing statistics
func (h *Handlers) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.scheduler.GetPublishingStats())
}

type analyzeRequest struct {
	ContentID string `json:"content_id"`
	Content   string `json:"content" binding:"required"`
}

// AnalyzeContent runs the security checks against a piece of content
func (h *Handlers) AnalyzeContent(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	analysis, err := h.guard.AnalyzeContent(req.ContentID, req.Content)
	if errors.Is(err, guard.ErrKillSwitchActive) {
		c.JSON(http.StatusLocked, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Content analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed"})
		return
	}
	c.JSON(http.StatusOK, analysis)
}

type encryptRequest struct {
	ContentID string `json:"content_id"`
	Content   string `json:"content" binding:"required"`
	Language  string `json:"language"`
}

// EncryptContent seals content and returns the storable payload
func (h *Handlers) EncryptContent(c *gin.Context) {
	var req encryptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload, err := h.guard.Vault().EncryptEnvelope(guard.ContentEnvelope{
		ContentID: req.ContentID,
		Content:   req.Content,
		Language:  req.Language,
	})
	if err != nil {
		h.logger.WithError(err).Error("Encryption failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Encryption failed"})
		return
	}
	c.JSON(http.StatusOK, payload)
}

// DecryptContent verifies and opens an encrypted payload
func (h *Handlers) DecryptContent(c *gin.Context) {
	var payload guard.EncryptedPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	env, err := h.guard.Vault().DecryptEnvelope(payload)
	if errors.Is(err, guard.ErrIntegrity) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Decryption failed"})
		return
	}
	c.JSON(http.StatusOK, env)
}

type archiveRequest struct {
	Language string              `json:"language" binding:"required"`
	Items    []guard.ArchiveItem `json:"items" binding:"required,min=1"`
}

// CreateArchive writes an encrypted archive for a language
func (h *Handlers) CreateArchive(c *gin.Context) {
	var req archiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	path, err := h.guard.Vault().CreateArchive(req.Language, req.Items)
	if err != nil {
		h.logger.WithError(err).Error("Archive creation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Archive creation failed"})
		return
	}

	if err := h.guard.Audit().AppendEvent("ARCHIVE_CREATED", map[string]any{
		"language": req.Language,
		"path":     path,
		"items":    len(req.Items),
	}); err != nil {
		h.logger.WithError(err).Error("Failed to audit archive creation")
	}
	c.JSON(http.StatusCreated, gin.H{
		"archive_path": path,
		"language":     req.Language,
		"item_count":   len(req.Items),
	})
}

// Dashboard summarizes today's security activity
func (h *Handlers) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.guard.Dashboard())
}

// KillSwitchStatus reports the current kill switch state
func (h *Handlers) KillSwitchStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.guard.KillSwitch().State())
}

type killSwitchRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ActivateKillSwitch engages the kill switch
func (h *Handlers) ActivateKillSwitch(c *gin.Context) {
	var req killSwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.guard.KillSwitch().Activate(req.Reason); err != nil {
		h.logger.WithError(err).Error("Failed to activate kill switch")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to activate kill switch"})
		return
	}
	c.JSON(http.StatusOK, h.guard.KillSwitch().State())
}

// DeactivateKillSwitch disengages the kill switch
func (h *Handlers) DeactivateKillSwitch(c *gin.Context) {
	if err := h.guard.KillSwitch().Deactivate(); err != nil {
		h.logger.WithError(err).Error("Failed to deactivate kill switch")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate kill switch"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": false})
}
