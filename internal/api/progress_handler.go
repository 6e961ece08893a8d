package api

import (
	"alcyxob/wellbeing-app/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ProgressHandler serves the self-service completion routes.
type ProgressHandler struct {
	progressService service.ProgressService
	metrics         *Metrics
}

func NewProgressHandler(progressService service.ProgressService, metrics *Metrics) *ProgressHandler {
	return &ProgressHandler{progressService: progressService, metrics: metrics}
}

// SetCompletionRequest carries the desired completion state. A pointer keeps
// an explicit false distinguishable from a missing field.
type SetCompletionRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// GetProgress godoc
// @Summary Get the caller's progress summary
// @Tags Progress
// @Produce json
// @Success 200 {object} domain.ProgressSummary
// @Failure 401 {object} gin.H "Unauthorized"
// @Security BearerAuth
// @Router /challenges/progress [get]
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	summary, err := h.progressService.GetSummary(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, "get progress", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// SetCompletion godoc
// @Summary Mark a challenge completed or not completed for the caller
// @Description Idempotent. Any authenticated user may change their own completion state.
// @Tags Progress
// @Accept json
// @Produce json
// @Param weekId path string true "Week ID"
// @Param itemId path string true "Challenge ID"
// @Param body body SetCompletionRequest true "Desired state"
// @Success 200 {object} ChallengeItemResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Challenge not found"
// @Security BearerAuth
// @Router /challenges/weeks/{weekId}/items/{itemId}/completion [put]
func (h *ProgressHandler) SetCompletion(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	weekID, ok := objectIDParam(c, "weekId")
	if !ok {
		return
	}
	itemID, ok := objectIDParam(c, "itemId")
	if !ok {
		return
	}
	var req SetCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	item, err := h.progressService.SetCompletion(c.Request.Context(), actor, weekID, itemID, *req.Completed)
	h.metrics.recordMutation("set_completion", err)
	if err != nil {
		respondServiceError(c, "set completion", err)
		return
	}
	c.JSON(http.StatusOK, MapItemToResponse(item))
}
