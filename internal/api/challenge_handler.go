package api

import (
	"alcyxob/wellbeing-app/internal/domain"
	"alcyxob/wellbeing-app/internal/progress"
	"alcyxob/wellbeing-app/internal/service"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ChallengeHandler serves the weekly challenge catalog and its privileged mutations.
type ChallengeHandler struct {
	challengeService service.ChallengeService
	metrics          *Metrics
}

// NewChallengeHandler creates a new ChallengeHandler.
func NewChallengeHandler(challengeService service.ChallengeService, metrics *Metrics) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService, metrics: metrics}
}

// --- DTOs for API ---

// ChallengeItemResponse is the DTO for a single challenge.
type ChallengeItemResponse struct {
	ID          string    `json:"id"`
	WeekID      string    `json:"weekId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Sequence    int       `json:"sequence"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WeekResponse is the DTO for a week on its own.
type WeekResponse struct {
	ID         string    `json:"id"`
	WeekNumber int       `json:"weekNumber"`
	Theme      string    `json:"theme"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	CreatedBy  string    `json:"createdBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// WeekWithItemsResponse is a week with its challenges in display order.
type WeekWithItemsResponse struct {
	WeekResponse
	Items []ChallengeItemResponse `json:"items"`
}

// CatalogResponse is returned by the catalog listing.
type CatalogResponse struct {
	Weeks    []WeekWithItemsResponse  `json:"weeks"`
	Progress progress.OverallProgress `json:"progress"`
}

func MapItemToResponse(item *domain.ChallengeItem) ChallengeItemResponse {
	if item == nil {
		return ChallengeItemResponse{}
	}
	return ChallengeItemResponse{
		ID:          item.ID.Hex(),
		WeekID:      item.WeekID.Hex(),
		Title:       item.Title,
		Description: item.Description,
		Sequence:    item.Sequence,
		Completed:   item.Completed,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func MapWeekToResponse(week *domain.Week) WeekResponse {
	if week == nil {
		return WeekResponse{}
	}
	resp := WeekResponse{
		ID:         week.ID.Hex(),
		WeekNumber: week.WeekNumber,
		Theme:      week.Theme,
		StartDate:  week.StartDate,
		EndDate:    week.EndDate,
		CreatedAt:  week.CreatedAt,
		UpdatedAt:  week.UpdatedAt,
	}
	if !week.CreatedBy.IsZero() {
		resp.CreatedBy = week.CreatedBy.Hex()
	}
	return resp
}

// MapWeekWithItemsToResponse always emits an items array, empty when the week has none.
func MapWeekWithItemsToResponse(group *domain.WeekWithItems) WeekWithItemsResponse {
	resp := WeekWithItemsResponse{WeekResponse: MapWeekToResponse(&group.Week)}
	resp.Items = make([]ChallengeItemResponse, len(group.Items))
	for i := range group.Items {
		resp.Items[i] = MapItemToResponse(&group.Items[i])
	}
	return resp
}

// --- Handler Methods ---

// ListChallenges godoc
// @Summary List the challenge catalog
// @Description Weeks ordered by number with their challenges and the caller's completion flags, optionally filtered.
// @Tags Challenges
// @Produce json
// @Param search query string false "Case-insensitive text matched against title, description and week theme"
// @Param status query string false "all | completed | incomplete"
// @Success 200 {object} CatalogResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Security BearerAuth
// @Router /challenges [get]
func (h *ChallengeHandler) ListChallenges(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	groups, err := h.challengeService.ListCatalog(c.Request.Context(), actor)
	if err != nil {
		respondServiceError(c, "list challenges", err)
		return
	}

	// Overall progress always covers the whole catalog, not the filtered view
	overall := progress.ComputeOverallProgress(groups, nil)
	filtered := progress.FilterByQueryAndStatus(groups, c.Query("search"), progress.ParseStatusFilter(c.Query("status")))

	weeks := make([]WeekWithItemsResponse, len(filtered))
	for i := range filtered {
		weeks[i] = MapWeekWithItemsToResponse(&filtered[i])
	}
	c.JSON(http.StatusOK, CatalogResponse{Weeks: weeks, Progress: overall})
}

// CreateWeek godoc
// @Summary Create a week
// @Tags Challenges
// @Accept json
// @Produce json
// @Param week body domain.WeekInput true "Week details"
// @Success 201 {object} WeekWithItemsResponse "Created week with an empty item list"
// @Failure 400 {object} gin.H "Validation error"
// @Failure 403 {object} gin.H "Role cannot manage challenges"
// @Failure 409 {object} gin.H "Week number already exists"
// @Security BearerAuth
// @Router /challenges/weeks [post]
func (h *ChallengeHandler) CreateWeek(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req domain.WeekInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	week, err := h.challengeService.CreateWeek(c.Request.Context(), actor, req)
	h.metrics.recordMutation("create_week", err)
	if err != nil {
		respondServiceError(c, "create week", err)
		return
	}
	c.JSON(http.StatusCreated, MapWeekWithItemsToResponse(week))
}

// UpdateWeek godoc
// @Summary Update a week
// @Description Partial update; the merged week is validated like a new one.
// @Tags Challenges
// @Accept json
// @Produce json
// @Param weekId path string true "Week ID"
// @Param week body domain.WeekPatch true "Fields to change"
// @Success 200 {object} WeekResponse
// @Failure 400 {object} gin.H "Validation error"
// @Failure 403 {object} gin.H "Role cannot manage challenges"
// @Failure 404 {object} gin.H "Week not found"
// @Failure 409 {object} gin.H "Week number already exists"
// @Security BearerAuth
// @Router /challenges/weeks/{weekId} [patch]
func (h *ChallengeHandler) UpdateWeek(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	weekID, ok := objectIDParam(c, "weekId")
	if !ok {
		return
	}
	var req domain.WeekPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	week, err := h.challengeService.UpdateWeek(c.Request.Context(), actor, weekID, req)
	h.metrics.recordMutation("update_week", err)
	if err != nil {
		respondServiceError(c, "update week", err)
		return
	}
	c.JSON(http.StatusOK, MapWeekToResponse(week))
}

// DeleteWeek godoc
// @Summary Delete a week with its challenges, completions and resources
// @Tags Challenges
// @Param weekId path string true "Week ID"
// @Success 204 "Deleted"
// @Failure 403 {object} gin.H "Role cannot manage challenges"
// @Failure 404 {object} gin.H "Week not found"
// @Security BearerAuth
// @Router /challenges/weeks/{weekId} [delete]
func (h *ChallengeHandler) DeleteWeek(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	weekID, ok := objectIDParam(c, "weekId")
	if !ok {
		return
	}

	err := h.challengeService.DeleteWeek(c.Request.Context(), actor, weekID)
	h.metrics.recordMutation("delete_week", err)
	if err != nil {
		respondServiceError(c, "delete week", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateItem godoc
// @Summary Add a challenge to a week
// @Tags Challenges
// @Accept json
// @Produce json
// @Param weekId path string true "Week ID"
// @Param item body domain.ItemInput true "Challenge details"
// @Success 201 {object} ChallengeItemResponse
// @Failure 400 {object} gin.H "Validation error"
// @Failure 403 {object} gin.H "Role cannot manage challenges"
// @Failure 404 {object} gin.H "Week not found"
// @Security BearerAuth
// @Router /challenges/weeks/{weekId}/items [post]
func (h *ChallengeHandler) CreateItem(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	weekID, ok := objectIDParam(c, "weekId")
	if !ok {
		return
	}
	var req domain.ItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	item, err := h.challengeService.CreateItem(c.Request.Context(), actor, weekID, req)
	h.metrics.recordMutation("create_item", err)
	if err != nil {
		respondServiceError(c, "create challenge", err)
		return
	}
	c.JSON(http.StatusCreated, MapItemToResponse(item))
}

// UpdateItem godoc
// @Summary Update a challenge
// @Tags Challenges
// @Accept json
// @Produce json
// @Param weekId path string true "Week ID"
// @Param itemId path string true "Challenge ID"
// @Param item body domain.ItemPatch true "Fields to change"
// @Success 200 {object} ChallengeItemResponse
// @Failure 400 {object} gin.H "Validation error"
// @Failure 403 {object} gin.H "Role cannot manage challenges"
// @Failure 404 {object} gin.H "Challenge not found"
// @Security BearerAuth
// @Router /challenges/weeks/{weekId}/items/{itemId} [patch]
func (h *ChallengeHandler) UpdateItem(c *gin.Context) {
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
	var req domain.ItemPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	item, err := h.challengeService.UpdateItem(c.Request.Context(), actor, weekID, itemID, req)
	h.metrics.recordMutation("update_item", err)
	if err != nil {
		respondServiceError(c, "update challenge", err)
		return
	}
	c.JSON(http.StatusOK, MapItemToResponse(item))
}

// DeleteItem godoc
// @Summary Delete a challenge and its completions
// @Tags Challenges
// @Param weekId path string true "Week ID"
// @Param itemId path string true "Challenge ID"
// @Success 204 "Deleted"
// @Failure 403 {object} gin.H "Role cannot manage challenges"
// @Failure 404 {object} gin.H "Challenge not found"
// @Security BearerAuth
// @Router /challenges/weeks/{weekId}/items/{itemId} [delete]
func (h *ChallengeHandler) DeleteItem(c *gin.Context) {
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

	err := h.challengeService.DeleteItem(c.Request.Context(), actor, weekID, itemID)
	h.metrics.recordMutation("delete_item", err)
	if err != nil {
		respondServiceError(c, "delete challenge", err)
		return
	}
	c.Status(http.StatusNoContent)
}
