package api

import (
	"alcyxob/wellbeing-app/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ResourceHandler serves files attached to weeks.
type ResourceHandler struct {
	resourceService service.ResourceService
}

func NewResourceHandler(resourceService service.ResourceService) *ResourceHandler {
	return &ResourceHandler{resourceService: resourceService}
}

type UploadURLRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmUploadRequest struct {
	ObjectKey   string `json:"objectKey" binding:"required"`
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	Size        int64  `json:"size" binding:"gte=0"`
}

// ListResources godoc
// @Summary List files attached to a week, with download links
// @Tags Resources
// @Produce json
// @Param weekId path string true "Week ID"
// @Success 200 {array} service.ResourceView
// @Failure 404 {object} gin.H "Week not found"
// @Failure 503 {object} gin.H "Storage not configured"
// @Security BearerAuth
// @Router /challenges/weeks/{weekId}/resources [get]
func (h *ResourceHandler) ListResources(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	weekID, ok := objectIDParam(c, "weekId")
	if !ok {
		return
	}
	views, err := h.resourceService.ListResources(c.Request.Context(), actor, weekID)
	if err != nil {
		respondServiceError(c, "list resources", err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// RequestUploadURL godoc
// @Summary Get a presigned URL to upload a week resource
// @Tags Resources
// @Accept json
// @Produce json
// @Param weekId path string true "Week ID"
// @Param body body UploadURLRequest true "File details"
// @Success 200 {object} service.UploadURLResponse
// @Failure 403 {object} gin.H "Role cannot manage challenges"
// @Failure 503 {object} gin.H "Storage not configured"
// @Security BearerAuth
// @Router /challenges/weeks/{weekId}/resources/upload-url [post]
func (h *ResourceHandler) RequestUploadURL(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	weekID, ok := objectIDParam(c, "weekId")
	if !ok {
		return
	}
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	resp, err := h.resourceService.RequestUploadURL(c.Request.Context(), actor, weekID, req.FileName, req.ContentType)
	if err != nil {
		respondServiceError(c, "request upload url", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmUpload godoc
// @Summary Record a completed upload
// @Tags Resources
// @Accept json
// @Produce json
// @Param weekId path string true "Week ID"
// @Param body body ConfirmUploadRequest true "Upload details"
// @Success 201 {object} domain.WeekResource
// @Failure 400 {object} gin.H "Object key not issued for this week"
// @Failure 403 {object} gin.H "Role cannot manage challenges"
// @Security BearerAuth
// @Router /challenges/weeks/{weekId}/resources [post]
func (h *ResourceHandler) ConfirmUpload(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	weekID, ok := objectIDParam(c, "weekId")
	if !ok {
		return
	}
	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	resource, err := h.resourceService.ConfirmUpload(c.Request.Context(), actor, weekID, req.ObjectKey, req.FileName, req.ContentType, req.Size)
	if err != nil {
		respondServiceError(c, "confirm upload", err)
		return
	}
	c.JSON(http.StatusCreated, resource)
}

// DeleteResource godoc
// @Summary Delete a week resource and its stored file
// @Tags Resources
// @Param weekId path string true "Week ID"
// @Param resourceId path string true "Resource ID"
// @Success 204 "Deleted"
// @Failure 404 {object} gin.H "Resource not found"
// @Security BearerAuth
// @Router /challenges/weeks/{weekId}/resources/{resourceId} [delete]
func (h *ResourceHandler) DeleteResource(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	weekID, ok := objectIDParam(c, "weekId")
	if !ok {
		return
	}
	resourceID, ok := objectIDParam(c, "resourceId")
	if !ok {
		return
	}
	if err := h.resourceService.DeleteResource(c.Request.Context(), actor, weekID, resourceID); err != nil {
		respondServiceError(c, "delete resource", err)
		return
	}
	c.Status(http.StatusNoContent)
}
