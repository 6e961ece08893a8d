package api

import (
	"alcyxob/wellbeing-app/internal/domain"
	"alcyxob/wellbeing-app/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the current user and role administration.
type UserHandler struct {
	authService service.AuthService
}

func NewUserHandler(authService service.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

type AssignRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// Me godoc
// @Summary Current user
// @Description The caller's account, including whether management affordances should be offered.
// @Tags Users
// @Produce json
// @Success 200 {object} UserResponse
// @Security BearerAuth
// @Router /me [get]
func (h *UserHandler) Me(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	user, err := h.authService.GetUser(c.Request.Context(), actor.UserID)
	if err != nil {
		respondServiceError(c, "get current user", err)
		return
	}
	resp := MapUserToResponse(user)
	// The token's role is what every route is authorized against
	resp.Role = actor.Role
	resp.CanManageChallenges = actor.CanManageChallenges()
	c.JSON(http.StatusOK, resp)
}

// AssignRole godoc
// @Summary Change a user's role
// @Description Admins may grant user or specialist; only superadmins may grant admin or superadmin.
// @Tags Users
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param body body AssignRoleRequest true "New role"
// @Success 200 {object} UserResponse
// @Failure 400 {object} gin.H "Unknown role"
// @Failure 403 {object} gin.H "Role cannot be assigned by caller"
// @Failure 404 {object} gin.H "User not found"
// @Security BearerAuth
// @Router /admin/users/{userId}/role [put]
func (h *UserHandler) AssignRole(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	userID, ok := objectIDParam(c, "userId")
	if !ok {
		return
	}
	var req AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Unknown role '%s'", req.Role))
		return
	}

	user, err := h.authService.AssignRole(c.Request.Context(), actor, userID, role)
	if err != nil {
		respondServiceError(c, "assign role", err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}
