// Package handler exposes pod membership management over HTTP. Listing is
// open to any member; invites, role changes, and removals require admin or
// creator, enforced here before the service runs.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"podnotes/backend/internal/membership/service"
	"podnotes/backend/internal/platform/apperr"
	"podnotes/backend/internal/platform/rbac"
	"podnotes/backend/internal/server/respond"
)

type Handler struct {
	members *service.Service
	roles   rbac.PodRoleGetter
}

func NewHandler(members *service.Service, roles rbac.PodRoleGetter) *Handler {
	return &Handler{members: members, roles: roles}
}

// Register mounts the membership routes on the given authenticated group.
func (h *Handler) Register(r *gin.RouterGroup) {
	r.GET("/pods/:id/members", h.list)
	r.POST("/pods/:id/members", h.add)
	r.PATCH("/pods/:id/members/:userID", h.updateRole)
	r.DELETE("/pods/:id/members/:userID", h.remove)
}

func (h *Handler) list(c *gin.Context) {
	podID := c.Param("id")
	if _, _, err := rbac.RequirePodMember(c.Request.Context(), h.roles, podID); err != nil {
		respond.Error(c, err)
		return
	}
	members, err := h.members.ListMembers(c.Request.Context(), podID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

type addMemberRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (h *Handler) add(c *gin.Context) {
	podID := c.Param("id")
	callerID, _, err := rbac.RequirePodAdmin(c.Request.Context(), h.roles, podID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, apperr.Wrap(apperr.ErrValidation, "invalid request body"))
		return
	}
	m, err := h.members.AddMemberByUsername(c.Request.Context(), podID, callerID, req.Username, rbac.Role(req.Role))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) updateRole(c *gin.Context) {
	podID := c.Param("id")
	callerID, _, err := rbac.RequirePodAdmin(c.Request.Context(), h.roles, podID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, apperr.Wrap(apperr.ErrValidation, "invalid request body"))
		return
	}
	if err := h.members.UpdateMemberRole(c.Request.Context(), podID, callerID, c.Param("userID"), rbac.Role(req.Role)); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) remove(c *gin.Context) {
	podID := c.Param("id")
	callerID, _, err := rbac.RequirePodAdmin(c.Request.Context(), h.roles, podID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	if err := h.members.RemoveMember(c.Request.Context(), podID, callerID, c.Param("userID")); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
