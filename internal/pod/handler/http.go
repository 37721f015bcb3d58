// Package handler exposes pod CRUD and the pod activity feed over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	auditrepo "podnotes/backend/internal/audit/repository"
	"podnotes/backend/internal/platform/apperr"
	"podnotes/backend/internal/platform/rbac"
	poddomain "podnotes/backend/internal/pod/domain"
	"podnotes/backend/internal/pod/service"
	"podnotes/backend/internal/server/respond"
)

const defaultActivityLimit = 50

type Handler struct {
	pods     *service.Service
	roles    rbac.PodRoleGetter
	activity auditrepo.Repository
}

// NewHandler returns a pod handler. activity may be nil to disable the feed.
func NewHandler(pods *service.Service, roles rbac.PodRoleGetter, activity auditrepo.Repository) *Handler {
	return &Handler{pods: pods, roles: roles, activity: activity}
}

// Register mounts the pod routes on the given authenticated group.
func (h *Handler) Register(r *gin.RouterGroup) {
	r.GET("/pods", h.list)
	r.POST("/pods", h.create)
	r.GET("/pods/:id", h.get)
	r.DELETE("/pods/:id", h.delete)
	r.GET("/pods/:id/activity", h.listActivity)
}

type createPodRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) create(c *gin.Context) {
	var req createPodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, apperr.Wrap(apperr.ErrValidation, "invalid request body"))
		return
	}
	p, err := h.pods.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) list(c *gin.Context) {
	pods, err := h.pods.List(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	if pods == nil {
		pods = []*poddomain.PodWithRole{}
	}
	c.JSON(http.StatusOK, pods)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.pods.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.pods.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listActivity(c *gin.Context) {
	podID := c.Param("id")
	if _, _, err := rbac.RequirePodMember(c.Request.Context(), h.roles, podID); err != nil {
		respond.Error(c, err)
		return
	}
	if h.activity == nil {
		c.JSON(http.StatusOK, []any{})
		return
	}
	limit := int64(defaultActivityLimit)
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 32); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 32)
	entries, err := h.activity.ListByPod(c.Request.Context(), podID, int32(limit), int32(offset))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
