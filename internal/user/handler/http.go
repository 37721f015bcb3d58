// Package handler exposes profile reads and avatar upload over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"podnotes/backend/internal/platform/apperr"
	"podnotes/backend/internal/server/respond"
	"podnotes/backend/internal/user/service"
)

type Handler struct {
	users *service.Service
}

func NewHandler(users *service.Service) *Handler {
	return &Handler{users: users}
}

// Register mounts the user routes on the given authenticated group.
func (h *Handler) Register(r *gin.RouterGroup) {
	r.GET("/users/me", h.me)
	r.GET("/users/:id", h.get)
	r.POST("/avatars", h.uploadAvatar)
}

func (h *Handler) me(c *gin.Context) {
	p, err := h.users.Me(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.users.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// uploadAvatar accepts the raw image as the request body with its Content-Type
// header, stores it, and returns the public URL now on the caller's profile.
func (h *Handler) uploadAvatar(c *gin.Context) {
	if c.Request.Body == nil {
		respond.Error(c, apperr.Wrap(apperr.ErrValidation, "request body is required"))
		return
	}
	url, err := h.users.UploadAvatar(c.Request.Context(), c.ContentType(), c.Request.Body)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}
