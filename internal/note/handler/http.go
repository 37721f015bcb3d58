// Package handler exposes note CRUD and edit history over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"podnotes/backend/internal/note/domain"
	"podnotes/backend/internal/note/service"
	"podnotes/backend/internal/platform/apperr"
	"podnotes/backend/internal/server/respond"
)

type Handler struct {
	notes *service.Service
}

func NewHandler(notes *service.Service) *Handler {
	return &Handler{notes: notes}
}

// Register mounts the note routes on the given authenticated group.
func (h *Handler) Register(r *gin.RouterGroup) {
	r.GET("/notes", h.list)
	r.POST("/notes", h.create)
	r.PATCH("/notes/:id", h.update)
	r.DELETE("/notes/:id", h.delete)
	r.GET("/notes/:id/history", h.history)
}

// list returns pod notes when pod_id is given, otherwise the caller's
// personal notes. Both orderings are updated_at descending.
func (h *Handler) list(c *gin.Context) {
	var (
		notes []*domain.Note
		err   error
	)
	if podID := c.Query("pod_id"); podID != "" {
		notes, err = h.notes.ListForPod(c.Request.Context(), podID)
	} else {
		notes, err = h.notes.ListPersonal(c.Request.Context())
	}
	if err != nil {
		respond.Error(c, err)
		return
	}
	if notes == nil {
		notes = []*domain.Note{}
	}
	c.JSON(http.StatusOK, notes)
}

type createNoteRequest struct {
	PodID   string `json:"pod_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *Handler) create(c *gin.Context) {
	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, apperr.Wrap(apperr.ErrValidation, "invalid request body"))
		return
	}
	n, err := h.notes.Create(c.Request.Context(), req.PodID, req.Title, req.Content)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *Handler) update(c *gin.Context) {
	var patch domain.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.Error(c, apperr.Wrap(apperr.ErrValidation, "invalid request body"))
		return
	}
	n, err := h.notes.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.notes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) history(c *gin.Context) {
	entries, err := h.notes.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	if entries == nil {
		entries = []*domain.HistoryEntry{}
	}
	c.JSON(http.StatusOK, entries)
}
