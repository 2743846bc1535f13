package handlers

import (
	"net/http"

	sessionRepo "bookline/database/repository/session"
	"bookline/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionHandler exposes conversation transcripts to the dashboard.
type SessionHandler struct {
	Repo sessionRepo.SessionRepository
}

func NewSessionHandler(repo sessionRepo.SessionRepository) *SessionHandler {
	return &SessionHandler{Repo: repo}
}

// List handles GET /api/instances/:id/sessions.
func (h *SessionHandler) List(c *gin.Context) {
	sessions, err := h.Repo.ListByInstance(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.GetLogger().Error("failed to list sessions",
			zap.String("instanceId", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sessions"})
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// Clear handles DELETE /api/instances/:id/sessions/:sessionId.
func (h *SessionHandler) Clear(c *gin.Context) {
	err := h.Repo.Clear(c.Request.Context(), c.Param("id"), c.Param("sessionId"))
	if err != nil {
		utils.GetLogger().Error("failed to clear session",
			zap.String("instanceId", c.Param("id")),
			zap.String("sessionId", c.Param("sessionId")),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}
