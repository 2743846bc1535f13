package handlers

import (
	"net/http"

	guestRepo "bookline/database/repository/guest"
	"bookline/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GuestHandler exposes the guest ledger, read-only, to the dashboard.
// Records serialize without PINs; guests authenticate through the chat
// surface, never through operators.
type GuestHandler struct {
	Repo guestRepo.GuestRepository
}

func NewGuestHandler(repo guestRepo.GuestRepository) *GuestHandler {
	return &GuestHandler{Repo: repo}
}

// List handles GET /api/instances/:id/guests with an optional ?status= filter.
func (h *GuestHandler) List(c *gin.Context) {
	records, err := h.Repo.ListByInstance(c.Request.Context(), c.Param("id"), c.Query("status"))
	if err != nil {
		utils.GetLogger().Error("failed to list guest records",
			zap.String("instanceId", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list guest records"})
		return
	}
	c.JSON(http.StatusOK, records)
}
