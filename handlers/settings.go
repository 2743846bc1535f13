package handlers

import (
	"net/http"
	"time"

	settingsRepo "bookline/database/repository/settings"
	"bookline/models"
	"bookline/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SettingsHandler exposes the deployment-wide settings singleton. Secrets
// follow the same rule as instance credentials: write-only, reads report
// presence flags.
type SettingsHandler struct {
	Repo settingsRepo.SettingsRepository
}

func NewSettingsHandler(repo settingsRepo.SettingsRepository) *SettingsHandler {
	return &SettingsHandler{Repo: repo}
}

type settingsRequest struct {
	models.GlobalSettings
	LLMAPIKeyPlain    string `json:"llmApiKey"`
	SMTPPasswordPlain string `json:"smtpPassword"`
}

func settingsView(gs *models.GlobalSettings) gin.H {
	return gin.H{
		"settings": gs,
		"secretsConfigured": gin.H{
			"llmApiKey":    gs.LLMAPIKey != "",
			"smtpPassword": gs.SMTP != nil && gs.SMTP.Password != "",
		},
	}
}

// Get handles GET /api/settings.
func (h *SettingsHandler) Get(c *gin.Context) {
	gs, err := h.Repo.Get(c.Request.Context())
	if err != nil {
		utils.GetLogger().Error("failed to load settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, settingsView(gs))
}

// Update handles PUT /api/settings.
func (h *SettingsHandler) Update(c *gin.Context) {
	logger := utils.GetLogger()

	prev, err := h.Repo.Get(c.Request.Context())
	if err != nil {
		logger.Error("failed to load settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}

	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	gs := req.GlobalSettings
	if req.LLMAPIKeyPlain != "" {
		enc, err := utils.EncryptString(req.LLMAPIKeyPlain)
		if err != nil {
			logger.Error("failed to encrypt LLM API key", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store credentials"})
			return
		}
		gs.LLMAPIKey = enc
	} else {
		gs.LLMAPIKey = prev.LLMAPIKey
	}
	if req.SMTPPasswordPlain != "" {
		enc, err := utils.EncryptString(req.SMTPPasswordPlain)
		if err != nil {
			logger.Error("failed to encrypt SMTP password", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store credentials"})
			return
		}
		if gs.SMTP == nil {
			gs.SMTP = &models.SMTPConfig{}
		}
		gs.SMTP.Password = enc
	} else if prev.SMTP != nil && gs.SMTP != nil {
		gs.SMTP.Password = prev.SMTP.Password
	}
	gs.UpdatedAt = time.Now()

	if err := h.Repo.Update(c.Request.Context(), &gs); err != nil {
		logger.Error("failed to update settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update settings"})
		return
	}
	c.JSON(http.StatusOK, settingsView(&gs))
}
