package handlers

import (
	"errors"
	"net/http"
	"strings"

	instanceRepo "bookline/database/repository/instance"
	"bookline/services/agent"
	"bookline/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Guest-facing fallback replies. Internal detail stays in the logs.
const (
	busyReply    = "I'm still working on your previous message. Give me a moment and send that again."
	unknownReply = "I'm sorry, something went wrong on my side. Please try again in a moment."
)

// WebhookHandler serves the public chat entry point. Each tenant is addressed
// by the path segment configured on its instance.
type WebhookHandler struct {
	Instances instanceRepo.InstanceRepository
	Agent     agent.AgentService
}

func NewWebhookHandler(instances instanceRepo.InstanceRepository, agentSvc agent.AgentService) *WebhookHandler {
	return &WebhookHandler{Instances: instances, Agent: agentSvc}
}

type webhookRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// Handle processes one chat turn: POST /webhook/:path.
func (h *WebhookHandler) Handle(c *gin.Context) {
	logger := utils.GetLogger()

	path := c.Param("path")
	inst, err := h.Instances.GetByWebhookPath(path)
	if err != nil || inst == nil {
		// Unknown and inactive paths are indistinguishable from outside.
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be JSON with sessionId and message"})
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	message := strings.TrimSpace(req.Message)
	if sessionID == "" || message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId and message must not be empty"})
		return
	}

	reply, err := h.Agent.HandleMessage(c.Request.Context(), inst, sessionID, message)
	if err != nil {
		var concErr *agent.ConcurrencyError
		if errors.As(err, &concErr) {
			c.JSON(http.StatusOK, gin.H{"response": busyReply, "sessionId": sessionID})
			return
		}
		logger.Error("webhook turn failed",
			zap.String("instanceId", inst.ID),
			zap.String("sessionId", sessionID),
			zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"response": unknownReply, "sessionId": sessionID})
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": reply, "sessionId": sessionID})
}
