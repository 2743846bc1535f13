package handlers

import (
	"net/http"
	"time"

	instanceRepo "bookline/database/repository/instance"
	"bookline/models"
	"bookline/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InstanceHandler exposes tenant configuration CRUD to the dashboard.
// Credential secrets arrive in plaintext, are encrypted before persistence,
// and never leave again; reads report only whether each secret is set.
type InstanceHandler struct {
	Repo instanceRepo.InstanceRepository
}

func NewInstanceHandler(repo instanceRepo.InstanceRepository) *InstanceHandler {
	return &InstanceHandler{Repo: repo}
}

// instanceRequest is the write shape. The secret fields sit alongside the
// instance because the stored model never serializes them back out.
type instanceRequest struct {
	models.Instance
	GoogleServiceAccountJSON string `json:"googleServiceAccountJson"`
	MicrosoftClientSecret    string `json:"microsoftClientSecret"`
	SMTPPassword             string `json:"smtpPassword"`
}

// applySecrets encrypts the supplied plaintext secrets into the instance.
// Empty fields leave the stored value (prev, when updating) untouched.
func applySecrets(req *instanceRequest, prev *models.Instance) error {
	if req.GoogleServiceAccountJSON != "" {
		enc, err := utils.EncryptString(req.GoogleServiceAccountJSON)
		if err != nil {
			return err
		}
		if req.Google == nil {
			req.Google = &models.GoogleCredentials{}
		}
		req.Google.ServiceAccountJSON = enc
	} else if prev != nil && prev.Google != nil && req.Google != nil {
		req.Google.ServiceAccountJSON = prev.Google.ServiceAccountJSON
	}

	if req.MicrosoftClientSecret != "" {
		enc, err := utils.EncryptString(req.MicrosoftClientSecret)
		if err != nil {
			return err
		}
		if req.Microsoft == nil {
			req.Microsoft = &models.MicrosoftCredentials{}
		}
		req.Microsoft.ClientSecret = enc
	} else if prev != nil && prev.Microsoft != nil && req.Microsoft != nil {
		req.Microsoft.ClientSecret = prev.Microsoft.ClientSecret
	}

	if req.SMTPPassword != "" {
		enc, err := utils.EncryptString(req.SMTPPassword)
		if err != nil {
			return err
		}
		if req.SMTP == nil {
			req.SMTP = &models.SMTPConfig{}
		}
		req.SMTP.Password = enc
	} else if prev != nil && prev.SMTP != nil && req.SMTP != nil {
		req.SMTP.Password = prev.SMTP.Password
	}
	return nil
}

// instanceView wraps an instance with flags for the secrets it holds.
func instanceView(inst *models.Instance) gin.H {
	return gin.H{
		"instance": inst,
		"secretsConfigured": gin.H{
			"googleServiceAccount":  inst.Google != nil && inst.Google.ServiceAccountJSON != "",
			"microsoftClientSecret": inst.Microsoft != nil && inst.Microsoft.ClientSecret != "",
			"smtpPassword":          inst.SMTP != nil && inst.SMTP.Password != "",
		},
	}
}

// Create handles POST /api/instances.
func (h *InstanceHandler) Create(c *gin.Context) {
	logger := utils.GetLogger()

	var req instanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if err := applySecrets(&req, nil); err != nil {
		logger.Error("failed to encrypt instance secrets", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store credentials"})
		return
	}

	inst := req.Instance
	inst.ID = uuid.New().String()
	inst.CreatedAt = time.Now()
	inst.UpdatedAt = inst.CreatedAt
	if err := inst.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Repo.Create(&inst); err != nil {
		logger.Error("failed to create instance", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create instance"})
		return
	}
	c.JSON(http.StatusCreated, instanceView(&inst))
}

// List handles GET /api/instances.
func (h *InstanceHandler) List(c *gin.Context) {
	instances, err := h.Repo.GetAll()
	if err != nil {
		utils.GetLogger().Error("failed to list instances", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list instances"})
		return
	}
	out := make([]gin.H, 0, len(instances))
	for i := range instances {
		out = append(out, instanceView(&instances[i]))
	}
	c.JSON(http.StatusOK, out)
}

// Get handles GET /api/instances/:id.
func (h *InstanceHandler) Get(c *gin.Context) {
	inst, err := h.Repo.GetByID(c.Param("id"))
	if err != nil || inst == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "instance not found"})
		return
	}
	c.JSON(http.StatusOK, instanceView(inst))
}

// Update handles PUT /api/instances/:id.
func (h *InstanceHandler) Update(c *gin.Context) {
	logger := utils.GetLogger()

	prev, err := h.Repo.GetByID(c.Param("id"))
	if err != nil || prev == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "instance not found"})
		return
	}

	var req instanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if err := applySecrets(&req, prev); err != nil {
		logger.Error("failed to encrypt instance secrets", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store credentials"})
		return
	}

	inst := req.Instance
	inst.ID = prev.ID
	inst.CreatedAt = prev.CreatedAt
	inst.UpdatedAt = time.Now()
	if err := inst.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Repo.Update(&inst); err != nil {
		logger.Error("failed to update instance", zap.String("id", inst.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update instance"})
		return
	}
	c.JSON(http.StatusOK, instanceView(&inst))
}

// Delete handles DELETE /api/instances/:id.
func (h *InstanceHandler) Delete(c *gin.Context) {
	if err := h.Repo.Delete(c.Param("id")); err != nil {
		utils.GetLogger().Error("failed to delete instance", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete instance"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
