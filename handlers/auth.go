package handlers

import (
	"net/http"
	"time"

	adminRepo "bookline/database/repository/admin"
	"bookline/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenLifetime = 12 * time.Hour

// AuthHandler handles operator login.
type AuthHandler struct {
	Admins adminRepo.AdminRepository
}

func NewAuthHandler(admins adminRepo.AdminRepository) *AuthHandler {
	return &AuthHandler{Admins: admins}
}

// Login verifies operator credentials and issues a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	logger := utils.GetLogger()

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := h.Admins.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		logger.Warn("login attempt for unknown user", zap.String("username", req.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		logger.Warn("login attempt with wrong password", zap.String("username", req.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := utils.GenerateToken(user.Username, tokenLifetime)
	if err != nil {
		logger.Error("failed to sign token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
