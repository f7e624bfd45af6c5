package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projecthub/internal/auth"
)

type AuthHandler struct {
	svc    *auth.Service
	logger *zap.Logger
}

func NewAuthHandler(svc *auth.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	log := reqLogger(c, h.logger)
	log.Info("Register request received", zap.String("client_ip", c.ClientIP()))

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, log, "Register", "invalid request body", err)
		return
	}

	u, err := h.svc.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, log, "Register", err)
		return
	}

	log.Info("Register: success", zap.Int("user_id", u.ID), zap.String("role", string(u.Role)))
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

func (h *AuthHandler) Login(c *gin.Context) {
	log := reqLogger(c, h.logger)
	log.Info("Login request received", zap.String("client_ip", c.ClientIP()))

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, log, "Login", "invalid request body", err)
		return
	}

	token, u, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, log, "Login", err)
		return
	}

	log.Info("Login: success", zap.Int("user_id", u.ID))
	c.JSON(http.StatusOK, gin.H{"token": token, "user": u})
}
