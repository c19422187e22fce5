package handlers

import (
	"github.com/gin-gonic/gin"

	"hidesync/internal/core/appctx"
	"hidesync/internal/domain/auth"
	"hidesync/internal/infrastructure/http/v1/dto"
)

// AuthHandler serves login and registration.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{BaseHandler: base, service: service}
}

// Login issues an access token for valid credentials.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, err := h.service.Login(c.Request.Context(), auth.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, tokens)
}

// Register creates a new account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.Email, req.Password, req.FullName, req.Tier)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, user.ID)
}

// Me returns the authenticated caller.
func (h *AuthHandler) Me(c *gin.Context) {
	user := appctx.GetUser(c.Request.Context())
	if user == nil {
		h.NoContent(c)
		return
	}
	h.OK(c, dto.UserResponse{
		ID:    user.UserID.String(),
		Email: user.Email,
		Tier:  user.Tier,
	})
}
