package handlers

import (
	"github.com/gin-gonic/gin"

	"hidesync/internal/core/appctx"
	"hidesync/internal/domain/settings"
	"hidesync/internal/infrastructure/http/v1/dto"
)

// SettingsHandler serves scoped settings. The scope defaults to the calling
// user; organization and system scopes are selected with query parameters.
type SettingsHandler struct {
	*BaseHandler
	service *settings.Service
}

// NewSettingsHandler creates a settings handler.
func NewSettingsHandler(base *BaseHandler, service *settings.Service) *SettingsHandler {
	return &SettingsHandler{BaseHandler: base, service: service}
}

func (h *SettingsHandler) scope(c *gin.Context) (settings.ScopeType, string) {
	scopeType := settings.ScopeType(c.DefaultQuery("scopeType", string(settings.ScopeUser)))
	scopeID := c.Query("scopeId")
	if scopeID == "" && scopeType == settings.ScopeUser {
		scopeID = appctx.GetUserID(c.Request.Context()).String()
	}
	return scopeType, scopeID
}

// List returns every setting of the requested scope.
func (h *SettingsHandler) List(c *gin.Context) {
	scopeType, scopeID := h.scope(c)
	items, err := h.service.ListScope(c.Request.Context(), scopeType, scopeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, items)
}

// Get returns one setting value.
func (h *SettingsHandler) Get(c *gin.Context) {
	scopeType, scopeID := h.scope(c)
	s, err := h.service.Get(c.Request.Context(), c.Param("key"), scopeType, scopeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// Set creates or replaces a setting value.
func (h *SettingsHandler) Set(c *gin.Context) {
	var req dto.SetSettingRequest
	if !h.BindJSON(c, &req) {
		return
	}
	scopeType, scopeID := h.scope(c)
	if err := h.service.Set(c.Request.Context(), c.Param("key"), scopeType, scopeID, req.Value); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "setting saved")
}

// Delete removes a setting.
func (h *SettingsHandler) Delete(c *gin.Context) {
	scopeType, scopeID := h.scope(c)
	if err := h.service.Delete(c.Request.Context(), c.Param("key"), scopeType, scopeID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
