package handlers

import (
	"github.com/gin-gonic/gin"

	"hidesync/internal/domain/schema/enumreg"
)

// EnumHandler serves the enumeration catalog.
type EnumHandler struct {
	*BaseHandler
	service *enumreg.Service
}

// NewEnumHandler creates an enum handler.
func NewEnumHandler(base *BaseHandler, service *enumreg.Service) *EnumHandler {
	return &EnumHandler{BaseHandler: base, service: service}
}

// ListTypes returns all registered enum catalogs.
func (h *EnumHandler) ListTypes(c *gin.Context) {
	h.OK(c, h.service.ListTypes(c.Request.Context()))
}

// CreateType registers a new catalog.
func (h *EnumHandler) CreateType(c *gin.Context) {
	var t enumreg.EnumType
	if !h.BindJSON(c, &t) {
		return
	}
	if err := h.service.CreateType(c.Request.Context(), &t); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, t.ID)
}

// ListValues returns active values of a catalog for the requested locale.
func (h *EnumHandler) ListValues(c *gin.Context) {
	views, err := h.service.ListValues(c.Request.Context(), c.Param("enum"), c.Query("locale"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, views)
}

// CreateValue adds a value to a catalog.
func (h *EnumHandler) CreateValue(c *gin.Context) {
	var in enumreg.CreateValueInput
	if !h.BindJSON(c, &in) {
		return
	}
	value, err := h.service.CreateValue(c.Request.Context(), c.Param("enum"), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, value.ID)
}

// UpdateValue modifies a value.
func (h *EnumHandler) UpdateValue(c *gin.Context) {
	valueID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var in enumreg.UpdateValueInput
	if !h.BindJSON(c, &in) {
		return
	}
	value, err := h.service.UpdateValue(c.Request.Context(), c.Param("enum"), valueID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, value)
}

// DeleteValue removes a non-system value.
func (h *EnumHandler) DeleteValue(c *gin.Context) {
	valueID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteValue(c.Request.Context(), c.Param("enum"), valueID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

type upsertTranslationRequest struct {
	Locale      string  `json:"locale" binding:"required"`
	DisplayText string  `json:"displayText" binding:"required"`
	Description *string `json:"description,omitempty"`
}

// UpsertTranslation creates or updates a per-locale display text.
func (h *EnumHandler) UpsertTranslation(c *gin.Context) {
	var req upsertTranslationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tr, err := h.service.UpsertTranslation(c.Request.Context(),
		c.Param("enum"), c.Param("code"), req.Locale, req.DisplayText, req.Description)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, tr)
}

// DeleteTranslation removes a translation by (value, locale).
func (h *EnumHandler) DeleteTranslation(c *gin.Context) {
	err := h.service.DeleteTranslation(c.Request.Context(),
		c.Param("enum"), c.Param("code"), c.Param("locale"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
