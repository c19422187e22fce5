package handlers

import (
	"github.com/gin-gonic/gin"

	"hidesync/internal/domain/schema/propertydef"
	"hidesync/internal/infrastructure/http/v1/dto"
)

// PropertyHandler serves property definitions.
type PropertyHandler struct {
	*BaseHandler
	service *propertydef.Service
}

// NewPropertyHandler creates a property definition handler.
func NewPropertyHandler(base *BaseHandler, service *propertydef.Service) *PropertyHandler {
	return &PropertyHandler{BaseHandler: base, service: service}
}

// List returns definitions with filtering and pagination.
func (h *PropertyHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.List(c.Request.Context(), q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get returns one definition with translations and options.
func (h *PropertyHandler) Get(c *gin.Context) {
	defID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	def, err := h.service.GetByID(c.Request.Context(), defID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, def)
}

// Create persists a new definition.
func (h *PropertyHandler) Create(c *gin.Context) {
	var def propertydef.PropertyDefinition
	if !h.BindJSON(c, &def) {
		return
	}
	if err := h.service.Create(c.Request.Context(), &def); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, def.ID)
}

// Update applies a partial update.
func (h *PropertyHandler) Update(c *gin.Context) {
	defID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var in propertydef.UpdateInput
	if !h.BindJSON(c, &in) {
		return
	}
	def, err := h.service.Update(c.Request.Context(), defID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, def)
}

// Delete removes a non-system, unreferenced definition.
func (h *PropertyHandler) Delete(c *gin.Context) {
	defID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), defID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// AddOption appends a custom enum option.
func (h *PropertyHandler) AddOption(c *gin.Context) {
	defID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var opt propertydef.EnumOption
	if !h.BindJSON(c, &opt) {
		return
	}
	created, err := h.service.AddEnumOption(c.Request.Context(), defID, opt)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, created.ID)
}

// DeleteOption removes a custom enum option.
func (h *PropertyHandler) DeleteOption(c *gin.Context) {
	defID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	optionID, ok := h.ParseID(c, "optionId")
	if !ok {
		return
	}
	if err := h.service.DeleteEnumOption(c.Request.Context(), defID, optionID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ValidateValue checks a candidate value against the definition.
func (h *PropertyHandler) ValidateValue(c *gin.Context) {
	defID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.ValidateValueRequest
	if !h.BindJSON(c, &req) {
		return
	}
	valid, err := h.service.ValidateValue(c.Request.Context(), defID, req.Value)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ValidateValueResponse{Valid: valid})
}
