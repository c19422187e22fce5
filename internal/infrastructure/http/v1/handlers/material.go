package handlers

import (
	"github.com/gin-gonic/gin"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
	"hidesync/internal/domain/material"
	"hidesync/internal/infrastructure/http/v1/dto"
)

// MaterialHandler serves material instances.
type MaterialHandler struct {
	*BaseHandler
	service *material.Service
}

// NewMaterialHandler creates a material handler.
func NewMaterialHandler(base *BaseHandler, service *material.Service) *MaterialHandler {
	return &MaterialHandler{BaseHandler: base, service: service}
}

type createMaterialRequest struct {
	material.Material
	Properties []material.PropertyInput `json:"properties,omitempty"`
}

type materialListQuery struct {
	dto.ListQuery
	EntityTypeID string `form:"entityTypeId"`
	Status       string `form:"status"`
}

// List returns materials with filtering and pagination.
func (h *MaterialHandler) List(c *gin.Context) {
	var q materialListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := material.ListFilter{ListFilter: q.ToFilter(), Status: q.Status}
	if q.EntityTypeID != "" {
		typeID, err := id.Parse(q.EntityTypeID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid entityTypeId"))
			return
		}
		filter.EntityTypeID = &typeID
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get returns one material with its property values.
func (h *MaterialHandler) Get(c *gin.Context) {
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	m, err := h.service.GetByID(c.Request.Context(), materialID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// Create persists a material with its submitted property values.
func (h *MaterialHandler) Create(c *gin.Context) {
	var req createMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.CreateWithProperties(c.Request.Context(), &req.Material, req.Properties); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, req.Material.ID)
}

// Update applies a partial update including property value changes.
func (h *MaterialHandler) Update(c *gin.Context) {
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var in material.UpdateInput
	if !h.BindJSON(c, &in) {
		return
	}
	m, err := h.service.UpdateWithProperties(c.Request.Context(), materialID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, m)
}

// Delete removes a material with its property values.
func (h *MaterialHandler) Delete(c *gin.Context) {
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), materialID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
