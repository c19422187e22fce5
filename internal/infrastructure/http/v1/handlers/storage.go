package handlers

import (
	"github.com/gin-gonic/gin"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
	"hidesync/internal/domain/storage"
	"hidesync/internal/infrastructure/http/v1/dto"
)

// StorageHandler serves storage location instances.
type StorageHandler struct {
	*BaseHandler
	service *storage.Service
}

// NewStorageHandler creates a storage location handler.
func NewStorageHandler(base *BaseHandler, service *storage.Service) *StorageHandler {
	return &StorageHandler{BaseHandler: base, service: service}
}

type createLocationRequest struct {
	storage.Location
	Properties []storage.PropertyInput `json:"properties,omitempty"`
}

type locationListQuery struct {
	dto.ListQuery
	EntityTypeID string `form:"entityTypeId"`
	Status       string `form:"status"`
	Section      string `form:"section"`
}

// List returns locations with filtering and pagination.
func (h *StorageHandler) List(c *gin.Context) {
	var q locationListQuery
	if !h.BindQuery(c, &q) {
		return
	}

	filter := storage.ListFilter{ListFilter: q.ToFilter(), Status: q.Status, Section: q.Section}
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

// Get returns one location with its property values.
func (h *StorageHandler) Get(c *gin.Context) {
	locationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	l, err := h.service.GetByID(c.Request.Context(), locationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, l)
}

// Create persists a location with its submitted property values.
func (h *StorageHandler) Create(c *gin.Context) {
	var req createLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.CreateWithProperties(c.Request.Context(), &req.Location, req.Properties); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, req.Location.ID)
}

// Update applies a partial update including property value changes.
func (h *StorageHandler) Update(c *gin.Context) {
	locationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var in storage.UpdateInput
	if !h.BindJSON(c, &in) {
		return
	}
	l, err := h.service.UpdateWithProperties(c.Request.Context(), locationID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, l)
}

// Delete removes a location with its property values.
func (h *StorageHandler) Delete(c *gin.Context) {
	locationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), locationID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
