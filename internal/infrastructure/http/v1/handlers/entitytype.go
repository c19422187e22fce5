package handlers

import (
	"github.com/gin-gonic/gin"

	"hidesync/internal/domain/schema/entitytype"
	"hidesync/internal/infrastructure/http/v1/dto"
)

// EntityTypeHandler serves one kind of the entity type registry. Material
// types and storage location types each get their own instance and routes.
type EntityTypeHandler struct {
	*BaseHandler
	service *entitytype.Service
	kind    entitytype.Kind
}

// NewEntityTypeHandler creates a handler bound to one entity kind.
func NewEntityTypeHandler(base *BaseHandler, service *entitytype.Service, kind entitytype.Kind) *EntityTypeHandler {
	return &EntityTypeHandler{BaseHandler: base, service: service, kind: kind}
}

// List returns types of this kind visible to the caller's tier.
func (h *EntityTypeHandler) List(c *gin.Context) {
	var q dto.ListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter := entitytype.ListFilter{ListFilter: q.ToFilter(), Kind: h.kind}
	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get returns one type with assignments and translations.
func (h *EntityTypeHandler) Get(c *gin.Context) {
	typeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	t, err := h.service.GetByID(c.Request.Context(), typeID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Create persists a new type with its property assignments.
func (h *EntityTypeHandler) Create(c *gin.Context) {
	var t entitytype.EntityType
	if !h.BindJSON(c, &t) {
		return
	}
	t.Kind = h.kind
	t.IsSystem = false
	if err := h.service.CreateWithProperties(c.Request.Context(), &t); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, t.ID)
}

// Update applies a partial update; a supplied properties list replaces the
// assignment set.
func (h *EntityTypeHandler) Update(c *gin.Context) {
	typeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var in entitytype.UpdateInput
	if !h.BindJSON(c, &in) {
		return
	}
	t, err := h.service.UpdateWithProperties(c.Request.Context(), typeID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, t)
}

// Delete removes a non-system type with no live instances.
func (h *EntityTypeHandler) Delete(c *gin.Context) {
	typeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), typeID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
