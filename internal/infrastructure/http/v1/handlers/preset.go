package handlers

import (
	"github.com/gin-gonic/gin"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/appctx"
	"hidesync/internal/core/id"
	"hidesync/internal/domain/preset"
	"hidesync/internal/infrastructure/http/v1/dto"
)

// PresetHandler serves stored presets and the apply engine.
type PresetHandler struct {
	*BaseHandler
	service *preset.Service
}

// NewPresetHandler creates a preset handler.
func NewPresetHandler(base *BaseHandler, service *preset.Service) *PresetHandler {
	return &PresetHandler{BaseHandler: base, service: service}
}

// List returns stored presets.
func (h *PresetHandler) List(c *gin.Context) {
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

// Get returns one preset including its config document.
func (h *PresetHandler) Get(c *gin.Context) {
	presetID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.GetByID(c.Request.Context(), presetID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Create stores a new preset document.
func (h *PresetHandler) Create(c *gin.Context) {
	var req dto.CreatePresetRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := &preset.Preset{
		Name:        req.Name,
		Description: req.Description,
		Config:      req.Config,
		IsPublic:    req.IsPublic,
	}
	if userID := appctx.GetUserID(c.Request.Context()); !id.IsNil(userID) {
		p.CreatedBy = &userID
	}

	if err := h.service.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p.ID)
}

// Delete removes a preset. Its application history is kept.
func (h *PresetHandler) Delete(c *gin.Context) {
	presetID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), presetID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Apply runs a preset against the live schema. The run commits with per-item
// errors collected, never aborting on a single failure.
func (h *PresetHandler) Apply(c *gin.Context) {
	presetID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.ApplyPresetRequest
	if !h.BindJSON(c, &req) {
		return
	}

	userID := appctx.GetUserID(c.Request.Context())
	result, err := h.service.Apply(c.Request.Context(), presetID, userID, req.ToOptions())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// ApplicationErrors returns the error rows of one application run.
func (h *PresetHandler) ApplicationErrors(c *gin.Context) {
	applicationID, ok := h.ParseID(c, "applicationId")
	if !ok {
		return
	}
	errs, err := h.service.ListApplicationErrors(c.Request.Context(), applicationID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, errs)
}

// Generate exports the live system into a preset document.
func (h *PresetHandler) Generate(c *gin.Context) {
	var req dto.GeneratePresetRequest
	if !h.BindJSON(c, &req) {
		return
	}

	typeIDs := make([]id.ID, 0, len(req.MaterialTypeIDs))
	for _, raw := range req.MaterialTypeIDs {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid material type id").WithDetail("id", raw))
			return
		}
		typeIDs = append(typeIDs, parsed)
	}

	doc, err := h.service.GenerateFromSystem(c.Request.Context(),
		typeIDs, req.IncludeSamples, req.IncludeSettings, appctx.GetUserID(c.Request.Context()))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}
