package dto

import (
	"encoding/json"

	"hidesync/internal/domain/preset"
)

// CreatePresetRequest for storing a new preset document.
type CreatePresetRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description *string         `json:"description,omitempty"`
	Config      json.RawMessage `json:"config" binding:"required"`
	IsPublic    bool            `json:"isPublic"`
}

// ApplyPresetRequest selects sections and conflict policy for an apply run.
type ApplyPresetRequest struct {
	MaterialTypesToInclude []string `json:"materialTypesToInclude,omitempty"`
	IncludeProperties      *bool    `json:"includeProperties,omitempty"`
	IncludeSampleMaterials *bool    `json:"includeSampleMaterials,omitempty"`
	IncludeSettings        *bool    `json:"includeSettings,omitempty"`
	ThemeHandling          string   `json:"themeHandling,omitempty"`
	ConflictResolution     string   `json:"conflictResolution,omitempty"`
}

// ToOptions converts the request into engine options, defaulting unset
// sections to the full apply.
func (r ApplyPresetRequest) ToOptions() preset.ApplyOptions {
	opts := preset.DefaultApplyOptions()
	opts.MaterialTypesToInclude = r.MaterialTypesToInclude
	if r.IncludeProperties != nil {
		opts.IncludeProperties = *r.IncludeProperties
	}
	if r.IncludeSampleMaterials != nil {
		opts.IncludeSampleMaterials = *r.IncludeSampleMaterials
	}
	if r.IncludeSettings != nil {
		opts.IncludeSettings = *r.IncludeSettings
	}
	if r.ThemeHandling != "" {
		opts.ThemeHandling = preset.ConflictResolution(r.ThemeHandling)
	}
	if r.ConflictResolution != "" {
		opts.ConflictResolution = preset.ConflictResolution(r.ConflictResolution)
	}
	return opts
}

// GeneratePresetRequest selects what to export from the live system.
type GeneratePresetRequest struct {
	MaterialTypeIDs []string `json:"materialTypeIds,omitempty"`
	IncludeSamples  bool     `json:"includeSamples"`
	IncludeSettings bool     `json:"includeSettings"`
}
