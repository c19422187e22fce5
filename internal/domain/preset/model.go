// Package preset provides stored configuration presets and the engine that
// applies them against the live schema registries.
package preset

import (
	"context"
	"encoding/json"
	"time"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/entity"
	"hidesync/internal/core/id"
)

// ConflictResolution controls what happens when a preset item collides with
// an existing entity of the same name.
type ConflictResolution string

const (
	ResolveSkip      ConflictResolution = "skip"
	ResolveOverwrite ConflictResolution = "overwrite"
	ResolveRename    ConflictResolution = "rename"
)

// IsValidResolution reports whether r is a known policy.
func IsValidResolution(r ConflictResolution) bool {
	return r == ResolveSkip || r == ResolveOverwrite || r == ResolveRename
}

// Error types recorded on application error rows.
const (
	ErrorTypeProperty     = "property_error"
	ErrorTypeMaterialType = "material_type_error"
	ErrorTypeMaterial     = "material_error"
	ErrorTypeSettings     = "settings_error"
)

// Preset is a stored portable configuration document.
type Preset struct {
	entity.Base

	Name          string          `db:"name" json:"name"`
	Description   *string         `db:"description" json:"description,omitempty"`
	Config        json.RawMessage `db:"config" json:"config"`
	IsPublic      bool            `db:"is_public" json:"isPublic"`
	CreatedBy     *id.ID          `db:"created_by" json:"createdBy,omitempty"`
	AppliedCount  int             `db:"applied_count" json:"appliedCount"`
	LastAppliedAt *time.Time      `db:"last_applied_at" json:"lastAppliedAt,omitempty"`
}

// Validate implements entity.Validatable.
func (p *Preset) Validate(ctx context.Context) error {
	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if len(p.Config) == 0 {
		return apperror.NewValidation("config is required").WithDetail("field", "config")
	}
	return nil
}

// Application records one run of a preset against live data, with per-kind
// counters. Error rows are appended during the run without aborting it.
type Application struct {
	ID        id.ID     `db:"id" json:"id"`
	PresetID  id.ID     `db:"preset_id" json:"presetId"`
	UserID    id.ID     `db:"user_id" json:"userId"`
	AppliedAt time.Time `db:"applied_at" json:"appliedAt"`

	CreatedPropertyDefinitions int `db:"created_property_definitions" json:"createdPropertyDefinitions"`
	UpdatedPropertyDefinitions int `db:"updated_property_definitions" json:"updatedPropertyDefinitions"`
	CreatedMaterialTypes       int `db:"created_material_types" json:"createdMaterialTypes"`
	UpdatedMaterialTypes       int `db:"updated_material_types" json:"updatedMaterialTypes"`
	CreatedMaterials           int `db:"created_materials" json:"createdMaterials"`
	AppliedSettings            int `db:"applied_settings" json:"appliedSettings"`
	ErrorCount                 int `db:"error_count" json:"errorCount"`
}

// ApplicationError is one failed sub-operation of an application.
type ApplicationError struct {
	ID            id.ID  `db:"id" json:"id"`
	ApplicationID id.ID  `db:"application_id" json:"applicationId"`
	ErrorType     string `db:"error_type" json:"errorType"`
	EntityType    string `db:"entity_type" json:"entityType"`
	EntityName    string `db:"entity_name" json:"entityName"`
	ErrorMessage  string `db:"error_message" json:"errorMessage"`
}

// ApplyOptions selects which sections of a preset to apply and how conflicts
// resolve.
type ApplyOptions struct {
	MaterialTypesToInclude []string           `json:"materialTypesToInclude,omitempty"`
	IncludeProperties      bool               `json:"includeProperties"`
	IncludeSampleMaterials bool               `json:"includeSampleMaterials"`
	IncludeSettings        bool               `json:"includeSettings"`
	ThemeHandling          ConflictResolution `json:"themeHandling"`
	ConflictResolution     ConflictResolution `json:"conflictResolution"`
}

// DefaultApplyOptions applies everything with skip resolution.
func DefaultApplyOptions() ApplyOptions {
	return ApplyOptions{
		IncludeProperties:      true,
		IncludeSampleMaterials: true,
		IncludeSettings:        true,
		ThemeHandling:          ResolveSkip,
		ConflictResolution:     ResolveSkip,
	}
}

// Validate checks the option enums.
func (o ApplyOptions) Validate() error {
	if !IsValidResolution(o.ConflictResolution) {
		return apperror.NewValidation("invalid conflict resolution").
			WithDetail("conflictResolution", string(o.ConflictResolution))
	}
	if o.ThemeHandling != "" && !IsValidResolution(o.ThemeHandling) {
		return apperror.NewValidation("invalid theme handling").
			WithDetail("themeHandling", string(o.ThemeHandling))
	}
	return nil
}

// Result is returned from every apply call, failures included.
type Result struct {
	ApplicationID              id.ID    `json:"applicationId"`
	CreatedPropertyDefinitions int      `json:"createdPropertyDefinitions"`
	UpdatedPropertyDefinitions int      `json:"updatedPropertyDefinitions"`
	CreatedMaterialTypes       int      `json:"createdMaterialTypes"`
	UpdatedMaterialTypes       int      `json:"updatedMaterialTypes"`
	CreatedMaterials           int      `json:"createdMaterials"`
	AppliedSettings            int      `json:"appliedSettings"`
	ErrorCount                 int      `json:"errorCount"`
	Errors                     []string `json:"errors"`
}
