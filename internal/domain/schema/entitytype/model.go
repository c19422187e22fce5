// Package entitytype provides the registry of runtime-defined entity types.
// Material types and storage location types are structural twins and share
// this module, discriminated by Kind.
package entitytype

import (
	"context"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/entity"
	"hidesync/internal/core/id"
)

// Kind discriminates the two entity families.
type Kind string

const (
	KindMaterial        Kind = "material"
	KindStorageLocation Kind = "storage_location"
)

// IsValidKind reports whether k is a known kind.
func IsValidKind(k Kind) bool {
	return k == KindMaterial || k == KindStorageLocation
}

// VisibilityAll makes a type visible to every user tier.
const VisibilityAll = "all"

// EntityType is a runtime-defined schema for entity instances. It owns an
// ordered set of property assignments with per-assignment overrides.
type EntityType struct {
	entity.Base

	Kind            Kind              `db:"kind" json:"kind"`
	Name            string            `db:"name" json:"name"`
	Icon            *string           `db:"icon" json:"icon,omitempty"`
	ColorScheme     *string           `db:"color_scheme" json:"colorScheme,omitempty"`
	UIConfig        entity.Attributes `db:"ui_config" json:"uiConfig,omitempty"`
	StorageConfig   entity.Attributes `db:"storage_config" json:"storageConfig,omitempty"`
	IsSystem        bool              `db:"is_system" json:"isSystem"`
	VisibilityLevel string            `db:"visibility_level" json:"visibilityLevel"`

	Translations []Translation        `db:"-" json:"translations,omitempty"`
	Properties   []PropertyAssignment `db:"-" json:"properties,omitempty"`
}

// Translation is a per-locale display name for an entity type.
type Translation struct {
	ID           id.ID   `db:"id" json:"id"`
	EntityTypeID id.ID   `db:"entity_type_id" json:"entityTypeId"`
	Locale       string  `db:"locale" json:"locale"`
	DisplayName  string  `db:"display_name" json:"displayName"`
	Description  *string `db:"description" json:"description,omitempty"`
}

// PropertyAssignment is the ordered junction between an entity type and a
// property definition, carrying per-assignment overrides.
type PropertyAssignment struct {
	ID                id.ID             `db:"id" json:"id"`
	EntityTypeID      id.ID             `db:"entity_type_id" json:"entityTypeId"`
	PropertyID        id.ID             `db:"property_id" json:"propertyId"`
	DisplayOrder      int               `db:"display_order" json:"displayOrder"`
	IsRequired        bool              `db:"is_required" json:"isRequired"`
	IsFilterable      bool              `db:"is_filterable" json:"isFilterable"`
	IsDisplayedInList bool              `db:"is_displayed_in_list" json:"isDisplayedInList"`
	IsDisplayedInCard bool              `db:"is_displayed_in_card" json:"isDisplayedInCard"`
	DefaultValue      entity.Attributes `db:"default_value" json:"defaultValue,omitempty"`

	// PropertyName is resolved from the definition on load, not persisted.
	PropertyName string `db:"-" json:"propertyName,omitempty"`
}

// NewEntityType creates a type with required fields and default visibility.
func NewEntityType(kind Kind, name string) *EntityType {
	return &EntityType{
		Base:            entity.NewBase(),
		Kind:            kind,
		Name:            name,
		VisibilityLevel: VisibilityAll,
	}
}

// VisibleTo reports whether the type is visible to the given user tier.
func (t *EntityType) VisibleTo(tier string) bool {
	return t.VisibilityLevel == VisibilityAll || t.VisibilityLevel == tier
}

// Validate implements entity.Validatable.
func (t *EntityType) Validate(ctx context.Context) error {
	if t.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if !IsValidKind(t.Kind) {
		return apperror.NewValidation("invalid entity kind").
			WithDetail("field", "kind").
			WithDetail("value", string(t.Kind))
	}
	for _, tr := range t.Translations {
		if tr.Locale == "" || tr.DisplayName == "" {
			return apperror.NewValidation("translation requires locale and display name").
				WithDetail("field", "translations")
		}
	}
	seen := make(map[id.ID]struct{}, len(t.Properties))
	for _, p := range t.Properties {
		if id.IsNil(p.PropertyID) {
			return apperror.NewValidation("property assignment requires property id").
				WithDetail("field", "properties")
		}
		if _, dup := seen[p.PropertyID]; dup {
			return apperror.NewValidation("duplicate property assignment").
				WithDetail("field", "properties").
				WithDetail("propertyId", p.PropertyID.String())
		}
		seen[p.PropertyID] = struct{}{}
	}
	return nil
}

// UpdateInput carries optional fields for a type update. Nil fields are left
// unchanged. A non-nil Properties slice fully replaces the assignment set.
type UpdateInput struct {
	Name            *string              `json:"name,omitempty"`
	Icon            *string              `json:"icon,omitempty"`
	ColorScheme     *string              `json:"colorScheme,omitempty"`
	UIConfig        entity.Attributes    `json:"uiConfig,omitempty"`
	StorageConfig   entity.Attributes    `json:"storageConfig,omitempty"`
	VisibilityLevel *string              `json:"visibilityLevel,omitempty"`
	Translations    []Translation        `json:"translations,omitempty"`
	Properties      []PropertyAssignment `json:"properties,omitempty"`
}

// touchesRestrictedFields reports whether the update changes anything a
// system type forbids (everything except translations and UI config).
func (in UpdateInput) touchesRestrictedFields() bool {
	return in.Name != nil || in.Icon != nil || in.ColorScheme != nil ||
		in.StorageConfig != nil || in.VisibilityLevel != nil ||
		in.Properties != nil
}
