// Package enumreg provides the enumeration catalog: named enum types whose
// values carry per-locale translations and an optional hierarchy.
package enumreg

import (
	"context"
	"regexp"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
)

// identPattern guards the legacy table_name descriptor. Values are stored in a
// single discriminator table and every query is parameterized, but imported
// catalogs may still carry arbitrary descriptors, so admin writes reject
// anything that is not a plain identifier.
var identPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// EnumType identifies one enumeration catalog (e.g. "material_type").
type EnumType struct {
	ID         id.ID  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	SystemName string `db:"system_name" json:"systemName"`
	TableName  string `db:"table_name" json:"-"`
}

// Validate implements entity.Validatable.
func (t *EnumType) Validate(ctx context.Context) error {
	if t.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if t.SystemName == "" {
		return apperror.NewValidation("system_name is required").WithDetail("field", "systemName")
	}
	if t.TableName != "" && !identPattern.MatchString(t.TableName) {
		return apperror.NewValidation("table_name must match ^[a-zA-Z0-9_]+$").
			WithDetail("field", "tableName").
			WithDetail("value", t.TableName)
	}
	return nil
}

// EnumValue is a single member of an enumeration catalog.
type EnumValue struct {
	ID           id.ID  `db:"id" json:"id"`
	EnumTypeID   id.ID  `db:"enum_type_id" json:"enumTypeId"`
	Code         string `db:"code" json:"code"`
	DisplayOrder int    `db:"display_order" json:"displayOrder"`
	IsSystem     bool   `db:"is_system" json:"isSystem"`
	ParentID     *id.ID `db:"parent_id" json:"parentId,omitempty"`
	IsActive     bool   `db:"is_active" json:"isActive"`
}

// Translation is a per-locale display text for one enum value.
type Translation struct {
	ID          id.ID   `db:"id" json:"id"`
	EnumTypeID  id.ID   `db:"enum_type_id" json:"enumTypeId"`
	ValueCode   string  `db:"value_code" json:"valueCode"`
	Locale      string  `db:"locale" json:"locale"`
	DisplayText string  `db:"display_text" json:"displayText"`
	Description *string `db:"description" json:"description,omitempty"`
}

// ValueView is an enum value joined with its translation for one locale.
// DisplayText falls back to Code when no translation row exists.
type ValueView struct {
	ID           id.ID   `db:"id" json:"id"`
	Code         string  `db:"code" json:"code"`
	DisplayOrder int     `db:"display_order" json:"displayOrder"`
	IsSystem     bool    `db:"is_system" json:"isSystem"`
	ParentID     *id.ID  `db:"parent_id" json:"parentId,omitempty"`
	IsActive     bool    `db:"is_active" json:"isActive"`
	DisplayText  string  `db:"display_text" json:"displayText"`
	Description  *string `db:"description" json:"description,omitempty"`
}

// CreateValueInput carries fields for a new enum value.
type CreateValueInput struct {
	Code         string  `json:"code"`
	DisplayText  string  `json:"displayText"`
	Description  *string `json:"description,omitempty"`
	DisplayOrder int     `json:"displayOrder"`
	ParentID     *id.ID  `json:"parentId,omitempty"`
}

// UpdateValueInput carries optional fields for an enum value update.
// Nil fields are left unchanged.
type UpdateValueInput struct {
	Code         *string `json:"code,omitempty"`
	DisplayText  *string `json:"displayText,omitempty"`
	Description  *string `json:"description,omitempty"`
	DisplayOrder *int    `json:"displayOrder,omitempty"`
	ParentID     *id.ID  `json:"parentId,omitempty"`
	IsActive     *bool   `json:"isActive,omitempty"`
}
