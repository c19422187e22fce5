// Package propertydef provides reusable, typed property definitions that
// entity types attach to their instances.
package propertydef

import (
	"context"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/entity"
	"hidesync/internal/core/id"
)

// DataType defines the value type of a property.
type DataType string

const (
	TypeString    DataType = "string"
	TypeNumber    DataType = "number"
	TypeBoolean   DataType = "boolean"
	TypeEnum      DataType = "enum"
	TypeDate      DataType = "date"
	TypeReference DataType = "reference"
	TypeFile      DataType = "file"
)

// IsValidDataType reports whether dt is a known data type.
func IsValidDataType(dt DataType) bool {
	switch dt {
	case TypeString, TypeNumber, TypeBoolean, TypeEnum, TypeDate, TypeReference, TypeFile:
		return true
	}
	return false
}

// PropertyDefinition is a reusable named attribute with a declared data type
// and validation rules. Enum-typed definitions are either bound to an
// EnumType catalog or carry their own custom options, never both.
type PropertyDefinition struct {
	entity.Base

	Name              string            `db:"name" json:"name"`
	DataType          DataType          `db:"data_type" json:"dataType"`
	GroupName         *string           `db:"group_name" json:"groupName,omitempty"`
	Unit              *string           `db:"unit" json:"unit,omitempty"`
	IsRequired        bool              `db:"is_required" json:"isRequired"`
	HasMultipleValues bool              `db:"has_multiple_values" json:"hasMultipleValues"`
	ValidationRules   entity.Attributes `db:"validation_rules" json:"validationRules,omitempty"`
	IsSystem          bool              `db:"is_system" json:"isSystem"`
	EnumTypeID        *id.ID            `db:"enum_type_id" json:"enumTypeId,omitempty"`

	// Child rows, persisted alongside the definition
	Translations []Translation `db:"-" json:"translations,omitempty"`
	EnumOptions  []EnumOption  `db:"-" json:"enumOptions,omitempty"`
}

// Translation is a per-locale display name for a definition.
type Translation struct {
	ID          id.ID   `db:"id" json:"id"`
	PropertyID  id.ID   `db:"property_id" json:"propertyId"`
	Locale      string  `db:"locale" json:"locale"`
	DisplayName string  `db:"display_name" json:"displayName"`
	Description *string `db:"description" json:"description,omitempty"`
}

// EnumOption is a custom enum member for definitions not bound to an EnumType.
type EnumOption struct {
	ID           id.ID   `db:"id" json:"id"`
	PropertyID   id.ID   `db:"property_id" json:"propertyId"`
	Value        string  `db:"value" json:"value"`
	DisplayValue string  `db:"display_value" json:"displayValue"`
	Color        *string `db:"color" json:"color,omitempty"`
	DisplayOrder int     `db:"display_order" json:"displayOrder"`
}

// NewPropertyDefinition creates a definition with required fields.
func NewPropertyDefinition(name string, dataType DataType) *PropertyDefinition {
	return &PropertyDefinition{
		Base:     entity.NewBase(),
		Name:     name,
		DataType: dataType,
	}
}

// IsBoundEnum reports whether the definition draws its members from a shared
// EnumType catalog.
func (d *PropertyDefinition) IsBoundEnum() bool {
	return d.DataType == TypeEnum && d.EnumTypeID != nil
}

// Validate implements entity.Validatable.
func (d *PropertyDefinition) Validate(ctx context.Context) error {
	if d.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if !IsValidDataType(d.DataType) {
		return apperror.NewValidation("invalid data type").
			WithDetail("field", "dataType").
			WithDetail("value", string(d.DataType))
	}

	if d.DataType == TypeEnum {
		if d.EnumTypeID == nil && len(d.EnumOptions) == 0 {
			return apperror.NewValidation("enum property requires enum_type_id or enum_options").
				WithDetail("field", "dataType")
		}
		if d.EnumTypeID != nil && len(d.EnumOptions) > 0 {
			return apperror.NewValidation("enum property cannot have both a bound enum type and custom options").
				WithDetail("field", "enumOptions")
		}
	} else if len(d.EnumOptions) > 0 {
		return apperror.NewValidation("enum options are only valid for enum properties").
			WithDetail("field", "enumOptions").
			WithDetail("dataType", string(d.DataType))
	}

	for _, tr := range d.Translations {
		if tr.Locale == "" || tr.DisplayName == "" {
			return apperror.NewValidation("translation requires locale and display name").
				WithDetail("field", "translations")
		}
	}

	seen := make(map[string]struct{}, len(d.EnumOptions))
	for _, opt := range d.EnumOptions {
		if opt.Value == "" {
			return apperror.NewValidation("enum option value is required").
				WithDetail("field", "enumOptions")
		}
		if _, dup := seen[opt.Value]; dup {
			return apperror.NewValidation("duplicate enum option value").
				WithDetail("field", "enumOptions").
				WithDetail("value", opt.Value)
		}
		seen[opt.Value] = struct{}{}
	}

	return nil
}

// UpdateInput carries optional fields for a definition update.
// Nil fields are left unchanged.
type UpdateInput struct {
	Name              *string            `json:"name,omitempty"`
	DataType          *DataType          `json:"dataType,omitempty"`
	GroupName         *string            `json:"groupName,omitempty"`
	Unit              *string            `json:"unit,omitempty"`
	IsRequired        *bool              `json:"isRequired,omitempty"`
	HasMultipleValues *bool              `json:"hasMultipleValues,omitempty"`
	ValidationRules   entity.Attributes  `json:"validationRules,omitempty"`
	EnumTypeID        *id.ID             `json:"enumTypeId,omitempty"`
	Translations      []Translation      `json:"translations,omitempty"`
	EnumOptions       []EnumOption       `json:"enumOptions,omitempty"`
}

// touchesRestrictedFields reports whether the update changes anything a
// system definition forbids (everything except validation rules and
// translations).
func (in UpdateInput) touchesRestrictedFields() bool {
	return in.Name != nil || in.DataType != nil || in.GroupName != nil ||
		in.Unit != nil || in.IsRequired != nil || in.HasMultipleValues != nil ||
		in.EnumTypeID != nil || len(in.EnumOptions) > 0
}
