// Package presetdoc defines the portable preset document format. The same
// shape is produced by export and consumed by apply, making the two a true
// round trip. Kept free of service dependencies so both the type registry
// and the preset engine can share it.
package presetdoc

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/entity"
)

// Metadata describes a preset document.
type Metadata struct {
	Version   string   `json:"version"`
	CreatedAt string   `json:"created_at,omitempty"`
	CreatedBy string   `json:"created_by,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// TranslationDoc is a per-locale display name inside a document.
type TranslationDoc struct {
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
}

// EnumOptionDoc is a custom enum member inside a document.
type EnumOptionDoc struct {
	Value        string `json:"value"`
	DisplayValue string `json:"display_value"`
	Color        string `json:"color,omitempty"`
	DisplayOrder int    `json:"display_order"`
}

// PropertyDefinitionDoc is a portable property definition.
type PropertyDefinitionDoc struct {
	Name              string                    `json:"name"`
	DataType          string                    `json:"data_type"`
	GroupName         string                    `json:"group_name,omitempty"`
	Unit              string                    `json:"unit,omitempty"`
	IsRequired        bool                      `json:"is_required"`
	HasMultipleValues bool                      `json:"has_multiple_values"`
	ValidationRules   entity.Attributes         `json:"validation_rules,omitempty"`
	Translations      map[string]TranslationDoc `json:"translations,omitempty"`
	EnumOptions       []EnumOptionDoc           `json:"enum_options,omitempty"`
}

// TypePropertyDoc is a property assignment inside a material type document,
// referencing the property by name. DisplayOrder is a pointer so an explicit
// zero is distinguishable from an absent value.
type TypePropertyDoc struct {
	PropertyName      string `json:"property_name"`
	DisplayOrder      *int   `json:"display_order,omitempty"`
	IsRequired        bool   `json:"is_required"`
	IsFilterable      bool   `json:"is_filterable"`
	IsDisplayedInList bool   `json:"is_displayed_in_list"`
	IsDisplayedInCard bool   `json:"is_displayed_in_card"`
	DefaultValue      any    `json:"default_value,omitempty"`
}

// MaterialTypeDoc is a portable entity type.
type MaterialTypeDoc struct {
	Name          string                    `json:"name"`
	Icon          string                    `json:"icon,omitempty"`
	ColorScheme   string                    `json:"color_scheme,omitempty"`
	UIConfig      entity.Attributes         `json:"ui_config,omitempty"`
	StorageConfig entity.Attributes         `json:"storage_config,omitempty"`
	Translations  map[string]TranslationDoc `json:"translations,omitempty"`
	Properties    []TypePropertyDoc         `json:"properties,omitempty"`
}

// SampleMaterialDoc is a portable material instance, its properties keyed by
// property name.
type SampleMaterialDoc struct {
	MaterialType string           `json:"material_type"`
	Name         string           `json:"name"`
	Status       string           `json:"status,omitempty"`
	Quantity     decimal.Decimal  `json:"quantity"`
	Unit         string           `json:"unit"`
	Properties   map[string]any   `json:"properties,omitempty"`
}

// Document is the full portable preset config.
type Document struct {
	Metadata            Metadata                `json:"metadata"`
	PropertyDefinitions []PropertyDefinitionDoc `json:"property_definitions"`
	MaterialTypes       []MaterialTypeDoc       `json:"material_types"`
	SampleMaterials     []SampleMaterialDoc     `json:"sample_materials"`
	Settings            entity.Attributes       `json:"settings"`
	Theme               entity.Attributes       `json:"theme"`
}

// Parse decodes raw JSON into a document and normalizes missing sections.
func Parse(raw []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperror.NewValidation("preset config is not valid JSON").WithCause(err)
	}
	doc.Normalize()
	return &doc, nil
}

// Normalize defaults missing sections to empty so apply loops never see nil.
func (d *Document) Normalize() {
	if d.PropertyDefinitions == nil {
		d.PropertyDefinitions = []PropertyDefinitionDoc{}
	}
	if d.MaterialTypes == nil {
		d.MaterialTypes = []MaterialTypeDoc{}
	}
	if d.SampleMaterials == nil {
		d.SampleMaterials = []SampleMaterialDoc{}
	}
	if d.Settings == nil {
		d.Settings = entity.Attributes{}
	}
	if d.Theme == nil {
		d.Theme = entity.Attributes{}
	}
}

// Validate checks the structural invariants of the document before any write.
func (d *Document) Validate() error {
	for i, pd := range d.PropertyDefinitions {
		if pd.Name == "" || pd.DataType == "" {
			return apperror.NewValidation("property definition requires name and data_type").
				WithDetail("index", i)
		}
	}
	for i, mt := range d.MaterialTypes {
		if mt.Name == "" {
			return apperror.NewValidation("material type requires name").
				WithDetail("index", i)
		}
	}
	for i, sm := range d.SampleMaterials {
		if sm.MaterialType == "" || sm.Name == "" || sm.Unit == "" {
			return apperror.NewValidation("sample material requires material_type, name and unit").
				WithDetail("index", i)
		}
	}
	return nil
}
