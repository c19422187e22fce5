package entitytype

import (
	"context"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/entity"
	"hidesync/internal/core/id"
	"hidesync/internal/domain/presetdoc"
	"hidesync/internal/domain/schema/propertydef"
)

// ToExport converts a loaded entity type into the portable document shape.
// Assignment property names must already be resolved.
func ToExport(t *EntityType) presetdoc.MaterialTypeDoc {
	doc := presetdoc.MaterialTypeDoc{
		Name:          t.Name,
		UIConfig:      t.UIConfig.Clone(),
		StorageConfig: t.StorageConfig.Clone(),
	}
	if t.Icon != nil {
		doc.Icon = *t.Icon
	}
	if t.ColorScheme != nil {
		doc.ColorScheme = *t.ColorScheme
	}

	if len(t.Translations) > 0 {
		doc.Translations = make(map[string]presetdoc.TranslationDoc, len(t.Translations))
		for _, tr := range t.Translations {
			td := presetdoc.TranslationDoc{DisplayName: tr.DisplayName}
			if tr.Description != nil {
				td.Description = *tr.Description
			}
			doc.Translations[tr.Locale] = td
		}
	}

	for _, p := range t.Properties {
		order := p.DisplayOrder
		pd := presetdoc.TypePropertyDoc{
			PropertyName:      p.PropertyName,
			DisplayOrder:      &order,
			IsRequired:        p.IsRequired,
			IsFilterable:      p.IsFilterable,
			IsDisplayedInList: p.IsDisplayedInList,
			IsDisplayedInCard: p.IsDisplayedInCard,
		}
		if len(p.DefaultValue) > 0 {
			pd.DefaultValue = map[string]any(p.DefaultValue.Clone())
		}
		doc.Properties = append(doc.Properties, pd)
	}
	return doc
}

// FromExport converts a portable document back into an entity type, resolving
// property names through the lookup. Ids and timestamps are freshly assigned;
// everything else round-trips field for field. Assignments without an explicit
// display order take their document index.
func FromExport(ctx context.Context, kind Kind, doc presetdoc.MaterialTypeDoc, props PropertyLookup) (*EntityType, error) {
	t := NewEntityType(kind, doc.Name)
	if doc.Icon != "" {
		icon := doc.Icon
		t.Icon = &icon
	}
	if doc.ColorScheme != "" {
		cs := doc.ColorScheme
		t.ColorScheme = &cs
	}
	t.UIConfig = doc.UIConfig.Clone()
	t.StorageConfig = doc.StorageConfig.Clone()

	for locale, td := range doc.Translations {
		tr := Translation{
			ID:           id.New(),
			EntityTypeID: t.ID,
			Locale:       locale,
			DisplayName:  td.DisplayName,
		}
		if td.Description != "" {
			desc := td.Description
			tr.Description = &desc
		}
		t.Translations = append(t.Translations, tr)
	}

	for i, pd := range doc.Properties {
		def, err := props.GetByName(ctx, pd.PropertyName)
		if err != nil {
			return nil, apperror.NewValidation("unknown property in type document").
				WithDetail("type", doc.Name).
				WithDetail("property", pd.PropertyName).
				WithCause(err)
		}
		assignment := PropertyAssignment{
			ID:                id.New(),
			EntityTypeID:      t.ID,
			PropertyID:        def.ID,
			DisplayOrder:      i,
			IsRequired:        pd.IsRequired,
			IsFilterable:      pd.IsFilterable,
			IsDisplayedInList: pd.IsDisplayedInList,
			IsDisplayedInCard: pd.IsDisplayedInCard,
			PropertyName:      def.Name,
		}
		if pd.DisplayOrder != nil {
			assignment.DisplayOrder = *pd.DisplayOrder
		}
		if m, ok := pd.DefaultValue.(map[string]any); ok {
			assignment.DefaultValue = entity.Attributes(m)
		}
		t.Properties = append(t.Properties, assignment)
	}
	return t, nil
}

// PropertyToExport converts a property definition into the portable shape.
func PropertyToExport(def *propertydef.PropertyDefinition) presetdoc.PropertyDefinitionDoc {
	doc := presetdoc.PropertyDefinitionDoc{
		Name:              def.Name,
		DataType:          string(def.DataType),
		IsRequired:        def.IsRequired,
		HasMultipleValues: def.HasMultipleValues,
		ValidationRules:   def.ValidationRules.Clone(),
	}
	if def.GroupName != nil {
		doc.GroupName = *def.GroupName
	}
	if def.Unit != nil {
		doc.Unit = *def.Unit
	}
	if len(def.Translations) > 0 {
		doc.Translations = make(map[string]presetdoc.TranslationDoc, len(def.Translations))
		for _, tr := range def.Translations {
			td := presetdoc.TranslationDoc{DisplayName: tr.DisplayName}
			if tr.Description != nil {
				td.Description = *tr.Description
			}
			doc.Translations[tr.Locale] = td
		}
	}
	for _, opt := range def.EnumOptions {
		od := presetdoc.EnumOptionDoc{
			Value:        opt.Value,
			DisplayValue: opt.DisplayValue,
			DisplayOrder: opt.DisplayOrder,
		}
		if opt.Color != nil {
			od.Color = *opt.Color
		}
		doc.EnumOptions = append(doc.EnumOptions, od)
	}
	return doc
}

// PropertyFromExport converts a portable property document into a definition.
func PropertyFromExport(doc presetdoc.PropertyDefinitionDoc) *propertydef.PropertyDefinition {
	def := propertydef.NewPropertyDefinition(doc.Name, propertydef.DataType(doc.DataType))
	def.IsRequired = doc.IsRequired
	def.HasMultipleValues = doc.HasMultipleValues
	def.ValidationRules = doc.ValidationRules.Clone()
	if doc.GroupName != "" {
		g := doc.GroupName
		def.GroupName = &g
	}
	if doc.Unit != "" {
		u := doc.Unit
		def.Unit = &u
	}
	for locale, td := range doc.Translations {
		tr := propertydef.Translation{
			ID:         id.New(),
			PropertyID: def.ID,
			Locale:     locale,
		}
		tr.DisplayName = td.DisplayName
		if td.Description != "" {
			desc := td.Description
			tr.Description = &desc
		}
		def.Translations = append(def.Translations, tr)
	}
	for _, od := range doc.EnumOptions {
		opt := propertydef.EnumOption{
			ID:           id.New(),
			PropertyID:   def.ID,
			Value:        od.Value,
			DisplayValue: od.DisplayValue,
			DisplayOrder: od.DisplayOrder,
		}
		if od.Color != "" {
			c := od.Color
			opt.Color = &c
		}
		def.EnumOptions = append(def.EnumOptions, opt)
	}
	return def
}
