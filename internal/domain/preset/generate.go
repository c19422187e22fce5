package preset

import (
	"context"
	"time"

	"hidesync/internal/core/entity"
	"hidesync/internal/core/id"
	"hidesync/internal/domain/material"
	"hidesync/internal/domain/presetdoc"
	"hidesync/internal/domain/schema/entitytype"
	"hidesync/internal/domain/settings"
	"hidesync/pkg/logger"
)

// How many live instances per type a generated preset samples.
const sampleLimit = 5

// DocumentVersion is stamped into generated preset metadata.
const DocumentVersion = "1.0"

// GenerateFromSystem walks the live registries into a portable document,
// the inverse of Apply. Types, their property definitions, optionally a few
// live instances as samples and the caller's user-scope settings.
func (s *Service) GenerateFromSystem(ctx context.Context, materialTypeIDs []id.ID, includeSamples, includeSettings bool, userID id.ID) (*presetdoc.Document, error) {
	doc := &presetdoc.Document{
		Metadata: presetdoc.Metadata{
			Version:   DocumentVersion,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
			CreatedBy: userID.String(),
		},
	}
	doc.Normalize()

	exportedProps := make(map[string]bool)
	for _, typeID := range materialTypeIDs {
		t, err := s.types.GetByID(ctx, typeID)
		if err != nil {
			return nil, err
		}
		doc.MaterialTypes = append(doc.MaterialTypes, entitytype.ToExport(t))

		for _, assignment := range t.Properties {
			if assignment.PropertyName == "" || exportedProps[assignment.PropertyName] {
				continue
			}
			def, err := s.props.GetByID(ctx, assignment.PropertyID)
			if err != nil {
				logger.Warn(ctx, "assigned property not exported",
					"type", t.Name, "propertyId", assignment.PropertyID, "error", err)
				continue
			}
			doc.PropertyDefinitions = append(doc.PropertyDefinitions, entitytype.PropertyToExport(def))
			exportedProps[def.Name] = true
		}

		if includeSamples {
			samples, err := s.sampleMaterials(ctx, t)
			if err != nil {
				return nil, err
			}
			doc.SampleMaterials = append(doc.SampleMaterials, samples...)
		}
	}

	if includeSettings && s.settings != nil {
		scoped, err := s.settings.ListScope(ctx, settings.ScopeUser, userID.String())
		if err != nil {
			return nil, err
		}
		for _, st := range scoped {
			if st.Key == "theme" {
				if m, ok := st.Value.(map[string]any); ok {
					doc.Theme = entity.Attributes(m)
				}
				continue
			}
			doc.Settings[st.Key] = st.Value
		}
	}

	return doc, nil
}

func (s *Service) sampleMaterials(ctx context.Context, t *entitytype.EntityType) ([]presetdoc.SampleMaterialDoc, error) {
	filter := material.ListFilter{}
	filter.EntityTypeID = &t.ID
	filter.Limit = sampleLimit

	result, err := s.materials.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	var docs []presetdoc.SampleMaterialDoc
	for _, m := range result.Items {
		sm := presetdoc.SampleMaterialDoc{
			MaterialType: t.Name,
			Name:         m.Name,
			Status:       m.Status,
			Quantity:     m.Quantity,
			Unit:         m.Unit,
		}
		for _, slot := range m.Values {
			def, err := s.props.GetByID(ctx, slot.PropertyID)
			if err != nil {
				logger.Debug(ctx, "sample slot property not resolved",
					"material", m.Name, "propertyId", slot.PropertyID)
				continue
			}
			if value := slot.Get(def.DataType); value != nil {
				if sm.Properties == nil {
					sm.Properties = make(map[string]any)
				}
				sm.Properties[def.Name] = value
			}
		}
		docs = append(docs, sm)
	}
	return docs, nil
}
