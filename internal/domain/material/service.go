package material

import (
	"context"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
	"hidesync/internal/core/tx"
	"hidesync/internal/domain"
	"hidesync/internal/domain/propvalue"
)

// Service provides business logic for material instances and their property
// values.
type Service struct {
	repo   Repository
	schema SchemaStore
	enums  propvalue.EnumResolver
	txm    tx.Manager
}

// NewService creates a material service.
func NewService(repo Repository, schema SchemaStore, enums propvalue.EnumResolver, txm tx.Manager) *Service {
	return &Service{repo: repo, schema: schema, enums: enums, txm: txm}
}

// List retrieves materials with filtering and pagination.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Material], error) {
	return s.repo.List(ctx, filter)
}

// GetByID retrieves a material with its value slots.
func (s *Service) GetByID(ctx context.Context, materialID id.ID) (*Material, error) {
	return s.repo.GetByID(ctx, materialID)
}

// GetByName retrieves a material by (type, name).
func (s *Service) GetByName(ctx context.Context, typeID id.ID, name string) (*Material, error) {
	return s.repo.GetByName(ctx, typeID, name)
}

// CountByType reports live instances of a type.
func (s *Service) CountByType(ctx context.Context, typeID id.ID) (int64, error) {
	return s.repo.CountByType(ctx, typeID)
}

// CreateWithProperties creates the material row and one value slot per
// submitted property, all in one transaction. Each value is validated
// against its definition's current data type and written into exactly the
// matching column.
func (s *Service) CreateWithProperties(ctx context.Context, m *Material, props []PropertyInput) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(m.ID) {
		m.ID = id.New()
	}
	if m.Status == "" {
		m.Status = StatusInStock
	}

	slots, err := s.buildSlots(ctx, m.ID, props)
	if err != nil {
		return err
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, m); err != nil {
			return err
		}
		for i := range slots {
			if err := s.repo.SaveSlot(ctx, &slots[i]); err != nil {
				return err
			}
		}
		m.Values = slots
		return nil
	})
}

// UpdateWithProperties applies a partial update. For each submitted property
// value an existing slot is reassigned (all typed columns reset, one set),
// a missing slot is inserted, and a nil value deletes the slot.
func (s *Service) UpdateWithProperties(ctx context.Context, materialID id.ID, in UpdateInput) (*Material, error) {
	m, err := s.repo.GetByID(ctx, materialID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		m.Name = *in.Name
	}
	if in.Status != nil {
		m.Status = *in.Status
	}
	if in.Quantity != nil {
		m.Quantity = *in.Quantity
	}
	if in.Unit != nil {
		m.Unit = *in.Unit
	}
	if in.ReorderPoint != nil {
		m.ReorderPoint = *in.ReorderPoint
	}
	if in.Notes != nil {
		m.Notes = in.Notes
	}
	if err := m.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, m); err != nil {
			return err
		}
		for _, p := range in.Properties {
			if err := s.applyValue(ctx, m.ID, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, materialID)
}

// Delete removes a material with all its value slots.
func (s *Service) Delete(ctx context.Context, materialID id.ID) error {
	if _, err := s.repo.GetByID(ctx, materialID); err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, materialID)
	})
}

func (s *Service) buildSlots(ctx context.Context, materialID id.ID, props []PropertyInput) ([]propvalue.Slot, error) {
	slots := make([]propvalue.Slot, 0, len(props))
	seen := make(map[id.ID]struct{}, len(props))
	for _, p := range props {
		if _, dup := seen[p.PropertyID]; dup {
			return nil, apperror.NewValidation("duplicate property in input").
				WithDetail("propertyId", p.PropertyID.String())
		}
		seen[p.PropertyID] = struct{}{}

		def, err := s.schema.GetByID(ctx, p.PropertyID)
		if err != nil {
			return nil, err
		}
		if err := s.schema.CheckValue(ctx, def, p.Value); err != nil {
			return nil, err
		}
		if p.Value == nil {
			continue
		}
		slot, err := propvalue.New(ctx, materialID, def, p.Value, s.enums)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *slot)
	}
	return slots, nil
}

func (s *Service) applyValue(ctx context.Context, materialID id.ID, p PropertyInput) error {
	def, err := s.schema.GetByID(ctx, p.PropertyID)
	if err != nil {
		return err
	}
	if err := s.schema.CheckValue(ctx, def, p.Value); err != nil {
		return err
	}

	if p.Value == nil {
		err := s.repo.DeleteSlot(ctx, materialID, p.PropertyID)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		return nil
	}

	slot, err := s.repo.GetSlot(ctx, materialID, p.PropertyID)
	if err != nil {
		if !apperror.IsNotFound(err) {
			return err
		}
		slot, err = propvalue.New(ctx, materialID, def, p.Value, s.enums)
		if err != nil {
			return err
		}
		return s.repo.SaveSlot(ctx, slot)
	}

	if err := slot.Assign(ctx, def, p.Value, s.enums); err != nil {
		return err
	}
	return s.repo.SaveSlot(ctx, slot)
}
