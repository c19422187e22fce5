package storage

import (
	"context"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
	"hidesync/internal/core/tx"
	"hidesync/internal/domain"
	"hidesync/internal/domain/propvalue"
)

// Service provides business logic for storage locations and their property
// values.
type Service struct {
	repo   Repository
	schema SchemaStore
	enums  propvalue.EnumResolver
	txm    tx.Manager
}

// NewService creates a storage location service.
func NewService(repo Repository, schema SchemaStore, enums propvalue.EnumResolver, txm tx.Manager) *Service {
	return &Service{repo: repo, schema: schema, enums: enums, txm: txm}
}

// List retrieves locations with filtering and pagination.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Location], error) {
	return s.repo.List(ctx, filter)
}

// GetByID retrieves a location with its value slots.
func (s *Service) GetByID(ctx context.Context, locationID id.ID) (*Location, error) {
	return s.repo.GetByID(ctx, locationID)
}

// CountByType reports live instances of a type.
func (s *Service) CountByType(ctx context.Context, typeID id.ID) (int64, error) {
	return s.repo.CountByType(ctx, typeID)
}

// CreateWithProperties creates the location row and one value slot per
// submitted property, all in one transaction.
func (s *Service) CreateWithProperties(ctx context.Context, l *Location, props []PropertyInput) error {
	if err := l.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(l.ID) {
		l.ID = id.New()
	}
	if l.Status == "" {
		l.Status = StatusActive
	}

	slots := make([]propvalue.Slot, 0, len(props))
	seen := make(map[id.ID]struct{}, len(props))
	for _, p := range props {
		if _, dup := seen[p.PropertyID]; dup {
			return apperror.NewValidation("duplicate property in input").
				WithDetail("propertyId", p.PropertyID.String())
		}
		seen[p.PropertyID] = struct{}{}

		def, err := s.schema.GetByID(ctx, p.PropertyID)
		if err != nil {
			return err
		}
		if err := s.schema.CheckValue(ctx, def, p.Value); err != nil {
			return err
		}
		if p.Value == nil {
			continue
		}
		slot, err := propvalue.New(ctx, l.ID, def, p.Value, s.enums)
		if err != nil {
			return err
		}
		slots = append(slots, *slot)
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, l); err != nil {
			return err
		}
		for i := range slots {
			if err := s.repo.SaveSlot(ctx, &slots[i]); err != nil {
				return err
			}
		}
		l.Values = slots
		return nil
	})
}

// UpdateWithProperties applies a partial update with the same slot semantics
// as materials: existing slots are fully reset then reassigned, missing ones
// inserted, nil values deleted.
func (s *Service) UpdateWithProperties(ctx context.Context, locationID id.ID, in UpdateInput) (*Location, error) {
	l, err := s.repo.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		l.Name = *in.Name
	}
	if in.Status != nil {
		l.Status = *in.Status
	}
	if in.Capacity != nil {
		l.Capacity = *in.Capacity
	}
	if in.Utilized != nil {
		l.Utilized = *in.Utilized
	}
	if in.Section != nil {
		l.Section = in.Section
	}
	if in.Notes != nil {
		l.Notes = in.Notes
	}
	if err := l.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, l); err != nil {
			return err
		}
		for _, p := range in.Properties {
			if err := s.applyValue(ctx, l.ID, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, locationID)
}

// Delete removes a location with all its value slots.
func (s *Service) Delete(ctx context.Context, locationID id.ID) error {
	if _, err := s.repo.GetByID(ctx, locationID); err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, locationID)
	})
}

func (s *Service) applyValue(ctx context.Context, locationID id.ID, p PropertyInput) error {
	def, err := s.schema.GetByID(ctx, p.PropertyID)
	if err != nil {
		return err
	}
	if err := s.schema.CheckValue(ctx, def, p.Value); err != nil {
		return err
	}

	if p.Value == nil {
		err := s.repo.DeleteSlot(ctx, locationID, p.PropertyID)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		return nil
	}

	slot, err := s.repo.GetSlot(ctx, locationID, p.PropertyID)
	if err != nil {
		if !apperror.IsNotFound(err) {
			return err
		}
		slot, err = propvalue.New(ctx, locationID, def, p.Value, s.enums)
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
