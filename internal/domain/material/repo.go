package material

import (
	"context"

	"hidesync/internal/core/id"
	"hidesync/internal/domain"
	"hidesync/internal/domain/propvalue"
	"hidesync/internal/domain/schema/propertydef"
)

// ListFilter extends the common filter with material-specific criteria.
type ListFilter struct {
	domain.ListFilter
	EntityTypeID *id.ID
	Status       string
}

// Repository defines persistence for materials and their value slots.
type Repository interface {
	Create(ctx context.Context, m *Material) error
	GetByID(ctx context.Context, materialID id.ID) (*Material, error)
	GetByName(ctx context.Context, typeID id.ID, name string) (*Material, error)
	Update(ctx context.Context, m *Material) error
	Delete(ctx context.Context, materialID id.ID) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Material], error)

	// CountByType guards entity type deletion.
	CountByType(ctx context.Context, typeID id.ID) (int64, error)

	// GetSlot retrieves the value slot for (material, property), NotFound
	// when absent.
	GetSlot(ctx context.Context, materialID, propertyID id.ID) (*propvalue.Slot, error)

	// SaveSlot inserts or updates a value slot.
	SaveSlot(ctx context.Context, slot *propvalue.Slot) error

	// DeleteSlot removes the slot for (material, property).
	DeleteSlot(ctx context.Context, materialID, propertyID id.ID) error
}

// SchemaStore resolves and validates property definitions for the write
// path. Implemented by the property definition service.
type SchemaStore interface {
	GetByID(ctx context.Context, defID id.ID) (*propertydef.PropertyDefinition, error)
	CheckValue(ctx context.Context, def *propertydef.PropertyDefinition, value any) error
}
