package storage

import (
	"context"

	"hidesync/internal/core/id"
	"hidesync/internal/domain"
	"hidesync/internal/domain/propvalue"
	"hidesync/internal/domain/schema/propertydef"
)

// ListFilter extends the common filter with location-specific criteria.
type ListFilter struct {
	domain.ListFilter
	EntityTypeID *id.ID
	Status       string
	Section      string
}

// Repository defines persistence for locations and their value slots.
type Repository interface {
	Create(ctx context.Context, l *Location) error
	GetByID(ctx context.Context, locationID id.ID) (*Location, error)
	GetByName(ctx context.Context, typeID id.ID, name string) (*Location, error)
	Update(ctx context.Context, l *Location) error
	Delete(ctx context.Context, locationID id.ID) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Location], error)

	CountByType(ctx context.Context, typeID id.ID) (int64, error)

	GetSlot(ctx context.Context, locationID, propertyID id.ID) (*propvalue.Slot, error)
	SaveSlot(ctx context.Context, slot *propvalue.Slot) error
	DeleteSlot(ctx context.Context, locationID, propertyID id.ID) error
}

// SchemaStore resolves and validates property definitions for the write
// path. Implemented by the property definition service.
type SchemaStore interface {
	GetByID(ctx context.Context, defID id.ID) (*propertydef.PropertyDefinition, error)
	CheckValue(ctx context.Context, def *propertydef.PropertyDefinition, value any) error
}
