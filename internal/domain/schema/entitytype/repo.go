package entitytype

import (
	"context"

	"hidesync/internal/core/id"
	"hidesync/internal/domain"
	"hidesync/internal/domain/schema/propertydef"
)

// ListFilter extends the common filter with type-specific criteria.
type ListFilter struct {
	domain.ListFilter
	Kind Kind
}

// Repository defines persistence for entity types, their translations and
// property assignments.
type Repository interface {
	// Create inserts the type with translations and assignments in input
	// order.
	Create(ctx context.Context, t *EntityType) error

	// GetByID retrieves a type with translations and assignments loaded,
	// assignments ordered by display_order.
	GetByID(ctx context.Context, typeID id.ID) (*EntityType, error)

	// GetByName retrieves a type by (kind, name).
	GetByName(ctx context.Context, kind Kind, name string) (*EntityType, error)

	// Update persists the type row and its translations.
	Update(ctx context.Context, t *EntityType) error

	// ReplaceAssignments deletes all assignments of the type and inserts
	// the supplied set.
	ReplaceAssignments(ctx context.Context, typeID id.ID, assignments []PropertyAssignment) error

	// Delete removes the type with translations and assignments.
	Delete(ctx context.Context, typeID id.ID) error

	// List retrieves types with filtering and pagination, properties and
	// translations eager-loaded.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*EntityType], error)
}

// PropertyLookup resolves property definitions for assignment wiring and
// export. Implemented by the property definition service.
type PropertyLookup interface {
	GetByID(ctx context.Context, defID id.ID) (*propertydef.PropertyDefinition, error)
	GetByName(ctx context.Context, name string) (*propertydef.PropertyDefinition, error)
}

// InstanceCounter reports how many instances reference a type. Implemented
// by the material and storage location repositories.
type InstanceCounter interface {
	CountByType(ctx context.Context, typeID id.ID) (int64, error)
}

// ListCache is the optional keyed cache consulted by the list path.
// Implemented by the Redis cache; a nil cache disables caching.
type ListCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	InvalidatePattern(ctx context.Context, pattern string) error
}

// Auditor records type mutations. Registered after construction; nil skips
// the audit trail.
type Auditor interface {
	RecordChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}
