package propertydef

import (
	"context"

	"hidesync/internal/core/id"
	"hidesync/internal/domain"
)

// Repository defines persistence for property definitions and their children.
type Repository interface {
	// Create inserts the definition together with its translations and
	// custom enum options.
	Create(ctx context.Context, def *PropertyDefinition) error

	// GetByID retrieves a definition with translations and options loaded.
	GetByID(ctx context.Context, defID id.ID) (*PropertyDefinition, error)

	// GetByName retrieves a definition by its unique name.
	GetByName(ctx context.Context, name string) (*PropertyDefinition, error)

	// Update persists a modified definition; the supplied translations
	// are merged by locale.
	Update(ctx context.Context, def *PropertyDefinition) error

	// Delete removes a definition with its translations and options.
	Delete(ctx context.Context, defID id.ID) error

	// List retrieves definitions with filtering and pagination.
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*PropertyDefinition], error)

	// ReferencedByTypes reports whether any entity type assigns this
	// definition.
	ReferencedByTypes(ctx context.Context, defID id.ID) (bool, error)

	// HasValues reports whether any instance stores a value for this
	// definition.
	HasValues(ctx context.Context, defID id.ID) (bool, error)

	// AddOption inserts a custom enum option.
	AddOption(ctx context.Context, opt *EnumOption) error

	// DeleteOption removes a custom enum option.
	DeleteOption(ctx context.Context, defID, optionID id.ID) error
}

// EnumResolver resolves raw enum values against a bound EnumType catalog.
// Implemented by the enum registry service.
type EnumResolver interface {
	ResolveValue(ctx context.Context, enumTypeID id.ID, raw any) (id.ID, error)
}
