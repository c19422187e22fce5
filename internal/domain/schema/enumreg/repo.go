package enumreg

import (
	"context"

	"hidesync/internal/core/id"
)

// Repository defines persistence for enum types, values and translations.
type Repository interface {
	// ListTypes returns all registered enum catalogs.
	ListTypes(ctx context.Context) ([]EnumType, error)

	// GetTypeBySystemName retrieves a catalog by its unique system name.
	GetTypeBySystemName(ctx context.Context, systemName string) (*EnumType, error)

	// CreateType registers a new catalog.
	CreateType(ctx context.Context, t *EnumType) error

	// ListValues returns active values joined with translations for locale,
	// ordered by (display_order, code).
	ListValues(ctx context.Context, enumTypeID id.ID, locale string) ([]ValueView, error)

	// GetValue retrieves a value by id within a catalog.
	GetValue(ctx context.Context, enumTypeID, valueID id.ID) (*EnumValue, error)

	// GetValueByCode retrieves a value by code within a catalog.
	GetValueByCode(ctx context.Context, enumTypeID id.ID, code string) (*EnumValue, error)

	// CreateValue inserts a value row.
	CreateValue(ctx context.Context, v *EnumValue) error

	// UpdateValue persists a modified value row.
	UpdateValue(ctx context.Context, v *EnumValue) error

	// DeleteValue removes a value and all its translations.
	DeleteValue(ctx context.Context, enumTypeID, valueID id.ID) error

	// UpsertTranslation inserts or updates the translation row keyed by
	// (enum_type_id, value_code, locale).
	UpsertTranslation(ctx context.Context, tr *Translation) error

	// GetTranslation retrieves a translation by its key.
	GetTranslation(ctx context.Context, enumTypeID id.ID, valueCode, locale string) (*Translation, error)

	// DeleteTranslation removes a translation by its key.
	DeleteTranslation(ctx context.Context, enumTypeID id.ID, valueCode, locale string) error
}
