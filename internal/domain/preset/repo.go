package preset

import (
	"context"
	"time"

	"hidesync/internal/core/id"
	"hidesync/internal/domain"
	"hidesync/internal/domain/material"
	"hidesync/internal/domain/schema/entitytype"
	"hidesync/internal/domain/schema/propertydef"
	"hidesync/internal/domain/settings"
)

// Repository defines persistence for presets, applications and their error
// rows.
type Repository interface {
	Create(ctx context.Context, p *Preset) error
	GetByID(ctx context.Context, presetID id.ID) (*Preset, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Preset], error)
	Delete(ctx context.Context, presetID id.ID) error

	// RecordApplied bumps applied_count and last_applied_at.
	RecordApplied(ctx context.Context, presetID id.ID, appliedAt time.Time) error

	CreateApplication(ctx context.Context, app *Application) error
	UpdateApplication(ctx context.Context, app *Application) error
	CreateApplicationError(ctx context.Context, e *ApplicationError) error
	ListApplicationErrors(ctx context.Context, applicationID id.ID) ([]ApplicationError, error)
}

// PropertyStore is the property definition surface the engine applies
// against. Implemented by the propertydef service.
type PropertyStore interface {
	GetByID(ctx context.Context, defID id.ID) (*propertydef.PropertyDefinition, error)
	GetByName(ctx context.Context, name string) (*propertydef.PropertyDefinition, error)
	Create(ctx context.Context, def *propertydef.PropertyDefinition) error
	Update(ctx context.Context, defID id.ID, in propertydef.UpdateInput) (*propertydef.PropertyDefinition, error)
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*propertydef.PropertyDefinition], error)
}

// TypeStore is the entity type surface the engine applies against.
// Implemented by the entitytype service.
type TypeStore interface {
	GetByID(ctx context.Context, typeID id.ID) (*entitytype.EntityType, error)
	GetByName(ctx context.Context, kind entitytype.Kind, name string) (*entitytype.EntityType, error)
	CreateWithProperties(ctx context.Context, t *entitytype.EntityType) error
	UpdateWithProperties(ctx context.Context, typeID id.ID, in entitytype.UpdateInput) (*entitytype.EntityType, error)
}

// MaterialStore is the instance surface for sample materials. Implemented by
// the material service.
type MaterialStore interface {
	GetByName(ctx context.Context, typeID id.ID, name string) (*material.Material, error)
	CreateWithProperties(ctx context.Context, m *material.Material, props []material.PropertyInput) error
	List(ctx context.Context, filter material.ListFilter) (domain.ListResult[*material.Material], error)
}

// SettingsStore is the scoped settings surface. Implemented by the settings
// service; a nil store skips the settings/theme sections.
type SettingsStore interface {
	Set(ctx context.Context, key string, scopeType settings.ScopeType, scopeID string, value any) error
	ListScope(ctx context.Context, scopeType settings.ScopeType, scopeID string) ([]settings.Setting, error)
}

// EventSink receives domain events inside the ambient transaction.
// Implemented by the transactional outbox; a nil sink drops events.
type EventSink interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// Auditor records preset applications. Registered after construction; nil
// skips the audit trail.
type Auditor interface {
	RecordChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}
