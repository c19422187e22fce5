// Package material provides dynamic material instances whose attributes are
// stored as typed property value slots.
package material

import (
	"context"

	"github.com/shopspring/decimal"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/entity"
	"hidesync/internal/core/id"
	"hidesync/internal/domain/propvalue"
)

// Default status for newly created materials.
const StatusInStock = "in_stock"

// Material is an instance of a material entity type.
type Material struct {
	entity.Base

	EntityTypeID id.ID           `db:"entity_type_id" json:"entityTypeId"`
	Name         string          `db:"name" json:"name"`
	Status       string          `db:"status" json:"status"`
	Quantity     decimal.Decimal `db:"quantity" json:"quantity"`
	Unit         string          `db:"unit" json:"unit"`
	ReorderPoint decimal.Decimal `db:"reorder_point" json:"reorderPoint"`
	Notes        *string         `db:"notes" json:"notes,omitempty"`

	// Values are the property slots, at most one per property.
	Values []propvalue.Slot `db:"-" json:"values,omitempty"`
}

// NewMaterial creates a material with required fields and default status.
func NewMaterial(typeID id.ID, name, unit string) *Material {
	return &Material{
		Base:         entity.NewBase(),
		EntityTypeID: typeID,
		Name:         name,
		Status:       StatusInStock,
		Unit:         unit,
	}
}

// Validate implements entity.Validatable.
func (m *Material) Validate(ctx context.Context) error {
	if m.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if id.IsNil(m.EntityTypeID) {
		return apperror.NewValidation("entity type is required").WithDetail("field", "entityTypeId")
	}
	if m.Unit == "" {
		return apperror.NewValidation("unit is required").WithDetail("field", "unit")
	}
	if m.Quantity.IsNegative() {
		return apperror.NewValidation("quantity cannot be negative").WithDetail("field", "quantity")
	}
	return nil
}

// PropertyInput is one submitted (property, value) pair.
type PropertyInput struct {
	PropertyID id.ID `json:"propertyId"`
	Value      any   `json:"value"`
}

// UpdateInput carries optional fields for a material update.
type UpdateInput struct {
	Name         *string          `json:"name,omitempty"`
	Status       *string          `json:"status,omitempty"`
	Quantity     *decimal.Decimal `json:"quantity,omitempty"`
	Unit         *string          `json:"unit,omitempty"`
	ReorderPoint *decimal.Decimal `json:"reorderPoint,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
	Properties   []PropertyInput  `json:"properties,omitempty"`
}
