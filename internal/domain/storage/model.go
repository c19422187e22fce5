// Package storage provides storage location instances, the structural twin
// of materials: typed property slots attached to a runtime-defined type.
package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/entity"
	"hidesync/internal/core/id"
	"hidesync/internal/domain/propvalue"
)

// Location statuses.
const (
	StatusActive = "active"
	StatusFull   = "full"
)

// Location is an instance of a storage location type.
type Location struct {
	entity.Base

	EntityTypeID id.ID           `db:"entity_type_id" json:"entityTypeId"`
	Name         string          `db:"name" json:"name"`
	Status       string          `db:"status" json:"status"`
	Capacity     decimal.Decimal `db:"capacity" json:"capacity"`
	Utilized     decimal.Decimal `db:"utilized" json:"utilized"`
	Section      *string         `db:"section" json:"section,omitempty"`
	Notes        *string         `db:"notes" json:"notes,omitempty"`

	Values []propvalue.Slot `db:"-" json:"values,omitempty"`
}

// NewLocation creates a location with required fields and default status.
func NewLocation(typeID id.ID, name string) *Location {
	return &Location{
		Base:         entity.NewBase(),
		EntityTypeID: typeID,
		Name:         name,
		Status:       StatusActive,
	}
}

// Validate implements entity.Validatable.
func (l *Location) Validate(ctx context.Context) error {
	if l.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if id.IsNil(l.EntityTypeID) {
		return apperror.NewValidation("entity type is required").WithDetail("field", "entityTypeId")
	}
	if l.Capacity.IsNegative() {
		return apperror.NewValidation("capacity cannot be negative").WithDetail("field", "capacity")
	}
	if l.Utilized.GreaterThan(l.Capacity) && !l.Capacity.IsZero() {
		return apperror.NewValidation("utilization exceeds capacity").
			WithDetail("capacity", l.Capacity.String()).
			WithDetail("utilized", l.Utilized.String())
	}
	return nil
}

// PropertyInput is one submitted (property, value) pair.
type PropertyInput struct {
	PropertyID id.ID `json:"propertyId"`
	Value      any   `json:"value"`
}

// UpdateInput carries optional fields for a location update.
type UpdateInput struct {
	Name       *string          `json:"name,omitempty"`
	Status     *string          `json:"status,omitempty"`
	Capacity   *decimal.Decimal `json:"capacity,omitempty"`
	Utilized   *decimal.Decimal `json:"utilized,omitempty"`
	Section    *string          `json:"section,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
	Properties []PropertyInput  `json:"properties,omitempty"`
}
