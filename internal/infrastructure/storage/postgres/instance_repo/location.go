package instance_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
	"hidesync/internal/domain"
	"hidesync/internal/domain/propvalue"
	"hidesync/internal/domain/storage"
	"hidesync/internal/infrastructure/storage/postgres"
)

// LocationRepo implements storage.Repository.
type LocationRepo struct {
	*postgres.BaseRepo[*storage.Location]
	txm *postgres.TxManager
}

var _ storage.Repository = (*LocationRepo)(nil)

// NewLocationRepo creates a storage location repository.
func NewLocationRepo(txm *postgres.TxManager) *LocationRepo {
	return &LocationRepo{
		BaseRepo: postgres.NewBaseRepo(
			txm,
			"storage_locations",
			postgres.ExtractDBColumns[storage.Location](),
			func() *storage.Location { return &storage.Location{} },
		),
		txm: txm,
	}
}

// GetByID retrieves a location with its value slots loaded.
func (r *LocationRepo) GetByID(ctx context.Context, locationID id.ID) (*storage.Location, error) {
	l, err := r.BaseRepo.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if err := r.loadValues(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// GetByName retrieves a location by name within an entity type.
func (r *LocationRepo) GetByName(ctx context.Context, typeID id.ID, name string) (*storage.Location, error) {
	q := r.BaseSelect().
		Where(squirrel.Eq{"entity_type_id": typeID, "name": name}).
		Limit(1)
	l, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("storage location", name)
		}
		return nil, err
	}
	if err := r.loadValues(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// List retrieves locations with filtering and pagination, slots eager-loaded.
func (r *LocationRepo) List(ctx context.Context, filter storage.ListFilter) (domain.ListResult[*storage.Location], error) {
	var extra []squirrel.Sqlizer
	if filter.EntityTypeID != nil {
		extra = append(extra, squirrel.Eq{"entity_type_id": *filter.EntityTypeID})
	}
	if filter.Status != "" {
		extra = append(extra, squirrel.Eq{"status": filter.Status})
	}
	if filter.Section != "" {
		extra = append(extra, squirrel.Eq{"section": filter.Section})
	}

	result, err := r.BaseRepo.List(ctx, filter.ListFilter, extra...)
	if err != nil {
		return result, err
	}
	for _, l := range result.Items {
		if err := r.loadValues(ctx, l); err != nil {
			return result, err
		}
	}
	return result, nil
}

// Delete removes the location together with its value slots.
func (r *LocationRepo) Delete(ctx context.Context, locationID id.ID) error {
	sql, args, err := r.Builder().
		Delete("location_property_values").
		Where(squirrel.Eq{"entity_id": locationID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete values: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete values: %w", err)
	}
	return r.BaseRepo.Delete(ctx, locationID)
}

// CountByType counts instances of an entity type, used as a deletion guard.
func (r *LocationRepo) CountByType(ctx context.Context, typeID id.ID) (int64, error) {
	return r.CountWhere(ctx, squirrel.Eq{"entity_type_id": typeID})
}

// GetSlot retrieves the value slot for (location, property).
func (r *LocationRepo) GetSlot(ctx context.Context, locationID, propertyID id.ID) (*propvalue.Slot, error) {
	return getSlot(ctx, r.txm, r.Builder(), "location_property_values", locationID, propertyID)
}

// SaveSlot inserts or updates a value slot.
func (r *LocationRepo) SaveSlot(ctx context.Context, slot *propvalue.Slot) error {
	return saveSlot(ctx, r.txm, r.Builder(), "location_property_values", slot)
}

// DeleteSlot removes the slot for (location, property).
func (r *LocationRepo) DeleteSlot(ctx context.Context, locationID, propertyID id.ID) error {
	return deleteSlot(ctx, r.txm, r.Builder(), "location_property_values", locationID, propertyID)
}

func (r *LocationRepo) loadValues(ctx context.Context, l *storage.Location) error {
	values, err := listSlots(ctx, r.txm, r.Builder(), "location_property_values", l.ID)
	if err != nil {
		return err
	}
	l.Values = values
	return nil
}
