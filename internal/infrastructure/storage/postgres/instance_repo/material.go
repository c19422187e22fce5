// Package instance_repo provides PostgreSQL repositories for entity
// instances: materials and storage locations, each paired with its
// property value table.
package instance_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
	"hidesync/internal/domain"
	"hidesync/internal/domain/material"
	"hidesync/internal/domain/propvalue"
	"hidesync/internal/infrastructure/storage/postgres"
)

var slotCols = []string{
	"id", "entity_id", "property_id",
	"value_string", "value_number", "value_boolean", "value_date",
	"value_enum_id", "value_file_id", "value_reference_id",
	"created_at", "updated_at",
}

// MaterialRepo implements material.Repository.
type MaterialRepo struct {
	*postgres.BaseRepo[*material.Material]
	txm *postgres.TxManager
}

var _ material.Repository = (*MaterialRepo)(nil)

// NewMaterialRepo creates a material repository.
func NewMaterialRepo(txm *postgres.TxManager) *MaterialRepo {
	return &MaterialRepo{
		BaseRepo: postgres.NewBaseRepo(
			txm,
			"materials",
			postgres.ExtractDBColumns[material.Material](),
			func() *material.Material { return &material.Material{} },
		),
		txm: txm,
	}
}

// GetByID retrieves a material with its value slots loaded.
func (r *MaterialRepo) GetByID(ctx context.Context, materialID id.ID) (*material.Material, error) {
	m, err := r.BaseRepo.GetByID(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if err := r.loadValues(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// GetByName retrieves a material by name within an entity type.
func (r *MaterialRepo) GetByName(ctx context.Context, typeID id.ID, name string) (*material.Material, error) {
	q := r.BaseSelect().
		Where(squirrel.Eq{"entity_type_id": typeID, "name": name}).
		Limit(1)
	m, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("material", name)
		}
		return nil, err
	}
	if err := r.loadValues(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// List retrieves materials with filtering and pagination, slots eager-loaded.
func (r *MaterialRepo) List(ctx context.Context, filter material.ListFilter) (domain.ListResult[*material.Material], error) {
	var extra []squirrel.Sqlizer
	if filter.EntityTypeID != nil {
		extra = append(extra, squirrel.Eq{"entity_type_id": *filter.EntityTypeID})
	}
	if filter.Status != "" {
		extra = append(extra, squirrel.Eq{"status": filter.Status})
	}

	result, err := r.BaseRepo.List(ctx, filter.ListFilter, extra...)
	if err != nil {
		return result, err
	}
	for _, m := range result.Items {
		if err := r.loadValues(ctx, m); err != nil {
			return result, err
		}
	}
	return result, nil
}

// Delete removes the material together with its value slots.
func (r *MaterialRepo) Delete(ctx context.Context, materialID id.ID) error {
	sql, args, err := r.Builder().
		Delete("material_property_values").
		Where(squirrel.Eq{"entity_id": materialID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete values: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete values: %w", err)
	}
	return r.BaseRepo.Delete(ctx, materialID)
}

// CountByType counts instances of an entity type, used as a deletion guard.
func (r *MaterialRepo) CountByType(ctx context.Context, typeID id.ID) (int64, error) {
	return r.CountWhere(ctx, squirrel.Eq{"entity_type_id": typeID})
}

// GetSlot retrieves the value slot for (material, property).
func (r *MaterialRepo) GetSlot(ctx context.Context, materialID, propertyID id.ID) (*propvalue.Slot, error) {
	return getSlot(ctx, r.txm, r.Builder(), "material_property_values", materialID, propertyID)
}

// SaveSlot inserts or updates a value slot.
func (r *MaterialRepo) SaveSlot(ctx context.Context, slot *propvalue.Slot) error {
	return saveSlot(ctx, r.txm, r.Builder(), "material_property_values", slot)
}

// DeleteSlot removes the slot for (material, property).
func (r *MaterialRepo) DeleteSlot(ctx context.Context, materialID, propertyID id.ID) error {
	return deleteSlot(ctx, r.txm, r.Builder(), "material_property_values", materialID, propertyID)
}

func (r *MaterialRepo) loadValues(ctx context.Context, m *material.Material) error {
	values, err := listSlots(ctx, r.txm, r.Builder(), "material_property_values", m.ID)
	if err != nil {
		return err
	}
	m.Values = values
	return nil
}

// Shared slot helpers. Both value tables carry the identical column set and
// the unique key (entity_id, property_id).

func getSlot(ctx context.Context, txm *postgres.TxManager, b squirrel.StatementBuilderType, table string, entityID, propertyID id.ID) (*propvalue.Slot, error) {
	sql, args, err := b.
		Select(slotCols...).
		From(table).
		Where(squirrel.Eq{"entity_id": entityID, "property_id": propertyID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var slot propvalue.Slot
	if err := pgxscan.Get(ctx, txm.GetQuerier(ctx), &slot, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("property value", propertyID.String())
		}
		return nil, fmt.Errorf("get slot: %w", err)
	}
	return &slot, nil
}

func saveSlot(ctx context.Context, txm *postgres.TxManager, b squirrel.StatementBuilderType, table string, slot *propvalue.Slot) error {
	sql, args, err := b.
		Insert(table).
		Columns(slotCols...).
		Values(
			slot.ID, slot.EntityID, slot.PropertyID,
			slot.ValueString, slot.ValueNumber, slot.ValueBoolean, slot.ValueDate,
			slot.ValueEnumID, slot.ValueFileID, slot.ValueReferenceID,
			slot.CreatedAt, slot.UpdatedAt,
		).
		Suffix(`ON CONFLICT (entity_id, property_id) DO UPDATE SET
			value_string = EXCLUDED.value_string,
			value_number = EXCLUDED.value_number,
			value_boolean = EXCLUDED.value_boolean,
			value_date = EXCLUDED.value_date,
			value_enum_id = EXCLUDED.value_enum_id,
			value_file_id = EXCLUDED.value_file_id,
			value_reference_id = EXCLUDED.value_reference_id,
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapConstraintError(err, "property value")
	}
	return nil
}

func deleteSlot(ctx context.Context, txm *postgres.TxManager, b squirrel.StatementBuilderType, table string, entityID, propertyID id.ID) error {
	sql, args, err := b.
		Delete(table).
		Where(squirrel.Eq{"entity_id": entityID, "property_id": propertyID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("property value", propertyID.String())
	}
	return nil
}

func listSlots(ctx context.Context, txm *postgres.TxManager, b squirrel.StatementBuilderType, table string, entityID id.ID) ([]propvalue.Slot, error) {
	sql, args, err := b.
		Select(slotCols...).
		From(table).
		Where(squirrel.Eq{"entity_id": entityID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var slots []propvalue.Slot
	if err := pgxscan.Select(ctx, txm.GetQuerier(ctx), &slots, sql, args...); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}
