// Package schema_repo provides PostgreSQL repositories for the schema
// registries: enum catalogs, property definitions and entity types.
package schema_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
	"hidesync/internal/domain/schema/enumreg"
	"hidesync/internal/infrastructure/storage/postgres"
)

var enumValueCols = []string{
	"id", "enum_type_id", "code", "display_order", "is_system", "parent_id", "is_active",
}

// EnumRepo implements enumreg.Repository on a single discriminator table.
type EnumRepo struct {
	txm *postgres.TxManager
}

// Compile-time check.
var _ enumreg.Repository = (*EnumRepo)(nil)

// NewEnumRepo creates an enum repository.
func NewEnumRepo(txm *postgres.TxManager) *EnumRepo {
	return &EnumRepo{txm: txm}
}

func (r *EnumRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// ListTypes returns all registered enum catalogs.
func (r *EnumRepo) ListTypes(ctx context.Context) ([]enumreg.EnumType, error) {
	sql, args, err := r.builder().
		Select("id", "name", "system_name", "table_name").
		From("enum_types").
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var types []enumreg.EnumType
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &types, sql, args...); err != nil {
		return nil, fmt.Errorf("list enum types: %w", err)
	}
	return types, nil
}

// GetTypeBySystemName retrieves a catalog by its unique system name.
func (r *EnumRepo) GetTypeBySystemName(ctx context.Context, systemName string) (*enumreg.EnumType, error) {
	sql, args, err := r.builder().
		Select("id", "name", "system_name", "table_name").
		From("enum_types").
		Where(squirrel.Eq{"system_name": systemName}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t enumreg.EnumType
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("enum type", systemName)
		}
		return nil, fmt.Errorf("get enum type: %w", err)
	}
	return &t, nil
}

// CreateType registers a new catalog.
func (r *EnumRepo) CreateType(ctx context.Context, t *enumreg.EnumType) error {
	sql, args, err := r.builder().
		Insert("enum_types").
		Columns("id", "name", "system_name", "table_name").
		Values(t.ID, t.Name, t.SystemName, t.TableName).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapConstraintError(err, "enum type")
	}
	return nil
}

// ListValues returns active values joined with translations for locale,
// falling back to code as display text.
func (r *EnumRepo) ListValues(ctx context.Context, enumTypeID id.ID, locale string) ([]enumreg.ValueView, error) {
	sql, args, err := r.builder().
		Select(
			"v.id", "v.code", "v.display_order", "v.is_system", "v.parent_id", "v.is_active",
			"COALESCE(t.display_text, v.code) AS display_text",
			"t.description",
		).
		From("enum_values v").
		LeftJoin("enum_translations t ON t.enum_type_id = v.enum_type_id AND t.value_code = v.code AND t.locale = ?", locale).
		Where(squirrel.Eq{"v.enum_type_id": enumTypeID}).
		Where(squirrel.Eq{"v.is_active": true}).
		OrderBy("v.display_order", "v.code").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var views []enumreg.ValueView
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &views, sql, args...); err != nil {
		return nil, fmt.Errorf("list enum values: %w", err)
	}
	return views, nil
}

// GetValue retrieves a value by id within a catalog.
func (r *EnumRepo) GetValue(ctx context.Context, enumTypeID, valueID id.ID) (*enumreg.EnumValue, error) {
	sql, args, err := r.builder().
		Select(enumValueCols...).
		From("enum_values").
		Where(squirrel.Eq{"enum_type_id": enumTypeID, "id": valueID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var v enumreg.EnumValue
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &v, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("enum value", valueID.String())
		}
		return nil, fmt.Errorf("get enum value: %w", err)
	}
	return &v, nil
}

// GetValueByCode retrieves a value by code within a catalog.
func (r *EnumRepo) GetValueByCode(ctx context.Context, enumTypeID id.ID, code string) (*enumreg.EnumValue, error) {
	sql, args, err := r.builder().
		Select(enumValueCols...).
		From("enum_values").
		Where(squirrel.Eq{"enum_type_id": enumTypeID, "code": code}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var v enumreg.EnumValue
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &v, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("enum value", code)
		}
		return nil, fmt.Errorf("get enum value by code: %w", err)
	}
	return &v, nil
}

// CreateValue inserts a value row.
func (r *EnumRepo) CreateValue(ctx context.Context, v *enumreg.EnumValue) error {
	sql, args, err := r.builder().
		Insert("enum_values").
		Columns(enumValueCols...).
		Values(v.ID, v.EnumTypeID, v.Code, v.DisplayOrder, v.IsSystem, v.ParentID, v.IsActive).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapConstraintError(err, "enum value")
	}
	return nil
}

// UpdateValue persists a modified value row.
func (r *EnumRepo) UpdateValue(ctx context.Context, v *enumreg.EnumValue) error {
	sql, args, err := r.builder().
		Update("enum_values").
		Set("code", v.Code).
		Set("display_order", v.DisplayOrder).
		Set("parent_id", v.ParentID).
		Set("is_active", v.IsActive).
		Where(squirrel.Eq{"id": v.ID, "enum_type_id": v.EnumTypeID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapConstraintError(err, "enum value")
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("enum value", v.ID.String())
	}
	return nil
}

// DeleteValue removes a value and all its translations.
func (r *EnumRepo) DeleteValue(ctx context.Context, enumTypeID, valueID id.ID) error {
	querier := r.txm.GetQuerier(ctx)

	v, err := r.GetValue(ctx, enumTypeID, valueID)
	if err != nil {
		return err
	}

	delTr, trArgs, err := r.builder().
		Delete("enum_translations").
		Where(squirrel.Eq{"enum_type_id": enumTypeID, "value_code": v.Code}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete translations: %w", err)
	}
	if _, err := querier.Exec(ctx, delTr, trArgs...); err != nil {
		return fmt.Errorf("delete translations: %w", err)
	}

	delVal, valArgs, err := r.builder().
		Delete("enum_values").
		Where(squirrel.Eq{"id": valueID, "enum_type_id": enumTypeID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete value: %w", err)
	}
	result, err := querier.Exec(ctx, delVal, valArgs...)
	if err != nil {
		return postgres.MapConstraintError(err, "enum value")
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("enum value", valueID.String())
	}
	return nil
}

// UpsertTranslation inserts or updates the translation row keyed by
// (enum_type_id, value_code, locale).
func (r *EnumRepo) UpsertTranslation(ctx context.Context, tr *enumreg.Translation) error {
	sql, args, err := r.builder().
		Insert("enum_translations").
		Columns("id", "enum_type_id", "value_code", "locale", "display_text", "description").
		Values(tr.ID, tr.EnumTypeID, tr.ValueCode, tr.Locale, tr.DisplayText, tr.Description).
		Suffix(`ON CONFLICT (enum_type_id, value_code, locale)
			DO UPDATE SET display_text = EXCLUDED.display_text, description = EXCLUDED.description`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapConstraintError(err, "enum translation")
	}
	return nil
}

// GetTranslation retrieves a translation by its key.
func (r *EnumRepo) GetTranslation(ctx context.Context, enumTypeID id.ID, valueCode, locale string) (*enumreg.Translation, error) {
	sql, args, err := r.builder().
		Select("id", "enum_type_id", "value_code", "locale", "display_text", "description").
		From("enum_translations").
		Where(squirrel.Eq{"enum_type_id": enumTypeID, "value_code": valueCode, "locale": locale}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var tr enumreg.Translation
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &tr, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("enum translation", valueCode+"/"+locale)
		}
		return nil, fmt.Errorf("get translation: %w", err)
	}
	return &tr, nil
}

// DeleteTranslation removes a translation by its key.
func (r *EnumRepo) DeleteTranslation(ctx context.Context, enumTypeID id.ID, valueCode, locale string) error {
	sql, args, err := r.builder().
		Delete("enum_translations").
		Where(squirrel.Eq{"enum_type_id": enumTypeID, "value_code": valueCode, "locale": locale}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete translation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("enum translation", valueCode+"/"+locale)
	}
	return nil
}
