// Package preset_repo provides the PostgreSQL repository for presets and
// their application history.
package preset_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
	"hidesync/internal/domain"
	"hidesync/internal/domain/preset"
	"hidesync/internal/infrastructure/storage/postgres"
)

var applicationCols = []string{
	"id", "preset_id", "user_id", "applied_at",
	"created_property_definitions", "updated_property_definitions",
	"created_material_types", "updated_material_types",
	"created_materials", "applied_settings", "error_count",
}

// PresetRepo implements preset.Repository.
type PresetRepo struct {
	*postgres.BaseRepo[*preset.Preset]
	txm *postgres.TxManager
}

var _ preset.Repository = (*PresetRepo)(nil)

// NewPresetRepo creates a preset repository.
func NewPresetRepo(txm *postgres.TxManager) *PresetRepo {
	return &PresetRepo{
		BaseRepo: postgres.NewBaseRepo(
			txm,
			"presets",
			postgres.ExtractDBColumns[preset.Preset](),
			func() *preset.Preset { return &preset.Preset{} },
		),
		txm: txm,
	}
}

// List retrieves presets with filtering and pagination.
func (r *PresetRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*preset.Preset], error) {
	return r.BaseRepo.List(ctx, filter)
}

// Delete removes a preset. Application history rows keep their preset_id and
// survive the delete.
func (r *PresetRepo) Delete(ctx context.Context, presetID id.ID) error {
	return r.BaseRepo.Delete(ctx, presetID)
}

// RecordApplied bumps applied_count and last_applied_at.
func (r *PresetRepo) RecordApplied(ctx context.Context, presetID id.ID, appliedAt time.Time) error {
	sql, args, err := r.Builder().
		Update("presets").
		Set("applied_count", squirrel.Expr("applied_count + 1")).
		Set("last_applied_at", appliedAt).
		Where(squirrel.Eq{"id": presetID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("record applied: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("preset", presetID.String())
	}
	return nil
}

// CreateApplication inserts a fresh application row.
func (r *PresetRepo) CreateApplication(ctx context.Context, app *preset.Application) error {
	sql, args, err := r.Builder().
		Insert("preset_applications").
		Columns(applicationCols...).
		Values(
			app.ID, app.PresetID, app.UserID, app.AppliedAt,
			app.CreatedPropertyDefinitions, app.UpdatedPropertyDefinitions,
			app.CreatedMaterialTypes, app.UpdatedMaterialTypes,
			app.CreatedMaterials, app.AppliedSettings, app.ErrorCount,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapConstraintError(err, "preset application")
	}
	return nil
}

// UpdateApplication persists the final counters of an application.
func (r *PresetRepo) UpdateApplication(ctx context.Context, app *preset.Application) error {
	sql, args, err := r.Builder().
		Update("preset_applications").
		Set("created_property_definitions", app.CreatedPropertyDefinitions).
		Set("updated_property_definitions", app.UpdatedPropertyDefinitions).
		Set("created_material_types", app.CreatedMaterialTypes).
		Set("updated_material_types", app.UpdatedMaterialTypes).
		Set("created_materials", app.CreatedMaterials).
		Set("applied_settings", app.AppliedSettings).
		Set("error_count", app.ErrorCount).
		Where(squirrel.Eq{"id": app.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("preset application", app.ID.String())
	}
	return nil
}

// CreateApplicationError inserts one failed sub-operation row.
func (r *PresetRepo) CreateApplicationError(ctx context.Context, e *preset.ApplicationError) error {
	if id.IsNil(e.ID) {
		e.ID = id.New()
	}

	sql, args, err := r.Builder().
		Insert("preset_application_errors").
		Columns("id", "application_id", "error_type", "entity_type", "entity_name", "error_message").
		Values(e.ID, e.ApplicationID, e.ErrorType, e.EntityType, e.EntityName, e.ErrorMessage).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapConstraintError(err, "application error")
	}
	return nil
}

// ListApplicationErrors returns the error rows of one application.
func (r *PresetRepo) ListApplicationErrors(ctx context.Context, applicationID id.ID) ([]preset.ApplicationError, error) {
	sql, args, err := r.Builder().
		Select("id", "application_id", "error_type", "entity_type", "entity_name", "error_message").
		From("preset_application_errors").
		Where(squirrel.Eq{"application_id": applicationID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var errs []preset.ApplicationError
	if err := pgxscan.Select(ctx, r.Querier(ctx), &errs, sql, args...); err != nil {
		return nil, fmt.Errorf("list application errors: %w", err)
	}
	return errs, nil
}
