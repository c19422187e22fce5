package schema_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
	"hidesync/internal/domain"
	"hidesync/internal/domain/schema/propertydef"
	"hidesync/internal/infrastructure/storage/postgres"
)

// PropertyDefRepo implements propertydef.Repository.
type PropertyDefRepo struct {
	*postgres.BaseRepo[*propertydef.PropertyDefinition]
	txm *postgres.TxManager
}

var _ propertydef.Repository = (*PropertyDefRepo)(nil)

// NewPropertyDefRepo creates a property definition repository.
func NewPropertyDefRepo(txm *postgres.TxManager) *PropertyDefRepo {
	return &PropertyDefRepo{
		BaseRepo: postgres.NewBaseRepo(
			txm,
			"property_definitions",
			postgres.ExtractDBColumns[propertydef.PropertyDefinition](),
			func() *propertydef.PropertyDefinition { return &propertydef.PropertyDefinition{} },
		),
		txm: txm,
	}
}

// Create inserts the definition together with its translations and options.
func (r *PropertyDefRepo) Create(ctx context.Context, def *propertydef.PropertyDefinition) error {
	if err := r.BaseRepo.Create(ctx, def); err != nil {
		return err
	}
	for i := range def.Translations {
		if err := r.insertTranslation(ctx, &def.Translations[i]); err != nil {
			return err
		}
	}
	for i := range def.EnumOptions {
		if err := r.AddOption(ctx, &def.EnumOptions[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a definition with translations and options loaded.
func (r *PropertyDefRepo) GetByID(ctx context.Context, defID id.ID) (*propertydef.PropertyDefinition, error) {
	def, err := r.BaseRepo.GetByID(ctx, defID)
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

// GetByName retrieves a definition by its unique name.
func (r *PropertyDefRepo) GetByName(ctx context.Context, name string) (*propertydef.PropertyDefinition, error) {
	q := r.BaseSelect().
		Where(squirrel.Eq{"name": name}).
		Limit(1)
	def, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("property definition", name)
		}
		return nil, err
	}
	if err := r.loadChildren(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

// Update persists the definition row and reconciles its children.
func (r *PropertyDefRepo) Update(ctx context.Context, def *propertydef.PropertyDefinition) error {
	if err := r.BaseRepo.Update(ctx, def); err != nil {
		return err
	}

	querier := r.Querier(ctx)

	delTr, trArgs, err := r.Builder().
		Delete("property_translations").
		Where(squirrel.Eq{"property_id": def.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete translations: %w", err)
	}
	if _, err := querier.Exec(ctx, delTr, trArgs...); err != nil {
		return fmt.Errorf("delete translations: %w", err)
	}
	for i := range def.Translations {
		if err := r.insertTranslation(ctx, &def.Translations[i]); err != nil {
			return err
		}
	}

	delOpt, optArgs, err := r.Builder().
		Delete("property_enum_options").
		Where(squirrel.Eq{"property_id": def.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete options: %w", err)
	}
	if _, err := querier.Exec(ctx, delOpt, optArgs...); err != nil {
		return fmt.Errorf("delete options: %w", err)
	}
	for i := range def.EnumOptions {
		if err := r.AddOption(ctx, &def.EnumOptions[i]); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a definition with its translations and options.
func (r *PropertyDefRepo) Delete(ctx context.Context, defID id.ID) error {
	querier := r.Querier(ctx)

	for _, table := range []string{"property_translations", "property_enum_options"} {
		sql, args, err := r.Builder().
			Delete(table).
			Where(squirrel.Eq{"property_id": defID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build delete %s: %w", table, err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}

	return r.BaseRepo.Delete(ctx, defID)
}

// List retrieves definitions with filtering and pagination.
func (r *PropertyDefRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*propertydef.PropertyDefinition], error) {
	result, err := r.BaseRepo.List(ctx, filter)
	if err != nil {
		return result, err
	}
	for _, def := range result.Items {
		if err := r.loadChildren(ctx, def); err != nil {
			return result, err
		}
	}
	return result, nil
}

// ReferencedByTypes reports whether any entity type assigns this definition.
func (r *PropertyDefRepo) ReferencedByTypes(ctx context.Context, defID id.ID) (bool, error) {
	sql, args, err := r.Builder().
		Select("1").
		From("entity_type_properties").
		Where(squirrel.Eq{"property_id": defID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("referenced by types: %w", err)
	}
	return true, nil
}

// HasValues reports whether any instance stores a value for this definition,
// checking both instance families.
func (r *PropertyDefRepo) HasValues(ctx context.Context, defID id.ID) (bool, error) {
	for _, table := range []string{"material_property_values", "location_property_values"} {
		sql, args, err := r.Builder().
			Select("1").
			From(table).
			Where(squirrel.Eq{"property_id": defID}).
			Limit(1).
			ToSql()
		if err != nil {
			return false, fmt.Errorf("build query: %w", err)
		}

		var one int
		err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return false, fmt.Errorf("has values in %s: %w", table, err)
		}
	}
	return false, nil
}

// AddOption inserts a custom enum option.
func (r *PropertyDefRepo) AddOption(ctx context.Context, opt *propertydef.EnumOption) error {
	sql, args, err := r.Builder().
		Insert("property_enum_options").
		Columns("id", "property_id", "value", "display_value", "color", "display_order").
		Values(opt.ID, opt.PropertyID, opt.Value, opt.DisplayValue, opt.Color, opt.DisplayOrder).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert option: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapConstraintError(err, "enum option")
	}
	return nil
}

// DeleteOption removes a custom enum option.
func (r *PropertyDefRepo) DeleteOption(ctx context.Context, defID, optionID id.ID) error {
	sql, args, err := r.Builder().
		Delete("property_enum_options").
		Where(squirrel.Eq{"id": optionID, "property_id": defID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete option: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete option: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("enum option", optionID.String())
	}
	return nil
}

func (r *PropertyDefRepo) insertTranslation(ctx context.Context, tr *propertydef.Translation) error {
	sql, args, err := r.Builder().
		Insert("property_translations").
		Columns("id", "property_id", "locale", "display_name", "description").
		Values(tr.ID, tr.PropertyID, tr.Locale, tr.DisplayName, tr.Description).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert translation: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapConstraintError(err, "property translation")
	}
	return nil
}

func (r *PropertyDefRepo) loadChildren(ctx context.Context, def *propertydef.PropertyDefinition) error {
	querier := r.Querier(ctx)

	trSQL, trArgs, err := r.Builder().
		Select("id", "property_id", "locale", "display_name", "description").
		From("property_translations").
		Where(squirrel.Eq{"property_id": def.ID}).
		OrderBy("locale").
		ToSql()
	if err != nil {
		return fmt.Errorf("build translations query: %w", err)
	}
	def.Translations = nil
	if err := pgxscan.Select(ctx, querier, &def.Translations, trSQL, trArgs...); err != nil {
		return fmt.Errorf("load translations: %w", err)
	}

	optSQL, optArgs, err := r.Builder().
		Select("id", "property_id", "value", "display_value", "color", "display_order").
		From("property_enum_options").
		Where(squirrel.Eq{"property_id": def.ID}).
		OrderBy("display_order", "value").
		ToSql()
	if err != nil {
		return fmt.Errorf("build options query: %w", err)
	}
	def.EnumOptions = nil
	if err := pgxscan.Select(ctx, querier, &def.EnumOptions, optSQL, optArgs...); err != nil {
		return fmt.Errorf("load options: %w", err)
	}
	return nil
}
