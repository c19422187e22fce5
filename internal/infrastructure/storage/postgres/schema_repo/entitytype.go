package schema_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
	"hidesync/internal/domain"
	"hidesync/internal/domain/schema/entitytype"
	"hidesync/internal/infrastructure/storage/postgres"
)

// EntityTypeRepo implements entitytype.Repository.
type EntityTypeRepo struct {
	*postgres.BaseRepo[*entitytype.EntityType]
	txm *postgres.TxManager
}

var _ entitytype.Repository = (*EntityTypeRepo)(nil)

// NewEntityTypeRepo creates an entity type repository.
func NewEntityTypeRepo(txm *postgres.TxManager) *EntityTypeRepo {
	return &EntityTypeRepo{
		BaseRepo: postgres.NewBaseRepo(
			txm,
			"entity_types",
			postgres.ExtractDBColumns[entitytype.EntityType](),
			func() *entitytype.EntityType { return &entitytype.EntityType{} },
		),
		txm: txm,
	}
}

// Create inserts the type with translations and assignments in input order.
func (r *EntityTypeRepo) Create(ctx context.Context, t *entitytype.EntityType) error {
	if err := r.BaseRepo.Create(ctx, t); err != nil {
		return err
	}
	for i := range t.Translations {
		if err := r.insertTranslation(ctx, &t.Translations[i]); err != nil {
			return err
		}
	}
	for i := range t.Properties {
		if err := r.insertAssignment(ctx, &t.Properties[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a type with translations and assignments loaded.
func (r *EntityTypeRepo) GetByID(ctx context.Context, typeID id.ID) (*entitytype.EntityType, error) {
	t, err := r.BaseRepo.GetByID(ctx, typeID)
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetByName retrieves a type by (kind, name).
func (r *EntityTypeRepo) GetByName(ctx context.Context, kind entitytype.Kind, name string) (*entitytype.EntityType, error) {
	q := r.BaseSelect().
		Where(squirrel.Eq{"kind": kind, "name": name}).
		Limit(1)
	t, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("entity type", name)
		}
		return nil, err
	}
	if err := r.loadChildren(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update persists the type row and reconciles its translations.
func (r *EntityTypeRepo) Update(ctx context.Context, t *entitytype.EntityType) error {
	if err := r.BaseRepo.Update(ctx, t); err != nil {
		return err
	}

	delTr, trArgs, err := r.Builder().
		Delete("entity_type_translations").
		Where(squirrel.Eq{"entity_type_id": t.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete translations: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, delTr, trArgs...); err != nil {
		return fmt.Errorf("delete translations: %w", err)
	}
	for i := range t.Translations {
		if err := r.insertTranslation(ctx, &t.Translations[i]); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceAssignments deletes all assignments of the type and inserts the
// supplied set.
func (r *EntityTypeRepo) ReplaceAssignments(ctx context.Context, typeID id.ID, assignments []entitytype.PropertyAssignment) error {
	sql, args, err := r.Builder().
		Delete("entity_type_properties").
		Where(squirrel.Eq{"entity_type_id": typeID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete assignments: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete assignments: %w", err)
	}

	for i := range assignments {
		if err := r.insertAssignment(ctx, &assignments[i]); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the type with translations and assignments.
func (r *EntityTypeRepo) Delete(ctx context.Context, typeID id.ID) error {
	querier := r.Querier(ctx)

	for _, table := range []string{"entity_type_translations", "entity_type_properties"} {
		sql, args, err := r.Builder().
			Delete(table).
			Where(squirrel.Eq{"entity_type_id": typeID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build delete %s: %w", table, err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}

	return r.BaseRepo.Delete(ctx, typeID)
}

// List retrieves types with filtering and pagination, children eager-loaded.
func (r *EntityTypeRepo) List(ctx context.Context, filter entitytype.ListFilter) (domain.ListResult[*entitytype.EntityType], error) {
	var extra []squirrel.Sqlizer
	if filter.Kind != "" {
		extra = append(extra, squirrel.Eq{"kind": filter.Kind})
	}

	result, err := r.BaseRepo.List(ctx, filter.ListFilter, extra...)
	if err != nil {
		return result, err
	}
	for _, t := range result.Items {
		if err := r.loadChildren(ctx, t); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (r *EntityTypeRepo) insertTranslation(ctx context.Context, tr *entitytype.Translation) error {
	sql, args, err := r.Builder().
		Insert("entity_type_translations").
		Columns("id", "entity_type_id", "locale", "display_name", "description").
		Values(tr.ID, tr.EntityTypeID, tr.Locale, tr.DisplayName, tr.Description).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert translation: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapConstraintError(err, "entity type translation")
	}
	return nil
}

func (r *EntityTypeRepo) insertAssignment(ctx context.Context, p *entitytype.PropertyAssignment) error {
	sql, args, err := r.Builder().
		Insert("entity_type_properties").
		Columns("id", "entity_type_id", "property_id", "display_order", "is_required",
			"is_filterable", "is_displayed_in_list", "is_displayed_in_card", "default_value").
		Values(p.ID, p.EntityTypeID, p.PropertyID, p.DisplayOrder, p.IsRequired,
			p.IsFilterable, p.IsDisplayedInList, p.IsDisplayedInCard, p.DefaultValue).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert assignment: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapConstraintError(err, "property assignment")
	}
	return nil
}

func (r *EntityTypeRepo) loadChildren(ctx context.Context, t *entitytype.EntityType) error {
	querier := r.Querier(ctx)

	trSQL, trArgs, err := r.Builder().
		Select("id", "entity_type_id", "locale", "display_name", "description").
		From("entity_type_translations").
		Where(squirrel.Eq{"entity_type_id": t.ID}).
		OrderBy("locale").
		ToSql()
	if err != nil {
		return fmt.Errorf("build translations query: %w", err)
	}
	t.Translations = nil
	if err := pgxscan.Select(ctx, querier, &t.Translations, trSQL, trArgs...); err != nil {
		return fmt.Errorf("load translations: %w", err)
	}

	// Assignments joined with definitions so PropertyName comes preloaded.
	pSQL, pArgs, err := r.Builder().
		Select(
			"p.id", "p.entity_type_id", "p.property_id", "p.display_order", "p.is_required",
			"p.is_filterable", "p.is_displayed_in_list", "p.is_displayed_in_card", "p.default_value",
			"d.name AS property_name",
		).
		From("entity_type_properties p").
		Join("property_definitions d ON d.id = p.property_id").
		Where(squirrel.Eq{"p.entity_type_id": t.ID}).
		OrderBy("p.display_order").
		ToSql()
	if err != nil {
		return fmt.Errorf("build assignments query: %w", err)
	}

	rows, err := querier.Query(ctx, pSQL, pArgs...)
	if err != nil {
		return fmt.Errorf("load assignments: %w", err)
	}
	defer rows.Close()

	t.Properties = nil
	for rows.Next() {
		var p entitytype.PropertyAssignment
		err := rows.Scan(
			&p.ID, &p.EntityTypeID, &p.PropertyID, &p.DisplayOrder, &p.IsRequired,
			&p.IsFilterable, &p.IsDisplayedInList, &p.IsDisplayedInCard, &p.DefaultValue,
			&p.PropertyName,
		)
		if err != nil {
			return fmt.Errorf("scan assignment: %w", err)
		}
		t.Properties = append(t.Properties, p)
	}
	return rows.Err()
}
