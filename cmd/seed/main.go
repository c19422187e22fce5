// Package main provides a CLI tool for seeding the database with the system
// schema: enum catalogs, property definitions and entity types.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"hidesync/internal/core/id"
	"hidesync/internal/domain/auth"
	"hidesync/internal/infrastructure/storage/postgres"
	"hidesync/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if _, err := seedAdminUser(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	enumIDs, err := seedEnumCatalogs(ctx, pool, log)
	if err != nil {
		log.Fatalw("failed to seed enum catalogs", "error", err)
	}

	propIDs, err := seedPropertyDefinitions(ctx, pool, log, enumIDs)
	if err != nil {
		log.Fatalw("failed to seed property definitions", "error", err)
	}

	if err := seedEntityTypes(ctx, pool, log, propIDs); err != nil {
		log.Fatalw("failed to seed entity types", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (id.ID, error) {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@hidesync.io"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	var existingID id.ID
	err := pool.Pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1`,
		adminEmail,
	).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "email", adminEmail, "user_id", existingID)
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), fmt.Errorf("check admin exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return id.Nil(), fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	now := time.Now().UTC()

	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO users (id, version, created_at, updated_at, email, password_hash, full_name, tier, is_active)
		VALUES ($1, 1, $2, $2, $3, $4, 'System Admin', $5, true)
	`, userID, now, adminEmail, string(passwordHash), auth.TierProfessional)
	if err != nil {
		return id.Nil(), fmt.Errorf("insert admin user: %w", err)
	}

	log.Infow("admin user created", "email", adminEmail, "user_id", userID)
	return userID, nil
}

// seedEnumCatalogs creates the system enumeration catalogs and their values.
// Returns system_name -> catalog id.
func seedEnumCatalogs(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (map[string]id.ID, error) {
	type valueSeed struct {
		code        string
		displayText string
	}
	catalogs := []struct {
		name       string
		systemName string
		values     []valueSeed
	}{
		{"Leather Type", "leather_type", []valueSeed{
			{"full_grain", "Full Grain"},
			{"top_grain", "Top Grain"},
			{"genuine", "Genuine Leather"},
			{"suede", "Suede"},
			{"nubuck", "Nubuck"},
		}},
		{"Leather Finish", "leather_finish", []valueSeed{
			{"aniline", "Aniline"},
			{"semi_aniline", "Semi-Aniline"},
			{"pigmented", "Pigmented"},
			{"waxed", "Waxed"},
		}},
		{"Hardware Material", "hardware_material", []valueSeed{
			{"brass", "Brass"},
			{"stainless_steel", "Stainless Steel"},
			{"nickel", "Nickel"},
			{"copper", "Copper"},
		}},
		{"Unit of Measure", "unit_of_measure", []valueSeed{
			{"piece", "Piece"},
			{"sqft", "Square Foot"},
			{"meter", "Meter"},
			{"gram", "Gram"},
			{"spool", "Spool"},
		}},
	}

	ids := make(map[string]id.ID, len(catalogs))
	for _, cat := range catalogs {
		catID := id.New()
		tag, err := pool.Pool.Exec(ctx, `
			INSERT INTO enum_types (id, name, system_name, table_name)
			VALUES ($1, $2, $3, $3)
			ON CONFLICT (system_name) DO NOTHING
		`, catID, cat.name, cat.systemName)
		if err != nil {
			return nil, fmt.Errorf("insert enum type %s: %w", cat.systemName, err)
		}

		if tag.RowsAffected() == 0 {
			err = pool.Pool.QueryRow(ctx,
				`SELECT id FROM enum_types WHERE system_name = $1`,
				cat.systemName,
			).Scan(&catID)
			if err != nil {
				return nil, fmt.Errorf("fetch enum type %s: %w", cat.systemName, err)
			}
			ids[cat.systemName] = catID
			log.Infow("enum catalog already exists", "system_name", cat.systemName)
			continue
		}

		for order, v := range cat.values {
			_, err = pool.Pool.Exec(ctx, `
				INSERT INTO enum_values (id, enum_type_id, code, display_order, is_system, parent_id, is_active)
				VALUES ($1, $2, $3, $4, true, NULL, true)
				ON CONFLICT DO NOTHING
			`, id.New(), catID, v.code, order)
			if err != nil {
				return nil, fmt.Errorf("insert enum value %s.%s: %w", cat.systemName, v.code, err)
			}

			_, err = pool.Pool.Exec(ctx, `
				INSERT INTO enum_translations (id, enum_type_id, value_code, locale, display_text, description)
				VALUES ($1, $2, $3, 'en', $4, NULL)
				ON CONFLICT DO NOTHING
			`, id.New(), catID, v.code, v.displayText)
			if err != nil {
				return nil, fmt.Errorf("insert enum translation %s.%s: %w", cat.systemName, v.code, err)
			}
		}

		ids[cat.systemName] = catID
		log.Infow("enum catalog seeded", "system_name", cat.systemName, "values", len(cat.values))
	}

	return ids, nil
}

// seedPropertyDefinitions creates the system property definitions. Returns
// name -> definition id.
func seedPropertyDefinitions(ctx context.Context, pool *postgres.Pool, log *logger.Logger, enumIDs map[string]id.ID) (map[string]id.ID, error) {
	type propSeed struct {
		name        string
		dataType    string
		groupName   string
		unit        string
		enumCatalog string
		rules       string
		displayName string
	}

	props := []propSeed{
		{"leather_type", "enum", "leather", "", "leather_type", "{}", "Leather Type"},
		{"leather_finish", "enum", "leather", "", "leather_finish", "{}", "Finish"},
		{"thickness", "number", "leather", "mm", "", `{"min": 0, "max": 20}`, "Thickness"},
		{"color", "string", "appearance", "", "", `{"max_length": 50}`, "Color"},
		{"hardware_material", "enum", "hardware", "", "hardware_material", "{}", "Hardware Material"},
		{"is_waterproof", "boolean", "treatment", "", "", "{}", "Waterproof"},
		{"purchase_date", "date", "inventory", "", "", "{}", "Purchase Date"},
	}

	ids := make(map[string]id.ID, len(props))
	now := time.Now().UTC()

	for _, p := range props {
		var existingID id.ID
		err := pool.Pool.QueryRow(ctx,
			`SELECT id FROM property_definitions WHERE name = $1`,
			p.name,
		).Scan(&existingID)
		if err == nil {
			ids[p.name] = existingID
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("check property %s: %w", p.name, err)
		}

		propID := id.New()
		var groupName, unit any
		if p.groupName != "" {
			groupName = p.groupName
		}
		if p.unit != "" {
			unit = p.unit
		}
		var enumTypeID any
		if p.enumCatalog != "" {
			enumTypeID = enumIDs[p.enumCatalog]
		}

		_, err = pool.Pool.Exec(ctx, `
			INSERT INTO property_definitions (
				id, version, created_at, updated_at, name, data_type, group_name,
				unit, is_required, has_multiple_values, validation_rules, is_system, enum_type_id
			)
			VALUES ($1, 1, $2, $2, $3, $4, $5, $6, false, false, $7, true, $8)
		`, propID, now, p.name, p.dataType, groupName, unit, p.rules, enumTypeID)
		if err != nil {
			return nil, fmt.Errorf("insert property %s: %w", p.name, err)
		}

		_, err = pool.Pool.Exec(ctx, `
			INSERT INTO property_translations (id, property_id, locale, display_name, description)
			VALUES ($1, $2, 'en', $3, NULL)
		`, id.New(), propID, p.displayName)
		if err != nil {
			return nil, fmt.Errorf("insert property translation %s: %w", p.name, err)
		}

		ids[p.name] = propID
	}

	log.Infow("property definitions seeded", "count", len(ids))
	return ids, nil
}

func seedEntityTypes(ctx context.Context, pool *postgres.Pool, log *logger.Logger, propIDs map[string]id.ID) error {
	types := []struct {
		kind        string
		name        string
		icon        string
		colorScheme string
		displayName string
		props       []string
	}{
		{"material", "leather", "hide", "amber", "Leather",
			[]string{"leather_type", "leather_finish", "thickness", "color", "purchase_date"}},
		{"material", "hardware", "buckle", "zinc", "Hardware",
			[]string{"hardware_material", "color"}},
		{"material", "supplies", "thread", "emerald", "Supplies",
			[]string{"color", "is_waterproof"}},
		{"storage_location", "cabinet", "cabinet", "slate", "Cabinet",
			[]string{}},
		{"storage_location", "shelf", "shelf", "slate", "Shelf",
			[]string{}},
	}

	now := time.Now().UTC()

	for _, t := range types {
		var existingID id.ID
		err := pool.Pool.QueryRow(ctx,
			`SELECT id FROM entity_types WHERE kind = $1 AND name = $2`,
			t.kind, t.name,
		).Scan(&existingID)
		if err == nil {
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("check entity type %s: %w", t.name, err)
		}

		typeID := id.New()
		_, err = pool.Pool.Exec(ctx, `
			INSERT INTO entity_types (
				id, version, created_at, updated_at, kind, name, icon,
				color_scheme, ui_config, storage_config, is_system, visibility_level
			)
			VALUES ($1, 1, $2, $2, $3, $4, $5, $6, '{}', '{}', true, 'all')
		`, typeID, now, t.kind, t.name, t.icon, t.colorScheme)
		if err != nil {
			return fmt.Errorf("insert entity type %s: %w", t.name, err)
		}

		_, err = pool.Pool.Exec(ctx, `
			INSERT INTO entity_type_translations (id, entity_type_id, locale, display_name, description)
			VALUES ($1, $2, 'en', $3, NULL)
		`, id.New(), typeID, t.displayName)
		if err != nil {
			return fmt.Errorf("insert entity type translation %s: %w", t.name, err)
		}

		for order, propName := range t.props {
			propID, ok := propIDs[propName]
			if !ok {
				log.Warnw("skipping unknown property assignment",
					"entity_type", t.name, "property", propName)
				continue
			}
			_, err = pool.Pool.Exec(ctx, `
				INSERT INTO entity_type_properties (
					id, entity_type_id, property_id, display_order, is_required,
					is_filterable, is_displayed_in_list, is_displayed_in_card, default_value
				)
				VALUES ($1, $2, $3, $4, false, true, true, true, '{}')
			`, id.New(), typeID, propID, order)
			if err != nil {
				return fmt.Errorf("assign property %s to %s: %w", propName, t.name, err)
			}
		}

		log.Infow("entity type seeded", "kind", t.kind, "name", t.name, "properties", len(t.props))
	}

	return nil
}
