// Package settings_repo provides the PostgreSQL repository for scoped
// settings.
package settings_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"hidesync/internal/core/apperror"
	"hidesync/internal/domain/settings"
	"hidesync/internal/infrastructure/storage/postgres"
)

// SettingsRepo implements settings.Repository over a single table keyed by
// (key, scope_type, scope_id). Values are stored as jsonb.
type SettingsRepo struct {
	txm *postgres.TxManager
}

var _ settings.Repository = (*SettingsRepo)(nil)

// NewSettingsRepo creates a settings repository.
func NewSettingsRepo(txm *postgres.TxManager) *SettingsRepo {
	return &SettingsRepo{txm: txm}
}

func (r *SettingsRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Get retrieves one setting, NotFound when absent.
func (r *SettingsRepo) Get(ctx context.Context, key string, scopeType settings.ScopeType, scopeID string) (*settings.Setting, error) {
	sql, args, err := r.builder().
		Select("id", "key", "scope_type", "scope_id", "value", "created_at", "updated_at").
		From("settings").
		Where(squirrel.Eq{"key": key, "scope_type": scopeType, "scope_id": scopeID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s settings.Setting
	var raw json.RawMessage
	err = r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(
		&s.ID, &s.Key, &s.ScopeType, &s.ScopeID, &raw, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("setting", key)
		}
		return nil, fmt.Errorf("get setting: %w", err)
	}
	if err := json.Unmarshal(raw, &s.Value); err != nil {
		return nil, fmt.Errorf("decode setting value: %w", err)
	}
	return &s, nil
}

// Upsert inserts or replaces the value of a setting.
func (r *SettingsRepo) Upsert(ctx context.Context, s *settings.Setting) error {
	raw, err := json.Marshal(s.Value)
	if err != nil {
		return fmt.Errorf("encode setting value: %w", err)
	}

	sql, args, err := r.builder().
		Insert("settings").
		Columns("id", "key", "scope_type", "scope_id", "value", "created_at", "updated_at").
		Values(s.ID, s.Key, s.ScopeType, s.ScopeID, raw, s.CreatedAt, s.UpdatedAt).
		Suffix(`ON CONFLICT (key, scope_type, scope_id)
			DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapConstraintError(err, "setting")
	}
	return nil
}

// Delete removes a setting.
func (r *SettingsRepo) Delete(ctx context.Context, key string, scopeType settings.ScopeType, scopeID string) error {
	sql, args, err := r.builder().
		Delete("settings").
		Where(squirrel.Eq{"key": key, "scope_type": scopeType, "scope_id": scopeID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("setting", key)
	}
	return nil
}

// ListScope retrieves every setting of a scope, ordered by key.
func (r *SettingsRepo) ListScope(ctx context.Context, scopeType settings.ScopeType, scopeID string) ([]settings.Setting, error) {
	sql, args, err := r.builder().
		Select("id", "key", "scope_type", "scope_id", "value", "created_at", "updated_at").
		From("settings").
		Where(squirrel.Eq{"scope_type": scopeType, "scope_id": scopeID}).
		OrderBy("key").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var result []settings.Setting
	for rows.Next() {
		var s settings.Setting
		var raw json.RawMessage
		err := rows.Scan(&s.ID, &s.Key, &s.ScopeType, &s.ScopeID, &raw, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		if err := json.Unmarshal(raw, &s.Value); err != nil {
			return nil, fmt.Errorf("decode setting value: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
