// Package settings provides scoped key-value configuration storage used by
// user preferences, organization defaults and the preset engine's settings
// section.
package settings

import (
	"context"
	"time"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
	"hidesync/internal/core/tx"
)

// ScopeType qualifies who a setting belongs to.
type ScopeType string

const (
	ScopeUser         ScopeType = "user"
	ScopeOrganization ScopeType = "organization"
	ScopeSystem       ScopeType = "system"
)

// IsValidScope reports whether st is a known scope type.
func IsValidScope(st ScopeType) bool {
	return st == ScopeUser || st == ScopeOrganization || st == ScopeSystem
}

// Setting is one scoped configuration entry. Value is an arbitrary JSON
// document. Unique on (key, scope_type, scope_id).
type Setting struct {
	ID        id.ID     `db:"id" json:"id"`
	Key       string    `db:"key" json:"key"`
	ScopeType ScopeType `db:"scope_type" json:"scopeType"`
	ScopeID   string    `db:"scope_id" json:"scopeId"`
	Value     any       `db:"value" json:"value"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Repository defines persistence for settings.
type Repository interface {
	Get(ctx context.Context, key string, scopeType ScopeType, scopeID string) (*Setting, error)
	Upsert(ctx context.Context, s *Setting) error
	Delete(ctx context.Context, key string, scopeType ScopeType, scopeID string) error
	ListScope(ctx context.Context, scopeType ScopeType, scopeID string) ([]Setting, error)
}

// Service provides scoped setting reads and writes.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a settings service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// Get retrieves a setting value, NotFound when absent.
func (s *Service) Get(ctx context.Context, key string, scopeType ScopeType, scopeID string) (*Setting, error) {
	if err := checkScope(key, scopeType); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, key, scopeType, scopeID)
}

// Set creates or replaces a setting value.
func (s *Service) Set(ctx context.Context, key string, scopeType ScopeType, scopeID string, value any) error {
	if err := checkScope(key, scopeType); err != nil {
		return err
	}
	now := time.Now().UTC()
	setting := &Setting{
		ID:        id.New(),
		Key:       key,
		ScopeType: scopeType,
		ScopeID:   scopeID,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Upsert(ctx, setting)
	})
}

// Delete removes a setting.
func (s *Service) Delete(ctx context.Context, key string, scopeType ScopeType, scopeID string) error {
	if err := checkScope(key, scopeType); err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, key, scopeType, scopeID)
	})
}

// ListScope retrieves every setting of a scope.
func (s *Service) ListScope(ctx context.Context, scopeType ScopeType, scopeID string) ([]Setting, error) {
	if !IsValidScope(scopeType) {
		return nil, apperror.NewValidation("invalid scope type").
			WithDetail("scopeType", string(scopeType))
	}
	return s.repo.ListScope(ctx, scopeType, scopeID)
}

func checkScope(key string, scopeType ScopeType) error {
	if key == "" {
		return apperror.NewValidation("key is required").WithDetail("field", "key")
	}
	if !IsValidScope(scopeType) {
		return apperror.NewValidation("invalid scope type").
			WithDetail("scopeType", string(scopeType))
	}
	return nil
}
