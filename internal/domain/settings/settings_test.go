package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hidesync/internal/core/apperror"
)

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	entries map[string]*Setting
}

func key(k string, st ScopeType, scopeID string) string {
	return k + "|" + string(st) + "|" + scopeID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{entries: make(map[string]*Setting)}
}

func (r *fakeRepo) Get(ctx context.Context, k string, st ScopeType, scopeID string) (*Setting, error) {
	if s, ok := r.entries[key(k, st, scopeID)]; ok {
		return s, nil
	}
	return nil, apperror.NewNotFound("setting", k)
}

func (r *fakeRepo) Upsert(ctx context.Context, s *Setting) error {
	r.entries[key(s.Key, s.ScopeType, s.ScopeID)] = s
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, k string, st ScopeType, scopeID string) error {
	delete(r.entries, key(k, st, scopeID))
	return nil
}

func (r *fakeRepo) ListScope(ctx context.Context, st ScopeType, scopeID string) ([]Setting, error) {
	var out []Setting
	for _, s := range r.entries {
		if s.ScopeType == st && s.ScopeID == scopeID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func TestSetGetDelete(t *testing.T) {
	svc := NewService(newFakeRepo(), noopTxManager{})
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "currency", ScopeUser, "u1", "USD"))
	require.NoError(t, svc.Set(ctx, "currency", ScopeUser, "u1", "EUR"), "set replaces")

	s, err := svc.Get(ctx, "currency", ScopeUser, "u1")
	require.NoError(t, err)
	assert.Equal(t, "EUR", s.Value)

	_, err = svc.Get(ctx, "currency", ScopeUser, "u2")
	assert.True(t, apperror.IsNotFound(err), "scopes are isolated")

	require.NoError(t, svc.Delete(ctx, "currency", ScopeUser, "u1"))
	_, err = svc.Get(ctx, "currency", ScopeUser, "u1")
	assert.True(t, apperror.IsNotFound(err))
}

func TestScopeValidation(t *testing.T) {
	svc := NewService(newFakeRepo(), noopTxManager{})
	ctx := context.Background()

	err := svc.Set(ctx, "", ScopeUser, "u1", "x")
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	err = svc.Set(ctx, "currency", ScopeType("galaxy"), "u1", "x")
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.ListScope(ctx, ScopeType("galaxy"), "u1")
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestListScope(t *testing.T) {
	svc := NewService(newFakeRepo(), noopTxManager{})
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, "currency", ScopeUser, "u1", "USD"))
	require.NoError(t, svc.Set(ctx, "locale", ScopeUser, "u1", "en"))
	require.NoError(t, svc.Set(ctx, "currency", ScopeSystem, "", "GBP"))

	scoped, err := svc.ListScope(ctx, ScopeUser, "u1")
	require.NoError(t, err)
	assert.Len(t, scoped, 2)
}
