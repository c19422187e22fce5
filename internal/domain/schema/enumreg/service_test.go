package enumreg

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
)

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeRepo struct {
	types        map[string]*EnumType
	values       map[id.ID]*EnumValue
	translations map[string]*Translation // type|code|locale

	listTypesErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		types:        make(map[string]*EnumType),
		values:       make(map[id.ID]*EnumValue),
		translations: make(map[string]*Translation),
	}
}

func trKey(enumTypeID id.ID, code, locale string) string {
	return enumTypeID.String() + "|" + code + "|" + locale
}

func (r *fakeRepo) ListTypes(ctx context.Context) ([]EnumType, error) {
	if r.listTypesErr != nil {
		return nil, r.listTypesErr
	}
	out := make([]EnumType, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeRepo) GetTypeBySystemName(ctx context.Context, systemName string) (*EnumType, error) {
	if t, ok := r.types[systemName]; ok {
		return t, nil
	}
	return nil, apperror.NewNotFound("enum type", systemName)
}

func (r *fakeRepo) CreateType(ctx context.Context, t *EnumType) error {
	r.types[t.SystemName] = t
	return nil
}

func (r *fakeRepo) ListValues(ctx context.Context, enumTypeID id.ID, locale string) ([]ValueView, error) {
	var out []ValueView
	for _, v := range r.values {
		if v.EnumTypeID != enumTypeID || !v.IsActive {
			continue
		}
		view := ValueView{
			ID:           v.ID,
			Code:         v.Code,
			DisplayOrder: v.DisplayOrder,
			IsSystem:     v.IsSystem,
			IsActive:     v.IsActive,
			DisplayText:  v.Code,
		}
		if tr, ok := r.translations[trKey(enumTypeID, v.Code, locale)]; ok {
			view.DisplayText = tr.DisplayText
			view.Description = tr.Description
		}
		out = append(out, view)
	}
	return out, nil
}

func (r *fakeRepo) GetValue(ctx context.Context, enumTypeID, valueID id.ID) (*EnumValue, error) {
	if v, ok := r.values[valueID]; ok && v.EnumTypeID == enumTypeID {
		return v, nil
	}
	return nil, apperror.NewNotFound("enum value", valueID.String())
}

func (r *fakeRepo) GetValueByCode(ctx context.Context, enumTypeID id.ID, code string) (*EnumValue, error) {
	for _, v := range r.values {
		if v.EnumTypeID == enumTypeID && v.Code == code {
			return v, nil
		}
	}
	return nil, apperror.NewNotFound("enum value", code)
}

func (r *fakeRepo) CreateValue(ctx context.Context, v *EnumValue) error {
	r.values[v.ID] = v
	return nil
}

func (r *fakeRepo) UpdateValue(ctx context.Context, v *EnumValue) error {
	r.values[v.ID] = v
	return nil
}

func (r *fakeRepo) DeleteValue(ctx context.Context, enumTypeID, valueID id.ID) error {
	v, ok := r.values[valueID]
	if !ok {
		return apperror.NewNotFound("enum value", valueID.String())
	}
	for key, tr := range r.translations {
		if tr.EnumTypeID == enumTypeID && tr.ValueCode == v.Code {
			delete(r.translations, key)
		}
	}
	delete(r.values, valueID)
	return nil
}

func (r *fakeRepo) UpsertTranslation(ctx context.Context, tr *Translation) error {
	r.translations[trKey(tr.EnumTypeID, tr.ValueCode, tr.Locale)] = tr
	return nil
}

func (r *fakeRepo) GetTranslation(ctx context.Context, enumTypeID id.ID, valueCode, locale string) (*Translation, error) {
	if tr, ok := r.translations[trKey(enumTypeID, valueCode, locale)]; ok {
		return tr, nil
	}
	return nil, apperror.NewNotFound("enum translation", valueCode)
}

func (r *fakeRepo) DeleteTranslation(ctx context.Context, enumTypeID id.ID, valueCode, locale string) error {
	delete(r.translations, trKey(enumTypeID, valueCode, locale))
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *EnumType) {
	t.Helper()
	repo := newFakeRepo()
	svc := NewService(repo, noopTxManager{})

	catalog := &EnumType{Name: "Leather Type", SystemName: "leather_type"}
	require.NoError(t, svc.CreateType(context.Background(), catalog))
	return svc, repo, catalog
}

func TestListTypes_DegradesToEmptyOnError(t *testing.T) {
	repo := newFakeRepo()
	repo.listTypesErr = errors.New("connection refused")
	svc := NewService(repo, noopTxManager{})

	types := svc.ListTypes(context.Background())
	assert.NotNil(t, types)
	assert.Empty(t, types)
}

func TestCreateValue_WithDefaultTranslation(t *testing.T) {
	svc, repo, catalog := newTestService(t)
	ctx := context.Background()

	v, err := svc.CreateValue(ctx, "leather_type", CreateValueInput{
		Code:        "full_grain",
		DisplayText: "Full Grain",
	})
	require.NoError(t, err)
	assert.True(t, v.IsActive)
	assert.False(t, v.IsSystem)

	tr, ok := repo.translations[trKey(catalog.ID, "full_grain", DefaultLocale)]
	require.True(t, ok, "default translation must be created")
	assert.Equal(t, "Full Grain", tr.DisplayText)
}

func TestCreateValue_DuplicateCode(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateValue(ctx, "leather_type", CreateValueInput{Code: "suede", DisplayText: "Suede"})
	require.NoError(t, err)

	_, err = svc.CreateValue(ctx, "leather_type", CreateValueInput{Code: "suede", DisplayText: "Suede Again"})
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestCreateValue_UnknownCatalog(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateValue(context.Background(), "no_such_enum", CreateValueInput{Code: "x", DisplayText: "X"})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestUpdateValue_SystemRestrictions(t *testing.T) {
	svc, repo, catalog := newTestService(t)
	ctx := context.Background()

	system := &EnumValue{
		ID:         id.New(),
		EnumTypeID: catalog.ID,
		Code:       "full_grain",
		IsSystem:   true,
		IsActive:   true,
	}
	repo.values[system.ID] = system

	newCode := "fg"
	_, err := svc.UpdateValue(ctx, "leather_type", system.ID, UpdateValueInput{Code: &newCode})
	require.Error(t, err, "system value code is immutable")
	assert.True(t, apperror.IsValidation(err))

	parent := id.New()
	_, err = svc.UpdateValue(ctx, "leather_type", system.ID, UpdateValueInput{ParentID: &parent})
	require.Error(t, err, "system value hierarchy is immutable")

	order := 7
	text := "Full Grain Leather"
	updated, err := svc.UpdateValue(ctx, "leather_type", system.ID, UpdateValueInput{
		DisplayOrder: &order,
		DisplayText:  &text,
	})
	require.NoError(t, err, "display fields stay editable on system values")
	assert.Equal(t, 7, updated.DisplayOrder)

	tr, ok := repo.translations[trKey(catalog.ID, "full_grain", DefaultLocale)]
	require.True(t, ok)
	assert.Equal(t, "Full Grain Leather", tr.DisplayText)
}

func TestDeleteValue_SystemConflict(t *testing.T) {
	svc, repo, catalog := newTestService(t)
	ctx := context.Background()

	system := &EnumValue{ID: id.New(), EnumTypeID: catalog.ID, Code: "suede", IsSystem: true, IsActive: true}
	repo.values[system.ID] = system

	err := svc.DeleteValue(ctx, "leather_type", system.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestDeleteValue_RemovesTranslations(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	v, err := svc.CreateValue(ctx, "leather_type", CreateValueInput{Code: "nubuck", DisplayText: "Nubuck"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteValue(ctx, "leather_type", v.ID))
	assert.Empty(t, repo.values)
	assert.Empty(t, repo.translations)
}

func TestListValues_LocaleFallback(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateValue(ctx, "leather_type", CreateValueInput{Code: "top_grain", DisplayText: "Top Grain"})
	require.NoError(t, err)

	views, err := svc.ListValues(ctx, "leather_type", "de")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "top_grain", views[0].DisplayText, "untranslated locale falls back to code")

	views, err = svc.ListValues(ctx, "leather_type", "")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Top Grain", views[0].DisplayText, "empty locale defaults to en")
}

func TestResolveValue(t *testing.T) {
	svc, _, catalog := newTestService(t)
	ctx := context.Background()

	v, err := svc.CreateValue(ctx, "leather_type", CreateValueInput{Code: "suede", DisplayText: "Suede"})
	require.NoError(t, err)

	t.Run("by id", func(t *testing.T) {
		resolved, err := svc.ResolveValue(ctx, catalog.ID, v.ID)
		require.NoError(t, err)
		assert.Equal(t, v.ID, resolved)
	})

	t.Run("by id string", func(t *testing.T) {
		resolved, err := svc.ResolveValue(ctx, catalog.ID, v.ID.String())
		require.NoError(t, err)
		assert.Equal(t, v.ID, resolved)
	})

	t.Run("by code", func(t *testing.T) {
		resolved, err := svc.ResolveValue(ctx, catalog.ID, "suede")
		require.NoError(t, err)
		assert.Equal(t, v.ID, resolved)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := svc.ResolveValue(ctx, catalog.ID, "velvet")
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := svc.ResolveValue(ctx, catalog.ID, 42)
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})
}

func TestUpsertTranslation_RequiresExistingValue(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpsertTranslation(ctx, "leather_type", "missing", "de", "Fehlt", nil)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
