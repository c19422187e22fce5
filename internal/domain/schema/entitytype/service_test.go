package entitytype

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/appctx"
	"hidesync/internal/core/id"
	"hidesync/internal/domain"
	"hidesync/internal/domain/presetdoc"
	"hidesync/internal/domain/schema/propertydef"
)

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeTypeRepo struct {
	types map[id.ID]*EntityType
}

func newFakeTypeRepo() *fakeTypeRepo {
	return &fakeTypeRepo{types: make(map[id.ID]*EntityType)}
}

func (r *fakeTypeRepo) Create(ctx context.Context, t *EntityType) error {
	r.types[t.ID] = t
	return nil
}

func (r *fakeTypeRepo) GetByID(ctx context.Context, typeID id.ID) (*EntityType, error) {
	if t, ok := r.types[typeID]; ok {
		return t, nil
	}
	return nil, apperror.NewNotFound("entity type", typeID.String())
}

func (r *fakeTypeRepo) GetByName(ctx context.Context, kind Kind, name string) (*EntityType, error) {
	for _, t := range r.types {
		if t.Kind == kind && t.Name == name {
			return t, nil
		}
	}
	return nil, apperror.NewNotFound("entity type", name)
}

func (r *fakeTypeRepo) Update(ctx context.Context, t *EntityType) error {
	r.types[t.ID] = t
	return nil
}

func (r *fakeTypeRepo) ReplaceAssignments(ctx context.Context, typeID id.ID, assignments []PropertyAssignment) error {
	t, ok := r.types[typeID]
	if !ok {
		return apperror.NewNotFound("entity type", typeID.String())
	}
	t.Properties = assignments
	return nil
}

func (r *fakeTypeRepo) Delete(ctx context.Context, typeID id.ID) error {
	if _, ok := r.types[typeID]; !ok {
		return apperror.NewNotFound("entity type", typeID.String())
	}
	delete(r.types, typeID)
	return nil
}

func (r *fakeTypeRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*EntityType], error) {
	var items []*EntityType
	for _, t := range r.types {
		if filter.Kind != "" && t.Kind != filter.Kind {
			continue
		}
		if !filter.IncludeSystem && t.IsSystem {
			continue
		}
		items = append(items, t)
	}
	return domain.ListResult[*EntityType]{Items: items, TotalCount: int64(len(items))}, nil
}

type fakePropertyLookup struct {
	defs map[id.ID]*propertydef.PropertyDefinition
}

func (l *fakePropertyLookup) GetByID(ctx context.Context, defID id.ID) (*propertydef.PropertyDefinition, error) {
	if d, ok := l.defs[defID]; ok {
		return d, nil
	}
	return nil, apperror.NewNotFound("property definition", defID.String())
}

func (l *fakePropertyLookup) GetByName(ctx context.Context, name string) (*propertydef.PropertyDefinition, error) {
	for _, d := range l.defs {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, apperror.NewNotFound("property definition", name)
}

type fakeCounter struct {
	count int64
}

func (c *fakeCounter) CountByType(ctx context.Context, typeID id.ID) (int64, error) {
	return c.count, nil
}

type recordingCache struct {
	store       map[string][]byte
	invalidated []string
}

func (c *recordingCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	return false, nil
}

func (c *recordingCache) Set(ctx context.Context, key string, value any) error {
	if c.store == nil {
		c.store = make(map[string][]byte)
	}
	c.store[key] = nil
	return nil
}

func (c *recordingCache) InvalidatePattern(ctx context.Context, pattern string) error {
	c.invalidated = append(c.invalidated, pattern)
	return nil
}

func newTypeService(lookup *fakePropertyLookup, cache ListCache) (*Service, *fakeTypeRepo) {
	repo := newFakeTypeRepo()
	if lookup == nil {
		lookup = &fakePropertyLookup{defs: map[id.ID]*propertydef.PropertyDefinition{}}
	}
	return NewService(repo, lookup, noopTxManager{}, cache), repo
}

func tierContext(tier string) context.Context {
	return appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID: id.New(),
		Tier:   tier,
	})
}

func TestCreateWithProperties_DuplicateName(t *testing.T) {
	svc, _ := newTypeService(nil, nil)
	ctx := context.Background()

	first := NewEntityType(KindMaterial, "leather")
	require.NoError(t, svc.CreateWithProperties(ctx, first))

	dup := NewEntityType(KindMaterial, "leather")
	err := svc.CreateWithProperties(ctx, dup)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))

	other := NewEntityType(KindStorageLocation, "leather")
	assert.NoError(t, svc.CreateWithProperties(ctx, other),
		"same name under a different kind is allowed")
}

func TestCreateWithProperties_UnknownProperty(t *testing.T) {
	svc, _ := newTypeService(nil, nil)

	typ := NewEntityType(KindMaterial, "hardware")
	typ.Properties = []PropertyAssignment{{PropertyID: id.New()}}

	err := svc.CreateWithProperties(context.Background(), typ)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreateWithProperties_AssignsDisplayOrder(t *testing.T) {
	thickness := propertydef.NewPropertyDefinition("thickness", propertydef.TypeNumber)
	color := propertydef.NewPropertyDefinition("color", propertydef.TypeString)
	lookup := &fakePropertyLookup{defs: map[id.ID]*propertydef.PropertyDefinition{
		thickness.ID: thickness,
		color.ID:     color,
	}}
	svc, repo := newTypeService(lookup, nil)

	typ := NewEntityType(KindMaterial, "leather")
	typ.Properties = []PropertyAssignment{
		{PropertyID: thickness.ID},
		{PropertyID: color.ID},
	}
	require.NoError(t, svc.CreateWithProperties(context.Background(), typ))

	stored := repo.types[typ.ID]
	require.Len(t, stored.Properties, 2)
	assert.Equal(t, 0, stored.Properties[0].DisplayOrder)
	assert.Equal(t, 1, stored.Properties[1].DisplayOrder)
	assert.Equal(t, typ.ID, stored.Properties[0].EntityTypeID)
}

func TestCreateWithProperties_KeepsExplicitZeroOrder(t *testing.T) {
	thickness := propertydef.NewPropertyDefinition("thickness", propertydef.TypeNumber)
	color := propertydef.NewPropertyDefinition("color", propertydef.TypeString)
	lookup := &fakePropertyLookup{defs: map[id.ID]*propertydef.PropertyDefinition{
		thickness.ID: thickness,
		color.ID:     color,
	}}
	svc, repo := newTypeService(lookup, nil)

	typ := NewEntityType(KindMaterial, "leather")
	typ.Properties = []PropertyAssignment{
		{PropertyID: thickness.ID, DisplayOrder: 3},
		{PropertyID: color.ID, DisplayOrder: 0},
	}
	require.NoError(t, svc.CreateWithProperties(context.Background(), typ))

	stored := repo.types[typ.ID]
	require.Len(t, stored.Properties, 2)
	assert.Equal(t, 3, stored.Properties[0].DisplayOrder)
	assert.Equal(t, 0, stored.Properties[1].DisplayOrder,
		"explicit zero alongside a non-zero order is kept")
}

func TestExportRoundTrip_DisplayOrder(t *testing.T) {
	thickness := propertydef.NewPropertyDefinition("thickness", propertydef.TypeNumber)
	color := propertydef.NewPropertyDefinition("color", propertydef.TypeString)
	lookup := &fakePropertyLookup{defs: map[id.ID]*propertydef.PropertyDefinition{
		thickness.ID: thickness,
		color.ID:     color,
	}}

	typ := NewEntityType(KindMaterial, "leather")
	typ.Properties = []PropertyAssignment{
		{ID: id.New(), EntityTypeID: typ.ID, PropertyID: thickness.ID, PropertyName: "thickness", DisplayOrder: 3},
		{ID: id.New(), EntityTypeID: typ.ID, PropertyID: color.ID, PropertyName: "color", DisplayOrder: 0},
	}

	doc := ToExport(typ)
	require.Len(t, doc.Properties, 2)
	require.NotNil(t, doc.Properties[0].DisplayOrder)
	assert.Equal(t, 3, *doc.Properties[0].DisplayOrder)
	require.NotNil(t, doc.Properties[1].DisplayOrder)
	assert.Equal(t, 0, *doc.Properties[1].DisplayOrder)

	restored, err := FromExport(context.Background(), KindMaterial, doc, lookup)
	require.NoError(t, err)
	require.Len(t, restored.Properties, 2)
	assert.Equal(t, 3, restored.Properties[0].DisplayOrder)
	assert.Equal(t, 0, restored.Properties[1].DisplayOrder)
}

func TestFromExport_DefaultsAbsentDisplayOrder(t *testing.T) {
	thickness := propertydef.NewPropertyDefinition("thickness", propertydef.TypeNumber)
	color := propertydef.NewPropertyDefinition("color", propertydef.TypeString)
	lookup := &fakePropertyLookup{defs: map[id.ID]*propertydef.PropertyDefinition{
		thickness.ID: thickness,
		color.ID:     color,
	}}

	doc := presetdoc.MaterialTypeDoc{
		Name: "leather",
		Properties: []presetdoc.TypePropertyDoc{
			{PropertyName: "thickness"},
			{PropertyName: "color"},
		},
	}

	restored, err := FromExport(context.Background(), KindMaterial, doc, lookup)
	require.NoError(t, err)
	require.Len(t, restored.Properties, 2)
	assert.Equal(t, 0, restored.Properties[0].DisplayOrder)
	assert.Equal(t, 1, restored.Properties[1].DisplayOrder)
}

func TestList_TierVisibility(t *testing.T) {
	svc, repo := newTypeService(nil, nil)

	visible := NewEntityType(KindMaterial, "leather")
	professional := NewEntityType(KindMaterial, "exotic_leather")
	professional.VisibilityLevel = "professional"
	repo.types[visible.ID] = visible
	repo.types[professional.ID] = professional

	t.Run("basic tier", func(t *testing.T) {
		result, err := svc.List(tierContext("basic"), ListFilter{ListFilter: domain.DefaultListFilter(), Kind: KindMaterial})
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "leather", result.Items[0].Name)
	})

	t.Run("professional tier", func(t *testing.T) {
		result, err := svc.List(tierContext("professional"), ListFilter{ListFilter: domain.DefaultListFilter(), Kind: KindMaterial})
		require.NoError(t, err)
		assert.Len(t, result.Items, 2)
	})

	t.Run("no user sees everything", func(t *testing.T) {
		result, err := svc.List(context.Background(), ListFilter{ListFilter: domain.DefaultListFilter(), Kind: KindMaterial})
		require.NoError(t, err)
		assert.Len(t, result.Items, 2)
	})
}

func TestUpdateWithProperties_SystemRestrictions(t *testing.T) {
	svc, repo := newTypeService(nil, nil)
	ctx := context.Background()

	system := NewEntityType(KindMaterial, "leather")
	system.IsSystem = true
	repo.types[system.ID] = system

	newName := "hide"
	_, err := svc.UpdateWithProperties(ctx, system.ID, UpdateInput{Name: &newName})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSystemEntity, appErr.Code)

	updated, err := svc.UpdateWithProperties(ctx, system.ID, UpdateInput{
		Translations: []Translation{{Locale: "de", DisplayName: "Leder"}},
	})
	require.NoError(t, err, "translations stay editable on system types")
	require.Len(t, updated.Translations, 1)
	assert.Equal(t, "Leder", updated.Translations[0].DisplayName)
}

func TestUpdateWithProperties_MergesTranslationsByLocale(t *testing.T) {
	svc, repo := newTypeService(nil, nil)
	ctx := context.Background()

	typ := NewEntityType(KindMaterial, "leather")
	typ.Translations = []Translation{
		{ID: id.New(), EntityTypeID: typ.ID, Locale: "en", DisplayName: "Leather"},
	}
	repo.types[typ.ID] = typ

	updated, err := svc.UpdateWithProperties(ctx, typ.ID, UpdateInput{
		Translations: []Translation{
			{Locale: "en", DisplayName: "Premium Leather"},
			{Locale: "de", DisplayName: "Leder"},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Translations, 2)
	assert.Equal(t, "Premium Leather", updated.Translations[0].DisplayName)
}

func TestDelete_Guards(t *testing.T) {
	svc, repo := newTypeService(nil, nil)
	ctx := context.Background()

	t.Run("system type", func(t *testing.T) {
		system := NewEntityType(KindMaterial, "leather")
		system.IsSystem = true
		repo.types[system.ID] = system

		err := svc.Delete(ctx, system.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsConflict(err))
	})

	t.Run("live instances", func(t *testing.T) {
		typ := NewEntityType(KindMaterial, "hardware")
		repo.types[typ.ID] = typ
		svc.RegisterInstanceCounter(KindMaterial, &fakeCounter{count: 3})

		err := svc.Delete(ctx, typ.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsConflict(err))
	})

	t.Run("deletable", func(t *testing.T) {
		typ := NewEntityType(KindStorageLocation, "shelf")
		repo.types[typ.ID] = typ
		svc.RegisterInstanceCounter(KindStorageLocation, &fakeCounter{count: 0})

		require.NoError(t, svc.Delete(ctx, typ.ID))
		_, err := svc.GetByID(ctx, typ.ID)
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestWrites_InvalidateCache(t *testing.T) {
	cache := &recordingCache{}
	svc, _ := newTypeService(nil, cache)
	ctx := context.Background()

	typ := NewEntityType(KindMaterial, "leather")
	require.NoError(t, svc.CreateWithProperties(ctx, typ))
	require.NotEmpty(t, cache.invalidated)
	assert.Equal(t, "material_types:*", cache.invalidated[0])

	require.NoError(t, svc.Delete(ctx, typ.ID))
	assert.Len(t, cache.invalidated, 2)
}

func TestGetByID_ResolvesPropertyNames(t *testing.T) {
	thickness := propertydef.NewPropertyDefinition("thickness", propertydef.TypeNumber)
	lookup := &fakePropertyLookup{defs: map[id.ID]*propertydef.PropertyDefinition{
		thickness.ID: thickness,
	}}
	svc, repo := newTypeService(lookup, nil)

	typ := NewEntityType(KindMaterial, "leather")
	typ.Properties = []PropertyAssignment{
		{ID: id.New(), EntityTypeID: typ.ID, PropertyID: thickness.ID},
	}
	repo.types[typ.ID] = typ

	loaded, err := svc.GetByID(context.Background(), typ.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Properties, 1)
	assert.Equal(t, "thickness", loaded.Properties[0].PropertyName)
}
