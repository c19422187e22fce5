package preset

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
	"hidesync/internal/domain"
	"hidesync/internal/domain/material"
	"hidesync/internal/domain/presetdoc"
	"hidesync/internal/domain/propvalue"
	"hidesync/internal/domain/schema/entitytype"
	"hidesync/internal/domain/schema/propertydef"
	"hidesync/internal/domain/settings"
)

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakePresetRepo struct {
	presets      map[id.ID]*Preset
	applications map[id.ID]*Application
	errorRows    []ApplicationError
	applied      int
}

func newFakePresetRepo() *fakePresetRepo {
	return &fakePresetRepo{
		presets:      make(map[id.ID]*Preset),
		applications: make(map[id.ID]*Application),
	}
}

func (r *fakePresetRepo) Create(ctx context.Context, p *Preset) error {
	r.presets[p.ID] = p
	return nil
}

func (r *fakePresetRepo) GetByID(ctx context.Context, presetID id.ID) (*Preset, error) {
	if p, ok := r.presets[presetID]; ok {
		return p, nil
	}
	return nil, apperror.NewNotFound("preset", presetID.String())
}

func (r *fakePresetRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Preset], error) {
	var items []*Preset
	for _, p := range r.presets {
		items = append(items, p)
	}
	return domain.ListResult[*Preset]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *fakePresetRepo) Delete(ctx context.Context, presetID id.ID) error {
	delete(r.presets, presetID)
	return nil
}

func (r *fakePresetRepo) RecordApplied(ctx context.Context, presetID id.ID, appliedAt time.Time) error {
	r.applied++
	return nil
}

func (r *fakePresetRepo) CreateApplication(ctx context.Context, app *Application) error {
	r.applications[app.ID] = app
	return nil
}

func (r *fakePresetRepo) UpdateApplication(ctx context.Context, app *Application) error {
	r.applications[app.ID] = app
	return nil
}

func (r *fakePresetRepo) CreateApplicationError(ctx context.Context, e *ApplicationError) error {
	r.errorRows = append(r.errorRows, *e)
	return nil
}

func (r *fakePresetRepo) ListApplicationErrors(ctx context.Context, applicationID id.ID) ([]ApplicationError, error) {
	var out []ApplicationError
	for _, e := range r.errorRows {
		if e.ApplicationID == applicationID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakePropStore struct {
	defs    map[id.ID]*propertydef.PropertyDefinition
	updated []id.ID
}

func newFakePropStore() *fakePropStore {
	return &fakePropStore{defs: make(map[id.ID]*propertydef.PropertyDefinition)}
}

func (s *fakePropStore) GetByID(ctx context.Context, defID id.ID) (*propertydef.PropertyDefinition, error) {
	if d, ok := s.defs[defID]; ok {
		return d, nil
	}
	return nil, apperror.NewNotFound("property definition", defID.String())
}

func (s *fakePropStore) GetByName(ctx context.Context, name string) (*propertydef.PropertyDefinition, error) {
	for _, d := range s.defs {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, apperror.NewNotFound("property definition", name)
}

func (s *fakePropStore) Create(ctx context.Context, def *propertydef.PropertyDefinition) error {
	s.defs[def.ID] = def
	return nil
}

func (s *fakePropStore) Update(ctx context.Context, defID id.ID, in propertydef.UpdateInput) (*propertydef.PropertyDefinition, error) {
	d, ok := s.defs[defID]
	if !ok {
		return nil, apperror.NewNotFound("property definition", defID.String())
	}
	s.updated = append(s.updated, defID)
	return d, nil
}

func (s *fakePropStore) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*propertydef.PropertyDefinition], error) {
	var items []*propertydef.PropertyDefinition
	for _, d := range s.defs {
		items = append(items, d)
	}
	return domain.ListResult[*propertydef.PropertyDefinition]{Items: items, TotalCount: int64(len(items))}, nil
}

type fakeTypeStore struct {
	types   map[id.ID]*entitytype.EntityType
	updated []id.ID
}

func newFakeTypeStore() *fakeTypeStore {
	return &fakeTypeStore{types: make(map[id.ID]*entitytype.EntityType)}
}

func (s *fakeTypeStore) GetByID(ctx context.Context, typeID id.ID) (*entitytype.EntityType, error) {
	if t, ok := s.types[typeID]; ok {
		return t, nil
	}
	return nil, apperror.NewNotFound("entity type", typeID.String())
}

func (s *fakeTypeStore) GetByName(ctx context.Context, kind entitytype.Kind, name string) (*entitytype.EntityType, error) {
	for _, t := range s.types {
		if t.Kind == kind && t.Name == name {
			return t, nil
		}
	}
	return nil, apperror.NewNotFound("entity type", name)
}

func (s *fakeTypeStore) CreateWithProperties(ctx context.Context, t *entitytype.EntityType) error {
	s.types[t.ID] = t
	return nil
}

func (s *fakeTypeStore) UpdateWithProperties(ctx context.Context, typeID id.ID, in entitytype.UpdateInput) (*entitytype.EntityType, error) {
	t, ok := s.types[typeID]
	if !ok {
		return nil, apperror.NewNotFound("entity type", typeID.String())
	}
	s.updated = append(s.updated, typeID)
	return t, nil
}

type createdMaterial struct {
	m     *material.Material
	props []material.PropertyInput
}

type fakeMaterialStore struct {
	created []createdMaterial
}

func (s *fakeMaterialStore) GetByName(ctx context.Context, typeID id.ID, name string) (*material.Material, error) {
	for _, c := range s.created {
		if c.m.EntityTypeID == typeID && c.m.Name == name {
			return c.m, nil
		}
	}
	return nil, apperror.NewNotFound("material", name)
}

func (s *fakeMaterialStore) CreateWithProperties(ctx context.Context, m *material.Material, props []material.PropertyInput) error {
	s.created = append(s.created, createdMaterial{m: m, props: props})
	return nil
}

func (s *fakeMaterialStore) List(ctx context.Context, filter material.ListFilter) (domain.ListResult[*material.Material], error) {
	var items []*material.Material
	for _, c := range s.created {
		if filter.EntityTypeID != nil && c.m.EntityTypeID != *filter.EntityTypeID {
			continue
		}
		if filter.Limit > 0 && len(items) >= filter.Limit {
			break
		}
		items = append(items, c.m)
	}
	return domain.ListResult[*material.Material]{Items: items, TotalCount: int64(len(items))}, nil
}

type fakeSettingsStore struct {
	entries []settings.Setting
}

func (s *fakeSettingsStore) Set(ctx context.Context, key string, scopeType settings.ScopeType, scopeID string, value any) error {
	for i, e := range s.entries {
		if e.Key == key && e.ScopeType == scopeType && e.ScopeID == scopeID {
			s.entries[i].Value = value
			return nil
		}
	}
	s.entries = append(s.entries, settings.Setting{
		ID:        id.New(),
		Key:       key,
		ScopeType: scopeType,
		ScopeID:   scopeID,
		Value:     value,
	})
	return nil
}

func (s *fakeSettingsStore) ListScope(ctx context.Context, scopeType settings.ScopeType, scopeID string) ([]settings.Setting, error) {
	var out []settings.Setting
	for _, e := range s.entries {
		if e.ScopeType == scopeType && e.ScopeID == scopeID {
			out = append(out, e)
		}
	}
	return out, nil
}

type recordedEvent struct {
	eventType string
	payload   any
}

type fakeSink struct {
	events []recordedEvent
}

func (s *fakeSink) Publish(ctx context.Context, eventType string, payload any) error {
	s.events = append(s.events, recordedEvent{eventType: eventType, payload: payload})
	return nil
}

type fixture struct {
	svc       *Service
	repo      *fakePresetRepo
	props     *fakePropStore
	types     *fakeTypeStore
	materials *fakeMaterialStore
	settings  *fakeSettingsStore
	sink      *fakeSink
}

func newFixture() *fixture {
	f := &fixture{
		repo:      newFakePresetRepo(),
		props:     newFakePropStore(),
		types:     newFakeTypeStore(),
		materials: &fakeMaterialStore{},
		settings:  &fakeSettingsStore{},
		sink:      &fakeSink{},
	}
	f.svc = NewService(f.repo, f.props, f.types, f.materials, f.settings, f.sink, noopTxManager{})
	return f
}

func mustConfig(t *testing.T, doc presetdoc.Document) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return raw
}

func (f *fixture) storePreset(t *testing.T, doc presetdoc.Document) *Preset {
	t.Helper()
	p := &Preset{Name: "starter kit", Config: mustConfig(t, doc)}
	require.NoError(t, f.svc.Create(context.Background(), p))
	return p
}

func TestCreate_ValidatesConfig(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	t.Run("name required", func(t *testing.T) {
		err := f.svc.Create(ctx, &Preset{Config: json.RawMessage(`{}`)})
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("config must be JSON", func(t *testing.T) {
		err := f.svc.Create(ctx, &Preset{Name: "broken", Config: json.RawMessage(`{not json`)})
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("structural validation before write", func(t *testing.T) {
		doc := presetdoc.Document{
			PropertyDefinitions: []presetdoc.PropertyDefinitionDoc{{Name: "thickness"}}, // no data_type
		}
		err := f.svc.Create(ctx, &Preset{Name: "broken", Config: mustConfig(t, doc)})
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
		assert.Empty(t, f.repo.presets, "nothing persisted on invalid config")
	})
}

func TestApply_PartialFailureStillCommits(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := id.New()

	leather := entitytype.NewEntityType(entitytype.KindMaterial, "leather")
	f.types.types[leather.ID] = leather

	doc := presetdoc.Document{
		SampleMaterials: []presetdoc.SampleMaterialDoc{
			{MaterialType: "leather", Name: "Veg Tan Side", Quantity: decimal.NewFromInt(2), Unit: "sq_ft"},
			{MaterialType: "leather", Name: "Chrome Tan Side", Quantity: decimal.NewFromInt(1), Unit: "sq_ft"},
			{MaterialType: "unobtainium", Name: "Mystery Hide", Quantity: decimal.NewFromInt(1), Unit: "sq_ft"},
		},
	}
	p := f.storePreset(t, doc)

	result, err := f.svc.Apply(ctx, p.ID, userID, DefaultApplyOptions())
	require.NoError(t, err, "per-item failures must not abort the apply")

	assert.Equal(t, 2, result.CreatedMaterials)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unobtainium")
	assert.Contains(t, result.Errors[0], "Mystery Hide")

	require.Len(t, f.repo.errorRows, 1)
	row := f.repo.errorRows[0]
	assert.Equal(t, ErrorTypeMaterial, row.ErrorType)
	assert.Equal(t, result.ApplicationID, row.ApplicationID)
	assert.Equal(t, "Mystery Hide", row.EntityName)

	assert.Equal(t, 1, f.repo.applied, "applied counter bumped despite errors")
	app, ok := f.repo.applications[result.ApplicationID]
	require.True(t, ok)
	assert.Equal(t, 2, app.CreatedMaterials)
	assert.Equal(t, 1, app.ErrorCount)
}

func TestApply_CreatesPropertiesAndTypes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc := presetdoc.Document{
		PropertyDefinitions: []presetdoc.PropertyDefinitionDoc{
			{Name: "thickness", DataType: "number", Unit: "mm"},
		},
		MaterialTypes: []presetdoc.MaterialTypeDoc{
			{Name: "leather", Properties: []presetdoc.TypePropertyDoc{{PropertyName: "thickness"}}},
		},
	}
	p := f.storePreset(t, doc)

	result, err := f.svc.Apply(ctx, p.ID, id.New(), DefaultApplyOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, result.CreatedPropertyDefinitions)
	assert.Equal(t, 1, result.CreatedMaterialTypes)
	assert.Equal(t, 0, result.ErrorCount)

	created, err := f.types.GetByName(ctx, entitytype.KindMaterial, "leather")
	require.NoError(t, err)
	require.Len(t, created.Properties, 1)

	def, err := f.props.GetByName(ctx, "thickness")
	require.NoError(t, err)
	assert.Equal(t, created.Properties[0].PropertyID, def.ID,
		"type assignment resolves the freshly created property")
}

func TestApply_ConflictResolution(t *testing.T) {
	ctx := context.Background()

	doc := presetdoc.Document{
		PropertyDefinitions: []presetdoc.PropertyDefinitionDoc{
			{Name: "thickness", DataType: "number"},
		},
		MaterialTypes: []presetdoc.MaterialTypeDoc{{Name: "leather"}},
	}

	seed := func(f *fixture) {
		def := propertydef.NewPropertyDefinition("thickness", propertydef.TypeNumber)
		f.props.defs[def.ID] = def
		typ := entitytype.NewEntityType(entitytype.KindMaterial, "leather")
		f.types.types[typ.ID] = typ
	}

	t.Run("skip leaves existing untouched", func(t *testing.T) {
		f := newFixture()
		seed(f)
		p := f.storePreset(t, doc)

		opts := DefaultApplyOptions()
		result, err := f.svc.Apply(ctx, p.ID, id.New(), opts)
		require.NoError(t, err)

		assert.Zero(t, result.CreatedPropertyDefinitions)
		assert.Zero(t, result.UpdatedPropertyDefinitions)
		assert.Zero(t, result.CreatedMaterialTypes)
		assert.Zero(t, result.UpdatedMaterialTypes)
		assert.Empty(t, f.props.updated)
	})

	t.Run("overwrite updates in place", func(t *testing.T) {
		f := newFixture()
		seed(f)
		p := f.storePreset(t, doc)

		opts := DefaultApplyOptions()
		opts.ConflictResolution = ResolveOverwrite
		result, err := f.svc.Apply(ctx, p.ID, id.New(), opts)
		require.NoError(t, err)

		assert.Equal(t, 1, result.UpdatedPropertyDefinitions)
		assert.Equal(t, 1, result.UpdatedMaterialTypes)
		assert.Len(t, f.props.updated, 1)
		assert.Len(t, f.types.updated, 1)
	})

	t.Run("rename creates a suffixed copy", func(t *testing.T) {
		f := newFixture()
		seed(f)
		p := f.storePreset(t, doc)

		opts := DefaultApplyOptions()
		opts.ConflictResolution = ResolveRename
		result, err := f.svc.Apply(ctx, p.ID, id.New(), opts)
		require.NoError(t, err)

		assert.Equal(t, 1, result.CreatedPropertyDefinitions)
		assert.Equal(t, 1, result.CreatedMaterialTypes)

		suffixed := regexp.MustCompile(`^thickness_[0-9a-f]{8}$`)
		var found bool
		for _, d := range f.props.defs {
			if suffixed.MatchString(d.Name) {
				found = true
			}
		}
		assert.True(t, found, "renamed property carries an 8 hex char suffix")
	})

	t.Run("unknown policy rejected", func(t *testing.T) {
		f := newFixture()
		p := f.storePreset(t, doc)

		opts := DefaultApplyOptions()
		opts.ConflictResolution = ConflictResolution("merge")
		_, err := f.svc.Apply(ctx, p.ID, id.New(), opts)
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})
}

func TestApply_TypeIncludeFilter(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	doc := presetdoc.Document{
		MaterialTypes: []presetdoc.MaterialTypeDoc{
			{Name: "leather"},
			{Name: "hardware"},
		},
	}
	p := f.storePreset(t, doc)

	opts := DefaultApplyOptions()
	opts.MaterialTypesToInclude = []string{"hardware"}
	result, err := f.svc.Apply(ctx, p.ID, id.New(), opts)
	require.NoError(t, err)

	assert.Equal(t, 1, result.CreatedMaterialTypes)
	_, err = f.types.GetByName(ctx, entitytype.KindMaterial, "leather")
	assert.True(t, apperror.IsNotFound(err), "excluded type is not created")
}

func TestApply_SampleConflicts(t *testing.T) {
	ctx := context.Background()

	doc := presetdoc.Document{
		SampleMaterials: []presetdoc.SampleMaterialDoc{
			{MaterialType: "leather", Name: "Veg Tan Side", Quantity: decimal.NewFromInt(1), Unit: "sq_ft"},
		},
	}

	seed := func(f *fixture) {
		typ := entitytype.NewEntityType(entitytype.KindMaterial, "leather")
		f.types.types[typ.ID] = typ
		f.materials.created = append(f.materials.created, createdMaterial{
			m: material.NewMaterial(typ.ID, "Veg Tan Side", "sq_ft"),
		})
	}

	t.Run("overwrite is a no-op for samples", func(t *testing.T) {
		f := newFixture()
		seed(f)
		p := f.storePreset(t, doc)

		opts := DefaultApplyOptions()
		opts.ConflictResolution = ResolveOverwrite
		result, err := f.svc.Apply(ctx, p.ID, id.New(), opts)
		require.NoError(t, err)

		assert.Zero(t, result.CreatedMaterials)
		assert.Len(t, f.materials.created, 1, "only the pre-existing material remains")
	})

	t.Run("rename appends sample suffix", func(t *testing.T) {
		f := newFixture()
		seed(f)
		p := f.storePreset(t, doc)

		opts := DefaultApplyOptions()
		opts.ConflictResolution = ResolveRename
		result, err := f.svc.Apply(ctx, p.ID, id.New(), opts)
		require.NoError(t, err)

		assert.Equal(t, 1, result.CreatedMaterials)
		require.Len(t, f.materials.created, 2)
		assert.Equal(t, "Veg Tan Side (Sample)", f.materials.created[1].m.Name)
	})
}

func TestApply_UnresolvedSamplePropertySkipped(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	typ := entitytype.NewEntityType(entitytype.KindMaterial, "leather")
	f.types.types[typ.ID] = typ
	thickness := propertydef.NewPropertyDefinition("thickness", propertydef.TypeNumber)
	f.props.defs[thickness.ID] = thickness

	doc := presetdoc.Document{
		SampleMaterials: []presetdoc.SampleMaterialDoc{
			{
				MaterialType: "leather",
				Name:         "Veg Tan Side",
				Quantity:     decimal.NewFromInt(1),
				Unit:         "sq_ft",
				Properties: map[string]any{
					"thickness": 2.5,
					"tannery":   "unknown prop",
				},
			},
		},
	}
	p := f.storePreset(t, doc)

	result, err := f.svc.Apply(ctx, p.ID, id.New(), DefaultApplyOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, result.CreatedMaterials)
	assert.Zero(t, result.ErrorCount, "unresolved names are not errors")
	require.Len(t, f.materials.created, 1)
	require.Len(t, f.materials.created[0].props, 1)
	assert.Equal(t, thickness.ID, f.materials.created[0].props[0].PropertyID)
}

func TestApply_SettingsAndTheme(t *testing.T) {
	ctx := context.Background()
	userID := id.New()

	doc := presetdoc.Document{
		Settings: map[string]any{"currency": "USD"},
		Theme:    map[string]any{"mode": "dark"},
	}

	t.Run("theme skipped by default", func(t *testing.T) {
		f := newFixture()
		p := f.storePreset(t, doc)

		result, err := f.svc.Apply(ctx, p.ID, userID, DefaultApplyOptions())
		require.NoError(t, err)

		assert.Equal(t, 1, result.AppliedSettings)
		require.Len(t, f.settings.entries, 1)
		assert.Equal(t, "currency", f.settings.entries[0].Key)
		assert.Equal(t, settings.ScopeUser, f.settings.entries[0].ScopeType)
		assert.Equal(t, userID.String(), f.settings.entries[0].ScopeID)
	})

	t.Run("zero-value theme handling skips theme", func(t *testing.T) {
		f := newFixture()
		p := f.storePreset(t, doc)

		result, err := f.svc.Apply(ctx, p.ID, userID, ApplyOptions{IncludeSettings: true})
		require.NoError(t, err)

		assert.Equal(t, 1, result.AppliedSettings)
		require.Len(t, f.settings.entries, 1)
		assert.Equal(t, "currency", f.settings.entries[0].Key)
	})

	t.Run("theme applied on overwrite", func(t *testing.T) {
		f := newFixture()
		p := f.storePreset(t, doc)

		opts := DefaultApplyOptions()
		opts.ThemeHandling = ResolveOverwrite
		result, err := f.svc.Apply(ctx, p.ID, userID, opts)
		require.NoError(t, err)

		assert.Equal(t, 2, result.AppliedSettings)
		scoped, err := f.settings.ListScope(ctx, settings.ScopeUser, userID.String())
		require.NoError(t, err)
		assert.Len(t, scoped, 2)
	})

	t.Run("settings section disabled", func(t *testing.T) {
		f := newFixture()
		p := f.storePreset(t, doc)

		opts := DefaultApplyOptions()
		opts.IncludeSettings = false
		result, err := f.svc.Apply(ctx, p.ID, userID, opts)
		require.NoError(t, err)

		assert.Zero(t, result.AppliedSettings)
		assert.Empty(t, f.settings.entries)
	})
}

func TestApply_PublishesEvent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.storePreset(t, presetdoc.Document{})
	result, err := f.svc.Apply(ctx, p.ID, id.New(), DefaultApplyOptions())
	require.NoError(t, err)
	require.NotNil(t, result)

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, EventPresetApplied, f.sink.events[0].eventType)

	payload, ok := f.sink.events[0].payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, p.ID.String(), payload["preset_id"])
}

func TestDelete_KeepsApplicationHistory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p := f.storePreset(t, presetdoc.Document{})
	result, err := f.svc.Apply(ctx, p.ID, id.New(), DefaultApplyOptions())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, p.ID))
	_, err = f.svc.GetByID(ctx, p.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.Contains(t, f.repo.applications, result.ApplicationID)
}

func TestGenerateFromSystem_RoundTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	userID := id.New()

	thickness := propertydef.NewPropertyDefinition("thickness", propertydef.TypeNumber)
	f.props.defs[thickness.ID] = thickness

	leather := entitytype.NewEntityType(entitytype.KindMaterial, "leather")
	leather.Properties = []entitytype.PropertyAssignment{
		{ID: id.New(), EntityTypeID: leather.ID, PropertyID: thickness.ID, PropertyName: "thickness"},
	}
	hardware := entitytype.NewEntityType(entitytype.KindMaterial, "hardware")
	hardware.Properties = []entitytype.PropertyAssignment{
		{ID: id.New(), EntityTypeID: hardware.ID, PropertyID: thickness.ID, PropertyName: "thickness"},
	}
	f.types.types[leather.ID] = leather
	f.types.types[hardware.ID] = hardware

	side := material.NewMaterial(leather.ID, "Veg Tan Side", "sq_ft")
	side.Quantity = decimal.NewFromInt(3)
	slot, err := propvalue.New(ctx, side.ID, thickness, 2.5, nil)
	require.NoError(t, err)
	side.Values = []propvalue.Slot{*slot}
	f.materials.created = append(f.materials.created, createdMaterial{m: side})

	require.NoError(t, f.settings.Set(ctx, "currency", settings.ScopeUser, userID.String(), "USD"))
	require.NoError(t, f.settings.Set(ctx, "theme", settings.ScopeUser, userID.String(), map[string]any{"mode": "dark"}))

	doc, err := f.svc.GenerateFromSystem(ctx, []id.ID{leather.ID, hardware.ID}, true, true, userID)
	require.NoError(t, err)

	assert.Equal(t, DocumentVersion, doc.Metadata.Version)
	assert.Equal(t, userID.String(), doc.Metadata.CreatedBy)

	require.Len(t, doc.MaterialTypes, 2)
	assert.Len(t, doc.PropertyDefinitions, 1, "shared property exported once")
	assert.Equal(t, "thickness", doc.PropertyDefinitions[0].Name)

	require.Len(t, doc.SampleMaterials, 1)
	sample := doc.SampleMaterials[0]
	assert.Equal(t, "leather", sample.MaterialType)
	assert.Equal(t, "Veg Tan Side", sample.Name)
	require.Contains(t, sample.Properties, "thickness")

	assert.Equal(t, "USD", doc.Settings["currency"])
	assert.Equal(t, "dark", doc.Theme["mode"])

	t.Run("generated document applies cleanly", func(t *testing.T) {
		raw, err := json.Marshal(doc)
		require.NoError(t, err)
		parsed, err := presetdoc.Parse(raw)
		require.NoError(t, err)
		assert.NoError(t, parsed.Validate())
	})
}

func TestGenerateFromSystem_UnknownType(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GenerateFromSystem(context.Background(), []id.ID{id.New()}, false, false, id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
