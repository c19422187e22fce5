package material

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
	"hidesync/internal/domain"
	"hidesync/internal/domain/propvalue"
	"hidesync/internal/domain/schema/propertydef"
)

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type slotKey struct {
	materialID id.ID
	propertyID id.ID
}

type fakeRepo struct {
	materials map[id.ID]*Material
	slots     map[slotKey]*propvalue.Slot
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		materials: make(map[id.ID]*Material),
		slots:     make(map[slotKey]*propvalue.Slot),
	}
}

func (r *fakeRepo) Create(ctx context.Context, m *Material) error {
	r.materials[m.ID] = m
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, materialID id.ID) (*Material, error) {
	m, ok := r.materials[materialID]
	if !ok {
		return nil, apperror.NewNotFound("material", materialID.String())
	}
	loaded := *m
	loaded.Values = nil
	for key, slot := range r.slots {
		if key.materialID == materialID {
			loaded.Values = append(loaded.Values, *slot)
		}
	}
	return &loaded, nil
}

func (r *fakeRepo) GetByName(ctx context.Context, typeID id.ID, name string) (*Material, error) {
	for _, m := range r.materials {
		if m.EntityTypeID == typeID && m.Name == name {
			return m, nil
		}
	}
	return nil, apperror.NewNotFound("material", name)
}

func (r *fakeRepo) Update(ctx context.Context, m *Material) error {
	if _, ok := r.materials[m.ID]; !ok {
		return apperror.NewNotFound("material", m.ID.String())
	}
	r.materials[m.ID] = m
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, materialID id.ID) error {
	delete(r.materials, materialID)
	for key := range r.slots {
		if key.materialID == materialID {
			delete(r.slots, key)
		}
	}
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Material], error) {
	var items []*Material
	for _, m := range r.materials {
		if filter.EntityTypeID != nil && m.EntityTypeID != *filter.EntityTypeID {
			continue
		}
		if filter.Status != "" && m.Status != filter.Status {
			continue
		}
		items = append(items, m)
	}
	return domain.ListResult[*Material]{Items: items, TotalCount: int64(len(items))}, nil
}

func (r *fakeRepo) CountByType(ctx context.Context, typeID id.ID) (int64, error) {
	var n int64
	for _, m := range r.materials {
		if m.EntityTypeID == typeID {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) GetSlot(ctx context.Context, materialID, propertyID id.ID) (*propvalue.Slot, error) {
	if slot, ok := r.slots[slotKey{materialID, propertyID}]; ok {
		return slot, nil
	}
	return nil, apperror.NewNotFound("property value", propertyID.String())
}

func (r *fakeRepo) SaveSlot(ctx context.Context, slot *propvalue.Slot) error {
	r.slots[slotKey{slot.EntityID, slot.PropertyID}] = slot
	return nil
}

func (r *fakeRepo) DeleteSlot(ctx context.Context, materialID, propertyID id.ID) error {
	key := slotKey{materialID, propertyID}
	if _, ok := r.slots[key]; !ok {
		return apperror.NewNotFound("property value", propertyID.String())
	}
	delete(r.slots, key)
	return nil
}

// fakeSchema serves definitions from a map and validates through the real
// rule checker, the same one the property definition service wires in.
type fakeSchema struct {
	defs      map[id.ID]*propertydef.PropertyDefinition
	validator *propertydef.Validator
}

func newFakeSchema(t *testing.T, defs ...*propertydef.PropertyDefinition) *fakeSchema {
	t.Helper()
	v, err := propertydef.NewValidator(nil)
	require.NoError(t, err)
	s := &fakeSchema{defs: make(map[id.ID]*propertydef.PropertyDefinition), validator: v}
	for _, d := range defs {
		s.defs[d.ID] = d
	}
	return s
}

func (s *fakeSchema) GetByID(ctx context.Context, defID id.ID) (*propertydef.PropertyDefinition, error) {
	if d, ok := s.defs[defID]; ok {
		return d, nil
	}
	return nil, apperror.NewNotFound("property definition", defID.String())
}

func (s *fakeSchema) CheckValue(ctx context.Context, def *propertydef.PropertyDefinition, value any) error {
	return s.validator.Check(ctx, def, value)
}

func newTestService(t *testing.T, defs ...*propertydef.PropertyDefinition) (*Service, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	return NewService(repo, newFakeSchema(t, defs...), nil, noopTxManager{}), repo
}

func TestCreateWithProperties(t *testing.T) {
	ctx := context.Background()
	thickness := propertydef.NewPropertyDefinition("thickness", propertydef.TypeNumber)
	svc, repo := newTestService(t, thickness)

	m := NewMaterial(id.New(), "Veg Tan Side", "sq_ft")
	m.Quantity = decimal.NewFromInt(2)

	err := svc.CreateWithProperties(ctx, m, []PropertyInput{
		{PropertyID: thickness.ID, Value: 2.5},
	})
	require.NoError(t, err)

	require.Len(t, m.Values, 1)
	slot := m.Values[0]
	assert.Equal(t, m.ID, slot.EntityID)
	assert.Equal(t, 1, slot.PopulatedCount())
	require.NotNil(t, slot.ValueNumber)
	assert.True(t, slot.ValueNumber.Equal(decimal.NewFromFloat(2.5)))

	assert.Contains(t, repo.materials, m.ID)
	assert.Len(t, repo.slots, 1)
}

func TestCreateWithProperties_RejectsBeforeWrite(t *testing.T) {
	ctx := context.Background()
	thickness := propertydef.NewPropertyDefinition("thickness", propertydef.TypeNumber)
	svc, repo := newTestService(t, thickness)

	t.Run("missing required fields", func(t *testing.T) {
		err := svc.CreateWithProperties(ctx, &Material{}, nil)
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("duplicate property", func(t *testing.T) {
		m := NewMaterial(id.New(), "Veg Tan Side", "sq_ft")
		err := svc.CreateWithProperties(ctx, m, []PropertyInput{
			{PropertyID: thickness.ID, Value: 1.0},
			{PropertyID: thickness.ID, Value: 2.0},
		})
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("type mismatch", func(t *testing.T) {
		m := NewMaterial(id.New(), "Veg Tan Side", "sq_ft")
		err := svc.CreateWithProperties(ctx, m, []PropertyInput{
			{PropertyID: thickness.ID, Value: "thick"},
		})
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("unknown property", func(t *testing.T) {
		m := NewMaterial(id.New(), "Veg Tan Side", "sq_ft")
		err := svc.CreateWithProperties(ctx, m, []PropertyInput{
			{PropertyID: id.New(), Value: 1.0},
		})
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})

	assert.Empty(t, repo.materials, "nothing persisted on rejected input")
	assert.Empty(t, repo.slots)
}

func TestCreateWithProperties_NilValueSkipsSlot(t *testing.T) {
	ctx := context.Background()
	notes := propertydef.NewPropertyDefinition("tanning_notes", propertydef.TypeString)
	svc, repo := newTestService(t, notes)

	m := NewMaterial(id.New(), "Veg Tan Side", "sq_ft")
	err := svc.CreateWithProperties(ctx, m, []PropertyInput{
		{PropertyID: notes.ID, Value: nil},
	})
	require.NoError(t, err)
	assert.Empty(t, repo.slots, "nil values produce no slot")
}

func TestUpdateWithProperties_SlotLifecycle(t *testing.T) {
	ctx := context.Background()
	thickness := propertydef.NewPropertyDefinition("thickness", propertydef.TypeNumber)
	color := propertydef.NewPropertyDefinition("color", propertydef.TypeString)
	svc, _ := newTestService(t, thickness, color)

	m := NewMaterial(id.New(), "Veg Tan Side", "sq_ft")
	require.NoError(t, svc.CreateWithProperties(ctx, m, []PropertyInput{
		{PropertyID: thickness.ID, Value: 2.5},
	}))

	t.Run("reassign existing slot", func(t *testing.T) {
		updated, err := svc.UpdateWithProperties(ctx, m.ID, UpdateInput{
			Properties: []PropertyInput{{PropertyID: thickness.ID, Value: 3.0}},
		})
		require.NoError(t, err)
		require.Len(t, updated.Values, 1)
		assert.Equal(t, 1, updated.Values[0].PopulatedCount())
		assert.True(t, updated.Values[0].ValueNumber.Equal(decimal.NewFromFloat(3.0)))
	})

	t.Run("insert missing slot", func(t *testing.T) {
		updated, err := svc.UpdateWithProperties(ctx, m.ID, UpdateInput{
			Properties: []PropertyInput{{PropertyID: color.ID, Value: "saddle brown"}},
		})
		require.NoError(t, err)
		assert.Len(t, updated.Values, 2)
	})

	t.Run("nil value deletes slot", func(t *testing.T) {
		updated, err := svc.UpdateWithProperties(ctx, m.ID, UpdateInput{
			Properties: []PropertyInput{{PropertyID: color.ID, Value: nil}},
		})
		require.NoError(t, err)
		assert.Len(t, updated.Values, 1)

		// deleting an already absent slot is not an error
		_, err = svc.UpdateWithProperties(ctx, m.ID, UpdateInput{
			Properties: []PropertyInput{{PropertyID: color.ID, Value: nil}},
		})
		assert.NoError(t, err)
	})
}

func TestUpdateWithProperties_PartialFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	m := NewMaterial(id.New(), "Veg Tan Side", "sq_ft")
	require.NoError(t, svc.CreateWithProperties(ctx, m, nil))

	name := "Chrome Tan Side"
	updated, err := svc.UpdateWithProperties(ctx, m.ID, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Chrome Tan Side", updated.Name)
	assert.Equal(t, "sq_ft", updated.Unit, "untouched fields survive")

	negative := decimal.NewFromInt(-1)
	_, err = svc.UpdateWithProperties(ctx, m.ID, UpdateInput{Quantity: &negative})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestDelete_RemovesSlots(t *testing.T) {
	ctx := context.Background()
	thickness := propertydef.NewPropertyDefinition("thickness", propertydef.TypeNumber)
	svc, repo := newTestService(t, thickness)

	m := NewMaterial(id.New(), "Veg Tan Side", "sq_ft")
	require.NoError(t, svc.CreateWithProperties(ctx, m, []PropertyInput{
		{PropertyID: thickness.ID, Value: 2.5},
	}))

	require.NoError(t, svc.Delete(ctx, m.ID))
	_, err := svc.GetByID(ctx, m.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, repo.slots)
}
