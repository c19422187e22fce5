package propvalue

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
	"hidesync/internal/domain/schema/propertydef"
)

type staticResolver struct {
	resolved id.ID
	err      error
}

func (r *staticResolver) ResolveValue(ctx context.Context, enumTypeID id.ID, raw any) (id.ID, error) {
	if r.err != nil {
		return id.Nil(), r.err
	}
	return r.resolved, nil
}

func def(dt propertydef.DataType) *propertydef.PropertyDefinition {
	d := propertydef.NewPropertyDefinition("test_prop", dt)
	return d
}

func TestAssign_OneColumnPerType(t *testing.T) {
	ctx := context.Background()
	entityID := id.New()
	refID := id.New()
	enumOptID := id.New()

	enumDef := def(propertydef.TypeEnum)
	enumDef.EnumOptions = []propertydef.EnumOption{
		{ID: enumOptID, PropertyID: enumDef.ID, Value: "red", DisplayValue: "Red"},
	}

	cases := []struct {
		name  string
		def   *propertydef.PropertyDefinition
		value any
		check func(t *testing.T, s *Slot)
	}{
		{"string", def(propertydef.TypeString), "oak", func(t *testing.T, s *Slot) {
			require.NotNil(t, s.ValueString)
			assert.Equal(t, "oak", *s.ValueString)
		}},
		{"number", def(propertydef.TypeNumber), 2.5, func(t *testing.T, s *Slot) {
			require.NotNil(t, s.ValueNumber)
			assert.True(t, s.ValueNumber.Equal(decimal.NewFromFloat(2.5)))
		}},
		{"boolean", def(propertydef.TypeBoolean), true, func(t *testing.T, s *Slot) {
			require.NotNil(t, s.ValueBoolean)
			assert.True(t, *s.ValueBoolean)
		}},
		{"date", def(propertydef.TypeDate), "2026-03-01", func(t *testing.T, s *Slot) {
			require.NotNil(t, s.ValueDate)
			assert.Equal(t, 2026, s.ValueDate.Year())
		}},
		{"enum", enumDef, "red", func(t *testing.T, s *Slot) {
			require.NotNil(t, s.ValueEnumID)
			assert.Equal(t, enumOptID, *s.ValueEnumID)
		}},
		{"file", def(propertydef.TypeFile), "uploads/care-guide.pdf", func(t *testing.T, s *Slot) {
			require.NotNil(t, s.ValueFileID)
			assert.Equal(t, "uploads/care-guide.pdf", *s.ValueFileID)
		}},
		{"reference", def(propertydef.TypeReference), refID.String(), func(t *testing.T, s *Slot) {
			require.NotNil(t, s.ValueReferenceID)
			assert.Equal(t, refID, *s.ValueReferenceID)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := New(ctx, entityID, tc.def, tc.value, nil)
			require.NoError(t, err)

			assert.Equal(t, 1, s.PopulatedCount(), "exactly one column must be set")
			tc.check(t, s)
		})
	}
}

func TestAssign_ResetsPreviousColumn(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, id.New(), def(propertydef.TypeString), "walnut", nil)
	require.NoError(t, err)
	require.NotNil(t, s.ValueString)

	err = s.Assign(ctx, def(propertydef.TypeNumber), 7, nil)
	require.NoError(t, err)

	assert.Nil(t, s.ValueString, "previous column must be cleared")
	require.NotNil(t, s.ValueNumber)
	assert.Equal(t, 1, s.PopulatedCount())
}

func TestAssign_NilValueEmptiesSlot(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, id.New(), def(propertydef.TypeNumber), 42, nil)
	require.NoError(t, err)
	require.False(t, s.IsEmpty())

	require.NoError(t, s.Assign(ctx, def(propertydef.TypeNumber), nil, nil))
	assert.True(t, s.IsEmpty())
}

func TestAssign_TypeMismatch(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name  string
		def   *propertydef.PropertyDefinition
		value any
	}{
		{"string gets number", def(propertydef.TypeString), 12},
		{"number gets string", def(propertydef.TypeNumber), "not a number"},
		{"boolean gets string", def(propertydef.TypeBoolean), "yes"},
		{"date gets garbage", def(propertydef.TypeDate), "someday"},
		{"reference gets non-uuid", def(propertydef.TypeReference), "42"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(ctx, id.New(), tc.def, tc.value, nil)
			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err))
		})
	}
}

func TestAssign_BoundEnumUsesResolver(t *testing.T) {
	ctx := context.Background()
	enumTypeID := id.New()
	memberID := id.New()

	d := def(propertydef.TypeEnum)
	d.EnumTypeID = &enumTypeID

	s, err := New(ctx, id.New(), d, "full_grain", &staticResolver{resolved: memberID})
	require.NoError(t, err)

	require.NotNil(t, s.ValueEnumID)
	assert.Equal(t, memberID, *s.ValueEnumID)
}

func TestAssign_BoundEnumWithoutResolver(t *testing.T) {
	ctx := context.Background()
	enumTypeID := id.New()

	d := def(propertydef.TypeEnum)
	d.EnumTypeID = &enumTypeID

	_, err := New(ctx, id.New(), d, "full_grain", nil)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestAssign_CustomEnumOption(t *testing.T) {
	ctx := context.Background()
	optID := id.New()

	d := def(propertydef.TypeEnum)
	d.EnumOptions = []propertydef.EnumOption{
		{ID: optID, PropertyID: d.ID, Value: "matte"},
	}

	t.Run("by value", func(t *testing.T) {
		s, err := New(ctx, id.New(), d, "matte", nil)
		require.NoError(t, err)
		assert.Equal(t, optID, *s.ValueEnumID)
	})

	t.Run("by option id", func(t *testing.T) {
		s, err := New(ctx, id.New(), d, optID.String(), nil)
		require.NoError(t, err)
		assert.Equal(t, optID, *s.ValueEnumID)
	})

	t.Run("unknown option", func(t *testing.T) {
		_, err := New(ctx, id.New(), d, "glossy", nil)
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})
}

func TestGet_RoundTrip(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, id.New(), def(propertydef.TypeString), "saddle brown", nil)
	require.NoError(t, err)

	assert.Equal(t, "saddle brown", s.Get(propertydef.TypeString))
	assert.Nil(t, s.Get(propertydef.TypeNumber))
}

func TestParseDate_AcceptedLayouts(t *testing.T) {
	for _, raw := range []string{
		"2026-08-23",
		"2026-08-23T10:30:00",
		"2026-08-23T10:30:00Z",
	} {
		parsed, err := parseDate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, time.August, parsed.Month())
	}

	_, err := parseDate(123)
	assert.Error(t, err)
}
