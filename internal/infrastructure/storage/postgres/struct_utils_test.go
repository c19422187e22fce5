package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hidesync/internal/core/entity"
	"hidesync/internal/core/id"
)

type MockRecord struct {
	entity.Base
	Name   string  `db:"name" json:"name"`
	Status string  `db:"status" json:"status"`
	Notes  *string `db:"notes" json:"notes,omitempty"`
	Skip   string  `db:"-" json:"skip"`
}

func TestExtractDBColumns_EmbeddedBase(t *testing.T) {
	cols := ExtractDBColumns[MockRecord]()

	expectedCols := []string{
		"id", "version", "created_at", "updated_at", "name", "status", "notes",
	}

	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
	assert.NotContains(t, cols, "-")
	assert.Len(t, cols, len(expectedCols))
}

func TestStructToMap_EmbeddedBase(t *testing.T) {
	now := time.Now().UTC()
	rec := MockRecord{
		Base: entity.Base{
			ID:        id.New(),
			Version:   5,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:   "Veg Tan Side",
		Status: "in_stock",
		Skip:   "ignored",
	}

	m := StructToMap(rec)

	assert.Equal(t, rec.ID, m["id"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "Veg Tan Side", m["name"])
	assert.Equal(t, "in_stock", m["status"])
	assert.Nil(t, m["notes"])
	assert.NotContains(t, m, "-")
}

func TestStructToMap_PointerInput(t *testing.T) {
	rec := &MockRecord{Name: "Brass Buckle"}

	m := StructToMap(rec)
	assert.Equal(t, "Brass Buckle", m["name"])
}
