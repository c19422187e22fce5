// Package propvalue holds the polymorphic per-instance property value slot.
// A slot stores exactly one of seven typed columns, matching the declared
// data type of its property definition.
package propvalue

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
	"hidesync/internal/domain/schema/propertydef"
)

// Slot is one stored property value of an entity instance. The seven value_*
// columns are mutually exclusive; Assign resets all of them before setting
// the one matching the data type.
type Slot struct {
	ID         id.ID `db:"id" json:"id"`
	EntityID   id.ID `db:"entity_id" json:"entityId"`
	PropertyID id.ID `db:"property_id" json:"propertyId"`

	ValueString      *string          `db:"value_string" json:"valueString,omitempty"`
	ValueNumber      *decimal.Decimal `db:"value_number" json:"valueNumber,omitempty"`
	ValueBoolean     *bool            `db:"value_boolean" json:"valueBoolean,omitempty"`
	ValueDate        *time.Time       `db:"value_date" json:"valueDate,omitempty"`
	ValueEnumID      *id.ID           `db:"value_enum_id" json:"valueEnumId,omitempty"`
	ValueFileID      *string          `db:"value_file_id" json:"valueFileId,omitempty"`
	ValueReferenceID *id.ID           `db:"value_reference_id" json:"valueReferenceId,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// EnumResolver maps a raw enum value (id or code) to the id of a member of
// the bound EnumType catalog.
type EnumResolver interface {
	ResolveValue(ctx context.Context, enumTypeID id.ID, raw any) (id.ID, error)
}

// New creates a slot for (entityID, def) holding value. The value must
// already be validated against the definition.
func New(ctx context.Context, entityID id.ID, def *propertydef.PropertyDefinition, value any, enums EnumResolver) (*Slot, error) {
	now := time.Now().UTC()
	s := &Slot{
		ID:         id.New(),
		EntityID:   entityID,
		PropertyID: def.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Assign(ctx, def, value, enums); err != nil {
		return nil, err
	}
	return s, nil
}

// Assign clears every typed column and stores value into the column matching
// the definition's data type. A nil value leaves all columns empty.
func (s *Slot) Assign(ctx context.Context, def *propertydef.PropertyDefinition, value any, enums EnumResolver) error {
	s.reset()
	s.UpdatedAt = time.Now().UTC()

	if value == nil {
		return nil
	}

	switch def.DataType {
	case propertydef.TypeString:
		v, ok := value.(string)
		if !ok {
			return assignMismatch(def, value)
		}
		s.ValueString = &v

	case propertydef.TypeNumber:
		num, ok := propertydef.ToDecimal(value)
		if !ok {
			return assignMismatch(def, value)
		}
		s.ValueNumber = &num

	case propertydef.TypeBoolean:
		v, ok := value.(bool)
		if !ok {
			return assignMismatch(def, value)
		}
		s.ValueBoolean = &v

	case propertydef.TypeDate:
		t, err := parseDate(value)
		if err != nil {
			return assignMismatch(def, value).WithCause(err)
		}
		s.ValueDate = &t

	case propertydef.TypeEnum:
		enumID, err := resolveEnum(ctx, def, value, enums)
		if err != nil {
			return err
		}
		s.ValueEnumID = &enumID

	case propertydef.TypeFile:
		v, ok := value.(string)
		if !ok {
			return assignMismatch(def, value)
		}
		s.ValueFileID = &v

	case propertydef.TypeReference:
		ref, err := parseID(value)
		if err != nil {
			return assignMismatch(def, value).WithCause(err)
		}
		s.ValueReferenceID = &ref

	default:
		return apperror.NewValidation("unknown data type").
			WithDetail("property", def.Name).
			WithDetail("dataType", string(def.DataType))
	}

	return nil
}

// Get returns the stored value for the given data type, or nil when empty.
func (s *Slot) Get(dt propertydef.DataType) any {
	switch dt {
	case propertydef.TypeString:
		if s.ValueString != nil {
			return *s.ValueString
		}
	case propertydef.TypeNumber:
		if s.ValueNumber != nil {
			return *s.ValueNumber
		}
	case propertydef.TypeBoolean:
		if s.ValueBoolean != nil {
			return *s.ValueBoolean
		}
	case propertydef.TypeDate:
		if s.ValueDate != nil {
			return *s.ValueDate
		}
	case propertydef.TypeEnum:
		if s.ValueEnumID != nil {
			return *s.ValueEnumID
		}
	case propertydef.TypeFile:
		if s.ValueFileID != nil {
			return *s.ValueFileID
		}
	case propertydef.TypeReference:
		if s.ValueReferenceID != nil {
			return *s.ValueReferenceID
		}
	}
	return nil
}

// PopulatedCount returns how many typed columns are non-nil. A well-formed
// slot holds zero or one.
func (s *Slot) PopulatedCount() int {
	n := 0
	if s.ValueString != nil {
		n++
	}
	if s.ValueNumber != nil {
		n++
	}
	if s.ValueBoolean != nil {
		n++
	}
	if s.ValueDate != nil {
		n++
	}
	if s.ValueEnumID != nil {
		n++
	}
	if s.ValueFileID != nil {
		n++
	}
	if s.ValueReferenceID != nil {
		n++
	}
	return n
}

// IsEmpty reports whether no typed column is populated.
func (s *Slot) IsEmpty() bool {
	return s.PopulatedCount() == 0
}

func (s *Slot) reset() {
	s.ValueString = nil
	s.ValueNumber = nil
	s.ValueBoolean = nil
	s.ValueDate = nil
	s.ValueEnumID = nil
	s.ValueFileID = nil
	s.ValueReferenceID = nil
}

func resolveEnum(ctx context.Context, def *propertydef.PropertyDefinition, value any, enums EnumResolver) (id.ID, error) {
	if def.IsBoundEnum() {
		if enums == nil {
			return id.Nil(), apperror.NewValidation("no enum registry available").
				WithDetail("property", def.Name)
		}
		return enums.ResolveValue(ctx, *def.EnumTypeID, value)
	}

	// Custom options: accept option id or option value.
	for _, opt := range def.EnumOptions {
		switch v := value.(type) {
		case id.ID:
			if v == opt.ID {
				return opt.ID, nil
			}
		case string:
			if v == opt.Value || v == opt.ID.String() {
				return opt.ID, nil
			}
		}
	}
	return id.Nil(), apperror.NewValidation("unknown enum option").
		WithDetail("property", def.Name).
		WithDetail("value", value)
}

func parseDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable date %q", v)
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", value)
	}
}

func parseID(value any) (id.ID, error) {
	switch v := value.(type) {
	case id.ID:
		if id.IsNil(v) {
			return id.Nil(), fmt.Errorf("nil reference id")
		}
		return v, nil
	case string:
		return id.Parse(v)
	default:
		return id.Nil(), fmt.Errorf("unsupported reference type %T", value)
	}
}

func assignMismatch(def *propertydef.PropertyDefinition, got any) *apperror.AppError {
	return apperror.NewValidation("value does not match declared data type").
		WithDetail("property", def.Name).
		WithDetail("dataType", string(def.DataType)).
		WithDetail("got", fmt.Sprintf("%T", got))
}
