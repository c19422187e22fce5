package enumreg

import (
	"context"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
	"hidesync/internal/core/tx"
	"hidesync/pkg/logger"
)

// DefaultLocale is used for the translation created alongside a new value.
const DefaultLocale = "en"

// Auditor records catalog mutations. Registered after construction; nil
// skips the audit trail.
type Auditor interface {
	RecordChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// Service provides business logic for the enumeration catalog.
type Service struct {
	repo  Repository
	txm   tx.Manager
	audit Auditor
}

// NewService creates a new enum registry service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// RegisterAuditor wires the audit trail for value mutations.
func (s *Service) RegisterAuditor(a Auditor) {
	s.audit = a
}

func (s *Service) auditChange(ctx context.Context, valueID id.ID, action string, changes map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordChange(ctx, "enum_value", valueID, action, changes); err != nil {
		logger.Warn(ctx, "audit write failed", "valueId", valueID, "action", action, "error", err)
	}
}

// ListTypes lists all registered enum catalogs.
// A query failure degrades to an empty list: enum lookup failures must not
// crash dependent list views.
func (s *Service) ListTypes(ctx context.Context) []EnumType {
	types, err := s.repo.ListTypes(ctx)
	if err != nil {
		logger.Error(ctx, "enum type listing failed, returning empty", "error", err)
		return []EnumType{}
	}
	return types
}

// CreateType registers a new enum catalog (admin/seed operation).
func (s *Service) CreateType(ctx context.Context, t *EnumType) error {
	if err := t.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(t.ID) {
		t.ID = id.New()
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.CreateType(ctx, t)
	})
}

// ListValues returns the active values of a catalog for the given locale,
// falling back to the raw code where no translation exists.
func (s *Service) ListValues(ctx context.Context, systemName, locale string) ([]ValueView, error) {
	t, err := s.repo.GetTypeBySystemName(ctx, systemName)
	if err != nil {
		return nil, err
	}
	if locale == "" {
		locale = DefaultLocale
	}
	return s.repo.ListValues(ctx, t.ID, locale)
}

// CreateValue adds a value to a catalog and best-effort creates its default
// translation. Translation failure is logged, not propagated: the value row
// is the source of truth and creation still succeeds.
func (s *Service) CreateValue(ctx context.Context, systemName string, in CreateValueInput) (*EnumValue, error) {
	if in.Code == "" {
		return nil, apperror.NewValidation("code is required").WithDetail("field", "code")
	}
	if in.DisplayText == "" {
		return nil, apperror.NewValidation("display_text is required").WithDetail("field", "displayText")
	}

	t, err := s.repo.GetTypeBySystemName(ctx, systemName)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetValueByCode(ctx, t.ID, in.Code); err == nil && existing != nil {
		return nil, apperror.NewDuplicate("enum value", "code", in.Code)
	}

	value := &EnumValue{
		ID:           id.New(),
		EnumTypeID:   t.ID,
		Code:         in.Code,
		DisplayOrder: in.DisplayOrder,
		ParentID:     in.ParentID,
		IsActive:     true,
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateValue(ctx, value); err != nil {
			return err
		}
		s.auditChange(ctx, value.ID, "create", map[string]any{"enum": systemName, "code": value.Code})
		return nil
	})
	if err != nil {
		return nil, err
	}

	tr := &Translation{
		ID:          id.New(),
		EnumTypeID:  t.ID,
		ValueCode:   in.Code,
		Locale:      DefaultLocale,
		DisplayText: in.DisplayText,
		Description: in.Description,
	}
	if err := s.repo.UpsertTranslation(ctx, tr); err != nil {
		logger.Warn(ctx, "default translation creation failed",
			"enum", systemName, "code", in.Code, "error", err)
	}

	return value, nil
}

// UpdateValue modifies a value. System values only allow display text,
// description, display order and the active flag to change.
func (s *Service) UpdateValue(ctx context.Context, systemName string, valueID id.ID, in UpdateValueInput) (*EnumValue, error) {
	t, err := s.repo.GetTypeBySystemName(ctx, systemName)
	if err != nil {
		return nil, err
	}

	value, err := s.repo.GetValue(ctx, t.ID, valueID)
	if err != nil {
		return nil, err
	}

	if value.IsSystem {
		if in.Code != nil {
			return nil, apperror.NewValidation("system enum value code cannot be changed").
				WithDetail("field", "code")
		}
		if in.ParentID != nil {
			return nil, apperror.NewValidation("system enum value hierarchy cannot be changed").
				WithDetail("field", "parentId")
		}
	}

	if in.Code != nil && *in.Code != value.Code {
		if existing, err := s.repo.GetValueByCode(ctx, t.ID, *in.Code); err == nil && existing != nil {
			return nil, apperror.NewDuplicate("enum value", "code", *in.Code)
		}
		value.Code = *in.Code
	}
	if in.DisplayOrder != nil {
		value.DisplayOrder = *in.DisplayOrder
	}
	if in.ParentID != nil {
		value.ParentID = in.ParentID
	}
	if in.IsActive != nil {
		value.IsActive = *in.IsActive
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateValue(ctx, value); err != nil {
			return err
		}
		// Display text rides on the default-locale translation.
		if in.DisplayText != nil || in.Description != nil {
			tr, err := s.repo.GetTranslation(ctx, t.ID, value.Code, DefaultLocale)
			if err != nil {
				if !apperror.IsNotFound(err) {
					return err
				}
				tr = &Translation{
					ID:         id.New(),
					EnumTypeID: t.ID,
					ValueCode:  value.Code,
					Locale:     DefaultLocale,
				}
			}
			if in.DisplayText != nil {
				tr.DisplayText = *in.DisplayText
			}
			if in.Description != nil {
				tr.Description = in.Description
			}
			if err := s.repo.UpsertTranslation(ctx, tr); err != nil {
				return err
			}
		}
		s.auditChange(ctx, value.ID, "update", map[string]any{"enum": systemName, "code": value.Code})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}

// DeleteValue removes a non-system value with all its translations.
func (s *Service) DeleteValue(ctx context.Context, systemName string, valueID id.ID) error {
	t, err := s.repo.GetTypeBySystemName(ctx, systemName)
	if err != nil {
		return err
	}

	value, err := s.repo.GetValue(ctx, t.ID, valueID)
	if err != nil {
		return err
	}
	if value.IsSystem {
		return apperror.NewConflict("system enum value cannot be deleted").
			WithDetail("enum", systemName).
			WithDetail("code", value.Code)
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.DeleteValue(ctx, t.ID, valueID); err != nil {
			return err
		}
		s.auditChange(ctx, valueID, "delete", map[string]any{"enum": systemName, "code": value.Code})
		return nil
	})
}

// UpsertTranslation creates or updates a translation for (value, locale).
func (s *Service) UpsertTranslation(ctx context.Context, systemName, valueCode, locale, displayText string, description *string) (*Translation, error) {
	if locale == "" {
		return nil, apperror.NewValidation("locale is required").WithDetail("field", "locale")
	}
	if displayText == "" {
		return nil, apperror.NewValidation("display_text is required").WithDetail("field", "displayText")
	}

	t, err := s.repo.GetTypeBySystemName(ctx, systemName)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetValueByCode(ctx, t.ID, valueCode); err != nil {
		return nil, err
	}

	tr := &Translation{
		ID:          id.New(),
		EnumTypeID:  t.ID,
		ValueCode:   valueCode,
		Locale:      locale,
		DisplayText: displayText,
		Description: description,
	}
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.UpsertTranslation(ctx, tr)
	})
	if err != nil {
		return nil, err
	}
	return tr, nil
}

// DeleteTranslation removes a translation by (value, locale).
func (s *Service) DeleteTranslation(ctx context.Context, systemName, valueCode, locale string) error {
	t, err := s.repo.GetTypeBySystemName(ctx, systemName)
	if err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.DeleteTranslation(ctx, t.ID, valueCode, locale)
	})
}

// ResolveValue maps a raw value (value id or code) to an enum value id.
// Used by property validation and the instance write path.
func (s *Service) ResolveValue(ctx context.Context, enumTypeID id.ID, raw any) (id.ID, error) {
	switch v := raw.(type) {
	case id.ID:
		value, err := s.repo.GetValue(ctx, enumTypeID, v)
		if err != nil {
			return id.Nil(), err
		}
		return value.ID, nil
	case string:
		if parsed, err := id.Parse(v); err == nil {
			if value, err := s.repo.GetValue(ctx, enumTypeID, parsed); err == nil {
				return value.ID, nil
			}
		}
		value, err := s.repo.GetValueByCode(ctx, enumTypeID, v)
		if err != nil {
			return id.Nil(), err
		}
		return value.ID, nil
	default:
		return id.Nil(), apperror.NewValidation("enum value must be an id or a code").
			WithDetail("value", raw)
	}
}
