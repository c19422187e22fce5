package propertydef

import (
	"context"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
	"hidesync/internal/core/tx"
	"hidesync/internal/domain"
	"hidesync/pkg/logger"
)

// Auditor records definition mutations. Registered after construction; nil
// skips the audit trail.
type Auditor interface {
	RecordChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// Service provides business logic for property definitions.
type Service struct {
	repo      Repository
	txm       tx.Manager
	validator *Validator
	audit     Auditor
}

// NewService creates a property definition service. The validator carries the
// enum resolver used for bound-enum value checks.
func NewService(repo Repository, txm tx.Manager, validator *Validator) *Service {
	return &Service{repo: repo, txm: txm, validator: validator}
}

// RegisterAuditor wires the audit trail for definition mutations.
func (s *Service) RegisterAuditor(a Auditor) {
	s.audit = a
}

func (s *Service) auditChange(ctx context.Context, defID id.ID, action string, changes map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordChange(ctx, "property_definition", defID, action, changes); err != nil {
		logger.Warn(ctx, "audit write failed", "propertyId", defID, "action", action, "error", err)
	}
}

// List retrieves definitions with filtering and pagination.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*PropertyDefinition], error) {
	return s.repo.List(ctx, filter)
}

// GetByID retrieves a definition with translations and options.
func (s *Service) GetByID(ctx context.Context, defID id.ID) (*PropertyDefinition, error) {
	return s.repo.GetByID(ctx, defID)
}

// GetByName retrieves a definition by its unique name.
func (s *Service) GetByName(ctx context.Context, name string) (*PropertyDefinition, error) {
	return s.repo.GetByName(ctx, name)
}

// Create validates and persists a new definition with its children.
func (s *Service) Create(ctx context.Context, def *PropertyDefinition) error {
	if err := def.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(def.ID) {
		def.ID = id.New()
	}

	if existing, err := s.repo.GetByName(ctx, def.Name); err == nil && existing != nil {
		return apperror.NewDuplicate("property definition", "name", def.Name)
	}

	for i := range def.Translations {
		if id.IsNil(def.Translations[i].ID) {
			def.Translations[i].ID = id.New()
		}
		def.Translations[i].PropertyID = def.ID
	}
	for i := range def.EnumOptions {
		if id.IsNil(def.EnumOptions[i].ID) {
			def.EnumOptions[i].ID = id.New()
		}
		def.EnumOptions[i].PropertyID = def.ID
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, def); err != nil {
			return err
		}
		s.auditChange(ctx, def.ID, "create", map[string]any{
			"name":     def.Name,
			"dataType": string(def.DataType),
		})
		return nil
	})
}

// Update applies a partial update. System definitions only allow validation
// rules and translations to change. A data type change is rejected once any
// instance stores a value for the definition.
func (s *Service) Update(ctx context.Context, defID id.ID, in UpdateInput) (*PropertyDefinition, error) {
	def, err := s.repo.GetByID(ctx, defID)
	if err != nil {
		return nil, err
	}

	if def.IsSystem && in.touchesRestrictedFields() {
		return nil, apperror.NewSystemEntity("property definition", def.Name)
	}

	if in.DataType != nil && *in.DataType != def.DataType {
		if !IsValidDataType(*in.DataType) {
			return nil, apperror.NewValidation("invalid data type").
				WithDetail("field", "dataType").
				WithDetail("value", string(*in.DataType))
		}
		hasValues, err := s.repo.HasValues(ctx, defID)
		if err != nil {
			return nil, err
		}
		if hasValues {
			return nil, apperror.NewConflict("data type cannot change while values exist").
				WithDetail("property", def.Name).
				WithDetail("dataType", string(def.DataType))
		}
		def.DataType = *in.DataType
	}

	if in.Name != nil && *in.Name != def.Name {
		if existing, err := s.repo.GetByName(ctx, *in.Name); err == nil && existing != nil {
			return nil, apperror.NewDuplicate("property definition", "name", *in.Name)
		}
		def.Name = *in.Name
	}
	if in.GroupName != nil {
		def.GroupName = in.GroupName
	}
	if in.Unit != nil {
		def.Unit = in.Unit
	}
	if in.IsRequired != nil {
		def.IsRequired = *in.IsRequired
	}
	if in.HasMultipleValues != nil {
		def.HasMultipleValues = *in.HasMultipleValues
	}
	if in.ValidationRules != nil {
		def.ValidationRules = in.ValidationRules
	}
	if in.EnumTypeID != nil {
		if def.DataType != TypeEnum {
			return nil, apperror.NewValidation("enum_type_id is only valid for enum properties").
				WithDetail("field", "enumTypeId")
		}
		def.EnumTypeID = in.EnumTypeID
	}
	if len(in.EnumOptions) > 0 {
		if def.IsBoundEnum() {
			return nil, apperror.NewValidation("bound enum property cannot carry custom options").
				WithDetail("field", "enumOptions")
		}
		def.EnumOptions = in.EnumOptions
	}
	if len(in.Translations) > 0 {
		def.Translations = mergeTranslations(def.ID, def.Translations, in.Translations)
	}

	if err := def.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, def); err != nil {
			return err
		}
		s.auditChange(ctx, def.ID, "update", map[string]any{"name": def.Name})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return def, nil
}

// Delete removes a non-system, unreferenced definition.
func (s *Service) Delete(ctx context.Context, defID id.ID) error {
	def, err := s.repo.GetByID(ctx, defID)
	if err != nil {
		return err
	}
	if def.IsSystem {
		return apperror.NewSystemEntity("property definition", def.Name)
	}

	referenced, err := s.repo.ReferencedByTypes(ctx, defID)
	if err != nil {
		return err
	}
	if referenced {
		return apperror.NewConflict("property definition is assigned to entity types").
			WithDetail("property", def.Name)
	}

	hasValues, err := s.repo.HasValues(ctx, defID)
	if err != nil {
		return err
	}
	if hasValues {
		return apperror.NewConflict("property definition has stored values").
			WithDetail("property", def.Name)
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, defID); err != nil {
			return err
		}
		s.auditChange(ctx, defID, "delete", map[string]any{"name": def.Name})
		return nil
	})
}

// AddEnumOption appends a custom option to an unbound enum definition.
func (s *Service) AddEnumOption(ctx context.Context, defID id.ID, opt EnumOption) (*EnumOption, error) {
	def, err := s.repo.GetByID(ctx, defID)
	if err != nil {
		return nil, err
	}
	if def.DataType != TypeEnum {
		return nil, apperror.NewValidation("options are only valid for enum properties").
			WithDetail("property", def.Name).
			WithDetail("dataType", string(def.DataType))
	}
	if def.IsBoundEnum() {
		return nil, apperror.NewValidation("bound enum property cannot carry custom options").
			WithDetail("property", def.Name)
	}
	if opt.Value == "" {
		return nil, apperror.NewValidation("option value is required").WithDetail("field", "value")
	}
	for _, existing := range def.EnumOptions {
		if existing.Value == opt.Value {
			return nil, apperror.NewDuplicate("enum option", "value", opt.Value)
		}
	}

	opt.ID = id.New()
	opt.PropertyID = defID
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.AddOption(ctx, &opt)
	})
	if err != nil {
		return nil, err
	}
	return &opt, nil
}

// DeleteEnumOption removes a custom option from an unbound enum definition.
func (s *Service) DeleteEnumOption(ctx context.Context, defID, optionID id.ID) error {
	def, err := s.repo.GetByID(ctx, defID)
	if err != nil {
		return err
	}
	if def.IsBoundEnum() {
		return apperror.NewValidation("bound enum property has no custom options").
			WithDetail("property", def.Name)
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.DeleteOption(ctx, defID, optionID)
	})
}

// ValidateValue checks a candidate value against a stored definition.
func (s *Service) ValidateValue(ctx context.Context, defID id.ID, value any) (bool, error) {
	def, err := s.repo.GetByID(ctx, defID)
	if err != nil {
		return false, err
	}
	if err := s.validator.Check(ctx, def, value); err != nil {
		if apperror.IsValidation(err) {
			logger.Debug(ctx, "value rejected", "property", def.Name, "error", err)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CheckValue validates a candidate value against an already loaded definition.
func (s *Service) CheckValue(ctx context.Context, def *PropertyDefinition, value any) error {
	return s.validator.Check(ctx, def, value)
}

// mergeTranslations merges incoming translations into existing ones by locale.
func mergeTranslations(propertyID id.ID, existing, incoming []Translation) []Translation {
	byLocale := make(map[string]int, len(existing))
	merged := make([]Translation, len(existing))
	copy(merged, existing)
	for i, tr := range merged {
		byLocale[tr.Locale] = i
	}
	for _, tr := range incoming {
		if i, ok := byLocale[tr.Locale]; ok {
			merged[i].DisplayName = tr.DisplayName
			merged[i].Description = tr.Description
			continue
		}
		if id.IsNil(tr.ID) {
			tr.ID = id.New()
		}
		tr.PropertyID = propertyID
		merged = append(merged, tr)
	}
	return merged
}
