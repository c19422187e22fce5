package entitytype

import (
	"context"
	"fmt"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/appctx"
	"hidesync/internal/core/id"
	"hidesync/internal/core/tx"
	"hidesync/internal/domain"
	"hidesync/pkg/logger"
)

// cachePattern invalidates every cached list variant on write.
const cachePattern = "material_types:*"

// Service provides business logic for the entity type registry.
type Service struct {
	repo      Repository
	props     PropertyLookup
	instances map[Kind]InstanceCounter
	cache     ListCache
	audit     Auditor
	txm       tx.Manager
}

// NewService creates an entity type service. The cache may be nil; list
// results are then always read from the repository.
func NewService(repo Repository, props PropertyLookup, txm tx.Manager, cache ListCache) *Service {
	return &Service{
		repo:      repo,
		props:     props,
		instances: make(map[Kind]InstanceCounter),
		cache:     cache,
		txm:       txm,
	}
}

// RegisterInstanceCounter wires the instance repository guarding deletes for
// a kind. Registered after construction to break the type/instance cycle.
func (s *Service) RegisterInstanceCounter(kind Kind, counter InstanceCounter) {
	s.instances[kind] = counter
}

// RegisterAuditor wires the audit trail for type mutations.
func (s *Service) RegisterAuditor(a Auditor) {
	s.audit = a
}

func (s *Service) auditChange(ctx context.Context, typeID id.ID, action string, changes map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordChange(ctx, "entity_type", typeID, action, changes); err != nil {
		logger.Warn(ctx, "audit write failed", "typeId", typeID, "action", action, "error", err)
	}
}

// List retrieves types visible to the calling user's tier. System types are
// excluded when the filter says so. Cache misses and failures fall through
// to the repository.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*EntityType], error) {
	tier := appctx.GetUserTier(ctx)

	key := fmt.Sprintf("material_types:list:%s:%s:%t:%d:%d",
		filter.Kind, tier, filter.IncludeSystem, filter.Limit, filter.Offset)
	if s.cache != nil && filter.Search == "" {
		var cached domain.ListResult[*EntityType]
		if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
			logger.Warn(ctx, "type list cache read failed", "key", key, "error", err)
		} else if hit {
			return cached, nil
		}
	}

	result, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.ListResult[*EntityType]{}, err
	}

	if tier != "" {
		visible := result.Items[:0]
		for _, t := range result.Items {
			if t.VisibleTo(tier) {
				visible = append(visible, t)
			}
		}
		result.Items = visible
	}

	if s.cache != nil && filter.Search == "" {
		if err := s.cache.Set(ctx, key, result); err != nil {
			logger.Warn(ctx, "type list cache write failed", "key", key, "error", err)
		}
	}
	return result, nil
}

// GetByID retrieves a type with assignments and translations, resolving each
// assignment's property name.
func (s *Service) GetByID(ctx context.Context, typeID id.ID) (*EntityType, error) {
	t, err := s.repo.GetByID(ctx, typeID)
	if err != nil {
		return nil, err
	}
	s.resolvePropertyNames(ctx, t)
	return t, nil
}

// GetByName retrieves a type by (kind, name).
func (s *Service) GetByName(ctx context.Context, kind Kind, name string) (*EntityType, error) {
	t, err := s.repo.GetByName(ctx, kind, name)
	if err != nil {
		return nil, err
	}
	s.resolvePropertyNames(ctx, t)
	return t, nil
}

// CreateWithProperties creates the type with translations and assignments in
// one transaction. Assignments default display_order to their input index
// when none carries an explicit order.
func (s *Service) CreateWithProperties(ctx context.Context, t *EntityType) error {
	if err := t.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(t.ID) {
		t.ID = id.New()
	}
	if t.VisibilityLevel == "" {
		t.VisibilityLevel = VisibilityAll
	}

	if existing, err := s.repo.GetByName(ctx, t.Kind, t.Name); err == nil && existing != nil {
		return apperror.NewDuplicate("entity type", "name", t.Name)
	}

	for i := range t.Translations {
		if id.IsNil(t.Translations[i].ID) {
			t.Translations[i].ID = id.New()
		}
		t.Translations[i].EntityTypeID = t.ID
	}
	defaultDisplayOrders(t.Properties)
	for i := range t.Properties {
		p := &t.Properties[i]
		if id.IsNil(p.ID) {
			p.ID = id.New()
		}
		p.EntityTypeID = t.ID
		if _, err := s.props.GetByID(ctx, p.PropertyID); err != nil {
			return apperror.NewValidation("assigned property does not exist").
				WithDetail("propertyId", p.PropertyID.String()).
				WithCause(err)
		}
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, t); err != nil {
			return err
		}
		s.auditChange(ctx, t.ID, "create", map[string]any{"kind": string(t.Kind), "name": t.Name})
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// UpdateWithProperties applies a partial update. Translations merge by
// locale; a supplied properties list fully replaces the assignment set.
// System types only allow translations and UI config to change.
func (s *Service) UpdateWithProperties(ctx context.Context, typeID id.ID, in UpdateInput) (*EntityType, error) {
	t, err := s.repo.GetByID(ctx, typeID)
	if err != nil {
		return nil, err
	}

	if t.IsSystem && in.touchesRestrictedFields() {
		return nil, apperror.NewSystemEntity("entity type", t.Name)
	}

	if in.Name != nil && *in.Name != t.Name {
		if existing, err := s.repo.GetByName(ctx, t.Kind, *in.Name); err == nil && existing != nil {
			return nil, apperror.NewDuplicate("entity type", "name", *in.Name)
		}
		t.Name = *in.Name
	}
	if in.Icon != nil {
		t.Icon = in.Icon
	}
	if in.ColorScheme != nil {
		t.ColorScheme = in.ColorScheme
	}
	if in.UIConfig != nil {
		t.UIConfig = in.UIConfig
	}
	if in.StorageConfig != nil {
		t.StorageConfig = in.StorageConfig
	}
	if in.VisibilityLevel != nil {
		t.VisibilityLevel = *in.VisibilityLevel
	}
	if len(in.Translations) > 0 {
		t.Translations = mergeTranslations(t.ID, t.Translations, in.Translations)
	}

	replaceAssignments := in.Properties != nil
	if replaceAssignments {
		assignments := make([]PropertyAssignment, len(in.Properties))
		copy(assignments, in.Properties)
		defaultDisplayOrders(assignments)
		for i := range assignments {
			p := &assignments[i]
			if id.IsNil(p.ID) {
				p.ID = id.New()
			}
			p.EntityTypeID = t.ID
			if _, err := s.props.GetByID(ctx, p.PropertyID); err != nil {
				return nil, apperror.NewValidation("assigned property does not exist").
					WithDetail("propertyId", p.PropertyID.String()).
					WithCause(err)
			}
		}
		t.Properties = assignments
	}

	if err := t.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, t); err != nil {
			return err
		}
		if replaceAssignments {
			if err := s.repo.ReplaceAssignments(ctx, t.ID, t.Properties); err != nil {
				return err
			}
		}
		s.auditChange(ctx, t.ID, "update", map[string]any{"name": t.Name})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)
	return t, nil
}

// Delete removes a non-system type with no live instances.
func (s *Service) Delete(ctx context.Context, typeID id.ID) error {
	t, err := s.repo.GetByID(ctx, typeID)
	if err != nil {
		return err
	}
	if t.IsSystem {
		return apperror.NewConflict("system entity type cannot be deleted").
			WithDetail("type", t.Name)
	}

	if counter, ok := s.instances[t.Kind]; ok {
		n, err := counter.CountByType(ctx, typeID)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperror.NewConflict("entity type has live instances").
				WithDetail("type", t.Name).
				WithDetail("instances", n)
		}
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, typeID); err != nil {
			return err
		}
		s.auditChange(ctx, typeID, "delete", map[string]any{"kind": string(t.Kind), "name": t.Name})
		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *Service) resolvePropertyNames(ctx context.Context, t *EntityType) {
	for i := range t.Properties {
		p := &t.Properties[i]
		if p.PropertyName != "" {
			continue
		}
		def, err := s.props.GetByID(ctx, p.PropertyID)
		if err != nil {
			logger.Warn(ctx, "assigned property lookup failed",
				"type", t.Name, "propertyId", p.PropertyID, "error", err)
			continue
		}
		p.PropertyName = def.Name
	}
}

func (s *Service) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePattern(ctx, cachePattern); err != nil {
		logger.Warn(ctx, "type list cache invalidation failed", "pattern", cachePattern, "error", err)
	}
}

// defaultDisplayOrders assigns input indices when no assignment carries an
// explicit order. A list with any non-zero order is taken as-is, so an
// explicit zero survives at any position.
func defaultDisplayOrders(assignments []PropertyAssignment) {
	for _, p := range assignments {
		if p.DisplayOrder != 0 {
			return
		}
	}
	for i := range assignments {
		assignments[i].DisplayOrder = i
	}
}

func mergeTranslations(typeID id.ID, existing, incoming []Translation) []Translation {
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
		tr.EntityTypeID = typeID
		merged = append(merged, tr)
	}
	return merged
}
