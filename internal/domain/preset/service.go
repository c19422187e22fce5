package preset

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
	"hidesync/internal/core/tx"
	"hidesync/internal/domain"
	"hidesync/internal/domain/material"
	"hidesync/internal/domain/presetdoc"
	"hidesync/internal/domain/schema/entitytype"
	"hidesync/internal/domain/schema/propertydef"
	"hidesync/internal/domain/settings"
	"hidesync/pkg/logger"
)

// EventPresetApplied is emitted on the outbox after a successful apply.
const EventPresetApplied = "preset.applied"

const sampleSuffix = " (Sample)"

// Service is the preset engine: CRUD for stored presets plus the apply and
// generate operations.
type Service struct {
	repo      Repository
	props     PropertyStore
	types     TypeStore
	materials MaterialStore
	settings  SettingsStore
	events    EventSink
	audit     Auditor
	txm       tx.Manager
}

// NewService creates a preset engine. The settings store and event sink may
// be nil; the corresponding sections are then skipped.
func NewService(repo Repository, props PropertyStore, types TypeStore, materials MaterialStore, set SettingsStore, events EventSink, txm tx.Manager) *Service {
	return &Service{
		repo:      repo,
		props:     props,
		types:     types,
		materials: materials,
		settings:  set,
		events:    events,
		txm:       txm,
	}
}

// RegisterAuditor wires the audit trail for preset applications.
func (s *Service) RegisterAuditor(a Auditor) {
	s.audit = a
}

// Create stores a preset after checking its config parses and validates.
func (s *Service) Create(ctx context.Context, p *Preset) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}
	doc, err := presetdoc.Parse(p.Config)
	if err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	if id.IsNil(p.ID) {
		p.ID = id.New()
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, p)
	})
}

// GetByID retrieves a preset.
func (s *Service) GetByID(ctx context.Context, presetID id.ID) (*Preset, error) {
	return s.repo.GetByID(ctx, presetID)
}

// List retrieves presets with filtering and pagination.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Preset], error) {
	return s.repo.List(ctx, filter)
}

// Delete removes a preset. Application history rows are kept.
func (s *Service) Delete(ctx context.Context, presetID id.ID) error {
	if _, err := s.repo.GetByID(ctx, presetID); err != nil {
		return err
	}
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, presetID)
	})
}

// ListApplicationErrors retrieves the error rows of one application.
func (s *Service) ListApplicationErrors(ctx context.Context, applicationID id.ID) ([]ApplicationError, error) {
	return s.repo.ListApplicationErrors(ctx, applicationID)
}

// run carries the per-apply state: the application row being built and the
// collected error strings.
type run struct {
	app    *Application
	opts   ApplyOptions
	errors []string
}

// fail records one sub-item failure and continues the apply loop.
func (s *Service) fail(ctx context.Context, r *run, errType, entityType, name string, err error) {
	r.app.ErrorCount++
	msg := err.Error()
	if appErr, ok := apperror.AsAppError(err); ok {
		msg = appErr.Message
	}
	r.errors = append(r.errors, fmt.Sprintf("%s %q: %s", entityType, name, msg))

	row := &ApplicationError{
		ID:            id.New(),
		ApplicationID: r.app.ID,
		ErrorType:     errType,
		EntityType:    entityType,
		EntityName:    name,
		ErrorMessage:  msg,
	}
	if err := s.repo.CreateApplicationError(ctx, row); err != nil {
		logger.Error(ctx, "application error row write failed",
			"application", r.app.ID, "entity", name, "error", err)
	}
}

// Apply runs a preset against the live registries. Structural validation
// happens before any write; everything else runs in one transaction with
// per-item failures recorded as error rows instead of aborting.
func (s *Service) Apply(ctx context.Context, presetID, userID id.ID, opts ApplyOptions) (*Result, error) {
	if opts.ConflictResolution == "" {
		opts.ConflictResolution = ResolveSkip
	}
	if opts.ThemeHandling == "" {
		opts.ThemeHandling = ResolveSkip
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, presetID)
	if err != nil {
		return nil, err
	}
	doc, err := presetdoc.Parse(p.Config)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	appliedAt := time.Now().UTC()
	r := &run{
		app: &Application{
			ID:        id.New(),
			PresetID:  presetID,
			UserID:    userID,
			AppliedAt: appliedAt,
		},
		opts: opts,
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateApplication(ctx, r.app); err != nil {
			return err
		}

		if opts.IncludeProperties {
			s.applyProperties(ctx, r, doc.PropertyDefinitions)
		}
		s.applyMaterialTypes(ctx, r, doc.MaterialTypes)
		if opts.IncludeSampleMaterials {
			s.applySampleMaterials(ctx, r, doc.SampleMaterials)
		}
		if opts.IncludeSettings && s.settings != nil {
			s.applySettings(ctx, r, doc, userID)
		}

		if err := s.repo.UpdateApplication(ctx, r.app); err != nil {
			return err
		}
		if err := s.repo.RecordApplied(ctx, presetID, appliedAt); err != nil {
			return err
		}

		if s.audit != nil {
			changes := map[string]any{
				"createdPropertyDefinitions": r.app.CreatedPropertyDefinitions,
				"createdMaterialTypes":       r.app.CreatedMaterialTypes,
				"createdMaterials":           r.app.CreatedMaterials,
				"appliedSettings":            r.app.AppliedSettings,
				"errorCount":                 r.app.ErrorCount,
			}
			if err := s.audit.RecordChange(ctx, "preset", presetID, "apply", changes); err != nil {
				logger.Warn(ctx, "audit write failed", "preset", presetID, "error", err)
			}
		}

		if s.events != nil {
			payload := map[string]any{
				"preset_id": presetID.String(),
				"user_id":   userID.String(),
				"options":   opts,
				"stats":     r.app,
				"timestamp": appliedAt.Format(time.RFC3339),
			}
			if err := s.events.Publish(ctx, EventPresetApplied, payload); err != nil {
				logger.Warn(ctx, "preset applied event not published",
					"preset", presetID, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		ApplicationID:              r.app.ID,
		CreatedPropertyDefinitions: r.app.CreatedPropertyDefinitions,
		UpdatedPropertyDefinitions: r.app.UpdatedPropertyDefinitions,
		CreatedMaterialTypes:       r.app.CreatedMaterialTypes,
		UpdatedMaterialTypes:       r.app.UpdatedMaterialTypes,
		CreatedMaterials:           r.app.CreatedMaterials,
		AppliedSettings:            r.app.AppliedSettings,
		ErrorCount:                 r.app.ErrorCount,
		Errors:                     r.errors,
	}, nil
}

func (s *Service) applyProperties(ctx context.Context, r *run, docs []presetdoc.PropertyDefinitionDoc) {
	for _, pd := range docs {
		existing, err := s.props.GetByName(ctx, pd.Name)
		switch {
		case err != nil && !apperror.IsNotFound(err):
			s.fail(ctx, r, ErrorTypeProperty, "property_definition", pd.Name, err)

		case err != nil:
			def := entitytype.PropertyFromExport(pd)
			if err := s.props.Create(ctx, def); err != nil {
				s.fail(ctx, r, ErrorTypeProperty, "property_definition", pd.Name, err)
				continue
			}
			r.app.CreatedPropertyDefinitions++

		default:
			switch r.opts.ConflictResolution {
			case ResolveSkip:
				// leave untouched

			case ResolveOverwrite:
				in := propertyUpdateFromDoc(pd)
				if _, err := s.props.Update(ctx, existing.ID, in); err != nil {
					s.fail(ctx, r, ErrorTypeProperty, "property_definition", pd.Name, err)
					continue
				}
				r.app.UpdatedPropertyDefinitions++

			case ResolveRename:
				renamed := pd
				renamed.Name = pd.Name + "_" + renameSuffix()
				def := entitytype.PropertyFromExport(renamed)
				if err := s.props.Create(ctx, def); err != nil {
					s.fail(ctx, r, ErrorTypeProperty, "property_definition", renamed.Name, err)
					continue
				}
				r.app.CreatedPropertyDefinitions++
			}
		}
	}
}

func (s *Service) applyMaterialTypes(ctx context.Context, r *run, docs []presetdoc.MaterialTypeDoc) {
	include := make(map[string]bool, len(r.opts.MaterialTypesToInclude))
	for _, name := range r.opts.MaterialTypesToInclude {
		include[name] = true
	}

	for _, mt := range docs {
		if len(include) > 0 && !include[mt.Name] {
			continue
		}

		existing, err := s.types.GetByName(ctx, entitytype.KindMaterial, mt.Name)
		switch {
		case err != nil && !apperror.IsNotFound(err):
			s.fail(ctx, r, ErrorTypeMaterialType, "material_type", mt.Name, err)

		case err != nil:
			if err := s.createTypeFromDoc(ctx, mt); err != nil {
				s.fail(ctx, r, ErrorTypeMaterialType, "material_type", mt.Name, err)
				continue
			}
			r.app.CreatedMaterialTypes++

		default:
			switch r.opts.ConflictResolution {
			case ResolveSkip:
				// leave untouched

			case ResolveOverwrite:
				in, err := s.typeUpdateFromDoc(ctx, mt)
				if err != nil {
					s.fail(ctx, r, ErrorTypeMaterialType, "material_type", mt.Name, err)
					continue
				}
				if _, err := s.types.UpdateWithProperties(ctx, existing.ID, in); err != nil {
					s.fail(ctx, r, ErrorTypeMaterialType, "material_type", mt.Name, err)
					continue
				}
				r.app.UpdatedMaterialTypes++

			case ResolveRename:
				renamed := mt
				renamed.Name = mt.Name + "_" + renameSuffix()
				if err := s.createTypeFromDoc(ctx, renamed); err != nil {
					s.fail(ctx, r, ErrorTypeMaterialType, "material_type", renamed.Name, err)
					continue
				}
				r.app.CreatedMaterialTypes++
			}
		}
	}
}

func (s *Service) applySampleMaterials(ctx context.Context, r *run, docs []presetdoc.SampleMaterialDoc) {
	for _, sm := range docs {
		t, err := s.types.GetByName(ctx, entitytype.KindMaterial, sm.MaterialType)
		if err != nil {
			s.fail(ctx, r, ErrorTypeMaterial, "material", sm.Name,
				apperror.NewNotFound(fmt.Sprintf("material type %q", sm.MaterialType), sm.MaterialType))
			continue
		}

		name := sm.Name
		if existing, err := s.materials.GetByName(ctx, t.ID, name); err == nil && existing != nil {
			switch r.opts.ConflictResolution {
			case ResolveSkip, ResolveOverwrite:
				// overwrite is a deliberate no-op for generated instances
				continue
			case ResolveRename:
				name = sm.Name + sampleSuffix
			}
		}

		m := material.NewMaterial(t.ID, name, sm.Unit)
		m.Quantity = sm.Quantity
		if sm.Status != "" {
			m.Status = sm.Status
		}

		// Unresolvable property names are skipped silently.
		var props []material.PropertyInput
		for propName, value := range sm.Properties {
			def, err := s.props.GetByName(ctx, propName)
			if err != nil {
				logger.Debug(ctx, "sample property not resolved",
					"material", name, "property", propName)
				continue
			}
			props = append(props, material.PropertyInput{PropertyID: def.ID, Value: value})
		}

		if err := s.materials.CreateWithProperties(ctx, m, props); err != nil {
			s.fail(ctx, r, ErrorTypeMaterial, "material", name, err)
			continue
		}
		r.app.CreatedMaterials++
	}
}

func (s *Service) applySettings(ctx context.Context, r *run, doc *presetdoc.Document, userID id.ID) {
	scopeID := userID.String()
	for key, value := range doc.Settings {
		if err := s.settings.Set(ctx, key, settings.ScopeUser, scopeID, value); err != nil {
			s.fail(ctx, r, ErrorTypeSettings, "setting", key, err)
			continue
		}
		r.app.AppliedSettings++
	}

	if len(doc.Theme) > 0 && r.opts.ThemeHandling != ResolveSkip {
		if err := s.settings.Set(ctx, "theme", settings.ScopeUser, scopeID, map[string]any(doc.Theme)); err != nil {
			s.fail(ctx, r, ErrorTypeSettings, "setting", "theme", err)
			return
		}
		r.app.AppliedSettings++
	}
}

func (s *Service) createTypeFromDoc(ctx context.Context, doc presetdoc.MaterialTypeDoc) error {
	t, err := entitytype.FromExport(ctx, entitytype.KindMaterial, doc, s.props)
	if err != nil {
		return err
	}
	return s.types.CreateWithProperties(ctx, t)
}

func (s *Service) typeUpdateFromDoc(ctx context.Context, doc presetdoc.MaterialTypeDoc) (entitytype.UpdateInput, error) {
	t, err := entitytype.FromExport(ctx, entitytype.KindMaterial, doc, s.props)
	if err != nil {
		return entitytype.UpdateInput{}, err
	}
	in := entitytype.UpdateInput{
		UIConfig:      t.UIConfig,
		StorageConfig: t.StorageConfig,
		Translations:  t.Translations,
		Properties:    t.Properties,
	}
	if t.Icon != nil {
		in.Icon = t.Icon
	}
	if t.ColorScheme != nil {
		in.ColorScheme = t.ColorScheme
	}
	return in, nil
}

// renameSuffix returns 8 random hex characters.
func renameSuffix() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xffffffff)
	}
	return hex.EncodeToString(b[:])
}

func propertyUpdateFromDoc(doc presetdoc.PropertyDefinitionDoc) propertydef.UpdateInput {
	def := entitytype.PropertyFromExport(doc)
	in := propertydef.UpdateInput{
		ValidationRules: def.ValidationRules,
		Translations:    def.Translations,
	}
	if def.GroupName != nil {
		in.GroupName = def.GroupName
	}
	if def.Unit != nil {
		in.Unit = def.Unit
	}
	required := def.IsRequired
	in.IsRequired = &required
	multi := def.HasMultipleValues
	in.HasMultipleValues = &multi
	if len(def.EnumOptions) > 0 {
		in.EnumOptions = def.EnumOptions
	}
	return in
}
