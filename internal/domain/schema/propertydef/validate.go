package propertydef

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/shopspring/decimal"

	"hidesync/internal/core/apperror"
	"hidesync/internal/core/id"
)

// Validation rule keys read from PropertyDefinition.ValidationRules.
const (
	RuleMinLength  = "min_length"
	RuleMaxLength  = "max_length"
	RulePattern    = "pattern"
	RuleMin        = "min"
	RuleMax        = "max"
	RuleExpression = "expression"
)

// acceptedDateLayouts are tried in order when parsing date values.
var acceptedDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Validator type-checks candidate values against a definition's declared
// data type and validation rules. CEL expressions from the "expression"
// rule are compiled once and cached.
type Validator struct {
	enums EnumResolver

	celEnv   *cel.Env
	programs sync.Map // expression string -> cel.Program
}

// NewValidator creates a validator. The enum resolver may be nil; bound-enum
// values then fail validation.
func NewValidator(enums EnumResolver) (*Validator, error) {
	env, err := cel.NewEnv(cel.Variable("value", cel.DynType))
	if err != nil {
		return nil, fmt.Errorf("create cel environment: %w", err)
	}
	return &Validator{enums: enums, celEnv: env}, nil
}

// Check validates value against def. Returns nil when valid, a validation
// AppError otherwise.
func (v *Validator) Check(ctx context.Context, def *PropertyDefinition, value any) error {
	if value == nil {
		if def.IsRequired {
			return apperror.NewValidation("value is required").
				WithDetail("property", def.Name)
		}
		return nil
	}

	var err error
	switch def.DataType {
	case TypeString:
		err = v.checkString(def, value)
	case TypeNumber:
		err = v.checkNumber(def, value)
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			err = typeMismatch(def, "boolean", value)
		}
	case TypeDate:
		err = checkDate(def, value)
	case TypeEnum:
		err = v.checkEnum(ctx, def, value)
	case TypeFile:
		// File values are opaque references.
		if _, ok := value.(string); !ok {
			err = typeMismatch(def, "file reference", value)
		}
	case TypeReference:
		err = checkReference(def, value)
	default:
		err = apperror.NewValidation("unknown data type").
			WithDetail("property", def.Name).
			WithDetail("dataType", string(def.DataType))
	}
	if err != nil {
		return err
	}

	return v.checkExpression(def, value)
}

// IsValid is the boolean form of Check.
func (v *Validator) IsValid(ctx context.Context, def *PropertyDefinition, value any) bool {
	return v.Check(ctx, def, value) == nil
}

func (v *Validator) checkString(def *PropertyDefinition, value any) error {
	s, ok := value.(string)
	if !ok {
		return typeMismatch(def, "string", value)
	}
	rules := def.ValidationRules
	if rules.Has(RuleMinLength) && int64(len(s)) < rules.GetInt(RuleMinLength) {
		return apperror.NewValidation("value shorter than min_length").
			WithDetail("property", def.Name).
			WithDetail("min_length", rules.GetInt(RuleMinLength))
	}
	if rules.Has(RuleMaxLength) && int64(len(s)) > rules.GetInt(RuleMaxLength) {
		return apperror.NewValidation("value longer than max_length").
			WithDetail("property", def.Name).
			WithDetail("max_length", rules.GetInt(RuleMaxLength))
	}
	if pattern := rules.GetString(RulePattern); pattern != "" {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return apperror.NewValidation("invalid pattern rule").
				WithDetail("property", def.Name).
				WithDetail("pattern", pattern).
				WithCause(err)
		}
		if !re.MatchString(s) {
			return apperror.NewValidation("value does not match pattern").
				WithDetail("property", def.Name).
				WithDetail("pattern", pattern)
		}
	}
	return nil
}

func (v *Validator) checkNumber(def *PropertyDefinition, value any) error {
	num, ok := ToDecimal(value)
	if !ok {
		return typeMismatch(def, "number", value)
	}
	rules := def.ValidationRules
	if rules.Has(RuleMin) && num.LessThan(rules.GetDecimal(RuleMin)) {
		return apperror.NewValidation("value below min").
			WithDetail("property", def.Name).
			WithDetail("min", rules.GetFloat(RuleMin))
	}
	if rules.Has(RuleMax) && num.GreaterThan(rules.GetDecimal(RuleMax)) {
		return apperror.NewValidation("value above max").
			WithDetail("property", def.Name).
			WithDetail("max", rules.GetFloat(RuleMax))
	}
	return nil
}

func checkDate(def *PropertyDefinition, value any) error {
	switch t := value.(type) {
	case time.Time:
		return nil
	case string:
		for _, layout := range acceptedDateLayouts {
			if _, err := time.Parse(layout, t); err == nil {
				return nil
			}
		}
		return apperror.NewValidation("value is not an ISO-8601 date").
			WithDetail("property", def.Name).
			WithDetail("value", t)
	default:
		return typeMismatch(def, "date", value)
	}
}

func (v *Validator) checkEnum(ctx context.Context, def *PropertyDefinition, value any) error {
	if def.IsBoundEnum() {
		if v.enums == nil {
			return apperror.NewValidation("no enum registry available").
				WithDetail("property", def.Name)
		}
		if _, err := v.enums.ResolveValue(ctx, *def.EnumTypeID, value); err != nil {
			return apperror.NewValidation("unknown enum value").
				WithDetail("property", def.Name).
				WithDetail("value", value).
				WithCause(err)
		}
		return nil
	}

	for _, opt := range def.EnumOptions {
		if s, ok := value.(string); ok && (s == opt.Value || s == opt.ID.String()) {
			return nil
		}
		if optID, ok := value.(id.ID); ok && optID == opt.ID {
			return nil
		}
	}
	return apperror.NewValidation("unknown enum option").
		WithDetail("property", def.Name).
		WithDetail("value", value)
}

func checkReference(def *PropertyDefinition, value any) error {
	switch r := value.(type) {
	case id.ID:
		if id.IsNil(r) {
			return typeMismatch(def, "reference", value)
		}
		return nil
	case string:
		if _, err := id.Parse(r); err != nil {
			return apperror.NewValidation("reference is not a valid id").
				WithDetail("property", def.Name).
				WithDetail("value", r)
		}
		return nil
	default:
		return typeMismatch(def, "reference", value)
	}
}

// checkExpression evaluates the optional CEL rule with the candidate bound
// to the "value" variable. The expression must evaluate to a boolean.
func (v *Validator) checkExpression(def *PropertyDefinition, value any) error {
	expr := def.ValidationRules.GetString(RuleExpression)
	if expr == "" {
		return nil
	}

	prg, err := v.program(expr)
	if err != nil {
		return apperror.NewValidation("invalid expression rule").
			WithDetail("property", def.Name).
			WithCause(err)
	}

	out, _, err := prg.Eval(map[string]any{"value": celValue(value)})
	if err != nil {
		return apperror.NewValidation("expression evaluation failed").
			WithDetail("property", def.Name).
			WithCause(err)
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return apperror.NewValidation("expression rule must return a boolean").
			WithDetail("property", def.Name)
	}
	if !ok {
		return apperror.NewValidation("value rejected by expression rule").
			WithDetail("property", def.Name)
	}
	return nil
}

func (v *Validator) program(expr string) (cel.Program, error) {
	if cached, ok := v.programs.Load(expr); ok {
		return cached.(cel.Program), nil
	}
	ast, iss := v.celEnv.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	prg, err := v.celEnv.Program(ast)
	if err != nil {
		return nil, err
	}
	v.programs.Store(expr, prg)
	return prg, nil
}

// celValue normalizes Go values for the CEL runtime.
func celValue(value any) any {
	switch n := value.(type) {
	case decimal.Decimal:
		f, _ := n.Float64()
		return f
	case json.Number:
		f, _ := n.Float64()
		return f
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float32:
		return float64(n)
	default:
		return value
	}
}

// ToDecimal converts any accepted numeric representation to a decimal.
func ToDecimal(value any) (decimal.Decimal, bool) {
	switch n := value.(type) {
	case decimal.Decimal:
		return n, true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	default:
		return decimal.Zero, false
	}
}

func typeMismatch(def *PropertyDefinition, want string, got any) *apperror.AppError {
	return apperror.NewValidation(fmt.Sprintf("value is not a %s", want)).
		WithDetail("property", def.Name).
		WithDetail("got", fmt.Sprintf("%T", got))
}
