package validation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sadopc/worklog/internal/apperr"
	"github.com/sadopc/worklog/internal/resource"
)

// ExistsFunc reports whether a row with the given id exists in table.
type ExistsFunc func(ctx context.Context, table string, id int64) (bool, error)

// Validator checks payloads against per-resource rule strings such as
// "required,exists=tasks" using go-playground/validator.
type Validator struct {
	v      *validator.Validate
	exists ExistsFunc
}

// New builds a validator with the "date" and "exists" rules registered.
// A nil exists func makes every exists rule pass.
func New(exists ExistsFunc) *Validator {
	val := &Validator{v: validator.New(), exists: exists}
	_ = val.v.RegisterValidation("date", validateDate)
	_ = val.v.RegisterValidationCtx("exists", val.validateExists)
	return val
}

// Validate checks payload against rules. When partial is set only keys present
// in the payload are checked, which is what edits need. Failures come back as a
// single validation error carrying field -> messages.
func (val *Validator) Validate(ctx context.Context, rules map[string]string, payload resource.Row, partial bool) error {
	fields := make(map[string][]string)

	keys := make([]string, 0, len(rules))
	for k := range rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, field := range keys {
		rule := rules[field]
		value, present := payload[field]
		required := hasTag(rule, "required")

		if !present || value == nil {
			if required && !(partial && !present) {
				fields[field] = append(fields[field], fmt.Sprintf("The %s field is required.", field))
			}
			continue
		}

		err := val.v.VarCtx(ctx, value, rule)
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate %s: %w", field, err)
		}
		for _, fe := range verrs {
			fields[field] = append(fields[field], message(field, fe))
		}
	}

	if len(fields) > 0 {
		return apperr.Validation(fields)
	}
	return nil
}

func hasTag(rule, tag string) bool {
	for _, part := range strings.Split(rule, ",") {
		name, _, _ := strings.Cut(part, "=")
		if name == tag {
			return true
		}
	}
	return false
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := resource.ParseTime(fl.Field().Interface(), nil)
	return err == nil
}

// validateExists checks a foreign key. Format: exists=<table>.
func (val *Validator) validateExists(ctx context.Context, fl validator.FieldLevel) bool {
	table := fl.Param()
	if table == "" {
		return false
	}
	id, ok := resource.ToInt64(fl.Field().Interface())
	if !ok || id <= 0 {
		return false
	}
	if val.exists == nil {
		return true
	}
	found, err := val.exists(ctx, table, id)
	if err != nil {
		return false
	}
	return found
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "exists":
		return fmt.Sprintf("The selected %s is invalid.", field)
	case "date":
		return fmt.Sprintf("The %s is not a valid date.", field)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s.", field, fe.Param())
	case "min":
		return fmt.Sprintf("The %s must be at least %s.", field, fe.Param())
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", field)
	}
	return fmt.Sprintf("The %s field failed the %s rule.", field, fe.Tag())
}
