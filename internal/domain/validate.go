package domain

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct runs tag-based validation and reports the first failing field
// as a *ValidationError.
func ValidateStruct(v any) error {
	err := structValidator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return Invalid(fieldPath(fe.Namespace()), describeTag(fe))
	}
	return Invalid("", err.Error())
}

// ValidateLocation checks struct tags plus invariants tags cannot express.
func ValidateLocation(loc *Location, registry *ActivityRegistry) error {
	if loc == nil {
		return Invalid("location", "is required")
	}
	if strings.TrimSpace(loc.ID) == "" {
		return Invalid("id", "is required")
	}
	if err := ValidateStruct(loc); err != nil {
		return err
	}

	for _, t := range loc.Types {
		if registry != nil && !registry.Has(t) {
			return Invalid("types", fmt.Sprintf("unknown activity type %q", t))
		}
	}
	if !loc.HasType(loc.PrimaryType) {
		return Invalid("primaryType", fmt.Sprintf("%q is not one of types", loc.PrimaryType))
	}
	return nil
}

// fieldPath drops the root struct name: "Location.AgeRange.Max" -> "AgeRange.Max".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must have at least " + fe.Param() + " item(s)"
	case "max":
		return "must have at most " + fe.Param() + " item(s)"
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "gtefield":
		return "must be >= " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}
