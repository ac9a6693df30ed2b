// Package validation configures the shared struct validator and formats its
// errors for API responses.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/yashy10/golden-gate-quest/internal/quest"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Get returns the process-wide validator with the custom tags registered.
func Get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonName)
		_ = v.RegisterValidation("category", validateCategory)
		instance = v
	})
	return instance
}

func Struct(s any) error {
	return Get().Struct(s)
}

func validateCategory(fl validator.FieldLevel) bool {
	return quest.Category(fl.Field().String()).Valid()
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// Format turns validator errors into a field to message map. Errors that
// did not come from the validator collapse to a single "error" entry.
func Format(err error) map[string]string {
	if err == nil {
		return nil
	}

	out := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["error"] = "Invalid request format"
		return out
	}

	for _, e := range verrs {
		field := fieldPath(e.Namespace())
		switch e.Tag() {
		case "required", "required_if":
			out[field] = "This field is required"
		case "oneof":
			out[field] = fmt.Sprintf("Must be one of: %s", e.Param())
		case "category":
			out[field] = "Unknown category"
		case "latitude", "longitude":
			out[field] = "Invalid coordinate"
		case "min":
			out[field] = fmt.Sprintf("Must have at least %s entries", e.Param())
		case "max":
			out[field] = fmt.Sprintf("Must have at most %s entries", e.Param())
		case "unique":
			out[field] = "Must not contain duplicates"
		default:
			out[field] = "Invalid value"
		}
	}
	return out
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
