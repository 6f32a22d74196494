package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator adapts go-playground/validator to echo's Validator interface
type Validator struct {
	validate *validator.Validate
}

// New returns a validator that reports fields by their json names
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Validate implements echo.Validator
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &Error{}
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out.Missing = append(out.Missing, fe.Field())
		case "oneof":
			out.Invalid = append(out.Invalid, fmt.Sprintf("%s must be one of: %s",
				fe.Field(), strings.Join(strings.Fields(fe.Param()), ", ")))
		case "uuid", "uuid4":
			out.Invalid = append(out.Invalid, fmt.Sprintf("%s must be a valid UUID", fe.Field()))
		case "email":
			out.Invalid = append(out.Invalid, fmt.Sprintf("%s must be a valid email address", fe.Field()))
		default:
			out.Invalid = append(out.Invalid, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return out
}

// Error lists the fields that failed validation
type Error struct {
	Missing []string
	Invalid []string
}

// Error renders missing fields first, in declaration order.
func (e *Error) Error() string {
	if len(e.Missing) > 0 {
		return RequiredMessage(e.Missing...)
	}
	return strings.Join(e.Invalid, "; ")
}

// RequiredMessage formats "a is required", "a and b are required" or
// "a, b, and c are required".
func RequiredMessage(fields ...string) string {
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return fields[0] + " is required"
	case 2:
		return fields[0] + " and " + fields[1] + " are required"
	default:
		return strings.Join(fields[:len(fields)-1], ", ") + ", and " + fields[len(fields)-1] + " are required"
	}
}
