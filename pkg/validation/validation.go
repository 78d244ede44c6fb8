package validation

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"counselhub/pkg/errors"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator with the project's custom tags registered.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		registerCustomRules(validate)
	})
	return validate
}

// Struct validates v and converts the first failure into a VALIDATION_ERROR.
func Struct(v interface{}) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return errors.Validation(Message(fieldErrs[0]), err)
	}
	return errors.Validation("Invalid input data", err)
}

// Message renders a single field failure the way API clients see it.
func Message(fe validator.FieldError) string {
	field := fe.Field()
	param := fe.Param()

	switch fe.Tag() {
	case "required", "required_without":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return field + " must be at least " + param + " characters"
		}
		return field + " must be at least " + param
	case "max":
		if fe.Kind() == reflect.String {
			return field + " must be at most " + param + " characters"
		}
		return field + " must be at most " + param
	case "oneof":
		return field + " must be one of: " + param
	case "email":
		return field + " must be a valid email address"
	case "rating":
		return field + " must be between 1 and 5"
	case "notblank":
		return field + " must not be blank"
	default:
		return field + " is invalid"
	}
}

func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic("validation: failed to register tag " + tag + ": " + err.Error())
		}
	}

	// 'rating': 1..5, zero means "not chosen" and is rejected.
	mustRegister("rating", func(fl validator.FieldLevel) bool {
		r := fl.Field().Int()
		return r >= 1 && r <= 5
	})

	// 'notblank': rejects text made only of whitespace. An empty value passes, so
	// pair it with required or required_without.
	mustRegister("notblank", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || strings.TrimSpace(s) != ""
	})
}
