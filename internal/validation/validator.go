package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"showcase/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator with the custom rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
			return ValidatePhone(fl.Field().String()) == nil
		})
		mustRegister(v, "country_code", func(fl validator.FieldLevel) bool {
			return ValidateCountryCode(fl.Field().String()) == nil
		})
		mustRegister(v, "strong_password", func(fl validator.FieldLevel) bool {
			return ValidatePassword(fl.Field().String()) == nil
		})
		mustRegister(v, "image_url", func(fl validator.FieldLevel) bool {
			return IsImageURL(fl.Field().String())
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// IsImageURL reports whether s is an absolute http or https URL.
func IsImageURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// Struct validates s and converts failures into a single validation
// AppError listing every offending field.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.NewValidationError(err.Error())
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fieldMessage(fe))
	}
	return models.NewFieldValidationError(messages)
}

// Var validates a single value against tag.
func Var(field string, value any, tag string) error {
	err := Validator().Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return models.NewValidationError(field + " " + describe(verrs[0]))
	}
	return models.NewValidationError(err.Error())
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Namespace()
	if _, rest, ok := strings.Cut(name, "."); ok {
		name = rest
	}
	return name + " " + describe(fe)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map {
			return fmt.Sprintf("must have at least %s items", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map {
			return fmt.Sprintf("must have at most %s items", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must contain 7 to 15 digits"
	case "country_code":
		return "must look like +1"
	case "strong_password":
		return "must be 8+ characters with upper, lower, digit and special characters"
	case "image_url", "url", "http_url":
		return "must be an http or https URL"
	default:
		return fmt.Sprintf("is invalid (%s)", fe.Tag())
	}
}
