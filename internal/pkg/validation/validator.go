// internal/pkg/validation/validator.go
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	alphaSpaceRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z .'-]*$`)
	digitsRegex     = regexp.MustCompile(`^[0-9]+$`)
)

// New returns a validator reading the same `binding` tags gin uses
func New() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	configure(v)
	return v
}

// RegisterGin installs the custom tags on gin's default validator
func RegisterGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	configure(v)
	return nil
}

func configure(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Letters and spaces, e.g. city and state names
	_ = v.RegisterValidation("alphaspace", func(fl validator.FieldLevel) bool {
		return alphaSpaceRegex.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		return digitsRegex.MatchString(fl.Field().String())
	})
}

// FieldErrors converts validator errors into plain messages keyed by JSON field name.
// It returns nil for any other error.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	case "alphaspace":
		return "Use letters and spaces only"
	case "digits":
		return "Use digits only"
	case "len":
		return fmt.Sprintf("Must be exactly %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s", fe.Param())
	default:
		return "Invalid value"
	}
}
