// Package validate wraps go-playground/validator with error messages fit for
// API responses and console notifications.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return v
}

// ErrInvalid matches every validation failure with errors.Is.
var ErrInvalid = errors.New("invalid input")

// Errors lists field-level validation failures.
type Errors []FieldError

// FieldError is one failed rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func (e FieldError) String() string {
	switch e.Rule {
	case "required":
		return e.Field + " is required"
	case "email":
		return e.Field + " must be a valid email address"
	case "e164":
		return e.Field + " must be a phone number in international format"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", e.Field, e.Param)
	case "gt":
		return fmt.Sprintf("%s must be more than %s", e.Field, e.Param)
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", e.Field, e.Param)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", e.Field, e.Param)
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", e.Field, e.Param)
	}
	return fmt.Sprintf("%s failed %s", e.Field, e.Rule)
}

func (es Errors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.String()
	}
	return strings.Join(msgs, "; ")
}

// Is makes Errors match ErrInvalid.
func (es Errors) Is(target error) bool { return target == ErrInvalid }

// UserMessage makes validation errors displayable as-is.
func (es Errors) UserMessage() string { return es.Error() }

// Struct validates s against its `validate` tags. The returned error is an
// Errors value when rules fail.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	out := make(Errors, 0, len(ves))
	for _, fe := range ves {
		out = append(out, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
	}
	return out
}
