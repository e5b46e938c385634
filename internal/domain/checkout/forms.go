// internal/domain/checkout/forms.go
package checkout

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Step names the checkout step a form belongs to
type Step string

const (
	StepOne   Step = "step_one"
	StepTwo   Step = "step_two"
	StepThree Step = "step_three"
	StepFour  Step = "step_four"
)

// StepOneForm carries the contact fields
type StepOneForm struct {
	FIO   string `json:"fio" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
	Phone string `json:"phone" validate:"required,max=20"`
}

// StepTwoForm carries the delivery fields
type StepTwoForm struct {
	Delivery string `json:"delivery" validate:"required,oneof=ord exp"`
	City     string `json:"city" validate:"required,max=100"`
	Address  string `json:"address" validate:"required,max=255"`
}

// StepThreeForm carries the payment method
type StepThreeForm struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=card account"`
}

// ValidationError lists the rejected fields of one step
type ValidationError struct {
	Step   Step              `json:"step"`
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid %s form: %s", e.Step, strings.Join(names, ", "))
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validate trims the form's string fields and checks them
func validate(v *validator.Validate, step Step, form interface{}) error {
	trimStrings(form)

	err := v.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate %s form: %w", step, err)
	}

	verr := &ValidationError{Step: step, Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		verr.Fields[fe.Field()] = fieldMessage(fe)
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "invalid value"
	}
}

func trimStrings(form interface{}) {
	rv := reflect.ValueOf(form)
	if rv.Kind() != reflect.Ptr {
		return
	}
	rv = rv.Elem()
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() == reflect.String && f.CanSet() {
			f.SetString(strings.TrimSpace(f.String()))
		}
	}
}
