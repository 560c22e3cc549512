package stock

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ValidationResult is the outcome of a client-side validation pass.
// Validation is advisory: the backend may still reject a payload that passes here.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\s\-().]{5,19}$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// ValidateProduct checks a product payload
func ValidateProduct(in *ProductInput) ValidationResult {
	res := validateStruct(in)
	if in != nil && strings.TrimSpace(in.Name) == "" && in.Name != "" {
		res.add("Name is required")
	}
	return res
}

// ValidateSupplier checks a supplier payload
func ValidateSupplier(in *SupplierInput) ValidationResult {
	res := validateStruct(in)
	if in != nil && strings.TrimSpace(in.Name) == "" && in.Name != "" {
		res.add("Name is required")
	}
	return res
}

// ValidateTransaction checks a transaction draft
func ValidateTransaction(in *TransactionDraft) ValidationResult {
	return validateStruct(in)
}

// ValidateCredentials checks a login payload
func ValidateCredentials(in *Credentials) ValidationResult {
	return validateStruct(in)
}

func validateStruct(s any) ValidationResult {
	res := ValidationResult{IsValid: true, Errors: []string{}}
	if s == nil || reflect.ValueOf(s).IsNil() {
		res.add("Payload is required")
		return res
	}

	err := engine().Struct(s)
	if err == nil {
		return res
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res.add(err.Error())
		return res
	}
	for _, fe := range verrs {
		res.add(fieldMessage(fe))
	}
	return res
}

func (r *ValidationResult) add(msg string) {
	for _, e := range r.Errors {
		if e == msg {
			return
		}
	}
	r.IsValid = false
	r.Errors = append(r.Errors, msg)
}

func fieldMessage(fe validator.FieldError) string {
	label := fieldLabel(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "gte":
		if fe.Param() == "0" {
			return label + " must not be negative"
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "gt":
		if fe.Param() == "0" {
			return label + " must be greater than zero"
		}
		return fmt.Sprintf("%s must be greater than %s", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "email":
		return label + " must be a valid email address"
	case "phone":
		return label + " must be a valid phone number"
	case "url":
		return label + " must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return label + " is invalid"
}

// fieldLabel turns a json field name into a sentence-case label: "unit_price" -> "Unit price"
func fieldLabel(name string) string {
	if name == "" {
		return "Value"
	}
	words := strings.Split(name, "_")
	if words[len(words)-1] == "id" {
		words[len(words)-1] = "ID"
	}
	words[0] = strings.ToUpper(words[0][:1]) + words[0][1:]
	return strings.Join(words, " ")
}
