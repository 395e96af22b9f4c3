package checkout

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// Form carries the checkout fields. Card details are validated for shape
// only; nothing here charges or stores them.
type Form struct {
	UserID              string // optional; generated when empty
	FullName            string `validate:"required"`
	Email               string `validate:"required,email"`
	Phone               string `validate:"required,phone"`
	DeliveryAddress     string `validate:"required"`
	SpecialInstructions string
	CardNumber          string `validate:"required,card_number"`
	ExpiryDate          string `validate:"required,card_expiry"`
	CVV                 string `validate:"required,card_cvv"`
}

var (
	phoneSeparators = regexp.MustCompile(`[\s\-()]`)
	phoneRe         = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
	cardNumberRe    = regexp.MustCompile(`^\d{16}$`)
	cardExpiryRe    = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cardCVVRe       = regexp.MustCompile(`^\d{3,4}$`)
)

// newValidator returns a validator with the storefront's custom field
// rules registered.
func newValidator() *validatorv10.Validate {
	v := validatorv10.New()

	must := func(tag string, fn validatorv10.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s: %v", tag, err))
		}
	}

	must("phone", func(fl validatorv10.FieldLevel) bool {
		cleaned := phoneSeparators.ReplaceAllString(fl.Field().String(), "")
		return phoneRe.MatchString(cleaned)
	})
	must("card_number", func(fl validatorv10.FieldLevel) bool {
		cleaned := strings.ReplaceAll(fl.Field().String(), " ", "")
		return cardNumberRe.MatchString(cleaned)
	})
	must("card_expiry", func(fl validatorv10.FieldLevel) bool {
		return cardExpiryRe.MatchString(fl.Field().String())
	})
	must("card_cvv", func(fl validatorv10.FieldLevel) bool {
		return cardCVVRe.MatchString(fl.Field().String())
	})

	return v
}

// ValidationError carries per-field messages. No network call was made
// and the cart is untouched when this is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

var fieldMessages = map[string]string{
	"Email":      "Please enter a valid email address",
	"Phone":      "Please enter a valid phone number",
	"CardNumber": "Please enter a valid 16-digit card number",
	"ExpiryDate": "Please enter a valid expiry date (MM/YY)",
	"CVV":        "Please enter a valid CVV",
}

// validationErrorFrom maps validator errors to user-facing field messages.
func validationErrorFrom(err error) *ValidationError {
	out := &ValidationError{Fields: map[string]string{}}

	ve, ok := err.(validatorv10.ValidationErrors)
	if !ok {
		out.Fields["form"] = err.Error()
		return out
	}
	for _, fe := range ve {
		if fe.Tag() == "required" {
			out.Fields[fe.Field()] = "This field is required"
			continue
		}
		if msg, ok := fieldMessages[fe.Field()]; ok {
			out.Fields[fe.Field()] = msg
			continue
		}
		out.Fields[fe.Field()] = fmt.Sprintf("invalid value for %s", fe.Field())
	}
	return out
}
