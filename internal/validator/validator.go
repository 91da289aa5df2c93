// Package validator wraps go-playground/validator with the domain's
// custom validation rules.
package validator

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	"tirelire/internal/money"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// phoneRegex accepts international mobile-money numbers: optional leading
// +, 9 to 15 digits.
var phoneRegex = regexp.MustCompile(`^\+?\d{9,15}$`)

// instance returns the process-wide validator with custom rules registered.
func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("currency", validateCurrency)
		_ = validate.RegisterValidation("phone", validatePhone)
		_ = validate.RegisterValidation("transaction_type", validateTransactionType)
		_ = validate.RegisterValidation("category_type", validateCategoryType)
		_ = validate.RegisterValidation("reminder_type", validateReminderType)
	})
	return validate
}

// Struct validates a struct against its validate tags.
func Struct(s interface{}) error {
	return instance().Struct(s)
}

// Var validates a single value against a tag expression.
func Var(field interface{}, tag string) error {
	return instance().Var(field, tag)
}

func validateCurrency(fl validator.FieldLevel) bool {
	return money.ValidCurrency(fl.Field().String())
}

func validatePhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense":
		return true
	}
	return false
}

func validateCategoryType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense", "both":
		return true
	}
	return false
}

func validateReminderType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "payment", "bill", "general":
		return true
	}
	return false
}
