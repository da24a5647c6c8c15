// Package validator checks decoded marketplace requests with
// go-playground/validator. Beyond the built-in tags it registers "amount",
// a non-negative decimal string no finer than one wei and no larger than
// uint256 wei, and "price", the same bounds with any sign.
package validator

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/ghuser/nftmarket/pkg/httpx"
	"github.com/ghuser/nftmarket/pkg/money"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("amount", validateAmount); err != nil {
		panic(err)
	}
	// Non-positive prices are left to the ledger, which answers PriceTooLow.
	if err := v.RegisterValidation("price", validatePrice); err != nil {
		panic(err)
	}
	return v
}

func validateAmount(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
	if err != nil || d.IsNegative() {
		return false
	}
	return money.Check(d) == nil
}

func validatePrice(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
	if err != nil {
		return false
	}
	return money.Check(d) == nil
}

// Validate runs struct-level validation.
func Validate(s any) error {
	return validate.Struct(s)
}

// Var validates a single value against tag, e.g. Var(addr, "required,eth_addr").
func Var(field any, tag string) error {
	return validate.Var(field, tag)
}

// FormatValidationErrors maps each failing field to a readable message.
func FormatValidationErrors(err error) map[string]string {
	errs := make(map[string]string)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errs
	}
	for _, e := range ve {
		errs[e.Field()] = formatFieldError(e)
	}
	return errs
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "max":
		return fmt.Sprintf("Maximum length is %s", e.Param())
	case "eth_addr":
		return "Must be a 0x-prefixed 20-byte hex address"
	case "amount":
		return "Must be a non-negative decimal with at most 18 fractional digits"
	case "price":
		return "Must be a decimal with at most 18 fractional digits"
	default:
		return fmt.Sprintf("Validation failed on '%s'", e.Tag())
	}
}

// ValidateRequest decodes the JSON body into T and validates it, answering
// 400/413 for a bad body and 422 for invalid fields. It reports whether the
// handler may continue.
func ValidateRequest[T any](w http.ResponseWriter, r *http.Request) (*T, bool) {
	var req T
	if status, err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, status, err.Error())
		return nil, false
	}
	if err := Validate(&req); err != nil {
		httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "Validation failed",
			"fields": FormatValidationErrors(err),
		})
		return nil, false
	}
	return &req, true
}
