package services

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"pizzeria_back_end/internal/apperr"
)

var (
	pincodeRe  = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	cityRe     = regexp.MustCompile(`^[a-zA-Z\s\-.]+$`)
	phoneRe    = regexp.MustCompile(`^[6-9]\d{9}$`)
	passwordRe = regexp.MustCompile(`^[A-Za-z\d@$!%*?&]{8,20}$`)
)

// maxPrice is the first value that no longer fits NUMERIC(10,2).
var maxPrice = decimal.NewFromInt(100_000_000)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterValidation("pincode", matches(pincodeRe))
	v.RegisterValidation("cityname", matches(cityRe))
	v.RegisterValidation("phone", matches(phoneRe))
	v.RegisterValidation("password", matches(passwordRe))
	return v
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// validateStruct runs tag validation and reports the first failure as a
// validation error.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Internal(err, "internal server error")
	}
	return apperr.Validation("%s", describe(verrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid e-mail address", field)
	case "pincode":
		return fmt.Sprintf("%s must be 6 digits not starting with 0", field)
	case "cityname":
		return fmt.Sprintf("%s may contain only letters, spaces, '-' and '.'", field)
	case "phone":
		return fmt.Sprintf("%s must be a 10 digit mobile number", field)
	case "password":
		return fmt.Sprintf("%s must be 8-20 characters of letters, digits and @$!%%*?&", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// validatePrice accepts non-negative amounts with at most two decimals.
func validatePrice(field string, price decimal.Decimal) error {
	if price.IsNegative() {
		return apperr.Validation("%s must not be negative", field)
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return apperr.Validation("%s must be below %s", field, maxPrice)
	}
	if !price.Equal(price.Truncate(2)) {
		return apperr.Validation("%s must have at most 2 decimals", field)
	}
	return nil
}
