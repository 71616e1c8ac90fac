package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// validationMessage converts the first field error into a client-facing
// message, mirroring how the validator tags are used in the request structs.
func validationMessage(err error) string {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		for _, vErr := range vErrs {
			switch vErr.Tag() {
			case "required":
				return vErr.Field() + " value missing"
			case "min":
				return vErr.Field() + " value is less than " + vErr.Param()
			case "email":
				return vErr.Field() + " is not a valid email"
			default:
				return vErr.Field() + " is invalid"
			}
		}
	}
	return "invalid request body"
}
