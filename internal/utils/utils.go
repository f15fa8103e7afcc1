package utils

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

type CustomErrorResponse struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func ValidationErr(err validator.ValidationErrors) []CustomErrorResponse {
	var errors []CustomErrorResponse
	for _, fieldErr := range err {
		errors = append(errors, CustomErrorResponse{
			Field:   fieldErr.Field(),
			Tag:     fieldErr.ActualTag(),
			Message: GetErrorMessage(fieldErr),
		})
	}
	return errors
}

// BindingErr converts a binding failure to the response body: a field list
// for validation failures, the error text otherwise.
func BindingErr(err error) any {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return ValidationErr(ve)
	}
	return err.Error()
}

func GetErrorMessage(fe validator.FieldError) string {
	switch fe.ActualTag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Must be at most %s characters long.", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters long.", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", fe.Param())
	default:
		return "Unknown validation error."
	}
}
