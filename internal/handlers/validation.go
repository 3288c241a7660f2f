package handlers

import (
	"errors"

	"github.com/escribo/planos-web/internal/models"
	"github.com/go-playground/validator/v10"
)

// fieldLabels names form fields the way the pages do
var fieldLabels = map[string]string{
	"Email":           "E-mail",
	"Password":        "Senha",
	"ConfirmPassword": "Confirmação de senha",
	"Topic":           "Tema",
}

// ParseValidationErrors converts validator errors to user-friendly format
func ParseValidationErrors(err error) []models.ValidationError {
	var result []models.ValidationError

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			result = append(result, models.ValidationError{
				Field:   fieldError.Field(),
				Message: getErrorMessage(fieldError),
			})
		}
	}

	return result
}

// FirstValidationMessage returns the message for the first invalid field, or
// fallback when err is not a validation error
func FirstValidationMessage(err error, fallback string) string {
	if details := ParseValidationErrors(err); len(details) > 0 {
		return details[0].Message
	}
	return fallback
}

func getErrorMessage(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return label + " é obrigatório"
	case "email":
		return "Formato de e-mail inválido"
	case "min":
		return label + " deve ter pelo menos " + fe.Param() + " caracteres"
	case "max":
		return label + " deve ter no máximo " + fe.Param() + " caracteres"
	default:
		return label + " é inválido"
	}
}
