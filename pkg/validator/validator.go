package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FormatValidationError flattens validator field errors into a single
// readable message with one entry per failing field.
func FormatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, fieldError := range validationErrors {
			messages = append(messages, getFieldErrorMessage(fieldError))
		}
		return strings.Join(messages, "; ")
	}
	return err.Error()
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := fieldName(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or greater", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be %s or less", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func fieldName(field string) string {
	fieldNames := map[string]string{
		"Username":           "username",
		"Email":              "email",
		"Password":           "password",
		"RepeatedPassword":   "repeated_password",
		"Type":               "type",
		"Title":              "title",
		"Revisions":          "revisions",
		"DeliveryTimeInDays": "delivery_time_in_days",
		"Price":              "price",
		"Features":           "features",
		"OfferType":          "offer_type",
		"OfferDetailID":      "offer_detail_id",
		"BusinessUser":       "business_user",
		"Rating":             "rating",
		"Description":        "description",
		"Status":             "status",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}
