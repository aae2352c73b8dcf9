// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package fieldformat

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("fieldtype", func(fl validator.FieldLevel) bool {
		_, err := ParseFieldType(fl.Field().String())
		return err == nil
	})

	// Field names appear inside {*name*} references, so they cannot hold the
	// reference delimiters or surrounding whitespace.
	_ = validate.RegisterValidation("fieldname", func(fl validator.FieldLevel) bool {
		return validFieldName(fl.Field().String())
	})
}

func validFieldName(name string) bool {
	if strings.TrimSpace(name) != name || name == "" {
		return false
	}
	if strings.ContainsAny(name, "{}") || strings.Contains(name, "*") {
		return false
	}
	switch name[0] {
	case '!', '?', '&', '#', '$':
		return false
	}
	return true
}

// validateStruct checks struct tags and converts the first failure to a
// *ValidationError.
func validateStruct(field string, s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return &ValidationError{Field: field, Message: err.Error(), Err: err}
	}
	e := verrs[0]
	return &ValidationError{
		Field:   field,
		Tag:     e.Tag(),
		Value:   e.Value(),
		Message: formatValidationError(e),
		Err:     err,
	}
}

// formatValidationError creates a human-readable error message
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "fieldname":
		return fmt.Sprintf("%s %q cannot be used in field references", err.Field(), err.Value())
	case "fieldtype":
		return fmt.Sprintf("%s %q is not a known field type", err.Field(), err.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", err.Field(), err.Tag())
	}
}
