// Comexboard - Brazilian Foreign Trade Analytics Dashboard
// Copyright 2026 Comexboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/comexboard/comexboard

// Package validation validates API request structs with
// go-playground/validator v10. A thread-safe singleton instance carries the
// custom "period" validator for Comex Stat period strings.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/comexboard/comexboard/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	// Accepts "YYYY" and "YYYY-MM".
	periodPattern = regexp.MustCompile(`^\d{4}(-(0[1-9]|1[0-2]))?$`)
)

// FieldError is a single failed constraint on a request field.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

func (e FieldError) Error() string { return e.Message }

// RequestError collects every failed constraint of one validation pass.
type RequestError struct {
	Fields []FieldError
}

func (e *RequestError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(e.Fields))
	for i, fe := range e.Fields {
		messages[i] = fe.Message
	}
	return strings.Join(messages, "; ")
}

// ToAPIError renders the collected field errors in the API's stable error
// shape.
func (e *RequestError) ToAPIError() *models.APIError {
	apiErr := &models.APIError{
		Code:    models.ErrCodeValidation,
		Message: e.Error(),
	}
	if len(e.Fields) == 1 {
		apiErr.Details = map[string]interface{}{
			"field": e.Fields[0].Field,
			"tag":   e.Fields[0].Tag,
		}
		return apiErr
	}
	fields := make([]map[string]interface{}, len(e.Fields))
	for i, fe := range e.Fields {
		fields[i] = map[string]interface{}{
			"field":   fe.Field,
			"tag":     fe.Tag,
			"message": fe.Message,
		}
	}
	apiErr.Details = map[string]interface{}{"fields": fields}
	return apiErr
}

// Validator returns the singleton instance. It is initialized once and is
// safe for concurrent use; validator caches struct metadata internally.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// period: a Comex Stat period string, "2024" or "2024-03".
		_ = validate.RegisterValidation("period", func(fl validator.FieldLevel) bool {
			return periodPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Struct validates a request struct. It returns nil on success and a
// *RequestError carrying per-field messages on failure.
func Struct(s interface{}) *RequestError {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestError{Fields: []FieldError{{
			Field:   "unknown",
			Tag:     "unknown",
			Message: err.Error(),
		}}}
	}

	fields := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: message(fe),
		}
	}
	return &RequestError{Fields: fields}
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "period":
		return fmt.Sprintf("%s must be YYYY or YYYY-MM", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
