// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldError is a validation failure of one configuration field.
type FieldError struct {
	// Field is the dotted YAML path of the field, e.g. "pool.max_total".
	Field string
	// Message describes the failure.
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError collects every FieldError found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "httpexec/config: invalid configuration"
	case 1:
		return "httpexec/config: invalid configuration: " + e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "httpexec/config: invalid configuration (%d errors):", len(e.Errors))
	for _, fe := range e.Errors {
		sb.WriteString("\n  - ")
		sb.WriteString(fe.Error())
	}
	return sb.String()
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks cfg and returns a ValidationError listing every
// invalid field, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError

	if err := structValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("httpexec/config: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, FieldError{
				Field:   fieldPath(fe.Namespace()),
				Message: message(fe),
			})
		}
	}

	if cfg.Pool.MaxPerRoute > cfg.Pool.MaxTotal && cfg.Pool.MaxTotal > 0 {
		errs = append(errs, FieldError{
			Field:   "pool.max_per_route",
			Message: fmt.Sprintf("must not exceed pool.max_total (%d)", cfg.Pool.MaxTotal),
		})
	}
	if cfg.Retry.WaitMax < cfg.Retry.WaitBase {
		errs = append(errs, FieldError{
			Field:   "retry.wait_max",
			Message: fmt.Sprintf("must be at least retry.wait_base (%s)", cfg.Retry.WaitBase),
		})
	}
	if cfg.Evictor.Enabled && cfg.Evictor.Interval <= 0 {
		errs = append(errs, FieldError{
			Field:   "evictor.interval",
			Message: "must be positive when the evictor is enabled",
		})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(ns string) string {
	_, path, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	return path
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "ip":
		return fmt.Sprintf("must be an IP address, got %q", fe.Value())
	case "hostname_port":
		return fmt.Sprintf("must be host:port, got %q", fe.Value())
	}
	return "failed " + fe.Tag() + " validation"
}
