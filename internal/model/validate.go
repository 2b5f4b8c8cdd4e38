package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateDevice checks a Device for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the device is valid.
func ValidateDevice(d *Device) error {
	var ve ValidationError

	// ID: caller-chosen, opaque; the only constraint is non-empty.
	if strings.TrimSpace(d.ID) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "id", Message: "is required"})
	}

	// Status: must be a valid enum value (closed set).
	if !d.Status.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "status",
			Message: fmt.Sprintf("invalid value %q", d.Status),
		})
	}

	if d.Vitals.SpO2 < 0 || d.Vitals.SpO2 > 100 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "vitals.spo2",
			Message: fmt.Sprintf("must be between 0 and 100, got %d", d.Vitals.SpO2),
		})
	}
	if d.Vitals.Battery < 0 || d.Vitals.Battery > 100 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "vitals.battery",
			Message: fmt.Sprintf("must be between 0 and 100, got %d", d.Vitals.Battery),
		})
	}
	if d.Vitals.HeartRate < 0 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "vitals.heart_rate",
			Message: "must not be negative",
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateCaregiver checks a Caregiver for constraint violations.
func ValidateCaregiver(c *Caregiver) error {
	var ve ValidationError

	if strings.TrimSpace(c.DeviceID) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "device_id", Message: "is required"})
	}
	if strings.TrimSpace(c.Name) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "name", Message: "is required"})
	}
	// Priority: positive, unique within the device's roster. Uniqueness is
	// enforced by the store; only positivity is checked here.
	if c.Priority < 1 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "priority",
			Message: fmt.Sprintf("must be a positive integer, got %d", c.Priority),
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
