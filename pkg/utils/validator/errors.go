package validator

import (
	"fmt"
	"strings"
)

// ValidationErrors collects per-field validation failures.
type ValidationErrors struct {
	Errors []FieldError `json:"errors"`
}

// FieldError describes a single field validation failure.
type FieldError struct {
	// Field name (from JSON/form tag)
	Field string `json:"field"`
	// Tag is the validation tag that failed
	Tag string `json:"tag"`
	// Value is the actual value that failed
	Value interface{} `json:"value,omitempty"`
	// Param is the validation parameter
	Param string `json:"param,omitempty"`
	// Message is the human-readable error message
	Message string `json:"message"`
}

// Error implements the error interface.
func (v *ValidationErrors) Error() string {
	if v == nil || len(v.Errors) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("validation failed: ")
	for i, fe := range v.Errors {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(fe.Message)
	}
	return sb.String()
}

// HasErrors reports whether any validation errors were recorded.
func (v *ValidationErrors) HasErrors() bool {
	return v != nil && len(v.Errors) > 0
}

// Count returns the number of validation errors.
func (v *ValidationErrors) Count() int {
	if v == nil {
		return 0
	}
	return len(v.Errors)
}

// First returns the first error message, or "" if there are none.
func (v *ValidationErrors) First() string {
	if v == nil || len(v.Errors) == 0 {
		return ""
	}
	return v.Errors[0].Message
}

// FirstField returns the first error's field name, or "" if there are none.
func (v *ValidationErrors) FirstField() string {
	if v == nil || len(v.Errors) == 0 {
		return ""
	}
	return v.Errors[0].Field
}

// Messages returns all error messages.
func (v *ValidationErrors) Messages() []string {
	if v == nil || len(v.Errors) == 0 {
		return nil
	}

	messages := make([]string, len(v.Errors))
	for i, fe := range v.Errors {
		messages[i] = fe.Message
	}
	return messages
}

// ByField groups error messages by field name.
func (v *ValidationErrors) ByField() map[string][]string {
	if v == nil || len(v.Errors) == 0 {
		return nil
	}

	result := make(map[string][]string)
	for _, fe := range v.Errors {
		result[fe.Field] = append(result[fe.Field], fe.Message)
	}
	return result
}

// ForField returns the error messages for a specific field.
func (v *ValidationErrors) ForField(field string) []string {
	if v == nil || len(v.Errors) == 0 {
		return nil
	}

	var messages []string
	for _, fe := range v.Errors {
		if fe.Field == field {
			messages = append(messages, fe.Message)
		}
	}
	return messages
}

// ToMap converts validation errors into a JSON-response-friendly map.
func (v *ValidationErrors) ToMap() map[string]interface{} {
	if v == nil || len(v.Errors) == 0 {
		return nil
	}

	return map[string]interface{}{
		"errors": v.Errors,
		"count":  len(v.Errors),
	}
}

// String implements fmt.Stringer.
func (v *ValidationErrors) String() string {
	return v.Error()
}

// Format implements fmt.Formatter; %+v prints one line per field error.
func (v *ValidationErrors) Format(f fmt.State, verb rune) {
	switch verb {
	case 'v':
		if f.Flag('+') {
			_, _ = fmt.Fprintf(f, "ValidationErrors(%d):\n", v.Count())
			for i, fe := range v.Errors {
				_, _ = fmt.Fprintf(f, "  [%d] %s: %s (tag=%s", i, fe.Field, fe.Message, fe.Tag)
				if fe.Param != "" {
					_, _ = fmt.Fprintf(f, ", param=%s", fe.Param)
				}
				if fe.Value != nil {
					_, _ = fmt.Fprintf(f, ", value=%v", fe.Value)
				}
				_, _ = fmt.Fprint(f, ")\n")
			}
		} else {
			_, _ = fmt.Fprint(f, v.Error())
		}
	case 's':
		_, _ = fmt.Fprint(f, v.Error())
	case 'q':
		_, _ = fmt.Fprintf(f, "%q", v.Error())
	}
}

// Append adds a field error.
func (v *ValidationErrors) Append(field, tag, message string) {
	v.Errors = append(v.Errors, FieldError{
		Field:   field,
		Tag:     tag,
		Message: message,
	})
}

// AppendError adds a FieldError.
func (v *ValidationErrors) AppendError(fe FieldError) {
	v.Errors = append(v.Errors, fe)
}

// NewValidationError creates a ValidationErrors holding a single error.
func NewValidationError(field, tag, message string) *ValidationErrors {
	return &ValidationErrors{
		Errors: []FieldError{{
			Field:   field,
			Tag:     tag,
			Message: message,
		}},
	}
}

// NewValidationErrors creates an empty ValidationErrors.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]FieldError, 0),
	}
}
