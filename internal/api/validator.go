package api

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"outagealert/internal/types"
)

// ValidationError describes one failed field.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult collects field errors and non-blocking warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []string
}

// IsValid reports whether there are no errors. Warnings do not invalidate.
func (r ValidationResult) IsValid() bool { return len(r.Errors) == 0 }

// Validator wraps go-playground/validator with the domain tags:
//
//	event_kind    a lifecycle event name accepted by types.ParseEventKind
//	channel_type  a known delivery channel
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a Validator and registers the custom tags. Field names
// in errors use the json tag.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("event_kind", func(fl validator.FieldLevel) bool {
		_, ok := types.ParseEventKind(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("channel_type", func(fl validator.FieldLevel) bool {
		_, ok := types.ParseChannelType(fl.Field().String())
		return ok
	})

	return &Validator{validate: v, logger: logger}
}

// ValidateStruct validates s and returns an AppError whose code is that of
// the first failing field. All field errors are in Details["validation_errors"].
func (v *Validator) ValidateStruct(s any) error {
	result := v.ValidateStructWithWarnings(s)
	if result.IsValid() {
		return nil
	}

	first := result.Errors[0]
	return types.NewAppErrorWithDetails(
		types.ErrorCode(first.Code),
		first.Message,
		nil,
		map[string]any{"validation_errors": result.Errors},
	)
}

// ValidateStructWithWarnings validates s and returns every failure.
func (v *Validator) ValidateStructWithWarnings(s any) ValidationResult {
	var result ValidationResult

	err := v.validate.Struct(s)
	if err == nil {
		return result
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError: s is not a struct. A programming error.
		v.logger.Error("struct validation misuse", "error", err)
		result.Errors = append(result.Errors, ValidationError{
			Code:    string(types.ErrCodeValidationFailed),
			Message: "request could not be validated",
		})
		return result
	}

	for _, fe := range fieldErrs {
		result.Errors = append(result.Errors, ValidationError{
			Field:   fe.Field(),
			Code:    tagToErrorCode(fe.Tag()),
			Message: fieldMessage(fe),
		})
	}
	return result
}

func tagToErrorCode(tag string) string {
	switch tag {
	case "required":
		return string(types.ErrCodeValidationMissingField)
	case "event_kind":
		return string(types.ErrCodeValidationInvalidEvent)
	default:
		return string(types.ErrCodeValidationFailed)
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "event_kind":
		return fmt.Sprintf("%s must be one of created, updated, cancelled, restored", fe.Field())
	case "channel_type":
		return fmt.Sprintf("%s is not a known channel", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
