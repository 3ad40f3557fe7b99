package gen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/skellig/stencil/model"
)

// Sentinel errors for common failure cases.
var (
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("stencil: missing configuration")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("stencil: code generation failed")
	// ErrValidationFailed indicates a model validation failure.
	ErrValidationFailed = errors.New("stencil: validation failed")
	// ErrUnsupportedShape indicates a shape kind the generator refuses to
	// guess a rendering for.
	ErrUnsupportedShape = errors.New("stencil: unsupported shape")
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("stencil: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("stencil: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// GenerationError represents a code generation error.
type GenerationError struct {
	Phase   string // "errors", "models", "output", "generator", etc.
	Shape   model.ShapeID
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("stencil: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.Shape != "" {
		b.WriteString(" (shape: ")
		b.WriteString(e.Shape.String())
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase string, shape model.ShapeID, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:   phase,
		Shape:   shape,
		Message: message,
		Cause:   cause,
	}
}

// ValidationError represents a model validation error.
type ValidationError struct {
	Shape   model.ShapeID
	Reason  string
	Cause   error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("stencil: validation error")
	if e.Shape != "" {
		b.WriteString(" on shape ")
		b.WriteString(e.Shape.String())
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// NewValidationError creates a new ValidationError.
func NewValidationError(shape model.ShapeID, reason string, cause error) *ValidationError {
	return &ValidationError{
		Shape:  shape,
		Reason: reason,
		Cause:  cause,
	}
}

// UnsupportedShapeError reports a shape kind encountered during rendering
// that the generator was deliberately never taught. Skipping it silently
// would hide a miscompilation, so it is fatal.
type UnsupportedShapeError struct {
	Shape   model.ShapeID
	Kind    model.Kind
	Context string
}

// Error implements the error interface.
func (e *UnsupportedShapeError) Error() string {
	var b strings.Builder
	b.WriteString("stencil: unsupported shape ")
	b.WriteString(e.Shape.String())
	b.WriteString(" of kind ")
	b.WriteString(e.Kind.String())
	if e.Context != "" {
		b.WriteString(" while rendering ")
		b.WriteString(e.Context)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for UnsupportedShapeError.
func (e *UnsupportedShapeError) Is(target error) bool {
	return target == ErrUnsupportedShape
}

// NewUnsupportedShapeError creates a new UnsupportedShapeError.
func NewUnsupportedShapeError(s *model.Shape, context string) *UnsupportedShapeError {
	return &UnsupportedShapeError{
		Shape:   s.ID,
		Kind:    s.Kind,
		Context: context,
	}
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}

// IsValidationError reports whether the error is a ValidationError.
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// IsUnsupportedShapeError reports whether the error is an UnsupportedShapeError.
func IsUnsupportedShapeError(err error) bool {
	var unsupportedErr *UnsupportedShapeError
	return errors.As(err, &unsupportedErr)
}
