package model

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input: a bad dpid, an inverted snake range,
// an unknown scenario name or an out-of-range header value. It is always fatal
// and is raised before anything is sent to a switch.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Msg
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Msg)
}

// Invalid builds a ValidationError with a formatted message.
func Invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// ControlPlaneError reports a non-success answer (or no answer at all) from the
// switch-control or metrics interface.
type ControlPlaneError struct {
	Op         string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *ControlPlaneError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s %s: status %d: %s", e.Op, e.URL, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s %s: status %d", e.Op, e.URL, e.StatusCode)
	}
}

func (e *ControlPlaneError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsControlPlane reports whether err carries a ControlPlaneError.
func IsControlPlane(err error) bool {
	var c *ControlPlaneError
	return errors.As(err, &c)
}
