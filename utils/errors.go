package utils

import (
	"errors"
	"fmt"
)

// ErrCutTimestep is the one recoverable failure: the enclosing time stepper
// is expected to retry the step with a smaller increment.
var ErrCutTimestep = errors.New("recoverable failure, cut the time step")

// ConfigError is a fatal configuration problem. It names the offending
// parameter and the conflicting condition.
type ConfigError struct {
	Param string
	Msg   string
}

func NewConfigError(param, format string, args ...any) *ConfigError {
	return &ConfigError{Param: param, Msg: fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid parameter '%s': %s", e.Param, e.Msg)
}

// TopologyError reports mesh or partition inconsistencies found at solve time.
type TopologyError struct {
	Msg string
}

func NewTopologyError(format string, args ...any) *TopologyError {
	return &TopologyError{Msg: fmt.Sprintf(format, args...)}
}

func (e *TopologyError) Error() string {
	return "topology error: " + e.Msg
}

// RecoverableError wraps ErrCutTimestep with the reason for the cut.
type RecoverableError struct {
	Reason string
}

func NewRecoverableError(format string, args ...any) *RecoverableError {
	return &RecoverableError{Reason: fmt.Sprintf(format, args...)}
}

func (e *RecoverableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCutTimestep.Error(), e.Reason)
}

func (e *RecoverableError) Unwrap() error { return ErrCutTimestep }

// IsRecoverable reports whether err asks the caller to cut the step.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrCutTimestep)
}
