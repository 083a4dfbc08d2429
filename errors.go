package crann

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrFactoryCycle is the cause reported when a factory requests, directly
// or through its dependencies, the identifier it is building.
var ErrFactoryCycle = errors.New("factory requested its own identifier while building it")

// UnresolvableTypeError is returned when an identifier cannot be mapped to
// a constructible type.
type UnresolvableTypeError struct {
	// ID is the identifier that has no constructible type.
	ID string

	// Requested is the identifier originally asked for when ID was reached
	// through an alias. Empty otherwise.
	Requested string

	// Reason is set when ID is registered but cannot be built,
	// e.g. an interface without an InstanceOf rule.
	Reason string
}

func (e *UnresolvableTypeError) Error() string {
	msg := fmt.Sprintf("cannot resolve %q", e.ID)
	if e.Requested != "" && e.Requested != e.ID {
		msg += fmt.Sprintf(" (requested as %q)", e.Requested)
	}
	if e.Reason != "" {
		return msg + ": " + e.Reason
	}
	return msg + ": no type registered. Did you forget to Register it?"
}

// MissingArgumentError is returned when a constructor parameter cannot be
// satisfied by explicit arguments, rule parameters, dependency resolution
// or a default value.
type MissingArgumentError struct {
	ID    string
	Param string
	Index int
	Type  reflect.Type
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("cannot build %q: no value for parameter %d (%s %v)", e.ID, e.Index, e.Param, e.Type)
}

// ConstructionError is returned when building an identifier fails for a
// reason other than an unresolvable type or a missing argument: a
// constructor, factory or call returned an error, or a value had the
// wrong type.
type ConstructionError struct {
	ID    string
	Cause error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("failed to build %q: %v", e.ID, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ConstructionError) Unwrap() error {
	return e.Cause
}

// InvalidRuleError is returned by AddRule for rules that can never apply.
type InvalidRuleError struct {
	ID     string
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid rule %q: %s", e.ID, e.Reason)
}

// InvalidRegistrationError is returned when a type cannot be registered.
type InvalidRegistrationError struct {
	ID     string
	Reason string
}

func (e *InvalidRegistrationError) Error() string {
	return fmt.Sprintf("invalid registration %q: %s", e.ID, e.Reason)
}

// errorKind labels an error for metrics.
func errorKind(err error) string {
	var (
		unresolvable *UnresolvableTypeError
		missing      *MissingArgumentError
		construction *ConstructionError
	)
	switch {
	case errors.As(err, &unresolvable):
		return "unresolvable"
	case errors.As(err, &missing):
		return "missing_argument"
	case errors.As(err, &construction):
		return "construction"
	default:
		return "other"
	}
}
