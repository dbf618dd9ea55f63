package sketchvm

import "fmt"

// ErrorKind is the closed error taxonomy of spec §7. It is not a Go
// error-wrapping abstraction: like the teacher's own errors.go, each
// kind is a small concrete struct implementing `error` directly.
type ErrorKind string

const (
	KindConfigurationError   ErrorKind = "ConfigurationError"
	KindUndefinedReference   ErrorKind = "UndefinedReference"
	KindTypeError            ErrorKind = "TypeError"
	KindNullDereference      ErrorKind = "NullDereference"
	KindOutOfBounds          ErrorKind = "OutOfBounds"
	KindArgumentMismatch     ErrorKind = "ArgumentMismatch"
	KindLimitReached         ErrorKind = "LimitReached"
	KindInternalInvariant    ErrorKind = "InternalInvariant"
)

// EngineError is implemented by every error kind so callers can recover
// the taxonomy tag and decide recoverable-vs-fatal handling (spec §7).
type EngineError interface {
	error
	Kind() ErrorKind
	// Fatal reports whether this error must transition the execution
	// controller to ERROR and halt emission, vs. yielding `unit` for
	// the offending expression and continuing (spec §7 policy).
	Fatal() bool
}

type ConfigurationError struct{ Message string }

func (e *ConfigurationError) Error() string  { return "configuration error: " + e.Message }
func (e *ConfigurationError) Kind() ErrorKind { return KindConfigurationError }
func (e *ConfigurationError) Fatal() bool     { return true }

type UndefinedReferenceError struct{ Message string }

func (e *UndefinedReferenceError) Error() string  { return "undefined reference: " + e.Message }
func (e *UndefinedReferenceError) Kind() ErrorKind { return KindUndefinedReference }
func (e *UndefinedReferenceError) Fatal() bool     { return false }

type TypeError struct{ Message string }

func (e *TypeError) Error() string  { return "type error: " + e.Message }
func (e *TypeError) Kind() ErrorKind { return KindTypeError }
func (e *TypeError) Fatal() bool     { return false }

type NullDereferenceError struct{ Message string }

func (e *NullDereferenceError) Error() string  { return "null dereference: " + e.Message }
func (e *NullDereferenceError) Kind() ErrorKind { return KindNullDereference }
func (e *NullDereferenceError) Fatal() bool     { return false }

type OutOfBoundsError struct{ Message string }

func (e *OutOfBoundsError) Error() string  { return "out of bounds: " + e.Message }
func (e *OutOfBoundsError) Kind() ErrorKind { return KindOutOfBounds }
func (e *OutOfBoundsError) Fatal() bool     { return false }

type ArgumentMismatchError struct{ Message string }

func (e *ArgumentMismatchError) Error() string  { return "argument mismatch: " + e.Message }
func (e *ArgumentMismatchError) Kind() ErrorKind { return KindArgumentMismatch }
func (e *ArgumentMismatchError) Fatal() bool     { return false }

// LimitReachedError is not an error per se (spec §7) — it is carried
// through the same taxonomy so callers have one place to look, but the
// controller emits LOOP_LIMIT_REACHED rather than an ERROR record for it.
type LimitReachedError struct{ Message string }

func (e *LimitReachedError) Error() string  { return "loop limit reached: " + e.Message }
func (e *LimitReachedError) Kind() ErrorKind { return KindLimitReached }
func (e *LimitReachedError) Fatal() bool     { return false }

type InternalInvariantError struct{ Message string }

func (e *InternalInvariantError) Error() string {
	return fmt.Sprintf("internal invariant violated: %s", e.Message)
}
func (e *InternalInvariantError) Kind() ErrorKind { return KindInternalInvariant }
func (e *InternalInvariantError) Fatal() bool     { return true }

// AsEngineError extracts the EngineError view of err, wrapping unknown
// errors as an InternalInvariantError so every failure path has a Kind.
func AsEngineError(err error) EngineError {
	if err == nil {
		return nil
	}
	if ee, ok := err.(EngineError); ok {
		return ee
	}
	return &InternalInvariantError{Message: err.Error()}
}
