// Package errs provides the error types raised by the gormscope library itself.
// Data-layer failures (connectivity, constraint violations, statement errors)
// are never wrapped: callers receive the native gorm/driver errors unchanged.
// The library adds its own types only for construction problems and for
// lifecycle misuse of a session or a scope.
//
// Each error type follows a consistent pattern:
//   - A sentinel error variable (e.g. ErrSessionClosed)
//   - A struct type with fields for error details
//   - Constructor functions with and without cause
//   - Error() method for formatting the error message
//   - Unwrap() method so errors.Is matches the sentinel
//
// This keeps error classification uniform: errors.Is(err, errs.ErrSessionClosed)
// detects lifecycle bugs regardless of which operation surfaced them, while the
// struct fields preserve the operation name and the underlying cause.
package errs
