// Package errs provides standardized error types for the freight engine.
// It implements a consistent pattern for error creation, formatting, and unwrapping
// that is used throughout the application.
//
// The package includes several error types for common error scenarios:
//   - ValueIsRequiredError: For when a required value is missing
//   - ValueIsInvalidError: For when a value is invalid
//   - ObjectNotFoundError: For when an object cannot be found
//   - ValueIsOutOfRangeError: For numeric limits such as parcel weight bounds
//   - VersionIsInvalidError: For stale or mismatched versions
//   - AppError: The application-level taxonomy (INPUT, UPSTREAM, AUTHN, AUTHZ,
//     DB, CONFLICT, INTERNAL) carrying a machine code, a human sentence and
//     optional per-field messages
//
// Each error type follows a consistent pattern:
//   - A sentinel error variable (e.g., ErrValueIsRequired)
//   - A struct type with fields for error details
//   - Constructor functions with and without cause
//   - Error() method for formatting the error message
//   - Unwrap() method for error wrapping/unwrapping support
//
// Only the HTTP adapter turns these into status codes.
package errs
