package errors

import "maps"

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// User-facing input and configuration errors.
	CategoryConfig        ErrorCategory = "config"
	CategoryValidation    ErrorCategory = "validation"
	CategoryAuth          ErrorCategory = "auth"
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryAlreadyExists ErrorCategory = "already_exists"

	// External system integration errors.
	CategoryDatabase ErrorCategory = "database"
	CategoryNLP      ErrorCategory = "nlp"
	CategoryNetwork  ErrorCategory = "network"
	CategoryEvents   ErrorCategory = "events"

	// Local infrastructure errors.
	CategoryStorage ErrorCategory = "storage"
	CategoryArchive ErrorCategory = "archive"

	// Runtime and internal errors.
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how serious an error is for logging and escalation.
type ErrorSeverity string

const (
	SeverityInfo    ErrorSeverity = "info"
	SeverityWarning ErrorSeverity = "warning"
	SeverityError   ErrorSeverity = "error"
	SeverityFatal   ErrorSeverity = "fatal"
)

// RetryStrategy indicates whether and how an operation may be retried.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryImmediate  RetryStrategy = "immediate"
	RetryBackoff    RetryStrategy = "backoff"
	RetryRateLimit  RetryStrategy = "rate_limit"
	RetryUserAction RetryStrategy = "user_action"
)

// ErrorContext carries structured key/value diagnostics attached to an error.
type ErrorContext map[string]any

// Set returns a copy of the context with the key set.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	out := make(ErrorContext, len(c)+1)
	maps.Copy(out, c)
	out[key] = value
	return out
}

// Merge returns a copy of the context merged with other (other wins on conflicts).
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	out := make(ErrorContext, len(c)+len(other))
	maps.Copy(out, c)
	maps.Copy(out, other)
	return out
}
