package errors

// ErrorBuilder provides a fluent API for creating ClassifiedError instances.
// This makes error creation consistent and discoverable throughout the codebase.
type ErrorBuilder struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

// NewError creates a new ErrorBuilder with the specified category and message.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		context:  make(ErrorContext),
	}
}

// WrapError creates a new ErrorBuilder that wraps an existing error. The
// builder starts from the same per-category defaults as the convenience
// constructors, so wrapping a database failure yields a retryable error.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	b := builderFor(category, message)
	b.cause = err
	return b
}

// builderFor returns the convenience constructor matching the category.
func builderFor(category ErrorCategory, message string) *ErrorBuilder {
	switch category {
	case CategoryConfig:
		return ConfigError(message)
	case CategoryValidation:
		return ValidationError(message)
	case CategoryAuth:
		return AuthError(message)
	case CategoryNotFound:
		return NotFoundError(message)
	case CategoryAlreadyExists:
		return AlreadyExistsError(message)
	case CategoryDatabase:
		return DatabaseError(message)
	case CategoryNLP:
		return NLPError(message)
	case CategoryNetwork:
		return NetworkError(message)
	case CategoryEvents:
		return EventsError(message)
	case CategoryStorage:
		return StorageError(message)
	case CategoryArchive:
		return ArchiveError(message)
	case CategoryRuntime:
		return RuntimeError(message)
	case CategoryInternal:
		return InternalError(message)
	default:
		return NewError(category, message)
	}
}

// WithSeverity sets the error severity.
func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.severity = severity
	return b
}

// WithRetry sets the retry strategy.
func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.retry = strategy
	return b
}

// WithCause attaches an underlying error.
func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.cause = err
	return b
}

// WithContext adds a context key-value pair.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.context = b.context.Set(key, value)
	return b
}

// Fatal sets the severity to fatal.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	return b.WithSeverity(SeverityFatal)
}

// Warning sets the severity to warning.
func (b *ErrorBuilder) Warning() *ErrorBuilder {
	return b.WithSeverity(SeverityWarning)
}

// Retryable sets the retry strategy to backoff.
func (b *ErrorBuilder) Retryable() *ErrorBuilder {
	return b.WithRetry(RetryBackoff)
}

// UserAction sets the retry strategy to require user action.
func (b *ErrorBuilder) UserAction() *ErrorBuilder {
	return b.WithRetry(RetryUserAction)
}

// Build creates the final ClassifiedError.
func (b *ErrorBuilder) Build() *ClassifiedError {
	return &ClassifiedError{
		category: b.category,
		severity: b.severity,
		retry:    b.retry,
		message:  b.message,
		cause:    b.cause,
		context:  b.context,
	}
}

// Convenience constructors for common error patterns

// ConfigError creates a configuration error.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

// ValidationError creates a validation error.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message)
}

// AuthError creates an authentication error.
func AuthError(message string) *ErrorBuilder {
	return NewError(CategoryAuth, message).UserAction()
}

// NotFoundError creates a missing-resource error.
func NotFoundError(message string) *ErrorBuilder {
	return NewError(CategoryNotFound, message)
}

// AlreadyExistsError creates a duplicate-resource error.
func AlreadyExistsError(message string) *ErrorBuilder {
	return NewError(CategoryAlreadyExists, message)
}

// DatabaseError creates a document database communication error (retryable).
func DatabaseError(message string) *ErrorBuilder {
	return NewError(CategoryDatabase, message).Retryable()
}

// NLPError creates an NLP microservice error (retryable).
func NLPError(message string) *ErrorBuilder {
	return NewError(CategoryNLP, message).Retryable()
}

// NetworkError creates a network error (retryable).
func NetworkError(message string) *ErrorBuilder {
	return NewError(CategoryNetwork, message).Retryable()
}

// EventsError creates an event publishing error.
func EventsError(message string) *ErrorBuilder {
	return NewError(CategoryEvents, message).Retryable()
}

// StorageError creates a local storage error.
func StorageError(message string) *ErrorBuilder {
	return NewError(CategoryStorage, message)
}

// ArchiveError creates a snapshot archive error.
func ArchiveError(message string) *ErrorBuilder {
	return NewError(CategoryArchive, message)
}

// RuntimeError creates a runtime error.
func RuntimeError(message string) *ErrorBuilder {
	return NewError(CategoryRuntime, message).Fatal()
}

// InternalError creates an internal error.
func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
