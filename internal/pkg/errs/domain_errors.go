package errs

import "errors"

// Domain-specific sentinel errors shared across usecase layers
var (
	// Cart errors
	ErrCartNotFound      = errors.New("cart not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrInsufficientStock = errors.New("insufficient stock")

	// Concurrency errors
	ErrPreconditionMismatch = errors.New("precondition mismatch")
	ErrPreconditionRequired = errors.New("precondition required")

	// Idempotency errors
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrIdempotencyConflict    = errors.New("idempotency key reused with different payload")
	ErrIdempotencyInFlight    = errors.New("request with this idempotency key is in flight")

	// Pricing errors
	ErrUnknownDeliveryMethod = errors.New("unknown delivery method")

	// Validation errors
	ErrValidation = errors.New("validation error")

	// Operation markers for categorization
	ErrIdempotencyCheckFailed  = errors.New("idempotency check failed")
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
