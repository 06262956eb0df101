package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrGuildNotConfigured = errors.New("guild payments not configured")
	ErrNoDuration         = errors.New("profile has no subscription duration configured")
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrLockNotAcquired    = errors.New("pass lock not acquired")
)

// GatewayError covers every outbound gateway failure: network errors,
// timeouts, non-2xx responses, and unparseable bodies. Callers decide whether
// it is fatal (session creation) or retryable next pass (status polling).
type GatewayError struct {
	Op         string // "create_checkout" | "fetch_status" | "post_webhook"
	StatusCode int    // 0 when the request never got a response
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway %s: http %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

func NewGatewayError(op string, statusCode int, err error) *GatewayError {
	return &GatewayError{Op: op, StatusCode: statusCode, Err: err}
}

// IsGatewayError reports whether err is (or wraps) a GatewayError.
func IsGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}
