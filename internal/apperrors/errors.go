package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInternal indicates an unexpected storage or infrastructure failure. Details are
// logged server-side; callers get a generic retryable failure.
var ErrInternal = errors.New("internal error")

// Domain errors for the trust-account lifecycle.
var (
	// ErrInvalidAmount is returned when a transaction amount is zero or negative.
	ErrInvalidAmount = errors.New("transaction amount must be greater than zero")

	// ErrClientNotFound is returned when the referenced client does not exist.
	ErrClientNotFound = errors.New("client not found")

	// ErrClientInactive is returned when the referenced client is not Active.
	ErrClientInactive = errors.New("cannot post transaction for inactive client")

	// ErrInsufficientBalance is returned when a debit exceeds the available balance.
	// Use NewInsufficientBalanceError so the available balance travels with the error.
	ErrInsufficientBalance = errors.New("insufficient trust account balance")

	// ErrAlreadyPosted is returned when posting a transaction that is not a draft.
	ErrAlreadyPosted = errors.New("transaction is already posted")

	// ErrAlreadyReversed is returned when reversing a transaction twice.
	ErrAlreadyReversed = errors.New("transaction is already reversed")

	// ErrNotPosted is returned when reversing a transaction that was never posted.
	ErrNotPosted = errors.New("transaction is not posted")

	// ErrNotDraft is returned when mutating or deleting a transaction past Draft.
	ErrNotDraft = errors.New("transaction is no longer a draft")

	// ErrReversalWouldOverdraw is returned when a reversal would drive the client's
	// balance negative. Negative trust balances are never allowed.
	ErrReversalWouldOverdraw = errors.New("reversal would overdraw trust account")

	// ErrLockTimeout is returned when the per-client lock could not be acquired within
	// the configured wait. Transient; callers may retry with backoff.
	ErrLockTimeout = errors.New("timed out waiting for client account lock")

	// ErrLedgerWriteFailure is returned when the ledger append failed after validation
	// passed; the whole posting is rolled back.
	ErrLedgerWriteFailure = errors.New("failed to write ledger entry")

	// ErrStaleBalance is returned when the ledger changed between validation and the
	// storage commit, so the posting's balance snapshot no longer holds. Transient;
	// callers may retry.
	ErrStaleBalance = errors.New("client balance changed during posting")
)

// InsufficientBalanceError carries the available balance so callers can act on it
// without parsing the message.
type InsufficientBalanceError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient trust account balance: available %s, requested %s",
		e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// NewInsufficientBalanceError builds an InsufficientBalanceError for the given amounts.
func NewInsufficientBalanceError(available, requested decimal.Decimal) error {
	return &InsufficientBalanceError{Available: available, Requested: requested}
}

// AppError wraps an infrastructure failure with an HTTP-ish status code and context
// message. It unwraps to the underlying cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that unwraps to ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
