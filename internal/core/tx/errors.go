package tx

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goLSKd/internal/core/schema"
)

// ErrLockTimeout is returned when the accounts a transaction touches could
// not be locked before the processing deadline.
var ErrLockTimeout = errors.New("lock wait timed out")

// StructuralError reports a payload that failed schema validation.
type StructuralError struct {
	Schema string
	Result schema.Result
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("Invalid transaction body - Failed to validate %s schema: %s", e.Schema, e.Result.Summary())
}

// SemanticError reports a well-formed transaction that is invalid against
// ledger state or type rules. Its message is returned to the submitter as is.
type SemanticError struct {
	Message string
}

func (e *SemanticError) Error() string {
	return e.Message
}

// Reject returns a SemanticError with a formatted message.
func Reject(format string, args ...any) *SemanticError {
	return &SemanticError{Message: fmt.Sprintf(format, args...)}
}

// InsufficientFunds returns the rejection for a sender that cannot cover a debit.
func InsufficientFunds(address string, balance uint64) *SemanticError {
	return Reject("Account does not have enough LSK: %s balance: %s", address, FormatLSK(balance))
}

// Common rejection messages.
const (
	MsgInvalidFee       = "Invalid transaction fee"
	MsgInvalidID        = "Invalid transaction id"
	MsgInvalidRecipient = "Invalid recipient"
	MsgInvalidAmount    = "Invalid transaction amount"
)
