// Package operation applies deposits and withdrawals to wallets. Operations
// on one wallet are serialized by a keyed lock; operations on different
// wallets run independently. Admission is bounded by a worker pool.
package operation

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/congo-pay/walletops/internal/validation"
)

// ErrFault marks an operation that failed for a reason other than bad input,
// an unknown wallet or an insufficient balance. Nothing was persisted.
var ErrFault = errors.New("operation failed")

// Request is a validated operation against one wallet.
type Request struct {
	WalletID uuid.UUID
	Type     validation.OperationType
	Amount   decimal.Decimal
}

// ParseRequest builds a Request from raw request fields.
func ParseRequest(walletID, operationType, amount string) (Request, error) {
	id, err := validation.ParseWalletID(walletID)
	if err != nil {
		return Request{}, err
	}
	opType, err := validation.ParseOperationType(operationType)
	if err != nil {
		return Request{}, err
	}
	value, err := validation.ParseAmount(amount)
	if err != nil {
		return Request{}, err
	}
	return Request{WalletID: id, Type: opType, Amount: value}, nil
}

// Validate checks a Request that was not built by ParseRequest.
func (r Request) Validate() error {
	switch {
	case r.WalletID == uuid.Nil:
		return fmt.Errorf("%w: wallet id is required", validation.ErrInvalidParameter)
	case !r.Type.Valid():
		return fmt.Errorf("%w: invalid operation type %q", validation.ErrInvalidParameter, r.Type)
	case !r.Amount.IsPositive():
		return fmt.Errorf("%w: amount must be positive", validation.ErrInvalidParameter)
	case !r.Amount.Equal(r.Amount.Truncate(validation.AmountScale)):
		return fmt.Errorf("%w: amount has more than %d decimal places", validation.ErrInvalidParameter, validation.AmountScale)
	}
	return nil
}

// Outcome tells how an accepted operation ended.
type Outcome int

const (
	// OutcomeApplied means the new balance was persisted.
	OutcomeApplied Outcome = iota + 1
	// OutcomeInsufficientBalance means a withdrawal exceeded the balance and
	// the wallet was left unchanged.
	OutcomeInsufficientBalance
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeInsufficientBalance:
		return "insufficient_balance"
	default:
		return "unknown"
	}
}

// InsufficientBalanceReason is reported to clients for rejected withdrawals.
const InsufficientBalanceReason = "Balance of wallet is not enough for withdraw operation"

// Result is produced exactly once for every operation that reached the wallet.
// Balance is the wallet balance after the operation.
type Result struct {
	Type    validation.OperationType
	Outcome Outcome
	Balance decimal.Decimal
}

// Succeeded reports whether the operation changed the balance.
func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeApplied
}

// Reason describes a business failure. It is empty on success.
func (r Result) Reason() string {
	if r.Outcome == OutcomeInsufficientBalance {
		return InsufficientBalanceReason
	}
	return ""
}
