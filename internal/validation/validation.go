// Package validation turns raw request strings into typed, well-formed values.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits amounts are canonicalized to.
const AmountScale = 2

// maxAmountLen bounds the textual size of an amount before parsing.
const maxAmountLen = 32

// ErrInvalidParameter is wrapped by every parsing failure.
var ErrInvalidParameter = errors.New("invalid parameter")

// OperationType names a wallet balance operation.
type OperationType string

const (
	// Deposit adds the amount to the balance.
	Deposit OperationType = "DEPOSIT"
	// Withdraw subtracts the amount if the balance covers it.
	Withdraw OperationType = "WITHDRAW"
)

// Valid reports whether t is a known operation type.
func (t OperationType) Valid() bool {
	return t == Deposit || t == Withdraw
}

// ParseWalletID parses a wallet UUID. The nil UUID is rejected.
func ParseWalletID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: invalid wallet id format", ErrInvalidParameter)
	}
	return id, nil
}

// ParseOperationType accepts DEPOSIT or WITHDRAW in any letter case.
func ParseOperationType(raw string) (OperationType, error) {
	t := OperationType(strings.ToUpper(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: invalid operation type %q", ErrInvalidParameter, raw)
	}
	return t, nil
}

// ParseAmount parses a strictly positive decimal amount with at most
// AmountScale fractional digits and returns it at exactly that scale.
// Parsing is exact; no binary floating point is involved.
func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := parseDecimal(raw)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: amount must be positive", ErrInvalidParameter)
	}
	return amount, nil
}

// ParseBalance parses a non-negative opening balance with the same format
// rules as ParseAmount.
func ParseBalance(raw string) (decimal.Decimal, error) {
	balance, err := parseDecimal(raw)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if balance.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: balance must not be negative", ErrInvalidParameter)
	}
	return balance, nil
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	// exponent notation would let a short string denote a huge number
	if raw == "" || len(raw) > maxAmountLen || strings.ContainsAny(raw, "eE") {
		return decimal.Decimal{}, fmt.Errorf("%w: invalid amount format", ErrInvalidParameter)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: invalid amount format", ErrInvalidParameter)
	}
	if !d.Equal(d.Truncate(AmountScale)) {
		return decimal.Decimal{}, fmt.Errorf("%w: amount has more than %d decimal places", ErrInvalidParameter, AmountScale)
	}
	return Canonical(d), nil
}

// Canonical rescales d to AmountScale fractional digits. d must already fit.
func Canonical(d decimal.Decimal) decimal.Decimal {
	return decimal.NewFromBigInt(d.Shift(AmountScale).BigInt(), -AmountScale)
}

// ParseOwnerName validates an owner display name.
func ParseOwnerName(field, raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidParameter, field)
	}
	if len([]rune(name)) > 50 {
		return "", fmt.Errorf("%w: %s must be at most 50 characters", ErrInvalidParameter, field)
	}
	return name, nil
}
