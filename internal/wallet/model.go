package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DisplayScale is the number of fractional digits balances are rounded to on read.
const DisplayScale = 2

// Wallet is a balance owned by a named person. Balance is never negative.
type Wallet struct {
	ID             uuid.UUID
	Balance        decimal.Decimal
	OwnerFirstName string
	OwnerLastName  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// View is the read-side projection returned to clients.
type View struct {
	ID             string
	Balance        decimal.Decimal
	OwnerFirstName string
	OwnerLastName  string
}

// ToView rounds the balance half-up to DisplayScale places.
func (w Wallet) ToView() View {
	return View{
		ID:             w.ID.String(),
		Balance:        w.Balance.Round(DisplayScale),
		OwnerFirstName: w.OwnerFirstName,
		OwnerLastName:  w.OwnerLastName,
	}
}
