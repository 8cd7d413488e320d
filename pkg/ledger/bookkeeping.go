package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fine is a traffic or damage penalty owed by a customer.
type Fine struct {
	ID         string          `json:"id"`
	CarID      string          `json:"carId,omitempty"`
	CustomerID string          `json:"customerId"`
	Amount     decimal.Decimal `json:"amount"`
	AmountPaid decimal.Decimal `json:"amountPaid"`
	IsPaid     bool            `json:"isPaid"`
	Points     int             `json:"points"`
	Date       Date            `json:"date"`
	Reason     string          `json:"reason"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Debt returns amount minus amountPaid.
func (fine Fine) Debt() decimal.Decimal {
	return fine.Amount.Sub(fine.AmountPaid)
}

// RecognizedAmount is the cash a paid fine brought in; a paid fine without a
// recorded payment counts at its full amount.
func (fine Fine) RecognizedAmount() decimal.Decimal {
	if !fine.IsPaid {
		return decimal.Zero
	}
	if fine.AmountPaid.IsZero() {
		return fine.Amount
	}
	return fine.AmountPaid
}

// ApplyPayment records a payment update. An explicit isPaid=true tops amountPaid
// up to the full amount; without isPaid the flag follows amountPaid ≥ amount.
func (fine *Fine) ApplyPayment(amountPaid *decimal.Decimal, isPaid *bool) {
	if amountPaid != nil {
		fine.AmountPaid = *amountPaid
	}
	if isPaid != nil {
		fine.IsPaid = *isPaid
		if fine.IsPaid && fine.AmountPaid.LessThan(fine.Amount) {
			fine.AmountPaid = fine.Amount
		}
		return
	}
	fine.IsPaid = fine.AmountPaid.GreaterThanOrEqual(fine.Amount)
}

// Income is money received outside of reservations.
type Income struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        Date            `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Expense is an administrative or per-car cost.
type Expense struct {
	ID        string          `json:"id"`
	CarID     string          `json:"carId,omitempty"`
	Title     string          `json:"title"`
	Category  string          `json:"category,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	When      Date            `json:"when"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// EffectiveDate is When, falling back to the UTC day the expense was recorded.
func (expense Expense) EffectiveDate() Date {
	if !expense.When.IsZero() {
		return expense.When
	}
	if expense.CreatedAt.IsZero() {
		return Date{}
	}
	return DateOf(expense.CreatedAt.UTC())
}

// Incident is an office event log entry.
type Incident struct {
	ID          string    `json:"id"`
	Date        Date      `json:"date"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}
