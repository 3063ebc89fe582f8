package types

import "fmt"

// Account entry types.
const (
	AccountIncome  = "income"
	AccountExpense = "expense"
)

// Account is one income or expense entry of the household ledger.
type Account struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Note     string  `json:"note,omitempty"`
	Date     string  `json:"date"` // YYYY-MM-DD
}

func (a *Account) RecordID() string   { return a.ID }
func (a *Account) Collection() string { return CollectionAccounts }

// Validate requires an identifier, a known type, a positive amount, a
// category and a calendar date.
func (a *Account) Validate() error {
	if err := requireField("id", a.ID); err != nil {
		return err
	}
	if a.Type != AccountIncome && a.Type != AccountExpense {
		return fmt.Errorf("%w: account type %q", ErrInvalidType, a.Type)
	}
	if a.Amount <= 0 {
		return ErrInvalidAmount
	}
	if err := requireField("category", a.Category); err != nil {
		return err
	}
	return validDate("date", a.Date, false)
}
