package domain

import (
	"github.com/shopspring/decimal"
)

// BalancePlaces is the number of decimal places every balance is rounded to.
const BalancePlaces = 4

// Account holds a single client's balances.
type Account struct {
	ClientID  uint16
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool
}

// NewAccount returns an active account with zero balances.
func NewAccount(clientID uint16) *Account {
	return &Account{
		ClientID:  clientID,
		Available: decimal.Zero,
		Held:      decimal.Zero,
		Total:     decimal.Zero,
	}
}

// Deposit credits amount to available and total.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if a.Locked {
		return ErrAccountLocked
	}
	a.Available = a.Available.Add(amount)
	a.Total = a.Total.Add(amount)
	a.round()
	return nil
}

// Withdraw debits amount from available and total.
// The resulting available balance must stay strictly positive, so draining
// an account to exactly zero is rejected.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if a.Locked {
		return ErrAccountLocked
	}
	if !a.Available.Sub(amount).IsPositive() {
		return ErrInsufficientFunds
	}
	a.Available = a.Available.Sub(amount)
	a.Total = a.Total.Sub(amount)
	a.round()
	return nil
}

// Dispute moves the amount of tx from available to held.
// Available may go negative when a withdrawal is disputed.
func (a *Account) Dispute(tx *Transaction) error {
	if a.Locked {
		return ErrAccountLocked
	}
	amount := tx.AmountOrZero()
	a.Held = a.Held.Add(amount)
	a.Available = a.Available.Sub(amount)
	a.round()
	return nil
}

// Resolve releases the held amount of tx back to available.
func (a *Account) Resolve(tx *Transaction) error {
	if a.Locked {
		return ErrAccountLocked
	}
	amount := tx.AmountOrZero()
	a.Held = a.Held.Sub(amount)
	a.Available = a.Available.Add(amount)
	a.round()
	return nil
}

// Chargeback removes the held amount of tx from the account and locks it.
func (a *Account) Chargeback(tx *Transaction) error {
	if a.Locked {
		return ErrAccountLocked
	}
	amount := tx.AmountOrZero()
	a.Held = a.Held.Sub(amount)
	a.Total = a.Total.Sub(amount)
	a.Locked = true
	a.round()
	return nil
}

// round applies the rounding policy to each balance independently.
func (a *Account) round() {
	a.Available = a.Available.Round(BalancePlaces)
	a.Held = a.Held.Round(BalancePlaces)
	a.Total = a.Total.Round(BalancePlaces)
}
